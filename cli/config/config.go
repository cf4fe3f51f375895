package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"github.com/scitix/contactmerge/internal/triage"
	"github.com/scitix/contactmerge/pkg/otrs"
	"github.com/scitix/contactmerge/pkg/ticketclient"
	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"github.com/scitix/contactmerge/tools"
)

// EnvPrefix is prepended to every flag name when looking it up in the
// environment, e.g. CONTACTMERGE_PASSWORD.
const EnvPrefix = "CONTACTMERGE"

// verboseLevel is the klog verbosity --verbose switches to.
const verboseLevel = 4

type ContactMergeConfig struct {
	ConfigFile string
	System     ticketclient.TicketSystem
	Ticket     ticketclient.Args
	Workflow   triage.Workflow
	Verbose    bool

	v        *viper.Viper
	logFlags *flag.FlagSet
}

func LoadConfig() *ContactMergeConfig {
	return &ContactMergeConfig{
		Workflow: triage.DefaultWorkflow(),
		v:        viper.New(),
	}
}

// AddFlags registers the persistent flags shared by all subcommands.
func (c *ContactMergeConfig) AddFlags(fs *pflag.FlagSet) {
	wf := triage.DefaultWorkflow()

	fs.StringVar(&c.ConfigFile, "config", "", "Path to a YAML configuration file.")
	fs.StringP("user", "u", "", "Ticketing system user.")
	fs.StringP("password", "p", "", "Ticketing system password.")
	fs.String("password-file", "", "Read the ticketing system password from this file.")
	fs.StringP("address", "a", "", "Ticketing system root url, e.g. https://otrs.example.com")
	fs.StringP("service", "s", "", "Name of the generic interface SOAP web service.")
	fs.BoolP("verbose", "v", false, "Enable debug logging.")
	fs.Bool("insecure-skip-verify", false, "Do not verify the TLS certificate of the ticketing system.")
	fs.Duration("timeout", otrs.DefaultTimeout, "Timeout of a single ticketing system request.")
	fs.Float64("qps", 0, "Maximum requests per second to the ticketing system, 0 means unlimited.")
	fs.Int("burst", 1, "Request burst allowed on top of --qps.")
	fs.Duration("cache-expiration", 5*time.Minute, "How long fetched tickets are reused within a process.")
	fs.String("system", string(ticketclient.TicketSystemOTRS), "Ticket system: otrs or dryrun (no ticket is changed).")

	fs.IntSlice("primary-queues", queueInts(wf.PrimaryQueues), "Queues holding new contact form tickets.")
	fs.String("primary-title", wf.PrimaryTitle, "Title of contact form tickets, %s marks the ip.")
	fs.IntSlice("secondary-queues", queueInts(wf.SecondaryQueues), "Queues searched for existing dossiers.")
	fs.String("secondary-title", wf.SecondaryTitle, "Title of dossiers, %s marks the ip.")
	fs.Int("dossier-queue", int(wf.DossierQueue), "Queue a new dossier is moved to.")
	fs.Bool("set-ip-field", wf.SetIPField, "Write the ip into the dynamic field of a new dossier.")
	fs.String("ip-field", wf.IPField, "Dynamic field receiving the ip with --set-ip-field.")
}

// AddLogFlags exposes the klog flags on fs. klog's -v is left out because it
// clashes with --verbose; --log-level takes its place.
func (c *ContactMergeConfig) AddLogFlags(fs *pflag.FlagSet) {
	c.logFlags = flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(c.logFlags)
	c.logFlags.VisitAll(func(f *flag.Flag) {
		if f.Name == "v" {
			return
		}
		fs.AddGoFlag(f)
	})
	fs.Int("log-level", 0, "Log verbosity, overridden by --verbose.")
}

// Bind reads the config file (if set) and binds all pflags to viper.
// Priority: CLI flag > env var > config file > flag default.
func (c *ContactMergeConfig) Bind(fs *pflag.FlagSet) error {
	c.v.SetEnvPrefix(EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if c.ConfigFile != "" {
		c.v.SetConfigFile(c.ConfigFile)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		klog.V(2).InfoS("Using config file", "file", c.v.ConfigFileUsed())
	}

	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if err := c.v.BindPFlag(f.Name, f); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// Complete materializes the bound values. It does not contact the ticketing
// system.
func (c *ContactMergeConfig) Complete() error {
	v := c.v

	c.Verbose = v.GetBool("verbose")
	if err := c.setLogLevel(); err != nil {
		return err
	}

	c.System = ticketclient.TicketSystem(v.GetString("system"))
	c.Ticket = ticketclient.Args{
		Address:            v.GetString("address"),
		Service:            v.GetString("service"),
		User:               v.GetString("user"),
		Password:           v.GetString("password"),
		InsecureSkipVerify: v.GetBool("insecure-skip-verify"),
		Timeout:            v.GetDuration("timeout"),
		QPS:                v.GetFloat64("qps"),
		Burst:              v.GetInt("burst"),
		CacheExpiration:    v.GetDuration("cache-expiration"),
	}
	if file := v.GetString("password-file"); file != "" && c.Ticket.Password == "" {
		password, err := tools.ReadSecret(file)
		if err != nil {
			return fmt.Errorf("read password file: %w", err)
		}
		c.Ticket.Password = password
	}

	wf := triage.DefaultWorkflow()
	var err error
	if wf.PrimaryQueues, err = queueList(v, "primary-queues"); err != nil {
		return err
	}
	if wf.SecondaryQueues, err = queueList(v, "secondary-queues"); err != nil {
		return err
	}
	wf.PrimaryTitle = v.GetString("primary-title")
	wf.SecondaryTitle = v.GetString("secondary-title")
	wf.DossierQueue = ticketmodel.QueueID(v.GetInt("dossier-queue"))
	wf.SetIPField = v.GetBool("set-ip-field")
	wf.IPField = v.GetString("ip-field")
	if err := wf.Validate(); err != nil {
		return fmt.Errorf("invalid workflow: %w", err)
	}
	c.Workflow = wf

	return nil
}

// NewClient connects the configured ticket system.
func (c *ContactMergeConfig) NewClient() (ticketmodel.Client, error) {
	if c.Ticket.Address == "" {
		return nil, errors.New("ticketing system address is required (--address)")
	}
	return ticketclient.NewClientBySystem(c.System, &c.Ticket)
}

func (c *ContactMergeConfig) setLogLevel() error {
	if c.logFlags == nil {
		return nil
	}
	level := c.v.GetInt("log-level")
	if c.Verbose && level < verboseLevel {
		level = verboseLevel
	}
	return c.logFlags.Set("v", strconv.Itoa(level))
}

// queueList accepts a list from flags or the config file and a comma
// separated string from the environment.
func queueList(v *viper.Viper, key string) ([]ticketmodel.QueueID, error) {
	var ints []int
	if s, ok := v.Get(key).(string); ok {
		s = strings.Trim(strings.TrimSpace(s), "[]")
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid queue %q in %s", part, key)
			}
			ints = append(ints, n)
		}
	} else {
		ints = v.GetIntSlice(key)
	}

	queues := make([]ticketmodel.QueueID, 0, len(ints))
	for _, n := range ints {
		queues = append(queues, ticketmodel.QueueID(n))
	}
	return queues, nil
}

func queueInts(queues []ticketmodel.QueueID) []int {
	ints := make([]int, 0, len(queues))
	for _, q := range queues {
		ints = append(ints, int(q))
	}
	return ints
}

