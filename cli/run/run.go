package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/scitix/contactmerge/cli/config"
	"github.com/scitix/contactmerge/internal/triage"
	"github.com/scitix/contactmerge/pkg/metrics"
	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"github.com/scitix/contactmerge/tools"
)

// pushTimeout bounds the Pushgateway upload after a run.
const pushTimeout = 10 * time.Second

type Options struct {
	IP          string
	Report      string
	MetricsFile string
	Pushgateway string
	PushJob     string

	// TimestampReports writes every report to its own file, named after the
	// start of the run.
	TimestampReports bool
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.IP, "ip", triage.WildcardFilter, "Only handle contact form tickets about this ip, % handles all.")
	fs.StringVar(&o.Report, "report", "", "Write a YAML report of the run to this file, - for stdout.")
	fs.StringVar(&o.MetricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file.")
	fs.StringVar(&o.Pushgateway, "pushgateway", "", "Push run metrics to this Prometheus Pushgateway url.")
	fs.StringVar(&o.PushJob, "push-job", metrics.DefaultJobName, "Job name used with --pushgateway.")
}

func (o *Options) Validate() error {
	if o.IP == "" {
		return errors.New("--ip must not be empty, use % for all tickets")
	}
	if o.Pushgateway != "" && o.PushJob == "" {
		return errors.New("--push-job is required with --pushgateway")
	}
	return nil
}

func NewCommand(config *config.ContactMergeConfig) *cobra.Command {
	o := &Options{}

	c := &cobra.Command{
		Use:   "run",
		Short: "Merge new contact form tickets into abuse dossiers",
		Long: `Search the new contact form tickets and, per ip, either turn the ticket
into a new dossier or merge it into the existing one. Tickets whose ip has
more than one dossier are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return fmt.Errorf("invalid run option: %w", err)
			}

			client, err := config.NewClient()
			if err != nil {
				return err
			}

			runner := NewRunner(*o, client, config.Workflow, cmd.OutOrStdout())
			_, err = runner.Run(cmd.Context())
			return err
		},
		Example: `contactmerge run -a https://otrs.example.com -s GenericTicketConnectorSOAP -u agent -p secret
contactmerge run --ip 203.0.113.5 --report report.yaml`,
	}

	o.AddFlags(c.Flags())
	return c
}

type flusher interface {
	Flush()
}

// Runner executes triage runs and exports their results. One Runner can be
// used for many runs; its metrics accumulate.
type Runner struct {
	options  Options
	client   ticketmodel.Client
	workflow triage.Workflow
	out      io.Writer
	logger   klog.Logger
	metrics  *metrics.MetricsController
}

func NewRunner(o Options, client ticketmodel.Client, workflow triage.Workflow, out io.Writer) *Runner {
	return &Runner{
		options:  o,
		client:   client,
		workflow: workflow,
		out:      out,
		logger:   klog.Background(),
		metrics:  metrics.NewMetricsController(),
	}
}

func (r *Runner) WithLogger(logger klog.Logger) *Runner {
	r.logger = logger
	return r
}

func (r *Runner) Metrics() *metrics.MetricsController {
	return r.metrics
}

// Run performs one triage pass, prints the summary and writes the report and
// metrics. The error is set when the run aborted or an export failed.
func (r *Runner) Run(ctx context.Context) (*triage.Report, error) {
	// tickets read by an earlier run may have changed since
	if c, ok := r.client.(flusher); ok {
		c.Flush()
	}

	driver, err := triage.NewDriver(r.client, triage.Config{
		Workflow: r.workflow,
		Filter:   r.options.IP,
	}, r.logger, triage.WithObserver(r.metrics))
	if err != nil {
		return nil, err
	}

	report, runErr := driver.Run(ctx)
	PrintSummary(r.out, report)

	errs := []error{runErr}
	if r.options.Report != "" {
		if err := r.writeReport(report); err != nil {
			errs = append(errs, fmt.Errorf("write report: %w", err))
		}
	}
	if r.options.MetricsFile != "" {
		if err := r.metrics.WriteTextfile(r.options.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if r.options.Pushgateway != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		err := r.metrics.Push(pushCtx, r.options.Pushgateway, r.options.PushJob)
		cancel()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return report, errors.Join(errs...)
}

func (r *Runner) writeReport(report *triage.Report) error {
	if r.options.Report == "-" {
		return WriteReport(r.out, report)
	}

	file := r.options.Report
	if r.options.TimestampReports {
		file = tools.TimestampedPath(file, report.Started)
	}
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := WriteReport(f, report); err != nil {
		_ = f.Close()
		return err
	}
	r.logger.V(2).Info("Wrote run report", "file", file)
	return f.Close()
}

func WriteReport(w io.Writer, report *triage.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
