package schedule

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/scitix/contactmerge/api"
	"github.com/scitix/contactmerge/cli/config"
	"github.com/scitix/contactmerge/cli/run"
	"github.com/scitix/contactmerge/internal/triage"
	"github.com/scitix/contactmerge/tools"
)

type runner interface {
	Run(ctx context.Context) (*triage.Report, error)
}

type scheduleOption struct {
	run.Options

	schedule    string
	runOnStart  bool
	gracePeriod int
	httpPort    int
	routePrefix string

	// report of the last finished run
	last atomic.Pointer[triage.Report]

	config *config.ContactMergeConfig
}

func NewCommand(config *config.ContactMergeConfig) *cobra.Command {
	o := &scheduleOption{
		config: config,
	}

	c := &cobra.Command{
		Use:   "schedule",
		Short: "Run the triage periodically on a cron schedule",
		Long: `Run the triage on a cron schedule until SIGTERM or SIGINT. A run is skipped
while the previous one is still going, so two runs never touch the same
tickets at once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return fmt.Errorf("invalid schedule option: %w", err)
			}
			sched, err := cron.ParseStandard(o.schedule)
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", o.schedule, err)
			}

			client, err := o.config.NewClient()
			if err != nil {
				return err
			}
			options := o.Options
			options.TimestampReports = true
			r := run.NewRunner(options, client, o.config.Workflow, cmd.OutOrStdout())

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go tools.HandlerSigterm(cancel, o.gracePeriod, func(code int) {
				os.Exit(code)
			})

			if o.httpPort > 0 {
				handler := api.NewHandler(o.routePrefix, r.Metrics().Registry(), o.last.Load)
				go func() {
					if err := api.RunHttpServer(ctx, strconv.Itoa(o.httpPort), handler); err != nil {
						klog.ErrorS(err, "Http server failed")
						cancel()
					}
				}()
			}

			return o.serve(ctx, sched, r)
		},
		Example: `contactmerge schedule --schedule "*/15 * * * *" --metrics-file /var/lib/node_exporter/contactmerge.prom`,
	}

	o.AddFlags(c.Flags())
	c.Flags().StringVar(&o.schedule, "schedule", "*/15 * * * *", "Cron expression, or a descriptor like @hourly.")
	c.Flags().BoolVar(&o.runOnStart, "run-on-start", false, "Run once right away instead of waiting for the first tick.")
	c.Flags().IntVar(&o.gracePeriod, "grace-period", 5, "Seconds a running triage gets to stop after a signal.")
	c.Flags().IntVar(&o.httpPort, "http-port", 0, "Serve /metrics, /healthz and /status on this port, 0 disables.")
	c.Flags().StringVar(&o.routePrefix, "web.route-prefix", "/", "Prefix for the http endpoints.")

	return c
}

func (o *scheduleOption) validate() error {
	if err := o.Options.Validate(); err != nil {
		return err
	}
	if o.schedule == "" {
		return errors.New("--schedule is required")
	}
	if o.gracePeriod < 0 {
		return errors.New("--grace-period must not be negative")
	}
	if o.httpPort < 0 || o.httpPort > 65535 {
		return fmt.Errorf("invalid --http-port %d", o.httpPort)
	}
	return nil
}

// serve blocks until ctx is done, then waits for a running triage to stop.
func (o *scheduleOption) serve(ctx context.Context, sched cron.Schedule, r runner) error {
	logger := klog.LoggerWithName(klog.FromContext(ctx), "schedule")

	job := func() {
		report, err := r.Run(ctx)
		if report != nil {
			o.last.Store(report)
		}
		if err != nil {
			logger.Error(err, "Scheduled run failed")
			return
		}
		logger.V(2).Info("Scheduled run done", "run", report.RunID)
	}

	c := cron.New(
		cron.WithLogger(logger.V(4)),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(sched, cron.FuncJob(job))

	if o.runOnStart {
		job()
	}

	c.Start()
	logger.Info("Schedule started", "schedule", o.schedule, "next", sched.Next(time.Now()))

	<-ctx.Done()
	logger.Info("Stopping schedule")
	<-c.Stop().Done()
	return nil
}
