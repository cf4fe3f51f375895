package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"k8s.io/klog/v2"
)

// Config is everything a run needs besides the client.
type Config struct {
	Workflow Workflow
	// Filter narrows the primary search to one IP. Empty means WildcardFilter.
	Filter string
}

// Observer receives run statistics, e.g. for metrics.
type Observer interface {
	ObserveTicket(action string, skipped string, failed bool)
	ObserveRun(duration time.Duration, aborted bool)
}

type Option func(*Driver)

func WithObserver(o Observer) Option {
	return func(d *Driver) {
		d.observer = o
	}
}

// Driver runs one triage pass over all contact form tickets. Tickets are
// handled one after the other.
type Driver struct {
	client   ticketmodel.Client
	config   Config
	logger   klog.Logger
	observer Observer

	searcher *Searcher
	resolver *Resolver
}

func NewDriver(client ticketmodel.Client, config Config, logger klog.Logger, opts ...Option) (*Driver, error) {
	if client == nil {
		return nil, errors.New("ticket client is required")
	}
	if config.Filter == "" {
		config.Filter = WildcardFilter
	}
	if err := config.Workflow.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow: %w", err)
	}

	d := &Driver{
		client:   client,
		config:   config,
		logger:   logger,
		searcher: NewSearcher(client, config.Workflow),
		resolver: NewResolver(config.Workflow, NewMutator(client)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run searches all contact form tickets and resolves them one by one. The
// returned error is set when the run was aborted: invalid filter, rejected
// credentials, or a cancelled context. Failures of single tickets are only
// recorded in the report.
func (d *Driver) Run(ctx context.Context) (report *Report, err error) {
	report = newReport(d.config.Filter)
	logger := klog.LoggerWithValues(d.logger, "run", report.RunID)
	ctx = klog.NewContext(ctx, logger)

	defer func() {
		report.Finished = time.Now()
		if err != nil {
			report.Error = err.Error()
		}
		if d.observer != nil {
			d.observer.ObserveRun(report.Duration(), err != nil)
		}
		logger.Info("Run finished", "primary", report.Primary, "newDossiers", report.NewDossiers,
			"merged", report.Merged, "ambiguous", report.Ambiguous, "skipped", report.Skipped,
			"failures", report.Failures, "duration", report.Duration())
	}()

	if err := ValidateFilter(d.config.Filter); err != nil {
		logger.Error(err, "Invalid IP address found as input")
		return report, err
	}

	logger.V(4).Info("Searching for ip", "filter", d.config.Filter)
	primary, err := d.searcher.PrimaryErr(ctx, d.config.Filter)
	if err != nil {
		report.Failures++
		if !ticketmodel.Continuable(err) {
			return report, err
		}
	}
	report.Primary = len(primary)
	logger.V(4).Info("Primary search results", "tickets", primary)

	if len(primary) == 0 {
		logger.Info("No results found for ip", "ip", d.config.Filter)
		return report, nil
	}

	for _, id := range primary {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		tr, err := d.process(ctx, id)
		report.add(tr)
		if d.observer != nil {
			d.observer.ObserveTicket(tr.Action.String(), tr.Skipped, tr.Error != "")
		}
		if !ticketmodel.Continuable(err) {
			return report, err
		}
	}
	return report, nil
}

func (d *Driver) process(ctx context.Context, id ticketmodel.TicketID) (TicketReport, error) {
	logger := klog.LoggerWithValues(klog.FromContext(ctx), "ticket", id)
	ctx = klog.NewContext(ctx, logger)
	tr := TicketReport{TicketID: id}

	ticket, err := d.client.GetTicket(ctx, id)
	if err != nil {
		logger.Error(err, "Failed to get ticket", "kind", ticketmodel.KindOf(err))
		tr.Skipped = SkipUnavailable
		tr.Error = err.Error()
		return tr, err
	}

	ip, ok := ExtractIP(ticket.Title)
	if !ok {
		logger.Info("No ip address found in ticket, skipping", "title", ticket.Title)
		tr.Skipped = SkipNoIP
		return tr, nil
	}
	tr.IP = ip
	logger.V(4).Info("Found ip address", "ip", ip)

	if d.config.Filter != WildcardFilter && ip != d.config.Filter {
		logger.V(2).Info("Ticket ip does not match filter, skipping", "ip", ip, "filter", d.config.Filter)
		tr.Skipped = SkipIPMismatch
		return tr, nil
	}

	// without a reliable dossier count the ticket could end up as a duplicate dossier
	secondary, err := d.searcher.SecondaryErr(ctx, ip)
	if err != nil {
		tr.Skipped = SkipSearchError
		tr.Error = err.Error()
		return tr, err
	}
	logger.V(4).Info("Secondary search results", "ip", ip, "tickets", secondary)

	out := d.resolver.Resolve(ctx, []ticketmodel.TicketID{id}, secondary, ip)
	tr.Action = out.Action
	tr.Dossier = out.Dossier
	tr.Candidates = out.Candidates
	if out.Err != nil {
		tr.Error = out.Err.Error()
		tr.Partial = IsPartialMerge(out.Err)
		if tr.Partial {
			logger.Error(out.Err, "Ticket left half merged", "dossier", out.Dossier)
		}
	}
	return tr, out.Err
}
