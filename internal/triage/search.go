package triage

import (
	"context"

	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"k8s.io/klog/v2"
)

// Searcher runs the two workflow searches. A failed search is logged and
// yields an empty, non-nil result.
type Searcher struct {
	client   ticketmodel.Client
	workflow Workflow
}

func NewSearcher(client ticketmodel.Client, workflow Workflow) *Searcher {
	return &Searcher{client: client, workflow: workflow}
}

// Primary returns the contact form tickets matching filter.
func (s *Searcher) Primary(ctx context.Context, filter string) []ticketmodel.TicketID {
	ids, _ := s.PrimaryErr(ctx, filter)
	return ids
}

// Secondary returns the dossiers of ip.
func (s *Searcher) Secondary(ctx context.Context, ip string) []ticketmodel.TicketID {
	ids, _ := s.SecondaryErr(ctx, ip)
	return ids
}

// PrimaryErr is Primary that also reports the failure.
func (s *Searcher) PrimaryErr(ctx context.Context, filter string) ([]ticketmodel.TicketID, error) {
	return s.search(ctx, "primary", s.workflow.PrimaryQuery(filter))
}

// SecondaryErr is Secondary that also reports the failure.
func (s *Searcher) SecondaryErr(ctx context.Context, ip string) ([]ticketmodel.TicketID, error) {
	return s.search(ctx, "secondary", s.workflow.SecondaryQuery(ip))
}

func (s *Searcher) search(ctx context.Context, stage string, query ticketmodel.SearchQuery) ([]ticketmodel.TicketID, error) {
	logger := klog.FromContext(ctx)

	ids, err := s.client.SearchTickets(ctx, query)
	if err != nil {
		logger.Error(err, "Exception in search request", "stage", stage, "kind", ticketmodel.KindOf(err), "queues", query.QueueIDs, "title", query.Title)
		return []ticketmodel.TicketID{}, err
	}
	if ids == nil {
		ids = []ticketmodel.TicketID{}
	}

	logger.V(4).Info("Search results", "stage", stage, "title", query.Title, "tickets", ids)
	return ids, nil
}
