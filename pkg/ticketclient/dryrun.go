package ticketclient

import (
	"context"
	"sync"

	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"k8s.io/klog/v2"
)

// DryRunClient passes reads to the wrapped client and logs updates instead of
// sending them.
type DryRunClient struct {
	next ticketmodel.Client

	mu      sync.Mutex
	dropped []DroppedUpdate
}

type DroppedUpdate struct {
	TicketID ticketmodel.TicketID
	Update   ticketmodel.TicketUpdate
}

var _ ticketmodel.Client = &DryRunClient{}

func NewDryRunClient(next ticketmodel.Client) *DryRunClient {
	return &DryRunClient{next: next}
}

func (d *DryRunClient) SearchTickets(ctx context.Context, query ticketmodel.SearchQuery) ([]ticketmodel.TicketID, error) {
	return d.next.SearchTickets(ctx, query)
}

func (d *DryRunClient) GetTicket(ctx context.Context, id ticketmodel.TicketID) (*ticketmodel.Ticket, error) {
	return d.next.GetTicket(ctx, id)
}

func (d *DryRunClient) UpdateTicket(ctx context.Context, id ticketmodel.TicketID, update ticketmodel.TicketUpdate) error {
	if update.Empty() {
		return &ticketmodel.Error{Op: "TicketUpdate", TicketID: id, Kind: ticketmodel.KindInvalid, Err: ticketmodel.ErrEmptyUpdate}
	}
	klog.InfoS("dry run, skipping ticket update", "ticket", id, "update", update.String())

	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropped = append(d.dropped, DroppedUpdate{TicketID: id, Update: update})
	return nil
}

// Dropped returns the updates that were not sent.
func (d *DryRunClient) Dropped() []DroppedUpdate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DroppedUpdate(nil), d.dropped...)
}
