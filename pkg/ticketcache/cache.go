// Package ticketcache memoizes ticket reads for the length of one triage run.
package ticketcache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"k8s.io/klog/v2"
)

const (
	DefaultExpiration = 10 * time.Minute
	cleanupInterval   = 20 * time.Minute
)

// Client wraps a ticketmodel.Client. GetTicket results are cached per ticket
// and dropped on every update of that ticket; searches always go through.
type Client struct {
	next  ticketmodel.Client
	cache *cache.Cache
}

var _ ticketmodel.Client = &Client{}

func New(next ticketmodel.Client, expiration time.Duration) *Client {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &Client{
		next:  next,
		cache: cache.New(expiration, cleanupInterval),
	}
}

func (c *Client) SearchTickets(ctx context.Context, query ticketmodel.SearchQuery) ([]ticketmodel.TicketID, error) {
	return c.next.SearchTickets(ctx, query)
}

func (c *Client) GetTicket(ctx context.Context, id ticketmodel.TicketID) (*ticketmodel.Ticket, error) {
	if v, ok := c.cache.Get(string(id)); ok {
		klog.V(6).InfoS("ticket cache hit", "ticket", id)
		return copyTicket(v.(*ticketmodel.Ticket)), nil
	}

	t, err := c.next.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(string(id), copyTicket(t))
	return t, nil
}

func (c *Client) UpdateTicket(ctx context.Context, id ticketmodel.TicketID, update ticketmodel.TicketUpdate) error {
	// evict even on failure, the remote state is unknown then
	defer c.cache.Delete(string(id))
	return c.next.UpdateTicket(ctx, id, update)
}

// Flush drops every cached ticket.
func (c *Client) Flush() {
	c.cache.Flush()
}

func (c *Client) Len() int {
	return c.cache.ItemCount()
}

func copyTicket(t *ticketmodel.Ticket) *ticketmodel.Ticket {
	cp := *t
	cp.DynamicFields = append([]ticketmodel.DynamicField(nil), t.DynamicFields...)
	cp.Articles = append([]ticketmodel.Article(nil), t.Articles...)
	return &cp
}
