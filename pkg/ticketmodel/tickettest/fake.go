// Package tickettest provides an in-memory ticketmodel.Client for tests.
package tickettest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/scitix/contactmerge/pkg/ticketmodel"
)

// Call records one invocation against the fake.
type Call struct {
	Op       string
	TicketID ticketmodel.TicketID
	Query    ticketmodel.SearchQuery
	Update   ticketmodel.TicketUpdate
}

// Client keeps tickets in memory and evaluates searches the way the helpdesk
// does: queue membership plus a LIKE match on the title.
type Client struct {
	mu      sync.Mutex
	tickets map[ticketmodel.TicketID]*ticketmodel.Ticket
	order   []ticketmodel.TicketID
	calls   []Call

	// SearchErr, GetErr and UpdateErr force failures. The key of GetErr and
	// UpdateErr is the ticket id; UpdateErr values are consumed in order, one
	// per call, so a test can fail only the n-th update of a ticket.
	SearchErr map[string]error
	GetErr    map[ticketmodel.TicketID]error
	UpdateErr map[ticketmodel.TicketID][]error
}

func NewClient(tickets ...ticketmodel.Ticket) *Client {
	c := &Client{
		tickets:   make(map[ticketmodel.TicketID]*ticketmodel.Ticket),
		SearchErr: make(map[string]error),
		GetErr:    make(map[ticketmodel.TicketID]error),
		UpdateErr: make(map[ticketmodel.TicketID][]error),
	}
	for _, t := range tickets {
		c.Add(t)
	}
	return c
}

func (c *Client) Add(t ticketmodel.Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tickets[t.ID]; !ok {
		c.order = append(c.order, t.ID)
	}
	cp := copyTicket(&t)
	c.tickets[t.ID] = cp
}

// Ticket returns a copy of the stored ticket.
func (c *Client) Ticket(id ticketmodel.TicketID) *ticketmodel.Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tickets[id]
	if !ok {
		return nil
	}
	return copyTicket(t)
}

func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// CallsOf returns the recorded calls with the given operation name.
func (c *Client) CallsOf(op string) []Call {
	var out []Call
	for _, call := range c.Calls() {
		if call.Op == op {
			out = append(out, call)
		}
	}
	return out
}

func (c *Client) SearchTickets(ctx context.Context, query ticketmodel.SearchQuery) ([]ticketmodel.TicketID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: "TicketSearch", Query: query})

	if err, ok := c.SearchErr[query.Title]; ok {
		return nil, err
	}

	queues := make(map[ticketmodel.QueueID]bool, len(query.QueueIDs))
	for _, q := range query.QueueIDs {
		queues[q] = true
	}

	var ids []ticketmodel.TicketID
	for _, id := range c.order {
		t := c.tickets[id]
		if len(queues) > 0 && !queues[t.QueueID] {
			continue
		}
		if !Like(t.Title, query.Title) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Client) GetTicket(ctx context.Context, id ticketmodel.TicketID) (*ticketmodel.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: "TicketGet", TicketID: id})

	if err, ok := c.GetErr[id]; ok {
		return nil, err
	}
	t, ok := c.tickets[id]
	if !ok {
		return nil, &ticketmodel.Error{Op: "TicketGet", TicketID: id, Kind: ticketmodel.KindNotFound}
	}
	return copyTicket(t), nil
}

func (c *Client) UpdateTicket(ctx context.Context, id ticketmodel.TicketID, update ticketmodel.TicketUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: "TicketUpdate", TicketID: id, Update: update})

	if errs := c.UpdateErr[id]; len(errs) > 0 {
		err := errs[0]
		c.UpdateErr[id] = errs[1:]
		if err != nil {
			return err
		}
	}

	t, ok := c.tickets[id]
	if !ok {
		return &ticketmodel.Error{Op: "TicketUpdate", TicketID: id, Kind: ticketmodel.KindNotFound}
	}
	if update.Empty() {
		return &ticketmodel.Error{Op: "TicketUpdate", TicketID: id, Kind: ticketmodel.KindInvalid, Err: ticketmodel.ErrEmptyUpdate}
	}

	if update.QueueID != nil {
		t.QueueID = *update.QueueID
	}
	if update.Title != nil {
		t.Title = *update.Title
	}
	if update.State != nil {
		t.State = *update.State
	}
	if f := update.DynamicField; f != nil {
		replaced := false
		for i := range t.DynamicFields {
			if t.DynamicFields[i].Name == f.Name {
				t.DynamicFields[i].Value = f.Value
				replaced = true
			}
		}
		if !replaced {
			t.DynamicFields = append(t.DynamicFields, *f)
		}
	}
	if a := update.Article; a != nil {
		art := *a
		art.ID = fmt.Sprintf("%s-%d", id, len(t.Articles)+1)
		t.Articles = append(t.Articles, art)
	}
	return nil
}

// Like reports whether s matches the SQL LIKE pattern, where '%' matches any
// run of characters. Matching is case-insensitive like the helpdesk search.
func Like(s, pattern string) bool {
	s, pattern = strings.ToLower(s), strings.ToLower(pattern)
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return s == pattern
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, p := range parts[1 : len(parts)-1] {
		i := strings.Index(s, p)
		if i < 0 {
			return false
		}
		s = s[i+len(p):]
	}
	return strings.HasSuffix(s, last)
}

func copyTicket(t *ticketmodel.Ticket) *ticketmodel.Ticket {
	cp := *t
	cp.DynamicFields = append([]ticketmodel.DynamicField(nil), t.DynamicFields...)
	cp.Articles = append([]ticketmodel.Article(nil), t.Articles...)
	return &cp
}
