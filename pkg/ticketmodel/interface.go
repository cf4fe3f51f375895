package ticketmodel

import "context"

// Client is the adapter to a remote ticketing system. Implementations return
// *Error for every failure so callers can decide whether to continue.
type Client interface {
	SearchTickets(ctx context.Context, query SearchQuery) ([]TicketID, error)
	GetTicket(ctx context.Context, id TicketID) (*Ticket, error)
	UpdateTicket(ctx context.Context, id TicketID, update TicketUpdate) error
}
