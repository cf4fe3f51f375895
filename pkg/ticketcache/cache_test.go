package ticketcache

import (
	"context"
	"testing"

	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"github.com/scitix/contactmerge/pkg/ticketmodel/tickettest"
)

func TestGetTicketCached(t *testing.T) {
	fake := tickettest.NewClient(ticketmodel.Ticket{ID: "1", Title: "a", QueueID: 25})
	c := New(fake, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tk, err := c.GetTicket(ctx, "1")
		if err != nil {
			t.Fatalf("GetTicket: %v", err)
		}
		if tk.Title != "a" {
			t.Errorf("title = %q, want a", tk.Title)
		}
	}

	if got := len(fake.CallsOf("TicketGet")); got != 1 {
		t.Errorf("remote TicketGet calls = %d, want 1", got)
	}
	if c.Len() != 1 {
		t.Errorf("cache len = %d, want 1", c.Len())
	}
}

func TestUpdateEvicts(t *testing.T) {
	fake := tickettest.NewClient(ticketmodel.Ticket{ID: "1", Title: "a", QueueID: 25})
	c := New(fake, 0)
	ctx := context.Background()

	if _, err := c.GetTicket(ctx, "1"); err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if err := c.UpdateTicket(ctx, "1", ticketmodel.SetTitle("b")); err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}

	tk, err := c.GetTicket(ctx, "1")
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if tk.Title != "b" {
		t.Errorf("title after update = %q, want b", tk.Title)
	}
	if got := len(fake.CallsOf("TicketGet")); got != 2 {
		t.Errorf("remote TicketGet calls = %d, want 2", got)
	}
}

func TestCachedCopyIsolated(t *testing.T) {
	fake := tickettest.NewClient(ticketmodel.Ticket{ID: "1", Title: "a"})
	c := New(fake, 0)
	ctx := context.Background()

	tk, _ := c.GetTicket(ctx, "1")
	tk.Title = "mutated"
	tk.Articles = append(tk.Articles, ticketmodel.Article{Subject: "x"})

	again, _ := c.GetTicket(ctx, "1")
	if again.Title != "a" || len(again.Articles) != 0 {
		t.Errorf("cached ticket changed by caller: %+v", again)
	}
}

func TestErrorsNotCached(t *testing.T) {
	fake := tickettest.NewClient()
	c := New(fake, 0)

	if _, err := c.GetTicket(context.Background(), "404"); !ticketmodel.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	if c.Len() != 0 {
		t.Errorf("cache len = %d, want 0", c.Len())
	}
}
