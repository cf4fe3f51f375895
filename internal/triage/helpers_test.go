package triage

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"k8s.io/klog/v2"
)

type logEntry struct {
	Msg     string
	IsError bool
	Fields  map[string]interface{}
}

type logCapture struct {
	mu      sync.Mutex
	entries []logEntry
}

// newTestLogger returns a logger that records every line, at any verbosity.
func newTestLogger(t *testing.T) (klog.Logger, *logCapture) {
	t.Helper()
	c := &logCapture{}
	logger := funcr.NewJSON(func(obj string) {
		var fields map[string]interface{}
		if err := json.Unmarshal([]byte(obj), &fields); err != nil {
			t.Errorf("unparsable log line %s: %v", obj, err)
			return
		}
		_, isErr := fields["error"]
		msg, _ := fields["msg"].(string)
		c.mu.Lock()
		c.entries = append(c.entries, logEntry{Msg: msg, IsError: isErr, Fields: fields})
		c.mu.Unlock()
	}, funcr.Options{Verbosity: 10})
	return logger, c
}

func (c *logCapture) errors() []logEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []logEntry
	for _, e := range c.entries {
		if e.IsError {
			out = append(out, e)
		}
	}
	return out
}

func (c *logCapture) has(msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Msg == msg {
			return true
		}
	}
	return false
}

func testContext(t *testing.T) (context.Context, *logCapture) {
	t.Helper()
	logger, logs := newTestLogger(t)
	return klog.NewContext(context.Background(), logger), logs
}

func contactTicket(id ticketmodel.TicketID, ip string, subjects ...string) ticketmodel.Ticket {
	t := ticketmodel.Ticket{
		ID:      id,
		Title:   "Contactformulier KPN voor het IP adres [" + ip + "]",
		QueueID: 25,
		State:   "new",
	}
	for _, s := range subjects {
		t.Articles = append(t.Articles, ticketmodel.Article{Subject: s, Body: s + " body"})
	}
	return t
}

func dossierTicket(id ticketmodel.TicketID, ip string, queue ticketmodel.QueueID, subjects ...string) ticketmodel.Ticket {
	t := ticketmodel.Ticket{
		ID:      id,
		Title:   "Misbruik van uw internetverbinding [" + ip + "]",
		QueueID: queue,
		State:   ticketmodel.TicketStateResolved,
	}
	for _, s := range subjects {
		t.Articles = append(t.Articles, ticketmodel.Article{Subject: s, Body: s + " body"})
	}
	return t
}

func subjects(t *ticketmodel.Ticket) []string {
	var out []string
	for _, a := range t.Articles {
		out = append(out, a.Subject)
	}
	return out
}
