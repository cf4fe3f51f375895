package search

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/scitix/contactmerge/cli/config"
	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"github.com/scitix/contactmerge/pkg/ticketmodel/tickettest"
)

func newFixture() *tickettest.Client {
	return tickettest.NewClient(
		ticketmodel.Ticket{ID: "100", Title: "Contactformulier KPN voor het IP adres [203.0.113.5]", QueueID: 25, State: "new"},
		ticketmodel.Ticket{ID: "101", Title: "Contactformulier KPN voor het IP adres [198.51.100.7]", QueueID: 25, State: "new"},
		ticketmodel.Ticket{ID: "102", Title: "Contactformulier KPN voor het IP adres onbekend", QueueID: 25, State: "new"},
		ticketmodel.Ticket{ID: "200", Title: "Misbruik van uw internetverbinding [198.51.100.7]", QueueID: 22, State: "resolved"},
		ticketmodel.Ticket{ID: "201", Title: "Misbruik van uw internetverbinding [198.51.100.7]", QueueID: 23, State: "open"},
	)
}

func newOption(ip string, dossiers bool) *searchOption {
	return &searchOption{
		ip:       ip,
		output:   OutputTable,
		dossiers: dossiers,
		config:   config.LoadConfig(),
	}
}

func TestSearchRun(t *testing.T) {
	client := newFixture()

	matches, err := newOption("%", true).run(context.Background(), client)
	require.NoError(t, err)

	want := []Match{
		{TicketID: "100", Title: "Contactformulier KPN voor het IP adres [203.0.113.5]", Queue: 25, State: "new", IP: "203.0.113.5", Dossiers: []ticketmodel.TicketID{}, Action: "new-dossier"},
		{TicketID: "101", Title: "Contactformulier KPN voor het IP adres [198.51.100.7]", Queue: 25, State: "new", IP: "198.51.100.7", Dossiers: []ticketmodel.TicketID{"200", "201"}, Action: "ambiguous"},
		{TicketID: "102", Title: "Contactformulier KPN voor het IP adres onbekend", Queue: 25, State: "new"},
	}
	if diff := cmp.Diff(want, matches, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("unexpected matches (-want +got):\n%s", diff)
	}
	assert.Empty(t, client.CallsOf("TicketUpdate"))
}

func TestSearchRunFilter(t *testing.T) {
	matches, err := newOption("203.0.113.5", false).run(context.Background(), newFixture())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, ticketmodel.TicketID("100"), matches[0].TicketID)
	assert.Empty(t, matches[0].Action)
}

func TestSearchRunAuthFailure(t *testing.T) {
	client := newFixture()
	client.GetErr["100"] = &ticketmodel.Error{Op: "TicketGet", TicketID: "100", Kind: ticketmodel.KindAuth}

	_, err := newOption("%", true).run(context.Background(), client)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ticketmodel.ErrAuthFailed))
}

func TestSearchRunTicketUnavailable(t *testing.T) {
	client := newFixture()
	client.GetErr["100"] = &ticketmodel.Error{Op: "TicketGet", TicketID: "100", Kind: ticketmodel.KindTransport, Err: errors.New("connection reset")}

	matches, err := newOption("%", true).run(context.Background(), client)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Contains(t, matches[0].Error, "connection reset")
}

func TestSearchPrint(t *testing.T) {
	matches := []Match{
		{TicketID: "101", Title: "Contactformulier KPN voor het IP adres [198.51.100.7]", Queue: 25, State: "new", IP: "198.51.100.7", Dossiers: []ticketmodel.TicketID{"200"}, Action: "merge"},
	}

	o := newOption("%", true)
	var out bytes.Buffer
	require.NoError(t, o.print(&out, matches))
	assert.Contains(t, out.String(), "DOSSIERS")
	assert.Contains(t, out.String(), "198.51.100.7")
	assert.Contains(t, out.String(), "merge")

	o.output = OutputYAML
	out.Reset()
	require.NoError(t, o.print(&out, matches))
	var got []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "101", got[0]["ticket"])
	assert.Equal(t, []interface{}{"200"}, got[0]["dossiers"])

	o.output = OutputTable
	out.Reset()
	require.NoError(t, o.print(&out, nil))
	assert.Equal(t, "No contact form tickets found\n", out.String())
}

func TestSearchValidate(t *testing.T) {
	o := newOption("%", true)
	assert.NoError(t, o.validate())

	o.output = "json"
	assert.Error(t, o.validate())

	o.output = OutputYAML
	o.ip = "localhost"
	assert.Error(t, o.validate())
}
