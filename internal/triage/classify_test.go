package triage

import (
	"testing"

	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"github.com/scitix/contactmerge/pkg/ticketmodel/tickettest"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		primary   int
		secondary int
		want      Action
	}{
		{0, 0, ActionNoCase},
		{0, 1, ActionNoCase},
		{0, 5, ActionNoCase},
		{1, 0, ActionNewDossier},
		{3, 0, ActionNewDossier},
		{1, 1, ActionMerge},
		{4, 1, ActionMerge},
		{1, 2, ActionAmbiguous},
		{2, 7, ActionAmbiguous},
	}
	for _, c := range cases {
		if got := Classify(c.primary, c.secondary); got != c.want {
			t.Errorf("Classify(%d, %d) = %v, want %v", c.primary, c.secondary, got, c.want)
		}
	}
}

func TestActionString(t *testing.T) {
	for a, want := range map[Action]string{
		ActionNoCase:     "no-case",
		ActionNewDossier: "new-dossier",
		ActionMerge:      "merge",
		ActionAmbiguous:  "ambiguous",
		Action(42):       "Action(42)",
	} {
		if got := a.String(); got != want {
			t.Errorf("Action(%d).String() = %q, want %q", int(a), got, want)
		}
	}
}

func TestResolveNoCase(t *testing.T) {
	ctx, logs := testContext(t)
	fake := tickettest.NewClient()
	r := NewResolver(DefaultWorkflow(), NewMutator(fake))

	out := r.Resolve(ctx, nil, []ticketmodel.TicketID{"50"}, "203.0.113.5")
	if out.Action != ActionNoCase || out.Err != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("unexpected calls: %+v", fake.Calls())
	}
	if len(logs.errors()) != 0 {
		t.Errorf("unexpected error logs: %+v", logs.errors())
	}
}

func TestResolveOnlyFirstPrimary(t *testing.T) {
	ctx, _ := testContext(t)
	fake := tickettest.NewClient(
		contactTicket("100", "203.0.113.5"),
		contactTicket("101", "203.0.113.5"),
	)
	r := NewResolver(DefaultWorkflow(), NewMutator(fake))

	out := r.Resolve(ctx, []ticketmodel.TicketID{"100", "101"}, nil, "203.0.113.5")
	if out.Action != ActionNewDossier || out.Ticket != "100" || out.Err != nil {
		t.Fatalf("outcome = %+v", out)
	}
	for _, call := range fake.CallsOf("TicketUpdate") {
		if call.TicketID != "100" {
			t.Errorf("update issued for %s", call.TicketID)
		}
	}
	if got := fake.Ticket("101"); got.State != "new" {
		t.Errorf("second primary ticket touched: %+v", got)
	}
}

func TestResolveAmbiguous(t *testing.T) {
	ctx, logs := testContext(t)
	fake := tickettest.NewClient(
		contactTicket("102", "192.0.2.9", "report"),
		dossierTicket("51", "192.0.2.9", 22),
		dossierTicket("52", "192.0.2.9", 23),
	)
	r := NewResolver(DefaultWorkflow(), NewMutator(fake))

	out := r.Resolve(ctx, []ticketmodel.TicketID{"102"}, []ticketmodel.TicketID{"51", "52"}, "192.0.2.9")
	if out.Action != ActionAmbiguous {
		t.Fatalf("action = %v, want ambiguous", out.Action)
	}
	if len(out.Candidates) != 2 {
		t.Errorf("candidates = %v", out.Candidates)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("mutating calls issued: %+v", fake.Calls())
	}
	errs := logs.errors()
	if len(errs) != 1 || errs[0].Msg != "Multiple dossiers found, aborting" {
		t.Errorf("error logs = %+v", errs)
	}
}
