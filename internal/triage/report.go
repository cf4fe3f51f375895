package triage

import (
	"time"

	"github.com/google/uuid"
	"github.com/scitix/contactmerge/pkg/ticketmodel"
)

// Skip reasons.
const (
	SkipNoIP        = "no ip in title"
	SkipIPMismatch  = "ip does not match filter"
	SkipUnavailable = "ticket unavailable"
	SkipSearchError = "dossier search failed"
)

// TicketReport is what happened to one contact form ticket.
type TicketReport struct {
	TicketID   ticketmodel.TicketID   `yaml:"ticket" json:"ticket"`
	IP         string                 `yaml:"ip,omitempty" json:"ip,omitempty"`
	Action     Action                 `yaml:"action" json:"action"`
	Skipped    string                 `yaml:"skipped,omitempty" json:"skipped,omitempty"`
	Dossier    ticketmodel.TicketID   `yaml:"dossier,omitempty" json:"dossier,omitempty"`
	Candidates []ticketmodel.TicketID `yaml:"candidates,omitempty" json:"candidates,omitempty"`
	Error      string                 `yaml:"error,omitempty" json:"error,omitempty"`
	Partial    bool                   `yaml:"partialMerge,omitempty" json:"partialMerge,omitempty"`
}

// Report summarizes one run. Action counters count decisions; a decision whose
// mutation failed is counted in Failures as well.
type Report struct {
	RunID    string    `yaml:"runID" json:"runID"`
	Filter   string    `yaml:"filter" json:"filter"`
	Started  time.Time `yaml:"started" json:"started"`
	Finished time.Time `yaml:"finished" json:"finished"`

	Primary       int `yaml:"primary" json:"primary"`
	Skipped       int `yaml:"skipped" json:"skipped"`
	NoCase        int `yaml:"noCase" json:"noCase"`
	NewDossiers   int `yaml:"newDossiers" json:"newDossiers"`
	Merged        int `yaml:"merged" json:"merged"`
	Ambiguous     int `yaml:"ambiguous" json:"ambiguous"`
	PartialMerges int `yaml:"partialMerges" json:"partialMerges"`
	Failures      int `yaml:"failures" json:"failures"`

	// Error is set when the run was aborted.
	Error   string         `yaml:"error,omitempty" json:"error,omitempty"`
	Tickets []TicketReport `yaml:"tickets,omitempty" json:"tickets,omitempty"`
}

func newReport(filter string) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Filter:  filter,
		Started: time.Now(),
	}
}

func (r *Report) add(t TicketReport) {
	r.Tickets = append(r.Tickets, t)

	if t.Error != "" {
		r.Failures++
	}
	if t.Partial {
		r.PartialMerges++
	}
	if t.Skipped != "" {
		r.Skipped++
		return
	}
	switch t.Action {
	case ActionNoCase:
		r.NoCase++
	case ActionNewDossier:
		r.NewDossiers++
	case ActionMerge:
		r.Merged++
	case ActionAmbiguous:
		r.Ambiguous++
	}
}

// Duration of the run, zero while it is still going.
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Failed reports whether the run was aborted or any ticket failed.
func (r *Report) Failed() bool {
	return r.Error != "" || r.Failures > 0
}
