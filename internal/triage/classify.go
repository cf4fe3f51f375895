package triage

import (
	"context"
	"fmt"

	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"k8s.io/klog/v2"
)

// Action is the decision taken for one contact form ticket.
type Action int

const (
	ActionNoCase Action = iota
	ActionNewDossier
	ActionMerge
	ActionAmbiguous
)

func (a Action) String() string {
	switch a {
	case ActionNoCase:
		return "no-case"
	case ActionNewDossier:
		return "new-dossier"
	case ActionMerge:
		return "merge"
	case ActionAmbiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Classify decides from the number of contact form tickets and the number of
// dossiers found for one IP. More than one dossier is a data integrity problem
// and is never resolved by picking one.
func Classify(primary, secondary int) Action {
	switch {
	case primary <= 0:
		return ActionNoCase
	case secondary <= 0:
		return ActionNewDossier
	case secondary == 1:
		return ActionMerge
	default:
		return ActionAmbiguous
	}
}

// Outcome is the result of resolving one contact form ticket.
type Outcome struct {
	Action     Action
	Ticket     ticketmodel.TicketID
	Dossier    ticketmodel.TicketID
	Candidates []ticketmodel.TicketID
	Err        error
}

// Resolver classifies search results and applies the decision.
type Resolver struct {
	workflow Workflow
	mutator  *Mutator
}

func NewResolver(workflow Workflow, mutator *Mutator) *Resolver {
	return &Resolver{workflow: workflow, mutator: mutator}
}

// Resolve acts on primary[0] only; further contact form tickets in primary are
// left for their own call.
func (r *Resolver) Resolve(ctx context.Context, primary, secondary []ticketmodel.TicketID, ip string) Outcome {
	logger := klog.FromContext(ctx)

	out := Outcome{Action: Classify(len(primary), len(secondary))}
	if len(primary) > 0 {
		out.Ticket = primary[0]
	}

	switch out.Action {
	case ActionNoCase:
		logger.V(2).Info("No results found for ip", "ip", ip)

	case ActionAmbiguous:
		out.Candidates = append([]ticketmodel.TicketID(nil), secondary...)
		logger.Error(nil, "Multiple dossiers found, aborting", "ip", ip, "ticket", out.Ticket, "dossiers", secondary)

	case ActionMerge:
		out.Dossier = secondary[0]
		logger.Info("Merging ticket into dossier", "ip", ip, "ticket", out.Ticket, "dossier", out.Dossier)
		out.Err = r.mutator.MergeAndClose(ctx, out.Ticket, out.Dossier)

	case ActionNewDossier:
		out.Dossier = out.Ticket
		logger.Info("Creating new dossier", "ip", ip, "ticket", out.Ticket)
		out.Err = r.mutator.CreateDossier(ctx, out.Ticket, ip, r.workflow)
	}

	return out
}
