package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/scitix/contactmerge/pkg/ticketmodel"
	"k8s.io/klog/v2"
)

// Mutator applies workflow changes to tickets. Every call is logged; failures
// are returned to the caller, which decides whether the run goes on.
type Mutator struct {
	client ticketmodel.Client
}

func NewMutator(client ticketmodel.Client) *Mutator {
	return &Mutator{client: client}
}

// PartialMergeError reports a merge that moved some articles into the dossier
// but did not finish. Appended articles are not rolled back.
type PartialMergeError struct {
	Source   ticketmodel.TicketID
	Dest     ticketmodel.TicketID
	Appended int
	Total    int
	// Step is "append" or "close".
	Step string
	Err  error
}

func (e *PartialMergeError) Error() string {
	return fmt.Sprintf("partial merge of %s into %s: %d of %d articles appended, %s failed: %v",
		e.Source, e.Dest, e.Appended, e.Total, e.Step, e.Err)
}

func (e *PartialMergeError) Unwrap() error { return e.Err }

func IsPartialMerge(err error) bool {
	var p *PartialMergeError
	return errors.As(err, &p)
}

func (m *Mutator) SetQueue(ctx context.Context, id ticketmodel.TicketID, queue ticketmodel.QueueID) error {
	return m.update(ctx, id, "queue", ticketmodel.SetQueue(queue))
}

func (m *Mutator) SetTitle(ctx context.Context, id ticketmodel.TicketID, title string) error {
	return m.update(ctx, id, "title", ticketmodel.SetTitle(title))
}

// SetField sets a free field such as CF-IP.
func (m *Mutator) SetField(ctx context.Context, id ticketmodel.TicketID, name, value string) error {
	return m.update(ctx, id, "field "+name, ticketmodel.SetField(name, value))
}

// Close moves the ticket to the resolved state.
func (m *Mutator) Close(ctx context.Context, id ticketmodel.TicketID) error {
	return m.update(ctx, id, "state", ticketmodel.SetState(ticketmodel.TicketStateResolved))
}

// Open (re)opens the ticket.
func (m *Mutator) Open(ctx context.Context, id ticketmodel.TicketID) error {
	return m.update(ctx, id, "state", ticketmodel.SetState(ticketmodel.TicketStateOpen))
}

func (m *Mutator) update(ctx context.Context, id ticketmodel.TicketID, what string, u ticketmodel.TicketUpdate) error {
	logger := klog.FromContext(ctx)
	logger.V(4).Info("Updating ticket", "ticket", id, "what", what, "update", u.String())

	if err := m.client.UpdateTicket(ctx, id, u); err != nil {
		logger.Error(err, "Exception during ticket update", "ticket", id, "what", what, "kind", ticketmodel.KindOf(err))
		return err
	}
	return nil
}

// CreateDossier turns a contact form ticket into the dossier of ip: canonical
// title, optional IP field, dossier queue, open state. Every write is absolute
// so running it twice leaves the same ticket. A failed step does not stop the
// following ones unless the client is unusable.
func (m *Mutator) CreateDossier(ctx context.Context, id ticketmodel.TicketID, ip string, w Workflow) error {
	steps := []func() error{
		func() error { return m.SetTitle(ctx, id, w.DossierTitle(ip)) },
	}
	if w.SetIPField {
		steps = append(steps, func() error { return m.SetField(ctx, id, w.IPField, ip) })
	}
	steps = append(steps,
		func() error { return m.SetQueue(ctx, id, w.DossierQueue) },
		func() error { return m.Open(ctx, id) },
	)

	var errs []error
	for _, step := range steps {
		err := step()
		if err == nil {
			continue
		}
		errs = append(errs, err)
		if !ticketmodel.Continuable(err) {
			break
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("create dossier %s for %s: %w", id, ip, errors.Join(errs...))
	}
	return nil
}

// Merge appends every article of src to dst in their original order, one
// update per article. It stops at the first failed append and returns how many
// articles were appended out of how many.
func (m *Mutator) Merge(ctx context.Context, src, dst ticketmodel.TicketID) (int, int, error) {
	logger := klog.FromContext(ctx)
	logger.V(4).Info("Merging tickets", "source", src, "dossier", dst)

	source, err := m.client.GetTicket(ctx, src)
	if err != nil {
		logger.Error(err, "Failed to get merge source", "ticket", src)
		return 0, 0, err
	}
	dest, err := m.client.GetTicket(ctx, dst)
	if err != nil {
		logger.Error(err, "Failed to get merge destination", "ticket", dst)
		return 0, len(source.Articles), err
	}
	logger.V(4).Info("Title of merged ticket", "ticket", src, "title", source.Title)
	logger.V(4).Info("Title of merged ticket", "ticket", dst, "title", dest.Title)

	total := len(source.Articles)
	for i, art := range source.Articles {
		if err := m.update(ctx, dst, fmt.Sprintf("article %d/%d", i+1, total), ticketmodel.AppendArticle(art)); err != nil {
			return i, total, err
		}
	}
	return total, total, nil
}

// MergeAndClose merges src into dst, closes src and reopens dst. A failure
// after the first appended article, or while closing src, is reported as a
// *PartialMergeError.
func (m *Mutator) MergeAndClose(ctx context.Context, src, dst ticketmodel.TicketID) error {
	appended, total, err := m.Merge(ctx, src, dst)
	if err != nil {
		if appended == 0 {
			return fmt.Errorf("merge %s into %s: %w", src, dst, err)
		}
		return &PartialMergeError{Source: src, Dest: dst, Appended: appended, Total: total, Step: "append", Err: err}
	}

	if err := m.Close(ctx, src); err != nil {
		return &PartialMergeError{Source: src, Dest: dst, Appended: appended, Total: total, Step: "close", Err: err}
	}
	if err := m.Open(ctx, dst); err != nil {
		return fmt.Errorf("reopen dossier %s: %w", dst, err)
	}
	return nil
}
