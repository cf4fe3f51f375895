package run

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/scitix/contactmerge/internal/triage"
	"github.com/scitix/contactmerge/pkg/ticketmodel"
)

var (
	okColor      = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
	partialColor = color.New(color.FgRed)
)

// PrintSummary writes a short human readable account of a run: a status
// line, the counters and one line per ticket that needs attention.
func PrintSummary(w io.Writer, r *triage.Report) {
	status := okColor.Sprint("OK")
	switch {
	case r.Error != "":
		status = failColor.Sprint("ABORTED")
	case r.Failed():
		status = warnColor.Sprint("FAILURES")
	}
	_, _ = fmt.Fprintf(w, "%s run %s (filter %s, %s)\n", status, r.RunID, r.Filter, r.Duration().Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprint(tw, "PRIMARY\tNEW DOSSIERS\tMERGED\tAMBIGUOUS\tSKIPPED\tFAILURES\n")
	_, _ = fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\n", r.Primary, r.NewDossiers, r.Merged, r.Ambiguous, r.Skipped, r.Failures)
	_ = tw.Flush()

	for _, t := range r.Tickets {
		switch {
		case t.Partial:
			_, _ = partialColor.Fprintf(w, "ticket %s half merged into %s: %s\n", t.TicketID, t.Dossier, t.Error)
		case t.Error != "":
			_, _ = failColor.Fprintf(w, "ticket %s (%s): %s\n", t.TicketID, describe(t), t.Error)
		case t.Action == triage.ActionAmbiguous && t.Skipped == "":
			_, _ = warnColor.Fprintf(w, "ticket %s: ip %s has multiple dossiers %s\n", t.TicketID, t.IP, joinIDs(t.Candidates))
		}
	}

	if r.Error != "" {
		_, _ = failColor.Fprintf(w, "aborted: %s\n", r.Error)
	}
}

func describe(t triage.TicketReport) string {
	if t.Skipped != "" {
		return t.Skipped
	}
	return t.Action.String()
}

func joinIDs(ids []ticketmodel.TicketID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, string(id))
	}
	return strings.Join(parts, ", ")
}
