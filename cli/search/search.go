package search

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/scitix/contactmerge/cli/config"
	"github.com/scitix/contactmerge/internal/triage"
	"github.com/scitix/contactmerge/pkg/ticketmodel"
)

const (
	OutputTable = "table"
	OutputYAML  = "yaml"
)

type searchOption struct {
	ip       string
	output   string
	dossiers bool

	config *config.ContactMergeConfig
}

// Match is one contact form ticket found by the primary search.
type Match struct {
	TicketID ticketmodel.TicketID   `yaml:"ticket"`
	Title    string                 `yaml:"title"`
	Queue    ticketmodel.QueueID    `yaml:"queue"`
	State    string                 `yaml:"state"`
	IP       string                 `yaml:"ip,omitempty"`
	Dossiers []ticketmodel.TicketID `yaml:"dossiers,omitempty"`
	Action   string                 `yaml:"action,omitempty"`
	Error    string                 `yaml:"error,omitempty"`
}

func NewCommand(config *config.ContactMergeConfig) *cobra.Command {
	o := &searchOption{
		config: config,
	}

	c := &cobra.Command{
		Use:   "search",
		Short: "List contact form tickets and their dossiers without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return fmt.Errorf("invalid search option: %w", err)
			}

			client, err := o.config.NewClient()
			if err != nil {
				return err
			}

			matches, err := o.run(cmd.Context(), client)
			if err != nil {
				return err
			}
			return o.print(cmd.OutOrStdout(), matches)
		},
		Example: `contactmerge search --ip 203.0.113.5 -o yaml`,
	}

	c.Flags().StringVar(&o.ip, "ip", triage.WildcardFilter, "Only list contact form tickets about this ip, % lists all.")
	c.Flags().StringVarP(&o.output, "output", "o", OutputTable, "Output format: table or yaml.")
	c.Flags().BoolVar(&o.dossiers, "dossiers", true, "Also search the dossiers of every ip and show the resulting action.")

	return c
}

func (o *searchOption) validate() error {
	if o.output != OutputTable && o.output != OutputYAML {
		return fmt.Errorf("unsupported output format %q", o.output)
	}
	return triage.ValidateFilter(o.ip)
}

func (o *searchOption) run(ctx context.Context, client ticketmodel.Client) ([]Match, error) {
	logger := klog.FromContext(ctx)
	searcher := triage.NewSearcher(client, o.config.Workflow)

	ids, err := searcher.PrimaryErr(ctx, o.ip)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(ids))
	for _, id := range ids {
		m := Match{TicketID: id}

		ticket, err := client.GetTicket(ctx, id)
		if err != nil {
			if !ticketmodel.Continuable(err) {
				return nil, err
			}
			m.Error = err.Error()
			matches = append(matches, m)
			continue
		}
		m.Title = ticket.Title
		m.Queue = ticket.QueueID
		m.State = string(ticket.State)
		m.IP, _ = triage.ExtractIP(ticket.Title)

		if o.ip != triage.WildcardFilter && m.IP != o.ip {
			logger.V(2).Info("Ticket ip does not match filter", "ticket", id, "ip", m.IP)
			continue
		}

		if o.dossiers && m.IP != "" {
			dossiers, err := searcher.SecondaryErr(ctx, m.IP)
			if err != nil {
				if !ticketmodel.Continuable(err) {
					return nil, err
				}
				m.Error = err.Error()
			} else {
				m.Dossiers = dossiers
				m.Action = triage.Classify(1, len(dossiers)).String()
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (o *searchOption) print(w io.Writer, matches []Match) error {
	if o.output == OutputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(matches); err != nil {
			return err
		}
		return enc.Close()
	}

	if len(matches) == 0 {
		_, _ = fmt.Fprintln(w, "No contact form tickets found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprint(tw, "TICKET\tIP\tQUEUE\tSTATE")
	if o.dossiers {
		_, _ = fmt.Fprint(tw, "\tDOSSIERS\tACTION")
	}
	_, _ = fmt.Fprint(tw, "\tTITLE\n")
	for _, m := range matches {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s", m.TicketID, orNone(m.IP), m.Queue, orNone(m.State))
		if o.dossiers {
			_, _ = fmt.Fprintf(tw, "\t%s\t%s", orNone(joinIDs(m.Dossiers)), orNone(m.Action))
		}
		title := m.Title
		if m.Error != "" {
			title = "error: " + m.Error
		}
		_, _ = fmt.Fprintf(tw, "\t%s\n", title)
	}
	return tw.Flush()
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

func joinIDs(ids []ticketmodel.TicketID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, string(id))
	}
	return strings.Join(parts, ",")
}
