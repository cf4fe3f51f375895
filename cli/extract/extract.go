package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scitix/contactmerge/cli/config"
	"github.com/scitix/contactmerge/internal/triage"
	"github.com/scitix/contactmerge/pkg/ticketmodel"
)

var ErrNoIP = errors.New("no ip address found")

type extractOption struct {
	title    string
	ticketID string

	config *config.ContactMergeConfig
}

func NewCommand(config *config.ContactMergeConfig) *cobra.Command {
	o := &extractOption{
		config: config,
	}

	c := &cobra.Command{
		Use:   "extract [Title]",
		Short: "Print the ip address contained in a ticket title",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.complete(cmd, args); err != nil {
				return err
			}

			var client ticketmodel.Client
			if o.ticketID != "" {
				var err error
				if client, err = o.config.NewClient(); err != nil {
					return err
				}
			}

			ip, err := o.run(cmd.Context(), client)
			if err != nil {
				return err
			}
			return writeIP(cmd.OutOrStdout(), ip)
		},
		Example: `contactmerge extract "Contactformulier KPN voor het IP adres [203.0.113.5]"
contactmerge extract --ticket 1234 -a https://otrs.example.com -s GenericTicketConnectorSOAP -u agent`,
	}

	c.Flags().StringVar(&o.ticketID, "ticket", "", "Read the title of this ticket from the ticketing system.")

	return c
}

// the title may be passed unquoted, so all args are joined
func (o *extractOption) complete(cmd *cobra.Command, args []string) error {
	argsLen := cmd.ArgsLenAtDash()
	if argsLen == -1 {
		argsLen = len(args)
	}

	o.title = strings.Join(args[:argsLen], " ")
	if o.title == "" && o.ticketID == "" {
		return errors.New("a title or --ticket is required")
	}
	if o.title != "" && o.ticketID != "" {
		return errors.New("a title and --ticket are mutually exclusive")
	}
	return nil
}

func (o *extractOption) run(ctx context.Context, client ticketmodel.Client) (string, error) {
	title := o.title
	if o.ticketID != "" {
		ticket, err := client.GetTicket(ctx, ticketmodel.TicketID(o.ticketID))
		if err != nil {
			return "", err
		}
		title = ticket.Title
	}

	ip, ok := triage.ExtractIP(title)
	if !ok {
		return "", fmt.Errorf("%w in %q", ErrNoIP, title)
	}
	return ip, nil
}

func writeIP(w io.Writer, ip string) error {
	_, err := fmt.Fprintln(w, ip)
	return err
}
