package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scitix/contactmerge/cli/config"
	"github.com/scitix/contactmerge/cli/extract"
	"github.com/scitix/contactmerge/cli/run"
	"github.com/scitix/contactmerge/cli/schedule"
	"github.com/scitix/contactmerge/cli/search"
	"github.com/scitix/contactmerge/version"
)

func NewCommand(name string) *cobra.Command {
	f := config.LoadConfig()
	c := &cobra.Command{
		Use:   name,
		Short: "Merge contact form tickets into abuse dossiers",
		Long: `Merge new abuse contact form tickets of an OTRS helpdesk into the dossier
kept per ip address, or turn them into a new dossier when there is none.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := f.Bind(cmd.Flags()); err != nil {
				return fmt.Errorf("bind config failed: %w", err)
			}
			if err := f.Complete(); err != nil {
				return fmt.Errorf("complete config failed: %w", err)
			}
			return nil
		},
	}

	f.AddFlags(c.PersistentFlags())

	c.AddCommand(
		run.NewCommand(f),
		search.NewCommand(f),
		extract.NewCommand(f),
		schedule.NewCommand(f),
		newVersionCommand(),
	)

	// init add the klog flags
	f.AddLogFlags(c.PersistentFlags())

	return c
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
