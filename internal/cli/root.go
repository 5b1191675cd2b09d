package cli

import (
	"context"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"sweepdu/internal/app"
	"sweepdu/internal/config"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// Execute runs the root command. ctx is cancelled on interrupt.
func (c CLI) Execute(ctx context.Context) error {
	return c.Command().ExecuteContext(ctx)
}

func (c CLI) Command() *cobra.Command {
	cfg := config.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "sweepdu [flags] [dir]",
		Short: "Interactive disk usage analyzer",
		Long: heredoc.Doc(`
			sweepdu scans a directory tree in parallel and lets you browse where
			the space went. Hard links are counted once, other filesystems and
			excluded paths are shown but not entered.

			Without a terminal on stdout, with --no-ui, or when exporting, the
			scan runs headless and prints a summary or writes the export.

			Examples:
			  sweepdu /var
			  sweepdu -x --exclude '*.iso' ~
			  sweepdu -o scan.json.gz -c /srv && sweepdu -f scan.json.gz
		`),
		Args:          cobra.MaximumNArgs(1),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().SortFlags = false
	bound := config.BindFlags(cmd.Flags(), &cfg)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		resolved, err := bound.Resolve(args)
		if err != nil {
			return err
		}
		return app.Run(cmd.Context(), resolved, app.Streams{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
			Err: cmd.ErrOrStderr(),
		})
	}
	return cmd
}
