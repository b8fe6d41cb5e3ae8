package cli

import (
	"context"
	"errors"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/idelchi/mailusage/internal/usage"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
	// source replaces the configured data source when set.
	source usage.Source
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var options Options

	cmd := &cobra.Command{
		Use:   "mailusage [flags]",
		Short: "Report mailbox disk usage per account, domain and mailbox",
		Long: heredoc.Doc(`
			mailusage reports the disk usage of every mailbox of the hosting accounts
			managed by WHM/cPanel, grouped by account and domain.

			Modes:
			  By default accounts are ranked and each domain's mailboxes are listed
			  largest first, followed by the domain total.
			  Use -t N to list only the N largest mailboxes across all accounts.

			Sort modes (-s):
			  total_size   rank accounts by the sum of their mailboxes
			  mailbox      rank accounts by their largest mailbox
			  domain       rank accounts by their largest domain

			Sources:
			  whm          query whmapi1 and uapi on the local server (default)
			  maildir      sum file sizes under <root>/<account>/mail/<domain>/<user>

			Configuration is read from --config and MAILUSAGE_* environment variables,
			e.g. MAILUSAGE_SOURCE_KIND=maildir or MAILUSAGE_LOG_FILE=/var/log/mailusage.log.
		`),
		Version:       c.version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("top") && options.Top <= 0 {
				return errors.New("top must be a positive integer")
			}

			cfg, err := LoadConfig(cmd.Flags(), options.ConfigFile)
			if err != nil {
				return err
			}

			if err := Validate(options, cfg); err != nil {
				return err
			}

			src := c.source
			if src == nil {
				if src, err = newSource(cfg.Source); err != nil {
					return err
				}
			}

			return logic(cmd.Context(), options, cfg, src, Streams{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&options.Sort, "sort", "s", string(usage.SortTotalSize), "Sort accounts by total_size, mailbox or domain")
	flags.IntVarP(&options.Top, "top", "t", 0, "Show only the top N largest mailboxes")
	flags.StringVarP(&options.Users, "users", "u", "", "Comma-separated accounts to report on (skips discovery)")
	flags.StringVarP(&options.Output, "output", "o", "", "Write results to a CSV file")
	flags.BoolVar(&options.HideEmpty, "hide-empty", false, "Hide mailboxes with zero storage")
	flags.StringVar(&options.Format, "format", "table", "Report format: table or json")
	flags.String("source", SourceWHM, "Data source: whm or maildir")
	flags.String("maildir-root", "", "Root directory of the maildir source (default /home)")
	flags.StringVar(&options.ConfigFile, "config", "", "Configuration file (yaml, json or toml)")
	flags.BoolVar(&options.Debug, "debug", false, "Enable debug output")
	flags.BoolVar(&options.NoColor, "no-color", false, "Disable colored output")
	flags.SortFlags = false

	return cmd
}

// Execute runs the CLI with the process arguments, printing any error to stderr.
func (c CLI) Execute() error {
	err := c.Command().ExecuteContext(context.Background())
	if err != nil {
		PrintError(err, os.Stderr, isTerminal(os.Stderr))
	}

	return err
}
