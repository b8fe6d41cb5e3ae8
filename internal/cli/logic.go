package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/idelchi/mailusage/internal/logging"
	"github.com/idelchi/mailusage/internal/source"
	"github.com/idelchi/mailusage/internal/usage"
)

// Streams are the outputs of a run.
type Streams struct {
	Out io.Writer
	Err io.Writer
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

// newSource builds the configured data source.
func newSource(cfg SourceConfig) (usage.Source, error) {
	switch cfg.Kind {
	case SourceWHM:
		return source.NewWHM(cfg.WHMAPI, cfg.UAPI), nil
	case SourceMaildir:
		return source.NewMaildir(cfg.MaildirRoot), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Kind)
	}
}

// serverName returns the configured server name or the host name.
func serverName(cfg Config) string {
	if cfg.ServerName != "" {
		return cfg.ServerName
	}

	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}

	return name
}

func logic(ctx context.Context, options Options, cfg Config, src usage.Source, streams Streams) error {
	start := time.Now()

	logger, closer, err := logging.New(cfg.Log, streams.Err, options.Debug)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx = logger.WithContext(ctx)

	var accounts []string

	if options.Users != "" {
		accounts = usage.ParseAccounts(options.Users)
	} else {
		accounts, err = src.ListAccounts(ctx)
		if err != nil {
			return err
		}
	}

	if len(accounts) == 0 {
		return fmt.Errorf("%w: %w", usage.ErrDataSourceUnavailable, usage.ErrNoAccounts)
	}

	logger.Debug().Int("accounts", len(accounts)).Str("source", cfg.Source.Kind).Msg("collecting mailboxes")

	enableProgress := options.Format != "json" &&
		!options.Debug &&
		isTerminal(streams.Err)

	collectOptions := usage.CollectOptions{HideEmpty: options.HideEmpty}

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(streams.Err, "\033[?25l")
		defer fmt.Fprint(streams.Err, "\033[?25h")

		collectOptions.Progress = func(done, records int) {
			msg := fmt.Sprintf("Scanning… %s/%s accounts, %s mailboxes",
				humanize.Comma(int64(done)), humanize.Comma(int64(len(accounts))), humanize.Comma(int64(records)))
			fmt.Fprintf(streams.Err, "\r\033[2K%s\r", msg)
		}
	}

	records := usage.Collect(ctx, src, accounts, collectOptions)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(streams.Err, "\r\033[2K\r")
	}

	report, err := usage.BuildReport(records, usage.ReportOptions{
		SortMode: usage.SortMode(options.Sort),
		TopN:     options.Top,
	})
	if err != nil {
		return err
	}

	if options.Output != "" {
		if err := ExportCSV(options.Output, records); err != nil {
			return fmt.Errorf("exporting results: %w", err)
		}
	}

	color := !options.NoColor && isTerminal(streams.Out)

	summaryOut := streams.Out

	switch strings.ToLower(options.Format) {
	case "json":
		if err := PrintJSON(report, streams.Out); err != nil {
			return err
		}

		// Keep stdout valid JSON.
		summaryOut = streams.Err
	case "table":
		if err := PrintTable(report, streams.Out, color); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format: %s", options.Format)
	}

	if options.Output != "" {
		fmt.Fprintf(summaryOut, "\n%s\n", painter(color).paint(styleLabel, "Results saved to "+options.Output))
	}

	return PrintSummary(Summary{
		Elapsed: time.Since(start),
		Server:  serverName(cfg),
		Records: len(records),
	}, summaryOut, color)
}
