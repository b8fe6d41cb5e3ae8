package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"

	"github.com/idelchi/mailusage/internal/usage"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// ANSI styles.
const (
	styleTitle   = "1;34"
	styleAccount = "1;33"
	styleDomain  = "1;36"
	styleLabel   = "1;32"
	styleError   = "1;31"
)

// painter wraps text in ANSI escapes when enabled.
type painter bool

func (p painter) paint(style, text string) string {
	if !p {
		return text
	}

	return "\033[" + style + "m" + text + "\033[0m"
}

// Summary describes a finished run.
type Summary struct {
	Elapsed time.Duration
	Server  string
	Records int
}

// PrintJSON outputs the report in JSON format.
func PrintJSON(report *usage.Report, writer io.Writer) error {
	data, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintTable outputs the report in human-readable table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTable(report *usage.Report, writer io.Writer, color bool) error {
	p := painter(color)

	if report.IsTop() {
		fmt.Fprintf(writer, "\n%s\n", p.paint(styleTitle,
			fmt.Sprintf("Top %d Largest Mailboxes Across All Accounts", report.TopN)))

		return printRecords(writer, report.Top, nil)
	}

	fmt.Fprintf(writer, "\n%s\n", p.paint(styleTitle,
		fmt.Sprintf("Mailbox Sizes for All Accounts (sorted by %s)", report.SortMode)))

	for _, account := range report.Accounts {
		fmt.Fprintf(writer, "\n%s\n", p.paint(styleAccount,
			fmt.Sprintf("-------- Account: %s (Total: %s) --------", account.Account, usage.FormatSize(account.TotalBytes))))

		for _, domain := range account.Domains {
			fmt.Fprintf(writer, "\n%s\n", p.paint(styleDomain,
				fmt.Sprintf("Domain: %s (Total: %s)", domain.Domain, usage.FormatSize(domain.TotalBytes))))

			total := domain.TotalBytes
			if err := printRecords(writer, domain.Records, &total); err != nil {
				return err
			}
		}
	}

	return nil
}

// printRecords writes records as an aligned table, followed by a total row
// without email or domain when total is set.
func printRecords(writer io.Writer, records []usage.UsageRecord, total *int64) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintln(w, "  Account\tEmail\tDomain\tSize Bytes\tSize Human\t")

	for _, r := range records {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t%s\t\n", r.Account, r.Email, r.Domain, r.SizeBytes, r.SizeHuman())
	}

	if total != nil {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t\n", "Total", "", "", usage.FormatCount(*total), usage.FormatSize(*total))
	}

	return w.Flush()
}

// PrintSummary outputs the execution summary.
func PrintSummary(summary Summary, writer io.Writer, color bool) error {
	p := painter(color)

	_, err := fmt.Fprintf(writer, "\n%s %.2f seconds\n%s %s\n%s %d\n",
		p.paint(styleLabel, "Execution Time:"), summary.Elapsed.Seconds(),
		p.paint(styleLabel, "Server:"), summary.Server,
		p.paint(styleLabel, "Total Mailboxes Processed:"), summary.Records,
	)

	return err
}

// PrintError outputs a fatal error message.
func PrintError(err error, writer io.Writer, color bool) {
	fmt.Fprintln(writer, painter(color).paint(styleError, "Error: "+err.Error()))
}
