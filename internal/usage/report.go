package usage

import (
	"fmt"
	"slices"
)

// SortMode selects how accounts are ranked in the hierarchical report.
type SortMode string

const (
	// SortTotalSize ranks accounts by the sum of their mailboxes.
	SortTotalSize SortMode = "total_size"
	// SortMailbox ranks accounts by their largest mailbox.
	SortMailbox SortMode = "mailbox"
	// SortDomain ranks accounts by their largest per-domain sum.
	SortDomain SortMode = "domain"
)

// SortModes lists the accepted sort modes.
//
//nolint:gochecknoglobals // Config constant
var SortModes = []string{string(SortTotalSize), string(SortMailbox), string(SortDomain)}

// ParseSortMode validates a sort mode name.
func ParseSortMode(s string) (SortMode, error) {
	if !slices.Contains(SortModes, s) {
		return "", fmt.Errorf("invalid sort mode %q: must be one of %v", s, SortModes)
	}

	return SortMode(s), nil
}

// ReportOptions configures BuildReport.
type ReportOptions struct {
	// SortMode ranks accounts in hierarchical mode.
	SortMode SortMode
	// TopN switches to a flat view of the N largest mailboxes when > 0.
	TopN int
}

// DomainReport holds one domain's mailboxes within an account, largest first.
type DomainReport struct {
	Domain     string        `json:"domain"`
	TotalBytes int64         `json:"total_bytes"`
	Records    []UsageRecord `json:"records"`
}

// AccountReport holds one account of the hierarchical report.
type AccountReport struct {
	Account string `json:"account"`
	// TotalBytes is the sum of all the account's mailboxes.
	TotalBytes int64 `json:"total_bytes"`
	// RankBytes is the key the account was ranked by; it equals TotalBytes
	// only for SortTotalSize.
	RankBytes int64          `json:"rank_bytes"`
	Domains   []DomainReport `json:"domains"`
}

// Report is the computed view over a set of records.
type Report struct {
	SortMode    SortMode        `json:"sort_mode"`
	TopN        int             `json:"top_n,omitempty"`
	RecordCount int             `json:"record_count"`
	Top         []UsageRecord   `json:"top,omitempty"`
	Accounts    []AccountReport `json:"accounts,omitempty"`
}

// IsTop reports whether the report is a flat top-N view.
func (r *Report) IsTop() bool {
	return r.TopN > 0
}

// BuildReport aggregates records into a top-N or hierarchical report.
// It fails with ErrEmptyResult when records is empty.
func BuildReport(records []UsageRecord, opt ReportOptions) (*Report, error) {
	if len(records) == 0 {
		return nil, ErrEmptyResult
	}

	if opt.SortMode == "" {
		opt.SortMode = SortTotalSize
	}

	report := &Report{
		SortMode:    opt.SortMode,
		TopN:        max(opt.TopN, 0),
		RecordCount: len(records),
	}

	if report.IsTop() {
		report.Top = TopRecords(records, opt.TopN)

		return report, nil
	}

	totals := make(map[string]int64)
	for _, r := range records {
		totals[r.Account] += r.SizeBytes
	}

	for _, ranked := range AccountTotals(records, opt.SortMode) {
		report.Accounts = append(report.Accounts, AccountReport{
			Account:    ranked.Account,
			TotalBytes: totals[ranked.Account],
			RankBytes:  ranked.TotalBytes,
			Domains:    domainReports(records, ranked.Account),
		})
	}

	return report, nil
}

// TopRecords returns the n largest records, largest first. Ties keep their
// input order.
func TopRecords(records []UsageRecord, n int) []UsageRecord {
	sorted := sortedBySize(records)
	if n < len(sorted) {
		sorted = sorted[:max(n, 0)]
	}

	return sorted
}

// AccountTotals reduces records per account according to mode and returns
// them ranked largest first. Ties keep first-seen account order.
func AccountTotals(records []UsageRecord, mode SortMode) []AccountTotal {
	totals := make([]AccountTotal, 0)
	index := make(map[string]int)

	var domainSums []DomainTotal
	if mode == SortDomain {
		domainSums = DomainTotals(records)
	}

	reduce := func(account string, size int64) {
		i, ok := index[account]
		if !ok {
			index[account] = len(totals)
			totals = append(totals, AccountTotal{Account: account, TotalBytes: size})

			return
		}

		switch mode {
		case SortMailbox, SortDomain:
			totals[i].TotalBytes = max(totals[i].TotalBytes, size)
		default:
			totals[i].TotalBytes += size
		}
	}

	if mode == SortDomain {
		for _, d := range domainSums {
			reduce(d.Account, d.TotalBytes)
		}
	} else {
		for _, r := range records {
			reduce(r.Account, r.SizeBytes)
		}
	}

	slices.SortStableFunc(totals, func(a, b AccountTotal) int {
		return compareDesc(a.TotalBytes, b.TotalBytes)
	})

	return totals
}

// DomainTotals sums records per account and domain, in first-seen order.
func DomainTotals(records []UsageRecord) []DomainTotal {
	type key struct{ account, domain string }

	totals := make([]DomainTotal, 0)
	index := make(map[key]int)

	for _, r := range records {
		k := key{r.Account, r.Domain}

		i, ok := index[k]
		if !ok {
			i = len(totals)
			index[k] = i
			totals = append(totals, DomainTotal{Account: r.Account, Domain: r.Domain})
		}

		totals[i].TotalBytes += r.SizeBytes
	}

	return totals
}

// domainReports groups an account's records by domain in first-seen order,
// sorting each domain's records largest first.
func domainReports(records []UsageRecord, account string) []DomainReport {
	domains := make([]DomainReport, 0)
	index := make(map[string]int)

	for _, r := range records {
		if r.Account != account {
			continue
		}

		i, ok := index[r.Domain]
		if !ok {
			i = len(domains)
			index[r.Domain] = i
			domains = append(domains, DomainReport{Domain: r.Domain})
		}

		domains[i].TotalBytes += r.SizeBytes
		domains[i].Records = append(domains[i].Records, r)
	}

	for i := range domains {
		domains[i].Records = sortedBySize(domains[i].Records)
	}

	return domains
}

// sortedBySize returns a copy of records sorted largest first, stable on ties.
func sortedBySize(records []UsageRecord) []UsageRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b UsageRecord) int {
		return compareDesc(a.SizeBytes, b.SizeBytes)
	})

	return sorted
}

func compareDesc(a, b int64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
