package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// CollectOptions configures record collection.
type CollectOptions struct {
	// HideEmpty drops mailboxes with zero disk usage.
	HideEmpty bool
	// Progress, if set, is called after each account with the number of
	// accounts processed and the number of records collected so far.
	Progress func(accounts, records int)
}

// ParseAccounts splits a comma-separated account list, trimming whitespace
// and dropping blanks and duplicates while preserving order.
func ParseAccounts(list string) []string {
	seen := make(map[string]struct{})
	accounts := make([]string, 0)

	for _, account := range strings.Split(list, ",") {
		account = strings.TrimSpace(account)
		if account == "" {
			continue
		}

		if _, ok := seen[account]; ok {
			continue
		}

		seen[account] = struct{}{}
		accounts = append(accounts, account)
	}

	return accounts
}

// Collect lists the mailboxes of every account in order and converts them
// to UsageRecords. Accounts whose mailboxes cannot be listed contribute no
// records; malformed usage values count as zero.
func Collect(ctx context.Context, src MailboxLister, accounts []string, opt CollectOptions) []UsageRecord {
	log := zerolog.Ctx(ctx)
	records := make([]UsageRecord, 0)

	for i, account := range accounts {
		mailboxes, err := src.ListMailboxes(ctx, account)
		if err != nil {
			log.Warn().Err(err).Str("account", account).Msg("skipping account")
		} else if len(mailboxes) == 0 {
			log.Debug().Str("account", account).Msg("account has no mailboxes")
		}

		for _, mailbox := range mailboxes {
			record, ok := toRecord(log, account, mailbox)
			if !ok {
				continue
			}

			if opt.HideEmpty && record.SizeBytes == 0 {
				continue
			}

			records = append(records, record)
		}

		if opt.Progress != nil {
			opt.Progress(i+1, len(records))
		}
	}

	return records
}

// toRecord converts a raw mailbox into a record, deriving a missing domain
// from the address.
func toRecord(log *zerolog.Logger, account string, mailbox RawMailbox) (UsageRecord, bool) {
	domain := mailbox.Domain
	if domain == "" {
		if at := strings.LastIndex(mailbox.Email, "@"); at >= 0 {
			domain = mailbox.Email[at+1:]
		}
	}

	if mailbox.Email == "" || domain == "" {
		log.Warn().
			Str("account", account).
			Str("email", mailbox.Email).
			Msg("skipping mailbox without address or domain")

		return UsageRecord{}, false
	}

	size, err := ParseDiskUsed(mailbox.DiskUsed)
	if err != nil {
		log.Debug().Err(err).Str("account", account).Str("email", mailbox.Email).Msg("counting usage as zero")
	}

	return UsageRecord{
		Account:   account,
		Email:     mailbox.Email,
		Domain:    domain,
		SizeBytes: size,
	}, true
}

// ParseDiskUsed coerces a raw usage value to a non-negative byte count.
// Fractional values are truncated and negative values become zero.
// Missing or non-numeric values return zero together with ErrMalformedUsage.
func ParseDiskUsed(value any) (int64, error) {
	var f float64

	switch v := value.(type) {
	case nil:
		return 0, fmt.Errorf("%w: missing", ErrMalformedUsage)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint64:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedUsage, v.String())
		}

		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedUsage, v)
		}

		f = parsed
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrMalformedUsage, value)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrMalformedUsage, f)
	}

	if f <= 0 {
		return 0, nil
	}

	if f >= math.MaxInt64 {
		return math.MaxInt64, nil
	}

	return int64(f), nil
}
