package usage

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
)

var (
	// ErrDataSourceUnavailable is returned when account discovery yields malformed or absent data.
	ErrDataSourceUnavailable = errors.New("data source unavailable")
	// ErrNoAccounts is returned when there are no accounts to process.
	ErrNoAccounts = errors.New("no accounts found")
	// ErrEmptyMailboxList marks an account whose mailboxes could not be listed.
	ErrEmptyMailboxList = errors.New("empty mailbox list")
	// ErrMalformedUsage marks a disk usage value that is missing or not numeric.
	ErrMalformedUsage = errors.New("malformed usage value")
	// ErrEmptyResult is returned when no records remain to report on.
	ErrEmptyResult = errors.New("no mailboxes found")
)

// UsageRecord is the disk usage of a single mailbox.
//
//nolint:revive // usage.UsageRecord reads fine at call sites
type UsageRecord struct {
	// Account is the hosting account owning the mailbox.
	Account string `json:"account"`
	// Email is the mailbox address.
	Email string `json:"email"`
	// Domain is the domain the mailbox belongs to.
	Domain string `json:"domain"`
	// SizeBytes is the disk usage in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// SizeHuman returns SizeBytes formatted with FormatSize.
func (r UsageRecord) SizeHuman() string {
	return FormatSize(r.SizeBytes)
}

// MarshalJSON includes the derived size_human field.
func (r UsageRecord) MarshalJSON() ([]byte, error) {
	type plain UsageRecord

	return sonic.Marshal(struct {
		plain
		SizeHuman string `json:"size_human"`
	}{plain(r), r.SizeHuman()})
}

// AccountTotal is an account with a reduced size, used for ranking.
type AccountTotal struct {
	Account    string `json:"account"`
	TotalBytes int64  `json:"total_bytes"`
}

// DomainTotal is the summed size of one domain's mailboxes within an account.
type DomainTotal struct {
	Account    string `json:"account"`
	Domain     string `json:"domain"`
	TotalBytes int64  `json:"total_bytes"`
}

// RawMailbox is a mailbox entry as returned by a Source, before coercion.
type RawMailbox struct {
	// Email is the mailbox address.
	Email string `json:"email"`
	// Domain is the mailbox domain, may be empty.
	Domain string `json:"domain"`
	// DiskUsed is the uninterpreted usage value (number, numeric string or nil).
	DiskUsed any `json:"_diskused"`
}

// AccountLister discovers the accounts to report on.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]string, error)
}

// MailboxLister lists the mailboxes of one account.
type MailboxLister interface {
	ListMailboxes(ctx context.Context, account string) ([]RawMailbox, error)
}

// Source combines account discovery and mailbox listing.
type Source interface {
	AccountLister
	MailboxLister
}
