// Package source provides the data sources that feed mailbox usage collection.
package source

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/bytedance/sonic"

	"github.com/idelchi/mailusage/internal/usage"
)

// Default control-panel binaries.
const (
	DefaultWHMAPI = "whmapi1"
	DefaultUAPI   = "uapi"
)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command directly, without a shell.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	//nolint:gosec // Binaries come from configuration
	return exec.CommandContext(ctx, name, args...).Output()
}

// WHM lists accounts and mailboxes through the local WHM and cPanel APIs.
type WHM struct {
	// WHMAPI is the whmapi1 binary.
	WHMAPI string
	// UAPI is the uapi binary.
	UAPI string
	// Run executes the binaries. Defaults to ExecRunner.
	Run Runner
}

// NewWHM creates a WHM source using the given binaries, falling back to the defaults.
func NewWHM(whmapi, uapi string) *WHM {
	if whmapi == "" {
		whmapi = DefaultWHMAPI
	}

	if uapi == "" {
		uapi = DefaultUAPI
	}

	return &WHM{WHMAPI: whmapi, UAPI: uapi, Run: ExecRunner}
}

type listAcctsResponse struct {
	Error    any `json:"error"`
	Metadata *struct {
		Result *int   `json:"result"`
		Reason string `json:"reason"`
	} `json:"metadata"`
	Data *struct {
		Acct []struct {
			User string `json:"user"`
		} `json:"acct"`
	} `json:"data"`
}

type listPopsResponse struct {
	Error  any `json:"error"`
	Result *struct {
		Status *int               `json:"status"`
		Errors any                `json:"errors"`
		Data   []usage.RawMailbox `json:"data"`
	} `json:"result"`
}

// ListAccounts returns the cPanel users known to WHM.
func (w *WHM) ListAccounts(ctx context.Context) ([]string, error) {
	out, err := w.runner()(ctx, w.WHMAPI, "listaccts", "--output=json")
	if err != nil {
		return nil, fmt.Errorf("%w: running %s: %w", usage.ErrDataSourceUnavailable, w.WHMAPI, err)
	}

	var resp listAcctsResponse
	if err := sonic.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding %s output: %w", usage.ErrDataSourceUnavailable, w.WHMAPI, err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s reported %v", usage.ErrDataSourceUnavailable, w.WHMAPI, resp.Error)
	}

	if m := resp.Metadata; m != nil && m.Result != nil && *m.Result == 0 {
		return nil, fmt.Errorf("%w: %s failed: %s", usage.ErrDataSourceUnavailable, w.WHMAPI, m.Reason)
	}

	if resp.Data == nil || resp.Data.Acct == nil {
		return nil, fmt.Errorf("%w: %s returned no account data", usage.ErrDataSourceUnavailable, w.WHMAPI)
	}

	users := make([]string, 0, len(resp.Data.Acct))
	for _, acct := range resp.Data.Acct {
		if acct.User != "" {
			users = append(users, acct.User)
		}
	}

	return users, nil
}

// ListMailboxes returns the mailboxes of a cPanel user with their disk usage.
func (w *WHM) ListMailboxes(ctx context.Context, account string) ([]usage.RawMailbox, error) {
	out, err := w.runner()(ctx, w.UAPI, "--user="+account, "Email", "list_pops_with_disk", "--output=json")
	if err != nil {
		return nil, fmt.Errorf("%w: running %s for %q: %w", usage.ErrEmptyMailboxList, w.UAPI, account, err)
	}

	var resp listPopsResponse
	if err := sonic.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding %s output for %q: %w", usage.ErrEmptyMailboxList, w.UAPI, account, err)
	}

	switch {
	case resp.Error != nil:
		return nil, fmt.Errorf("%w: %s reported %v", usage.ErrEmptyMailboxList, w.UAPI, resp.Error)
	case resp.Result == nil || resp.Result.Data == nil:
		return nil, fmt.Errorf("%w: %s returned no data for %q", usage.ErrEmptyMailboxList, w.UAPI, account)
	case resp.Result.Status != nil && *resp.Result.Status == 0:
		return nil, fmt.Errorf("%w: %s failed for %q: %v", usage.ErrEmptyMailboxList, w.UAPI, account, resp.Result.Errors)
	}

	return resp.Result.Data, nil
}

func (w *WHM) runner() Runner {
	if w.Run == nil {
		return ExecRunner
	}

	return w.Run
}
