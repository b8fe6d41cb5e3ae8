package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/mailusage/internal/usage"
)

// fakeSource serves canned accounts and mailboxes.
type fakeSource struct {
	accounts     []string
	accountsErr  error
	mailboxes    map[string][]usage.RawMailbox
	listedByUser bool
}

func (f *fakeSource) ListAccounts(context.Context) ([]string, error) {
	f.listedByUser = true

	return f.accounts, f.accountsErr
}

func (f *fakeSource) ListMailboxes(_ context.Context, account string) ([]usage.RawMailbox, error) {
	return f.mailboxes[account], nil
}

func scenarioSource() *fakeSource {
	return &fakeSource{
		accounts: []string{"u1", "u2", "u3"},
		mailboxes: map[string][]usage.RawMailbox{
			"u1": {
				{Email: "e1@d1", Domain: "d1", DiskUsed: "500"},
				{Email: "e2@d1", Domain: "d1", DiskUsed: 1500.0},
			},
			"u2": {
				{Email: "e3@d2", Domain: "d2", DiskUsed: 2048.0},
			},
			"u3": {
				{Email: "idle@d3", Domain: "d3", DiskUsed: "0"},
			},
		},
	}
}

// run executes the command against src and returns stdout and stderr.
func run(t *testing.T, src usage.Source, args ...string) (string, string, error) {
	t.Helper()

	t.Setenv("MAILUSAGE_SERVER_NAME", "mx1.example.net")

	var stdout, stderr bytes.Buffer

	cmd := CLI{version: "test", source: src}.Command()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestCommandHierarchicalReport(t *testing.T) {
	out, _, err := run(t, scenarioSource())
	require.NoError(t, err)

	assert.Contains(t, out, "Mailbox Sizes for All Accounts (sorted by total_size)")

	u2 := strings.Index(out, "-------- Account: u2 (Total: 2.00 KB) --------")
	u1 := strings.Index(out, "-------- Account: u1 (Total: 1.95 KB) --------")
	u3 := strings.Index(out, "-------- Account: u3 (Total: 0 B) --------")
	require.NotEqual(t, -1, u2, out)
	require.NotEqual(t, -1, u1, out)
	require.NotEqual(t, -1, u3, out)
	assert.Less(t, u2, u1)
	assert.Less(t, u1, u3)

	assert.Contains(t, out, "Domain: d1 (Total: 1.95 KB)")
	assert.Less(t, strings.Index(out, "e2@d1"), strings.Index(out, "e1@d1"))
	assert.Contains(t, out, "2,000")

	assert.Contains(t, out, "Execution Time:")
	assert.Contains(t, out, "Server: mx1.example.net")
	assert.Contains(t, out, "Total Mailboxes Processed: 4")
	assert.NotContains(t, out, "\033[", "no color when not writing to a terminal")
}

func TestCommandTopN(t *testing.T) {
	out, _, err := run(t, scenarioSource(), "-t", "2", "-s", "mailbox")
	require.NoError(t, err)

	assert.Contains(t, out, "Top 2 Largest Mailboxes Across All Accounts")
	assert.Contains(t, out, "e3@d2")
	assert.Contains(t, out, "e2@d1")
	assert.NotContains(t, out, "e1@d1")
	assert.NotContains(t, out, "Account: u2")
	assert.Less(t, strings.Index(out, "e3@d2"), strings.Index(out, "e2@d1"))
}

func TestCommandUsersSkipDiscovery(t *testing.T) {
	src := scenarioSource()

	out, _, err := run(t, src, "-u", " u1 ,u1")
	require.NoError(t, err)

	assert.False(t, src.listedByUser)
	assert.Contains(t, out, "Account: u1")
	assert.NotContains(t, out, "Account: u2")
	assert.Contains(t, out, "Total Mailboxes Processed: 2")
}

func TestCommandExportHideEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")

	out, _, err := run(t, scenarioSource(), "--hide-empty", "-t", "1", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Results saved to "+path)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	// Every surviving record is exported, regardless of -t.
	assert.Equal(t, [][]string{
		{"account", "email", "domain", "size_bytes", "size_human"},
		{"u1", "e1@d1", "d1", "500", "500 B"},
		{"u1", "e2@d1", "d1", "1500", "1.46 KB"},
		{"u2", "e3@d2", "d2", "2048", "2.00 KB"},
	}, rows)
}

func TestCommandJSON(t *testing.T) {
	out, errOut, err := run(t, scenarioSource(), "--format", "json", "-s", "domain")
	require.NoError(t, err)

	var report usage.Report
	require.NoError(t, sonic.UnmarshalString(out, &report))

	assert.Equal(t, usage.SortDomain, report.SortMode)
	require.Len(t, report.Accounts, 3)
	assert.Equal(t, "u2", report.Accounts[0].Account)
	assert.Contains(t, out, `"1.46 KB"`)
	assert.Contains(t, errOut, "Total Mailboxes Processed: 4")
}

func TestCommandNoAccounts(t *testing.T) {
	tests := map[string]*fakeSource{
		"discovery empty":  {},
		"discovery failed": {accountsErr: usage.ErrDataSourceUnavailable},
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			out, _, err := run(t, src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, usage.ErrDataSourceUnavailable), "got %v", err)
			assert.Empty(t, out)
		})
	}

	_, _, err := run(t, scenarioSource(), "-u", " , ")
	assert.True(t, errors.Is(err, usage.ErrNoAccounts), "got %v", err)
}

func TestCommandEmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")

	out, _, err := run(t, scenarioSource(), "-u", "u3", "--hide-empty", "-o", path)
	require.Error(t, err)

	assert.True(t, errors.Is(err, usage.ErrEmptyResult), "got %v", err)
	assert.Empty(t, out)
	assert.NoFileExists(t, path)
}

func TestCommandInvalidFlags(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-s", "size"}, `invalid sort "size"`},
		{[]string{"-t", "0"}, "top must be a positive integer"},
		{[]string{"-t", "-3"}, "top must be a positive integer"},
		{[]string{"--format", "xml"}, `invalid format "xml"`},
		{[]string{"--source", "ldap"}, `invalid kind "ldap"`},
		{[]string{"extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, _, err := run(t, scenarioSource(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCommandMaildirSource(t *testing.T) {
	root := t.TempDir()

	full := filepath.Join(root, "alice", "mail", "example.com", "info", "cur", "msg")
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, bytes.Repeat([]byte("x"), 3000), 0o600))

	out, _, err := run(t, nil, "--source", "maildir", "--maildir-root", root)
	require.NoError(t, err)

	assert.Contains(t, out, "-------- Account: alice (Total: 2.93 KB) --------")
	assert.Contains(t, out, "info@example.com")
}
