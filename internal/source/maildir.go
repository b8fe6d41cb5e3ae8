package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/rs/zerolog"

	"github.com/idelchi/mailusage/internal/usage"
)

// DefaultMaildirRoot is the directory holding the account home directories.
const DefaultMaildirRoot = "/home"

// Maildir reads mailbox usage straight from cPanel-style mail directories,
// laid out as <root>/<account>/mail/<domain>/<local>.
type Maildir struct {
	// Root holds one directory per account.
	Root string
}

// NewMaildir creates a Maildir source rooted at root, or DefaultMaildirRoot if empty.
func NewMaildir(root string) *Maildir {
	if root == "" {
		root = DefaultMaildirRoot
	}

	return &Maildir{Root: filepath.Clean(root)}
}

// ListAccounts returns, in name order, the directories under Root that contain a mail directory.
func (m *Maildir) ListAccounts(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(m.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %w", usage.ErrDataSourceUnavailable, m.Root, err)
	}

	accounts := make([]string, 0)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if info, err := os.Stat(filepath.Join(m.Root, entry.Name(), "mail")); err == nil && info.IsDir() {
			accounts = append(accounts, entry.Name())
		}
	}

	return accounts, nil
}

// mailboxKey identifies a mailbox by domain and local part.
type mailboxKey struct {
	domain string
	local  string
}

// sizer accumulates file sizes per mailbox from concurrent fastwalk callbacks.
type sizer struct {
	mu    sync.Mutex // Protect concurrent access
	sizes map[mailboxKey]int64
}

func (s *sizer) add(key mailboxKey, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sizes[key] += size
}

// ListMailboxes returns the mailboxes of account in domain and name order,
// with DiskUsed set to the total size of the regular files below each one.
func (m *Maildir) ListMailboxes(ctx context.Context, account string) ([]usage.RawMailbox, error) {
	log := zerolog.Ctx(ctx)
	mailDir := filepath.Join(m.Root, account, "mail")

	domains, err := visibleDirs(mailDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", usage.ErrEmptyMailboxList, err)
	}

	keys := make([]mailboxKey, 0)

	for _, domain := range domains {
		locals, err := visibleDirs(filepath.Join(mailDir, domain))
		if err != nil {
			log.Debug().Err(err).Str("account", account).Str("domain", domain).Msg("skipping domain")

			continue
		}

		for _, local := range locals {
			keys = append(keys, mailboxKey{domain: domain, local: local})
		}
	}

	if len(keys) == 0 {
		return nil, nil
	}

	acc := &sizer{sizes: make(map[mailboxKey]int64, len(keys))}

	conf := &fastwalk.Config{
		Follow: false, // Don't follow symlinks
	}

	//nolint:varnamelen // d is standard for DirEntry
	walkErr := fastwalk.Walk(conf, mailDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("error accessing path")

			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(mailDir, path)
		if err != nil {
			return nil //nolint:nilerr // Path outside the walk root
		}

		// Files directly in <domain> or <domain>/<local> are not part of a mailbox.
		parts := strings.SplitN(filepath.ToSlash(rel), "/", 3)
		if len(parts) < 3 {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // File vanished during the walk
		}

		acc.add(mailboxKey{domain: parts[0], local: parts[1]}, info.Size())

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("%w: walking %q: %w", usage.ErrEmptyMailboxList, mailDir, walkErr)
	}

	mailboxes := make([]usage.RawMailbox, 0, len(keys))
	for _, key := range keys {
		mailboxes = append(mailboxes, usage.RawMailbox{
			Email:    key.local + "@" + key.domain,
			Domain:   key.domain,
			DiskUsed: acc.sizes[key],
		})
	}

	return mailboxes, nil
}

// visibleDirs returns the names of the non-hidden subdirectories of dir, in name order.
func visibleDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}
