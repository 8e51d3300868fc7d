// pkg/installer/manager.go
package installer

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/arc-language/bpkg/pkg/codec"
	"github.com/arc-language/bpkg/pkg/core"
	"github.com/arc-language/bpkg/pkg/fetch"
	"github.com/arc-language/bpkg/pkg/metrics"
)

// Config configures the installer
type Config struct {
	TmpDir  string            // Directory for downloads in flight
	DataDir string            // Backup vault directory
	Fetcher *fetch.Client     // Download client (default client if nil)
	Metrics *metrics.Recorder // Optional
	Logger  *log.Logger       // Debug logger (optional)
	Debug   bool              // Enable debug logging
}

// Manager turns installer descriptions into binaries on disk
type Manager struct {
	tmpDir  string
	fetcher *fetch.Client
	vault   *Vault
	metrics *metrics.Recorder
	logger  *log.Logger
}

// NewManager creates an installer manager
func NewManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = &Config{}
	}

	logger := cfg.Logger
	if logger == nil {
		if cfg.Debug {
			logger = log.New(os.Stderr, "[INSTALL] ", log.LstdFlags)
		} else {
			logger = log.New(io.Discard, "", 0)
		}
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient(&fetch.Config{Logger: logger})
	}

	tmpDir := cfg.TmpDir
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}

	return &Manager{
		tmpDir:  tmpDir,
		fetcher: fetcher,
		vault:   NewVault(cfg.DataDir, logger),
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// Install downloads inst.URL and places the executable at inst.Path. The
// new binary is staged next to the destination first; only then is a file
// already occupying the destination moved to the vault, and inst.Backup
// records it. A failed install leaves the destination, the vault and
// inst.Backup as they were.
func (m *Manager) Install(ctx context.Context, p core.Prompter, name string, inst *core.Installer) error {
	compression := codec.GuessCompression(inst.Compression, inst.URL)
	archive := codec.GuessArchive(inst.Archive, inst.URL)
	m.logger.Printf("installing %s from %s (compression=%s archive=%s)", name, inst.URL, compression, archive)

	tmp, err := m.download(ctx, p, name, inst.URL, compression)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	staged, err := m.stage(p, archive, tmp, inst.Path)
	if err != nil {
		return fmt.Errorf("installing %s: %w", name, err)
	}
	defer os.Remove(staged)

	pending := ""
	if _, err := os.Stat(inst.Path); err == nil {
		if pending, err = m.vault.Stash(name, inst.Path); err != nil {
			return err
		}
	}

	if err := os.Rename(staged, inst.Path); err != nil {
		if pending != "" {
			if rerr := m.vault.Revert(pending, inst.Path); rerr != nil {
				m.logger.Printf("restoring %s after failed install: %v", inst.Path, rerr)
			}
		}
		return fmt.Errorf("installing %s: %w", name, err)
	}

	if pending != "" {
		backup, err := m.vault.Commit(name, pending)
		if err != nil {
			return err
		}
		inst.Backup = backup
		p.Notifyf("Previous binary saved to %s", backup)
	}

	p.Notifyf("Installed %s to %s", name, inst.Path)
	return nil
}

// stage writes the executable to a hidden file in the destination
// directory, so the final placement is a rename within one filesystem
func (m *Manager) stage(p core.Prompter, archive codec.Archive, tmp, dest string) (string, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".new-*")
	if err != nil {
		return "", fmt.Errorf("creating staging file: %w", err)
	}
	staged := f.Name()
	f.Close()

	if archive.IsContainer() {
		err = pick(p, archive, tmp, staged)
	} else {
		err = moveExe(tmp, staged)
	}
	if err != nil {
		os.Remove(staged)
		return "", err
	}
	return staged, nil
}

// download writes url through the decompressor into a fresh temp file
// and returns its path
func (m *Manager) download(ctx context.Context, p core.Prompter, name, url string, compression codec.Compression) (string, error) {
	if err := os.MkdirAll(m.tmpDir, 0755); err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}

	f, err := os.CreateTemp(m.tmpDir, name+"-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmp := f.Name()

	start := time.Now()
	n, err := m.writeDecoded(ctx, p, url, compression, f)
	m.metrics.Downloaded(n)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing temp file: %w", cerr)
	}
	if err != nil {
		os.Remove(tmp)
		return "", err
	}

	m.logger.Printf("fetched %d bytes for %s in %s", n, name, time.Since(start))
	return tmp, nil
}

func (m *Manager) writeDecoded(ctx context.Context, p core.Prompter, url string, compression codec.Compression, dst io.Writer) (int64, error) {
	sink, err := compression.NewWriter(dst)
	if err != nil {
		return 0, err
	}

	n, err := m.fetcher.Download(ctx, url, sink, p)
	if cerr := sink.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return n, err
}

// Revert puts the backed up binary back in place and clears the slot.
// Without a backup it only says so.
func (m *Manager) Revert(p core.Prompter, inst *core.Installer) error {
	if !inst.HasBackup() {
		p.Notify("No backup to revert to")
		return nil
	}

	if err := m.vault.Revert(inst.Backup, inst.Path); err != nil {
		return err
	}
	inst.Backup = ""
	p.Notifyf("Reverted %s", inst.Path)
	return nil
}

// Uninstall removes the binary and any pending backup
func (m *Manager) Uninstall(p core.Prompter, inst *core.Installer) error {
	if inst.HasBackup() {
		if err := m.vault.Discard(inst.Backup); err != nil {
			return err
		}
		inst.Backup = ""
	}

	if err := os.Remove(inst.Path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", inst.Path, err)
		}
		p.Notifyf("%s was already gone", inst.Path)
		return nil
	}

	p.Notifyf("Removed %s", inst.Path)
	return nil
}

// Retire cleans up after old was replaced by current: the old binary is
// removed if it lived elsewhere, and a backup current no longer tracks is
// discarded
func (m *Manager) Retire(p core.Prompter, old, current *core.Installer) error {
	if old.HasBackup() && old.Backup != current.Backup {
		if err := m.vault.Discard(old.Backup); err != nil {
			return err
		}
	}

	if old.Path == "" || old.Path == current.Path {
		return nil
	}
	if err := os.Remove(old.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", old.Path, err)
	}
	p.Notifyf("Removed previous location %s", old.Path)
	return nil
}
