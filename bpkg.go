// bpkg.go
package bpkg

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/arc-language/bpkg/pkg/codec"
	"github.com/arc-language/bpkg/pkg/core"
	"github.com/arc-language/bpkg/pkg/fetch"
	"github.com/arc-language/bpkg/pkg/github"
	"github.com/arc-language/bpkg/pkg/installer"
	"github.com/arc-language/bpkg/pkg/metrics"
	"github.com/arc-language/bpkg/pkg/platform"
	"github.com/arc-language/bpkg/pkg/registry"
	"github.com/arc-language/bpkg/pkg/ui"
	"github.com/arc-language/bpkg/pkg/update"
)

// SelfRepo is where bpkg itself is released
const SelfRepo = "arc-language/bpkg"

// Re-export the data model for convenience
type (
	Package   = core.Package
	Installer = core.Installer
	Release   = core.Release
	Config    = core.Config
	Report    = update.Report
)

// Options wires a Manager to its collaborators
type Options struct {
	Config   *core.Config       // Settings (core.LoadConfig)
	UI       *ui.UI             // Output actor, already running
	Logger   *log.Logger        // Debug logger (optional)
	Metrics  *metrics.Recorder  // Optional
	Platform *platform.Platform // Host platform (detected if nil)
}

// InstallRequest describes a new package
type InstallRequest struct {
	Name        string            // Registry key and default file name
	Source      string            // Download URL or "owner/repo"
	Path        string            // Destination (bin_dir/Name if empty)
	Compression codec.Compression // Empty infers from the URL
	Archive     codec.Archive     // Empty infers from the URL
	Force       bool              // Overwrite an existing package without asking
}

// InitOptions configures Init
type InitOptions struct {
	NoInstall bool   // Only create the registry
	Repo      string // Repository bpkg installs itself from (SelfRepo if empty)
}

// Manager is the binary package manager
type Manager struct {
	config    *core.Config
	registry  *registry.Registry
	ui        *ui.UI
	installer *installer.Manager
	github    *github.Client
	updater   *update.Orchestrator
	platform  *platform.Platform
	metrics   *metrics.Recorder
	logger    *log.Logger
	now       func() time.Time
}

// NewManager loads the registry and builds the install pipeline
func NewManager(opts *Options) (*Manager, error) {
	if opts == nil || opts.Config == nil || opts.UI == nil {
		return nil, fmt.Errorf("config and ui are required")
	}
	cfg := opts.Config

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	plat := opts.Platform
	if plat == nil {
		plat = platform.Detect()
	}

	reg, err := registry.Load(cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}

	fetcher := fetch.NewClient(&fetch.Config{
		RedirectLimit: cfg.RedirectLimit,
		Logger:        logger,
	})

	return &Manager{
		config:   cfg,
		registry: reg,
		ui:       opts.UI,
		installer: installer.NewManager(&installer.Config{
			TmpDir:  cfg.TmpDir,
			DataDir: cfg.DataDir,
			Fetcher: fetcher,
			Metrics: opts.Metrics,
			Logger:  logger,
		}),
		github: github.NewClient(&github.Config{
			API:     cfg.GitHubAPI,
			Token:   cfg.GitHubToken,
			Fetcher: fetcher,
			Logger:  logger,
		}),
		updater:  update.New(cfg.Workers, logger),
		platform: plat,
		metrics:  opts.Metrics,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Install fetches a new package and records it. An existing package of
// the same name is only replaced with Force or after confirmation.
func (m *Manager) Install(ctx context.Context, req *InstallRequest) (err error) {
	start := time.Now()
	defer func() { m.metrics.Operation("install", start, err) }()

	if err := validateName(req.Name); err != nil {
		return &Error{Op: "install", Package: req.Name, Err: err}
	}

	h := m.ui.Handle("🔨", req.Name)
	h.Notify("Building package")

	existing, exists := m.registry.Get(req.Name)
	if exists {
		x := h.With("❌", req.Name)
		x.Notifyf("Package is already installed: %s release %s", existing.Name, existing.Release)
		if !req.Force {
			answer, err := x.Ask("Enter `y` to force installation")
			if err != nil {
				return &Error{Op: "install", Package: req.Name, Err: err}
			}
			if strings.TrimSpace(answer) != "y" {
				return &Error{Op: "install", Package: req.Name, Err: ErrAlreadyInstalled}
			}
		}
		h.With("🤷", req.Name).Notify("Installing anyways")
	}

	path := req.Path
	if path == "" {
		path = filepath.Join(m.config.BinDir, req.Name)
	}
	pkg := &core.Package{
		Name: req.Name,
		Installer: core.Installer{
			URL:         req.Source,
			Path:        path,
			Compression: req.Compression,
			Archive:     req.Archive,
		},
	}

	if exists && existing.Installer.Path == path {
		// The pending backup still belongs to this location
		pkg.Installer.Backup = existing.Installer.Backup
	}

	if github.IsRepoSlug(req.Source) {
		h.With("🪐", req.Name).Notify("Treating package as a GitHub repository")
		rel, err := m.github.LatestRelease(ctx, req.Source)
		if err != nil {
			return &Error{Op: "install", Package: req.Name, Err: err}
		}
		asset, err := github.SelectAsset(h.With("🪐", req.Name), rel, m.platform)
		if err != nil {
			return &Error{Op: "install", Package: req.Name, Err: err}
		}
		pkg.Origin = req.Source
		pkg.Installer.URL = asset.BrowserDownloadURL
		pkg.Release = core.VersionRelease(rel.TagName)
	} else {
		pkg.Release = core.DatedRelease(m.now())
	}

	if err := m.installer.Install(ctx, h, pkg.Name, &pkg.Installer); err != nil {
		return &Error{Op: "install", Package: req.Name, Err: err}
	}
	now := m.now()
	pkg.LastUpdate = &now

	if exists {
		if err := m.installer.Retire(h, &existing.Installer, &pkg.Installer); err != nil {
			m.logger.Printf("cleaning up after reinstalling %s: %v", req.Name, err)
		}
		m.registry.Replace(pkg)
	} else if err := m.registry.Put(pkg); err != nil {
		return &Error{Op: "install", Package: req.Name, Err: err}
	}

	h.Notify("Package is installed")
	return m.save("install", req.Name)
}

// Delete removes the binary, its backup and the registry entry
func (m *Manager) Delete(name string) (err error) {
	start := time.Now()
	defer func() { m.metrics.Operation("delete", start, err) }()

	h := m.ui.Handle("🪦", name)
	h.Notify("Deleting package")

	pkg, ok := m.registry.Get(name)
	if !ok {
		m.notInstalled(h, name)
		return &Error{Op: "delete", Package: name, Err: ErrPackageNotFound}
	}

	if err := m.installer.Uninstall(h, &pkg.Installer); err != nil {
		return &Error{Op: "delete", Package: name, Err: err}
	}
	m.registry.Remove(name)
	h.Notify("Package is deleted and removed from disk")

	return m.save("delete", name)
}

// Revert restores the binary displaced by the last install or update.
// Without a pending backup nothing changes.
func (m *Manager) Revert(name string) (err error) {
	start := time.Now()
	defer func() { m.metrics.Operation("revert", start, err) }()

	h := m.ui.Handle("⏪", name)
	h.Notify("Reverting package")

	pkg, ok := m.registry.Get(name)
	if !ok {
		m.notInstalled(h, name)
		return &Error{Op: "revert", Package: name, Err: ErrPackageNotFound}
	}

	if err := m.installer.Revert(h, &pkg.Installer); err != nil {
		return &Error{Op: "revert", Package: name, Err: err}
	}

	return m.save("revert", name)
}

// Update updates the named packages, or all when names is empty, in
// parallel. Failures are isolated per package and listed in the report;
// the registry is saved once every worker is done. The returned error is
// only about saving.
func (m *Manager) Update(ctx context.Context, names []string) (*update.Report, error) {
	start := time.Now()

	if m.registry.Len() == 0 {
		m.ui.Handle("🏜", "bpkg").Notify("No packages installed yet")
		return &update.Report{}, nil
	}

	report := m.updater.Run(ctx, m.registry, names, m.updateOne)

	for _, out := range report.Outcomes {
		m.metrics.UpdateOutcome(out.Status.String())
		switch out.Status {
		case update.Failed:
			m.ui.Handle("❌", out.Name).Notifyf("Update failed: %s", oneLine(out.Err))
		case update.Skipped:
			m.notInstalled(m.ui.Handle("❌", out.Name), out.Name)
		}
	}

	saveErr := m.save("update", "")
	if saveErr != nil {
		m.metrics.Operation("update", start, saveErr)
	} else {
		m.metrics.Operation("update", start, report.Err())
	}
	return report, saveErr
}

// updateOne is the per-package worker. It runs on a private copy.
func (m *Manager) updateOne(ctx context.Context, pkg *core.Package) (*core.Package, error) {
	h := m.ui.Handle("⛽", pkg.Name)
	h.Notify("Updating package")
	h.Notifyf("Last update: %s", formatTime(pkg.LastUpdate))

	if pkg.Origin == "" {
		if err := m.installer.Install(ctx, h, pkg.Name, &pkg.Installer); err != nil {
			return nil, err
		}
		now := m.now()
		pkg.Release = core.DatedRelease(now)
		pkg.LastUpdate = &now
		return pkg, nil
	}

	if !pkg.Release.IsVersion() {
		return nil, ErrCorruptPackage
	}
	installed := pkg.Release.Version

	g := h.With("🪐", pkg.Name)
	g.Notify("Treating package as a GitHub repository")
	rel, err := m.github.LatestRelease(ctx, pkg.Origin)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve GitHub repository: %w", err)
	}

	h.Notifyf("Installed release: %s", installed)
	h.Notifyf("Latest release: %s", rel.TagName)
	if rel.TagName == installed {
		h.Notify("Looks like the latest release is already installed")
		return nil, update.ErrUpToDate
	}
	h.Notifyf("Other release available: %s", rel.TagName)

	asset, err := github.SelectAsset(g, rel, m.platform)
	if err != nil {
		return nil, err
	}
	pkg.Installer.URL = asset.BrowserDownloadURL

	if err := m.installer.Install(ctx, h, pkg.Name, &pkg.Installer); err != nil {
		return nil, err
	}
	now := m.now()
	pkg.Release = core.VersionRelease(rel.TagName)
	pkg.LastUpdate = &now
	return pkg, nil
}

// List returns the installed packages in registry order
func (m *Manager) List() []*core.Package {
	return m.registry.List()
}

// Init creates an empty registry if none exists and, unless told
// otherwise, installs bpkg itself
func (m *Manager) Init(ctx context.Context, opts *InitOptions) error {
	if opts == nil {
		opts = &InitOptions{}
	}

	h := m.ui.Handle("🚧", "bpkg")
	if _, err := os.Stat(m.registry.Path()); err == nil {
		h.Notifyf("Registry %s already exists, not overwriting", m.registry.Path())
	} else if err := m.save("init", ""); err != nil {
		return err
	}

	if !opts.NoInstall {
		repo := opts.Repo
		if repo == "" {
			repo = SelfRepo
		}
		if err := m.Install(ctx, &InstallRequest{Name: "bpkg", Source: repo}); err != nil {
			return err
		}
	}

	m.ui.Handle("🎉", "bpkg").Notify("Initialization successful")
	m.ui.Handle("🐚", "bpkg").Notify("Run `bpkg completion --help` to see if completion for your shell is available")
	return nil
}

// Close writes the metrics file and stops the output actor
func (m *Manager) Close() error {
	err := m.metrics.WriteFile(m.config.MetricsFile)
	m.ui.Handle("", "").Quit()
	return err
}

func (m *Manager) save(op, name string) error {
	if err := m.registry.Save(); err != nil {
		return &Error{Op: op, Package: name, Err: fmt.Errorf("failed to save registry: %w", err)}
	}
	m.logger.Printf("saved registry %s after %s", m.registry.Path(), op)
	return nil
}

// notInstalled reports an unknown name with the closest installed ones
func (m *Manager) notInstalled(h ui.Handle, name string) {
	h.Notify("This package is not installed")
	if similar := Similar(name, m.registry.Names()); len(similar) > 0 {
		h.Notifyf("Did you mean: %s", strings.Join(similar, ", "))
	}
}

// Similar returns up to three names fuzzy matching name, best first
func Similar(name string, names []string) []string {
	var out []string
	for _, match := range fuzzy.Find(name, names) {
		if match.Str == name {
			continue
		}
		out = append(out, match.Str)
		if len(out) == 3 {
			break
		}
	}
	return out
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.RFC1123)
}

func oneLine(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", ". ")
}
