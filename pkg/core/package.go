// pkg/core/package.go
package core

import (
	"time"

	"github.com/arc-language/bpkg/pkg/codec"
)

// Package is one installed binary tracked by the registry
type Package struct {
	Name       string     `yaml:"name" toml:"name"`
	Installer  Installer  `yaml:"installer" toml:"installer"`
	Release    *Release   `yaml:"release,omitempty" toml:"release,omitempty"`
	LastUpdate *time.Time `yaml:"last_update,omitempty" toml:"last_update,omitempty"`
	Origin     string     `yaml:"origin,omitempty" toml:"origin,omitempty"` // "owner/repo" for GitHub packages
}

// Installer describes where a binary comes from and where it lives
type Installer struct {
	URL         string            `yaml:"url" toml:"url"`
	Path        string            `yaml:"path" toml:"path"`
	Compression codec.Compression `yaml:"compression,omitempty" toml:"compression,omitempty"`
	Archive     codec.Archive     `yaml:"archive,omitempty" toml:"archive,omitempty"`
	Backup      string            `yaml:"backup,omitempty" toml:"backup,omitempty"`
}

// Release identifies the installed content: a release tag or, for plain
// URLs, the time it was fetched. Exactly one field is set.
type Release struct {
	Version string     `yaml:"version,omitempty" toml:"version,omitempty"`
	Dated   *time.Time `yaml:"dated,omitempty" toml:"dated,omitempty"`
}

// VersionRelease returns a release identified by tag
func VersionRelease(tag string) *Release {
	return &Release{Version: tag}
}

// DatedRelease returns a release identified by capture time
func DatedRelease(t time.Time) *Release {
	t = t.UTC().Truncate(time.Second)
	return &Release{Dated: &t}
}

// IsVersion reports whether the release is identified by a tag
func (r *Release) IsVersion() bool {
	return r != nil && r.Version != ""
}

func (r *Release) String() string {
	switch {
	case r == nil:
		return "unknown"
	case r.Version != "":
		return r.Version
	case r.Dated != nil:
		return r.Dated.Format(time.RFC3339)
	default:
		return "unknown"
	}
}

// HasBackup reports whether a previous binary is waiting in the vault
func (i *Installer) HasBackup() bool {
	return i.Backup != ""
}

// Clone returns a deep copy so workers can mutate it without sharing
func (p *Package) Clone() *Package {
	c := *p
	if p.Release != nil {
		r := *p.Release
		if p.Release.Dated != nil {
			d := *p.Release.Dated
			r.Dated = &d
		}
		c.Release = &r
	}
	if p.LastUpdate != nil {
		t := *p.LastUpdate
		c.LastUpdate = &t
	}
	return &c
}
