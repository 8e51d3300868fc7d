package registry

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/arc-language/bpkg/pkg/codec"
	"github.com/arc-language/bpkg/pkg/core"
)

func samplePackages() []*core.Package {
	at := time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC)
	return []*core.Package{
		{
			Name: "zeta",
			Installer: core.Installer{
				URL:         "https://example.com/zeta.tar.gz",
				Path:        "/home/u/.local/bin/zeta",
				Compression: codec.CompressionGzip,
				Archive:     codec.ArchiveTar,
			},
			Release:    core.DatedRelease(at),
			LastUpdate: &at,
		},
		{
			Name: "alpha",
			Installer: core.Installer{
				URL:    "https://github.com/o/alpha/releases/download/v1/alpha",
				Path:   "/home/u/.local/bin/alpha",
				Backup: "/home/u/.local/share/bpkg/alpha",
			},
			Release: core.VersionRelease("v1"),
			Origin:  "o/alpha",
		},
		{
			Name:      "mid",
			Installer: core.Installer{URL: "https://example.com/mid", Path: "/bin/mid"},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, ext := range []string{".yaml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "bpkg"+ext)

			r := New(path)
			for _, p := range samplePackages() {
				if err := r.Put(p); err != nil {
					t.Fatalf("Put: %v", err)
				}
			}
			if err := r.Save(); err != nil {
				t.Fatalf("Save: %v", err)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			if got, want := loaded.Names(), []string{"zeta", "alpha", "mid"}; !reflect.DeepEqual(got, want) {
				t.Errorf("Names = %v; want %v", got, want)
			}

			for _, want := range samplePackages() {
				got, ok := loaded.Get(want.Name)
				if !ok {
					t.Fatalf("%s missing after reload", want.Name)
				}
				if got.Installer != want.Installer {
					t.Errorf("%s installer = %+v; want %+v", want.Name, got.Installer, want.Installer)
				}
				if got.Origin != want.Origin {
					t.Errorf("%s origin = %q; want %q", want.Name, got.Origin, want.Origin)
				}
				if got.Release.String() != want.Release.String() {
					t.Errorf("%s release = %s; want %s", want.Name, got.Release, want.Release)
				}
				if (got.LastUpdate == nil) != (want.LastUpdate == nil) ||
					(got.LastUpdate != nil && !got.LastUpdate.Equal(*want.LastUpdate)) {
					t.Errorf("%s last update = %v; want %v", want.Name, got.LastUpdate, want.LastUpdate)
				}
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d; want 0", r.Len())
	}
}

func TestLoadDuplicateNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bpkg.yaml")
	doc := "packages:\n  - name: a\n    installer: {url: u, path: p}\n  - name: a\n    installer: {url: u, path: p}\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Load = %v; want ErrDuplicate", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bpkg.toml")
	if err := os.WriteFile(path, []byte("packages = [[[\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMutations(t *testing.T) {
	r := New("unused.yaml")
	for _, p := range samplePackages() {
		r.Put(p)
	}

	if err := r.Put(&core.Package{Name: "alpha"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Put duplicate = %v; want ErrDuplicate", err)
	}

	if r.Replace(&core.Package{Name: "ghost"}) {
		t.Error("Replace of unknown name reported success")
	}

	updated := &core.Package{Name: "alpha", Release: core.VersionRelease("v2")}
	if !r.Replace(updated) {
		t.Fatal("Replace of alpha failed")
	}
	if got, _ := r.Get("alpha"); got.Release.Version != "v2" {
		t.Errorf("alpha release = %s; want v2", got.Release)
	}
	if got, want := r.Names(), []string{"zeta", "alpha", "mid"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Replace changed order: %v", got)
	}

	if _, ok := r.Remove("zeta"); !ok {
		t.Fatal("Remove zeta failed")
	}
	if _, ok := r.Remove("zeta"); ok {
		t.Error("second Remove succeeded")
	}
	if got, want := r.Names(), []string{"alpha", "mid"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v; want %v", got, want)
	}
}

func TestMerge(t *testing.T) {
	r := New("unused.yaml")
	for _, p := range samplePackages() {
		r.Put(p)
	}

	n := r.Merge([]*core.Package{
		{Name: "mid", Release: core.VersionRelease("v9")},
		{Name: "stranger"},
	})
	if n != 1 {
		t.Errorf("Merge = %d; want 1", n)
	}
	if _, ok := r.Get("stranger"); ok {
		t.Error("Merge added an unknown package")
	}
	if got, _ := r.Get("mid"); got.Release.Version != "v9" {
		t.Errorf("mid release = %s; want v9", got.Release)
	}
}
