package update

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arc-language/bpkg/pkg/core"
	"github.com/arc-language/bpkg/pkg/registry"
)

func newRegistry(t *testing.T, pkgs ...*core.Package) *registry.Registry {
	t.Helper()
	reg := registry.New("unused.yaml")
	for _, p := range pkgs {
		if err := reg.Put(p); err != nil {
			t.Fatal(err)
		}
	}
	return reg
}

func TestRunIsolatesFailures(t *testing.T) {
	x := &core.Package{Name: "X", Installer: core.Installer{URL: "https://example.com/x"}, Release: core.VersionRelease("dated-x")}
	y := &core.Package{Name: "Y", Installer: core.Installer{URL: "https://example.com/y1"}, Release: core.VersionRelease("v1"), Origin: "o/r"}
	reg := newRegistry(t, x, y)

	report := New(0, nil).Run(context.Background(), reg, nil, func(ctx context.Context, p *core.Package) (*core.Package, error) {
		if p.Name == "X" {
			p.Installer.URL = "mutated before failing"
			return nil, errors.New("download failed")
		}
		p.Installer.URL = "https://example.com/y2"
		p.Release = core.VersionRelease("v2")
		return p, nil
	})

	if failures := report.Failures(); len(failures) != 1 || failures[0].Name != "X" {
		t.Fatalf("failures = %+v; want only X", failures)
	}
	if report.Err() == nil {
		t.Error("Err() = nil with one failure")
	}

	gotX, _ := reg.Get("X")
	if gotX != x || gotX.Installer.URL != "https://example.com/x" {
		t.Errorf("X entry changed: %+v", gotX)
	}
	gotY, _ := reg.Get("Y")
	if gotY.Release.Version != "v2" || gotY.Installer.URL != "https://example.com/y2" {
		t.Errorf("Y not merged: %+v", gotY)
	}
	if y.Release.Version != "v1" {
		t.Error("worker mutated the registry's own value")
	}
}

func TestRunUpToDateLeavesEntry(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &core.Package{Name: "tool", Release: core.VersionRelease("v1"), LastUpdate: &at}
	reg := newRegistry(t, p)

	report := New(1, nil).Run(context.Background(), reg, nil, func(ctx context.Context, p *core.Package) (*core.Package, error) {
		now := time.Now()
		p.LastUpdate = &now
		return nil, ErrUpToDate
	})

	if report.Count(UpToDate) != 1 || len(report.Failures()) != 0 {
		t.Errorf("outcomes = %+v", report.Outcomes)
	}
	got, _ := reg.Get("tool")
	if !got.LastUpdate.Equal(at) {
		t.Errorf("last update changed to %v", got.LastUpdate)
	}
}

func TestRunSelection(t *testing.T) {
	reg := newRegistry(t,
		&core.Package{Name: "a"},
		&core.Package{Name: "b"},
		&core.Package{Name: "c"},
	)

	var mu sync.Mutex
	var ran []string
	report := New(0, nil).Run(context.Background(), reg, []string{"c", "ghost", "a", "c"}, func(ctx context.Context, p *core.Package) (*core.Package, error) {
		mu.Lock()
		ran = append(ran, p.Name)
		mu.Unlock()
		return p, nil
	})

	if len(ran) != 2 {
		t.Errorf("ran %v; want a and c once each", ran)
	}

	want := []struct {
		name   string
		status Status
	}{
		{"a", Succeeded},
		{"c", Succeeded},
		{"ghost", Skipped},
	}
	if len(report.Outcomes) != len(want) {
		t.Fatalf("outcomes = %+v", report.Outcomes)
	}
	for i, w := range want {
		o := report.Outcomes[i]
		if o.Name != w.name || o.Status != w.status {
			t.Errorf("outcome %d = %s/%s; want %s/%s", i, o.Name, o.Status, w.name, w.status)
		}
	}
	if !errors.Is(report.Outcomes[2].Err, ErrNotInstalled) {
		t.Errorf("ghost error = %v", report.Outcomes[2].Err)
	}
}

func TestRunBoundsWorkers(t *testing.T) {
	var pkgs []*core.Package
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		pkgs = append(pkgs, &core.Package{Name: name})
	}
	reg := newRegistry(t, pkgs...)

	var active, peak atomic.Int32
	New(2, nil).Run(context.Background(), reg, nil, func(ctx context.Context, p *core.Package) (*core.Package, error) {
		n := active.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return p, nil
	})

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d; want <= 2", got)
	}
}

func TestRunRecoversPanics(t *testing.T) {
	reg := newRegistry(t, &core.Package{Name: "boom"}, &core.Package{Name: "fine"})

	report := New(0, nil).Run(context.Background(), reg, nil, func(ctx context.Context, p *core.Package) (*core.Package, error) {
		if p.Name == "boom" {
			panic("unexpected")
		}
		return p, nil
	})

	if report.Outcomes[0].Status != Failed || report.Outcomes[1].Status != Succeeded {
		t.Errorf("outcomes = %+v", report.Outcomes)
	}
}

func TestRunCannotRename(t *testing.T) {
	reg := newRegistry(t, &core.Package{Name: "tool"})

	New(0, nil).Run(context.Background(), reg, nil, func(ctx context.Context, p *core.Package) (*core.Package, error) {
		p.Name = "other"
		p.Release = core.VersionRelease("v3")
		return p, nil
	})

	if _, ok := reg.Get("other"); ok {
		t.Error("worker renamed a package")
	}
	if got, _ := reg.Get("tool"); got.Release.Version != "v3" {
		t.Errorf("tool not merged: %+v", got)
	}
}

func TestPoolSize(t *testing.T) {
	tests := []struct {
		workers, packages, want int
	}{
		{0, 3, 3},
		{0, 20, MaxDefaultWorkers},
		{0, 0, 1},
		{4, 20, 4},
		{4, 1, 4},
	}
	for _, tt := range tests {
		if got := New(tt.workers, nil).poolSize(tt.packages); got != tt.want {
			t.Errorf("poolSize(workers=%d, n=%d) = %d; want %d", tt.workers, tt.packages, got, tt.want)
		}
	}
}
