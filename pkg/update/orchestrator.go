// pkg/update/orchestrator.go
package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/arc-language/bpkg/pkg/core"
	"github.com/arc-language/bpkg/pkg/registry"
)

// Orchestrator runs package updates on a bounded worker pool
type Orchestrator struct {
	workers int
	logger  *log.Logger
}

// New creates an orchestrator. workers <= 0 means one worker per package,
// at most MaxDefaultWorkers.
func New(workers int, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Orchestrator{workers: workers, logger: logger}
}

// Run updates the packages of reg named in names, or all of them when names
// is empty. Every worker gets its own copy of the package; a failing
// worker never stops the others. Once all workers are done, each updated
// package replaces the registry entry of the same name. Failed and
// up-to-date packages leave their entry untouched.
func (o *Orchestrator) Run(ctx context.Context, reg *registry.Registry, names []string, fn Func) *Report {
	selected, unknown := selectPackages(reg, names)

	report := &Report{Outcomes: make([]Outcome, len(selected))}
	for i, p := range selected {
		report.Outcomes[i] = Outcome{Name: p.Name, Status: Running}
	}

	var g errgroup.Group
	g.SetLimit(o.poolSize(len(selected)))

	for i, p := range selected {
		work := p.Clone()
		g.Go(func() error {
			// Each worker writes only its own slot
			report.Outcomes[i] = o.runOne(ctx, work, fn)
			return nil
		})
	}
	g.Wait()

	var updated []*core.Package
	for _, out := range report.Outcomes {
		if out.Status == Succeeded {
			updated = append(updated, out.Package)
		}
	}
	merged := reg.Merge(updated)

	for _, name := range unknown {
		report.Outcomes = append(report.Outcomes, Outcome{
			Name:   name,
			Status: Skipped,
			Err:    ErrNotInstalled,
		})
	}

	o.logger.Printf("update finished: %d merged, %d up to date, %d failed, %d skipped",
		merged, report.Count(UpToDate), report.Count(Failed), len(unknown))
	return report
}

func (o *Orchestrator) runOne(ctx context.Context, pkg *core.Package, fn Func) (out Outcome) {
	name := pkg.Name
	out.Name = name

	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Name: name, Status: Failed, Err: fmt.Errorf("update panicked: %v", r)}
		}
	}()

	updated, err := fn(ctx, pkg)
	switch {
	case errors.Is(err, ErrUpToDate):
		out.Status = UpToDate
	case err != nil:
		out.Status = Failed
		out.Err = err
		o.logger.Printf("updating %s failed: %v", name, err)
	case updated == nil:
		out.Status = Failed
		out.Err = errors.New("update returned no package")
	default:
		// Merging is keyed by name; a worker cannot rename its package
		updated.Name = name
		out.Status = Succeeded
		out.Package = updated
	}
	return out
}

func (o *Orchestrator) poolSize(n int) int {
	size := o.workers
	if size <= 0 {
		size = min(n, MaxDefaultWorkers)
	}
	return max(size, 1)
}

// selectPackages returns the requested packages in registry order and the
// requested names the registry does not know
func selectPackages(reg *registry.Registry, names []string) ([]*core.Package, []string) {
	if len(names) == 0 {
		return reg.List(), nil
	}

	wanted := make(map[string]bool, len(names))
	var unknown []string
	for _, name := range names {
		if wanted[name] {
			continue
		}
		wanted[name] = true
		if _, ok := reg.Get(name); !ok {
			unknown = append(unknown, name)
		}
	}

	var selected []*core.Package
	for _, p := range reg.List() {
		if wanted[p.Name] {
			selected = append(selected, p)
		}
	}
	return selected, unknown
}
