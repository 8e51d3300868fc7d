package update

import (
	"context"
	"errors"
	"fmt"

	"github.com/arc-language/bpkg/pkg/core"
)

var (
	// ErrUpToDate is returned by a Func when nothing newer exists
	ErrUpToDate = errors.New("already up to date")

	// ErrNotInstalled marks requested names missing from the registry
	ErrNotInstalled = errors.New("not installed")
)

// MaxDefaultWorkers caps the pool when no worker count is configured
const MaxDefaultWorkers = 8

// Func updates one package. It receives a private copy and returns the
// updated value, ErrUpToDate, or a failure.
type Func func(ctx context.Context, pkg *core.Package) (*core.Package, error)

// Status is the state of one package during a bulk update
type Status int

const (
	// Skipped packages were requested but not found
	Skipped Status = iota
	// Running packages have a worker assigned
	Running
	// Succeeded packages were updated and merged
	Succeeded
	// UpToDate packages had nothing newer
	UpToDate
	// Failed packages kept their previous registry entry
	Failed
)

func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Running:
		return "running"
	case Succeeded:
		return "updated"
	case UpToDate:
		return "up-to-date"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result for one package
type Outcome struct {
	Name    string
	Status  Status
	Package *core.Package // the updated package when Succeeded
	Err     error
}

// Report lists outcomes in registry order, followed by unknown names
type Report struct {
	Outcomes []Outcome
}

// Failures returns the outcomes that failed
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == Failed {
			out = append(out, o)
		}
	}
	return out
}

// Count returns how many outcomes have status s
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Err joins every failure into one error, or returns nil
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Failures() {
		errs = append(errs, fmt.Errorf("%s: %w", o.Name, o.Err))
	}
	return errors.Join(errs...)
}
