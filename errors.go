// errors.go
package bpkg

import (
	"errors"
	"fmt"
)

var (
	// ErrPackageNotFound indicates the package is not in the registry
	ErrPackageNotFound = errors.New("package not installed")

	// ErrAlreadyInstalled indicates the name is taken and overwriting was declined
	ErrAlreadyInstalled = errors.New("package already installed")

	// ErrCorruptPackage indicates a GitHub package without a release tag
	ErrCorruptPackage = errors.New("corrupted package (please reinstall)")

	// ErrInvalidName indicates a package name that cannot be a file name
	ErrInvalidName = errors.New("invalid package name")
)

// Error wraps an error with additional context
type Error struct {
	Op      string // Operation that failed
	Package string // Package name if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Package, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
