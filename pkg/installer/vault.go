package installer

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// ExecMode is the permission set given to every installed binary
const ExecMode os.FileMode = 0750

// Vault keeps the single backup slot of each package in the data directory
type Vault struct {
	dir    string
	logger *log.Logger
}

// NewVault creates a vault storing backups in dir
func NewVault(dir string, logger *log.Logger) *Vault {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Vault{dir: dir, logger: logger}
}

// Displace moves current into the vault slot of package name and returns
// the backup location. An older backup of the same package is replaced.
func (v *Vault) Displace(name, current string) (string, error) {
	pending, err := v.Stash(name, current)
	if err != nil {
		return "", err
	}
	return v.Commit(name, pending)
}

// Stash moves current next to the slot of package name without touching
// the backup held there. Commit or Revert the returned pending file.
func (v *Vault) Stash(name, current string) (string, error) {
	if err := os.MkdirAll(v.dir, 0755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	pending := v.slot(name) + ".pending"
	if err := moveExe(current, pending); err != nil {
		return "", fmt.Errorf("backing up %s: %w", current, err)
	}

	v.logger.Printf("stashed %s to %s", current, pending)
	return pending, nil
}

// Commit makes a stashed file the backup of package name
func (v *Vault) Commit(name, pending string) (string, error) {
	backup := v.slot(name)
	if err := os.Rename(pending, backup); err != nil {
		return "", fmt.Errorf("committing backup %s: %w", backup, err)
	}
	v.logger.Printf("backup of %s is %s", name, backup)
	return backup, nil
}

// slot is keyed by package name, which is unique, rather than by the
// binary's file name, which is not
func (v *Vault) slot(name string) string {
	return filepath.Join(v.dir, name)
}

// Revert moves backup back over dest
func (v *Vault) Revert(backup, dest string) error {
	if err := moveExe(backup, dest); err != nil {
		return fmt.Errorf("restoring %s: %w", dest, err)
	}
	v.logger.Printf("restored %s from %s", dest, backup)
	return nil
}

// Discard deletes backup; a missing file is not an error
func (v *Vault) Discard(backup string) error {
	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing backup %s: %w", backup, err)
	}
	v.logger.Printf("discarded %s", backup)
	return nil
}

// moveExe moves src to dst and sets ExecMode. A rename is tried first;
// across filesystems the content is copied and src removed.
func moveExe(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		if err := copyFile(src, dst); err != nil {
			return err
		}
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("removing %s: %w", src, err)
		}
	}

	if err := os.Chmod(dst, ExecMode); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", dst, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	return writeExe(dst, in)
}

// writeExe replaces dst with the content of r
func writeExe(dst string, r io.Reader) error {
	// A running binary cannot be truncated in place on every platform
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replacing %s: %w", dst, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, ExecMode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}

	return os.Chmod(dst, ExecMode)
}
