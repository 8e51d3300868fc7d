package installer

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/arc-language/bpkg/pkg/codec"
	"github.com/arc-language/bpkg/pkg/core"
)

// ErrEmptyArchive is returned when a container holds no regular file
var ErrEmptyArchive = errors.New("installer: archive has no regular files")

// Entry is one pickable member of a container
type Entry struct {
	Index int    // position in the presented list
	Path  string // member path inside the container
	Size  int64  // size in bytes

	position int // position among all container members
}

// ListEntries returns the regular files of the container at path, in
// container order
func ListEntries(kind codec.Archive, path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	er, err := kind.NewEntryReader(f)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for position := 0; ; position++ {
		hdr, err := er.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s archive: %w", kind, err)
		}
		if !hdr.Regular {
			continue
		}
		entries = append(entries, Entry{
			Index:    len(entries),
			Path:     hdr.Path,
			Size:     hdr.Size,
			position: position,
		})
	}

	return entries, nil
}

// ExtractEntry re-reads the container at src and writes only entry to dest
func ExtractEntry(kind codec.Archive, src string, entry Entry, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	er, err := kind.NewEntryReader(f)
	if err != nil {
		return err
	}

	for position := 0; ; position++ {
		hdr, err := er.Next()
		if err == io.EOF {
			return fmt.Errorf("entry %d (%s) vanished from archive", entry.Index, entry.Path)
		}
		if err != nil {
			return fmt.Errorf("reading %s archive: %w", kind, err)
		}
		if position != entry.position {
			continue
		}
		if hdr.Path != entry.Path {
			return fmt.Errorf("archive changed: expected %s at %d, found %s", entry.Path, position, hdr.Path)
		}
		return writeExe(dest, er)
	}
}

// pick lists the container members, asks which one to install and
// extracts it to dest
func pick(p core.Prompter, kind codec.Archive, src, dest string) error {
	entries, err := ListEntries(kind, src)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return ErrEmptyArchive
	}

	for _, e := range entries {
		p.Notifyf("%3d  %10d  %s", e.Index, e.Size, e.Path)
	}

	choice, err := p.AskNumber(0, len(entries), "Enter the number of the file to install:")
	if err != nil {
		return fmt.Errorf("choosing archive entry: %w", err)
	}

	return ExtractEntry(kind, src, entries[choice], dest)
}
