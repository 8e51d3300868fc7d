// pkg/codec/archive.go
package codec

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/cavaliergopher/cpio"
	rpmutils "github.com/sassoftware/go-rpmutils"
	"zombiezen.com/go/nix/nar"
)

// Archive describes how a downloaded payload is packaged
type Archive string

const (
	// ArchiveNone means the payload is the executable itself
	ArchiveNone Archive = "none"
	// ArchiveTar is a tar container
	ArchiveTar Archive = "tar"
	// ArchiveAr is a unix ar container (.deb, .a)
	ArchiveAr Archive = "ar"
	// ArchiveCpio is a newc/odc cpio container
	ArchiveCpio Archive = "cpio"
	// ArchiveRpm is an rpm package; entries come from its payload
	ArchiveRpm Archive = "rpm"
	// ArchiveNar is a Nix archive
	ArchiveNar Archive = "nar"
)

// ErrUnknownArchive is returned when an archive name is not recognized
var ErrUnknownArchive = errors.New("unknown archive")

// Archives lists every supported archive name, in flag help order
func Archives() []string {
	return []string{
		string(ArchiveTar),
		string(ArchiveAr),
		string(ArchiveCpio),
		string(ArchiveRpm),
		string(ArchiveNar),
		string(ArchiveNone),
	}
}

// ParseArchive maps a user supplied name to its archive kind
func ParseArchive(s string) (Archive, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return ArchiveNone, nil
	case "tar":
		return ArchiveTar, nil
	case "ar", "deb":
		return ArchiveAr, nil
	case "cpio":
		return ArchiveCpio, nil
	case "rpm":
		return ArchiveRpm, nil
	case "nar":
		return ArchiveNar, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownArchive, s)
	}
}

// String returns the archive name
func (a Archive) String() string {
	if a == "" {
		return "auto"
	}
	return string(a)
}

// IsContainer reports whether the archive holds members that must be picked
func (a Archive) IsContainer() bool {
	return a != ArchiveNone && a != ""
}

// Header describes one member of a container
type Header struct {
	Path    string
	Size    int64
	Regular bool
}

// EntryReader walks the members of a container in order. After Next
// returns a header, Read yields that member's content.
type EntryReader interface {
	Next() (*Header, error)
	io.Reader
}

// NewEntryReader opens r as a container of kind a
func (a Archive) NewEntryReader(r io.Reader) (EntryReader, error) {
	switch a {
	case ArchiveTar:
		return &tarEntries{tr: tar.NewReader(r)}, nil
	case ArchiveAr:
		return &arEntries{r: ar.NewReader(r)}, nil
	case ArchiveCpio:
		return &cpioEntries{r: cpio.NewReader(r)}, nil
	case ArchiveRpm:
		rpm, err := rpmutils.ReadRpm(r)
		if err != nil {
			return nil, fmt.Errorf("reading rpm package: %w", err)
		}
		payload, err := rpm.PayloadReaderExtended()
		if err != nil {
			return nil, fmt.Errorf("opening rpm payload: %w", err)
		}
		return &rpmEntries{r: payload}, nil
	case ArchiveNar:
		return &narEntries{r: nar.NewReader(bufio.NewReader(r))}, nil
	default:
		return nil, fmt.Errorf("%w: %q is not a container", ErrUnknownArchive, string(a))
	}
}

type tarEntries struct {
	tr *tar.Reader
}

func (t *tarEntries) Next() (*Header, error) {
	hdr, err := t.tr.Next()
	if err != nil {
		return nil, err
	}
	return &Header{
		Path:    hdr.Name,
		Size:    hdr.Size,
		Regular: hdr.Typeflag == tar.TypeReg,
	}, nil
}

func (t *tarEntries) Read(p []byte) (int, error) { return t.tr.Read(p) }

type arEntries struct {
	r *ar.Reader
}

func (a *arEntries) Next() (*Header, error) {
	hdr, err := a.r.Next()
	if err != nil {
		return nil, err
	}
	// GNU ar terminates member names with a slash
	name := strings.TrimSuffix(strings.TrimSpace(hdr.Name), "/")
	return &Header{Path: name, Size: hdr.Size, Regular: true}, nil
}

func (a *arEntries) Read(p []byte) (int, error) { return a.r.Read(p) }

type cpioEntries struct {
	r *cpio.Reader
}

func (c *cpioEntries) Next() (*Header, error) {
	hdr, err := c.r.Next()
	if err != nil {
		return nil, err
	}
	return &Header{
		Path:    hdr.Name,
		Size:    hdr.Size,
		Regular: hdr.Mode.IsRegular(),
	}, nil
}

func (c *cpioEntries) Read(p []byte) (int, error) { return c.r.Read(p) }

type rpmEntries struct {
	r rpmutils.PayloadReader
}

func (e *rpmEntries) Next() (*Header, error) {
	info, err := e.r.Next()
	if err != nil {
		return nil, err
	}
	regular := info.Mode()&0170000 == 0100000 && !e.r.IsLink()
	return &Header{
		Path:    strings.TrimPrefix(info.Name(), "."),
		Size:    info.Size(),
		Regular: regular,
	}, nil
}

func (e *rpmEntries) Read(p []byte) (int, error) { return e.r.Read(p) }

type narEntries struct {
	r *nar.Reader
}

func (n *narEntries) Next() (*Header, error) {
	hdr, err := n.r.Next()
	if err != nil {
		return nil, err
	}
	path := hdr.Path
	if path == "" {
		path = "."
	}
	return &Header{
		Path:    path,
		Size:    hdr.Size,
		Regular: hdr.Mode.IsRegular(),
	}, nil
}

func (n *narEntries) Read(p []byte) (int, error) { return n.r.Read(p) }
