// pkg/codec/compression.go
package codec

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression is the streaming decoder applied to a raw download
type Compression string

const (
	// CompressionNone passes bytes through unchanged
	CompressionNone Compression = "none"
	// CompressionGzip decodes gzip streams
	CompressionGzip Compression = "gzip"
	// CompressionBzip2 decodes bzip2 streams
	CompressionBzip2 Compression = "bzip2"
	// CompressionXz decodes xz streams
	CompressionXz Compression = "xz"
	// CompressionZstd decodes zstandard streams
	CompressionZstd Compression = "zstd"
)

// ErrUnknownCompression is returned when a compression name is not recognized
var ErrUnknownCompression = errors.New("unknown compression")

// Compressions lists every supported compression name, in flag help order
func Compressions() []string {
	return []string{
		string(CompressionGzip),
		string(CompressionBzip2),
		string(CompressionXz),
		string(CompressionZstd),
		string(CompressionNone),
	}
}

// ParseCompression maps a user supplied name to its compression kind
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "bzip2", "bz2", "bz":
		return CompressionBzip2, nil
	case "xz":
		return CompressionXz, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

// String returns the compression name
func (c Compression) String() string {
	if c == "" {
		return "auto"
	}
	return string(c)
}

// NewWriter wraps dst so that compressed bytes written to the returned
// writer come out decompressed on dst. Close must be called to flush the
// decoder and collect its error.
func (c Compression) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	switch c {
	case CompressionNone, "":
		return nopWriteCloser{dst}, nil
	case CompressionGzip:
		return newDecodeWriter(dst, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		}), nil
	case CompressionBzip2:
		return newDecodeWriter(dst, func(r io.Reader) (io.Reader, error) {
			return bzip2.NewReader(r), nil
		}), nil
	case CompressionXz:
		return newDecodeWriter(dst, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		}), nil
	case CompressionZstd:
		return newDecodeWriter(dst, func(r io.Reader) (io.Reader, error) {
			dec, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return dec.IOReadCloser(), nil
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, string(c))
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// decodeWriter turns a pull-style decoder into a push-style sink. Writes
// feed a pipe; a goroutine decodes from the other end into dst.
type decodeWriter struct {
	pw   *io.PipeWriter
	done chan error
}

func newDecodeWriter(dst io.Writer, open func(io.Reader) (io.Reader, error)) *decodeWriter {
	pr, pw := io.Pipe()
	d := &decodeWriter{pw: pw, done: make(chan error, 1)}

	go func() {
		r, err := open(pr)
		if err == nil {
			_, err = io.Copy(dst, r)
			if c, ok := r.(io.Closer); ok {
				c.Close()
			}
		}
		if err != nil {
			err = fmt.Errorf("decoding stream: %w", err)
		}
		// Unblocks any pending Write once decoding stops.
		pr.CloseWithError(err)
		d.done <- err
	}()

	return d
}

func (d *decodeWriter) Write(p []byte) (int, error) {
	return d.pw.Write(p)
}

func (d *decodeWriter) Close() error {
	d.pw.Close()
	return <-d.done
}
