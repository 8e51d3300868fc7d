package codec

import (
	"net/url"
	"path"
	"sort"
	"strings"
)

// suffixRule maps a file suffix to the formats it implies. An empty field
// means the suffix says nothing about that dimension.
type suffixRule struct {
	suffix      string
	archive     Archive
	compression Compression
}

var suffixRules = []suffixRule{
	{".tar", ArchiveTar, CompressionNone},
	{".tar.gz", ArchiveTar, CompressionGzip},
	{".tgz", ArchiveTar, CompressionGzip},
	{".tar.bz", ArchiveTar, CompressionBzip2},
	{".tar.bz2", ArchiveTar, CompressionBzip2},
	{".tbz", ArchiveTar, CompressionBzip2},
	{".tbz2", ArchiveTar, CompressionBzip2},
	{".tar.xz", ArchiveTar, CompressionXz},
	{".txz", ArchiveTar, CompressionXz},
	{".tar.zst", ArchiveTar, CompressionZstd},
	{".tzst", ArchiveTar, CompressionZstd},
	{".gz", "", CompressionGzip},
	{".bz", "", CompressionBzip2},
	{".bz2", "", CompressionBzip2},
	{".xz", "", CompressionXz},
	{".zst", "", CompressionZstd},
	{".deb", ArchiveAr, CompressionNone},
	{".a", ArchiveAr, CompressionNone},
	{".cpio", ArchiveCpio, CompressionNone},
	{".cpio.gz", ArchiveCpio, CompressionGzip},
	{".cpio.xz", ArchiveCpio, CompressionXz},
	{".cpio.zst", ArchiveCpio, CompressionZstd},
	{".rpm", ArchiveRpm, CompressionNone},
	{".nar", ArchiveNar, CompressionNone},
	{".nar.xz", ArchiveNar, CompressionXz},
	{".nar.bz2", ArchiveNar, CompressionBzip2},
	{".nar.zst", ArchiveNar, CompressionZstd},
}

func init() {
	// Longest suffix first so the most specific rule wins
	sort.SliceStable(suffixRules, func(i, j int) bool {
		return len(suffixRules[i].suffix) > len(suffixRules[j].suffix)
	})
}

// fileName strips query and fragment from a download URL and returns the
// lower-cased last path element.
func fileName(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.ToLower(path.Base(p))
}

func matchSuffix(rawURL string) (suffixRule, bool) {
	name := fileName(rawURL)
	for _, rule := range suffixRules {
		if strings.HasSuffix(name, rule.suffix) {
			return rule, true
		}
	}
	return suffixRule{}, false
}

// GuessArchive returns explicit when set, otherwise infers the archive kind
// from the URL suffix.
func GuessArchive(explicit Archive, rawURL string) Archive {
	if explicit != "" {
		return explicit
	}
	if rule, ok := matchSuffix(rawURL); ok && rule.archive != "" {
		return rule.archive
	}
	return ArchiveNone
}

// GuessCompression returns explicit when set, otherwise infers the
// compression from the URL suffix.
func GuessCompression(explicit Compression, rawURL string) Compression {
	if explicit != "" {
		return explicit
	}
	if rule, ok := matchSuffix(rawURL); ok && rule.compression != "" {
		return rule.compression
	}
	return CompressionNone
}
