// pkg/platform/resolver.go
package platform

import "strings"

// sidecarSuffixes mark files published next to binaries that are never
// the binary itself
var sidecarSuffixes = []string{
	".sha256", ".sha256sum", ".sha512", ".md5", ".sig", ".asc", ".pem",
	".sbom", ".spdx", ".json", ".txt", ".intoto.jsonl",
}

// IsSidecar reports whether an asset is a checksum, signature or manifest
func IsSidecar(name string) bool {
	name = strings.ToLower(name)
	if strings.Contains(name, "checksums") {
		return true
	}
	for _, suffix := range sidecarSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Suggest returns the index of the first asset built for p that is not a
// sidecar file, or -1 when none qualifies
func (p *Platform) Suggest(names []string) int {
	for i, name := range names {
		if !IsSidecar(name) && p.MatchesAsset(name) {
			return i
		}
	}
	return -1
}
