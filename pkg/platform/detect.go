// pkg/platform/detect.go
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform represents the host a binary must run on
type Platform struct {
	OS   string // linux, darwin, windows, freebsd
	Arch string // amd64, arm64, 386, arm
}

// osAliases are the spellings release authors use in asset names
var osAliases = map[string][]string{
	"linux":   {"linux"},
	"darwin":  {"darwin", "macos", "mac", "osx", "apple"},
	"windows": {"windows", "win", "win64", "win32"},
	"freebsd": {"freebsd"},
}

var archAliases = map[string][]string{
	"amd64": {"amd64", "x86_64", "x86-64", "x64"},
	"arm64": {"arm64", "aarch64", "armv8"},
	"386":   {"386", "i386", "i686", "x86", "32bit"},
	"arm":   {"arm", "armv7", "armv7l", "armhf", "armv6"},
}

// Detect returns the platform bpkg itself was built for
func Detect() *Platform {
	return &Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

// MatchesAsset reports whether a release asset name looks like a build
// for this platform
func (p *Platform) MatchesAsset(name string) bool {
	name = strings.ToLower(name)

	if !containsAny(name, aliases(osAliases, p.OS)) {
		return false
	}

	arch := aliases(archAliases, p.Arch)
	if p.OS == "darwin" {
		arch = append(arch, "universal")
	}
	if !containsAny(name, arch) {
		return false
	}

	// "x86" is also the prefix of x86_64
	if p.Arch == "386" && containsAny(name, archAliases["amd64"]) {
		return false
	}
	return true
}

// String returns a string representation of the platform
func (p *Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

func aliases(table map[string][]string, key string) []string {
	if a, ok := table[key]; ok {
		return append([]string(nil), a...)
	}
	return []string{key}
}
