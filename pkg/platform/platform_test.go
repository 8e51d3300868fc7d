package platform

import (
	"runtime"
	"testing"
)

func TestDetect(t *testing.T) {
	p := Detect()
	if p.OS != runtime.GOOS || p.Arch != runtime.GOARCH {
		t.Errorf("Detect() = %s; want %s/%s", p, runtime.GOOS, runtime.GOARCH)
	}
}

func TestMatchesAsset(t *testing.T) {
	tests := []struct {
		platform Platform
		asset    string
		want     bool
	}{
		{Platform{"linux", "amd64"}, "tool-v1.2.0-linux-amd64.tar.gz", true},
		{Platform{"linux", "amd64"}, "tool_Linux_x86_64.tar.gz", true},
		{Platform{"linux", "amd64"}, "tool-x86_64-unknown-linux-musl.tar.gz", true},
		{Platform{"linux", "amd64"}, "tool-darwin-amd64.tar.gz", false},
		{Platform{"linux", "arm64"}, "tool-aarch64-unknown-linux-gnu.tar.xz", true},
		{Platform{"linux", "arm64"}, "tool-linux-amd64", false},
		{Platform{"linux", "arm"}, "tool-linux-arm64", false},
		{Platform{"linux", "arm"}, "tool-linux-armv7", true},
		{Platform{"linux", "386"}, "tool-linux-x86_64", false},
		{Platform{"linux", "386"}, "tool-linux-i686", true},
		{Platform{"darwin", "arm64"}, "tool-macos-universal.zip", true},
		{Platform{"darwin", "arm64"}, "tool-apple-darwin-aarch64", true},
		{Platform{"windows", "amd64"}, "tool-windows-x64.exe", true},
		{Platform{"linux", "amd64"}, "linuxamd64", false},
	}

	for _, tt := range tests {
		t.Run(tt.platform.String()+"/"+tt.asset, func(t *testing.T) {
			if got := tt.platform.MatchesAsset(tt.asset); got != tt.want {
				t.Errorf("MatchesAsset(%q) = %v; want %v", tt.asset, got, tt.want)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	p := &Platform{OS: "linux", Arch: "amd64"}
	names := []string{
		"checksums.txt",
		"tool-darwin-amd64.tar.gz",
		"tool-linux-amd64.tar.gz.sha256",
		"tool-linux-amd64.tar.gz",
	}
	if got := p.Suggest(names); got != 3 {
		t.Errorf("Suggest = %d; want 3", got)
	}
	if got := p.Suggest([]string{"tool-windows.zip"}); got != -1 {
		t.Errorf("Suggest = %d; want -1", got)
	}
}
