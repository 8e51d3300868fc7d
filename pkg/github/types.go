package github

import (
	"errors"
	"log"
	"strings"

	"github.com/arc-language/bpkg/pkg/fetch"
)

var (
	// ErrMissingTag means the release document has no tag_name
	ErrMissingTag = errors.New("github: release has no tag name")

	// ErrNoAssets means the release document has no assets
	ErrNoAssets = errors.New("github: release has no assets")
)

// DefaultAPI is the public GitHub REST endpoint
const DefaultAPI = "https://api.github.com"

// Release is the subset of a GitHub release document bpkg uses
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable file of a release
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Config configures the release client
type Config struct {
	API     string        // REST endpoint, DefaultAPI if empty
	Token   string        // Optional bearer token
	Fetcher *fetch.Client // HTTP client (default client if nil)
	Logger  *log.Logger   // Debug logger (optional)
}

// IsRepoSlug reports whether s names a repository as "owner/repo": exactly
// one slash and no scheme
func IsRepoSlug(s string) bool {
	if strings.Contains(s, "://") || strings.Count(s, "/") != 1 {
		return false
	}
	owner, repo, _ := strings.Cut(s, "/")
	return owner != "" && repo != ""
}
