package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/arc-language/bpkg/pkg/fetch"
	"github.com/arc-language/bpkg/pkg/platform"
)

type fakePrompter struct {
	notices []string
	answer  int
	err     error
}

func (f *fakePrompter) Notify(text string) { f.notices = append(f.notices, text) }

func (f *fakePrompter) Notifyf(format string, args ...any) { f.Notify(fmt.Sprintf(format, args...)) }

func (f *fakePrompter) Progress(current, total uint64, label string) {}

func (f *fakePrompter) Ask(prompt string) (string, error) { return "", io.EOF }

func (f *fakePrompter) AskNumber(min, max int, prompt string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.answer < min || f.answer >= max {
		return 0, fmt.Errorf("answer %d out of range", f.answer)
	}
	return f.answer, nil
}

type seenRequest struct {
	mu   sync.Mutex
	path string
	auth string
}

func (s *seenRequest) get() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path, s.auth
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *seenRequest) {
	t.Helper()
	seen := &seenRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.mu.Lock()
		seen.path = r.URL.Path
		seen.auth = r.Header.Get("Authorization")
		seen.mu.Unlock()
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestLatestRelease(t *testing.T) {
	body := `{"tag_name":"v2.0.0","assets":[
		{"name":"tool-linux-amd64","size":1500000,"browser_download_url":"https://dl/tool-linux-amd64"},
		{"name":"tool-darwin-arm64","size":1400000,"browser_download_url":"https://dl/tool-darwin-arm64"}]}`
	srv, seen := newServer(t, http.StatusOK, body)

	c := NewClient(&Config{API: srv.URL + "/", Token: "tok"})
	rel, err := c.LatestRelease(context.Background(), "owner/tool")
	if err != nil {
		t.Fatalf("LatestRelease: %v", err)
	}

	path, auth := seen.get()
	if path != "/repos/owner/tool/releases/latest" {
		t.Errorf("path = %q", path)
	}
	if auth != "Bearer tok" {
		t.Errorf("Authorization = %q", auth)
	}
	if rel.TagName != "v2.0.0" || len(rel.Assets) != 2 {
		t.Fatalf("release = %+v", rel)
	}
	if rel.Assets[1].BrowserDownloadURL != "https://dl/tool-darwin-arm64" || rel.Assets[0].Size != 1500000 {
		t.Errorf("assets = %+v", rel.Assets)
	}
}

func TestLatestReleaseErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not_found", http.StatusNotFound, `{"message":"Not Found"}`, func(err error) bool {
			var se *fetch.StatusError
			return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
		}},
		{"accepted_is_not_ok", http.StatusAccepted, `{}`, func(err error) bool {
			var se *fetch.StatusError
			return errors.As(err, &se) && se.StatusCode == http.StatusAccepted
		}},
		{"missing_tag", http.StatusOK, `{"assets":[]}`, func(err error) bool {
			return errors.Is(err, ErrMissingTag)
		}},
		{"missing_assets", http.StatusOK, `{"tag_name":"v1"}`, func(err error) bool {
			return errors.Is(err, ErrNoAssets)
		}},
		{"malformed", http.StatusOK, `{"tag_name":`, func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "decoding")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			_, err := NewClient(&Config{API: srv.URL}).LatestRelease(context.Background(), "o/r")
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSelectAsset(t *testing.T) {
	rel := &Release{
		TagName: "v1",
		Assets: []Asset{
			{Name: "tool-darwin-arm64", Size: 2_000_000, BrowserDownloadURL: "https://dl/a"},
			{Name: "tool-linux-amd64", Size: 3_000_000, BrowserDownloadURL: "https://dl/b"},
		},
	}
	p := &fakePrompter{answer: 1}

	asset, err := SelectAsset(p, rel, &platform.Platform{OS: "linux", Arch: "amd64"})
	if err != nil {
		t.Fatalf("SelectAsset: %v", err)
	}
	if asset.BrowserDownloadURL != "https://dl/b" {
		t.Errorf("asset = %+v", asset)
	}

	marked := 0
	for _, n := range p.notices {
		if strings.Contains(n, "<- linux/amd64") {
			marked++
			if !strings.Contains(n, "tool-linux-amd64") {
				t.Errorf("wrong asset marked: %q", n)
			}
		}
	}
	if marked != 1 {
		t.Errorf("%d assets marked; want 1: %q", marked, p.notices)
	}
}

func TestSelectAssetSingleDoesNotAsk(t *testing.T) {
	rel := &Release{TagName: "v1", Assets: []Asset{{Name: "tool", BrowserDownloadURL: "https://dl/tool"}}}
	p := &fakePrompter{err: errors.New("asked")}

	asset, err := SelectAsset(p, rel, nil)
	if err != nil {
		t.Fatalf("SelectAsset: %v", err)
	}
	if asset.Name != "tool" || len(p.notices) != 2 {
		t.Errorf("asset = %+v, notices = %q", asset, p.notices)
	}
}

func TestSelectAssetEmpty(t *testing.T) {
	_, err := SelectAsset(&fakePrompter{}, &Release{TagName: "v1"}, nil)
	if !errors.Is(err, ErrNoAssets) {
		t.Fatalf("SelectAsset = %v; want ErrNoAssets", err)
	}
}

func TestIsRepoSlug(t *testing.T) {
	tests := map[string]bool{
		"owner/repo":               true,
		"owner/repo/extra":         false,
		"https://example.com/tool": false,
		"tool":                     false,
		"/repo":                    false,
		"owner/":                   false,
		"https://github.com/owner": false,
	}
	for in, want := range tests {
		if got := IsRepoSlug(in); got != want {
			t.Errorf("IsRepoSlug(%q) = %v; want %v", in, got, want)
		}
	}
}
