// pkg/github/client.go
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/arc-language/bpkg/pkg/fetch"
)

// Client resolves GitHub releases
type Client struct {
	fetcher *fetch.Client
	api     string
	token   string
	logger  *log.Logger
}

// NewClient creates a release client
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient(&fetch.Config{Logger: logger})
	}

	api := strings.TrimRight(cfg.API, "/")
	if api == "" {
		api = DefaultAPI
	}

	return &Client{
		fetcher: fetcher,
		api:     api,
		token:   cfg.Token,
		logger:  logger,
	}
}

// GetJSON fetches url and unmarshals the JSON response into v. Anything but
// 200 OK is an error.
func (c *Client) GetJSON(ctx context.Context, url string, v interface{}) error {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if c.token != "" {
		headers["Authorization"] = "Bearer " + c.token
	}

	resp, err := c.fetcher.Get(ctx, url, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &fetch.StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// LatestRelease returns the latest published release of repo ("owner/repo")
func (c *Client) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.api, repo)
	c.logger.Printf("resolving latest release of %s", repo)

	var raw struct {
		TagName *string  `json:"tag_name"`
		Assets  *[]Asset `json:"assets"`
	}
	if err := c.GetJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("resolving %s: %w", repo, err)
	}

	if raw.TagName == nil || *raw.TagName == "" {
		return nil, fmt.Errorf("%w (%s)", ErrMissingTag, url)
	}
	if raw.Assets == nil {
		return nil, fmt.Errorf("%w (%s)", ErrNoAssets, url)
	}

	return &Release{TagName: *raw.TagName, Assets: *raw.Assets}, nil
}
