package fetch

import (
	"fmt"
	"log"
	"time"
)

const (
	// DefaultRedirectLimit is the number of redirects followed before giving up
	DefaultRedirectLimit = 50
	// DefaultPollInterval is the period between two progress samples
	DefaultPollInterval = 20 * time.Millisecond
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "bpkg/1.0"
	// DefaultHeaderTimeout bounds the wait for response headers
	DefaultHeaderTimeout = 30 * time.Second
)

// Config configures a download client
type Config struct {
	RedirectLimit int           // Redirects followed per request
	PollInterval  time.Duration // Progress sampling period
	UserAgent     string        // User-Agent header
	Logger        *log.Logger   // Debug logger (optional)
	Debug         bool          // Enable debug logging
}

// Reporter receives progress samples in kilobytes. ui.Handle implements it.
type Reporter interface {
	Progress(current, total uint64, label string)
}

// StatusError is returned when the server answers with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}
