package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type sample struct {
	current, total uint64
	label          string
}

type recordingReporter struct {
	mu      sync.Mutex
	samples []sample
}

func (r *recordingReporter) Progress(current, total uint64, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, sample{current, total, label})
}

func (r *recordingReporter) all() []sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sample(nil), r.samples...)
}

func checkSamples(t *testing.T, samples []sample, wantTotal uint64, url string) {
	t.Helper()
	if len(samples) == 0 {
		t.Fatal("no progress reported")
	}
	for i, s := range samples {
		if s.label != url {
			t.Errorf("sample %d label = %q; want %q", i, s.label, url)
		}
		if i > 0 && s.current < samples[i-1].current {
			t.Errorf("progress went backwards: %d after %d", s.current, samples[i-1].current)
		}
	}
	last := samples[len(samples)-1]
	if last.current != last.total || last.total != wantTotal {
		t.Errorf("last sample = %d/%d; want %d/%d", last.current, last.total, wantTotal, wantTotal)
	}
}

func TestDownloadKnownLength(t *testing.T) {
	payload := bytes.Repeat([]byte("bpkg"), 25000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept-Encoding"); got != "identity" {
			t.Errorf("Accept-Encoding = %q; want identity", got)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	defer srv.Close()

	var sink bytes.Buffer
	rep := &recordingReporter{}
	n, err := NewClient(nil).Download(context.Background(), srv.URL, &sink, rep)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("Download = %d bytes; want %d", n, len(payload))
	}
	if !bytes.Equal(sink.Bytes(), payload) {
		t.Error("sink content differs from payload")
	}

	checkSamples(t, rep.all(), uint64(len(payload))/1000, srv.URL)
}

func TestDownloadUnknownLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 10; i++ {
			fmt.Fprint(w, strings.Repeat("x", 1000))
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	var sink bytes.Buffer
	rep := &recordingReporter{}
	n, err := NewClient(nil).Download(context.Background(), srv.URL, &sink, rep)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n != 10000 {
		t.Errorf("Download = %d bytes; want 10000", n)
	}

	checkSamples(t, rep.all(), 10, srv.URL)
}

func TestDownloadEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "0")
	}))
	defer srv.Close()

	rep := &recordingReporter{}
	n, err := NewClient(nil).Download(context.Background(), srv.URL, &bytes.Buffer{}, rep)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n != 0 {
		t.Errorf("Download = %d bytes; want 0", n)
	}
	checkSamples(t, rep.all(), 0, srv.URL)
}

func TestDownloadStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewClient(nil).Download(context.Background(), srv.URL, &bytes.Buffer{}, nil)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Download error = %v; want *StatusError", err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d; want 404", se.StatusCode)
	}
}

func TestDownloadRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/hop/", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/hop/"))
		if n == 0 {
			w.Write([]byte("arrived"))
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", n-1), http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(&Config{RedirectLimit: 3})

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"within_limit", "/hop/3", false},
		{"over_limit", "/hop/4", true},
		{"loop", "/loop", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sink bytes.Buffer
			_, err := client.Download(context.Background(), srv.URL+tt.path, &sink, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Download error = %v; wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && sink.String() != "arrived" {
				t.Errorf("body = %q; want arrived", sink.String())
			}
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestDownloadSinkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	_, err := NewClient(nil).Download(context.Background(), srv.URL, failingWriter{}, &recordingReporter{})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Download error = %v; want sink failure", err)
	}
}
