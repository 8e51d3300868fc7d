package fetch

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// countingReader counts the bytes read so far; the poller reads the count
// concurrently with the copy.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// Download streams url into sink while reporting progress as
// (transferred/1000, total/1000, url). It returns the number of bytes
// copied. The sink is not closed.
func (c *Client) Download(ctx context.Context, url string, sink io.Writer, reporter Reporter) (int64, error) {
	resp, err := c.Get(ctx, url, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body := &countingReader{r: resp.Body}
	done := make(chan struct{})

	var g errgroup.Group
	var written int64

	g.Go(func() error {
		defer close(done)
		n, err := io.Copy(sink, body)
		written = n
		if err != nil {
			return fmt.Errorf("downloading %s: %w", url, err)
		}
		return nil
	})

	if reporter != nil {
		g.Go(func() error {
			c.poll(body, resp.ContentLength, url, reporter, done)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return written, err
	}

	c.logger.Printf("downloaded %d bytes from %s", written, url)
	return written, nil
}

// poll samples the byte count every interval until the known total is
// reached or the copy ends, in which case one last sample is reported.
func (c *Client) poll(body *countingReader, total int64, url string, reporter Reporter, done <-chan struct{}) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	report := func() int64 {
		current := body.n.Load()
		t := total
		if t < 0 {
			t = current
		}
		reporter.Progress(uint64(current)/1000, uint64(t)/1000, url)
		return current
	}

	for {
		select {
		case <-done:
			report()
			return
		case <-ticker.C:
			if current := report(); total >= 0 && current >= total {
				return
			}
		}
	}
}
