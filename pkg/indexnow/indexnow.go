// Package indexnow submits changed URLs to search engines through the
// IndexNow protocol.
package indexnow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Defaults.
const (
	DefaultEndpoint  = "https://api.indexnow.org/IndexNow"
	DefaultBatchSize = 5000
	MaxBatchSize     = 10000
	DefaultPause     = time.Second
)

// Sentinel errors.
var (
	ErrNoKey  = errors.New("indexnow key is not configured")
	ErrNoHost = errors.New("indexnow host is not configured")
)

// Options configures a Client.
type Options struct {
	Endpoint string
	// Host is the site host name, without scheme.
	Host string
	Key  string
	// KeyLocation defaults to https://{Host}/{Key}.txt.
	KeyLocation string
	BatchSize   int
	// Pause is the delay between batches.
	Pause      time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client submits URL lists.
type Client struct {
	opts Options
}

// New returns a Client, filling defaults.
func New(opts Options) (*Client, error) {
	if opts.Key == "" {
		return nil, ErrNoKey
	}
	opts.Host = hostOnly(opts.Host)
	if opts.Host == "" {
		return nil, ErrNoHost
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.KeyLocation == "" {
		opts.KeyLocation = "https://" + opts.Host + "/" + opts.Key + ".txt"
	}
	if opts.BatchSize <= 0 || opts.BatchSize > MaxBatchSize {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Pause < 0 {
		opts.Pause = 0
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Client{opts: opts}, nil
}

func hostOnly(h string) string {
	h = strings.TrimSpace(h)
	if u, err := url.Parse(h); err == nil && u.Host != "" {
		return u.Host
	}
	return strings.TrimSuffix(h, "/")
}

type payload struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation"`
	URLList     []string `json:"urlList"`
}

// BatchError is a rejected batch.
type BatchError struct {
	Batch  int
	Status int
	Err    error
}

func (e *BatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("indexnow batch %d: %v", e.Batch, e.Err)
	}
	return fmt.Sprintf("indexnow batch %d: status %d", e.Batch, e.Status)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Result counts submitted batches.
type Result struct {
	URLs       int
	Batches    int
	Successful int
}

// Submit posts urls in batches. Every batch is attempted; failures are
// joined into the returned error.
func (c *Client) Submit(ctx context.Context, urls []string) (*Result, error) {
	res := &Result{URLs: len(urls)}
	if len(urls) == 0 {
		return res, nil
	}

	var errs []error
	for start, n := 0, 1; start < len(urls); start, n = start+c.opts.BatchSize, n+1 {
		if n > 1 && c.opts.Pause > 0 {
			if err := sleep(ctx, c.opts.Pause); err != nil {
				errs = append(errs, err)
				break
			}
		}
		batch := urls[start:min(start+c.opts.BatchSize, len(urls))]
		res.Batches++

		if err := c.post(ctx, n, batch); err != nil {
			c.opts.Logger.Warn("indexnow batch failed", "batch", n, "urls", len(batch), "error", err)
			errs = append(errs, err)
			continue
		}
		res.Successful++
		c.opts.Logger.Info("indexnow batch submitted", "batch", n, "urls", len(batch))
	}
	return res, errors.Join(errs...)
}

func (c *Client) post(ctx context.Context, n int, batch []string) error {
	body, err := json.Marshal(payload{
		Host:        c.opts.Host,
		Key:         c.opts.Key,
		KeyLocation: c.opts.KeyLocation,
		URLList:     batch,
	})
	if err != nil {
		return &BatchError{Batch: n, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &BatchError{Batch: n, Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return &BatchError{Batch: n, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return &BatchError{Batch: n, Status: resp.StatusCode}
	}
	return nil
}

// KeyFile returns the path and body of the ownership file the site serves.
func (c *Client) KeyFile() (path, body string) {
	return "/" + c.opts.Key + ".txt", c.opts.Key
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
