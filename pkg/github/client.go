package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Defaults for Options.
const (
	DefaultBaseURL    = "https://api.github.com"
	DefaultUserAgent  = "trackmcp"
	DefaultCacheTTL   = 5 * time.Minute
	DefaultCacheSize  = 1000
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
	DefaultTimeout    = 15 * time.Second
)

// Media types.
const (
	mediaJSON = "application/vnd.github.v3+json"
	mediaRaw  = "application/vnd.github.v3.raw"
)

// maxBodySize bounds response bodies. READMEs above this are truncated by
// the reader and fail to decode or render partially.
const maxBodySize = 8 << 20

// Options configures a Client. Zero fields take the Default values.
type Options struct {
	BaseURL    string
	Token      string
	UserAgent  string
	HTTPClient *http.Client
	CacheTTL   time.Duration
	CacheSize  int
	MaxRetries int
	// RetryDelay is multiplied by the attempt number between retries.
	RetryDelay time.Duration
	Logger     *log.Logger
}

// Client is a caching GitHub REST client.
//
// Responses are cached for CacheTTL. Expired entries are revalidated with
// If-None-Match. Server errors are retried with linear backoff; when every
// attempt fails, or the API refuses with a rate limit, an expired entry is
// served if one exists.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	http       *http.Client
	ttl        time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *log.Logger
	cache      *cache
	now        func() time.Time

	rateMu sync.Mutex
	rate   RateLimit
}

// NewClient returns a Client.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		token:      opts.Token,
		userAgent:  opts.UserAgent,
		http:       opts.HTTPClient,
		ttl:        opts.CacheTTL,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger,
		now:        time.Now,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: DefaultTimeout}
	}
	if c.ttl <= 0 {
		c.ttl = DefaultCacheTTL
	}
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.retryDelay <= 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	c.cache = newCache(size)
	return c
}

// Authenticated reports whether requests carry a token.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// Repository fetches repository metadata.
func (c *Client) Repository(ctx context.Context, owner, repo string) (*Repository, error) {
	body, err := c.get(ctx, "/repos/"+url.PathEscape(owner)+"/"+url.PathEscape(repo), mediaJSON)
	if err != nil {
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, repo, err)
	}
	var r Repository
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode repository %s/%s: %w", owner, repo, err)
	}
	return &r, nil
}

// Metadata fetches repository metadata by web URL.
func (c *Client) Metadata(ctx context.Context, repoURL string) (*Repository, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	return c.Repository(ctx, owner, repo)
}

// Readme fetches the raw README of a repository. A repository without one
// yields ErrNotFound.
func (c *Client) Readme(ctx context.Context, owner, repo string) (string, error) {
	body, err := c.get(ctx, "/repos/"+url.PathEscape(owner)+"/"+url.PathEscape(repo)+"/readme", mediaRaw)
	if err != nil {
		return "", fmt.Errorf("get readme %s/%s: %w", owner, repo, err)
	}
	return string(body), nil
}

// User fetches a user or organization profile.
func (c *Client) User(ctx context.Context, login string) (*User, error) {
	body, err := c.get(ctx, "/users/"+url.PathEscape(login), mediaJSON)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", login, err)
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", login, err)
	}
	return &u, nil
}

// AvatarURL returns the avatar of a repository owner, falling back to the
// github.com redirect when the profile cannot be fetched.
func (c *Client) AvatarURL(ctx context.Context, login string) string {
	u, err := c.User(ctx, login)
	if err != nil || u.AvatarURL == "" {
		return "https://github.com/" + url.PathEscape(login) + ".png"
	}
	return u.AvatarURL
}

// RateLimit returns the last observed quota.
func (c *Client) RateLimit() RateLimit {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	return c.rate
}

// CacheLen returns the number of cached responses.
func (c *Client) CacheLen() int {
	return c.cache.len()
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	c.cache.clear()
}

func (c *Client) get(ctx context.Context, path, accept string) ([]byte, error) {
	endpoint := c.baseURL + path
	key := accept + " " + endpoint

	cached, hasCached := c.cache.get(key)
	if hasCached && c.now().Sub(cached.storedAt) < c.ttl {
		return cached.body, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		etag := ""
		if hasCached {
			etag = cached.etag
		}

		res, err := c.fetch(ctx, endpoint, accept, etag)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			break
		}

		switch {
		case res.status == http.StatusNotModified && hasCached:
			cached.storedAt = c.now()
			c.cache.add(key, cached)
			return cached.body, nil

		case res.status == http.StatusOK:
			c.cache.add(key, entry{body: res.body, etag: res.etag, storedAt: c.now()})
			return res.body, nil

		case res.status == http.StatusNotFound:
			return nil, ErrNotFound

		case res.status == http.StatusForbidden || res.status == http.StatusTooManyRequests:
			lastErr = c.refusal(res.status, endpoint)

		case res.status >= http.StatusInternalServerError:
			lastErr = &StatusError{Code: res.status, URL: endpoint}
			if attempt < c.maxRetries {
				c.logger.Debug("retrying github request", "url", endpoint, "status", res.status, "attempt", attempt)
				if err := sleep(ctx, time.Duration(attempt)*c.retryDelay); err != nil {
					return nil, err
				}
				continue
			}

		default:
			return nil, &StatusError{Code: res.status, URL: endpoint}
		}
		break
	}

	if hasCached {
		c.logger.Warn("serving stale github response", "url", endpoint, "error", lastErr)
		return cached.body, nil
	}
	return nil, lastErr
}

func (c *Client) refusal(status int, endpoint string) error {
	rate := c.RateLimit()
	if status == http.StatusTooManyRequests || (rate.Known && rate.Remaining == 0) {
		return fmt.Errorf("%w (resets %s)", ErrRateLimited, rate.Reset.Format(time.RFC3339))
	}
	return &StatusError{Code: status, URL: endpoint}
}

type response struct {
	status int
	etag   string
	body   []byte
}

func (c *Client) fetch(ctx context.Context, endpoint, accept, etag string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.trackRate(resp.Header)

	res := &response{status: resp.StatusCode, etag: resp.Header.Get("ETag")}
	if resp.StatusCode == http.StatusOK {
		res.body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", endpoint, err)
		}
	} else {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	}
	return res, nil
}

func (c *Client) trackRate(h http.Header) {
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	var reset time.Time
	if secs, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		reset = time.Unix(secs, 0)
	}

	c.rateMu.Lock()
	c.rate = RateLimit{Known: true, Remaining: remaining, Reset: reset}
	c.rateMu.Unlock()

	if remaining < 10 {
		c.logger.Warn("github rate limit low", "remaining", remaining, "reset", reset)
	}
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

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
