package github

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		BaseURL:    srv.URL,
		Token:      "secret",
		RetryDelay: time.Millisecond,
		Logger:     log.New(io.Discard),
	})
	return c, srv
}

func TestClientRepository(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widget", r.URL.Path)
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		assert.Equal(t, mediaJSON, r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("X-RateLimit-Remaining", "4999")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		_, _ = io.WriteString(w, `{"name":"widget","full_name":"acme/widget","stargazers_count":42,"default_branch":"trunk","topics":["mcp"],"owner":{"login":"acme","avatar_url":"https://a/acme.png"}}`)
	}))

	repo, err := c.Repository(context.Background(), "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, "acme/widget", repo.FullName)
	assert.Equal(t, 42, repo.Stars)
	assert.Equal(t, "trunk", repo.DefaultBranch)
	assert.Equal(t, []string{"mcp"}, repo.Topics)
	assert.Equal(t, "acme", repo.Owner.Login)

	rate := c.RateLimit()
	assert.True(t, rate.Known)
	assert.Equal(t, 4999, rate.Remaining)
	assert.Equal(t, int64(1700000000), rate.Reset.Unix())
}

func TestClientReadme(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widget/readme":
			assert.Equal(t, mediaRaw, r.Header.Get("Accept"))
			_, _ = io.WriteString(w, "# Widget\n")
		default:
			http.NotFound(w, r)
		}
	}))

	body, err := c.Readme(context.Background(), "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, "# Widget\n", body)

	_, err = c.Readme(context.Background(), "acme", "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))
}

func TestClientCachesWithinTTL(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"login":"acme","avatar_url":"https://a/acme.png"}`)
	}))

	for range 3 {
		u, err := c.User(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, "https://a/acme.png", u.AvatarURL)
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, c.CacheLen())

	c.ClearCache()
	_, err := c.User(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientRevalidatesWithETag(t *testing.T) {
	t.Parallel()

	var hits, notModified atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = io.WriteString(w, "# Cached\n")
	}))

	now := time.Now()
	c.now = func() time.Time { return now }

	body, err := c.Readme(context.Background(), "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, "# Cached\n", body)

	now = now.Add(DefaultCacheTTL + time.Second)

	body, err = c.Readme(context.Background(), "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, "# Cached\n", body)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, int32(1), notModified.Load())

	// The 304 refreshed the entry, so this is served from cache.
	_, err = c.Readme(context.Background(), "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))

	body, err := c.Readme(context.Background(), "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.Readme(context.Background(), "acme", "widget")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, int32(DefaultMaxRetries), hits.Load())
}

func TestClientServesStaleOnRateLimit(t *testing.T) {
	t.Parallel()

	var limited atomic.Bool
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if limited.Load() {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, "fresh")
	}))

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Readme(context.Background(), "acme", "widget")
	require.NoError(t, err)

	limited.Store(true)
	now = now.Add(time.Hour)

	body, err := c.Readme(context.Background(), "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, "fresh", body)

	_, err = c.Readme(context.Background(), "acme", "other")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestClientTooManyRequests(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.Repository(context.Background(), "acme", "widget")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestClientUnexpectedStatus(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.Repository(context.Background(), "acme", "widget")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
}

func TestClientAvatarFallback(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.NotFoundHandler())

	assert.Equal(t, "https://github.com/acme.png", c.AvatarURL(context.Background(), "acme"))
}

func TestClientMetadata(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widget", r.URL.Path)
		_, _ = io.WriteString(w, `{"full_name":"acme/widget"}`)
	}))

	repo, err := c.Metadata(context.Background(), "https://github.com/acme/widget.git")
	require.NoError(t, err)
	assert.Equal(t, "acme/widget", repo.FullName)

	_, err = c.Metadata(context.Background(), "https://gitlab.com/acme/widget")
	require.ErrorIs(t, err, ErrInvalidRepoURL)
}

func TestClientContextCanceled(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	c.retryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Readme(ctx, "acme", "widget")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClientDefaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Options{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultUserAgent, c.userAgent)
	assert.Equal(t, DefaultCacheTTL, c.ttl)
	assert.Equal(t, DefaultMaxRetries, c.maxRetries)
	assert.False(t, c.Authenticated())
	assert.False(t, c.RateLimit().Known)
}
