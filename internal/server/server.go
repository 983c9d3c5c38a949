// Package server serves the catalog website and its JSON API.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/trackmcp/internal/logging"
	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/readme"
	"github.com/yaklabco/trackmcp/pkg/refresh"
	"github.com/yaklabco/trackmcp/pkg/submit"
)

// Defaults.
const (
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	similarTools = 6
	newestTools  = 50
)

// ErrNoCatalog is returned by New when Options has no catalog.
var ErrNoCatalog = errors.New("server requires a catalog")

// Options configures a Server. Catalog is required; a nil Readme, Submitter
// or Refresher disables the features that need it.
type Options struct {
	Catalog   *catalog.Service
	Readme    *readme.Service
	Submitter *submit.Submitter
	Refresher *refresh.Refresher

	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string
	// Host is the public site URL used in the sitemap and robots.txt.
	Host string

	// AdminKey is the bearer token for admin routes. Empty disables them.
	AdminKey string
	// IndexNowKey, when set, is served as /{key}.txt.
	IndexNowKey string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Logger *log.Logger
}

// Server is the HTTP front end.
type Server struct {
	opts    Options
	logger  *log.Logger
	pages   *pageSet
	handler http.Handler
	css     []byte
	now     func() time.Time
}

// New builds a Server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Catalog == nil {
		return nil, ErrNoCatalog
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	opts.Host = strings.TrimSuffix(opts.Host, "/")
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:   opts,
		logger: logger,
		pages:  pages,
		now:    time.Now,
	}

	if opts.Readme != nil {
		var buf bytes.Buffer
		if err := opts.Readme.HTMLRenderer().WriteCSS(&buf); err != nil {
			return nil, err
		}
		s.css = buf.Bytes()
	}

	s.handler = s.withRecovery(s.withLogging(s.routes()))
	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /search", s.handleSearchPage)
	mux.HandleFunc("GET /tool/{name}", s.handleTool)
	mux.HandleFunc("GET /category", s.handleCategories)
	mux.HandleFunc("GET /category/{slug}", s.handleCategory)
	mux.HandleFunc("GET /new", s.handleNew)
	mux.HandleFunc("GET /submit-mcp", s.handleSubmitForm)
	mux.HandleFunc("POST /submit-mcp", s.handleSubmit)

	mux.HandleFunc("GET /api/search", withCORS(s.handleAPISearch))
	mux.HandleFunc("OPTIONS /api/search", preflight)
	mux.HandleFunc("GET /api/trending", s.handleAPITrending)
	mux.HandleFunc("GET /api/tools", s.handleAPITools)
	mux.HandleFunc("GET /api/top-tools-by-category", s.handleAPITopByCategory)
	mux.HandleFunc("GET /api/mcp/lookup", withCORS(s.handleAPILookup))
	mux.HandleFunc("OPTIONS /api/mcp/lookup", preflight)
	mux.HandleFunc("GET /api/suggest", s.handleAPISuggest)
	mux.HandleFunc("GET /api/stats", s.handleAPIStats)

	if s.opts.AdminKey != "" {
		mux.HandleFunc("GET /api/admin/tools", s.requireAdmin(s.handleAdminTools))
		mux.HandleFunc("POST /api/admin/tools/{id}/status", s.requireAdmin(s.handleAdminStatus))
		mux.HandleFunc("POST /api/admin/refresh", s.requireAdmin(s.handleAdminRefresh))
	}

	mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	mux.HandleFunc("GET /robots.txt", s.handleRobots)
	mux.HandleFunc("GET /static/highlight.css", s.handleHighlightCSS)
	mux.Handle("GET /static/", staticHandler())
	if s.opts.IndexNowKey != "" {
		mux.HandleFunc("GET /"+s.opts.IndexNowKey+".txt", s.handleIndexNowKey)
	}

	mux.HandleFunc("/", s.handleNotFound)
	return mux
}

// Run listens on Addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return logging.WithLogger(ctx, s.logger) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", logging.FieldAddr, ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
