package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/sitemap"
)

// Crawlers refused the whole site.
//
//nolint:gochecknoglobals // Read-only lookup table.
var blockedBots = []string{"MJ12bot", "AhrefsBot", "SemrushBot", "DotBot"}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tools, err := s.opts.Catalog.All(ctx, catalog.Filter{Sort: catalog.SortStars})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cats, err := s.opts.Catalog.Categories(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	body, err := sitemap.Marshal(sitemap.Build(s.host(), tools, cats, s.now()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(body)
}

// Robots writes a robots.txt that keeps crawlers out of the API and static
// assets and points them at the sitemap.
func Robots(w io.Writer, host string) error {
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\nDisallow: /api/\nDisallow: /static/\n")
	for _, bot := range blockedBots {
		fmt.Fprintf(&b, "\nUser-agent: %s\nDisallow: /\n", bot)
	}
	fmt.Fprintf(&b, "\nSitemap: %s/sitemap.xml\n", strings.TrimSuffix(host, "/"))
	_, err := io.WriteString(w, b.String())
	return err
}

func (s *Server) handleRobots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_ = Robots(w, s.host())
}

func (s *Server) handleIndexNowKey(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, s.opts.IndexNowKey)
}

func (s *Server) host() string {
	if s.opts.Host == "" {
		return sitemap.DefaultHost
	}
	return s.opts.Host
}
