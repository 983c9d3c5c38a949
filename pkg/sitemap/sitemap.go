// Package sitemap builds and reads sitemaps.org XML documents for the
// catalog's public pages.
package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

// Namespace is the sitemaps.org schema namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// DefaultHost is the public site origin.
const DefaultHost = "https://www.trackmcp.com"

// ErrEmpty means a sitemap held no locations.
var ErrEmpty = errors.New("sitemap has no urls")

// ChangeFreq is a sitemap change frequency hint.
type ChangeFreq string

// Change frequencies used by the catalog.
const (
	Daily  ChangeFreq = "daily"
	Weekly ChangeFreq = "weekly"
)

// Priority is a sitemap priority in [0, 1], written with one decimal.
type Priority float64

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(p), 'f', 1, 64)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(b []byte) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return fmt.Errorf("parse priority: %w", err)
	}
	*p = Priority(f)
	return nil
}

// URL is one <url> entry.
type URL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   Priority   `xml:"priority,omitempty"`
}

// URLSet is a sitemap document.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	URLs    []URL    `xml:"url"`
}

// Build lists the home, new, category index, every category and every tool
// page under host.
func Build(host string, tools []catalog.Tool, categories []catalog.CategoryCount, now time.Time) *URLSet {
	host = strings.TrimSuffix(host, "/")
	if host == "" {
		host = DefaultHost
	}
	stamp := formatTime(now)

	set := &URLSet{Xmlns: Namespace, URLs: make([]URL, 0, 3+len(categories)+len(tools))}
	set.URLs = append(set.URLs,
		URL{Loc: host + "/", LastMod: stamp, ChangeFreq: Daily, Priority: 1.0},
		URL{Loc: host + "/new", LastMod: stamp, ChangeFreq: Daily, Priority: 0.9},
		URL{Loc: host + "/category", LastMod: stamp, ChangeFreq: Weekly, Priority: 0.7},
	)
	for _, c := range categories {
		slug := c.Slug
		if slug == "" {
			slug = catalog.CategorySlug(c.Name)
		}
		set.URLs = append(set.URLs, URL{
			Loc:        host + "/category/" + url.PathEscape(slug),
			ChangeFreq: Weekly,
			Priority:   0.7,
		})
	}
	for _, t := range tools {
		set.URLs = append(set.URLs, URL{
			Loc:        host + "/tool/" + url.PathEscape(t.RepoName),
			LastMod:    formatTime(t.LastUpdated),
			ChangeFreq: Weekly,
			Priority:   0.8,
		})
	}
	return set
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Write encodes set as an indented XML document.
func Write(w io.Writer, set *URLSet) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	return nil
}

// Marshal returns the encoded document.
func Marshal(set *URLSet) ([]byte, error) {
	var b strings.Builder
	if err := Write(&b, set); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// Parse returns every <loc> in a sitemap document, in order.
func Parse(r io.Reader) ([]string, error) {
	var set URLSet
	if err := xml.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode sitemap: %w", err)
	}
	locs := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			locs = append(locs, loc)
		}
	}
	if len(locs) == 0 {
		return nil, ErrEmpty
	}
	return locs, nil
}

// Fetch downloads and parses a remote sitemap.
func Fetch(ctx context.Context, client *http.Client, sitemapURL string) ([]string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sitemap %s: status %d", sitemapURL, resp.StatusCode)
	}
	return Parse(resp.Body)
}
