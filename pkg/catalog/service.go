package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/derekparker/trie"
)

// Query limits.
const (
	DefaultSearchLimit   = 100
	DefaultTrendingLimit = 20
	DefaultTopLimit      = 100
	CategoryPageSize     = 50
	LookupLimit          = 10
	DefaultSuggestLimit  = 10
)

// HiddenRepos are list repositories that are catalogued but never shown.
//
//nolint:gochecknoglobals // Read-only lookup table.
var HiddenRepos = []string{"awesome-mcp-servers"}

// reservedNames are paths that look like tools but are repository files.
//
//nolint:gochecknoglobals // Read-only lookup table.
var reservedNames = map[string]bool{"license": true, "contributing": true, "readme": true}

// Options configures a Service.
type Options struct {
	Logger *log.Logger
	// Hidden overrides HiddenRepos when non-nil.
	Hidden []string
}

// Service runs catalog queries over a Store.
type Service struct {
	store  Store
	logger *log.Logger
	hidden []string

	mu    sync.Mutex
	names *trie.Trie
}

// NewService returns a Service over store.
func NewService(store Store, opts Options) *Service {
	s := &Service{store: store, logger: opts.Logger, hidden: opts.Hidden}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.hidden == nil {
		s.hidden = HiddenRepos
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// visible narrows f to publicly listed tools.
func (s *Service) visible(f Filter) Filter {
	if len(f.Statuses) == 0 {
		f.Statuses = VisibleStatuses
	}
	f.ExcludeNames = append(append([]string(nil), f.ExcludeNames...), s.hidden...)
	return f
}

// collect pages through the store MaxPageSize rows at a time until a short
// page or max rows. A max of zero means no cap.
func (s *Service) collect(ctx context.Context, f Filter, limit int) ([]Tool, error) {
	var all []Tool
	for offset := 0; ; offset += MaxPageSize {
		batch, err := s.store.ListTools(ctx, f, offset, MaxPageSize)
		if err != nil {
			return nil, fmt.Errorf("list tools at offset %d: %w", offset, err)
		}
		all = append(all, batch...)
		if len(batch) < MaxPageSize || (limit > 0 && len(all) >= limit) {
			break
		}
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// All returns every visible tool matching f.
func (s *Service) All(ctx context.Context, f Filter) ([]Tool, error) {
	return s.collect(ctx, s.visible(f), 0)
}

// Page is one page of a listing.
type Page struct {
	Tools    []Tool `json:"tools"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Pages    int    `json:"pages"`
}

// Page returns page number page (1-based) of visible tools matching f.
func (s *Service) Page(ctx context.Context, f Filter, page, pageSize int) (*Page, error) {
	f = s.visible(f)
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = CategoryPageSize
	}
	if page < 1 {
		page = 1
	}

	total, err := s.store.CountTools(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count tools: %w", err)
	}
	tools, err := s.store.ListTools(ctx, f, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	return &Page{
		Tools:    tools,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    (total + pageSize - 1) / pageSize,
	}, nil
}

// Slice returns visible tools by offset and limit, limit clamped to
// MaxPageSize.
func (s *Service) Slice(ctx context.Context, f Filter, offset, limit int) ([]Tool, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultSearchLimit
	}
	tools, err := s.store.ListTools(ctx, s.visible(f), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return tools, nil
}

// Search matches query against names, descriptions and topics, ordered by
// stars. When nothing matches, visible names are ranked by fuzzy score.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Tool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > DefaultSearchLimit {
		limit = DefaultSearchLimit
	}

	tools, err := s.collect(ctx, s.visible(Filter{Query: query}), limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if len(tools) > 0 {
		return tools, nil
	}

	candidates, err := s.All(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	ranked := rankFuzzy(query, candidates, limit)
	s.logger.Debug("fuzzy search fallback", "query", query, "matches", len(ranked))
	return ranked, nil
}

// Trending returns the n most starred visible tools.
func (s *Service) Trending(ctx context.Context, n int) ([]Tool, error) {
	if n <= 0 {
		n = DefaultTrendingLimit
	}
	return s.collect(ctx, s.visible(Filter{Sort: SortStars}), n)
}

// Recent returns the n most recently updated visible tools.
func (s *Service) Recent(ctx context.Context, n int) ([]Tool, error) {
	if n <= 0 {
		n = DefaultSearchLimit
	}
	return s.collect(ctx, s.visible(Filter{Sort: SortRecent}), n)
}

// Newest returns the n most recently added visible tools.
func (s *Service) Newest(ctx context.Context, n int) ([]Tool, error) {
	if n <= 0 {
		n = DefaultSearchLimit
	}
	return s.collect(ctx, s.visible(Filter{Sort: SortNewest}), n)
}

// TopByCategory returns the n most starred visible tools in a category.
func (s *Service) TopByCategory(ctx context.Context, category string, n int) ([]Tool, error) {
	if n <= 0 {
		n = DefaultTopLimit
	}
	return s.collect(ctx, s.visible(Filter{Category: category}), n)
}

// ByCategory returns one page of a category addressed by slug.
func (s *Service) ByCategory(ctx context.Context, slug string, page int) (*CategoryCount, *Page, error) {
	cat, err := s.CategoryBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.Page(ctx, Filter{Category: cat.Name}, page, CategoryPageSize)
	if err != nil {
		return nil, nil, err
	}
	return cat, p, nil
}

// Similar returns up to n other tools from the category of t.
func (s *Service) Similar(ctx context.Context, t *Tool, n int) ([]Tool, error) {
	if t.Category == "" || n <= 0 {
		return nil, nil
	}
	tools, err := s.collect(ctx, s.visible(Filter{Category: t.Category}), n+1)
	if err != nil {
		return nil, fmt.Errorf("similar to %s: %w", t.RepoName, err)
	}
	out := make([]Tool, 0, n)
	for _, other := range tools {
		if other.ID != t.ID && len(out) < n {
			out = append(out, other)
		}
	}
	return out, nil
}

// Categories returns visible categories by descending count.
func (s *Service) Categories(ctx context.Context) ([]CategoryCount, error) {
	cats, err := s.store.Categories(ctx, VisibleStatuses)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	for i := range cats {
		cats[i].Slug = CategorySlug(cats[i].Name)
	}
	return cats, nil
}

// CategoryBySlug finds a category by its URL segment.
func (s *Service) CategoryBySlug(ctx context.Context, slug string) (*CategoryCount, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	slug = strings.ToLower(slug)
	for i := range cats {
		if cats[i].Slug == slug {
			return &cats[i], nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", slug, ErrNotFound)
}

// GetTool finds a visible tool by name. Names that are repository files
// (README, LICENSE, *.md) are never tools.
func (s *Service) GetTool(ctx context.Context, name string) (*Tool, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" || reservedNames[lower] || strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".txt") {
		return nil, fmt.Errorf("tool %q: %w", name, ErrNotFound)
	}
	for _, hidden := range s.hidden {
		if strings.EqualFold(hidden, lower) {
			return nil, fmt.Errorf("tool %q: %w", name, ErrNotFound)
		}
	}

	t, err := s.store.GetTool(ctx, lower)
	if err != nil {
		return nil, fmt.Errorf("get tool %q: %w", name, err)
	}
	if !containsStatus(VisibleStatuses, t.Status) {
		return nil, fmt.Errorf("tool %q: %w", name, ErrNotFound)
	}
	return t, nil
}

// LookupResult is the set of tools suggested for a site.
type LookupResult struct {
	SiteName string `json:"siteName"`
	Category string `json:"category"`
	MCPs     []Tool `json:"mcps"`
}

// Lookup suggests the top tools of the category mapped to site.
func (s *Service) Lookup(ctx context.Context, site string) (*LookupResult, error) {
	res := &LookupResult{SiteName: site, MCPs: []Tool{}}
	if site == "" {
		return res, nil
	}
	res.Category = SiteCategory(site)
	tools, err := s.TopByCategory(ctx, res.Category, LookupLimit)
	if err != nil {
		return res, err
	}
	res.MCPs = tools
	return res, nil
}

// Stats summarizes the visible catalog.
type Stats struct {
	Tools      int `json:"tools"`
	Stars      int `json:"stars"`
	Categories int `json:"categories"`
}

// Stats counts visible tools, their stars and categories.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	tools, err := s.All(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{Tools: len(tools), Categories: len(cats)}
	for _, t := range tools {
		st.Stars += t.Stars
	}
	return st, nil
}

// Suggest returns up to n visible names starting with prefix, sorted.
func (s *Service) Suggest(ctx context.Context, prefix string, n int) ([]string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, nil
	}
	if n <= 0 {
		n = DefaultSuggestLimit
	}

	names, err := s.nameIndex(ctx)
	if err != nil {
		return nil, err
	}
	return suggest(names, prefix, n), nil
}

// nameIndex returns the trie of visible names, building it on first use.
func (s *Service) nameIndex(ctx context.Context) (*trie.Trie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.names != nil {
		return s.names, nil
	}
	tools, err := s.All(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("build name index: %w", err)
	}
	s.names = buildNameIndex(tools)
	return s.names, nil
}

// Invalidate drops derived indexes after the store changed.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.names = nil
	s.mu.Unlock()
}

// Insert adds a tool.
func (s *Service) Insert(ctx context.Context, t *Tool) error {
	if err := s.store.InsertTool(ctx, t); err != nil {
		return fmt.Errorf("insert tool %q: %w", t.RepoName, err)
	}
	s.Invalidate()
	return nil
}

// SetStatus moderates a tool.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update status of %d: %w", id, err)
	}
	s.Invalidate()
	return nil
}

// UpdateMetadata stores refreshed GitHub metadata.
func (s *Service) UpdateMetadata(ctx context.Context, id int64, m Metadata) error {
	if err := s.store.UpdateMetadata(ctx, id, m); err != nil {
		return fmt.Errorf("update metadata of %d: %w", id, err)
	}
	return nil
}

// Recategorize assigns categories to visible tools that have none or
// CategoryOthers and returns how many changed.
func (s *Service) Recategorize(ctx context.Context) (int, error) {
	tools, err := s.All(ctx, Filter{})
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, t := range tools {
		if t.Category != "" && t.Category != CategoryOthers {
			continue
		}
		c := Categorize(t.RepoName, t.Description, t.Topics)
		if c == t.Category {
			continue
		}
		if err := s.store.UpdateCategory(ctx, t.ID, c); err != nil {
			return changed, fmt.Errorf("categorize %s: %w", t.RepoName, err)
		}
		changed++
	}
	return changed, nil
}
