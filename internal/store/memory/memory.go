// Package memory is an in-process catalog.Store used by tests and by
// `trackmcp serve --demo`.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

var _ catalog.Store = (*Store)(nil)

// Store keeps tools in a map guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	tools  map[int64]*catalog.Tool
	nextID int64
	now    func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{tools: make(map[int64]*catalog.Tool), nextID: 1, now: time.Now}
}

// Seed inserts tools, ignoring duplicates.
func Seed(ctx context.Context, s catalog.Store, tools []catalog.Tool) error {
	for i := range tools {
		t := tools[i]
		if err := s.InsertTool(ctx, &t); err != nil && !isDuplicate(err) {
			return err
		}
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, catalog.ErrDuplicate)
}

func clone(t *catalog.Tool) catalog.Tool {
	c := *t
	c.Topics = append([]string{}, t.Topics...)
	return c
}

func (s *Store) ListTools(_ context.Context, f catalog.Filter, offset, limit int) ([]catalog.Tool, error) {
	if limit <= 0 || limit > catalog.MaxPageSize {
		limit = catalog.MaxPageSize
	}

	s.mu.RLock()
	matched := make([]*catalog.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		if f.Matches(t) {
			matched = append(matched, t)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return f.Sort.Less(matched[i], matched[j]) })

	if offset >= len(matched) {
		return []catalog.Tool{}, nil
	}
	end := min(offset+limit, len(matched))

	out := make([]catalog.Tool, 0, end-offset)
	for _, t := range matched[offset:end] {
		out = append(out, clone(t))
	}
	return out, nil
}

func (s *Store) CountTools(_ context.Context, f catalog.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.tools {
		if f.Matches(t) {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetTool(_ context.Context, name string) (*catalog.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tools {
		if strings.EqualFold(t.RepoName, name) {
			c := clone(t)
			return &c, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *Store) GetToolByID(_ context.Context, id int64) (*catalog.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tools[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	c := clone(t)
	return &c, nil
}

func (s *Store) InsertTool(_ context.Context, t *catalog.Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tools {
		if strings.EqualFold(existing.RepoName, t.RepoName) {
			return catalog.ErrDuplicate
		}
	}

	t.ID = s.nextID
	s.nextID++
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	if t.LastUpdated.IsZero() {
		t.LastUpdated = t.CreatedAt
	}
	if t.Status == "" {
		t.Status = catalog.StatusPending
	}
	c := clone(t)
	s.tools[t.ID] = &c
	return nil
}

func (s *Store) update(id int64, fn func(t *catalog.Tool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tools[id]
	if !ok {
		return catalog.ErrNotFound
	}
	fn(t)
	return nil
}

func (s *Store) UpdateStatus(_ context.Context, id int64, status catalog.Status) error {
	return s.update(id, func(t *catalog.Tool) { t.Status = status })
}

func (s *Store) UpdateMetadata(_ context.Context, id int64, m catalog.Metadata) error {
	return s.update(id, func(t *catalog.Tool) {
		t.Description = m.Description
		t.Stars = m.Stars
		t.Language = m.Language
		t.Topics = append([]string(nil), m.Topics...)
		if m.DefaultBranch != "" {
			t.DefaultBranch = m.DefaultBranch
		}
		if m.OwnerAvatar != "" {
			t.OwnerAvatar = m.OwnerAvatar
		}
		t.LastUpdated = m.LastUpdated
	})
}

func (s *Store) UpdateCategory(_ context.Context, id int64, category string) error {
	return s.update(id, func(t *catalog.Tool) { t.Category = category })
}

func (s *Store) Categories(_ context.Context, statuses []catalog.Status) ([]catalog.CategoryCount, error) {
	f := catalog.Filter{Statuses: statuses}

	s.mu.RLock()
	counts := make(map[string]int)
	for _, t := range s.tools {
		if t.Category != "" && f.Matches(t) {
			counts[t.Category]++
		}
	}
	s.mu.RUnlock()

	out := make([]catalog.CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, catalog.CategoryCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) Close() error {
	return nil
}
