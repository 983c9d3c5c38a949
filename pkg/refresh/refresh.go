// Package refresh re-fetches GitHub metadata for catalogued tools with a
// bounded worker pool and moves their last-modified date only when the
// change is meaningful.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/github"
)

// Limits and defaults.
const (
	MaxBatch         = 1000
	DefaultOlderThan = 7 * 24 * time.Hour
	maxConcurrency   = 8
)

// ErrTooMany means an explicit ID list exceeded MaxBatch.
var ErrTooMany = errors.New("too many tools in one refresh")

// Fetcher fetches repository metadata.
type Fetcher interface {
	Repository(ctx context.Context, owner, repo string) (*github.Repository, error)
}

// Options selects and paces a refresh.
type Options struct {
	// IDs refreshes exactly these tools; empty selects stale visible tools.
	IDs []int64
	// OlderThan is the staleness threshold. Zero means DefaultOlderThan.
	OlderThan time.Duration
	// Concurrency bounds in-flight fetches. Zero picks from the CPU count.
	Concurrency int
	// Limit caps the number of tools checked. Zero means MaxBatch.
	Limit int
}

// Outcome is the result for one tool.
type Outcome struct {
	ID       int64
	RepoName string
	Change   Change
	Err      error
}

// Summary aggregates a run.
type Summary struct {
	Checked   int
	Updated   int
	Freshened int
	Failed    int
	Outcomes  []Outcome
	Duration  time.Duration
}

// Refresher updates catalog metadata from GitHub.
type Refresher struct {
	catalog *catalog.Service
	fetch   Fetcher
	logger  *log.Logger
	now     func() time.Time
}

// New returns a Refresher.
func New(cat *catalog.Service, fetch Fetcher, logger *log.Logger) *Refresher {
	if logger == nil {
		logger = log.Default()
	}
	return &Refresher{catalog: cat, fetch: fetch, logger: logger, now: time.Now}
}

// Run checks the selected tools concurrently. The returned error joins every
// per-tool failure; the summary is complete either way.
func (r *Refresher) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := r.now()

	tools, err := r.selectTools(ctx, opts)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Checked: len(tools), Outcomes: make([]Outcome, 0, len(tools))}
	if len(tools) == 0 {
		return summary, nil
	}

	jobs := opts.Concurrency
	if jobs <= 0 {
		jobs = min(runtime.NumCPU(), maxConcurrency)
	}
	jobs = min(jobs, len(tools))

	workCh := make(chan catalog.Tool)
	outCh := make(chan Outcome)

	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(ctx, workCh, outCh)
		}()
	}

	go func() {
		defer close(workCh)
		for _, t := range tools {
			select {
			case <-ctx.Done():
				return
			case workCh <- t:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	byID := make(map[int64]Outcome, len(tools))
	for o := range outCh {
		byID[o.ID] = o
	}

	var errs []error
	for _, t := range tools {
		o, ok := byID[t.ID]
		if !ok {
			continue
		}
		summary.Outcomes = append(summary.Outcomes, o)
		switch {
		case o.Err != nil:
			summary.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", o.RepoName, o.Err))
		case o.Change.Meaningful():
			summary.Updated++
			summary.Freshened++
		default:
			summary.Updated++
		}
	}
	summary.Duration = r.now().Sub(start)

	if summary.Updated > 0 {
		r.catalog.Invalidate()
	}
	if ctx.Err() != nil {
		errs = append(errs, fmt.Errorf("refresh cancelled: %w", ctx.Err()))
	}

	r.logger.Info("refresh finished",
		"checked", summary.Checked, "updated", summary.Updated,
		"freshened", summary.Freshened, "failed", summary.Failed, "duration", summary.Duration)
	return summary, errors.Join(errs...)
}

func (r *Refresher) selectTools(ctx context.Context, opts Options) ([]catalog.Tool, error) {
	limit := opts.Limit
	if limit <= 0 || limit > MaxBatch {
		limit = MaxBatch
	}

	if len(opts.IDs) > 0 {
		if len(opts.IDs) > MaxBatch {
			return nil, ErrTooMany
		}
		tools := make([]catalog.Tool, 0, len(opts.IDs))
		for _, id := range opts.IDs {
			t, err := r.catalog.Store().GetToolByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("tool %d: %w", id, err)
			}
			tools = append(tools, *t)
		}
		return tools, nil
	}

	olderThan := opts.OlderThan
	if olderThan <= 0 {
		olderThan = DefaultOlderThan
	}
	tools, err := r.catalog.All(ctx, catalog.Filter{UpdatedBefore: r.now().Add(-olderThan)})
	if err != nil {
		return nil, fmt.Errorf("select stale tools: %w", err)
	}

	sort.SliceStable(tools, func(i, j int) bool { return tools[i].LastUpdated.Before(tools[j].LastUpdated) })
	if len(tools) > limit {
		tools = tools[:limit]
	}
	return tools, nil
}

func (r *Refresher) worker(ctx context.Context, workCh <-chan catalog.Tool, outCh chan<- Outcome) {
	for t := range workCh {
		select {
		case <-ctx.Done():
			return
		default:
		}

		o := r.refreshOne(ctx, &t)

		select {
		case <-ctx.Done():
			return
		case outCh <- o:
		}
	}
}

func (r *Refresher) refreshOne(ctx context.Context, t *catalog.Tool) Outcome {
	o := Outcome{ID: t.ID, RepoName: t.RepoName}

	owner, name, err := github.ParseRepoURL(t.GitHubURL)
	if err != nil {
		o.Err = err
		return o
	}
	repo, err := r.fetch.Repository(ctx, owner, name)
	if err != nil {
		o.Err = err
		return o
	}

	m := catalog.Metadata{
		Description:   repo.Description,
		Stars:         repo.Stars,
		Language:      repo.Language,
		Topics:        repo.Topics,
		DefaultBranch: repo.DefaultBranch,
		OwnerAvatar:   repo.Owner.AvatarURL,
		LastUpdated:   t.LastUpdated,
	}
	o.Change = DetectChanges(t, m)
	if o.Change.Meaningful() {
		m.LastUpdated = r.now().UTC()
	}

	if err := r.catalog.UpdateMetadata(ctx, t.ID, m); err != nil {
		o.Err = err
		return o
	}
	if o.Change.Meaningful() {
		r.logger.Debug("tool freshened", "repo", t.RepoName, "changes", o.Change.Fields, "significance", o.Change.Significance)
	}
	return o
}

// Freshness summarizes how current the visible catalog is.
type Freshness struct {
	Total        int `json:"total"`
	Recent       int `json:"recently_updated"`
	Stale        int `json:"stale"`
	StalePercent int `json:"stale_percent"`
}

// Stats counts visible tools updated in the last 30 days and those not
// updated within ReviewAge.
func (r *Refresher) Stats(ctx context.Context) (*Freshness, error) {
	tools, err := r.catalog.All(ctx, catalog.Filter{})
	if err != nil {
		return nil, err
	}
	now := r.now()
	recentCutoff := now.Add(-30 * 24 * time.Hour)

	f := &Freshness{Total: len(tools)}
	for _, t := range tools {
		if !t.LastUpdated.Before(recentCutoff) {
			f.Recent++
		}
		if NeedsReview(t.LastUpdated, now) {
			f.Stale++
		}
	}
	if f.Total > 0 {
		f.StalePercent = (f.Stale*100 + f.Total/2) / f.Total
	}
	return f, nil
}
