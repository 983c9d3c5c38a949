// Package catalog holds the MCP tool directory: the Tool record, the Store
// contract a relational backend implements, and the query and ranking
// operations the web, CLI and MCP surfaces share.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors.
var (
	ErrNotFound      = errors.New("tool not found")
	ErrDuplicate     = errors.New("tool already exists")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidSort   = errors.New("invalid sort order")
)

// MaxPageSize is the largest page a Store returns from ListTools.
const MaxPageSize = 1000

// Status is a moderation state.
type Status string

// Moderation states.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// VisibleStatuses are the statuses listed publicly.
//
//nolint:gochecknoglobals // Read-only lookup table.
var VisibleStatuses = []Status{StatusApproved, StatusPending}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// SortOrder orders listings.
type SortOrder string

// Sort orders.
const (
	SortStars  SortOrder = "stars"
	SortRecent SortOrder = "recent"
	SortName   SortOrder = "name"
	SortNewest SortOrder = "newest"
)

// ParseSort validates a sort order. The empty string selects SortStars.
func ParseSort(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortStars, nil
	case SortStars, SortRecent, SortName, SortNewest:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
	}
}

// Tool is one catalogued repository.
type Tool struct {
	ID             int64     `json:"id"`
	RepoName       string    `json:"repo_name"`
	Description    string    `json:"description"`
	Stars          int       `json:"stars"`
	GitHubURL      string    `json:"github_url"`
	Language       string    `json:"language,omitempty"`
	Topics         []string  `json:"topics"`
	Category       string    `json:"category"`
	Status         Status    `json:"status"`
	DefaultBranch  string    `json:"default_branch,omitempty"`
	OwnerAvatar    string    `json:"owner_avatar,omitempty"`
	SubmitterEmail string    `json:"-"`
	LastUpdated    time.Time `json:"last_updated"`
	CreatedAt      time.Time `json:"created_at"`
}

// Metadata is the part of a Tool refreshed from GitHub.
type Metadata struct {
	Description   string
	Stars         int
	Language      string
	Topics        []string
	DefaultBranch string
	OwnerAvatar   string
	LastUpdated   time.Time
}

// Filter selects tools. The zero value selects every tool in any status.
type Filter struct {
	// Statuses restricts to these statuses when non-empty.
	Statuses []Status
	// Category matches exactly when non-empty.
	Category string
	// Query is a case-insensitive substring of the name, description or
	// any topic.
	Query string
	// UpdatedBefore keeps tools last updated before this instant.
	UpdatedBefore time.Time
	// ExcludeNames drops tools with these names, compared case-insensitively.
	ExcludeNames []string
	Sort         SortOrder
}

// CategoryCount is a category with its number of visible tools.
type CategoryCount struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Store persists tools. Implementations are safe for concurrent use.
type Store interface {
	// ListTools returns at most limit tools from offset in the filter's
	// order. A limit above MaxPageSize is clamped.
	ListTools(ctx context.Context, f Filter, offset, limit int) ([]Tool, error)
	CountTools(ctx context.Context, f Filter) (int, error)
	// GetTool finds a tool by name, case-insensitively.
	GetTool(ctx context.Context, name string) (*Tool, error)
	GetToolByID(ctx context.Context, id int64) (*Tool, error)
	// InsertTool assigns t.ID and t.CreatedAt. A repeated RepoName yields
	// ErrDuplicate.
	InsertTool(ctx context.Context, t *Tool) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	UpdateMetadata(ctx context.Context, id int64, m Metadata) error
	UpdateCategory(ctx context.Context, id int64, category string) error
	// Categories counts tools per category among the given statuses.
	Categories(ctx context.Context, statuses []Status) ([]CategoryCount, error)
	Close() error
}

// Matches reports whether t passes every criterion of f except paging and
// order. Stores without a query language use it directly.
func (f Filter) Matches(t *Tool) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if !f.UpdatedBefore.IsZero() && !t.LastUpdated.Before(f.UpdatedBefore) {
		return false
	}
	for _, name := range f.ExcludeNames {
		if strings.EqualFold(name, t.RepoName) {
			return false
		}
	}
	if f.Query != "" && !matchesQuery(t, strings.ToLower(f.Query)) {
		return false
	}
	return true
}

// Less orders a before b under sort order o. Ties break on ID.
func (o SortOrder) Less(a, b *Tool) bool {
	switch o {
	case SortRecent:
		if !a.LastUpdated.Equal(b.LastUpdated) {
			return a.LastUpdated.After(b.LastUpdated)
		}
	case SortName:
		an, bn := strings.ToLower(a.RepoName), strings.ToLower(b.RepoName)
		if an != bn {
			return an < bn
		}
	case SortNewest:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	default:
		if a.Stars != b.Stars {
			return a.Stars > b.Stars
		}
	}
	return a.ID < b.ID
}

func matchesQuery(t *Tool, q string) bool {
	if strings.Contains(strings.ToLower(t.RepoName), q) ||
		strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, topic := range t.Topics {
		if strings.Contains(strings.ToLower(topic), q) {
			return true
		}
	}
	return false
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
