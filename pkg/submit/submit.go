// Package submit validates GitHub repositories proposed for the catalog and
// records them as pending tools awaiting moderation.
package submit

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/github"
)

// Sentinel errors.
var (
	ErrInvalidURL       = errors.New("invalid github repository url")
	ErrBanned           = errors.New("this repository has been banned from submission")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidCategory  = errors.New("unknown category")
	ErrRepoNotFound     = errors.New("repository not found")
	ErrAlreadySubmitted = errors.New("this tool has already been submitted")
)

// DefaultBanned lists repositories that may never be submitted.
//
//nolint:gochecknoglobals // Read-only lookup table.
var DefaultBanned = []string{
	"https://github.com/punkpeye/awesome-mcp-servers",
	"https://github.com/habitoai/awesome-mcp-servers",
}

//nolint:gochecknoglobals // Compiled patterns are immutable.
var (
	urlPattern   = regexp.MustCompile(`^https?://(www\.)?github\.com/[\w-]+/[\w.-]+/?$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// MetadataSource fetches repository metadata.
type MetadataSource interface {
	Repository(ctx context.Context, owner, repo string) (*github.Repository, error)
}

// BranchSource resolves a default branch when metadata lacks one.
type BranchSource interface {
	DefaultBranch(ctx context.Context, repoURL string) (string, error)
}

// Request is a submission.
type Request struct {
	GitHubURL string `json:"github_url"`
	Email     string `json:"email"`
	// Category is optional; empty selects one from the repository text.
	Category string `json:"category"`
}

// Options configures a Submitter.
type Options struct {
	// Banned overrides DefaultBanned when non-nil.
	Banned   []string
	Branches BranchSource
	Logger   *log.Logger
}

// Submitter accepts submissions into a catalog.
type Submitter struct {
	catalog  *catalog.Service
	meta     MetadataSource
	branches BranchSource
	banned   map[string]bool
	logger   *log.Logger
	now      func() time.Time
}

// New returns a Submitter writing to cat and reading metadata from meta.
func New(cat *catalog.Service, meta MetadataSource, opts Options) *Submitter {
	banned := opts.Banned
	if banned == nil {
		banned = DefaultBanned
	}
	s := &Submitter{
		catalog:  cat,
		meta:     meta,
		branches: opts.Branches,
		banned:   make(map[string]bool, len(banned)),
		logger:   opts.Logger,
		now:      time.Now,
	}
	for _, b := range banned {
		s.banned[normalizeURL(b)] = true
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

func normalizeURL(u string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(u), "/"))
}

// ValidateURL checks the shape of a submitted URL and the ban list.
func (s *Submitter) ValidateURL(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if !urlPattern.MatchString(rawURL) {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if s.banned[normalizeURL(rawURL)] {
		return ErrBanned
	}
	return nil
}

// ValidateEmail checks an optional contact address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || emailPattern.MatchString(email) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
}

// Submit validates req, fetches repository metadata and inserts a pending
// tool.
func (s *Submitter) Submit(ctx context.Context, req Request) (*catalog.Tool, error) {
	rawURL := strings.TrimSpace(req.GitHubURL)
	if err := s.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	if err := ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if req.Category != "" && !isKnownCategory(req.Category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
	}

	owner, name, err := github.ParseRepoURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	repo, err := s.meta.Repository(ctx, owner, name)
	if errors.Is(err, github.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrRepoNotFound, owner, name)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", owner, name, err)
	}

	tool := &catalog.Tool{
		RepoName:       strings.ToLower(firstNonEmpty(repo.Name, name)),
		Description:    repo.Description,
		Stars:          repo.Stars,
		GitHubURL:      rawURL,
		Language:       repo.Language,
		Topics:         repo.Topics,
		Category:       req.Category,
		Status:         catalog.StatusPending,
		DefaultBranch:  repo.DefaultBranch,
		OwnerAvatar:    repo.Owner.AvatarURL,
		SubmitterEmail: strings.TrimSpace(req.Email),
		LastUpdated:    repo.UpdatedAt,
	}
	if tool.Topics == nil {
		tool.Topics = []string{}
	}
	if tool.LastUpdated.IsZero() {
		tool.LastUpdated = s.now().UTC()
	}
	if tool.Category == "" {
		tool.Category = catalog.Categorize(tool.RepoName, tool.Description, tool.Topics)
	}
	if tool.DefaultBranch == "" && s.branches != nil {
		branch, err := s.branches.DefaultBranch(ctx, rawURL)
		if err != nil {
			s.logger.Debug("default branch lookup failed", "repo", tool.RepoName, "error", err)
		} else {
			tool.DefaultBranch = branch
		}
	}

	if err := s.catalog.Insert(ctx, tool); err != nil {
		if errors.Is(err, catalog.ErrDuplicate) {
			return nil, ErrAlreadySubmitted
		}
		return nil, err
	}

	s.logger.Info("tool submitted", "repo", tool.RepoName, "id", tool.ID, "category", tool.Category)
	return tool, nil
}

// Moderate approves or rejects a tool.
func (s *Submitter) Moderate(ctx context.Context, id int64, status catalog.Status) error {
	if err := s.catalog.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("tool moderated", "id", id, "status", status)
	return nil
}

func isKnownCategory(c string) bool {
	for _, known := range catalog.KnownCategories() {
		if known == c {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
