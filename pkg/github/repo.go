// Package github talks to the GitHub REST API and git remotes on behalf of
// the catalog: repository metadata, README content, avatars and default
// branches.
package github

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Sentinel errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("github rate limit exceeded")
	ErrInvalidRepoURL = errors.New("invalid github repository url")
)

//nolint:gochecknoglobals // Compiled pattern is immutable.
var repoURLPattern = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([\w.-]+)/([\w.-]+?)(?:\.git)?/?(?:[/?#].*)?$`)

// ParseRepoURL extracts owner and repository names from a GitHub URL.
func ParseRepoURL(rawURL string) (owner, repo string, err error) {
	m := repoURLPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil || m[1] == "" || m[2] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepoURL, rawURL)
	}
	return m[1], m[2], nil
}

// RepoURL returns the canonical web URL of a repository.
func RepoURL(owner, repo string) string {
	return "https://github.com/" + owner + "/" + repo
}

// Repository is the subset of the repository resource the catalog uses.
type Repository struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	Stars         int       `json:"stargazers_count"`
	Forks         int       `json:"forks_count"`
	Language      string    `json:"language"`
	Topics        []string  `json:"topics"`
	UpdatedAt     time.Time `json:"updated_at"`
	PushedAt      time.Time `json:"pushed_at"`
	DefaultBranch string    `json:"default_branch"`
	HTMLURL       string    `json:"html_url"`
	Archived      bool      `json:"archived"`
	Owner         Owner     `json:"owner"`
}

// Owner is a repository owner.
type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// User is the subset of the user resource used for avatars.
type User struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// RateLimit is the most recently observed API quota.
type RateLimit struct {
	Known     bool
	Remaining int
	Reset     time.Time
}

// StatusError is an unexpected HTTP status from the API.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github api %s: status %d", e.URL, e.Code)
}
