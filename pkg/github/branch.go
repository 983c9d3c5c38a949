package github

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	"github.com/go-git/go-git/v6/storage/memory"
)

// commonBranches are tried in order when the remote does not advertise HEAD.
//
//nolint:gochecknoglobals // Read-only lookup table.
var commonBranches = []string{"main", "master", "develop"}

// BranchResolver finds default branches with an ls-remote against the git
// endpoint, which does not count against the REST quota.
type BranchResolver struct {
	Token string
}

// DefaultBranch lists the remote refs of repoURL and returns the branch HEAD
// points at.
func (b BranchResolver) DefaultBranch(ctx context.Context, repoURL string) (string, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return "", err
	}

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{RepoURL(owner, repo) + ".git"},
	})

	opts := &git.ListOptions{}
	if b.Token != "" {
		opts.Auth = &http.BasicAuth{Username: "x-access-token", Password: b.Token}
	}

	refs, err := remote.ListContext(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("list remote %s/%s: %w", owner, repo, err)
	}

	branch := pickDefaultBranch(refs)
	if branch == "" {
		return "", fmt.Errorf("default branch of %s/%s: %w", owner, repo, ErrNotFound)
	}
	return branch, nil
}

func pickDefaultBranch(refs []*plumbing.Reference) string {
	branches := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if ref.Name() == plumbing.HEAD && ref.Type() == plumbing.SymbolicReference {
			return ref.Target().Short()
		}
		if ref.Name().IsBranch() {
			branches[ref.Name().Short()] = true
		}
	}
	for _, name := range commonBranches {
		if branches[name] {
			return name
		}
	}
	return ""
}
