package github

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v6/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickDefaultBranch(t *testing.T) {
	t.Parallel()

	branch := func(name string) *plumbing.Reference {
		return plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), plumbing.ZeroHash)
	}
	head := func(target string) *plumbing.Reference {
		return plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(target))
	}

	tests := []struct {
		name string
		refs []*plumbing.Reference
		want string
	}{
		{name: "symbolic head", refs: []*plumbing.Reference{branch("main"), branch("trunk"), head("trunk")}, want: "trunk"},
		{name: "prefers main", refs: []*plumbing.Reference{branch("develop"), branch("master"), branch("main")}, want: "main"},
		{name: "falls back to master", refs: []*plumbing.Reference{branch("develop"), branch("master")}, want: "master"},
		{name: "falls back to develop", refs: []*plumbing.Reference{branch("feature"), branch("develop")}, want: "develop"},
		{name: "tags ignored", refs: []*plumbing.Reference{
			plumbing.NewHashReference(plumbing.NewTagReferenceName("main"), plumbing.ZeroHash),
		}},
		{name: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pickDefaultBranch(tt.refs))
		})
	}
}

func TestDefaultBranchRejectsNonGitHub(t *testing.T) {
	t.Parallel()

	_, err := BranchResolver{}.DefaultBranch(context.Background(), "https://example.com/a/b")
	require.ErrorIs(t, err, ErrInvalidRepoURL)
}
