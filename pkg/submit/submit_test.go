package submit_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/trackmcp/internal/store/memory"
	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/github"
	"github.com/yaklabco/trackmcp/pkg/submit"
)

type fakeMeta struct {
	repos map[string]*github.Repository
	err   error
}

func (f *fakeMeta) Repository(_ context.Context, owner, repo string) (*github.Repository, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.repos[owner+"/"+repo]
	if !ok {
		return nil, github.ErrNotFound
	}
	return r, nil
}

type fakeBranches struct {
	branch string
	err    error
	calls  int
}

func (f *fakeBranches) DefaultBranch(context.Context, string) (string, error) {
	f.calls++
	return f.branch, f.err
}

func newSubmitter(t *testing.T, branches submit.BranchSource) (*submit.Submitter, *catalog.Service) {
	t.Helper()

	meta := &fakeMeta{repos: map[string]*github.Repository{
		"Acme/Widget-MCP": {
			Name: "Widget-MCP", Description: "Send Slack messages", Stars: 12,
			Language: "Go", Topics: []string{"slack"}, DefaultBranch: "main",
			UpdatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			Owner:     github.Owner{Login: "Acme", AvatarURL: "https://avatars/acme"},
		},
		"acme/bare": {Name: "bare"},
	}}
	svc := catalog.NewService(memory.New(), catalog.Options{Logger: log.New(io.Discard)})
	opts := submit.Options{Logger: log.New(io.Discard)}
	if branches != nil {
		opts.Branches = branches
	}
	return submit.New(svc, meta, opts), svc
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	s, svc := newSubmitter(t, nil)
	ctx := context.Background()

	tool, err := s.Submit(ctx, submit.Request{GitHubURL: "https://github.com/Acme/Widget-MCP/", Email: "dev@example.com"})
	require.NoError(t, err)
	assert.Positive(t, tool.ID)
	assert.Equal(t, "widget-mcp", tool.RepoName)
	assert.Equal(t, catalog.StatusPending, tool.Status)
	assert.Equal(t, catalog.CategoryCommunication, tool.Category)
	assert.Equal(t, "main", tool.DefaultBranch)
	assert.Equal(t, "https://avatars/acme", tool.OwnerAvatar)
	assert.Equal(t, 12, tool.Stars)

	got, err := svc.GetTool(ctx, "widget-mcp")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", got.SubmitterEmail)
	assert.True(t, got.LastUpdated.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))

	_, err = s.Submit(ctx, submit.Request{GitHubURL: "https://github.com/Acme/Widget-MCP"})
	require.ErrorIs(t, err, submit.ErrAlreadySubmitted)
}

func TestSubmitExplicitCategory(t *testing.T) {
	t.Parallel()

	s, _ := newSubmitter(t, nil)
	tool, err := s.Submit(context.Background(), submit.Request{
		GitHubURL: "https://github.com/Acme/Widget-MCP",
		Category:  catalog.CategoryAutomation,
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.CategoryAutomation, tool.Category)
}

func TestSubmitRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     submit.Request
		wantErr error
	}{
		{name: "not github", req: submit.Request{GitHubURL: "https://gitlab.com/acme/widget"}, wantErr: submit.ErrInvalidURL},
		{name: "deep link", req: submit.Request{GitHubURL: "https://github.com/acme/widget/tree/main"}, wantErr: submit.ErrInvalidURL},
		{name: "owner only", req: submit.Request{GitHubURL: "https://github.com/acme"}, wantErr: submit.ErrInvalidURL},
		{name: "banned", req: submit.Request{GitHubURL: "https://github.com/punkpeye/awesome-mcp-servers"}, wantErr: submit.ErrBanned},
		{name: "banned case and slash", req: submit.Request{GitHubURL: "https://github.com/HabitoAI/Awesome-MCP-Servers/"}, wantErr: submit.ErrBanned},
		{name: "bad email", req: submit.Request{GitHubURL: "https://github.com/acme/bare", Email: "nobody@home"}, wantErr: submit.ErrInvalidEmail},
		{name: "bad category", req: submit.Request{GitHubURL: "https://github.com/acme/bare", Category: "Games"}, wantErr: submit.ErrInvalidCategory},
		{name: "missing repo", req: submit.Request{GitHubURL: "https://github.com/acme/ghost"}, wantErr: submit.ErrRepoNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newSubmitter(t, nil)
			_, err := s.Submit(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSubmitMetadataError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	svc := catalog.NewService(memory.New(), catalog.Options{Logger: log.New(io.Discard)})
	s := submit.New(svc, &fakeMeta{err: boom}, submit.Options{Logger: log.New(io.Discard)})

	_, err := s.Submit(context.Background(), submit.Request{GitHubURL: "https://github.com/acme/widget"})
	require.ErrorIs(t, err, boom)
}

func TestSubmitResolvesMissingBranch(t *testing.T) {
	t.Parallel()

	branches := &fakeBranches{branch: "develop"}
	s, _ := newSubmitter(t, branches)

	tool, err := s.Submit(context.Background(), submit.Request{GitHubURL: "https://github.com/acme/bare"})
	require.NoError(t, err)
	assert.Equal(t, "develop", tool.DefaultBranch)
	assert.Equal(t, 1, branches.calls)
	assert.Equal(t, catalog.CategoryOthers, tool.Category)
	assert.Equal(t, []string{}, tool.Topics)
	assert.False(t, tool.LastUpdated.IsZero())
}

func TestSubmitBranchFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	s, _ := newSubmitter(t, &fakeBranches{err: errors.New("offline")})

	tool, err := s.Submit(context.Background(), submit.Request{GitHubURL: "https://github.com/acme/bare"})
	require.NoError(t, err)
	assert.Empty(t, tool.DefaultBranch)
}

func TestModerate(t *testing.T) {
	t.Parallel()

	s, svc := newSubmitter(t, nil)
	ctx := context.Background()

	tool, err := s.Submit(ctx, submit.Request{GitHubURL: "https://github.com/acme/bare"})
	require.NoError(t, err)

	require.NoError(t, s.Moderate(ctx, tool.ID, catalog.StatusApproved))
	got, err := svc.GetTool(ctx, "bare")
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusApproved, got.Status)

	require.NoError(t, s.Moderate(ctx, tool.ID, catalog.StatusRejected))
	_, err = svc.GetTool(ctx, "bare")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	require.NoError(t, submit.ValidateEmail(""))
	require.NoError(t, submit.ValidateEmail("a@b.co"))
	require.ErrorIs(t, submit.ValidateEmail("a b@c.d"), submit.ErrInvalidEmail)
	require.ErrorIs(t, submit.ValidateEmail("@c.d"), submit.ErrInvalidEmail)
}
