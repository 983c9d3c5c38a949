package github_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/yaklabco/trackmcp/pkg/github"
)

// Not parallel: MockInit swaps the process-wide keyring provider.
func TestTokenStore(t *testing.T) {
	keyring.MockInit()

	store := github.TokenStore{Service: "trackmcp-test"}

	_, err := store.Load()
	require.ErrorIs(t, err, github.ErrNoToken)
	assert.Equal(t, "", store.Resolve(""))

	require.Error(t, store.Save("   "))
	require.NoError(t, store.Save(" ghp_abc123 "))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc123", token)

	assert.Equal(t, "ghp_abc123", store.Resolve(""))
	assert.Equal(t, "explicit", store.Resolve("explicit"))

	require.NoError(t, store.Delete())
	require.NoError(t, store.Delete())

	_, err = store.Load()
	require.ErrorIs(t, err, github.ErrNoToken)
}

func TestMaskToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", github.MaskToken(""))
	assert.Equal(t, "***", github.MaskToken("abc"))
	assert.Equal(t, "******3456", github.MaskToken("ghp_123456"))
}
