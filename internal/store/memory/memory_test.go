package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/trackmcp/internal/store/memory"
	"github.com/yaklabco/trackmcp/internal/store/storetest"
	"github.com/yaklabco/trackmcp/pkg/catalog"
)

func TestStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(_ *testing.T) catalog.Store { return memory.New() })
}

func TestSeedSkipsDuplicates(t *testing.T) {
	t.Parallel()

	s := memory.New()
	require.NoError(t, memory.Seed(context.Background(), s, storetest.Fixture()))
	require.NoError(t, memory.Seed(context.Background(), s, storetest.Fixture()))

	n, err := s.CountTools(context.Background(), catalog.Filter{})
	require.NoError(t, err)
	assert.Len(t, storetest.Fixture(), n)
}

func TestReturnedToolsAreCopies(t *testing.T) {
	t.Parallel()

	s := memory.New()
	storetest.Seed(t, s)

	got, err := s.GetTool(context.Background(), "slack-mcp")
	require.NoError(t, err)
	got.Topics[0] = "mutated"

	again, err := s.GetTool(context.Background(), "slack-mcp")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat"}, again.Topics)
}
