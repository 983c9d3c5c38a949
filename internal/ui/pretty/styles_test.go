package pretty_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/trackmcp/internal/ui/pretty"
	"github.com/yaklabco/trackmcp/pkg/catalog"
)

func TestNewStyles_ColorDisabled(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	require.NotNil(t, styles)

	for _, rendered := range []string{
		styles.Bold.Render("test"),
		styles.Error.Render("test"),
		styles.URL.Render("test"),
		styles.StatusStyle(catalog.StatusRejected).Render("test"),
	} {
		assert.Equal(t, "test", rendered)
	}
}

func TestIsColorEnabled_AlwaysMode(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.True(t, pretty.IsColorEnabled("always", &buf))
}

func TestIsColorEnabled_NeverMode(t *testing.T) {
	t.Parallel()
	assert.False(t, pretty.IsColorEnabled("never", os.Stdout))
}

func TestIsColorEnabled_AutoMode_NonTTY(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.False(t, pretty.IsColorEnabled("auto", &buf))
	assert.False(t, pretty.IsColorEnabled("", &buf))
}

func TestIsColorEnabled_AutoMode_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, pretty.IsColorEnabled("auto", os.Stdout))
}

func TestTermWidth_NonTerminal(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.Equal(t, pretty.DefaultTermWidth, pretty.TermWidth(&buf))
}
