package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/trackmcp/pkg/config"
)

func TestConfigClone(t *testing.T) {
	t.Parallel()

	t.Run("nil config returns nil", func(t *testing.T) {
		t.Parallel()
		var c *config.Config
		assert.Nil(t, c.Clone())
	})

	t.Run("empty config", func(t *testing.T) {
		t.Parallel()
		c := &config.Config{}
		clone := c.Clone()
		require.NotNil(t, clone)
		assert.NotSame(t, c, clone)
	})

	t.Run("deep copies Banned slice", func(t *testing.T) {
		t.Parallel()
		original := &config.Config{Banned: []string{"https://github.com/a/b"}}

		clone := original.Clone()
		clone.Banned[0] = "changed"
		assert.Equal(t, "https://github.com/a/b", original.Banned[0])
	})

	t.Run("deep copies Highlight pointer", func(t *testing.T) {
		t.Parallel()
		off := false
		original := &config.Config{Render: config.RenderConfig{Highlight: &off}}

		clone := original.Clone()
		require.NotNil(t, clone.Render.Highlight)
		*clone.Render.Highlight = true
		assert.False(t, *original.Render.Highlight)
	})

	t.Run("preserves CLI fields", func(t *testing.T) {
		t.Parallel()
		original := config.NewConfig()
		original.Demo = true

		clone := original.Clone()
		assert.Equal(t, original, clone)
	})
}

func TestConfigToYAML(t *testing.T) {
	t.Parallel()

	t.Run("nil config returns nil", func(t *testing.T) {
		t.Parallel()
		var cfg *config.Config
		data, err := cfg.ToYAML()
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("uses snake case keys and omits empty secrets", func(t *testing.T) {
		t.Parallel()
		data, err := config.NewConfig().ToYAML()
		require.NoError(t, err)

		out := string(data)
		assert.Contains(t, out, "cache_ttl: 5m0s")
		assert.Contains(t, out, "strip_html: depth")
		assert.NotContains(t, out, "token:")
		assert.NotContains(t, out, "api_key:")
		assert.NotContains(t, out, "demo")
	})

	t.Run("round trips", func(t *testing.T) {
		t.Parallel()
		original := config.NewConfig()
		original.Banned = []string{"https://github.com/x/y"}

		data, err := original.ToYAML()
		require.NoError(t, err)

		parsed, err := config.FromYAML(data)
		require.NoError(t, err)
		assert.Equal(t, original, parsed)
	})

	t.Run("with header", func(t *testing.T) {
		t.Parallel()
		data, err := (&config.Config{}).ToYAMLWithHeader("# trackmcp configuration")
		require.NoError(t, err)
		assert.Contains(t, string(data), "# trackmcp configuration\n\nserver:")
	})
}

func TestFromYAML(t *testing.T) {
	t.Parallel()

	cfg, err := config.FromYAML([]byte(`
server:
  addr: 127.0.0.1:9000
github:
  cache_ttl: 90s
render:
  engine: commonmark
  highlight: false
refresh:
  older_than: 48h
`))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 90*time.Second, cfg.GitHub.CacheTTL)
	assert.Equal(t, "commonmark", cfg.Render.Engine)
	assert.False(t, cfg.Render.HighlightEnabled())
	assert.Equal(t, 48*time.Hour, cfg.Refresh.OlderThan)
	assert.Empty(t, cfg.Log.Level)

	_, err = config.FromYAML([]byte("server: [unclosed"))
	require.Error(t, err)
}

func TestRedacted(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.GitHub.Token = "ghp_secret"
	cfg.Admin.APIKey = "admin"

	red := cfg.Redacted()
	assert.Equal(t, "<redacted>", red.GitHub.Token)
	assert.Equal(t, "<redacted>", red.Admin.APIKey)
	assert.Empty(t, red.IndexNow.Key)
	assert.Equal(t, "ghp_secret", cfg.GitHub.Token)
}

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	assert.Equal(t, config.StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, config.DefaultStorePath(), cfg.Store.Path)
	assert.True(t, cfg.Render.HighlightEnabled())
	assert.Equal(t, config.LogText, cfg.Log.Format)
	assert.Nil(t, cfg.Banned)
}
