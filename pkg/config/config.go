// Package config defines the configuration types for trackmcp.
// These types are pure data structures; loading and layering live in
// internal/configloader.
package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// AppName names the configuration and data directories.
const AppName = "trackmcp"

// StoreDriver selects the catalog storage backend.
type StoreDriver string

const (
	StoreSQLite StoreDriver = "sqlite"
	StoreMemory StoreDriver = "memory"
)

// LogFormat selects the log output encoding.
type LogFormat string

const (
	LogText   LogFormat = "text"
	LogJSON   LogFormat = "json"
	LogLogfmt LogFormat = "logfmt"
)

// ServerConfig configures the web server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`

	// Host is the public base URL used in sitemaps and canonical links.
	Host string `yaml:"host"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// GitHubConfig configures the GitHub API client.
type GitHubConfig struct {
	// Token is a personal access token. It is normally supplied through
	// GITHUB_TOKEN or the keyring rather than a config file.
	Token      string        `yaml:"token,omitempty"`
	BaseURL    string        `yaml:"base_url"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	CacheSize  int           `yaml:"cache_size"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// StoreConfig configures catalog storage.
type StoreConfig struct {
	Driver StoreDriver `yaml:"driver"`
	Path   string      `yaml:"path"`
}

// RenderConfig configures README rendering.
type RenderConfig struct {
	// Engine is "builtin" or "commonmark".
	Engine string `yaml:"engine"`

	// Nesting is the list nesting strategy: "stack" or "lookahead".
	Nesting string `yaml:"nesting"`

	// StripHTML is the tag stripping mode: "depth" or "regex".
	StripHTML string `yaml:"strip_html"`

	// Highlight enables chroma code highlighting. Nil means enabled.
	Highlight *bool `yaml:"highlight,omitempty"`

	// Style is the chroma style name.
	Style string `yaml:"style"`
}

// HighlightEnabled reports whether code highlighting is on.
func (r RenderConfig) HighlightEnabled() bool {
	return r.Highlight == nil || *r.Highlight
}

// AdminConfig configures the moderation API.
type AdminConfig struct {
	// APIKey is the bearer key for admin routes. Admin routes are disabled
	// when it is empty.
	APIKey string `yaml:"api_key,omitempty"`
}

// IndexNowConfig configures search engine notification.
type IndexNowConfig struct {
	Key       string        `yaml:"key,omitempty"`
	Endpoint  string        `yaml:"endpoint"`
	BatchSize int           `yaml:"batch_size"`
	Pause     time.Duration `yaml:"pause"`
}

// RefreshConfig configures metadata refresh runs.
type RefreshConfig struct {
	OlderThan   time.Duration `yaml:"older_than"`
	Concurrency int           `yaml:"concurrency"`
	Limit       int           `yaml:"limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string    `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Config is the root configuration structure for trackmcp.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	GitHub   GitHubConfig   `yaml:"github"`
	Store    StoreConfig    `yaml:"store"`
	Render   RenderConfig   `yaml:"render"`
	Admin    AdminConfig    `yaml:"admin"`
	IndexNow IndexNowConfig `yaml:"indexnow"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Log      LogConfig      `yaml:"log"`

	// Banned lists repository URLs that may not be submitted. Nil keeps the
	// built-in list.
	Banned []string `yaml:"banned"`

	// CLI-level options (not persisted to config files).

	// Demo seeds an in-memory store with sample tools.
	Demo bool `yaml:"-"`
}

// DefaultDataDir returns the directory holding trackmcp data files.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultStorePath returns the default sqlite database path.
func DefaultStorePath() string {
	return filepath.Join(DefaultDataDir(), "catalog.db")
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Host:            "https://www.trackmcp.com",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		GitHub: GitHubConfig{
			BaseURL:    "https://api.github.com",
			CacheTTL:   5 * time.Minute,
			CacheSize:  1000,
			MaxRetries: 3,
			Timeout:    15 * time.Second,
		},
		Store: StoreConfig{
			Driver: StoreSQLite,
			Path:   DefaultStorePath(),
		},
		Render: RenderConfig{
			Engine:    "builtin",
			Nesting:   "stack",
			StripHTML: "depth",
			Style:     "github",
		},
		IndexNow: IndexNowConfig{
			Endpoint:  "https://api.indexnow.org/IndexNow",
			BatchSize: 5000,
			Pause:     time.Second,
		},
		Refresh: RefreshConfig{
			OlderThan:   7 * 24 * time.Hour,
			Concurrency: 4,
			Limit:       1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogText,
		},
	}
}
