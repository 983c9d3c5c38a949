package configloader

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/styles"

	"github.com/yaklabco/trackmcp/internal/logging"
	"github.com/yaklabco/trackmcp/pkg/config"
	"github.com/yaklabco/trackmcp/pkg/indexnow"
	"github.com/yaklabco/trackmcp/pkg/mdrender"
	"github.com/yaklabco/trackmcp/pkg/readme"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Field is the path to the invalid field (e.g., "server.host").
	Field string

	// Value is the invalid value.
	Value any

	// Message describes the validation error.
	Message string

	// FilePath is the config file containing the error (if known).
	FilePath string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Errors are validation failures that prevent loading.
	Errors []ValidationError

	// Warnings are non-fatal issues.
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// HasWarnings returns true if there are any warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// AllMessages returns all error and warning messages combined.
func (r *ValidationResult) AllMessages() []string {
	messages := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		messages = append(messages, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		messages = append(messages, "warning: "+w.Error())
	}
	return messages
}

func (r *ValidationResult) fail(field string, value any, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warn(field string, value any, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

// knownDrivers lists valid store drivers.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownDrivers = map[config.StoreDriver]bool{
	config.StoreSQLite: true,
	config.StoreMemory: true,
}

// knownLogFormats lists valid log formats.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownLogFormats = map[config.LogFormat]bool{
	config.LogText:   true,
	config.LogJSON:   true,
	config.LogLogfmt: true,
}

// Validate checks a configuration for errors and warnings.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	validateServer(cfg, result)
	validateRender(cfg, result)

	if cfg.Store.Driver != "" && !knownDrivers[cfg.Store.Driver] {
		result.fail("store.driver", cfg.Store.Driver, "invalid driver %q; must be one of: sqlite, memory", cfg.Store.Driver)
	}
	if cfg.Store.Driver == config.StoreSQLite && cfg.Store.Path == "" {
		result.fail("store.path", "", "sqlite store requires a path")
	}

	if cfg.GitHub.BaseURL != "" && !validHTTPURL(cfg.GitHub.BaseURL) {
		result.fail("github.base_url", cfg.GitHub.BaseURL, "must be an absolute http(s) URL")
	}
	if cfg.GitHub.CacheSize < 0 {
		result.fail("github.cache_size", cfg.GitHub.CacheSize, "cache_size must be >= 0")
	}
	if cfg.GitHub.MaxRetries < 0 {
		result.fail("github.max_retries", cfg.GitHub.MaxRetries, "max_retries must be >= 0")
	}
	nonNegative(result, "github.cache_ttl", cfg.GitHub.CacheTTL)
	nonNegative(result, "github.timeout", cfg.GitHub.Timeout)

	if cfg.IndexNow.BatchSize < 0 || cfg.IndexNow.BatchSize > indexnow.MaxBatchSize {
		result.fail("indexnow.batch_size", cfg.IndexNow.BatchSize, "batch_size must be between 0 and %d", indexnow.MaxBatchSize)
	}
	nonNegative(result, "indexnow.pause", cfg.IndexNow.Pause)

	nonNegative(result, "refresh.older_than", cfg.Refresh.OlderThan)
	if cfg.Refresh.Concurrency < 0 {
		result.fail("refresh.concurrency", cfg.Refresh.Concurrency, "concurrency must be >= 0 (0 means auto)")
	}
	if cfg.Refresh.Limit < 0 {
		result.fail("refresh.limit", cfg.Refresh.Limit, "limit must be >= 0")
	}

	if cfg.Log.Level != "" && !logging.ValidLevel(cfg.Log.Level) {
		result.fail("log.level", cfg.Log.Level, "invalid level %q; must be one of: debug, info, warn, error", cfg.Log.Level)
	}
	if cfg.Log.Format != "" && !knownLogFormats[cfg.Log.Format] {
		result.fail("log.format", cfg.Log.Format, "invalid format %q; must be one of: text, json, logfmt", cfg.Log.Format)
	}

	for i, banned := range cfg.Banned {
		if !validHTTPURL(banned) {
			result.warn(fmt.Sprintf("banned[%d]", i), banned, "not an absolute URL; it will never match a submission")
		}
	}

	return result
}

func validateServer(cfg *config.Config, result *ValidationResult) {
	if cfg.Server.Host != "" && !validHTTPURL(cfg.Server.Host) {
		result.fail("server.host", cfg.Server.Host, "must be an absolute http(s) URL")
	}
	nonNegative(result, "server.read_timeout", cfg.Server.ReadTimeout)
	nonNegative(result, "server.write_timeout", cfg.Server.WriteTimeout)
	nonNegative(result, "server.shutdown_timeout", cfg.Server.ShutdownTimeout)
}

func validateRender(cfg *config.Config, result *ValidationResult) {
	if _, err := readme.ParseEngine(cfg.Render.Engine); err != nil {
		result.fail("render.engine", cfg.Render.Engine, "%v", err)
	}
	if _, err := mdrender.ParseNesting(cfg.Render.Nesting); err != nil {
		result.fail("render.nesting", cfg.Render.Nesting, "%v", err)
	}
	if _, err := mdrender.ParseStripMode(cfg.Render.StripHTML); err != nil {
		result.fail("render.strip_html", cfg.Render.StripHTML, "%v", err)
	}
	if cfg.Render.Style != "" {
		if _, ok := styles.Registry[cfg.Render.Style]; !ok {
			result.warn("render.style", cfg.Render.Style, "unknown chroma style %q; the fallback style will be used", cfg.Render.Style)
		}
	}
}

func nonNegative(result *ValidationResult, field string, d time.Duration) {
	if d < 0 {
		result.fail(field, d, "duration must not be negative")
	}
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidateWithFile validates configuration and includes file path in errors.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := Validate(cfg)
	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}
	return result
}
