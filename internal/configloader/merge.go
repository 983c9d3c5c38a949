package configloader

import (
	"time"

	"github.com/yaklabco/trackmcp/pkg/config"
)

// merge combines two configurations, with override taking precedence over base.
// The merge follows these rules:
//   - Scalar values: override overwrites base if override is non-zero
//   - Pointers: override overwrites base if non-nil
//   - Slices: override replaces base entirely if override is non-nil
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := *base

	mergeString(&result.Server.Addr, override.Server.Addr)
	mergeString(&result.Server.Host, override.Server.Host)
	mergeDuration(&result.Server.ReadTimeout, override.Server.ReadTimeout)
	mergeDuration(&result.Server.WriteTimeout, override.Server.WriteTimeout)
	mergeDuration(&result.Server.ShutdownTimeout, override.Server.ShutdownTimeout)

	mergeString(&result.GitHub.Token, override.GitHub.Token)
	mergeString(&result.GitHub.BaseURL, override.GitHub.BaseURL)
	mergeDuration(&result.GitHub.CacheTTL, override.GitHub.CacheTTL)
	mergeInt(&result.GitHub.CacheSize, override.GitHub.CacheSize)
	mergeInt(&result.GitHub.MaxRetries, override.GitHub.MaxRetries)
	mergeDuration(&result.GitHub.Timeout, override.GitHub.Timeout)

	if override.Store.Driver != "" {
		result.Store.Driver = override.Store.Driver
	}
	mergeString(&result.Store.Path, override.Store.Path)

	mergeString(&result.Render.Engine, override.Render.Engine)
	mergeString(&result.Render.Nesting, override.Render.Nesting)
	mergeString(&result.Render.StripHTML, override.Render.StripHTML)
	mergeString(&result.Render.Style, override.Render.Style)
	if override.Render.Highlight != nil {
		highlight := *override.Render.Highlight
		result.Render.Highlight = &highlight
	}

	mergeString(&result.Admin.APIKey, override.Admin.APIKey)

	mergeString(&result.IndexNow.Key, override.IndexNow.Key)
	mergeString(&result.IndexNow.Endpoint, override.IndexNow.Endpoint)
	mergeInt(&result.IndexNow.BatchSize, override.IndexNow.BatchSize)
	mergeDuration(&result.IndexNow.Pause, override.IndexNow.Pause)

	mergeDuration(&result.Refresh.OlderThan, override.Refresh.OlderThan)
	mergeInt(&result.Refresh.Concurrency, override.Refresh.Concurrency)
	mergeInt(&result.Refresh.Limit, override.Refresh.Limit)

	mergeString(&result.Log.Level, override.Log.Level)
	if override.Log.Format != "" {
		result.Log.Format = override.Log.Format
	}

	if override.Banned != nil {
		result.Banned = append([]string(nil), override.Banned...)
	}

	// Demo can only be switched on by an override.
	if override.Demo {
		result.Demo = true
	}

	return &result
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func mergeDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

// MergeAll merges multiple configurations in order, with later configs taking precedence.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		result = merge(result, configs[i])
	}
	return result
}
