package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yaklabco/trackmcp/pkg/config"
)

// envVarPrefix is the prefix for all trackmcp environment variables.
const envVarPrefix = "TRACKMCP_"

// envFieldType represents the type of a configuration field.
type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeBool
	envTypeInt
	envTypeDuration
	envTypeSlice
)

// envMapping defines an environment variable to config field mapping.
type envMapping struct {
	field string
	typ   envFieldType
	help  string
}

// envMappings maps environment variable names (without prefix) to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"ADDR":               {field: "server.addr", typ: envTypeString, help: "Listen address, e.g. :8080"},
	"HOST":               {field: "server.host", typ: envTypeString, help: "Public base URL"},
	"GITHUB_TOKEN":       {field: "github.token", typ: envTypeString, help: "GitHub personal access token"},
	"GITHUB_BASE_URL":    {field: "github.base_url", typ: envTypeString, help: "GitHub API base URL"},
	"GITHUB_CACHE_TTL":   {field: "github.cache_ttl", typ: envTypeDuration, help: "GitHub response cache TTL"},
	"GITHUB_MAX_RETRIES": {field: "github.max_retries", typ: envTypeInt, help: "Retries for GitHub server errors"},
	"STORE_DRIVER":       {field: "store.driver", typ: envTypeString, help: "Catalog store: sqlite or memory"},
	"STORE_PATH":         {field: "store.path", typ: envTypeString, help: "sqlite database path"},
	"RENDER_ENGINE":      {field: "render.engine", typ: envTypeString, help: "README engine: builtin or commonmark"},
	"RENDER_HIGHLIGHT":   {field: "render.highlight", typ: envTypeBool, help: "Highlight code blocks: true or false"},
	"ADMIN_API_KEY":      {field: "admin.api_key", typ: envTypeString, help: "Bearer key for admin routes"},
	"INDEXNOW_KEY":       {field: "indexnow.key", typ: envTypeString, help: "IndexNow verification key"},
	"REFRESH_OLDER_THAN": {field: "refresh.older_than", typ: envTypeDuration, help: "Refresh tools not updated within this duration"},
	"LOG_LEVEL":          {field: "log.level", typ: envTypeString, help: "Log level: debug, info, warn, or error"},
	"LOG_FORMAT":         {field: "log.format", typ: envTypeString, help: "Log format: text, json, or logfmt"},
	"BANNED":             {field: "banned", typ: envTypeSlice, help: "Comma-separated list of banned repository URLs"},
}

// bareEnvVars are unprefixed variables honored for compatibility with
// common deployment setups. The prefixed form wins when both are set.
//
//nolint:gochecknoglobals // Read-only lookup table.
var bareEnvVars = map[string]string{
	"GITHUB_TOKEN":  "GITHUB_TOKEN",
	"ADMIN_API_KEY": "ADMIN_API_KEY",
	"INDEXNOW_KEY":  "INDEXNOW_KEY",
}

// LoadFromEnv applies environment variable overrides to the configuration.
func LoadFromEnv(cfg *config.Config) error {
	return loadFromEnv(cfg, os.Getenv)
}

func loadFromEnv(cfg *config.Config, getenv func(string) string) error {
	if cfg == nil {
		return nil
	}

	for suffix, mapping := range envMappings {
		envVar := envVarPrefix + suffix
		value := getenv(envVar)
		if value == "" {
			if bare, ok := bareEnvVars[suffix]; ok {
				envVar = bare
				value = getenv(bare)
			}
		}
		if value == "" {
			continue
		}

		if err := applyEnvValue(cfg, mapping, value, envVar); err != nil {
			return err
		}
	}

	return nil
}

// applyEnvValue applies a single environment variable value to the config.
func applyEnvValue(cfg *config.Config, mapping envMapping, value, envVar string) error {
	switch mapping.typ {
	case envTypeString:
		return setStringField(cfg, mapping.field, value)
	case envTypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q (expected true/false/1/0)", envVar, value)
		}
		return setBoolField(cfg, mapping.field, b)
	case envTypeInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", envVar, value)
		}
		return setIntField(cfg, mapping.field, i)
	case envTypeDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", envVar, value)
		}
		return setDurationField(cfg, mapping.field, d)
	case envTypeSlice:
		cfg.Banned = parseSliceValue(value)
		return nil
	default:
		return fmt.Errorf("unknown field type for %s", envVar)
	}
}

// parseSliceValue parses a comma-separated string into a slice.
func parseSliceValue(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func setStringField(cfg *config.Config, field, value string) error {
	switch field {
	case "server.addr":
		cfg.Server.Addr = value
	case "server.host":
		cfg.Server.Host = value
	case "github.token":
		cfg.GitHub.Token = value
	case "github.base_url":
		cfg.GitHub.BaseURL = value
	case "store.driver":
		cfg.Store.Driver = config.StoreDriver(value)
	case "store.path":
		cfg.Store.Path = value
	case "render.engine":
		cfg.Render.Engine = value
	case "admin.api_key":
		cfg.Admin.APIKey = value
	case "indexnow.key":
		cfg.IndexNow.Key = value
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = config.LogFormat(value)
	default:
		return fmt.Errorf("unknown string field: %s", field)
	}
	return nil
}

func setBoolField(cfg *config.Config, field string, value bool) error {
	switch field {
	case "render.highlight":
		cfg.Render.Highlight = &value
	default:
		return fmt.Errorf("unknown boolean field: %s", field)
	}
	return nil
}

func setIntField(cfg *config.Config, field string, value int) error {
	switch field {
	case "github.max_retries":
		cfg.GitHub.MaxRetries = value
	default:
		return fmt.Errorf("unknown integer field: %s", field)
	}
	return nil
}

func setDurationField(cfg *config.Config, field string, value time.Duration) error {
	switch field {
	case "github.cache_ttl":
		cfg.GitHub.CacheTTL = value
	case "refresh.older_than":
		cfg.Refresh.OlderThan = value
	default:
		return fmt.Errorf("unknown duration field: %s", field)
	}
	return nil
}

// EnvVar describes a supported environment variable.
type EnvVar struct {
	Name        string
	Description string
}

// ListEnvVars returns all supported environment variables sorted by name.
func ListEnvVars() []EnvVar {
	vars := make([]EnvVar, 0, len(envMappings))
	for suffix, mapping := range envMappings {
		vars = append(vars, EnvVar{Name: envVarPrefix + suffix, Description: mapping.help})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}
