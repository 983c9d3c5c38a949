// Package langdetect guesses the language of unlabelled code blocks found in
// tool READMEs, and normalizes the labels authors do write.
package langdetect

import (
	"regexp"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Canonical language names. They double as chroma lexer names.
const (
	Bash       = "bash"
	Go         = "go"
	Python     = "python"
	JavaScript = "javascript"
	TypeScript = "typescript"
	JSON       = "json"
	YAML       = "yaml"
	TOML       = "toml"
	Dockerfile = "dockerfile"
	SQL        = "sql"
	Rust       = "rust"
	HTML       = "html"
)

// aliases maps info-string spellings to canonical names.
//
//nolint:gochecknoglobals // Read-only lookup table.
var aliases = map[string]string{
	"sh":          Bash,
	"shell":       Bash,
	"zsh":         Bash,
	"console":     Bash,
	"terminal":    Bash,
	"shellscript": Bash,
	"golang":      Go,
	"py":          Python,
	"python3":     Python,
	"js":          JavaScript,
	"node":        JavaScript,
	"mjs":         JavaScript,
	"ts":          TypeScript,
	"tsx":         TypeScript,
	"jsonc":       JSON,
	"json5":       JSON,
	"yml":         YAML,
	"docker":      Dockerfile,
	"rs":          Rust,
}

// Normalize returns the canonical name for an info string. Only the first
// word counts, so "json title=config" is "json". Unknown names are returned
// lowercased.
func Normalize(info string) string {
	fields := strings.Fields(strings.ToLower(info))
	if len(fields) == 0 {
		return ""
	}
	name := strings.Trim(fields[0], "{}.")
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

// rule reports a language when its check matches.
type rule struct {
	lang  string
	check func(code string) bool
}

//nolint:gochecknoglobals // Compiled patterns are immutable.
var (
	installCommand = regexp.MustCompile(`(?m)^\s*(\$ )?(npx|npm|pnpm|yarn|bunx|pip3?|uvx?|pipx|brew|go install|cargo|docker|curl|git clone|export)\b`)
	tomlHeader     = regexp.MustCompile(`(?m)^\[[\w.-]+\]\s*$`)
	tomlAssign     = regexp.MustCompile(`(?m)^[\w-]+\s*=\s*("|\d|\[|true|false)`)
	tsTypes        = regexp.MustCompile(`\b(interface|type)\s+\w+\s*(=|\{)|:\s*(string|number|boolean)\b`)
	yamlKey        = regexp.MustCompile(`(?m)^\s*[\w-]+:(\s|$)`)
)

// rules are tried in order. Config-shaped snippets come first since MCP
// READMEs are mostly client configuration and install commands.
//
//nolint:gochecknoglobals // Read-only lookup table.
var rules = []rule{
	{JSON, func(code string) bool {
		t := strings.TrimSpace(code)
		return (strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[")) && strings.Contains(t, `"`) &&
			(strings.HasSuffix(t, "}") || strings.HasSuffix(t, "]"))
	}},
	{Bash, installCommand.MatchString},
	{Go, func(code string) bool {
		return strings.HasPrefix(strings.TrimSpace(code), "package ") || strings.Contains(code, "func main()")
	}},
	{Rust, func(code string) bool {
		return strings.Contains(code, "fn main()") || strings.Contains(code, "println!") || strings.Contains(code, "let mut ")
	}},
	{Python, func(code string) bool {
		return (strings.Contains(code, "def ") && strings.Contains(code, "):")) ||
			strings.Contains(code, "__name__") ||
			(strings.Contains(code, "import ") && strings.Contains(code, "from ") && !strings.Contains(code, "from '") && !strings.Contains(code, `from "`))
	}},
	{TypeScript, tsTypes.MatchString},
	{JavaScript, func(code string) bool {
		return strings.Contains(code, "=>") || strings.Contains(code, "const ") ||
			strings.Contains(code, "require(") || strings.Contains(code, "console.log")
	}},
	{Dockerfile, func(code string) bool {
		t := strings.TrimSpace(code)
		return strings.HasPrefix(t, "FROM ") && (strings.Contains(t, "\nRUN ") || strings.Contains(t, "\nCOPY "))
	}},
	{SQL, func(code string) bool {
		t := strings.ToUpper(strings.TrimSpace(code))
		for _, kw := range []string{"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "CREATE "} {
			if strings.HasPrefix(t, kw) {
				return true
			}
		}
		return false
	}},
	{TOML, func(code string) bool {
		return tomlHeader.MatchString(code) && tomlAssign.MatchString(code)
	}},
	{HTML, func(code string) bool {
		l := strings.ToLower(code)
		return strings.Contains(l, "<!doctype html") || strings.Contains(l, "<html") || strings.Contains(l, "<body")
	}},
	{YAML, func(code string) bool {
		return len(yamlKey.FindAllStringIndex(code, 3)) >= 2 && !strings.Contains(code, ";")
	}},
}

// classifierCandidates limits the enry classifier to languages that show up
// in tool READMEs.
//
//nolint:gochecknoglobals // Read-only lookup table.
var classifierCandidates = []string{
	"Go", "Python", "Shell", "JavaScript", "TypeScript", "Rust", "JSON", "YAML", "TOML", "SQL", "Dockerfile",
}

// Detect returns the canonical language of code, or "" when no guess is
// reliable.
func Detect(code string) string {
	if strings.TrimSpace(code) == "" {
		return ""
	}

	content := []byte(code)
	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return fromEnry(lang)
	}

	for _, r := range rules {
		if r.check(code) {
			return r.lang
		}
	}

	if lang, safe := enry.GetLanguageByClassifier(content, classifierCandidates); safe && lang != "" {
		return fromEnry(lang)
	}
	return ""
}

func fromEnry(lang string) string {
	if lang == "Shell" {
		return Bash
	}
	return Normalize(lang)
}
