package langdetect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/trackmcp/pkg/langdetect"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code string
		want string
	}{
		{"empty", "  \n", ""},
		{"shebang", "#!/bin/bash\necho hello", langdetect.Bash},
		{"shebang python", "#!/usr/bin/env python3\nprint('hi')", langdetect.Python},
		{"client config", `{"mcpServers": {"github": {"command": "npx"}}}`, langdetect.JSON},
		{"npx install", "npx -y @modelcontextprotocol/server-github", langdetect.Bash},
		{"prompted pip", "$ pip install mcp-server-fetch", langdetect.Bash},
		{"uvx", "uvx mcp-server-git --repository .", langdetect.Bash},
		{"go", "package main\n\nfunc main() {}", langdetect.Go},
		{"rust", "fn main() {\n    println!(\"hi\");\n}", langdetect.Rust},
		{"python", "def handler(req):\n    return req", langdetect.Python},
		{"typescript", "interface Options {\n  name: string\n}", langdetect.TypeScript},
		{"javascript", "const server = new Server();\nconsole.log(server)", langdetect.JavaScript},
		{"dockerfile", "FROM node:20\nRUN npm ci", langdetect.Dockerfile},
		{"sql", "SELECT * FROM tools", langdetect.SQL},
		{"toml", "[server]\nport = 8080", langdetect.TOML},
		{"yaml", "name: widget\nversion: 1.0\n", langdetect.YAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, langdetect.Detect(tt.code))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                  "",
		"JS":                langdetect.JavaScript,
		"sh":                langdetect.Bash,
		"console":           langdetect.Bash,
		"yml":               langdetect.YAML,
		"json title=config": langdetect.JSON,
		"{.python}":         langdetect.Python,
		"Elixir":            "elixir",
	}
	for input, want := range tests {
		assert.Equal(t, want, langdetect.Normalize(input), input)
	}
}
