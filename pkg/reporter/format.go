package reporter

import "fmt"

// Format represents a tool listing output format.
type Format string

// Tool listing formats.
const (
	FormatTable Format = "table"
	FormatText  Format = "text"
	FormatJSON  Format = "json"
)

// ParseFormat parses a format string, returning an error for unknown formats.
func ParseFormat(formatStr string) (Format, error) {
	switch formatStr {
	case "table", "":
		return FormatTable, nil
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q; valid formats: table, text, json", formatStr)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// IsValid returns true if the format is a known valid format.
func (f Format) IsValid() bool {
	switch f {
	case FormatTable, FormatText, FormatJSON:
		return true
	default:
		return false
	}
}

// DocFormat represents a rendered document output format.
type DocFormat string

// Document formats.
const (
	DocHTML     DocFormat = "html"
	DocMarkdown DocFormat = "markdown"
	DocJSON     DocFormat = "json"
	DocTree     DocFormat = "tree"
)

// ParseDocFormat parses a document format string.
func ParseDocFormat(formatStr string) (DocFormat, error) {
	switch formatStr {
	case "html", "":
		return DocHTML, nil
	case "markdown", "md":
		return DocMarkdown, nil
	case "json":
		return DocJSON, nil
	case "tree":
		return DocTree, nil
	default:
		return "", fmt.Errorf("unknown format %q; valid formats: html, markdown, json, tree", formatStr)
	}
}
