package mdrender

import (
	"regexp"
	"strings"
)

//nolint:gochecknoglobals // Compiled patterns are immutable.
var (
	refDefPattern       = regexp.MustCompile(`^ {0,3}\[([^\]]+)\]:\s*<?([^\s>]+)>?(?:\s+(?:"[^"]*"|'[^']*'|\([^)]*\)))?\s*$`)
	refImageLinkPattern = regexp.MustCompile(`\[!\[([^\]]*)\]\[([^\]]*)\]\]\[([^\]]*)\]`)
	refImagePattern     = regexp.MustCompile(`!\[([^\]]*)\]\[([^\]]*)\]`)
	refWrappedPattern   = regexp.MustCompile(`\[(!\[[^\]]*\]\([^)\s]*\))\]\[([^\]]*)\]`)
	refLinkPattern      = regexp.MustCompile(`\[([^\]]+)\]\[([^\]]*)\]`)
)

// resolveReferences rewrites reference-style links and images to their
// inline form and removes the definitions. Fenced code is left alone.
func resolveReferences(text string) string {
	if !strings.Contains(text, "]:") {
		return text
	}

	lines := strings.Split(text, "\n")
	defs := make(map[string]string)
	drop := make(map[int]bool)

	inFence := false
	for i, line := range lines {
		if isFence(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if m := refDefPattern.FindStringSubmatch(line); m != nil {
			label := normalizeLabel(m[1])
			if _, seen := defs[label]; !seen {
				defs[label] = m[2]
			}
			drop[i] = true
		}
	}
	if len(defs) == 0 {
		return text
	}

	out := make([]string, 0, len(lines))
	inFence = false
	for i, line := range lines {
		if isFence(line) {
			inFence = !inFence
			out = append(out, line)
			continue
		}
		if drop[i] {
			continue
		}
		if !inFence && strings.Contains(line, "][") {
			line = rewriteReferences(line, defs)
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func rewriteReferences(line string, defs map[string]string) string {
	lookup := func(label, fallback string) (string, bool) {
		if strings.TrimSpace(label) == "" {
			label = fallback
		}
		url, ok := defs[normalizeLabel(label)]
		return url, ok
	}

	line = refImageLinkPattern.ReplaceAllStringFunc(line, func(match string) string {
		m := refImageLinkPattern.FindStringSubmatch(match)
		img, okImg := lookup(m[2], m[1])
		href, okHref := lookup(m[3], m[1])
		if !okImg || !okHref {
			return match
		}
		return "[![" + m[1] + "](" + img + ")](" + href + ")"
	})

	line = refImagePattern.ReplaceAllStringFunc(line, func(match string) string {
		m := refImagePattern.FindStringSubmatch(match)
		img, ok := lookup(m[2], m[1])
		if !ok {
			return match
		}
		return "![" + m[1] + "](" + img + ")"
	})

	line = refWrappedPattern.ReplaceAllStringFunc(line, func(match string) string {
		m := refWrappedPattern.FindStringSubmatch(match)
		href, ok := lookup(m[2], "")
		if !ok {
			return match
		}
		return "[" + m[1] + "](" + href + ")"
	})

	return refLinkPattern.ReplaceAllStringFunc(line, func(match string) string {
		m := refLinkPattern.FindStringSubmatch(match)
		href, ok := lookup(m[2], m[1])
		if !ok {
			return match
		}
		return "[" + m[1] + "](" + href + ")"
	})
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

func isFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}
