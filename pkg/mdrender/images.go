package mdrender

import "strings"

// RawContentHost serves raw repository files.
const RawContentHost = "https://raw.githubusercontent.com"

//nolint:gochecknoglobals // Read-only lookup table.
var githubPrefixes = []string{
	"https://github.com/",
	"http://github.com/",
	"https://www.github.com/",
	"http://www.github.com/",
}

// resolver rewrites relative image sources against a repository.
type resolver struct {
	slug   string
	branch string
}

func newResolver(baseRepoURL, branch string) resolver {
	base := strings.TrimSpace(baseRepoURL)
	if base == "" {
		return resolver{}
	}
	for _, prefix := range githubPrefixes {
		if strings.HasPrefix(base, prefix) {
			base = base[len(prefix):]
			break
		}
	}
	base = strings.TrimSuffix(base, "/")
	base = strings.TrimSuffix(base, ".git")
	if parts := strings.Split(base, "/"); len(parts) > 2 {
		base = parts[0] + "/" + parts[1]
	}
	return resolver{slug: base, branch: branch}
}

func (r resolver) resolve(src string) string {
	if r.slug == "" || src == "" {
		return src
	}
	if strings.HasPrefix(src, "http") || strings.HasPrefix(src, "data:") || strings.HasPrefix(src, "//") {
		return src
	}
	path := strings.TrimPrefix(src, "./")
	path = strings.TrimLeft(path, "/")
	return RawContentHost + "/" + r.slug + "/" + r.branch + "/" + path
}

// BranchFallbacks lists the sources to try, in order, when src fails to
// load. A main branch path falls back to master and then develop; a master
// path falls back to develop. Other sources have no fallbacks.
func BranchFallbacks(src string) []string {
	switch {
	case strings.Contains(src, "/main/"):
		master := strings.Replace(src, "/main/", "/master/", 1)
		return []string{master, strings.Replace(master, "/master/", "/develop/", 1)}
	case strings.Contains(src, "/master/"):
		return []string{strings.Replace(src, "/master/", "/develop/", 1)}
	default:
		return nil
	}
}

// ResolveImage resolves an image source the way Render does. An empty
// branch means DefaultBranch.
func ResolveImage(src, baseRepoURL, branch string) string {
	if branch == "" {
		branch = DefaultBranch
	}
	return newResolver(baseRepoURL, branch).resolve(src)
}
