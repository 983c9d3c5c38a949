package catalog

import (
	"sort"
	"strings"

	"github.com/derekparker/trie"
)

func buildNameIndex(tools []Tool) *trie.Trie {
	t := trie.New()
	for _, tool := range tools {
		t.Add(strings.ToLower(tool.RepoName), tool.RepoName)
	}
	return t
}

func suggest(index *trie.Trie, prefix string, n int) []string {
	keys := index.PrefixSearch(prefix)
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[:n]
	}

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		node, ok := index.Find(k)
		if !ok {
			continue
		}
		if name, ok := node.Meta().(string); ok {
			out = append(out, name)
		}
	}
	return out
}
