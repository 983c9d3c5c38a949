package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

//nolint:gochecknoglobals // fzf keeps its scheme in package state.
var fzfInit sync.Once

// rankFuzzy scores each tool name against query and returns the best limit
// matches, highest score first, stars breaking ties.
func rankFuzzy(query string, tools []Tool, limit int) []Tool {
	fzfInit.Do(func() { algo.Init("default") })

	pattern := []rune(strings.ToLower(query))
	slab := util.MakeSlab(16384, 1024)

	type scored struct {
		tool  Tool
		score int
	}
	var hits []scored
	for _, t := range tools {
		chars := util.ToChars([]byte(strings.ToLower(t.RepoName)))
		res, _ := algo.FuzzyMatchV2(false, false, true, &chars, pattern, false, slab)
		if res.Start < 0 || res.Score <= 0 {
			continue
		}
		hits = append(hits, scored{tool: t, score: res.Score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].tool.Stars > hits[j].tool.Stars
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Tool, len(hits))
	for i, h := range hits {
		out[i] = h.tool
	}
	return out
}
