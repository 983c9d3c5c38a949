package refresh

import (
	"fmt"
	"slices"
	"time"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

// Significance grades a metadata change.
type Significance int

// Significance levels, ordered.
const (
	SignificanceNone Significance = iota
	SignificanceMinor
	SignificanceMajor
	SignificanceCritical
)

func (s Significance) String() string {
	switch s {
	case SignificanceMinor:
		return "minor"
	case SignificanceMajor:
		return "major"
	case SignificanceCritical:
		return "critical"
	default:
		return "none"
	}
}

// Star deltas that count as changes.
const (
	minorStarDelta = 10
	majorStarDelta = 100
)

// ReviewAge is how long a tool may go without a meaningful change before
// it is considered stale.
const ReviewAge = 90 * 24 * time.Hour

// Change describes what differs between stored and fetched metadata.
type Change struct {
	Fields       []string
	Significance Significance
}

// Meaningful reports whether the change should move the tool's last
// modified date.
func (c Change) Meaningful() bool {
	return c.Significance >= SignificanceMajor
}

// DetectChanges compares a stored tool with freshly fetched metadata.
// Description changes are critical; topic, language and large star changes
// are major; small star changes are minor.
func DetectChanges(current *catalog.Tool, updated catalog.Metadata) Change {
	var c Change
	raise := func(s Significance) {
		if s > c.Significance {
			c.Significance = s
		}
	}

	if current.Description != updated.Description {
		c.Fields = append(c.Fields, "description")
		raise(SignificanceCritical)
	}
	if !slices.Equal(normalizeTopics(current.Topics), normalizeTopics(updated.Topics)) {
		c.Fields = append(c.Fields, "topics")
		raise(SignificanceMajor)
	}
	if current.Language != updated.Language {
		c.Fields = append(c.Fields, "language")
		raise(SignificanceMajor)
	}

	delta := current.Stars - updated.Stars
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta > majorStarDelta:
		c.Fields = append(c.Fields, fmt.Sprintf("stars (%d change)", delta))
		raise(SignificanceMajor)
	case delta > minorStarDelta:
		c.Fields = append(c.Fields, fmt.Sprintf("stars (%d change)", delta))
		raise(SignificanceMinor)
	}
	return c
}

func normalizeTopics(t []string) []string {
	if len(t) == 0 {
		return nil
	}
	return t
}

// NeedsReview reports whether lastUpdated is unknown or older than ReviewAge.
func NeedsReview(lastUpdated, now time.Time) bool {
	return lastUpdated.IsZero() || lastUpdated.Before(now.Add(-ReviewAge))
}
