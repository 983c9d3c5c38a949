package refresh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

func TestDetectChanges(t *testing.T) {
	t.Parallel()

	base := catalog.Tool{Description: "d", Stars: 100, Language: "Go", Topics: []string{"mcp"}}

	tests := []struct {
		name       string
		update     catalog.Metadata
		want       Significance
		wantFields []string
	}{
		{name: "identical", update: catalog.Metadata{Description: "d", Stars: 100, Language: "Go", Topics: []string{"mcp"}}},
		{name: "few stars", update: catalog.Metadata{Description: "d", Stars: 105, Language: "Go", Topics: []string{"mcp"}}},
		{name: "some stars", update: catalog.Metadata{Description: "d", Stars: 150, Language: "Go", Topics: []string{"mcp"}},
			want: SignificanceMinor, wantFields: []string{"stars (50 change)"}},
		{name: "many stars", update: catalog.Metadata{Description: "d", Stars: 300, Language: "Go", Topics: []string{"mcp"}},
			want: SignificanceMajor, wantFields: []string{"stars (200 change)"}},
		{name: "language", update: catalog.Metadata{Description: "d", Stars: 100, Language: "Rust", Topics: []string{"mcp"}},
			want: SignificanceMajor, wantFields: []string{"language"}},
		{name: "topics", update: catalog.Metadata{Description: "d", Stars: 100, Language: "Go"},
			want: SignificanceMajor, wantFields: []string{"topics"}},
		{name: "description wins", update: catalog.Metadata{Description: "e", Stars: 150, Language: "Go", Topics: []string{"mcp"}},
			want: SignificanceCritical, wantFields: []string{"description", "stars (50 change)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := DetectChanges(&base, tt.update)
			assert.Equal(t, tt.want, got.Significance)
			assert.Equal(t, tt.wantFields, got.Fields)
			assert.Equal(t, tt.want >= SignificanceMajor, got.Meaningful())
		})
	}
}

func TestEmptyTopicsAreEqual(t *testing.T) {
	t.Parallel()

	got := DetectChanges(&catalog.Tool{Topics: []string{}}, catalog.Metadata{})
	assert.Equal(t, SignificanceNone, got.Significance)
}

func TestNeedsReview(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, NeedsReview(time.Time{}, now))
	assert.True(t, NeedsReview(now.Add(-91*24*time.Hour), now))
	assert.False(t, NeedsReview(now.Add(-89*24*time.Hour), now))
}

func TestSignificanceString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", SignificanceNone.String())
	assert.Equal(t, "critical", SignificanceCritical.String())
}
