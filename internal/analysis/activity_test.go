package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivitySynthesizer_Deterministic(t *testing.T) {
	a := NewActivitySynthesizer(SeedFor("octocat")).Synthesize(64)
	b := NewActivitySynthesizer(SeedFor("octocat")).Synthesize(64)

	assert.Equal(t, a, b)
	assert.True(t, a.Synthetic)
}

func TestActivitySynthesizer_Ranges(t *testing.T) {
	tests := []struct {
		name  string
		score float64
	}{
		{name: "zero activity", score: 0},
		{name: "moderate activity", score: 48},
		{name: "maximum activity", score: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := NewActivitySynthesizer(7).Synthesize(tt.score)

			require.Len(t, series.Months, 12)
			require.Len(t, series.Commits, 12)
			require.Len(t, series.PRs, 12)
			require.Len(t, series.Issues, 12)
			assert.Equal(t, "Jan", series.Months[0])
			assert.Equal(t, "Dec", series.Months[11])

			for i := 0; i < 12; i++ {
				assert.GreaterOrEqual(t, series.Commits[i], int(tt.score/2))
				assert.Less(t, series.Commits[i], int(tt.score/2)+30+1)
				assert.GreaterOrEqual(t, series.PRs[i], int(tt.score/6))
				assert.Less(t, series.PRs[i], int(tt.score/6)+10+1)
				assert.GreaterOrEqual(t, series.Issues[i], int(tt.score/8))
				assert.Less(t, series.Issues[i], int(tt.score/8)+8+1)
			}
		})
	}
}

func TestActivitySynthesizer_MonthsNotShared(t *testing.T) {
	series := NewActivitySynthesizer(1).Synthesize(10)
	series.Months[0] = "changed"

	assert.Equal(t, "Jan", NewActivitySynthesizer(1).Synthesize(10).Months[0])
}

func TestSeedFor(t *testing.T) {
	assert.Equal(t, SeedFor("Octocat"), SeedFor(" octocat "))
	assert.NotEqual(t, SeedFor("octocat"), SeedFor("hubot"))
}
