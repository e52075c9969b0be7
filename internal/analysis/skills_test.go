package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/profile-insights/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAssessSkills(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		metrics   types.AggregateMetrics
		activity  float64
		community float64
		joined    time.Time
		check     func(t *testing.T, s types.SkillAssessment)
	}{
		{
			name:    "project scale from repo count and size",
			metrics: types.AggregateMetrics{RepoCount: 10, TotalRepoSizeMB: 50},
			check: func(t *testing.T, s types.SkillAssessment) {
				assert.Equal(t, 25, s.ProjectScale)
			},
		},
		{
			name:    "language diversity from languages used",
			metrics: types.AggregateMetrics{LanguagesUsed: 5},
			check: func(t *testing.T, s types.SkillAssessment) {
				assert.Equal(t, 75, s.LanguageDiversity)
			},
		},
		{
			name:    "code quality from average stars and forks",
			metrics: types.AggregateMetrics{AverageStars: 3, AverageForks: 2},
			check: func(t *testing.T, s types.SkillAssessment) {
				assert.Equal(t, 40, s.CodeQuality)
			},
		},
		{
			name:   "experience caps at ten years",
			joined: now.AddDate(0, 0, -3650),
			check: func(t *testing.T, s types.SkillAssessment) {
				assert.Equal(t, 100, s.ExperienceLevel)
			},
		},
		{
			name:   "one year of experience",
			joined: now.Add(-365 * 24 * time.Hour),
			check: func(t *testing.T, s types.SkillAssessment) {
				assert.Equal(t, 10, s.ExperienceLevel)
			},
		},
		{
			name:   "future join date counts as zero",
			joined: now.Add(48 * time.Hour),
			check: func(t *testing.T, s types.SkillAssessment) {
				assert.Equal(t, 0, s.ExperienceLevel)
			},
		},
		{
			name: "unknown join date counts as zero",
			check: func(t *testing.T, s types.SkillAssessment) {
				assert.Equal(t, 0, s.ExperienceLevel)
			},
		},
		{
			name:      "activity and community pass through rounded",
			activity:  72.4,
			community: 33.5,
			check: func(t *testing.T, s types.SkillAssessment) {
				assert.Equal(t, 72, s.ActivityLevel)
				assert.Equal(t, 34, s.CommunityImpact)
			},
		},
		{
			name:      "large inputs clamp to 100",
			metrics:   types.AggregateMetrics{AverageStars: 500, AverageForks: 90, RepoCount: 300, TotalRepoSizeMB: 1e6, LanguagesUsed: 40},
			activity:  250,
			community: 1e9,
			check: func(t *testing.T, s types.SkillAssessment) {
				assert.Equal(t, types.SkillAssessment{
					CodeQuality:       100,
					ActivityLevel:     100,
					CommunityImpact:   100,
					ProjectScale:      100,
					LanguageDiversity: 100,
					ExperienceLevel:   0,
				}, s)
			},
		},
		{
			name:      "negative and non-finite inputs floor at zero",
			metrics:   types.AggregateMetrics{AverageStars: -4, AverageForks: math.NaN(), RepoCount: math.Inf(1), LanguagesUsed: -1},
			activity:  math.NaN(),
			community: -20,
			check: func(t *testing.T, s types.SkillAssessment) {
				assert.Equal(t, types.SkillAssessment{}, s)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := AssessSkills(tt.metrics, tt.activity, tt.community, tt.joined, now)
			tt.check(t, s)
		})
	}
}

func TestAssessSkills_AlwaysBounded(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{-1e9, -1, 0, 0.49, 0.5, 7, 99.5, 100, 101, 1e12, math.NaN(), math.Inf(1), math.Inf(-1)}

	for _, v := range values {
		m := types.AggregateMetrics{
			TotalStars: v, TotalForks: v, AverageStars: v, AverageForks: v,
			RepoCount: v, LanguagesUsed: v, TotalRepoSizeMB: v,
		}
		s := AssessSkills(m, v, v, now.AddDate(-30, 0, 0), now)
		for _, d := range s.Dimensions() {
			assert.GreaterOrEqual(t, d.Score, 0, "%s for input %v", d.Label, v)
			assert.LessOrEqual(t, d.Score, 100, "%s for input %v", d.Label, v)
		}
	}
}
