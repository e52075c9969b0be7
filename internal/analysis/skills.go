package analysis

import (
	"math"
	"time"

	"github.com/ZanzyTHEbar/profile-insights/internal/types"
)

const (
	starWeight     = 10.0
	forkWeight     = 5.0
	repoWeight     = 2.0
	sizeDivisorMB  = 10.0
	languageWeight = 15.0
	daysPerPoint   = 36.5 // ~10 years to reach 100
)

// AssessSkills computes the six heuristic skill dimensions. Every input is
// treated as zero when negative, NaN or infinite, and every output is an
// integer in [0,100]. Experience is measured against now, so it drifts
// between calls for accounts near the cap.
func AssessSkills(m types.AggregateMetrics, activityScore, communityImpact float64, joined, now time.Time) types.SkillAssessment {
	codeQuality := math.Min(finite(m.AverageStars)*starWeight+finite(m.AverageForks)*forkWeight, 100)
	projectScale := math.Min(finite(m.RepoCount)*repoWeight+finite(m.TotalRepoSizeMB)/sizeDivisorMB, 100)
	languageDiversity := math.Min(finite(m.LanguagesUsed)*languageWeight, 100)

	return types.SkillAssessment{
		CodeQuality:       bounded(codeQuality),
		ActivityLevel:     bounded(finite(activityScore)),
		CommunityImpact:   bounded(finite(communityImpact)),
		ProjectScale:      bounded(projectScale),
		LanguageDiversity: bounded(languageDiversity),
		ExperienceLevel:   bounded(math.Min(daysSince(joined, now)/daysPerPoint, 100)),
	}
}

// daysSince returns fractional days between joined and now, zero when the
// join date is unknown or in the future.
func daysSince(joined, now time.Time) float64 {
	if joined.IsZero() {
		return 0
	}
	return finite(now.Sub(joined).Hours() / 24)
}
