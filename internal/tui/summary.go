package tui

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/profile-insights/internal/analysis"
	"github.com/ZanzyTHEbar/profile-insights/internal/session"
	"github.com/ZanzyTHEbar/profile-insights/internal/types"
)

// Summary is the plain-text digest copied to the clipboard. It is empty
// unless the session holds a result.
func Summary(snap session.Snapshot, analyzer *analysis.Analyzer, view analysis.ViewOptions) string {
	if snap.State != session.Success {
		return ""
	}

	switch v := snap.Value.(type) {
	case *types.ProfileAnalysis:
		if v == nil {
			return ""
		}
		return profileSummary(analyzer.Analyze(v, view))
	case types.ComparisonResult:
		return comparisonSummary(v)
	default:
		return ""
	}
}

func profileSummary(in analysis.Insights) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", in.Profile.Username, in.SkillLevel)
	fmt.Fprintf(&b, "activity %.0f%%, community %.0f%%\n", in.ActivityScore, in.CommunityImpact)
	fmt.Fprintf(&b, "%.0f stars across %d repositories\n", in.Metrics.TotalStars, in.RepositoryCount)
	if len(in.PrimaryLanguages) > 0 {
		fmt.Fprintf(&b, "languages: %s\n", strings.Join(in.PrimaryLanguages, ", "))
	}
	return b.String()
}

func comparisonSummary(r types.ComparisonResult) string {
	var b strings.Builder
	for _, s := range r {
		if !s.Success || s.Data == nil {
			fmt.Fprintf(&b, "%s: failed (%s)\n", s.Username, s.Error)
			continue
		}
		fmt.Fprintf(&b, "%s: %s, activity %d%%, community %d%%, %.0f stars\n",
			s.Username, s.Data.SkillLevel, s.Data.ActivityLevel, s.Data.CommunityImpact, s.Data.TotalStars)
	}
	return b.String()
}
