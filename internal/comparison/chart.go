package comparison

import "github.com/ZanzyTHEbar/profile-insights/internal/types"

// Chart holds one bar series per metric over the successful subjects.
// Stars are divided by 100 so they share an axis with the 0-100 scores.
type Chart struct {
	Labels        []string  `json:"labels"`
	Activity      []float64 `json:"activity"`
	Community     []float64 `json:"community"`
	StarsHundreds []float64 `json:"stars_hundreds"`
}

// BuildChart derives the chart series. Failed subjects are left out.
func BuildChart(r types.ComparisonResult) Chart {
	ok := Successful(r)
	c := Chart{
		Labels:        make([]string, 0, len(ok)),
		Activity:      make([]float64, 0, len(ok)),
		Community:     make([]float64, 0, len(ok)),
		StarsHundreds: make([]float64, 0, len(ok)),
	}
	for _, e := range ok {
		c.Labels = append(c.Labels, e.Username)
		c.Activity = append(c.Activity, float64(e.Data.ActivityLevel))
		c.Community = append(c.Community, float64(e.Data.SkillAssessment.CommunityImpact))
		c.StarsHundreds = append(c.StarsHundreds, e.Data.TotalStars/100)
	}
	return c
}
