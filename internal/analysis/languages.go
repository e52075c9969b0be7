package analysis

import (
	"sort"

	"github.com/ZanzyTHEbar/profile-insights/internal/types"
)

// LanguageWeight is one entry of a language distribution
type LanguageWeight struct {
	Language string  `json:"language"`
	Weight   float64 `json:"weight"`
	Share    float64 `json:"share"`
}

// LanguageAggregator accumulates per-repository language percentages
type LanguageAggregator struct {
	data map[string]float64
}

func NewLanguageAggregator() *LanguageAggregator {
	return &LanguageAggregator{data: make(map[string]float64)}
}

// Add folds one repository into the accumulator. Repositories without a
// usable percentage map contribute nothing.
func (la *LanguageAggregator) Add(repo types.RepositoryRecord) {
	for lang, pct := range repo.LanguagePercentages {
		la.data[lang] += finite(pct)
	}
}

func (la *LanguageAggregator) GetAll() map[string]float64 {
	return la.data
}

// AggregateLanguages sums language percentages across repositories. The
// result is a weight, not a percentage: a language present in many
// repositories can exceed 100. An empty input yields an empty map.
func AggregateLanguages(repos []types.RepositoryRecord) map[string]float64 {
	la := NewLanguageAggregator()
	for _, repo := range repos {
		la.Add(repo)
	}
	return la.GetAll()
}

// LanguageDistribution orders weights for display, heaviest first, and adds
// each language's share of the total. It returns nil when there is nothing
// to show so callers render a "no data" state instead of dividing by zero.
func LanguageDistribution(weights map[string]float64) []LanguageWeight {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if len(weights) == 0 || total <= 0 {
		return nil
	}

	out := make([]LanguageWeight, 0, len(weights))
	for lang, w := range weights {
		out = append(out, LanguageWeight{
			Language: lang,
			Weight:   w,
			Share:    w / total * 100,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Language < out[j].Language
	})

	return out
}
