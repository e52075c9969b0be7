package analysis

import (
	"math"
	"strings"

	"github.com/ZanzyTHEbar/profile-insights/internal/types"
)

// Preprocessor cleans repository records before derivation
type Preprocessor struct{}

// NewPreprocessor creates a new preprocessor
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// ProcessRepositories returns a cleaned copy of repos. The input is not
// modified and no record is dropped: records sharing a name each keep their
// language weight and their place in the list.
func (p *Preprocessor) ProcessRepositories(repos []types.RepositoryRecord) []types.RepositoryRecord {
	cleaned := make([]types.RepositoryRecord, 0, len(repos))
	for _, repo := range repos {
		cleaned = append(cleaned, p.sanitize(repo))
	}
	return cleaned
}

// sanitize zeroes counters that are negative or not finite and drops a
// non-finite server popularity so the derived fallback is used instead
func (p *Preprocessor) sanitize(repo types.RepositoryRecord) types.RepositoryRecord {
	repo.Name = strings.TrimSpace(repo.Name)
	repo.Stars = finite(repo.Stars)
	repo.Forks = finite(repo.Forks)
	repo.SizeKB = finite(repo.SizeKB)

	if repo.PopularityScore != nil {
		v := *repo.PopularityScore
		if math.IsNaN(v) || math.IsInf(v, 0) {
			repo.PopularityScore = nil
		}
	}
	return repo
}
