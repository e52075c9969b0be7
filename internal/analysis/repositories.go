package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/profile-insights/internal/types"
)

// SortKey selects the repository ordering
type SortKey string

const (
	SortByStars  SortKey = "stars"
	SortByForks  SortKey = "forks"
	SortByRecent SortKey = "recent"
	SortByName   SortKey = "name"
)

// AllLanguages is the language filter value that passes every repository
const AllLanguages = "all"

// ParseSortKey validates a user-supplied sort key. An empty key means stars.
func ParseSortKey(s string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(s))); key {
	case "":
		return SortByStars, nil
	case SortByStars, SortByForks, SortByRecent, SortByName:
		return key, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want stars, forks, recent or name)", s)
	}
}

// RankedRepository pairs a repository with its display popularity
type RankedRepository struct {
	types.RepositoryRecord
	Popularity float64 `json:"popularity"`
}

// ViewRepositories filters by exact language (or AllLanguages) and sorts
// with a stable sort, so equal keys keep their input order. The input slice
// is never reordered.
func ViewRepositories(repos []types.RepositoryRecord, key SortKey, languageFilter string) []types.RepositoryRecord {
	out := make([]types.RepositoryRecord, 0, len(repos))
	for _, repo := range repos {
		if languageFilter == AllLanguages || repo.Language == languageFilter {
			out = append(out, repo)
		}
	}

	var less func(a, b types.RepositoryRecord) bool
	switch key {
	case SortByStars:
		less = func(a, b types.RepositoryRecord) bool { return a.Stars > b.Stars }
	case SortByForks:
		less = func(a, b types.RepositoryRecord) bool { return a.Forks > b.Forks }
	case SortByRecent:
		less = func(a, b types.RepositoryRecord) bool { return a.LastUpdated.After(b.LastUpdated.Time) }
	case SortByName:
		less = func(a, b types.RepositoryRecord) bool { return a.Name < b.Name }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

// PopularityScore prefers the service-supplied value and otherwise derives
// (stars*2 + forks) / (size_kb/1000 + 1). The record is not modified.
func PopularityScore(repo types.RepositoryRecord) float64 {
	if repo.PopularityScore != nil {
		return finite(*repo.PopularityScore)
	}
	return (finite(repo.Stars)*2 + finite(repo.Forks)) / (finite(repo.SizeKB)/1000 + 1)
}

// RankRepositories applies ViewRepositories and attaches popularity scores
func RankRepositories(repos []types.RepositoryRecord, key SortKey, languageFilter string) []RankedRepository {
	view := ViewRepositories(repos, key, languageFilter)
	ranked := make([]RankedRepository, len(view))
	for i, repo := range view {
		ranked[i] = RankedRepository{RepositoryRecord: repo, Popularity: PopularityScore(repo)}
	}
	return ranked
}

// LanguageOptions lists the filter choices: AllLanguages followed by each
// distinct non-empty language in first-seen order.
func LanguageOptions(repos []types.RepositoryRecord) []string {
	seen := make(map[string]bool)
	opts := []string{AllLanguages}
	for _, repo := range repos {
		if repo.Language == "" || seen[repo.Language] {
			continue
		}
		seen[repo.Language] = true
		opts = append(opts, repo.Language)
	}
	return opts
}
