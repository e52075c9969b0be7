package analysis

import (
	"time"

	"github.com/ZanzyTHEbar/profile-insights/internal/types"
)

// ViewOptions selects how repositories are presented
type ViewOptions struct {
	Sort           SortKey
	LanguageFilter string
}

// DefaultViewOptions sorts by stars and shows every language
func DefaultViewOptions() ViewOptions {
	return ViewOptions{Sort: SortByStars, LanguageFilter: AllLanguages}
}

// Insights is everything the presentation layer needs for one profile
type Insights struct {
	Profile          types.Profile          `json:"profile"`
	Metrics          types.AggregateMetrics `json:"metrics"`
	ActivityScore    float64                `json:"activity_score"`
	CommunityImpact  float64                `json:"community_impact"`
	SkillLevel       string                 `json:"skill_level"`
	PrimaryLanguages []string               `json:"primary_languages"`
	Skills           types.SkillAssessment  `json:"skills"`
	Languages        []LanguageWeight       `json:"languages"`
	Repositories     []RankedRepository     `json:"repositories"`
	RepositoryCount  int                    `json:"repository_count"`
	LanguageOptions  []string               `json:"language_options"`
	Activity         ActivitySeries         `json:"activity"`
	View             ViewOptions            `json:"view"`
}

// HasLanguageData reports whether a language chart can be drawn
func (i Insights) HasLanguageData() bool {
	return len(i.Languages) > 0
}

// Analyzer orchestrates the derivation pipeline for one profile
type Analyzer struct {
	preprocessor *Preprocessor
	now          func() time.Time
}

// NewAnalyzer creates a new analyzer that evaluates experience against the
// wall clock
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		preprocessor: NewPreprocessor(),
		now:          time.Now,
	}
}

// WithClock replaces the evaluation clock
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Assess computes the skill assessment for an upstream profile payload
func (a *Analyzer) Assess(p *types.ProfileAnalysis) types.SkillAssessment {
	if p == nil {
		return types.SkillAssessment{}
	}
	return AssessSkills(p.Aggregates(), p.ActivityScore, p.CommunityImpact, p.JoinedDate.Time, a.now())
}

// Analyze derives the full insight bundle. Every derivation is recomputed
// from p; a nil payload yields an empty bundle with "no data" collections.
func (a *Analyzer) Analyze(p *types.ProfileAnalysis, opts ViewOptions) Insights {
	if opts.Sort == "" {
		opts.Sort = SortByStars
	}
	if opts.LanguageFilter == "" {
		opts.LanguageFilter = AllLanguages
	}

	if p == nil {
		return Insights{
			Repositories:    []RankedRepository{},
			LanguageOptions: []string{AllLanguages},
			Activity:        NewActivitySynthesizer(0).Synthesize(0),
			View:            opts,
		}
	}

	repos := a.preprocessor.ProcessRepositories(p.RepositoryAnalysis)

	return Insights{
		Profile:          p.Profile,
		Metrics:          p.Aggregates(),
		ActivityScore:    finite(p.ActivityScore),
		CommunityImpact:  finite(p.CommunityImpact),
		SkillLevel:       p.SkillLevel,
		PrimaryLanguages: p.PrimaryLanguages,
		Skills:           a.Assess(p),
		Languages:        LanguageDistribution(AggregateLanguages(repos)),
		Repositories:     RankRepositories(repos, opts.Sort, opts.LanguageFilter),
		RepositoryCount:  len(repos),
		LanguageOptions:  LanguageOptions(repos),
		Activity:         NewActivitySynthesizer(SeedFor(p.Username)).Synthesize(p.ActivityScore),
		View:             opts,
	}
}

// Subject builds the comparison view of one profile
func (a *Analyzer) Subject(p *types.ProfileAnalysis) *types.ComparisonSubject {
	if p == nil {
		return nil
	}
	return &types.ComparisonSubject{
		Profile:          p.Profile,
		AggregateMetrics: p.Aggregates(),
		SkillAssessment:  a.Assess(p),
		SkillLevel:       p.SkillLevel,
	}
}
