package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Profile holds identity and descriptive fields for one developer
type Profile struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"name,omitempty"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `json:"bio,omitempty"`
	Company     string    `json:"company,omitempty"`
	Location    string    `json:"location,omitempty"`
	Blog        string    `json:"blog,omitempty"`
	JoinedDate  Timestamp `json:"joined_date"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	PublicRepos int       `json:"public_repos"`
}

// AggregateMetrics are the summary numbers computed upstream
type AggregateMetrics struct {
	TotalStars      float64 `json:"total_stars"`
	TotalForks      float64 `json:"total_forks"`
	AverageStars    float64 `json:"average_stars"`
	AverageForks    float64 `json:"average_forks"`
	RepoCount       float64 `json:"repo_count"`
	LanguagesUsed   float64 `json:"languages_used"`
	TotalRepoSizeMB float64 `json:"total_repo_size_mb"`
}

// IsZero reports whether no metric was supplied
func (m AggregateMetrics) IsZero() bool {
	return m == AggregateMetrics{}
}

// RepositoryRecord is one repository as returned by the analytics service
type RepositoryRecord struct {
	Name                string         `json:"name"`
	Description         string         `json:"description,omitempty"`
	Language            string         `json:"language,omitempty"`
	Stars               float64        `json:"stars"`
	Forks               float64        `json:"forks"`
	SizeKB              float64        `json:"size_kb"`
	LastUpdated         Timestamp      `json:"last_updated"`
	LanguagePercentages LanguageShares `json:"language_percentages"`
	PopularityScore     *float64       `json:"popularity_score,omitempty"`
}

// SkillAssessment holds six scores, each in [0,100]
type SkillAssessment struct {
	CodeQuality       int `json:"code_quality"`
	ActivityLevel     int `json:"activity_level"`
	CommunityImpact   int `json:"community_impact"`
	ProjectScale      int `json:"project_scale"`
	LanguageDiversity int `json:"language_diversity"`
	ExperienceLevel   int `json:"experience_level"`
}

// Dimensions returns the scores in display order with their labels
func (s SkillAssessment) Dimensions() []SkillDimension {
	return []SkillDimension{
		{Label: "Code Quality", Score: s.CodeQuality},
		{Label: "Activity Level", Score: s.ActivityLevel},
		{Label: "Community Impact", Score: s.CommunityImpact},
		{Label: "Project Scale", Score: s.ProjectScale},
		{Label: "Language Diversity", Score: s.LanguageDiversity},
		{Label: "Experience Level", Score: s.ExperienceLevel},
	}
}

// SkillDimension is one labelled skill score
type SkillDimension struct {
	Label string `json:"label"`
	Score int    `json:"score"`
}

// ProfileAnalysis is the data payload of the upstream profile endpoint.
// Metrics are accepted flat or nested under "metrics"; nested wins.
type ProfileAnalysis struct {
	Profile
	AggregateMetrics
	Metrics            *AggregateMetrics  `json:"metrics,omitempty"`
	RepositoryAnalysis []RepositoryRecord `json:"repository_analysis"`
	ActivityScore      float64            `json:"activity_score"`
	CommunityImpact    float64            `json:"community_impact"`
	SkillLevel         string             `json:"skill_level"`
	PrimaryLanguages   []string           `json:"primary_languages"`
}

// Aggregates returns the metrics regardless of which shape the service used
func (p *ProfileAnalysis) Aggregates() AggregateMetrics {
	if p.Metrics != nil && !p.Metrics.IsZero() {
		return *p.Metrics
	}
	return p.AggregateMetrics
}

// ProfileResponse is the envelope of GET /analytics/profile/{username}
type ProfileResponse struct {
	Success bool             `json:"success"`
	Data    *ProfileAnalysis `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// CompareRequest is the body of POST /analytics/compare
type CompareRequest struct {
	Usernames []string `json:"usernames"`
}

// CompareResponse is the envelope of POST /analytics/compare
type CompareResponse struct {
	Success     bool                      `json:"success"`
	Comparisons []UpstreamComparisonEntry `json:"comparisons,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

// UpstreamComparisonEntry is one subject as the analytics service reports it
type UpstreamComparisonEntry struct {
	Username string           `json:"username,omitempty"`
	Success  bool             `json:"success"`
	Data     *ProfileAnalysis `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// Healthy reports whether the service declared itself healthy
func (h HealthResponse) Healthy() bool {
	return h.Status == "healthy"
}

// ComparisonSubject is Profile & AggregateMetrics & SkillAssessment for one
// user. The upstream activity and community scalars live in the embedded
// SkillAssessment as ActivityLevel and CommunityImpact.
type ComparisonSubject struct {
	Profile
	AggregateMetrics
	SkillAssessment
	SkillLevel string `json:"skill_level"`
}

// ComparisonSubjectResult is the tagged outcome for one requested username
type ComparisonSubjectResult struct {
	Username string             `json:"username"`
	Success  bool               `json:"success"`
	Data     *ComparisonSubject `json:"data,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// ComparisonResult preserves request order
type ComparisonResult []ComparisonSubjectResult

// LanguageShares maps language name to percentage of one repository's code.
// Any value that is not a JSON object decodes to an empty map, and entries
// that are not non-negative finite numbers are dropped.
type LanguageShares map[string]float64

func (l *LanguageShares) UnmarshalJSON(data []byte) error {
	*l = nil

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil
	}

	shares := make(LanguageShares, len(raw))
	for lang, v := range raw {
		var pct float64
		if err := json.Unmarshal(v, &pct); err != nil {
			continue
		}
		if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 {
			continue
		}
		shares[lang] = pct
	}
	*l = shares
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp decodes the formats the analytics service has been seen to emit.
// Unparseable or missing values decode to the zero time.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}
