package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ZanzyTHEbar/profile-insights/internal/analysis"
	"github.com/ZanzyTHEbar/profile-insights/internal/comparison"
	"github.com/ZanzyTHEbar/profile-insights/internal/types"
)

// Neutral values shown in place of missing fields
const (
	NotSpecified    = "Not specified"
	NotAvailable    = "N/A"
	UnnamedRepo     = "Unnamed Repository"
	NoLanguageData  = "No language data available"
	NoRepositories  = "No repositories match the current filter"
	NoSuccessfulRun = "No profiles could be compared"
)

const (
	barWidth         = 20
	maxLanguageRows  = 8
	dateLayout       = "Jan 2, 2006"
	defaultRepoLimit = 10
)

type styles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	dim     lipgloss.Style
	accent  lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	badge   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Foreground(lipgloss.Color("#e4e4ec")).Bold(true),
		heading: r.NewStyle().Foreground(lipgloss.Color("#34d474")).Bold(true).MarginTop(1),
		label:   r.NewStyle().Foreground(lipgloss.Color("#8890a0")).Width(20),
		value:   r.NewStyle().Foreground(lipgloss.Color("#c0c4d0")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("#505868")),
		accent:  r.NewStyle().Foreground(lipgloss.Color("#4ade80")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#d4a844")),
		bad:     r.NewStyle().Foreground(lipgloss.Color("#b45555")),
		badge:   r.NewStyle().Foreground(lipgloss.Color("#c8a84c")).Bold(true),
	}
}

// TextRenderer draws insights, comparisons and health for a terminal
type TextRenderer struct {
	// RepoLimit caps the repository list; zero or less shows the default.
	RepoLimit int
}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{RepoLimit: defaultRepoLimit}
}

func (t *TextRenderer) Render(w io.Writer, v any) error {
	st := newStyles(lipgloss.NewRenderer(w))

	var out string
	switch v := v.(type) {
	case analysis.Insights:
		out = t.insights(st, v)
	case *analysis.Insights:
		if v == nil {
			return fmt.Errorf("render: nil insights")
		}
		out = t.insights(st, *v)
	case types.ComparisonResult:
		out = t.comparison(st, v)
	case types.HealthResponse:
		out = t.health(st, v)
	default:
		return fmt.Errorf("render: unsupported value %T", v)
	}

	_, err := io.WriteString(w, out+"\n")
	return err
}

func (t *TextRenderer) insights(st styles, in analysis.Insights) string {
	var b strings.Builder
	p := in.Profile

	name := p.DisplayName
	if name == "" {
		name = p.Username
	}
	b.WriteString(st.title.Render(orDefault(name, NotAvailable)))
	b.WriteString("  " + st.badge.Render(TitleCase(orDefault(in.SkillLevel, NotAvailable))))
	b.WriteString("\n")
	if p.Username != "" {
		b.WriteString(st.dim.Render("@"+p.Username) + "\n")
	}
	if p.Bio != "" {
		b.WriteString(st.value.Render(p.Bio) + "\n")
	}

	b.WriteString(st.heading.Render("Profile") + "\n")
	row(&b, st, "Joined", formatDate(p.JoinedDate))
	row(&b, st, "Location", orDefault(p.Location, NotSpecified))
	row(&b, st, "Company", orDefault(p.Company, NotSpecified))
	row(&b, st, "Blog", orDefault(p.Blog, NotSpecified))

	b.WriteString(st.heading.Render("Stats") + "\n")
	row(&b, st, "Total Stars", formatCount(in.Metrics.TotalStars))
	row(&b, st, "Total Forks", formatCount(in.Metrics.TotalForks))
	row(&b, st, "Followers", formatCount(float64(p.Followers)))
	row(&b, st, "Following", formatCount(float64(p.Following)))
	row(&b, st, "Public Repos", formatCount(float64(p.PublicRepos)))
	row(&b, st, "Activity Score", formatPercent(in.ActivityScore))
	row(&b, st, "Community Impact", formatPercent(in.CommunityImpact))
	if len(in.PrimaryLanguages) > 0 {
		row(&b, st, "Primary Languages", strings.Join(in.PrimaryLanguages, ", "))
	}

	b.WriteString(st.heading.Render("Skills") + "\n")
	for _, d := range in.Skills.Dimensions() {
		fmt.Fprintf(&b, "%s%s %3d\n", st.label.Render(d.Label), st.accent.Render(bar(float64(d.Score), 100)), d.Score)
	}

	b.WriteString(st.heading.Render("Languages") + "\n")
	if !in.HasLanguageData() {
		b.WriteString(st.dim.Render(NoLanguageData) + "\n")
	} else {
		for i, lw := range in.Languages {
			if i == maxLanguageRows {
				fmt.Fprintf(&b, "%s\n", st.dim.Render(fmt.Sprintf("+%d more", len(in.Languages)-maxLanguageRows)))
				break
			}
			fmt.Fprintf(&b, "%s%s %5.1f%%\n", st.label.Render(lw.Language), st.accent.Render(bar(lw.Share, 100)), lw.Share)
		}
	}

	t.repositories(&b, st, in)
	activity(&b, st, in.Activity)

	return strings.TrimRight(b.String(), "\n")
}

func (t *TextRenderer) repositories(b *strings.Builder, st styles, in analysis.Insights) {
	limit := t.RepoLimit
	if limit <= 0 {
		limit = defaultRepoLimit
	}

	b.WriteString(st.heading.Render(fmt.Sprintf("Repositories (%d of %d, by %s, language %s)",
		min(limit, len(in.Repositories)), in.RepositoryCount, in.View.Sort, in.View.LanguageFilter)) + "\n")

	if len(in.Repositories) == 0 {
		b.WriteString(st.dim.Render(NoRepositories) + "\n")
		return
	}

	for i, repo := range in.Repositories {
		if i == limit {
			break
		}
		pop := st.dim
		switch {
		case repo.Popularity > 50:
			pop = st.accent
		case repo.Popularity > 20:
			pop = st.warn
		}
		fmt.Fprintf(b, "%s  %s  ★ %s  ⑂ %s  %s  %s\n",
			st.value.Bold(true).Render(orDefault(repo.Name, UnnamedRepo)),
			st.dim.Render(orDefault(repo.Language, NotAvailable)),
			formatCount(repo.Stars),
			formatCount(repo.Forks),
			pop.Render("popularity "+strconv.FormatFloat(math.Round(repo.Popularity), 'f', 0, 64)),
			st.dim.Render("updated "+formatDate(repo.LastUpdated)),
		)
		if repo.Description != "" {
			b.WriteString("  " + st.dim.Render(repo.Description) + "\n")
		}
	}
}

func activity(b *strings.Builder, st styles, s analysis.ActivitySeries) {
	title := "Activity"
	if s.Synthetic {
		title += " (estimated)"
	}
	b.WriteString(st.heading.Render(title) + "\n")

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(append([]string{""}, s.Months...)...)
	tbl.Row(append([]string{"Commits"}, itoaAll(s.Commits)...)...)
	tbl.Row(append([]string{"PRs"}, itoaAll(s.PRs)...)...)
	tbl.Row(append([]string{"Issues"}, itoaAll(s.Issues)...)...)
	b.WriteString(tbl.String() + "\n")
}

func (t *TextRenderer) comparison(st styles, r types.ComparisonResult) string {
	var b strings.Builder
	ok := comparison.Successful(r)

	b.WriteString(st.title.Render(fmt.Sprintf("Comparison of %d profiles", len(r))) + "\n")

	if len(ok) == 0 {
		b.WriteString(st.dim.Render(NoSuccessfulRun) + "\n")
	} else {
		headers := []string{"Metric"}
		for _, e := range ok {
			headers = append(headers, e.Username)
		}
		tbl := table.New().Border(lipgloss.NormalBorder()).Headers(headers...)

		metric := func(label string, f func(s *types.ComparisonSubject) string) {
			cells := []string{label}
			for _, e := range ok {
				cells = append(cells, f(e.Data))
			}
			tbl.Row(cells...)
		}
		metric("Activity Score", func(s *types.ComparisonSubject) string { return strconv.Itoa(s.ActivityLevel) + "%" })
		metric("Community Impact", func(s *types.ComparisonSubject) string { return strconv.Itoa(s.SkillAssessment.CommunityImpact) + "%" })
		metric("Followers", func(s *types.ComparisonSubject) string { return formatCount(float64(s.Followers)) })
		metric("Public Repos", func(s *types.ComparisonSubject) string { return formatCount(float64(s.PublicRepos)) })
		metric("Total Stars", func(s *types.ComparisonSubject) string { return formatCount(s.TotalStars) })
		metric("Total Forks", func(s *types.ComparisonSubject) string { return formatCount(s.TotalForks) })
		metric("Skill Level", func(s *types.ComparisonSubject) string { return TitleCase(orDefault(s.SkillLevel, NotAvailable)) })
		b.WriteString(tbl.String() + "\n")

		chart := comparison.BuildChart(r)
		b.WriteString(st.heading.Render("Chart") + "\n")
		for i, label := range chart.Labels {
			b.WriteString(st.value.Render(label) + "\n")
			fmt.Fprintf(&b, "  %s%s %6.1f\n", st.label.Render("Activity"), st.accent.Render(bar(chart.Activity[i], 100)), chart.Activity[i])
			fmt.Fprintf(&b, "  %s%s %6.1f\n", st.label.Render("Community"), st.accent.Render(bar(chart.Community[i], 100)), chart.Community[i])
			fmt.Fprintf(&b, "  %s%s %6.1f\n", st.label.Render("Stars (x100)"), st.warn.Render(bar(chart.StarsHundreds[i], 100)), chart.StarsHundreds[i])
		}
	}

	if failed := comparison.Failed(r); len(failed) > 0 {
		b.WriteString(st.heading.Render("Failed") + "\n")
		for _, e := range failed {
			b.WriteString(st.bad.Render("✗ "+e.Username) + st.dim.Render(": "+e.Error) + "\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func (t *TextRenderer) health(st styles, h types.HealthResponse) string {
	status := orDefault(h.Status, "unknown")
	if h.Healthy() {
		return st.label.Render("Analytics service") + st.accent.Render("● "+status)
	}
	return st.label.Render("Analytics service") + st.bad.Render("● "+status)
}

// FailureRenderer is the fallback view of a RenderFailure
type FailureRenderer struct{}

func NewFailureRenderer() *FailureRenderer {
	return &FailureRenderer{}
}

func (FailureRenderer) Render(w io.Writer, v any) error {
	st := newStyles(lipgloss.NewRenderer(w))
	detail := "unknown error"
	switch f := v.(type) {
	case RenderFailure:
		detail = f.Error()
	case error:
		detail = f.Error()
	}

	out := st.bad.Bold(true).Render("Something went wrong") + "\n" +
		st.value.Render("There was an error rendering this view.") + "\n" +
		st.dim.Render("Error details: "+detail) + "\n"
	_, err := io.WriteString(w, out)
	return err
}

// TitleCase upper-cases the first letter only
func TitleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func row(b *strings.Builder, st styles, label, value string) {
	b.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func formatDate(ts types.Timestamp) string {
	if ts.IsZero() {
		return NotAvailable
	}
	return ts.Format(dateLayout)
}

func formatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64) + "%"
}

// formatCount prints a whole number with thousands separators
func formatCount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	digits := strconv.FormatFloat(math.Abs(math.Round(v)), 'f', 0, 64)

	var b strings.Builder
	if v <= -0.5 {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func bar(v, full float64) string {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > full {
		v = full
	}
	filled := int(math.Round(v / full * barWidth))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func itoaAll(vs []int) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = strconv.Itoa(v)
	}
	return out
}
