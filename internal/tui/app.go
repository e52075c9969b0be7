package tui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ZanzyTHEbar/profile-insights/internal/analysis"
	"github.com/ZanzyTHEbar/profile-insights/internal/comparison"
	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
	"github.com/ZanzyTHEbar/profile-insights/internal/render"
	"github.com/ZanzyTHEbar/profile-insights/internal/session"
	"github.com/ZanzyTHEbar/profile-insights/internal/types"
)

const defaultTimeout = 30 * time.Second

// Fetcher is the part of the analytics client the UI needs
type Fetcher interface {
	FetchProfile(ctx context.Context, username string) (*types.ProfileAnalysis, error)
	CompareProfiles(ctx context.Context, usernames []string) ([]types.UpstreamComparisonEntry, error)
}

type profileLoadedMsg struct {
	ticket  session.Ticket
	profile *types.ProfileAnalysis
	err     error
}

type comparisonLoadedMsg struct {
	ticket session.Ticket
	result types.ComparisonResult
	err    error
}

type copiedMsg struct {
	err error
}

// App is the root bubbletea model
type App struct {
	fetcher   Fetcher
	analyzer  *analysis.Analyzer
	assembler *comparison.Assembler
	session   *session.Session
	guard     *render.Guard

	input     string
	lastQuery []string
	view      analysis.ViewOptions
	timeout   time.Duration
	status    string

	width  int
	height int

	copy func(string) error
}

// Option configures an App
type Option func(*App)

// WithTimeout bounds each fetch
func WithTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithClipboard replaces the system clipboard writer
func WithClipboard(fn func(string) error) Option {
	return func(a *App) {
		a.copy = fn
	}
}

// WithRenderer replaces the text renderer used for results
func WithRenderer(r render.Renderer) Option {
	return func(a *App) {
		a.guard = render.NewGuard(r, nil)
	}
}

// NewApp creates the root model. The initial query, if any, is submitted on
// Init.
func NewApp(f Fetcher, initial string, opts ...Option) App {
	analyzer := analysis.NewAnalyzer()
	a := App{
		fetcher:   f,
		analyzer:  analyzer,
		assembler: comparison.NewBatchAssembler(f, analyzer),
		session:   session.New(),
		guard:     render.NewGuard(render.NewTextRenderer(), nil),
		input:     strings.TrimSpace(initial),
		lastQuery: parseQuery(initial),
		view:      analysis.DefaultViewOptions(),
		timeout:   defaultTimeout,
		copy:      clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Session exposes the request state machine
func (a App) Session() *session.Session { return a.session }

func (a App) Init() tea.Cmd {
	if a.input == "" {
		return nil
	}
	return a.submit()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case profileLoadedMsg:
		if msg.err != nil {
			a.session.Reject(msg.ticket, msg.err)
		} else {
			a.session.Resolve(msg.ticket, msg.profile)
		}
		return a, nil

	case comparisonLoadedMsg:
		if msg.err != nil {
			a.session.Reject(msg.ticket, msg.err)
		} else {
			a.session.Resolve(msg.ticket, msg.result)
		}
		return a, nil

	case copiedMsg:
		if msg.err != nil {
			a.status = "copy failed: " + msg.err.Error()
		} else {
			a.status = "copied summary"
		}
		return a, nil
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "esc":
		a.session.Clear()
		a.lastQuery = nil
		a.status = ""
		return a, nil

	case "enter":
		a.status = ""
		cmd := a.submit()
		return a, cmd

	case "ctrl+s":
		a.view.Sort = nextSort(a.view.Sort)
		a.status = "sort: " + string(a.view.Sort)
		return a, nil

	case "ctrl+l":
		if p := a.currentProfile(); p != nil {
			options := a.analyzer.Analyze(p, a.view).LanguageOptions
			a.view.LanguageFilter = nextOption(options, a.view.LanguageFilter)
			a.status = "language: " + a.view.LanguageFilter
		}
		return a, nil

	case "ctrl+r":
		return a.retry()

	case "ctrl+y":
		text := Summary(a.session.Snapshot(), a.analyzer, a.view)
		if text == "" {
			a.status = "nothing to copy"
			return a, nil
		}
		copyFn := a.copy
		return a, func() tea.Msg {
			return copiedMsg{err: copyFn(text)}
		}

	case "backspace":
		a.input = editRune(a.input, "backspace")
		return a, nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		a.input = editRune(a.input, string(msg.Runes))
	case tea.KeySpace:
		a.input = editRune(a.input, " ")
	}
	return a, nil
}

// submit starts a profile lookup for one name and a comparison for several.
// Blank input fails validation without reaching the network.
func (a *App) submit() tea.Cmd {
	names := parseQuery(a.input)
	a.lastQuery = names
	a.view = analysis.DefaultViewOptions()

	if len(names) == 0 {
		t := a.session.Begin(session.KindProfile)
		a.session.Reject(t, errors.NewValidationError("enter a username"))
		return nil
	}
	if len(names) == 1 {
		return a.loadProfile(names[0])
	}
	return a.loadComparison(names)
}

func (a *App) loadProfile(username string) tea.Cmd {
	t := a.session.Begin(session.KindProfile)
	fetcher, timeout := a.fetcher, a.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		p, err := fetcher.FetchProfile(ctx, username)
		return profileLoadedMsg{ticket: t, profile: p, err: err}
	}
}

func (a *App) loadComparison(usernames []string) tea.Cmd {
	t := a.session.Begin(session.KindComparison)
	assembler, timeout := a.assembler, a.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		result, err := assembler.Compare(ctx, usernames)
		return comparisonLoadedMsg{ticket: t, result: result, err: err}
	}
}

// retry re-renders after a render failure, otherwise re-runs a failed query
func (a App) retry() (tea.Model, tea.Cmd) {
	if a.guard.Failed() {
		a.status = "retrying render"
		_ = a.guard.Retry(io.Discard)
		return a, nil
	}

	snap := a.session.Snapshot()
	if snap.State != session.Error || len(a.lastQuery) == 0 {
		return a, nil
	}
	a.status = ""
	var cmd tea.Cmd
	if len(a.lastQuery) == 1 {
		cmd = a.loadProfile(a.lastQuery[0])
	} else {
		cmd = a.loadComparison(a.lastQuery)
	}
	return a, cmd
}

func (a App) currentProfile() *types.ProfileAnalysis {
	snap := a.session.Snapshot()
	if snap.State != session.Success {
		return nil
	}
	p, _ := snap.Value.(*types.ProfileAnalysis)
	return p
}

func (a App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("profile insights"))
	b.WriteString("\n\n")
	b.WriteString(inputPromptStyle.Render("> "))
	if a.input == "" {
		b.WriteString(inputPlaceholderStyle.Render("username, or several separated by commas"))
	} else {
		b.WriteString(a.input)
	}
	b.WriteString("\n\n")

	snap := a.session.Snapshot()
	switch snap.State {
	case session.Idle:
		b.WriteString(dimStyle.Render("Type a username and press enter."))
	case session.Loading:
		if snap.Kind == session.KindComparison {
			b.WriteString(loadingStyle.Render("Comparing profiles..."))
		} else {
			b.WriteString(loadingStyle.Render("Analyzing profile..."))
		}
	case session.Error:
		b.WriteString(errorStyle.Render(errorText(snap.Err)))
	case session.Success:
		b.WriteString(a.renderValue(snap.Value))
	}
	b.WriteString("\n\n")

	if a.status != "" {
		b.WriteString(statusStyle.Render(a.status))
		b.WriteString("\n")
	}
	b.WriteString(renderHelp(
		"enter", "search",
		"ctrl+s", "sort",
		"ctrl+l", "language",
		"ctrl+r", "retry",
		"ctrl+y", "copy",
		"esc", "clear",
		"ctrl+c", "quit",
	))

	return truncateToHeight(b.String(), a.height)
}

func (a App) renderValue(v interface{}) string {
	var buf bytes.Buffer
	switch v := v.(type) {
	case *types.ProfileAnalysis:
		_ = a.guard.Render(&buf, a.analyzer.Analyze(v, a.view))
	default:
		_ = a.guard.Render(&buf, v)
	}
	out := strings.TrimRight(buf.String(), "\n")
	if a.width > 4 {
		return bodyStyle.Width(a.width - 4).Render(out)
	}
	return bodyStyle.Render(out)
}

func errorText(err error) string {
	if err == nil {
		return "Request failed"
	}
	return errors.ToAppError(err).Message()
}

func nextSort(k analysis.SortKey) analysis.SortKey {
	order := []analysis.SortKey{analysis.SortByStars, analysis.SortByForks, analysis.SortByRecent, analysis.SortByName}
	for i, o := range order {
		if o == k {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

func nextOption(options []string, current string) string {
	if len(options) == 0 {
		return analysis.AllLanguages
	}
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}
