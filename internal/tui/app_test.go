package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/profile-insights/internal/analysis"
	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
	"github.com/ZanzyTHEbar/profile-insights/internal/render"
	"github.com/ZanzyTHEbar/profile-insights/internal/session"
	"github.com/ZanzyTHEbar/profile-insights/internal/types"
)

type fakeFetcher struct {
	mu       sync.Mutex
	calls    int
	failures map[string]error
}

func (f *fakeFetcher) FetchProfile(_ context.Context, username string) (*types.ProfileAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.failures[username]; ok {
		return nil, err
	}
	return sampleProfile(username), nil
}

func (f *fakeFetcher) CompareProfiles(_ context.Context, usernames []string) ([]types.UpstreamComparisonEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([]types.UpstreamComparisonEntry, 0, len(usernames))
	for _, u := range usernames {
		if err, ok := f.failures[u]; ok {
			out = append(out, types.UpstreamComparisonEntry{Username: u, Error: err.Error()})
			continue
		}
		out = append(out, types.UpstreamComparisonEntry{Username: u, Success: true, Data: sampleProfile(u)})
	}
	return out, nil
}

func sampleProfile(username string) *types.ProfileAnalysis {
	return &types.ProfileAnalysis{
		Profile:          types.Profile{Username: username, Followers: 42},
		AggregateMetrics: types.AggregateMetrics{TotalStars: 30, RepoCount: 2},
		RepositoryAnalysis: []types.RepositoryRecord{
			{Name: "api", Language: "Go", Stars: 20},
			{Name: "site", Language: "JavaScript", Stars: 10},
		},
		ActivityScore:    55,
		CommunityImpact:  20,
		SkillLevel:       "intermediate",
		PrimaryLanguages: []string{"Go", "JavaScript"},
	}
}

func typeText(t *testing.T, app App, text string) App {
	t.Helper()
	for _, r := range text {
		var msg tea.KeyMsg
		if r == ' ' {
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		}
		model, _ := app.Update(msg)
		app = model.(App)
	}
	return app
}

func press(app App, key tea.KeyType) (App, tea.Cmd) {
	model, cmd := app.Update(tea.KeyMsg{Type: key})
	return model.(App), cmd
}

// settle runs cmd synchronously and feeds its message back
func settle(t *testing.T, app App, cmd tea.Cmd) App {
	t.Helper()
	require.NotNil(t, cmd)
	model, _ := app.Update(cmd())
	return model.(App)
}

func TestApp_ProfileLookup(t *testing.T) {
	f := &fakeFetcher{}
	app := typeText(t, NewApp(f, ""), "octocat")
	app, cmd := press(app, tea.KeyEnter)

	assert.Equal(t, session.Loading, app.Session().Snapshot().State)
	assert.Contains(t, app.View(), "Analyzing profile")

	app = settle(t, app, cmd)
	snap := app.Session().Snapshot()
	assert.Equal(t, session.Success, snap.State)
	assert.Equal(t, session.KindProfile, snap.Kind)

	view := app.View()
	assert.Contains(t, view, "octocat")
	assert.Contains(t, view, "api")
}

func TestApp_ComparisonLookup(t *testing.T) {
	f := &fakeFetcher{failures: map[string]error{"ghost": fmt.Errorf("User not found")}}
	app := typeText(t, NewApp(f, ""), "alice, bob ghost")
	app, cmd := press(app, tea.KeyEnter)

	assert.Equal(t, session.KindComparison, app.Session().Snapshot().Kind)
	assert.Contains(t, app.View(), "Comparing profiles")

	app = settle(t, app, cmd)
	snap := app.Session().Snapshot()
	require.Equal(t, session.Success, snap.State)

	result, ok := snap.Value.(types.ComparisonResult)
	require.True(t, ok)
	require.Len(t, result, 3)
	assert.True(t, result[0].Success)
	assert.False(t, result[2].Success)
	assert.Contains(t, app.View(), "Comparison of 3 profiles")
}

func TestApp_BlankInputFailsWithoutFetching(t *testing.T) {
	f := &fakeFetcher{}
	app, cmd := press(NewApp(f, ""), tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Zero(t, f.calls)

	snap := app.Session().Snapshot()
	assert.Equal(t, session.Error, snap.State)
	assert.True(t, errors.IsValidation(snap.Err))
	assert.Contains(t, app.View(), "enter a username")
}

func TestApp_StaleResponseIsDiscarded(t *testing.T) {
	f := &fakeFetcher{}
	app := typeText(t, NewApp(f, ""), "first")
	app, firstCmd := press(app, tea.KeyEnter)

	for range "first" {
		app, _ = press(app, tea.KeyBackspace)
	}
	app = typeText(t, app, "second")
	app, secondCmd := press(app, tea.KeyEnter)

	app = settle(t, app, secondCmd)
	app = settle(t, app, firstCmd)

	snap := app.Session().Snapshot()
	require.Equal(t, session.Success, snap.State)
	assert.Equal(t, "second", snap.Value.(*types.ProfileAnalysis).Username)
	assert.Equal(t, uint64(1), snap.Discarded)
}

func TestApp_EscClearsAndDropsInFlight(t *testing.T) {
	app := typeText(t, NewApp(&fakeFetcher{}, ""), "octocat")
	app, cmd := press(app, tea.KeyEnter)
	app, _ = press(app, tea.KeyEsc)

	app = settle(t, app, cmd)
	assert.Equal(t, session.Idle, app.Session().Snapshot().State)
	assert.Contains(t, app.View(), "Type a username")
}

func TestApp_SortAndLanguageCycle(t *testing.T) {
	app := typeText(t, NewApp(&fakeFetcher{}, ""), "octocat")
	app, cmd := press(app, tea.KeyEnter)
	app = settle(t, app, cmd)

	app, _ = press(app, tea.KeyCtrlS)
	assert.Equal(t, analysis.SortByForks, app.view.Sort)
	app, _ = press(app, tea.KeyCtrlS)
	app, _ = press(app, tea.KeyCtrlS)
	app, _ = press(app, tea.KeyCtrlS)
	assert.Equal(t, analysis.SortByStars, app.view.Sort)

	app, _ = press(app, tea.KeyCtrlL)
	assert.Equal(t, "Go", app.view.LanguageFilter)
	view := app.View()
	assert.Contains(t, view, "api")
	assert.NotContains(t, view, "site")

	app, _ = press(app, tea.KeyCtrlL)
	app, _ = press(app, tea.KeyCtrlL)
	assert.Equal(t, analysis.AllLanguages, app.view.LanguageFilter)
}

func TestApp_RetryAfterFetchError(t *testing.T) {
	f := &fakeFetcher{failures: map[string]error{"octocat": errors.NewNetworkError("Analytics service unreachable", nil)}}
	app := typeText(t, NewApp(f, ""), "octocat")
	app, cmd := press(app, tea.KeyEnter)
	app = settle(t, app, cmd)

	require.Equal(t, session.Error, app.Session().Snapshot().State)
	assert.Contains(t, app.View(), "Analytics service unreachable")

	f.mu.Lock()
	delete(f.failures, "octocat")
	f.mu.Unlock()

	app, cmd = press(app, tea.KeyCtrlR)
	app = settle(t, app, cmd)
	assert.Equal(t, session.Success, app.Session().Snapshot().State)
}

func TestApp_RenderFailureFallsBackUntilRetry(t *testing.T) {
	broken := true
	renderer := render.RendererFunc(func(w io.Writer, v any) error {
		if broken {
			panic("layout exploded")
		}
		_, err := io.WriteString(w, "rendered fine")
		return err
	})

	app := typeText(t, NewApp(&fakeFetcher{}, "", WithRenderer(renderer)), "octocat")
	app, cmd := press(app, tea.KeyEnter)
	app = settle(t, app, cmd)

	view := app.View()
	assert.Contains(t, view, "Something went wrong")
	assert.Contains(t, view, "layout exploded")

	broken = false
	assert.Contains(t, app.View(), "Something went wrong", "fallback holds until retry")

	app, cmd = press(app, tea.KeyCtrlR)
	assert.Nil(t, cmd)
	assert.Contains(t, app.View(), "rendered fine")
}

func TestApp_CopySummary(t *testing.T) {
	var copied string
	app := NewApp(&fakeFetcher{}, "", WithClipboard(func(s string) error {
		copied = s
		return nil
	}))

	app, cmd := press(app, tea.KeyCtrlY)
	assert.Nil(t, cmd)
	assert.Equal(t, "nothing to copy", app.status)

	app = typeText(t, app, "octocat")
	app, cmd = press(app, tea.KeyEnter)
	app = settle(t, app, cmd)

	app, cmd = press(app, tea.KeyCtrlY)
	app = settle(t, app, cmd)

	assert.Equal(t, "copied summary", app.status)
	assert.True(t, strings.HasPrefix(copied, "octocat (intermediate)"))
	assert.Contains(t, copied, "languages: Go, JavaScript")
}

func TestApp_InitialQuery(t *testing.T) {
	app := NewApp(&fakeFetcher{}, "alice,bob")
	cmd := app.Init()
	require.NotNil(t, cmd)

	app = settle(t, app, cmd)
	assert.Equal(t, session.KindComparison, app.Session().Snapshot().Kind)
	assert.Equal(t, session.Success, app.Session().Snapshot().State)

	assert.Nil(t, NewApp(&fakeFetcher{}, "  ").Init())
}

func TestApp_CtrlCQuits(t *testing.T) {
	_, cmd := press(NewApp(&fakeFetcher{}, ""), tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestEditRune(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  string
		want string
	}{
		{"append", "ab", "c", "abc"},
		{"backspace", "abc", "backspace", "ab"},
		{"backspace empty", "", "backspace", ""},
		{"backspace multibyte", "jö", "backspace", "j"},
		{"ignore named key", "ab", "tab", "ab"},
		{"length cap", strings.Repeat("a", maxInputLen), "b", strings.Repeat("a", maxInputLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, editRune(tt.text, tt.key))
		})
	}
}

func TestParseQuery(t *testing.T) {
	assert.Equal(t, []string{"alice"}, parseQuery("  alice "))
	assert.Equal(t, []string{"alice", "bob", "carol"}, parseQuery("alice, bob,carol"))
	assert.Empty(t, parseQuery(" , "))
}
