package comparison

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/profile-insights/internal/analysis"
	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
	"github.com/ZanzyTHEbar/profile-insights/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBatch struct {
	calls   int
	got     []string
	entries []types.UpstreamComparisonEntry
	err     error
}

func (f *fakeBatch) CompareProfiles(ctx context.Context, usernames []string) ([]types.UpstreamComparisonEntry, error) {
	f.calls++
	f.got = usernames
	return f.entries, f.err
}

type fakeProfiles struct {
	mu         sync.Mutex
	calls      int
	profiles   map[string]*types.ProfileAnalysis
	afterFetch func()
}

func (f *fakeProfiles) FetchProfile(ctx context.Context, username string) (*types.ProfileAnalysis, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.afterFetch != nil {
		defer f.afterFetch()
	}
	if p, ok := f.profiles[username]; ok {
		return p, nil
	}
	return nil, errors.NewNetworkError("User not found", nil)
}

func profile(username string, activity, stars float64) *types.ProfileAnalysis {
	return &types.ProfileAnalysis{
		Profile:          types.Profile{Username: username},
		AggregateMetrics: types.AggregateMetrics{TotalStars: stars, AverageStars: 1, RepoCount: 4},
		ActivityScore:    activity,
		CommunityImpact:  20,
		SkillLevel:       "intermediate",
	}
}

func testAnalyzer() *analysis.Analyzer {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return analysis.NewAnalyzer().WithClock(func() time.Time { return now })
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
		errText  string
	}{
		{name: "single username", input: []string{"alice"}, errText: "need at least 2 usernames"},
		{name: "blanks do not count", input: []string{"alice", "  ", ""}, errText: "need at least 2 usernames"},
		{name: "too many", input: []string{"a", "b", "c", "d", "e", "f"}, errText: "at most 5 usernames"},
		{name: "trims and keeps order", input: []string{" bob ", "", "alice"}, expected: []string{"bob", "alice"}},
		{name: "five is allowed", input: []string{"a", "b", "c", "d", "e"}, expected: []string{"a", "b", "c", "d", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.errText != "" {
				require.Error(t, err)
				assert.True(t, errors.IsValidation(err))
				assert.Equal(t, tt.errText, errors.ToAppError(err).Message())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCompare_ValidationSkipsFetch(t *testing.T) {
	batch := &fakeBatch{}
	_, err := NewBatchAssembler(batch, testAnalyzer()).Compare(context.Background(), []string{"alice"})
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 0, batch.calls)

	single := &fakeProfiles{}
	_, err = NewAssembler(single, testAnalyzer()).Compare(context.Background(), []string{"a"})
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 0, single.calls)
}

func TestCompare_BatchPartialFailure(t *testing.T) {
	batch := &fakeBatch{entries: []types.UpstreamComparisonEntry{
		{Username: "alice", Success: true, Data: profile("alice", 80, 1200)},
		{Username: "bob", Success: false, Error: "User not found"},
	}}

	result, err := NewBatchAssembler(batch, testAnalyzer()).Compare(context.Background(), []string{"alice", "bob"})
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "alice", result[0].Username)
	assert.True(t, result[0].Success)
	assert.Equal(t, 80, result[0].Data.ActivityLevel)
	assert.Equal(t, "bob", result[1].Username)
	assert.False(t, result[1].Success)
	assert.Equal(t, "User not found", result[1].Error)

	assert.Len(t, Successful(result), 1)
	assert.Len(t, Failed(result), 1)
	assert.Equal(t, []string{"alice", "bob"}, batch.got)
}

func TestCompare_BatchMapping(t *testing.T) {
	tests := []struct {
		name    string
		entries []types.UpstreamComparisonEntry
		check   func(t *testing.T, r types.ComparisonResult)
	}{
		{
			name: "reordered response maps back by name",
			entries: []types.UpstreamComparisonEntry{
				{Username: "Bob", Success: true, Data: profile("bob", 10, 0)},
				{Username: "alice", Success: true, Data: profile("alice", 90, 0)},
			},
			check: func(t *testing.T, r types.ComparisonResult) {
				assert.Equal(t, 90, r[0].Data.ActivityLevel)
				assert.Equal(t, 10, r[1].Data.ActivityLevel)
			},
		},
		{
			name: "unnamed entries map by index",
			entries: []types.UpstreamComparisonEntry{
				{Success: true, Data: profile("", 30, 0)},
				{Success: true, Data: profile("", 60, 0)},
			},
			check: func(t *testing.T, r types.ComparisonResult) {
				assert.Equal(t, "alice", r[0].Data.Username)
				assert.Equal(t, 60, r[1].Data.ActivityLevel)
			},
		},
		{
			name: "missing entry",
			entries: []types.UpstreamComparisonEntry{
				{Username: "alice", Success: true, Data: profile("alice", 30, 0)},
			},
			check: func(t *testing.T, r types.ComparisonResult) {
				assert.True(t, r[0].Success)
				assert.False(t, r[1].Success)
				assert.Equal(t, "no result returned", r[1].Error)
			},
		},
		{
			name: "success without data",
			entries: []types.UpstreamComparisonEntry{
				{Username: "alice", Success: true},
				{Username: "bob", Success: false},
			},
			check: func(t *testing.T, r types.ComparisonResult) {
				assert.Equal(t, "no data returned", r[0].Error)
				assert.Equal(t, "analysis failed", r[1].Error)
				assert.Empty(t, Successful(r))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := &fakeBatch{entries: tt.entries}
			result, err := NewBatchAssembler(batch, testAnalyzer()).Compare(context.Background(), []string{"alice", "bob"})
			require.NoError(t, err)
			require.Len(t, result, 2)
			tt.check(t, result)
		})
	}
}

func TestCompare_BatchTransportFailure(t *testing.T) {
	batch := &fakeBatch{err: errors.NewTimeoutError("upstream timed out", nil)}

	result, err := NewBatchAssembler(batch, nil).Compare(context.Background(), []string{"alice", "bob"})

	assert.Nil(t, result)
	assert.True(t, errors.IsTransport(err))
}

func TestCompare_Independent(t *testing.T) {
	single := &fakeProfiles{profiles: map[string]*types.ProfileAnalysis{
		"alice": profile("alice", 70, 300),
		"carol": profile("carol", 40, 50),
	}}

	result, err := NewAssembler(single, testAnalyzer()).Compare(context.Background(), []string{"alice", "bob", "carol"})
	require.NoError(t, err)

	require.Len(t, result, 3)
	assert.Equal(t, 3, single.calls)
	assert.True(t, result[0].Success)
	assert.False(t, result[1].Success)
	assert.Equal(t, "User not found", result[1].Error)
	assert.True(t, result[2].Success)

	failed := Failed(result)
	require.Len(t, failed, 1)
	assert.Equal(t, "bob", failed[0].Username)
}

func TestCompare_IndependentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAssembler(&fakeProfiles{}, nil).Compare(ctx, []string{"alice", "bob"})
	assert.True(t, errors.IsTransport(err))
}

func TestCompare_IndependentKeepsResultFinishedBeforeDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &fakeProfiles{
		profiles: map[string]*types.ProfileAnalysis{
			"alice": profile("alice", 80, 100),
			"bob":   profile("bob", 40, 10),
		},
		afterFetch: cancel,
	}

	result, err := NewAssembler(f, testAnalyzer()).Compare(ctx, []string{"alice", "bob"})

	require.NoError(t, err)
	require.Error(t, ctx.Err())
	require.Len(t, result, 2)
	assert.True(t, result[0].Success)
	assert.True(t, result[1].Success)
}

func TestBuildChart(t *testing.T) {
	result := types.ComparisonResult{
		{Username: "alice", Success: true, Data: &types.ComparisonSubject{
			AggregateMetrics: types.AggregateMetrics{TotalStars: 1250},
			SkillAssessment:  types.SkillAssessment{ActivityLevel: 80, CommunityImpact: 35},
		}},
		{Username: "bob", Success: false, Error: "User not found"},
	}

	chart := BuildChart(result)

	assert.Equal(t, []string{"alice"}, chart.Labels)
	assert.Equal(t, []float64{80}, chart.Activity)
	assert.Equal(t, []float64{35}, chart.Community)
	assert.Equal(t, []float64{12.5}, chart.StarsHundreds)
}
