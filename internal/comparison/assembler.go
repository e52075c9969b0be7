package comparison

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ZanzyTHEbar/profile-insights/internal/analysis"
	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
	"github.com/ZanzyTHEbar/profile-insights/internal/types"
	"golang.org/x/sync/errgroup"
)

const (
	MinSubjects = 2
	MaxSubjects = 5

	maxConcurrentFetches = 5
)

// BatchFetcher fetches every subject in one aggregate request
type BatchFetcher interface {
	CompareProfiles(ctx context.Context, usernames []string) ([]types.UpstreamComparisonEntry, error)
}

// ProfileFetcher fetches one subject at a time
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, username string) (*types.ProfileAnalysis, error)
}

// Assembler builds an ordered ComparisonResult for 2 to 5 usernames
type Assembler struct {
	batch    BatchFetcher
	single   ProfileFetcher
	analyzer *analysis.Analyzer
}

// NewBatchAssembler compares through one aggregate request
func NewBatchAssembler(f BatchFetcher, analyzer *analysis.Analyzer) *Assembler {
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer()
	}
	return &Assembler{batch: f, analyzer: analyzer}
}

// NewAssembler compares by fetching each profile independently
func NewAssembler(f ProfileFetcher, analyzer *analysis.Analyzer) *Assembler {
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer()
	}
	return &Assembler{single: f, analyzer: analyzer}
}

// Normalize trims usernames, drops blanks and enforces the subject count
func Normalize(usernames []string) ([]string, error) {
	out := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}

	switch {
	case len(out) < MinSubjects:
		return nil, errors.NewValidationError(fmt.Sprintf("need at least %d usernames", MinSubjects))
	case len(out) > MaxSubjects:
		return nil, errors.NewValidationError(fmt.Sprintf("at most %d usernames", MaxSubjects))
	}
	return out, nil
}

// Compare validates usernames and assembles one entry per username in
// request order. Validation failures return before any fetch. A failure of
// the aggregate request as a whole is returned as the error; failures of
// single subjects become unsuccessful entries.
func (a *Assembler) Compare(ctx context.Context, usernames []string) (types.ComparisonResult, error) {
	names, err := Normalize(usernames)
	if err != nil {
		return nil, err
	}

	if a.batch != nil {
		return a.compareBatch(ctx, names)
	}
	return a.compareIndependent(ctx, names)
}

func (a *Assembler) compareBatch(ctx context.Context, names []string) (types.ComparisonResult, error) {
	entries, err := a.batch.CompareProfiles(ctx, names)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int, len(entries))
	for i, e := range entries {
		if key := strings.ToLower(strings.TrimSpace(e.Username)); key != "" {
			if _, seen := byName[key]; !seen {
				byName[key] = i
			}
		}
	}

	result := make(types.ComparisonResult, len(names))
	for i, name := range names {
		idx, ok := byName[strings.ToLower(name)]
		if !ok && i < len(entries) && strings.TrimSpace(entries[i].Username) == "" {
			idx, ok = i, true
		}
		if !ok {
			result[i] = failure(name, "no result returned")
			continue
		}

		e := entries[idx]
		switch {
		case !e.Success:
			msg := e.Error
			if msg == "" {
				msg = "analysis failed"
			}
			result[i] = failure(name, msg)
		case e.Data == nil:
			result[i] = failure(name, "no data returned")
		default:
			result[i] = a.success(name, e.Data)
		}
	}
	return result, nil
}

func (a *Assembler) compareIndependent(ctx context.Context, names []string) (types.ComparisonResult, error) {
	result := make(types.ComparisonResult, len(names))

	var (
		g           errgroup.Group
		interrupted atomic.Bool
	)
	g.SetLimit(maxConcurrentFetches)

	for i, name := range names {
		g.Go(func() error {
			profile, err := a.single.FetchProfile(ctx, name)
			if err != nil {
				if ctx.Err() != nil {
					interrupted.Store(true)
				}
				result[i] = failure(name, errorMessage(err))
				return nil
			}
			if profile == nil {
				result[i] = failure(name, "no data returned")
				return nil
			}
			result[i] = a.success(name, profile)
			return nil
		})
	}
	_ = g.Wait()

	// A deadline that passes after every fetch has finished does not void
	// the result.
	if interrupted.Load() {
		return nil, errors.ToAppError(ctx.Err())
	}
	return result, nil
}

func (a *Assembler) success(name string, p *types.ProfileAnalysis) types.ComparisonSubjectResult {
	subject := a.analyzer.Subject(p)
	if subject.Username == "" {
		subject.Username = name
	}
	return types.ComparisonSubjectResult{Username: name, Success: true, Data: subject}
}

func failure(name, msg string) types.ComparisonSubjectResult {
	return types.ComparisonSubjectResult{Username: name, Success: false, Error: msg}
}

func errorMessage(err error) string {
	if appErr := errors.ToAppError(err); appErr != nil && appErr.Message() != "" {
		return appErr.Message()
	}
	return err.Error()
}

// Successful returns the entries that carry data, in order
func Successful(r types.ComparisonResult) []types.ComparisonSubjectResult {
	out := make([]types.ComparisonSubjectResult, 0, len(r))
	for _, e := range r {
		if e.Success && e.Data != nil {
			out = append(out, e)
		}
	}
	return out
}

// Failed returns the entries that did not succeed, in order
func Failed(r types.ComparisonResult) []types.ComparisonSubjectResult {
	out := make([]types.ComparisonSubjectResult, 0)
	for _, e := range r {
		if !e.Success || e.Data == nil {
			out = append(out, e)
		}
	}
	return out
}
