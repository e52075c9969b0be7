package analysis

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
)

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ActivitySeries is a 12-month series per activity category.
// Synthetic is always true until real event timestamps are binned by month.
type ActivitySeries struct {
	Months    []string `json:"months"`
	Commits   []int    `json:"commits"`
	PRs       []int    `json:"prs"`
	Issues    []int    `json:"issues"`
	Synthetic bool     `json:"synthetic"`
}

type seriesShape struct {
	divisor float64
	jitter  float64
}

var (
	commitShape = seriesShape{divisor: 2, jitter: 30}
	prShape     = seriesShape{divisor: 6, jitter: 10}
	issueShape  = seriesShape{divisor: 8, jitter: 8}
)

// ActivitySynthesizer derives a placeholder monthly series from one activity
// scalar. Output is fully determined by the seed and the score.
type ActivitySynthesizer struct {
	seed int64
}

func NewActivitySynthesizer(seed int64) *ActivitySynthesizer {
	return &ActivitySynthesizer{seed: seed}
}

// SeedFor derives a stable seed from a username, case-insensitively
func SeedFor(username string) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(username))))
	return int64(h.Sum64())
}

// Synthesize returns floor(jitter + base) samples for each month
func (s *ActivitySynthesizer) Synthesize(activityScore float64) ActivitySeries {
	rng := rand.New(rand.NewSource(s.seed))
	score := finite(activityScore)

	series := ActivitySeries{
		Months:    append([]string(nil), monthLabels[:]...),
		Commits:   make([]int, len(monthLabels)),
		PRs:       make([]int, len(monthLabels)),
		Issues:    make([]int, len(monthLabels)),
		Synthetic: true,
	}

	for i := range monthLabels {
		series.Commits[i] = commitShape.sample(rng, score)
		series.PRs[i] = prShape.sample(rng, score)
		series.Issues[i] = issueShape.sample(rng, score)
	}
	return series
}

func (sh seriesShape) sample(rng *rand.Rand, score float64) int {
	return int(math.Floor(rng.Float64()*sh.jitter + score/sh.divisor))
}
