package wpmigrate

import "strings"

// Fuzzy matching defaults. Neither value has been validated against a
// labeled dataset, so both are configurable.
const (
	DefaultMatchThreshold = 0.5
	DefaultMinWordLength  = 3
)

// SlugMatcher finds the candidate slug most similar to a broken slug by the
// Dice coefficient over their hyphen-separated word sets.
type SlugMatcher struct {
	// Threshold is the minimum score a match must reach.
	Threshold float64

	// MinWordLength drops shorter words as noise.
	MinWordLength int
}

// NewSlugMatcher returns a SlugMatcher with the default tuning.
func NewSlugMatcher() *SlugMatcher {
	return &SlugMatcher{
		Threshold:     DefaultMatchThreshold,
		MinWordLength: DefaultMinWordLength,
	}
}

// Match returns the best-scoring candidate if its score reaches the
// threshold. Ties go to the earliest candidate, so callers should pass
// candidates in a stable order.
func (m *SlugMatcher) Match(broken string, candidates []string) (string, bool) {
	want := m.words(broken)
	if len(want) == 0 {
		return "", false
	}

	var (
		best      string
		bestScore float64
		found     bool
	)
	for _, c := range candidates {
		score := m.Score(want, m.words(c))
		if !found || score > bestScore {
			best, bestScore, found = c, score, true
		}
	}

	if !found || bestScore < m.Threshold {
		return "", false
	}
	return best, true
}

// Score returns the Dice coefficient of two word sets.
func (m *SlugMatcher) Score(a, b map[string]struct{}) float64 {
	if len(a)+len(b) == 0 {
		return 0
	}
	var shared int
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(a)+len(b))
}

func (m *SlugMatcher) words(slug string) map[string]struct{} {
	minLen := m.MinWordLength
	if minLen <= 0 {
		minLen = DefaultMinWordLength
	}
	set := make(map[string]struct{})
	for _, w := range strings.Split(strings.ToLower(slug), "-") {
		if len(w) < minLen {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}
