package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func newComposite() *CompositeMatcher {
	return NewCompositeMatcher([]WeightedMatcher{
		{Matcher: NewExactMatcher(0), Weight: 0.7},
		{Matcher: NewFuzzyMatcher(2, 0.01, 0.8), Weight: 0.3},
	})
}

func TestCompositeMatcherIdentical(t *testing.T) {
	m := newComposite()

	a := record("2024-01-15", 100.00, "Payment to Acme Corp")
	b := record("2024-01-15", 100.00, "Payment to Acme Corp")

	assert.InDelta(t, 1.0, m.Similarity(a, b), 0.0001)
}

func TestCompositeMatcherBlendsScores(t *testing.T) {
	m := newComposite()

	// Exact fails on the description; fuzzy still scores date and amount
	a := record("2024-01-15", 100.00, "Payment to Acme Corp")
	b := record("2024-01-15", 100.00, "Payment Acme")

	exact := NewExactMatcher(0).Similarity(a, b)
	fuzzy := NewFuzzyMatcher(2, 0.01, 0.8).Similarity(a, b)
	require.Equal(t, 0.0, exact)

	expected := (0.7*exact + 0.3*fuzzy) / 1.0
	assert.InDelta(t, expected, m.Similarity(a, b), 0.0001)
}

func TestCompositeMatcherCriteria(t *testing.T) {
	m := newComposite()

	a := record("2024-01-15", 100.00, "Payment to Acme Corp")
	b := record("2024-01-15", 100.00, "Payment to Acme Corp")

	criteria := m.Criteria(a, b)

	assert.Contains(t, criteria, "exact_criteria")
	assert.Contains(t, criteria, "fuzzy_criteria")
	assert.Equal(t, 0.7, criteria["exact_weight"])
	assert.Equal(t, 0.3, criteria["fuzzy_weight"])
	assert.Equal(t, 1.0, criteria["exact_score"])
	assert.Equal(t, 1.0, criteria["fuzzy_score"])
	assert.InDelta(t, 1.0, criteria["composite_score"].(float64), 0.0001)

	nested, ok := criteria["exact_criteria"].(models.MatchCriteria)
	require.True(t, ok)
	assert.Equal(t, true, nested["date_match"])
}

func TestCompositeMatcherEmpty(t *testing.T) {
	m := NewCompositeMatcher(nil)

	a := record("2024-01-15", 100.00, "Payment")
	b := record("2024-01-15", 100.00, "Payment")

	assert.Equal(t, 0.0, m.Similarity(a, b))
}

func TestCompositeMatcherZeroWeight(t *testing.T) {
	m := NewCompositeMatcher([]WeightedMatcher{
		{Matcher: NewExactMatcher(0), Weight: 0.0},
	})

	a := record("2024-01-15", 100.00, "Payment")
	assert.Equal(t, 0.0, m.Similarity(a, a))
}

func TestCompositeMatcherName(t *testing.T) {
	assert.Equal(t, "composite", newComposite().Name())
}
