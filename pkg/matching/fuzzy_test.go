package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyMatcherIdentical(t *testing.T) {
	m := NewFuzzyMatcher(2, 0.01, 0.8)

	a := record("2024-01-15", 100.00, "Payment to Acme Corp")
	b := record("2024-01-15", 100.00, "Payment to Acme Corp")

	assert.Equal(t, 1.0, m.Similarity(a, b))

	criteria := m.Criteria(a, b)
	assert.Equal(t, 1.0, criteria["date_similarity"])
	assert.Equal(t, 1.0, criteria["amount_similarity"])
	assert.Equal(t, 1.0, criteria["description_similarity"])
	assert.Equal(t, 1.0, criteria["overall_similarity"])
}

func TestFuzzyMatcherDateDecay(t *testing.T) {
	m := NewFuzzyMatcher(2, 0.01, 0.8)

	a := record("2024-01-15", 100.00, "Payment")

	// One day off with a two-day tolerance: 1.0 - (1/2)*0.5
	b := record("2024-01-16", 100.00, "Payment")
	assert.InDelta(t, 0.75, m.Criteria(a, b)["date_similarity"].(float64), 0.0001)

	// At the boundary: floor of 0.5
	c := record("2024-01-17", 100.00, "Payment")
	assert.InDelta(t, 0.5, m.Criteria(a, c)["date_similarity"].(float64), 0.0001)

	// Beyond it: 0.0
	d := record("2024-01-18", 100.00, "Payment")
	assert.Equal(t, 0.0, m.Criteria(a, d)["date_similarity"])
}

func TestFuzzyMatcherAmountMismatch(t *testing.T) {
	m := NewFuzzyMatcher(2, 0.01, 0.8)

	a := record("2024-01-15", 100.00, "Payment to Acme Corp")
	b := record("2024-01-15", 200.00, "Payment to Acme Corp")

	criteria := m.Criteria(a, b)
	assert.Equal(t, 0.0, criteria["amount_similarity"])

	// Date and description still carry their weight: 0.3 + 0.0 + 0.3
	assert.InDelta(t, 0.6, m.Similarity(a, b), 0.0001)
}

func TestFuzzyMatcherDescriptionNormalized(t *testing.T) {
	m := NewFuzzyMatcher(2, 0.01, 0.8)

	a := record("2024-01-15", 100.00, "STARBUCKS  #1234")
	b := record("2024-01-15", 100.00, "starbucks #1234")

	assert.Equal(t, 1.0, m.Criteria(a, b)["description_similarity"])
}

func TestFuzzyMatcherAbbreviatedMerchant(t *testing.T) {
	m := NewFuzzyMatcher(2, 0.01, 0.8)

	// Bank feeds abbreviate merchant names; the abbreviation is a
	// subsequence of the full name, so the pair still scores well
	a := record("2024-01-15", 100.00, "Amazon Marketplace Purchase")
	b := record("2024-01-15", 100.00, "AMZN MKTP Purchase")

	score := m.Similarity(a, b)
	assert.Greater(t, score, 0.5)
	assert.InDelta(t, 0.94, score, 0.0001)
}

func TestFuzzyMatcherMissingFields(t *testing.T) {
	m := NewFuzzyMatcher(2, 0.01, 0.8)

	a := record("2024-01-15", 100.00, "Payment")
	b := record("2024-01-15", 100.00, "Payment")
	b.Amount = nil

	criteria := m.Criteria(a, b)
	assert.Equal(t, 0.0, criteria["amount_similarity"])
	assert.InDelta(t, 0.6, m.Similarity(a, b), 0.0001)

	c := record("not-a-date", 100.00, "Payment")
	assert.Equal(t, 0.0, m.Criteria(a, c)["date_similarity"])

	d := record("2024-01-15", 100.00, "")
	assert.Equal(t, 0.0, m.Criteria(a, d)["description_similarity"])
}

func TestFuzzyMatcherNoiseOnlyDescriptions(t *testing.T) {
	m := NewFuzzyMatcher(2, 0.01, 0.8)

	// Both sides normalize to the empty string and count as identical
	a := record("2024-01-15", 100.00, "***")
	b := record("2024-01-15", 100.00, "#")

	assert.Equal(t, 1.0, m.Criteria(a, b)["description_similarity"])
	assert.Equal(t, 1.0, m.Similarity(a, b))
}

func TestFuzzyMatcherSymmetry(t *testing.T) {
	m := NewFuzzyMatcher(2, 0.01, 0.8)

	a := record("2024-01-15", 100.00, "Payment to Acme Corp")
	b := record("2024-01-16", 100.50, "Payment Acme")

	assert.Equal(t, m.Similarity(a, b), m.Similarity(b, a))
}

func TestFuzzyMatcherName(t *testing.T) {
	m := NewFuzzyMatcher(2, 0.01, 0.8)
	assert.Equal(t, "fuzzy", m.Name())
	assert.Equal(t, 0.8, m.DescriptionThreshold())
}
