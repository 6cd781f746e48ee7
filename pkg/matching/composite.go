package matching

import (
	"fmt"

	"github.com/Ramsey-B/clover/pkg/models"
)

// WeightedMatcher pairs a matcher with its weight in a composite score
type WeightedMatcher struct {
	Matcher Matcher
	Weight  float64
}

// CompositeMatcher combines multiple matchers into a single weighted score.
// Weights are not required to sum to 1.
type CompositeMatcher struct {
	matchers    []WeightedMatcher
	totalWeight float64
}

// NewCompositeMatcher creates a CompositeMatcher from (matcher, weight) pairs
func NewCompositeMatcher(matchers []WeightedMatcher) *CompositeMatcher {
	var total float64
	for _, wm := range matchers {
		total += wm.Weight
	}
	return &CompositeMatcher{
		matchers:    matchers,
		totalWeight: total,
	}
}

// Name identifies the matcher variant
func (m *CompositeMatcher) Name() string {
	return string(models.MatchTypeComposite)
}

// Similarity returns the weighted average of the constituent scores
func (m *CompositeMatcher) Similarity(a, b *models.TransactionRecord) float64 {
	if len(m.matchers) == 0 || m.totalWeight == 0 {
		return 0.0
	}

	var weightedSum float64
	for _, wm := range m.matchers {
		weightedSum += wm.Matcher.Similarity(a, b) * wm.Weight
	}

	return weightedSum / m.totalWeight
}

// Criteria nests each constituent matcher's criteria, weight, and score
// under keys derived from its name, plus the overall composite score
func (m *CompositeMatcher) Criteria(a, b *models.TransactionRecord) models.MatchCriteria {
	combined := models.MatchCriteria{}

	for _, wm := range m.matchers {
		name := wm.Matcher.Name()
		combined[fmt.Sprintf("%s_criteria", name)] = wm.Matcher.Criteria(a, b)
		combined[fmt.Sprintf("%s_weight", name)] = wm.Weight
		combined[fmt.Sprintf("%s_score", name)] = wm.Matcher.Similarity(a, b)
	}

	combined["composite_score"] = m.Similarity(a, b)

	return combined
}
