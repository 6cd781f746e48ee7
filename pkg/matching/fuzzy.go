package matching

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Weights for the fuzzy sub-scores. Amount dominates because two
// transactions with different amounts are rarely the same event.
const (
	fuzzyDateWeight        = 0.3
	fuzzyAmountWeight      = 0.4
	fuzzyDescriptionWeight = 0.3
)

// FuzzyMatcher scores transactions on a weighted blend of date proximity,
// amount proximity, and description similarity.
type FuzzyMatcher struct {
	dateToleranceDays      int
	amountTolerancePercent float64
	descriptionThreshold   float64
	scorer                 *Scorer
}

// NewFuzzyMatcher creates a FuzzyMatcher. amountTolerancePercent is a
// fraction (0.01 means 1%); descriptionThreshold is the minimum sequence
// ratio at which two descriptions are considered a match.
func NewFuzzyMatcher(dateToleranceDays int, amountTolerancePercent, descriptionThreshold float64) *FuzzyMatcher {
	return &FuzzyMatcher{
		dateToleranceDays:      dateToleranceDays,
		amountTolerancePercent: amountTolerancePercent,
		descriptionThreshold:   descriptionThreshold,
		scorer:                 NewScorer(),
	}
}

// Name identifies the matcher variant
func (m *FuzzyMatcher) Name() string {
	return string(models.MatchTypeFuzzy)
}

// Similarity returns the weighted average of the three sub-scores
func (m *FuzzyMatcher) Similarity(a, b *models.TransactionRecord) float64 {
	scores := []float64{
		m.dateSimilarity(a.TransactionDate, b.TransactionDate),
		m.amountSimilarity(a.Amount, b.Amount),
		m.descriptionSimilarity(a.Description, b.Description),
	}
	weights := []float64{fuzzyDateWeight, fuzzyAmountWeight, fuzzyDescriptionWeight}

	return m.scorer.WeightedScore(scores, weights)
}

// Criteria returns each sub-score plus the overall similarity
func (m *FuzzyMatcher) Criteria(a, b *models.TransactionRecord) models.MatchCriteria {
	return models.MatchCriteria{
		"date_similarity":        m.dateSimilarity(a.TransactionDate, b.TransactionDate),
		"amount_similarity":      m.amountSimilarity(a.Amount, b.Amount),
		"description_similarity": m.descriptionSimilarity(a.Description, b.Description),
		"overall_similarity":     m.Similarity(a, b),
	}
}

// DescriptionThreshold returns the configured minimum description ratio
func (m *FuzzyMatcher) DescriptionThreshold() float64 {
	return m.descriptionThreshold
}

// dateSimilarity scores 1.0 for same-day, decays linearly to 0.5 at the
// tolerance boundary, and drops to 0.0 beyond it.
func (m *FuzzyMatcher) dateSimilarity(date1, date2 string) float64 {
	d1, ok1 := parseDate(date1)
	d2, ok2 := parseDate(date2)
	if !ok1 || !ok2 {
		return 0.0
	}

	diffDays := daysBetween(d1, d2)
	switch {
	case diffDays == 0:
		return 1.0
	case diffDays <= m.dateToleranceDays:
		return 1.0 - (float64(diffDays)/float64(m.dateToleranceDays))*0.5
	default:
		return 0.0
	}
}

func (m *FuzzyMatcher) amountSimilarity(amount1, amount2 *float64) float64 {
	if amount1 == nil || amount2 == nil {
		return 0.0
	}
	return m.scorer.AmountProximity(*amount1, *amount2, m.amountTolerancePercent)
}

func (m *FuzzyMatcher) descriptionSimilarity(desc1, desc2 string) float64 {
	if desc1 == "" || desc2 == "" {
		return 0.0
	}

	d1 := normalizers.NormalizeDescription(desc1)
	d2 := normalizers.NormalizeDescription(desc2)

	// Descriptions that are pure formatting noise both normalize to "" and
	// score 1.0: SequenceRatio treats identical strings, empty included, as
	// a full match. Only descriptions that started empty score 0.0 above.
	return m.scorer.SequenceRatio(d1, d2)
}
