package detection

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func amountPtr(v float64) *float64 {
	return &v
}

func idPtr(v int64) *int64 {
	return &v
}

func tx(org int64, date string, amount float64, desc string) models.TransactionRecord {
	return models.TransactionRecord{
		OrgID:           org,
		TransactionDate: date,
		Amount:          amountPtr(amount),
		Description:     desc,
	}
}

func TestFindDuplicatesExactMatch(t *testing.T) {
	d := NewDetector(testLogger(), 1.0, 0.85, true)

	existing := tx(1, "2024-01-15", 100.00, "Payment to Acme Corp")
	existing.ID = idPtr(42)

	flags := d.FindDuplicates(context.Background(),
		[]models.TransactionRecord{tx(1, "2024-01-15", 100.00, "Payment to Acme Corp")},
		[]models.TransactionRecord{existing},
	)

	require.Len(t, flags, 1)
	assert.Equal(t, models.MatchTypeExact, flags[0].DuplicateType)
	assert.Equal(t, 1.0, flags[0].ConfidenceScore)
	assert.Equal(t, models.DuplicateFlagStatusPending, flags[0].Status)
	assert.Equal(t, int64(42), *flags[0].DuplicateTransactionID)
	assert.Equal(t, "exact", flags[0].MatchCriteria["match_type"])
	assert.Equal(t, true, flags[0].MatchCriteria["date_match"])
}

func TestFindDuplicatesSkipsOtherOrgs(t *testing.T) {
	d := NewDetector(testLogger(), 1.0, 0.85, true)

	flags := d.FindDuplicates(context.Background(),
		[]models.TransactionRecord{tx(1, "2024-01-15", 100.00, "Payment")},
		[]models.TransactionRecord{tx(2, "2024-01-15", 100.00, "Payment")},
	)

	assert.Empty(t, flags)
}

func TestFindDuplicatesCompositeShadowsFuzzy(t *testing.T) {
	// A near-duplicate that fails exact matching: with composite matching
	// enabled the composite score (0.7 exact + 0.3 fuzzy) stays low and no
	// flag is raised. The standalone fuzzy branch only runs with composite
	// disabled.
	newTx := tx(1, "2024-01-15", 100.00, "Starbucks Coffee #1234")
	existingTx := tx(1, "2024-01-16", 100.00, "Starbucks Coffee 1234")

	withComposite := NewDetector(testLogger(), 1.0, 0.85, true)
	flags := withComposite.FindDuplicates(context.Background(),
		[]models.TransactionRecord{newTx}, []models.TransactionRecord{existingTx})
	assert.Empty(t, flags)

	withoutComposite := NewDetector(testLogger(), 1.0, 0.85, false)
	flags = withoutComposite.FindDuplicates(context.Background(),
		[]models.TransactionRecord{newTx}, []models.TransactionRecord{existingTx})
	require.Len(t, flags, 1)
	assert.Equal(t, models.MatchTypeFuzzy, flags[0].DuplicateType)
	assert.GreaterOrEqual(t, flags[0].ConfidenceScore, 0.85)
}

func TestFindDuplicatesCompositeMatch(t *testing.T) {
	// With a lowered composite threshold an exact-failing pair can still be
	// flagged through the composite branch
	cfg := DefaultConfig()
	cfg.CompositeMatchThreshold = 0.25

	d := NewDetectorFromConfig(testLogger(), cfg, true)

	flags := d.FindDuplicates(context.Background(),
		[]models.TransactionRecord{tx(1, "2024-01-15", 100.00, "Payment to Acme Corp")},
		[]models.TransactionRecord{tx(1, "2024-01-15", 100.00, "Payment Acme")},
	)

	require.Len(t, flags, 1)
	assert.Equal(t, models.MatchTypeComposite, flags[0].DuplicateType)
	assert.Contains(t, flags[0].MatchCriteria, "exact_criteria")
	assert.Contains(t, flags[0].MatchCriteria, "composite_score")
}

func TestFindDuplicatesScoreAtThreshold(t *testing.T) {
	// Threshold comparisons are inclusive: a score exactly at the threshold
	// raises a flag. An identical pair scores exactly 1.0 on every matcher,
	// so thresholds of 1.0 exercise both the composite and fuzzy boundaries.
	cfg := DefaultConfig()
	cfg.ExactMatchThreshold = 1.01
	cfg.CompositeMatchThreshold = 1.0
	cfg.FuzzyMatchThreshold = 1.0

	newTxs := []models.TransactionRecord{tx(1, "2024-01-15", 100.00, "Payment to Acme Corp")}
	existing := []models.TransactionRecord{tx(1, "2024-01-15", 100.00, "Payment to Acme Corp")}

	composite := NewDetectorFromConfig(testLogger(), cfg, true)
	flags := composite.FindDuplicates(context.Background(), newTxs, existing)
	require.Len(t, flags, 1)
	assert.Equal(t, models.MatchTypeComposite, flags[0].DuplicateType)
	assert.Equal(t, 1.0, flags[0].ConfidenceScore)

	fuzzy := NewDetectorFromConfig(testLogger(), cfg, false)
	flags = fuzzy.FindDuplicates(context.Background(), newTxs, existing)
	require.Len(t, flags, 1)
	assert.Equal(t, models.MatchTypeFuzzy, flags[0].DuplicateType)
	assert.Equal(t, 1.0, flags[0].ConfidenceScore)
}

func TestFindDuplicatesMultiplePairs(t *testing.T) {
	d := NewDetector(testLogger(), 1.0, 0.85, true)

	newTx := tx(1, "2024-01-15", 100.00, "Payment to Acme Corp")
	flags := d.FindDuplicates(context.Background(),
		[]models.TransactionRecord{newTx},
		[]models.TransactionRecord{
			tx(1, "2024-01-15", 100.00, "Payment to Acme Corp"),
			tx(1, "2024-01-15", 100.00, "payment to acme corp"),
			tx(1, "2024-03-01", 250.00, "Utility bill"),
		},
	)

	assert.Len(t, flags, 2)
}

func TestGroupDuplicates(t *testing.T) {
	d := NewDetector(testLogger(), 1.0, 0.85, true)

	a := tx(1, "2024-01-15", 100.00, "Payment to Acme Corp")
	b := tx(1, "2024-02-01", 50.00, "Coffee")

	flags := []models.DuplicateFlag{
		{NewTransaction: &a, ConfidenceScore: 1.0},
		{NewTransaction: &a, ConfidenceScore: 0.9},
		{NewTransaction: &b, ConfidenceScore: 0.85},
	}

	groups := d.GroupDuplicates(flags)
	require.Len(t, groups, 2)
	assert.Len(t, groups["2024-01-15|100|Payment to Acme Corp"], 2)
	assert.Len(t, groups["2024-02-01|50|Coffee"], 1)
}

func TestHighConfidenceDuplicates(t *testing.T) {
	d := NewDetector(testLogger(), 1.0, 0.85, true)

	flags := []models.DuplicateFlag{
		{ConfidenceScore: 1.0},
		{ConfidenceScore: 0.95},
		{ConfidenceScore: 0.90},
	}

	high := d.HighConfidenceDuplicates(flags, 0.95)
	assert.Len(t, high, 2)
}

func TestGenerateReportEmpty(t *testing.T) {
	d := NewDetector(testLogger(), 1.0, 0.85, true)

	report := d.GenerateReport(nil)
	assert.Equal(t, 0, report.TotalDuplicates)
	assert.Nil(t, report.AverageConfidence)
}

func TestGenerateReport(t *testing.T) {
	d := NewDetector(testLogger(), 1.0, 0.85, true)

	flags := []models.DuplicateFlag{
		{ConfidenceScore: 1.0, DuplicateType: models.MatchTypeExact},
		{ConfidenceScore: 0.90, DuplicateType: models.MatchTypeFuzzy},
		{ConfidenceScore: 0.70, DuplicateType: models.MatchTypeComposite},
	}

	report := d.GenerateReport(flags)
	assert.Equal(t, 3, report.TotalDuplicates)
	assert.Equal(t, 1, report.HighConfidence)
	assert.Equal(t, 1, report.MediumConfidence)
	assert.Equal(t, 1, report.LowConfidence)
	assert.Equal(t, 1, report.ExactMatches)
	assert.Equal(t, 1, report.FuzzyMatches)
	assert.Equal(t, 1, report.CompositeMatches)
	require.NotNil(t, report.AverageConfidence)
	assert.InDelta(t, 0.8667, *report.AverageConfidence, 0.0001)
}
