// Package detection implements duplicate detection for bank transactions
package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/tracing"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Confidence bucket boundaries for reporting
const (
	HighConfidenceThreshold   = 0.95
	MediumConfidenceThreshold = 0.8
)

// Detector finds duplicate transactions by comparing new records against
// existing ones with a set of matchers.
type Detector struct {
	logger ectologger.Logger

	exactThreshold     float64
	fuzzyThreshold     float64
	compositeThreshold float64
	useComposite       bool

	exactMatcher     *matching.ExactMatcher
	fuzzyMatcher     *matching.FuzzyMatcher
	compositeMatcher *matching.CompositeMatcher
}

// NewDetector creates a Detector with the standard matcher set: an exact
// matcher with no date tolerance and a fuzzy matcher with a two-day window,
// 1% amount tolerance, and 0.8 description threshold. When useComposite is
// set, a composite matcher weighting exact 0.7 and fuzzy 0.3 is checked
// before the standalone fuzzy matcher, against the same fuzzy threshold.
func NewDetector(logger ectologger.Logger, exactThreshold, fuzzyThreshold float64, useComposite bool) *Detector {
	d := &Detector{
		logger:             logger,
		exactThreshold:     exactThreshold,
		fuzzyThreshold:     fuzzyThreshold,
		compositeThreshold: fuzzyThreshold,
		useComposite:       useComposite,
		exactMatcher:       matching.NewExactMatcher(0),
		fuzzyMatcher:       matching.NewFuzzyMatcher(2, 0.01, 0.8),
	}

	if useComposite {
		d.compositeMatcher = matching.NewCompositeMatcher([]matching.WeightedMatcher{
			{Matcher: d.exactMatcher, Weight: 0.7},
			{Matcher: d.fuzzyMatcher, Weight: 0.3},
		})
	}

	return d
}

// NewDetectorFromConfig creates a Detector with every tolerance and
// threshold taken from cfg. Unlike NewDetector, the composite branch uses
// the config's dedicated composite threshold.
func NewDetectorFromConfig(logger ectologger.Logger, cfg Config, useComposite bool) *Detector {
	d := &Detector{
		logger:             logger,
		exactThreshold:     cfg.ExactMatchThreshold,
		fuzzyThreshold:     cfg.FuzzyMatchThreshold,
		compositeThreshold: cfg.CompositeMatchThreshold,
		useComposite:       useComposite,
		exactMatcher:       matching.NewExactMatcher(cfg.ExactDateToleranceDays),
		fuzzyMatcher:       matching.NewFuzzyMatcher(cfg.FuzzyDateToleranceDays, cfg.AmountTolerancePercent, cfg.DescriptionSimilarityThreshold),
	}

	if useComposite {
		d.compositeMatcher = matching.NewCompositeMatcher([]matching.WeightedMatcher{
			{Matcher: d.exactMatcher, Weight: 0.7},
			{Matcher: d.fuzzyMatcher, Weight: 0.3},
		})
	}

	return d
}

// FindDuplicates compares each new transaction against every existing
// transaction and returns a flag for each suspected duplicate pair. Pairs
// from different orgs are never compared.
func (d *Detector) FindDuplicates(ctx context.Context, newTransactions, existingTransactions []models.TransactionRecord) []models.DuplicateFlag {
	ctx, span := tracing.StartSpan(ctx, "detection.Detector.FindDuplicates")
	defer span.End()

	log := d.logger.WithContext(ctx).WithFields(map[string]any{
		"new_count":      len(newTransactions),
		"existing_count": len(existingTransactions),
	})
	log.Debug("Finding duplicate transactions")

	flags := make([]models.DuplicateFlag, 0)

	for i := range newTransactions {
		flags = append(flags, d.findDuplicatesForTransaction(&newTransactions[i], existingTransactions)...)
	}

	log.WithFields(map[string]any{"flag_count": len(flags)}).Debug("Duplicate detection complete")

	return flags
}

// findDuplicatesForTransaction compares one new transaction against all
// existing ones. The exact matcher is checked first; when composite
// matching is enabled it is checked next, which leaves the standalone
// fuzzy branch reachable only with composite disabled.
func (d *Detector) findDuplicatesForTransaction(newTx *models.TransactionRecord, existingTransactions []models.TransactionRecord) []models.DuplicateFlag {
	var flags []models.DuplicateFlag

	for i := range existingTransactions {
		existingTx := &existingTransactions[i]

		if newTx.OrgID != existingTx.OrgID {
			continue
		}

		exactScore := d.exactMatcher.Similarity(newTx, existingTx)
		fuzzyScore := d.fuzzyMatcher.Similarity(newTx, existingTx)

		isDuplicate := false
		confidence := 0.0
		var criteria models.MatchCriteria
		var matchType models.MatchType

		if exactScore >= d.exactThreshold {
			isDuplicate = true
			confidence = exactScore
			criteria = d.exactMatcher.Criteria(newTx, existingTx)
			matchType = models.MatchTypeExact
		} else if d.useComposite {
			compositeScore := d.compositeMatcher.Similarity(newTx, existingTx)
			if compositeScore >= d.compositeThreshold {
				isDuplicate = true
				confidence = compositeScore
				criteria = d.compositeMatcher.Criteria(newTx, existingTx)
				matchType = models.MatchTypeComposite
			}
		} else if fuzzyScore >= d.fuzzyThreshold {
			isDuplicate = true
			confidence = fuzzyScore
			criteria = d.fuzzyMatcher.Criteria(newTx, existingTx)
			matchType = models.MatchTypeFuzzy
		}

		if isDuplicate {
			flags = append(flags, d.createDuplicateFlag(newTx, existingTx, confidence, criteria, matchType))
		}
	}

	return flags
}

// createDuplicateFlag builds a pending flag for a suspected pair
func (d *Detector) createDuplicateFlag(newTx, existingTx *models.TransactionRecord, confidence float64, criteria models.MatchCriteria, matchType models.MatchType) models.DuplicateFlag {
	criteria["match_type"] = string(matchType)

	flag := models.DuplicateFlag{
		NewTransaction:      newTx,
		ExistingTransaction: existingTx,
		ConfidenceScore:     confidence,
		MatchCriteria:       criteria,
		DuplicateType:       matchType,
		Status:              models.DuplicateFlagStatusPending,
		CreatedAt:           time.Now(),
	}

	flag.TransactionID = newTx.ID
	flag.DuplicateTransactionID = existingTx.ID

	return flag
}

// GroupDuplicates groups flags by the new transaction that produced them
func (d *Detector) GroupDuplicates(flags []models.DuplicateFlag) map[string][]models.DuplicateFlag {
	groups := make(map[string][]models.DuplicateFlag)

	for _, flag := range flags {
		key := transactionKey(flag.NewTransaction)
		groups[key] = append(groups[key], flag)
	}

	return groups
}

// transactionKey builds a grouping key from date, amount, and the first 50
// characters of the description
func transactionKey(tx *models.TransactionRecord) string {
	if tx == nil {
		return ""
	}

	var amount any = 0
	if tx.Amount != nil {
		amount = *tx.Amount
	}

	desc := []rune(tx.Description)
	if len(desc) > 50 {
		desc = desc[:50]
	}

	return fmt.Sprintf("%s|%v|%s", tx.TransactionDate, amount, string(desc))
}

// HighConfidenceDuplicates filters flags to those at or above threshold
func (d *Detector) HighConfidenceDuplicates(flags []models.DuplicateFlag, threshold float64) []models.DuplicateFlag {
	result := make([]models.DuplicateFlag, 0, len(flags))
	for _, flag := range flags {
		if flag.ConfidenceScore >= threshold {
			result = append(result, flag)
		}
	}
	return result
}

// GenerateReport summarizes a set of duplicate flags. The average is
// omitted for an empty set rather than dividing by zero.
func (d *Detector) GenerateReport(flags []models.DuplicateFlag) models.DuplicateReport {
	report := models.DuplicateReport{
		TotalDuplicates: len(flags),
	}

	if len(flags) == 0 {
		return report
	}

	var total float64
	for _, flag := range flags {
		total += flag.ConfidenceScore

		switch {
		case flag.ConfidenceScore >= HighConfidenceThreshold:
			report.HighConfidence++
		case flag.ConfidenceScore >= MediumConfidenceThreshold:
			report.MediumConfidence++
		default:
			report.LowConfidence++
		}

		switch flag.DuplicateType {
		case models.MatchTypeExact:
			report.ExactMatches++
		case models.MatchTypeFuzzy:
			report.FuzzyMatches++
		case models.MatchTypeComposite:
			report.CompositeMatches++
		}
	}

	avg := total / float64(len(flags))
	report.AverageConfidence = &avg

	return report
}
