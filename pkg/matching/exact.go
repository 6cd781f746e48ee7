package matching

import (
	"math"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// ExactMatcher matches transactions that are identical on every available
// field, with an optional tolerance on the transaction date.
type ExactMatcher struct {
	dateToleranceDays int
	scorer            *Scorer
}

// NewExactMatcher creates an ExactMatcher. dateToleranceDays is the number
// of whole days two transaction dates may differ and still count as equal.
func NewExactMatcher(dateToleranceDays int) *ExactMatcher {
	return &ExactMatcher{
		dateToleranceDays: dateToleranceDays,
		scorer:            NewScorer(),
	}
}

// Name identifies the matcher variant
func (m *ExactMatcher) Name() string {
	return string(models.MatchTypeExact)
}

// Similarity returns 1.0 when every criterion passes, 0.0 otherwise
func (m *ExactMatcher) Similarity(a, b *models.TransactionRecord) float64 {
	for _, passed := range m.Criteria(a, b) {
		if ok, _ := passed.(bool); !ok {
			return 0.0
		}
	}
	return 1.0
}

// Criteria returns the boolean result of each exact-match check
func (m *ExactMatcher) Criteria(a, b *models.TransactionRecord) models.MatchCriteria {
	criteria := models.MatchCriteria{
		"date_match":        m.datesMatch(a.TransactionDate, b.TransactionDate),
		"amount_match":      m.amountsMatch(a.Amount, b.Amount),
		"description_match": m.descriptionsMatch(a.Description, b.Description),
	}

	// Bank reference only participates when both sides carry one
	if a.BankReference != nil && *a.BankReference != "" && b.BankReference != nil && *b.BankReference != "" {
		criteria["reference_match"] = strings.EqualFold(strings.TrimSpace(*a.BankReference), strings.TrimSpace(*b.BankReference))
	} else {
		criteria["reference_match"] = true
	}

	return criteria
}

func (m *ExactMatcher) datesMatch(date1, date2 string) bool {
	d1, ok1 := parseDate(date1)
	d2, ok2 := parseDate(date2)
	if !ok1 || !ok2 {
		return false
	}
	return daysBetween(d1, d2) <= m.dateToleranceDays
}

func (m *ExactMatcher) amountsMatch(amount1, amount2 *float64) bool {
	if amount1 == nil || amount2 == nil {
		return false
	}
	// Epsilon comparison, amounts are parsed floats
	return math.Abs(*amount1-*amount2) < 0.001
}

func (m *ExactMatcher) descriptionsMatch(desc1, desc2 string) bool {
	if desc1 == "" || desc2 == "" {
		return false
	}
	return m.scorer.ExactMatch(strings.TrimSpace(desc1), strings.TrimSpace(desc2), false) == 1.0
}
