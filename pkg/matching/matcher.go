// Package matching implements transaction similarity algorithms
package matching

import (
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// DateLayout is the wire format for transaction dates
const DateLayout = "2006-01-02"

// Matcher scores how likely two transaction records describe the same
// real-world transaction. Implementations must be symmetric, must not
// mutate their inputs, and must tolerate absent optional fields by
// degrading the score rather than failing.
type Matcher interface {
	// Similarity returns a score in [0.0, 1.0]
	Similarity(a, b *models.TransactionRecord) float64
	// Criteria returns the per-field evidence behind Similarity
	Criteria(a, b *models.TransactionRecord) models.MatchCriteria
	// Name identifies the matcher variant (exact, fuzzy, composite)
	Name() string
}

// DaysAgo returns the date n days before today, formatted as DateLayout
func DaysAgo(n int) string {
	return time.Now().UTC().AddDate(0, 0, -n).Format(DateLayout)
}

// parseDate parses a YYYY-MM-DD transaction date. Returns false for empty
// or malformed input.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// daysBetween returns the absolute whole-day difference between two dates
func daysBetween(a, b time.Time) int {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}
