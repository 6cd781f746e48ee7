package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func amountPtr(v float64) *float64 {
	return &v
}

func strPtr(s string) *string {
	return &s
}

func record(date string, amount float64, desc string) *models.TransactionRecord {
	return &models.TransactionRecord{
		OrgID:           1,
		TransactionDate: date,
		Amount:          amountPtr(amount),
		Description:     desc,
	}
}

func TestExactMatcherIdentical(t *testing.T) {
	m := NewExactMatcher(0)

	a := record("2024-01-15", 100.00, "Payment to Acme Corp")
	b := record("2024-01-15", 100.00, "Payment to Acme Corp")

	assert.Equal(t, 1.0, m.Similarity(a, b))

	criteria := m.Criteria(a, b)
	assert.Equal(t, true, criteria["date_match"])
	assert.Equal(t, true, criteria["amount_match"])
	assert.Equal(t, true, criteria["description_match"])
	assert.Equal(t, true, criteria["reference_match"])
}

func TestExactMatcherDescriptionCaseAndWhitespace(t *testing.T) {
	m := NewExactMatcher(0)

	a := record("2024-01-15", 100.00, "  payment to acme corp ")
	b := record("2024-01-15", 100.00, "PAYMENT TO ACME CORP")

	assert.Equal(t, 1.0, m.Similarity(a, b))
}

func TestExactMatcherDateTolerance(t *testing.T) {
	a := record("2024-01-15", 100.00, "Payment")
	b := record("2024-01-16", 100.00, "Payment")

	assert.Equal(t, 0.0, NewExactMatcher(0).Similarity(a, b))
	assert.Equal(t, 1.0, NewExactMatcher(1).Similarity(a, b))
}

func TestExactMatcherAmountEpsilon(t *testing.T) {
	m := NewExactMatcher(0)

	a := record("2024-01-15", 100.00, "Payment")
	b := record("2024-01-15", 100.0005, "Payment")
	c := record("2024-01-15", 100.01, "Payment")

	assert.Equal(t, 1.0, m.Similarity(a, b))
	assert.Equal(t, 0.0, m.Similarity(a, c))
}

func TestExactMatcherMissingFields(t *testing.T) {
	m := NewExactMatcher(0)

	a := record("2024-01-15", 100.00, "Payment")
	b := record("2024-01-15", 100.00, "Payment")
	b.Amount = nil

	assert.Equal(t, 0.0, m.Similarity(a, b))

	c := record("", 100.00, "Payment")
	assert.Equal(t, 0.0, m.Similarity(a, c))

	d := record("2024-01-15", 100.00, "")
	assert.Equal(t, 0.0, m.Similarity(a, d))
}

func TestExactMatcherBankReference(t *testing.T) {
	m := NewExactMatcher(0)

	a := record("2024-01-15", 100.00, "Payment")
	b := record("2024-01-15", 100.00, "Payment")

	// One side missing a reference: the check is vacuously true
	a.BankReference = strPtr("CHK-100")
	assert.Equal(t, 1.0, m.Similarity(a, b))

	// Both present and different: fails
	b.BankReference = strPtr("CHK-200")
	assert.Equal(t, 0.0, m.Similarity(a, b))

	// Both present and equal ignoring case: passes
	b.BankReference = strPtr("chk-100")
	assert.Equal(t, 1.0, m.Similarity(a, b))
}

func TestExactMatcherName(t *testing.T) {
	assert.Equal(t, "exact", NewExactMatcher(0).Name())
}
