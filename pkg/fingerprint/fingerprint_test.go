package fingerprint

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

func record() *models.TransactionRecord {
	return &models.TransactionRecord{
		OrgID:           1,
		TransactionDate: "2024-01-15",
		Amount:          amountPtr(100.50),
		Description:     "Payment to Acme Corp",
		AccountNumber:   strPtr("1234567890"),
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := record()
	b := record()

	assert.Equal(t, Generate(a), Generate(b))
	assert.Len(t, Generate(a), 64)
}

func TestGenerateIgnoresFormattingNoise(t *testing.T) {
	a := record()

	b := record()
	b.Description = "  PAYMENT   to acme corp "
	assert.Equal(t, Generate(a), Generate(b))

	c := record()
	c.AccountNumber = strPtr("1234-5678-90")
	assert.Equal(t, Generate(a), Generate(c))
}

func TestGenerateSensitiveToIdentity(t *testing.T) {
	base := Generate(record())

	org := record()
	org.OrgID = 2
	assert.NotEqual(t, base, Generate(org))

	date := record()
	date.TransactionDate = "2024-01-16"
	assert.NotEqual(t, base, Generate(date))

	amount := record()
	amount.Amount = amountPtr(100.51)
	assert.NotEqual(t, base, Generate(amount))

	desc := record()
	desc.Description = "Payment to Beta Corp"
	assert.NotEqual(t, base, Generate(desc))
}

func TestGenerateFixedAmountPrecision(t *testing.T) {
	a := GenerateFromFields(1, "2024-01-15", amountPtr(10.5), "Coffee", "")
	b := GenerateFromFields(1, "2024-01-15", amountPtr(10.50), "Coffee", "")
	assert.Equal(t, a, b)
}

func TestGenerateNilAmount(t *testing.T) {
	a := record()
	a.Amount = nil

	b := record()
	b.Amount = amountPtr(0)

	// nil and zero hash differently
	assert.NotEqual(t, Generate(a), Generate(b))
}

func TestBatchKey(t *testing.T) {
	assert.Equal(t, "1|2024-01-15|100.5", BatchKey(record()))

	noAmount := record()
	noAmount.Amount = nil
	assert.Equal(t, "1|2024-01-15|0", BatchKey(noAmount))
}

func TestHasChanged(t *testing.T) {
	fp := Generate(record())
	assert.False(t, HasChanged(fp, fp))
	assert.True(t, HasChanged(fp, "something else"))
}
