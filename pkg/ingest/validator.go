// Package ingest runs parsed bank statements through validation, duplicate
// detection, and persistence. It writes transactions and duplicate flags
// and tracks every run in an import batch.
package ingest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

const (
	maxDescriptionLength = 255
	maxReferenceLength   = 100
	maxAccountLength     = 50
	maxAmount            = 999999999.99
)

// ValidationError describes why a single record was rejected
type ValidationError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("transaction %d: %s: %s", e.Index, e.Field, e.Message)
}

// Validator checks incoming transaction records before they enter the
// pipeline. Validation is per record; one bad record never fails the batch.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateRecord validates and normalizes a single record in place.
// Returns the first failure encountered.
func (v *Validator) ValidateRecord(tx *models.TransactionRecord, index int) error {
	if tx.OrgID <= 0 {
		return ValidationError{Index: index, Field: "org_id", Message: "must be positive"}
	}

	parsed, err := time.Parse(matching.DateLayout, tx.TransactionDate)
	if err != nil {
		return ValidationError{Index: index, Field: "transaction_date", Message: "must be YYYY-MM-DD"}
	}
	tx.TransactionDate = parsed.Format(matching.DateLayout)

	if tx.Amount == nil {
		return ValidationError{Index: index, Field: "amount", Message: "is required"}
	}
	if math.Abs(*tx.Amount) > maxAmount {
		return ValidationError{Index: index, Field: "amount", Message: "out of range"}
	}
	rounded := math.Round(*tx.Amount*100) / 100
	tx.Amount = &rounded

	desc := strings.TrimSpace(tx.Description)
	if desc == "" {
		return ValidationError{Index: index, Field: "description", Message: "cannot be empty"}
	}
	if len(desc) > maxDescriptionLength {
		desc = desc[:maxDescriptionLength]
	}
	tx.Description = desc

	tx.TransactionType = resolveType(tx.TransactionType, rounded)

	if tx.AccountNumber != nil {
		cleaned := normalizers.NormalizeAccountNumber(*tx.AccountNumber)
		if len(cleaned) > maxAccountLength {
			return ValidationError{Index: index, Field: "account_number", Message: "too long"}
		}
		if cleaned == "" {
			tx.AccountNumber = nil
		} else {
			tx.AccountNumber = &cleaned
		}
	}

	if tx.BankReference != nil {
		ref := strings.TrimSpace(*tx.BankReference)
		if len(ref) > maxReferenceLength {
			ref = ref[:maxReferenceLength]
		}
		if ref == "" {
			tx.BankReference = nil
		} else {
			tx.BankReference = &ref
		}
	}

	return nil
}

// ValidateBatch validates every record and splits the batch into valid
// records and per record errors. Valid records come back normalized.
func (v *Validator) ValidateBatch(records []models.TransactionRecord) ([]models.TransactionRecord, []ValidationError) {
	valid := make([]models.TransactionRecord, 0, len(records))
	var errs []ValidationError

	for i := range records {
		if err := v.ValidateRecord(&records[i], i); err != nil {
			errs = append(errs, err.(ValidationError))
			continue
		}
		valid = append(valid, records[i])
	}

	return valid, errs
}

func resolveType(t models.TransactionType, amount float64) models.TransactionType {
	switch t {
	case models.TransactionTypeDebit, models.TransactionTypeCredit, models.TransactionTypeTransfer:
		return t
	}
	if amount > 0 {
		return models.TransactionTypeCredit
	}
	return models.TransactionTypeDebit
}
