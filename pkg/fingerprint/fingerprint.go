// Package fingerprint produces deterministic transaction fingerprints for
// fast exact-duplicate lookups
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Generate creates a fingerprint for a transaction record. The fingerprint
// is a SHA256 hash over the identifying fields (org, date, amount,
// normalized description, account digits) so that the same statement line
// always hashes to the same value regardless of formatting noise.
func Generate(tx *models.TransactionRecord) string {
	return GenerateFromFields(tx.OrgID, tx.TransactionDate, tx.Amount, tx.Description, accountNumber(tx))
}

// GenerateFromFields creates a fingerprint from raw field values
func GenerateFromFields(orgID int64, transactionDate string, amount *float64, description, accountNumber string) string {
	amountPart := ""
	if amount != nil {
		// Fixed precision so 10.5 and 10.50 hash identically
		amountPart = strconv.FormatFloat(*amount, 'f', 2, 64)
	}

	parts := []string{
		strconv.FormatInt(orgID, 10),
		transactionDate,
		amountPart,
		normalizers.NormalizeDescription(description),
		normalizers.NormalizeAccountNumber(accountNumber),
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}

// BatchKey builds a human-readable grouping key for a transaction, used to
// bucket duplicate flags within an import batch
func BatchKey(tx *models.TransactionRecord) string {
	var amount any = 0
	if tx.Amount != nil {
		amount = *tx.Amount
	}
	return fmt.Sprintf("%d|%s|%v", tx.OrgID, tx.TransactionDate, amount)
}

// HasChanged compares two fingerprints to detect changes
func HasChanged(oldFingerprint, newFingerprint string) bool {
	return oldFingerprint != newFingerprint
}

func accountNumber(tx *models.TransactionRecord) string {
	if tx.AccountNumber == nil {
		return ""
	}
	return *tx.AccountNumber
}
