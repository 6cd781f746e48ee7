package models

import (
	"encoding/json"
	"time"
)

// TransactionType classifies the direction of a transaction
type TransactionType string

const (
	TransactionTypeDebit    TransactionType = "DEBIT"
	TransactionTypeCredit   TransactionType = "CREDIT"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// TransactionRecord is a standardized bank transaction produced by the
// statement extraction layer. Optional fields are pointers; the matching
// engine degrades gracefully when they are absent.
type TransactionRecord struct {
	ID              *int64          `json:"id,omitempty" db:"id"`
	OrgID           int64           `json:"org_id" db:"org_id"`
	TransactionDate string          `json:"transaction_date" db:"transaction_date"` // YYYY-MM-DD
	Amount          *float64        `json:"amount,omitempty" db:"amount"`           // signed; sign encodes debit/credit
	Description     string          `json:"description" db:"description"`
	TransactionType TransactionType `json:"transaction_type,omitempty" db:"transaction_type"`
	AccountNumber   *string         `json:"account_number,omitempty" db:"account_number"`
	BankReference   *string         `json:"bank_reference,omitempty" db:"bank_reference"`
	BalanceAfter    *float64        `json:"balance_after,omitempty" db:"balance_after"`
	ImportBatchID   *int64          `json:"import_batch_id,omitempty" db:"import_batch_id"`
	RawData         json.RawMessage `json:"raw_data,omitempty" db:"raw_data"` // original statement line
	Fingerprint     string          `json:"fingerprint,omitempty" db:"fingerprint"`
	CreatedAt       time.Time       `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty" db:"updated_at"`
}

// ImportBatchStatus constants
const (
	ImportBatchStatusPending    = "PENDING"
	ImportBatchStatusProcessing = "PROCESSING"
	ImportBatchStatusCompleted  = "COMPLETED"
	ImportBatchStatusFailed     = "FAILED"
)

// ImportBatch tracks a single statement import
type ImportBatch struct {
	ID                int64     `json:"id" db:"id"`
	OrgID             int64     `json:"org_id" db:"org_id"`
	Filename          string    `json:"filename" db:"filename"`
	FileFormat        string    `json:"file_format" db:"file_format"` // CSV | PDF | OFX
	ImportDate        time.Time `json:"import_date" db:"import_date"`
	TotalTransactions int       `json:"total_transactions" db:"total_transactions"`
	SuccessfulImports int       `json:"successful_imports" db:"successful_imports"`
	FailedImports     int       `json:"failed_imports" db:"failed_imports"`
	DuplicateCount    int       `json:"duplicate_count" db:"duplicate_count"`
	Status            string    `json:"status" db:"status"`
	ErrorLog          *string   `json:"error_log,omitempty" db:"error_log"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
