package models

import "time"

// MatchType identifies which matcher produced a duplicate flag
type MatchType string

const (
	MatchTypeExact     MatchType = "exact"
	MatchTypeFuzzy     MatchType = "fuzzy"
	MatchTypeComposite MatchType = "composite"
)

// DuplicateFlagStatus values
const (
	DuplicateFlagStatusPending   = "PENDING"
	DuplicateFlagStatusConfirmed = "CONFIRMED"
	DuplicateFlagStatusRejected  = "REJECTED"
	DuplicateFlagStatusSkipped   = "SKIPPED"
)

// MatchCriteria is the audit detail for a candidate pair. The shape depends
// on the matcher that produced it: exact matchers emit booleans, fuzzy
// matchers emit per-field similarity scores, and composite matchers nest one
// sub-map per constituent matcher. Kept generic so it serializes to JSONB
// without losing per-matcher detail.
type MatchCriteria map[string]any

// DuplicateFlag links two transactions suspected to be the same real-world
// transaction, together with the evidence for the pairing.
type DuplicateFlag struct {
	ID                     *int64             `json:"id,omitempty" db:"id"`
	NewTransaction         *TransactionRecord `json:"new_transaction,omitempty" db:"-"`
	ExistingTransaction    *TransactionRecord `json:"existing_transaction,omitempty" db:"-"`
	TransactionID          *int64             `json:"transaction_id,omitempty" db:"transaction_id"`
	DuplicateTransactionID *int64             `json:"duplicate_transaction_id,omitempty" db:"duplicate_transaction_id"`
	ConfidenceScore        float64            `json:"confidence_score" db:"confidence_score"`
	MatchCriteria          MatchCriteria      `json:"match_criteria" db:"match_criteria"`
	DuplicateType          MatchType          `json:"duplicate_type" db:"duplicate_type"`
	Status                 string             `json:"status" db:"status"`
	ReviewedBy             *string            `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt             *time.Time         `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt              time.Time          `json:"created_at" db:"created_at"`
}

// DuplicateReport summarizes the flags produced by one detection run
type DuplicateReport struct {
	TotalDuplicates   int      `json:"total_duplicates"`
	HighConfidence    int      `json:"high_confidence"`   // >= 0.95
	MediumConfidence  int      `json:"medium_confidence"` // [0.8, 0.95)
	LowConfidence     int      `json:"low_confidence"`    // < 0.8
	ExactMatches      int      `json:"exact_matches"`
	FuzzyMatches      int      `json:"fuzzy_matches"`
	CompositeMatches  int      `json:"composite_matches"`
	AverageConfidence *float64 `json:"average_confidence,omitempty"`
}
