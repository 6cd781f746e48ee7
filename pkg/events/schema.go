package events

import (
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// EventType defines the type of event
type EventType string

const (
	// Duplicate events
	EventTypeDuplicateFlagged  EventType = "duplicate.flagged"
	EventTypeDuplicateResolved EventType = "duplicate.resolved"

	// Import events
	EventTypeBatchStarted   EventType = "import.batch_started"
	EventTypeBatchCompleted EventType = "import.batch_completed"
	EventTypeBatchFailed    EventType = "import.batch_failed"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	OrgID         int64     `json:"org_id"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// DuplicateFlaggedEvent is emitted when a suspected duplicate pair is found
type DuplicateFlaggedEvent struct {
	BaseEvent
	FlagID                 *int64               `json:"flag_id,omitempty"`
	TransactionID          *int64               `json:"transaction_id,omitempty"`
	DuplicateTransactionID *int64               `json:"duplicate_transaction_id,omitempty"`
	ConfidenceScore        float64              `json:"confidence_score"`
	DuplicateType          models.MatchType     `json:"duplicate_type"`
	MatchCriteria          models.MatchCriteria `json:"match_criteria"`
	AutoSkipped            bool                 `json:"auto_skipped"`
}

// DuplicateResolvedEvent is emitted when a reviewer resolves a flag
type DuplicateResolvedEvent struct {
	BaseEvent
	FlagID     int64  `json:"flag_id"`
	Status     string `json:"status"`
	ReviewedBy string `json:"reviewed_by,omitempty"`
}

// BatchCompletedEvent is emitted when a statement import batch finishes
type BatchCompletedEvent struct {
	BaseEvent
	BatchID           int64  `json:"batch_id"`
	Filename          string `json:"filename"`
	Status            string `json:"status"`
	TotalTransactions int    `json:"total_transactions"`
	SuccessfulImports int    `json:"successful_imports"`
	FailedImports     int    `json:"failed_imports"`
	DuplicateCount    int    `json:"duplicate_count"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType EventType, orgID int64) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		OrgID:         orgID,
		Timestamp:     time.Now().UTC(),
		CorrelationID: uuid.New().String(),
	}
}
