// Package events handles event emission for duplicate detection and imports
package events

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/tracing"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Emitter publishes domain events to the output topic
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitDuplicateFlagged emits an event for each new duplicate flag
func (e *Emitter) EmitDuplicateFlagged(ctx context.Context, orgID int64, flag *models.DuplicateFlag, autoSkipped bool) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDuplicateFlagged")
	defer span.End()

	event := &DuplicateFlaggedEvent{
		BaseEvent:              NewBaseEvent(EventTypeDuplicateFlagged, orgID),
		FlagID:                 flag.ID,
		TransactionID:          flag.TransactionID,
		DuplicateTransactionID: flag.DuplicateTransactionID,
		ConfidenceScore:        flag.ConfidenceScore,
		DuplicateType:          flag.DuplicateType,
		MatchCriteria:          flag.MatchCriteria,
		AutoSkipped:            autoSkipped,
	}

	if err := e.producer.Publish(ctx, &kafka.Event{
		Key:       flagKey(orgID, flag),
		EventType: string(EventTypeDuplicateFlagged),
		OrgID:     orgID,
		Payload:   event,
	}); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit duplicate.flagged event")
		return err
	}

	return nil
}

// EmitDuplicateResolved emits an event when a reviewer resolves a flag
func (e *Emitter) EmitDuplicateResolved(ctx context.Context, orgID, flagID int64, status, reviewedBy string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDuplicateResolved")
	defer span.End()

	event := &DuplicateResolvedEvent{
		BaseEvent:  NewBaseEvent(EventTypeDuplicateResolved, orgID),
		FlagID:     flagID,
		Status:     status,
		ReviewedBy: reviewedBy,
	}

	if err := e.producer.Publish(ctx, &kafka.Event{
		Key:       fmt.Sprintf("%d:flag:%d", orgID, flagID),
		EventType: string(EventTypeDuplicateResolved),
		OrgID:     orgID,
		Payload:   event,
	}); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit duplicate.resolved event")
		return err
	}

	return nil
}

// EmitBatchCompleted emits the summary event for a finished import batch
func (e *Emitter) EmitBatchCompleted(ctx context.Context, batch *models.ImportBatch) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitBatchCompleted")
	defer span.End()

	eventType := EventTypeBatchCompleted
	if batch.Status == models.ImportBatchStatusFailed {
		eventType = EventTypeBatchFailed
	}

	event := &BatchCompletedEvent{
		BaseEvent:         NewBaseEvent(eventType, batch.OrgID),
		BatchID:           batch.ID,
		Filename:          batch.Filename,
		Status:            batch.Status,
		TotalTransactions: batch.TotalTransactions,
		SuccessfulImports: batch.SuccessfulImports,
		FailedImports:     batch.FailedImports,
		DuplicateCount:    batch.DuplicateCount,
	}

	if err := e.producer.Publish(ctx, &kafka.Event{
		Key:       fmt.Sprintf("%d:batch:%d", batch.OrgID, batch.ID),
		EventType: string(eventType),
		OrgID:     batch.OrgID,
		Payload:   event,
	}); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit batch completion event")
		return err
	}

	return nil
}

func flagKey(orgID int64, flag *models.DuplicateFlag) string {
	if flag.ID != nil {
		return fmt.Sprintf("%d:flag:%d", orgID, *flag.ID)
	}
	if flag.TransactionID != nil {
		return fmt.Sprintf("%d:tx:%d", orgID, *flag.TransactionID)
	}
	return fmt.Sprintf("%d", orgID)
}
