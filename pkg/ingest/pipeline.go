package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/detection"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Transactor opens context-scoped database transactions
type Transactor interface {
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error)
}

// TransactionStore persists transactions and loads the comparison window
type TransactionStore interface {
	CreateBatch(ctx context.Context, txs []*models.TransactionRecord) error
	ListByOrgSince(ctx context.Context, orgID int64, sinceDate string) ([]models.TransactionRecord, error)
}

// FlagStore persists duplicate flags
type FlagStore interface {
	CreateBatch(ctx context.Context, flags []*models.DuplicateFlag) error
}

// BatchStore tracks import batch lifecycle
type BatchStore interface {
	Create(ctx context.Context, batch *models.ImportBatch) (*models.ImportBatch, error)
	UpdateCounts(ctx context.Context, batch *models.ImportBatch) error
}

// EventSink publishes pipeline events
type EventSink interface {
	EmitDuplicateFlagged(ctx context.Context, orgID int64, flag *models.DuplicateFlag, autoSkipped bool) error
	EmitBatchCompleted(ctx context.Context, batch *models.ImportBatch) error
}

// Lock is a held distributed lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker serializes imports per org
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl, timeout time.Duration) (Lock, error)
}

type redisLocker struct {
	locker *redis.Locker
}

func (r redisLocker) TryAcquire(ctx context.Context, key string, ttl, timeout time.Duration) (Lock, error) {
	return r.locker.TryAcquire(ctx, key, ttl, timeout)
}

// NewRedisLocker adapts the redis locker to the pipeline Locker interface
func NewRedisLocker(locker *redis.Locker) Locker {
	return redisLocker{locker: locker}
}

// Options control pipeline behavior. Zero values fall back to defaults.
type Options struct {
	// AutoSkipThreshold is the confidence at or above which a flagged
	// transaction is skipped instead of imported.
	AutoSkipThreshold float64
	// LookbackDays bounds how far back existing transactions are loaded
	// for comparison.
	LookbackDays int
	LockTTL      time.Duration
	LockTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.AutoSkipThreshold <= 0 {
		o.AutoSkipThreshold = detection.DefaultConfig().AutoSkipThreshold
	}
	if o.LookbackDays <= 0 {
		o.LookbackDays = 90
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 5 * time.Minute
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = 30 * time.Second
	}
	return o
}

// Result summarizes one pipeline run
type Result struct {
	Batch             *models.ImportBatch    `json:"batch"`
	TotalTransactions int                    `json:"total_transactions"`
	SuccessfulImports int                    `json:"successful_imports"`
	FailedImports     int                    `json:"failed_imports"`
	DuplicateCount    int                    `json:"duplicate_count"`
	SkippedDuplicates int                    `json:"skipped_duplicates"`
	ValidationErrors  []ValidationError      `json:"validation_errors,omitempty"`
	Report            models.DuplicateReport `json:"duplicate_report"`
	Flags             []models.DuplicateFlag `json:"flags,omitempty"`
}

// Pipeline ingests one parsed statement at a time per org. It validates the
// records, flags duplicates against recent transactions, skips flags above
// the auto skip threshold, and persists the rest.
type Pipeline struct {
	logger       ectologger.Logger
	detector     *detection.Detector
	validator    *Validator
	db           Transactor
	transactions TransactionStore
	flags        FlagStore
	batches      BatchStore
	events       EventSink
	locker       Locker
	opts         Options
}

func NewPipeline(
	logger ectologger.Logger,
	detector *detection.Detector,
	db Transactor,
	transactions TransactionStore,
	flags FlagStore,
	batches BatchStore,
	events EventSink,
	locker Locker,
	opts Options,
) *Pipeline {
	return &Pipeline{
		logger:       logger,
		detector:     detector,
		validator:    NewValidator(),
		db:           db,
		transactions: transactions,
		flags:        flags,
		batches:      batches,
		events:       events,
		locker:       locker,
		opts:         opts.withDefaults(),
	}
}

// Run ingests one batch of parsed transactions for an org. Concurrent runs
// for the same org are serialized behind a distributed lock; a run that
// cannot get the lock within the timeout fails with a conflict.
func (p *Pipeline) Run(ctx context.Context, orgID int64, filename, fileFormat string, records []models.TransactionRecord) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Pipeline.Run")
	defer span.End()

	started := time.Now()
	orgLabel := strconv.FormatInt(orgID, 10)

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"org_id":       orgID,
		"filename":     filename,
		"record_count": len(records),
	})
	log.Info("Starting statement ingestion")

	if orgID <= 0 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "org id must be positive")
	}

	lock, err := p.locker.TryAcquire(ctx, fmt.Sprintf("import:%d", orgID), p.opts.LockTTL, p.opts.LockTimeout)
	if err != nil {
		log.WithError(err).Warn("Failed to acquire import lock")
		metrics.RecordDetectionRun(orgLabel, "lock_timeout", time.Since(started).Seconds())
		return nil, httperror.NewHTTPError(http.StatusConflict, "another import is already running for this org")
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.WithError(err).Warn("Failed to release import lock")
		}
	}()

	batch, err := p.batches.Create(ctx, &models.ImportBatch{
		OrgID:             orgID,
		Filename:          filename,
		FileFormat:        fileFormat,
		TotalTransactions: len(records),
		Status:            models.ImportBatchStatusProcessing,
	})
	if err != nil {
		log.WithError(err).Error("Failed to create import batch")
		metrics.RecordDetectionRun(orgLabel, "error", time.Since(started).Seconds())
		return nil, err
	}

	result := &Result{
		Batch:             batch,
		TotalTransactions: len(records),
	}

	scoped := make([]models.TransactionRecord, 0, len(records))
	var validationErrs []ValidationError
	for i := range records {
		if records[i].OrgID != orgID {
			validationErrs = append(validationErrs, ValidationError{
				Index: i, Field: "org_id", Message: "does not match batch org",
			})
			continue
		}
		scoped = append(scoped, records[i])
	}

	valid, errs := p.validator.ValidateBatch(scoped)
	validationErrs = append(validationErrs, errs...)
	result.ValidationErrors = validationErrs
	result.FailedImports = len(validationErrs)

	if len(valid) == 0 {
		log.Warn("No valid transactions in batch")
		p.finishBatch(ctx, log, result, models.ImportBatchStatusFailed, "no valid transactions in batch")
		metrics.RecordDetectionRun(orgLabel, "empty", time.Since(started).Seconds())
		return result, nil
	}

	since := matching.DaysAgo(p.opts.LookbackDays)
	existing, err := p.transactions.ListByOrgSince(ctx, orgID, since)
	if err != nil {
		log.WithError(err).Error("Failed to load existing transactions")
		p.finishBatch(ctx, log, result, models.ImportBatchStatusFailed, "failed to load existing transactions")
		metrics.RecordDetectionRun(orgLabel, "error", time.Since(started).Seconds())
		return nil, err
	}

	flags := p.detector.FindDuplicates(ctx, valid, existing)
	result.DuplicateCount = len(flags)
	result.Report = p.detector.GenerateReport(flags)

	skipped := p.markAutoSkips(flags)
	result.SkippedDuplicates = len(skipped)

	imported := make([]*models.TransactionRecord, 0, len(valid))
	for i := range valid {
		if skipped[&valid[i]] {
			metrics.RecordImportedTransaction(orgLabel, "skipped")
			continue
		}
		valid[i].ImportBatchID = &batch.ID
		imported = append(imported, &valid[i])
	}

	// Transactions and their flags land atomically; a failed flag insert
	// must not leave the batch half imported.
	txCtx, dbTx, err := p.db.GetTx(ctx, nil)
	if err != nil {
		log.WithError(err).Error("Failed to begin import transaction")
		p.finishBatch(ctx, log, result, models.ImportBatchStatusFailed, "failed to begin import transaction")
		metrics.RecordDetectionRun(orgLabel, "error", time.Since(started).Seconds())
		return nil, err
	}

	if err := p.transactions.CreateBatch(txCtx, imported); err != nil {
		p.rollback(ctx, log, dbTx)
		log.WithError(err).Error("Failed to persist transactions")
		p.finishBatch(ctx, log, result, models.ImportBatchStatusFailed, "failed to persist transactions")
		metrics.RecordDetectionRun(orgLabel, "error", time.Since(started).Seconds())
		return nil, err
	}

	if err := p.insertFlags(txCtx, log, flags); err != nil {
		p.rollback(ctx, log, dbTx)
		p.finishBatch(ctx, log, result, models.ImportBatchStatusFailed, "failed to persist duplicate flags")
		metrics.RecordDetectionRun(orgLabel, "error", time.Since(started).Seconds())
		return nil, err
	}

	if err := dbTx.Commit(txCtx); err != nil {
		p.finishBatch(ctx, log, result, models.ImportBatchStatusFailed, "failed to commit import transaction")
		metrics.RecordDetectionRun(orgLabel, "error", time.Since(started).Seconds())
		return nil, err
	}

	result.SuccessfulImports = len(imported)
	for range imported {
		metrics.RecordImportedTransaction(orgLabel, "imported")
	}
	for range validationErrs {
		metrics.RecordImportedTransaction(orgLabel, "invalid")
	}

	p.emitFlagEvents(ctx, log, orgID, flags, skipped)
	result.Flags = flags

	status := models.ImportBatchStatusCompleted
	if result.SuccessfulImports == 0 {
		status = models.ImportBatchStatusFailed
	}
	p.finishBatch(ctx, log, result, status, "")

	metrics.RecordDetectionRun(orgLabel, "success", time.Since(started).Seconds())
	log.WithFields(map[string]any{
		"imported":   result.SuccessfulImports,
		"failed":     result.FailedImports,
		"duplicates": result.DuplicateCount,
		"skipped":    result.SkippedDuplicates,
	}).Info("Statement ingestion complete")

	return result, nil
}

// markAutoSkips flips flags at or above the auto skip threshold to SKIPPED
// and returns the set of new transactions that must not be imported.
func (p *Pipeline) markAutoSkips(flags []models.DuplicateFlag) map[*models.TransactionRecord]bool {
	skipped := make(map[*models.TransactionRecord]bool)
	for i := range flags {
		if flags[i].ConfidenceScore >= p.opts.AutoSkipThreshold {
			flags[i].Status = models.DuplicateFlagStatusSkipped
			if flags[i].NewTransaction != nil {
				skipped[flags[i].NewTransaction] = true
			}
		}
	}
	return skipped
}

// rollback aborts the context-scoped transaction. Called with the outer
// context so the rollback actually applies.
func (p *Pipeline) rollback(ctx context.Context, log ectologger.Logger, dbTx database.Tx) {
	if err := dbTx.Rollback(ctx); err != nil {
		log.WithError(err).Warn("Failed to roll back import transaction")
	}
}

func (p *Pipeline) insertFlags(ctx context.Context, log ectologger.Logger, flags []models.DuplicateFlag) error {
	if len(flags) == 0 {
		return nil
	}

	toCreate := make([]*models.DuplicateFlag, 0, len(flags))
	for i := range flags {
		// Transaction IDs are assigned at insert time, after detection ran.
		// Skipped transactions were never inserted and keep a nil ID.
		if tx := flags[i].NewTransaction; tx != nil {
			flags[i].TransactionID = tx.ID
		}
		toCreate = append(toCreate, &flags[i])
	}

	if err := p.flags.CreateBatch(ctx, toCreate); err != nil {
		log.WithError(err).Error("Failed to persist duplicate flags")
		return err
	}

	return nil
}

func (p *Pipeline) emitFlagEvents(ctx context.Context, log ectologger.Logger, orgID int64, flags []models.DuplicateFlag, skipped map[*models.TransactionRecord]bool) {
	orgLabel := strconv.FormatInt(orgID, 10)
	for i := range flags {
		autoSkipped := flags[i].NewTransaction != nil && skipped[flags[i].NewTransaction]
		metrics.RecordDuplicateFlag(orgLabel, string(flags[i].DuplicateType), flags[i].ConfidenceScore)
		if err := p.events.EmitDuplicateFlagged(ctx, orgID, &flags[i], autoSkipped); err != nil {
			log.WithError(err).Warn("Failed to emit duplicate flagged event")
		}
	}
}

// finishBatch records final counts and status on the batch and emits the
// completion event. Failures here are logged, not returned; the run result
// is already decided.
func (p *Pipeline) finishBatch(ctx context.Context, log ectologger.Logger, result *Result, status, errorLog string) {
	batch := result.Batch
	batch.SuccessfulImports = result.SuccessfulImports
	batch.FailedImports = result.FailedImports
	batch.DuplicateCount = result.DuplicateCount
	batch.Status = status
	if errorLog != "" {
		batch.ErrorLog = &errorLog
	}

	if err := p.batches.UpdateCounts(ctx, batch); err != nil {
		log.WithError(err).Error("Failed to update import batch")
	}

	metrics.RecordImportBatch(strconv.FormatInt(batch.OrgID, 10), status)

	if err := p.events.EmitBatchCompleted(ctx, batch); err != nil {
		log.WithError(err).Warn("Failed to emit batch completed event")
	}
}
