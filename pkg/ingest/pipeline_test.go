package ingest

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/detection"
	"github.com/Ramsey-B/clover/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type fakeTransactionStore struct {
	existing []models.TransactionRecord
	created  []*models.TransactionRecord
	nextID   int64
}

func (f *fakeTransactionStore) CreateBatch(ctx context.Context, txs []*models.TransactionRecord) error {
	for _, tx := range txs {
		f.nextID++
		id := f.nextID
		tx.ID = &id
		f.created = append(f.created, tx)
	}
	return nil
}

func (f *fakeTransactionStore) ListByOrgSince(ctx context.Context, orgID int64, sinceDate string) ([]models.TransactionRecord, error) {
	return f.existing, nil
}

type fakeFlagStore struct {
	created []*models.DuplicateFlag
}

func (f *fakeFlagStore) CreateBatch(ctx context.Context, flags []*models.DuplicateFlag) error {
	f.created = append(f.created, flags...)
	return nil
}

type fakeBatchStore struct {
	batch *models.ImportBatch
}

func (f *fakeBatchStore) Create(ctx context.Context, batch *models.ImportBatch) (*models.ImportBatch, error) {
	batch.ID = 1
	batch.CreatedAt = time.Now()
	f.batch = batch
	return batch, nil
}

func (f *fakeBatchStore) UpdateCounts(ctx context.Context, batch *models.ImportBatch) error {
	f.batch = batch
	return nil
}

type flaggedEvent struct {
	flag        *models.DuplicateFlag
	autoSkipped bool
}

type fakeEventSink struct {
	flagged   []flaggedEvent
	completed []*models.ImportBatch
}

func (f *fakeEventSink) EmitDuplicateFlagged(ctx context.Context, orgID int64, flag *models.DuplicateFlag, autoSkipped bool) error {
	f.flagged = append(f.flagged, flaggedEvent{flag: flag, autoSkipped: autoSkipped})
	return nil
}

func (f *fakeEventSink) EmitBatchCompleted(ctx context.Context, batch *models.ImportBatch) error {
	f.completed = append(f.completed, batch)
	return nil
}

type fakeTx struct {
	database.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeTransactor struct {
	tx *fakeTx
}

func (f *fakeTransactor) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return ctx, f.tx, nil
}

type fakeLock struct {
	released bool
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.released = true
	return nil
}

type fakeLocker struct {
	lock *fakeLock
	err  error
}

func (f *fakeLocker) TryAcquire(ctx context.Context, key string, ttl, timeout time.Duration) (Lock, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.lock, nil
}

type pipelineFixture struct {
	pipeline     *Pipeline
	transactions *fakeTransactionStore
	flags        *fakeFlagStore
	batches      *fakeBatchStore
	events       *fakeEventSink
	lock         *fakeLock
	tx           *fakeTx
}

func newPipelineFixture(existing []models.TransactionRecord) *pipelineFixture {
	logger := testLogger()
	f := &pipelineFixture{
		transactions: &fakeTransactionStore{existing: existing},
		flags:        &fakeFlagStore{},
		batches:      &fakeBatchStore{},
		events:       &fakeEventSink{},
		lock:         &fakeLock{},
		tx:           &fakeTx{},
	}
	f.pipeline = NewPipeline(
		logger,
		detection.NewDetector(logger, 1.0, 0.85, true),
		&fakeTransactor{tx: f.tx},
		f.transactions,
		f.flags,
		f.batches,
		f.events,
		&fakeLocker{lock: f.lock},
		Options{},
	)
	return f
}

func record(org int64, date string, amount float64, desc string) models.TransactionRecord {
	return models.TransactionRecord{
		OrgID:           org,
		TransactionDate: date,
		Amount:          amountPtr(amount),
		Description:     desc,
	}
}

func TestPipelineRunImportsAndSkipsDuplicates(t *testing.T) {
	existingID := int64(99)
	existing := record(1, "2024-01-15", 100.00, "Payment to Acme Corp")
	existing.ID = &existingID

	f := newPipelineFixture([]models.TransactionRecord{existing})

	result, err := f.pipeline.Run(context.Background(), 1, "jan.csv", "CSV", []models.TransactionRecord{
		record(1, "2024-01-15", 100.00, "Payment to Acme Corp"), // exact duplicate
		record(1, "2024-01-20", 55.25, "Coffee"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalTransactions)
	assert.Equal(t, 1, result.SuccessfulImports)
	assert.Equal(t, 0, result.FailedImports)
	assert.Equal(t, 1, result.DuplicateCount)
	assert.Equal(t, 1, result.SkippedDuplicates)

	// only the unique transaction was inserted, tagged with the batch
	require.Len(t, f.transactions.created, 1)
	assert.Equal(t, "Coffee", f.transactions.created[0].Description)
	require.NotNil(t, f.transactions.created[0].ImportBatchID)
	assert.Equal(t, result.Batch.ID, *f.transactions.created[0].ImportBatchID)

	// the duplicate flag was persisted as skipped, pointing at the existing tx
	require.Len(t, f.flags.created, 1)
	flag := f.flags.created[0]
	assert.Equal(t, models.DuplicateFlagStatusSkipped, flag.Status)
	assert.Equal(t, 1.0, flag.ConfidenceScore)
	require.NotNil(t, flag.DuplicateTransactionID)
	assert.Equal(t, existingID, *flag.DuplicateTransactionID)
	assert.Nil(t, flag.TransactionID) // skipped, never inserted

	require.Len(t, f.events.flagged, 1)
	assert.True(t, f.events.flagged[0].autoSkipped)
	require.Len(t, f.events.completed, 1)

	assert.Equal(t, models.ImportBatchStatusCompleted, f.batches.batch.Status)
	assert.True(t, f.tx.committed)
	assert.True(t, f.lock.released)
}

func TestPipelineRunFlagsBelowAutoSkip(t *testing.T) {
	existing := record(1, "2024-01-15", 100.00, "Payment to Acme Corp")

	f := newPipelineFixture([]models.TransactionRecord{existing})
	f.pipeline.opts.AutoSkipThreshold = 1.01 // nothing auto-skips

	result, err := f.pipeline.Run(context.Background(), 1, "jan.csv", "CSV", []models.TransactionRecord{
		record(1, "2024-01-15", 100.00, "Payment to Acme Corp"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessfulImports)
	assert.Equal(t, 1, result.DuplicateCount)
	assert.Equal(t, 0, result.SkippedDuplicates)

	require.Len(t, f.flags.created, 1)
	assert.Equal(t, models.DuplicateFlagStatusPending, f.flags.created[0].Status)
	// the flagged transaction was imported, so the flag carries its new ID
	require.NotNil(t, f.flags.created[0].TransactionID)

	require.Len(t, f.events.flagged, 1)
	assert.False(t, f.events.flagged[0].autoSkipped)
}

func TestPipelineRunInvalidRecords(t *testing.T) {
	f := newPipelineFixture(nil)

	bad := record(1, "2024-01-15", 10.00, "Valid")
	bad.Amount = nil
	mismatched := record(2, "2024-01-15", 20.00, "Other org")

	result, err := f.pipeline.Run(context.Background(), 1, "jan.csv", "CSV", []models.TransactionRecord{
		record(1, "2024-01-15", 10.00, "Valid"),
		bad,
		mismatched,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessfulImports)
	assert.Equal(t, 2, result.FailedImports)
	require.Len(t, result.ValidationErrors, 2)
	assert.Equal(t, models.ImportBatchStatusCompleted, f.batches.batch.Status)
}

func TestPipelineRunNoValidRecords(t *testing.T) {
	f := newPipelineFixture(nil)

	bad := record(1, "not-a-date", 10.00, "Broken")

	result, err := f.pipeline.Run(context.Background(), 1, "jan.csv", "CSV", []models.TransactionRecord{bad})
	require.NoError(t, err)

	assert.Equal(t, 0, result.SuccessfulImports)
	assert.Equal(t, 1, result.FailedImports)
	assert.Equal(t, models.ImportBatchStatusFailed, f.batches.batch.Status)
	require.NotNil(t, f.batches.batch.ErrorLog)
	assert.Empty(t, f.transactions.created)
}

func TestPipelineRunRejectsBadOrg(t *testing.T) {
	f := newPipelineFixture(nil)

	_, err := f.pipeline.Run(context.Background(), 0, "jan.csv", "CSV", nil)
	assert.Error(t, err)
}

func TestPipelineRunLockConflict(t *testing.T) {
	f := newPipelineFixture(nil)
	f.pipeline.locker = &fakeLocker{err: errors.New("lock held")}

	result, err := f.pipeline.Run(context.Background(), 1, "jan.csv", "CSV", []models.TransactionRecord{
		record(1, "2024-01-15", 10.00, "Payment"),
	})
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Nil(t, f.batches.batch)
}
