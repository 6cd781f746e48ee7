// Package importbatch persists statement import batches
package importbatch

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const table = "import_batches"

var columns = []string{
	"id", "org_id", "filename", "file_format", "import_date",
	"total_transactions", "successful_imports", "failed_imports",
	"duplicate_count", "status", "error_log", "created_at",
}

// Repository handles import batch persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new import batch repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// q resolves the transaction open on ctx, falling back to the pool
func (r *Repository) q(ctx context.Context) database.Queryer {
	return database.FromContext(ctx, r.db)
}

// Create inserts a batch record and returns it with its assigned ID
func (r *Repository) Create(ctx context.Context, batch *models.ImportBatch) (*models.ImportBatch, error) {
	ctx, span := tracing.StartSpan(ctx, "importbatch.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	if batch.ImportDate.IsZero() {
		batch.ImportDate = now
	}
	batch.CreatedAt = now
	if batch.Status == "" {
		batch.Status = models.ImportBatchStatusPending
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols("org_id", "filename", "file_format", "import_date", "total_transactions", "successful_imports", "failed_imports", "duplicate_count", "status", "error_log", "created_at")
	sb.Values(batch.OrgID, batch.Filename, batch.FileFormat, batch.ImportDate, batch.TotalTransactions, batch.SuccessfulImports, batch.FailedImports, batch.DuplicateCount, batch.Status, batch.ErrorLog, batch.CreatedAt)
	sb.Returning("id")

	query, args := sb.Build()

	var id int64
	if err := r.q(ctx).GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": batch.OrgID, "filename": batch.Filename}).Error("Failed to create import batch")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create import batch")
	}

	batch.ID = id
	return batch, nil
}

// GetByID fetches a batch by ID, nil when not found
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.ImportBatch, error) {
	ctx, span := tracing.StartSpan(ctx, "importbatch.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var batch models.ImportBatch
	if err := r.q(ctx).GetContext(ctx, &batch, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_id": id}).Error("Failed to get import batch")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get import batch")
	}

	return &batch, nil
}

// ListByOrg lists an org's batches, newest first
func (r *Repository) ListByOrg(ctx context.Context, orgID int64, limit int) ([]models.ImportBatch, error) {
	ctx, span := tracing.StartSpan(ctx, "importbatch.Repository.ListByOrg")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("org_id", orgID))
	sb.OrderBy("import_date").Desc()
	sb.Limit(limit)

	query, args := sb.Build()

	batches := []models.ImportBatch{}
	if err := r.q(ctx).SelectContext(ctx, &batches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID}).Error("Failed to list import batches")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list import batches")
	}

	return batches, nil
}

// UpdateStatus transitions a batch's status
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	ctx, span := tracing.StartSpan(ctx, "importbatch.Repository.UpdateStatus")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(ub.Assign("status", status))
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()

	if _, err := r.q(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_id": id, "status": status}).Error("Failed to update import batch status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update import batch")
	}

	return nil
}

// UpdateCounts records the final tallies and status for a batch
func (r *Repository) UpdateCounts(ctx context.Context, batch *models.ImportBatch) error {
	ctx, span := tracing.StartSpan(ctx, "importbatch.Repository.UpdateCounts")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("total_transactions", batch.TotalTransactions),
		ub.Assign("successful_imports", batch.SuccessfulImports),
		ub.Assign("failed_imports", batch.FailedImports),
		ub.Assign("duplicate_count", batch.DuplicateCount),
		ub.Assign("status", batch.Status),
		ub.Assign("error_log", batch.ErrorLog),
	)
	ub.Where(ub.Equal("id", batch.ID))

	query, args := ub.Build()

	if _, err := r.q(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_id": batch.ID}).Error("Failed to update import batch counts")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update import batch")
	}

	return nil
}
