// Package transaction persists imported bank transactions
package transaction

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
	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const table = "transactions"

var columns = []string{
	"id", "org_id", "transaction_date", "amount", "description",
	"transaction_type", "account_number", "bank_reference", "balance_after",
	"import_batch_id", "raw_data", "fingerprint", "created_at", "updated_at",
}

// Repository handles transaction persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new transaction repository
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

// Create inserts a transaction and returns it with its assigned ID
func (r *Repository) Create(ctx context.Context, tx *models.TransactionRecord) (*models.TransactionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "transaction.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	if tx.Fingerprint == "" {
		tx.Fingerprint = fingerprint.Generate(tx)
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols("org_id", "transaction_date", "amount", "description", "transaction_type", "account_number", "bank_reference", "balance_after", "import_batch_id", "raw_data", "fingerprint", "created_at", "updated_at")
	sb.Values(tx.OrgID, tx.TransactionDate, tx.Amount, tx.Description, tx.TransactionType, tx.AccountNumber, tx.BankReference, tx.BalanceAfter, tx.ImportBatchID, rawDataArg(tx), tx.Fingerprint, tx.CreatedAt, tx.UpdatedAt)
	sb.Returning("id")

	query, args := sb.Build()

	var id int64
	if err := r.q(ctx).GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": tx.OrgID}).Error("Failed to create transaction")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create transaction")
	}

	tx.ID = &id
	return tx, nil
}

// CreateBatch inserts multiple transactions in one statement and assigns IDs
func (r *Repository) CreateBatch(ctx context.Context, txs []*models.TransactionRecord) error {
	ctx, span := tracing.StartSpan(ctx, "transaction.Repository.CreateBatch")
	defer span.End()

	if len(txs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols("org_id", "transaction_date", "amount", "description", "transaction_type", "account_number", "bank_reference", "balance_after", "import_batch_id", "raw_data", "fingerprint", "created_at", "updated_at")

	for _, tx := range txs {
		tx.CreatedAt = now
		tx.UpdatedAt = now
		if tx.Fingerprint == "" {
			tx.Fingerprint = fingerprint.Generate(tx)
		}
		sb.Values(tx.OrgID, tx.TransactionDate, tx.Amount, tx.Description, tx.TransactionType, tx.AccountNumber, tx.BankReference, tx.BalanceAfter, tx.ImportBatchID, rawDataArg(tx), tx.Fingerprint, tx.CreatedAt, tx.UpdatedAt)
	}
	sb.Returning("id")

	query, args := sb.Build()

	rows, err := r.q(ctx).QueryxContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_size": len(txs)}).Error("Failed to create transaction batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create transactions")
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to read created transaction ids")
		}
		if i < len(txs) {
			txs[i].ID = &id
		}
		i++
	}

	return rows.Err()
}

// GetByID fetches a transaction by ID, nil when not found
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.TransactionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "transaction.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var tx models.TransactionRecord
	if err := r.q(ctx).GetContext(ctx, &tx, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"transaction_id": id}).Error("Failed to get transaction")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get transaction")
	}

	return &tx, nil
}

// GetByFingerprint fetches a transaction matching the fingerprint within an org
func (r *Repository) GetByFingerprint(ctx context.Context, orgID int64, fp string) (*models.TransactionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "transaction.Repository.GetByFingerprint")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("org_id", orgID), sb.Equal("fingerprint", fp))
	sb.Limit(1)

	query, args := sb.Build()

	var tx models.TransactionRecord
	if err := r.q(ctx).GetContext(ctx, &tx, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get transaction by fingerprint")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get transaction")
	}

	return &tx, nil
}

// ListByOrg lists an org's transactions, newest first
func (r *Repository) ListByOrg(ctx context.Context, orgID int64, limit, offset int) ([]models.TransactionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "transaction.Repository.ListByOrg")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("org_id", orgID))
	sb.OrderBy("transaction_date").Desc()
	sb.Limit(limit).Offset(offset)

	query, args := sb.Build()

	txs := []models.TransactionRecord{}
	if err := r.q(ctx).SelectContext(ctx, &txs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID}).Error("Failed to list transactions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list transactions")
	}

	return txs, nil
}

// ListByOrgSince lists an org's transactions dated on or after sinceDate
// (YYYY-MM-DD). Used to bound the existing set a new batch is compared against.
func (r *Repository) ListByOrgSince(ctx context.Context, orgID int64, sinceDate string) ([]models.TransactionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "transaction.Repository.ListByOrgSince")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("org_id", orgID), sb.GreaterEqualThan("transaction_date", sinceDate))
	sb.OrderBy("transaction_date").Asc()

	query, args := sb.Build()

	txs := []models.TransactionRecord{}
	if err := r.q(ctx).SelectContext(ctx, &txs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID}).Error("Failed to list transactions since date")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list transactions")
	}

	return txs, nil
}

// ListByBatch lists all transactions imported by a batch
func (r *Repository) ListByBatch(ctx context.Context, batchID int64) ([]models.TransactionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "transaction.Repository.ListByBatch")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("import_batch_id", batchID))
	sb.OrderBy("id").Asc()

	query, args := sb.Build()

	txs := []models.TransactionRecord{}
	if err := r.q(ctx).SelectContext(ctx, &txs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_id": batchID}).Error("Failed to list batch transactions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list transactions")
	}

	return txs, nil
}

// rawDataArg renders raw statement data as a jsonb argument, null when absent
func rawDataArg(tx *models.TransactionRecord) any {
	if len(tx.RawData) == 0 {
		return nil
	}
	return []byte(tx.RawData)
}
