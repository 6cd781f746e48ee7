// Package duplicateflag persists duplicate flags for review
package duplicateflag

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

const table = "duplicate_flags"

var columns = []string{
	"id", "transaction_id", "duplicate_transaction_id", "confidence_score",
	"match_criteria", "duplicate_type", "status", "reviewed_by", "reviewed_at",
	"created_at",
}

// joinedColumns is the prefixed column list for reads scoped through the
// transactions join
var joinedColumns = []string{
	"f.id", "f.transaction_id", "f.duplicate_transaction_id", "f.confidence_score",
	"f.match_criteria", "f.duplicate_type", "f.status", "f.reviewed_by", "f.reviewed_at",
	"f.created_at",
}

// row is the database shape of a flag; match_criteria round-trips as jsonb
type row struct {
	ID                     int64                                `db:"id"`
	TransactionID          *int64                               `db:"transaction_id"`
	DuplicateTransactionID *int64                               `db:"duplicate_transaction_id"`
	ConfidenceScore        float64                              `db:"confidence_score"`
	MatchCriteria          database.JSONB[models.MatchCriteria] `db:"match_criteria"`
	DuplicateType          string                               `db:"duplicate_type"`
	Status                 string                               `db:"status"`
	ReviewedBy             *string                              `db:"reviewed_by"`
	ReviewedAt             *time.Time                           `db:"reviewed_at"`
	CreatedAt              time.Time                            `db:"created_at"`
}

func (r row) toModel() models.DuplicateFlag {
	id := r.ID
	return models.DuplicateFlag{
		ID:                     &id,
		TransactionID:          r.TransactionID,
		DuplicateTransactionID: r.DuplicateTransactionID,
		ConfidenceScore:        r.ConfidenceScore,
		MatchCriteria:          r.MatchCriteria.GetValue(),
		DuplicateType:          models.MatchType(r.DuplicateType),
		Status:                 r.Status,
		ReviewedBy:             r.ReviewedBy,
		ReviewedAt:             r.ReviewedAt,
		CreatedAt:              r.CreatedAt,
	}
}

// Repository handles duplicate flag persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new duplicate flag repository
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

// Create inserts a flag and returns it with its assigned ID
func (r *Repository) Create(ctx context.Context, flag *models.DuplicateFlag) (*models.DuplicateFlag, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.Create")
	defer span.End()

	if flag.Status == "" {
		flag.Status = models.DuplicateFlagStatusPending
	}
	if flag.CreatedAt.IsZero() {
		flag.CreatedAt = time.Now().UTC()
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols("transaction_id", "duplicate_transaction_id", "confidence_score", "match_criteria", "duplicate_type", "status", "created_at")
	sb.Values(flag.TransactionID, flag.DuplicateTransactionID, flag.ConfidenceScore, database.JSONB[models.MatchCriteria]{Data: flag.MatchCriteria}, string(flag.DuplicateType), flag.Status, flag.CreatedAt)
	sb.Returning("id")

	query, args := sb.Build()

	var id int64
	if err := r.q(ctx).GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create duplicate flag")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create duplicate flag")
	}

	flag.ID = &id
	return flag, nil
}

// CreateBatch inserts multiple flags in one statement
func (r *Repository) CreateBatch(ctx context.Context, flags []*models.DuplicateFlag) error {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.CreateBatch")
	defer span.End()

	if len(flags) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols("transaction_id", "duplicate_transaction_id", "confidence_score", "match_criteria", "duplicate_type", "status", "created_at")

	for _, flag := range flags {
		if flag.Status == "" {
			flag.Status = models.DuplicateFlagStatusPending
		}
		if flag.CreatedAt.IsZero() {
			flag.CreatedAt = now
		}
		sb.Values(flag.TransactionID, flag.DuplicateTransactionID, flag.ConfidenceScore, database.JSONB[models.MatchCriteria]{Data: flag.MatchCriteria}, string(flag.DuplicateType), flag.Status, flag.CreatedAt)
	}
	sb.Returning("id")

	query, args := sb.Build()

	rows, err := r.q(ctx).QueryxContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_size": len(flags)}).Error("Failed to create duplicate flags")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create duplicate flags")
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to read created flag ids")
		}
		if i < len(flags) {
			flags[i].ID = &id
		}
		i++
	}

	return rows.Err()
}

// GetByID fetches one of the org's flags by ID, nil when not found.
// Flags raised against another org's transactions are not visible.
func (r *Repository) GetByID(ctx context.Context, orgID, id int64) (*models.DuplicateFlag, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(joinedColumns...)
	sb.From(table + " f")
	sb.JoinWithOption(sqlbuilder.InnerJoin, "transactions t", "t.id = f.transaction_id")
	sb.Where(sb.Equal("t.org_id", orgID), sb.Equal("f.id", id))

	query, args := sb.Build()

	var result row
	if err := r.q(ctx).GetContext(ctx, &result, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"flag_id": id}).Error("Failed to get duplicate flag")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get duplicate flag")
	}

	flag := result.toModel()
	return &flag, nil
}

// ListByStatus lists flags in a status for an org's transactions, newest first
func (r *Repository) ListByStatus(ctx context.Context, orgID int64, status string, limit int) ([]models.DuplicateFlag, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.ListByStatus")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(joinedColumns...)
	sb.From(table + " f")
	sb.JoinWithOption(sqlbuilder.InnerJoin, "transactions t", "t.id = f.transaction_id")
	sb.Where(sb.Equal("t.org_id", orgID), sb.Equal("f.status", status))
	sb.OrderBy("f.created_at").Desc()
	sb.Limit(limit)

	query, args := sb.Build()

	results := []row{}
	if err := r.q(ctx).SelectContext(ctx, &results, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID, "status": status}).Error("Failed to list duplicate flags")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list duplicate flags")
	}

	flags := make([]models.DuplicateFlag, 0, len(results))
	for _, result := range results {
		flags = append(flags, result.toModel())
	}

	return flags, nil
}

// ListByTransaction lists flags raised against one of the org's transactions
func (r *Repository) ListByTransaction(ctx context.Context, orgID, transactionID int64) ([]models.DuplicateFlag, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.ListByTransaction")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(joinedColumns...)
	sb.From(table + " f")
	sb.JoinWithOption(sqlbuilder.InnerJoin, "transactions t", "t.id = f.transaction_id")
	sb.Where(sb.Equal("t.org_id", orgID), sb.Equal("f.transaction_id", transactionID))
	sb.OrderBy("f.confidence_score").Desc()

	query, args := sb.Build()

	results := []row{}
	if err := r.q(ctx).SelectContext(ctx, &results, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"transaction_id": transactionID}).Error("Failed to list duplicate flags for transaction")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list duplicate flags")
	}

	flags := make([]models.DuplicateFlag, 0, len(results))
	for _, result := range results {
		flags = append(flags, result.toModel())
	}

	return flags, nil
}

// CountByStatus counts an org's flags per status
func (r *Repository) CountByStatus(ctx context.Context, orgID int64) (map[string]int, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.CountByStatus")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("f.status", "COUNT(*) AS count")
	sb.From(table + " f")
	sb.JoinWithOption(sqlbuilder.InnerJoin, "transactions t", "t.id = f.transaction_id")
	sb.Where(sb.Equal("t.org_id", orgID))
	sb.GroupBy("f.status")

	query, args := sb.Build()

	results := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	if err := r.q(ctx).SelectContext(ctx, &results, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID}).Error("Failed to count duplicate flags")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count duplicate flags")
	}

	counts := make(map[string]int, len(results))
	for _, result := range results {
		counts[result.Status] = result.Count
	}

	return counts, nil
}

// UpdateStatus resolves one of the org's flags and records the reviewer.
// A flag outside the org reports not found, same as a missing ID.
func (r *Repository) UpdateStatus(ctx context.Context, orgID, id int64, status, reviewedBy string) error {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.UpdateStatus")
	defer span.End()

	scope := sqlbuilder.PostgreSQL.NewSelectBuilder()
	scope.Select("id")
	scope.From("transactions")
	scope.Where(scope.Equal("org_id", orgID))

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("reviewed_by", reviewedBy),
		ub.Assign("reviewed_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id), ub.In("transaction_id", scope))

	query, args := ub.Build()

	result, err := r.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"flag_id": id}).Error("Failed to update duplicate flag status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update duplicate flag")
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "duplicate flag not found")
	}

	return nil
}
