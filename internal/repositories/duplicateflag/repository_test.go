package duplicateflag

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// fakeDB captures the query each repository method builds
type fakeDB struct {
	database.DB
	query string
	args  []any
}

func (f *fakeDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	f.query, f.args = query, args
	return sql.ErrNoRows
}

func (f *fakeDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	f.query, f.args = query, args
	return nil
}

func (f *fakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.query, f.args = query, args
	return fakeResult{rows: 1}, nil
}

type fakeResult struct {
	rows int64
}

func (f fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (f fakeResult) RowsAffected() (int64, error) { return f.rows, nil }

func TestGetByIDScopedToOrg(t *testing.T) {
	db := &fakeDB{}
	repo := NewRepository(db, testLogger())

	flag, err := repo.GetByID(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.Nil(t, flag)

	assert.Contains(t, db.query, "JOIN transactions")
	assert.Contains(t, db.query, "t.org_id")
	assert.Contains(t, db.args, int64(7))
	assert.Contains(t, db.args, int64(42))
}

func TestListByTransactionScopedToOrg(t *testing.T) {
	db := &fakeDB{}
	repo := NewRepository(db, testLogger())

	flags, err := repo.ListByTransaction(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.Empty(t, flags)

	assert.Contains(t, db.query, "JOIN transactions")
	assert.Contains(t, db.query, "t.org_id")
	assert.Contains(t, db.args, int64(7))
	assert.Contains(t, db.args, int64(42))
}

func TestUpdateStatusScopedToOrg(t *testing.T) {
	db := &fakeDB{}
	repo := NewRepository(db, testLogger())

	err := repo.UpdateStatus(context.Background(), 7, 42, models.DuplicateFlagStatusConfirmed, "reviewer")
	require.NoError(t, err)

	assert.Contains(t, db.query, "transaction_id IN")
	assert.Contains(t, db.query, "org_id")
	assert.Contains(t, db.args, int64(7))
	assert.Contains(t, db.args, int64(42))
}

func TestListByStatusScopedToOrg(t *testing.T) {
	db := &fakeDB{}
	repo := NewRepository(db, testLogger())

	_, err := repo.ListByStatus(context.Background(), 7, models.DuplicateFlagStatusPending, 10)
	require.NoError(t, err)

	assert.Contains(t, db.query, "t.org_id")
	assert.True(t, strings.Contains(db.query, "ORDER BY f.created_at DESC"))
	assert.Contains(t, db.args, int64(7))
}
