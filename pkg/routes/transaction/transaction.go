package transaction

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/transaction"
	cloverctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Register registers transaction routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.GET("/:id", Get)
}

// ListResponse is the paged transaction listing
type ListResponse struct {
	Items  []models.TransactionRecord `json:"items"`
	Count  int                        `json:"count"`
	Limit  int                        `json:"limit"`
	Offset int                        `json:"offset"`
}

// List returns transactions for the org, newest first
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "transaction_handler.List")
	defer span.End()

	orgID := cloverctx.GetOrgID(ctx)
	if orgID <= 0 {
		return httperror.NewHTTPError(http.StatusUnauthorized, "org id is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if limit < 1 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	ctx, repo, err := ectoinject.GetContext[*transaction.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	var items []models.TransactionRecord

	switch {
	case c.QueryParam("batch_id") != "":
		batchID, parseErr := strconv.ParseInt(c.QueryParam("batch_id"), 10, 64)
		if parseErr != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "batch_id must be an integer")
		}
		items, err = repo.ListByBatch(ctx, batchID)
	case c.QueryParam("since") != "":
		items, err = repo.ListByOrgSince(ctx, orgID, c.QueryParam("since"))
	default:
		items, err = repo.ListByOrg(ctx, orgID, limit, offset)
	}
	if err != nil {
		return err
	}

	// batch listings are not scoped by the query itself
	scoped := make([]models.TransactionRecord, 0, len(items))
	for _, item := range items {
		if item.OrgID == orgID {
			scoped = append(scoped, item)
		}
	}
	items = scoped

	return c.JSON(http.StatusOK, ListResponse{
		Items:  items,
		Count:  len(items),
		Limit:  limit,
		Offset: offset,
	})
}

// Get returns a single transaction by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "transaction_handler.Get")
	defer span.End()

	orgID := cloverctx.GetOrgID(ctx)
	if orgID <= 0 {
		return httperror.NewHTTPError(http.StatusUnauthorized, "org id is required")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}

	ctx, repo, err := ectoinject.GetContext[*transaction.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	tx, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tx == nil || tx.OrgID != orgID {
		return httperror.NewHTTPError(http.StatusNotFound, "transaction not found")
	}

	return c.JSON(http.StatusOK, tx)
}
