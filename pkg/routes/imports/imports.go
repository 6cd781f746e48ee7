package imports

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/importbatch"
	"github.com/Ramsey-B/clover/internal/repositories/transaction"
	cloverctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/ingest"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Register registers import batch routes
func Register(g *echo.Group) {
	g.POST("", Run)
	g.GET("", List)
	g.GET("/:id", Get)
	g.GET("/:id/transactions", ListTransactions)
}

// RunRequest is the body for a synchronous import
type RunRequest struct {
	Filename     string                     `json:"filename" validate:"required,max=255"`
	FileFormat   string                     `json:"file_format" validate:"required,oneof=CSV PDF OFX"`
	Transactions []models.TransactionRecord `json:"transactions" validate:"required,min=1"`
}

// Run ingests a batch of parsed transactions for the org
func Run(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "imports_handler.Run")
	defer span.End()

	orgID := cloverctx.GetOrgID(ctx)
	if orgID <= 0 {
		return httperror.NewHTTPError(http.StatusUnauthorized, "org id is required")
	}

	var req RunRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, pipeline, err := ectoinject.GetContext[*ingest.Pipeline](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get pipeline")
	}

	result, err := pipeline.Run(ctx, orgID, req.Filename, req.FileFormat, req.Transactions)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// List returns recent import batches for the org
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "imports_handler.List")
	defer span.End()

	orgID := cloverctx.GetOrgID(ctx)
	if orgID <= 0 {
		return httperror.NewHTTPError(http.StatusUnauthorized, "org id is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 50
	}

	ctx, repo, err := ectoinject.GetContext[*importbatch.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	batches, err := repo.ListByOrg(ctx, orgID, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, batches)
}

// Get returns a single import batch
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "imports_handler.Get")
	defer span.End()

	orgID := cloverctx.GetOrgID(ctx)
	if orgID <= 0 {
		return httperror.NewHTTPError(http.StatusUnauthorized, "org id is required")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}

	ctx, repo, err := ectoinject.GetContext[*importbatch.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	batch, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if batch == nil || batch.OrgID != orgID {
		return httperror.NewHTTPError(http.StatusNotFound, "import batch not found")
	}

	return c.JSON(http.StatusOK, batch)
}

// ListTransactions returns the transactions imported by a batch
func ListTransactions(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "imports_handler.ListTransactions")
	defer span.End()

	orgID := cloverctx.GetOrgID(ctx)
	if orgID <= 0 {
		return httperror.NewHTTPError(http.StatusUnauthorized, "org id is required")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}

	ctx, batchRepo, err := ectoinject.GetContext[*importbatch.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	batch, err := batchRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if batch == nil || batch.OrgID != orgID {
		return httperror.NewHTTPError(http.StatusNotFound, "import batch not found")
	}

	ctx, txRepo, err := ectoinject.GetContext[*transaction.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	txs, err := txRepo.ListByBatch(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, txs)
}
