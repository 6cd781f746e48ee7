package duplicateflag

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/duplicateflag"
	cloverctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Register registers duplicate flag routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.GET("/stats", Stats)
	g.GET("/:id", Get)
	g.POST("/:id/resolve", Resolve)
}

// ResolveRequest is the body for resolving a flag
type ResolveRequest struct {
	Status     string `json:"status" validate:"required,oneof=CONFIRMED REJECTED SKIPPED"`
	ReviewedBy string `json:"reviewed_by" validate:"omitempty,max=100"`
}

// List returns duplicate flags for the org, optionally filtered by status
// or by the flagged transaction
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "duplicateflag_handler.List")
	defer span.End()

	orgID := cloverctx.GetOrgID(ctx)
	if orgID <= 0 {
		return httperror.NewHTTPError(http.StatusUnauthorized, "org id is required")
	}

	status := c.QueryParam("status")
	if status == "" {
		status = models.DuplicateFlagStatusPending
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 100
	}

	ctx, repo, err := ectoinject.GetContext[*duplicateflag.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if txParam := c.QueryParam("transaction_id"); txParam != "" {
		txID, err := strconv.ParseInt(txParam, 10, 64)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "transaction_id must be an integer")
		}
		flags, err := repo.ListByTransaction(ctx, orgID, txID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, flags)
	}

	flags, err := repo.ListByStatus(ctx, orgID, status, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, flags)
}

// Stats returns the org's flag counts per status
func Stats(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "duplicateflag_handler.Stats")
	defer span.End()

	orgID := cloverctx.GetOrgID(ctx)
	if orgID <= 0 {
		return httperror.NewHTTPError(http.StatusUnauthorized, "org id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*duplicateflag.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	counts, err := repo.CountByStatus(ctx, orgID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, counts)
}

// Get returns a single duplicate flag
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "duplicateflag_handler.Get")
	defer span.End()

	orgID := cloverctx.GetOrgID(ctx)
	if orgID <= 0 {
		return httperror.NewHTTPError(http.StatusUnauthorized, "org id is required")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}

	ctx, repo, err := ectoinject.GetContext[*duplicateflag.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	flag, err := repo.GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if flag == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "duplicate flag not found")
	}

	return c.JSON(http.StatusOK, flag)
}

// Resolve marks a pending flag as confirmed, rejected, or skipped
func Resolve(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "duplicateflag_handler.Resolve")
	defer span.End()

	orgID := cloverctx.GetOrgID(ctx)
	if orgID <= 0 {
		return httperror.NewHTTPError(http.StatusUnauthorized, "org id is required")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}

	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	reviewedBy := req.ReviewedBy
	if reviewedBy == "" {
		reviewedBy = cloverctx.GetUserID(ctx)
	}
	if reviewedBy == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "reviewed_by is required")
	}

	ctx, repo, err := ectoinject.GetContext[*duplicateflag.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.UpdateStatus(ctx, orgID, id, req.Status, reviewedBy); err != nil {
		return err
	}

	ctx, emitter, _ := ectoinject.GetContext[*events.Emitter](ctx)
	if emitter != nil {
		if err := emitter.EmitDuplicateResolved(ctx, orgID, id, req.Status, reviewedBy); err != nil {
			ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
			if logger != nil {
				logger.WithContext(ctx).WithError(err).Warn("Failed to emit duplicate resolved event")
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}
