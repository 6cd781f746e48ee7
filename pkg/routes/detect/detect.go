package detect

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/transaction"
	cloverctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/detection"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Register registers ad-hoc detection routes
func Register(g *echo.Group) {
	g.POST("", Run)
}

// RunRequest is the body for an ad-hoc detection run. When no existing
// transactions are supplied the org's stored transactions are used.
type RunRequest struct {
	NewTransactions      []models.TransactionRecord `json:"new_transactions" validate:"required,min=1"`
	ExistingTransactions []models.TransactionRecord `json:"existing_transactions"`
	Settings             map[string]any             `json:"settings"`
	UseComposite         bool                       `json:"use_composite"`
	LookbackDays         int                        `json:"lookback_days" validate:"omitempty,min=1,max=3650"`
	Group                bool                       `json:"group"`
}

// RunResponse is the detection result
type RunResponse struct {
	Flags  []models.DuplicateFlag            `json:"flags"`
	Report models.DuplicateReport            `json:"report"`
	Groups map[string][]models.DuplicateFlag `json:"groups,omitempty"`
}

// Run compares submitted transactions against existing ones and returns
// duplicate flags without persisting anything
func Run(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "detect_handler.Run")
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

	ctx, logger, err := ectoinject.GetContext[ectologger.Logger](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get logger")
	}

	existing := req.ExistingTransactions
	if len(existing) == 0 {
		lookback := req.LookbackDays
		if lookback <= 0 {
			lookback = 90
		}

		ctx, repo, err := ectoinject.GetContext[*transaction.Repository](ctx)
		if err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
		}

		since := matching.DaysAgo(lookback)
		existing, err = repo.ListByOrgSince(ctx, orgID, since)
		if err != nil {
			return err
		}
	}

	cfg := detection.DefaultConfig()
	if req.Settings != nil {
		cfg = detection.ConfigFromMap(req.Settings)
	}

	detector := detection.NewDetectorFromConfig(logger, cfg, req.UseComposite)

	flags := detector.FindDuplicates(ctx, req.NewTransactions, existing)

	resp := RunResponse{
		Flags:  flags,
		Report: detector.GenerateReport(flags),
	}
	if req.Group {
		resp.Groups = detector.GroupDuplicates(flags)
	}

	return c.JSON(http.StatusOK, resp)
}
