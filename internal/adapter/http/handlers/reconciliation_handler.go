package handlers

import (
	"net/http"

	response "trust_donations/internal/adapter/http/dto/response"
	"trust_donations/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReconciliationHandler struct {
	usecase usecase.IReconciliationUseCase
	logger  *zap.Logger
}

func NewReconciliationHandler(uc usecase.IReconciliationUseCase, logger *zap.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{usecase: uc, logger: logger.Named("http.reconcile")}
}

// Sweep godoc
// @Summary      Reconcile stale donations
// @Description  Asks the gateway about PENDING donations older than the staleness threshold. Meant for a cron trigger.
// @Tags         cron
// @Produce      json
// @Success      200  {object}  response.SweepResponse
// @Failure      401  {object}  pkg.HTTPError
// @Failure      500  {object}  pkg.HTTPError
// @Router       /cron/reconcile [post]
func (h *ReconciliationHandler) Sweep(c *gin.Context) {
	report, err := h.usecase.Sweep(c.Request.Context())
	if err != nil {
		h.logger.Error("sweep failed", zap.Error(err))
		appErr := mapDonationError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromSweepReport(report))
}
