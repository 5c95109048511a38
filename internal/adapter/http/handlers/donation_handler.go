package handlers

import (
	"net/http"

	request "trust_donations/internal/adapter/http/dto/request"
	response "trust_donations/internal/adapter/http/dto/response"
	"trust_donations/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DonationHandler serves the donor-facing checkout endpoints.
type DonationHandler struct {
	donations usecase.IDonationUseCase
	verifier  usecase.IPaymentVerificationUseCase
	logger    *zap.Logger
}

func NewDonationHandler(donations usecase.IDonationUseCase, verifier usecase.IPaymentVerificationUseCase, logger *zap.Logger) *DonationHandler {
	return &DonationHandler{donations: donations, verifier: verifier, logger: logger.Named("http.donation")}
}

// CreateOrder godoc
// @Summary      Start a donation
// @Description  Creates a gateway order for the amount and records a pending donation.
// @Tags         donations
// @Accept       json
// @Produce      json
// @Param        body  body      request.CreateOrderRequest  true  "Donation"
// @Success      200   {object}  response.OrderResponse
// @Failure      400   {object}  pkg.HTTPError
// @Failure      500   {object}  pkg.HTTPError
// @Router       /donations/orders [post]
func (h *DonationHandler) CreateOrder(c *gin.Context) {
	var payload request.CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidPayload.HTTPStatus, errInvalidPayload.ToHTTPError())
		return
	}

	handle, err := h.donations.CreateOrder(c.Request.Context(), payload.ToCommand())
	if err != nil {
		appErr := mapDonationError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			h.logger.Error("create order failed", zap.Error(err))
		}
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromOrderHandle(handle))
}

// VerifyPayment godoc
// @Summary      Confirm a checkout
// @Description  Verifies the checkout signature and returns the receipt. Never overrides a finalized donation.
// @Tags         donations
// @Accept       json
// @Produce      json
// @Param        body  body      request.VerifyPaymentRequest  true  "Checkout callback"
// @Success      200   {object}  response.ReceiptResponse
// @Failure      400   {object}  pkg.HTTPError
// @Failure      404   {object}  pkg.HTTPError
// @Failure      409   {object}  pkg.HTTPError
// @Failure      500   {object}  pkg.HTTPError
// @Router       /donations/verify [post]
func (h *DonationHandler) VerifyPayment(c *gin.Context) {
	var payload request.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidPayload.HTTPStatus, errInvalidPayload.ToHTTPError())
		return
	}

	receipt, err := h.verifier.Verify(c.Request.Context(), payload.ToCommand())
	if err != nil {
		appErr := mapDonationError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			h.logger.Error("verify payment failed", zap.String("order_id", payload.OrderID), zap.Error(err))
		}
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromReceipt(receipt))
}

// GetDonation godoc
// @Summary      Donation receipt
// @Tags         donations
// @Produce      json
// @Param        order_id  path      string  true  "Gateway order id"
// @Success      200       {object}  response.ReceiptResponse
// @Failure      404       {object}  pkg.HTTPError
// @Router       /donations/{order_id} [get]
func (h *DonationHandler) GetDonation(c *gin.Context) {
	receipt, err := h.donations.GetReceipt(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		appErr := mapDonationError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromReceipt(receipt))
}
