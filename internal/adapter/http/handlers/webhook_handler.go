package handlers

import (
	"net/http"

	response "trust_donations/internal/adapter/http/dto/response"
	"trust_donations/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const HeaderRazorpaySignature = "X-Razorpay-Signature"

// Gateway notifications are a few KiB; anything past this is rejected unread.
const maxWebhookBodyBytes = 1 << 20

type WebhookHandler struct {
	usecase usecase.IWebhookUseCase
	logger  *zap.Logger
}

func NewWebhookHandler(uc usecase.IWebhookUseCase, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{usecase: uc, logger: logger.Named("http.webhook")}
}

// Razorpay godoc
// @Summary      Gateway notifications
// @Description  Authoritative payment events. The signature covers the raw body. Non-200 responses are redelivered.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Razorpay-Signature  header    string  true  "HMAC-SHA256 of the body"
// @Success      200                   {object}  response.WebhookAckResponse
// @Failure      400                   {object}  pkg.HTTPError
// @Failure      500                   {object}  pkg.HTTPError
// @Router       /webhooks/razorpay [post]
func (h *WebhookHandler) Razorpay(c *gin.Context) {
	// Read the body untouched; re-encoding would break the signature.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		h.logger.Info("webhook body rejected", zap.Error(err))
		c.JSON(errInvalidPayload.HTTPStatus, errInvalidPayload.ToHTTPError())
		return
	}

	outcome, err := h.usecase.HandleWebhook(c.Request.Context(), body, c.GetHeader(HeaderRazorpaySignature))
	if err != nil {
		appErr := mapWebhookError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			h.logger.Error("webhook failed; gateway will redeliver", zap.Error(err))
		}
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	h.logger.Debug("webhook acknowledged", zap.String("outcome", string(outcome)))
	c.JSON(http.StatusOK, response.WebhookAckResponse{Received: true})
}
