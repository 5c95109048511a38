package routes

import (
	"trust_donations/internal/adapter/http/handlers"
	"trust_donations/internal/adapter/http/middleware"

	"github.com/gin-gonic/gin"
)

const (
	PathDonations = "/donations"
	PathWebhooks  = "/webhooks"
	PathCron      = "/cron"
)

func addDonationRoutes(rg *gin.RouterGroup, h *handlers.DonationHandler) {
	donations := rg.Group(PathDonations)
	{
		donations.POST("/orders", h.CreateOrder)
		donations.POST("/verify", h.VerifyPayment)
		donations.GET("/:order_id", h.GetDonation)
	}
}

func addWebhookRoutes(rg *gin.RouterGroup, h *handlers.WebhookHandler) {
	webhooks := rg.Group(PathWebhooks)
	{
		webhooks.POST("/razorpay", h.Razorpay)
	}
}

// Schedulers differ in the verb they send, so both are accepted.
func addCronRoutes(rg *gin.RouterGroup, h *handlers.ReconciliationHandler, secret string) {
	cron := rg.Group(PathCron, middleware.CronAuth(secret))
	{
		cron.POST("/reconcile", h.Sweep)
		cron.GET("/reconcile", h.Sweep)
	}
}
