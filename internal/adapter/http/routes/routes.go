package routes

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "trust_donations/docs" // generated by swag init
	"trust_donations/internal/adapter/http/handlers"
	"trust_donations/internal/adapter/http/middleware"
	"trust_donations/internal/adapter/scheduler"
	"trust_donations/internal/app"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// Run will start the server
func Run() {
	c, err := app.New(context.Background())
	if err != nil {
		// The container owns the logger, so fall back to a bare one here.
		zap.NewExample().Fatal("failed to build application", zap.Error(err))
	}
	defer c.Close()
	log := c.Logger

	if c.Config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := NewRouter(c, log)

	srv := &http.Server{
		Addr:         ":" + c.Config.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go scheduler.NewReconcileScheduler(c.Reconciliation, c.Config.ReconcileInterval, log).Run(ctx)

	go func() {
		log.Info("starting server", zap.String("port", c.Config.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to startup the application", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(c *app.Container, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(metricsHandler(c.Registry)))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	donationHandler := handlers.NewDonationHandler(c.Donations, c.Verification, log)
	webhookHandler := handlers.NewWebhookHandler(c.Webhooks, log)
	reconciliationHandler := handlers.NewReconciliationHandler(c.Reconciliation, log)

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addDonationRoutes(v1, donationHandler)
	addWebhookRoutes(v1, webhookHandler)
	addCronRoutes(v1, reconciliationHandler, c.Config.CronSecret)

	return router
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
