// Package app assembles the service graph shared by the API server and the
// reconcile CLI.
package app

import (
	"context"
	"fmt"

	"trust_donations/internal/adapter/persistence/repository"
	"trust_donations/internal/config"
	"trust_donations/internal/domain/signature"
	"trust_donations/internal/infrastructure/database"
	"trust_donations/internal/infrastructure/lock"
	"trust_donations/internal/infrastructure/metrics"
	"trust_donations/internal/infrastructure/payments"
	"trust_donations/internal/usecase"
	"trust_donations/internal/usecase/interfaces"
	"trust_donations/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const ServiceName = "trust-donations"

type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	DynamoDB *dynamodb.Client
	Registry *prometheus.Registry

	Donations      usecase.IDonationUseCase
	Verification   usecase.IPaymentVerificationUseCase
	Webhooks       usecase.IWebhookUseCase
	Reconciliation usecase.IReconciliationUseCase

	redis *redis.Client
}

// New wires every dependency from the environment. Missing Razorpay
// credentials are fatal unless the mock gateway is enabled.
func New(ctx context.Context) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(ServiceName, cfg.Environment)

	ddb, err := database.NewDynamoDBClient(ctx, database.SettingsFromEnv())
	if err != nil {
		return nil, fmt.Errorf("dynamodb client: %w", err)
	}

	gateway, err := payments.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.GatewayMock, log)
	if err != nil {
		return nil, fmt.Errorf("razorpay gateway: %w", err)
	}
	if cfg.GatewayMock {
		log.Warn("payment gateway running in mock mode")
	}

	c := &Container{
		Config:   cfg,
		Logger:   log,
		DynamoDB: ddb,
		Registry: prometheus.NewRegistry(),
	}
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var sweepLock interfaces.ISweepLock = lock.NoopLock{}
	if cfg.RedisURL != "" {
		c.redis, err = lock.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis client: %w", err)
		}
		sweepLock = lock.NewRedisLock(c.redis, log)
	}

	repo := repository.NewDonationDynamoRepository(ddb, cfg.DonationsTable, cfg.DonationKeysTable)
	verifier := signature.NewVerifier(cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
	m := metrics.NewDonationMetrics(c.Registry)

	c.Donations = usecase.NewDonationUseCase(repo, gateway, usecase.DonationSettings{
		Currency:       cfg.Currency,
		KeyID:          cfg.RazorpayKeyID,
		MinAmount:      cfg.MinDonationAmount,
		MaxAmount:      cfg.MaxDonationAmount,
		ReceiptPrefix:  cfg.ReceiptPrefix,
		GatewayTimeout: cfg.GatewayTimeout,
	}, log)
	c.Verification = usecase.NewPaymentVerificationUseCase(repo, verifier, m, cfg.ReceiptPrefix, log)
	c.Webhooks = usecase.NewWebhookUseCase(repo, verifier, m, cfg.Currency, log)
	c.Reconciliation = usecase.NewReconciliationUseCase(repo, gateway, sweepLock, m, usecase.ReconciliationSettings{
		StaleAfter:     cfg.ReconcileStaleAfter,
		BatchSize:      cfg.ReconcileBatchSize,
		GatewayTimeout: cfg.GatewayTimeout,
	}, log)

	return c, nil
}

// Close flushes the logger and drops the Redis connection, if any.
func (c *Container) Close() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.Logger.Warn("redis close failed", zap.Error(err))
		}
	}
	_ = c.Logger.Sync()
}
