package scheduler

import (
	"context"
	"time"

	"trust_donations/internal/usecase"

	"go.uber.org/zap"
)

// ReconcileScheduler runs the reconciliation sweep on a fixed interval
// inside the API process. The HTTP cron endpoint stays available either way.
type ReconcileScheduler struct {
	uc       usecase.IReconciliationUseCase
	interval time.Duration
	logger   *zap.Logger
}

func NewReconcileScheduler(uc usecase.IReconciliationUseCase, interval time.Duration, logger *zap.Logger) *ReconcileScheduler {
	return &ReconcileScheduler{uc: uc, interval: interval, logger: logger.Named("scheduler")}
}

// Enabled is false when no interval is configured.
func (s *ReconcileScheduler) Enabled() bool {
	return s != nil && s.interval > 0
}

// Run blocks until ctx is cancelled. A sweep in progress finishes with the
// cancelled context before Run returns.
func (s *ReconcileScheduler) Run(ctx context.Context) {
	if !s.Enabled() {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("reconcile scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reconcile scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ReconcileScheduler) tick(ctx context.Context) {
	report, err := s.uc.Sweep(ctx)
	if err != nil {
		s.logger.Error("scheduled sweep failed", zap.Error(err))
		return
	}
	if report.Skipped {
		s.logger.Debug("scheduled sweep skipped, lease held elsewhere")
	}
}
