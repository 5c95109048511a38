package usecase

import (
	"context"
	"errors"
	"time"

	"trust_donations/internal/domain/entities"
	"trust_donations/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const (
	writerSweeper = "sweeper"
	sweepLockName = "donations:reconcile"

	minSweepLockTTL    = 5 * time.Minute
	sweepLockTTLMargin = time.Minute
)

// SweepOutcome is the per-donation result of a reconciliation run.
type SweepOutcome string

const (
	SweepOutcomeSucceeded       SweepOutcome = "succeeded"
	SweepOutcomeFailed          SweepOutcome = "failed"
	SweepOutcomeStillPending    SweepOutcome = "still_pending"
	SweepOutcomeAlreadyResolved SweepOutcome = "already_resolved"
	SweepOutcomeError           SweepOutcome = "error"
)

type SweepItemResult struct {
	OrderID   string
	PaymentID string
	Outcome   SweepOutcome
	Err       error
}

// SweepReport aggregates one run. Skipped is set when another instance held
// the sweep lease.
type SweepReport struct {
	Checked int
	Skipped bool
	Results []SweepItemResult
}

// Count returns how many items ended with the given outcome.
func (r SweepReport) Count(outcome SweepOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// ReconciliationSettings tunes the sweeper. StaleAfter is both the age a new
// PENDING donation must reach before it is swept and the wait before an
// unresolved one is checked again. A zero LockTTL is derived from the worst
// case run: every order in the batch hitting the gateway timeout.
type ReconciliationSettings struct {
	StaleAfter     time.Duration
	BatchSize      int
	GatewayTimeout time.Duration
	LockTTL        time.Duration
}

func (s ReconciliationSettings) sweepLockTTL() time.Duration {
	if s.LockTTL > 0 {
		return s.LockTTL
	}
	ttl := time.Duration(s.BatchSize)*s.GatewayTimeout + sweepLockTTLMargin
	if ttl < minSweepLockTTL {
		return minSweepLockTTL
	}
	return ttl
}

// IReconciliationUseCase resolves donations stuck in PENDING by asking the
// gateway directly.
type IReconciliationUseCase interface {
	Sweep(ctx context.Context) (SweepReport, error)
}

type ReconciliationUseCase struct {
	repo     interfaces.IDonationRepository
	gateway  interfaces.IPaymentGateway
	lock     interfaces.ISweepLock
	metrics  interfaces.IDonationMetrics
	settings ReconciliationSettings
	logger   *zap.Logger
	now      func() time.Time
}

var _ IReconciliationUseCase = (*ReconciliationUseCase)(nil)

func NewReconciliationUseCase(repo interfaces.IDonationRepository, gateway interfaces.IPaymentGateway, lock interfaces.ISweepLock, metrics interfaces.IDonationMetrics, settings ReconciliationSettings, logger *zap.Logger) *ReconciliationUseCase {
	if metrics == nil {
		metrics = interfaces.NopMetrics{}
	}
	settings.LockTTL = settings.sweepLockTTL()
	return &ReconciliationUseCase{
		repo:     repo,
		gateway:  gateway,
		lock:     lock,
		metrics:  metrics,
		settings: settings,
		logger:   logger.Named("reconcile"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *ReconciliationUseCase) Sweep(ctx context.Context) (SweepReport, error) {
	if u.lock != nil {
		release, ok, err := u.lock.Acquire(ctx, sweepLockName, u.settings.LockTTL)
		if err != nil {
			u.logger.Error("acquiring sweep lease failed", zap.Error(err))
			return SweepReport{}, err
		}
		if !ok {
			u.logger.Info("another sweep is running; skipping")
			return SweepReport{Skipped: true}, nil
		}
		defer release()
	}

	now := u.now()
	cutoff := now.Add(-u.settings.StaleAfter)
	stale, err := u.repo.ListStalePending(ctx, cutoff, u.settings.BatchSize)
	if err != nil {
		u.logger.Error("listing stale donations failed", zap.Error(err))
		return SweepReport{}, err
	}

	report := SweepReport{Checked: len(stale), Results: make([]SweepItemResult, 0, len(stale))}
	for _, d := range stale {
		res := u.reconcileOne(ctx, d)
		if res.Outcome == SweepOutcomeStillPending || res.Outcome == SweepOutcomeError {
			u.markChecked(ctx, d, now)
		}
		u.metrics.ObserveSweepItem(string(res.Outcome))
		report.Results = append(report.Results, res)
	}

	u.logger.Info("sweep complete",
		zap.Time("cutoff", cutoff),
		zap.Int("checked", report.Checked),
		zap.Int("succeeded", report.Count(SweepOutcomeSucceeded)),
		zap.Int("failed", report.Count(SweepOutcomeFailed)),
		zap.Int("still_pending", report.Count(SweepOutcomeStillPending)),
		zap.Int("errors", report.Count(SweepOutcomeError)))
	return report, nil
}

// markChecked moves the donation behind every row not yet checked in this
// window, so a backlog of abandoned checkouts cannot starve newer ones.
func (u *ReconciliationUseCase) markChecked(ctx context.Context, d entities.Donation, at time.Time) {
	err := u.repo.MarkChecked(ctx, d.OrderID, at)
	switch {
	case errors.Is(err, interfaces.ErrDonationStateConflict):
		// Resolved by another writer since it was listed.
	case err != nil:
		u.logger.Warn("moving sweep cursor failed", zap.String("order_id", d.OrderID), zap.Error(err))
	}
}

// reconcileOne never returns an error: failures are folded into the result so
// one bad order cannot abort the batch.
func (u *ReconciliationUseCase) reconcileOne(ctx context.Context, d entities.Donation) SweepItemResult {
	log := u.logger.With(zap.String("order_id", d.OrderID))
	res := SweepItemResult{OrderID: d.OrderID}

	gctx, cancel := withTimeout(ctx, u.settings.GatewayTimeout)
	payments, err := u.gateway.ListOrderPayments(gctx, d.OrderID)
	cancel()
	if err != nil {
		log.Warn("gateway lookup failed; will retry next sweep", zap.Error(err))
		res.Outcome, res.Err = SweepOutcomeError, err
		return res
	}

	p, to, found := pickResolution(payments)
	if !found {
		res.Outcome = SweepOutcomeStillPending
		return res
	}
	res.PaymentID = p.ID

	updated, err := u.repo.Transition(ctx, interfaces.DonationTransition{
		OrderID:    d.OrderID,
		From:       []entities.DonationStatus{entities.DonationStatusPending},
		To:         to,
		PaymentID:  p.ID,
		Method:     p.Method,
		DonorEmail: p.Email,
		DonorPhone: p.Contact,
	})
	switch {
	case errors.Is(err, interfaces.ErrDonationStateConflict):
		log.Info("donation resolved by another writer")
		res.Outcome = SweepOutcomeAlreadyResolved
		return res
	case err != nil:
		log.Error("resolving donation failed", zap.String("payment_id", p.ID), zap.Error(err))
		res.Outcome, res.Err = SweepOutcomeError, err
		return res
	}

	u.metrics.ObserveTransition(writerSweeper, string(updated.Status))
	log.Info("donation resolved from gateway", zap.String("payment_id", p.ID), zap.String("status", string(updated.Status)))
	if to == entities.DonationStatusSuccess {
		res.Outcome = SweepOutcomeSucceeded
	} else {
		res.Outcome = SweepOutcomeFailed
	}
	return res
}

// pickResolution prefers a captured payment over a failed one.
func pickResolution(payments []entities.GatewayPayment) (entities.GatewayPayment, entities.DonationStatus, bool) {
	var failed *entities.GatewayPayment
	for i := range payments {
		switch payments[i].Status {
		case entities.GatewayPaymentCaptured:
			return payments[i], entities.DonationStatusSuccess, true
		case entities.GatewayPaymentFailed:
			if failed == nil {
				failed = &payments[i]
			}
		}
	}
	if failed != nil {
		return *failed, entities.DonationStatusFailed, true
	}
	return entities.GatewayPayment{}, "", false
}
