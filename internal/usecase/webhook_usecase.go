package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trust_donations/internal/domain/entities"
	"trust_donations/internal/domain/signature"
	"trust_donations/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const (
	writerWebhook = "webhook"

	// A webhook write re-reads and retries when another writer changed the
	// record between its read and its conditional write.
	maxWebhookAttempts = 3
)

var (
	ErrMissingWebhookSignature = errors.New("missing webhook signature")
	ErrInvalidWebhookSignature = errors.New("webhook signature mismatch")
	ErrInvalidWebhookPayload   = errors.New("invalid webhook payload")

	errWebhookRetry = errors.New("webhook write lost a race")
)

// WebhookOutcome describes what a delivery did to the store.
type WebhookOutcome string

const (
	WebhookOutcomeCreated   WebhookOutcome = "created"
	WebhookOutcomeUpdated   WebhookOutcome = "updated"
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"
	WebhookOutcomeFinalized WebhookOutcome = "already_final"
	WebhookOutcomeIgnored   WebhookOutcome = "ignored"
)

// IWebhookUseCase is the authoritative writer fed by at-least-once gateway
// notifications. Any returned error other than the signature and payload
// errors means the delivery should be retried by the sender.
type IWebhookUseCase interface {
	HandleWebhook(ctx context.Context, body []byte, sig string) (WebhookOutcome, error)
}

type WebhookUseCase struct {
	repo     interfaces.IDonationRepository
	verifier *signature.Verifier
	metrics  interfaces.IDonationMetrics
	currency string
	logger   *zap.Logger
	now      func() time.Time
}

var _ IWebhookUseCase = (*WebhookUseCase)(nil)

func NewWebhookUseCase(repo interfaces.IDonationRepository, verifier *signature.Verifier, metrics interfaces.IDonationMetrics, currency string, logger *zap.Logger) *WebhookUseCase {
	if metrics == nil {
		metrics = interfaces.NopMetrics{}
	}
	return &WebhookUseCase{
		repo:     repo,
		verifier: verifier,
		metrics:  metrics,
		currency: currency,
		logger:   logger.Named("webhook"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *WebhookUseCase) HandleWebhook(ctx context.Context, body []byte, sig string) (WebhookOutcome, error) {
	sig = strings.TrimSpace(sig)
	if sig == "" {
		return "", ErrMissingWebhookSignature
	}
	// The signature covers the raw bytes; nothing is decoded before this check.
	if !u.verifier.VerifyWebhook(body, sig) {
		u.logger.Warn("rejected webhook with invalid signature", zap.Int("body_len", len(body)))
		return "", ErrInvalidWebhookSignature
	}

	ev, err := entities.ParseWebhookEvent(body)
	if err != nil {
		u.logger.Warn("rejected malformed webhook", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrInvalidWebhookPayload, err)
	}

	var outcome WebhookOutcome
	switch e := ev.(type) {
	case entities.PaymentCapturedEvent:
		outcome, err = u.withRetry(ctx, e.Payment, sig, u.applyCaptured)
	case entities.PaymentFailedEvent:
		outcome, err = u.withRetry(ctx, e.Payment, sig, u.applyFailed)
	default:
		outcome = WebhookOutcomeIgnored
		u.logger.Debug("ignoring webhook event", zap.String("event", ev.EventType()))
	}

	if err != nil {
		u.metrics.ObserveWebhookEvent(ev.EventType(), "error")
		u.logger.Error("webhook processing failed", zap.String("event", ev.EventType()), zap.Error(err))
		return "", err
	}
	u.metrics.ObserveWebhookEvent(ev.EventType(), string(outcome))
	return outcome, nil
}

type webhookApply func(ctx context.Context, p entities.GatewayPayment, sig string) (WebhookOutcome, error)

func (u *WebhookUseCase) withRetry(ctx context.Context, p entities.GatewayPayment, sig string, apply webhookApply) (WebhookOutcome, error) {
	var err error
	for attempt := 1; attempt <= maxWebhookAttempts; attempt++ {
		var outcome WebhookOutcome
		outcome, err = apply(ctx, p, sig)
		if !errors.Is(err, errWebhookRetry) {
			return outcome, err
		}
		u.logger.Info("webhook write raced; retrying",
			zap.String("payment_id", p.ID),
			zap.Int("attempt", attempt))
	}
	return "", fmt.Errorf("payment %s: gave up after %d attempts: %w", p.ID, maxWebhookAttempts, err)
}

// applyCaptured records a captured payment. The gateway is the source of
// truth here, so a captured payment may also create a record nobody tracked.
func (u *WebhookUseCase) applyCaptured(ctx context.Context, p entities.GatewayPayment, sig string) (WebhookOutcome, error) {
	log := u.logger.With(zap.String("order_id", p.OrderID), zap.String("payment_id", p.ID))

	target, err := u.locate(ctx, p)
	if err != nil {
		return "", err
	}
	if !target.Exists() {
		return u.createFromPayment(ctx, log, p, sig, entities.DonationStatusSuccess)
	}
	if target.Status.IsTerminal() {
		if target.PaymentID == p.ID {
			log.Info("duplicate captured delivery")
			return WebhookOutcomeDuplicate, nil
		}
		log.Warn("captured payment for an already finalized donation",
			zap.String("status", string(target.Status)),
			zap.String("stored_payment_id", target.PaymentID))
		return WebhookOutcomeFinalized, nil
	}

	return u.transition(ctx, log, target, p, sig, entities.DonationStatusSuccess)
}

// applyFailed records a failed payment attempt unless the donation already
// holds a captured payment.
func (u *WebhookUseCase) applyFailed(ctx context.Context, p entities.GatewayPayment, sig string) (WebhookOutcome, error) {
	log := u.logger.With(zap.String("order_id", p.OrderID), zap.String("payment_id", p.ID))

	target, err := u.locate(ctx, p)
	if err != nil {
		return "", err
	}
	if !target.Exists() {
		return u.createFromPayment(ctx, log, p, sig, entities.DonationStatusFailed)
	}
	if target.Status.IsTerminal() {
		log.Info("failed payment for a finalized donation; keeping final state", zap.String("status", string(target.Status)))
		return WebhookOutcomeFinalized, nil
	}
	if target.Status == entities.DonationStatusFailed && target.PaymentID == p.ID {
		log.Info("duplicate failed delivery")
		return WebhookOutcomeDuplicate, nil
	}

	return u.transition(ctx, log, target, p, sig, entities.DonationStatusFailed)
}

// locate finds the donation by payment id first (idempotency key), then by
// order id.
func (u *WebhookUseCase) locate(ctx context.Context, p entities.GatewayPayment) (entities.Donation, error) {
	d, err := u.repo.GetByPaymentID(ctx, p.ID)
	if err != nil {
		return entities.Donation{}, err
	}
	if d.Exists() {
		return d, nil
	}
	return u.repo.GetByOrderID(ctx, p.OrderID)
}

func (u *WebhookUseCase) transition(ctx context.Context, log *zap.Logger, target entities.Donation, p entities.GatewayPayment, sig string, to entities.DonationStatus) (WebhookOutcome, error) {
	updated, err := u.repo.Transition(ctx, interfaces.DonationTransition{
		OrderID:    target.OrderID,
		From:       entities.OpenStatuses(),
		To:         to,
		PaymentID:  p.ID,
		Signature:  sig,
		Method:     p.Method,
		DonorEmail: p.Email,
		DonorPhone: p.Contact,
	})
	switch {
	case errors.Is(err, interfaces.ErrDonationStateConflict):
		return "", errWebhookRetry
	case errors.Is(err, interfaces.ErrPaymentIDConflict):
		log.Warn("payment id already owned by another order; treating as processed")
		return WebhookOutcomeDuplicate, nil
	case err != nil:
		return "", err
	}

	u.metrics.ObserveTransition(writerWebhook, string(updated.Status))
	log.Info("donation updated from webhook",
		zap.String("status", string(updated.Status)),
		zap.String("previous_status", string(target.Status)))
	return WebhookOutcomeUpdated, nil
}

func (u *WebhookUseCase) createFromPayment(ctx context.Context, log *zap.Logger, p entities.GatewayPayment, sig string, status entities.DonationStatus) (WebhookOutcome, error) {
	currency := p.Currency
	if currency == "" {
		currency = u.currency
	}
	now := u.now()
	created, err := u.repo.Create(ctx, entities.Donation{
		OrderID:    p.OrderID,
		PaymentID:  p.ID,
		Signature:  sig,
		Amount:     p.Amount(),
		Currency:   currency,
		DonorName:  p.DonorName(),
		DonorEmail: p.Email,
		DonorPhone: p.Contact,
		Method:     p.Method,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	switch {
	case errors.Is(err, interfaces.ErrDonationExists):
		return "", errWebhookRetry
	case errors.Is(err, interfaces.ErrPaymentIDConflict):
		log.Info("payment recorded concurrently; treating as processed")
		return WebhookOutcomeDuplicate, nil
	case err != nil:
		return "", err
	}

	u.metrics.ObserveTransition(writerWebhook, string(created.Status))
	log.Warn("created donation from webhook without a tracked order",
		zap.String("status", string(created.Status)),
		zap.Int64("donation_id", created.ID))
	return WebhookOutcomeCreated, nil
}
