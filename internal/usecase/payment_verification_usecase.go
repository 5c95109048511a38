package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trust_donations/internal/domain/entities"
	"trust_donations/internal/domain/signature"
	"trust_donations/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const writerClientVerify = "client_verify"

var (
	ErrMissingVerificationFields = errors.New("missing payment verification fields")
	ErrInvalidSignature          = errors.New("payment signature mismatch")
	ErrPaymentAlreadyProcessed   = errors.New("payment already processed for another donation")
)

// VerifyPaymentCommand is the checkout callback payload. Donor fields are
// informational; the stored donor snapshot is what gets returned.
type VerifyPaymentCommand struct {
	OrderID    string
	PaymentID  string
	Signature  string
	DonorName  string
	DonorEmail string
	DonorPhone string
}

// IPaymentVerificationUseCase is the optimistic, client-reported writer.
//
// It never overwrites SUCCESS or REFUNDED: the webhook is the authority and
// may already have finalized the donation.
type IPaymentVerificationUseCase interface {
	Verify(ctx context.Context, cmd VerifyPaymentCommand) (Receipt, error)
}

type PaymentVerificationUseCase struct {
	repo          interfaces.IDonationRepository
	verifier      *signature.Verifier
	metrics       interfaces.IDonationMetrics
	receiptPrefix string
	logger        *zap.Logger
}

var _ IPaymentVerificationUseCase = (*PaymentVerificationUseCase)(nil)

func NewPaymentVerificationUseCase(repo interfaces.IDonationRepository, verifier *signature.Verifier, metrics interfaces.IDonationMetrics, receiptPrefix string, logger *zap.Logger) *PaymentVerificationUseCase {
	if metrics == nil {
		metrics = interfaces.NopMetrics{}
	}
	return &PaymentVerificationUseCase{
		repo:          repo,
		verifier:      verifier,
		metrics:       metrics,
		receiptPrefix: receiptPrefix,
		logger:        logger.Named("verify"),
	}
}

func (u *PaymentVerificationUseCase) Verify(ctx context.Context, cmd VerifyPaymentCommand) (Receipt, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	paymentID := strings.TrimSpace(cmd.PaymentID)
	sig := strings.TrimSpace(cmd.Signature)
	if orderID == "" || paymentID == "" || sig == "" {
		return Receipt{}, ErrMissingVerificationFields
	}
	log := u.logger.With(zap.String("order_id", orderID), zap.String("payment_id", paymentID))

	d, err := u.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		log.Error("loading donation failed", zap.Error(err))
		return Receipt{}, err
	}
	if !d.Exists() {
		log.Info("donation not found")
		return Receipt{}, ErrDonationNotFound
	}

	if d.Status.IsTerminal() {
		log.Info("donation already final; returning stored payment",
			zap.String("status", string(d.Status)),
			zap.String("stored_payment_id", d.PaymentID))
		return newReceipt(d, u.receiptPrefix), nil
	}

	if !u.verifier.VerifyPayment(orderID, paymentID, sig) {
		u.rejectAttempt(ctx, log, d, paymentID, sig)
		return Receipt{}, ErrInvalidSignature
	}

	if d.PaymentID == paymentID {
		log.Info("duplicate verification; returning stored payment", zap.String("status", string(d.Status)))
		return newReceipt(d, u.receiptPrefix), nil
	}

	updated, err := u.repo.Transition(ctx, interfaces.DonationTransition{
		OrderID:   orderID,
		From:      entities.OpenStatuses(),
		To:        entities.DonationStatusSuccess,
		PaymentID: paymentID,
		Signature: sig,
	})
	switch {
	case errors.Is(err, interfaces.ErrDonationStateConflict):
		current, gerr := u.repo.GetByOrderID(ctx, orderID)
		if gerr != nil {
			return Receipt{}, gerr
		}
		if current.Status.IsTerminal() {
			log.Info("lost race to another writer; returning stored payment",
				zap.String("stored_payment_id", current.PaymentID))
			return newReceipt(current, u.receiptPrefix), nil
		}
		return Receipt{}, fmt.Errorf("verify order %s: %w", orderID, err)
	case errors.Is(err, interfaces.ErrPaymentIDConflict):
		log.Warn("payment id already owned by another order")
		return Receipt{}, ErrPaymentAlreadyProcessed
	case err != nil:
		log.Error("transition to success failed", zap.Error(err))
		return Receipt{}, err
	}

	u.metrics.ObserveTransition(writerClientVerify, string(updated.Status))
	log.Info("donation marked successful", zap.Int64("donation_id", updated.ID))
	return newReceipt(updated, u.receiptPrefix), nil
}

// rejectAttempt demotes a PENDING donation to FAILED after a forged or
// corrupted callback. The attempted payment id is kept for audit only.
func (u *PaymentVerificationUseCase) rejectAttempt(ctx context.Context, log *zap.Logger, d entities.Donation, paymentID, sig string) {
	if d.Status != entities.DonationStatusPending {
		log.Warn("invalid signature; donation left unchanged", zap.String("status", string(d.Status)))
		return
	}

	_, err := u.repo.Transition(ctx, interfaces.DonationTransition{
		OrderID:          d.OrderID,
		From:             []entities.DonationStatus{entities.DonationStatusPending},
		To:               entities.DonationStatusFailed,
		AttemptPaymentID: paymentID,
		Signature:        sig,
	})
	switch {
	case errors.Is(err, interfaces.ErrDonationStateConflict):
		log.Info("invalid signature; donation moved concurrently, not demoted")
	case err != nil:
		log.Error("invalid signature; demoting donation failed", zap.Error(err))
	default:
		u.metrics.ObserveTransition(writerClientVerify, string(entities.DonationStatusFailed))
		log.Warn("invalid signature; donation marked failed")
	}
}
