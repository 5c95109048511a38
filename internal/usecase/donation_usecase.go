package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trust_donations/internal/domain/entities"
	"trust_donations/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidDonationAmount = errors.New("invalid donation amount")
	ErrMissingDonorDetails   = errors.New("missing donor details")
	ErrOrderCreationFailed   = errors.New("unable to create order")
	ErrInvalidOrderID        = errors.New("invalid order id")
	ErrDonationNotFound      = errors.New("donation not found")
	ErrReceiptNotAvailable   = errors.New("donation has no confirmed payment")
)

// DonationSettings carries the order and receipt policy.
type DonationSettings struct {
	Currency       string
	KeyID          string
	MinAmount      decimal.Decimal
	MaxAmount      decimal.Decimal
	ReceiptPrefix  string
	GatewayTimeout time.Duration
}

type CreateOrderCommand struct {
	Amount     decimal.Decimal
	DonorName  string
	DonorEmail string
	DonorPhone string
}

// OrderHandle is what the checkout widget needs to open a payment.
type OrderHandle struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
	KeyID    string
}

// Receipt is the donor-facing view of a confirmed donation.
type Receipt struct {
	Donation  entities.Donation
	ReceiptNo string
}

// IDonationUseCase covers order initiation and receipt lookup.
//
// CreateOrder persists the PENDING donation as soon as the gateway returns an
// order id, so every later writer finds the record by order id.
type IDonationUseCase interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (OrderHandle, error)
	GetReceipt(ctx context.Context, orderID string) (Receipt, error)
}

type DonationUseCase struct {
	repo     interfaces.IDonationRepository
	gateway  interfaces.IPaymentGateway
	settings DonationSettings
	logger   *zap.Logger
	now      func() time.Time
}

var _ IDonationUseCase = (*DonationUseCase)(nil)

func NewDonationUseCase(repo interfaces.IDonationRepository, gateway interfaces.IPaymentGateway, settings DonationSettings, logger *zap.Logger) *DonationUseCase {
	return &DonationUseCase{
		repo:     repo,
		gateway:  gateway,
		settings: settings,
		logger:   logger.Named("donation"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *DonationUseCase) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (OrderHandle, error) {
	// The gateway charges whole minor units; a finer amount would be rounded
	// there and disagree with the stored record.
	if !entities.HasMinorUnitPrecision(cmd.Amount) {
		u.logger.Info("order rejected: amount finer than minor unit", zap.String("amount", cmd.Amount.String()))
		return OrderHandle{}, ErrInvalidDonationAmount
	}
	if !cmd.Amount.IsPositive() || cmd.Amount.LessThan(u.settings.MinAmount) || cmd.Amount.GreaterThan(u.settings.MaxAmount) {
		u.logger.Info("order rejected: amount out of bounds",
			zap.String("amount", cmd.Amount.String()),
			zap.String("min", u.settings.MinAmount.String()),
			zap.String("max", u.settings.MaxAmount.String()))
		return OrderHandle{}, ErrInvalidDonationAmount
	}

	name := strings.TrimSpace(cmd.DonorName)
	email := strings.TrimSpace(cmd.DonorEmail)
	phone := strings.TrimSpace(cmd.DonorPhone)
	if name == "" || email == "" || phone == "" {
		u.logger.Info("order rejected: missing donor details")
		return OrderHandle{}, ErrMissingDonorDetails
	}
	if u.gateway == nil {
		return OrderHandle{}, fmt.Errorf("%w: payment gateway not configured", ErrOrderCreationFailed)
	}

	now := u.now()
	in := interfaces.CreateOrderInput{
		AmountMinor: entities.MinorUnits(cmd.Amount),
		Currency:    u.settings.Currency,
		Receipt:     fmt.Sprintf("rcpt_%d", now.UnixMilli()),
		Notes: map[string]string{
			"donor_name":  name,
			"donor_email": email,
			"donor_phone": phone,
		},
	}

	gctx, cancel := withTimeout(ctx, u.settings.GatewayTimeout)
	order, err := u.gateway.CreateOrder(gctx, in)
	cancel()
	if err != nil {
		u.logger.Error("gateway order creation failed", zap.String("receipt", in.Receipt), zap.Error(err))
		return OrderHandle{}, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
	}

	currency := order.Currency
	if currency == "" {
		currency = u.settings.Currency
	}

	d := entities.Donation{
		OrderID:    order.ID,
		Amount:     cmd.Amount,
		Currency:   currency,
		DonorName:  name,
		DonorEmail: email,
		DonorPhone: phone,
		Status:     entities.DonationStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := u.repo.Create(ctx, d)
	if err != nil {
		u.logger.Error("persisting pending donation failed", zap.String("order_id", order.ID), zap.Error(err))
		return OrderHandle{}, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
	}
	u.logger.Info("order created",
		zap.String("order_id", created.OrderID),
		zap.Int64("donation_id", created.ID),
		zap.String("amount", created.Amount.String()))

	return OrderHandle{
		OrderID:  created.OrderID,
		Amount:   created.Amount,
		Currency: created.Currency,
		KeyID:    u.settings.KeyID,
	}, nil
}

func (u *DonationUseCase) GetReceipt(ctx context.Context, orderID string) (Receipt, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Receipt{}, ErrInvalidOrderID
	}

	d, err := u.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return Receipt{}, err
	}
	if !d.Exists() {
		return Receipt{}, ErrDonationNotFound
	}
	if !d.Status.IsTerminal() {
		return Receipt{}, ErrReceiptNotAvailable
	}
	return newReceipt(d, u.settings.ReceiptPrefix), nil
}

func newReceipt(d entities.Donation, prefix string) Receipt {
	return Receipt{Donation: d, ReceiptNo: d.ReceiptNo(prefix)}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
