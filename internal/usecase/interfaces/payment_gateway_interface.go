package interfaces

import (
	"context"

	"trust_donations/internal/domain/entities"
)

// CreateOrderInput is the remote order request, amount in minor units.
type CreateOrderInput struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// IPaymentGateway abstracts the external payment provider (Razorpay).
//
// Implementations must honor ctx deadlines so no call blocks indefinitely.
type IPaymentGateway interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (entities.GatewayOrder, error)
	ListOrderPayments(ctx context.Context, orderID string) ([]entities.GatewayPayment, error)
}
