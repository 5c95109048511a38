package request

import (
	"strings"

	"trust_donations/internal/usecase"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the checkout form submitted before the payment popup.
type CreateOrderRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	DonorName  string          `json:"donorName"`
	DonorEmail string          `json:"donorEmail"`
	DonorPhone string          `json:"donorPhone"`
}

func (r CreateOrderRequest) ToCommand() usecase.CreateOrderCommand {
	return usecase.CreateOrderCommand{
		Amount:     r.Amount,
		DonorName:  strings.TrimSpace(r.DonorName),
		DonorEmail: strings.TrimSpace(r.DonorEmail),
		DonorPhone: strings.TrimSpace(r.DonorPhone),
	}
}

// VerifyPaymentRequest is the checkout success callback. Field names follow
// the gateway's handler response so the client can forward it unchanged.
type VerifyPaymentRequest struct {
	OrderID    string `json:"razorpay_order_id"`
	PaymentID  string `json:"razorpay_payment_id"`
	Signature  string `json:"razorpay_signature"`
	DonorName  string `json:"donorName"`
	DonorEmail string `json:"donorEmail"`
	DonorPhone string `json:"donorPhone"`
}

func (r VerifyPaymentRequest) ToCommand() usecase.VerifyPaymentCommand {
	return usecase.VerifyPaymentCommand{
		OrderID:    r.OrderID,
		PaymentID:  r.PaymentID,
		Signature:  r.Signature,
		DonorName:  r.DonorName,
		DonorEmail: r.DonorEmail,
		DonorPhone: r.DonorPhone,
	}
}
