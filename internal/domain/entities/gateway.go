package entities

import "github.com/shopspring/decimal"

// Gateway payment states reported by Razorpay.
const (
	GatewayPaymentCreated    = "created"
	GatewayPaymentAuthorized = "authorized"
	GatewayPaymentCaptured   = "captured"
	GatewayPaymentFailed     = "failed"
	GatewayPaymentRefunded   = "refunded"
)

// GatewayOrder is the remote order returned by order creation.
type GatewayOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
}

// GatewayPayment is a payment attempt as seen by the gateway, either from a
// webhook payload or from a per-order payment lookup.
type GatewayPayment struct {
	ID          string
	OrderID     string
	Status      string
	AmountMinor int64
	Currency    string
	Email       string
	Contact     string
	Method      string
	ErrorReason string
	Notes       map[string]string
}

func (p GatewayPayment) Amount() decimal.Decimal {
	return FromMinorUnits(p.AmountMinor)
}

// DonorName returns the donor name stored in the order notes, if any.
func (p GatewayPayment) DonorName() string {
	if p.Notes == nil {
		return ""
	}
	return p.Notes["donor_name"]
}
