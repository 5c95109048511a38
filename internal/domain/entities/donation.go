package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DonationStatus is the payment state of a donation.
//
// PENDING and FAILED may still move to SUCCESS. SUCCESS and REFUNDED are
// terminal: no writer may overwrite them.
type DonationStatus string

const (
	DonationStatusPending  DonationStatus = "PENDING"
	DonationStatusSuccess  DonationStatus = "SUCCESS"
	DonationStatusFailed   DonationStatus = "FAILED"
	DonationStatusRefunded DonationStatus = "REFUNDED"
)

func (s DonationStatus) IsTerminal() bool {
	return s == DonationStatusSuccess || s == DonationStatusRefunded
}

// OpenStatuses lists the states a finalizing writer may transition from.
func OpenStatuses() []DonationStatus {
	return []DonationStatus{DonationStatusPending, DonationStatusFailed}
}

// Donation is the donation record persisted in DynamoDB.
//
// Storage model (DynamoDB):
//   - PK: order_id (gateway order id, one record per order)
//   - GSI (status-last_checked_at-index): status + last_checked_at, used by
//     reconciliation so every run starts with the least recently checked rows
//   - payment_id uniqueness is held by guard items in the keys table
//
// AttemptPaymentID records the payment id of a rejected client verification;
// it is audit data only and never claims payment_id uniqueness.
//
// LastCheckedAt starts at CreatedAt and moves forward each time a sweep finds
// the order still unresolved; SweepAttempts counts those visits.
type Donation struct {
	ID               int64           `json:"id"`
	OrderID          string          `json:"order_id"`
	PaymentID        string          `json:"payment_id,omitempty"`
	AttemptPaymentID string          `json:"attempt_payment_id,omitempty"`
	Signature        string          `json:"signature,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	DonorName        string          `json:"donor_name"`
	DonorEmail       string          `json:"donor_email"`
	DonorPhone       string          `json:"donor_phone"`
	Method           string          `json:"method,omitempty"`
	Status           DonationStatus  `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	LastCheckedAt    time.Time       `json:"last_checked_at"`
	SweepAttempts    int             `json:"sweep_attempts,omitempty"`
}

// Exists reports whether the value was loaded from the store.
func (d Donation) Exists() bool {
	return d.OrderID != ""
}

// ReceiptNo derives the receipt number from the internal id: prefix followed
// by the id zero-padded to six digits.
func (d Donation) ReceiptNo(prefix string) string {
	return fmt.Sprintf("%s%06d", prefix, d.ID)
}

// CheckedAt is the sweep cursor: LastCheckedAt, or CreatedAt for a donation
// no sweep has visited yet.
func (d Donation) CheckedAt() time.Time {
	if d.LastCheckedAt.IsZero() {
		return d.CreatedAt
	}
	return d.LastCheckedAt
}

// HasMinorUnitPrecision reports whether the amount fits the gateway's two
// decimal minor unit without rounding.
func HasMinorUnitPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(2))
}

// MinorUnits converts a major-unit amount to the gateway's minor unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts a gateway minor-unit amount to major units.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
