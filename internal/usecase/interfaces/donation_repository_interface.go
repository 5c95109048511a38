package interfaces

import (
	"context"
	"errors"
	"time"

	"trust_donations/internal/domain/entities"
)

var (
	// ErrDonationExists is returned by Create when a record for the order id
	// is already stored.
	ErrDonationExists = errors.New("donation already exists for order")
	// ErrDonationStateConflict is returned by Transition when the record is
	// missing or no longer in one of the expected From states.
	ErrDonationStateConflict = errors.New("donation state changed concurrently")
	// ErrPaymentIDConflict is returned when the payment id is already owned
	// by a different order.
	ErrPaymentIDConflict = errors.New("payment id already recorded for another order")
)

// DonationTransition is a conditional status change applied as a single
// atomic write.
//
// The write succeeds only while the stored status is one of From. When
// PaymentID is set the store also claims it for OrderID; claiming an id the
// same order already owns is allowed. Empty optional fields leave the stored
// values untouched; DonorEmail and DonorPhone only fill blanks.
type DonationTransition struct {
	OrderID          string
	From             []entities.DonationStatus
	To               entities.DonationStatus
	PaymentID        string
	AttemptPaymentID string
	Signature        string
	Method           string
	DonorEmail       string
	DonorPhone       string
}

// IDonationRepository abstracts DynamoDB persistence for Donation.
//
// Lookups return a zero Donation (Exists() == false) and a nil error when
// nothing is stored.
//
// ListStalePending orders by the sweep cursor (Donation.CheckedAt), oldest
// first. MarkChecked moves that cursor for a PENDING donation and returns
// ErrDonationStateConflict when the donation is missing or no longer PENDING.
type IDonationRepository interface {
	Create(ctx context.Context, d entities.Donation) (entities.Donation, error)
	GetByOrderID(ctx context.Context, orderID string) (entities.Donation, error)
	GetByPaymentID(ctx context.Context, paymentID string) (entities.Donation, error)
	Transition(ctx context.Context, t DonationTransition) (entities.Donation, error)
	ListStalePending(ctx context.Context, checkedBefore time.Time, limit int) ([]entities.Donation, error)
	MarkChecked(ctx context.Context, orderID string, at time.Time) error
}
