package response

import (
	"encoding/json"
	"time"

	"trust_donations/internal/usecase"
)

type OrderResponse struct {
	OrderID  string      `json:"orderId"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	KeyID    string      `json:"keyId"`
}

func FromOrderHandle(h usecase.OrderHandle) OrderResponse {
	return OrderResponse{
		OrderID:  h.OrderID,
		Amount:   json.Number(h.Amount.String()),
		Currency: h.Currency,
		KeyID:    h.KeyID,
	}
}

type PaymentView struct {
	PaymentID string      `json:"paymentId"`
	OrderID   string      `json:"orderId"`
	Amount    json.Number `json:"amount"`
	Currency  string      `json:"currency"`
	Status    string      `json:"status"`
	ReceiptNo string      `json:"receiptNo"`
	CreatedAt time.Time   `json:"createdAt"`
}

type DonorView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ReceiptResponse is returned by verification and by the donation lookup.
type ReceiptResponse struct {
	Success bool        `json:"success"`
	Payment PaymentView `json:"payment"`
	Donor   DonorView   `json:"donor"`
}

func FromReceipt(r usecase.Receipt) ReceiptResponse {
	d := r.Donation
	return ReceiptResponse{
		Success: true,
		Payment: PaymentView{
			PaymentID: d.PaymentID,
			OrderID:   d.OrderID,
			Amount:    json.Number(d.Amount.String()),
			Currency:  d.Currency,
			Status:    string(d.Status),
			ReceiptNo: r.ReceiptNo,
			CreatedAt: d.CreatedAt,
		},
		Donor: DonorView{
			Name:  d.DonorName,
			Email: d.DonorEmail,
			Phone: d.DonorPhone,
		},
	}
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}

type SweepResponse struct {
	Success      bool `json:"success"`
	Checked      int  `json:"checked"`
	Skipped      bool `json:"skipped,omitempty"`
	Succeeded    int  `json:"succeeded"`
	Failed       int  `json:"failed"`
	StillPending int  `json:"stillPending"`
	Errors       int  `json:"errors"`
}

func FromSweepReport(r usecase.SweepReport) SweepResponse {
	return SweepResponse{
		Success:      true,
		Checked:      r.Checked,
		Skipped:      r.Skipped,
		Succeeded:    r.Count(usecase.SweepOutcomeSucceeded),
		Failed:       r.Count(usecase.SweepOutcomeFailed),
		StillPending: r.Count(usecase.SweepOutcomeStillPending),
		Errors:       r.Count(usecase.SweepOutcomeError),
	}
}
