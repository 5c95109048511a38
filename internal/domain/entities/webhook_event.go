package entities

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	WebhookEventPaymentCaptured = "payment.captured"
	WebhookEventPaymentFailed   = "payment.failed"
)

var ErrMalformedWebhookEvent = errors.New("malformed webhook event")

// WebhookEvent is the closed set of gateway notifications this service knows.
// Implementations: PaymentCapturedEvent, PaymentFailedEvent, UnrecognizedEvent.
type WebhookEvent interface {
	EventType() string
	isWebhookEvent()
}

type PaymentCapturedEvent struct {
	Payment GatewayPayment
}

type PaymentFailedEvent struct {
	Payment GatewayPayment
}

// UnrecognizedEvent is any event type this service accepts but does not act on.
type UnrecognizedEvent struct {
	Type string
}

func (PaymentCapturedEvent) EventType() string { return WebhookEventPaymentCaptured }
func (PaymentFailedEvent) EventType() string   { return WebhookEventPaymentFailed }
func (e UnrecognizedEvent) EventType() string  { return e.Type }

func (PaymentCapturedEvent) isWebhookEvent() {}
func (PaymentFailedEvent) isWebhookEvent()   {}
func (UnrecognizedEvent) isWebhookEvent()    {}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity webhookPaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type webhookPaymentEntity struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	Status           string          `json:"status"`
	Amount           int64           `json:"amount"`
	Currency         string          `json:"currency"`
	Email            string          `json:"email"`
	Contact          string          `json:"contact"`
	Method           string          `json:"method"`
	ErrorDescription string          `json:"error_description"`
	RawNotes         json.RawMessage `json:"notes"`
}

// ParseWebhookEvent decodes an already authenticated webhook body.
//
// Payment events must carry a payment entity with an id and an order id;
// anything else of a known type is malformed. Unknown types decode to
// UnrecognizedEvent without inspecting the payload.
func ParseWebhookEvent(raw []byte) (WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Join(ErrMalformedWebhookEvent, err)
	}
	eventType := strings.TrimSpace(env.Event)
	if eventType == "" {
		return nil, ErrMalformedWebhookEvent
	}

	switch eventType {
	case WebhookEventPaymentCaptured, WebhookEventPaymentFailed:
	default:
		return UnrecognizedEvent{Type: eventType}, nil
	}

	if env.Payload.Payment == nil {
		return nil, ErrMalformedWebhookEvent
	}
	entity := env.Payload.Payment.Entity
	if strings.TrimSpace(entity.ID) == "" || strings.TrimSpace(entity.OrderID) == "" {
		return nil, ErrMalformedWebhookEvent
	}

	p := GatewayPayment{
		ID:          entity.ID,
		OrderID:     entity.OrderID,
		Status:      entity.Status,
		AmountMinor: entity.Amount,
		Currency:    strings.ToUpper(entity.Currency),
		Email:       entity.Email,
		Contact:     entity.Contact,
		Method:      entity.Method,
		ErrorReason: entity.ErrorDescription,
		Notes:       decodeNotes(entity.RawNotes),
	}

	if eventType == WebhookEventPaymentCaptured {
		return PaymentCapturedEvent{Payment: p}, nil
	}
	return PaymentFailedEvent{Payment: p}, nil
}

// Razorpay sends notes as an object, or as an empty array when there are none.
func decodeNotes(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var notes map[string]any
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil
	}
	out := make(map[string]string, len(notes))
	for k, v := range notes {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
