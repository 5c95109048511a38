// Package signature validates the HMAC-SHA256 signatures the payment gateway
// attaches to checkout callbacks and webhook deliveries.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Verifier holds the two shared secrets. It is stateless and safe for
// concurrent use.
type Verifier struct {
	keySecret     []byte
	webhookSecret []byte
}

func NewVerifier(keySecret, webhookSecret string) *Verifier {
	return &Verifier{keySecret: []byte(keySecret), webhookSecret: []byte(webhookSecret)}
}

// VerifyPayment checks a checkout callback signature computed over
// "{orderID}|{paymentID}" with the API key secret.
func (v *Verifier) VerifyPayment(orderID, paymentID, signature string) bool {
	if len(v.keySecret) == 0 {
		return false
	}
	return equal(Sign(v.keySecret, []byte(orderID+"|"+paymentID)), signature)
}

// VerifyWebhook checks a webhook signature computed over the raw request body
// with the webhook secret. The body must be the bytes as received.
func (v *Verifier) VerifyWebhook(body []byte, signature string) bool {
	if len(v.webhookSecret) == 0 {
		return false
	}
	return equal(Sign(v.webhookSecret, body), signature)
}

// Sign returns the lowercase hex HMAC-SHA256 of payload.
func Sign(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignPayment is the checkout callback counterpart of VerifyPayment.
func SignPayment(secret, orderID, paymentID string) string {
	return Sign([]byte(secret), []byte(orderID+"|"+paymentID))
}

func equal(expected, got string) bool {
	got = strings.TrimSpace(got)
	if got == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(got))
}
