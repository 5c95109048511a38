package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"trust_donations/internal/domain/entities"
	"trust_donations/internal/usecase/interfaces"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"
)

var (
	ErrMissingRazorpayCredentials   = errors.New("missing RAZORPAY_KEY_ID or RAZORPAY_KEY_SECRET")
	ErrRazorpayGatewayNotConfigured = errors.New("razorpay gateway not configured")
	ErrUnexpectedRazorpayResponse   = errors.New("unexpected razorpay response")
)

// orderAPI is the part of the Razorpay order resource used here.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Payments(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type RazorpayGateway struct {
	orders   orderAPI
	mockMode bool
	mockSeq  atomic.Int64
	logger   *zap.Logger
}

var _ interfaces.IPaymentGateway = (*RazorpayGateway)(nil)

// NewRazorpayGateway returns the Razorpay adapter, or an in-process fake when
// mock is set. The fake issues order ids and never reports payments.
func NewRazorpayGateway(keyID, keySecret string, mock bool, logger *zap.Logger) (*RazorpayGateway, error) {
	logger = logger.Named("gateway")
	if mock {
		logger.Info("razorpay mock mode enabled")
		return &RazorpayGateway{mockMode: true, logger: logger}, nil
	}
	if keyID == "" || keySecret == "" {
		logger.Error("razorpay credentials missing")
		return nil, ErrMissingRazorpayCredentials
	}

	client := razorpay.NewClient(keyID, keySecret)
	logger.Info("razorpay client initialized")
	return &RazorpayGateway{orders: client.Order, logger: logger}, nil
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, in interfaces.CreateOrderInput) (entities.GatewayOrder, error) {
	if g != nil && g.mockMode {
		id := fmt.Sprintf("order_%d%04d", time.Now().UTC().Unix(), g.mockSeq.Add(1))
		g.logger.Info("mock order created", zap.String("order_id", id), zap.Int64("amount_minor", in.AmountMinor))
		return entities.GatewayOrder{
			ID:          id,
			AmountMinor: in.AmountMinor,
			Currency:    in.Currency,
			Receipt:     in.Receipt,
			Status:      "created",
		}, nil
	}
	if g == nil || g.orders == nil {
		return entities.GatewayOrder{}, ErrRazorpayGatewayNotConfigured
	}

	notes := make(map[string]interface{}, len(in.Notes))
	for k, v := range in.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":   in.AmountMinor,
		"currency": in.Currency,
		"receipt":  in.Receipt,
		"notes":    notes,
	}

	resp, err := call(ctx, func() (map[string]interface{}, error) {
		return g.orders.Create(data, nil)
	})
	if err != nil {
		g.logger.Warn("razorpay order create failed", zap.String("receipt", in.Receipt), zap.Error(err))
		return entities.GatewayOrder{}, err
	}

	order := entities.GatewayOrder{
		ID:          stringField(resp, "id"),
		AmountMinor: int64Field(resp, "amount"),
		Currency:    strings.ToUpper(stringField(resp, "currency")),
		Receipt:     stringField(resp, "receipt"),
		Status:      stringField(resp, "status"),
	}
	if order.ID == "" {
		return entities.GatewayOrder{}, fmt.Errorf("%w: order without id", ErrUnexpectedRazorpayResponse)
	}
	g.logger.Info("razorpay order created", zap.String("order_id", order.ID), zap.String("receipt", order.Receipt))
	return order, nil
}

func (g *RazorpayGateway) ListOrderPayments(ctx context.Context, orderID string) ([]entities.GatewayPayment, error) {
	if g != nil && g.mockMode {
		return nil, nil
	}
	if g == nil || g.orders == nil {
		return nil, ErrRazorpayGatewayNotConfigured
	}

	resp, err := call(ctx, func() (map[string]interface{}, error) {
		return g.orders.Payments(orderID, nil, nil)
	})
	if err != nil {
		return nil, err
	}

	raw, ok := resp["items"].([]interface{})
	if !ok {
		if _, present := resp["items"]; present {
			return nil, fmt.Errorf("%w: items is %T", ErrUnexpectedRazorpayResponse, resp["items"])
		}
		return nil, nil
	}
	out := make([]entities.GatewayPayment, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		p := paymentFromMap(m)
		if p.OrderID == "" {
			p.OrderID = orderID
		}
		out = append(out, p)
	}
	return out, nil
}

// call runs a blocking SDK request and gives up when ctx is done. The SDK has
// no context support, so an abandoned request finishes in the background.
func call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	type result struct {
		resp map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := fn()
		done <- result{resp, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.resp, r.err
	}
}

func paymentFromMap(m map[string]interface{}) entities.GatewayPayment {
	p := entities.GatewayPayment{
		ID:          stringField(m, "id"),
		OrderID:     stringField(m, "order_id"),
		Status:      stringField(m, "status"),
		AmountMinor: int64Field(m, "amount"),
		Currency:    strings.ToUpper(stringField(m, "currency")),
		Email:       stringField(m, "email"),
		Contact:     stringField(m, "contact"),
		Method:      stringField(m, "method"),
		ErrorReason: stringField(m, "error_description"),
	}
	// notes is an object, or an empty array when unset.
	if notes, ok := m["notes"].(map[string]interface{}); ok {
		p.Notes = make(map[string]string, len(notes))
		for k, v := range notes {
			if s, ok := v.(string); ok {
				p.Notes[k] = s
			}
		}
	}
	return p
}

func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func int64Field(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}
