package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"trust_donations/internal/domain/entities"
	"trust_donations/internal/usecase/interfaces"

	"go.uber.org/zap"
)

type fakeOrders struct {
	created  map[string]interface{}
	createFn func(data map[string]interface{}) (map[string]interface{}, error)
	paysFn   func(orderID string) (map[string]interface{}, error)
}

func (f *fakeOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.created = data
	return f.createFn(data)
}

func (f *fakeOrders) Payments(orderID string, _ map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	return f.paysFn(orderID)
}

func newTestGateway(orders orderAPI) *RazorpayGateway {
	return &RazorpayGateway{orders: orders, logger: zap.NewNop()}
}

func TestNewRazorpayGateway(t *testing.T) {
	if _, err := NewRazorpayGateway("", "secret", false, zap.NewNop()); !errors.Is(err, ErrMissingRazorpayCredentials) {
		t.Fatalf("expected ErrMissingRazorpayCredentials, got %v", err)
	}
	g, err := NewRazorpayGateway("rzp_test", "secret", false, zap.NewNop())
	if err != nil || g.orders == nil {
		t.Fatalf("expected configured gateway, got %v", err)
	}
}

func TestRazorpayGateway_MockMode(t *testing.T) {
	g, err := NewRazorpayGateway("", "", true, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := g.CreateOrder(context.Background(), interfaces.CreateOrderInput{AmountMinor: 50000, Currency: "INR", Receipt: "rcpt_1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := g.CreateOrder(context.Background(), interfaces.CreateOrderInput{AmountMinor: 100, Currency: "INR"})
	if !strings.HasPrefix(a.ID, "order_") || a.ID == b.ID {
		t.Fatalf("expected distinct mock order ids, got %s and %s", a.ID, b.ID)
	}
	if a.AmountMinor != 50000 || a.Currency != "INR" {
		t.Fatalf("unexpected order: %+v", a)
	}

	payments, err := g.ListOrderPayments(context.Background(), a.ID)
	if err != nil || len(payments) != 0 {
		t.Fatalf("mock gateway must report no payments, got %v %v", payments, err)
	}
}

func TestRazorpayGateway_CreateOrder(t *testing.T) {
	t.Run("maps request and response", func(t *testing.T) {
		orders := &fakeOrders{createFn: func(data map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{
				"id":       "order_abc",
				"amount":   float64(50000),
				"currency": "INR",
				"receipt":  data["receipt"],
				"status":   "created",
			}, nil
		}}
		g := newTestGateway(orders)

		order, err := g.CreateOrder(context.Background(), interfaces.CreateOrderInput{
			AmountMinor: 50000,
			Currency:    "INR",
			Receipt:     "rcpt_1",
			Notes:       map[string]string{"donor_name": "Jane Doe"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.ID != "order_abc" || order.AmountMinor != 50000 || order.Receipt != "rcpt_1" {
			t.Fatalf("unexpected order: %+v", order)
		}
		if orders.created["amount"] != int64(50000) {
			t.Fatalf("expected minor-unit amount in request, got %v", orders.created["amount"])
		}
		notes := orders.created["notes"].(map[string]interface{})
		if notes["donor_name"] != "Jane Doe" {
			t.Fatalf("expected donor notes, got %v", notes)
		}
	})

	t.Run("sdk error", func(t *testing.T) {
		g := newTestGateway(&fakeOrders{createFn: func(map[string]interface{}) (map[string]interface{}, error) {
			return nil, errors.New("BAD_REQUEST_ERROR")
		}})
		if _, err := g.CreateOrder(context.Background(), interfaces.CreateOrderInput{AmountMinor: 100}); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("response without id", func(t *testing.T) {
		g := newTestGateway(&fakeOrders{createFn: func(map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{}, nil
		}})
		if _, err := g.CreateOrder(context.Background(), interfaces.CreateOrderInput{AmountMinor: 100}); !errors.Is(err, ErrUnexpectedRazorpayResponse) {
			t.Fatalf("expected ErrUnexpectedRazorpayResponse, got %v", err)
		}
	})

	t.Run("honors the context deadline", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		g := newTestGateway(&fakeOrders{createFn: func(map[string]interface{}) (map[string]interface{}, error) {
			<-release
			return nil, nil
		}})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := g.CreateOrder(ctx, interfaces.CreateOrderInput{AmountMinor: 100}); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	})

	t.Run("unconfigured gateway", func(t *testing.T) {
		var g *RazorpayGateway
		if _, err := g.CreateOrder(context.Background(), interfaces.CreateOrderInput{}); !errors.Is(err, ErrRazorpayGatewayNotConfigured) {
			t.Fatalf("expected ErrRazorpayGatewayNotConfigured, got %v", err)
		}
	})
}

func TestRazorpayGateway_ListOrderPayments(t *testing.T) {
	g := newTestGateway(&fakeOrders{paysFn: func(orderID string) (map[string]interface{}, error) {
		if orderID != "order_abc" {
			t.Fatalf("unexpected order id %s", orderID)
		}
		return map[string]interface{}{
			"entity": "collection",
			"count":  float64(2),
			"items": []interface{}{
				map[string]interface{}{
					"id":                "pay_failed",
					"order_id":          "order_abc",
					"status":            "failed",
					"amount":            float64(50000),
					"currency":          "inr",
					"error_description": "Payment declined",
					"notes":             []interface{}{},
				},
				map[string]interface{}{
					"id":       "pay_123",
					"status":   "captured",
					"amount":   float64(50000),
					"currency": "INR",
					"email":    "donor@example.com",
					"contact":  "+919999999999",
					"method":   "upi",
					"notes":    map[string]interface{}{"donor_name": "Asha"},
				},
			},
		}, nil
	}})

	payments, err := g.ListOrderPayments(context.Background(), "order_abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(payments))
	}
	failed, captured := payments[0], payments[1]
	if failed.Status != entities.GatewayPaymentFailed || failed.ErrorReason != "Payment declined" || failed.Currency != "INR" {
		t.Fatalf("unexpected failed payment: %+v", failed)
	}
	if captured.OrderID != "order_abc" || captured.DonorName() != "Asha" || captured.Method != "upi" {
		t.Fatalf("unexpected captured payment: %+v", captured)
	}
}

func TestRazorpayGateway_ListOrderPaymentsUnexpectedShape(t *testing.T) {
	g := newTestGateway(&fakeOrders{paysFn: func(string) (map[string]interface{}, error) {
		return map[string]interface{}{"items": "nope"}, nil
	}})
	if _, err := g.ListOrderPayments(context.Background(), "order_abc"); !errors.Is(err, ErrUnexpectedRazorpayResponse) {
		t.Fatalf("expected ErrUnexpectedRazorpayResponse, got %v", err)
	}
}
