package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"trust_donations/internal/domain/entities"
	"trust_donations/internal/usecase/interfaces"
	mock_interfaces "trust_donations/internal/usecase/interfaces/mocks"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func testDonationSettings() DonationSettings {
	return DonationSettings{
		Currency:       "INR",
		KeyID:          "rzp_test_key",
		MinAmount:      decimal.NewFromInt(1),
		MaxAmount:      decimal.NewFromInt(1000000),
		ReceiptPrefix:  "TRST",
		GatewayTimeout: time.Second,
	}
}

func validOrderCommand() CreateOrderCommand {
	return CreateOrderCommand{
		Amount:     decimal.NewFromInt(500),
		DonorName:  "Jane Doe",
		DonorEmail: "jane@example.com",
		DonorPhone: "9999999999",
	}
}

func TestDonationUseCase_CreateOrder_Validations(t *testing.T) {
	cases := []struct {
		name string
		cmd  func() CreateOrderCommand
		want error
	}{
		{name: "amount above maximum", cmd: func() CreateOrderCommand {
			c := validOrderCommand()
			c.Amount = decimal.NewFromInt(250000000)
			return c
		}, want: ErrInvalidDonationAmount},
		{name: "amount below minimum", cmd: func() CreateOrderCommand {
			c := validOrderCommand()
			c.Amount = decimal.RequireFromString("0.5")
			return c
		}, want: ErrInvalidDonationAmount},
		{name: "negative amount", cmd: func() CreateOrderCommand {
			c := validOrderCommand()
			c.Amount = decimal.NewFromInt(-10)
			return c
		}, want: ErrInvalidDonationAmount},
		{name: "amount finer than a paisa", cmd: func() CreateOrderCommand {
			c := validOrderCommand()
			c.Amount = decimal.RequireFromString("100.005")
			return c
		}, want: ErrInvalidDonationAmount},
		{name: "missing name", cmd: func() CreateOrderCommand {
			c := validOrderCommand()
			c.DonorName = "  "
			return c
		}, want: ErrMissingDonorDetails},
		{name: "missing email", cmd: func() CreateOrderCommand {
			c := validOrderCommand()
			c.DonorEmail = ""
			return c
		}, want: ErrMissingDonorDetails},
		{name: "missing phone", cmd: func() CreateOrderCommand {
			c := validOrderCommand()
			c.DonorPhone = ""
			return c
		}, want: ErrMissingDonorDetails},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			repo := mock_interfaces.NewMockIDonationRepository(ctrl)
			gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
			uc := NewDonationUseCase(repo, gateway, testDonationSettings(), zap.NewNop())

			// No EXPECT on gateway or repo: a rejected order must not reach either.
			_, err := uc.CreateOrder(context.Background(), tc.cmd())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDonationUseCase_CreateOrder(t *testing.T) {
	t.Run("gateway error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIDonationRepository(ctrl)
		gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
		uc := NewDonationUseCase(repo, gateway, testDonationSettings(), zap.NewNop())

		gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(entities.GatewayOrder{}, errors.New("gateway 502"))

		_, err := uc.CreateOrder(context.Background(), validOrderCommand())
		if !errors.Is(err, ErrOrderCreationFailed) {
			t.Fatalf("expected ErrOrderCreationFailed, got %v", err)
		}
	})

	t.Run("gateway call is bounded", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIDonationRepository(ctrl)
		gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
		uc := NewDonationUseCase(repo, gateway, testDonationSettings(), zap.NewNop())

		gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ interfaces.CreateOrderInput) (entities.GatewayOrder, error) {
				if _, ok := ctx.Deadline(); !ok {
					t.Fatalf("expected a deadline on the gateway context")
				}
				return entities.GatewayOrder{}, context.DeadlineExceeded
			},
		)

		_, err := uc.CreateOrder(context.Background(), validOrderCommand())
		if !errors.Is(err, ErrOrderCreationFailed) || !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected wrapped deadline error, got %v", err)
		}
	})

	t.Run("gateway not configured", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIDonationRepository(ctrl)
		uc := NewDonationUseCase(repo, nil, testDonationSettings(), zap.NewNop())

		_, err := uc.CreateOrder(context.Background(), validOrderCommand())
		if !errors.Is(err, ErrOrderCreationFailed) {
			t.Fatalf("expected ErrOrderCreationFailed, got %v", err)
		}
	})

	t.Run("repository error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIDonationRepository(ctrl)
		gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
		uc := NewDonationUseCase(repo, gateway, testDonationSettings(), zap.NewNop())

		gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(entities.GatewayOrder{ID: "order_abc", AmountMinor: 50000, Currency: "INR"}, nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.Donation{}, errors.New("db"))

		_, err := uc.CreateOrder(context.Background(), validOrderCommand())
		if !errors.Is(err, ErrOrderCreationFailed) {
			t.Fatalf("expected ErrOrderCreationFailed, got %v", err)
		}
	})

	t.Run("success persists pending donation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIDonationRepository(ctrl)
		gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
		uc := NewDonationUseCase(repo, gateway, testDonationSettings(), zap.NewNop())

		gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, in interfaces.CreateOrderInput) (entities.GatewayOrder, error) {
				if in.AmountMinor != 50000 || in.Currency != "INR" {
					t.Fatalf("unexpected order input: %+v", in)
				}
				if in.Receipt == "" || in.Notes["donor_email"] != "jane@example.com" {
					t.Fatalf("expected receipt token and donor notes: %+v", in)
				}
				return entities.GatewayOrder{ID: "order_abc", AmountMinor: 50000, Currency: "INR"}, nil
			},
		)
		repo.EXPECT().Create(gomock.Any(), gomock.AssignableToTypeOf(entities.Donation{})).DoAndReturn(
			func(_ context.Context, d entities.Donation) (entities.Donation, error) {
				if d.OrderID != "order_abc" || d.Status != entities.DonationStatusPending || d.PaymentID != "" {
					t.Fatalf("unexpected donation: %+v", d)
				}
				if !d.Amount.Equal(decimal.NewFromInt(500)) || d.DonorName != "Jane Doe" {
					t.Fatalf("unexpected donation fields: %+v", d)
				}
				if d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
					t.Fatalf("expected timestamps")
				}
				d.ID = 42
				return d, nil
			},
		)

		handle, err := uc.CreateOrder(context.Background(), validOrderCommand())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if handle.OrderID != "order_abc" || handle.Currency != "INR" || handle.KeyID != "rzp_test_key" {
			t.Fatalf("unexpected handle: %+v", handle)
		}
		if !handle.Amount.Equal(decimal.NewFromInt(500)) {
			t.Fatalf("unexpected amount: %s", handle.Amount)
		}
	})
}

func TestDonationUseCase_GetReceipt(t *testing.T) {
	store := newMemoryStore()
	uc := NewDonationUseCase(store, nil, testDonationSettings(), zap.NewNop())
	paid := store.seed(entities.Donation{OrderID: "order_paid", PaymentID: "pay_1", Status: entities.DonationStatusSuccess, Amount: decimal.NewFromInt(10)})
	store.seed(entities.Donation{OrderID: "order_pending", Status: entities.DonationStatusPending})

	t.Run("empty order id", func(t *testing.T) {
		if _, err := uc.GetReceipt(context.Background(), " "); !errors.Is(err, ErrInvalidOrderID) {
			t.Fatalf("expected ErrInvalidOrderID, got %v", err)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		if _, err := uc.GetReceipt(context.Background(), "order_missing"); !errors.Is(err, ErrDonationNotFound) {
			t.Fatalf("expected ErrDonationNotFound, got %v", err)
		}
	})

	t.Run("pending order", func(t *testing.T) {
		if _, err := uc.GetReceipt(context.Background(), "order_pending"); !errors.Is(err, ErrReceiptNotAvailable) {
			t.Fatalf("expected ErrReceiptNotAvailable, got %v", err)
		}
	})

	t.Run("paid order", func(t *testing.T) {
		r, err := uc.GetReceipt(context.Background(), "order_paid")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.ReceiptNo != paid.ReceiptNo("TRST") || r.Donation.PaymentID != "pay_1" {
			t.Fatalf("unexpected receipt: %+v", r)
		}
	})
}
