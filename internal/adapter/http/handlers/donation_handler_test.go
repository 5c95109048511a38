package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trust_donations/internal/adapter/http/handlers/mocks"
	"trust_donations/internal/domain/entities"
	"trust_donations/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newDonationRouter(donations usecase.IDonationUseCase, verifier usecase.IPaymentVerificationUseCase) *gin.Engine {
	h := NewDonationHandler(donations, verifier, zap.NewNop())
	r := gin.New()
	r.POST("/v1/donations/orders", h.CreateOrder)
	r.POST("/v1/donations/verify", h.VerifyPayment)
	r.GET("/v1/donations/:order_id", h.GetDonation)
	return r
}

func successReceipt() usecase.Receipt {
	return usecase.Receipt{
		ReceiptNo: "TRST000042",
		Donation: entities.Donation{
			ID:         42,
			OrderID:    "order_abc",
			PaymentID:  "pay_123",
			Amount:     decimal.NewFromInt(500),
			Currency:   "INR",
			DonorName:  "Jane Doe",
			DonorEmail: "jane@example.com",
			DonorPhone: "9999999999",
			Status:     entities.DonationStatusSuccess,
			CreatedAt:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		},
	}
}

func TestDonationHandler_CreateOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		r := newDonationRouter(mocks.NewMockIDonationUseCase(ctrl), mocks.NewMockIPaymentVerificationUseCase(ctrl))

		req := httptest.NewRequest(http.MethodPost, "/v1/donations/orders", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"amount out of range", usecase.ErrInvalidDonationAmount, http.StatusBadRequest},
		{"missing donor", usecase.ErrMissingDonorDetails, http.StatusBadRequest},
		{"gateway failure", fmt.Errorf("%w: timeout", usecase.ErrOrderCreationFailed), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			uc := mocks.NewMockIDonationUseCase(ctrl)
			r := newDonationRouter(uc, mocks.NewMockIPaymentVerificationUseCase(ctrl))

			uc.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(usecase.OrderHandle{}, tc.err)

			req := httptest.NewRequest(http.MethodPost, "/v1/donations/orders", bytes.NewBufferString(`{"amount":250000000,"donorName":"Jane Doe"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIDonationUseCase(ctrl)
		r := newDonationRouter(uc, mocks.NewMockIPaymentVerificationUseCase(ctrl))

		uc.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, cmd usecase.CreateOrderCommand) (usecase.OrderHandle, error) {
			if !cmd.Amount.Equal(decimal.NewFromInt(500)) || cmd.DonorName != "Jane Doe" {
				t.Fatalf("unexpected command: %+v", cmd)
			}
			return usecase.OrderHandle{OrderID: "order_abc", Amount: cmd.Amount, Currency: "INR", KeyID: "rzp_test"}, nil
		})

		body := `{"amount":500,"donorName":"Jane Doe","donorEmail":"jane@example.com","donorPhone":"9999999999"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/donations/orders", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var res map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &res)
		if res["orderId"] != "order_abc" || res["keyId"] != "rzp_test" || res["amount"] != float64(500) {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}

func TestDonationHandler_VerifyPayment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := `{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_123","razorpay_signature":"sig"}`

	cases := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"missing fields", usecase.ErrMissingVerificationFields, http.StatusBadRequest, "MISSING_PAYMENT_FIELDS"},
		{"bad signature", usecase.ErrInvalidSignature, http.StatusBadRequest, "PAYMENT_VERIFICATION_FAILED"},
		{"unknown order", usecase.ErrDonationNotFound, http.StatusNotFound, "DONATION_NOT_FOUND"},
		{"payment owned elsewhere", usecase.ErrPaymentAlreadyProcessed, http.StatusConflict, "PAYMENT_ALREADY_PROCESSED"},
		{"storage failure", errors.New("dynamodb unavailable"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			verifier := mocks.NewMockIPaymentVerificationUseCase(ctrl)
			r := newDonationRouter(mocks.NewMockIDonationUseCase(ctrl), verifier)

			verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(usecase.Receipt{}, tc.err)

			req := httptest.NewRequest(http.MethodPost, "/v1/donations/verify", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			var res map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &res)
			if res["code"] != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, w.Body.String())
			}
		})
	}

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		verifier := mocks.NewMockIPaymentVerificationUseCase(ctrl)
		r := newDonationRouter(mocks.NewMockIDonationUseCase(ctrl), verifier)

		verifier.EXPECT().Verify(gomock.Any(), usecase.VerifyPaymentCommand{
			OrderID:   "order_abc",
			PaymentID: "pay_123",
			Signature: "sig",
		}).Return(successReceipt(), nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/donations/verify", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var res struct {
			Success bool              `json:"success"`
			Payment map[string]any    `json:"payment"`
			Donor   map[string]string `json:"donor"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &res)
		if !res.Success || res.Payment["receiptNo"] != "TRST000042" || res.Payment["paymentId"] != "pay_123" || res.Donor["email"] != "jane@example.com" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}

func TestDonationHandler_GetDonation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("not confirmed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIDonationUseCase(ctrl)
		r := newDonationRouter(uc, mocks.NewMockIPaymentVerificationUseCase(ctrl))

		uc.EXPECT().GetReceipt(gomock.Any(), "order_abc").Return(usecase.Receipt{}, usecase.ErrReceiptNotAvailable)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/donations/order_abc", nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIDonationUseCase(ctrl)
		r := newDonationRouter(uc, mocks.NewMockIPaymentVerificationUseCase(ctrl))

		uc.EXPECT().GetReceipt(gomock.Any(), "order_abc").Return(successReceipt(), nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/donations/order_abc", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})
}
