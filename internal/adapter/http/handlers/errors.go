package handlers

import (
	"errors"
	"net/http"

	"trust_donations/internal/usecase"
	"trust_donations/pkg"
)

var errInvalidPayload = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)

func mapDonationError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidDonationAmount):
		return pkg.NewDomainErrorSimple("INVALID_AMOUNT", "Donation amount is outside the accepted range", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrMissingDonorDetails):
		return pkg.NewDomainErrorSimple("MISSING_DONOR_DETAILS", "Donor name, email and phone are required", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrMissingVerificationFields):
		return pkg.NewDomainErrorSimple("MISSING_PAYMENT_FIELDS", "Order id, payment id and signature are required", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidSignature):
		return pkg.NewDomainErrorSimple("PAYMENT_VERIFICATION_FAILED", "Payment verification failed; contact support with your payment id", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidOrderID):
		return errInvalidPayload
	case errors.Is(err, usecase.ErrDonationNotFound):
		return pkg.NewDomainErrorSimple("DONATION_NOT_FOUND", "Donation not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrReceiptNotAvailable):
		return pkg.NewDomainErrorSimple("RECEIPT_NOT_AVAILABLE", "Donation is not confirmed yet", http.StatusNotFound)
	case errors.Is(err, usecase.ErrPaymentAlreadyProcessed):
		return pkg.NewDomainErrorSimple("PAYMENT_ALREADY_PROCESSED", "Payment already recorded for another donation", http.StatusConflict)
	case errors.Is(err, usecase.ErrOrderCreationFailed):
		return pkg.NewDomainError("ORDER_CREATION_FAILED", "Could not create payment order", err, http.StatusInternalServerError)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}

func mapWebhookError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrMissingWebhookSignature):
		return pkg.NewDomainErrorSimple("MISSING_SIGNATURE", "Missing webhook signature", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidWebhookSignature):
		return pkg.NewDomainErrorSimple("INVALID_SIGNATURE", "Invalid webhook signature", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidWebhookPayload):
		return pkg.NewDomainErrorSimple("INVALID_PAYLOAD", "Invalid webhook payload", http.StatusBadRequest)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "Webhook processing failed", err, http.StatusInternalServerError)
	}
}
