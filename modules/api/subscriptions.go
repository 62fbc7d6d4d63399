package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/thegrail/grail-backend/pkg/logger"
)

// webhookBodyLimit caps webhook payloads; provider events are small.
const webhookBodyLimit = 1 << 20

type subscriptionsHandler struct {
	billing  BillingService
	licenses LicenseService
	accounts AccountService
	validate *validator.Validate
	log      *slog.Logger
}

func (h *subscriptionsHandler) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/create-checkout-session", h.createCheckoutSession)
	r.Get("/retrieve-subscription", h.retrieveSubscription)
	r.Post("/cancel-subscription", h.cancelSubscription)
	r.Post("/webhook", h.webhook)
	r.Get("/available-licenses", h.availableLicenses)
	r.Post("/validate-license", h.validateLicense)
	return r
}

type checkoutRequest struct {
	Email  string `json:"email" validate:"required,email"`
	PlanID string `json:"plan_id" validate:"required"`
}

func (h *subscriptionsHandler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	session, err := h.billing.CreateCheckoutSession(r.Context(), req.Email, req.PlanID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, r, http.StatusOK, session)
}

func (h *subscriptionsHandler) retrieveSubscription(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("subscription_id")
	if id == "" {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: "subscription_id query parameter is required"})
		return
	}

	sub, err := h.billing.RetrieveSubscription(r.Context(), id)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, r, http.StatusOK, sub)
}

type cancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id" validate:"required"`
}

func (h *subscriptionsHandler) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	var req cancelSubscriptionRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	sub, err := h.billing.CancelSubscription(r.Context(), req.SubscriptionID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, r, http.StatusOK, sub)
}

func (h *subscriptionsHandler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: "failed to read payload"})
		return
	}

	if err := h.billing.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.log.WarnContext(r.Context(), "webhook rejected", logger.Error(err))
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]string{"status": "success"})
}

func (h *subscriptionsHandler) availableLicenses(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("user_email")
	if email == "" {
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: "user_email query parameter is required"})
		return
	}

	user, err := h.accounts.GetUserByEmail(r.Context(), email)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	licenses, err := h.licenses.Available(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, r, http.StatusOK, licenses)
}

type validateLicenseRequest struct {
	LicenseKey    string `json:"license_key" validate:"required"`
	DeviceAddress string `json:"device_address" validate:"required"`
}

func (h *subscriptionsHandler) validateLicense(w http.ResponseWriter, r *http.Request) {
	var req validateLicenseRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	lic, err := h.licenses.ValidateAndBind(r.Context(), req.LicenseKey, req.DeviceAddress)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	h.log.InfoContext(r.Context(), "license validated", logger.LicenseID(lic.ID))
	respondJSON(w, r, http.StatusOK, lic)
}
