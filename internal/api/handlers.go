package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hassanidea/Subscription-Status-Viewer/internal/billing"
	"github.com/hassanidea/Subscription-Status-Viewer/pkg/jwt"
)

// identity is the authenticated caller extracted from JWT claims.
type identity struct {
	UserID string
	Email  string
}

// identityFromContext reads the caller identity from the verified JWT
// claims. The middleware guarantees claims are present on protected routes;
// a missing subject still yields false for defense against misconfiguration.
func identityFromContext(r *http.Request) (identity, bool) {
	claims, ok := jwt.GetClaims[map[string]any](r.Context())
	if !ok {
		return identity{}, false
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return identity{}, false
	}
	email, _ := claims["email"].(string)

	return identity{UserID: sub, Email: email}, true
}

// Handler serves the subscription and billing session endpoints.
type Handler struct {
	svc billing.Service
	log *slog.Logger
}

// NewHandler creates a new API handler.
// Panics if svc is nil to fail fast during initialization.
func NewHandler(svc billing.Service, log *slog.Logger) *Handler {
	if svc == nil {
		panic("api: billing service is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{svc: svc, log: log}
}

// getSubscription handles GET /v1/subscription.
func (h *Handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	sub, err := h.svc.GetSubscriptionStatus(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// createCustomer handles POST /v1/billing/customer.
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	mapping, err := h.svc.EnsureCustomer(r.Context(), id.UserID, id.Email)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping)
}

type portalRequest struct {
	ReturnURL string `json:"returnUrl"`
}

// createPortalSession handles POST /v1/billing/portal.
func (h *Handler) createPortalSession(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	var req portalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	link, err := h.svc.CreateBillingPortalSession(r.Context(), id.UserID, req.ReturnURL)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link.URL})
}

type checkoutRequest struct {
	PriceID   string `json:"priceId"`
	ReturnURL string `json:"returnUrl"`
}

// createCheckoutSession handles POST /v1/billing/checkout.
func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	link, err := h.svc.Subscribe(r.Context(), id.UserID, id.Email, req.PriceID, req.ReturnURL)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url":       link.URL,
		"sessionId": link.SessionID,
	})
}

func (h *Handler) unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(envelope{Error: &errorDetail{
		Code:    "unauthorized",
		Message: "missing or invalid credentials",
	}})
}

// decodeJSON parses a request body, folding malformed input into the
// invalid-argument taxonomy so it maps to 400.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Join(billing.ErrInvalidArgument, err)
	}
	return nil
}
