package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/paypass/paypass-backend/internal/config"
	"github.com/paypass/paypass-backend/internal/model"
	"github.com/paypass/paypass-backend/internal/mongodb"
	"github.com/paypass/paypass-backend/internal/verifier"
	"github.com/paypass/paypass-backend/internal/webhook"
)

// HealthReporter exposes database connection state to the health endpoint.
type HealthReporter interface {
	Status() mongodb.Status
	Err() error
}

// Handler holds HTTP handler dependencies.
type Handler struct {
	verifier *verifier.Verifier
	health   HealthReporter
	cfg      config.Config
}

// New creates a new Handler.
func New(v *verifier.Verifier, health HealthReporter, cfg config.Config) *Handler {
	return &Handler{verifier: v, health: health, cfg: cfg}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/payments/checkouts", h.CreateCheckout)
	mux.HandleFunc("GET /api/payments/return", h.HandleRedirectReturn)
	mux.HandleFunc("POST /api/payments/webhook", h.HandleWebhook)
	mux.HandleFunc("GET /api/payments/checkouts/{id}/status", h.CheckStatus)
	mux.HandleFunc("GET /health/db", h.DatabaseHealth)
}

// CreateCheckout handles POST /api/payments/checkouts
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	session, err := h.verifier.CreateCheckout(r.Context(), req)
	if err != nil {
		writeVerifierError(w, "checkout creation failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"message":     "checkout created",
		"checkout_id": session.CheckoutID,
		"raw":         session.Raw,
	})
}

// HandleRedirectReturn handles GET /api/payments/return. The gateway sends
// the user's browser back here; the response is always a redirect to the
// frontend result page, degrading to status=error rather than an error page.
func (h *Handler) HandleRedirectReturn(w http.ResponseWriter, r *http.Request) {
	checkoutID := r.URL.Query().Get("id")
	resourcePath := r.URL.Query().Get("resourcePath")

	outcome, err := h.verifier.HandleReturn(r.Context(), checkoutID, resourcePath)
	if err != nil {
		slog.Warn("redirect_return_failed",
			"checkout_id", checkoutID,
			"error", err,
		)
		h.redirectToResult(w, r, "error", checkoutID)
		return
	}

	h.redirectToResult(w, r, string(outcome.Status), checkoutID)
}

func (h *Handler) redirectToResult(w http.ResponseWriter, r *http.Request, status, checkoutID string) {
	q := url.Values{}
	q.Set("status", status)
	if checkoutID != "" {
		q.Set("checkoutId", checkoutID)
	}
	http.Redirect(w, r, h.cfg.FrontendResultURL+"?"+q.Encode(), http.StatusFound)
}

// webhookEnvelope covers both plaintext and encrypted webhook bodies. The
// checkout identifiers sit either at the top level or under payload.
type webhookEnvelope struct {
	EncryptedBody string          `json:"encryptedBody"`
	Type          string          `json:"type"`
	ID            string          `json:"id"`
	ResourcePath  string          `json:"resourcePath"`
	Payload       *webhookPayload `json:"payload"`
}

type webhookPayload struct {
	ID           string `json:"id"`
	ResourcePath string `json:"resourcePath"`
}

func (e *webhookEnvelope) identifiers() (string, string) {
	if e.Payload != nil {
		return e.Payload.ID, e.Payload.ResourcePath
	}
	return e.ID, e.ResourcePath
}

// HandleWebhook handles POST /api/payments/webhook. Any processed
// notification gets a 200 acknowledgement so the sender stops redelivering,
// even when resolution or decryption failed. Only structurally malformed
// payloads earn a 4xx.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var env webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook body", err)
		return
	}

	if h.cfg.WebhookDecryptionKey != "" {
		// Decryption is a mandatory gate: no business logic reads
		// webhook fields before the payload authenticates.
		plaintext, err := webhook.Decrypt(
			h.cfg.WebhookDecryptionKey,
			r.Header.Get("X-Initialization-Vector"),
			r.Header.Get("X-Authentication-Tag"),
			env.EncryptedBody,
		)
		if err != nil {
			slog.Error("webhook_decryption_failed", "error", err)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": false,
				"message": "notification dropped",
			})
			return
		}
		env = webhookEnvelope{}
		if err := json.Unmarshal(plaintext, &env); err != nil {
			writeError(w, http.StatusBadRequest, "invalid decrypted payload", err)
			return
		}
	}

	checkoutID, resourcePath := env.identifiers()
	outcome, err := h.verifier.HandleReturn(r.Context(), checkoutID, resourcePath)
	if err != nil {
		if isValidation(err) {
			writeError(w, http.StatusBadRequest, "malformed webhook payload", err)
			return
		}
		// Processed but unresolved; acknowledge so the sender stops.
		slog.Error("webhook_processing_failed",
			"checkout_id", checkoutID,
			"error", err,
		)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "notification received, resolution failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "notification processed",
		"checkout_id": outcome.CheckoutID,
		"status":      outcome.Status,
	})
}

// CheckStatus handles GET /api/payments/checkouts/{id}/status. With a
// resourcePath it fetches fresh status from the gateway; without one it
// serves the last recorded outcome.
func (h *Handler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	checkoutID := r.PathValue("id")
	if checkoutID == "" {
		writeError(w, http.StatusBadRequest, "checkout id is required", nil)
		return
	}

	resourcePath := r.URL.Query().Get("resourcePath")
	if resourcePath != "" {
		outcome, err := h.verifier.HandleReturn(r.Context(), checkoutID, resourcePath)
		if err != nil {
			writeVerifierError(w, "status check failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"status":  outcome.Status,
			"outcome": outcome,
		})
		return
	}

	outcome, ok, err := h.verifier.RecordedOutcome(r.Context(), checkoutID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "outcome lookup failed", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"status":  model.StatusUnknown,
			"message": "no outcome recorded for checkout",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  outcome.Status,
		"outcome": outcome,
	})
}

// DatabaseHealth handles GET /health/db
func (h *Handler) DatabaseHealth(w http.ResponseWriter, r *http.Request) {
	status := h.health.Status()
	resp := map[string]interface{}{
		"connected":    status.Connected,
		"attempts":     status.Attempts,
		"max_attempts": status.MaxAttempts,
	}
	code := http.StatusOK
	if err := h.health.Err(); err != nil {
		resp["error"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
