package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/kaino/kaino-api/httpx"
	"github.com/kaino/kaino-api/internal/gateway"
	"github.com/kaino/kaino-api/internal/services"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives gateway payment notifications. It only verifies,
// records and enqueues; reconciliation happens on the worker so the
// gateway gets its 200 fast and never retries a delivery we already hold.
type WebhookHandler struct {
	Secret     string
	Reconciler *services.Reconciler
}

func NewWebhookHandler(secret string, rec *services.Reconciler) *WebhookHandler {
	return &WebhookHandler{Secret: secret, Reconciler: rec}
}

// Handle: POST /webhook
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !gateway.VerifySignature(r.Header.Get(gateway.SignatureHeader), h.Secret) {
		log.Printf("[WEBHOOK] rejected delivery with bad signature from %s", r.RemoteAddr)
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_signature", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_payload", nil)
		return
	}
	ev, err := gateway.ParseEvent(body)
	if err != nil {
		log.Printf("[WEBHOOK] unparseable delivery: %v", err)
		httpx.JSONError(w, http.StatusBadRequest, "invalid_payload", nil)
		return
	}
	rec, dup, err := h.Reconciler.Record(r.Context(), ev, body)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if dup {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}
	h.Reconciler.Enqueue(rec.ID)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "received"})
}
