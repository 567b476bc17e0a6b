package handlers

import (
	"net/http"

	"github.com/kaino/kaino-api/httpx"
	"github.com/kaino/kaino-api/internal/services"
)

type SubscriptionHandler struct {
	Svc *services.SubscriptionService
}

func NewSubscriptionHandler(svc *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{Svc: svc}
}

type subscribeReq struct {
	SchoolID uint `json:"school_id" validate:"required"`
	PlanID   uint `json:"plan_id" validate:"required"`
}

// Subscribe: POST /subscriptions. The row lands unpaid; payment arrives
// through the webhook.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	sub, err := h.Svc.Subscribe(r.Context(), req.SchoolID, req.PlanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sub)
}

// Current: GET /subscriptions/{schoolID}
func (h *SubscriptionHandler) Current(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := pathID(r, "schoolID")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	sub, err := h.Svc.Current(r.Context(), schoolID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

// Cancel: DELETE /subscriptions/{schoolID}
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := pathID(r, "schoolID")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Cancel(r.Context(), schoolID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
