package handlers

import (
	"net/http"
	"time"

	"github.com/kaino/kaino-api/httpx"
	"github.com/kaino/kaino-api/internal/models"
	"github.com/kaino/kaino-api/internal/services"
)

type InvoiceHandler struct {
	Svc *services.InvoiceService
}

func NewInvoiceHandler(svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{Svc: svc}
}

type invoiceItemReq struct {
	PlanID       uint   `json:"plan_id" validate:"required"`
	CategoryName string `json:"category_name"`
	Quantity     int    `json:"quantity" validate:"required,gt=0"`
	Discount     int    `json:"discount" validate:"gte=0,lte=100"`
}

type invoiceReq struct {
	SchoolID      uint             `json:"school_id" validate:"required"`
	InvoiceNumber string           `json:"invoice_number"`
	InvoiceFrom   string           `json:"invoice_from"`
	InvoiceTo     string           `json:"invoice_to"`
	PONumber      int              `json:"po_number"`
	DueDate       time.Time        `json:"due_date"`
	IsDraft       bool             `json:"is_draft"`
	Items         []invoiceItemReq `json:"items" validate:"required,min=1,dive"`
}

func (req invoiceReq) toInput() services.InvoiceInput {
	items := make([]services.ItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = services.ItemInput{
			PlanID:       it.PlanID,
			CategoryName: it.CategoryName,
			Quantity:     it.Quantity,
			Discount:     it.Discount,
		}
	}
	return services.InvoiceInput{
		SchoolID:      req.SchoolID,
		InvoiceNumber: req.InvoiceNumber,
		InvoiceFrom:   req.InvoiceFrom,
		InvoiceTo:     req.InvoiceTo,
		PONumber:      req.PONumber,
		DueDate:       req.DueDate,
		IsDraft:       req.IsDraft,
		Items:         items,
	}
}

// Create: POST /invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req invoiceReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	inv, err := h.Svc.Create(r.Context(), req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// List: GET /invoices?status=
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := httpx.Pagination(r)
	var status models.InvoiceStatus
	if v := r.URL.Query().Get("status"); v != "" {
		status = models.ParseInvoiceStatus(v)
		if status == 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"status": "unknown"})
			return
		}
	}
	invs, total, err := h.Svc.List(r.Context(), status, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page{Items: invs, Total: total, Limit: limit, Offset: offset})
}

// Get: GET /invoices/{number}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Svc.Get(r.Context(), r.PathValue("number"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

type invoiceUpdateReq struct {
	InvoiceFrom string           `json:"invoice_from"`
	InvoiceTo   string           `json:"invoice_to"`
	PONumber    int              `json:"po_number"`
	DueDate     time.Time        `json:"due_date"`
	IsDraft     bool             `json:"is_draft"`
	Items       []invoiceItemReq `json:"items" validate:"required,min=1,dive"`
}

// Update: PATCH /invoices/{number}. The item list is replaced wholesale.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req invoiceUpdateReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	// school never changes on update, the header keeps its owner
	full := invoiceReq{
		InvoiceFrom: req.InvoiceFrom,
		InvoiceTo:   req.InvoiceTo,
		PONumber:    req.PONumber,
		DueDate:     req.DueDate,
		IsDraft:     req.IsDraft,
		Items:       req.Items,
	}
	inv, err := h.Svc.Update(r.Context(), r.PathValue("number"), full.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: DELETE /invoices/{number}
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("number")); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
