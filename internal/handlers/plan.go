package handlers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kaino/kaino-api/httpx"
	"github.com/kaino/kaino-api/internal/models"
)

type PlanHandler struct {
	DB *gorm.DB
}

func NewPlanHandler(db *gorm.DB) *PlanHandler {
	return &PlanHandler{DB: db}
}

type planReq struct {
	Name       string `json:"name" validate:"required"`
	Price      string `json:"price" validate:"required"`
	BenefitIDs []uint `json:"benefit_ids"`
}

// Create: POST /plans
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req planReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"price": "invalid"})
		return
	}
	plan := models.Plan{Name: req.Name, Price: price}
	if len(req.BenefitIDs) > 0 {
		if err := h.DB.Where("id IN ?", req.BenefitIDs).Find(&plan.Benefits).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			return
		}
		if len(plan.Benefits) != len(req.BenefitIDs) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"benefit_ids": "unknown benefit"})
			return
		}
	}
	if err := h.DB.Create(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.JSONError(w, http.StatusConflict, "plan_exists", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, plan)
}

// List: GET /plans. The packages envelope consumed by the pricing page.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	var plans []models.Plan
	if err := h.DB.Preload("Benefits").Order("price").Find(&plans).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"packages": plans})
}

type benefitReq struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateBenefit: POST /benefits
func (h *PlanHandler) CreateBenefit(w http.ResponseWriter, r *http.Request) {
	var req benefitReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	b := models.Benefit{Name: req.Name, Description: req.Description}
	if err := h.DB.Create(&b).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}
