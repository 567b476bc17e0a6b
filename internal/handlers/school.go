package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kaino/kaino-api/httpx"
	"github.com/kaino/kaino-api/internal/models"
)

type SchoolHandler struct {
	DB *gorm.DB
}

func NewSchoolHandler(db *gorm.DB) *SchoolHandler {
	return &SchoolHandler{DB: db}
}

var searchSafe = regexp.MustCompile(`[^a-zA-Z0-9 \-_]`)

type schoolReq struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone"`
	WebsiteURL    string `json:"website_url"`
	Motto         string `json:"motto"`
	TermSystem    string `json:"term_system"`
	PrincipalName string `json:"principal_name"`
	Address       string `json:"address"`
	Region        string `json:"region"`
	City          string `json:"city"`
	Country       string `json:"country"`
	Description   string `json:"description"`
}

// Create: POST /schools
func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req schoolReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	school := models.School{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		WebsiteURL:    req.WebsiteURL,
		Motto:         req.Motto,
		TermSystem:    req.TermSystem,
		PrincipalName: req.PrincipalName,
		Address:       req.Address,
		Region:        req.Region,
		City:          req.City,
		Country:       req.Country,
		Description:   req.Description,
	}
	if err := h.DB.Create(&school).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.JSONError(w, http.StatusConflict, "school_exists", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, school)
}

// List: GET /schools?q=&limit=&page=
func (h *SchoolHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := httpx.Pagination(r)
	dbq := h.DB.Model(&models.School{})
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(searchSafe.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(city) LIKE ?", like, like)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	var schools []models.School
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&schools).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page{Items: schools, Total: total, Limit: limit, Offset: offset})
}

// Get: GET /schools/{id}
func (h *SchoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var school models.School
	if err := h.DB.First(&school, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, school)
}

// Update: PATCH /schools/{id}. Partial update, absent fields untouched.
func (h *SchoolHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var school models.School
	if err := h.DB.First(&school, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	allowed := map[string]bool{
		"name": true, "email": true, "phone": true, "website_url": true,
		"motto": true, "term_system": true, "principal_name": true,
		"total_students": true, "total_teachers": true, "address": true,
		"region": true, "city": true, "country": true, "description": true,
	}
	updates := map[string]any{}
	for k, v := range patch {
		if allowed[k] {
			updates[k] = v
		}
	}
	if len(updates) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "no updatable fields")
		return
	}
	if err := h.DB.Model(&school).Updates(updates).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, school)
}

// Delete: DELETE /schools/{id}
func (h *SchoolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Delete(&models.School{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type TermHandler struct {
	DB *gorm.DB
}

func NewTermHandler(db *gorm.DB) *TermHandler {
	return &TermHandler{DB: db}
}

type termReq struct {
	SchoolID      uint       `json:"school_id" validate:"required"`
	TermName      string     `json:"term_name" validate:"required"`
	AcademicTerm  string     `json:"academic_term"`
	AcademicYear  string     `json:"academic_year"`
	Country       string     `json:"country"`
	TermStartDate time.Time  `json:"term_start_date" validate:"required"`
	MidTermBreak  *time.Time `json:"mid_term_break"`
	TermEndDate   time.Time  `json:"term_end_date" validate:"required"`
	ExamStartDate *time.Time `json:"exam_start_date"`
	ExamEndDate   *time.Time `json:"exam_end_date"`
}

// Create: POST /terms. Weeks and months are derived from the dates.
func (h *TermHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req termReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if !req.TermEndDate.After(req.TermStartDate) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "term_end_date must be after term_start_date")
		return
	}
	span := req.TermEndDate.Sub(req.TermStartDate)
	term := models.Term{
		SchoolID:      req.SchoolID,
		TermName:      req.TermName,
		AcademicTerm:  req.AcademicTerm,
		AcademicYear:  req.AcademicYear,
		Country:       req.Country,
		TermStartDate: req.TermStartDate,
		MidTermBreak:  req.MidTermBreak,
		TermEndDate:   req.TermEndDate,
		Weeks:         int(span.Hours() / 24 / 7),
		Months:        int(span.Hours() / 24 / 30),
		ExamStartDate: req.ExamStartDate,
		ExamEndDate:   req.ExamEndDate,
	}
	if err := h.DB.Create(&term).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, term)
}

// List: GET /terms?school_id=
func (h *TermHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := httpx.Pagination(r)
	dbq := h.DB.Model(&models.Term{})
	if v := r.URL.Query().Get("school_id"); v != "" {
		dbq = dbq.Where("school_id = ?", v)
	}
	var total int64
	dbq.Count(&total)
	var terms []models.Term
	if err := dbq.Order("term_start_date desc").Limit(limit).Offset(offset).Find(&terms).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page{Items: terms, Total: total, Limit: limit, Offset: offset})
}

// Delete: DELETE /terms/{id}
func (h *TermHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Delete(&models.Term{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
