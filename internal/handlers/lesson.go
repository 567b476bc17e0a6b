package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/kaino/kaino-api/httpx"
	"github.com/kaino/kaino-api/internal/models"
)

type LessonHandler struct {
	DB *gorm.DB
}

func NewLessonHandler(db *gorm.DB) *LessonHandler {
	return &LessonHandler{DB: db}
}

type lessonReq struct {
	SchoolID     uint   `json:"school_id" validate:"required"`
	TermID       *uint  `json:"term_id"`
	Name         string `json:"name" validate:"required"`
	ClassName    string `json:"class_name" validate:"required"`
	LearningArea string `json:"learning_area"`
	Week         string `json:"week"`
	Country      string `json:"country"`
}

// Create: POST /lessons
func (h *LessonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req lessonReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	lesson := models.Lesson{
		SchoolID:     req.SchoolID,
		TermID:       req.TermID,
		Name:         req.Name,
		ClassName:    req.ClassName,
		LearningArea: req.LearningArea,
		Week:         req.Week,
		Country:      req.Country,
	}
	if err := h.DB.Create(&lesson).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, lesson)
}

// List: GET /lessons?school_id=&class_name=
func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := httpx.Pagination(r)
	dbq := h.DB.Model(&models.Lesson{})
	if v := r.URL.Query().Get("school_id"); v != "" {
		dbq = dbq.Where("school_id = ?", v)
	}
	if v := r.URL.Query().Get("class_name"); v != "" {
		dbq = dbq.Where("class_name = ?", v)
	}
	var total int64
	dbq.Count(&total)
	var lessons []models.Lesson
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&lessons).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page{Items: lessons, Total: total, Limit: limit, Offset: offset})
}

// Update: PATCH /lessons/{id}. Teachers use this to tick lessons covered.
func (h *LessonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var lesson models.Lesson
	if err := h.DB.First(&lesson, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	allowed := map[string]bool{
		"name": true, "class_name": true, "learning_area": true,
		"week": true, "country": true, "is_covered": true, "term_id": true,
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
	if err := h.DB.Model(&lesson).Updates(updates).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, lesson)
}

// Delete: DELETE /lessons/{id}
func (h *LessonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Delete(&models.Lesson{}, id)
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
