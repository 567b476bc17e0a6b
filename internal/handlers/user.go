package handlers

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/kaino/kaino-api/gate"
	"github.com/kaino/kaino-api/httpx"
	"github.com/kaino/kaino-api/internal/models"
	"github.com/kaino/kaino-api/internal/policy"
)

type UserHandler struct {
	DB   *gorm.DB
	Gate *policy.AuthGate
}

func NewUserHandler(db *gorm.DB, ag *policy.AuthGate) *UserHandler {
	return &UserHandler{DB: db, Gate: ag}
}

// List: GET /users?role=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := httpx.Pagination(r)
	dbq := h.DB.Model(&models.User{})
	if v := r.URL.Query().Get("role"); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil || !gate.Role(n).Valid() {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"role": "invalid"})
			return
		}
		dbq = dbq.Where("role = ?", n)
	}
	var total int64
	dbq.Count(&total)
	var users []models.User
	if err := dbq.Preload("Permissions").Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page{Items: users, Total: total, Limit: limit, Offset: offset})
}

type grantReq struct {
	Codes []int `json:"codes" validate:"required,min=1"`
}

// GrantPermissions: POST /users/{id}/permissions. Replaces the user's
// permission set with the named codes and drops their cached grants so the
// change applies on the next request.
func (h *UserHandler) GrantPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req grantReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	codes := make([]gate.Code, len(req.Codes))
	for i, c := range req.Codes {
		codes[i] = gate.Code(c)
	}
	var perms []models.Permission
	if err := h.DB.Where("code IN ?", codes).Find(&perms).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if len(perms) != len(req.Codes) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"codes": "unknown code"})
		return
	}
	if err := h.DB.Model(&user).Association("Permissions").Replace(perms); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	h.Gate.InvalidateUser(user.ID)
	user.Permissions = perms
	httpx.JSON(w, http.StatusOK, user)
}
