// Package handlers holds the JSON HTTP handlers. Each handler validates
// input, calls into services and translates service errors to the shared
// error vocabulary; permission checks live in the router middleware, not
// here.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/kaino/kaino-api/httpx"
	"github.com/kaino/kaino-api/internal/services"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decode reads a JSON body into dst and runs struct validation.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// writeDecodeError answers a failed decode: validation tags produce field
// details, anything else is invalid_json.
func writeDecodeError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", fields)
		return
	}
	httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
}

// writeServiceError maps service errors onto statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrDuplicateInvoiceNumber):
		httpx.JSONError(w, http.StatusConflict, "duplicate_invoice_number", nil)
	case errors.Is(err, services.ErrValidation):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// pathID parses a numeric {id} path segment.
func pathID(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
