package services

import "errors"

// Sentinel errors shared by the service layer. Handlers translate them
// into structured JSON responses at the boundary.
var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicateInvoiceNumber = errors.New("duplicate invoice number")
	ErrValidation             = errors.New("validation error")
)
