package invoices

import "errors"

var (
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvoiceNotFound is returned when no invoice has the requested id.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrInvalidTransition is returned when the requested state change is not
	// allowed from the current state.
	ErrInvalidTransition = errors.New("invalid transition")
)
