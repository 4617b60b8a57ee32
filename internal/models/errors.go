package models

import (
	"errors"
	"net/http"
)

// Error taxonomy for document generation. Callers wrap these with context
// and classify with errors.Is.
var (
	// ErrNotFound indicates a missing template, template file, case or document.
	ErrNotFound = errors.New("not found")

	// ErrValidationFailure indicates required fields are missing.
	ErrValidationFailure = errors.New("validation failed")

	// ErrGenerationFailure indicates the template could not be loaded or filled.
	ErrGenerationFailure = errors.New("generation failed")

	// ErrDeliveryFailure indicates the filled document could not be handed back.
	ErrDeliveryFailure = errors.New("delivery failed")

	// ErrInvalidInput indicates a malformed request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransitionRejected indicates the transition policy refused a status change.
	ErrTransitionRejected = errors.New("status transition rejected")
)

// Kind is the stable wire code for a classified error.
type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindValidationFailure  Kind = "VALIDATION_FAILURE"
	KindGenerationFailure  Kind = "GENERATION_FAILURE"
	KindDeliveryFailure    Kind = "DELIVERY_FAILURE"
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindTransitionRejected Kind = "TRANSITION_REJECTED"
	KindInternal           Kind = "INTERNAL"
)

// KindOf classifies err. Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidationFailure):
		return KindValidationFailure
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrTransitionRejected):
		return KindTransitionRejected
	case errors.Is(err, ErrDeliveryFailure):
		return KindDeliveryFailure
	case errors.Is(err, ErrGenerationFailure):
		return KindGenerationFailure
	default:
		return KindInternal
	}
}

// HTTPStatus maps a Kind onto a response code.
func (k Kind) HTTPStatus() int {
	switch k {
	case "":
		return http.StatusOK
	case KindNotFound:
		return http.StatusNotFound
	case KindValidationFailure:
		return http.StatusUnprocessableEntity
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindTransitionRejected:
		return http.StatusConflict
	case KindDeliveryFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError carries the missing-field list of a failed pre-flight check.
type ValidationError struct {
	TemplateType  string
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "template " + e.TemplateType + ": required fields missing"
}

// Unwrap lets errors.Is match ErrValidationFailure.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailure
}
