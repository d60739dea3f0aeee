package dto

import (
	"net/http"
	"strings"
)

// ErrCodeInternal is used for unexpected server-side failures
const ErrCodeInternal = "INTERNAL_ERROR"

// ErrCodeBadRequest is used for malformed requests
const ErrCodeBadRequest = "BAD_REQUEST"

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Missing resources -> 404 Not Found
	"NOT_FOUND":               http.StatusNotFound,
	"TARGET_NOT_FOUND":        http.StatusNotFound,
	"PATIENT_NOT_FOUND":       http.StatusNotFound,
	"TRANSFER_NOT_FOUND":      http.StatusNotFound,
	"AUTHORIZATION_NOT_FOUND": http.StatusNotFound,

	// Malformed or underspecified input -> 400 Bad Request
	"BAD_REQUEST":      http.StatusBadRequest,
	"AMBIGUOUS_TARGET": http.StatusBadRequest,

	// Conflicting writes and replays -> 409 Conflict
	"DUPLICATE_REQUEST":    http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"AUTHORIZATION_USED":   http.StatusConflict,

	// Refusals of otherwise well-formed requests
	"REFUND_NOT_AUTHORIZED": http.StatusForbidden,
	"TOKEN_EXPIRED":         http.StatusGone,

	// Business rule violations -> 422 Unprocessable Entity
	"ORPHANED_DEPENDENCY":        http.StatusUnprocessableEntity,
	"ALREADY_REFUNDED":           http.StatusUnprocessableEntity,
	"EXCEEDS_REFUNDABLE":         http.StatusUnprocessableEntity,
	"NO_OVERPAYMENT":             http.StatusUnprocessableEntity,
	"PARTIAL_ALLOCATION_FAILURE": http.StatusUnprocessableEntity,
	"INVALID_STATE":              http.StatusUnprocessableEntity,
	"INSUFFICIENT_BALANCE":       http.StatusUnprocessableEntity,

	"INTERNAL_ERROR": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// Validation-style codes (INVALID_AMOUNT, INVALID_TOKEN, ...) map to 400;
// anything unknown is treated as an internal error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
