// Package errors provides the typed error taxonomy shared by every donations
// component and its mapping to transport status codes.
package errors

import "net/http"

// Kind is a stable, machine-checkable error classification.
type Kind string

const (
	KindInternal                Kind = "Internal"
	KindInvalidAmount           Kind = "InvalidAmount"
	KindMissingTransactionID    Kind = "MissingTransactionId"
	KindValidationFailed        Kind = "ValidationFailed"
	KindDuplicateTransaction    Kind = "DuplicateTransaction"
	KindInvalidStatusTransition Kind = "InvalidStatusTransition"
	KindAccountExists           Kind = "AccountExists"
	KindInvalidToken            Kind = "InvalidToken"
	KindUnauthenticated         Kind = "Unauthenticated"
	KindForbidden               Kind = "Forbidden"
	KindNotFound                Kind = "NotFound"
	KindRenderingFailed         Kind = "RenderingFailed"
)

// HTTPStatus maps kinds to HTTP status codes.
func (k Kind) HTTPStatus() int {
	switch k {
	// BadRequest - caller input rejected before any mutation
	case KindInvalidAmount,
		KindMissingTransactionID,
		KindValidationFailed:
		return http.StatusBadRequest

	// Conflict - storage state rejects the write
	case KindDuplicateTransaction,
		KindInvalidStatusTransition,
		KindAccountExists:
		return http.StatusConflict

	case KindInvalidToken, KindUnauthenticated:
		return http.StatusUnauthorized

	case KindForbidden:
		return http.StatusForbidden

	case KindNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// DefaultMessage is the user-facing message used when none is supplied and
// the only message shown for server-side kinds in production.
func (k Kind) DefaultMessage() string {
	switch k {
	case KindInvalidAmount:
		return "Invalid amount"
	case KindMissingTransactionID:
		return "Transaction ID is required"
	case KindValidationFailed:
		return "Validation failed"
	case KindDuplicateTransaction:
		return "Transaction already recorded"
	case KindInvalidStatusTransition:
		return "Status change not allowed"
	case KindAccountExists:
		return "Account already exists"
	case KindInvalidToken:
		return "Invalid token"
	case KindUnauthenticated:
		return "Authentication required"
	case KindForbidden:
		return "Insufficient permissions"
	case KindNotFound:
		return "Not found"
	case KindRenderingFailed:
		return "Failed to generate QR code"
	default:
		return "Internal server error"
	}
}
