/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import "net/http"

// Kind is the client-visible class of a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindForbidden
	KindConflict
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindNotFound:
		return "NotFound"
	case KindForbidden:
		return "Forbidden"
	case KindConflict:
		return "Conflict"
	case KindStoreUnavailable:
		return "StoreUnavailable"
	default:
		return "Unknown"
	}
}

// KindOf classifies err. A nil error has KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case IsValidationError(err):
		return KindInvalidArgument
	case IsNotFound(err):
		return KindNotFound
	case IsForbidden(err):
		return KindForbidden
	case IsAlreadyExists(err):
		return KindConflict
	case IsStoreUnavailable(err):
		return KindStoreUnavailable
	default:
		return KindUnknown
	}
}

// StatusCode maps err to an HTTP status for transports that surface it.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
