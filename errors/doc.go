/*
Package errors provides the failure taxonomy shared by every catalog component.

Each fallible operation surfaces one of five kinds: InvalidArgument, NotFound,
Forbidden, Conflict or StoreUnavailable. Typed errors carry context and match
their sentinel through errors.Is:

	var (
	    ErrNotFound         = errors.New("entity not found")
	    ErrAlreadyExists    = errors.New("entity already exists")
	    ErrInvalidInput     = errors.New("invalid input")
	    ErrMalformedCursor  = errors.New("malformed cursor")
	    ErrForbidden        = errors.New("operation not permitted")
	    ErrStoreUnavailable = errors.New("store unavailable")
	)

Usage:

	review, err := svc.UpdateReview(ctx, userID, reviewID, input)
	if err != nil {
	    switch errors.KindOf(err) {
	    case errors.KindForbidden:
	        // the review belongs to someone else
	    case errors.KindNotFound:
	        // no such review
	    }
	    return nil, err
	}

A malformed cursor is also an invalid-input error, so callers that only care
about the client-visible kind need not special-case it. StatusCode maps a kind
to an HTTP status for transports that expose one.
*/
package errors
