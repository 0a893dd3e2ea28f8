package service

import (
	"errors"
	"fmt"
)

var (
	// ErrCartServiceUnavailable wraps transport failures and 5xx answers from the cart service
	ErrCartServiceUnavailable = errors.New("cart service unavailable")
	// ErrMalformedCart is returned when a cart payload fails boundary validation
	ErrMalformedCart = errors.New("malformed cart payload")
	// ErrInvalidIdentity is returned when a resolved identifier breaks the exactly-one-id rule
	ErrInvalidIdentity = errors.New("invalid cart identity")
	// ErrMissingDevice is returned when a request carries no device id
	ErrMissingDevice = errors.New("device id is required")
	// ErrInvalidItem is returned for add/remove requests without a product or with quantity < 1
	ErrInvalidItem = errors.New("invalid cart item request")
	// ErrUnauthenticated is returned by operations that need a signed-in user
	ErrUnauthenticated = errors.New("authentication required")
)

// CartRejectedError is a business rejection of an add/remove (for example, stock unavailable).
// The message is meant for the shopper.
type CartRejectedError struct {
	Operation  string
	Message    string
	StatusCode int
}

func (e *CartRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cart %s rejected", e.Operation)
	}
	return fmt.Sprintf("cart %s rejected: %s", e.Operation, e.Message)
}

// IsCartRejected reports whether err carries a CartRejectedError and returns it
func IsCartRejected(err error) (*CartRejectedError, bool) {
	var rejected *CartRejectedError
	if errors.As(err, &rejected) {
		return rejected, true
	}
	return nil, false
}
