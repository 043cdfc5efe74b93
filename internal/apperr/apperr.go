// Package apperr defines the sentinel errors of the store's domain.
// Services wrap these with %w and handlers dispatch on errors.Is.
package apperr

import "errors"

var (
	// ErrValidation covers bad or missing user input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidQuantity is returned for cart quantities below one.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInsufficientStock is returned when a requested quantity exceeds
	// the product's live stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrProductUnavailable is returned when a product no longer exists
	// or has been deactivated.
	ErrProductUnavailable = errors.New("product unavailable")

	// ErrAccessDenied is returned on ownership or role mismatches.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned for order status changes the state
	// machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPaymentBackend is returned when the payment gateway rejects or
	// fails a request. The wrapped message carries the backend's raw text.
	ErrPaymentBackend = errors.New("payment backend error")
)
