// Package marketerr defines the sentinel errors shared across services and
// handlers. Services wrap them with context via %w; handlers map them to
// HTTP statuses without leaking store internals.
package marketerr

import "errors"

var (
	// ErrOutOfStock means no available inventory unit exists for a product.
	// Checkout wraps it with the offending item title.
	ErrOutOfStock = errors.New("out of stock")

	// ErrEmptyCart rejects checkout with zero items before any side effect.
	ErrEmptyCart = errors.New("empty cart")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)
