package domain

import "errors"

var (
	// ErrInvalidRequest marks an empty or malformed line list.
	ErrInvalidRequest = errors.New("invalid order request")

	// ErrCustomerNotFound marks a customer id that does not resolve.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrUnknownProduct marks requested product ids that do not resolve.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrProductNotFound marks a product that vanished between validation
	// and the decrement.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock marks demand exceeding available stock, whether
	// caught by the precheck or by the decrement's re-check at commit time.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateRequest marks a request id that was already claimed.
	ErrDuplicateRequest = errors.New("duplicate request")
)
