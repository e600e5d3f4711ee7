package cart

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidProductID = errors.New("product id is required")
	ErrInvalidDelta     = errors.New("quantity delta out of range")

	// -- Resource State --
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrCartEmpty        = errors.New("cart is empty")
	ErrMutationInFlight = errors.New("cart item is already being updated")
	ErrStoreClosed      = errors.New("cart view is closed")
	ErrStaleLoad        = errors.New("cart load superseded by a newer load or write")

	// -- Backend Failures --
	ErrFailedLoadCart   = errors.New("failed to load cart")
	ErrFailedRemoveCart = errors.New("failed to remove cart item")
	ErrFailedUpdateCart = errors.New("failed to update cart item")
)
