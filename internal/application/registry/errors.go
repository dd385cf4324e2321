package registry

import "errors"

// Validation errors (rejected before any mutation).
var (
	ErrInvalidPropertyData = errors.New("Invalid property data")
	ErrStringTooLong       = errors.New("Property text field exceeds maximum length")
	ErrInvalidTokenBinding = errors.New("Invalid ownership token binding")
	ErrInvalidPrice        = errors.New("Invalid price")
	ErrPriceExceedsLimit   = errors.New("Price exceeds maximum listing price")
)

// Authorization errors.
var (
	ErrNotOwner             = errors.New("Not the record owner")
	ErrCannotBuyOwnProperty = errors.New("Cannot buy your own property")
)

// State and transactional errors.
var (
	ErrRecordNotFound    = errors.New("Property record not found")
	ErrAlreadyListed     = errors.New("Record is already listed")
	ErrNotListed         = errors.New("Record is not listed for sale")
	ErrInsufficientFunds = errors.New("Insufficient funds")
	ErrOverflow          = errors.New("Amount overflow")
	ErrTransferFailed    = errors.New("Transfer failed")
)
