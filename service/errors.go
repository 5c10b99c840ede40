package service

import (
	"errors"
)

// Error taxonomy surfaced to callers. Services wrap these sentinels with
// context via fmt.Errorf("%w: ...", ...); callers branch with errors.Is.
var (
	// ErrNotFound means the referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor lacks permission for the operation
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState means the operation is not legal in the entity's
	// current lifecycle state
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput means the request itself is malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientFunds means the actor's balance cannot cover the stake
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict means a uniqueness or referential constraint was violated
	ErrConflict = errors.New("conflict")
)
