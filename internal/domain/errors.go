// internal/domain/errors.go
package domain

import "errors"

// Directory
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already has a wallet")
	ErrInProgress    = errors.New("wallet creation already in progress")
)

// Ledger
var (
	ErrUnavailable  = errors.New("ledger data unavailable")
	ErrProvisioning = errors.New("account provisioning failed")
	ErrInvalidSeed  = errors.New("invalid seed")
	// ErrNotSubmitted marks payment failures that happened before the
	// transaction reached the network.
	ErrNotSubmitted = errors.New("payment not submitted")
)

// Input validation
var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidAddress = errors.New("invalid address")
)

var ErrPriceUnavailable = errors.New("price history unavailable")

var ErrNotFound = errors.New("not found")
