package services

import (
	"errors"
	"fmt"
)

// Domain-rule failures. These are expected outcomes returned to the caller
// with enough context to render UI; they are never logged as errors.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyClaimed    = errors.New("already claimed today")
	ErrSessionNotFound   = errors.New("game session not found")
	ErrNotOwner          = errors.New("not your game session")
	ErrAlreadyConsumed   = errors.New("game session already consumed")
)

// InsufficientFundsError carries the amounts the caller needs to render a
// useful message. errors.Is(err, ErrInsufficientFunds) matches it.
type InsufficientFundsError struct {
	Required int64
	Current  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %d, have %d", e.Required, e.Current)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
