package wallet

import (
	"errors"
	"strconv"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfTransfer      = errors.New("cannot transfer to the same wallet")
	ErrBalanceOverflow   = errors.New("balance would overflow")
)

// ErrWalletNotFound indicates that a user has no wallet yet.
type ErrWalletNotFound struct {
	UserID int64
}

func (e ErrWalletNotFound) Error() string {
	return "wallet not found for user: " + strconv.FormatInt(e.UserID, 10)
}

// Is matches any ErrWalletNotFound when the target UserID is zero.
func (e ErrWalletNotFound) Is(target error) bool {
	t, ok := target.(ErrWalletNotFound)
	if !ok {
		return false
	}
	return t.UserID == 0 || t.UserID == e.UserID
}

// ErrReceiverNotFound indicates that a transfer names a user that does not exist.
type ErrReceiverNotFound struct {
	UserID int64
	Email  string
}

func (e ErrReceiverNotFound) Error() string {
	if e.Email != "" {
		return "receiver not found: " + e.Email
	}
	return "receiver not found: " + strconv.FormatInt(e.UserID, 10)
}

func (e ErrReceiverNotFound) Is(target error) bool {
	t, ok := target.(ErrReceiverNotFound)
	if !ok {
		return false
	}
	if t.UserID == 0 && t.Email == "" {
		return true
	}
	return t.UserID == e.UserID && t.Email == e.Email
}

// IsValidation reports whether err is a rule violation detected before any mutation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrSelfTransfer) ||
		errors.Is(err, ErrBalanceOverflow) ||
		errors.Is(err, ErrReceiverNotFound{})
}
