package service

import "errors"

// Business-rule failures of the wallet operations. Handlers translate these
// into HTTP statuses; anything else surfaces as a generic 500.
var (
	ErrSelfTransfer      = errors.New("cannot transfer to your own wallet")
	ErrReceiverNotFound  = errors.New("receiver wallet not found")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrWalletFrozen      = errors.New("wallet is frozen")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAdjustment = errors.New("adjustment action must be add or deduct")
)
