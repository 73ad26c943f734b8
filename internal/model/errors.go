package model

import "errors"

// Sentinel errors for the ledger failure taxonomy. Callers match them with
// errors.Is; services wrap them with context.
var (
	ErrNotFound          = errors.New("ledger: not found")
	ErrConflict          = errors.New("ledger: conflict")
	ErrInvalidArgument   = errors.New("ledger: invalid argument")
	ErrUnbalanced        = errors.New("ledger: debits and credits do not balance")
	ErrAlreadyBalanced   = errors.New("ledger: transaction is already balanced")
	ErrUnsupportedRepair = errors.New("ledger: no repair available for transaction")
)
