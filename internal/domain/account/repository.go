package account

import (
	"fmt"

	"github.com/payments-engine/internal/domain/shared"
)

// Repository defines account lookup for the lifetime of one batch
type Repository interface {
	// GetOrCreate returns the client's account, creating it on first use
	GetOrCreate(client uint16) *Account
	All() map[uint16]*Account
	Len() int
}

// ErrInvariantViolation reports balance arithmetic that the ledger rules
// should make impossible.
type ErrInvariantViolation struct {
	ClientID      uint16
	TransactionID uint32
	Kind          shared.TransactionKind
	Field         string
	Err           error
}

func (e *ErrInvariantViolation) Error() string {
	return fmt.Sprintf("internal invariant violation on client %d, tx %d (%s): %s: %v",
		e.ClientID, e.TransactionID, e.Kind, e.Field, e.Err)
}

func (e *ErrInvariantViolation) Unwrap() error {
	return e.Err
}
