package shared

import (
	"errors"
	"fmt"
)

// ErrInvalidTransactionType is returned for an unknown transaction kind.
var ErrInvalidTransactionType = errors.New("invalid transaction type")

// TransactionKind defines possible transaction operations
type TransactionKind string

const (
	TransactionKindDeposit    TransactionKind = "deposit"
	TransactionKindWithdrawal TransactionKind = "withdrawal"
	TransactionKindDispute    TransactionKind = "dispute"
	TransactionKindResolve    TransactionKind = "resolve"
	TransactionKindChargeback TransactionKind = "chargeback"
)

// ParseTransactionKind maps an input token to a TransactionKind. Matching is
// case-sensitive.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch kind := TransactionKind(s); kind {
	case TransactionKindDeposit,
		TransactionKindWithdrawal,
		TransactionKindDispute,
		TransactionKindResolve,
		TransactionKindChargeback:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, s)
}

// CarriesAmount reports whether records of this kind use their amount column.
func (k TransactionKind) CarriesAmount() bool {
	return k == TransactionKindDeposit || k == TransactionKindWithdrawal
}

// Outcome describes what the ledger did with a transaction record.
type Outcome string

const (
	// The record changed the account.
	OutcomeApplied              Outcome = "APPLIED"
	// The account is locked and ignores all records.
	OutcomeAccountLocked        Outcome = "ACCOUNT_LOCKED"
	// A withdrawal did not leave a positive available balance.
	OutcomeInsufficientFunds    Outcome = "INSUFFICIENT_FUNDS"
	// No withdrawal with this tx id exists on the account.
	OutcomeUnknownTransaction   Outcome = "UNKNOWN_TRANSACTION"
	// Resolve or chargeback on a transaction without an open dispute.
	OutcomeNotDisputed          Outcome = "NOT_DISPUTED"
	// Repeated dispute under the strict policy.
	OutcomeAlreadyDisputed      Outcome = "ALREADY_DISPUTED"
	// A withdrawal reused a tx id already held by the account.
	OutcomeDuplicateTransaction Outcome = "DUPLICATE_TRANSACTION"
	// The account total would exceed the representable range.
	OutcomeAmountOverflow       Outcome = "AMOUNT_OVERFLOW"
)
