package shared

import "github.com/payments-engine/internal/domain/amount"

// TransactionRecord is one parsed input row.
type TransactionRecord struct {
	Kind   TransactionKind `json:"type"`
	Client uint16          `json:"client"`
	Tx     uint32          `json:"tx"`
	Amount amount.Amount   `json:"amount"` // Zero for dispute, resolve and chargeback
}
