package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/payments-engine/internal/domain/account"
	"github.com/payments-engine/internal/domain/shared"
	"github.com/payments-engine/internal/transaction_processor/service"
)

// AccountManagerImpl implements the AccountManager interface
type AccountManagerImpl struct {
	logger *slog.Logger
}

// NewAccountManager creates a new AccountManagerImpl
func NewAccountManager(logger *slog.Logger) service.AccountManager {
	return &AccountManagerImpl{
		logger: logger,
	}
}

// ApplyTransaction looks up or creates the client's account and applies the
// record to it. A non-nil error means the account state can no longer be trusted.
func (m *AccountManagerImpl) ApplyTransaction(ctx context.Context, repo account.Repository, record shared.TransactionRecord) (shared.Outcome, error) {
	acc := repo.GetOrCreate(record.Client)

	outcome, err := acc.Apply(record)
	if err != nil {
		var violation *account.ErrInvariantViolation
		if errors.As(err, &violation) {
			m.logger.ErrorContext(ctx, "Ledger invariant violated",
				"client", violation.ClientID,
				"tx", violation.TransactionID,
				"type", violation.Kind,
				"field", violation.Field,
				"available", acc.Available,
				"held", acc.Held,
				"error", err,
			)
		} else {
			m.logger.ErrorContext(ctx, "Failed to apply transaction", "client", record.Client, "tx", record.Tx, "error", err)
		}
		return "", err
	}

	if outcome == shared.OutcomeNotDisputed {
		if held, ok := acc.Transactions[record.Tx]; ok {
			m.logger.DebugContext(ctx, "Transaction has no open dispute",
				"client", record.Client,
				"tx", record.Tx,
				"type", record.Kind,
				"dispute_state", held.Dispute.String(),
				"dispute_settled", held.Dispute.IsDone(),
			)
		}
	}

	if outcome == shared.OutcomeApplied {
		m.logger.DebugContext(ctx, "Transaction applied",
			"client", record.Client,
			"tx", record.Tx,
			"type", record.Kind,
			"available", acc.Available,
			"held", acc.Held,
			"locked", acc.Locked,
		)
	}
	return outcome, nil
}
