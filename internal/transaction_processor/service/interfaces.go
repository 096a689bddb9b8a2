package service

import (
	"context"
	"iter"

	"github.com/payments-engine/internal/domain/account"
	"github.com/payments-engine/internal/domain/shared"
)

// ProcessingService folds an ordered stream of transaction records into accounts.
type ProcessingService interface {
	ProcessBatch(ctx context.Context, records iter.Seq[shared.TransactionRecord]) (map[uint16]*account.Account, error)
}

// AccountManager applies a single record to the account it belongs to
type AccountManager interface {
	ApplyTransaction(ctx context.Context, repo account.Repository, record shared.TransactionRecord) (shared.Outcome, error)
}

// OutcomeRecorder records what happened to each input row
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, record shared.TransactionRecord, outcome shared.Outcome)
	RecordRejectedRow(ctx context.Context, err error)
}

// RepositoryFactory creates the account registry owned by one batch
type RepositoryFactory func() account.Repository
