package service

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/payments-engine/internal/domain/account"
	"github.com/payments-engine/internal/domain/shared"
)

type ProcessingServiceImpl struct {
	newRepository   RepositoryFactory
	accountManager  AccountManager
	outcomeRecorder OutcomeRecorder
	logger          *slog.Logger
}

func NewProcessingService(
	newRepository RepositoryFactory,
	accountManager AccountManager,
	outcomeRecorder OutcomeRecorder,
	logger *slog.Logger,
) *ProcessingServiceImpl {
	return &ProcessingServiceImpl{
		newRepository:   newRepository,
		accountManager:  accountManager,
		outcomeRecorder: outcomeRecorder,
		logger:          logger,
	}
}

// ProcessBatch applies every record in input order. It stops at the first
// internal error or when ctx is cancelled; in both cases no accounts are
// returned.
func (s *ProcessingServiceImpl) ProcessBatch(ctx context.Context, records iter.Seq[shared.TransactionRecord]) (map[uint16]*account.Account, error) {
	repo := s.newRepository()
	processed := 0

	for record := range records {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Batch cancelled", "processed", processed, "error", err)
			return nil, fmt.Errorf("batch cancelled after %d records: %w", processed, err)
		}

		outcome, err := s.accountManager.ApplyTransaction(ctx, repo, record)
		if err != nil {
			s.logger.Error("Failed to apply transaction",
				"client", record.Client,
				"tx", record.Tx,
				"type", record.Kind,
				"error", err,
			)
			return nil, fmt.Errorf("failed to apply transaction %d for client %d: %w", record.Tx, record.Client, err)
		}
		s.outcomeRecorder.RecordOutcome(ctx, record, outcome)
		processed++
	}

	s.logger.Debug("Batch folded", "records", processed, "accounts", repo.Len())
	return repo.All(), nil
}
