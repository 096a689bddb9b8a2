package components

import (
	"context"
	"log/slog"

	"github.com/payments-engine/internal/domain/shared"
	"github.com/payments-engine/internal/transaction_processor/service"
)

// MetricsSink receives per-row counters
type MetricsSink interface {
	RecordTransaction(kind shared.TransactionKind, outcome shared.Outcome)
	RecordRejectedRow()
}

type OutcomeRecorderImpl struct {
	metrics MetricsSink
	logger  *slog.Logger
}

// NewOutcomeRecorder creates a recorder. metrics may be nil.
func NewOutcomeRecorder(metrics MetricsSink, logger *slog.Logger) service.OutcomeRecorder {
	return &OutcomeRecorderImpl{
		metrics: metrics,
		logger:  logger,
	}
}

// RecordOutcome counts the outcome and logs records the ledger ignored
func (r *OutcomeRecorderImpl) RecordOutcome(ctx context.Context, record shared.TransactionRecord, outcome shared.Outcome) {
	if r.metrics != nil {
		r.metrics.RecordTransaction(record.Kind, outcome)
	}
	if outcome == shared.OutcomeApplied {
		return
	}

	r.logger.DebugContext(ctx, "Transaction ignored",
		"client", record.Client,
		"tx", record.Tx,
		"type", record.Kind,
		"amount", record.Amount,
		"reason", outcome,
	)
}

// RecordRejectedRow counts an input row that could not be parsed
func (r *OutcomeRecorderImpl) RecordRejectedRow(ctx context.Context, err error) {
	if r.metrics != nil {
		r.metrics.RecordRejectedRow()
	}
	r.logger.DebugContext(ctx, "Row rejected", "error", err)
}
