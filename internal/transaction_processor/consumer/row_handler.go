package consumer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strconv"

	"github.com/payments-engine/internal/domain/shared"
	"github.com/payments-engine/internal/platform/csvio"
	"github.com/payments-engine/internal/platform/messaging/producers"
	"github.com/payments-engine/internal/transaction_processor/service"
)

// RowHandler sits between the CSV reader and the ledger. Parsed records pass
// through unchanged; malformed rows are reported and dropped.
type RowHandler struct {
	recorder service.OutcomeRecorder
	producer producers.DeadLetterPublisher
	logger   *slog.Logger
}

// NewRowHandler creates a new handler. producer may be nil when no dead-letter
// topic is configured.
func NewRowHandler(
	logger *slog.Logger,
	recorder service.OutcomeRecorder,
	producer producers.DeadLetterPublisher,
) *RowHandler {
	return &RowHandler{
		recorder: recorder,
		producer: producer,
		logger:   logger,
	}
}

// Records filters rows down to the parsed transaction records, in input order.
func (h *RowHandler) Records(ctx context.Context, rows iter.Seq2[shared.TransactionRecord, error]) iter.Seq[shared.TransactionRecord] {
	return func(yield func(shared.TransactionRecord) bool) {
		index := 0
		for record, err := range rows {
			index++
			if err != nil {
				h.reject(ctx, index, err)
				continue
			}
			if !yield(record) {
				return
			}
		}
	}
}

func (h *RowHandler) reject(ctx context.Context, index int, err error) {
	key := "row-" + strconv.Itoa(index)
	var raw []byte

	var rowErr *csvio.RowError
	if errors.As(err, &rowErr) {
		key = "line-" + strconv.Itoa(rowErr.Line)
		raw = []byte(rowErr.Raw)
	}

	h.recorder.RecordRejectedRow(ctx, err)

	if h.producer == nil {
		return
	}

	reason := fmt.Sprintf("Malformed input row: %s", err.Error())
	if dlqErr := h.producer.PublishToDLQ(ctx, key, raw, reason); dlqErr != nil {
		if errors.Is(dlqErr, producers.ErrDLQDisabled) {
			return
		}
		h.logger.Error("Failed to publish malformed row to DLQ",
			"dlq_error", dlqErr,
			"original_error", err,
			"row_key", key,
		)
		return
	}
	h.logger.Debug("Published malformed row to DLQ", "row_key", key, "reason", reason)
}
