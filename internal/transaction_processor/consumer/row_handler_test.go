package consumer

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/payments-engine/internal/domain/amount"
	"github.com/payments-engine/internal/domain/shared"
	"github.com/payments-engine/internal/platform/csvio"
	"github.com/payments-engine/internal/platform/messaging/producers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockDeadLetterPublisher for testing
type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error {
	args := m.Called(ctx, key, value, reason)
	return args.Error(0)
}

func (m *MockDeadLetterPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockOutcomeRecorder struct {
	mock.Mock
}

func (m *MockOutcomeRecorder) RecordOutcome(ctx context.Context, record shared.TransactionRecord, outcome shared.Outcome) {
	m.Called(ctx, record, outcome)
}

func (m *MockOutcomeRecorder) RecordRejectedRow(ctx context.Context, err error) {
	m.Called(ctx, err)
}

type row struct {
	record shared.TransactionRecord
	err    error
}

func rows(items ...row) iter.Seq2[shared.TransactionRecord, error] {
	return func(yield func(shared.TransactionRecord, error) bool) {
		for _, item := range items {
			if !yield(item.record, item.err) {
				return
			}
		}
	}
}

func ok(client uint16, tx uint32) row {
	return row{record: shared.TransactionRecord{
		Kind:   shared.TransactionKindDeposit,
		Client: client,
		Tx:     tx,
		Amount: amount.MustParse("1.0"),
	}}
}

func bad(line int, raw string) row {
	return row{err: &csvio.RowError{Line: line, Raw: raw, Err: amount.ErrInvalidAmount}}
}

func TestRowHandler_Records(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	tests := []struct {
		name        string
		input       iter.Seq2[shared.TransactionRecord, error]
		setupMocks  func(*MockOutcomeRecorder, *MockDeadLetterPublisher)
		expectedTxs []uint32
	}{
		{
			name:        "all rows valid",
			input:       rows(ok(1, 1), ok(2, 2)),
			setupMocks:  func(*MockOutcomeRecorder, *MockDeadLetterPublisher) {},
			expectedTxs: []uint32{1, 2},
		},
		{
			name:  "malformed row is dropped and dead-lettered",
			input: rows(ok(1, 1), bad(3, "deposit,1,2,abc"), ok(1, 3)),
			setupMocks: func(rec *MockOutcomeRecorder, dlq *MockDeadLetterPublisher) {
				rec.On("RecordRejectedRow", mock.Anything, mock.Anything).Once()
				dlq.On("PublishToDLQ", mock.Anything, "line-3", []byte("deposit,1,2,abc"),
					mock.MatchedBy(func(reason string) bool {
						return strings.Contains(reason, "line 3")
					})).Return(nil).Once()
			},
			expectedTxs: []uint32{1, 3},
		},
		{
			name:  "dead-letter failure does not stop the run",
			input: rows(bad(2, "refund,1,1,1.0"), ok(1, 2)),
			setupMocks: func(rec *MockOutcomeRecorder, dlq *MockDeadLetterPublisher) {
				rec.On("RecordRejectedRow", mock.Anything, mock.Anything).Once()
				dlq.On("PublishToDLQ", mock.Anything, "line-2", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
			},
			expectedTxs: []uint32{2},
		},
		{
			name:  "error without line information",
			input: rows(ok(1, 1), row{err: errors.New("unexpected")}),
			setupMocks: func(rec *MockOutcomeRecorder, dlq *MockDeadLetterPublisher) {
				rec.On("RecordRejectedRow", mock.Anything, mock.Anything).Once()
				dlq.On("PublishToDLQ", mock.Anything, "row-2", []byte(nil), mock.Anything).Return(nil).Once()
			},
			expectedTxs: []uint32{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := new(MockOutcomeRecorder)
			dlq := new(MockDeadLetterPublisher)
			tt.setupMocks(recorder, dlq)

			handler := NewRowHandler(logger, recorder, dlq)

			var txs []uint32
			for record := range handler.Records(ctx, tt.input) {
				txs = append(txs, record.Tx)
			}

			assert.Equal(t, tt.expectedTxs, txs)
			recorder.AssertExpectations(t)
			dlq.AssertExpectations(t)
		})
	}
}

func TestRowHandler_Records_WithoutDLQ(t *testing.T) {
	recorder := new(MockOutcomeRecorder)
	recorder.On("RecordRejectedRow", mock.Anything, mock.Anything).Twice()

	handler := NewRowHandler(slog.Default(), recorder, nil)
	records := slices.Collect(handler.Records(context.Background(), rows(bad(2, "x"), ok(5, 9), bad(4, "y"))))

	assert.Len(t, records, 1)
	assert.Equal(t, uint16(5), records[0].Client)
	recorder.AssertExpectations(t)
}

func TestRowHandler_Records_DisabledProducer(t *testing.T) {
	recorder := new(MockOutcomeRecorder)
	recorder.On("RecordRejectedRow", mock.Anything, mock.Anything).Once()

	// A nil producer behind the interface reports ErrDLQDisabled.
	var disabled *producers.DLQProducer
	handler := NewRowHandler(slog.Default(), recorder, disabled)

	records := slices.Collect(handler.Records(context.Background(), rows(bad(2, "x"), ok(1, 1))))
	assert.Len(t, records, 1)
	recorder.AssertExpectations(t)
}

func TestRowHandler_Records_EarlyStop(t *testing.T) {
	recorder := new(MockOutcomeRecorder)
	handler := NewRowHandler(slog.Default(), recorder, nil)

	for record := range handler.Records(context.Background(), rows(ok(1, 1), bad(3, "x"), ok(1, 2))) {
		assert.Equal(t, uint32(1), record.Tx)
		break
	}
	recorder.AssertNotCalled(t, "RecordRejectedRow", mock.Anything, mock.Anything)
}
