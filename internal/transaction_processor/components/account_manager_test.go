package components

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/payments-engine/internal/data/memory"
	"github.com/payments-engine/internal/domain/account"
	"github.com/payments-engine/internal/domain/amount"
	"github.com/payments-engine/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(kind shared.TransactionKind, client uint16, tx uint32, value string) shared.TransactionRecord {
	r := shared.TransactionRecord{Kind: kind, Client: client, Tx: tx}
	if value != "" {
		r.Amount = amount.MustParse(value)
	}
	return r
}

func TestAccountManager_ApplyTransaction(t *testing.T) {
	ctx := context.Background()
	manager := NewAccountManager(slog.Default())

	tests := []struct {
		name              string
		history           []shared.TransactionRecord
		record            shared.TransactionRecord
		expectedOutcome   shared.Outcome
		expectedAvailable string
		expectedHeld      string
		expectedLocked    bool
	}{
		{
			name:              "deposit creates the account",
			record:            record(shared.TransactionKindDeposit, 1, 1, "1.5"),
			expectedOutcome:   shared.OutcomeApplied,
			expectedAvailable: "1.5",
			expectedHeld:      "0.0",
		},
		{
			name:              "withdrawal without funds is ignored",
			record:            record(shared.TransactionKindWithdrawal, 1, 1, "1.0"),
			expectedOutcome:   shared.OutcomeInsufficientFunds,
			expectedAvailable: "0.0",
			expectedHeld:      "0.0",
		},
		{
			name: "dispute holds a withdrawal",
			history: []shared.TransactionRecord{
				record(shared.TransactionKindDeposit, 1, 1, "5.0"),
				record(shared.TransactionKindWithdrawal, 1, 2, "2.0"),
			},
			record:            record(shared.TransactionKindDispute, 1, 2, ""),
			expectedOutcome:   shared.OutcomeApplied,
			expectedAvailable: "3.0",
			expectedHeld:      "2.0",
		},
		{
			name: "chargeback locks the account",
			history: []shared.TransactionRecord{
				record(shared.TransactionKindDeposit, 1, 1, "5.0"),
				record(shared.TransactionKindWithdrawal, 1, 2, "2.0"),
				record(shared.TransactionKindDispute, 1, 2, ""),
			},
			record:            record(shared.TransactionKindChargeback, 1, 2, ""),
			expectedOutcome:   shared.OutcomeApplied,
			expectedAvailable: "3.0",
			expectedHeld:      "0.0",
			expectedLocked:    true,
		},
		{
			name:              "dispute on unknown transaction still creates the account",
			record:            record(shared.TransactionKindDispute, 9, 44, ""),
			expectedOutcome:   shared.OutcomeUnknownTransaction,
			expectedAvailable: "0.0",
			expectedHeld:      "0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewAccountStore(account.DisputePolicyAccumulate)
			for _, r := range tt.history {
				_, err := manager.ApplyTransaction(ctx, repo, r)
				require.NoError(t, err)
			}

			outcome, err := manager.ApplyTransaction(ctx, repo, tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedOutcome, outcome)

			acc := repo.All()[tt.record.Client]
			require.NotNil(t, acc)
			assert.Equal(t, amount.MustParse(tt.expectedAvailable), acc.Available)
			assert.Equal(t, amount.MustParse(tt.expectedHeld), acc.Held)
			assert.Equal(t, tt.expectedLocked, acc.Locked)
		})
	}
}

func TestAccountManager_ApplyTransaction_InvariantViolation(t *testing.T) {
	ctx := context.Background()
	manager := NewAccountManager(slog.Default())
	repo := memory.NewAccountStore(account.DisputePolicyAccumulate)

	// Held is cleared behind the ledger's back so the resolve underflows.
	history := []shared.TransactionRecord{
		record(shared.TransactionKindDeposit, 1, 1, "1.0"),
		record(shared.TransactionKindWithdrawal, 1, 2, "0.5"),
		record(shared.TransactionKindDispute, 1, 2, ""),
	}
	for _, r := range history {
		_, err := manager.ApplyTransaction(ctx, repo, r)
		require.NoError(t, err)
	}

	acc := repo.All()[1]
	require.NotNil(t, acc)
	acc.Held = 0

	_, err := manager.ApplyTransaction(ctx, repo, record(shared.TransactionKindResolve, 1, 2, ""))
	require.Error(t, err)

	var violation *account.ErrInvariantViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, uint16(1), violation.ClientID)
	assert.Equal(t, uint32(2), violation.TransactionID)
	assert.ErrorIs(t, err, amount.ErrUnderflow)
}

func TestAccountManager_ApplyTransaction_LogsSettledDispute(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	manager := NewAccountManager(debugLogger(&buf))
	repo := memory.NewAccountStore(account.DisputePolicyAccumulate)

	history := []shared.TransactionRecord{
		record(shared.TransactionKindDeposit, 1, 1, "5.0"),
		record(shared.TransactionKindWithdrawal, 1, 2, "2.0"),
		record(shared.TransactionKindDispute, 1, 2, ""),
		record(shared.TransactionKindResolve, 1, 2, ""),
	}
	for _, r := range history {
		_, err := manager.ApplyTransaction(ctx, repo, r)
		require.NoError(t, err)
	}
	buf.Reset()

	outcome, err := manager.ApplyTransaction(ctx, repo, record(shared.TransactionKindChargeback, 1, 2, ""))
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeNotDisputed, outcome)
	assert.Contains(t, buf.String(), `"dispute_state":"resolved"`)
	assert.Contains(t, buf.String(), `"dispute_settled":true`)
}
