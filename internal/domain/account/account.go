package account

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/payments-engine/internal/domain/amount"
	"github.com/payments-engine/internal/domain/shared"
)

// ErrInvalidDisputePolicy is returned for an unknown dispute policy name.
var ErrInvalidDisputePolicy = errors.New("dispute policy must be 'accumulate' or 'strict'")

// DisputeState is the lifecycle tag of a held transaction.
type DisputeState int

const (
	DisputeNone DisputeState = iota
	DisputeOngoing
	DisputeResolved
	DisputeChargedBack
)

// IsDone reports whether the dispute reached a final outcome.
func (s DisputeState) IsDone() bool {
	return s == DisputeResolved || s == DisputeChargedBack
}

func (s DisputeState) String() string {
	switch s {
	case DisputeNone:
		return "none"
	case DisputeOngoing:
		return "ongoing"
	case DisputeResolved:
		return "resolved"
	case DisputeChargedBack:
		return "charged_back"
	}
	return fmt.Sprintf("DisputeState(%d)", int(s))
}

// DisputePolicy controls how repeated dispute events on the same transaction
// affect the held balance.
type DisputePolicy string

const (
	// DisputePolicyAccumulate adds the disputed amount to held on every
	// dispute event, including repeats.
	DisputePolicyAccumulate DisputePolicy = "accumulate"
	// DisputePolicyStrict only holds funds on the first dispute event.
	DisputePolicyStrict DisputePolicy = "strict"
)

// ParseDisputePolicy maps a configuration value to a DisputePolicy. The empty
// string selects DisputePolicyAccumulate.
func ParseDisputePolicy(s string) (DisputePolicy, error) {
	switch p := DisputePolicy(s); p {
	case "":
		return DisputePolicyAccumulate, nil
	case DisputePolicyAccumulate, DisputePolicyStrict:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDisputePolicy, s)
}

// HeldTransaction is a successful withdrawal retained so it can be disputed.
type HeldTransaction struct {
	Amount  amount.Amount
	Dispute DisputeState
}

// Account holds the balances and dispute history of one client.
type Account struct {
	Client       uint16
	Available    amount.Amount
	Held         amount.Amount
	Locked       bool // Set by a chargeback, never cleared
	Transactions map[uint32]*HeldTransaction

	policy DisputePolicy
}

// NewAccount creates an empty, unlocked account.
func NewAccount(client uint16, policy DisputePolicy) *Account {
	if policy == "" {
		policy = DisputePolicyAccumulate
	}
	return &Account{
		Client:       client,
		Transactions: make(map[uint32]*HeldTransaction),
		policy:       policy,
	}
}

// Total returns available + held.
func (a *Account) Total() amount.Amount {
	return a.Available + a.Held
}

// Apply mutates the account according to a single transaction record. Records
// that cannot be applied are reported through the returned Outcome and leave
// the account untouched. An error is only returned when the balances would
// become inconsistent, which the dispute guards make unreachable.
func (a *Account) Apply(record shared.TransactionRecord) (shared.Outcome, error) {
	if a.Locked {
		return shared.OutcomeAccountLocked, nil
	}

	switch record.Kind {
	case shared.TransactionKindDeposit:
		return a.deposit(record)
	case shared.TransactionKindWithdrawal:
		return a.withdraw(record)
	case shared.TransactionKindDispute:
		return a.dispute(record)
	case shared.TransactionKindResolve:
		return a.resolve(record)
	case shared.TransactionKindChargeback:
		return a.chargeback(record)
	}
	return "", fmt.Errorf("%w: %q", shared.ErrInvalidTransactionType, record.Kind)
}

func (a *Account) deposit(record shared.TransactionRecord) (shared.Outcome, error) {
	if _, err := a.Total().Add(record.Amount); err != nil {
		return shared.OutcomeAmountOverflow, nil
	}
	a.Available += record.Amount
	return shared.OutcomeApplied, nil
}

// withdraw requires strictly more available funds than requested. A tx id
// repeated within the same client is ignored.
func (a *Account) withdraw(record shared.TransactionRecord) (shared.Outcome, error) {
	if _, exists := a.Transactions[record.Tx]; exists {
		return shared.OutcomeDuplicateTransaction, nil
	}
	if a.Available <= record.Amount {
		return shared.OutcomeInsufficientFunds, nil
	}

	a.Available -= record.Amount
	a.Transactions[record.Tx] = &HeldTransaction{
		Amount:  record.Amount,
		Dispute: DisputeNone,
	}
	return shared.OutcomeApplied, nil
}

func (a *Account) dispute(record shared.TransactionRecord) (shared.Outcome, error) {
	held, ok := a.Transactions[record.Tx]
	if !ok {
		return shared.OutcomeUnknownTransaction, nil
	}
	if held.Dispute != DisputeNone && a.policy == DisputePolicyStrict {
		return shared.OutcomeAlreadyDisputed, nil
	}
	if _, err := a.Total().Add(held.Amount); err != nil {
		return shared.OutcomeAmountOverflow, nil
	}

	if held.Dispute == DisputeNone {
		held.Dispute = DisputeOngoing
	}
	a.Held += held.Amount
	return shared.OutcomeApplied, nil
}

func (a *Account) resolve(record shared.TransactionRecord) (shared.Outcome, error) {
	held, ok := a.Transactions[record.Tx]
	if !ok {
		return shared.OutcomeUnknownTransaction, nil
	}
	if held.Dispute != DisputeOngoing {
		return shared.OutcomeNotDisputed, nil
	}

	newHeld, err := a.Held.Sub(held.Amount)
	if err != nil {
		return "", a.violation(record, "held", err)
	}
	held.Dispute = DisputeResolved
	a.Held = newHeld
	a.Available += held.Amount
	return shared.OutcomeApplied, nil
}

func (a *Account) chargeback(record shared.TransactionRecord) (shared.Outcome, error) {
	held, ok := a.Transactions[record.Tx]
	if !ok {
		return shared.OutcomeUnknownTransaction, nil
	}
	if held.Dispute != DisputeOngoing {
		return shared.OutcomeNotDisputed, nil
	}

	newHeld, err := a.Held.Sub(held.Amount)
	if err != nil {
		return "", a.violation(record, "held", err)
	}
	held.Dispute = DisputeChargedBack
	a.Held = newHeld
	a.Locked = true
	return shared.OutcomeApplied, nil
}

func (a *Account) violation(record shared.TransactionRecord, field string, err error) error {
	return &ErrInvariantViolation{
		ClientID:      a.Client,
		TransactionID: record.Tx,
		Kind:          record.Kind,
		Field:         field,
		Err:           err,
	}
}

// Snapshot is the read-only projection of an account written to the output.
type Snapshot struct {
	Client    uint16        `json:"client"`
	Available amount.Amount `json:"available"`
	Held      amount.Amount `json:"held"`
	Total     amount.Amount `json:"total"`
	Locked    bool          `json:"locked"`
}

// Snapshot projects the account's current state.
func (a *Account) Snapshot() Snapshot {
	return Snapshot{
		Client:    a.Client,
		Available: a.Available,
		Held:      a.Held,
		Total:     a.Total(),
		Locked:    a.Locked,
	}
}

// Snapshots projects every account, ordered by client id.
func Snapshots(accounts map[uint16]*Account) []Snapshot {
	snapshots := make([]Snapshot, 0, len(accounts))
	for _, acc := range accounts {
		snapshots = append(snapshots, acc.Snapshot())
	}
	slices.SortFunc(snapshots, func(x, y Snapshot) int {
		return cmp.Compare(x.Client, y.Client)
	})
	return snapshots
}
