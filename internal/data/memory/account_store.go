package memory

import (
	"github.com/payments-engine/internal/domain/account"
)

var _ account.Repository = (*AccountStore)(nil)

// AccountStore keeps the accounts of a single batch in memory. It is owned by
// one goroutine and is not safe for concurrent use.
type AccountStore struct {
	accounts map[uint16]*account.Account
	policy   account.DisputePolicy
}

// NewAccountStore creates an empty store whose accounts use the given dispute policy
func NewAccountStore(policy account.DisputePolicy) *AccountStore {
	return &AccountStore{
		accounts: make(map[uint16]*account.Account),
		policy:   policy,
	}
}

func (s *AccountStore) GetOrCreate(client uint16) *account.Account {
	acc, exists := s.accounts[client]
	if !exists {
		acc = account.NewAccount(client, s.policy)
		s.accounts[client] = acc
	}
	return acc
}

// All returns the backing map; callers take ownership once the batch is done.
func (s *AccountStore) All() map[uint16]*account.Account {
	return s.accounts
}

func (s *AccountStore) Len() int {
	return len(s.accounts)
}
