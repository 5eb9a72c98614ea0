package types

import "math/big"

// Account holds the native balance and bookkeeping for a protocol address.
// Token-denominated balances are stored separately under symbol-scoped keys by
// the state manager.
type Account struct {
	Balance *big.Int
	Nonce   uint64
}

// NewAccount returns an account with a zeroed balance.
func NewAccount() *Account {
	return &Account{Balance: big.NewInt(0)}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	return &clone
}
