// Package state persists the social graph in a key-value database. Keys are
// keccak hashes of human-readable schema paths; values are RLP encoded.
package state

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"sociograph/core/types"
	"sociograph/storage"
)

// Manager provides typed access to the on-disk state. It implements the
// persistence surfaces required by the hub, the receipt ledgers and the
// collect modules.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// KVPut RLP-encodes the value and stores it under the hashed key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(kvKey(key))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the entry stored under the supplied key. Deleting a missing
// key is a no-op.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	if err := m.db.Delete(kvKey(key)); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return err
	}
	return nil
}

// nextID increments and returns the counter stored under key. Counters are
// 1-based.
func (m *Manager) nextID(key []byte) (uint64, error) {
	var current uint64
	if _, err := m.KVGet(key, &current); err != nil {
		return 0, err
	}
	current++
	if err := m.KVPut(key, current); err != nil {
		return 0, err
	}
	return current, nil
}

// --- accounts and token balances ---

var (
	accountPrefix = []byte("account/")
	balancePrefix = []byte("balance/")
)

func accountKey(addr []byte) []byte {
	return append(append([]byte{}, accountPrefix...), addr...)
}

func tokenBalanceKey(addr []byte, symbol string) []byte {
	buf := make([]byte, 0, len(balancePrefix)+len(symbol)+1+len(addr))
	buf = append(buf, balancePrefix...)
	buf = append(buf, symbol...)
	buf = append(buf, ':')
	return append(buf, addr...)
}

// GetAccount loads the native-currency account for the address. Missing
// accounts materialize zeroed.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	account := new(types.Account)
	ok, err := m.KVGet(accountKey(addr), account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.NewAccount(), nil
	}
	if account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	return account, nil
}

// PutAccount stores the native-currency account for the address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: account must not be nil")
	}
	return m.KVPut(accountKey(addr), account)
}

// TokenBalance returns the address's balance in the named token. Missing
// entries read as zero.
func (m *Manager) TokenBalance(addr []byte, symbol string) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := m.KVGet(tokenBalanceKey(addr, symbol), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// SetTokenBalance stores the address's balance in the named token.
func (m *Manager) SetTokenBalance(addr []byte, symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: token balance must be non-negative")
	}
	return m.KVPut(tokenBalanceKey(addr, symbol), amount)
}
