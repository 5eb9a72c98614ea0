package feecollect

import (
	"math/big"

	"sociograph/core/types"
)

// State is the persistence surface the module and its pools require. The
// aggregate creator/referrer ledgers are keyed per profile and currency;
// everything else is keyed per publication.
type State interface {
	PoolGet(profileID, pubID uint64) (*Pool, bool, error)
	PoolPut(*Pool) error

	BaselineGet(profileID, pubID, collectorProfileID uint64) (*big.Int, bool, error)
	BaselinePut(profileID, pubID, collectorProfileID uint64, value *big.Int) error
	ClaimedGet(profileID, pubID, collectorProfileID uint64) (*big.Int, error)
	ClaimedPut(profileID, pubID, collectorProfileID uint64, value *big.Int) error
	PubReferrerGet(profileID, pubID, referrerProfileID uint64) (*big.Int, error)
	PubReferrerPut(profileID, pubID, referrerProfileID uint64, value *big.Int) error

	CreatorLedgerGet(profileID uint64, currency string) (*RewardLedger, bool, error)
	CreatorLedgerPut(profileID uint64, currency string, ledger *RewardLedger) error
	ReferrerLedgerGet(profileID uint64, currency string) (*RewardLedger, bool, error)
	ReferrerLedgerPut(profileID uint64, currency string, ledger *RewardLedger) error

	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
	TokenBalance(addr []byte, symbol string) (*big.Int, error)
	SetTokenBalance(addr []byte, symbol string, amount *big.Int) error
}

// Factory clones a fresh, independently owned reward pool per publication.
// Its address is the finance-module identity governance whitelists.
type Factory struct {
	addr  [20]byte
	state State
}

// NewFactory constructs a pool factory at the supplied module address.
func NewFactory(addr [20]byte, state State) *Factory {
	return &Factory{addr: addr, state: state}
}

// Address returns the factory's finance-module address.
func (f *Factory) Address() [20]byte { return f.addr }

// CreatePool instantiates the reward pool for a publication. Two different
// publications never share a pool instance; re-creation fails.
func (f *Factory) CreatePool(profileID, pubID uint64, currency string, owner [20]byte) error {
	if f == nil || f.state == nil {
		return ErrNilState
	}
	if _, exists, err := f.state.PoolGet(profileID, pubID); err != nil {
		return err
	} else if exists {
		return ErrPoolExists
	}
	pool := &Pool{
		ProfileID:          profileID,
		PubID:              pubID,
		OwnerModule:        owner,
		Currency:           currency,
		BasePrice:          big.NewInt(0),
		Vault:              poolVault(profileID, pubID),
		Accumulator:        big.NewInt(0),
		CreatorRewardTotal: big.NewInt(0),
	}
	return f.state.PoolPut(pool)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return types.NewAccount()
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func newBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
