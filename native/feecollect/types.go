package feecollect

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Pool is the per-publication reward pool, cloned at publication creation and
// owned by the collect module that deployed it. Only that module writes the
// accounting fields.
type Pool struct {
	ProfileID   uint64
	PubID       uint64
	OwnerModule [20]byte
	Currency    string
	BasePrice   *big.Int
	// Vault is the derived account holding pooled collector rewards.
	Vault        [20]byte
	CollectCount uint64
	// Accumulator is the cumulative collect-reward pool; it grows on every
	// non-first collect.
	Accumulator *big.Int
	// CreatorRewardTotal mirrors the creator share recorded against this
	// publication.
	CreatorRewardTotal *big.Int
	// FirstCollector is the profile designated on the first collect. It is
	// entitled to the full pool growth and exempt from the repeat guard.
	FirstCollector    uint64
	HasFirstCollector bool
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	if p.BasePrice != nil {
		clone.BasePrice = new(big.Int).Set(p.BasePrice)
	}
	if p.Accumulator != nil {
		clone.Accumulator = new(big.Int).Set(p.Accumulator)
	}
	if p.CreatorRewardTotal != nil {
		clone.CreatorRewardTotal = new(big.Int).Set(p.CreatorRewardTotal)
	}
	return &clone
}

// RewardLedger is an aggregate-pool entry tracking lifetime and claimed
// totals for one profile.
type RewardLedger struct {
	Total   *big.Int
	Claimed *big.Int
}

// NewRewardLedger returns a zeroed ledger.
func NewRewardLedger() *RewardLedger {
	return &RewardLedger{Total: big.NewInt(0), Claimed: big.NewInt(0)}
}

// Clone returns a deep copy of the ledger.
func (l *RewardLedger) Clone() *RewardLedger {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Total != nil {
		clone.Total = new(big.Int).Set(l.Total)
	}
	if l.Claimed != nil {
		clone.Claimed = new(big.Int).Set(l.Claimed)
	}
	return &clone
}

// Unclaimed returns Total - Claimed, floored at zero.
func (l *RewardLedger) Unclaimed() *big.Int {
	if l == nil || l.Total == nil {
		return big.NewInt(0)
	}
	claimed := l.Claimed
	if claimed == nil {
		claimed = big.NewInt(0)
	}
	out := new(big.Int).Sub(l.Total, claimed)
	if out.Sign() < 0 {
		return big.NewInt(0)
	}
	return out
}

// CollectInitData is the payload a publisher supplies when attaching this
// collect module to a publication.
type CollectInitData struct {
	Currency    string
	BasePrice   *big.Int
	FinancePool [20]byte
}

// EncodeCollectInitData serializes init data for transport through the hub.
func EncodeCollectInitData(data CollectInitData) ([]byte, error) {
	return rlp.EncodeToBytes(&data)
}

func decodeCollectInitData(raw []byte) (*CollectInitData, error) {
	data := new(CollectInitData)
	if err := rlp.DecodeBytes(raw, data); err != nil {
		return nil, ErrInvalidInitData
	}
	if data.BasePrice == nil || data.BasePrice.Sign() < 0 {
		return nil, ErrInvalidInitData
	}
	return data, nil
}

var poolVaultSalt = []byte("feecollect/pool-vault/v1")

// poolVault derives the deterministic account holding a publication's pooled
// collector rewards.
func poolVault(profileID, pubID uint64) [20]byte {
	buf := make([]byte, len(poolVaultSalt)+16)
	copy(buf, poolVaultSalt)
	binary.BigEndian.PutUint64(buf[len(poolVaultSalt):], profileID)
	binary.BigEndian.PutUint64(buf[len(poolVaultSalt)+8:], pubID)
	hash := ethcrypto.Keccak256(buf)
	var out [20]byte
	copy(out[:], hash[12:])
	return out
}

var rewardsVaultSalt = []byte("feecollect/rewards-vault/v1")

// rewardsVault derives the module-level account holding creator and referral
// rewards until they are claimed through the aggregate pool.
func rewardsVault(module [20]byte) [20]byte {
	buf := make([]byte, len(rewardsVaultSalt)+20)
	copy(buf, rewardsVaultSalt)
	copy(buf[len(rewardsVaultSalt):], module[:])
	hash := ethcrypto.Keccak256(buf)
	var out [20]byte
	copy(out[:], hash[12:])
	return out
}
