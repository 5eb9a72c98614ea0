package feecollect

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
)

// rateDenominator converts ladder rates into price multipliers: a rate of 100
// is 1x, 20000 is 200x.
const rateDenominator = 100

// maxRate caps configured rates at the top of the default ladder.
const maxRate = 20000

// defaultLadder is the hardcoded step function over the collect index. The
// ladder is only defined from index 251 upward; lower indices must be seeded
// through overrides.
var defaultLadder = []struct {
	threshold uint64
	rate      uint64
}{
	{300, 20000},
	{290, 5000},
	{281, 1000},
	{275, 600},
	{270, 400},
	{267, 300},
	{264, 250},
	{261, 200},
	{259, 170},
	{257, 150},
	{255, 130},
	{254, 120},
	{251, 110},
}

// Curve maps a collect index to a price multiplier. Per-index overrides take
// precedence over the default ladder.
type Curve struct {
	mu        sync.RWMutex
	overrides map[uint64]uint64
}

// NewCurve returns a curve with no overrides configured.
func NewCurve() *Curve {
	return &Curve{overrides: make(map[uint64]uint64)}
}

// SetRate overrides the rate for an exact collect index.
func (c *Curve) SetRate(index uint64, rate uint64) error {
	if index == 0 {
		return fmt.Errorf("%w: index must be positive", ErrInvalidRate)
	}
	if rate == 0 || rate > maxRate {
		return fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[index] = rate
	return nil
}

// Rate resolves the multiplier for the collect index, override first, then
// the default ladder.
func (c *Curve) Rate(n uint64) (uint64, error) {
	if n == 0 {
		return 0, fmt.Errorf("%w: index 0", ErrCurveUndefined)
	}
	c.mu.RLock()
	rate, ok := c.overrides[n]
	c.mu.RUnlock()
	if ok {
		return rate, nil
	}
	for _, step := range defaultLadder {
		if n >= step.threshold {
			return step.rate, nil
		}
	}
	return 0, fmt.Errorf("%w: index %d below ladder", ErrCurveUndefined, n)
}

// Price quotes basePrice * rate(n) / 100. The result must fit an unsigned
// 256-bit integer.
func (c *Curve) Price(basePrice *big.Int, n uint64) (*big.Int, error) {
	if basePrice == nil || basePrice.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative base price", ErrInvalidRate)
	}
	rate, err := c.Rate(n)
	if err != nil {
		return nil, err
	}
	price := new(big.Int).Mul(basePrice, new(big.Int).SetUint64(rate))
	price = price.Div(price, big.NewInt(rateDenominator))
	if _, overflow := uint256.FromBig(price); overflow {
		return nil, ErrAmountOverflow
	}
	return price, nil
}
