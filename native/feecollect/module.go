package feecollect

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"sociograph/core/events"
	"sociograph/core/types"
	"sociograph/native/modules"
)

const feeDenominatorBps = 10_000

var (
	_ modules.CollectModule = (*Module)(nil)
	_ modules.PoolFactory   = (*Factory)(nil)
)

// ModuleConfig carries the deployment parameters of a fee collect module.
type ModuleConfig struct {
	Address             [20]byte
	Admin               [20]byte
	Treasury            [20]byte
	TreasuryFeeBps      uint64
	CollectRewardFeeBps uint64
	ReferralFeeBps      uint64
}

// Module is the reference collect-module implementation: a step-function
// price curve, a four-way fee split, and layered reward pools with claim
// accounting. It satisfies modules.CollectModule.
type Module struct {
	mu      sync.Mutex
	addr    [20]byte
	admin   [20]byte
	state   State
	emitter events.Emitter
	nowFn   func() int64

	curve     *Curve
	factory   *Factory
	whitelist modules.WhitelistView
	owners    modules.ProfileOwnerView

	treasury            [20]byte
	rewardsVault        [20]byte
	treasuryFeeBps      uint64
	collectRewardFeeBps uint64
	referralFeeBps      uint64
}

// NewModule constructs a fee collect module. Fee parameters must sum to at
// most 10000 bps.
func NewModule(cfg ModuleConfig) (*Module, error) {
	if cfg.TreasuryFeeBps+cfg.CollectRewardFeeBps+cfg.ReferralFeeBps > feeDenominatorBps {
		return nil, ErrFeeConfig
	}
	return &Module{
		addr:                cfg.Address,
		admin:               cfg.Admin,
		emitter:             events.NoopEmitter{},
		nowFn:               func() int64 { return time.Now().Unix() },
		curve:               NewCurve(),
		treasury:            cfg.Treasury,
		rewardsVault:        rewardsVault(cfg.Address),
		treasuryFeeBps:      cfg.TreasuryFeeBps,
		collectRewardFeeBps: cfg.CollectRewardFeeBps,
		referralFeeBps:      cfg.ReferralFeeBps,
	}, nil
}

// Address returns the module's whitelistable identity.
func (m *Module) Address() [20]byte { return m.addr }

// RewardsVault returns the account holding unclaimed creator and referral
// rewards.
func (m *Module) RewardsVault() [20]byte { return m.rewardsVault }

// SetState configures the state backend and binds the pool factory to it.
func (m *Module) SetState(state State) {
	m.state = state
	if m.factory != nil {
		m.factory.state = state
	}
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (m *Module) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (m *Module) SetNowFunc(now func() int64) {
	if now == nil {
		m.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	m.nowFn = now
}

// SetFactory binds the finance-module pool factory this module clones pools
// through.
func (m *Module) SetFactory(f *Factory) {
	m.factory = f
	if f != nil && m.state != nil {
		f.state = m.state
	}
}

// SetWhitelist wires the hub's whitelist view used to validate finance
// modules at initialization time.
func (m *Module) SetWhitelist(view modules.WhitelistView) { m.whitelist = view }

// SetOwners wires the hub's profile-owner view used to route claims.
func (m *Module) SetOwners(view modules.ProfileOwnerView) { m.owners = view }

func (m *Module) emit(evt *types.Event) {
	if m == nil || evt == nil || m.emitter == nil {
		return
	}
	m.emitter.Emit(WrapEvent(evt))
}

func (m *Module) now() int64 {
	if m == nil || m.nowFn == nil {
		return time.Now().Unix()
	}
	return m.nowFn()
}

// SetRate configures a per-index curve override. Admin only.
func (m *Module) SetRate(caller [20]byte, index, rate uint64) error {
	if caller != m.admin {
		return ErrNotAdmin
	}
	if err := m.curve.SetRate(index, rate); err != nil {
		return err
	}
	m.emit(rateUpdatedEvent(index, rate, m.now()))
	return nil
}

// SetFees reconfigures the fee split. Admin only; the parameters must sum to
// at most 10000 bps.
func (m *Module) SetFees(caller [20]byte, treasuryBps, collectRewardBps, referralBps uint64) error {
	if caller != m.admin {
		return ErrNotAdmin
	}
	if treasuryBps+collectRewardBps+referralBps > feeDenominatorBps {
		return ErrFeeConfig
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.treasuryFeeBps = treasuryBps
	m.collectRewardFeeBps = collectRewardBps
	m.referralFeeBps = referralBps
	return nil
}

// --- balance movement ---

func (m *Module) balanceOf(addr [20]byte, currency string) (*big.Int, error) {
	if currency == "" {
		acc, err := m.state.GetAccount(addr[:])
		if err != nil {
			return nil, err
		}
		return ensureAccount(acc).Balance, nil
	}
	return m.state.TokenBalance(addr[:], currency)
}

func (m *Module) setBalance(addr [20]byte, currency string, amount *big.Int) error {
	if currency == "" {
		acc, err := m.state.GetAccount(addr[:])
		if err != nil {
			return err
		}
		acc = ensureAccount(acc)
		acc.Balance = newBigInt(amount)
		return m.state.PutAccount(addr[:], acc)
	}
	return m.state.SetTokenBalance(addr[:], currency, amount)
}

// transfer moves amount between accounts, failing without side effects when
// the source balance is short.
func (m *Module) transfer(from, to [20]byte, currency string, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	fromBal, err := m.balanceOf(from, currency)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	toBal, err := m.balanceOf(to, currency)
	if err != nil {
		return err
	}
	if err := m.setBalance(from, currency, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return m.setBalance(to, currency, new(big.Int).Add(toBal, amount))
}

// --- modules.CollectModule ---

// InitializePublicationCollectModule validates the init payload and clones a
// fresh reward pool for the publication through the whitelisted finance
// module.
func (m *Module) InitializePublicationCollectModule(profileID, pubID uint64, data []byte) error {
	if m == nil || m.state == nil {
		return ErrNilState
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	init, err := decodeCollectInitData(data)
	if err != nil {
		return err
	}
	if m.factory == nil || init.FinancePool != m.factory.Address() {
		return ErrFinanceModuleNotWhitelisted
	}
	if m.whitelist != nil {
		allowed, err := m.whitelist.IsWhitelisted(modules.RoleFinance, init.FinancePool)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrFinanceModuleNotWhitelisted
		}
	}
	if err := m.factory.CreatePool(profileID, pubID, init.Currency, m.addr); err != nil {
		return err
	}
	pool, ok, err := m.state.PoolGet(profileID, pubID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPoolNotFound
	}
	pool.BasePrice = newBigInt(init.BasePrice)
	if err := m.state.PoolPut(pool); err != nil {
		return err
	}
	m.emit(poolCreatedEvent(profileID, pubID, init.Currency, m.addr, m.now()))
	return nil
}

// loadOwnedPool fetches the pool and enforces the caller-identity guard: only
// the deploying module writes a pool's accounting fields.
func (m *Module) loadOwnedPool(profileID, pubID uint64) (*Pool, error) {
	pool, ok, err := m.state.PoolGet(profileID, pubID)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotFound
	}
	if pool.OwnerModule != m.addr {
		return nil, ErrNotPoolOwner
	}
	return pool, nil
}

// CollectPrice quotes the price of the next collect. Repeated calls without
// an intervening collect return the same quote.
func (m *Module) CollectPrice(profileID, pubID uint64) (*big.Int, string, error) {
	if m == nil || m.state == nil {
		return nil, "", ErrNilState
	}
	pool, ok, err := m.state.PoolGet(profileID, pubID)
	if err != nil {
		return nil, "", err
	}
	if !ok || pool == nil {
		return nil, "", ErrPoolNotFound
	}
	price, err := m.curve.Price(pool.BasePrice, pool.CollectCount+1)
	if err != nil {
		return nil, "", err
	}
	return price, pool.Currency, nil
}

// ProcessCollect settles a collect: it charges the payer, splits the gross
// amount into treasury, collect-reward, referral and residual creator shares,
// and updates the layered reward pools. The split conserves the gross amount
// exactly; the creator share is computed as the residual.
func (m *Module) ProcessCollect(ctx modules.CollectContext) error {
	if m == nil || m.state == nil {
		return ErrNilState
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pool, err := m.loadOwnedPool(ctx.ProfileID, ctx.PubID)
	if err != nil {
		return err
	}
	n := pool.CollectCount + 1
	price, err := m.curve.Price(pool.BasePrice, n)
	if err != nil {
		return err
	}
	if pool.Currency == "" {
		if ctx.Payment == nil || ctx.Payment.Cmp(price) != 0 {
			return ErrInvalidPayment
		}
	}
	amount := newBigInt(price)
	if _, overflow := uint256.FromBig(amount); overflow {
		return ErrAmountOverflow
	}

	treasuryAmount := mulBps(amount, m.treasuryFeeBps)
	collectReward := mulBps(amount, m.collectRewardFeeBps)
	referralAmount := big.NewInt(0)
	if ctx.ReferrerProfileID != 0 && ctx.ReferrerProfileID != pool.ProfileID {
		referralAmount = mulBps(amount, m.referralFeeBps)
	}
	// Residual by construction: integer-division remainders land on the
	// creator share, keeping the sum invariant exact.
	creatorReward := new(big.Int).Sub(amount, treasuryAmount)
	creatorReward.Sub(creatorReward, collectReward)
	creatorReward.Sub(creatorReward, referralAmount)

	firstCollect := !pool.HasFirstCollector
	if firstCollect {
		// No prior collectors exist to reward; the collect-reward share
		// rolls into the creator reward.
		creatorReward.Add(creatorReward, collectReward)
		collectReward = big.NewInt(0)
	}

	// Anti-double-registration guard, checked before any mutation. The
	// comparison is against the exact pool-value snapshot the deposit
	// would record.
	var snapshot *big.Int
	if !firstCollect {
		snapshot = new(big.Int).Add(pool.Accumulator, collectReward)
		if !pool.HasFirstCollector || pool.FirstCollector != ctx.CollectorProfileID {
			existing, ok, err := m.state.BaselineGet(ctx.ProfileID, ctx.PubID, ctx.CollectorProfileID)
			if err != nil {
				return err
			}
			if ok && existing.Cmp(snapshot) == 0 {
				return ErrRepeatCollect
			}
		}
	}

	// Charge the payer and route the shares. The treasury share settles
	// immediately; collector rewards sit in the publication vault and
	// creator/referral rewards in the module rewards vault until claimed.
	if err := m.transfer(ctx.Payer, m.treasury, pool.Currency, treasuryAmount); err != nil {
		return err
	}
	if err := m.transfer(ctx.Payer, pool.Vault, pool.Currency, collectReward); err != nil {
		return err
	}
	rest := new(big.Int).Add(creatorReward, referralAmount)
	if err := m.transfer(ctx.Payer, m.rewardsVault, pool.Currency, rest); err != nil {
		return err
	}

	// (1) creator share, per-publication and aggregate.
	pool.CreatorRewardTotal = new(big.Int).Add(pool.CreatorRewardTotal, creatorReward)
	creatorLedger, ok, err := m.state.CreatorLedgerGet(pool.ProfileID, pool.Currency)
	if err != nil {
		return err
	}
	if !ok || creatorLedger == nil {
		creatorLedger = NewRewardLedger()
	}
	creatorLedger.Total = new(big.Int).Add(creatorLedger.Total, creatorReward)
	if err := m.state.CreatorLedgerPut(pool.ProfileID, pool.Currency, creatorLedger); err != nil {
		return err
	}

	// (2)/(3) collect-reward accumulator and collector registration.
	if firstCollect {
		pool.HasFirstCollector = true
		pool.FirstCollector = ctx.CollectorProfileID
	} else {
		pool.Accumulator = snapshot
		if pool.FirstCollector != ctx.CollectorProfileID {
			// The depositing collector's baseline moves to the new
			// pool value: they never claim a share of the reward
			// their own payment created.
			if err := m.state.BaselinePut(ctx.ProfileID, ctx.PubID, ctx.CollectorProfileID, snapshot); err != nil {
				return err
			}
		}
	}

	// (4) referral share.
	if referralAmount.Sign() > 0 {
		prior, err := m.state.PubReferrerGet(ctx.ProfileID, ctx.PubID, ctx.ReferrerProfileID)
		if err != nil {
			return err
		}
		if err := m.state.PubReferrerPut(ctx.ProfileID, ctx.PubID, ctx.ReferrerProfileID, new(big.Int).Add(prior, referralAmount)); err != nil {
			return err
		}
		refLedger, ok, err := m.state.ReferrerLedgerGet(ctx.ReferrerProfileID, pool.Currency)
		if err != nil {
			return err
		}
		if !ok || refLedger == nil {
			refLedger = NewRewardLedger()
		}
		refLedger.Total = new(big.Int).Add(refLedger.Total, referralAmount)
		if err := m.state.ReferrerLedgerPut(ctx.ReferrerProfileID, pool.Currency, refLedger); err != nil {
			return err
		}
	}

	pool.CollectCount = n
	if err := m.state.PoolPut(pool); err != nil {
		return err
	}
	m.emit(collectProcessedEvent(ctx.ProfileID, ctx.PubID, ctx.CollectorProfileID, ctx.ReferrerProfileID,
		pool.Currency, amount.String(), treasuryAmount.String(), collectReward.String(), referralAmount.String(), creatorReward.String(), m.now()))
	return nil
}

func mulBps(amount *big.Int, bps uint64) *big.Int {
	if amount == nil || bps == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return out.Div(out, big.NewInt(feeDenominatorBps))
}

// --- claims ---

func (m *Module) requireProfileOwner(caller [20]byte, profileID uint64) ([20]byte, error) {
	if m.owners == nil {
		return [20]byte{}, ErrNotProfileOwner
	}
	owner, ok, err := m.owners.ProfileOwner(profileID)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok || owner != caller {
		return [20]byte{}, ErrNotProfileOwner
	}
	return owner, nil
}

// ClaimableCollectReward computes the unclaimed collect-reward balance for a
// profile on a publication without mutating state.
func (m *Module) ClaimableCollectReward(claimantProfileID, profileID, pubID uint64) (*big.Int, error) {
	if m == nil || m.state == nil {
		return nil, ErrNilState
	}
	pool, ok, err := m.state.PoolGet(profileID, pubID)
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotFound
	}
	return m.claimable(pool, claimantProfileID)
}

func (m *Module) claimable(pool *Pool, claimantProfileID uint64) (*big.Int, error) {
	baseline := big.NewInt(0)
	if !pool.HasFirstCollector {
		return big.NewInt(0), nil
	}
	if pool.FirstCollector != claimantProfileID {
		stored, ok, err := m.state.BaselineGet(pool.ProfileID, pool.PubID, claimantProfileID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return big.NewInt(0), nil
		}
		baseline = stored
	}
	claimed, err := m.state.ClaimedGet(pool.ProfileID, pool.PubID, claimantProfileID)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Sub(pool.Accumulator, baseline)
	out.Sub(out, claimed)
	if out.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return out, nil
}

// ClaimCollectReward pays out up to the claimant's unclaimed pool share.
// A nil amount claims the full balance; partial claims are allowed and there
// is no expiry.
func (m *Module) ClaimCollectReward(caller [20]byte, claimantProfileID, profileID, pubID uint64, amount *big.Int) (*big.Int, error) {
	if m == nil || m.state == nil {
		return nil, ErrNilState
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, err := m.requireProfileOwner(caller, claimantProfileID)
	if err != nil {
		return nil, err
	}
	pool, err := m.loadOwnedPool(profileID, pubID)
	if err != nil {
		return nil, err
	}
	claimable, err := m.claimable(pool, claimantProfileID)
	if err != nil {
		return nil, err
	}
	if claimable.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	if amount == nil {
		amount = claimable
	}
	if amount.Sign() <= 0 || amount.Cmp(claimable) > 0 {
		return nil, ErrInsufficientClaimable
	}
	if err := m.transfer(pool.Vault, owner, pool.Currency, amount); err != nil {
		return nil, err
	}
	claimed, err := m.state.ClaimedGet(profileID, pubID, claimantProfileID)
	if err != nil {
		return nil, err
	}
	if err := m.state.ClaimedPut(profileID, pubID, claimantProfileID, new(big.Int).Add(claimed, amount)); err != nil {
		return nil, err
	}
	m.emit(rewardClaimedEvent("collect", claimantProfileID, amount.String(), m.now()))
	return newBigInt(amount), nil
}

// ClaimCreatorReward pays out accrued creator rewards from the aggregate
// pool in the supplied currency.
func (m *Module) ClaimCreatorReward(caller [20]byte, profileID uint64, currency string, amount *big.Int) (*big.Int, error) {
	return m.claimAggregate(caller, profileID, currency, amount, "creator",
		func(id uint64) (*RewardLedger, bool, error) { return m.state.CreatorLedgerGet(id, currency) },
		func(id uint64, l *RewardLedger) error { return m.state.CreatorLedgerPut(id, currency, l) })
}

// ClaimReferralReward pays out accrued referral rewards from the aggregate
// pool in the supplied currency.
func (m *Module) ClaimReferralReward(caller [20]byte, profileID uint64, currency string, amount *big.Int) (*big.Int, error) {
	return m.claimAggregate(caller, profileID, currency, amount, "referral",
		func(id uint64) (*RewardLedger, bool, error) { return m.state.ReferrerLedgerGet(id, currency) },
		func(id uint64, l *RewardLedger) error { return m.state.ReferrerLedgerPut(id, currency, l) })
}

func (m *Module) claimAggregate(caller [20]byte, profileID uint64, currency string, amount *big.Int, kind string,
	get func(uint64) (*RewardLedger, bool, error), put func(uint64, *RewardLedger) error) (*big.Int, error) {
	if m == nil || m.state == nil {
		return nil, ErrNilState
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, err := m.requireProfileOwner(caller, profileID)
	if err != nil {
		return nil, err
	}
	ledger, ok, err := get(profileID)
	if err != nil {
		return nil, err
	}
	if !ok || ledger == nil {
		return nil, ErrNothingToClaim
	}
	unclaimed := ledger.Unclaimed()
	if unclaimed.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	if amount == nil {
		amount = unclaimed
	}
	if amount.Sign() <= 0 || amount.Cmp(unclaimed) > 0 {
		return nil, ErrInsufficientClaimable
	}
	if err := m.transfer(m.rewardsVault, owner, currency, amount); err != nil {
		return nil, err
	}
	ledger.Claimed = new(big.Int).Add(ledger.Claimed, amount)
	if err := put(profileID, ledger); err != nil {
		return nil, err
	}
	m.emit(rewardClaimedEvent(kind, profileID, amount.String(), m.now()))
	return newBigInt(amount), nil
}

// DebugString describes the module wiring. Useful for tracing.
func (m *Module) DebugString() string {
	if m == nil {
		return "feecollect module <nil>"
	}
	return fmt.Sprintf("feecollect module addr=%x emitter=%T", m.addr, m.emitter)
}
