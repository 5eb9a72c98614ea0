package state

import (
	"errors"
	"math/big"
	"testing"

	"sociograph/native/feecollect"
	"sociograph/native/hub"
	"sociograph/native/modules"
	"sociograph/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestKVRoundTrip(t *testing.T) {
	m := newTestManager(t)
	if err := m.KVPut([]byte("test/counter"), uint64(42)); err != nil {
		t.Fatalf("put: %v", err)
	}
	var got uint64
	ok, err := m.KVGet([]byte("test/counter"), &got)
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	ok, err = m.KVGet([]byte("test/missing"), &got)
	if err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := m.KVDelete([]byte("test/counter")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, _ = m.KVGet([]byte("test/counter"), &got)
	if ok {
		t.Fatalf("key survived delete")
	}
	// Deleting a missing key is a no-op.
	if err := m.KVDelete([]byte("test/counter")); err != nil {
		t.Fatalf("double delete: %v", err)
	}
}

func TestAccountsMaterializeZeroed(t *testing.T) {
	m := newTestManager(t)
	addr := []byte{0x01, 0x02}
	account, err := m.GetAccount(addr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if account.Balance.Sign() != 0 || account.Nonce != 0 {
		t.Fatalf("fresh account not zeroed: %+v", account)
	}
	account.Balance = big.NewInt(1000)
	account.Nonce = 3
	if err := m.PutAccount(addr, account); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded, err := m.GetAccount(addr)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Balance.Cmp(big.NewInt(1000)) != 0 || loaded.Nonce != 3 {
		t.Fatalf("reloaded account = %+v", loaded)
	}
	if err := m.PutAccount(addr, nil); err == nil {
		t.Fatalf("nil account accepted")
	}
}

func TestTokenBalances(t *testing.T) {
	m := newTestManager(t)
	addr := []byte{0xAA}
	balance, err := m.TokenBalance(addr, "SOC")
	if err != nil || balance.Sign() != 0 {
		t.Fatalf("fresh balance = %s %v", balance, err)
	}
	if err := m.SetTokenBalance(addr, "SOC", big.NewInt(500)); err != nil {
		t.Fatalf("set: %v", err)
	}
	balance, _ = m.TokenBalance(addr, "SOC")
	if balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("balance = %s, want 500", balance)
	}
	// Symbols are isolated.
	balance, _ = m.TokenBalance(addr, "OTHER")
	if balance.Sign() != 0 {
		t.Fatalf("balance leaked across symbols")
	}
	if err := m.SetTokenBalance(addr, "SOC", big.NewInt(-1)); err == nil {
		t.Fatalf("negative balance accepted")
	}
}

func TestStateVersionGuard(t *testing.T) {
	db := storage.NewMemDB()
	if err := EnsureStateVersion(db, false); err != nil {
		t.Fatalf("fresh database: %v", err)
	}
	// Stamped and idempotent.
	if err := EnsureStateVersion(db, false); err != nil {
		t.Fatalf("stamped database: %v", err)
	}
	m := NewManager(db)
	if err := m.SetStateVersion(StateVersion + 1); err != nil {
		t.Fatalf("bump: %v", err)
	}
	if err := EnsureStateVersion(db, false); !errors.Is(err, ErrStateVersionMismatch) {
		t.Fatalf("err = %v, want ErrStateVersionMismatch", err)
	}
	if err := EnsureStateVersion(db, true); err != nil {
		t.Fatalf("allowMigrate: %v", err)
	}
}

func TestProfilePersistence(t *testing.T) {
	m := newTestManager(t)
	var owner [20]byte
	owner[19] = 0x01
	id, err := m.NextProfileID()
	if err != nil || id != 1 {
		t.Fatalf("next id = %d %v, want 1", id, err)
	}
	profile := &hub.Profile{
		ID:        id,
		Handle:    "alice.soc",
		Owner:     owner,
		ImageURI:  "ipfs://img",
		CreatedAt: 1_700_000_000,
	}
	if err := m.ProfilePut(profile); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := m.HandlePut(profile.Handle, id); err != nil {
		t.Fatalf("index: %v", err)
	}
	loaded, ok, err := m.ProfileGet(id)
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if loaded.Handle != "alice.soc" || loaded.Owner != owner || loaded.CreatedAt != 1_700_000_000 {
		t.Fatalf("loaded = %+v", loaded)
	}
	mapped, ok, err := m.HandleGet("alice.soc")
	if err != nil || !ok || mapped != id {
		t.Fatalf("handle lookup = %d %v %v", mapped, ok, err)
	}
	if err := m.HandleDelete("alice.soc"); err != nil {
		t.Fatalf("delete handle: %v", err)
	}
	if _, ok, _ := m.HandleGet("alice.soc"); ok {
		t.Fatalf("handle survived delete")
	}
	// The burned flag round-trips.
	profile.Burned = true
	if err := m.ProfilePut(profile); err != nil {
		t.Fatalf("tombstone: %v", err)
	}
	loaded, _, _ = m.ProfileGet(id)
	if !loaded.Burned {
		t.Fatalf("burned flag lost")
	}
}

func TestPublicationPersistence(t *testing.T) {
	m := newTestManager(t)
	var module [20]byte
	module[0] = 0xC0
	pub := &hub.Publication{
		ProfileID:        1,
		PubID:            1,
		ContentURI:       "ipfs://content",
		CollectModule:    module,
		ProfileIDPointed: 2,
		PubIDPointed:     3,
		EchoID:           4,
	}
	if err := m.PublicationPut(pub); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded, ok, err := m.PublicationGet(1, 1)
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if loaded.ContentURI != pub.ContentURI || loaded.CollectModule != module || loaded.EchoID != 4 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if _, ok, _ := m.PublicationGet(1, 2); ok {
		t.Fatalf("phantom publication")
	}
}

func TestGovernanceAndWhitelistPersistence(t *testing.T) {
	m := newTestManager(t)
	var gov, module [20]byte
	gov[19], module[19] = 0xA0, 0xC0

	state, err := m.ProtocolStateGet()
	if err != nil || state != hub.StateUnpaused {
		t.Fatalf("fresh state = %v %v", state, err)
	}
	if err := m.ProtocolStatePut(hub.StatePaused); err != nil {
		t.Fatalf("put state: %v", err)
	}
	state, _ = m.ProtocolStateGet()
	if state != hub.StatePaused {
		t.Fatalf("state = %v, want paused", state)
	}

	if err := m.GovernancePut(gov); err != nil {
		t.Fatalf("put governance: %v", err)
	}
	loaded, _ := m.GovernanceGet()
	if loaded != gov {
		t.Fatalf("governance = %x", loaded)
	}

	allowed, err := m.WhitelistGet(modules.RoleCollect, module)
	if err != nil || allowed {
		t.Fatalf("fresh whitelist = %v %v", allowed, err)
	}
	if err := m.WhitelistPut(modules.RoleCollect, module, true); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	allowed, _ = m.WhitelistGet(modules.RoleCollect, module)
	if !allowed {
		t.Fatalf("whitelist entry lost")
	}
	// Role scoping.
	allowed, _ = m.WhitelistGet(modules.RoleFollow, module)
	if allowed {
		t.Fatalf("whitelist leaked across roles")
	}
}

func TestReceiptPersistence(t *testing.T) {
	m := newTestManager(t)
	var holder [20]byte
	holder[0] = 0x01
	if _, ok, err := m.ReceiptSeriesGet("follow/7"); err != nil || ok {
		t.Fatalf("fresh series: %v %v", ok, err)
	}
	if err := m.ReceiptSeriesPut("follow/7", 3); err != nil {
		t.Fatalf("put series: %v", err)
	}
	minted, ok, err := m.ReceiptSeriesGet("follow/7")
	if err != nil || !ok || minted != 3 {
		t.Fatalf("series = %d %v %v", minted, ok, err)
	}
	if err := m.ReceiptBalancePut("follow/7", holder, 2); err != nil {
		t.Fatalf("put balance: %v", err)
	}
	balance, err := m.ReceiptBalanceGet("follow/7", holder)
	if err != nil || balance != 2 {
		t.Fatalf("balance = %d %v", balance, err)
	}
}

func TestPoolPersistence(t *testing.T) {
	m := newTestManager(t)
	var module, vault [20]byte
	module[0], vault[0] = 0xC0, 0xD0
	pool := &feecollect.Pool{
		ProfileID:          1,
		PubID:              2,
		OwnerModule:        module,
		Currency:           "SOC",
		BasePrice:          big.NewInt(1000),
		Vault:              vault,
		CollectCount:       3,
		Accumulator:        big.NewInt(200),
		CreatorRewardTotal: big.NewInt(900),
		FirstCollector:     5,
		HasFirstCollector:  true,
	}
	if err := m.PoolPut(pool); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded, ok, err := m.PoolGet(1, 2)
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if loaded.Currency != "SOC" || loaded.BasePrice.Cmp(big.NewInt(1000)) != 0 ||
		loaded.Accumulator.Cmp(big.NewInt(200)) != 0 || !loaded.HasFirstCollector || loaded.FirstCollector != 5 {
		t.Fatalf("loaded = %+v", loaded)
	}

	if _, ok, err := m.BaselineGet(1, 2, 9); err != nil || ok {
		t.Fatalf("fresh baseline: %v %v", ok, err)
	}
	if err := m.BaselinePut(1, 2, 9, big.NewInt(0)); err != nil {
		t.Fatalf("put baseline: %v", err)
	}
	// A zero baseline is distinguishable from a missing one.
	baseline, ok, err := m.BaselineGet(1, 2, 9)
	if err != nil || !ok || baseline.Sign() != 0 {
		t.Fatalf("baseline = %v %v %v", baseline, ok, err)
	}

	claimed, err := m.ClaimedGet(1, 2, 9)
	if err != nil || claimed.Sign() != 0 {
		t.Fatalf("fresh claimed = %s %v", claimed, err)
	}
	if err := m.ClaimedPut(1, 2, 9, big.NewInt(50)); err != nil {
		t.Fatalf("put claimed: %v", err)
	}
	claimed, _ = m.ClaimedGet(1, 2, 9)
	if claimed.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("claimed = %s, want 50", claimed)
	}
}

func TestRewardLedgerPersistence(t *testing.T) {
	m := newTestManager(t)
	if _, ok, err := m.CreatorLedgerGet(1, ""); err != nil || ok {
		t.Fatalf("fresh ledger: %v %v", ok, err)
	}
	ledger := &feecollect.RewardLedger{Total: big.NewInt(900), Claimed: big.NewInt(100)}
	if err := m.CreatorLedgerPut(1, "", ledger); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded, ok, err := m.CreatorLedgerGet(1, "")
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if loaded.Unclaimed().Cmp(big.NewInt(800)) != 0 {
		t.Fatalf("unclaimed = %s, want 800", loaded.Unclaimed())
	}
	// Currencies are isolated.
	if _, ok, _ := m.CreatorLedgerGet(1, "SOC"); ok {
		t.Fatalf("ledger leaked across currencies")
	}
	if err := m.ReferrerLedgerPut(2, "SOC", ledger); err != nil {
		t.Fatalf("put referrer: %v", err)
	}
	loaded, ok, _ = m.ReferrerLedgerGet(2, "SOC")
	if !ok || loaded.Total.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("referrer ledger = %+v %v", loaded, ok)
	}
}
