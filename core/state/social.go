package state

import (
	"fmt"
	"math/big"

	"sociograph/native/feecollect"
	"sociograph/native/hub"
	"sociograph/native/modules"
	"sociograph/native/receipts"
)

// This file implements the persistence surfaces of the social modules:
// hub.State, receipts.State and feecollect.State. Every entry lives under a
// readable schema path that is keccak-hashed before hitting the database, the
// same layout discipline the rest of the state uses.

var (
	_ hub.State        = (*Manager)(nil)
	_ receipts.State   = (*Manager)(nil)
	_ feecollect.State = (*Manager)(nil)
)

var (
	keyProtocolState  = []byte("hub/protocol-state")
	keyGovernance     = []byte("hub/governance")
	keyEmergencyAdmin = []byte("hub/emergency-admin")
	keyCreatorGate    = []byte("hub/creator-gate")
	keyProfileSeq     = []byte("hub/profile-seq")
	keySeriesSeq      = []byte("hub/series-seq")
)

func whitelistKey(role modules.Role, addr [20]byte) []byte {
	return []byte(fmt.Sprintf("hub/whitelist/%s/%x", role, addr))
}

func profileKey(id uint64) []byte {
	return []byte(fmt.Sprintf("hub/profile/%d", id))
}

func handleKey(handle string) []byte {
	return []byte("hub/handle/" + handle)
}

func publicationKey(profileID, pubID uint64) []byte {
	return []byte(fmt.Sprintf("hub/publication/%d/%d", profileID, pubID))
}

// --- hub.State ---

// ProtocolStateGet returns the current protocol state; fresh databases read
// as unpaused.
func (m *Manager) ProtocolStateGet() (hub.ProtocolState, error) {
	var stored uint64
	if _, err := m.KVGet(keyProtocolState, &stored); err != nil {
		return hub.StateUnpaused, err
	}
	return hub.ProtocolState(stored), nil
}

// ProtocolStatePut stores the protocol state.
func (m *Manager) ProtocolStatePut(s hub.ProtocolState) error {
	return m.KVPut(keyProtocolState, uint64(s))
}

// GovernanceGet returns the governance address; zero when unset.
func (m *Manager) GovernanceGet() ([20]byte, error) {
	var addr [20]byte
	if _, err := m.KVGet(keyGovernance, &addr); err != nil {
		return [20]byte{}, err
	}
	return addr, nil
}

// GovernancePut stores the governance address.
func (m *Manager) GovernancePut(addr [20]byte) error {
	return m.KVPut(keyGovernance, addr)
}

// EmergencyAdminGet returns the emergency admin address; zero when unset.
func (m *Manager) EmergencyAdminGet() ([20]byte, error) {
	var addr [20]byte
	if _, err := m.KVGet(keyEmergencyAdmin, &addr); err != nil {
		return [20]byte{}, err
	}
	return addr, nil
}

// EmergencyAdminPut stores the emergency admin address.
func (m *Manager) EmergencyAdminPut(addr [20]byte) error {
	return m.KVPut(keyEmergencyAdmin, addr)
}

// CreatorGateGet reports whether profile creation is whitelist-gated.
func (m *Manager) CreatorGateGet() (bool, error) {
	var enabled bool
	if _, err := m.KVGet(keyCreatorGate, &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

// CreatorGatePut stores the profile-creation gate flag.
func (m *Manager) CreatorGatePut(enabled bool) error {
	return m.KVPut(keyCreatorGate, enabled)
}

// WhitelistGet reports whether the address is whitelisted for the role.
func (m *Manager) WhitelistGet(role modules.Role, addr [20]byte) (bool, error) {
	var allowed bool
	if _, err := m.KVGet(whitelistKey(role, addr), &allowed); err != nil {
		return false, err
	}
	return allowed, nil
}

// WhitelistPut stores the whitelist entry for the role and address.
func (m *Manager) WhitelistPut(role modules.Role, addr [20]byte, allowed bool) error {
	return m.KVPut(whitelistKey(role, addr), allowed)
}

// NextProfileID allocates the next profile identifier. Identifiers are
// 1-based and strictly sequential.
func (m *Manager) NextProfileID() (uint64, error) {
	return m.nextID(keyProfileSeq)
}

// NextSeriesID allocates the next receipt-series identifier.
func (m *Manager) NextSeriesID() (uint64, error) {
	return m.nextID(keySeriesSeq)
}

// ProfileGet loads a profile record, tombstones included.
func (m *Manager) ProfileGet(id uint64) (*hub.Profile, bool, error) {
	profile := new(hub.Profile)
	ok, err := m.KVGet(profileKey(id), profile)
	if err != nil || !ok {
		return nil, false, err
	}
	return profile, true, nil
}

// ProfilePut stores a profile record keyed by its identifier.
func (m *Manager) ProfilePut(profile *hub.Profile) error {
	if profile == nil {
		return fmt.Errorf("state: profile must not be nil")
	}
	return m.KVPut(profileKey(profile.ID), profile)
}

// HandleGet resolves a handle to its profile identifier.
func (m *Manager) HandleGet(handle string) (uint64, bool, error) {
	var id uint64
	ok, err := m.KVGet(handleKey(handle), &id)
	if err != nil || !ok {
		return 0, false, err
	}
	return id, true, nil
}

// HandlePut stores the handle index entry.
func (m *Manager) HandlePut(handle string, id uint64) error {
	return m.KVPut(handleKey(handle), id)
}

// HandleDelete removes the handle index entry.
func (m *Manager) HandleDelete(handle string) error {
	return m.KVDelete(handleKey(handle))
}

// PublicationGet loads a publication record.
func (m *Manager) PublicationGet(profileID, pubID uint64) (*hub.Publication, bool, error) {
	pub := new(hub.Publication)
	ok, err := m.KVGet(publicationKey(profileID, pubID), pub)
	if err != nil || !ok {
		return nil, false, err
	}
	return pub, true, nil
}

// PublicationPut stores a publication record keyed by publisher and index.
func (m *Manager) PublicationPut(pub *hub.Publication) error {
	if pub == nil {
		return fmt.Errorf("state: publication must not be nil")
	}
	return m.KVPut(publicationKey(pub.ProfileID, pub.PubID), pub)
}

// --- receipts.State ---

func receiptSeriesKey(series string) []byte {
	return []byte("receipts/series/" + series)
}

func receiptBalanceKey(series string, holder [20]byte) []byte {
	return []byte(fmt.Sprintf("receipts/balance/%s/%x", series, holder))
}

// ReceiptSeriesGet returns the minted count of a receipt series and whether
// the series exists.
func (m *Manager) ReceiptSeriesGet(series string) (uint64, bool, error) {
	var minted uint64
	ok, err := m.KVGet(receiptSeriesKey(series), &minted)
	if err != nil || !ok {
		return 0, false, err
	}
	return minted, true, nil
}

// ReceiptSeriesPut stores the minted count of a receipt series.
func (m *Manager) ReceiptSeriesPut(series string, minted uint64) error {
	return m.KVPut(receiptSeriesKey(series), minted)
}

// ReceiptBalanceGet returns the holder's receipt balance in the series.
func (m *Manager) ReceiptBalanceGet(series string, holder [20]byte) (uint64, error) {
	var balance uint64
	if _, err := m.KVGet(receiptBalanceKey(series, holder), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// ReceiptBalancePut stores the holder's receipt balance in the series.
func (m *Manager) ReceiptBalancePut(series string, holder [20]byte, balance uint64) error {
	return m.KVPut(receiptBalanceKey(series, holder), balance)
}

// --- feecollect.State ---

func poolKey(profileID, pubID uint64) []byte {
	return []byte(fmt.Sprintf("feecollect/pool/%d/%d", profileID, pubID))
}

func baselineKey(profileID, pubID, collector uint64) []byte {
	return []byte(fmt.Sprintf("feecollect/baseline/%d/%d/%d", profileID, pubID, collector))
}

func claimedKey(profileID, pubID, collector uint64) []byte {
	return []byte(fmt.Sprintf("feecollect/claimed/%d/%d/%d", profileID, pubID, collector))
}

func pubReferrerKey(profileID, pubID, referrer uint64) []byte {
	return []byte(fmt.Sprintf("feecollect/referrer/%d/%d/%d", profileID, pubID, referrer))
}

func creatorLedgerKey(profileID uint64, currency string) []byte {
	return []byte(fmt.Sprintf("feecollect/creator-ledger/%d/%s", profileID, currency))
}

func referrerLedgerKey(profileID uint64, currency string) []byte {
	return []byte(fmt.Sprintf("feecollect/referrer-ledger/%d/%s", profileID, currency))
}

// PoolGet loads a publication's reward pool.
func (m *Manager) PoolGet(profileID, pubID uint64) (*feecollect.Pool, bool, error) {
	pool := new(feecollect.Pool)
	ok, err := m.KVGet(poolKey(profileID, pubID), pool)
	if err != nil || !ok {
		return nil, false, err
	}
	return pool, true, nil
}

// PoolPut stores a publication's reward pool.
func (m *Manager) PoolPut(pool *feecollect.Pool) error {
	if pool == nil {
		return fmt.Errorf("state: pool must not be nil")
	}
	return m.KVPut(poolKey(pool.ProfileID, pool.PubID), pool)
}

// BaselineGet returns a collector's recorded pool-value baseline and whether
// one exists.
func (m *Manager) BaselineGet(profileID, pubID, collector uint64) (*big.Int, bool, error) {
	value := new(big.Int)
	ok, err := m.KVGet(baselineKey(profileID, pubID, collector), value)
	if err != nil || !ok {
		return nil, false, err
	}
	return value, true, nil
}

// BaselinePut stores a collector's pool-value baseline.
func (m *Manager) BaselinePut(profileID, pubID, collector uint64, value *big.Int) error {
	if value == nil {
		return fmt.Errorf("state: baseline must not be nil")
	}
	return m.KVPut(baselineKey(profileID, pubID, collector), value)
}

// ClaimedGet returns the amount a collector has already claimed from a pool.
// Missing entries read as zero.
func (m *Manager) ClaimedGet(profileID, pubID, collector uint64) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(claimedKey(profileID, pubID, collector), value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

// ClaimedPut stores the amount a collector has claimed from a pool.
func (m *Manager) ClaimedPut(profileID, pubID, collector uint64, value *big.Int) error {
	if value == nil {
		return fmt.Errorf("state: claimed amount must not be nil")
	}
	return m.KVPut(claimedKey(profileID, pubID, collector), value)
}

// PubReferrerGet returns the referral total recorded for a referrer on a
// publication. Missing entries read as zero.
func (m *Manager) PubReferrerGet(profileID, pubID, referrer uint64) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(pubReferrerKey(profileID, pubID, referrer), value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

// PubReferrerPut stores the referral total for a referrer on a publication.
func (m *Manager) PubReferrerPut(profileID, pubID, referrer uint64, value *big.Int) error {
	if value == nil {
		return fmt.Errorf("state: referral amount must not be nil")
	}
	return m.KVPut(pubReferrerKey(profileID, pubID, referrer), value)
}

// CreatorLedgerGet loads a profile's aggregate creator-reward ledger in the
// supplied currency.
func (m *Manager) CreatorLedgerGet(profileID uint64, currency string) (*feecollect.RewardLedger, bool, error) {
	ledger := new(feecollect.RewardLedger)
	ok, err := m.KVGet(creatorLedgerKey(profileID, currency), ledger)
	if err != nil || !ok {
		return nil, false, err
	}
	return ledger, true, nil
}

// CreatorLedgerPut stores a profile's aggregate creator-reward ledger.
func (m *Manager) CreatorLedgerPut(profileID uint64, currency string, ledger *feecollect.RewardLedger) error {
	if ledger == nil {
		return fmt.Errorf("state: ledger must not be nil")
	}
	return m.KVPut(creatorLedgerKey(profileID, currency), ledger)
}

// ReferrerLedgerGet loads a profile's aggregate referral-reward ledger in the
// supplied currency.
func (m *Manager) ReferrerLedgerGet(profileID uint64, currency string) (*feecollect.RewardLedger, bool, error) {
	ledger := new(feecollect.RewardLedger)
	ok, err := m.KVGet(referrerLedgerKey(profileID, currency), ledger)
	if err != nil || !ok {
		return nil, false, err
	}
	return ledger, true, nil
}

// ReferrerLedgerPut stores a profile's aggregate referral-reward ledger.
func (m *Manager) ReferrerLedgerPut(profileID uint64, currency string, ledger *feecollect.RewardLedger) error {
	if ledger == nil {
		return fmt.Errorf("state: ledger must not be nil")
	}
	return m.KVPut(referrerLedgerKey(profileID, currency), ledger)
}
