package hub

import (
	"sync"
	"time"

	"sociograph/core/events"
	"sociograph/core/types"
	"sociograph/native/modules"
	"sociograph/native/receipts"
)

// State is the persistence surface the hub requires. The registry owns the
// profile and publication maps exclusively; nothing else writes them.
type State interface {
	ProtocolStateGet() (ProtocolState, error)
	ProtocolStatePut(ProtocolState) error
	GovernanceGet() ([20]byte, error)
	GovernancePut([20]byte) error
	EmergencyAdminGet() ([20]byte, error)
	EmergencyAdminPut([20]byte) error
	CreatorGateGet() (bool, error)
	CreatorGatePut(bool) error
	WhitelistGet(role modules.Role, addr [20]byte) (bool, error)
	WhitelistPut(role modules.Role, addr [20]byte, allowed bool) error

	NextProfileID() (uint64, error)
	ProfileGet(id uint64) (*Profile, bool, error)
	ProfilePut(*Profile) error
	HandleGet(handle string) (uint64, bool, error)
	HandlePut(handle string, id uint64) error
	HandleDelete(handle string) error

	PublicationGet(profileID, pubID uint64) (*Publication, bool, error)
	PublicationPut(*Publication) error

	// NextSeriesID allocates a unique id for lazily deployed receipt
	// series (follow NFTs).
	NextSeriesID() (uint64, error)
}

var (
	_ modules.WhitelistView    = (*Engine)(nil)
	_ modules.ProfileOwnerView = (*Engine)(nil)
)

// Engine is the registry/hub: it owns canonical entity storage, the protocol
// state machine, governance-gated configuration, and the top-level
// transaction entrypoints. All mutating operations are serialized behind a
// single mutex; cross-module calls happen inside that critical section and a
// failure aborts the whole operation.
type Engine struct {
	mu       sync.Mutex
	state    State
	emitter  events.Emitter
	nowFn    func() int64
	dispatch *modules.Dispatcher

	followReceipts *receipts.Ledger
	echoReceipts   *receipts.Ledger
	mirrorReceipts *receipts.Ledger
}

// NewEngine constructs a hub engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
		dispatch: modules.NewDispatcher(),
	}
}

// SetState configures the state backend used by the engine. The same backend
// feeds the three receipt ledgers.
func (e *Engine) SetState(state State, receiptState receipts.State) {
	e.state = state
	e.followReceipts = receipts.NewLedger("follow", receiptState)
	e.echoReceipts = receipts.NewLedger("echo", receiptState)
	e.mirrorReceipts = receipts.NewLedger("mirror", receiptState)
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetModuleDispatcher configures the module dispatcher used to resolve bound
// module implementations. Passing nil resets to an empty dispatcher.
func (e *Engine) SetModuleDispatcher(d *modules.Dispatcher) {
	if d == nil {
		d = modules.NewDispatcher()
	}
	e.dispatch = d
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// Initialize seeds governance configuration on a fresh state. Re-running on
// an initialized state is a no-op for already-set fields.
func (e *Engine) Initialize(governance [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	current, err := e.state.GovernanceGet()
	if err != nil {
		return err
	}
	if IsZeroAddress(current) {
		if err := e.state.GovernancePut(governance); err != nil {
			return err
		}
		e.emit(governanceUpdatedEvent("governance", governance, e.now()))
	}
	return nil
}

// requireMaxState fails when the current protocol state exceeds the supplied
// threshold for the operation.
func (e *Engine) requireMaxState(max ProtocolState) error {
	current, err := e.state.ProtocolStateGet()
	if err != nil {
		return err
	}
	if current > max {
		return ErrProtocolPaused
	}
	return nil
}

func (e *Engine) requireGovernance(caller [20]byte) error {
	gov, err := e.state.GovernanceGet()
	if err != nil {
		return err
	}
	if IsZeroAddress(gov) || caller != gov {
		return ErrNotGovernance
	}
	return nil
}

// requireOwnerOrDispatcher loads the profile and verifies the caller may act
// for it. Burned profiles are not actionable.
func (e *Engine) requireOwnerOrDispatcher(caller [20]byte, profileID uint64) (*Profile, error) {
	profile, ok, err := e.state.ProfileGet(profileID)
	if err != nil {
		return nil, err
	}
	if !ok || profile == nil || profile.Burned {
		return nil, ErrProfileNotFound
	}
	if caller != profile.Owner && (IsZeroAddress(profile.Dispatcher) || caller != profile.Dispatcher) {
		return nil, ErrNotOwnerOrDispatcher
	}
	return profile, nil
}

// --- Governance operations (unaffected by pauses) ---

// SetGovernance hands protocol governance to a new address.
func (e *Engine) SetGovernance(caller, next [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireGovernance(caller); err != nil {
		return err
	}
	if err := e.state.GovernancePut(next); err != nil {
		return err
	}
	e.emit(governanceUpdatedEvent("governance", next, e.now()))
	return nil
}

// SetEmergencyAdmin designates the address allowed to escalate pauses.
func (e *Engine) SetEmergencyAdmin(caller, admin [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireGovernance(caller); err != nil {
		return err
	}
	if err := e.state.EmergencyAdminPut(admin); err != nil {
		return err
	}
	e.emit(governanceUpdatedEvent("emergencyAdmin", admin, e.now()))
	return nil
}

// SetProtocolState transitions the protocol state machine. Governance may
// perform any transition; the emergency admin may only move toward
// more-paused states and never back to unpaused.
func (e *Engine) SetProtocolState(caller [20]byte, next ProtocolState) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	current, err := e.state.ProtocolStateGet()
	if err != nil {
		return err
	}
	gov, err := e.state.GovernanceGet()
	if err != nil {
		return err
	}
	if caller != gov || IsZeroAddress(gov) {
		admin, err := e.state.EmergencyAdminGet()
		if err != nil {
			return err
		}
		if IsZeroAddress(admin) || caller != admin {
			return ErrNotGovernanceOrEmergencyAdmin
		}
		if next <= current || next == StateUnpaused {
			return ErrEmergencyAdminCannotLower
		}
	}
	if err := e.state.ProtocolStatePut(next); err != nil {
		return err
	}
	e.emit(stateChangedEvent(current, next, caller, e.now()))
	return nil
}

// SetProfileCreatorGate toggles whitelist enforcement for profile creation.
func (e *Engine) SetProfileCreatorGate(caller [20]byte, enabled bool) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireGovernance(caller); err != nil {
		return err
	}
	if err := e.state.CreatorGatePut(enabled); err != nil {
		return err
	}
	e.emit(creatorGateUpdatedEvent(enabled, e.now()))
	return nil
}

// Whitelist flips the whitelist entry for a module role.
func (e *Engine) Whitelist(caller [20]byte, role modules.Role, addr [20]byte, allowed bool) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireGovernance(caller); err != nil {
		return err
	}
	if err := e.state.WhitelistPut(role, addr, allowed); err != nil {
		return err
	}
	e.emit(whitelistUpdatedEvent(string(role), addr, allowed, e.now()))
	return nil
}

// IsWhitelisted implements modules.WhitelistView so module implementations
// can validate collaborator addresses during initialization.
func (e *Engine) IsWhitelisted(role modules.Role, addr [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	return e.state.WhitelistGet(role, addr)
}

// ProfileOwner implements modules.ProfileOwnerView. Burned profiles have no
// owner.
func (e *Engine) ProfileOwner(profileID uint64) ([20]byte, bool, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, false, ErrNilState
	}
	profile, ok, err := e.state.ProfileGet(profileID)
	if err != nil || !ok || profile == nil || profile.Burned {
		return [20]byte{}, false, err
	}
	return profile.Owner, true, nil
}
