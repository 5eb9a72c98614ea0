// Package modules defines the pluggable extension points invoked by the hub.
// Each role is a fixed method set; the hub stores only a whitelisted address
// per profile or publication and dispatches through these interfaces. Module
// internals stay opaque to the hub.
package modules

import (
	"errors"
	"math/big"
)

// ErrNotBound is returned by the dispatcher when a whitelisted address has no
// registered implementation.
var ErrNotBound = errors.New("modules: address not bound to an implementation")

// Role identifies the capability slot a module address is whitelisted for.
type Role string

const (
	RoleProfileCreator Role = "profile-creator"
	RoleFollow         Role = "follow"
	RoleCollect        Role = "collect"
	RoleReference      Role = "reference"
	RoleFinance        Role = "finance"
)

// FollowModule authorizes follow interactions for a profile and may override
// the follow relationship query.
type FollowModule interface {
	InitializeFollowModule(profileID uint64, data []byte) error
	ProcessFollow(followerProfileID, profileID uint64, data []byte) error
	// IsFollowing reports the module's view of the relationship. The second
	// return value is false when the module does not override the query and
	// the hub should fall back to receipt balances.
	IsFollowing(followerProfileID, profileID uint64) (bool, bool, error)
}

// CollectContext carries the resolved parameters of a collect interaction into
// the collect module.
type CollectContext struct {
	CollectorProfileID uint64
	ReferrerProfileID  uint64
	ProfileID          uint64
	PubID              uint64
	Payer              [20]byte
	Payment            *big.Int
	Data               []byte
}

// CollectModule prices and settles collect interactions for a publication.
type CollectModule interface {
	InitializePublicationCollectModule(profileID, pubID uint64, data []byte) error
	ProcessCollect(ctx CollectContext) error
	// CollectPrice quotes the price of the next collect and the currency
	// symbol it is denominated in. The empty symbol denotes the native asset.
	CollectPrice(profileID, pubID uint64) (*big.Int, string, error)
}

// ReferenceModule authorizes comments and mirrors that point at a publication.
type ReferenceModule interface {
	InitializeReferenceModule(profileID, pubID uint64, data []byte) error
	ProcessComment(commenterProfileID, profileID, pubID uint64, data []byte) error
	ProcessMirror(mirrorerProfileID, profileID, pubID uint64, data []byte) error
}

// PoolFactory is the finance-module role: it clones a fresh, independently
// owned reward pool per publication.
type PoolFactory interface {
	Address() [20]byte
	CreatePool(profileID, pubID uint64, currency string, owner [20]byte) error
}

// WhitelistView exposes the hub's governance whitelists to modules that need
// to validate collaborator addresses during initialization.
type WhitelistView interface {
	IsWhitelisted(role Role, addr [20]byte) (bool, error)
}

// ProfileOwnerView resolves the current owner of a profile token. Reward
// claims pay out to the owner, never to the raw caller.
type ProfileOwnerView interface {
	ProfileOwner(profileID uint64) ([20]byte, bool, error)
}

// Dispatcher maps whitelisted module addresses to their bound implementations.
// Binding happens at node wiring time; the hub only ever holds addresses.
type Dispatcher struct {
	follow    map[[20]byte]FollowModule
	collect   map[[20]byte]CollectModule
	reference map[[20]byte]ReferenceModule
	finance   map[[20]byte]PoolFactory
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		follow:    make(map[[20]byte]FollowModule),
		collect:   make(map[[20]byte]CollectModule),
		reference: make(map[[20]byte]ReferenceModule),
		finance:   make(map[[20]byte]PoolFactory),
	}
}

// BindFollow registers a follow-module implementation at the given address.
func (d *Dispatcher) BindFollow(addr [20]byte, m FollowModule) { d.follow[addr] = m }

// BindCollect registers a collect-module implementation at the given address.
func (d *Dispatcher) BindCollect(addr [20]byte, m CollectModule) { d.collect[addr] = m }

// BindReference registers a reference-module implementation at the given address.
func (d *Dispatcher) BindReference(addr [20]byte, m ReferenceModule) { d.reference[addr] = m }

// BindFinance registers a pool-factory implementation at the given address.
func (d *Dispatcher) BindFinance(addr [20]byte, m PoolFactory) { d.finance[addr] = m }

// Follow resolves the follow module bound to addr.
func (d *Dispatcher) Follow(addr [20]byte) (FollowModule, error) {
	if m, ok := d.follow[addr]; ok {
		return m, nil
	}
	return nil, ErrNotBound
}

// Collect resolves the collect module bound to addr.
func (d *Dispatcher) Collect(addr [20]byte) (CollectModule, error) {
	if m, ok := d.collect[addr]; ok {
		return m, nil
	}
	return nil, ErrNotBound
}

// Reference resolves the reference module bound to addr.
func (d *Dispatcher) Reference(addr [20]byte) (ReferenceModule, error) {
	if m, ok := d.reference[addr]; ok {
		return m, nil
	}
	return nil, ErrNotBound
}

// Finance resolves the pool factory bound to addr.
func (d *Dispatcher) Finance(addr [20]byte) (PoolFactory, error) {
	if m, ok := d.finance[addr]; ok {
		return m, nil
	}
	return nil, ErrNotBound
}
