package hub

import (
	"sociograph/native/modules"
	"sociograph/native/receipts"
)

// GetProfile returns the stored profile, including tombstones of burned
// profiles.
func (e *Engine) GetProfile(profileID uint64) (*Profile, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	profile, ok, err := e.state.ProfileGet(profileID)
	if err != nil {
		return nil, err
	}
	if !ok || profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile.Clone(), nil
}

// GetProfileByHandle resolves a live profile through the handle index.
func (e *Engine) GetProfileByHandle(handle string) (*Profile, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	id, ok, err := e.state.HandleGet(handle)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProfileNotFound
	}
	return e.GetProfile(id)
}

// GetPublication returns the stored publication.
func (e *Engine) GetPublication(profileID, pubID uint64) (*Publication, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pub, _, err := e.loadPublication(profileID, pubID)
	if err != nil {
		return nil, err
	}
	return pub.Clone(), nil
}

// GetPubType derives the publication type. Unknown pairs report
// PubNonexistent rather than an error.
func (e *Engine) GetPubType(profileID, pubID uint64) (PubType, error) {
	if e == nil || e.state == nil {
		return PubNonexistent, ErrNilState
	}
	profile, ok, err := e.state.ProfileGet(profileID)
	if err != nil {
		return PubNonexistent, err
	}
	if !ok || profile == nil {
		return PubNonexistent, nil
	}
	pub, ok, err := e.state.PublicationGet(profileID, pubID)
	if err != nil {
		return PubNonexistent, err
	}
	if !ok {
		return PubNonexistent, nil
	}
	return pubTypeOf(profile, pub), nil
}

// GetPointedIfMirror resolves mirror indirection, returning the publication
// itself when it is not a mirror.
func (e *Engine) GetPointedIfMirror(profileID, pubID uint64) (*Publication, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pub, _, err := e.resolvePointed(profileID, pubID)
	if err != nil {
		return nil, err
	}
	return pub.Clone(), nil
}

// GetProtocolState returns the current pause level.
func (e *Engine) GetProtocolState() (ProtocolState, error) {
	if e == nil || e.state == nil {
		return StateUnpaused, ErrNilState
	}
	return e.state.ProtocolStateGet()
}

// GetGovernance returns the governance address.
func (e *Engine) GetGovernance() ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, ErrNilState
	}
	return e.state.GovernanceGet()
}

// GetEmergencyAdmin returns the emergency admin address.
func (e *Engine) GetEmergencyAdmin() ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, ErrNilState
	}
	return e.state.EmergencyAdminGet()
}

// FollowReceiptBalance reports how many follow receipts for profileID the
// holder custodies.
func (e *Engine) FollowReceiptBalance(profileID uint64, holder [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	return e.followReceipts.BalanceOf(receipts.SeriesKey(profileID), holder)
}

// IsFollowing reports whether follower follows followed. A configured follow
// module may override the answer; otherwise the query falls back to the
// follow-receipt balance on the follower's smart account, or to direct
// ownership equivalence (an owner trivially follows their own profiles).
func (e *Engine) IsFollowing(followerProfileID, followedProfileID uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	follower, ok, err := e.state.ProfileGet(followerProfileID)
	if err != nil {
		return false, err
	}
	if !ok || follower == nil || follower.Burned {
		return false, ErrProfileNotFound
	}
	followed, ok, err := e.state.ProfileGet(followedProfileID)
	if err != nil {
		return false, err
	}
	if !ok || followed == nil || followed.Burned {
		return false, ErrProfileNotFound
	}
	if !IsZeroAddress(followed.FollowModule) {
		if module, err := e.dispatch.Follow(followed.FollowModule); err == nil {
			decided, override, err := module.IsFollowing(followerProfileID, followedProfileID)
			if err != nil {
				return false, err
			}
			if override {
				return decided, nil
			}
		}
	}
	if follower.Owner == followed.Owner {
		return true, nil
	}
	balance, err := e.followReceipts.BalanceOf(receipts.SeriesKey(followedProfileID), profileAccount(followerProfileID))
	if err != nil {
		return false, err
	}
	return balance > 0, nil
}

// IsModuleWhitelisted exposes whitelist membership for a role.
func (e *Engine) IsModuleWhitelisted(role modules.Role, addr [20]byte) (bool, error) {
	return e.IsWhitelisted(role, addr)
}
