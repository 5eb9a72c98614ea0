package hub

import (
	"math/big"

	"sociograph/crypto"
	"sociograph/native/modules"
	"sociograph/native/receipts"
)

// profileAccount resolves the deterministic smart account custodying a
// profile's interaction receipts.
func profileAccount(profileID uint64) [20]byte {
	return crypto.ProfileAccount(profileID)
}

// Follow mints a follow receipt for the target profile to the follower's
// smart account. The target's follow-NFT series is deployed lazily on the
// first follow; a configured follow module authorizes the interaction and a
// rejection aborts the whole operation.
func (e *Engine) Follow(caller [20]byte, followerProfileID, profileID uint64, data []byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireMaxState(StatePublishingPaused); err != nil {
		return 0, err
	}
	if _, err := e.requireOwnerOrDispatcher(caller, followerProfileID); err != nil {
		return 0, err
	}
	target, ok, err := e.state.ProfileGet(profileID)
	if err != nil {
		return 0, err
	}
	if !ok || target == nil {
		return 0, ErrProfileNotFound
	}
	// Re-validate the handle index still points at this profile id. A
	// burned or renamed profile leaves a stale struct behind; following it
	// must fail.
	mapped, ok, err := e.state.HandleGet(target.Handle)
	if err != nil {
		return 0, err
	}
	if !ok || mapped != profileID {
		return 0, ErrTokenDoesNotExist
	}

	// Authorization runs before the mint: there is no transactional
	// rollback here, so a rejecting module must be consulted first.
	if !IsZeroAddress(target.FollowModule) {
		module, err := e.dispatch.Follow(target.FollowModule)
		if err != nil {
			return 0, err
		}
		if err := module.ProcessFollow(followerProfileID, profileID, data); err != nil {
			return 0, err
		}
	}

	followSeries := receipts.SeriesKey(profileID)
	if target.FollowNFT == 0 {
		seriesID, err := e.state.NextSeriesID()
		if err != nil {
			return 0, err
		}
		if err := bindFollowSeries(target, seriesID); err != nil {
			return 0, err
		}
		if err := e.followReceipts.Create(followSeries); err != nil {
			return 0, err
		}
		if err := e.state.ProfilePut(target); err != nil {
			return 0, err
		}
	}
	receiptID, err := e.followReceipts.Mint(followSeries, profileAccount(followerProfileID))
	if err != nil {
		return 0, err
	}
	e.emit(followedEvent(followerProfileID, profileID, receiptID, e.now()))
	return receiptID, nil
}

// bindFollowSeries records the lazily deployed follow-receipt series on the
// profile. The binding is write-once by explicit guard.
func bindFollowSeries(profile *Profile, seriesID uint64) error {
	if profile.FollowNFT != 0 {
		return ErrAlreadyBound
	}
	profile.FollowNFT = seriesID
	return nil
}

// Collect purchases access to a publication. Mirror indirection resolves to
// the root post or comment, whose collect module quotes the price and settles
// the payment; the mirroring profile becomes the referrer. The price-tagged
// event is emitted before module dispatch so indexers observe the quote even
// when module processing is complex.
func (e *Engine) Collect(caller [20]byte, collectorProfileID, profileID, pubID uint64, payment *big.Int, data []byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireMaxState(StatePublishingPaused); err != nil {
		return 0, err
	}
	collector, err := e.requireOwnerOrDispatcher(caller, collectorProfileID)
	if err != nil {
		return 0, err
	}
	root, rootType, err := e.resolvePointed(profileID, pubID)
	if err != nil {
		return 0, err
	}
	if rootType == PubMirror || IsZeroAddress(root.CollectModule) {
		return 0, ErrNotCollectable
	}
	referrerProfileID := uint64(0)
	if root.ProfileID != profileID || root.PubID != pubID {
		referrerProfileID = profileID
	}

	module, err := e.dispatch.Collect(root.CollectModule)
	if err != nil {
		return 0, err
	}
	price, currency, err := module.CollectPrice(root.ProfileID, root.PubID)
	if err != nil {
		return 0, err
	}
	e.emit(collectPricedEvent(collectorProfileID, root.ProfileID, root.PubID, price.String(), currency, e.now()))

	// Native payments must match the quote exactly; token-denominated
	// collects let the module pull funds itself.
	if currency == "" {
		if payment == nil || payment.Cmp(price) != 0 {
			return 0, ErrInvalidPrice
		}
	}
	if err := module.ProcessCollect(modules.CollectContext{
		CollectorProfileID: collectorProfileID,
		ReferrerProfileID:  referrerProfileID,
		ProfileID:          root.ProfileID,
		PubID:              root.PubID,
		Payer:              collector.Owner,
		Payment:            payment,
		Data:               data,
	}); err != nil {
		return 0, err
	}

	echoSeries := receipts.SeriesKey(root.ProfileID, root.PubID)
	receiptID, err := e.echoReceipts.Mint(echoSeries, profileAccount(collectorProfileID))
	if err != nil {
		return 0, err
	}
	e.emit(collectedEvent(collectorProfileID, root.ProfileID, root.PubID, receiptID, price.String(), e.now()))
	return receiptID, nil
}
