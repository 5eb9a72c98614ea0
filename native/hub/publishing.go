package hub

import (
	"fmt"

	"sociograph/native/modules"
	"sociograph/native/receipts"
)

// pubTypeOf derives the publication type from stored fields.
func pubTypeOf(profile *Profile, pub *Publication) PubType {
	if pub == nil || profile == nil || pub.PubID == 0 || pub.PubID > profile.PubCount {
		return PubNonexistent
	}
	if IsZeroAddress(pub.CollectModule) {
		return PubMirror
	}
	if pub.HasPointer() {
		return PubComment
	}
	return PubPost
}

// loadPublication returns the publication and its derived type, or
// ErrPublicationNotFound.
func (e *Engine) loadPublication(profileID, pubID uint64) (*Publication, PubType, error) {
	profile, ok, err := e.state.ProfileGet(profileID)
	if err != nil {
		return nil, PubNonexistent, err
	}
	if !ok || profile == nil {
		return nil, PubNonexistent, ErrPublicationNotFound
	}
	pub, ok, err := e.state.PublicationGet(profileID, pubID)
	if err != nil {
		return nil, PubNonexistent, err
	}
	if !ok || pub == nil {
		return nil, PubNonexistent, ErrPublicationNotFound
	}
	t := pubTypeOf(profile, pub)
	if t == PubNonexistent {
		return nil, PubNonexistent, ErrPublicationNotFound
	}
	return pub, t, nil
}

// resolvePointed follows a mirror's pointer once to reach the authoritative
// non-mirror publication. Publication creation guarantees mirrors never point
// at other mirrors, so a single hop suffices.
func (e *Engine) resolvePointed(profileID, pubID uint64) (*Publication, PubType, error) {
	pub, t, err := e.loadPublication(profileID, pubID)
	if err != nil {
		return nil, PubNonexistent, err
	}
	if t != PubMirror {
		return pub, t, nil
	}
	root, rootType, err := e.loadPublication(pub.ProfileIDPointed, pub.PubIDPointed)
	if err != nil {
		return nil, PubNonexistent, err
	}
	if rootType == PubMirror {
		return nil, PubNonexistent, fmt.Errorf("%w: mirror points at mirror", ErrPublicationNotFound)
	}
	return root, rootType, nil
}

// allocatePubID reserves the next publication id for the profile. Ids are
// 1-based and gapless across posts, comments and mirrors.
func allocatePubID(profile *Profile) uint64 {
	return profile.PubCount + 1
}

// Post creates a post, or a comment when the input carries a pointed target.
// The collect module must be whitelisted; its initialization clones the
// publication's reward pool. Content receipts are bound via a fresh echo
// series.
func (e *Engine) Post(caller [20]byte, input PostInput) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireMaxState(StateUnpaused); err != nil {
		return 0, err
	}
	profile, err := e.requireOwnerOrDispatcher(caller, input.ProfileID)
	if err != nil {
		return 0, err
	}
	allowed, err := e.state.WhitelistGet(modules.RoleCollect, input.CollectModule)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, ErrCollectModuleNotWhitelisted
	}
	if !IsZeroAddress(input.ReferenceModule) {
		allowed, err := e.state.WhitelistGet(modules.RoleReference, input.ReferenceModule)
		if err != nil {
			return 0, err
		}
		if !allowed {
			return 0, ErrReferenceModuleNotWhitelisted
		}
	}

	pointedProfile, pointedPub := uint64(0), uint64(0)
	var pointedRef [20]byte
	if input.ProfileIDPointed != 0 || input.PubIDPointed != 0 {
		// Comment: resolve the target through mirror indirection so the
		// stored pointer always names a post or comment.
		target, _, err := e.resolvePointed(input.ProfileIDPointed, input.PubIDPointed)
		if err != nil {
			return 0, err
		}
		pointedProfile, pointedPub = target.ProfileID, target.PubID
		pointedRef = target.ReferenceModule
	}

	pubID := allocatePubID(profile)
	pub := &Publication{
		ProfileID:        input.ProfileID,
		PubID:            pubID,
		ContentURI:       input.ContentURI,
		CollectModule:    input.CollectModule,
		ReferenceModule:  input.ReferenceModule,
		ProfileIDPointed: pointedProfile,
		PubIDPointed:     pointedPub,
	}

	// The commented publication's reference module authorizes the comment
	// before any state is written.
	if pointedPub != 0 && !IsZeroAddress(pointedRef) {
		module, err := e.dispatch.Reference(pointedRef)
		if err != nil {
			return 0, err
		}
		if err := module.ProcessComment(input.ProfileID, pointedProfile, pointedPub, input.ReferenceModuleData); err != nil {
			return 0, err
		}
	}

	collectModule, err := e.dispatch.Collect(input.CollectModule)
	if err != nil {
		return 0, err
	}
	if err := collectModule.InitializePublicationCollectModule(input.ProfileID, pubID, input.CollectModuleData); err != nil {
		return 0, err
	}
	if !IsZeroAddress(input.ReferenceModule) {
		module, err := e.dispatch.Reference(input.ReferenceModule)
		if err != nil {
			return 0, err
		}
		if err := module.InitializeReferenceModule(input.ProfileID, pubID, input.ReferenceModuleData); err != nil {
			return 0, err
		}
	}

	// Content receipt binding: a fresh echo series keyed by the publication.
	echoSeries := receipts.SeriesKey(input.ProfileID, pubID)
	if err := e.echoReceipts.Create(echoSeries); err != nil {
		return 0, err
	}
	seriesID, err := e.state.NextSeriesID()
	if err != nil {
		return 0, err
	}
	pub.EchoID = seriesID

	if err := e.state.PublicationPut(pub); err != nil {
		return 0, err
	}
	profile.PubCount = pubID
	if err := e.state.ProfilePut(profile); err != nil {
		return 0, err
	}
	t := PubPost
	if pointedPub != 0 {
		t = PubComment
	}
	e.emit(postCreatedEvent(input.ProfileID, pubID, t, input.ContentURI, pointedProfile, pointedPub, e.now()))
	return pubID, nil
}

// bindFirstMirror records the first mirror receipt on a publication. The
// binding is write-once; later mirrors leave it untouched.
func bindFirstMirror(pub *Publication, receiptID uint64) bool {
	if pub.MirrorID != 0 {
		return false
	}
	pub.MirrorID = receiptID
	return true
}

// Mirror republishes an existing post or comment. The pointer resolves
// transitively to the non-mirror root, whose reference module authorizes the
// mirror.
func (e *Engine) Mirror(caller [20]byte, input MirrorInput) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireMaxState(StateUnpaused); err != nil {
		return 0, err
	}
	profile, err := e.requireOwnerOrDispatcher(caller, input.ProfileID)
	if err != nil {
		return 0, err
	}
	direct, directType, err := e.loadPublication(input.ProfileIDPointed, input.PubIDPointed)
	if err != nil {
		return 0, err
	}
	root := direct
	if directType == PubMirror {
		root, _, err = e.resolvePointed(input.ProfileIDPointed, input.PubIDPointed)
		if err != nil {
			return 0, err
		}
	}

	if !IsZeroAddress(root.ReferenceModule) {
		module, err := e.dispatch.Reference(root.ReferenceModule)
		if err != nil {
			return 0, err
		}
		if err := module.ProcessMirror(input.ProfileID, root.ProfileID, root.PubID, input.ReferenceModuleData); err != nil {
			return 0, err
		}
	}

	pubID := allocatePubID(profile)
	mirrorSeries := receipts.SeriesKey(root.ProfileID, root.PubID)
	exists, err := e.mirrorReceipts.Exists(mirrorSeries)
	if err != nil {
		return 0, err
	}
	if !exists {
		if err := e.mirrorReceipts.Create(mirrorSeries); err != nil {
			return 0, err
		}
	}
	receiptID, err := e.mirrorReceipts.Mint(mirrorSeries, profileAccount(input.ProfileID))
	if err != nil {
		return 0, err
	}

	pub := &Publication{
		ProfileID:        input.ProfileID,
		PubID:            pubID,
		ProfileIDPointed: root.ProfileID,
		PubIDPointed:     root.PubID,
		MirrorID:         receiptID,
	}
	if err := e.state.PublicationPut(pub); err != nil {
		return 0, err
	}
	profile.PubCount = pubID
	if err := e.state.ProfilePut(profile); err != nil {
		return 0, err
	}
	if bindFirstMirror(root, receiptID) {
		if err := e.state.PublicationPut(root); err != nil {
			return 0, err
		}
	}
	if direct.ProfileID != root.ProfileID || direct.PubID != root.PubID {
		if bindFirstMirror(direct, receiptID) {
			if err := e.state.PublicationPut(direct); err != nil {
				return 0, err
			}
		}
	}
	e.emit(mirrorCreatedEvent(input.ProfileID, pubID, root.ProfileID, root.PubID, receiptID, e.now()))
	return pubID, nil
}
