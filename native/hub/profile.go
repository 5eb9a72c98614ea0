package hub

import (
	"fmt"
	"strings"

	"sociograph/native/modules"
)

func validateHandle(handle string) error {
	if handle == "" {
		return fmt.Errorf("%w: empty", ErrHandleInvalid)
	}
	if len(handle) > MaxHandleBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrHandleInvalid, len(handle), MaxHandleBytes)
	}
	return nil
}

// CreateProfile registers a new profile. The handle is trusted as given once
// uniqueness is confirmed; suffixing and character rules are the creation
// proxy's responsibility. The identity token is issued to the owner and a
// deterministic smart account is bound to the new profile id for receipt
// custody.
func (e *Engine) CreateProfile(caller [20]byte, input CreateProfileInput) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireMaxState(StateUnpaused); err != nil {
		return 0, err
	}
	gated, err := e.state.CreatorGateGet()
	if err != nil {
		return 0, err
	}
	if gated {
		allowed, err := e.state.WhitelistGet(modules.RoleProfileCreator, caller)
		if err != nil {
			return 0, err
		}
		if !allowed {
			return 0, ErrProfileCreatorNotWhitelisted
		}
	}
	if err := validateHandle(input.Handle); err != nil {
		return 0, err
	}
	if len(input.ImageURI) > MaxImageURIBytes {
		return 0, ErrImageURITooLong
	}
	if _, taken, err := e.state.HandleGet(input.Handle); err != nil {
		return 0, err
	} else if taken {
		return 0, ErrHandleTaken
	}
	if !IsZeroAddress(input.FollowModule) {
		allowed, err := e.state.WhitelistGet(modules.RoleFollow, input.FollowModule)
		if err != nil {
			return 0, err
		}
		if !allowed {
			return 0, ErrFollowModuleNotWhitelisted
		}
	}

	id, err := e.state.NextProfileID()
	if err != nil {
		return 0, err
	}
	profile := &Profile{
		ID:           id,
		Handle:       input.Handle,
		Owner:        input.Owner,
		FollowModule: input.FollowModule,
		FollowNFTURI: strings.TrimSpace(input.FollowNFTURI),
		ImageURI:     input.ImageURI,
		CreatedAt:    uint64(e.now()),
	}
	if !IsZeroAddress(input.FollowModule) {
		module, err := e.dispatch.Follow(input.FollowModule)
		if err != nil {
			return 0, err
		}
		if err := module.InitializeFollowModule(id, input.FollowModuleData); err != nil {
			return 0, err
		}
	}
	if err := e.state.ProfilePut(profile); err != nil {
		return 0, err
	}
	if err := e.state.HandlePut(input.Handle, id); err != nil {
		return 0, err
	}
	e.emit(profileCreatedEvent(id, input.Owner, input.Handle, e.now()))
	return id, nil
}

// BurnProfile burns the identity token. The handle index entry is cleared so
// the handle can be reused, but the profile struct remains as a tombstone.
func (e *Engine) BurnProfile(caller [20]byte, profileID uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireMaxState(StatePublishingPaused); err != nil {
		return err
	}
	profile, ok, err := e.state.ProfileGet(profileID)
	if err != nil {
		return err
	}
	if !ok || profile == nil || profile.Burned {
		return ErrProfileNotFound
	}
	if caller != profile.Owner {
		return ErrNotOwnerOrDispatcher
	}
	profile.Burned = true
	if err := e.state.ProfilePut(profile); err != nil {
		return err
	}
	if mapped, ok, err := e.state.HandleGet(profile.Handle); err != nil {
		return err
	} else if ok && mapped == profileID {
		if err := e.state.HandleDelete(profile.Handle); err != nil {
			return err
		}
	}
	e.emit(profileBurnedEvent(profileID, profile.Handle, e.now()))
	return nil
}

// SetDispatcher delegates profile actions to another address. The zero
// address clears the delegation.
func (e *Engine) SetDispatcher(caller [20]byte, profileID uint64, dispatcher [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireMaxState(StatePublishingPaused); err != nil {
		return err
	}
	profile, ok, err := e.state.ProfileGet(profileID)
	if err != nil {
		return err
	}
	if !ok || profile == nil || profile.Burned {
		return ErrProfileNotFound
	}
	if caller != profile.Owner {
		return ErrNotOwnerOrDispatcher
	}
	profile.Dispatcher = dispatcher
	if err := e.state.ProfilePut(profile); err != nil {
		return err
	}
	e.emit(profileUpdatedEvent(profileID, "dispatcher", hexAddr(dispatcher), e.now()))
	return nil
}

// SetFollowModule replaces the profile's follow module. The zero address
// removes it; non-zero addresses must be whitelisted and are initialized.
func (e *Engine) SetFollowModule(caller [20]byte, profileID uint64, followModule [20]byte, data []byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireMaxState(StatePublishingPaused); err != nil {
		return err
	}
	profile, err := e.requireOwnerOrDispatcher(caller, profileID)
	if err != nil {
		return err
	}
	if !IsZeroAddress(followModule) {
		allowed, err := e.state.WhitelistGet(modules.RoleFollow, followModule)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrFollowModuleNotWhitelisted
		}
		module, err := e.dispatch.Follow(followModule)
		if err != nil {
			return err
		}
		if err := module.InitializeFollowModule(profileID, data); err != nil {
			return err
		}
	}
	profile.FollowModule = followModule
	if err := e.state.ProfilePut(profile); err != nil {
		return err
	}
	e.emit(profileUpdatedEvent(profileID, "followModule", hexAddr(followModule), e.now()))
	return nil
}

// SetProfileImageURI updates the profile image.
func (e *Engine) SetProfileImageURI(caller [20]byte, profileID uint64, imageURI string) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireMaxState(StatePublishingPaused); err != nil {
		return err
	}
	if len(imageURI) > MaxImageURIBytes {
		return ErrImageURITooLong
	}
	profile, err := e.requireOwnerOrDispatcher(caller, profileID)
	if err != nil {
		return err
	}
	profile.ImageURI = imageURI
	if err := e.state.ProfilePut(profile); err != nil {
		return err
	}
	e.emit(profileUpdatedEvent(profileID, "imageURI", imageURI, e.now()))
	return nil
}

// SetFollowNFTURI updates the metadata URI served for the profile's follow
// receipts.
func (e *Engine) SetFollowNFTURI(caller [20]byte, profileID uint64, uri string) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireMaxState(StatePublishingPaused); err != nil {
		return err
	}
	profile, err := e.requireOwnerOrDispatcher(caller, profileID)
	if err != nil {
		return err
	}
	profile.FollowNFTURI = uri
	if err := e.state.ProfilePut(profile); err != nil {
		return err
	}
	e.emit(profileUpdatedEvent(profileID, "followNFTURI", uri, e.now()))
	return nil
}
