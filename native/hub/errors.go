package hub

import "errors"

var (
	// ErrNilState indicates the engine was used before SetState.
	ErrNilState = errors.New("hub: state not configured")
	// ErrProtocolPaused is returned when the protocol state is below the
	// minimum required by the entrypoint.
	ErrProtocolPaused = errors.New("hub: protocol paused")
	// ErrHandleTaken is returned when the handle index already maps the
	// requested handle to a live profile.
	ErrHandleTaken = errors.New("hub: handle already taken")
	// ErrHandleInvalid covers empty or oversized handles. Character and
	// suffix rules belong to the creation proxy, not the hub.
	ErrHandleInvalid = errors.New("hub: invalid handle")
	// ErrImageURITooLong bounds profile image URIs.
	ErrImageURITooLong = errors.New("hub: image URI exceeds maximum length")
	// ErrProfileCreatorNotWhitelisted gates profile creation when the
	// creator gate is enabled.
	ErrProfileCreatorNotWhitelisted = errors.New("hub: profile creator not whitelisted")
	// ErrFollowModuleNotWhitelisted rejects unlisted follow modules.
	ErrFollowModuleNotWhitelisted = errors.New("hub: follow module not whitelisted")
	// ErrCollectModuleNotWhitelisted rejects unlisted collect modules.
	ErrCollectModuleNotWhitelisted = errors.New("hub: collect module not whitelisted")
	// ErrReferenceModuleNotWhitelisted rejects unlisted reference modules.
	ErrReferenceModuleNotWhitelisted = errors.New("hub: reference module not whitelisted")
	// ErrNotGovernance rejects configuration writes from other callers.
	ErrNotGovernance = errors.New("hub: caller is not governance")
	// ErrNotGovernanceOrEmergencyAdmin rejects state transitions from
	// unauthorized callers.
	ErrNotGovernanceOrEmergencyAdmin = errors.New("hub: caller is not governance or emergency admin")
	// ErrEmergencyAdminCannotLower restricts the emergency admin to
	// transitions toward more-paused states.
	ErrEmergencyAdminCannotLower = errors.New("hub: emergency admin may only pause further")
	// ErrNotOwnerOrDispatcher rejects profile actions from callers that
	// neither own nor dispatch for the profile.
	ErrNotOwnerOrDispatcher = errors.New("hub: caller is not profile owner or dispatcher")
	// ErrProfileNotFound indicates a missing or burned profile.
	ErrProfileNotFound = errors.New("hub: profile not found")
	// ErrPublicationNotFound indicates the (profileId, pubId) pair does not
	// resolve to a publication.
	ErrPublicationNotFound = errors.New("hub: publication not found")
	// ErrTokenDoesNotExist indicates the handle index no longer points at
	// the profile (burned or renamed since the caller resolved it).
	ErrTokenDoesNotExist = errors.New("hub: token does not exist")
	// ErrInvalidPrice indicates a native payment that does not match the
	// quoted collect price exactly.
	ErrInvalidPrice = errors.New("hub: payment does not match collect price")
	// ErrNotCollectable indicates the resolved publication carries no
	// collect module.
	ErrNotCollectable = errors.New("hub: publication is not collectable")
	// ErrAlreadyBound guards write-once fields (follow series, first-mirror
	// binding).
	ErrAlreadyBound = errors.New("hub: field already bound")
)
