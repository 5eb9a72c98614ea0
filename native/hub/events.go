package hub

import (
	"encoding/hex"
	"strconv"

	"sociograph/core/events"
	"sociograph/core/types"
)

const (
	// EventTypeProfileCreated is emitted when a profile is registered.
	EventTypeProfileCreated = "hub.profile.created"
	// EventTypeProfileBurned is emitted when a profile token is burned.
	EventTypeProfileBurned = "hub.profile.burned"
	// EventTypeProfileUpdated is emitted for dispatcher, follow-module and
	// URI changes.
	EventTypeProfileUpdated = "hub.profile.updated"
	// EventTypePostCreated is emitted for posts and comments.
	EventTypePostCreated = "hub.publication.created"
	// EventTypeMirrorCreated is emitted when a mirror is recorded.
	EventTypeMirrorCreated = "hub.mirror.created"
	// EventTypeFollowed is emitted when a follow receipt is minted.
	EventTypeFollowed = "hub.followed"
	// EventTypeCollectPriced is emitted with the quoted price before the
	// collect module runs, so indexers see the price even if module
	// processing is complex.
	EventTypeCollectPriced = "hub.collect.priced"
	// EventTypeCollected is emitted after a successful collect.
	EventTypeCollected = "hub.collected"
	// EventTypeStateChanged is emitted on protocol state transitions.
	EventTypeStateChanged = "hub.state.changed"
	// EventTypeGovernanceUpdated is emitted for governance and emergency
	// admin handovers.
	EventTypeGovernanceUpdated = "hub.governance.updated"
	// EventTypeWhitelistUpdated is emitted on any whitelist mutation.
	EventTypeWhitelistUpdated = "hub.whitelist.updated"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

func i64(v int64) string { return strconv.FormatInt(v, 10) }

func profileCreatedEvent(id uint64, owner [20]byte, handle string, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeProfileCreated,
		Attributes: map[string]string{
			"profileId": u64(id),
			"owner":     hexAddr(owner),
			"handle":    handle,
			"ts":        i64(ts),
		},
	}
}

func profileBurnedEvent(id uint64, handle string, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeProfileBurned,
		Attributes: map[string]string{
			"profileId": u64(id),
			"handle":    handle,
			"ts":        i64(ts),
		},
	}
}

func profileUpdatedEvent(id uint64, field, value string, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeProfileUpdated,
		Attributes: map[string]string{
			"profileId": u64(id),
			"field":     field,
			"value":     value,
			"ts":        i64(ts),
		},
	}
}

func postCreatedEvent(profileID, pubID uint64, pubType PubType, contentURI string, pointedProfile, pointedPub uint64, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypePostCreated,
		Attributes: map[string]string{
			"profileId":        u64(profileID),
			"pubId":            u64(pubID),
			"pubType":          pubType.String(),
			"contentURI":       contentURI,
			"profileIdPointed": u64(pointedProfile),
			"pubIdPointed":     u64(pointedPub),
			"ts":               i64(ts),
		},
	}
}

func mirrorCreatedEvent(profileID, pubID, rootProfile, rootPub, receiptID uint64, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeMirrorCreated,
		Attributes: map[string]string{
			"profileId":     u64(profileID),
			"pubId":         u64(pubID),
			"rootProfileId": u64(rootProfile),
			"rootPubId":     u64(rootPub),
			"receiptId":     u64(receiptID),
			"ts":            i64(ts),
		},
	}
}

func followedEvent(followerProfileID, profileID, receiptID uint64, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeFollowed,
		Attributes: map[string]string{
			"followerProfileId": u64(followerProfileID),
			"profileId":         u64(profileID),
			"receiptId":         u64(receiptID),
			"ts":                i64(ts),
		},
	}
}

func collectPricedEvent(collectorProfileID, rootProfile, rootPub uint64, price string, currency string, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeCollectPriced,
		Attributes: map[string]string{
			"collectorProfileId": u64(collectorProfileID),
			"profileId":          u64(rootProfile),
			"pubId":              u64(rootPub),
			"price":              price,
			"currency":           currency,
			"ts":                 i64(ts),
		},
	}
}

func collectedEvent(collectorProfileID, rootProfile, rootPub, receiptID uint64, price string, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeCollected,
		Attributes: map[string]string{
			"collectorProfileId": u64(collectorProfileID),
			"profileId":          u64(rootProfile),
			"pubId":              u64(rootPub),
			"receiptId":          u64(receiptID),
			"price":              price,
			"ts":                 i64(ts),
		},
	}
}

func stateChangedEvent(prev, next ProtocolState, by [20]byte, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeStateChanged,
		Attributes: map[string]string{
			"previous": prev.String(),
			"next":     next.String(),
			"by":       hexAddr(by),
			"ts":       i64(ts),
		},
	}
}

func governanceUpdatedEvent(field string, addr [20]byte, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeGovernanceUpdated,
		Attributes: map[string]string{
			"field": field,
			"value": hexAddr(addr),
			"ts":    i64(ts),
		},
	}
}

func creatorGateUpdatedEvent(enabled bool, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeGovernanceUpdated,
		Attributes: map[string]string{
			"field": "profileCreatorGate",
			"value": strconv.FormatBool(enabled),
			"ts":    i64(ts),
		},
	}
}

func whitelistUpdatedEvent(role string, addr [20]byte, allowed bool, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeWhitelistUpdated,
		Attributes: map[string]string{
			"role":    role,
			"address": hexAddr(addr),
			"allowed": strconv.FormatBool(allowed),
			"ts":      i64(ts),
		},
	}
}
