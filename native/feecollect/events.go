package feecollect

import (
	"encoding/hex"
	"strconv"

	"sociograph/core/events"
	"sociograph/core/types"
)

const (
	// EventTypePoolCreated is emitted when a publication's reward pool is
	// cloned.
	EventTypePoolCreated = "feecollect.pool.created"
	// EventTypeCollectProcessed is emitted after a collect settles.
	EventTypeCollectProcessed = "feecollect.collect.processed"
	// EventTypeRewardClaimed is emitted for collector, creator and
	// referrer claims.
	EventTypeRewardClaimed = "feecollect.reward.claimed"
	// EventTypeRateUpdated is emitted when a curve override is configured.
	EventTypeRateUpdated = "feecollect.rate.updated"
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

func u64s(v uint64) string { return strconv.FormatUint(v, 10) }

func addrHex(addr [20]byte) string { return "0x" + hex.EncodeToString(addr[:]) }

func poolCreatedEvent(profileID, pubID uint64, currency string, owner [20]byte, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypePoolCreated,
		Attributes: map[string]string{
			"profileId": u64s(profileID),
			"pubId":     u64s(pubID),
			"currency":  currency,
			"owner":     addrHex(owner),
			"ts":        strconv.FormatInt(ts, 10),
		},
	}
}

func collectProcessedEvent(profileID, pubID, collector, referrer uint64, currency string, amount, treasury, collectReward, referral, creator string, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeCollectProcessed,
		Attributes: map[string]string{
			"profileId":     u64s(profileID),
			"pubId":         u64s(pubID),
			"currency":      currency,
			"collector":     u64s(collector),
			"referrer":      u64s(referrer),
			"amount":        amount,
			"treasury":      treasury,
			"collectReward": collectReward,
			"referral":      referral,
			"creator":       creator,
			"ts":            strconv.FormatInt(ts, 10),
		},
	}
}

func rewardClaimedEvent(kind string, profileID uint64, amount string, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeRewardClaimed,
		Attributes: map[string]string{
			"kind":      kind,
			"profileId": u64s(profileID),
			"amount":    amount,
			"ts":        strconv.FormatInt(ts, 10),
		},
	}
}

func rateUpdatedEvent(index, rate uint64, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeRateUpdated,
		Attributes: map[string]string{
			"index": u64s(index),
			"rate":  u64s(rate),
			"ts":    strconv.FormatInt(ts, 10),
		},
	}
}
