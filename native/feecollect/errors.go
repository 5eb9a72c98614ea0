package feecollect

import "errors"

var (
	// ErrNilState indicates the module was used before SetState.
	ErrNilState = errors.New("feecollect: state not configured")
	// ErrCurveUndefined is returned when the price curve has no rate for
	// the requested collect index. The curve is intentionally only defined
	// on a known range; callers must pre-validate bounds.
	ErrCurveUndefined = errors.New("feecollect: price undefined for collect index")
	// ErrInvalidRate rejects zero or out-of-range rate overrides.
	ErrInvalidRate = errors.New("feecollect: invalid rate")
	// ErrFeeConfig rejects fee parameters summing above 100%.
	ErrFeeConfig = errors.New("feecollect: fee configuration exceeds 10000 bps")
	// ErrPoolExists guards against double pool instantiation per
	// publication.
	ErrPoolExists = errors.New("feecollect: pool already exists for publication")
	// ErrPoolNotFound indicates the publication has no reward pool.
	ErrPoolNotFound = errors.New("feecollect: pool not found")
	// ErrNotPoolOwner rejects pool writes from any module other than the
	// one that deployed the pool.
	ErrNotPoolOwner = errors.New("feecollect: caller is not the pool's owning module")
	// ErrFinanceModuleNotWhitelisted rejects pool factories that
	// governance has not approved.
	ErrFinanceModuleNotWhitelisted = errors.New("feecollect: finance module not whitelisted")
	// ErrInvalidPayment indicates a payment that does not match the
	// computed price.
	ErrInvalidPayment = errors.New("feecollect: payment does not match price")
	// ErrAmountOverflow rejects amounts that do not fit an unsigned
	// 256-bit integer.
	ErrAmountOverflow = errors.New("feecollect: amount exceeds uint256 range")
	// ErrInsufficientFunds indicates the payer balance cannot cover the
	// collect price.
	ErrInsufficientFunds = errors.New("feecollect: insufficient balance")
	// ErrRepeatCollect is the anti-double-registration guard: a non-first
	// collector may not re-collect at an identical pool snapshot.
	ErrRepeatCollect = errors.New("feecollect: repeat collect at identical pool snapshot")
	// ErrNotProfileOwner rejects claims from callers that do not own the
	// claiming profile.
	ErrNotProfileOwner = errors.New("feecollect: caller does not own profile")
	// ErrNothingToClaim indicates a zero claimable balance.
	ErrNothingToClaim = errors.New("feecollect: nothing to claim")
	// ErrInsufficientClaimable rejects claims above the claimable balance.
	ErrInsufficientClaimable = errors.New("feecollect: claim exceeds claimable balance")
	// ErrNotAdmin rejects curve and fee mutations from non-admin callers.
	ErrNotAdmin = errors.New("feecollect: caller is not module admin")
	// ErrInvalidInitData rejects malformed collect-module init payloads.
	ErrInvalidInitData = errors.New("feecollect: invalid init data")
)
