package hub

// ProtocolState is the global pause level gating hub entrypoints. Higher
// values are more restrictive.
type ProtocolState uint8

const (
	// StateUnpaused allows every operation.
	StateUnpaused ProtocolState = iota
	// StatePublishingPaused blocks profile creation and publication
	// creation; interactions and governance remain available.
	StatePublishingPaused
	// StatePaused blocks every state-mutating entrypoint except governance.
	StatePaused
)

// String implements fmt.Stringer for event attributes and error context.
func (s ProtocolState) String() string {
	switch s {
	case StateUnpaused:
		return "unpaused"
	case StatePublishingPaused:
		return "publishing-paused"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// PubType is derived from stored publication fields, never persisted.
type PubType uint8

const (
	PubNonexistent PubType = iota
	PubPost
	PubComment
	PubMirror
)

func (t PubType) String() string {
	switch t {
	case PubPost:
		return "post"
	case PubComment:
		return "comment"
	case PubMirror:
		return "mirror"
	}
	return "nonexistent"
}

// MaxHandleBytes bounds the stored handle length.
const MaxHandleBytes = 31

// MaxImageURIBytes bounds the profile image URI length.
const MaxImageURIBytes = 6000

// Profile is the canonical record for an identity token. Burning a profile
// clears the handle index entry but retains the struct as a tombstone.
type Profile struct {
	ID           uint64
	Handle       string
	Owner        [20]byte
	Dispatcher   [20]byte
	FollowModule [20]byte
	// FollowNFT is the lazily allocated follow-receipt series, written
	// exactly once on the first follow.
	FollowNFT    uint64
	FollowNFTURI string
	ImageURI     string
	PubCount     uint64
	CreatedAt    uint64
	Burned       bool
}

// Clone returns a copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Publication is keyed by (ProfileID, PubID); PubID starts at 1 and increases
// monotonically per profile.
type Publication struct {
	ProfileID  uint64
	PubID      uint64
	ContentURI string
	// CollectModule is zero for mirrors and immutable once set.
	CollectModule   [20]byte
	ReferenceModule [20]byte
	// ProfileIDPointed/PubIDPointed are set for comments and mirrors.
	// Mirrors always point at a non-mirror target.
	ProfileIDPointed uint64
	PubIDPointed     uint64
	// EchoID binds the publication to its collect-receipt series.
	EchoID uint64
	// MirrorID records the first mirror receipt, written exactly once.
	MirrorID uint64
}

// Clone returns a copy of the publication.
func (p *Publication) Clone() *Publication {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// HasPointer reports whether the publication points at another publication.
func (p *Publication) HasPointer() bool {
	return p.ProfileIDPointed != 0 || p.PubIDPointed != 0
}

var zeroAddr [20]byte

// IsZeroAddress reports whether the address is unset.
func IsZeroAddress(addr [20]byte) bool { return addr == zeroAddr }

// CreateProfileInput collects the parameters of a profile creation.
type CreateProfileInput struct {
	Owner            [20]byte
	Handle           string
	ImageURI         string
	FollowModule     [20]byte
	FollowModuleData []byte
	FollowNFTURI     string
}

// PostInput collects the parameters of a post or comment creation.
type PostInput struct {
	ProfileID           uint64
	ContentURI          string
	CollectModule       [20]byte
	CollectModuleData   []byte
	ReferenceModule     [20]byte
	ReferenceModuleData []byte
	// ProfileIDPointed/PubIDPointed are zero for posts and identify the
	// commented publication for comments.
	ProfileIDPointed uint64
	PubIDPointed     uint64
}

// MirrorInput collects the parameters of a mirror creation.
type MirrorInput struct {
	ProfileID           uint64
	ProfileIDPointed    uint64
	PubIDPointed        uint64
	ReferenceModuleData []byte
}
