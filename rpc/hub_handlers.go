package rpc

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"sociograph/crypto"
	"sociograph/native/feecollect"
	"sociograph/native/hub"
	"sociograph/native/modules"
)

// HandleSuffix is appended to every handle registered through this endpoint.
const HandleSuffix = ".soc"

// minHandleLocalLength bounds the caller-chosen part of the handle, before the
// suffix is appended.
const minHandleLocalLength = 5

var (
	errHandleChars   = errors.New("handle may only contain lowercase letters, digits, '-' and '_'")
	errHandleLeading = errors.New("handle may not start with '-' or '_'")
	errHandleShort   = fmt.Errorf("handle must be at least %d characters", minHandleLocalLength)
)

// NormalizeHandle validates the caller-supplied local handle and appends the
// protocol suffix. The registry itself only checks length and uniqueness;
// character rules live here at the creation proxy. Dots are reserved for the
// suffix, so the local part may not contain one.
func NormalizeHandle(local string) (string, error) {
	local = strings.TrimSpace(local)
	if len(local) < minHandleLocalLength {
		return "", errHandleShort
	}
	for i, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
			if i == 0 {
				return "", errHandleLeading
			}
		default:
			return "", errHandleChars
		}
	}
	return local + HandleSuffix, nil
}

func decodeBech32(value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Array(), nil
}

// decodeOptionalBech32 treats the empty string as the zero address.
func decodeOptionalBech32(value string) ([20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return [20]byte{}, nil
	}
	return decodeBech32(value)
}

func formatAddress(addr [20]byte) string {
	return crypto.NewAddress(crypto.SocPrefix, addr[:]).String()
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

type profileResult struct {
	ID           uint64 `json:"id"`
	Handle       string `json:"handle"`
	Owner        string `json:"owner"`
	Dispatcher   string `json:"dispatcher,omitempty"`
	FollowModule string `json:"followModule,omitempty"`
	FollowNFT    uint64 `json:"followNft,omitempty"`
	FollowNFTURI string `json:"followNftUri,omitempty"`
	ImageURI     string `json:"imageUri,omitempty"`
	PubCount     uint64 `json:"pubCount"`
	CreatedAt    uint64 `json:"createdAt"`
	Burned       bool   `json:"burned,omitempty"`
}

func formatProfile(p *hub.Profile) profileResult {
	result := profileResult{
		ID:           p.ID,
		Handle:       p.Handle,
		Owner:        formatAddress(p.Owner),
		FollowNFT:    p.FollowNFT,
		FollowNFTURI: p.FollowNFTURI,
		ImageURI:     p.ImageURI,
		PubCount:     p.PubCount,
		CreatedAt:    p.CreatedAt,
		Burned:       p.Burned,
	}
	if !hub.IsZeroAddress(p.Dispatcher) {
		result.Dispatcher = formatAddress(p.Dispatcher)
	}
	if !hub.IsZeroAddress(p.FollowModule) {
		result.FollowModule = formatAddress(p.FollowModule)
	}
	return result
}

type publicationResult struct {
	ProfileID        uint64 `json:"profileId"`
	PubID            uint64 `json:"pubId"`
	Type             string `json:"type"`
	ContentURI       string `json:"contentUri,omitempty"`
	CollectModule    string `json:"collectModule,omitempty"`
	ReferenceModule  string `json:"referenceModule,omitempty"`
	ProfileIDPointed uint64 `json:"profileIdPointed,omitempty"`
	PubIDPointed     uint64 `json:"pubIdPointed,omitempty"`
	EchoID           uint64 `json:"echoId,omitempty"`
	MirrorID         uint64 `json:"mirrorId,omitempty"`
}

func formatPublication(p *hub.Publication, t hub.PubType) publicationResult {
	result := publicationResult{
		ProfileID:        p.ProfileID,
		PubID:            p.PubID,
		Type:             t.String(),
		ContentURI:       p.ContentURI,
		ProfileIDPointed: p.ProfileIDPointed,
		PubIDPointed:     p.PubIDPointed,
		EchoID:           p.EchoID,
		MirrorID:         p.MirrorID,
	}
	if !hub.IsZeroAddress(p.CollectModule) {
		result.CollectModule = formatAddress(p.CollectModule)
	}
	if !hub.IsZeroAddress(p.ReferenceModule) {
		result.ReferenceModule = formatAddress(p.ReferenceModule)
	}
	return result
}

// --- profile methods ---

type createProfileParams struct {
	Caller           string `json:"caller"`
	Owner            string `json:"owner,omitempty"`
	Handle           string `json:"handle"`
	ImageURI         string `json:"imageUri,omitempty"`
	FollowModule     string `json:"followModule,omitempty"`
	FollowModuleData string `json:"followModuleData,omitempty"`
	FollowNFTURI     string `json:"followNftUri,omitempty"`
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params createProfileParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	owner := caller
	if strings.TrimSpace(params.Owner) != "" {
		if owner, err = decodeBech32(params.Owner); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
			return
		}
	}
	handle, err := NormalizeHandle(params.Handle)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid handle", err.Error())
		return
	}
	followModule, err := decodeOptionalBech32(params.FollowModule)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid follow module address", err.Error())
		return
	}
	id, err := s.hub.CreateProfile(caller, hub.CreateProfileInput{
		Owner:            owner,
		Handle:           handle,
		ImageURI:         params.ImageURI,
		FollowModule:     followModule,
		FollowModuleData: []byte(params.FollowModuleData),
		FollowNFTURI:     params.FollowNFTURI,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to create profile", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"profileId": id, "handle": handle})
}

type profileActionParams struct {
	Caller    string `json:"caller"`
	ProfileID uint64 `json:"profileId"`
	Address   string `json:"address,omitempty"`
	URI       string `json:"uri,omitempty"`
	Data      string `json:"data,omitempty"`
}

func (s *Server) profileAction(w http.ResponseWriter, req *RPCRequest, action string,
	fn func(caller [20]byte, params profileActionParams) error) {
	var params profileActionParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := fn(caller, params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to "+action, err.Error())
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleBurnProfile(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.profileAction(w, req, "burn profile", func(caller [20]byte, p profileActionParams) error {
		return s.hub.BurnProfile(caller, p.ProfileID)
	})
}

func (s *Server) handleSetDispatcher(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.profileAction(w, req, "set dispatcher", func(caller [20]byte, p profileActionParams) error {
		dispatcher, err := decodeOptionalBech32(p.Address)
		if err != nil {
			return err
		}
		return s.hub.SetDispatcher(caller, p.ProfileID, dispatcher)
	})
}

func (s *Server) handleSetFollowModule(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.profileAction(w, req, "set follow module", func(caller [20]byte, p profileActionParams) error {
		module, err := decodeOptionalBech32(p.Address)
		if err != nil {
			return err
		}
		return s.hub.SetFollowModule(caller, p.ProfileID, module, []byte(p.Data))
	})
}

func (s *Server) handleSetProfileImageURI(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.profileAction(w, req, "set profile image", func(caller [20]byte, p profileActionParams) error {
		return s.hub.SetProfileImageURI(caller, p.ProfileID, p.URI)
	})
}

func (s *Server) handleSetFollowNFTURI(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.profileAction(w, req, "set follow nft uri", func(caller [20]byte, p profileActionParams) error {
		return s.hub.SetFollowNFTURI(caller, p.ProfileID, p.URI)
	})
}

// --- publishing methods ---

type postParams struct {
	Caller              string             `json:"caller"`
	ProfileID           uint64             `json:"profileId"`
	ContentURI          string             `json:"contentUri"`
	CollectModule       string             `json:"collectModule"`
	CollectModuleData   string             `json:"collectModuleData,omitempty"`
	ReferenceModule     string             `json:"referenceModule,omitempty"`
	ReferenceModuleData string             `json:"referenceModuleData,omitempty"`
	ProfileIDPointed    uint64             `json:"profileIdPointed,omitempty"`
	PubIDPointed        uint64             `json:"pubIdPointed,omitempty"`
	CollectInit         *collectInitParams `json:"collectInit,omitempty"`
}

// collectInitParams is the JSON-friendly form of the fee collect module's init
// payload; when present it is encoded and used as collectModuleData.
type collectInitParams struct {
	Currency    string `json:"currency,omitempty"`
	BasePrice   string `json:"basePrice"`
	FinancePool string `json:"financePool"`
}

func (p *collectInitParams) encode() ([]byte, error) {
	basePrice, err := parseAmount(p.BasePrice)
	if err != nil {
		return nil, err
	}
	if basePrice == nil {
		basePrice = big.NewInt(0)
	}
	pool, err := decodeBech32(p.FinancePool)
	if err != nil {
		return nil, err
	}
	return feecollect.EncodeCollectInitData(feecollect.CollectInitData{
		Currency:    strings.TrimSpace(p.Currency),
		BasePrice:   basePrice,
		FinancePool: pool,
	})
}

func (s *Server) handlePost(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params postParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	collectModule, err := decodeBech32(params.CollectModule)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid collect module address", err.Error())
		return
	}
	referenceModule, err := decodeOptionalBech32(params.ReferenceModule)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid reference module address", err.Error())
		return
	}
	collectData := []byte(params.CollectModuleData)
	if params.CollectInit != nil {
		if collectData, err = params.CollectInit.encode(); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid collect init data", err.Error())
			return
		}
	}
	pubID, err := s.hub.Post(caller, hub.PostInput{
		ProfileID:           params.ProfileID,
		ContentURI:          params.ContentURI,
		CollectModule:       collectModule,
		CollectModuleData:   collectData,
		ReferenceModule:     referenceModule,
		ReferenceModuleData: []byte(params.ReferenceModuleData),
		ProfileIDPointed:    params.ProfileIDPointed,
		PubIDPointed:        params.PubIDPointed,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to publish", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]uint64{"pubId": pubID})
}

type mirrorParams struct {
	Caller              string `json:"caller"`
	ProfileID           uint64 `json:"profileId"`
	ProfileIDPointed    uint64 `json:"profileIdPointed"`
	PubIDPointed        uint64 `json:"pubIdPointed"`
	ReferenceModuleData string `json:"referenceModuleData,omitempty"`
}

func (s *Server) handleMirror(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params mirrorParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	pubID, err := s.hub.Mirror(caller, hub.MirrorInput{
		ProfileID:           params.ProfileID,
		ProfileIDPointed:    params.ProfileIDPointed,
		PubIDPointed:        params.PubIDPointed,
		ReferenceModuleData: []byte(params.ReferenceModuleData),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to mirror", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]uint64{"pubId": pubID})
}

// --- interaction methods ---

type followParams struct {
	Caller            string `json:"caller"`
	FollowerProfileID uint64 `json:"followerProfileId"`
	ProfileID         uint64 `json:"profileId"`
	Data              string `json:"data,omitempty"`
}

func (s *Server) handleFollow(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params followParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	receiptID, err := s.hub.Follow(caller, params.FollowerProfileID, params.ProfileID, []byte(params.Data))
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to follow", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]uint64{"receiptId": receiptID})
}

type collectParams struct {
	Caller             string `json:"caller"`
	CollectorProfileID uint64 `json:"collectorProfileId"`
	ProfileID          uint64 `json:"profileId"`
	PubID              uint64 `json:"pubId"`
	Payment            string `json:"payment,omitempty"`
	Data               string `json:"data,omitempty"`
}

func (s *Server) handleCollect(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params collectParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	payment, err := parseAmount(params.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid payment", err.Error())
		return
	}
	receiptID, err := s.hub.Collect(caller, params.CollectorProfileID, params.ProfileID, params.PubID, payment, []byte(params.Data))
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to collect", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]uint64{"receiptId": receiptID})
}

// --- query methods ---

type profileQueryParams struct {
	ProfileID uint64 `json:"profileId,omitempty"`
	Handle    string `json:"handle,omitempty"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params profileQueryParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	profile, err := s.hub.GetProfile(params.ProfileID)
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "profile not found", err.Error())
		return
	}
	writeResult(w, req.ID, formatProfile(profile))
}

func (s *Server) handleGetProfileByHandle(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params profileQueryParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	profile, err := s.hub.GetProfileByHandle(strings.TrimSpace(params.Handle))
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "profile not found", err.Error())
		return
	}
	writeResult(w, req.ID, formatProfile(profile))
}

type publicationQueryParams struct {
	ProfileID uint64 `json:"profileId"`
	PubID     uint64 `json:"pubId"`
}

func (s *Server) handleGetPublication(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params publicationQueryParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	pub, err := s.hub.GetPublication(params.ProfileID, params.PubID)
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "publication not found", err.Error())
		return
	}
	t, err := s.hub.GetPubType(params.ProfileID, params.PubID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to derive type", err.Error())
		return
	}
	writeResult(w, req.ID, formatPublication(pub, t))
}

func (s *Server) handleGetPubType(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params publicationQueryParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	t, err := s.hub.GetPubType(params.ProfileID, params.PubID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to derive type", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"type": t.String()})
}

type isFollowingParams struct {
	FollowerProfileID uint64 `json:"followerProfileId"`
	ProfileID         uint64 `json:"profileId"`
}

func (s *Server) handleIsFollowing(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params isFollowingParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	following, err := s.hub.IsFollowing(params.FollowerProfileID, params.ProfileID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to resolve relationship", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]bool{"following": following})
}

type followBalanceParams struct {
	ProfileID uint64 `json:"profileId"`
	Holder    string `json:"holder"`
}

func (s *Server) handleGetFollowBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params followBalanceParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	holder, err := decodeBech32(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid holder address", err.Error())
		return
	}
	balance, err := s.hub.FollowReceiptBalance(params.ProfileID, holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to read balance", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]uint64{"balance": balance})
}

func (s *Server) handleGetProtocolState(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	state, err := s.hub.GetProtocolState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to read state", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"state": state.String()})
}

type whitelistQueryParams struct {
	Role    string `json:"role"`
	Address string `json:"address"`
}

func (s *Server) handleIsModuleWhitelisted(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params whitelistQueryParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	role, err := parseRole(params.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid module address", err.Error())
		return
	}
	allowed, err := s.hub.IsModuleWhitelisted(role, addr)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to read whitelist", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]bool{"whitelisted": allowed})
}

// --- governance methods ---

type setProtocolStateParams struct {
	Caller string `json:"caller"`
	State  string `json:"state"`
}

func parseProtocolState(value string) (hub.ProtocolState, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "unpaused":
		return hub.StateUnpaused, nil
	case "publishing-paused":
		return hub.StatePublishingPaused, nil
	case "paused":
		return hub.StatePaused, nil
	}
	return hub.StateUnpaused, fmt.Errorf("unknown protocol state %q", value)
}

func (s *Server) handleSetProtocolState(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setProtocolStateParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	next, err := parseProtocolState(params.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.hub.SetProtocolState(caller, next); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to change state", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"state": next.String()})
}

type addressParams struct {
	Caller  string `json:"caller"`
	Address string `json:"address"`
}

func (s *Server) handleSetGovernance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.governanceAddressAction(w, req, "set governance", s.hub.SetGovernance)
}

func (s *Server) handleSetEmergencyAdmin(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.governanceAddressAction(w, req, "set emergency admin", s.hub.SetEmergencyAdmin)
}

func (s *Server) governanceAddressAction(w http.ResponseWriter, req *RPCRequest, action string,
	fn func(caller, target [20]byte) error) {
	var params addressParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	target, err := decodeOptionalBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid target address", err.Error())
		return
	}
	if err := fn(caller, target); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to "+action, err.Error())
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type creatorGateParams struct {
	Caller  string `json:"caller"`
	Enabled bool   `json:"enabled"`
}

func (s *Server) handleSetProfileCreatorGate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params creatorGateParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.hub.SetProfileCreatorGate(caller, params.Enabled); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to set creator gate", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type whitelistParams struct {
	Caller  string `json:"caller"`
	Role    string `json:"role"`
	Address string `json:"address"`
	Allowed bool   `json:"allowed"`
}

func parseRole(value string) (modules.Role, error) {
	role := modules.Role(strings.TrimSpace(strings.ToLower(value)))
	switch role {
	case modules.RoleProfileCreator, modules.RoleFollow, modules.RoleCollect, modules.RoleReference, modules.RoleFinance:
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

func (s *Server) handleWhitelistModule(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params whitelistParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	role, err := parseRole(params.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid module address", err.Error())
		return
	}
	if err := s.hub.Whitelist(caller, role, addr, params.Allowed); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to update whitelist", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}
