package rpc

import (
	"math/big"
	"net/http"
)

type collectPriceParams struct {
	ProfileID uint64 `json:"profileId"`
	PubID     uint64 `json:"pubId"`
}

func (s *Server) handleGetCollectPrice(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params collectPriceParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	price, currency, err := s.collector.CollectPrice(params.ProfileID, params.PubID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to quote price", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{
		"price":    price.String(),
		"currency": currency,
	})
}

type claimableParams struct {
	ClaimantProfileID uint64 `json:"claimantProfileId"`
	ProfileID         uint64 `json:"profileId"`
	PubID             uint64 `json:"pubId"`
}

func (s *Server) handleGetClaimable(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params claimableParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	claimable, err := s.collector.ClaimableCollectReward(params.ClaimantProfileID, params.ProfileID, params.PubID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to compute claimable", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"claimable": claimable.String()})
}

type claimCollectParams struct {
	Caller            string `json:"caller"`
	ClaimantProfileID uint64 `json:"claimantProfileId"`
	ProfileID         uint64 `json:"profileId"`
	PubID             uint64 `json:"pubId"`
	// Amount is a decimal string; empty claims the full balance.
	Amount string `json:"amount,omitempty"`
}

func (s *Server) handleClaimCollectReward(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params claimCollectParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	paid, err := s.collector.ClaimCollectReward(caller, params.ClaimantProfileID, params.ProfileID, params.PubID, amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to claim collect reward", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"paid": paid.String()})
}

type claimAggregateParams struct {
	Caller    string `json:"caller"`
	ProfileID uint64 `json:"profileId"`
	Currency  string `json:"currency,omitempty"`
	// Amount is a decimal string; empty claims the full balance.
	Amount string `json:"amount,omitempty"`
}

func (s *Server) handleClaimCreatorReward(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.claimAggregateAction(w, req, "claim creator reward", s.collector.ClaimCreatorReward)
}

func (s *Server) handleClaimReferralReward(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.claimAggregateAction(w, req, "claim referral reward", s.collector.ClaimReferralReward)
}

func (s *Server) claimAggregateAction(w http.ResponseWriter, req *RPCRequest, action string,
	fn func(caller [20]byte, profileID uint64, currency string, amount *big.Int) (*big.Int, error)) {
	var params claimAggregateParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	paid, err := fn(caller, params.ProfileID, params.Currency, amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to "+action, err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"paid": paid.String()})
}

type setRateParams struct {
	Caller string `json:"caller"`
	Index  uint64 `json:"index"`
	Rate   uint64 `json:"rate"`
}

func (s *Server) handleSetRate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setRateParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.collector.SetRate(caller, params.Index, params.Rate); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to set rate", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}
