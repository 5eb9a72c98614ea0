// Package rpc exposes the hub and its economic modules over JSON-RPC 2.0.
package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sociograph/native/feecollect"
	"sociograph/native/hub"
	"sociograph/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server dispatches JSON-RPC requests onto the hub engine and the fee collect
// module. Mutating methods require the configured bearer token.
type Server struct {
	hub       *hub.Engine
	collector *feecollect.Module
	authToken string
}

// NewServer constructs a server over the supplied engines. An empty authToken
// disables authentication for mutating methods.
func NewServer(engine *hub.Engine, collector *feecollect.Module, authToken string) *Server {
	return &Server{hub: engine, collector: collector, authToken: strings.TrimSpace(authToken)}
}

// Start serves the RPC endpoint and Prometheus metrics until the listener
// fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// requireAuth validates the bearer token on mutating methods.
func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return &RPCError{Code: codeUnauthorized, Message: "bearer token required"}
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid token"}
	}
	return nil
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, req *RPCRequest)

type route struct {
	handler handlerFunc
	auth    bool
}

func (s *Server) routes() map[string]route {
	return map[string]route{
		"soc_createProfile":      {s.handleCreateProfile, true},
		"soc_burnProfile":        {s.handleBurnProfile, true},
		"soc_setDispatcher":      {s.handleSetDispatcher, true},
		"soc_setFollowModule":    {s.handleSetFollowModule, true},
		"soc_setProfileImageUri": {s.handleSetProfileImageURI, true},
		"soc_setFollowNftUri":    {s.handleSetFollowNFTURI, true},
		"soc_post":               {s.handlePost, true},
		"soc_mirror":             {s.handleMirror, true},
		"soc_follow":             {s.handleFollow, true},
		"soc_collect":            {s.handleCollect, true},

		"soc_getProfile":          {s.handleGetProfile, false},
		"soc_getProfileByHandle":  {s.handleGetProfileByHandle, false},
		"soc_getPublication":      {s.handleGetPublication, false},
		"soc_getPubType":          {s.handleGetPubType, false},
		"soc_isFollowing":         {s.handleIsFollowing, false},
		"soc_getFollowBalance":    {s.handleGetFollowBalance, false},
		"soc_getProtocolState":    {s.handleGetProtocolState, false},
		"soc_isModuleWhitelisted": {s.handleIsModuleWhitelisted, false},

		"gov_setProtocolState":      {s.handleSetProtocolState, true},
		"gov_setGovernance":         {s.handleSetGovernance, true},
		"gov_setEmergencyAdmin":     {s.handleSetEmergencyAdmin, true},
		"gov_setProfileCreatorGate": {s.handleSetProfileCreatorGate, true},
		"gov_whitelistModule":       {s.handleWhitelistModule, true},

		"fee_getCollectPrice":     {s.handleGetCollectPrice, false},
		"fee_getClaimable":        {s.handleGetClaimable, false},
		"fee_claimCollectReward":  {s.handleClaimCollectReward, true},
		"fee_claimCreatorReward":  {s.handleClaimCreatorReward, true},
		"fee_claimReferralReward": {s.handleClaimReferralReward, true},
		"fee_setRate":             {s.handleSetRate, true},
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	rt, ok := s.routes()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
		observability.RPCMetrics().Observe(req.Method, codeMethodNotFound, time.Since(started))
		return
	}
	if rt.auth {
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			observability.RPCMetrics().Observe(req.Method, authErr.Code, time.Since(started))
			return
		}
	}
	rec := &statusRecorder{ResponseWriter: w}
	rt.handler(rec, r, req)
	code := 0
	if rec.status >= 400 {
		code = codeServerError
	}
	observability.RPCMetrics().Observe(req.Method, code, time.Since(started))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// decodeParams unmarshals the single parameter object every method expects.
func decodeParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "exactly one parameter object expected"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	return nil
}
