package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"sociograph/core/state"
	"sociograph/crypto"
	"sociograph/native/feecollect"
	"sociograph/native/hub"
	"sociograph/native/modules"
	"sociograph/storage"
)

const testToken = "test-token"

func addrOf(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func bech(b byte) string {
	a := addrOf(b)
	return crypto.NewAddress(crypto.SocPrefix, a[:]).String()
}

type testStack struct {
	server  *Server
	manager *state.Manager
	gov     [20]byte
	factory [20]byte
	module  [20]byte
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())

	engine := hub.NewEngine()
	engine.SetState(mgr, mgr)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })

	gov := addrOf(0xA0)
	if err := engine.Initialize(gov); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	moduleAddr := addrOf(0xC0)
	factoryAddr := addrOf(0xF0)
	admin := addrOf(0xAD)
	collector, err := feecollect.NewModule(feecollect.ModuleConfig{
		Address:             moduleAddr,
		Admin:               admin,
		Treasury:            addrOf(0xBB),
		TreasuryFeeBps:      500,
		CollectRewardFeeBps: 1000,
		ReferralFeeBps:      250,
	})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	collector.SetState(mgr)
	collector.SetNowFunc(func() int64 { return 1_700_000_000 })
	factory := feecollect.NewFactory(factoryAddr, mgr)
	collector.SetFactory(factory)
	collector.SetWhitelist(engine)
	collector.SetOwners(engine)
	for i := uint64(1); i <= 5; i++ {
		if err := collector.SetRate(admin, i, 100); err != nil {
			t.Fatalf("set rate %d: %v", i, err)
		}
	}

	dispatcher := modules.NewDispatcher()
	dispatcher.BindCollect(moduleAddr, collector)
	dispatcher.BindFinance(factoryAddr, factory)
	engine.SetModuleDispatcher(dispatcher)

	if err := engine.Whitelist(gov, modules.RoleCollect, moduleAddr, true); err != nil {
		t.Fatalf("whitelist collect: %v", err)
	}
	if err := engine.Whitelist(gov, modules.RoleFinance, factoryAddr, true); err != nil {
		t.Fatalf("whitelist finance: %v", err)
	}

	return &testStack{
		server:  NewServer(engine, collector, testToken),
		manager: mgr,
		gov:     gov,
		factory: factoryAddr,
		module:  moduleAddr,
	}
}

func (s *testStack) fund(t *testing.T, addr [20]byte, amount int64) {
	t.Helper()
	acc, err := s.manager.GetAccount(addr[:])
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	acc.Balance = big.NewInt(amount)
	if err := s.manager.PutAccount(addr[:], acc); err != nil {
		t.Fatalf("put account: %v", err)
	}
}

type testResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func (s *testStack) call(t *testing.T, method string, params interface{}, token string) testResponse {
	t.Helper()
	body := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
		"params":  []interface{}{params},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.server.handle(rec, req)
	var resp testResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func (s *testStack) mustCall(t *testing.T, method string, params interface{}, out interface{}) {
	t.Helper()
	resp := s.call(t, method, params, testToken)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error %d %s (%v)", method, resp.Error.Code, resp.Error.Message, resp.Error.Data)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			t.Fatalf("%s: decode result: %v", method, err)
		}
	}
}

func (s *testStack) createProfile(t *testing.T, callerByte byte, handle string) uint64 {
	t.Helper()
	var result struct {
		ProfileID uint64 `json:"profileId"`
	}
	s.mustCall(t, "soc_createProfile", map[string]interface{}{
		"caller": bech(callerByte),
		"handle": handle,
	}, &result)
	return result.ProfileID
}

func TestNormalizeHandle(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"alice", "alice.soc", true},
		{"ab-c_9", "ab-c_9.soc", true},
		{"  padded  ", "padded.soc", true},
		{"abcd", "", false},
		{"Alice", "", false},
		{"ab.cd", "", false},
		{".alice", "", false},
		{"-alice", "", false},
		{"_alice", "", false},
		{"ali ce", "", false},
		{"ali/ce", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeHandle(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("NormalizeHandle(%q): unexpected error %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("NormalizeHandle(%q) = %q, want %q", tc.in, got, tc.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("NormalizeHandle(%q): expected error, got %q", tc.in, got)
		}
	}
}

func TestMethodNotFound(t *testing.T) {
	s := newTestStack(t)
	resp := s.call(t, "soc_doesNotExist", map[string]interface{}{}, "")
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp.Error)
	}
}

func TestMutatingMethodsRequireToken(t *testing.T) {
	s := newTestStack(t)
	params := map[string]interface{}{"caller": bech(0x01), "handle": "alice"}

	resp := s.call(t, "soc_createProfile", params, "")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("missing token: expected unauthorized, got %+v", resp.Error)
	}
	resp = s.call(t, "soc_createProfile", params, "wrong-token")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("bad token: expected unauthorized, got %+v", resp.Error)
	}
	resp = s.call(t, "soc_createProfile", params, testToken)
	if resp.Error != nil {
		t.Fatalf("valid token: unexpected error %+v", resp.Error)
	}
}

func TestQueryMethodsSkipAuth(t *testing.T) {
	s := newTestStack(t)
	s.createProfile(t, 0x01, "alice")

	resp := s.call(t, "soc_getProfile", map[string]interface{}{"profileId": 1}, "")
	if resp.Error != nil {
		t.Fatalf("unexpected error %+v", resp.Error)
	}
}

func TestCreateProfileAppendsSuffix(t *testing.T) {
	s := newTestStack(t)
	id := s.createProfile(t, 0x01, "alice")
	if id != 1 {
		t.Fatalf("expected profile id 1, got %d", id)
	}

	var profile profileResult
	s.mustCall(t, "soc_getProfileByHandle", map[string]interface{}{"handle": "alice.soc"}, &profile)
	if profile.ID != id {
		t.Fatalf("handle lookup returned profile %d, want %d", profile.ID, id)
	}
	if profile.Handle != "alice.soc" {
		t.Fatalf("expected stored handle alice.soc, got %q", profile.Handle)
	}
	if profile.Owner != bech(0x01) {
		t.Fatalf("expected owner %s, got %s", bech(0x01), profile.Owner)
	}
}

func TestCreateProfileRejectsBadHandle(t *testing.T) {
	s := newTestStack(t)
	resp := s.call(t, "soc_createProfile", map[string]interface{}{
		"caller": bech(0x01),
		"handle": "Bad Handle",
	}, testToken)
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}
}

func TestRejectsInvalidCallerAddress(t *testing.T) {
	s := newTestStack(t)
	resp := s.call(t, "soc_createProfile", map[string]interface{}{
		"caller": "not-a-bech32-address",
		"handle": "alice",
	}, testToken)
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}
}

func TestDecodeParamsRequiresSingleObject(t *testing.T) {
	s := newTestStack(t)
	body := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  "soc_getProfile",
		"params":  []interface{}{map[string]interface{}{}, map[string]interface{}{}},
	}
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.server.handle(rec, req)
	var resp testResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}
}

func TestProtocolStateRoundTrip(t *testing.T) {
	s := newTestStack(t)
	s.mustCall(t, "gov_setProtocolState", map[string]interface{}{
		"caller": crypto.NewAddress(crypto.SocPrefix, s.gov[:]).String(),
		"state":  "paused",
	}, nil)

	var result struct {
		State string `json:"state"`
	}
	s.mustCall(t, "soc_getProtocolState", map[string]interface{}{}, &result)
	if result.State != "paused" {
		t.Fatalf("expected paused, got %q", result.State)
	}
}

func TestPostCollectPriceAndCollect(t *testing.T) {
	s := newTestStack(t)
	publisher := s.createProfile(t, 0x01, "alice")
	collectorID := s.createProfile(t, 0x02, "bobby")

	var postResult struct {
		PubID uint64 `json:"pubId"`
	}
	s.mustCall(t, "soc_post", map[string]interface{}{
		"caller":        bech(0x01),
		"profileId":     publisher,
		"contentUri":    "ipfs://content",
		"collectModule": crypto.NewAddress(crypto.SocPrefix, s.module[:]).String(),
		"collectInit": map[string]interface{}{
			"basePrice":   "1000",
			"financePool": crypto.NewAddress(crypto.SocPrefix, s.factory[:]).String(),
		},
	}, &postResult)
	if postResult.PubID != 1 {
		t.Fatalf("expected pub id 1, got %d", postResult.PubID)
	}

	var quote struct {
		Price    string `json:"price"`
		Currency string `json:"currency"`
	}
	s.mustCall(t, "fee_getCollectPrice", map[string]interface{}{
		"profileId": publisher,
		"pubId":     postResult.PubID,
	}, &quote)
	if quote.Price != "1000" {
		t.Fatalf("expected price 1000, got %s", quote.Price)
	}
	if quote.Currency != "" {
		t.Fatalf("expected native currency, got %q", quote.Currency)
	}

	s.fund(t, addrOf(0x02), 1000)
	var collectResult struct {
		ReceiptID uint64 `json:"receiptId"`
	}
	s.mustCall(t, "soc_collect", map[string]interface{}{
		"caller":             bech(0x02),
		"collectorProfileId": collectorID,
		"profileId":          publisher,
		"pubId":              postResult.PubID,
		"payment":            "1000",
	}, &collectResult)
	if collectResult.ReceiptID != 1 {
		t.Fatalf("expected receipt 1, got %d", collectResult.ReceiptID)
	}

	var claimable struct {
		Claimable string `json:"claimable"`
	}
	s.mustCall(t, "fee_getClaimable", map[string]interface{}{
		"claimantProfileId": collectorID,
		"profileId":         publisher,
		"pubId":             postResult.PubID,
	}, &claimable)
	if claimable.Claimable != "0" {
		t.Fatalf("expected zero claimable right after first collect, got %s", claimable.Claimable)
	}
}

func TestCollectRejectsWrongPayment(t *testing.T) {
	s := newTestStack(t)
	publisher := s.createProfile(t, 0x01, "alice")
	collectorID := s.createProfile(t, 0x02, "bobby")

	var postResult struct {
		PubID uint64 `json:"pubId"`
	}
	s.mustCall(t, "soc_post", map[string]interface{}{
		"caller":        bech(0x01),
		"profileId":     publisher,
		"contentUri":    "ipfs://content",
		"collectModule": crypto.NewAddress(crypto.SocPrefix, s.module[:]).String(),
		"collectInit": map[string]interface{}{
			"basePrice":   "1000",
			"financePool": crypto.NewAddress(crypto.SocPrefix, s.factory[:]).String(),
		},
	}, &postResult)

	s.fund(t, addrOf(0x02), 1000)
	resp := s.call(t, "soc_collect", map[string]interface{}{
		"caller":             bech(0x02),
		"collectorProfileId": collectorID,
		"profileId":          publisher,
		"pubId":              postResult.PubID,
		"payment":            "999",
	}, testToken)
	if resp.Error == nil || resp.Error.Code != codeServerError {
		t.Fatalf("expected server error, got %+v", resp.Error)
	}
}

func TestSetRateRequiresAdminOverRPC(t *testing.T) {
	s := newTestStack(t)
	resp := s.call(t, "fee_setRate", map[string]interface{}{
		"caller": bech(0x01),
		"index":  10,
		"rate":   100,
	}, testToken)
	if resp.Error == nil || resp.Error.Code != codeServerError {
		t.Fatalf("expected server error for non-admin, got %+v", resp.Error)
	}
}
