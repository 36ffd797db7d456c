package contract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jshufro/protoc-gen-suibox/config"
)

const (
	testSender = "0x7d20dcdb2bca4f508ea9613994683eb4e76e9c4ed371169677c1be02aaf0b58e"
	testGas    = "0x0c1f2a3e42e8ad0f983b83bd344e26a397e5fbfa951bd692e12b2c2c7b33fd41"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   []Invocation
	respond func(Invocation) (Output, error)
}

func (f *fakeRunner) Run(_ context.Context, inv Invocation) (Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.mu.Unlock()
	if f.respond == nil {
		return Output{}, nil
	}
	return f.respond(inv)
}

func (f *fakeRunner) invocations() []Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Invocation(nil), f.calls...)
}

func stdout(s string) func(Invocation) (Output, error) {
	return func(Invocation) (Output, error) { return Output{Stdout: []byte(s)}, nil }
}

type rpcFault struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcHandler func(method string, params []json.RawMessage) (any, *rpcFault)

// newNode serves JSON-RPC requests the way a full node frames them.
func newNode(t *testing.T, handle rpcHandler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		result, fault := handle(req.Method, req.Params)
		if fault != nil {
			resp["error"] = fault
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.SenderAddress = testSender
	cfg.GasObject = testGas
	return cfg
}

func newTestManager(t *testing.T, cfg *config.Config, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}
