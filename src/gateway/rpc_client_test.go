package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AngeluzFranco/OrbitSave/src/common"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

var logger = common.ConfigureZap(zap.DebugLevel)

// rpcFixture answers one JSON-RPC method with a canned result and captures
// the request for assertions.
type rpcFixture struct {
	t       *testing.T
	method  string
	result  string
	rpcErr  string
	lastReq rpcRequest
}

func (f *rpcFixture) handler(w http.ResponseWriter, r *http.Request) {
	if err := json.NewDecoder(r.Body).Decode(&f.lastReq); err != nil {
		f.t.Fatalf("bad rpc request: %s", err)
	}
	if f.lastReq.Jsonrpc != "2.0" {
		f.t.Fatalf("missing jsonrpc version: %+v", f.lastReq)
	}
	if f.lastReq.Method != f.method {
		f.t.Fatalf("expected method %q, got %q", f.method, f.lastReq.Method)
	}
	w.Header().Set("Content-Type", "application/json")
	if f.rpcErr != "" {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"` + f.rpcErr + `"}}`))
		return
	}
	w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + f.result + `}`))
}

func newTestClient(t *testing.T, fixture *rpcFixture) (*RPCClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(fixture.handler))
	client := NewRPCClient(GatewayConfig{
		Endpoint:   srv.URL,
		ContractID: "CPOOL123",
		SourceKey:  "GADMIN",
	}, logger)
	return client, srv
}

func TestContractBalance(t *testing.T) {
	fixture := &rpcFixture{t: t, method: "contract_balance", result: `{"balance":"15420.50"}`}
	client, srv := newTestClient(t, fixture)
	defer srv.Close()

	balance, err := client.ContractBalance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if balance != "15420.50" {
		t.Fatalf("wrong balance: %s", balance)
	}
}

func TestWithdrawSubmission(t *testing.T) {
	fixture := &rpcFixture{t: t, method: "withdraw", result: `{"success":true,"txHash":"abc123"}`}
	client, srv := newTestClient(t, fixture)
	defer srv.Close()

	result, err := client.Withdraw(context.Background(), "GDEST", "30")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.TxHash != "abc123" {
		t.Fatalf("unexpected result: %+v", result)
	}

	want := map[string]interface{}{
		"contractId": "CPOOL123",
		"source":     "GADMIN",
		"address":    "GDEST",
		"amount":     "30",
	}
	raw, _ := json.Marshal(fixture.lastReq.Params)
	got := map[string]interface{}{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Fatalf("wrong submit params: %s", d)
	}
}

func TestRejectedSubmissionGetsReason(t *testing.T) {
	fixture := &rpcFixture{t: t, method: "deposit", result: `{"success":false}`}
	client, srv := newTestClient(t, fixture)
	defer srv.Close()

	result, err := client.Deposit(context.Background(), "GDEST", "10")
	if err != nil {
		t.Fatal(err)
	}
	if result.Success || result.Error == "" {
		t.Fatalf("rejection should carry a reason: %+v", result)
	}
}

func TestRPCErrorSurfaces(t *testing.T) {
	fixture := &rpcFixture{t: t, method: "getPoolInfo", rpcErr: "simulation failed"}
	client, srv := newTestClient(t, fixture)
	defer srv.Close()

	if _, err := client.PoolInfo(context.Background()); err == nil {
		t.Fatal("expected rpc error to surface")
	}
}

func TestDrawHistoryDecoding(t *testing.T) {
	fixture := &rpcFixture{t: t, method: "getDrawHistory",
		result: `[{"id":"d1","date":1756500000,"prizeAmount":"850","winnersCount":2,"winners":["GA","GB"]}]`}
	client, srv := newTestClient(t, fixture)
	defer srv.Close()

	draws, err := client.DrawHistory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(draws) != 1 || draws[0].ID != "d1" || draws[0].WinnersCount != 2 || len(draws[0].Winners) != 2 {
		t.Fatalf("draw history decoded wrong: %+v", draws[0])
	}
}

func TestHTTPFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewRPCClient(GatewayConfig{Endpoint: srv.URL, ContractID: "C"}, logger)
	if _, err := client.ContractBalance(context.Background()); err == nil {
		t.Fatal("expected http error to surface")
	}
}
