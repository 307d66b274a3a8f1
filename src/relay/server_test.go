package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AngeluzFranco/OrbitSave/src/common"
	"github.com/AngeluzFranco/OrbitSave/src/gateway"
	"github.com/AngeluzFranco/OrbitSave/src/model"
	"github.com/AngeluzFranco/OrbitSave/src/pool"
	"go.uber.org/zap"
)

var logger = common.ConfigureZap(zap.DebugLevel)

func newTestServer(t *testing.T) (*Server, *gateway.MockGateway) {
	t.Helper()
	gw := gateway.NewMockGateway()
	gw.Balance = "15420.50"
	gw.Pool = model.PoolInfo{
		TotalDeposited:    "8420.5",
		TotalParticipants: 187,
		PrizeAmount:       "24.7",
	}
	gw.Draws = []*model.DrawResult{
		{ID: "d1", PrizeAmount: "850", WinnersCount: 1, Winners: []string{"GA"}},
	}

	poolCache := pool.NewCache(gw, "", logger)
	if err := poolCache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	return NewServer(RelayConfig{}, gw, poolCache, logger), gw
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)
	return rec
}

func TestHandleBalance(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "GET", "/balance", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := map[string]string{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["balance"] != "15420.50" {
		t.Fatalf("wrong balance payload: %v", out)
	}
}

func TestHandleBalanceSimulationFailure(t *testing.T) {
	s, gw := newTestServer(t)
	gw.Err = context.DeadlineExceeded

	rec := doRequest(t, s, "GET", "/balance", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	out := map[string]string{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["error"] == "" {
		t.Fatalf("error payload missing: %v", out)
	}
}

func TestHandleWithdrawValidation(t *testing.T) {
	s, gw := newTestServer(t)

	for _, body := range []string{
		`{}`,
		`{"toAddress":"GDEST"}`,
		`{"amount":"30"}`,
		`not json`,
	} {
		rec := doRequest(t, s, "POST", "/withdraw", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
	if len(gw.Submissions()) != 0 {
		t.Fatal("invalid requests reached the gateway")
	}
}

func TestHandleWithdraw(t *testing.T) {
	s, gw := newTestServer(t)

	rec := doRequest(t, s, "POST", "/withdraw", `{"toAddress":"GDEST","amount":"30"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := struct {
		Success bool               `json:"success"`
		Result  model.SubmitResult `json:"result"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if !out.Success || out.Result.TxHash == "" {
		t.Fatalf("unexpected payload: %+v", out)
	}

	subs := gw.Submissions()
	if len(subs) != 1 || subs[0].Method != "withdraw" || subs[0].Address != "GDEST" || subs[0].Amount != "30" {
		t.Fatalf("gateway saw wrong submission: %+v", subs)
	}
}

func TestHandleWithdrawRejection(t *testing.T) {
	s, gw := newTestServer(t)
	gw.FailNext = true

	rec := doRequest(t, s, "POST", "/withdraw", `{"toAddress":"GDEST","amount":"30"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	out := map[string]string{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["error"] == "" || out["details"] == "" {
		t.Fatalf("rejection payload incomplete: %v", out)
	}
}

func TestHandlePool(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "GET", "/pool", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	snap := model.PoolSnapshot{}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.TotalDeposited != 8420.5 || snap.TotalParticipants != 187 {
		t.Fatalf("wrong snapshot payload: %+v", snap)
	}
}

func TestHandleDraws(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, "GET", "/draws", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var draws []*model.DrawResult
	if err := json.Unmarshal(rec.Body.Bytes(), &draws); err != nil {
		t.Fatal(err)
	}
	if len(draws) != 1 || draws[0].ID != "d1" {
		t.Fatalf("wrong draws payload: %+v", draws)
	}
}

func TestMethodsEnforced(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := doRequest(t, s, "POST", "/balance", "{}"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /balance: expected 405, got %d", rec.Code)
	}
	if rec := doRequest(t, s, "GET", "/withdraw", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /withdraw: expected 405, got %d", rec.Code)
	}
}
