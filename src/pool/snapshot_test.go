package pool

import (
	"context"
	"testing"
	"time"

	"github.com/AngeluzFranco/OrbitSave/src/common"
	"github.com/AngeluzFranco/OrbitSave/src/gateway"
	"github.com/AngeluzFranco/OrbitSave/src/model"
	"go.uber.org/zap"
)

var logger = common.ConfigureZap(zap.DebugLevel)

func testGateway() *gateway.MockGateway {
	gw := gateway.NewMockGateway()
	gw.Pool = model.PoolInfo{
		TotalDeposited:    "1000",
		TotalParticipants: 40,
		NextDrawDate:      time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC).Unix(),
		PrizeAmount:       "24.7",
	}
	gw.Users["GUSER"] = &model.UserInfo{
		Deposited: "100",
		Tickets:   20,
	}
	return gw
}

func TestRefreshComputesProbability(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(testGateway(), "GUSER", logger)

	if err := cache.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	snap := cache.Snapshot()
	if snap.TotalDeposited != 1000 || snap.TotalParticipants != 40 || snap.PrizeAmount != 24.7 {
		t.Fatalf("pool figures wrong: %+v", snap)
	}
	if snap.UserDeposit != 100 || snap.UserTickets != 20 {
		t.Fatalf("user figures wrong: %+v", snap)
	}
	// 1000 deposited at ticket price 5 -> 200 pool tickets; 20/200 = 10%
	if snap.WinProbability != 10 {
		t.Fatalf("expected 10%% win probability, got %f", snap.WinProbability)
	}
	if snap.Err != "" {
		t.Fatalf("unexpected snapshot error: %s", snap.Err)
	}
	if snap.NextDrawDate.IsZero() || snap.RefreshedAt.IsZero() {
		t.Fatal("timestamps missing from snapshot")
	}
}

func TestProbabilityClamped(t *testing.T) {
	ctx := context.Background()
	gw := testGateway()
	gw.Pool.TotalDeposited = "10" // 2 pool tickets, fewer than the user holds
	cache := NewCache(gw, "GUSER", logger)

	if err := cache.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if p := cache.Snapshot().WinProbability; p != 100 {
		t.Fatalf("probability not clamped to 100, got %f", p)
	}
}

func TestPoolOnlySnapshot(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(testGateway(), "", logger)

	if err := cache.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	snap := cache.Snapshot()
	if snap.UserTickets != 0 || snap.WinProbability != 0 {
		t.Fatalf("anonymous snapshot should carry no user figures: %+v", snap)
	}
	if snap.TotalDeposited != 1000 {
		t.Fatalf("pool figures missing: %+v", snap)
	}
}

func TestFailureKeepsLastSnapshot(t *testing.T) {
	ctx := context.Background()
	gw := testGateway()
	cache := NewCache(gw, "GUSER", logger)

	if err := cache.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	gw.Err = context.DeadlineExceeded
	if err := cache.Refresh(ctx); err == nil {
		t.Fatal("expected refresh error")
	}

	snap := cache.Snapshot()
	if snap.TotalDeposited != 1000 || snap.UserTickets != 20 {
		t.Fatalf("last-known snapshot not preserved: %+v", snap)
	}
	if snap.Err == "" {
		t.Fatal("snapshot error field not set after failure")
	}
}

func TestUnparseableAmountIsFailure(t *testing.T) {
	ctx := context.Background()
	gw := testGateway()
	gw.Pool.TotalDeposited = "not-a-number"
	cache := NewCache(gw, "", logger)

	if err := cache.Refresh(ctx); err == nil {
		t.Fatal("expected parse failure")
	}
}
