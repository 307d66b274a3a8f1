package pool

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/AngeluzFranco/OrbitSave/src/gateway"
	"github.com/AngeluzFranco/OrbitSave/src/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultRefreshInterval = 30 * time.Second

// Cache periodically pulls pool and user figures from the contract gateway
// and derives the caller's win probability. On a gateway failure the
// last-known snapshot is preserved with its Err field set.
type Cache struct {
	gw       gateway.PoolGateway
	address  string
	interval time.Duration
	logger   *zap.Logger

	mu   sync.RWMutex
	snap model.PoolSnapshot
}

// NewCache builds a cache for the given user address. An empty address
// yields pool-wide figures only.
func NewCache(gw gateway.PoolGateway, address string, logger *zap.Logger) *Cache {
	return &Cache{
		gw:       gw,
		address:  address,
		interval: DefaultRefreshInterval,
		logger:   logger.With(zap.String("component", "PoolSnapshot")),
	}
}

// Snapshot returns the last refreshed snapshot.
func (c *Cache) Snapshot() model.PoolSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Refresh pulls fresh figures from the gateway. The returned error mirrors
// the snapshot's Err field; callers polling on a timer may ignore it.
func (c *Cache) Refresh(ctx context.Context) error {
	info, err := c.gw.PoolInfo(ctx)
	if err != nil {
		return c.recordFailure(errors.Wrap(err, "failed fetching pool info"))
	}

	var user *model.UserInfo
	if c.address != "" {
		user, err = c.gw.UserInfo(ctx, c.address)
		if err != nil {
			return c.recordFailure(errors.Wrap(err, "failed fetching user info"))
		}
	}

	totalDeposited, err := strconv.ParseFloat(info.TotalDeposited, 64)
	if err != nil {
		return c.recordFailure(errors.Wrapf(err, "unparseable pool total %q", info.TotalDeposited))
	}
	prize, err := strconv.ParseFloat(info.PrizeAmount, 64)
	if err != nil {
		return c.recordFailure(errors.Wrapf(err, "unparseable prize amount %q", info.PrizeAmount))
	}

	snap := model.PoolSnapshot{
		TotalDeposited:    totalDeposited,
		TotalParticipants: info.TotalParticipants,
		PrizeAmount:       prize,
		NextDrawDate:      time.Unix(info.NextDrawDate, 0).UTC(),
		RefreshedAt:       time.Now().UTC(),
	}
	if user != nil {
		deposited, err := strconv.ParseFloat(user.Deposited, 64)
		if err != nil {
			return c.recordFailure(errors.Wrapf(err, "unparseable user deposit %q", user.Deposited))
		}
		snap.UserDeposit = deposited
		snap.UserTickets = user.Tickets
		snap.WinProbability = winProbability(user.Tickets, totalDeposited)
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	return nil
}

// StartRefresher refreshes immediately and then on a fixed interval until
// the context is cancelled.
func (c *Cache) StartRefresher(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("initial snapshot refresh failed", zap.Error(err))
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopping snapshot refresher, context cancelled")
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("snapshot refresh failed, keeping last snapshot", zap.Error(err))
			}
		}
	}
}

func (c *Cache) recordFailure(err error) error {
	c.mu.Lock()
	c.snap.Err = err.Error()
	c.mu.Unlock()
	return err
}

// winProbability is tickets over total pool tickets, as a percentage clamped
// to [0,100]. The pool's ticket total is derived from total deposits at the
// fixed ticket price; tickets/tickets keeps the ratio dimensionless.
func winProbability(userTickets int, totalDeposited float64) float64 {
	totalTickets := model.TicketsFor(totalDeposited)
	if totalTickets < 1 {
		totalTickets = 1
	}
	p := float64(userTickets) / float64(totalTickets) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
