package ledger

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

var (
	ErrNotConnected        = errors.New("wallet not connected")
	ErrNonPositiveAmount   = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("amount exceeds available balance")
	ErrActionInFlight      = errors.New("another transaction of this type is still pending")
)

const (
	DefaultPendingTTL    = 15 * time.Minute
	DefaultSweepInterval = time.Minute
)

type SessionConfig struct {
	Address       string
	PendingTTL    time.Duration
	SweepInterval time.Duration
}

// Session ties a connected wallet to its ledger store and the contract
// gateway. It owns the two-phase lifecycle of every user action: validate,
// insert pending, await the gateway, resolve confirmed or failed.
type Session struct {
	config      SessionConfig
	store       *Store
	gw          gateway.PoolGateway
	persistence Persistence
	logger      *zap.Logger

	mu       sync.Mutex
	inflight map[model.TxType]bool
}

// NewSession rehydrates the ledger for the address, fails any pending
// transactions that went stale across reloads, and records the wallet
// session flags.
func NewSession(ctx context.Context, cfg SessionConfig, persistence Persistence, gw gateway.PoolGateway, logger *zap.Logger) (*Session, error) {
	if cfg.Address == "" {
		return nil, ErrNotConnected
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = DefaultPendingTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	s := &Session{
		config:      cfg,
		store:       NewStore(ctx, cfg.Address, persistence, logger),
		gw:          gw,
		persistence: persistence,
		logger:      logger.With(zap.String("component", "WalletSession"), zap.String("address", cfg.Address)),
		inflight:    map[model.TxType]bool{},
	}

	s.store.FailStalePending(ctx, cfg.PendingTTL)

	if err := persistence.SaveWallet(ctx, cfg.Address, &model.WalletSession{
		Connected: true,
		Address:   cfg.Address,
		Balance:   s.store.Balance(),
	}); err != nil {
		s.logger.Warn("failed persisting wallet session flags", zap.Error(err))
	}
	return s, nil
}

// Store exposes the underlying ledger for read consumers.
func (s *Session) Store() *Store {
	return s.store
}

// Deposit validates, inserts a pending deposit, submits it through the
// gateway and resolves it. The returned id refers to the ledger entry
// regardless of outcome; a failed submission leaves it visible as failed.
func (s *Session) Deposit(ctx context.Context, amount float64) (string, error) {
	if amount <= 0 {
		return "", ErrNonPositiveAmount
	}
	return s.submit(ctx, model.TxTypeDeposit, amount)
}

// Withdraw is Deposit's mirror, with the additional overdraft precondition
// checked before anything is inserted.
func (s *Session) Withdraw(ctx context.Context, amount float64) (string, error) {
	if amount <= 0 {
		return "", ErrNonPositiveAmount
	}
	if amount > s.store.Balance() {
		return "", ErrInsufficientBalance
	}
	return s.submit(ctx, model.TxTypeWithdraw, amount)
}

func (s *Session) submit(ctx context.Context, txType model.TxType, amount float64) (string, error) {
	if err := s.acquire(txType); err != nil {
		return "", err
	}
	defer s.release(txType)

	id, err := s.store.AddTransaction(ctx, txType, amount, model.TxStatusPending, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed recording pending transaction")
	}

	amountStr := strconv.FormatFloat(amount, 'f', -1, 64)
	var result *model.SubmitResult
	switch txType {
	case model.TxTypeDeposit:
		result, err = s.gw.Deposit(ctx, s.config.Address, amountStr)
	case model.TxTypeWithdraw:
		result, err = s.gw.Withdraw(ctx, s.config.Address, amountStr)
	}
	if err != nil {
		s.failPending(ctx, id)
		return id, errors.Wrapf(err, "%s submission failed", txType)
	}
	if !result.Success {
		s.failPending(ctx, id)
		return id, errors.Errorf("%s rejected: %s", txType, result.Error)
	}

	if err := s.store.ResolveTransaction(ctx, id, model.TxStatusConfirmed, result.TxHash); err != nil {
		return id, errors.Wrap(err, "failed confirming transaction")
	}
	s.saveWalletBalance(ctx)
	return id, nil
}

// RecordPrize inserts a confirmed prize outcome from a draw. Losing entries
// are informational and never touch the balance.
func (s *Session) RecordPrize(ctx context.Context, amount float64, won bool) (string, error) {
	txType := model.TxTypePrizeLost
	if won {
		txType = model.TxTypePrizeWon
	}
	id, err := s.store.AddTransaction(ctx, txType, amount, model.TxStatusConfirmed, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed recording prize outcome")
	}
	s.saveWalletBalance(ctx)
	return id, nil
}

// StartSweep periodically fails pending transactions older than the TTL.
// Blocks until the context is cancelled.
func (s *Session) StartSweep(ctx context.Context) {
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping pending sweep, context cancelled")
			return
		case <-ticker.C:
			s.store.FailStalePending(ctx, s.config.PendingTTL)
		}
	}
}

// Disconnect resets the ledger and clears everything persisted for this
// session.
func (s *Session) Disconnect(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	if err := s.persistence.ClearWallet(ctx, s.config.Address); err != nil {
		return errors.Wrap(err, "failed clearing wallet session flags")
	}
	return nil
}

func (s *Session) acquire(txType model.TxType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[txType] {
		return ErrActionInFlight
	}
	s.inflight[txType] = true
	return nil
}

func (s *Session) release(txType model.TxType) {
	s.mu.Lock()
	s.inflight[txType] = false
	s.mu.Unlock()
}

func (s *Session) failPending(ctx context.Context, id string) {
	if err := s.store.ResolveTransaction(ctx, id, model.TxStatusFailed, ""); err != nil {
		s.logger.Error("failed marking transaction as failed", zap.String("id", id), zap.Error(err))
	}
}

func (s *Session) saveWalletBalance(ctx context.Context) {
	if err := s.persistence.SaveWallet(ctx, s.config.Address, &model.WalletSession{
		Connected: true,
		Address:   s.config.Address,
		Balance:   s.store.Balance(),
	}); err != nil {
		s.logger.Warn("failed persisting wallet session flags", zap.Error(err))
	}
}
