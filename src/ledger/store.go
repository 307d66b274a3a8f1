package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AngeluzFranco/OrbitSave/src/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrNotFound       = errors.New("transaction not found")
	ErrTerminalStatus = errors.New("transaction already in a terminal status")
	ErrInvalidAmount  = errors.New("amount must be non-negative")
	ErrInvalidType    = errors.New("unknown transaction type")
	ErrInvalidStatus  = errors.New("unknown transaction status")
)

// Store maintains a locally-trusted mirror of a session's financial history.
// Every mutation is written through to the configured persistence; if a write
// fails the store degrades to in-memory operation instead of crashing.
type Store struct {
	sessionKey  string
	persistence Persistence
	logger      *zap.Logger

	mu       sync.Mutex
	state    model.LedgerState
	degraded bool
}

// NewStore creates a store for the given session key, rehydrating any
// previously persisted state. A load failure is logged and treated as an
// empty ledger rather than propagated.
func NewStore(ctx context.Context, sessionKey string, persistence Persistence, logger *zap.Logger) *Store {
	s := &Store{
		sessionKey:  sessionKey,
		persistence: persistence,
		logger:      logger.With(zap.String("component", "LedgerStore")),
		state: model.LedgerState{
			Transactions:       []*model.Transaction{},
			LastActivityUpdate: time.Now().UTC(),
		},
	}

	loaded, err := persistence.LoadState(ctx, sessionKey)
	if err != nil {
		s.logger.Warn("failed loading persisted ledger, starting empty", zap.Error(err))
		return s
	}
	if loaded != nil {
		if loaded.Transactions == nil {
			loaded.Transactions = []*model.Transaction{}
		}
		s.state = *loaded
	}
	return s
}

// AddTransaction creates a transaction with a fresh id and the current
// timestamp, inserts it at the head of the history and, when inserted
// directly as confirmed, applies its balance effect. Returns the new id.
func (s *Store) AddTransaction(ctx context.Context, txType model.TxType, amount float64, status model.TxStatus, tickets *int) (string, error) {
	if amount < 0 {
		return "", ErrInvalidAmount
	}
	if !txType.Valid() {
		return "", errors.Wrapf(ErrInvalidType, "%q", txType)
	}
	switch status {
	case model.TxStatusPending, model.TxStatusConfirmed, model.TxStatusFailed:
	default:
		return "", errors.Wrapf(ErrInvalidStatus, "%q", status)
	}

	tx := &model.Transaction{
		ID:      fmt.Sprintf("tx_%s", uuid.NewString()),
		Type:    txType,
		Amount:  amount,
		Date:    time.Now().UTC(),
		Status:  status,
		Tickets: tickets,
	}

	s.mu.Lock()
	s.state.Transactions = append([]*model.Transaction{tx}, s.state.Transactions...)
	if status == model.TxStatusConfirmed {
		s.applyConfirmEffect(tx)
	}
	s.state.LastActivityUpdate = time.Now().UTC()
	s.persistLocked(ctx)
	s.mu.Unlock()

	return tx.ID, nil
}

// ResolveTransaction transitions a transaction to a new status, attaching the
// settlement hash when provided. The balance effect is applied exactly once,
// on the transition into confirmed from a non-confirmed status. An unknown id
// leaves the ledger untouched and returns ErrNotFound; resolving to the same
// status is a no-op.
func (s *Store) ResolveTransaction(ctx context.Context, id string, status model.TxStatus, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tx *model.Transaction
	for _, t := range s.state.Transactions {
		if t.ID == id {
			tx = t
			break
		}
	}
	if tx == nil {
		s.logger.Warn("resolve for unknown transaction id", zap.String("id", id), zap.String("status", string(status)))
		return ErrNotFound
	}
	if tx.Status == status {
		if hash != "" && tx.Hash == "" {
			tx.Hash = hash
			s.persistLocked(ctx)
		}
		return nil
	}
	if tx.Status.Terminal() {
		return errors.Wrapf(ErrTerminalStatus, "%s -> %s", tx.Status, status)
	}

	if status == model.TxStatusConfirmed {
		s.applyConfirmEffect(tx)
	}
	tx.Status = status
	if hash != "" {
		tx.Hash = hash
	}
	s.state.LastActivityUpdate = time.Now().UTC()
	s.persistLocked(ctx)
	return nil
}

// applyConfirmEffect folds a newly confirmed transaction into the aggregates.
// Callers hold s.mu and guarantee this runs at most once per transaction.
func (s *Store) applyConfirmEffect(tx *model.Transaction) {
	switch tx.Type {
	case model.TxTypeDeposit:
		s.state.Balance += tx.Amount
		s.state.TotalDeposited += tx.Amount
		if tx.Tickets != nil {
			s.state.TotalTickets += *tx.Tickets
		} else {
			s.state.TotalTickets += model.TicketsFor(tx.Amount)
		}
	case model.TxTypeWithdraw:
		s.state.Balance -= tx.Amount
		// TotalDeposited is a lifetime cumulative counter, never reduced.
		s.state.TotalTickets -= model.TicketsFor(tx.Amount)
		if s.state.TotalTickets < 0 {
			s.state.TotalTickets = 0
		}
	case model.TxTypePrizeWon:
		s.state.Balance += tx.Amount
	case model.TxTypePrizeLost:
		// informational only
	}
}

// FailStalePending marks pending transactions older than ttl as failed.
// Returns the ids that were failed.
func (s *Store) FailStalePending(ctx context.Context, ttl time.Duration) []string {
	cutoff := time.Now().UTC().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var failed []string
	for _, tx := range s.state.Transactions {
		if tx.Status == model.TxStatusPending && tx.Date.Before(cutoff) {
			tx.Status = model.TxStatusFailed
			failed = append(failed, tx.ID)
		}
	}
	if len(failed) > 0 {
		s.logger.Warn("failed stale pending transactions", zap.Strings("ids", failed), zap.Duration("ttl", ttl))
		s.state.LastActivityUpdate = time.Now().UTC()
		s.persistLocked(ctx)
	}
	return failed
}

// Reset clears all transactions and aggregates and removes the persisted
// blob. Used on wallet disconnect so one session's ledger never leaks into
// the next.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.state = model.LedgerState{
		Transactions:       []*model.Transaction{},
		LastActivityUpdate: time.Now().UTC(),
	}
	s.mu.Unlock()

	if err := s.persistence.ClearState(ctx, s.sessionKey); err != nil {
		return errors.Wrap(err, "failed clearing persisted ledger")
	}
	return nil
}

func (s *Store) Balance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Balance
}

func (s *Store) TotalDeposited() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalDeposited
}

func (s *Store) TotalTickets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalTickets
}

// Transactions returns a newest-first copy of the history.
func (s *Store) Transactions() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Transaction, 0, len(s.state.Transactions))
	for _, tx := range s.state.Transactions {
		out = append(out, *tx)
	}
	return out
}

// State returns a deep copy of the full ledger state.
func (s *Store) State() model.LedgerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyStateLocked()
}

func (s *Store) copyStateLocked() model.LedgerState {
	out := s.state
	out.Transactions = make([]*model.Transaction, 0, len(s.state.Transactions))
	for _, tx := range s.state.Transactions {
		c := *tx
		out.Transactions = append(out.Transactions, &c)
	}
	return out
}

// ActivitySummary describes recent ledger activity over a trailing window.
type ActivitySummary struct {
	WindowDays   int
	Count        int
	PrizeTotal   float64
	LastActivity time.Time
}

// ActivitySummary counts transactions inside the trailing window and totals
// lifetime confirmed prize winnings.
func (s *Store) ActivitySummary(windowDays int) ActivitySummary {
	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := ActivitySummary{
		WindowDays:   windowDays,
		LastActivity: s.state.LastActivityUpdate,
	}
	for _, tx := range s.state.Transactions {
		if tx.Date.After(cutoff) {
			out.Count++
		}
		if tx.Type == model.TxTypePrizeWon && tx.Status == model.TxStatusConfirmed {
			out.PrizeTotal += tx.Amount
		}
	}
	return out
}

// persistLocked writes the whole state through to storage. Persistence
// failures demote the store to in-memory operation with a single warning.
func (s *Store) persistLocked(ctx context.Context) {
	state := s.copyStateLocked()
	if err := s.persistence.SaveState(ctx, s.sessionKey, &state); err != nil {
		if !s.degraded {
			s.logger.Warn("persistence unavailable, continuing in-memory only", zap.Error(err))
			s.degraded = true
		}
		return
	}
	s.degraded = false
}
