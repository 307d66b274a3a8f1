package ledger

import (
	"context"
	"sync"

	"github.com/AngeluzFranco/OrbitSave/src/model"
)

// Persistence stores the serialized ledger blob and the wallet-session flags
// for a session key. LoadState/LoadWallet return (nil, nil) when nothing has
// been persisted yet.
type Persistence interface {
	LoadState(ctx context.Context, key string) (*model.LedgerState, error)
	SaveState(ctx context.Context, key string, state *model.LedgerState) error
	ClearState(ctx context.Context, key string) error

	LoadWallet(ctx context.Context, key string) (*model.WalletSession, error)
	SaveWallet(ctx context.Context, key string, session *model.WalletSession) error
	ClearWallet(ctx context.Context, key string) error
}

// MemoryPersistence keeps blobs in-process. Used as the fallback when no
// external store is configured, and in tests.
type MemoryPersistence struct {
	mu      sync.Mutex
	states  map[string][]byte
	wallets map[string][]byte
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{
		states:  map[string][]byte{},
		wallets: map[string][]byte{},
	}
}

func (m *MemoryPersistence) LoadState(ctx context.Context, key string) (*model.LedgerState, error) {
	m.mu.Lock()
	raw, ok := m.states[key]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeState(raw)
}

func (m *MemoryPersistence) SaveState(ctx context.Context, key string, state *model.LedgerState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.states[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryPersistence) ClearState(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.states, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryPersistence) LoadWallet(ctx context.Context, key string) (*model.WalletSession, error) {
	m.mu.Lock()
	raw, ok := m.wallets[key]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeWallet(raw)
}

func (m *MemoryPersistence) SaveWallet(ctx context.Context, key string, session *model.WalletSession) error {
	raw, err := encodeWallet(session)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.wallets[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryPersistence) ClearWallet(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.wallets, key)
	m.mu.Unlock()
	return nil
}
