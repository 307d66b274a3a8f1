package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/AngeluzFranco/OrbitSave/src/model"
	"github.com/pkg/errors"
)

// MockSubmission records one deposit/withdraw sent through the mock.
type MockSubmission struct {
	Method  string
	Address string
	Amount  string
}

// MockGateway is a deterministic in-memory PoolGateway for tests and demo
// mode. Hashes are sequential, never random.
type MockGateway struct {
	mu          sync.Mutex
	submissions []MockSubmission
	hashCounter int

	Pool    model.PoolInfo
	Users   map[string]*model.UserInfo
	Draws   []*model.DrawResult
	Balance string

	// FailNext makes the next submission report a contract-level failure.
	FailNext bool
	// Err, when set, is returned from every call as a transport error.
	Err error
	// OnSubmit, when set, runs inside every deposit/withdraw before the
	// result is produced.
	OnSubmit func(sub MockSubmission)
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		Balance: "0",
		Users:   map[string]*model.UserInfo{},
	}
}

// Submissions returns a copy of everything submitted so far.
func (m *MockGateway) Submissions() []MockSubmission {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockSubmission, len(m.submissions))
	copy(out, m.submissions)
	return out
}

func (m *MockGateway) submit(ctx context.Context, method, address, amount string) (*model.SubmitResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	sub := MockSubmission{Method: method, Address: address, Amount: amount}
	if m.OnSubmit != nil {
		m.OnSubmit(sub)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, sub)
	if m.FailNext {
		m.FailNext = false
		return &model.SubmitResult{Success: false, Error: fmt.Sprintf("%s rejected", method)}, nil
	}
	m.hashCounter++
	return &model.SubmitResult{
		Success: true,
		TxHash:  fmt.Sprintf("mocktx-%04d", m.hashCounter),
	}, nil
}

func (m *MockGateway) Deposit(ctx context.Context, address string, amount string) (*model.SubmitResult, error) {
	return m.submit(ctx, "deposit", address, amount)
}

func (m *MockGateway) Withdraw(ctx context.Context, address string, amount string) (*model.SubmitResult, error) {
	return m.submit(ctx, "withdraw", address, amount)
}

func (m *MockGateway) ContractBalance(ctx context.Context) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Balance, nil
}

func (m *MockGateway) PoolInfo(ctx context.Context) (*model.PoolInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	pool := m.Pool
	return &pool, nil
}

func (m *MockGateway) UserInfo(ctx context.Context, address string) (*model.UserInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if user, ok := m.Users[address]; ok {
		c := *user
		return &c, nil
	}
	return nil, errors.Errorf("unknown address %s", address)
}

func (m *MockGateway) DrawHistory(ctx context.Context) ([]*model.DrawResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*model.DrawResult, len(m.Draws))
	copy(out, m.Draws)
	return out, nil
}
