package gateway

import (
	"context"

	"github.com/AngeluzFranco/OrbitSave/src/model"
)

// PoolGateway is the binding to the external prize-pool contract. All
// financial truth lives behind this interface; this codebase only mirrors it.
type PoolGateway interface {
	Deposit(ctx context.Context, address string, amount string) (*model.SubmitResult, error)
	Withdraw(ctx context.Context, address string, amount string) (*model.SubmitResult, error)
	ContractBalance(ctx context.Context) (string, error)
	PoolInfo(ctx context.Context) (*model.PoolInfo, error)
	UserInfo(ctx context.Context, address string) (*model.UserInfo, error)
	DrawHistory(ctx context.Context) ([]*model.DrawResult, error)
}
