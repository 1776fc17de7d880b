package users_repo

import (
	"context"

	"billing/internal/domain"

	"github.com/shopspring/decimal"
)

type UserRepository interface {
	CreateTx(ctx context.Context, querier domain.Querier, user *domain.User) (int64, error)
	GetByIDTx(ctx context.Context, querier domain.Querier, id int64) (*domain.User, error)
	GetByEmailTx(ctx context.Context, querier domain.Querier, email string) (*domain.User, error)
	AddToBalanceTx(ctx context.Context, querier domain.Querier, userID int64, delta decimal.Decimal) error
}
