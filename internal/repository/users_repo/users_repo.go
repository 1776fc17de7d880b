package users_repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"billing/internal/domain"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateTx(ctx context.Context, querier domain.Querier, user *domain.User) (int64, error) {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, address, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id int64
	err := querier.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Address,
		user.Balance,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return 0, domain.ErrUserAlreadyExists
		}
		return 0, fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}
	return id, nil
}

func (r *userRepository) GetByIDTx(ctx context.Context, querier domain.Querier, id int64) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, address, balance, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(querier.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmailTx(ctx context.Context, querier domain.Querier, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, address, balance, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(querier.QueryRowContext(ctx, query, email))
}

func (r *userRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Address,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) AddToBalanceTx(ctx context.Context, querier domain.Querier, userID int64, delta decimal.Decimal) error {
	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = $2
		WHERE id = $3
	`
	res, err := querier.ExecContext(ctx, query, delta, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update balance for user %d: %w", userID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for balance update: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
