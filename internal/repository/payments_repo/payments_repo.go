package payments_repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"billing/internal/domain"

	"github.com/lib/pq"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *paymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreateTx(ctx context.Context, querier domain.Querier, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := querier.ExecContext(ctx, query,
		payment.ID,
		payment.UserID,
		payment.Amount,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return domain.ErrPaymentAlreadyExists
		}
		return fmt.Errorf("failed to create payment %s: %w", payment.ID, err)
	}
	return nil
}

func (r *paymentRepository) GetByIDTx(ctx context.Context, querier domain.Querier, id string) (*domain.Payment, error) {
	query := `
		SELECT id, user_id, amount, status, created_at, updated_at
		FROM payments
		WHERE id = $1
	`
	return r.scanPayment(querier.QueryRowContext(ctx, query, id), id)
}

func (r *paymentRepository) GetByIDForUpdateTx(ctx context.Context, querier domain.Querier, id string) (*domain.Payment, error) {
	query := `
		SELECT id, user_id, amount, status, created_at, updated_at
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanPayment(querier.QueryRowContext(ctx, query, id), id)
}

func (r *paymentRepository) scanPayment(row *sql.Row, id string) (*domain.Payment, error) {
	payment := &domain.Payment{}
	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.Amount,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment by id %s: %w", id, err)
	}
	return payment, nil
}

func (r *paymentRepository) UpdateStatusTx(ctx context.Context, querier domain.Querier, id string, status domain.PaymentStatus) error {
	query := `
		UPDATE payments
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	res, err := querier.ExecContext(ctx, query, string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update payment status %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for payment status update: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}
