package notifications_repo

import (
	"context"
	"database/sql"
	"fmt"

	"billing/internal/domain"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateTx(ctx context.Context, querier domain.Querier, notification *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, payment_id, gateway_status, total_amount, payload, applied, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := querier.ExecContext(ctx, query,
		notification.ID,
		notification.PaymentID,
		notification.GatewayStatus,
		notification.TotalAmount,
		notification.Payload,
		notification.Applied,
		notification.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification for payment %s: %w", notification.PaymentID, err)
	}
	return nil
}
