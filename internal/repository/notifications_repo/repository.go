package notifications_repo

import (
	"context"

	"billing/internal/domain"
)

type NotificationRepository interface {
	CreateTx(ctx context.Context, querier domain.Querier, notification *domain.Notification) error
}
