package billing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"billing/internal/domain"
	"billing/internal/gateway"
	"billing/internal/repository/notifications_repo"
	"billing/internal/repository/outbox_repo"
	"billing/internal/repository/payments_repo"
	"billing/internal/repository/users_repo"
	"billing/internal/util"
)

// GatewayClient — исходящая сторона: авторизация на шлюзе и создание заказа.
type GatewayClient interface {
	Authorize(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, token string, user *domain.User, amount decimal.Decimal, clientIP string) (*gateway.Order, error)
}

// GatewayNotification — разобранное тело webhook-а шлюза.
type GatewayNotification struct {
	OrderID          string
	Status           string
	TotalAmountMinor int64
}

type BillingService interface {
	CreatePayment(ctx context.Context, userID int64, amount decimal.Decimal, clientIP string) (string, error)
	ProcessNotification(ctx context.Context, notification GatewayNotification, rawPayload []byte) error
	GetUserBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
}

type billingService struct {
	db          *sql.DB
	gateway     GatewayClient
	userRepo    users_repo.UserRepository
	paymentRepo payments_repo.PaymentRepository
	notifRepo   notifications_repo.NotificationRepository
	outboxRepo  outbox_repo.OutboxRepository
	eventsTopic string
	logger      *zap.Logger
}

func NewBillingService(
	db *sql.DB,
	gatewayClient GatewayClient,
	userRepo users_repo.UserRepository,
	paymentRepo payments_repo.PaymentRepository,
	notifRepo notifications_repo.NotificationRepository,
	outboxRepo outbox_repo.OutboxRepository,
	eventsTopic string,
	logger *zap.Logger,
) BillingService {
	return &billingService{
		db:          db,
		gateway:     gatewayClient,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		notifRepo:   notifRepo,
		outboxRepo:  outboxRepo,
		eventsTopic: eventsTopic,
		logger:      logger,
	}
}

// CreatePayment проводит цепочку: пользователь → токен шлюза → заказ на шлюзе
// → запись PENDING-платежа. Возвращает redirectUri шлюза.
func (s *billingService) CreatePayment(ctx context.Context, userID int64, amount decimal.Decimal, clientIP string) (string, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", domain.ErrInvalidAmount
	}

	user, err := s.userRepo.GetByIDTx(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("Пользователь для платежа не найден", zap.Int64("user_id", userID))
			return "", domain.ErrUserNotFound
		}
		return "", fmt.Errorf("не удалось получить пользователя %d: %w", userID, err)
	}

	token, err := s.gateway.Authorize(ctx)
	if err != nil {
		s.logger.Error("Авторизация на шлюзе не удалась", zap.Int64("user_id", userID), zap.Error(err))
		return "", err
	}

	order, err := s.gateway.CreateOrder(ctx, token, user, amount, clientIP)
	if err != nil {
		s.logger.Error("Не удалось создать заказ на шлюзе", zap.Int64("user_id", userID), zap.Error(err))
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("не удалось начать транзакцию: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Восстановлена паника во время записи платежа, выполняется откат", zap.String("order_id", order.OrderID), zap.Any("panic", r))
			tx.Rollback()
			panic(r)
		}
	}()

	now := time.Now()
	payment := &domain.Payment{
		ID:        order.OrderID,
		UserID:    userID,
		Amount:    amount,
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.paymentRepo.CreateTx(ctx, tx, payment); err != nil {
		tx.Rollback()
		if errors.Is(err, domain.ErrPaymentAlreadyExists) {
			s.logger.Warn("Шлюз выдал уже существующий order_id", zap.String("order_id", order.OrderID))
			return "", domain.ErrPaymentAlreadyExists
		}
		return "", fmt.Errorf("не удалось записать платёж %s: %w", order.OrderID, err)
	}

	eventPayload, err := json.Marshal(domain.PaymentCreatedEvent{
		PaymentID: payment.ID,
		UserID:    userID,
		Amount:    amount.String(),
		Status:    string(payment.Status),
		Timestamp: now,
	})
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("не удалось подготовить событие о создании платежа: %w", err)
	}
	outboxMsg := &domain.OutboxMessage{
		ID:        util.GenerateUUID(),
		Topic:     s.eventsTopic,
		Key:       payment.ID,
		Payload:   eventPayload,
		Status:    domain.OutboxStatusPending,
		CreatedAt: now,
	}
	if err := s.outboxRepo.CreateMessageTx(ctx, tx, outboxMsg); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("не удалось создать outbox-сообщение для платежа %s: %w", payment.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}

	s.logger.Info("Платёж создан",
		zap.String("order_id", payment.ID),
		zap.Int64("user_id", userID),
		zap.String("amount", amount.String()),
	)
	return order.RedirectURI, nil
}

// ProcessNotification применяет статус из webhook-а к платежу не более одного
// раза. Платёж читается FOR UPDATE, поэтому конкурирующие уведомления по
// одному заказу сериализуются на строке.
func (s *billingService) ProcessNotification(ctx context.Context, notification GatewayNotification, rawPayload []byte) error {
	totalAmount := decimal.New(notification.TotalAmountMinor, -2)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Восстановлена паника во время обработки уведомления, выполняется откат", zap.String("order_id", notification.OrderID), zap.Any("panic", r))
			tx.Rollback()
			panic(r)
		}
	}()

	payment, err := s.paymentRepo.GetByIDForUpdateTx(ctx, tx, notification.OrderID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, domain.ErrPaymentNotFound) {
			s.logger.Warn("Уведомление для неизвестного заказа", zap.String("order_id", notification.OrderID))
			return domain.ErrPaymentNotFound
		}
		return fmt.Errorf("не удалось получить платёж %s: %w", notification.OrderID, err)
	}

	newStatus, err := domain.MapGatewayStatus(notification.Status)
	if err != nil {
		tx.Rollback()
		s.logger.Warn("Уведомление с неизвестным статусом шлюза",
			zap.String("order_id", notification.OrderID),
			zap.String("gateway_status", notification.Status),
		)
		return err
	}

	applied := payment.CanTransitionTo(newStatus)

	notifRecord := &domain.Notification{
		ID:            util.GenerateUUID(),
		PaymentID:     payment.ID,
		GatewayStatus: notification.Status,
		TotalAmount:   totalAmount,
		Payload:       rawPayload,
		Applied:       applied,
		ReceivedAt:    time.Now(),
	}
	if err := s.notifRepo.CreateTx(ctx, tx, notifRecord); err != nil {
		tx.Rollback()
		return fmt.Errorf("не удалось записать уведомление для платежа %s: %w", payment.ID, err)
	}

	if !applied {
		// Повторное или устаревшее уведомление: фиксируем только журнал.
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
		}
		s.logger.Info("Переход не применён: платёж уже в конечном статусе",
			zap.String("order_id", payment.ID),
			zap.String("status", string(payment.Status)),
			zap.String("gateway_status", notification.Status),
		)
		return nil
	}

	if err := s.paymentRepo.UpdateStatusTx(ctx, tx, payment.ID, newStatus); err != nil {
		tx.Rollback()
		return fmt.Errorf("не удалось обновить статус платежа %s: %w", payment.ID, err)
	}

	if newStatus == domain.PaymentStatusSuccess {
		// Начисляем сумму из уведомления, а не исходно запрошенную.
		err := s.userRepo.AddToBalanceTx(ctx, tx, payment.UserID, totalAmount)
		if err != nil {
			if !errors.Is(err, domain.ErrUserNotFound) {
				tx.Rollback()
				return fmt.Errorf("не удалось начислить баланс пользователю %d: %w", payment.UserID, err)
			}
			// Пользователь исчез после создания платежа: начисление пропускаем.
			s.logger.Warn("Пользователь платежа не найден, баланс не начислен",
				zap.String("order_id", payment.ID),
				zap.Int64("user_id", payment.UserID),
			)
		}
	}

	eventPayload, err := json.Marshal(domain.PaymentStatusChangedEvent{
		PaymentID:   payment.ID,
		UserID:      payment.UserID,
		OldStatus:   string(payment.Status),
		NewStatus:   string(newStatus),
		TotalAmount: totalAmount.String(),
		Timestamp:   time.Now(),
	})
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("не удалось подготовить событие о смене статуса: %w", err)
	}
	outboxMsg := &domain.OutboxMessage{
		ID:        util.GenerateUUID(),
		Topic:     s.eventsTopic,
		Key:       payment.ID,
		Payload:   eventPayload,
		Status:    domain.OutboxStatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.outboxRepo.CreateMessageTx(ctx, tx, outboxMsg); err != nil {
		tx.Rollback()
		return fmt.Errorf("не удалось создать outbox-сообщение для платежа %s: %w", payment.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}

	s.logger.Info("Статус платежа обновлён",
		zap.String("order_id", payment.ID),
		zap.String("old_status", string(payment.Status)),
		zap.String("new_status", string(newStatus)),
		zap.String("total_amount", totalAmount.String()),
	)
	return nil
}

func (s *billingService) GetUserBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	user, err := s.userRepo.GetByIDTx(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return decimal.Zero, domain.ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("не удалось получить пользователя %d: %w", userID, err)
	}
	return user.Balance, nil
}
