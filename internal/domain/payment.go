package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusCanceled PaymentStatus = "CANCELED"
)

var ErrPaymentNotFound = errors.New("payment not found")
var ErrPaymentAlreadyExists = errors.New("payment already exists")
var ErrUnmappedStatus = errors.New("unmapped gateway status")
var ErrInvalidAmount = errors.New("invalid payment amount")

// Payment — платёж в локальном реестре. ID выдаёт шлюз вместе с созданным
// заказом, поэтому он же служит первичным ключом.
type Payment struct {
	ID        string
	UserID    int64
	Amount    decimal.Decimal
	Status    PaymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MapGatewayStatus переводит статус шлюза во внутренний статус платежа.
// Неизвестный литерал — ошибка, а не статус по умолчанию.
func MapGatewayStatus(gatewayStatus string) (PaymentStatus, error) {
	switch gatewayStatus {
	case "COMPLETED":
		return PaymentStatusSuccess, nil
	case "CANCELED":
		return PaymentStatusCanceled, nil
	case "PENDING":
		return PaymentStatusPending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnmappedStatus, gatewayStatus)
	}
}

// CanTransitionTo: переход допустим только из PENDING и только в другой
// статус. SUCCESS и CANCELED — конечные состояния.
func (p *Payment) CanTransitionTo(next PaymentStatus) bool {
	return p.Status == PaymentStatusPending && next != p.Status
}
