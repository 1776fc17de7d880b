package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notification — запись в журнале уведомлений: каждый принятый webhook шлюза
// сохраняется вместе с исходным телом и отметкой, был ли применён переход.
type Notification struct {
	ID            string
	PaymentID     string
	GatewayStatus string
	TotalAmount   decimal.Decimal
	Payload       []byte
	Applied       bool
	ReceivedAt    time.Time
}
