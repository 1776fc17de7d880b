package domain

import "time"

// PaymentCreatedEvent - событие, публикуемое при создании заказа на шлюзе
type PaymentCreatedEvent struct {
	PaymentID string    `json:"payment_id"`
	UserID    int64     `json:"user_id"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentStatusChangedEvent - событие, публикуемое при применённом переходе
// статуса платежа из PENDING
type PaymentStatusChangedEvent struct {
	PaymentID   string    `json:"payment_id"`
	UserID      int64     `json:"user_id"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	TotalAmount string    `json:"total_amount"`
	Timestamp   time.Time `json:"timestamp"`
}
