package event

import (
	"encoding/json"
	"time"
)

const Topic = "order.events"

const (
	TypeOrderCreated   = "OrderCreated"
	TypeOrderCompleted = "OrderCompleted"
	TypeOrderCancelled = "OrderCancelled"
	TypeOrderExpired   = "OrderExpired"
)

type Envelope struct {
	EventID      string          `json:"event_id"` // uuid
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"` // 1
	OccurredAt   time.Time       `json:"occurred_at"`   // RFC3339
	Producer     string          `json:"producer"`      // "market-api"
	Payload      json.RawMessage `json:"payload"`
}

// イベントごとのpayload

type OrderCreatedPayload struct {
	OrderID       int64 `json:"order_id"`
	UserID        int64 `json:"user_id"`
	Subtotal      int64 `json:"subtotal"`
	TotalQuantity int64 `json:"total_quantity"`
	UsePoint      int64 `json:"use_point"`
}

type OrderCompletedPayload struct {
	OrderID      int64  `json:"order_id"`
	UserID       int64  `json:"user_id"`
	PaymentID    string `json:"payment_id"`
	PaymentPrice int64  `json:"payment_price"`
	EarnedPoint  int64  `json:"earned_point"`
}

type OrderCancelledPayload struct {
	OrderID       int64 `json:"order_id"`
	UserID        int64 `json:"user_id"`
	WasPaid       bool  `json:"was_paid"`
	RefundedPoint int64 `json:"refunded_point"`
}

type OrderExpiredPayload struct {
	OrderID int64 `json:"order_id"`
	UserID  int64 `json:"user_id"`
}
