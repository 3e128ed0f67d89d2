package model

import "time"

type OrderStatus string

const (
	// 決済待ち（初期状態）。作成から10分で期限切れ。
	OrderStatusWaitingPayment OrderStatus = "WAITING_PAYMENT"
	// 決済確定済み
	OrderStatusCompletedPayment OrderStatus = "COMPLETED_PAYMENT"
	// キャンセル済み（購入者キャンセル・期限切れ）。行は残す。
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64       `gorm:"not null;index" json:"user_id"`
	Status OrderStatus `gorm:"type:varchar(30);not null;index" json:"status"`

	// 配送先。WAITING_PAYMENTの間だけ変更できる。
	ReceiverName    string `gorm:"type:varchar(100);not null" json:"receiver_name"`
	ReceiverPhone   string `gorm:"type:varchar(30);not null" json:"receiver_phone"`
	ReceiverAddress string `gorm:"type:varchar(255);not null" json:"receiver_address"`

	// Subtotalは割引適用後の明細合計。Subtotal - UsePoint >= 0。
	Subtotal      int64 `gorm:"not null" json:"subtotal"`
	TotalQuantity int64 `gorm:"not null" json:"total_quantity"`
	UsePoint      int64 `gorm:"not null;default:0" json:"use_point"`

	// 決済されないまま過ぎたら期限切れスイープの対象
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
