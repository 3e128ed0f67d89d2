package model

import "time"

type PaymentStatus string

const (
	// 注文作成と同時に作られる初期状態
	PaymentStatusPending PaymentStatus = "pending"
	// ゲートウェイ照合済み。確定処理の入口。
	PaymentStatusPaid PaymentStatus = "paid"
	// 確定処理が所有権を取った状態（paid→processingのCASで排他）
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// 決済。IDはUUIDで、ゲートウェイのmerchant_uidとしてそのまま使う。
// ステータス遷移は「現在値を条件にしたUPDATE」でしか進めない。
type Payment struct {
	ID      string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OrderID int64         `gorm:"not null;uniqueIndex" json:"order_id"`
	Price   int64         `gorm:"not null" json:"price"`
	Status  PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	// ゲートウェイ照合後に埋まる
	ImpUID *string `gorm:"type:varchar(64)" json:"imp_uid"`
	PgTid  *string `gorm:"type:varchar(64)" json:"pg_tid"`

	ErrorCode    *string    `gorm:"type:varchar(50)" json:"error_code"`
	ErrorMessage *string    `gorm:"type:varchar(255)" json:"error_message"`
	FailedAt     *time.Time `json:"failed_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
