package model

import "time"

type PointHistoryType string

const (
	// 注文での使用（残高減算）
	PointHistoryUse PointHistoryType = "USE"
	// 決済確定での付与
	PointHistoryEarn PointHistoryType = "EARN"
	// キャンセルでの使用分返金
	PointHistoryRefund PointHistoryType = "REFUND"
	// キャンセルでの付与分取り消し
	PointHistoryEarnCancel PointHistoryType = "EARN_CANCEL"
)

// ポイント履歴。残高を動かす操作1回につき必ず1行。
// 追記専用で、更新も削除もしない。
type PointHistory struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64            `gorm:"not null;index" json:"user_id"`
	OrderID   int64            `gorm:"not null;index" json:"order_id"`
	Amount    int64            `gorm:"not null" json:"amount"`
	Type      PointHistoryType `gorm:"type:varchar(20);not null;index" json:"type"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}
