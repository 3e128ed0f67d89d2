package model

import "time"

// 会員等級。累計購入額で決まり、ポイント還元率を持つ。
type Grade struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`

	// ポイント還元率（0.01 = 1%）
	Rate float64 `gorm:"not null" json:"rate"`

	// この等級になる累計購入額のしきい値
	MinSpend int64 `gorm:"not null" json:"min_spend"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
