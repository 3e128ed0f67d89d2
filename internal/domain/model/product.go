package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID    int64  `gorm:"not null;index" json:"seller_id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Price       int64  `gorm:"not null" json:"price"`
	IsActive    bool   `gorm:"not null;default:false" json:"is_active"`

	// 割引率（%）。0なら割引なし。
	// 開始/終了がnilなら常時割引。
	DiscountRate      int64      `gorm:"not null;default:0" json:"discount_rate"`
	DiscountStartTime *time.Time `json:"discount_start_time"`
	DiscountEndTime   *time.Time `json:"discount_end_time"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
