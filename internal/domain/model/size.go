package model

import "time"

// 商品サイズ（S/M/Lなど）。在庫は(product, size)単位で持つ。
type Size struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(20);not null" json:"name"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
