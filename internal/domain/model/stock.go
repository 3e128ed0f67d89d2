package model

import "time"

// 在庫。(product, size)の複合キー。
// Quantityは販売可能数、ReservedQuantityは未決済注文の引当分。
// どちらも0未満にならない（更新は必ずガード付きUPDATE経由）。
// Quantityが減るのは決済確定時だけ。
type Stock struct {
	ProductID        int64     `gorm:"primaryKey" json:"product_id"`
	SizeID           int64     `gorm:"primaryKey" json:"size_id"`
	Quantity         int64     `gorm:"not null;default:0" json:"quantity"`
	ReservedQuantity int64     `gorm:"not null;default:0" json:"reserved_quantity"`
	UpdatedAt        time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
