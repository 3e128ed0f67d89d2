package usecase

import (
	"time"

	"market/internal/domain/model"
)

// effectiveUnitPrice は注文時点の実効単価。
// 割引率が正で、開始（未設定なら常に可）と終了（未設定なら常に可）の
// 両方を満たすときだけ割引を適用する。端数は切り捨て。
// ここで出た値がOrderItem.Priceにスナップショットされ、以後再計算しない。
func effectiveUnitPrice(p model.Product, now time.Time) int64 {
	if p.DiscountRate <= 0 {
		return p.Price
	}
	if p.DiscountStartTime != nil && now.Before(*p.DiscountStartTime) {
		return p.Price
	}
	if p.DiscountEndTime != nil && now.After(*p.DiscountEndTime) {
		return p.Price
	}
	// 整数演算の切り捨てがfloorそのもの
	return p.Price * (100 - p.DiscountRate) / 100
}
