package repository

import (
	"context"

	"market/internal/domain/model"
)

// 在庫台帳。条件付きUPDATEで原子的に動かす。
// boolを返すものは「条件を満たさず0行更新」をfalseで返す。
type StockRepository interface {
	Find(ctx context.Context, productID int64, sizeID int64) (model.Stock, error)

	// 在庫の現在値を設定（初期投入・管理調整）
	Set(ctx context.Context, productID int64, sizeID int64, quantity int64) error

	// 引当。quantity - reserved_quantity >= qty のときだけ reserved_quantity += qty
	Reserve(ctx context.Context, productID int64, sizeID int64, qty int64) (bool, error)

	// 決済確定。reserved_quantity >= qty のときだけ両方を減らす
	Decrease(ctx context.Context, productID int64, sizeID int64, qty int64) (bool, error)

	// 引当解放（期限切れ・未決済キャンセル）。失敗しない。
	Release(ctx context.Context, productID int64, sizeID int64, qty int64) error

	// 在庫戻し（決済後キャンセル）。失敗しない。
	Restore(ctx context.Context, productID int64, sizeID int64, qty int64) error
}
