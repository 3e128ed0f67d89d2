package repository

import (
	"context"
	"time"

	"market/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// 楽観ロック。現在statusがfromのときだけtoへ進める。0行更新はfalse。
	UpdateStatusIf(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error)
	UpdateReceiver(ctx context.Context, orderID int64, name string, phone string, address string) error

	// 期限切れスイープ対象（WAITING_PAYMENTかつexpires_at経過）
	ListExpired(ctx context.Context, now time.Time) ([]model.Order, error)

	// 等級再計算用：COMPLETED_PAYMENT注文の(subtotal - use_point)合計
	SumCompletedSpend(ctx context.Context, userID int64) (int64, error)
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
