package repository

import (
	"context"

	"market/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n model.Notification) (int64, error)
	CreateBulk(ctx context.Context, ns []model.Notification) error
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Notification, int64, error)

	// 所有者一致のときだけis_checkedを立てる。0行更新はfalse。
	MarkChecked(ctx context.Context, id int64, userID int64) (bool, error)
}
