package repository

import (
	"context"

	"market/internal/domain/model"
)

type UserRepository interface {
	// Gradeを含めて返す
	FindByID(ctx context.Context, id int64) (model.User, error)

	// 残高加算。失敗しない。
	AddPoint(ctx context.Context, userID int64, amount int64) error

	// 残高減算。point >= amount のときだけ。0行更新はfalse。
	DebitPointIfEnough(ctx context.Context, userID int64, amount int64) (bool, error)

	UpdateGrade(ctx context.Context, userID int64, gradeID int64) error
}

// 等級マスタ
type GradeRepository interface {
	// min_spend降順
	ListByMinSpendDesc(ctx context.Context) ([]model.Grade, error)
}

type PointHistoryRepository interface {
	Create(ctx context.Context, h model.PointHistory) error
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.PointHistory, int64, error)
	FindByOrderIDAndType(ctx context.Context, orderID int64, t model.PointHistoryType) (model.PointHistory, bool, error)
}
