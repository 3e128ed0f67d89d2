package repository

import (
	"context"
	"time"

	"market/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) error
	FindByID(ctx context.Context, id string) (model.Payment, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error)

	// 楽観ロック。現在statusがfromのときだけtoへ進める。0行更新はfalse。
	UpdateStatusIf(ctx context.Context, id string, from model.PaymentStatus, to model.PaymentStatus) (bool, error)

	// ゲートウェイ照合の結果を書く。pending→paidのCASと取引IDの保存を1文で。
	MarkPaid(ctx context.Context, id string, impUID string, pgTid string) (bool, error)

	// 失敗記録。pending→failed。
	MarkFailed(ctx context.Context, id string, code string, message string, failedAt time.Time) (bool, error)
}
