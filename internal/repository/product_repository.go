package repository

import (
	"context"
	"errors"

	"market/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 商品の取得だけを約束。商品CRUDはこのサービスの範囲外。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
}

type SizeRepository interface {
	FindByID(ctx context.Context, id int64) (model.Size, error)
}
