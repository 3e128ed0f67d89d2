package repository

import (
	"context"
	"errors"

	"market/internal/domain/model"
	repo "market/internal/repository"

	"gorm.io/gorm"
)

type StockGormRepository struct {
	db *gorm.DB
}

func NewStockGormRepository(db *gorm.DB) *StockGormRepository {
	return &StockGormRepository{db: db}
}

func (r *StockGormRepository) Find(ctx context.Context, productID int64, sizeID int64) (model.Stock, error) {
	var s model.Stock
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND size_id = ?", productID, sizeID).
		First(&s).Error
	if isNotFound(err) {
		return model.Stock{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Stock{}, err
	}
	return s, nil
}

// 在庫の現在値を設定
func (r *StockGormRepository) Set(ctx context.Context, productID int64, sizeID int64, quantity int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Stock{}).
		Where("product_id = ? AND size_id = ?", productID, sizeID).
		Update("quantity", quantity)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 引当。空き（quantity - reserved_quantity）が足りるときだけ引当を増やす。
// check-then-actをDB側で原子的にやるのが唯一の売り越し防止。
func (r *StockGormRepository) Reserve(ctx context.Context, productID int64, sizeID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Stock{}).
		Where("product_id = ? AND size_id = ? AND quantity - reserved_quantity >= ?", productID, sizeID, qty).
		Update("reserved_quantity", gorm.Expr("reserved_quantity + ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 決済確定。引当分を実在庫とあわせて減らす。
func (r *StockGormRepository) Decrease(ctx context.Context, productID int64, sizeID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Stock{}).
		Where("product_id = ? AND size_id = ? AND reserved_quantity >= ? AND quantity >= ?", productID, sizeID, qty, qty).
		Updates(map[string]interface{}{
			"quantity":          gorm.Expr("quantity - ?", qty),
			"reserved_quantity": gorm.Expr("reserved_quantity - ?", qty),
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 引当解放（期限切れ・未決済キャンセル）
func (r *StockGormRepository) Release(ctx context.Context, productID int64, sizeID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Stock{}).
		Where("product_id = ? AND size_id = ?", productID, sizeID).
		Update("reserved_quantity", gorm.Expr("reserved_quantity - ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫戻し（決済後キャンセル）
func (r *StockGormRepository) Restore(ctx context.Context, productID int64, sizeID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Stock{}).
		Where("product_id = ? AND size_id = ?", productID, sizeID).
		Update("quantity", gorm.Expr("quantity + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
