package repository

import (
	"context"

	"market/internal/domain/model"

	"gorm.io/gorm"
)

type CartGormRepository struct {
	db *gorm.DB
}

func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// 指定の(product, size)をACTIVEカートに入れているユーザーID。
// DISTINCTで明細ごとの重複を潰し、購入者本人は外す。
func (r *CartGormRepository) ListUserIDsWithItem(ctx context.Context, productID int64, sizeID int64, excludeUserID int64) ([]int64, error) {
	var userIDs []int64
	err := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Select("DISTINCT carts.user_id").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.product_id = ? AND cart_items.size_id = ?", productID, sizeID).
		Where("carts.status = ?", model.CartStatusActive).
		Where("carts.user_id <> ?", excludeUserID).
		Scan(&userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
