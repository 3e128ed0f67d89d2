package repository

import "context"

// カートの参照だけを約束。カートCRUDはこのサービスの範囲外。
type CartRepository interface {
	// 指定の(product, size)をACTIVEカートに入れているユーザーID。
	// 重複なし、excludeUserIDは含めない。
	ListUserIDsWithItem(ctx context.Context, productID int64, sizeID int64, excludeUserID int64) ([]int64, error)
}
