package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Payments() PaymentRepository
	Stocks() StockRepository
	Users() UserRepository
	Products() ProductRepository
	Sizes() SizeRepository
	PointHistories() PointHistoryRepository
	Notifications() NotificationRepository
	Carts() CartRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
