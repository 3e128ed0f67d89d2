package repository

import (
	"context"

	repo "market/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders         repo.OrderRepository
	orderItems     repo.OrderItemRepository
	payments       repo.PaymentRepository
	stocks         repo.StockRepository
	users          repo.UserRepository
	products       repo.ProductRepository
	sizes          repo.SizeRepository
	pointHistories repo.PointHistoryRepository
	notifications  repo.NotificationRepository
	carts          repo.CartRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository                { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository        { return r.orderItems }
func (r *txReposGorm) Payments() repo.PaymentRepository            { return r.payments }
func (r *txReposGorm) Stocks() repo.StockRepository                { return r.stocks }
func (r *txReposGorm) Users() repo.UserRepository                  { return r.users }
func (r *txReposGorm) Products() repo.ProductRepository            { return r.products }
func (r *txReposGorm) Sizes() repo.SizeRepository                  { return r.sizes }
func (r *txReposGorm) PointHistories() repo.PointHistoryRepository { return r.pointHistories }
func (r *txReposGorm) Notifications() repo.NotificationRepository  { return r.notifications }
func (r *txReposGorm) Carts() repo.CartRepository                  { return r.carts }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:         NewOrderGormRepository(tx),
			orderItems:     NewOrderItemGormRepository(tx),
			payments:       NewPaymentGormRepository(tx),
			stocks:         NewStockGormRepository(tx),
			users:          NewUserGormRepository(tx),
			products:       NewProductGormRepository(tx),
			sizes:          NewSizeGormRepository(tx),
			pointHistories: NewPointHistoryGormRepository(tx),
			notifications:  NewNotificationGormRepository(tx),
			carts:          NewCartGormRepository(tx),
		}
		return fn(r)
	})
}
