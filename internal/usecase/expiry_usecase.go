package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"market/internal/domain/model"
	"market/internal/event"
	repo "market/internal/repository"
)

// 期限切れスイープ。10分ごとに外から呼ばれる。
type ExpiryUsecase struct {
	tx     repo.TransactionManager
	orders repo.OrderRepository
	events event.Publisher
}

func NewExpiryUsecase(tx repo.TransactionManager, orders repo.OrderRepository, events event.Publisher) *ExpiryUsecase {
	return &ExpiryUsecase{tx: tx, orders: orders, events: events}
}

// ExpireWaitingOrders は期限の過ぎたWAITING_PAYMENT注文を閉じる。
// 1注文1トランザクション。通知もポイントも動かさない
//（決済されていない注文には何も確定していない）。
func (u *ExpiryUsecase) ExpireWaitingOrders(ctx context.Context) (int, error) {
	targets, err := u.orders.ListExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, o := range targets {
		done, err := u.expireOne(ctx, o.ID)
		if err != nil {
			//1件の失敗で全体を止めない
			logger.Error().Err(err).Int64("order_id", o.ID).Msg("expire order")
			continue
		}
		if done {
			expired++
			u.events.Publish(event.TypeOrderExpired, o.ID, event.OrderExpiredPayload{
				OrderID: o.ID,
				UserID:  o.UserID,
			})
		}
	}
	return expired, nil
}

func (u *ExpiryUsecase) expireOne(ctx context.Context, orderID int64) (bool, error) {
	var done bool

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//一覧取得から今までに確定やキャンセルが走ったかもしれない。読み直す。
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderStatusWaitingPayment {
			return nil
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := r.Stocks().Release(ctx, it.ProductID, it.SizeID, it.Quantity); err != nil {
				return err
			}
		}

		ok, err := r.Orders().UpdateStatusIf(ctx, orderID, model.OrderStatusWaitingPayment, model.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			//同時に確定が勝った。引当解放ごと巻き戻す。
			return NewHTTPError(http.StatusConflict, "order already settled")
		}

		//決済行も閉じておく。pendingでもpaid（確定前）でもcancelledにする。
		//同時に走る確定側は注文ステータスのガードで止まって巻き戻るので安全。
		p, err := r.Payments().FindByOrderID(ctx, orderID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if err == nil {
			ok, err := r.Payments().UpdateStatusIf(ctx, p.ID, model.PaymentStatusPending, model.PaymentStatusCancelled)
			if err != nil {
				return err
			}
			if !ok {
				if _, err := r.Payments().UpdateStatusIf(ctx, p.ID, model.PaymentStatusPaid, model.PaymentStatusCancelled); err != nil {
					return err
				}
			}
		}

		done = true
		return nil
	})

	if err != nil {
		if he, ok := AsHTTPError(err); ok && he.Status == http.StatusConflict {
			return false, nil
		}
		return false, err
	}
	return done, nil
}
