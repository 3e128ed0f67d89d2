package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"market/internal/domain/model"
	"market/internal/event"
	repo "market/internal/repository"
)

// GatewayPayment はゲートウェイ照会結果を境界で絞った形。
// ここに無いフィールドは信用しない。
type GatewayPayment struct {
	Status      string
	MerchantUID string
	ImpUID      string
	Amount      int64
	PgTid       string
	FailReason  string
}

type PaymentGateway interface {
	LookupPayment(ctx context.Context, impUID string) (GatewayPayment, error)
}

// ライブ通知。ベストエフォートで、コミット後にしか呼ばない。
type Notifier interface {
	Push(userID int64, content string)
}

type PaymentUsecase struct {
	tx            repo.TransactionManager
	payments      repo.PaymentRepository
	orders        repo.OrderRepository
	users         repo.UserRepository
	notifications repo.NotificationRepository
	gateway       PaymentGateway
	notifier      Notifier
	grade         GradeRecomputer
	events        event.Publisher
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	payments repo.PaymentRepository,
	orders repo.OrderRepository,
	users repo.UserRepository,
	notifications repo.NotificationRepository,
	gateway PaymentGateway,
	notifier Notifier,
	grade GradeRecomputer,
	events event.Publisher,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:            tx,
		payments:      payments,
		orders:        orders,
		users:         users,
		notifications: notifications,
		gateway:       gateway,
		notifier:      notifier,
		grade:         grade,
		events:        events,
	}
}

// VerifyPayment はwebhook/クライアント照会の入口。
// ゲートウェイの記録と突き合わせてpending→paidにしてから確定に進む。
// webhook経路ではエラーはハンドラ側でログするだけ（200は返却済み）。
func (u *PaymentUsecase) VerifyPayment(ctx context.Context, impUID string, merchantUID string) error {
	if impUID == "" || merchantUID == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	pay, err := u.payments.FindByID(ctx, merchantUID)
	if errors.Is(err, repo.ErrNotFound) {
		//消えた注文へのwebhook。黙って捨てる。
		logger.Info().Str("merchant_uid", merchantUID).Msg("webhook for unknown payment")
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	switch pay.Status {
	case model.PaymentStatusPending:
		//照合へ
	case model.PaymentStatusPaid:
		//照合済みで確定が未了（前回クラッシュ等）。確定だけやり直す。
		return u.Confirm(ctx, merchantUID)
	default:
		//completed/processing/failed/cancelled：重複・遅延配送。何もしない。
		return nil
	}

	gw, err := u.gateway.LookupPayment(ctx, impUID)
	if err != nil {
		logger.Error().Err(err).Str("imp_uid", impUID).Msg("gateway lookup")
		return NewHTTPError(http.StatusInternalServerError, "payment gateway error")
	}
	if gw.MerchantUID != merchantUID {
		return NewHTTPError(http.StatusBadRequest, "merchant_uid mismatch")
	}

	switch gw.Status {
	case "paid":
		if gw.Amount != pay.Price {
			//金額改ざんの疑い。決済は失敗で閉じる。
			now := time.Now()
			if _, err := u.payments.MarkFailed(ctx, pay.ID, "AMOUNT_MISMATCH", "paid amount does not match order", now); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return NewHTTPError(http.StatusBadRequest, "amount mismatch")
		}
		//pending→paidのCAS。負けても確定側のガードが守るのでそのまま進む。
		if _, err := u.payments.MarkPaid(ctx, pay.ID, gw.ImpUID, gw.PgTid); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return u.Confirm(ctx, merchantUID)

	case "failed":
		now := time.Now()
		if _, err := u.payments.MarkFailed(ctx, pay.ID, "GATEWAY_FAILED", gw.FailReason, now); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil

	default:
		//ready等の途中状態。次の配送を待つ。
		logger.Info().Str("merchant_uid", merchantUID).Str("status", gw.Status).Msg("gateway status not final")
		return nil
	}
}

type pendingPush struct {
	userID  int64
	content string
}

// Confirm は決済確定の本体。各ガードは「失敗」ではなく
// 重複・遅延配送の正常系なので、黙って抜ける。
func (u *PaymentUsecase) Confirm(ctx context.Context, merchantUID string) error {
	pay, err := u.payments.FindByID(ctx, merchantUID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	order, err := u.orders.FindByID(ctx, pay.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		//決済だけあって注文が無いのは不変条件違反
		return NewHTTPError(http.StatusInternalServerError, "order missing for payment")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//残高の再チェック。注文作成後に別の注文でポイントを使っているかもしれない。
	//等級もこの時点のものを使う（この購入で上がる前の等級で付与率を決める）。
	user, err := u.users.FindByID(ctx, order.UserID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user.Point < order.UsePoint {
		return NewHTTPError(http.StatusBadRequest, "not enough points")
	}

	var confirmed bool
	var earned int64
	var pushes []pendingPush

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//注文の読み直し。期限切れや重複配送が先に走っていたら抜ける。
		o, err := r.Orders().FindByID(ctx, order.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.Status != model.OrderStatusWaitingPayment {
			return nil
		}

		//決済の読み直し。paid以外は別の実行が進めた後。
		p, err := r.Payments().FindByID(ctx, merchantUID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if p.Status != model.PaymentStatusPaid {
			return nil
		}

		//paid→processingのCASでこの確定の所有権を取る
		ok, err := r.Payments().UpdateStatusIf(ctx, p.ID, model.PaymentStatusPaid, model.PaymentStatusProcessing)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			return nil
		}

		//ポイント使用
		if o.UsePoint > 0 {
			ok, err := r.Users().DebitPointIfEnough(ctx, o.UserID, o.UsePoint)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "not enough points")
			}
			if err := r.PointHistories().Create(ctx, model.PointHistory{
				UserID:  o.UserID,
				OrderID: o.ID,
				Amount:  o.UsePoint,
				Type:    model.PointHistoryUse,
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		//在庫の確定と売り切れ通知の収集
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, it := range items {
			ok, err := r.Stocks().Decrease(ctx, it.ProductID, it.SizeID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "stock confirmation failed")
			}

			st, err := r.Stocks().Find(ctx, it.ProductID, it.SizeID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if st.Quantity == 0 {
				if err := u.collectSoldOut(ctx, r, o, it, &pushes); err != nil {
					return err
				}
			}
		}

		//ポイント付与。floor(決済額 × 還元率)、0未満にはしない。
		earned = earnAmount(p.Price, user.Grade.Rate)
		if earned > 0 {
			if err := r.Users().AddPoint(ctx, o.UserID, earned); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if err := r.PointHistories().Create(ctx, model.PointHistory{
				UserID:  o.UserID,
				OrderID: o.ID,
				Amount:  earned,
				Type:    model.PointHistoryEarn,
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		//仕上げ。所有権はこのtxにあるので、ここで進められないのは壊れている。
		ok, err = r.Payments().UpdateStatusIf(ctx, p.ID, model.PaymentStatusProcessing, model.PaymentStatusCompleted)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			return NewHTTPError(http.StatusInternalServerError, "payment status conflict")
		}
		ok, err = r.Orders().UpdateStatusIf(ctx, o.ID, model.OrderStatusWaitingPayment, model.OrderStatusCompletedPayment)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			return NewHTTPError(http.StatusInternalServerError, "order status conflict")
		}

		confirmed = true
		return nil
	})

	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	//ここから先はコミット済み。失敗しても決済は巻き戻さない。
	content := fmt.Sprintf("Your order #%d has been completed", order.ID)
	if _, err := u.notifications.Create(ctx, model.Notification{UserID: order.UserID, Content: content}); err != nil {
		logger.Error().Err(err).Int64("order_id", order.ID).Msg("buyer notification")
	}
	u.notifier.Push(order.UserID, content)
	for _, p := range pushes {
		u.notifier.Push(p.userID, p.content)
	}

	if err := u.grade.Recompute(ctx, order.UserID); err != nil {
		logger.Error().Err(err).Int64("user_id", order.UserID).Msg("grade recompute after confirm")
	}

	u.events.Publish(event.TypeOrderCompleted, order.ID, event.OrderCompletedPayload{
		OrderID:      order.ID,
		UserID:       order.UserID,
		PaymentID:    pay.ID,
		PaymentPrice: pay.Price,
		EarnedPoint:  earned,
	})

	logger.Info().Int64("order_id", order.ID).Str("merchant_uid", merchantUID).Msg("payment confirmed")
	return nil
}

// 売り切れ通知。出品者に1件、その(product, size)をカートに入れている
// 他の購入者に一括で。行はtx内、ライブ配信はpushes経由でコミット後。
func (u *PaymentUsecase) collectSoldOut(ctx context.Context, r repo.TxRepos, o model.Order, it model.OrderItem, pushes *[]pendingPush) error {
	p, err := r.Products().FindByID(ctx, it.ProductID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "product missing for stock")
	}
	s, err := r.Sizes().FindByID(ctx, it.SizeID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "size missing for stock")
	}

	content := fmt.Sprintf("Size %s of product %s is sold out", s.Name, p.Name)

	if _, err := r.Notifications().Create(ctx, model.Notification{UserID: p.SellerID, Content: content}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	*pushes = append(*pushes, pendingPush{userID: p.SellerID, content: content})

	userIDs, err := r.Carts().ListUserIDsWithItem(ctx, it.ProductID, it.SizeID, o.UserID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(userIDs) == 0 {
		return nil
	}

	ns := make([]model.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		ns = append(ns, model.Notification{UserID: uid, Content: content})
		*pushes = append(*pushes, pendingPush{userID: uid, content: content})
	}
	if err := r.Notifications().CreateBulk(ctx, ns); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func earnAmount(paymentPrice int64, rate float64) int64 {
	earned := int64(math.Floor(float64(paymentPrice) * rate))
	if earned < 0 {
		return 0
	}
	return earned
}
