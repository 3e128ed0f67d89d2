package usecase

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"market/internal/domain/model"
	"market/internal/event"
	repo "market/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// 決済されないままの注文の引当保持時間
const orderExpiry = 10 * time.Minute

type OrderUsecase struct {
	tx     repo.TransactionManager
	users  repo.UserRepository
	grade  GradeRecomputer
	events event.Publisher
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	grade GradeRecomputer,
	events event.Publisher,
) *OrderUsecase {
	return &OrderUsecase{tx: tx, users: users, grade: grade, events: events}
}

type OrderLineInput struct {
	ProductID int64 `json:"product_id"`
	SizeID    int64 `json:"size_id"`
	Quantity  int64 `json:"quantity"`
}

type CreateOrderInput struct {
	ReceiverName    string
	ReceiverPhone   string
	ReceiverAddress string
	UsePoint        int64
	Items           []OrderLineInput
}

type UpdateReceiverInput struct {
	ReceiverName    string
	ReceiverPhone   string
	ReceiverAddress string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	SizeID    int64  `json:"size_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	Status          string            `json:"status"`
	ReceiverName    string            `json:"receiver_name"`
	ReceiverPhone   string            `json:"receiver_phone"`
	ReceiverAddress string            `json:"receiver_address"`
	Subtotal        int64             `json:"subtotal"`
	TotalQuantity   int64             `json:"total_quantity"`
	UsePoint        int64             `json:"use_point"`
	PaymentID       string            `json:"payment_id,omitempty"`
	PaymentStatus   string            `json:"payment_status,omitempty"`
	ExpiresAt       time.Time         `json:"expires_at"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.ReceiverName) == "" ||
		strings.TrimSpace(in.ReceiverPhone) == "" ||
		strings.TrimSpace(in.ReceiverAddress) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid receiver")
	}
	if in.UsePoint < 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid use_point")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "no items")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.SizeID <= 0 || it.Quantity < 1 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid item")
		}
	}

	// 残高の先行チェック。正式な再チェックは決済確定時にもう一度やる。
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user.Point < in.UsePoint {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "not enough points")
	}

	now := time.Now()
	var out OrderOutput

	//注文処理はトランザクション。途中で失敗したら全部巻き戻る。
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderItems := make([]model.OrderItem, 0, len(in.Items))
		var subtotal int64 = 0
		var totalQty int64 = 0

		for _, line := range in.Items {
			p, err := r.Products().FindByID(ctx, line.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "product not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			price := effectiveUnitPrice(p, now)

			// スナップショットでの先行チェック。正はReserveのガード付きUPDATE。
			st, err := r.Stocks().Find(ctx, line.ProductID, line.SizeID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "stock not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if st.Quantity-st.ReservedQuantity < line.Quantity {
				return NewHTTPError(http.StatusBadRequest, "out of stock: "+p.Name)
			}

			//引当（空きが足りないなら false）
			ok, err := r.Stocks().Reserve(ctx, line.ProductID, line.SizeID, line.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock: "+p.Name)
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:           line.ProductID,
				SizeID:              line.SizeID,
				ProductNameSnapshot: p.Name,
				Price:               price,
				Quantity:            line.Quantity,
				CreatedAt:           now,
			})
			subtotal += price * line.Quantity
			totalQty += line.Quantity
		}

		if in.UsePoint > subtotal {
			return NewHTTPError(http.StatusBadRequest, "use_point exceeds subtotal")
		}

		order := model.Order{
			UserID:          userID,
			Status:          model.OrderStatusWaitingPayment,
			ReceiverName:    in.ReceiverName,
			ReceiverPhone:   in.ReceiverPhone,
			ReceiverAddress: in.ReceiverAddress,
			Subtotal:        subtotal,
			TotalQuantity:   totalQty,
			UsePoint:        in.UsePoint,
			ExpiresAt:       now.Add(orderExpiry),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//決済行はpendingで同時に作る。IDがそのままmerchant_uid。
		payment := model.Payment{
			ID:      uuid.NewString(),
			OrderID: orderID,
			Price:   subtotal - in.UsePoint,
			Status:  model.PaymentStatusPending,
		}
		if err := r.Payments().Create(ctx, payment); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.ID = orderID
		out = toOrderOutput(order, orderItems, &payment)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.events.Publish(event.TypeOrderCreated, out.ID, event.OrderCreatedPayload{
		OrderID:       out.ID,
		UserID:        userID,
		Subtotal:      out.Subtotal,
		TotalQuantity: out.TotalQuantity,
		UsePoint:      out.UsePoint,
	})

	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			p, err := r.Payments().FindByOrderID(ctx, o.ID)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			var pp *model.Payment
			if err == nil {
				pp = &p
			}
			outs = append(outs, toOrderOutput(o, items, pp))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		p, err := r.Payments().FindByOrderID(ctx, orderID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		var pp *model.Payment
		if err == nil {
			pp = &p
		}

		out = toOrderOutput(o, items, pp)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 配送先の変更。WAITING_PAYMENTの間だけ。
func (u *OrderUsecase) UpdateReceiver(ctx context.Context, userID int64, orderID int64, in UpdateReceiverInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if strings.TrimSpace(in.ReceiverName) == "" ||
		strings.TrimSpace(in.ReceiverPhone) == "" ||
		strings.TrimSpace(in.ReceiverAddress) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid receiver")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}
		if o.Status != model.OrderStatusWaitingPayment {
			return NewHTTPError(http.StatusBadRequest, "current status does not allow modification")
		}

		if err := r.Orders().UpdateReceiver(ctx, orderID, in.ReceiverName, in.ReceiverPhone, in.ReceiverAddress); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.ReceiverName = in.ReceiverName
		o.ReceiverPhone = in.ReceiverPhone
		o.ReceiverAddress = in.ReceiverAddress

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(o, items, nil)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// CancelOrder は購入者キャンセル。
// WAITING_PAYMENTなら引当解放だけ、COMPLETED_PAYMENTなら補償パス
//（在庫戻し・返金・付与取り消し）。どちらも行は消さずCANCELLEDにする。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, orderID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var wasPaid bool
	var refunded int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		switch o.Status {
		case model.OrderStatusWaitingPayment:
			//未決済：引当を戻して閉じるだけ
			for _, it := range items {
				if err := r.Stocks().Release(ctx, it.ProductID, it.SizeID, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
			ok, err := r.Orders().UpdateStatusIf(ctx, orderID, model.OrderStatusWaitingPayment, model.OrderStatusCancelled)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				// 同時に確定が走って勝った
				return NewHTTPError(http.StatusBadRequest, "current status does not allow cancellation")
			}
			if err := u.cancelPendingPayment(ctx, r, orderID); err != nil {
				return err
			}
			return nil

		case model.OrderStatusCompletedPayment:
			wasPaid = true
			refunded = o.UsePoint
			return u.cancelPaidOrder(ctx, r, o, items)

		default:
			return NewHTTPError(http.StatusBadRequest, "current status does not allow cancellation")
		}
	})

	if err != nil {
		return err
	}

	if wasPaid {
		//等級はコミット後に再計算。失敗しても決済の取り消しは巻き戻さない。
		if err := u.grade.Recompute(ctx, userID); err != nil {
			logger.Error().Err(err).Int64("user_id", userID).Msg("grade recompute after cancel")
		}
	}
	u.events.Publish(event.TypeOrderCancelled, orderID, event.OrderCancelledPayload{
		OrderID:       orderID,
		UserID:        userID,
		WasPaid:       wasPaid,
		RefundedPoint: refunded,
	})

	return nil
}

// 未決済キャンセル時の決済行の後始末。pendingでもpaid（確定前）でも閉じる。
func (u *OrderUsecase) cancelPendingPayment(ctx context.Context, r repo.TxRepos, orderID int64) error {
	p, err := r.Payments().FindByOrderID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	ok, err := r.Payments().UpdateStatusIf(ctx, p.ID, model.PaymentStatusPending, model.PaymentStatusCancelled)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !ok {
		if _, err := r.Payments().UpdateStatusIf(ctx, p.ID, model.PaymentStatusPaid, model.PaymentStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	return nil
}

// 決済後キャンセルの補償パス。
func (u *OrderUsecase) cancelPaidOrder(ctx context.Context, r repo.TxRepos, o model.Order, items []model.OrderItem) error {
	//在庫戻し（引当は確定時に消えているのでquantityだけ）
	for _, it := range items {
		if err := r.Stocks().Restore(ctx, it.ProductID, it.SizeID, it.Quantity); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	//COMPLETED_PAYMENTの注文にcompleted決済が無いのは不変条件違反
	p, err := r.Payments().FindByOrderID(ctx, o.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusBadRequest, "no completed payment")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.Status != model.PaymentStatusCompleted {
		return NewHTTPError(http.StatusBadRequest, "no completed payment")
	}
	ok, err := r.Payments().UpdateStatusIf(ctx, p.ID, model.PaymentStatusCompleted, model.PaymentStatusCancelled)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !ok {
		return NewHTTPError(http.StatusBadRequest, "no completed payment")
	}

	//使用分の返金
	if o.UsePoint > 0 {
		if err := r.Users().AddPoint(ctx, o.UserID, o.UsePoint); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.PointHistories().Create(ctx, model.PointHistory{
			UserID:  o.UserID,
			OrderID: o.ID,
			Amount:  o.UsePoint,
			Type:    model.PointHistoryRefund,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	//付与分の取り消し。すでに使ってしまって残高が足りないなら断る。
	earn, found, err := r.PointHistories().FindByOrderIDAndType(ctx, o.ID, model.PointHistoryEarn)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if found {
		ok, err := r.Users().DebitPointIfEnough(ctx, o.UserID, earn.Amount)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			return NewHTTPError(http.StatusBadRequest, "balance is lower than the points earned by this order")
		}
		if err := r.PointHistories().Create(ctx, model.PointHistory{
			UserID:  o.UserID,
			OrderID: o.ID,
			Amount:  earn.Amount,
			Type:    model.PointHistoryEarnCancel,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	ok, err = r.Orders().UpdateStatusIf(ctx, o.ID, model.OrderStatusCompletedPayment, model.OrderStatusCancelled)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !ok {
		return NewHTTPError(http.StatusBadRequest, "current status does not allow cancellation")
	}
	return nil
}

func toOrderOutput(o model.Order, items []model.OrderItem, p *model.Payment) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			SizeID:    it.SizeID,
			Name:      it.ProductNameSnapshot,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	out := OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		ReceiverName:    o.ReceiverName,
		ReceiverPhone:   o.ReceiverPhone,
		ReceiverAddress: o.ReceiverAddress,
		Subtotal:        o.Subtotal,
		TotalQuantity:   o.TotalQuantity,
		UsePoint:        o.UsePoint,
		ExpiresAt:       o.ExpiresAt,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
	if p != nil {
		out.PaymentID = p.ID
		out.PaymentStatus = string(p.Status)
	}
	return out
}
