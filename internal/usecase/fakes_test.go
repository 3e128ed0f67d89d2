package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"market/internal/domain/model"
	repo "market/internal/repository"
)

// =====================
// インメモリ実装（tx風のclone/commit付き）
// =====================

type stockKey struct {
	productID int64
	sizeID    int64
}

type memState struct {
	users          map[int64]model.User
	grades         []model.Grade
	products       map[int64]model.Product
	sizes          map[int64]model.Size
	stocks         map[stockKey]model.Stock
	orders         map[int64]model.Order
	orderItems     map[int64][]model.OrderItem
	payments       map[string]model.Payment
	pointHistories []model.PointHistory
	notifications  []model.Notification
	cartUsers      map[stockKey][]int64

	nextOrderID int64
	nextHistID  int64
	nextNotifID int64
}

func newMemState() *memState {
	return &memState{
		users:       make(map[int64]model.User),
		products:    make(map[int64]model.Product),
		sizes:       make(map[int64]model.Size),
		stocks:      make(map[stockKey]model.Stock),
		orders:      make(map[int64]model.Order),
		orderItems:  make(map[int64][]model.OrderItem),
		payments:    make(map[string]model.Payment),
		cartUsers:   make(map[stockKey][]int64),
		nextOrderID: 1,
		nextHistID:  1,
		nextNotifID: 1,
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.users {
		c.users[k] = v
	}
	c.grades = append([]model.Grade(nil), s.grades...)
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.sizes {
		c.sizes[k] = v
	}
	for k, v := range s.stocks {
		c.stocks[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = append([]model.OrderItem(nil), v...)
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	c.pointHistories = append([]model.PointHistory(nil), s.pointHistories...)
	c.notifications = append([]model.Notification(nil), s.notifications...)
	for k, v := range s.cartUsers {
		c.cartUsers[k] = append([]int64(nil), v...)
	}
	c.nextOrderID = s.nextOrderID
	c.nextHistID = s.nextHistID
	c.nextNotifID = s.nextNotifID
	return c
}

// memStore はDBの代役。WithinTxはcloneの上でfnを走らせ、
// 成功したときだけ差し替える（= commit/rollback）。
type memStore struct {
	mu sync.Mutex
	st *memState
}

func newMemStore() *memStore {
	return &memStore{st: newMemState()}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl := s.st.clone()
	if err := fn(&memRepos{st: cl}); err != nil {
		return err
	}
	s.st = cl
	return nil
}

// tx外アクセス用。メソッド単位でロックを取る。
func (s *memStore) Users() repo.UserRepository { return lockedUsers{s} }
func (s *memStore) Orders() repo.OrderRepository { return lockedOrders{s} }
func (s *memStore) Payments() repo.PaymentRepository { return lockedPayments{s} }
func (s *memStore) Grades() repo.GradeRepository { return lockedGrades{s} }
func (s *memStore) PointHistories() repo.PointHistoryRepository { return lockedPointHistories{s} }
func (s *memStore) Notifications() repo.NotificationRepository { return lockedNotifications{s} }

// seed系。テストの準備はこれで直接書く。
func (s *memStore) seedUser(u model.User) { s.st.users[u.ID] = u }
func (s *memStore) seedGrades(gs ...model.Grade) { s.st.grades = append(s.st.grades, gs...) }
func (s *memStore) seedProduct(p model.Product) { s.st.products[p.ID] = p }
func (s *memStore) seedSize(sz model.Size) { s.st.sizes[sz.ID] = sz }
func (s *memStore) seedStock(st model.Stock) {
	s.st.stocks[stockKey{st.ProductID, st.SizeID}] = st
}
func (s *memStore) seedOrder(o model.Order, items []model.OrderItem) {
	if o.ID >= s.st.nextOrderID {
		s.st.nextOrderID = o.ID + 1
	}
	s.st.orders[o.ID] = o
	for i := range items {
		items[i].OrderID = o.ID
	}
	s.st.orderItems[o.ID] = items
}
func (s *memStore) seedPayment(p model.Payment) { s.st.payments[p.ID] = p }
func (s *memStore) seedPointHistory(h model.PointHistory) {
	h.ID = s.st.nextHistID
	s.st.nextHistID++
	s.st.pointHistories = append(s.st.pointHistories, h)
}
func (s *memStore) seedCartUsers(productID, sizeID int64, userIDs ...int64) {
	s.st.cartUsers[stockKey{productID, sizeID}] = userIDs
}

func (s *memStore) stock(productID, sizeID int64) model.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.stocks[stockKey{productID, sizeID}]
}

func (s *memStore) order(id int64) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.orders[id]
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.orders)
}

func (s *memStore) payment(id string) model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.payments[id]
}

func (s *memStore) paymentByOrder(orderID int64) (model.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.st.payments {
		if p.OrderID == orderID {
			return p, true
		}
	}
	return model.Payment{}, false
}

func (s *memStore) user(id int64) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.users[id]
}

func (s *memStore) histories(orderID int64) []model.PointHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PointHistory
	for _, h := range s.st.pointHistories {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out
}

func (s *memStore) notificationsFor(userID int64) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Notification
	for _, n := range s.st.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// =====================
// TxRepos実装（ロックなし：WithinTxの中だけで使う）
// =====================

type memRepos struct{ st *memState }

func (r *memRepos) Orders() repo.OrderRepository                { return memOrders{r.st} }
func (r *memRepos) OrderItems() repo.OrderItemRepository        { return memOrderItems{r.st} }
func (r *memRepos) Payments() repo.PaymentRepository            { return memPayments{r.st} }
func (r *memRepos) Stocks() repo.StockRepository                { return memStocks{r.st} }
func (r *memRepos) Users() repo.UserRepository                  { return memUsers{r.st} }
func (r *memRepos) Products() repo.ProductRepository            { return memProducts{r.st} }
func (r *memRepos) Sizes() repo.SizeRepository                  { return memSizes{r.st} }
func (r *memRepos) PointHistories() repo.PointHistoryRepository { return memPointHistories{r.st} }
func (r *memRepos) Notifications() repo.NotificationRepository  { return memNotifications{r.st} }
func (r *memRepos) Carts() repo.CartRepository                  { return memCarts{r.st} }

type memUsers struct{ st *memState }

func (m memUsers) FindByID(ctx context.Context, id int64) (model.User, error) {
	u, ok := m.st.users[id]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	for _, g := range m.st.grades {
		if g.ID == u.GradeID {
			u.Grade = g
			break
		}
	}
	return u, nil
}

func (m memUsers) AddPoint(ctx context.Context, userID int64, amount int64) error {
	u, ok := m.st.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.Point += amount
	m.st.users[userID] = u
	return nil
}

func (m memUsers) DebitPointIfEnough(ctx context.Context, userID int64, amount int64) (bool, error) {
	u, ok := m.st.users[userID]
	if !ok || u.Point < amount {
		return false, nil
	}
	u.Point -= amount
	m.st.users[userID] = u
	return true, nil
}

func (m memUsers) UpdateGrade(ctx context.Context, userID int64, gradeID int64) error {
	u, ok := m.st.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.GradeID = gradeID
	m.st.users[userID] = u
	return nil
}

type memGrades struct{ st *memState }

func (m memGrades) ListByMinSpendDesc(ctx context.Context) ([]model.Grade, error) {
	gs := append([]model.Grade(nil), m.st.grades...)
	sort.Slice(gs, func(i, j int) bool { return gs[i].MinSpend > gs[j].MinSpend })
	return gs, nil
}

type memProducts struct{ st *memState }

func (m memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := m.st.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

type memSizes struct{ st *memState }

func (m memSizes) FindByID(ctx context.Context, id int64) (model.Size, error) {
	s, ok := m.st.sizes[id]
	if !ok {
		return model.Size{}, repo.ErrNotFound
	}
	return s, nil
}

type memStocks struct{ st *memState }

func (m memStocks) Find(ctx context.Context, productID int64, sizeID int64) (model.Stock, error) {
	s, ok := m.st.stocks[stockKey{productID, sizeID}]
	if !ok {
		return model.Stock{}, repo.ErrNotFound
	}
	return s, nil
}

func (m memStocks) Set(ctx context.Context, productID int64, sizeID int64, quantity int64) error {
	k := stockKey{productID, sizeID}
	s := m.st.stocks[k]
	s.ProductID = productID
	s.SizeID = sizeID
	s.Quantity = quantity
	m.st.stocks[k] = s
	return nil
}

func (m memStocks) Reserve(ctx context.Context, productID int64, sizeID int64, qty int64) (bool, error) {
	k := stockKey{productID, sizeID}
	s, ok := m.st.stocks[k]
	if !ok || s.Quantity-s.ReservedQuantity < qty {
		return false, nil
	}
	s.ReservedQuantity += qty
	m.st.stocks[k] = s
	return true, nil
}

func (m memStocks) Decrease(ctx context.Context, productID int64, sizeID int64, qty int64) (bool, error) {
	k := stockKey{productID, sizeID}
	s, ok := m.st.stocks[k]
	if !ok || s.ReservedQuantity < qty || s.Quantity < qty {
		return false, nil
	}
	s.Quantity -= qty
	s.ReservedQuantity -= qty
	m.st.stocks[k] = s
	return true, nil
}

func (m memStocks) Release(ctx context.Context, productID int64, sizeID int64, qty int64) error {
	k := stockKey{productID, sizeID}
	s := m.st.stocks[k]
	s.ReservedQuantity -= qty
	if s.ReservedQuantity < 0 {
		s.ReservedQuantity = 0
	}
	m.st.stocks[k] = s
	return nil
}

func (m memStocks) Restore(ctx context.Context, productID int64, sizeID int64, qty int64) error {
	k := stockKey{productID, sizeID}
	s := m.st.stocks[k]
	s.Quantity += qty
	m.st.stocks[k] = s
	return nil
}

type memOrders struct{ st *memState }

func (m memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := m.st.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m memOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range m.st.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	off := (page - 1) * limit
	if off >= len(out) {
		return []model.Order{}, total, nil
	}
	end := off + limit
	if end > len(out) {
		end = len(out)
	}
	return out[off:end], total, nil
}

func (m memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	order.ID = m.st.nextOrderID
	m.st.nextOrderID++
	m.st.orders[order.ID] = order
	return order.ID, nil
}

func (m memOrders) UpdateStatusIf(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error) {
	o, ok := m.st.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	m.st.orders[orderID] = o
	return true, nil
}

func (m memOrders) UpdateReceiver(ctx context.Context, orderID int64, name string, phone string, address string) error {
	o, ok := m.st.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.ReceiverName = name
	o.ReceiverPhone = phone
	o.ReceiverAddress = address
	m.st.orders[orderID] = o
	return nil
}

func (m memOrders) ListExpired(ctx context.Context, now time.Time) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.st.orders {
		if o.Status == model.OrderStatusWaitingPayment && o.ExpiresAt.Before(now) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memOrders) SumCompletedSpend(ctx context.Context, userID int64) (int64, error) {
	var sum int64
	for _, o := range m.st.orders {
		if o.UserID == userID && o.Status == model.OrderStatusCompletedPayment {
			sum += o.Subtotal - o.UsePoint
		}
	}
	return sum, nil
}

type memOrderItems struct{ st *memState }

func (m memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	cp := append([]model.OrderItem(nil), items...)
	for i := range cp {
		cp[i].OrderID = orderID
	}
	m.st.orderItems[orderID] = append(m.st.orderItems[orderID], cp...)
	return nil
}

func (m memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return append([]model.OrderItem(nil), m.st.orderItems[orderID]...), nil
}

type memPayments struct{ st *memState }

func (m memPayments) Create(ctx context.Context, p model.Payment) error {
	m.st.payments[p.ID] = p
	return nil
}

func (m memPayments) FindByID(ctx context.Context, id string) (model.Payment, error) {
	p, ok := m.st.payments[id]
	if !ok {
		return model.Payment{}, repo.ErrNotFound
	}
	return p, nil
}

func (m memPayments) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	for _, p := range m.st.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return model.Payment{}, repo.ErrNotFound
}

func (m memPayments) UpdateStatusIf(ctx context.Context, id string, from model.PaymentStatus, to model.PaymentStatus) (bool, error) {
	p, ok := m.st.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	m.st.payments[id] = p
	return true, nil
}

func (m memPayments) MarkPaid(ctx context.Context, id string, impUID string, pgTid string) (bool, error) {
	p, ok := m.st.payments[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusPaid
	p.ImpUID = &impUID
	p.PgTid = &pgTid
	m.st.payments[id] = p
	return true, nil
}

func (m memPayments) MarkFailed(ctx context.Context, id string, code string, message string, failedAt time.Time) (bool, error) {
	p, ok := m.st.payments[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusFailed
	p.ErrorCode = &code
	p.ErrorMessage = &message
	p.FailedAt = &failedAt
	m.st.payments[id] = p
	return true, nil
}

type memPointHistories struct{ st *memState }

func (m memPointHistories) Create(ctx context.Context, h model.PointHistory) error {
	h.ID = m.st.nextHistID
	m.st.nextHistID++
	m.st.pointHistories = append(m.st.pointHistories, h)
	return nil
}

func (m memPointHistories) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.PointHistory, int64, error) {
	var out []model.PointHistory
	for _, h := range m.st.pointHistories {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, int64(len(out)), nil
}

func (m memPointHistories) FindByOrderIDAndType(ctx context.Context, orderID int64, t model.PointHistoryType) (model.PointHistory, bool, error) {
	for _, h := range m.st.pointHistories {
		if h.OrderID == orderID && h.Type == t {
			return h, true, nil
		}
	}
	return model.PointHistory{}, false, nil
}

type memNotifications struct{ st *memState }

func (m memNotifications) Create(ctx context.Context, n model.Notification) (int64, error) {
	n.ID = m.st.nextNotifID
	m.st.nextNotifID++
	m.st.notifications = append(m.st.notifications, n)
	return n.ID, nil
}

func (m memNotifications) CreateBulk(ctx context.Context, ns []model.Notification) error {
	for _, n := range ns {
		if _, err := m.Create(context.Background(), n); err != nil {
			return err
		}
	}
	return nil
}

func (m memNotifications) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Notification, int64, error) {
	var out []model.Notification
	for _, n := range m.st.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (m memNotifications) MarkChecked(ctx context.Context, id int64, userID int64) (bool, error) {
	for i, n := range m.st.notifications {
		if n.ID == id && n.UserID == userID {
			m.st.notifications[i].IsChecked = true
			return true, nil
		}
	}
	return false, nil
}

type memCarts struct{ st *memState }

func (m memCarts) ListUserIDsWithItem(ctx context.Context, productID int64, sizeID int64, excludeUserID int64) ([]int64, error) {
	var out []int64
	for _, uid := range m.st.cartUsers[stockKey{productID, sizeID}] {
		if uid != excludeUserID {
			out = append(out, uid)
		}
	}
	return out, nil
}

// =====================
// tx外アクセス（ロック付き）
// =====================

type lockedUsers struct{ s *memStore }

func (l lockedUsers) FindByID(ctx context.Context, id int64) (model.User, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memUsers{l.s.st}.FindByID(ctx, id)
}

func (l lockedUsers) AddPoint(ctx context.Context, userID int64, amount int64) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memUsers{l.s.st}.AddPoint(ctx, userID, amount)
}

func (l lockedUsers) DebitPointIfEnough(ctx context.Context, userID int64, amount int64) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memUsers{l.s.st}.DebitPointIfEnough(ctx, userID, amount)
}

func (l lockedUsers) UpdateGrade(ctx context.Context, userID int64, gradeID int64) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memUsers{l.s.st}.UpdateGrade(ctx, userID, gradeID)
}

type lockedOrders struct{ s *memStore }

func (l lockedOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memOrders{l.s.st}.FindByID(ctx, orderID)
}

func (l lockedOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memOrders{l.s.st}.ListByUserID(ctx, userID, page, limit)
}

func (l lockedOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memOrders{l.s.st}.Create(ctx, order)
}

func (l lockedOrders) UpdateStatusIf(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memOrders{l.s.st}.UpdateStatusIf(ctx, orderID, from, to)
}

func (l lockedOrders) UpdateReceiver(ctx context.Context, orderID int64, name string, phone string, address string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memOrders{l.s.st}.UpdateReceiver(ctx, orderID, name, phone, address)
}

func (l lockedOrders) ListExpired(ctx context.Context, now time.Time) ([]model.Order, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memOrders{l.s.st}.ListExpired(ctx, now)
}

func (l lockedOrders) SumCompletedSpend(ctx context.Context, userID int64) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memOrders{l.s.st}.SumCompletedSpend(ctx, userID)
}

type lockedPayments struct{ s *memStore }

func (l lockedPayments) Create(ctx context.Context, p model.Payment) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memPayments{l.s.st}.Create(ctx, p)
}

func (l lockedPayments) FindByID(ctx context.Context, id string) (model.Payment, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memPayments{l.s.st}.FindByID(ctx, id)
}

func (l lockedPayments) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memPayments{l.s.st}.FindByOrderID(ctx, orderID)
}

func (l lockedPayments) UpdateStatusIf(ctx context.Context, id string, from model.PaymentStatus, to model.PaymentStatus) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memPayments{l.s.st}.UpdateStatusIf(ctx, id, from, to)
}

func (l lockedPayments) MarkPaid(ctx context.Context, id string, impUID string, pgTid string) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memPayments{l.s.st}.MarkPaid(ctx, id, impUID, pgTid)
}

func (l lockedPayments) MarkFailed(ctx context.Context, id string, code string, message string, failedAt time.Time) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memPayments{l.s.st}.MarkFailed(ctx, id, code, message, failedAt)
}

type lockedGrades struct{ s *memStore }

func (l lockedGrades) ListByMinSpendDesc(ctx context.Context) ([]model.Grade, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memGrades{l.s.st}.ListByMinSpendDesc(ctx)
}

type lockedPointHistories struct{ s *memStore }

func (l lockedPointHistories) Create(ctx context.Context, h model.PointHistory) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memPointHistories{l.s.st}.Create(ctx, h)
}

func (l lockedPointHistories) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.PointHistory, int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memPointHistories{l.s.st}.ListByUserID(ctx, userID, page, limit)
}

func (l lockedPointHistories) FindByOrderIDAndType(ctx context.Context, orderID int64, t model.PointHistoryType) (model.PointHistory, bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memPointHistories{l.s.st}.FindByOrderIDAndType(ctx, orderID, t)
}

type lockedNotifications struct{ s *memStore }

func (l lockedNotifications) Create(ctx context.Context, n model.Notification) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memNotifications{l.s.st}.Create(ctx, n)
}

func (l lockedNotifications) CreateBulk(ctx context.Context, ns []model.Notification) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memNotifications{l.s.st}.CreateBulk(ctx, ns)
}

func (l lockedNotifications) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Notification, int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memNotifications{l.s.st}.ListByUserID(ctx, userID, page, limit)
}

func (l lockedNotifications) MarkChecked(ctx context.Context, id int64, userID int64) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return memNotifications{l.s.st}.MarkChecked(ctx, id, userID)
}

// =====================
// 記録系フェイク
// =====================

type recordedEvent struct {
	eventType string
	orderID   int64
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) Publish(eventType string, orderID int64, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType: eventType, orderID: orderID})
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.eventType)
	}
	return out
}

type pushRecorder struct {
	mu     sync.Mutex
	pushes []pendingPush
}

func (r *pushRecorder) Push(userID int64, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, pendingPush{userID: userID, content: content})
}

func (r *pushRecorder) contentsFor(userID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, p := range r.pushes {
		if p.userID == userID {
			out = append(out, p.content)
		}
	}
	return out
}

type gradeRecorder struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (r *gradeRecorder) Recompute(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, userID)
	return r.err
}

func (r *gradeRecorder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeGateway struct {
	rec GatewayPayment
	err error
}

func (g *fakeGateway) LookupPayment(ctx context.Context, impUID string) (GatewayPayment, error) {
	if g.err != nil {
		return GatewayPayment{}, g.err
	}
	return g.rec, nil
}
