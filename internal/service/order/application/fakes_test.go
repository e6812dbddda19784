// internal/service/order/application/fakes_test.go
package application

import (
	"context"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace/noop"

	"emporium/internal/pkg/metrics"
	catalogdomain "emporium/internal/service/catalog/domain"
	"emporium/internal/service/order/domain"
	userdomain "emporium/internal/service/user/domain"
)

// memState 是一份内存版的存储状态，三个仓储假件都读写它。
type memState struct {
	users    map[uint64]*userdomain.User
	products map[uint64]*catalogdomain.Product
	orders   map[string]*domain.Order
}

func newMemState() *memState {
	return &memState{
		users:    make(map[uint64]*userdomain.User),
		products: make(map[uint64]*catalogdomain.Product),
		orders:   make(map[string]*domain.Order),
	}
}

func (st *memState) clone() *memState {
	c := newMemState()
	for id, u := range st.users {
		cu := *u
		c.users[id] = &cu
	}
	for id, p := range st.products {
		cp := *p
		c.products[id] = &cp
	}
	for id, o := range st.orders {
		c.orders[id] = cloneOrder(o)
	}
	return c
}

func cloneOrder(o *domain.Order) *domain.Order {
	co := *o
	co.Lines = append([]domain.Line(nil), o.Lines...)
	return &co
}

// memTxManager 模拟数据库事务: 整个事务串行执行，fn 返回错误时
// 把状态恢复到进入事务前的快照，不存在部分提交。
type memTxManager struct {
	mu    *sync.Mutex
	state *memState
}

func newMemTxManager(state *memState) *memTxManager {
	return &memTxManager{mu: &sync.Mutex{}, state: state}
}

func (m *memTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(ctx, storesOver(m.state)); err != nil {
		*m.state = *snapshot
		return err
	}
	return nil
}

func storesOver(st *memState) Stores {
	return Stores{
		Orders:   &memOrderRepo{st: st},
		Products: &memProductRepo{st: st},
		Users:    &memUserRepo{st: st},
	}
}

type memUserRepo struct{ st *memState }

func (r *memUserRepo) FindByID(_ context.Context, id uint64) (*userdomain.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	cu := *u
	return &cu, nil
}

type memProductRepo struct{ st *memState }

func (r *memProductRepo) FindByID(_ context.Context, id uint64) (*catalogdomain.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) FindByIDForUpdate(ctx context.Context, id uint64) (*catalogdomain.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *memProductRepo) AdjustStock(_ context.Context, id uint64, delta int) error {
	p, ok := r.st.products[id]
	if !ok {
		return catalogdomain.ErrProductNotFound
	}
	if p.StockQuantity+delta < 0 {
		return &catalogdomain.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   -delta,
			Available:   p.StockQuantity,
		}
	}
	p.StockQuantity += delta
	return nil
}

func (r *memProductRepo) FindAll(_ context.Context) ([]*catalogdomain.Product, error) {
	out := make([]*catalogdomain.Product, 0, len(r.st.products))
	for _, p := range r.st.products {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memOrderRepo struct{ st *memState }

func (r *memOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.st.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *memOrderRepo) FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *memOrderRepo) FindByUserID(_ context.Context, userID uint64) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.st.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sortByDateDesc(out)
	return out, nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	o, ok := r.st.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (r *memOrderRepo) List(_ context.Context, q domain.ListQuery) ([]*domain.Order, error) {
	out := make([]*domain.Order, 0, len(r.st.orders))
	for _, o := range r.st.orders {
		out = append(out, cloneOrder(o))
	}
	sortByDateDesc(out)
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *memOrderRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.st.orders)), nil
}

func (r *memOrderRepo) CountByStatus(_ context.Context, status domain.Status) (int64, error) {
	var n int64
	for _, o := range r.st.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memOrderRepo) SumTotalByStatuses(_ context.Context, statuses []domain.Status) (decimal.Decimal, error) {
	want := make(map[domain.Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	sum := decimal.Zero
	for _, o := range r.st.orders {
		if want[o.Status] {
			sum = sum.Add(o.TotalAmount)
		}
	}
	return sum, nil
}

func sortByDateDesc(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].ID < orders[j].ID
	})
}

// capturingPublisher 记录发布过的事件。
type capturingPublisher struct {
	mu            sync.Mutex
	placed        []*domain.OrderPlaced
	statusChanged []*domain.OrderStatusChanged
	cancelled     []*domain.OrderCancelled
}

func (p *capturingPublisher) PublishOrderPlaced(_ context.Context, e *domain.OrderPlaced) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, e)
}

func (p *capturingPublisher) PublishOrderStatusChanged(_ context.Context, e *domain.OrderStatusChanged) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusChanged = append(p.statusChanged, e)
}

func (p *capturingPublisher) PublishOrderCancelled(_ context.Context, e *domain.OrderCancelled) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, e)
}

// testEngine 组装一个跑在内存存储上的订单引擎。
func testEngine(state *memState) (*OrderService, *capturingPublisher) {
	pub := &capturingPublisher{}
	svc := NewOrderService(
		newMemTxManager(state),
		storesOver(state),
		pub,
		metrics.NewOrderMetricsWith(prometheus.NewRegistry()),
		noop.NewTracerProvider().Tracer("test"),
		nil, // 不挂缓存
		0,
	)
	return svc, pub
}
