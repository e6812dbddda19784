// internal/service/order/application/service.go
package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"emporium/internal/pkg/logger"
	"emporium/internal/pkg/metrics"
	"emporium/internal/pkg/redis"
	catalogdomain "emporium/internal/service/catalog/domain"
	"emporium/internal/service/order/domain"
	"emporium/internal/service/order/domain/port"
	userdomain "emporium/internal/service/user/domain"
)

// OrderService 是订单引擎: 创建订单(含库存预占)、状态流转、聚合报表。
// 所有写操作都在 TxManager 给出的单个数据库事务里完成。
type OrderService struct {
	tx        TxManager
	stores    Stores // 事务外的只读访问
	publisher port.EventPublisher
	metrics   *metrics.OrderMetrics
	tracer    trace.Tracer

	cache    *redis.Client // 可为 nil，仪表盘聚合缓存
	cacheTTL time.Duration

	// 测试里替换
	now   func() time.Time
	newID func() string
}

func NewOrderService(
	tx TxManager,
	stores Stores,
	publisher port.EventPublisher,
	m *metrics.OrderMetrics,
	tracer trace.Tracer,
	cache *redis.Client,
	cacheTTL time.Duration,
) *OrderService {
	return &OrderService{
		tx:        tx,
		stores:    stores,
		publisher: publisher,
		metrics:   m,
		tracer:    tracer,
		cache:     cache,
		cacheTTL:  cacheTTL,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// CreateOrder 创建订单。语义:
//   - 归属用户不存在 -> userdomain.ErrUserNotFound
//   - 任一行商品不存在 -> catalogdomain.ErrProductNotFound
//   - 任一行库存不足 -> *catalogdomain.InsufficientStockError (指明商品)
//
// 库存判定与扣减按调用方给定的行顺序逐行进行；任何一行失败，
// 整个事务回滚，之前已扣减的库存不会遗留。成功则订单连同全部
// 行项目与全部库存扣减一起提交，状态为 PENDING。
// 同一订单里重复出现的商品按独立行处理，不做预合并。
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "engine.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.owner_id", int64(req.OwnerID)),
		attribute.Int("order.line_count", len(req.Lines)),
	)

	var created *domain.Order
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st Stores) error {
		if _, err := st.Users.FindByID(ctx, req.OwnerID); err != nil {
			return err
		}

		lines := make([]domain.Line, 0, len(req.Lines))
		for _, lr := range req.Lines {
			// 行锁读取，并发创建对同一商品的 check-then-act 在这里串行化
			product, err := st.Products.FindByIDForUpdate(ctx, lr.ProductID)
			if err != nil {
				return err
			}
			if !product.HasStock(lr.Quantity) {
				return &catalogdomain.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   lr.Quantity,
					Available:   product.StockQuantity,
				}
			}
			if err := st.Products.AdjustStock(ctx, product.ID, -lr.Quantity); err != nil {
				return err
			}
			// 单价快照取自此刻的目录价格，之后不再回读
			lines = append(lines, domain.Line{
				ProductID: product.ID,
				Quantity:  lr.Quantity,
				UnitPrice: product.Price,
			})
		}

		created = domain.NewOrder(s.newID(), req.OwnerID, lines, s.now())
		return st.Orders.Create(ctx, created)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order creation failed")
		s.metrics.OrderFailures.WithLabelValues("create", failureReason(err)).Inc()
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	logger.Ctx(ctx).Info().
		Str("order_id", created.ID).
		Uint64("owner_id", created.UserID).
		Str("total_amount", created.TotalAmount.StringFixed(2)).
		Msg("order placed")

	s.publisher.PublishOrderPlaced(ctx, &domain.OrderPlaced{
		OrderID:     created.ID,
		UserID:      created.UserID,
		TotalAmount: created.TotalAmount.StringFixed(2),
		Lines:       eventLines(created.Lines),
		PlacedAt:    created.OrderDate,
	})
	return ToOrderView(created), nil
}

// GetOrder 按 ID 读取订单。
func (s *OrderService) GetOrder(ctx context.Context, id string) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "engine.GetOrder")
	defer span.End()

	order, err := s.stores.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToOrderView(order), nil
}

// GetOrdersForOwner 返回某用户的全部订单。用户必须存在。
func (s *OrderService) GetOrdersForOwner(ctx context.Context, ownerID uint64) ([]*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "engine.GetOrdersForOwner")
	defer span.End()

	if _, err := s.stores.Users.FindByID(ctx, ownerID); err != nil {
		return nil, err
	}
	orders, err := s.stores.Orders.FindByUserID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toOrderViews(orders), nil
}

// UpdateStatus 管理员入口: 枚举校验之外不做转移图约束，无条件覆盖。
// 不碰库存。和 CancelOrder 是两个刻意分开的入口。
func (s *OrderService) UpdateStatus(ctx context.Context, id string, newStatus string) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "engine.UpdateStatus")
	defer span.End()

	// 非法状态值在任何变更发生之前拒绝
	status, err := domain.ParseStatus(newStatus)
	if err != nil {
		s.metrics.OrderFailures.WithLabelValues("update_status", failureReason(err)).Inc()
		return nil, err
	}

	var updated *domain.Order
	var oldStatus domain.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Stores) error {
		order, err := st.Orders.FindByID(ctx, id)
		if err != nil {
			return err
		}
		oldStatus = order.Status
		order.OverrideStatus(status)
		updated = order
		return st.Orders.UpdateStatus(ctx, id, status)
	})
	if err != nil {
		span.RecordError(err)
		s.metrics.OrderFailures.WithLabelValues("update_status", failureReason(err)).Inc()
		return nil, err
	}

	s.metrics.StatusUpdates.WithLabelValues(string(status)).Inc()
	logger.Ctx(ctx).Info().
		Str("order_id", id).
		Str("old_status", string(oldStatus)).
		Str("new_status", string(status)).
		Msg("order status overridden")

	s.publisher.PublishOrderStatusChanged(ctx, &domain.OrderStatusChanged{
		OrderID:   id,
		OldStatus: oldStatus,
		NewStatus: status,
		At:        s.now().UTC(),
	})
	return ToOrderView(updated), nil
}

// CancelOrder 受守卫的取消入口: 只有 PENDING / PROCESSING 可取消。
// 每一行的数量返还到对应商品库存，返还与状态写入是一个原子单元，
// 外部观察不到部分返还。
func (s *OrderService) CancelOrder(ctx context.Context, id string) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "engine.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	var cancelled *domain.Order
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st Stores) error {
		// 行锁读取订单，两个并发取消只会有一个看到可取消状态
		order, err := st.Orders.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		for _, l := range order.Lines {
			if err := st.Products.AdjustStock(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		cancelled = order
		return st.Orders.UpdateStatus(ctx, id, domain.StatusCancelled)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order cancellation failed")
		s.metrics.OrderFailures.WithLabelValues("cancel", failureReason(err)).Inc()
		return nil, err
	}

	s.metrics.OrdersCancelled.Inc()
	logger.Ctx(ctx).Info().Str("order_id", id).Msg("order cancelled, stock restored")

	s.publisher.PublishOrderCancelled(ctx, &domain.OrderCancelled{
		OrderID:     cancelled.ID,
		UserID:      cancelled.UserID,
		Restocked:   eventLines(cancelled.Lines),
		CancelledAt: s.now().UTC(),
	})
	return ToOrderView(cancelled), nil
}

func eventLines(lines []domain.Line) []domain.EventLine {
	out := make([]domain.EventLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, domain.EventLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}

// failureReason 把错误映射成稳定的指标标签。
func failureReason(err error) string {
	var stockErr *catalogdomain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, catalogdomain.ErrProductNotFound):
		return "not_found"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	default:
		return "internal"
	}
}
