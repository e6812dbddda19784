// internal/service/order/application/reporting.go
package application

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"emporium/internal/pkg/logger"
	"emporium/internal/pkg/redis"
	"emporium/internal/service/order/domain"
)

const dashboardCacheKey = "admin:dashboard:summary"

// 报表都是纯查询，没有副作用，除存储错误外没有失败模式。

// ListAllOrders 全量订单，按下单时间倒序。
func (s *OrderService) ListAllOrders(ctx context.Context) ([]*OrderView, error) {
	orders, err := s.stores.Orders.List(ctx, domain.ListQuery{SortBy: "order_date", Desc: true})
	if err != nil {
		return nil, err
	}
	return toOrderViews(orders), nil
}

// CountOrders 订单总数。
func (s *OrderService) CountOrders(ctx context.Context) (int64, error) {
	return s.stores.Orders.Count(ctx)
}

// TotalRevenue 营收 = SHIPPED 和 DELIVERED 订单的 total_amount 之和。
// 其它状态(包括 CANCELLED)不计入。
func (s *OrderService) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	return s.stores.Orders.SumTotalByStatuses(ctx,
		[]domain.Status{domain.StatusShipped, domain.StatusDelivered})
}

// RecentOrders 最近 n 单，按下单时间倒序。
func (s *OrderService) RecentOrders(ctx context.Context, n int) ([]*OrderView, error) {
	orders, err := s.stores.Orders.List(ctx, domain.ListQuery{
		Limit:  n,
		SortBy: "order_date",
		Desc:   true,
	})
	if err != nil {
		return nil, err
	}
	return toOrderViews(orders), nil
}

// StatusCounts 每个枚举状态的订单数，没有订单的状态填零。
func (s *OrderService) StatusCounts(ctx context.Context) (map[domain.Status]int64, error) {
	counts := make(map[domain.Status]int64, len(domain.AllStatuses()))
	for _, status := range domain.AllStatuses() {
		n, err := s.stores.Orders.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, nil
}

// DashboardSummary 管理后台一次拉全的聚合包。
type DashboardSummary struct {
	OrderCount   int64            `json:"orderCount"`
	TotalRevenue string           `json:"totalRevenue"`
	StatusCounts map[string]int64 `json:"statusCounts"`
	RecentOrders []*OrderView     `json:"recentOrders"`
}

// Dashboard 并发执行四类聚合查询，结果在 Redis 里缓存一个 TTL。
// 缓存只是减载，不影响正确性; Redis 不可用时直接回源。
func (s *OrderService) Dashboard(ctx context.Context, recentN int) (*DashboardSummary, error) {
	ctx, span := s.tracer.Start(ctx, "engine.Dashboard")
	defer span.End()

	if s.cache != nil {
		var cached DashboardSummary
		err := s.cache.GetJSON(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			logger.Ctx(ctx).Warn().Err(err).Msg("dashboard cache read failed, falling through")
		}
	}

	var (
		count   int64
		revenue decimal.Decimal
		byState map[domain.Status]int64
		recent  []*OrderView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		count, err = s.CountOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		revenue, err = s.TotalRevenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		byState, err = s.StatusCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.RecentOrders(gctx, recentN)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	statusCounts := make(map[string]int64, len(byState))
	for k, v := range byState {
		statusCounts[string(k)] = v
	}
	summary := &DashboardSummary{
		OrderCount:   count,
		TotalRevenue: revenue.StringFixed(2),
		StatusCounts: statusCounts,
		RecentOrders: recent,
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("dashboard cache write failed")
		}
	}
	return summary, nil
}
