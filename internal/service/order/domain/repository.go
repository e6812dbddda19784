// internal/service/order/domain/repository.go
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ListQuery findAll 的分页与排序参数。
// SortBy 只接受实现方白名单里的列名。
type ListQuery struct {
	Offset int
	Limit  int // 0 表示不限制
	SortBy string
	Desc   bool
}

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，由基础设施层实现。
type OrderRepository interface {
	// Create 持久化订单及其全部行项目。
	Create(ctx context.Context, order *Order) error

	// FindByID 根据 ID 查找订单，包含行项目。
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindByIDForUpdate 带行锁读取，事务内用，
	// 防止取消与取消/改状态并发交错导致库存重复返还。
	FindByIDForUpdate(ctx context.Context, id string) (*Order, error)

	// FindByUserID 按归属用户查询，按下单时间倒序。
	FindByUserID(ctx context.Context, userID uint64) ([]*Order, error)

	// UpdateStatus 只更新状态列。
	UpdateStatus(ctx context.Context, id string, status Status) error

	// List 带分页排序的全量查询。
	List(ctx context.Context, q ListQuery) ([]*Order, error)

	// Count 订单总数。
	Count(ctx context.Context) (int64, error)

	// CountByStatus 指定状态的订单数。
	CountByStatus(ctx context.Context, status Status) (int64, error)

	// SumTotalByStatuses 对指定状态集合的订单求 total_amount 之和，
	// 在数据库里以 DECIMAL 精度聚合。
	SumTotalByStatuses(ctx context.Context, statuses []Status) (decimal.Decimal, error)
}
