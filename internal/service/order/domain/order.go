// internal/service/order/domain/order.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 是订单聚合的根实体。
// 只能通过 NewOrder 创建，状态只能通过状态流转操作修改。
type Order struct {
	ID          string
	UserID      uint64
	OrderDate   time.Time
	Status      Status
	Lines       []Line
	TotalAmount decimal.Decimal // 派生值: Σ 行小计，精确十进制运算
}

// Line 是订单里的一个行项目。
// UnitPrice 是下单时刻的价格快照，之后目录调价不影响它。
// 对商品只持有 ID 引用，不持有对象。
type Line struct {
	ProductID uint64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal 行小计 = 单价 × 数量。
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewOrder 工厂函数。行列表非空、数量为正由上游接口层保证，
// 这里不再重复校验。总额在创建时一次算定。
func NewOrder(id string, userID uint64, lines []Line, now time.Time) *Order {
	return &Order{
		ID:          id,
		UserID:      userID,
		OrderDate:   now.UTC(),
		Status:      StatusPending,
		Lines:       lines,
		TotalAmount: TotalOf(lines),
	}
}

// TotalOf 对一组行项目求总额。
func TotalOf(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Cancel 受守卫的取消入口: 只有 PENDING / PROCESSING 可以取消。
// 库存返还由应用层在同一事务里完成。
func (o *Order) Cancel() error {
	if !o.Status.Cancellable() {
		return ErrInvalidTransition
	}
	o.Status = StatusCancelled
	return nil
}

// OverrideStatus 管理员入口: 除了枚举校验(由 ParseStatus 承担)之外
// 不做任何转移图约束，无条件覆盖。和 Cancel 是刻意分开的两个入口，
// 不要合并。
func (o *Order) OverrideStatus(s Status) {
	o.Status = s
}
