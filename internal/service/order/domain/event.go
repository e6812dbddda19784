// internal/service/order/domain/event.go
package domain

import "time"

// 订单核心在事务提交之后对外广播的领域事件。
// 事件是通知性质的，发布失败不回滚业务事务。

// EventLine 事件载荷里的行项目，只暴露商品 ID 和数量。
type EventLine struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderPlaced 订单创建成功、库存预占完成后发布。
type OrderPlaced struct {
	OrderID     string      `json:"orderId"`
	UserID      uint64      `json:"userId"`
	TotalAmount string      `json:"totalAmount"` // 十进制字符串，避免精度丢失
	Lines       []EventLine `json:"lines"`
	PlacedAt    time.Time   `json:"placedAt"`
}

// OrderStatusChanged 管理员覆盖状态后发布。
type OrderStatusChanged struct {
	OrderID   string    `json:"orderId"`
	OldStatus Status    `json:"oldStatus"`
	NewStatus Status    `json:"newStatus"`
	At        time.Time `json:"at"`
}

// OrderCancelled 取消成功、库存返还完成后发布。
type OrderCancelled struct {
	OrderID     string      `json:"orderId"`
	UserID      uint64      `json:"userId"`
	Restocked   []EventLine `json:"restocked"`
	CancelledAt time.Time   `json:"cancelledAt"`
}
