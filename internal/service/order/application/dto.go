// internal/service/order/application/dto.go
package application

import (
	"time"

	"emporium/internal/service/order/domain"
)

// LineRequest 创建订单请求里的一行: (商品, 数量)。
type LineRequest struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest 创建订单用例的输入。
// 行列表非空、数量为正由接口层校验过。
type CreateOrderRequest struct {
	OwnerID uint64        `json:"ownerId"`
	Lines   []LineRequest `json:"lines"`
}

// LineView 对外表示里的行项目，单价快照不外露。
type LineView struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderView 是订单对 HTTP 层的响应表示。
// TotalAmount 用十进制字符串承载，避免 JSON 浮点精度丢失。
type OrderView struct {
	ID          string     `json:"id"`
	OwnerID     uint64     `json:"ownerId"`
	OrderDate   string     `json:"orderDate"` // RFC3339
	Status      string     `json:"status"`
	TotalAmount string     `json:"totalAmount"`
	Lines       []LineView `json:"lines"`
}

// ToOrderView 把领域实体翻译成响应表示。
func ToOrderView(o *domain.Order) *OrderView {
	lines := make([]LineView, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, LineView{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return &OrderView{
		ID:          o.ID,
		OwnerID:     o.UserID,
		OrderDate:   o.OrderDate.UTC().Format(time.RFC3339),
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.StringFixed(2),
		Lines:       lines,
	}
}

func toOrderViews(orders []*domain.Order) []*OrderView {
	views := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, ToOrderView(o))
	}
	return views
}
