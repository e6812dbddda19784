// internal/service/order/domain/port/publisher.go
package port

import (
	"context"

	"emporium/internal/service/order/domain"
)

// EventPublisher 是订单事件的出站端口。
// 实现方: Kafka 适配器、websocket 推送 Hub。
// 发布在事务提交之后进行，失败只记录日志，不影响业务结果。
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *domain.OrderPlaced)
	PublishOrderStatusChanged(ctx context.Context, event *domain.OrderStatusChanged)
	PublishOrderCancelled(ctx context.Context, event *domain.OrderCancelled)
}

// Fanout 把同一个事件广播给多个发布方(Kafka + websocket 推送等)。
type Fanout []EventPublisher

func (f Fanout) PublishOrderPlaced(ctx context.Context, event *domain.OrderPlaced) {
	for _, p := range f {
		p.PublishOrderPlaced(ctx, event)
	}
}

func (f Fanout) PublishOrderStatusChanged(ctx context.Context, event *domain.OrderStatusChanged) {
	for _, p := range f {
		p.PublishOrderStatusChanged(ctx, event)
	}
}

func (f Fanout) PublishOrderCancelled(ctx context.Context, event *domain.OrderCancelled) {
	for _, p := range f {
		p.PublishOrderCancelled(ctx, event)
	}
}
