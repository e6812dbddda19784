// internal/service/order/infrastructure/kafka_publisher.go
package infrastructure

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"

	"emporium/internal/pkg/logger"
	"emporium/internal/pkg/mq"
	"emporium/internal/service/order/domain"
	"emporium/internal/service/order/domain/port"
)

// 事件类型标识，消费方按这个字段路由。
const (
	eventTypeOrderPlaced        = "order.placed"
	eventTypeOrderStatusChanged = "order.status_changed"
	eventTypeOrderCancelled     = "order.cancelled"
)

// eventEnvelope 统一的 Kafka 消息信封。
type eventEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// KafkaEventPublisher 把订单事件写到 Kafka topic。
// 按用户 ID 做分区 key，同一用户的事件保序。
// 发布失败只记日志: 事务已经提交，业务结果不回滚。
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

func NewKafkaEventPublisher(writer *kafka.Writer) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer}
}

func (p *KafkaEventPublisher) PublishOrderPlaced(ctx context.Context, event *domain.OrderPlaced) {
	p.publish(ctx, eventTypeOrderPlaced, strconv.FormatUint(event.UserID, 10), event)
}

func (p *KafkaEventPublisher) PublishOrderStatusChanged(ctx context.Context, event *domain.OrderStatusChanged) {
	p.publish(ctx, eventTypeOrderStatusChanged, event.OrderID, event)
}

func (p *KafkaEventPublisher) PublishOrderCancelled(ctx context.Context, event *domain.OrderCancelled) {
	p.publish(ctx, eventTypeOrderCancelled, strconv.FormatUint(event.UserID, 10), event)
}

func (p *KafkaEventPublisher) publish(ctx context.Context, eventType, key string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("event_type", eventType).Msg("failed to marshal order event")
		return
	}
	envelope, err := json.Marshal(eventEnvelope{Type: eventType, Payload: data})
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event envelope")
		return
	}
	if err := mq.ProduceMessage(ctx, p.writer, []byte(key), envelope); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("event_type", eventType).Msg("failed to produce order event")
	}
}

var _ port.EventPublisher = (*KafkaEventPublisher)(nil)
