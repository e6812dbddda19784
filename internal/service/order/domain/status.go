// internal/service/order/domain/status.go
package domain

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending    Status = "PENDING"    // 已创建，库存已预占
	StatusProcessing Status = "PROCESSING" // 备货/处理中
	StatusShipped    Status = "SHIPPED"    // 已发货
	StatusDelivered  Status = "DELIVERED"  // 已送达 (终态)
	StatusCancelled  Status = "CANCELLED"  // 已取消，库存已返还 (终态)
)

// AllStatuses 按固定顺序返回全部合法状态，报表按这个顺序零值填充。
func AllStatuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
}

// ParseStatus 校验字符串是否是合法状态值。
// 非法值返回 ErrInvalidStatus，任何变更都不会发生。
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// IsTerminal 终态不再定义任何转移。
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Cancellable 只有待处理和处理中的订单可以走取消路径。
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// CountsTowardRevenue 营收只统计已发货和已送达的订单。
func (s Status) CountsTowardRevenue() bool {
	return s == StatusShipped || s == StatusDelivered
}
