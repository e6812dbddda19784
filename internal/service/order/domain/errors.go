// internal/service/order/domain/errors.go
package domain

import "errors"

var (
	// ErrOrderNotFound 订单 ID 无法解析。
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidStatus 状态值不在固定枚举内，任何变更发生之前就被拒绝。
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrInvalidTransition 从终态或已发货/已送达状态尝试取消。
	ErrInvalidTransition = errors.New("order cannot be cancelled in its current status")

	// ErrEmptyOrder 行列表为空。属于上游前置条件，引擎内部不re-check。
	ErrEmptyOrder = errors.New("order must contain at least one line")
)
