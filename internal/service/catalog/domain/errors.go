// internal/service/catalog/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// ErrProductNotFound 商品 ID 无法解析。
var ErrProductNotFound = errors.New("product not found")

// InsufficientStockError 表示某一行请求的数量超过了可售库存。
// 错误里带上商品信息，调用方要把出问题的商品指给用户看。
type InsufficientStockError struct {
	ProductID   uint64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q (id=%d): requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}
