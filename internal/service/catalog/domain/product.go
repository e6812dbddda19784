// internal/service/catalog/domain/product.go
package domain

import (
	"github.com/shopspring/decimal"
)

// Product 是商品目录里的一条商品记录。
// 订单核心只读取它的价格和库存，并通过仓储原子地增减库存。
type Product struct {
	ID            uint64
	Name          string
	Price         decimal.Decimal // 单价，非负
	StockQuantity int             // 可售库存，不变式: 永远 >= 0
}

// HasStock 判断当前库存能否满足请求数量。
func (p *Product) HasStock(quantity int) bool {
	return p.StockQuantity >= quantity
}
