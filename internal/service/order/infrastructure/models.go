// internal/service/order/infrastructure/models.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	ID          string           `gorm:"primaryKey;size:36"`
	UserID      uint64           `gorm:"index;not null"`
	OrderDate   time.Time        `gorm:"index;not null"`
	Status      string           `gorm:"index;size:16;not null"`
	TotalAmount decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Lines       []OrderLineModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderLineModel 对应 order_lines 表。行不能脱离订单存在，
// 对商品只存外键式的 ID 引用。
type OrderLineModel struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID   string          `gorm:"index;size:36;not null"`
	ProductID uint64          `gorm:"not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (OrderLineModel) TableName() string {
	return "order_lines"
}
