// internal/service/order/infrastructure/mapper.go
package infrastructure

import (
	"emporium/internal/service/order/domain"
)

func toModel(o *domain.Order) *OrderModel {
	lines := make([]OrderLineModel, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineModel{
			OrderID:   o.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return &OrderModel{
		ID:          o.ID,
		UserID:      o.UserID,
		OrderDate:   o.OrderDate,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Lines:       lines,
	}
}

func toDomain(m *OrderModel) *domain.Order {
	lines := make([]domain.Line, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, domain.Line{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return &domain.Order{
		ID:          m.ID,
		UserID:      m.UserID,
		OrderDate:   m.OrderDate,
		Status:      domain.Status(m.Status),
		Lines:       lines,
		TotalAmount: m.TotalAmount,
	}
}

func toDomainList(models []OrderModel) []*domain.Order {
	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, toDomain(&models[i]))
	}
	return orders
}
