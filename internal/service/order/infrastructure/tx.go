// internal/service/order/infrastructure/tx.go
package infrastructure

import (
	"context"

	"gorm.io/gorm"

	cataloginfra "emporium/internal/service/catalog/infrastructure"
	"emporium/internal/service/order/application"
	userinfra "emporium/internal/service/user/infrastructure"
)

// NewStores 在给定的 db 句柄(可以是事务)上组装仓储集合。
func NewStores(db *gorm.DB) application.Stores {
	return application.Stores{
		Orders:   NewGormOrderRepository(db),
		Products: cataloginfra.NewGormProductRepository(db),
		Users:    userinfra.NewGormUserRepository(db),
	}
}

// GormTxManager 用 gorm 的事务闭包实现 application.TxManager。
// fn 返回错误或 panic 时整个事务回滚。
type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, s application.Stores) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStores(tx))
	})
}

var _ application.TxManager = (*GormTxManager)(nil)
