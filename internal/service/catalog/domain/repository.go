// internal/service/catalog/domain/repository.go
package domain

import "context"

// ProductRepository 定义了订单核心消费的目录读写接口。
// 由基础设施层实现；在事务内取得的实例，其所有操作都落在同一事务里。
type ProductRepository interface {
	// FindByID 普通读取，不加锁。
	FindByID(ctx context.Context, id uint64) (*Product, error)

	// FindByIDForUpdate 带行锁读取 (SELECT ... FOR UPDATE)。
	// 只允许在事务内调用，用于 check-then-act 的库存判定。
	FindByIDForUpdate(ctx context.Context, id uint64) (*Product, error)

	// AdjustStock 对库存做原子增减，delta 为负表示预占。
	// 减库存时由实现保证 stock 不会被写成负数，
	// 条件不满足返回 *InsufficientStockError。
	AdjustStock(ctx context.Context, id uint64, delta int) error

	// FindAll 返回全部商品，低库存告警用。
	FindAll(ctx context.Context) ([]*Product, error)
}
