// internal/service/order/application/stores.go
package application

import (
	"context"

	catalogdomain "emporium/internal/service/catalog/domain"
	"emporium/internal/service/order/domain"
	userdomain "emporium/internal/service/user/domain"
)

// Stores 打包订单引擎依赖的三个存储接口。
// 引擎不持有全局仓储单例，全部依赖显式注入。
type Stores struct {
	Orders   domain.OrderRepository
	Products catalogdomain.ProductRepository
	Users    userdomain.UserRepository
}

// TxManager 在一个数据库事务里执行 fn，传给 fn 的 Stores 绑定在该事务上。
// fn 返回错误则整个事务回滚，不存在部分提交。
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
