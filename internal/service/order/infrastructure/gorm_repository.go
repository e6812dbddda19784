// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"emporium/internal/service/order/domain"
)

// sortColumns List 允许排序的列白名单，防止把调用方输入拼进 ORDER BY。
var sortColumns = map[string]string{
	"order_date":   "order_date",
	"total_amount": "total_amount",
	"status":       "status",
}

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现。
// 传入事务句柄时所有操作都在该事务内。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := toModel(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return pkgerrors.Wrap(err, "create order")
	}
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findByID(ctx, id, false)
}

func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.findByID(ctx, id, true)
}

func (r *GormOrderRepository) findByID(ctx context.Context, id string, forUpdate bool) (*domain.Order, error) {
	tx := r.db.WithContext(ctx)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model OrderModel
	err := tx.Preload("Lines").Where("id = ?", id).First(&model).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, pkgerrors.Wrap(err, "find order by id")
	}
	return toDomain(&model), nil
}

func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uint64) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID).
		Order("order_date DESC").
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find orders by user id")
	}
	return toDomainList(models), nil
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	res := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *GormOrderRepository) List(ctx context.Context, q domain.ListQuery) ([]*domain.Order, error) {
	tx := r.db.WithContext(ctx).Preload("Lines")
	if col, ok := sortColumns[q.SortBy]; ok {
		if q.Desc {
			tx = tx.Order(col + " DESC")
		} else {
			tx = tx.Order(col)
		}
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var models []OrderModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list orders")
	}
	return toDomainList(models), nil
}

func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&OrderModel{}).Count(&n).Error; err != nil {
		return 0, pkgerrors.Wrap(err, "count orders")
	}
	return n, nil
}

func (r *GormOrderRepository) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("status = ?", string(status)).
		Count(&n).Error
	if err != nil {
		return 0, pkgerrors.Wrap(err, "count orders by status")
	}
	return n, nil
}

func (r *GormOrderRepository) SumTotalByStatuses(ctx context.Context, statuses []domain.Status) (decimal.Decimal, error) {
	vals := make([]string, 0, len(statuses))
	for _, s := range statuses {
		vals = append(vals, string(s))
	}
	// 在数据库里以 DECIMAL 精度聚合，避免应用层累加浮点
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Select("SUM(total_amount)").
		Where("status IN ?", vals).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(err, "sum total amount by statuses")
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

var _ domain.OrderRepository = (*GormOrderRepository)(nil)
