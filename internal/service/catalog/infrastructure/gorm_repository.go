// internal/service/catalog/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"emporium/internal/service/catalog/domain"
)

// ProductModel 对应 products 表
type ProductModel struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement"`
	Name          string          `gorm:"size:255;not null"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockQuantity int             `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ProductModel) TableName() string {
	return "products"
}

// GormProductRepository 是 domain.ProductRepository 的 GORM 实现。
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	return r.findByID(ctx, id, false)
}

// FindByIDForUpdate 带 FOR UPDATE 行锁读取。锁的作用域就是当前事务，
// 两个并发下单对同一商品的库存判定在这里排队。
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Product, error) {
	return r.findByID(ctx, id, true)
}

func (r *GormProductRepository) findByID(ctx context.Context, id uint64, forUpdate bool) (*domain.Product, error) {
	tx := r.db.WithContext(ctx)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model ProductModel
	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, pkgerrors.Wrap(err, "find product by id")
	}
	return toDomainProduct(&model), nil
}

// AdjustStock 原子增减库存。减库存带 stock_quantity >= ? 守卫，
// 数据库层面保证库存列永远不会变成负数。
func (r *GormProductRepository) AdjustStock(ctx context.Context, id uint64, delta int) error {
	tx := r.db.WithContext(ctx).Model(&ProductModel{}).Where("id = ?", id)
	if delta < 0 {
		tx = tx.Where("stock_quantity >= ?", -delta)
	}
	res := tx.UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "adjust product stock")
	}
	if res.RowsAffected == 0 {
		// 要么商品不存在，要么守卫条件不满足，查一次区分开
		product, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   -delta,
			Available:   product.StockQuantity,
		}
	}
	return nil
}

func (r *GormProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list products")
	}
	products := make([]*domain.Product, 0, len(models))
	for i := range models {
		products = append(products, toDomainProduct(&models[i]))
	}
	return products, nil
}

func toDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:            m.ID,
		Name:          m.Name,
		Price:         m.Price,
		StockQuantity: m.StockQuantity,
	}
}

var _ domain.ProductRepository = (*GormProductRepository)(nil)
