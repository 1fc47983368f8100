package infrastructure

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/database"
	"storefront/internal/service/catalog/domain"
)

// GormProductRepository 是 domain.ProductRepository 的 GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository 创建一个新的 GORM 仓储实例
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(ctx context.Context, p *domain.Product) error {
	m := FromDomainProduct(p)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return pkgerrors.Wrap(err, "insert product")
	}
	p.ID = m.ID
	p.CreatedAt = m.CreatedAt
	p.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var m ProductModel
	err := r.db.WithContext(ctx).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(id)
		}
		return nil, pkgerrors.Wrapf(err, "find product %d", id)
	}
	return ToDomainProduct(&m), nil
}

// List 返回全部商品，最新的在前
func (r *GormProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	var models []ProductModel
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list products")
	}
	out := make([]*domain.Product, 0, len(models))
	for i := range models {
		out = append(out, ToDomainProduct(&models[i]))
	}
	return out, nil
}

// Update 先在领域模型上校验补丁，再只更新补丁中的列，
// 同时进行的下单扣减不会被旧的库存值覆盖
func (r *GormProductRepository) Update(ctx context.Context, id uint, patch domain.ProductPatch) (*domain.Product, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := current.Apply(patch); err != nil {
		return nil, err
	}

	cols := patchColumns(patch)
	if name, ok := cols["name"].(string); ok {
		cols["name"] = strings.TrimSpace(name)
	}
	err = r.db.WithContext(ctx).Model(&ProductModel{}).Where("id = ?", id).Updates(cols).Error
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "update product %d", id)
	}
	return r.FindByID(ctx, id)
}

// Delete 物理删除；仍被订单明细引用时数据库拒绝删除，返回 Conflict
func (r *GormProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&ProductModel{}, id)
	if res.Error != nil {
		err := database.ClassifyTxError(res.Error)
		if errors.Is(err, apperr.ErrConflict) {
			return apperr.New(apperr.ErrConflict, "Product %d is referenced by existing orders", id)
		}
		return pkgerrors.Wrapf(err, "delete product %d", id)
	}
	if res.RowsAffected == 0 {
		return productNotFound(id)
	}
	return nil
}

func productNotFound(id uint) error {
	return apperr.NotFound("Product %d not found", id)
}
