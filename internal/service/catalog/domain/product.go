// internal/service/catalog/domain/product.go
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/pkg/apperr"
)

// Product 是商品目录中的商品。库存的扣减和归还由订单事务完成。
type Product struct {
	ID          uint
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Active      bool
	CategoryID  *uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductPatch 部分更新，每个可选字段一个指针，nil 表示不修改
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Active      *bool
	CategoryID  *uint
}

// IsEmpty 没有任何字段需要修改
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Stock == nil && p.Active == nil && p.CategoryID == nil
}

// Validate 校验商品字段
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("Product name is required")
	}
	if p.Price.IsNegative() {
		return apperr.Validation("Price must be a non-negative number")
	}
	if p.Stock < 0 {
		return apperr.Validation("Stock must be a non-negative integer")
	}
	return nil
}

// Apply 把补丁应用到商品上并校验结果
func (p *Product) Apply(patch ProductPatch) error {
	if patch.IsEmpty() {
		return apperr.Validation("No fields to update")
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	if patch.CategoryID != nil {
		p.CategoryID = patch.CategoryID
	}
	return p.Validate()
}

// ProductRepository 商品的持久化接口
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	// Update 只写入补丁中出现的字段，不覆盖并发的库存变化
	Update(ctx context.Context, id uint, patch ProductPatch) (*Product, error)
	// Delete 仍被订单明细引用时返回 Conflict
	Delete(ctx context.Context, id uint) error
}
