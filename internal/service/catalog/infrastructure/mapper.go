package infrastructure

import (
	"storefront/internal/service/catalog/domain"
)

// ToDomainProduct 将数据库模型转换为领域模型
func ToDomainProduct(m *ProductModel) *domain.Product {
	if m == nil {
		return nil
	}
	return &domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Stock:       m.Stock,
		Active:      m.Active,
		CategoryID:  m.CategoryID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomainProduct 将领域模型转换为数据库模型 (用于插入)
func FromDomainProduct(p *domain.Product) *ProductModel {
	if p == nil {
		return nil
	}
	return &ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Active:      p.Active,
		CategoryID:  p.CategoryID,
	}
}

// patchColumns 只包含补丁里出现的列
func patchColumns(patch domain.ProductPatch) map[string]any {
	cols := map[string]any{}
	if patch.Name != nil {
		cols["name"] = *patch.Name
	}
	if patch.Description != nil {
		cols["description"] = *patch.Description
	}
	if patch.Price != nil {
		cols["price"] = *patch.Price
	}
	if patch.Stock != nil {
		cols["stock"] = *patch.Stock
	}
	if patch.Active != nil {
		cols["active"] = *patch.Active
	}
	if patch.CategoryID != nil {
		cols["category_id"] = *patch.CategoryID
	}
	return cols
}
