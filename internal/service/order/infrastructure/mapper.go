package infrastructure

import (
	"storefront/internal/service/order/domain"
)

// ToDomainOrder 将数据库模型转换为领域模型
func ToDomainOrder(m *OrderModel) *domain.Order {
	if m == nil {
		return nil
	}
	o := &domain.Order{
		ID:          m.ID,
		UserID:      m.UserID,
		TotalAmount: m.TotalAmount,
		Status:      domain.Status(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Items:       make([]domain.OrderItem, 0, len(m.Items)),
	}
	for i := range m.Items {
		o.Items = append(o.Items, toDomainItem(&m.Items[i]))
	}
	return o
}

func toDomainItem(m *OrderItemModel) domain.OrderItem {
	item := domain.OrderItem{
		ID:        m.ID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
	}
	// 只有 Preload 了商品时才有值
	if m.Product.ID != 0 {
		p := ToDomainProduct(&m.Product)
		item.Product = &p
	}
	return item
}

// ToDomainProduct 将商品视图转换为领域模型
func ToDomainProduct(m *ProductRef) domain.Product {
	return domain.Product{ID: m.ID, Name: m.Name, Price: m.Price, Stock: m.Stock}
}

// FromDomainOrder 将领域模型转换为数据库模型（用于插入）
func FromDomainOrder(o *domain.Order) *OrderModel {
	m := &OrderModel{
		ID:          o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		Items:       make([]OrderItemModel, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			ID:        it.ID,
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return m
}
