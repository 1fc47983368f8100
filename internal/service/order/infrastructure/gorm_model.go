package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	ID          uint            `gorm:"primaryKey"`
	UserID      uint            `gorm:"not null;index"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status      string          `gorm:"type:varchar(16);not null;default:PENDING;index"`
	CreatedAt   time.Time       `gorm:"index"`
	UpdatedAt   time.Time

	Items []OrderItemModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应数据库中的 order_items 表。
// product_id 上的外键阻止删除仍被订单引用的商品。
type OrderItemModel struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"not null;index"`
	ProductID uint            `gorm:"not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product ProductRef `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// ProductRef 是 products 表在订单侧的窄视图，表结构归商品目录所有
type ProductRef struct {
	ID    uint            `gorm:"primaryKey"`
	Name  string          `gorm:"type:varchar(255);not null"`
	Price decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock int             `gorm:"not null;default:0"`
}

func (ProductRef) TableName() string {
	return "products"
}

// Models 返回需要迁移的订单表，products 表由商品目录先行迁移
func Models() []any {
	return []any{&OrderModel{}, &OrderItemModel{}}
}
