// internal/service/order/domain/order.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/pkg/apperr"
)

// Order 是订单聚合的根实体，OrderItem 只属于一个订单
type Order struct {
	ID          uint
	UserID      uint
	Items       []OrderItem // 按下单请求中的顺序
	TotalAmount decimal.Decimal
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem 订单明细，UnitPrice 是下单时的价格快照
type OrderItem struct {
	ID        uint
	ProductID uint
	Quantity  int
	UnitPrice decimal.Decimal

	Product *Product // 读取时附带的当前商品信息，可能为空
}

// Product 是订单侧看到的商品，只读，归商品目录所有
type Product struct {
	ID    uint
	Name  string
	Price decimal.Decimal
	Stock int
}

// LineRequest 一行下单请求
type LineRequest struct {
	ProductID uint
	Quantity  int
}

// ValidateLines 校验下单请求的结构
func ValidateLines(lines []LineRequest) error {
	if len(lines) == 0 {
		return apperr.Validation("Order must contain at least one item")
	}
	for i, l := range lines {
		if l.ProductID == 0 {
			return apperr.Validation("Item %d: productId must be a positive integer", i+1)
		}
		if l.Quantity <= 0 {
			return apperr.Validation("Item %d: quantity must be a positive integer", i+1)
		}
	}
	return nil
}

// CheckAvailability 检查商品能否按给定数量下单
func CheckAvailability(p Product, quantity int) error {
	if !p.Price.IsPositive() {
		return apperr.New(apperr.ErrInvalidPrice, "Invalid price for %s", p.Name)
	}
	if quantity > p.Stock {
		return InsufficientStock(p.Name, p.Stock)
	}
	return nil
}

// InsufficientStock 构造库存不足错误
func InsufficientStock(name string, available int) error {
	return apperr.New(apperr.ErrInsufficientStock, "Insufficient stock for %s. Available: %d", name, available)
}

// NewOrder 工厂函数：按校验时看到的价格生成 PENDING 订单，总价为精确的十进制求和
func NewOrder(userID uint, lines []LineRequest, products map[uint]Product) *Order {
	o := &Order{
		UserID:      userID,
		Status:      StatusPending,
		TotalAmount: decimal.Zero,
		Items:       make([]OrderItem, 0, len(lines)),
	}
	for _, l := range lines {
		p := products[l.ProductID]
		o.Items = append(o.Items, OrderItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
		})
		o.TotalAmount = o.TotalAmount.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return o
}

// IsOwnedBy 判断订单是否属于某个用户
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID == userID
}

// CheckCancel 只有订单的所有者可以取消，且只能取消 PENDING 订单
func (o *Order) CheckCancel(userID uint) error {
	if !o.IsOwnedBy(userID) {
		return apperr.Forbidden("You can only cancel your own orders")
	}
	if o.Status != StatusPending {
		return apperr.New(apperr.ErrInvalidTransition, "Cannot cancel order with status %s", o.Status)
	}
	return nil
}

// CheckStatusChange 管理员变更状态前的检查，终态即使重复设置同一状态也拒绝
func (o *Order) CheckStatusChange(next Status) error {
	if o.Status.IsTerminal() {
		return apperr.New(apperr.ErrInvalidTransition, "Cannot change status of a %s order", o.Status)
	}
	if !o.Status.CanMoveTo(next) {
		return apperr.New(apperr.ErrInvalidTransition, "Cannot change status from %s to %s", o.Status, next)
	}
	return nil
}
