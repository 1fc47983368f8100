package domain

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/pkg/contracts"
)

// TypeOrder 订单相关通知
const TypeOrder = "ORDER"

// Notification 是发给某个用户的一条站内通知
type Notification struct {
	ID        uint
	EventID   string // 来源事件，用于重复投递去重；为空表示不去重
	UserID    uint
	Type      string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// FromOrderEvent 把订单事件翻译成给下单用户的通知，不认识的事件类型返回 false
func FromOrderEvent(e contracts.OrderEvent) (*Notification, bool) {
	n := &Notification{EventID: e.EventID, UserID: e.UserID, Type: TypeOrder}
	switch e.Type {
	case contracts.EventOrderPlaced:
		n.Title = "Order placed"
		n.Message = fmt.Sprintf("Your order #%d totalling %s has been placed.", e.OrderID, e.TotalAmount)
	case contracts.EventOrderStatusChanged:
		n.Title = "Order status updated"
		n.Message = fmt.Sprintf("Your order #%d is now %s.", e.OrderID, e.Status)
	case contracts.EventOrderCancelled:
		n.Title = "Order cancelled"
		n.Message = fmt.Sprintf("Your order #%d has been cancelled.", e.OrderID)
	case contracts.EventOrderDeleted:
		n.Title = "Order removed"
		n.Message = fmt.Sprintf("Your order #%d has been removed by an administrator.", e.OrderID)
	default:
		return nil, false
	}
	if e.UserID == 0 {
		return nil, false
	}
	return n, true
}

// NotificationRepository 通知的持久化接口，所有操作都限定在 userID 之内
type NotificationRepository interface {
	// Create 保存通知；同一 EventID 已存在时不写入并返回 false
	Create(ctx context.Context, n *Notification) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]*Notification, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, id uint) (*Notification, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID, id uint) error
}
