package contracts

import "time"

// TopicOrderEvents 订单事件主题，消息 key 为用户ID
const TopicOrderEvents = "order-events"

const (
	EventOrderPlaced        = "ORDER_PLACED"
	EventOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventOrderCancelled     = "ORDER_CANCELLED"
	EventOrderDeleted       = "ORDER_DELETED"
)

// OrderEvent 订单服务在事务提交后发布的事件
type OrderEvent struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	OrderID     uint      `json:"order_id"`
	UserID      uint      `json:"user_id"`
	Status      string    `json:"status"`
	PrevStatus  string    `json:"prev_status,omitempty"`
	TotalAmount string    `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}
