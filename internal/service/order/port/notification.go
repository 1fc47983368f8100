package port

import (
	"context"

	"storefront/internal/pkg/contracts"
)

// EventPublisher 是订单事件的出站端口，只在事务提交后调用
type EventPublisher interface {
	Publish(ctx context.Context, event contracts.OrderEvent) error
}
