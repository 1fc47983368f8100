package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront/internal/pkg/contracts"
	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
)

func newOrderEvent(typ string, o *domain.Order, prev domain.Status) contracts.OrderEvent {
	return contracts.OrderEvent{
		EventID:     uuid.NewString(),
		Type:        typ,
		OrderID:     o.ID,
		UserID:      o.UserID,
		Status:      string(o.Status),
		PrevStatus:  string(prev),
		TotalAmount: o.TotalAmount.StringFixed(2),
		ItemCount:   len(o.Items),
		CreatedAt:   time.Now().UTC(),
	}
}

// publish 在事务提交之后调用，失败只记录日志，不影响已提交的操作
func (s *OrderApplicationService) publish(ctx context.Context, typ string, o *domain.Order, prev domain.Status) {
	if s.publisher == nil {
		return
	}
	event := newOrderEvent(typ, o, prev)
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("event_type", typ).
			Uint("order_id", o.ID).
			Msg("failed to publish order event")
	}
}
