package infrastructure

import (
	"context"
	"encoding/json"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"storefront/internal/pkg/contracts"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
)

// OrderEventProducer 把订单事件写入 Kafka，实现 port.EventPublisher
type OrderEventProducer struct {
	writer mq.MessageWriter
}

func NewOrderEventProducer(writer mq.MessageWriter) *OrderEventProducer {
	return &OrderEventProducer{writer: writer}
}

// Publish 以用户ID为 key 发送事件，同一用户的事件落在同一分区
func (p *OrderEventProducer) Publish(ctx context.Context, event contracts.OrderEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal order event")
	}

	key := []byte(strconv.FormatUint(uint64(event.UserID), 10))
	if err := mq.ProduceMessage(ctx, p.writer, key, eventBytes); err != nil {
		return pkgerrors.Wrapf(err, "produce %s for order %d", event.Type, event.OrderID)
	}
	logger.Ctx(ctx).Debug().Str("event_id", event.EventID).Str("type", event.Type).Uint("order_id", event.OrderID).Msg("order event produced")
	return nil
}
