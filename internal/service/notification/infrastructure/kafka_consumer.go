package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/contracts"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
)

// MessageReader 是 *kafka.Reader 中消费者用到的部分
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OrderEventHandler 处理一条订单事件
type OrderEventHandler interface {
	HandleOrderEvent(ctx context.Context, event contracts.OrderEvent) error
}

// OrderEventConsumer 是一个驱动适配器，它监听 order-events 主题并驱动应用服务。
type OrderEventConsumer struct {
	reader     MessageReader
	handler    OrderEventHandler
	tracer     trace.Tracer
	retryDelay time.Duration
}

func NewOrderEventConsumer(reader MessageReader, handler OrderEventHandler) *OrderEventConsumer {
	return &OrderEventConsumer{
		reader:     reader,
		handler:    handler,
		tracer:     otel.Tracer("notification-service"),
		retryDelay: time.Second,
	}
}

// Run 持续消费直到 ctx 取消。用 FetchMessage 手动提交，
// 无论处理成功与否都提交 offset，失败的消息只记录日志。
func (c *OrderEventConsumer) Run(ctx context.Context) error {
	logger.Ctx(ctx).Info().Msg("order event consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Ctx(ctx).Info().Msg("order event consumer shutting down")
				return nil
			}
			logger.Ctx(ctx).Error().Err(err).Msg("could not fetch message, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay): // 避免快速失败循环
			}
			continue
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Ctx(ctx).Error().Err(err).Int64("offset", msg.Offset).Msg("failed to commit message")
		}
	}
}

func (c *OrderEventConsumer) process(parent context.Context, msg kafka.Message) {
	// 接上生产者的追踪链路
	ctx := mq.ExtractTraceContext(parent, msg.Headers)
	ctx, span := c.tracer.Start(ctx, "notification.ConsumeOrderEvent",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
			attribute.String("messaging.kafka.message.key", string(msg.Key)),
		),
	)
	defer span.End()

	var event contracts.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed event")
		logger.Ctx(ctx).Error().Err(err).Int64("offset", msg.Offset).Msg("skipping malformed order event")
		return
	}
	span.SetAttributes(attribute.String("event.type", event.Type), attribute.Int64("order.id", int64(event.OrderID)))

	if err := c.handler.HandleOrderEvent(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Ctx(ctx).Error().Err(err).Str("event_id", event.EventID).Msg("failed to handle order event")
	}
}
