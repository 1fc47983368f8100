package application

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/auth"
	"storefront/internal/pkg/contracts"
	"storefront/internal/pkg/logger"
	"storefront/internal/service/notification/domain"
	"storefront/internal/service/notification/port"
)

type NotificationDTO struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func toDTO(n *domain.Notification) NotificationDTO {
	return NotificationDTO{ID: n.ID, Type: n.Type, Title: n.Title, Message: n.Message, Read: n.Read, CreatedAt: n.CreatedAt}
}

// NotificationService 保存订单事件产生的通知并推送给在线用户；查询和修改都限定在调用方自己的通知
type NotificationService struct {
	repo   domain.NotificationRepository
	pusher port.Pusher // 可为 nil
	tracer trace.Tracer
}

func NewNotificationService(repo domain.NotificationRepository, pusher port.Pusher, tracer trace.Tracer) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher, tracer: tracer}
}

// HandleOrderEvent 由 Kafka 消费者调用
func (s *NotificationService) HandleOrderEvent(ctx context.Context, event contracts.OrderEvent) error {
	ctx, span := s.tracer.Start(ctx, "app.HandleOrderEvent")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", event.Type), attribute.Int64("order.id", int64(event.OrderID)))

	n, ok := domain.FromOrderEvent(event)
	if !ok {
		logger.Ctx(ctx).Debug().Str("type", event.Type).Msg("ignoring order event")
		return nil
	}
	created, err := s.repo.Create(ctx, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist notification")
		return err
	}
	if !created {
		logger.Ctx(ctx).Info().Str("event_id", event.EventID).Msg("duplicate order event skipped")
		return nil
	}

	if s.pusher != nil {
		payload, err := json.Marshal(toDTO(n))
		if err != nil {
			return err
		}
		delivered := s.pusher.Push(n.UserID, payload)
		span.SetAttributes(attribute.Int("push.delivered", delivered))
	}
	logger.Ctx(ctx).Info().Uint("user_id", n.UserID).Uint("notification_id", n.ID).Str("type", event.Type).Msg("notification stored")
	return nil
}

func (s *NotificationService) List(ctx context.Context, actor auth.Actor) ([]NotificationDTO, error) {
	list, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationDTO, 0, len(list))
	for _, n := range list {
		out = append(out, toDTO(n))
	}
	return out, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor auth.Actor) (int64, error) {
	return s.repo.CountUnread(ctx, actor.UserID)
}

func (s *NotificationService) MarkRead(ctx context.Context, actor auth.Actor, id uint) (*NotificationDTO, error) {
	n, err := s.repo.MarkRead(ctx, actor.UserID, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(n)
	return &dto, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor auth.Actor) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.UserID)
}

func (s *NotificationService) Delete(ctx context.Context, actor auth.Actor, id uint) error {
	if id == 0 {
		return apperr.Validation("Invalid notification id")
	}
	return s.repo.Delete(ctx, actor.UserID, id)
}
