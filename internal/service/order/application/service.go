// internal/service/order/application/service.go
package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/auth"
	"storefront/internal/pkg/contracts"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/order/application/builder"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/port"
)

const (
	maxIdempotencyKeyLen = 128
	// 记录/释放幂等键的时间上限，与请求是否已断开无关
	idempotencyWriteTimeout = 3 * time.Second
)

// Options 订单用例的可调参数
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	IdempotencyTTL  time.Duration // 已完成的键保留多久
	PendingTTL      time.Duration // 处理中标记的过期时间，进程崩溃后键会自动释放
}

// OrderApplicationService 编排订单用例。调用方身份通过 actor 显式传入。
type OrderApplicationService struct {
	repo      domain.OrderRepository
	publisher port.EventPublisher   // 可为 nil
	idem      port.IdempotencyStore // 可为 nil
	metrics   *metrics.OrderMetrics
	tracer    trace.Tracer
	opts      Options
}

func NewOrderApplicationService(repo domain.OrderRepository, publisher port.EventPublisher, idem port.IdempotencyStore, m *metrics.OrderMetrics, tracer trace.Tracer, opts Options) *OrderApplicationService {
	if m == nil {
		m = metrics.NewOrderMetrics(prometheus.NewRegistry())
	}
	if opts.DefaultPageSize < 1 {
		opts.DefaultPageSize = 10
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = 100
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = time.Minute
	}
	return &OrderApplicationService{
		repo: repo, publisher: publisher, idem: idem,
		metrics: m, tracer: tracer, opts: opts,
	}
}

// PlaceOrder 校验、价格快照，然后在一个事务里写入订单和明细并扣减库存
func (s *OrderApplicationService) PlaceOrder(ctx context.Context, actor auth.Actor, req PlaceOrderRequest) (*OrderDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", int64(actor.UserID)))

	order, err := s.placeOrder(ctx, actor.UserID, req.lines())
	if err != nil {
		s.metrics.Failed.WithLabelValues(apperr.Code(err)).Inc()
		s.fail(ctx, span, "place order", err)
		return nil, err
	}

	s.metrics.Placed.Inc()
	span.SetAttributes(attribute.Int64("order.id", int64(order.ID)))
	logger.Ctx(ctx).Info().Uint("order_id", order.ID).Uint("user_id", actor.UserID).
		Str("total", order.TotalAmount.StringFixed(2)).Msg("order placed")

	s.publish(ctx, contracts.EventOrderPlaced, order, "")
	dto := ToOrderDTO(order)
	return &dto, nil
}

func (s *OrderApplicationService) placeOrder(ctx context.Context, userID uint, lines []domain.LineRequest) (*domain.Order, error) {
	order, err := builder.Build(ctx, s.tracer, s.repo, userID, lines)
	if err != nil {
		return nil, err
	}

	err = s.repo.RunAtomic(ctx, func(tx domain.Tx) error {
		if err := tx.Create(order); err != nil {
			return err
		}
		ledger := tx.Ledger()
		for _, it := range order.Items {
			if err := ledger.Decrement(it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, order), nil
}

// PlaceOrderIdempotent 带 Idempotency-Key 的下单。created 为 false 表示返回的是之前创建的订单。
// 幂等存储不可用时退化为普通下单。
func (s *OrderApplicationService) PlaceOrderIdempotent(ctx context.Context, actor auth.Actor, key string, req PlaceOrderRequest) (dto *OrderDTO, created bool, err error) {
	if key == "" || s.idem == nil {
		dto, err = s.PlaceOrder(ctx, actor, req)
		return dto, err == nil, err
	}
	if len(key) > maxIdempotencyKeyLen {
		return nil, false, apperr.Validation("Idempotency-Key must be at most %d characters", maxIdempotencyKeyLen)
	}

	scoped := fmt.Sprintf("%d:%s", actor.UserID, key)
	state, orderID, err := s.idem.Acquire(ctx, scoped, s.opts.PendingTTL)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("idempotency store unavailable, placing order without it")
		dto, err = s.PlaceOrder(ctx, actor, req)
		return dto, err == nil, err
	}

	switch state {
	case port.IdempotencyInFlight:
		return nil, false, apperr.New(apperr.ErrConflict, "A request with this Idempotency-Key is already in progress")
	case port.IdempotencyDone:
		o, err := s.repo.FindByID(ctx, orderID)
		if err != nil {
			return nil, false, err
		}
		prev := ToOrderDTO(o)
		return &prev, false, nil
	}

	dto, err = s.PlaceOrder(ctx, actor, req)

	// 客户端断开时请求 ctx 已取消，键的收尾仍要完成，否则重试会一直得到 Conflict
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), idempotencyWriteTimeout)
	defer cancel()
	if err != nil {
		if rerr := s.idem.Release(wctx, scoped); rerr != nil {
			logger.Ctx(ctx).Warn().Err(rerr).Msg("failed to release idempotency key")
		}
		return nil, false, err
	}
	if cerr := s.idem.Complete(wctx, scoped, dto.ID, s.opts.IdempotencyTTL); cerr != nil {
		logger.Ctx(ctx).Warn().Err(cerr).Uint("order_id", dto.ID).Msg("failed to record idempotency key")
	}
	return dto, true, nil
}

// ListUserOrders 返回调用方自己的订单，最新的在前
func (s *OrderApplicationService) ListUserOrders(ctx context.Context, actor auth.Actor) ([]OrderDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListUserOrders")
	defer span.End()

	orders, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		s.fail(ctx, span, "list user orders", err)
		return nil, err
	}
	return toOrderDTOs(orders), nil
}

// GetOrder 所有者或管理员可见
func (s *OrderApplicationService) GetOrder(ctx context.Context, actor auth.Actor, id uint) (*OrderDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", int64(id)))

	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.fail(ctx, span, "get order", err)
		return nil, err
	}
	if !actor.IsAdmin() && !o.IsOwnedBy(actor.UserID) {
		err := apperr.Forbidden("You can only view your own orders")
		s.fail(ctx, span, "get order", err)
		return nil, err
	}
	dto := ToOrderDTO(o)
	return &dto, nil
}

// CancelOrder 所有者取消 PENDING 订单，并在同一事务中归还全部库存
func (s *OrderApplicationService) CancelOrder(ctx context.Context, actor auth.Actor, id uint) (*OrderDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", int64(id)))

	var order *domain.Order
	err := s.repo.RunAtomic(ctx, func(tx domain.Tx) error {
		o, err := tx.FindByID(id)
		if err != nil {
			return err
		}
		if err := o.CheckCancel(actor.UserID); err != nil {
			return err
		}
		// 条件更新保证并发取消只有一次能归还库存
		ok, err := tx.UpdateStatusIf(id, domain.StatusCancelled, domain.StatusPending)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.ErrInvalidTransition, "Order %d is no longer pending", id)
		}
		ledger := tx.Ledger()
		for _, it := range o.Items {
			if err := ledger.Increment(it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		o.Status = domain.StatusCancelled
		order = o
		return nil
	})
	if err != nil {
		s.fail(ctx, span, "cancel order", err)
		return nil, err
	}

	s.metrics.Cancelled.Inc()
	logger.Ctx(ctx).Info().Uint("order_id", id).Uint("user_id", actor.UserID).Msg("order cancelled, stock restored")

	order = s.reload(ctx, order)
	s.publish(ctx, contracts.EventOrderCancelled, order, domain.StatusPending)
	dto := ToOrderDTO(order)
	return &dto, nil
}

// UpdateStatus 管理员变更订单状态，不涉及库存
func (s *OrderApplicationService) UpdateStatus(ctx context.Context, actor auth.Actor, id uint, status string) (*OrderDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", int64(id)), attribute.String("order.status", status))

	order, prev, err := s.updateStatus(ctx, actor, id, status)
	if err != nil {
		s.fail(ctx, span, "update order status", err)
		return nil, err
	}

	s.metrics.StatusTransitions.WithLabelValues(string(prev), string(order.Status)).Inc()
	logger.Ctx(ctx).Info().Uint("order_id", id).Str("from", string(prev)).Str("to", string(order.Status)).Msg("order status updated")

	order = s.reload(ctx, order)
	s.publish(ctx, contracts.EventOrderStatusChanged, order, prev)
	dto := ToOrderDTO(order)
	return &dto, nil
}

func (s *OrderApplicationService) updateStatus(ctx context.Context, actor auth.Actor, id uint, status string) (*domain.Order, domain.Status, error) {
	if !actor.IsAdmin() {
		return nil, "", apperr.Forbidden("Only administrators can update order status")
	}
	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, "", err
	}

	var (
		order *domain.Order
		prev  domain.Status
	)
	err = s.repo.RunAtomic(ctx, func(tx domain.Tx) error {
		o, err := tx.FindByID(id)
		if err != nil {
			return err
		}
		if err := o.CheckStatusChange(next); err != nil {
			return err
		}
		ok, err := tx.UpdateStatusIf(id, next, domain.ActiveStatuses...)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.ErrInvalidTransition, "Order %d was changed concurrently", id)
		}
		prev = o.Status
		o.Status = next
		order = o
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return order, prev, nil
}

// ListAllOrders 管理员分页列出所有订单；无法识别的状态过滤条件被忽略
func (s *OrderApplicationService) ListAllOrders(ctx context.Context, actor auth.Actor, q ListOrdersQuery) (*OrderPage, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListAllOrders")
	defer span.End()

	if !actor.IsAdmin() {
		err := apperr.Forbidden("Only administrators can list all orders")
		s.fail(ctx, span, "list all orders", err)
		return nil, err
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.opts.DefaultPageSize
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}
	// 偏移量不能溢出
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	filter := domain.ListFilter{Offset: (page - 1) * limit, Limit: limit}
	if q.Status != "" {
		if st, err := domain.ParseStatus(q.Status); err == nil {
			filter.Status = &st
		}
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.fail(ctx, span, "list all orders", err)
		return nil, err
	}
	return &OrderPage{
		Data: toOrderDTOs(orders),
		Meta: PageMeta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

// DeleteOrder 管理员删除订单和明细，不归还库存
func (s *OrderApplicationService) DeleteOrder(ctx context.Context, actor auth.Actor, id uint) error {
	ctx, span := s.tracer.Start(ctx, "app.DeleteOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", int64(id)))

	if !actor.IsAdmin() {
		err := apperr.Forbidden("Only administrators can delete orders")
		s.fail(ctx, span, "delete order", err)
		return err
	}

	var deleted *domain.Order
	err := s.repo.RunAtomic(ctx, func(tx domain.Tx) error {
		o, err := tx.FindByID(id)
		if err != nil {
			return err
		}
		deleted = o
		return tx.Delete(id)
	})
	if err != nil {
		s.fail(ctx, span, "delete order", err)
		return err
	}

	s.metrics.Deleted.Inc()
	logger.Ctx(ctx).Info().Uint("order_id", id).Uint("admin_id", actor.UserID).Msg("order deleted")
	s.publish(ctx, contracts.EventOrderDeleted, deleted, deleted.Status)
	return nil
}

// reload 提交后重新读取订单以附带商品信息；读取失败时返回内存中的订单
func (s *OrderApplicationService) reload(ctx context.Context, o *domain.Order) *domain.Order {
	fresh, err := s.repo.FindByID(ctx, o.ID)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Uint("order_id", o.ID).Msg("failed to reload order after commit")
		return o
	}
	return fresh
}

// fail 记录失败：业务拒绝记为 warn，其余为 error
func (s *OrderApplicationService) fail(ctx context.Context, span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, apperr.Code(err))

	l := logger.Ctx(ctx)
	if apperr.IsKnown(err) {
		l.Warn().Str("op", op).Str("code", apperr.Code(err)).Msg(err.Error())
		return
	}
	l.Error().Err(err).Str("op", op).Msg("order operation failed")
}
