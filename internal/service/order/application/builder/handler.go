package builder

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"storefront/internal/service/order/domain"
)

// ProductReader 读取下单涉及的商品
type ProductReader interface {
	FindProducts(ctx context.Context, ids []uint) (map[uint]domain.Product, error)
}

// OrderContext 在构建流程中传递上下文数据
type OrderContext struct {
	Ctx    context.Context
	Tracer trace.Tracer
	Reader ProductReader

	UserID uint
	Lines  []domain.LineRequest

	Products map[uint]domain.Product // LoadProductsHandler 填充
	Order    *domain.Order           // PriceSnapshotHandler 生成
}

// Handler 责任链中的一个步骤，出错即中止
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}

// NewChain 组装订单构建流程：校验请求 -> 读取商品 -> 检查价格和库存 -> 价格快照
func NewChain() Handler {
	chain := new(ValidateHandler)
	chain.
		SetNext(new(LoadProductsHandler)).
		SetNext(new(AvailabilityHandler)).
		SetNext(new(PriceSnapshotHandler))
	return chain
}

// Build 运行整条链，成功时返回待持久化的 PENDING 订单。
// 这里只做校验和计算，持久化和扣库存在事务中完成。
func Build(ctx context.Context, tracer trace.Tracer, reader ProductReader, userID uint, lines []domain.LineRequest) (*domain.Order, error) {
	orderCtx := &OrderContext{Ctx: ctx, Tracer: tracer, Reader: reader, UserID: userID, Lines: lines}
	if err := NewChain().Handle(orderCtx); err != nil {
		return nil, err
	}
	return orderCtx.Order, nil
}
