package builder

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"storefront/internal/service/order/domain"
)

// AvailabilityHandler 按请求顺序检查价格和库存，返回第一个不满足的商品。
// 这里的库存检查只用于给出友好的错误，真正的保证是事务内的条件扣减。
type AvailabilityHandler struct {
	NextHandler
}

func (h *AvailabilityHandler) Handle(orderCtx *OrderContext) error {
	_, span := orderCtx.Tracer.Start(orderCtx.Ctx, "builder.CheckAvailability")
	defer span.End()

	for _, l := range orderCtx.Lines {
		p := orderCtx.Products[l.ProductID]
		if err := domain.CheckAvailability(p, l.Quantity); err != nil {
			span.SetAttributes(attribute.Int64("product.id", int64(p.ID)))
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return h.executeNext(orderCtx)
}
