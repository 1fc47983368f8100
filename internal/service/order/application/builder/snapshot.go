package builder

import (
	"go.opentelemetry.io/otel/attribute"

	"storefront/internal/service/order/domain"
)

// PriceSnapshotHandler 用校验时读到的价格生成订单和总价
type PriceSnapshotHandler struct {
	NextHandler
}

func (h *PriceSnapshotHandler) Handle(orderCtx *OrderContext) error {
	_, span := orderCtx.Tracer.Start(orderCtx.Ctx, "builder.PriceSnapshot")
	defer span.End()

	orderCtx.Order = domain.NewOrder(orderCtx.UserID, orderCtx.Lines, orderCtx.Products)
	span.SetAttributes(attribute.String("order.total", orderCtx.Order.TotalAmount.String()))
	return h.executeNext(orderCtx)
}
