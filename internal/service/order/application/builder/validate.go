package builder

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"storefront/internal/service/order/domain"
)

// ValidateHandler 校验请求结构
type ValidateHandler struct {
	NextHandler
}

func (h *ValidateHandler) Handle(orderCtx *OrderContext) error {
	_, span := orderCtx.Tracer.Start(orderCtx.Ctx, "builder.Validate")
	defer span.End()

	span.SetAttributes(attribute.Int("order.lines", len(orderCtx.Lines)))
	if err := domain.ValidateLines(orderCtx.Lines); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return h.executeNext(orderCtx)
}
