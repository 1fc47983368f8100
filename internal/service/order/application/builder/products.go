package builder

import (
	"go.opentelemetry.io/otel/codes"

	"storefront/internal/pkg/apperr"
)

// LoadProductsHandler 一次读取所有涉及的商品，任何一个不存在即失败
type LoadProductsHandler struct {
	NextHandler
}

func (h *LoadProductsHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "builder.LoadProducts")
	defer span.End()

	ids := make([]uint, 0, len(orderCtx.Lines))
	seen := make(map[uint]struct{}, len(orderCtx.Lines))
	for _, l := range orderCtx.Lines {
		if _, ok := seen[l.ProductID]; !ok {
			seen[l.ProductID] = struct{}{}
			ids = append(ids, l.ProductID)
		}
	}

	products, err := orderCtx.Reader.FindProducts(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load products failed")
		return err
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			err := apperr.NotFound("Product %d not found", id)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	orderCtx.Products = products
	return h.executeNext(orderCtx)
}
