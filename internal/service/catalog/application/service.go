// internal/service/catalog/application/service.go
package application

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/auth"
	"storefront/internal/pkg/logger"
	"storefront/internal/service/catalog/domain"
)

// CatalogService 商品目录用例，写操作只允许管理员
type CatalogService struct {
	repo   domain.ProductRepository
	tracer trace.Tracer
}

func NewCatalogService(repo domain.ProductRepository, tracer trace.Tracer) *CatalogService {
	return &CatalogService{repo: repo, tracer: tracer}
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor auth.Actor, req CreateProductRequest) (*ProductDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateProduct")
	defer span.End()

	if !actor.IsAdmin() {
		return nil, s.fail(ctx, span, "create product", apperr.Forbidden("Admin access required"))
	}
	p := &domain.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Active:      req.Active == nil || *req.Active,
		CategoryID:  req.CategoryID,
	}
	if err := p.Validate(); err != nil {
		return nil, s.fail(ctx, span, "create product", err)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, s.fail(ctx, span, "create product", err)
	}

	span.SetAttributes(attribute.Int64("product.id", int64(p.ID)))
	logger.Ctx(ctx).Info().Uint("product_id", p.ID).Str("name", p.Name).Msg("product created")
	dto := toProductDTO(p)
	return &dto, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*ProductDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetProduct")
	defer span.End()

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "get product", err)
	}
	dto := toProductDTO(p)
	return &dto, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListProducts")
	defer span.End()

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "list products", err)
	}
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	return out, nil
}

// UpdateProduct 只修改请求中给出的字段
func (s *CatalogService) UpdateProduct(ctx context.Context, actor auth.Actor, id uint, req UpdateProductRequest) (*ProductDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", int64(id)))

	if !actor.IsAdmin() {
		return nil, s.fail(ctx, span, "update product", apperr.Forbidden("Admin access required"))
	}
	patch := req.patch()
	if patch.IsEmpty() {
		return nil, s.fail(ctx, span, "update product", apperr.Validation("No fields to update"))
	}
	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.fail(ctx, span, "update product", err)
	}

	logger.Ctx(ctx).Info().Uint("product_id", id).Msg("product updated")
	dto := toProductDTO(p)
	return &dto, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, actor auth.Actor, id uint) error {
	ctx, span := s.tracer.Start(ctx, "app.DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", int64(id)))

	if !actor.IsAdmin() {
		return s.fail(ctx, span, "delete product", apperr.Forbidden("Admin access required"))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(ctx, span, "delete product", err)
	}
	logger.Ctx(ctx).Info().Uint("product_id", id).Msg("product deleted")
	return nil
}

func (s *CatalogService) fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, apperr.Code(err))
	if apperr.IsKnown(err) {
		logger.Ctx(ctx).Warn().Str("op", op).Msg(err.Error())
	} else {
		logger.Ctx(ctx).Error().Err(err).Str("op", op).Msg("catalog operation failed")
	}
	return err
}
