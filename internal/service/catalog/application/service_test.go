package application_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/auth"
	"storefront/internal/pkg/database"
	"storefront/internal/service/catalog/application"
	"storefront/internal/service/catalog/infrastructure"
)

var (
	admin = auth.Actor{UserID: 1, Role: auth.RoleAdmin}
	user  = auth.Actor{UserID: 2, Role: auth.RoleUser}
)

func newService(t *testing.T) *application.CatalogService {
	t.Helper()
	db := database.OpenTestDB(t, infrastructure.Models()...)
	return application.NewCatalogService(infrastructure.NewGormProductRepository(db), noop.NewTracerProvider().Tracer("test"))
}

func ptr[T any](v T) *T { return &v }

func TestCatalog_AdminWrites(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, user, application.CreateProductRequest{Name: "Mug", Price: decimal.NewFromInt(8), Stock: 3})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	p, err := svc.CreateProduct(ctx, admin, application.CreateProductRequest{Name: " Mug ", Price: decimal.NewFromInt(8), Stock: 3})
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)
	assert.True(t, p.Active)

	_, err = svc.UpdateProduct(ctx, user, p.ID, application.UpdateProductRequest{Stock: ptr(9)})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, user, p.ID), apperr.ErrForbidden)

	updated, err := svc.UpdateProduct(ctx, admin, p.ID, application.UpdateProductRequest{Stock: ptr(9), Active: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)
	assert.False(t, updated.Active)

	require.NoError(t, svc.DeleteProduct(ctx, admin, p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCatalog_Validation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, admin, application.CreateProductRequest{Name: "", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.CreateProduct(ctx, admin, application.CreateProductRequest{Name: "Mug", Price: decimal.NewFromInt(1), Stock: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	p, err := svc.CreateProduct(ctx, admin, application.CreateProductRequest{Name: "Mug", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	_, err = svc.UpdateProduct(ctx, admin, p.ID, application.UpdateProductRequest{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.UpdateProduct(ctx, admin, p.ID, application.UpdateProductRequest{Name: ptr("  ")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCatalog_ListAnyone(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B"} {
		_, err := svc.CreateProduct(ctx, admin, application.CreateProductRequest{Name: name, Price: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}
	list, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].Name)
}
