package infrastructure_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/database"
	cataloginfra "storefront/internal/service/catalog/infrastructure"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/infrastructure"
)

func setup(t *testing.T) (*infrastructure.GormOrderRepository, *gorm.DB) {
	t.Helper()
	models := append(cataloginfra.Models(), infrastructure.Models()...)
	db := database.OpenTestDB(t, models...)
	return infrastructure.NewGormOrderRepository(db, 5*time.Second), db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price string, stock int) uint {
	t.Helper()
	p := &cataloginfra.ProductModel{Name: name, Price: decimal.RequireFromString(price), Stock: stock, Active: true}
	require.NoError(t, db.Create(p).Error)
	return p.ID
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p cataloginfra.ProductModel
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}

func newOrder(userID uint, items ...domain.OrderItem) *domain.Order {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return &domain.Order{UserID: userID, Items: items, TotalAmount: total, Status: domain.StatusPending}
}

func TestRunAtomic_CreateAndFind(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Desk", "120.50", 4)

	o := newOrder(3, domain.OrderItem{ProductID: p, Quantity: 2, UnitPrice: decimal.RequireFromString("120.50")})
	err := repo.RunAtomic(ctx, func(tx domain.Tx) error {
		if err := tx.Create(o); err != nil {
			return err
		}
		return tx.Ledger().Decrement(p, 2)
	})
	require.NoError(t, err)
	require.NotZero(t, o.ID)
	require.NotZero(t, o.Items[0].ID)
	assert.Equal(t, 2, stockOf(t, db, p))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "241.00", got.TotalAmount.StringFixed(2))
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "Desk", got.Items[0].Product.Name)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRunAtomic_RollbackOnError(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Desk", "10", 4)
	boom := errors.New("boom")

	err := repo.RunAtomic(ctx, func(tx domain.Tx) error {
		if err := tx.Create(newOrder(3, domain.OrderItem{ProductID: p, Quantity: 1, UnitPrice: decimal.NewFromInt(10)})); err != nil {
			return err
		}
		if err := tx.Ledger().Decrement(p, 1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, stockOf(t, db, p))

	orders, err := repo.ListByUser(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestRunAtomic_CancelledContext(t *testing.T) {
	repo, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.RunAtomic(ctx, func(tx domain.Tx) error { return nil })
	assert.ErrorIs(t, err, apperr.ErrTransactionFailed)
}

func TestLedger(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Chair", "5", 3)

	err := repo.RunAtomic(ctx, func(tx domain.Tx) error {
		return tx.Ledger().Decrement(p, 4)
	})
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock for Chair. Available: 3", err.Error())

	err = repo.RunAtomic(ctx, func(tx domain.Tx) error {
		return tx.Ledger().Decrement(404, 1)
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, repo.RunAtomic(ctx, func(tx domain.Tx) error {
		if err := tx.Ledger().Decrement(p, 3); err != nil {
			return err
		}
		return tx.Ledger().Increment(p, 1)
	}))
	assert.Equal(t, 1, stockOf(t, db, p))

	err = repo.RunAtomic(ctx, func(tx domain.Tx) error {
		return tx.Ledger().Increment(404, 1)
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateStatusIfAndDelete(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Desk", "10", 4)
	o := newOrder(3, domain.OrderItem{ProductID: p, Quantity: 1, UnitPrice: decimal.NewFromInt(10)})
	require.NoError(t, repo.RunAtomic(ctx, func(tx domain.Tx) error { return tx.Create(o) }))

	var first, second bool
	require.NoError(t, repo.RunAtomic(ctx, func(tx domain.Tx) error {
		var err error
		if first, err = tx.UpdateStatusIf(o.ID, domain.StatusCancelled, domain.StatusPending); err != nil {
			return err
		}
		second, err = tx.UpdateStatusIf(o.ID, domain.StatusCancelled, domain.StatusPending)
		return err
	}))
	assert.True(t, first)
	assert.False(t, second)

	require.NoError(t, repo.RunAtomic(ctx, func(tx domain.Tx) error { return tx.Delete(o.ID) }))
	var items int64
	require.NoError(t, db.Model(&infrastructure.OrderItemModel{}).Where("order_id = ?", o.ID).Count(&items).Error)
	assert.Zero(t, items)
	assert.Equal(t, 4, stockOf(t, db, p))

	err := repo.RunAtomic(ctx, func(tx domain.Tx) error { return tx.Delete(o.ID) })
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestList_Pagination(t *testing.T) {
	repo, db := setup(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Desk", "10", 100)

	for i := 0; i < 5; i++ {
		o := newOrder(uint(i%2+1), domain.OrderItem{ProductID: p, Quantity: 1, UnitPrice: decimal.NewFromInt(10)})
		if i == 0 {
			o.Status = domain.StatusCompleted
		}
		require.NoError(t, repo.RunAtomic(ctx, func(tx domain.Tx) error { return tx.Create(o) }))
	}

	orders, total, err := repo.List(ctx, domain.ListFilter{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, orders, 2)

	completed := domain.StatusCompleted
	orders, total, err = repo.List(ctx, domain.ListFilter{Status: &completed, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusCompleted, orders[0].Status)
	require.Len(t, orders[0].Items, 1)
}

func TestFindProducts(t *testing.T) {
	repo, db := setup(t)
	a := seedProduct(t, db, "A", "1.25", 1)
	seedProduct(t, db, "B", "2", 1)

	got, err := repo.FindProducts(context.Background(), []uint{a, 404})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[a].Name)
	assert.True(t, got[a].Price.Equal(decimal.RequireFromString("1.25")))
}
