package builder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"storefront/internal/pkg/apperr"
	"storefront/internal/service/order/application/builder"
	"storefront/internal/service/order/domain"
)

type fakeReader struct {
	products map[uint]domain.Product
	err      error
	calls    [][]uint
}

func (f *fakeReader) FindProducts(_ context.Context, ids []uint) (map[uint]domain.Product, error) {
	f.calls = append(f.calls, ids)
	if f.err != nil {
		return nil, f.err
	}
	out := map[uint]domain.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

var tracer = noop.NewTracerProvider().Tracer("test")

func catalog() *fakeReader {
	return &fakeReader{products: map[uint]domain.Product{
		1: {ID: 1, Name: "Keyboard", Price: decimal.RequireFromString("49.90"), Stock: 5},
		2: {ID: 2, Name: "Mouse", Price: decimal.RequireFromString("19.95"), Stock: 1},
		3: {ID: 3, Name: "Sticker", Price: decimal.Zero, Stock: 100},
	}}
}

func TestBuild_Success(t *testing.T) {
	r := catalog()
	o, err := builder.Build(context.Background(), tracer, r, 4, []domain.LineRequest{
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, "119.75", o.TotalAmount.StringFixed(2))
	assert.Equal(t, domain.StatusPending, o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, uint(2), o.Items[0].ProductID, "items keep request order")
	assert.Equal(t, [][]uint{{2, 1}}, r.calls)
}

func TestBuild_Failures(t *testing.T) {
	cases := []struct {
		name  string
		lines []domain.LineRequest
		kind  error
		msg   string
	}{
		{"empty", nil, apperr.ErrValidation, ""},
		{"zero quantity", []domain.LineRequest{{ProductID: 1, Quantity: 0}}, apperr.ErrValidation, ""},
		{"unknown product", []domain.LineRequest{{ProductID: 1, Quantity: 1}, {ProductID: 99, Quantity: 1}}, apperr.ErrNotFound, "Product 99 not found"},
		{"stock", []domain.LineRequest{{ProductID: 2, Quantity: 2}}, apperr.ErrInsufficientStock, "Insufficient stock for Mouse. Available: 1"},
		{"price", []domain.LineRequest{{ProductID: 3, Quantity: 1}}, apperr.ErrInvalidPrice, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := builder.Build(context.Background(), tracer, catalog(), 4, tc.lines)
			assert.Nil(t, o)
			require.ErrorIs(t, err, tc.kind)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, err.Error())
			}
		})
	}
}

func TestBuild_ValidationStopsBeforeLookup(t *testing.T) {
	r := catalog()
	_, err := builder.Build(context.Background(), tracer, r, 4, []domain.LineRequest{{ProductID: 0, Quantity: 1}})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, r.calls)
}

func TestBuild_ReaderError(t *testing.T) {
	boom := errors.New("db down")
	_, err := builder.Build(context.Background(), tracer, &fakeReader{err: boom}, 4, []domain.LineRequest{{ProductID: 1, Quantity: 1}})
	assert.ErrorIs(t, err, boom)
}
