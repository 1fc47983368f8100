package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/pkg/contracts"
	"storefront/internal/service/notification/domain"
)

func TestFromOrderEvent(t *testing.T) {
	n, ok := domain.FromOrderEvent(contracts.OrderEvent{EventID: "e-1", Type: contracts.EventOrderPlaced, OrderID: 12, UserID: 4, TotalAmount: "30.00"})
	require.True(t, ok)
	assert.Equal(t, "e-1", n.EventID)
	assert.Equal(t, uint(4), n.UserID)
	assert.Equal(t, domain.TypeOrder, n.Type)
	assert.Equal(t, "Your order #12 totalling 30.00 has been placed.", n.Message)
	assert.False(t, n.Read)

	n, ok = domain.FromOrderEvent(contracts.OrderEvent{Type: contracts.EventOrderStatusChanged, OrderID: 12, UserID: 4, Status: "COMPLETED"})
	require.True(t, ok)
	assert.Equal(t, "Your order #12 is now COMPLETED.", n.Message)

	_, ok = domain.FromOrderEvent(contracts.OrderEvent{Type: "SOMETHING_ELSE", UserID: 4})
	assert.False(t, ok)
	_, ok = domain.FromOrderEvent(contracts.OrderEvent{Type: contracts.EventOrderCancelled})
	assert.False(t, ok, "events without a user are dropped")
}
