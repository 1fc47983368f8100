package infrastructure_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/database"
	"storefront/internal/service/notification/domain"
	"storefront/internal/service/notification/infrastructure"
)

func TestNotificationRepository(t *testing.T) {
	db := database.OpenTestDB(t, infrastructure.Models()...)
	repo := infrastructure.NewGormNotificationRepository(db)
	ctx := context.Background()

	var ids []uint
	for _, uid := range []uint{1, 1, 2} {
		n := &domain.Notification{UserID: uid, Type: domain.TypeOrder, Title: "t", Message: "m"}
		created, err := repo.Create(ctx, n)
		require.NoError(t, err)
		require.True(t, created)
		ids = append(ids, n.ID)
	}

	list, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[1], list[0].ID)

	unread, err := repo.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	_, err = repo.MarkRead(ctx, 2, ids[0])
	assert.ErrorIs(t, err, apperr.ErrNotFound, "other users' notifications are invisible")

	n, err := repo.MarkRead(ctx, 1, ids[0])
	require.NoError(t, err)
	assert.True(t, n.Read)
	unread, err = repo.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	changed, err := repo.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)
	unread, err = repo.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread, "other users are untouched")

	assert.ErrorIs(t, repo.Delete(ctx, 2, ids[0]), apperr.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, 1, ids[0]))
	assert.ErrorIs(t, repo.Delete(ctx, 1, ids[0]), apperr.ErrNotFound)
}

func TestNotificationRepository_DeduplicatesEvents(t *testing.T) {
	db := database.OpenTestDB(t, infrastructure.Models()...)
	repo := infrastructure.NewGormNotificationRepository(db)
	ctx := context.Background()

	first := &domain.Notification{EventID: "evt-1", UserID: 1, Type: domain.TypeOrder, Title: "t", Message: "m"}
	created, err := repo.Create(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	again := &domain.Notification{EventID: "evt-1", UserID: 1, Type: domain.TypeOrder, Title: "t", Message: "m"}
	created, err = repo.Create(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, again.ID)

	// 没有事件ID的通知互不冲突
	for i := 0; i < 2; i++ {
		created, err = repo.Create(ctx, &domain.Notification{UserID: 1, Type: domain.TypeOrder, Title: "t", Message: "m"})
		require.NoError(t, err)
		assert.True(t, created)
	}

	list, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, "evt-1", list[2].EventID)
}
