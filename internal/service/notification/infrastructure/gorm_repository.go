package infrastructure

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/pkg/apperr"
	"storefront/internal/service/notification/domain"
)

// GormNotificationRepository 是 domain.NotificationRepository 的 GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create 按 event_id 去重，重复投递的事件不会产生第二条通知
func (r *GormNotificationRepository) Create(ctx context.Context, n *domain.Notification) (bool, error) {
	m := &NotificationModel{UserID: n.UserID, Type: n.Type, Title: n.Title, Message: n.Message, Read: n.Read}
	if n.EventID != "" {
		m.EventID = &n.EventID
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return false, pkgerrors.Wrap(res.Error, "insert notification")
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	n.ID = m.ID
	n.CreatedAt = m.CreatedAt
	return true, nil
}

// ListByUser 最新的在前
func (r *GormNotificationRepository) ListByUser(ctx context.Context, userID uint) ([]*domain.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "list notifications of user %d", userID)
	}
	out := make([]*domain.Notification, 0, len(models))
	for i := range models {
		out = append(out, toDomain(&models[i]))
	}
	return out, nil
}

func (r *GormNotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, pkgerrors.Wrap(err, "count unread notifications")
}

// MarkRead 只能标记自己的通知，别人的通知当作不存在
func (r *GormNotificationRepository) MarkRead(ctx context.Context, userID, id uint) (*domain.Notification, error) {
	var m NotificationModel
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, pkgerrors.Wrapf(err, "find notification %d", id)
	}
	if !m.Read {
		if err := r.db.WithContext(ctx).Model(&m).Update("is_read", true).Error; err != nil {
			return nil, pkgerrors.Wrapf(err, "mark notification %d read", id)
		}
	}
	m.Read = true
	return toDomain(&m), nil
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, pkgerrors.Wrapf(res.Error, "mark all notifications of user %d read", userID)
	}
	return res.RowsAffected, nil
}

func (r *GormNotificationRepository) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&NotificationModel{})
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "delete notification %d", id)
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

func toDomain(m *NotificationModel) *domain.Notification {
	n := &domain.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      m.Type,
		Title:     m.Title,
		Message:   m.Message,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
	if m.EventID != nil {
		n.EventID = *m.EventID
	}
	return n
}

func notFound(id uint) error {
	return apperr.NotFound("Notification %d not found", id)
}
