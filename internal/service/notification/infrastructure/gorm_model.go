package infrastructure

import "time"

// NotificationModel 对应数据库中的 notifications 表
type NotificationModel struct {
	ID        uint    `gorm:"primaryKey"`
	EventID   *string `gorm:"type:varchar(64);uniqueIndex"` // NULL 不参与唯一约束
	UserID    uint    `gorm:"not null;index:idx_notifications_user_read"`
	Type      string  `gorm:"type:varchar(32);not null"`
	Title     string  `gorm:"type:varchar(255);not null"`
	Message   string  `gorm:"type:text;not null"`
	Read      bool    `gorm:"column:is_read;not null;index:idx_notifications_user_read"`
	CreatedAt time.Time
}

// TableName 指定 GORM 应该使用的表名
func (NotificationModel) TableName() string {
	return "notifications"
}

func Models() []any {
	return []any{&NotificationModel{}}
}
