package repository

import (
	"context"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/model"
)

// NotificationRepository 通知事件数据访问接口
type NotificationRepository interface {
	// ListRecent 按创建时间倒序返回最近 limit 条
	ListRecent(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	// ListUnread 返回全部未读，不受展示条数限制
	ListUnread(ctx context.Context, userID string) ([]model.Notification, error)
	// MarkRead 通过 mark_notifications_read 函数标记已读；ids 为空表示全部
	MarkRead(ctx context.Context, userID string, ids []string) (int, error)
	CreateBatch(ctx context.Context, list []model.Notification) error
}

// notificationRepo NotificationRepository 的 GORM 实现
type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) ListRecent(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	var list []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *notificationRepo) ListUnread(ctx context.Context, userID string) ([]model.Notification, error) {
	var list []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	var ptr interface{}
	if len(ids) > 0 {
		ptr = pq.Array(ids)
	}

	var affected int
	err := r.db.WithContext(ctx).
		Raw("SELECT mark_notifications_read(?::uuid, ?::uuid[])", userID, ptr).
		Scan(&affected).Error
	return affected, err
}

func (r *notificationRepo) CreateBatch(ctx context.Context, list []model.Notification) error {
	if len(list) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&list).Error
}
