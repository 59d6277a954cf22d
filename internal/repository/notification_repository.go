package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sanitation-service/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *NotificationRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []model.Notification
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where("is_deleted = ?", false).
		Order("is_read ASC, created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, accountID uuid.UUID) error {
	return r.updateOwned(ctx, id, accountID, map[string]interface{}{"is_read": true})
}

func (r *NotificationRepository) SoftDelete(ctx context.Context, id, accountID uuid.UUID) error {
	return r.updateOwned(ctx, id, accountID, map[string]interface{}{"is_deleted": true})
}

func (r *NotificationRepository) updateOwned(ctx context.Context, id, accountID uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND account_id = ?", id, accountID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
