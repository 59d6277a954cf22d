package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sanitation-service/internal/model"
)

// NotificationService serves the in-app inbox. Every operation is scoped
// to the calling account; there is no cross-account visibility, not even
// for admins.
type NotificationService struct {
	notifications NotificationStore
}

func NewNotificationService(notifications NotificationStore) *NotificationService {
	return &NotificationService{notifications: notifications}
}

func (s *NotificationService) List(ctx context.Context, principal model.Principal, limit int) ([]model.Notification, error) {
	items, err := s.notifications.ListByAccount(ctx, principal.UserID, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	err := s.notifications.MarkRead(ctx, id, principal.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	err := s.notifications.SoftDelete(ctx, id, principal.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storeErr(err)
	}
	return nil
}
