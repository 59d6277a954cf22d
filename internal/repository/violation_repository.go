package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sanitation-service/internal/model"
)

type ViolationRepository struct {
	db *gorm.DB
}

func NewViolationRepository(db *gorm.DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

func (r *ViolationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Violation, error) {
	var violation model.Violation
	err := r.db.WithContext(ctx).
		Preload("Ticket").
		First(&violation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &violation, nil
}

func (r *ViolationRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]model.Violation, error) {
	if limit <= 0 {
		limit = 10
	}
	var violations []model.Violation
	err := r.db.WithContext(ctx).
		Model(&model.Violation{}).
		Joins("JOIN inspection_tickets t ON t.id = violations.ticket_id").
		Where("t.business_id = ?", businessID).
		Order("violations.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&violations).Error
	if err != nil {
		return nil, err
	}
	return violations, nil
}

// LatestPendingForBusiness backs the "most recent unresolved violation"
// derived read field. A nil result with nil error means none exist.
func (r *ViolationRepository) LatestPendingForBusiness(ctx context.Context, businessID uuid.UUID) (*model.Violation, error) {
	var violation model.Violation
	err := r.db.WithContext(ctx).
		Model(&model.Violation{}).
		Joins("JOIN inspection_tickets t ON t.id = violations.ticket_id").
		Where("t.business_id = ?", businessID).
		Where("violations.status = ?", model.ViolationStatusPending).
		Order("violations.created_at DESC").
		First(&violation).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &violation, nil
}

func (r *ViolationRepository) MarkResolved(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&model.Violation{}).
		Where("id = ?", id).
		Update("status", model.ViolationStatusResolved)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ViolationRepository) CountPendingForTicket(ctx context.Context, ticketID uuid.UUID) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Violation{}).
		Where("ticket_id = ?", ticketID).
		Where("status = ?", model.ViolationStatusPending).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}
