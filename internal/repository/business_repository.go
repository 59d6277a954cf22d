package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sanitation-service/internal/model"
)

type BusinessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

type BusinessFilter struct {
	AccountID *uuid.UUID
	Statuses  []model.ApplicationStatus
	Type      string
	Search    string
	Limit     int
	Offset    int
}

func (r *BusinessRepository) Create(ctx context.Context, business *model.Business) error {
	return r.db.WithContext(ctx).Create(business).Error
}

func (r *BusinessRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	var business model.Business
	if err := r.db.WithContext(ctx).First(&business, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// GetByRef resolves either the internal ID or the human-facing bid number.
func (r *BusinessRepository) GetByRef(ctx context.Context, ref string) (*model.Business, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return r.GetByID(ctx, id)
	}
	var business model.Business
	if err := r.db.WithContext(ctx).First(&business, "bid_number = ?", ref).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *BusinessRepository) List(ctx context.Context, filter BusinessFilter) ([]model.Business, error) {
	query := r.db.WithContext(ctx).Model(&model.Business{})

	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("(name ILIKE ? OR bid_number ILIKE ?)", search, search)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var businesses []model.Business
	if err := query.Order("created_at DESC").Find(&businesses).Error; err != nil {
		return nil, err
	}
	return businesses, nil
}

func (r *BusinessRepository) Save(ctx context.Context, business *model.Business) error {
	return r.db.WithContext(ctx).Save(business).Error
}

func (r *BusinessRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Business{}, "id = ?", id).Error
}

// HasActiveRequest reports whether the account already has an application
// in one of the in-flight review stages, excluding the given record.
func (r *BusinessRepository) HasActiveRequest(ctx context.Context, accountID uuid.UUID, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&model.Business{}).
		Where("account_id = ?", accountID).
		Where("status IN ?", model.ActiveApplicationStatuses)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BusinessRepository) BidNumberTaken(ctx context.Context, bidNumber string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&model.Business{}).
		Where("bid_number = ?", bidNumber)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BusinessRepository) SetResolution(ctx context.Context, id uuid.UUID, status model.ResolutionStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.Business{}).
		Where("id = ?", id).
		Update("resolution_status", status).Error
}

func (r *BusinessRepository) HasTickets(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("business_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BusinessRepository) LogStatusChange(ctx context.Context, entry *model.ApplicationStatusLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
