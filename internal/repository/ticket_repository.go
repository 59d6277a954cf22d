package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sanitation-service/internal/model"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

type TicketFilter struct {
	BusinessID *uuid.UUID
	AccountID  *uuid.UUID
	Statuses   []model.InspectionStatus
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

func (r *TicketRepository) Create(ctx context.Context, ticket *model.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).
		Preload("Business").
		Preload("Violations").
		First(&ticket, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepository) List(ctx context.Context, filter TicketFilter) ([]model.Ticket, error) {
	query := r.db.WithContext(ctx).Model(&model.Ticket{})

	if filter.BusinessID != nil {
		query = query.Where("business_id = ?", *filter.BusinessID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("inspection_status IN ?", filter.Statuses)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var tickets []model.Ticket
	if err := query.
		Order("created_at DESC").
		Preload("Business").
		Preload("Violations").
		Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// CountCompleted counts completed inspections for the business whose
// tickets were created inside [from, to], excluding one ticket when the
// caller is about to complete it.
func (r *TicketRepository) CountCompleted(ctx context.Context, businessID uuid.UUID, from, to time.Time, exclude uuid.UUID) (int, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("business_id = ?", businessID).
		Where("inspection_status = ?", model.InspectionStatusCompleted).
		Where("created_at BETWEEN ? AND ?", from, to)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// MaxTicketSequence returns the highest sequence already issued for the
// year, regardless of ticket status. Cancelled tickets keep their slot.
func (r *TicketRepository) MaxTicketSequence(ctx context.Context, year int) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Raw(`SELECT COALESCE(MAX(CAST(SPLIT_PART(ticket_number, '-', 3) AS INTEGER)), 0)
		     FROM inspection_tickets WHERE ticket_number LIKE ?`,
			fmt.Sprintf("TKT-%d-%%", year)).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (r *TicketRepository) HasPending(ctx context.Context, businessID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("business_id = ?", businessID).
		Where("inspection_status = ?", model.InspectionStatusPending).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *TicketRepository) LatestForBusiness(ctx context.Context, businessID uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepository) Save(ctx context.Context, ticket *model.Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

// Complete persists a ticket completion, its raised violations and the
// parent application's resolution flip as one transaction. The ticket
// update is conditional on the row still being pending; a lost race
// surfaces as gorm.ErrRecordNotFound and nothing commits.
func (r *TicketRepository) Complete(ctx context.Context, ticket *model.Ticket, violations []model.Violation, resolution *model.ResolutionStatus, logEntry *model.TicketStatusLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Ticket{}).
			Where("id = ? AND inspection_status = ?", ticket.ID, model.InspectionStatusPending).
			Select("*").Omit("id", "created_at", "Business", "Violations").
			Updates(ticket)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		for i := range violations {
			violations[i].TicketID = ticket.ID
			if err := tx.Create(&violations[i]).Error; err != nil {
				return err
			}
		}
		if resolution != nil {
			if err := tx.Model(&model.Business{}).
				Where("id = ?", ticket.BusinessID).
				Update("resolution_status", *resolution).Error; err != nil {
				return err
			}
		}
		if logEntry != nil {
			if err := tx.Create(logEntry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TicketRepository) LogStatusChange(ctx context.Context, entry *model.TicketStatusLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
