package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sanitation-service/internal/model"
	"sanitation-service/internal/repository"
)

// The services consume the persistence layer through these interfaces so
// the engine's rules can be exercised against in-memory fakes. The gorm
// repositories are the production implementations.

type BusinessStore interface {
	Create(ctx context.Context, business *model.Business) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Business, error)
	GetByRef(ctx context.Context, ref string) (*model.Business, error)
	List(ctx context.Context, filter repository.BusinessFilter) ([]model.Business, error)
	Save(ctx context.Context, business *model.Business) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasActiveRequest(ctx context.Context, accountID uuid.UUID, exclude uuid.UUID) (bool, error)
	BidNumberTaken(ctx context.Context, bidNumber string, exclude uuid.UUID) (bool, error)
	SetResolution(ctx context.Context, id uuid.UUID, status model.ResolutionStatus) error
	HasTickets(ctx context.Context, id uuid.UUID) (bool, error)
	LogStatusChange(ctx context.Context, entry *model.ApplicationStatusLog) error
}

type TicketStore interface {
	Create(ctx context.Context, ticket *model.Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error)
	List(ctx context.Context, filter repository.TicketFilter) ([]model.Ticket, error)
	CountCompleted(ctx context.Context, businessID uuid.UUID, from, to time.Time, exclude uuid.UUID) (int, error)
	MaxTicketSequence(ctx context.Context, year int) (int, error)
	HasPending(ctx context.Context, businessID uuid.UUID) (bool, error)
	LatestForBusiness(ctx context.Context, businessID uuid.UUID) (*model.Ticket, error)
	Save(ctx context.Context, ticket *model.Ticket) error
	Complete(ctx context.Context, ticket *model.Ticket, violations []model.Violation, resolution *model.ResolutionStatus, logEntry *model.TicketStatusLog) error
	LogStatusChange(ctx context.Context, entry *model.TicketStatusLog) error
}

type ViolationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Violation, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]model.Violation, error)
	LatestPendingForBusiness(ctx context.Context, businessID uuid.UUID) (*model.Violation, error)
	MarkResolved(ctx context.Context, id uuid.UUID) error
	CountPendingForTicket(ctx context.Context, ticketID uuid.UUID) (int, error)
}

type NotificationStore interface {
	Create(ctx context.Context, notification *model.Notification) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, accountID uuid.UUID) error
	SoftDelete(ctx context.Context, id, accountID uuid.UUID) error
}
