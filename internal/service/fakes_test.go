package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sanitation-service/internal/model"
	"sanitation-service/internal/repository"
)

// fakeStore backs all four store interfaces with in-memory maps so the
// engine's rules can be tested without a database.
type fakeStore struct {
	mu            sync.Mutex
	businesses    map[uuid.UUID]*model.Business
	tickets       map[uuid.UUID]*model.Ticket
	violations    map[uuid.UUID]*model.Violation
	notifications map[uuid.UUID]*model.Notification
	appLogs       []model.ApplicationStatusLog
	ticketLogs    []model.TicketStatusLog

	failNext error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		businesses:    make(map[uuid.UUID]*model.Business),
		tickets:       make(map[uuid.UUID]*model.Ticket),
		violations:    make(map[uuid.UUID]*model.Violation),
		notifications: make(map[uuid.UUID]*model.Notification),
	}
}

func (f *fakeStore) takeFailure() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func copyBusiness(b model.Business) *model.Business { return &b }
func copyTicket(t model.Ticket) *model.Ticket       { return &t }
func copyViolation(v model.Violation) *model.Violation {
	return &v
}

func (f *fakeStore) Create(ctx context.Context, business *model.Business) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if business.ID == uuid.Nil {
		business.ID = uuid.New()
	}
	if business.CreatedAt.IsZero() {
		business.CreatedAt = time.Now()
	}
	f.businesses[business.ID] = copyBusiness(*business)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	business, ok := f.businesses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyBusiness(*business), nil
}

func (f *fakeStore) GetByRef(ctx context.Context, ref string) (*model.Business, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return f.GetByID(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, business := range f.businesses {
		if business.BidNumber != nil && *business.BidNumber == ref {
			return copyBusiness(*business), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) List(ctx context.Context, filter repository.BusinessFilter) ([]model.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Business
	for _, business := range f.businesses {
		if filter.AccountID != nil && business.AccountID != *filter.AccountID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, business.Status) {
			continue
		}
		if filter.Type != "" && business.Type != filter.Type {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(business.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *business)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) Save(ctx context.Context, business *model.Business) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.businesses[business.ID] = copyBusiness(*business)
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.businesses, id)
	return nil
}

func (f *fakeStore) HasActiveRequest(ctx context.Context, accountID uuid.UUID, exclude uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, business := range f.businesses {
		if business.ID == exclude {
			continue
		}
		if business.AccountID == accountID && business.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) BidNumberTaken(ctx context.Context, bidNumber string, exclude uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, business := range f.businesses {
		if business.ID == exclude {
			continue
		}
		if business.BidNumber != nil && *business.BidNumber == bidNumber {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SetResolution(ctx context.Context, id uuid.UUID, status model.ResolutionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	business, ok := f.businesses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	business.ResolutionStatus = status
	return nil
}

func (f *fakeStore) HasTickets(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ticket := range f.tickets {
		if ticket.BusinessID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) LogStatusChange(ctx context.Context, entry *model.ApplicationStatusLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appLogs = append(f.appLogs, *entry)
	return nil
}

func (f *fakeStore) CreateTicket(ctx context.Context, ticket *model.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	f.tickets[ticket.ID] = copyTicket(*ticket)
	return nil
}

func (f *fakeStore) GetTicket(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := copyTicket(*ticket)
	if business, ok := f.businesses[ticket.BusinessID]; ok {
		out.Business = copyBusiness(*business)
	}
	return out, nil
}

func (f *fakeStore) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Ticket
	for _, ticket := range f.tickets {
		if filter.BusinessID != nil && ticket.BusinessID != *filter.BusinessID {
			continue
		}
		if filter.AccountID != nil && ticket.AccountID != *filter.AccountID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsInspectionStatus(filter.Statuses, ticket.InspectionStatus) {
			continue
		}
		out = append(out, *ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) CountCompleted(ctx context.Context, businessID uuid.UUID, from, to time.Time, exclude uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, ticket := range f.tickets {
		if ticket.ID == exclude || ticket.BusinessID != businessID {
			continue
		}
		if ticket.InspectionStatus != model.InspectionStatusCompleted {
			continue
		}
		if ticket.CreatedAt.Before(from) || ticket.CreatedAt.After(to) {
			continue
		}
		count++
	}
	return count, nil
}

func (f *fakeStore) MaxTicketSequence(ctx context.Context, year int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := fmt.Sprintf("TKT-%d-", year)
	max := 0
	for _, ticket := range f.tickets {
		if !strings.HasPrefix(ticket.TicketNumber, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(ticket.TicketNumber, prefix))
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}

func (f *fakeStore) HasPending(ctx context.Context, businessID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ticket := range f.tickets {
		if ticket.BusinessID == businessID && ticket.InspectionStatus == model.InspectionStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) LatestForBusiness(ctx context.Context, businessID uuid.UUID) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Ticket
	for _, ticket := range f.tickets {
		if ticket.BusinessID != businessID {
			continue
		}
		if latest == nil || ticket.CreatedAt.After(latest.CreatedAt) {
			latest = ticket
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return copyTicket(*latest), nil
}

func (f *fakeStore) SaveTicket(ctx context.Context, ticket *model.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	stored := copyTicket(*ticket)
	stored.Business = nil
	stored.Violations = nil
	f.tickets[ticket.ID] = stored
	return nil
}

func (f *fakeStore) Complete(ctx context.Context, ticket *model.Ticket, violations []model.Violation, resolution *model.ResolutionStatus, logEntry *model.TicketStatusLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	current, ok := f.tickets[ticket.ID]
	if !ok || current.InspectionStatus != model.InspectionStatusPending {
		return gorm.ErrRecordNotFound
	}
	stored := copyTicket(*ticket)
	stored.Business = nil
	stored.Violations = nil
	f.tickets[ticket.ID] = stored
	for i := range violations {
		if violations[i].ID == uuid.Nil {
			violations[i].ID = uuid.New()
		}
		violations[i].TicketID = ticket.ID
		if violations[i].CreatedAt.IsZero() {
			violations[i].CreatedAt = time.Now()
		}
		f.violations[violations[i].ID] = copyViolation(violations[i])
	}
	if resolution != nil {
		if business, ok := f.businesses[ticket.BusinessID]; ok {
			business.ResolutionStatus = *resolution
		}
	}
	if logEntry != nil {
		f.ticketLogs = append(f.ticketLogs, *logEntry)
	}
	return nil
}

func (f *fakeStore) LogTicketStatusChange(ctx context.Context, entry *model.TicketStatusLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticketLogs = append(f.ticketLogs, *entry)
	return nil
}

func (f *fakeStore) GetViolation(ctx context.Context, id uuid.UUID) (*model.Violation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	violation, ok := f.violations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyViolation(*violation), nil
}

func (f *fakeStore) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]model.Violation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Violation
	for _, violation := range f.violations {
		ticket, ok := f.tickets[violation.TicketID]
		if !ok || ticket.BusinessID != businessID {
			continue
		}
		out = append(out, *violation)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) LatestPendingForBusiness(ctx context.Context, businessID uuid.UUID) (*model.Violation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Violation
	for _, violation := range f.violations {
		if violation.Status != model.ViolationStatusPending {
			continue
		}
		ticket, ok := f.tickets[violation.TicketID]
		if !ok || ticket.BusinessID != businessID {
			continue
		}
		if latest == nil || violation.CreatedAt.After(latest.CreatedAt) {
			latest = violation
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyViolation(*latest), nil
}

func (f *fakeStore) MarkResolved(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	violation, ok := f.violations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	violation.Status = model.ViolationStatusResolved
	return nil
}

func (f *fakeStore) CountPendingForTicket(ctx context.Context, ticketID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, violation := range f.violations {
		if violation.TicketID == ticketID && violation.Status == model.ViolationStatusPending {
			count++
		}
	}
	return count, nil
}

func containsStatus(haystack []model.ApplicationStatus, needle model.ApplicationStatus) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsInspectionStatus(haystack []model.InspectionStatus, needle model.InspectionStatus) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// The store method sets overlap, so thin adapters map each interface onto
// the shared fake.

type fakeBusinessStore struct{ *fakeStore }

type fakeTicketStore struct{ *fakeStore }

func (f fakeTicketStore) Create(ctx context.Context, ticket *model.Ticket) error {
	return f.CreateTicket(ctx, ticket)
}

func (f fakeTicketStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	return f.GetTicket(ctx, id)
}

func (f fakeTicketStore) List(ctx context.Context, filter repository.TicketFilter) ([]model.Ticket, error) {
	return f.ListTickets(ctx, filter)
}

func (f fakeTicketStore) Save(ctx context.Context, ticket *model.Ticket) error {
	return f.SaveTicket(ctx, ticket)
}

func (f fakeTicketStore) LogStatusChange(ctx context.Context, entry *model.TicketStatusLog) error {
	return f.LogTicketStatusChange(ctx, entry)
}

type fakeViolationStore struct{ *fakeStore }

func (f fakeViolationStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Violation, error) {
	return f.GetViolation(ctx, id)
}
