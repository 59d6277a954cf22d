package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sanitation-service/internal/clock"
	"sanitation-service/internal/model"
	"sanitation-service/internal/permit"
	"sanitation-service/internal/repository"
)

// maxInspectionsPerYear caps completed inspections per business per
// calendar year. The cap is hard: no role may complete a third.
const maxInspectionsPerYear = 2

// InspectionService owns the compliance ledger: ticket lifecycle, the
// yearly cap, inspection numbering and violation assessment.
type InspectionService struct {
	businesses BusinessStore
	tickets    TicketStore
	violations ViolationStore
	locks      *keyedLocks
	clock      clock.Clock
}

func NewInspectionService(
	businesses BusinessStore,
	tickets TicketStore,
	violations ViolationStore,
	clk clock.Clock,
) *InspectionService {
	return &InspectionService{
		businesses: businesses,
		tickets:    tickets,
		violations: violations,
		locks:      newKeyedLocks(),
		clock:      clk,
	}
}

type CreateTicketInput struct {
	BusinessRef    string
	InspectionType model.InspectionType
	InspectionDate *time.Time
	Remarks        string
}

// CreateTicket opens a pending inspection against a business. At most
// one pending ticket may exist per business; the yearly cap is enforced
// at completion, not here, so scheduling ahead of a new window stays
// possible.
func (s *InspectionService) CreateTicket(ctx context.Context, principal model.Principal, input CreateTicketInput) (*model.TicketRecord, SideEffects, error) {
	var fx SideEffects

	if !principal.CanInspect() {
		return nil, fx, ErrPermissionDenied
	}

	inspectionType := input.InspectionType
	if inspectionType == "" {
		inspectionType = model.InspectionTypeRoutine
	}
	if !knownInspectionType(inspectionType) {
		return nil, fx, fmt.Errorf("%w: unknown inspection type %q", ErrInvalidInput, inspectionType)
	}

	business, err := s.businesses.GetByRef(ctx, input.BusinessRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fx, ErrNotFound
		}
		return nil, fx, storeErr(err)
	}

	unlock := s.locks.Lock(business.ID)
	defer unlock()

	pending, err := s.tickets.HasPending(ctx, business.ID)
	if err != nil {
		return nil, fx, storeErr(err)
	}
	if pending {
		return nil, fx, fmt.Errorf("%w: a pending inspection already exists for this business", ErrConflict)
	}

	now := s.clock.Now()

	// Numbering derives from the highest issued sequence, not a row
	// count, so cancelled tickets never free a number for reuse.
	sequence, err := s.tickets.MaxTicketSequence(ctx, now.Year())
	if err != nil {
		return nil, fx, storeErr(err)
	}

	ticket := &model.Ticket{
		TicketNumber:     fmt.Sprintf("TKT-%d-%03d", now.Year(), sequence+1),
		BusinessID:       business.ID,
		AccountID:        business.AccountID,
		OfficerID:        principal.UserID,
		InspectionStatus: model.InspectionStatusPending,
		InspectionType:   inspectionType,
		InspectionDate:   input.InspectionDate,
		Remarks:          input.Remarks,
		ResolutionStatus: model.ResolutionStatusNone,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fx, storeErr(err)
	}
	s.logTicketStatus(ctx, ticket.ID, nil, model.InspectionStatusPending, "ticket opened", &principal.UserID)

	fx.Notifications = append(fx.Notifications, NotificationIntent{
		AccountID:  business.AccountID,
		Title:      "Inspection Scheduled",
		Message:    fmt.Sprintf("A sanitation inspection has been scheduled for %q (ticket %s).", business.Name, ticket.TicketNumber),
		Category:   model.NotificationInspectionCreated,
		BusinessID: &business.ID,
		TicketID:   &ticket.ID,
	})

	brief := model.NewBusinessBrief(*business)
	return &model.TicketRecord{Ticket: *ticket, Business: &brief}, fx, nil
}

type CompleteTicketInput struct {
	Checklist      model.InspectionChecklist
	InspectionDate *time.Time
	Remarks        string
}

// CompleteTicket closes a pending ticket with its checklist snapshot.
// The yearly cap is re-checked under the business lock so two concurrent
// completions cannot both land; the ticket being completed never counts
// against itself. Violations are assessed only on the second completed
// inspection of the year.
func (s *InspectionService) CompleteTicket(ctx context.Context, principal model.Principal, ticketID uuid.UUID, input CompleteTicketInput) (*model.TicketRecord, SideEffects, error) {
	var fx SideEffects

	if !principal.CanInspect() {
		return nil, fx, ErrPermissionDenied
	}

	checklist, err := sanitizeChecklist(input.Checklist)
	if err != nil {
		return nil, fx, err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fx, ErrNotFound
		}
		return nil, fx, storeErr(err)
	}

	unlock := s.locks.Lock(ticket.BusinessID)
	defer unlock()

	// Re-read under the lock: a concurrent completion may have landed
	// between the first read and the lock acquisition.
	ticket, err = s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fx, ErrNotFound
		}
		return nil, fx, storeErr(err)
	}
	if ticket.InspectionStatus != model.InspectionStatusPending {
		return nil, fx, fmt.Errorf("%w: only pending tickets can be completed", ErrInvalidTransition)
	}

	now := s.clock.Now()
	from, to := permit.YearWindow(now.Year(), now.Location())

	completed, err := s.tickets.CountCompleted(ctx, ticket.BusinessID, from, to, ticket.ID)
	if err != nil {
		return nil, fx, storeErr(err)
	}
	if completed >= maxInspectionsPerYear {
		return nil, fx, ErrLimitExceeded
	}

	ticket.InspectionStatus = model.InspectionStatusCompleted
	ticket.InspectionNumber = completed + 1
	ticket.Checklist = checklist
	if input.InspectionDate != nil {
		ticket.InspectionDate = input.InspectionDate
	} else if ticket.InspectionDate == nil {
		ticket.InspectionDate = &now
	}
	if input.Remarks != "" {
		ticket.Remarks = input.Remarks
	}

	var violations []model.Violation
	var resolution *model.ResolutionStatus
	if ticket.InspectionNumber == 2 {
		violations = assessChecklist(checklist)
		if len(violations) > 0 {
			ticket.ResolutionStatus = model.ResolutionStatusForCompliance
			forCompliance := model.ResolutionStatusForCompliance
			resolution = &forCompliance
		}
	}

	prev := model.InspectionStatusPending
	logEntry := &model.TicketStatusLog{
		TicketID:  ticket.ID,
		OldStatus: &prev,
		NewStatus: model.InspectionStatusCompleted,
		Note:      fmt.Sprintf("completed as inspection #%d", ticket.InspectionNumber),
		ChangedBy: &principal.UserID,
	}

	if err := s.tickets.Complete(ctx, ticket, violations, resolution, logEntry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fx, fmt.Errorf("%w: only pending tickets can be completed", ErrInvalidTransition)
		}
		return nil, fx, storeErr(err)
	}
	ticket.Violations = violations

	fx.Notifications = append(fx.Notifications, NotificationIntent{
		AccountID:  ticket.AccountID,
		Title:      "Inspection Completed",
		Message:    fmt.Sprintf("Inspection %s has been completed.", ticket.TicketNumber),
		Category:   model.NotificationInspectionCompleted,
		BusinessID: &ticket.BusinessID,
		TicketID:   &ticket.ID,
	})
	if len(violations) > 0 {
		total := decimal.Zero
		for _, v := range violations {
			total = total.Add(v.Penalty)
		}
		fx.Notifications = append(fx.Notifications, NotificationIntent{
			AccountID: ticket.AccountID,
			Title:     "Violation Issued",
			Message: fmt.Sprintf("Inspection %s raised %d violation(s) with a total penalty of PHP %s under %s.",
				ticket.TicketNumber, len(violations), total.StringFixed(2), model.DefaultOrdinanceSection),
			Category:   model.NotificationViolationIssued,
			BusinessID: &ticket.BusinessID,
			TicketID:   &ticket.ID,
		})
	}

	return s.buildTicketRecord(ctx, ticket), fx, nil
}

// CancelTicket withdraws a pending ticket back to NONE. The row and its
// ticket number stay on the ledger; completed tickets are immutable.
func (s *InspectionService) CancelTicket(ctx context.Context, principal model.Principal, ticketID uuid.UUID) error {
	if !principal.CanInspect() {
		return ErrPermissionDenied
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storeErr(err)
	}

	unlock := s.locks.Lock(ticket.BusinessID)
	defer unlock()

	ticket, err = s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storeErr(err)
	}
	if ticket.InspectionStatus != model.InspectionStatusPending {
		return fmt.Errorf("%w: only pending tickets can be cancelled", ErrInvalidTransition)
	}

	prev := model.InspectionStatusPending
	ticket.InspectionStatus = model.InspectionStatusNone
	if err := s.tickets.Save(ctx, ticket); err != nil {
		return storeErr(err)
	}
	s.logTicketStatus(ctx, ticket.ID, &prev, model.InspectionStatusNone, "ticket cancelled", &principal.UserID)
	return nil
}

func (s *InspectionService) Get(ctx context.Context, principal model.Principal, ticketID uuid.UUID) (*model.TicketRecord, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	if principal.IsBusiness() && ticket.AccountID != principal.UserID {
		return nil, ErrNotFound
	}
	return s.buildTicketRecord(ctx, ticket), nil
}

type ListTicketOptions struct {
	BusinessRef string
	Statuses    []model.InspectionStatus
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

func (s *InspectionService) List(ctx context.Context, principal model.Principal, opts ListTicketOptions) ([]model.TicketRecord, error) {
	filter := repository.TicketFilter{
		Statuses: opts.Statuses,
		From:     opts.From,
		To:       opts.To,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	}
	if principal.IsBusiness() {
		filter.AccountID = &principal.UserID
	} else if !principal.CanInspect() {
		return nil, ErrPermissionDenied
	}

	if opts.BusinessRef != "" {
		business, err := s.businesses.GetByRef(ctx, opts.BusinessRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, storeErr(err)
		}
		filter.BusinessID = &business.ID
	}

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err)
	}

	records := make([]model.TicketRecord, 0, len(tickets))
	for i := range tickets {
		records = append(records, *s.buildTicketRecord(ctx, &tickets[i]))
	}
	return records, nil
}

func (s *InspectionService) ListViolations(ctx context.Context, principal model.Principal, businessRef string, limit, offset int) ([]model.Violation, error) {
	business, err := s.businesses.GetByRef(ctx, businessRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	if principal.IsBusiness() && business.AccountID != principal.UserID {
		return nil, ErrNotFound
	}

	violations, err := s.violations.ListByBusiness(ctx, business.ID, limit, offset)
	if err != nil {
		return nil, storeErr(err)
	}
	return violations, nil
}

// ResolveViolation settles a pending violation. Once the last pending
// violation on a ticket resolves, both the ticket and the parent
// application flip to RESOLVED.
func (s *InspectionService) ResolveViolation(ctx context.Context, principal model.Principal, violationID uuid.UUID) (SideEffects, error) {
	var fx SideEffects

	if !principal.CanInspect() {
		return fx, ErrPermissionDenied
	}

	violation, err := s.violations.GetByID(ctx, violationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fx, ErrNotFound
		}
		return fx, storeErr(err)
	}
	if violation.Status == model.ViolationStatusResolved {
		return fx, fmt.Errorf("%w: violation is already resolved", ErrInvalidTransition)
	}

	if err := s.violations.MarkResolved(ctx, violation.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fx, ErrNotFound
		}
		return fx, storeErr(err)
	}

	remaining, err := s.violations.CountPendingForTicket(ctx, violation.TicketID)
	if err != nil {
		return fx, storeErr(err)
	}
	if remaining > 0 {
		return fx, nil
	}

	ticket, err := s.tickets.GetByID(ctx, violation.TicketID)
	if err != nil {
		return fx, storeErr(err)
	}
	ticket.ResolutionStatus = model.ResolutionStatusResolved
	if err := s.tickets.Save(ctx, ticket); err != nil {
		return fx, storeErr(err)
	}
	if err := s.businesses.SetResolution(ctx, ticket.BusinessID, model.ResolutionStatusResolved); err != nil {
		return fx, storeErr(err)
	}

	fx.Notifications = append(fx.Notifications, NotificationIntent{
		AccountID:  ticket.AccountID,
		Title:      "Violations Resolved",
		Message:    fmt.Sprintf("All violations raised under inspection %s have been resolved.", ticket.TicketNumber),
		Category:   model.NotificationGeneral,
		BusinessID: &ticket.BusinessID,
		TicketID:   &ticket.ID,
	})
	return fx, nil
}

func (s *InspectionService) buildTicketRecord(ctx context.Context, ticket *model.Ticket) *model.TicketRecord {
	record := &model.TicketRecord{Ticket: *ticket}
	if ticket.Business != nil {
		brief := model.NewBusinessBrief(*ticket.Business)
		record.Business = &brief
	} else if business, err := s.businesses.GetByID(ctx, ticket.BusinessID); err == nil {
		brief := model.NewBusinessBrief(*business)
		record.Business = &brief
	}
	return record
}

func (s *InspectionService) logTicketStatus(ctx context.Context, ticketID uuid.UUID, old *model.InspectionStatus, status model.InspectionStatus, note string, changedBy *uuid.UUID) {
	_ = s.tickets.LogStatusChange(ctx, &model.TicketStatusLog{
		TicketID:  ticketID,
		OldStatus: old,
		NewStatus: status,
		Note:      note,
		ChangedBy: changedBy,
	})
}

// sanitizeChecklist validates marks and headcounts. Missing counts stay
// at zero; negative counts are rejected rather than coerced.
func sanitizeChecklist(checklist model.InspectionChecklist) (model.InspectionChecklist, error) {
	hc := checklist.HealthCertificates
	if hc.ActualCount < 0 || hc.WithCert < 0 || hc.WithoutCert < 0 {
		return checklist, fmt.Errorf("%w: health certificate counts must not be negative", ErrInvalidInput)
	}

	if !validPermitMark(checklist.SanitaryPermit) {
		return checklist, fmt.Errorf("%w: sanitary permit mark must be WITH or WITHOUT", ErrInvalidInput)
	}
	for _, mark := range []model.ComplianceMark{
		checklist.PotableWaterCert,
		checklist.PestControl,
		checklist.SanitaryOrder1,
		checklist.SanitaryOrder2,
	} {
		if !validComplianceMark(mark) {
			return checklist, fmt.Errorf("%w: compliance marks must be CHECK or X", ErrInvalidInput)
		}
	}
	return checklist, nil
}

func validPermitMark(mark model.PermitMark) bool {
	switch mark {
	case model.PermitMarkWith, model.PermitMarkWithout, model.PermitMarkUnspecified:
		return true
	}
	return false
}

func validComplianceMark(mark model.ComplianceMark) bool {
	switch mark {
	case model.ComplianceMarkCheck, model.ComplianceMarkX, model.ComplianceMarkUnspecified:
		return true
	}
	return false
}

func knownInspectionType(t model.InspectionType) bool {
	switch t {
	case model.InspectionTypeRoutine, model.InspectionTypeReinspection,
		model.InspectionTypeFollowUp, model.InspectionTypeComplaintBased:
		return true
	}
	return false
}
