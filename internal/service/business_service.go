package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sanitation-service/internal/clock"
	"sanitation-service/internal/model"
	"sanitation-service/internal/permit"
	"sanitation-service/internal/repository"
)

// BusinessService owns the application review pipeline: the forward
// draft-to-completed progression, the single cancel-to-draft edge, and
// the one-active-request guard per business account.
type BusinessService struct {
	businesses BusinessStore
	tickets    TicketStore
	violations ViolationStore
	locks      *keyedLocks
	clock      clock.Clock
}

func NewBusinessService(
	businesses BusinessStore,
	tickets TicketStore,
	violations ViolationStore,
	clk clock.Clock,
) *BusinessService {
	return &BusinessService{
		businesses: businesses,
		tickets:    tickets,
		violations: violations,
		locks:      newKeyedLocks(),
		clock:      clk,
	}
}

type CreateBusinessInput struct {
	BidNumber     string
	Name          string
	Nickname      string
	Establishment string
	Type          string
	Address       string
	Landmark      string
	ContactPerson string
	ContactNumber string
	Remarks       string

	SanitaryPermitIssuedAt     *time.Time
	SanitaryPermitChecklist    []model.ChecklistItem
	HealthCertificateChecklist []model.ChecklistItem
	MSRChecklist               []model.ChecklistItem

	DeclaredPersonnel *int
	HealthCertCount   *int
	BalanceToComply   *int
	ComplianceDueDate *time.Time

	// Submit files the application immediately instead of leaving a draft.
	Submit bool
}

func (s *BusinessService) Create(ctx context.Context, principal model.Principal, input CreateBusinessInput) (*model.BusinessRecord, error) {
	if !principal.IsBusiness() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Type) == "" || strings.TrimSpace(input.Address) == "" {
		return nil, fmt.Errorf("%w: name, type and address are required", ErrInvalidInput)
	}
	if hasNegative(input.DeclaredPersonnel, input.HealthCertCount, input.BalanceToComply) {
		return nil, fmt.Errorf("%w: personnel counters must not be negative", ErrInvalidInput)
	}

	business := &model.Business{
		Name:          strings.TrimSpace(input.Name),
		Nickname:      strings.TrimSpace(input.Nickname),
		Establishment: strings.TrimSpace(input.Establishment),
		Type:          strings.TrimSpace(input.Type),
		Address:       strings.TrimSpace(input.Address),
		Landmark:      strings.TrimSpace(input.Landmark),
		ContactPerson: strings.TrimSpace(input.ContactPerson),
		ContactNumber: strings.TrimSpace(input.ContactNumber),
		Remarks:       input.Remarks,

		Status:           model.ApplicationStatusDraft,
		ResolutionStatus: model.ResolutionStatusNone,

		SanitaryPermitIssuedAt:     input.SanitaryPermitIssuedAt,
		SanitaryPermitChecklist:    normalizeChecklist(input.SanitaryPermitChecklist),
		HealthCertificateChecklist: normalizeChecklist(input.HealthCertificateChecklist),
		MSRChecklist:               normalizeChecklist(input.MSRChecklist),

		DeclaredPersonnel: input.DeclaredPersonnel,
		HealthCertCount:   input.HealthCertCount,
		BalanceToComply:   input.BalanceToComply,
		ComplianceDueDate: input.ComplianceDueDate,

		AccountID:    principal.UserID,
		AccountEmail: principal.Email,
	}

	if bid := strings.TrimSpace(input.BidNumber); bid != "" {
		taken, err := s.businesses.BidNumberTaken(ctx, bid, uuid.Nil)
		if err != nil {
			return nil, storeErr(err)
		}
		if taken {
			return nil, fmt.Errorf("%w: bid number already exists", ErrConflict)
		}
		business.BidNumber = &bid
	}

	if input.Submit {
		unlock := s.locks.Lock(principal.UserID)
		defer unlock()

		active, err := s.businesses.HasActiveRequest(ctx, principal.UserID, uuid.Nil)
		if err != nil {
			return nil, storeErr(err)
		}
		if active {
			return nil, fmt.Errorf("%w: an ongoing sanitation request already exists for this account", ErrConflict)
		}
		business.Status = model.ApplicationStatusSubmitted
	}

	if err := s.businesses.Create(ctx, business); err != nil {
		return nil, storeErr(err)
	}
	s.logApplicationStatus(ctx, business.ID, nil, business.Status, "created", &principal.UserID)

	return s.buildRecord(ctx, business)
}

// Submit moves an owner's draft into the review queue.
func (s *BusinessService) Submit(ctx context.Context, principal model.Principal, ref string) (*model.BusinessRecord, error) {
	if !principal.IsBusiness() {
		return nil, ErrPermissionDenied
	}

	business, err := s.getScoped(ctx, principal, ref)
	if err != nil {
		return nil, err
	}
	if !business.Status.CanAdvanceTo(model.ApplicationStatusSubmitted) {
		return nil, ErrInvalidTransition
	}

	unlock := s.locks.Lock(principal.UserID)
	defer unlock()

	active, err := s.businesses.HasActiveRequest(ctx, principal.UserID, business.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if active {
		return nil, fmt.Errorf("%w: an ongoing sanitation request already exists for this account", ErrConflict)
	}

	prev := business.Status
	business.Status = model.ApplicationStatusSubmitted
	if err := s.businesses.Save(ctx, business); err != nil {
		return nil, storeErr(err)
	}
	s.logApplicationStatus(ctx, business.ID, &prev, business.Status, "submitted by owner", &principal.UserID)

	return s.buildRecord(ctx, business)
}

// Advance moves an application one stage forward. Only the approval
// transition writes identity metadata and emits side effects.
func (s *BusinessService) Advance(ctx context.Context, principal model.Principal, ref string, target model.ApplicationStatus, note string) (*model.BusinessRecord, SideEffects, error) {
	var fx SideEffects

	if !principal.CanInspect() {
		return nil, fx, ErrPermissionDenied
	}
	if !target.Known() {
		return nil, fx, fmt.Errorf("%w: unknown target status %q", ErrInvalidInput, target)
	}

	business, err := s.getScoped(ctx, principal, ref)
	if err != nil {
		return nil, fx, err
	}

	unlock := s.locks.Lock(business.ID)
	defer unlock()

	// Re-read under the lock so a concurrent cancel cannot be overwritten
	// by a transition computed from a stale status.
	business, err = s.businesses.GetByID(ctx, business.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fx, ErrNotFound
		}
		return nil, fx, storeErr(err)
	}

	// Drafts are the owner's to submit; officers act on filed requests.
	if business.Status == model.ApplicationStatusDraft {
		return nil, fx, ErrInvalidTransition
	}
	if !business.Status.CanAdvanceTo(target) {
		return nil, fx, ErrInvalidTransition
	}

	prev := business.Status
	business.Status = target
	if note != "" {
		business.Remarks = note
	}

	if target == model.ApplicationStatusCompleted {
		now := s.clock.Now()
		business.OfficerID = &principal.UserID
		business.ApprovedAt = &now

		fx.Notifications = append(fx.Notifications, NotificationIntent{
			AccountID:  business.AccountID,
			Title:      "Permit Approved",
			Message:    fmt.Sprintf("Your permit for %q has been approved. You may now claim it at the Sanitation Department.", business.Name),
			Category:   model.NotificationPermitReleased,
			BusinessID: &business.ID,
		})
		if business.AccountEmail != "" {
			fx.Emails = append(fx.Emails, EmailIntent{
				To:       business.AccountEmail,
				Subject:  "Your Business Permit Has Been Approved",
				HTMLBody: approvalEmailBody(business.Name),
			})
		}
	}

	if err := s.businesses.Save(ctx, business); err != nil {
		return nil, SideEffects{}, storeErr(err)
	}
	s.logApplicationStatus(ctx, business.ID, &prev, business.Status, note, &principal.UserID)

	record, err := s.buildRecord(ctx, business)
	if err != nil {
		return nil, SideEffects{}, err
	}
	return record, fx, nil
}

// Cancel is the single backward edge: the owner pulls a not-yet-completed
// request back to draft.
func (s *BusinessService) Cancel(ctx context.Context, principal model.Principal, ref string) (*model.BusinessRecord, error) {
	if !principal.IsBusiness() {
		return nil, ErrPermissionDenied
	}

	business, err := s.getScoped(ctx, principal, ref)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(business.ID)
	defer unlock()

	business, err = s.businesses.GetByID(ctx, business.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	if business.Status == model.ApplicationStatusCompleted {
		return nil, ErrInvalidTransition
	}
	if business.Status == model.ApplicationStatusDraft {
		return s.buildRecord(ctx, business)
	}

	prev := business.Status
	business.Status = model.ApplicationStatusDraft
	if err := s.businesses.Save(ctx, business); err != nil {
		return nil, storeErr(err)
	}
	s.logApplicationStatus(ctx, business.ID, &prev, business.Status, "cancelled by owner", &principal.UserID)

	return s.buildRecord(ctx, business)
}

// Delete hard-removes a draft. Anything referenced by inspections stays.
func (s *BusinessService) Delete(ctx context.Context, principal model.Principal, ref string) error {
	if !principal.IsBusiness() {
		return ErrPermissionDenied
	}

	business, err := s.getScoped(ctx, principal, ref)
	if err != nil {
		return err
	}
	if business.Status != model.ApplicationStatusDraft {
		return fmt.Errorf("%w: only draft applications can be deleted", ErrInvalidTransition)
	}

	referenced, err := s.businesses.HasTickets(ctx, business.ID)
	if err != nil {
		return storeErr(err)
	}
	if referenced {
		return fmt.Errorf("%w: inspections reference this business", ErrConflict)
	}

	if err := s.businesses.Delete(ctx, business.ID); err != nil {
		return storeErr(err)
	}
	return nil
}

type UpdateBusinessInput struct {
	BidNumber     *string
	Name          *string
	Nickname      *string
	Establishment *string
	Type          *string
	Address       *string
	Landmark      *string
	ContactPerson *string
	ContactNumber *string
	Remarks       *string

	SanitaryPermitIssuedAt     *time.Time
	SanitaryPermitChecklist    []model.ChecklistItem
	HealthCertificateChecklist []model.ChecklistItem
	MSRChecklist               []model.ChecklistItem

	DeclaredPersonnel *int
	HealthCertCount   *int
	BalanceToComply   *int
	ComplianceDueDate *time.Time
}

// Update applies profile and checklist edits. Status never changes here;
// the pipeline operations own that.
func (s *BusinessService) Update(ctx context.Context, principal model.Principal, ref string, input UpdateBusinessInput) (*model.BusinessRecord, error) {
	business, err := s.getScoped(ctx, principal, ref)
	if err != nil {
		return nil, err
	}
	if hasNegative(input.DeclaredPersonnel, input.HealthCertCount, input.BalanceToComply) {
		return nil, fmt.Errorf("%w: personnel counters must not be negative", ErrInvalidInput)
	}

	if input.BidNumber != nil {
		bid := strings.TrimSpace(*input.BidNumber)
		if bid == "" {
			return nil, fmt.Errorf("%w: bid number must not be blank", ErrInvalidInput)
		}
		taken, err := s.businesses.BidNumberTaken(ctx, bid, business.ID)
		if err != nil {
			return nil, storeErr(err)
		}
		if taken {
			return nil, fmt.Errorf("%w: bid number already exists", ErrConflict)
		}
		business.BidNumber = &bid
	}

	setString(&business.Name, input.Name)
	setString(&business.Nickname, input.Nickname)
	setString(&business.Establishment, input.Establishment)
	setString(&business.Type, input.Type)
	setString(&business.Address, input.Address)
	setString(&business.Landmark, input.Landmark)
	setString(&business.ContactPerson, input.ContactPerson)
	setString(&business.ContactNumber, input.ContactNumber)
	setString(&business.Remarks, input.Remarks)

	if input.SanitaryPermitIssuedAt != nil {
		business.SanitaryPermitIssuedAt = input.SanitaryPermitIssuedAt
	}
	if input.SanitaryPermitChecklist != nil {
		business.SanitaryPermitChecklist = normalizeChecklist(input.SanitaryPermitChecklist)
	}
	if input.HealthCertificateChecklist != nil {
		business.HealthCertificateChecklist = normalizeChecklist(input.HealthCertificateChecklist)
	}
	if input.MSRChecklist != nil {
		business.MSRChecklist = normalizeChecklist(input.MSRChecklist)
	}
	if input.DeclaredPersonnel != nil {
		business.DeclaredPersonnel = input.DeclaredPersonnel
	}
	if input.HealthCertCount != nil {
		business.HealthCertCount = input.HealthCertCount
	}
	if input.BalanceToComply != nil {
		business.BalanceToComply = input.BalanceToComply
	}
	if input.ComplianceDueDate != nil {
		business.ComplianceDueDate = input.ComplianceDueDate
	}

	if err := s.businesses.Save(ctx, business); err != nil {
		return nil, storeErr(err)
	}
	return s.buildRecord(ctx, business)
}

// BusinessDetails pairs the enriched record with the full inspection
// history for the detail view.
type BusinessDetails struct {
	Record      model.BusinessRecord `json:"record"`
	Inspections []model.Ticket       `json:"inspections"`
}

func (s *BusinessService) Get(ctx context.Context, principal model.Principal, ref string) (*BusinessDetails, error) {
	business, err := s.getScoped(ctx, principal, ref)
	if err != nil {
		return nil, err
	}

	record, err := s.buildRecord(ctx, business)
	if err != nil {
		return nil, err
	}

	history, err := s.tickets.List(ctx, repository.TicketFilter{BusinessID: &business.ID})
	if err != nil {
		return nil, storeErr(err)
	}

	return &BusinessDetails{Record: *record, Inspections: history}, nil
}

type ListBusinessOptions struct {
	Statuses []model.ApplicationStatus
	Type     string
	Search   string
	Limit    int
	Offset   int
}

func (s *BusinessService) List(ctx context.Context, principal model.Principal, opts ListBusinessOptions) ([]model.BusinessRecord, error) {
	filter := repository.BusinessFilter{
		Statuses: opts.Statuses,
		Type:     opts.Type,
		Search:   opts.Search,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	}
	if principal.IsBusiness() {
		filter.AccountID = &principal.UserID
	} else if !principal.CanInspect() {
		return nil, ErrPermissionDenied
	}

	businesses, err := s.businesses.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err)
	}

	records := make([]model.BusinessRecord, 0, len(businesses))
	for i := range businesses {
		record, err := s.buildRecord(ctx, &businesses[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

// getScoped resolves a business reference within the actor's visibility:
// owners see their own records, officers and admins see everything.
func (s *BusinessService) getScoped(ctx context.Context, principal model.Principal, ref string) (*model.Business, error) {
	business, err := s.businesses.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	if principal.IsBusiness() && business.AccountID != principal.UserID {
		return nil, ErrNotFound
	}
	return business, nil
}

// buildRecord attaches the derived read fields. All of them are computed
// fresh on every call; none are ever written back.
func (s *BusinessService) buildRecord(ctx context.Context, business *model.Business) (*model.BusinessRecord, error) {
	now := s.clock.Now()
	from, to := permit.YearWindow(now.Year(), now.Location())

	count, err := s.tickets.CountCompleted(ctx, business.ID, from, to, uuid.Nil)
	if err != nil {
		return nil, storeErr(err)
	}

	latestStatus := model.InspectionStatusNone
	latest, err := s.tickets.LatestForBusiness(ctx, business.ID)
	switch {
	case err == nil:
		latestStatus = latest.InspectionStatus
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, storeErr(err)
	}

	pending, err := s.tickets.HasPending(ctx, business.ID)
	if err != nil {
		return nil, storeErr(err)
	}

	var latestViolation *model.ViolationBrief
	violation, err := s.violations.LatestPendingForBusiness(ctx, business.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if violation != nil {
		latestViolation = &model.ViolationBrief{
			ID:        violation.ID,
			Code:      violation.Code,
			Penalty:   violation.Penalty,
			Status:    violation.Status,
			CreatedAt: violation.CreatedAt,
		}
	}

	return &model.BusinessRecord{
		Business:                *business,
		PermitValidity:          permit.Evaluate(business.SanitaryPermitIssuedAt, now),
		LatestInspectionStatus:  latestStatus,
		InspectionCountThisYear: count,
		HasPendingInspection:    pending,
		LatestViolation:         latestViolation,
	}, nil
}

func (s *BusinessService) logApplicationStatus(ctx context.Context, businessID uuid.UUID, old *model.ApplicationStatus, status model.ApplicationStatus, note string, changedBy *uuid.UUID) {
	// Audit trail only; a failed log write never fails the operation.
	_ = s.businesses.LogStatusChange(ctx, &model.ApplicationStatusLog{
		BusinessID: businessID,
		OldStatus:  old,
		NewStatus:  status,
		Note:       note,
		ChangedBy:  changedBy,
	})
}

func approvalEmailBody(businessName string) string {
	return fmt.Sprintf(`<p>Hello,</p>
<p>We are pleased to inform you that your permit request for <strong>%s</strong> has been approved.</p>
<p>Please proceed to the Sanitation Department and claim your permit.</p>
<br/>
<p>Thank you for your compliance and cooperation.</p>
<p><strong>City Sanitation Office</strong></p>`, businessName)
}

func normalizeChecklist(items []model.ChecklistItem) []model.ChecklistItem {
	out := make([]model.ChecklistItem, 0, len(items))
	for i, item := range items {
		label := strings.TrimSpace(item.Label)
		if label == "" {
			continue
		}
		key := strings.TrimSpace(item.Key)
		if key == "" {
			key = fmt.Sprintf("custom_%d", i)
		}
		out = append(out, model.ChecklistItem{Key: key, Label: label, DueDate: item.DueDate})
	}
	return out
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func hasNegative(values ...*int) bool {
	for _, v := range values {
		if v != nil && *v < 0 {
			return true
		}
	}
	return false
}
