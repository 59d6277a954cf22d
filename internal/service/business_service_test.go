package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanitation-service/internal/clock"
	"sanitation-service/internal/model"
	"sanitation-service/internal/permit"
)

func businessPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Email: "owner@example.com", Role: model.UserRoleBusiness}
}

func officerPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Email: "officer@example.com", Role: model.UserRoleOfficer}
}

func newBusinessEnv() (*BusinessService, *fakeStore, clock.Fixed) {
	store := newFakeStore()
	clk := clock.Fixed{T: time.Now()}
	svc := NewBusinessService(fakeBusinessStore{store}, fakeTicketStore{store}, fakeViolationStore{store}, clk)
	return svc, store, clk
}

func seedBusiness(store *fakeStore, accountID uuid.UUID, status model.ApplicationStatus) *model.Business {
	business := &model.Business{
		ID:               uuid.New(),
		Name:             "Aling Nena's Carinderia",
		Type:             "Food Establishment",
		Address:          "123 Mabini St",
		Status:           status,
		ResolutionStatus: model.ResolutionStatusNone,
		AccountID:        accountID,
		AccountEmail:     "owner@example.com",
		CreatedAt:        time.Now(),
	}
	store.businesses[business.ID] = business
	return business
}

func TestBusinessCreate_Draft(t *testing.T) {
	svc, _, _ := newBusinessEnv()
	owner := businessPrincipal()

	record, err := svc.Create(context.Background(), owner, CreateBusinessInput{
		Name:    "Sample Bakery",
		Type:    "Food Establishment",
		Address: "45 Rizal Ave",
	})

	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusDraft, record.Business.Status)
	assert.Equal(t, owner.UserID, record.Business.AccountID)
	assert.Equal(t, permit.ValidityUnknown, record.PermitValidity)
	assert.Equal(t, model.InspectionStatusNone, record.LatestInspectionStatus)
}

func TestBusinessCreate_OfficerDenied(t *testing.T) {
	svc, _, _ := newBusinessEnv()

	_, err := svc.Create(context.Background(), officerPrincipal(), CreateBusinessInput{
		Name:    "Sample Bakery",
		Type:    "Food Establishment",
		Address: "45 Rizal Ave",
	})

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestBusinessCreate_MissingFields(t *testing.T) {
	svc, _, _ := newBusinessEnv()

	_, err := svc.Create(context.Background(), businessPrincipal(), CreateBusinessInput{Name: "No Address"})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBusinessCreate_NegativeCounters(t *testing.T) {
	svc, _, _ := newBusinessEnv()
	negative := -1

	_, err := svc.Create(context.Background(), businessPrincipal(), CreateBusinessInput{
		Name:              "Sample Bakery",
		Type:              "Food Establishment",
		Address:           "45 Rizal Ave",
		DeclaredPersonnel: &negative,
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBusinessCreate_DuplicateBidNumber(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	existing := seedBusiness(store, uuid.New(), model.ApplicationStatusDraft)
	bid := "BID-2025-0001"
	existing.BidNumber = &bid

	_, err := svc.Create(context.Background(), owner, CreateBusinessInput{
		BidNumber: bid,
		Name:      "Sample Bakery",
		Type:      "Food Establishment",
		Address:   "45 Rizal Ave",
	})

	assert.ErrorIs(t, err, ErrConflict)
}

func TestBusinessCreate_ImmediateSubmitBlockedByActiveRequest(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	seedBusiness(store, owner.UserID, model.ApplicationStatusUnderVerification)

	_, err := svc.Create(context.Background(), owner, CreateBusinessInput{
		Name:    "Second Venture",
		Type:    "Retail",
		Address: "9 Ortigas Ave",
		Submit:  true,
	})

	assert.ErrorIs(t, err, ErrConflict)
}

func TestBusinessSubmit_DraftMovesToQueue(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	business := seedBusiness(store, owner.UserID, model.ApplicationStatusDraft)

	record, err := svc.Submit(context.Background(), owner, business.ID.String())

	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusSubmitted, record.Business.Status)
}

func TestBusinessSubmit_AlreadyFiled(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	business := seedBusiness(store, owner.UserID, model.ApplicationStatusSubmitted)

	_, err := svc.Submit(context.Background(), owner, business.ID.String())

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBusinessSubmit_SecondActiveRequestBlocked(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	seedBusiness(store, owner.UserID, model.ApplicationStatusAwaitingApproval)
	draft := seedBusiness(store, owner.UserID, model.ApplicationStatusDraft)

	_, err := svc.Submit(context.Background(), owner, draft.ID.String())

	assert.ErrorIs(t, err, ErrConflict)
}

func TestBusinessAdvance_StepByStep(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	officer := officerPrincipal()
	business := seedBusiness(store, uuid.New(), model.ApplicationStatusSubmitted)

	steps := []model.ApplicationStatus{
		model.ApplicationStatusUnderVerification,
		model.ApplicationStatusAwaitingCompliance,
		model.ApplicationStatusAwaitingApproval,
	}
	for _, target := range steps {
		record, fx, err := svc.Advance(context.Background(), officer, business.ID.String(), target, "")
		require.NoError(t, err)
		assert.Equal(t, target, record.Business.Status)
		assert.True(t, fx.Empty())
	}
}

func TestBusinessAdvance_SkippingStageRejected(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	business := seedBusiness(store, uuid.New(), model.ApplicationStatusSubmitted)

	_, _, err := svc.Advance(context.Background(), officerPrincipal(), business.ID.String(), model.ApplicationStatusAwaitingApproval, "")

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBusinessAdvance_DraftNotAdvanceable(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	business := seedBusiness(store, uuid.New(), model.ApplicationStatusDraft)

	_, _, err := svc.Advance(context.Background(), officerPrincipal(), business.ID.String(), model.ApplicationStatusSubmitted, "")

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBusinessAdvance_OwnerDenied(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	business := seedBusiness(store, owner.UserID, model.ApplicationStatusSubmitted)

	_, _, err := svc.Advance(context.Background(), owner, business.ID.String(), model.ApplicationStatusUnderVerification, "")

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestBusinessAdvance_ApprovalWritesAuditAndEmits(t *testing.T) {
	svc, store, clk := newBusinessEnv()
	officer := officerPrincipal()
	business := seedBusiness(store, uuid.New(), model.ApplicationStatusAwaitingApproval)

	record, fx, err := svc.Advance(context.Background(), officer, business.ID.String(), model.ApplicationStatusCompleted, "")

	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusCompleted, record.Business.Status)
	require.NotNil(t, record.Business.OfficerID)
	assert.Equal(t, officer.UserID, *record.Business.OfficerID)
	require.NotNil(t, record.Business.ApprovedAt)
	assert.Equal(t, clk.T, *record.Business.ApprovedAt)

	require.Len(t, fx.Notifications, 1)
	assert.Equal(t, model.NotificationPermitReleased, fx.Notifications[0].Category)
	require.Len(t, fx.Emails, 1)
	assert.Equal(t, "owner@example.com", fx.Emails[0].To)
}

func TestBusinessAdvance_UnknownTarget(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	business := seedBusiness(store, uuid.New(), model.ApplicationStatusSubmitted)

	_, _, err := svc.Advance(context.Background(), officerPrincipal(), business.ID.String(), "APPROVED_ISH", "")

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBusinessCancel_ReturnsToDraft(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	business := seedBusiness(store, owner.UserID, model.ApplicationStatusUnderVerification)

	record, err := svc.Cancel(context.Background(), owner, business.ID.String())

	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusDraft, record.Business.Status)
}

func TestBusinessCancel_CompletedImmutable(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	business := seedBusiness(store, owner.UserID, model.ApplicationStatusCompleted)

	_, err := svc.Cancel(context.Background(), owner, business.ID.String())

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBusinessDelete_DraftOnly(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	draft := seedBusiness(store, owner.UserID, model.ApplicationStatusDraft)
	filed := seedBusiness(store, owner.UserID, model.ApplicationStatusSubmitted)

	assert.NoError(t, svc.Delete(context.Background(), owner, draft.ID.String()))
	assert.ErrorIs(t, svc.Delete(context.Background(), owner, filed.ID.String()), ErrInvalidTransition)
}

func TestBusinessDelete_BlockedByInspectionHistory(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	draft := seedBusiness(store, owner.UserID, model.ApplicationStatusDraft)
	ticket := &model.Ticket{
		ID:               uuid.New(),
		BusinessID:       draft.ID,
		InspectionStatus: model.InspectionStatusCompleted,
		CreatedAt:        time.Now(),
	}
	store.tickets[ticket.ID] = ticket

	assert.ErrorIs(t, svc.Delete(context.Background(), owner, draft.ID.String()), ErrConflict)
}

func TestBusinessGet_OtherOwnerInvisible(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	business := seedBusiness(store, uuid.New(), model.ApplicationStatusSubmitted)

	_, err := svc.Get(context.Background(), businessPrincipal(), business.ID.String())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBusinessGet_ByBidNumber(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	business := seedBusiness(store, owner.UserID, model.ApplicationStatusSubmitted)
	bid := "BID-2025-0042"
	business.BidNumber = &bid

	details, err := svc.Get(context.Background(), owner, bid)

	require.NoError(t, err)
	assert.Equal(t, business.ID, details.Record.Business.ID)
}

func TestBusinessList_OwnerScoped(t *testing.T) {
	svc, store, _ := newBusinessEnv()
	owner := businessPrincipal()
	seedBusiness(store, owner.UserID, model.ApplicationStatusDraft)
	seedBusiness(store, uuid.New(), model.ApplicationStatusSubmitted)

	records, err := svc.List(context.Background(), owner, ListBusinessOptions{})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, owner.UserID, records[0].Business.AccountID)
}

func TestBusinessRecord_DerivedFields(t *testing.T) {
	svc, store, clk := newBusinessEnv()
	officer := officerPrincipal()
	business := seedBusiness(store, uuid.New(), model.ApplicationStatusCompleted)
	issued := clk.T
	business.SanitaryPermitIssuedAt = &issued
	ticket := &model.Ticket{
		ID:               uuid.New(),
		BusinessID:       business.ID,
		InspectionStatus: model.InspectionStatusCompleted,
		InspectionNumber: 1,
		CreatedAt:        clk.T,
	}
	store.tickets[ticket.ID] = ticket

	details, err := svc.Get(context.Background(), officer, business.ID.String())

	require.NoError(t, err)
	assert.Equal(t, permit.ValidityValid, details.Record.PermitValidity)
	assert.Equal(t, 1, details.Record.InspectionCountThisYear)
	assert.Equal(t, model.InspectionStatusCompleted, details.Record.LatestInspectionStatus)
	assert.False(t, details.Record.HasPendingInspection)
}

func TestBusinessAdvance_ConcurrentCancelNeverResurrects(t *testing.T) {
	for i := 0; i < 25; i++ {
		svc, store, _ := newBusinessEnv()
		owner := businessPrincipal()
		officer := officerPrincipal()
		business := seedBusiness(store, owner.UserID, model.ApplicationStatusSubmitted)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.Cancel(context.Background(), owner, business.ID.String())
		}()
		go func() {
			defer wg.Done()
			_, _, _ = svc.Advance(context.Background(), officer, business.ID.String(), model.ApplicationStatusUnderVerification, "")
		}()
		wg.Wait()

		// Whichever order the two serialize in, the cancel edge wins: the
		// advance either happens first and is pulled back, or reads the
		// cancelled draft and is refused.
		stored, err := store.GetByID(context.Background(), business.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ApplicationStatusDraft, stored.Status)
	}
}
