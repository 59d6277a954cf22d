package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ApplicationStatus string

const (
	ApplicationStatusDraft              ApplicationStatus = "DRAFT"
	ApplicationStatusSubmitted          ApplicationStatus = "SUBMITTED"
	ApplicationStatusUnderVerification  ApplicationStatus = "UNDER_VERIFICATION"
	ApplicationStatusAwaitingCompliance ApplicationStatus = "AWAITING_COMPLIANCE"
	ApplicationStatusAwaitingApproval   ApplicationStatus = "AWAITING_APPROVAL"
	ApplicationStatusCompleted          ApplicationStatus = "COMPLETED"
)

// forwardTransitions is the single place the pipeline order is encoded.
// The cancel-to-draft edge is not listed here; it is a separate operation
// allowed from every non-completed status.
var forwardTransitions = map[ApplicationStatus]ApplicationStatus{
	ApplicationStatusDraft:              ApplicationStatusSubmitted,
	ApplicationStatusSubmitted:          ApplicationStatusUnderVerification,
	ApplicationStatusUnderVerification:  ApplicationStatusAwaitingCompliance,
	ApplicationStatusAwaitingCompliance: ApplicationStatusAwaitingApproval,
	ApplicationStatusAwaitingApproval:   ApplicationStatusCompleted,
}

func (s ApplicationStatus) Known() bool {
	switch s {
	case ApplicationStatusDraft, ApplicationStatusSubmitted, ApplicationStatusUnderVerification,
		ApplicationStatusAwaitingCompliance, ApplicationStatusAwaitingApproval, ApplicationStatusCompleted:
		return true
	}
	return false
}

// CanAdvanceTo reports whether target is the next stage after s.
func (s ApplicationStatus) CanAdvanceTo(target ApplicationStatus) bool {
	next, ok := forwardTransitions[s]
	return ok && next == target
}

// Active reports whether s counts against the one-ongoing-request guard.
func (s ApplicationStatus) Active() bool {
	switch s {
	case ApplicationStatusSubmitted, ApplicationStatusUnderVerification,
		ApplicationStatusAwaitingCompliance, ApplicationStatusAwaitingApproval:
		return true
	}
	return false
}

// ActiveApplicationStatuses is the guard set in SQL-filter form.
var ActiveApplicationStatuses = []ApplicationStatus{
	ApplicationStatusSubmitted,
	ApplicationStatusUnderVerification,
	ApplicationStatusAwaitingCompliance,
	ApplicationStatusAwaitingApproval,
}

type ResolutionStatus string

const (
	ResolutionStatusNone          ResolutionStatus = "NONE"
	ResolutionStatusForCompliance ResolutionStatus = "FOR_COMPLIANCE"
	ResolutionStatusResolved      ResolutionStatus = "RESOLVED"
)

// ChecklistItem is one requirement row inside a business's document
// checklist groups. Keys are stable identifiers, labels are display text.
type ChecklistItem struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

type Business struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	BidNumber     *string   `gorm:"type:varchar(32);uniqueIndex" json:"bid_number"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	Nickname      string    `gorm:"type:varchar(255)" json:"nickname"`
	Establishment string    `gorm:"type:varchar(255)" json:"establishment"`
	Type          string    `gorm:"type:varchar(128);not null" json:"type"`
	Address       string    `gorm:"type:text;not null" json:"address"`
	Landmark      string    `gorm:"type:text" json:"landmark"`
	ContactPerson string    `gorm:"type:varchar(255)" json:"contact_person"`
	ContactNumber string    `gorm:"type:varchar(32)" json:"contact_number"`
	Remarks       string    `gorm:"type:text" json:"remarks"`

	Status           ApplicationStatus `gorm:"type:application_status;not null;default:'DRAFT'" json:"status"`
	ResolutionStatus ResolutionStatus  `gorm:"type:resolution_status;not null;default:'NONE'" json:"resolution_status"`

	SanitaryPermitIssuedAt *time.Time `json:"sanitary_permit_issued_at"`

	SanitaryPermitChecklist    datatypes.JSONSlice[ChecklistItem] `json:"sanitary_permit_checklist"`
	HealthCertificateChecklist datatypes.JSONSlice[ChecklistItem] `json:"health_certificate_checklist"`
	MSRChecklist               datatypes.JSONSlice[ChecklistItem] `json:"msr_checklist"`

	DeclaredPersonnel *int       `json:"declared_personnel"`
	HealthCertCount   *int       `json:"health_cert_count"`
	BalanceToComply   *int       `json:"balance_to_comply"`
	ComplianceDueDate *time.Time `json:"compliance_due_date"`

	AccountID    uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	AccountEmail string    `gorm:"type:varchar(255)" json:"account_email"`

	// Written once, on the approval transition.
	OfficerID  *uuid.UUID `gorm:"type:uuid" json:"officer_id"`
	ApprovedAt *time.Time `json:"approved_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Business) TableName() string {
	return "business_applications"
}
