package model

import (
	"time"

	"github.com/google/uuid"
)

type InspectionStatus string

const (
	InspectionStatusNone      InspectionStatus = "NONE"
	InspectionStatusPending   InspectionStatus = "PENDING"
	InspectionStatusCompleted InspectionStatus = "COMPLETED"
)

type InspectionType string

const (
	InspectionTypeRoutine        InspectionType = "ROUTINE"
	InspectionTypeReinspection   InspectionType = "REINSPECTION"
	InspectionTypeFollowUp       InspectionType = "FOLLOW_UP"
	InspectionTypeComplaintBased InspectionType = "COMPLAINT_BASED"
)

// PermitMark records whether the establishment could present a document
// during the visit. Blank means the item was not assessed.
type PermitMark string

const (
	PermitMarkWith        PermitMark = "WITH"
	PermitMarkWithout     PermitMark = "WITHOUT"
	PermitMarkUnspecified PermitMark = ""
)

// ComplianceMark is a pass/fail/not-assessed marker on a checklist line.
type ComplianceMark string

const (
	ComplianceMarkCheck       ComplianceMark = "CHECK"
	ComplianceMarkX           ComplianceMark = "X"
	ComplianceMarkUnspecified ComplianceMark = ""
)

// HealthCertificateCount is the 3-way personnel headcount taken on site.
type HealthCertificateCount struct {
	ActualCount int `gorm:"column:actual_count;not null;default:0" json:"actual_count"`
	WithCert    int `gorm:"column:with_cert;not null;default:0" json:"with_cert"`
	WithoutCert int `gorm:"column:without_cert;not null;default:0" json:"without_cert"`
}

// InspectionChecklist is the per-visit snapshot persisted at completion.
type InspectionChecklist struct {
	SanitaryPermit     PermitMark             `gorm:"column:sanitary_permit;type:varchar(16)" json:"sanitary_permit"`
	HealthCertificates HealthCertificateCount `gorm:"embedded;embeddedPrefix:hc_" json:"health_certificates"`
	PotableWaterCert   ComplianceMark         `gorm:"column:potable_water_cert;type:varchar(8)" json:"potable_water_cert"`
	PestControl        ComplianceMark         `gorm:"column:pest_control;type:varchar(8)" json:"pest_control"`
	SanitaryOrder1     ComplianceMark         `gorm:"column:sanitary_order1;type:varchar(8)" json:"sanitary_order1"`
	SanitaryOrder2     ComplianceMark         `gorm:"column:sanitary_order2;type:varchar(8)" json:"sanitary_order2"`
}

type Ticket struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TicketNumber string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"ticket_number"`

	BusinessID uuid.UUID `gorm:"type:uuid;not null;index" json:"business_id"`
	AccountID  uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	OfficerID  uuid.UUID `gorm:"type:uuid;not null" json:"officer_id"`

	InspectionStatus InspectionStatus `gorm:"type:inspection_status;not null;default:'PENDING'" json:"inspection_status"`
	InspectionType   InspectionType   `gorm:"type:inspection_type;not null;default:'ROUTINE'" json:"inspection_type"`

	// 1-based rank among completed inspections for the business within the
	// calendar year. Zero until completion, immutable after.
	InspectionNumber int `gorm:"not null;default:0" json:"inspection_number"`

	InspectionDate *time.Time `json:"inspection_date"`

	Checklist InspectionChecklist `gorm:"embedded;embeddedPrefix:checklist_" json:"checklist"`

	Remarks          string           `gorm:"type:text" json:"remarks"`
	ResolutionStatus ResolutionStatus `gorm:"type:resolution_status;not null;default:'NONE'" json:"resolution_status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Business   *Business   `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	Violations []Violation `gorm:"foreignKey:TicketID" json:"violations,omitempty"`
}

func (Ticket) TableName() string {
	return "inspection_tickets"
}
