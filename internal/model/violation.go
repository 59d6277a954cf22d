package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ViolationCode string

const (
	ViolationCodeNoSanitaryPermit     ViolationCode = "NO_SANITARY_PERMIT"
	ViolationCodeNoHealthCertificate  ViolationCode = "NO_HEALTH_CERTIFICATE"
	ViolationCodeFailureRenewSanitary ViolationCode = "FAILURE_RENEW_SANITARY"
	ViolationCodePestControl          ViolationCode = "PEST_CONTROL_NONCOMPLIANCE"
	ViolationCodeOther                ViolationCode = "OTHER"
)

type ViolationStatus string

const (
	ViolationStatusPending  ViolationStatus = "PENDING"
	ViolationStatusResolved ViolationStatus = "RESOLVED"
)

// DefaultOrdinanceSection is the citation attached to every raised
// violation; penalties are fixed by the same ordinance.
const DefaultOrdinanceSection = "Ordinance No. 53, s.2022"

type Violation struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`

	Code             ViolationCode   `gorm:"type:violation_code;not null" json:"code"`
	Description      string          `gorm:"type:text" json:"description"`
	Penalty          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"penalty"`
	OrdinanceSection string          `gorm:"type:varchar(64);not null;default:'Ordinance No. 53, s.2022'" json:"ordinance_section"`
	OffenseCount     int             `gorm:"not null;default:1" json:"offense_count"`
	Status           ViolationStatus `gorm:"type:violation_status;not null;default:'PENDING'" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Ticket *Ticket `gorm:"foreignKey:TicketID" json:"-"`
}

func (Violation) TableName() string {
	return "violations"
}
