package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sanitation-service/internal/permit"
)

type BusinessBrief struct {
	ID            uuid.UUID `json:"id"`
	BidNumber     *string   `json:"bid_number"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Address       string    `json:"address"`
	ContactPerson string    `json:"contact_person"`
}

func NewBusinessBrief(b Business) BusinessBrief {
	return BusinessBrief{
		ID:            b.ID,
		BidNumber:     b.BidNumber,
		Name:          b.Name,
		Type:          b.Type,
		Address:       b.Address,
		ContactPerson: b.ContactPerson,
	}
}

type ViolationBrief struct {
	ID        uuid.UUID       `json:"id"`
	Code      ViolationCode   `json:"code"`
	Penalty   decimal.Decimal `json:"penalty"`
	Status    ViolationStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// BusinessRecord is a Business enriched with the derived read fields.
// None of these are stored; they are recomputed on every read.
type BusinessRecord struct {
	Business                Business         `json:"business"`
	PermitValidity          permit.Validity  `json:"permit_validity"`
	LatestInspectionStatus  InspectionStatus `json:"latest_inspection_status"`
	InspectionCountThisYear int              `json:"inspection_count_this_year"`
	HasPendingInspection    bool             `json:"has_pending_inspection"`
	LatestViolation         *ViolationBrief  `json:"latest_violation"`
}

type TicketRecord struct {
	Ticket   Ticket         `json:"ticket"`
	Business *BusinessBrief `json:"business"`
}
