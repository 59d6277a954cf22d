package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatusLog struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	BusinessID uuid.UUID          `gorm:"type:uuid;not null" json:"business_id"`
	OldStatus  *ApplicationStatus `gorm:"type:application_status" json:"old_status"`
	NewStatus  ApplicationStatus  `gorm:"type:application_status;not null" json:"new_status"`
	Note       string             `gorm:"type:text" json:"note"`
	ChangedBy  *uuid.UUID         `gorm:"type:uuid" json:"changed_by"`
	CreatedAt  time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

func (ApplicationStatusLog) TableName() string {
	return "application_status_log"
}

func (l *ApplicationStatusLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type TicketStatusLog struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TicketID  uuid.UUID         `gorm:"type:uuid;not null" json:"ticket_id"`
	OldStatus *InspectionStatus `gorm:"type:inspection_status" json:"old_status"`
	NewStatus InspectionStatus  `gorm:"type:inspection_status;not null" json:"new_status"`
	Note      string            `gorm:"type:text" json:"note"`
	ChangedBy *uuid.UUID        `gorm:"type:uuid" json:"changed_by"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (TicketStatusLog) TableName() string {
	return "ticket_status_log"
}

func (l *TicketStatusLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
