package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationCategory string

const (
	NotificationInspectionCreated   NotificationCategory = "INSPECTION_CREATED"
	NotificationInspectionCompleted NotificationCategory = "INSPECTION_COMPLETED"
	NotificationViolationIssued     NotificationCategory = "VIOLATION_ISSUED"
	NotificationPermitReleased      NotificationCategory = "PERMIT_RELEASED"
	NotificationGeneral             NotificationCategory = "GENERAL"
)

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`

	BusinessID *uuid.UUID `gorm:"type:uuid" json:"business_id"`
	TicketID   *uuid.UUID `gorm:"type:uuid" json:"ticket_id"`

	Title    string               `gorm:"type:varchar(255)" json:"title"`
	Message  string               `gorm:"type:text;not null" json:"message"`
	Category NotificationCategory `gorm:"type:notification_category;not null;default:'GENERAL'" json:"category"`

	IsRead    bool `gorm:"not null;default:false" json:"is_read"`
	IsDeleted bool `gorm:"not null;default:false" json:"is_deleted"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
