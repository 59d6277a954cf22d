package service

import (
	"github.com/google/uuid"

	"sanitation-service/internal/model"
)

// NotificationIntent asks the caller to record an in-app notification
// after the state transition that produced it has committed.
type NotificationIntent struct {
	AccountID  uuid.UUID
	Title      string
	Message    string
	Category   model.NotificationCategory
	BusinessID *uuid.UUID
	TicketID   *uuid.UUID
}

// EmailIntent asks the caller to send an email. Like notifications it is
// fire-and-forget: a failed send never reverses the committed mutation.
type EmailIntent struct {
	To       string
	Subject  string
	HTMLBody string
}

// SideEffects is returned by mutating operations alongside the new state.
// Components never dispatch directly; the orchestrating layer does, after
// commit, and reports failures as response warnings.
type SideEffects struct {
	Notifications []NotificationIntent
	Emails        []EmailIntent
}

func (fx SideEffects) Empty() bool {
	return len(fx.Notifications) == 0 && len(fx.Emails) == 0
}
