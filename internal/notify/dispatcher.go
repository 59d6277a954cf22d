package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"sanitation-service/internal/model"
	"sanitation-service/internal/service"
)

// NotificationSink records an in-app notification.
type NotificationSink interface {
	Create(ctx context.Context, notification *model.Notification) error
}

// Dispatcher delivers the side effects a service operation returned.
// It runs after the operation's state change has committed, so failures
// here surface as warnings on the response instead of errors.
type Dispatcher struct {
	sink   NotificationSink
	mailer *Mailer
	log    zerolog.Logger
}

func NewDispatcher(sink NotificationSink, mailer *Mailer, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{sink: sink, mailer: mailer, log: log}
}

// Dispatch delivers every intent and returns a human-readable warning
// per failed delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, fx service.SideEffects) []string {
	if fx.Empty() {
		return nil
	}

	var warnings []string

	for _, intent := range fx.Notifications {
		notification := &model.Notification{
			AccountID:  intent.AccountID,
			BusinessID: intent.BusinessID,
			TicketID:   intent.TicketID,
			Title:      intent.Title,
			Message:    intent.Message,
			Category:   intent.Category,
		}
		if err := d.sink.Create(ctx, notification); err != nil {
			d.log.Warn().Err(err).
				Str("account_id", intent.AccountID.String()).
				Str("category", string(intent.Category)).
				Msg("notification write failed")
			warnings = append(warnings, fmt.Sprintf("notification %q could not be recorded", intent.Title))
		}
	}

	for _, intent := range fx.Emails {
		if d.mailer == nil || !d.mailer.Enabled() {
			d.log.Debug().Str("to", intent.To).Msg("mailer not configured, skipping email")
			continue
		}
		if err := d.mailer.Send(ctx, intent.To, intent.Subject, intent.HTMLBody); err != nil {
			d.log.Warn().Err(err).Str("to", intent.To).Msg("email send failed")
			warnings = append(warnings, fmt.Sprintf("email to %s could not be sent", intent.To))
		}
	}

	return warnings
}
