package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanitation-service/internal/model"
	"sanitation-service/internal/service"
)

type recordingSink struct {
	created []model.Notification
	err     error
}

func (s *recordingSink) Create(ctx context.Context, notification *model.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, *notification)
	return nil
}

func TestDispatch_RecordsNotifications(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, NewMailer(SMTPConfig{}), zerolog.Nop())

	warnings := d.Dispatch(context.Background(), service.SideEffects{
		Notifications: []service.NotificationIntent{
			{AccountID: uuid.New(), Title: "Permit Approved", Category: model.NotificationPermitReleased},
		},
	})

	assert.Empty(t, warnings)
	require.Len(t, sink.created, 1)
	assert.Equal(t, model.NotificationPermitReleased, sink.created[0].Category)
}

func TestDispatch_FailureBecomesWarning(t *testing.T) {
	sink := &recordingSink{err: fmt.Errorf("insert failed")}
	d := NewDispatcher(sink, NewMailer(SMTPConfig{}), zerolog.Nop())

	warnings := d.Dispatch(context.Background(), service.SideEffects{
		Notifications: []service.NotificationIntent{
			{AccountID: uuid.New(), Title: "Inspection Scheduled"},
		},
	})

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Inspection Scheduled")
}

func TestDispatch_SkipsEmailWithoutRelay(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, NewMailer(SMTPConfig{}), zerolog.Nop())

	warnings := d.Dispatch(context.Background(), service.SideEffects{
		Emails: []service.EmailIntent{{To: "owner@example.com", Subject: "hello"}},
	})

	assert.Empty(t, warnings)
}

func TestDispatch_EmptyNoop(t *testing.T) {
	d := NewDispatcher(&recordingSink{}, nil, zerolog.Nop())
	assert.Nil(t, d.Dispatch(context.Background(), service.SideEffects{}))
}
