package notification

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
)

// Notifier delivers a meeting event to interested clients
type Notifier interface {
	Notify(ctx context.Context, meetingID uuid.UUID, kind entities.EventKind, payload any) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, meetingID uuid.UUID, kind entities.EventKind, payload any) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, meetingID uuid.UUID, kind entities.EventKind, payload any) error {
	return f(ctx, meetingID, kind, payload)
}

// Multi fans an event out to several notifiers. A failing notifier is
// logged and does not stop delivery to the others.
type Multi struct {
	notifiers []Notifier
	log       *zap.Logger
}

// NewMulti creates a fan-out notifier; nil entries are skipped
func NewMulti(log *zap.Logger, notifiers ...Notifier) *Multi {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Multi{log: log}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Notify delivers to every notifier and always returns nil
func (m *Multi) Notify(ctx context.Context, meetingID uuid.UUID, kind entities.EventKind, payload any) error {
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, meetingID, kind, payload); err != nil {
			m.log.Warn("notification.deliver.failed",
				zap.String("meeting_id", meetingID.String()),
				zap.String("event", string(kind)),
				zap.Error(err),
			)
		}
	}
	return nil
}
