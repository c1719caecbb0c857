package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
)

const defaultEventLimit = 100

// eventRepository implements the EventRepository interface
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) repositories.EventRepository {
	return &eventRepository{db: db}
}

// Append stores an event
func (r *eventRepository) Append(ctx context.Context, event *entities.MeetingEvent) error {
	return translateError(r.db.WithContext(ctx).Create(event).Error)
}

// ListByMeetingID returns the latest events of a meeting, newest first
func (r *eventRepository) ListByMeetingID(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.MeetingEvent, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}

	var events []*entities.MeetingEvent
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, translateError(err)
}
