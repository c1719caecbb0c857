package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
)

type eventRepository struct {
	store *Store
}

func (r *eventRepository) Append(_ context.Context, event *entities.MeetingEvent) error {
	sh, ok := r.store.shard(event.MeetingID)
	if !ok {
		return repositories.ErrNotFound
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.events = append(sh.events, *event)
	return nil
}

func (r *eventRepository) ListByMeetingID(_ context.Context, meetingID uuid.UUID, limit int) ([]*entities.MeetingEvent, error) {
	sh, ok := r.store.shard(meetingID)
	if !ok {
		return []*entities.MeetingEvent{}, nil
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if limit <= 0 || limit > len(sh.events) {
		limit = len(sh.events)
	}
	out := make([]*entities.MeetingEvent, 0, limit)
	for i := len(sh.events) - 1; i >= 0 && len(out) < limit; i-- {
		e := sh.events[i]
		out = append(out, &e)
	}
	return out, nil
}
