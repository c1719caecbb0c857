package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
)

type attendeeRepository struct {
	store *Store
}

func (r *attendeeRepository) Create(_ context.Context, attendee *entities.Attendee) error {
	s := r.store
	sh, ok := s.shard(attendee.MeetingID)
	if !ok {
		return repositories.ErrNotFound
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	for _, a := range sh.attendees {
		if a.SeatNumber == attendee.SeatNumber {
			return repositories.ErrDuplicate
		}
	}
	if _, exists := sh.attendees[attendee.ID]; exists {
		return repositories.ErrDuplicate
	}
	if err := attendee.CheckFloorState(); err != nil {
		return err
	}

	sh.attendees[attendee.ID] = cloneAttendee(attendee)
	s.mu.Lock()
	s.attendee[attendee.ID] = attendee.MeetingID
	s.mu.Unlock()
	return nil
}

func (r *attendeeRepository) FindByID(_ context.Context, id uuid.UUID) (*entities.Attendee, error) {
	sh, ok := r.store.shardForAttendee(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	a, ok := sh.attendees[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneAttendee(a), nil
}

func (r *attendeeRepository) FindByMeetingID(_ context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error) {
	out := r.filter(meetingID, func(*entities.Attendee) bool { return true })
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out, nil
}

func (r *attendeeRepository) FindPending(_ context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error) {
	out := r.filter(meetingID, (*entities.Attendee).IsPending)
	sort.SliceStable(out, func(i, j int) bool { return queueLess(out[i], out[j]) })
	return out, nil
}

func (r *attendeeRepository) FindSpeakers(_ context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error) {
	out := r.filter(meetingID, (*entities.Attendee).IsSpeaking)
	sort.SliceStable(out, func(i, j int) bool {
		return timeLess(out[i].InterventionStartTime, out[j].InterventionStartTime, false)
	})
	return out, nil
}

func (r *attendeeRepository) Update(_ context.Context, id uuid.UUID, fn func(*entities.Attendee) error) (*entities.Attendee, error) {
	sh, ok := r.store.shardForAttendee(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()

	current, ok := sh.attendees[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	working := cloneAttendee(current)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.ID = current.ID
	working.MeetingID = current.MeetingID
	if err := working.CheckFloorState(); err != nil {
		return nil, err
	}
	if working.IsSpeaking() {
		for otherID, other := range sh.attendees {
			if otherID != id && other.IsSpeaking() {
				return nil, repositories.ErrDuplicate
			}
		}
	}

	sh.attendees[id] = cloneAttendee(working)
	return working, nil
}

func (r *attendeeRepository) EvictExpiredOffers(_ context.Context, meetingID uuid.UUID, now time.Time) ([]*entities.Attendee, error) {
	sh, ok := r.store.shard(meetingID)
	if !ok {
		return nil, nil
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()

	var evicted []*entities.Attendee
	for _, a := range sh.attendees {
		if !a.OfferExpired(now) {
			continue
		}
		a.Reset()
		a.UpdatedAt = now
		evicted = append(evicted, cloneAttendee(a))
	}
	sort.Slice(evicted, func(i, j int) bool { return evicted[i].SeatNumber < evicted[j].SeatNumber })
	return evicted, nil
}

func (r *attendeeRepository) filter(meetingID uuid.UUID, keep func(*entities.Attendee) bool) []*entities.Attendee {
	sh, ok := r.store.shard(meetingID)
	if !ok {
		return []*entities.Attendee{}
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()

	out := make([]*entities.Attendee, 0, len(sh.attendees))
	for _, a := range sh.attendees {
		if keep(a) {
			out = append(out, cloneAttendee(a))
		}
	}
	return out
}

// queueLess orders the speaking queue: deadline ascending with unset first,
// then request time, then creation time, then id.
func queueLess(a, b *entities.Attendee) bool {
	if !timeEqual(a.InterventionAcceptDeadline, b.InterventionAcceptDeadline) {
		return timeLess(a.InterventionAcceptDeadline, b.InterventionAcceptDeadline, true)
	}
	if !timeEqual(a.RequestedAt, b.RequestedAt) {
		return timeLess(a.RequestedAt, b.RequestedAt, false)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// timeLess compares optional times; nilFirst decides where unset values sort
func timeLess(a, b *time.Time, nilFirst bool) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil:
		return nilFirst
	case b == nil:
		return !nilFirst
	default:
		return a.Before(*b)
	}
}
