package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
)

// Store keeps meetings, attendees and events in process memory.
// Each meeting owns a shard with its own lock, so work on different
// meetings never contends.
type Store struct {
	mu       sync.RWMutex
	shards   map[uuid.UUID]*shard
	codes    map[string]uuid.UUID
	attendee map[uuid.UUID]uuid.UUID // attendee id -> meeting id
}

type shard struct {
	mu        sync.Mutex
	meeting   entities.Meeting
	attendees map[uuid.UUID]*entities.Attendee
	events    []entities.MeetingEvent
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		shards:   make(map[uuid.UUID]*shard),
		codes:    make(map[string]uuid.UUID),
		attendee: make(map[uuid.UUID]uuid.UUID),
	}
}

// Meetings returns the meeting repository view of the store
func (s *Store) Meetings() repositories.MeetingRepository {
	return &meetingRepository{store: s}
}

// Attendees returns the attendee repository view of the store
func (s *Store) Attendees() repositories.AttendeeRepository {
	return &attendeeRepository{store: s}
}

// Events returns the event repository view of the store
func (s *Store) Events() repositories.EventRepository {
	return &eventRepository{store: s}
}

func (s *Store) shard(meetingID uuid.UUID) (*shard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shards[meetingID]
	return sh, ok
}

func (s *Store) shardForAttendee(attendeeID uuid.UUID) (*shard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meetingID, ok := s.attendee[attendeeID]
	if !ok {
		return nil, false
	}
	sh, ok := s.shards[meetingID]
	return sh, ok
}

func cloneAttendee(a *entities.Attendee) *entities.Attendee {
	out := *a
	out.RequestedAt = cloneTime(a.RequestedAt)
	out.InterventionAcceptDeadline = cloneTime(a.InterventionAcceptDeadline)
	out.InterventionStartTime = cloneTime(a.InterventionStartTime)
	if a.Vote != nil {
		v := *a.Vote
		out.Vote = &v
	}
	if a.SecondVote != nil {
		v := *a.SecondVote
		out.SecondVote = &v
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneMeeting(m entities.Meeting) *entities.Meeting {
	out := m
	if m.EndTime != nil {
		end := *m.EndTime
		out.EndTime = &end
	}
	return &out
}
