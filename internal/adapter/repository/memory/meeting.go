package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
)

type meetingRepository struct {
	store *Store
}

func (r *meetingRepository) Create(_ context.Context, meeting *entities.Meeting) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.shards[meeting.ID]; exists {
		return repositories.ErrDuplicate
	}
	if _, exists := s.codes[meeting.Code]; exists {
		return repositories.ErrDuplicate
	}
	s.codes[meeting.Code] = meeting.ID
	s.shards[meeting.ID] = &shard{
		meeting:   *cloneMeeting(*meeting),
		attendees: make(map[uuid.UUID]*entities.Attendee),
	}
	return nil
}

func (r *meetingRepository) FindByID(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	sh, ok := r.store.shard(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return cloneMeeting(sh.meeting), nil
}

func (r *meetingRepository) FindLatest(_ context.Context) (*entities.Meeting, error) {
	s := r.store
	s.mu.RLock()
	shards := make([]*shard, 0, len(s.shards))
	for _, sh := range s.shards {
		shards = append(shards, sh)
	}
	s.mu.RUnlock()

	var latest *entities.Meeting
	for _, sh := range shards {
		sh.mu.Lock()
		m := sh.meeting
		sh.mu.Unlock()
		if latest == nil || startedLater(&m, latest) {
			latest = cloneMeeting(m)
		}
	}
	if latest == nil {
		return nil, repositories.ErrNotFound
	}
	return latest, nil
}

func (r *meetingRepository) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.shards))
	for id := range s.shards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (r *meetingRepository) Update(_ context.Context, id uuid.UUID, fn func(*entities.Meeting) error) (*entities.Meeting, error) {
	sh, ok := r.store.shard(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()

	working := cloneMeeting(sh.meeting)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.ID = id
	sh.meeting = *cloneMeeting(*working)
	return working, nil
}

func startedLater(a, b *entities.Meeting) bool {
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.After(b.StartTime)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}
