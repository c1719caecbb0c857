package txn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
	ucErrors "github.com/johnquangdev/assembly-floor/internal/usecase/errors"
	"github.com/johnquangdev/assembly-floor/pkg/retry"
)

// flakyRepo fails the first n updates with a store conflict
type flakyRepo struct {
	repositories.AttendeeRepository
	failures int
	calls    int
	err      error
}

func (r *flakyRepo) Update(_ context.Context, id uuid.UUID, fn func(*entities.Attendee) error) (*entities.Attendee, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if r.calls <= r.failures {
		return nil, repositories.ErrConflict
	}
	a := &entities.Attendee{ID: id, FloorState: entities.FloorStateIdle}
	if err := fn(a); err != nil {
		return nil, err
	}
	return a, nil
}

var fast = retry.Policy{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, MaxElapsedTime: 50 * time.Millisecond}

func TestUpdateAttendeeRetriesConflicts(t *testing.T) {
	repo := &flakyRepo{failures: 2}
	a, err := UpdateAttendee(context.Background(), repo, fast, uuid.New(), func(a *entities.Attendee) error {
		a.IsRegistered = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if !a.IsRegistered || repo.calls != 3 {
		t.Fatalf("unexpected result registered=%v calls=%d", a.IsRegistered, repo.calls)
	}
}

func TestUpdateAttendeeSurfacesTransient(t *testing.T) {
	repo := &flakyRepo{failures: 1 << 20}
	_, err := UpdateAttendee(context.Background(), repo, fast, uuid.New(), func(*entities.Attendee) error { return nil })
	if !errors.Is(err, ucErrors.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestUpdateAttendeeMapsErrors(t *testing.T) {
	tests := []struct {
		repoErr error
		want    error
	}{
		{repositories.ErrNotFound, ucErrors.ErrAttendeeNotFound},
		{repositories.ErrDuplicate, ucErrors.ErrFloorTaken},
	}
	for _, tt := range tests {
		repo := &flakyRepo{err: tt.repoErr}
		_, err := UpdateAttendee(context.Background(), repo, fast, uuid.New(), func(*entities.Attendee) error { return nil })
		if !errors.Is(err, tt.want) {
			t.Fatalf("%v: expected %v, got %v", tt.repoErr, tt.want, err)
		}
		if repo.calls != 1 {
			t.Fatalf("%v must not be retried, got %d calls", tt.repoErr, repo.calls)
		}
	}
}

func TestUpdateAttendeePassesCallbackError(t *testing.T) {
	repo := &flakyRepo{}
	_, err := UpdateAttendee(context.Background(), repo, fast, uuid.New(), func(*entities.Attendee) error {
		return entities.ErrNotRegistered
	})
	if !errors.Is(err, entities.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}
