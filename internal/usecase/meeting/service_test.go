package meeting

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/johnquangdev/assembly-floor/internal/adapter/repository/memory"
	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	ucErrors "github.com/johnquangdev/assembly-floor/internal/usecase/errors"
	"github.com/johnquangdev/assembly-floor/internal/usecase/notification"
	"github.com/johnquangdev/assembly-floor/internal/usecase/notification/notificationtest"
	"github.com/johnquangdev/assembly-floor/internal/usecase/summary"
	"github.com/johnquangdev/assembly-floor/pkg/clock"
)

type fakeArchiver struct {
	mu        sync.Mutex
	snapshots []*summary.MeetingSummary
	err       error
}

func (f *fakeArchiver) Archive(_ context.Context, snapshot *summary.MeetingSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snapshot)
	return f.err
}

type fixture struct {
	store    *memory.Store
	clock    *clock.Fake
	events   *notificationtest.Recorder
	archiver *fakeArchiver
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	rec := &notificationtest.Recorder{}
	arch := &fakeArchiver{}
	log := zaptest.NewLogger(t)
	pub := notification.NewPublisher(rec, summary.NewService(store.Meetings(), store.Attendees()), 5*time.Minute, log)
	return &fixture{
		store:    store,
		clock:    clk,
		events:   rec,
		archiver: arch,
		svc:      NewService(store.Meetings(), store.Attendees(), store.Events(), arch, clk, pub, log),
	}
}

var codePattern = regexp.MustCompile(`^[0-9A-F]{6}$`)

func TestNewCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		if code := NewCode(); !codePattern.MatchString(code) {
			t.Fatalf("bad code %q", code)
		}
	}
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != entities.MeetingStatusCreated || m.EndTime != nil || !m.StartTime.Equal(f.clock.Now()) {
		t.Fatalf("unexpected meeting %+v", m)
	}
	if !codePattern.MatchString(m.Code) {
		t.Fatalf("bad code %q", m.Code)
	}

	got, err := f.svc.Get(ctx, m.ID)
	if err != nil || got.Code != m.Code {
		t.Fatalf("get: %v %v", got, err)
	}
	if _, err := f.svc.Get(ctx, uuid.New()); !errors.Is(err, ucErrors.ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}
}

func TestGetLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.GetLast(ctx); !errors.Is(err, ucErrors.ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}

	if _, err := f.svc.Create(ctx); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(time.Hour)
	latest, err := f.svc.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.GetLast(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != latest.ID {
		t.Fatal("expected the most recently started meeting")
	}

	ids, err := f.svc.ListIDs(ctx)
	if err != nil || len(ids) != 2 {
		t.Fatalf("expected two ids, got %v %v", ids, err)
	}
}

func TestUpdateStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, err := f.svc.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	for _, status := range entities.MeetingStatuses() {
		f.clock.Advance(time.Minute)
		got, err := f.svc.UpdateStatus(ctx, m.ID, status)
		if err != nil {
			t.Fatalf("%s: %v", status, err)
		}
		if (got.EndTime != nil) != (status == entities.MeetingStatusClosed) {
			t.Fatalf("%s: end time must be set only when closed", status)
		}
	}
	if n := f.events.Count(entities.EventMeetingStatusUpdated); n != len(entities.MeetingStatuses()) {
		t.Fatalf("expected a status update per transition, got %d", n)
	}
	if len(f.archiver.snapshots) != 1 || f.archiver.snapshots[0].Status != entities.MeetingStatusClosed {
		t.Fatalf("expected one closing snapshot, got %d", len(f.archiver.snapshots))
	}
}

func TestClosedIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.svc.Create(ctx)

	closed, err := f.svc.UpdateStatus(ctx, m.ID, entities.MeetingStatusClosed)
	if err != nil {
		t.Fatal(err)
	}
	end := *closed.EndTime

	_, err = f.svc.UpdateStatus(ctx, m.ID, entities.MeetingStatusFirstVoting)
	if !errors.Is(err, ucErrors.ErrMeetingClosed) || ucErrors.Classify(err) != ucErrors.KindPreconditionFailed {
		t.Fatalf("expected ErrMeetingClosed, got %v", err)
	}

	f.clock.Advance(time.Hour)
	again, err := f.svc.UpdateStatus(ctx, m.ID, entities.MeetingStatusClosed)
	if err != nil {
		t.Fatal(err)
	}
	if !again.EndTime.Equal(end) {
		t.Fatal("re-closing must keep the original end time")
	}
	if len(f.archiver.snapshots) != 1 {
		t.Fatal("re-closing must not archive again")
	}
}

func TestUpdateStatusRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.svc.Create(ctx)

	if _, err := f.svc.UpdateStatus(ctx, m.ID, entities.MeetingStatus("paused")); !errors.Is(err, ucErrors.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, uuid.New(), entities.MeetingStatusStarted); !errors.Is(err, ucErrors.ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}
}

func TestArchiveFailureDoesNotFailClose(t *testing.T) {
	f := newFixture(t)
	f.archiver.err = errors.New("bucket unavailable")
	ctx := context.Background()
	m, _ := f.svc.Create(ctx)

	if _, err := f.svc.UpdateStatus(ctx, m.ID, entities.MeetingStatusClosed); err != nil {
		t.Fatalf("close must succeed when archiving fails, got %v", err)
	}
}

func TestSummaryAndEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.svc.Create(ctx)

	s, err := f.svc.Summary(ctx, m.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != m.ID || s.TotalAttendees != 0 || s.Attendees != nil {
		t.Fatalf("unexpected summary %+v", s)
	}
	if _, err := f.svc.Summary(ctx, uuid.New(), false); !errors.Is(err, ucErrors.ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}

	for i := 0; i < 3; i++ {
		err := f.store.Events().Append(ctx, &entities.MeetingEvent{
			ID:        uuid.New(),
			MeetingID: m.ID,
			Kind:      entities.EventMeetingStatusUpdated,
			CreatedAt: f.clock.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	events, err := f.svc.ListEvents(ctx, m.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(events))
	}
	if _, err := f.svc.ListEvents(ctx, uuid.New(), 0); !errors.Is(err, ucErrors.ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}
}
