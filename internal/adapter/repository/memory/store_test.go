package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedMeeting(t *testing.T, s *Store, code string) *entities.Meeting {
	t.Helper()
	m := &entities.Meeting{ID: uuid.New(), Code: code, Status: entities.MeetingStatusStarted, StartTime: base}
	if err := s.Meetings().Create(context.Background(), m); err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	return m
}

func seedAttendee(t *testing.T, s *Store, meetingID uuid.UUID, seat int) *entities.Attendee {
	t.Helper()
	a := &entities.Attendee{
		ID:           uuid.New(),
		MeetingID:    meetingID,
		Name:         "seat",
		SeatNumber:   seat,
		IsRegistered: true,
		FloorState:   entities.FloorStateIdle,
		CreatedAt:    base.Add(time.Duration(seat) * time.Second),
	}
	if err := s.Attendees().Create(context.Background(), a); err != nil {
		t.Fatalf("create attendee: %v", err)
	}
	return a
}

func TestSeatUniquePerMeeting(t *testing.T) {
	s := NewStore()
	m1 := seedMeeting(t, s, "AAAAAA")
	m2 := seedMeeting(t, s, "BBBBBB")
	seedAttendee(t, s, m1.ID, 5)

	dup := &entities.Attendee{ID: uuid.New(), MeetingID: m1.ID, SeatNumber: 5, FloorState: entities.FloorStateIdle}
	if err := s.Attendees().Create(context.Background(), dup); !errors.Is(err, repositories.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	seedAttendee(t, s, m2.ID, 5)
}

func TestMeetingCodeUnique(t *testing.T) {
	s := NewStore()
	seedMeeting(t, s, "ABC123")
	m := &entities.Meeting{ID: uuid.New(), Code: "ABC123", StartTime: base}
	if err := s.Meetings().Create(context.Background(), m); !errors.Is(err, repositories.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestFindLatest(t *testing.T) {
	s := NewStore()
	if _, err := s.Meetings().FindLatest(context.Background()); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	seedMeeting(t, s, "OLD000")
	newer := &entities.Meeting{ID: uuid.New(), Code: "NEW000", StartTime: base.Add(time.Hour)}
	if err := s.Meetings().Create(context.Background(), newer); err != nil {
		t.Fatal(err)
	}
	got, err := s.Meetings().FindLatest(context.Background())
	if err != nil || got.ID != newer.ID {
		t.Fatalf("expected newest meeting, got %v %v", got, err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := NewStore()
	m := seedMeeting(t, s, "COPY00")
	a := seedAttendee(t, s, m.ID, 1)

	got, _ := s.Attendees().FindByID(context.Background(), a.ID)
	got.IsRegistered = false
	again, _ := s.Attendees().FindByID(context.Background(), a.ID)
	if !again.IsRegistered {
		t.Fatal("mutating a returned record leaked into the store")
	}
}

func TestReturnedTimestampsAreCopies(t *testing.T) {
	s := NewStore()
	m := seedMeeting(t, s, "COPY01")
	a := seedAttendee(t, s, m.ID, 1)
	ctx := context.Background()

	deadline := base.Add(time.Minute)
	if _, err := s.Attendees().Update(ctx, a.ID, func(x *entities.Attendee) error {
		if _, err := x.RequestToSpeak(base); err != nil {
			return err
		}
		x.Offer(deadline)
		return nil
	}); err != nil {
		t.Fatalf("offer: %v", err)
	}

	got, _ := s.Attendees().FindByID(ctx, a.ID)
	*got.InterventionAcceptDeadline = base.Add(time.Hour)
	*got.RequestedAt = base.Add(time.Hour)

	again, _ := s.Attendees().FindByID(ctx, a.ID)
	if !again.InterventionAcceptDeadline.Equal(deadline) {
		t.Fatalf("deadline leaked into the store: %v", again.InterventionAcceptDeadline)
	}
	if !again.RequestedAt.Equal(base) {
		t.Fatalf("requested_at leaked into the store: %v", again.RequestedAt)
	}
}

func TestUpdateRejectsSecondSpeaker(t *testing.T) {
	s := NewStore()
	m := seedMeeting(t, s, "FLOOR0")
	a := seedAttendee(t, s, m.ID, 1)
	b := seedAttendee(t, s, m.ID, 2)
	ctx := context.Background()

	speak := func(x *entities.Attendee) error {
		x.RequestedToSpeak = true
		return x.Accept(base, false)
	}
	if _, err := s.Attendees().Update(ctx, a.ID, speak); err != nil {
		t.Fatalf("first speaker: %v", err)
	}
	if _, err := s.Attendees().Update(ctx, b.ID, speak); !errors.Is(err, repositories.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	stored, _ := s.Attendees().FindByID(ctx, b.ID)
	if stored.IsSpeaking() {
		t.Fatal("rejected update must not be persisted")
	}
}

func TestUpdatePropagatesCallbackError(t *testing.T) {
	s := NewStore()
	m := seedMeeting(t, s, "ERR000")
	a := seedAttendee(t, s, m.ID, 1)
	boom := errors.New("boom")

	if _, err := s.Attendees().Update(context.Background(), a.ID, func(*entities.Attendee) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if _, err := s.Attendees().Update(context.Background(), uuid.New(), func(*entities.Attendee) error { return nil }); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindPendingOrder(t *testing.T) {
	s := NewStore()
	m := seedMeeting(t, s, "QUEUE0")
	ctx := context.Background()

	first := seedAttendee(t, s, m.ID, 3)
	second := seedAttendee(t, s, m.ID, 1)
	offered := seedAttendee(t, s, m.ID, 2)

	request := func(id uuid.UUID, at time.Time) {
		t.Helper()
		if _, err := s.Attendees().Update(ctx, id, func(a *entities.Attendee) error {
			_, err := a.RequestToSpeak(at)
			return err
		}); err != nil {
			t.Fatal(err)
		}
	}
	request(offered.ID, base)
	request(first.ID, base.Add(time.Second))
	request(second.ID, base.Add(2*time.Second))
	if _, err := s.Attendees().Update(ctx, offered.ID, func(a *entities.Attendee) error {
		a.Offer(base.Add(time.Minute))
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	pending, err := s.Attendees().FindPending(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []uuid.UUID{first.ID, second.ID, offered.ID}
	if len(pending) != len(want) {
		t.Fatalf("expected %d pending, got %d", len(want), len(pending))
	}
	for i, id := range want {
		if pending[i].ID != id {
			t.Fatalf("position %d: expected seat %d, got seat %d", i, seatOf(t, s, id), pending[i].SeatNumber)
		}
	}
}

func seatOf(t *testing.T, s *Store, id uuid.UUID) int {
	a, err := s.Attendees().FindByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return a.SeatNumber
}

func TestEvictExpiredOffers(t *testing.T) {
	s := NewStore()
	m := seedMeeting(t, s, "EVICT0")
	ctx := context.Background()
	a := seedAttendee(t, s, m.ID, 1)
	b := seedAttendee(t, s, m.ID, 2)

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		if _, err := s.Attendees().Update(ctx, id, func(x *entities.Attendee) error {
			x.RequestToSpeak(base)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	s.Attendees().Update(ctx, a.ID, func(x *entities.Attendee) error {
		x.Offer(base.Add(time.Minute))
		return nil
	})

	evicted, err := s.Attendees().EvictExpiredOffers(ctx, m.ID, base.Add(time.Minute))
	if err != nil || len(evicted) != 0 {
		t.Fatalf("nothing should expire at the deadline, got %d %v", len(evicted), err)
	}

	evicted, err = s.Attendees().EvictExpiredOffers(ctx, m.ID, base.Add(61*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if len(evicted) != 1 || evicted[0].ID != a.ID {
		t.Fatalf("expected only the offered attendee evicted, got %v", evicted)
	}
	if evicted[0].RequestedToSpeak || evicted[0].InterventionAcceptDeadline != nil {
		t.Fatal("evicted attendee still queued")
	}
	pending, _ := s.Attendees().FindPending(ctx, m.ID)
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("expected only the never-offered attendee pending, got %v", pending)
	}
}

func TestConcurrentAcceptSingleWinner(t *testing.T) {
	s := NewStore()
	m := seedMeeting(t, s, "RACE00")
	ctx := context.Background()

	ids := make([]uuid.UUID, 8)
	for i := range ids {
		ids[i] = seedAttendee(t, s, m.ID, i+1).ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := s.Attendees().Update(ctx, id, func(a *entities.Attendee) error {
				a.RequestedToSpeak = true
				return a.Accept(base, false)
			})
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one speaker, got %d", winners)
	}
	speakers, _ := s.Attendees().FindSpeakers(ctx, m.ID)
	if len(speakers) != 1 {
		t.Fatalf("expected one stored speaker, got %d", len(speakers))
	}
}

func TestEventsNewestFirst(t *testing.T) {
	s := NewStore()
	m := seedMeeting(t, s, "EVENT0")
	ctx := context.Background()

	for _, kind := range []entities.EventKind{entities.EventInterventionStarted, entities.EventInterventionEnded} {
		if err := s.Events().Append(ctx, &entities.MeetingEvent{ID: uuid.New(), MeetingID: m.ID, Kind: kind}); err != nil {
			t.Fatal(err)
		}
	}
	events, err := s.Events().ListByMeetingID(ctx, m.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Kind != entities.EventInterventionEnded {
		t.Fatalf("expected latest event only, got %v", events)
	}
}
