package voting

import (
	"context"
	"errors"
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
)

type fixture struct {
	store   *memory.Store
	events  *notificationtest.Recorder
	svc     *Service
	meeting *entities.Meeting
}

func newFixture(t *testing.T, status entities.MeetingStatus) *fixture {
	t.Helper()
	store := memory.NewStore()
	rec := &notificationtest.Recorder{}
	log := zaptest.NewLogger(t)
	pub := notification.NewPublisher(rec, summary.NewService(store.Meetings(), store.Attendees()), 5*time.Minute, log)

	m := &entities.Meeting{ID: uuid.New(), Code: "VOTE01", Status: status, StartTime: time.Now().UTC()}
	if err := store.Meetings().Create(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		store:   store,
		events:  rec,
		svc:     NewService(store.Meetings(), store.Attendees(), pub, log),
		meeting: m,
	}
}

func (f *fixture) attendee(t *testing.T, seat int, registered bool) *entities.Attendee {
	t.Helper()
	a := &entities.Attendee{
		ID:           uuid.New(),
		MeetingID:    f.meeting.ID,
		Name:         "voter",
		SeatNumber:   seat,
		IsRegistered: registered,
		FloorState:   entities.FloorStateIdle,
	}
	if err := f.store.Attendees().Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a
}

func (f *fixture) setStatus(t *testing.T, status entities.MeetingStatus) {
	t.Helper()
	_, err := f.store.Meetings().Update(context.Background(), f.meeting.ID, func(m *entities.Meeting) error {
		return m.TransitionTo(status, time.Now().UTC())
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestFirstRoundScenario(t *testing.T) {
	f := newFixture(t, entities.MeetingStatusFirstVoting)
	ctx := context.Background()
	x := f.attendee(t, 1, true)

	_, err := f.svc.CastVote(ctx, x.ID, entities.VoteYes)
	if !errors.Is(err, entities.ErrNotReadyForFirstVote) || ucErrors.Classify(err) != ucErrors.KindPreconditionFailed {
		t.Fatalf("expected not-ready precondition failure, got %v", err)
	}

	if _, err := f.svc.ConfirmReady(ctx, x.ID, entities.VoteRoundFirst); err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.CastVote(ctx, x.ID, entities.VoteYes)
	if err != nil {
		t.Fatal(err)
	}
	if got.Vote == nil || *got.Vote != entities.VoteYes {
		t.Fatalf("expected yes, got %v", got.Vote)
	}

	_, err = f.svc.CastVote(ctx, x.ID, entities.VoteNo)
	if !errors.Is(err, entities.ErrAlreadyVotedFirst) || ucErrors.Classify(err) != ucErrors.KindPreconditionFailed {
		t.Fatalf("expected already-voted precondition failure, got %v", err)
	}
	stored, _ := f.store.Attendees().FindByID(ctx, x.ID)
	if *stored.Vote != entities.VoteYes || stored.SecondVote != nil {
		t.Fatal("first vote must not change")
	}
}

func TestSecondRoundUsesItsOwnFlags(t *testing.T) {
	f := newFixture(t, entities.MeetingStatusFirstVoting)
	ctx := context.Background()
	x := f.attendee(t, 1, true)

	if _, err := f.svc.ConfirmReady(ctx, x.ID, entities.VoteRoundFirst); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CastVote(ctx, x.ID, entities.VoteNo); err != nil {
		t.Fatal(err)
	}

	f.setStatus(t, entities.MeetingStatusSecondVoting)
	if _, err := f.svc.CastVote(ctx, x.ID, entities.VoteYes); !errors.Is(err, entities.ErrNotReadyForSecondVote) {
		t.Fatalf("expected ErrNotReadyForSecondVote, got %v", err)
	}
	if _, err := f.svc.ConfirmReady(ctx, x.ID, entities.VoteRoundSecond); err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.CastVote(ctx, x.ID, entities.VoteAbstention)
	if err != nil {
		t.Fatal(err)
	}
	if *got.Vote != entities.VoteNo || *got.SecondVote != entities.VoteAbstention {
		t.Fatalf("unexpected ballots %v %v", *got.Vote, *got.SecondVote)
	}
}

func TestVotingClosedOutsideVotingStatuses(t *testing.T) {
	for _, status := range entities.MeetingStatuses() {
		if _, open := status.VoteRound(); open {
			continue
		}
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, status)
			x := f.attendee(t, 1, true)
			_, err := f.svc.CastVote(context.Background(), x.ID, entities.VoteYes)
			if !errors.Is(err, ucErrors.ErrVotingClosed) {
				t.Fatalf("expected ErrVotingClosed, got %v", err)
			}
		})
	}
}

func TestCastVoteRejectsUnknownInput(t *testing.T) {
	f := newFixture(t, entities.MeetingStatusFirstVoting)
	ctx := context.Background()
	x := f.attendee(t, 1, true)

	if _, err := f.svc.CastVote(ctx, x.ID, entities.VoteOption("maybe")); !errors.Is(err, entities.ErrInvalidVoteOption) {
		t.Fatalf("expected ErrInvalidVoteOption, got %v", err)
	}
	if _, err := f.svc.CastVote(ctx, uuid.New(), entities.VoteYes); !errors.Is(err, ucErrors.ErrAttendeeNotFound) {
		t.Fatalf("expected ErrAttendeeNotFound, got %v", err)
	}
}

func TestConfirmReady(t *testing.T) {
	f := newFixture(t, entities.MeetingStatusFirstVoting)
	ctx := context.Background()

	unregistered := f.attendee(t, 1, false)
	if _, err := f.svc.ConfirmReady(ctx, unregistered.ID, entities.VoteRoundFirst); !errors.Is(err, ucErrors.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if _, err := f.svc.ConfirmReady(ctx, unregistered.ID, entities.VoteRound("Third")); !errors.Is(err, ucErrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	x := f.attendee(t, 2, true)
	got, err := f.svc.ConfirmReady(ctx, x.ID, entities.VoteRoundFirst)
	if err != nil {
		t.Fatal(err)
	}
	if !got.ReadyForFirstVote || got.ReadyForSecondVote {
		t.Fatalf("unexpected flags %+v", got)
	}
	if f.events.Count(entities.EventAttendeeReadyForVote) != 1 {
		t.Fatalf("expected one ready event, got %v", f.events.Kinds())
	}
	ready := f.events.Events()[0].Payload.(notification.AttendeeReadyForVote)
	if ready.VoteRound != entities.VoteRoundFirst || !ready.Ready {
		t.Fatalf("unexpected payload %+v", ready)
	}

	if _, err := f.svc.CastVote(ctx, x.ID, entities.VoteBlank); err != nil {
		t.Fatal(err)
	}
	f.events.Reset()
	if _, err := f.svc.ConfirmReady(ctx, x.ID, entities.VoteRoundFirst); err != nil {
		t.Fatalf("re-confirming after a vote must succeed, got %v", err)
	}
	if len(f.events.Events()) != 0 {
		t.Fatal("re-confirming must not notify")
	}
}
