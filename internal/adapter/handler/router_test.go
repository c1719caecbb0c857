package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/johnquangdev/assembly-floor/errors"
	"github.com/johnquangdev/assembly-floor/internal/adapter/repository/memory"
	"github.com/johnquangdev/assembly-floor/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/assembly-floor/internal/usecase/attendee"
	"github.com/johnquangdev/assembly-floor/internal/usecase/floor"
	"github.com/johnquangdev/assembly-floor/internal/usecase/meeting"
	"github.com/johnquangdev/assembly-floor/internal/usecase/notification"
	"github.com/johnquangdev/assembly-floor/internal/usecase/summary"
	"github.com/johnquangdev/assembly-floor/internal/usecase/voting"
	"github.com/johnquangdev/assembly-floor/pkg/clock"
	"github.com/johnquangdev/assembly-floor/pkg/config"
	"github.com/johnquangdev/assembly-floor/pkg/jwt"
	pkgMiddleware "github.com/johnquangdev/assembly-floor/pkg/middleware"
	"github.com/johnquangdev/assembly-floor/pkg/validator"
)

type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

type apiServer struct {
	t     *testing.T
	e     *echo.Echo
	admin string
	clock *clock.Fake
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := memory.NewStore()
	clk := clock.NewFake(time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC))
	floorCfg := floor.DefaultConfig()

	summaries := summary.NewService(store.Meetings(), store.Attendees())
	pub := notification.NewPublisher(nil, summaries, floorCfg.SpeakingLimit, log)

	meetings := meeting.NewService(store.Meetings(), store.Attendees(), store.Events(), nil, clk, pub, log)
	attendees := attendee.NewService(store.Meetings(), store.Attendees(), clk, pub, log)
	floorService := floor.NewService(store.Meetings(), store.Attendees(), clk, floorCfg, pub, log)
	votes := voting.NewService(store.Meetings(), store.Attendees(), pub, log)

	tokens := jwt.NewManager("test-secret", time.Hour, "")
	adminToken, err := tokens.GenerateAdminToken("chair")
	if err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	e.Validator = validator.New()
	router := NewRouter(
		&config.Config{Server: config.ServerConfig{Environment: "test"}},
		log,
		NewMeetingHandler(meetings, floorService, nil, nil, log),
		NewAttendeeHandler(attendees, floorService, votes, log),
		middleware.NewAuthMiddleware(tokens),
		middleware.NewMeetingAccess(meetings, attendees, nil, 0),
		pkgMiddleware.NewIPRateLimiter(100, 100),
	)
	router.Setup(e)

	return &apiServer{t: t, e: e, admin: adminToken, clock: clk}
}

func (s *apiServer) do(method, path, body string, headers map[string]string) (int, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		s.t.Fatalf("%s %s: undecodable body %q", method, path, rec.Body.String())
	}
	return rec.Code, env
}

func (s *apiServer) asAdmin() map[string]string {
	return map[string]string{echo.HeaderAuthorization: "Bearer " + s.admin}
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return v
}

type meetingBody struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Status string `json:"status"`
}

type attendeeBody struct {
	ID           string  `json:"id"`
	FloorState   string  `json:"floor_state"`
	IsRegistered bool    `json:"is_registered"`
	IsSpeaking   bool    `json:"is_speaking"`
	Vote         *string `json:"vote"`
}

func (s *apiServer) createMeeting(status string) meetingBody {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/v1/meetings", "", s.asAdmin())
	if code != http.StatusCreated {
		s.t.Fatalf("create meeting: %d %+v", code, env)
	}
	m := decode[meetingBody](s.t, env)
	if status != "" {
		code, env = s.do(http.MethodPut, "/v1/meetings/"+m.ID+"/status", `{"status":"`+status+`"}`, s.asAdmin())
		if code != http.StatusOK {
			s.t.Fatalf("update status: %d %+v", code, env)
		}
		m = decode[meetingBody](s.t, env)
	}
	return m
}

func (s *apiServer) register(m meetingBody, seat string) attendeeBody {
	s.t.Helper()
	body := `{"name":"Ana","seat_number":` + seat + `,"meeting_id":"` + m.ID + `","meeting_code":"` + m.Code + `"}`
	code, env := s.do(http.MethodPost, "/v1/attendees", body, nil)
	if code != http.StatusCreated {
		s.t.Fatalf("register: %d %+v", code, env)
	}
	return decode[attendeeBody](s.t, env)
}

func member(m meetingBody) map[string]string {
	return map[string]string{
		middleware.HeaderMeetingID:   m.ID,
		middleware.HeaderMeetingCode: m.Code,
	}
}

func TestHealth(t *testing.T) {
	s := newAPIServer(t)
	code, env := s.do(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || env.Code != int(errors.ErrorCode_HTTP_OK) {
		t.Fatalf("health: %d %+v", code, env)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newAPIServer(t)

	code, env := s.do(http.MethodPost, "/v1/meetings", "", nil)
	if code != http.StatusUnauthorized || env.Code != int(errors.ErrorCode_UNAUTHENTICATED) {
		t.Fatalf("expected 401, got %d %+v", code, env)
	}

	code, _ = s.do(http.MethodPost, "/v1/meetings", "", map[string]string{echo.HeaderAuthorization: "Bearer garbage"})
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", code)
	}
}

func TestMeetingStatusLifecycle(t *testing.T) {
	s := newAPIServer(t)
	m := s.createMeeting("")
	if m.Status != "created" || len(m.Code) != 6 {
		t.Fatalf("unexpected meeting %+v", m)
	}

	code, env := s.do(http.MethodPut, "/v1/meetings/"+m.ID+"/status", `{"status":"paused"}`, s.asAdmin())
	if code != http.StatusBadRequest || env.Code != int(errors.ErrorCode_MEETING_INVALID_STATUS) {
		t.Fatalf("expected invalid status, got %d %+v", code, env)
	}

	s.clock.Advance(time.Second)
	closed := s.createMeeting("closed")
	code, env = s.do(http.MethodPut, "/v1/meetings/"+closed.ID+"/status", `{"status":"started"}`, s.asAdmin())
	if code != http.StatusUnprocessableEntity || env.Code != int(errors.ErrorCode_MEETING_CLOSED) {
		t.Fatalf("expected closed meeting, got %d %+v", code, env)
	}

	code, env = s.do(http.MethodGet, "/v1/meetings/last", "", s.asAdmin())
	if code != http.StatusOK || decode[meetingBody](t, env).ID != closed.ID {
		t.Fatalf("last meeting: %d %+v", code, env)
	}
}

func TestRegistration(t *testing.T) {
	s := newAPIServer(t)
	m := s.createMeeting("registration")
	a := s.register(m, "4")
	if a.IsRegistered {
		t.Fatal("new attendees start unmarked")
	}

	dup := `{"name":"Bo","seat_number":4,"meeting_id":"` + m.ID + `","meeting_code":"` + m.Code + `"}`
	code, env := s.do(http.MethodPost, "/v1/attendees", dup, nil)
	if code != http.StatusConflict || env.Code != int(errors.ErrorCode_ATTENDEE_SEAT_TAKEN) {
		t.Fatalf("expected seat taken, got %d %+v", code, env)
	}

	wrong := `{"name":"Bo","seat_number":5,"meeting_id":"` + m.ID + `","meeting_code":"XXXXXX"}`
	code, env = s.do(http.MethodPost, "/v1/attendees", wrong, nil)
	if code != http.StatusUnauthorized || env.Code != int(errors.ErrorCode_MEETING_INVALID_CODE) {
		t.Fatalf("expected invalid code, got %d %+v", code, env)
	}

	code, _ = s.do(http.MethodPost, "/v1/attendees", `{"name":"","seat_number":0}`, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected validation failure, got %d", code)
	}
}

func TestFloorFlow(t *testing.T) {
	s := newAPIServer(t)
	m := s.createMeeting("opening_interventions")
	a := s.register(m, "1")
	creds := member(m)

	code, env := s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/request-speak", "", creds)
	if code != http.StatusUnprocessableEntity || env.Code != int(errors.ErrorCode_ATTENDEE_NOT_REGISTERED) {
		t.Fatalf("expected not registered, got %d %+v", code, env)
	}

	for _, step := range []string{"attendance", "request-speak"} {
		if code, env := s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/"+step, "", creds); code != http.StatusOK {
			t.Fatalf("%s: %d %+v", step, code, env)
		}
	}

	code, env = s.do(http.MethodGet, "/v1/meetings/"+m.ID+"/pending-interventions", "", creds)
	if code != http.StatusOK {
		t.Fatalf("pending: %d %+v", code, env)
	}
	if list := decode[struct{ Total int }](t, env); list.Total != 1 {
		t.Fatalf("expected one queued attendee, got %d", list.Total)
	}

	code, _ = s.do(http.MethodPost, "/v1/meetings/"+m.ID+"/next-intervention", "", creds)
	if code != http.StatusUnauthorized {
		t.Fatalf("attendees cannot advance the queue, got %d", code)
	}
	code, env = s.do(http.MethodPost, "/v1/meetings/"+m.ID+"/next-intervention", "", s.asAdmin())
	if code != http.StatusOK || decode[attendeeBody](t, env).FloorState != "offered" {
		t.Fatalf("next: %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/accept-intervention", "", creds)
	if code != http.StatusOK || !decode[attendeeBody](t, env).IsSpeaking {
		t.Fatalf("accept: %d %+v", code, env)
	}

	code, env = s.do(http.MethodGet, "/v1/meetings/"+m.ID+"/current-speaker", "", creds)
	if code != http.StatusOK || decode[attendeeBody](t, env).ID != a.ID {
		t.Fatalf("current speaker: %d %+v", code, env)
	}

	s.clock.Advance(5*time.Minute + time.Second)
	code, env = s.do(http.MethodPost, "/v1/meetings/"+m.ID+"/process-expirations", "", s.asAdmin())
	if code != http.StatusOK {
		t.Fatalf("expirations: %d %+v", code, env)
	}
	result := decode[struct {
		Changed        bool          `json:"changed"`
		ExpiredSpeaker *attendeeBody `json:"expired_speaker"`
	}](t, env)
	if !result.Changed || result.ExpiredSpeaker == nil || result.ExpiredSpeaker.ID != a.ID {
		t.Fatalf("expected the speaker to expire, got %+v", result)
	}

	code, env = s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/end-intervention", "", creds)
	if code != http.StatusUnprocessableEntity || env.Code != int(errors.ErrorCode_FLOOR_NOT_SPEAKING) {
		t.Fatalf("expected not speaking, got %d %+v", code, env)
	}
}

func TestAttendeeAccessIsScopedToMeeting(t *testing.T) {
	s := newAPIServer(t)
	m1 := s.createMeeting("registration")
	m2 := s.createMeeting("registration")
	a := s.register(m1, "1")

	code, env := s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/attendance", "", member(m2))
	if code != http.StatusForbidden || env.Code != int(errors.ErrorCode_PERMISSION_DENIED) {
		t.Fatalf("expected forbidden, got %d %+v", code, env)
	}

	code, _ = s.do(http.MethodGet, "/v1/meetings/"+m1.ID, "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", code)
	}
	code, _ = s.do(http.MethodGet, "/v1/meetings/"+m1.ID, "", s.asAdmin())
	if code != http.StatusOK {
		t.Fatalf("admin read failed: %d", code)
	}
}

func TestVotingFlow(t *testing.T) {
	s := newAPIServer(t)
	m := s.createMeeting("registration")
	a := s.register(m, "2")
	creds := member(m)

	if code, env := s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/attendance", "", creds); code != http.StatusOK {
		t.Fatalf("attendance: %d %+v", code, env)
	}

	code, env := s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/vote", `{"option":"yes"}`, creds)
	if code != http.StatusUnprocessableEntity || env.Code != int(errors.ErrorCode_VOTE_CLOSED) {
		t.Fatalf("expected voting closed, got %d %+v", code, env)
	}

	if code, env := s.do(http.MethodPut, "/v1/meetings/"+m.ID+"/status", `{"status":"first_voting"}`, s.asAdmin()); code != http.StatusOK {
		t.Fatalf("status: %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/vote", `{"option":"yes"}`, creds)
	if code != http.StatusUnprocessableEntity || env.Code != int(errors.ErrorCode_VOTE_NOT_READY) {
		t.Fatalf("expected not ready, got %d %+v", code, env)
	}

	if code, env := s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/confirm-first-vote", "", creds); code != http.StatusOK {
		t.Fatalf("confirm: %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/vote", `{"option":"maybe"}`, creds)
	if code != http.StatusBadRequest || env.Code != int(errors.ErrorCode_VOTE_INVALID_OPTION) {
		t.Fatalf("expected invalid option, got %d %+v", code, env)
	}

	code, env = s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/vote", `{"option":"abstention"}`, creds)
	if code != http.StatusOK {
		t.Fatalf("vote: %d %+v", code, env)
	}
	if v := decode[attendeeBody](t, env).Vote; v == nil || *v != "abstention" {
		t.Fatalf("vote not recorded: %+v", v)
	}

	code, env = s.do(http.MethodPost, "/v1/attendees/"+a.ID+"/vote", `{"option":"no"}`, creds)
	if code != http.StatusConflict || env.Code != int(errors.ErrorCode_VOTE_ALREADY_CAST) {
		t.Fatalf("expected already voted, got %d %+v", code, env)
	}

	code, env = s.do(http.MethodGet, "/v1/meetings/"+m.ID+"/summary", "", creds)
	if code != http.StatusOK {
		t.Fatalf("summary: %d %+v", code, env)
	}
	sum := decode[struct {
		FirstRound struct {
			Abstention int `json:"abstention"`
		} `json:"first_round"`
	}](t, env)
	if sum.FirstRound.Abstention != 1 {
		t.Fatalf("tally not updated: %+v", sum)
	}

	code, env = s.do(http.MethodGet, "/v1/meetings/"+m.ID+"/events", "", s.asAdmin())
	if code != http.StatusOK {
		t.Fatalf("events: %d %+v", code, env)
	}
}

func TestSnapshotWithoutStorage(t *testing.T) {
	s := newAPIServer(t)
	m := s.createMeeting("closed")
	code, env := s.do(http.MethodGet, "/v1/meetings/"+m.ID+"/snapshot", "", s.asAdmin())
	if code != http.StatusServiceUnavailable || env.Code != int(errors.ErrorCode_SERVICE_UNAVAILABLE) {
		t.Fatalf("expected 503, got %d %+v", code, env)
	}
}
