package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	"github.com/riskibarqy/matchmaker/internal/domain/club"
	"github.com/riskibarqy/matchmaker/internal/domain/player"
	"github.com/riskibarqy/matchmaker/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchmaker/internal/platform/id"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"github.com/riskibarqy/matchmaker/internal/usecase"
	"github.com/stretchr/testify/require"
)

const testGroup = "g-1"

type testEnvelope[T any] struct {
	APIVersion string           `json:"apiVersion"`
	Data       T                `json:"data"`
	Error      *googleErrorBody `json:"error"`
}

type apiFixture struct {
	router http.Handler
	avail  *memory.AvailabilityRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	var players []player.Player
	for _, userID := range []string{"a", "b", "c", "d", "e"} {
		players = append(players, player.Player{
			ID:              userID,
			GroupID:         testGroup,
			Level:           3,
			ZoneID:          "z1",
			AcceptedClubIDs: []string{"c1"},
		})
	}
	players[4].AcceptedClubIDs = []string{"c2"}

	playerRepo := memory.NewPlayerRepository(players)
	clubRepo := memory.NewClubRepository([]club.Club{{ID: "c1", ZoneID: "z1"}, {ID: "c2", ZoneID: "z1"}})
	availRepo := memory.NewAvailabilityRepository(nil)
	slotRepo := memory.NewTimeSlotRepository()
	sessionRepo := memory.NewSessionRepository()
	rsvpRepo := memory.NewRsvpRepository()

	modes := usecase.NewModeController()
	windows := usecase.NewConfirmationWindows(time.Hour, modes)

	sessionService := usecase.NewSessionService(
		playerRepo, availRepo, slotRepo, sessionRepo, rsvpRepo,
		&id.SequenceGenerator{Prefix: "id-"},
		windows, modes, nil, logging.NewNop(),
		usecase.SessionServiceConfig{Location: time.UTC},
	)
	rsvpService := usecase.NewRsvpService(slotRepo, sessionRepo, rsvpRepo, modes, logging.NewNop(), time.UTC)
	proposalService := usecase.NewProposalService(playerRepo, clubRepo, availRepo, slotRepo, sessionRepo, rsvpRepo, time.UTC)

	handler := NewHandler(proposalService, sessionService, rsvpService, nil, time.UTC, logging.NewNop())
	return &apiFixture{
		router: NewRouter(handler, logging.NewNop(), []string{"*"}),
		avail:  availRepo,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var out testEnvelope[T]
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const createFlashBody = `{
	"group_id": "g-1",
	"creator_id": "a",
	"start_at": "2030-03-11T18:00:00Z",
	"end_at": "2030-03-11T19:30:00Z",
	"player_ids": ["b", "c", "d"],
	"mode": "flash"
}`

func TestHandler_Healthz(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope[map[string]string](t, rec)
	require.Equal(t, "ok", body.Data["status"])
}

func TestHandler_CreateSessionAndRespond(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/sessions", createFlashBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeEnvelope[createSessionDTO](t, rec)
	require.Equal(t, "pending", created.Data.Session.Status)
	require.Equal(t, "a", created.Data.Session.CreatorID)
	require.Equal(t, 0, created.Data.TimeSlot.Seq)
	require.Empty(t, created.Data.Dropped)
	require.NotEmpty(t, created.Data.ConfirmBy)

	sessionID := created.Data.Session.ID
	rec = f.do(t, http.MethodPut, "/v1/sessions/"+sessionID+"/rsvp", `{"player_id":"b","action":"accept"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	responded := decodeEnvelope[respondDTO](t, rec)
	require.Equal(t, "accepted", responded.Data.Rsvp.Status)
	require.False(t, responded.Data.NeedsReplacement)
	require.False(t, responded.Data.Promoted, "two accepted do not fill the session")

	rec = f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHandler_CreateSessionRejectsBadPayload(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown field", body: `{"group_id":"g-1","surprise":true}`},
		{name: "unknown mode", body: `{"group_id":"g-1","creator_id":"a","start_at":"2030-03-11T18:00:00Z","end_at":"2030-03-11T19:00:00Z","player_ids":["b","c","d"],"mode":"later"}`},
		{name: "end before start", body: `{"group_id":"g-1","creator_id":"a","start_at":"2030-03-11T18:00:00Z","end_at":"2030-03-11T17:00:00Z","player_ids":["b","c","d"],"mode":"flash"}`},
		{name: "too few players", body: `{"group_id":"g-1","creator_id":"a","start_at":"2030-03-11T18:00:00Z","end_at":"2030-03-11T19:00:00Z","player_ids":["b"],"mode":"flash"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/v1/sessions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandler_CreateSessionClubMismatch(t *testing.T) {
	f := newAPIFixture(t)

	body := `{"group_id":"g-1","creator_id":"a","start_at":"2030-03-11T18:00:00Z","end_at":"2030-03-11T19:00:00Z","player_ids":["b","c","e"],"mode":"filtered","club_id":"c1"}`
	rec := f.do(t, http.MethodPost, "/v1/sessions", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	env := decodeEnvelope[any](t, rec)
	require.NotNil(t, env.Error)
	require.Equal(t, "FAILED_PRECONDITION", env.Error.Status)
	require.Len(t, env.Error.Errors, 2)
	require.Equal(t, "clubNotAccepted", env.Error.Errors[1].Reason)
	require.Equal(t, "e", env.Error.Errors[1].Message)
}

func TestHandler_InvalidTransitionIsConflict(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/sessions", createFlashBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sessionID := decodeEnvelope[createSessionDTO](t, rec).Data.Session.ID

	rec = f.do(t, http.MethodPut, "/v1/sessions/"+sessionID+"/rsvp", `{"player_id":"b","action":"decline"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPut, "/v1/sessions/"+sessionID+"/rsvp", `{"player_id":"b","action":"cancel"}`)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestHandler_UndoThenSessionIsGone(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/sessions", createFlashBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sessionID := decodeEnvelope[createSessionDTO](t, rec).Data.Session.ID

	rec = f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/undo", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/v1/sessions/"+sessionID, "")
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestHandler_ReserveCourtAndReplace(t *testing.T) {
	f := newAPIFixture(t)

	body := `{"group_id":"g-1","creator_id":"a","start_at":"2030-03-11T18:00:00Z","end_at":"2030-03-11T19:00:00Z","player_ids":["b","c","d"],"mode":"filtered"}`
	rec := f.do(t, http.MethodPost, "/v1/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sessionID := decodeEnvelope[createSessionDTO](t, rec).Data.Session.ID

	rec = f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/court", `{"player_id":"b","club_id":"c1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reserved := decodeEnvelope[sessionDTO](t, rec)
	require.True(t, reserved.Data.CourtReserved)
	require.Equal(t, "b", reserved.Data.CourtReservedBy)
	require.Equal(t, "c1", reserved.Data.ClubID)

	rec = f.do(t, http.MethodPost, "/v1/sessions/"+sessionID+"/replace", `{"outgoing_id":"d","incoming_id":"e"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	replaced := decodeEnvelope[rsvpDTO](t, rec)
	require.Equal(t, "e", replaced.Data.UserID)
	require.Equal(t, "accepted", replaced.Data.Status)
}

func TestHandler_ListProposals(t *testing.T) {
	f := newAPIFixture(t)

	var intervals []availability.Interval
	for _, userID := range []string{"a", "b", "c", "d"} {
		intervals = append(intervals, availability.Interval{
			GroupID: testGroup,
			UserID:  userID,
			Start:   time.Date(2030, 3, 12, 18, 0, 0, 0, time.UTC),
			End:     time.Date(2030, 3, 12, 20, 0, 0, 0, time.UTC),
			Status:  availability.StatusAvailable,
		})
	}
	require.NoError(t, f.avail.Add(context.Background(), intervals...))

	rec := f.do(t, http.MethodGet, "/v1/groups/g-1/proposals?requester_id=a&week_start=2030-03-11", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeEnvelope[proposalsDTO](t, rec)
	ready := append(body.Data.ReadyShort, body.Data.ReadyLong...)
	require.NotEmpty(t, ready)
	for _, slot := range ready {
		require.Contains(t, slot.PlayerIDs, "a")
		require.Equal(t, "virtual", slot.RefKind)
	}
}

func TestHandler_ListProposalsRejectsBadQuery(t *testing.T) {
	f := newAPIFixture(t)

	paths := []string{
		"/v1/groups/g-1/proposals?week_start=2030-03-11",
		"/v1/groups/g-1/proposals?requester_id=a&week_start=11-03-2030",
		"/v1/groups/g-1/proposals?requester_id=a&levels=x",
		"/v1/groups/g-1/proposals?requester_id=a&lat=1&lon=2",
	}
	for _, path := range paths {
		rec := f.do(t, http.MethodGet, path, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %s, got %d", path, rec.Code)
		}
	}
}

func TestHandler_ListProposalsUnknownRequester(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/groups/g-1/proposals?requester_id=zz&week_start=2030-03-11", "")
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

type stubLiveViews struct {
	reconciler *usecase.Reconciler
	err        error
	got        usecase.ProposalQuery
}

func (s *stubLiveViews) Watch(_ context.Context, query usecase.ProposalQuery) (*usecase.Reconciler, error) {
	s.got = query
	return s.reconciler, s.err
}

func TestHandler_LiveProposals(t *testing.T) {
	fetchedAt := time.Date(2030, 3, 11, 9, 0, 0, 0, time.UTC)
	calls := 0
	reconciler := usecase.NewReconciler(func(context.Context) (usecase.View, error) {
		calls++
		if calls > 1 {
			return usecase.View{}, usecase.ErrNotFound
		}
		return usecase.View{FetchedAt: fetchedAt}, nil
	}, nil, logging.NewNop(), usecase.ReconcilerConfig{})
	t.Cleanup(reconciler.Close)

	live := &stubLiveViews{reconciler: reconciler}
	router := NewRouter(NewHandler(nil, nil, nil, live, time.UTC, logging.NewNop()), logging.NewNop(), nil)
	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/groups/g-1/proposals/live?requester_id=a&week_start=2030-03-11", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	reconciler.Refresh(context.Background())
	rec := get()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fresh := decodeEnvelope[liveProposalsDTO](t, rec)
	require.False(t, fresh.Data.Stale)
	require.Equal(t, "2030-03-11T09:00:00Z", fresh.Data.FetchedAt)
	require.Equal(t, "g-1", live.got.GroupID)
	require.Equal(t, "a", live.got.RequesterID)

	reconciler.Refresh(context.Background())
	stale := decodeEnvelope[liveProposalsDTO](t, get())
	require.True(t, stale.Data.Stale)
	require.NotEmpty(t, stale.Data.StaleReason)
	require.Equal(t, "2030-03-11T09:00:00Z", stale.Data.FetchedAt)
}

func TestHandler_LiveProposalsDisabled(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/groups/g-1/proposals/live?requester_id=a", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
}

func TestHandler_LiveProposalsWatchError(t *testing.T) {
	live := &stubLiveViews{err: usecase.ErrNotFound}
	router := NewRouter(NewHandler(nil, nil, nil, live, time.UTC, logging.NewNop()), logging.NewNop(), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/groups/g-1/proposals/live?requester_id=zz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}
