package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	"github.com/riskibarqy/matchmaker/internal/domain/club"
	"github.com/riskibarqy/matchmaker/internal/domain/notification"
	"github.com/riskibarqy/matchmaker/internal/domain/player"
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchmaker/internal/platform/id"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

const testGroup = "group-1"

var testDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func window(sh, sm, eh, em int) timerange.Range {
	return timerange.Range{Start: at(sh, sm), End: at(eh, em)}
}

func testPlayers(ids ...string) []player.Player {
	out := make([]player.Player, 0, len(ids))
	for _, userID := range ids {
		out = append(out, player.Player{
			ID:              userID,
			GroupID:         testGroup,
			Level:           4,
			ZoneID:          "z1",
			AcceptedClubIDs: []string{"c1", "c2"},
		})
	}
	return out
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []notification.Job
}

func (p *recordingPublisher) Enqueue(_ context.Context, job notification.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *recordingPublisher) Jobs() []notification.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notification.Job(nil), p.jobs...)
}

type engineFixture struct {
	players    *memory.PlayerRepository
	clubs      *memory.ClubRepository
	avail      *memory.AvailabilityRepository
	slots      *memory.TimeSlotRepository
	sessions   *memory.SessionRepository
	rsvps      *memory.RsvpRepository
	modes      *ModeController
	windows    *ConfirmationWindows
	publisher  *recordingPublisher
	notifier   *Notifier
	sessionSvc *SessionService
	rsvpSvc    *RsvpService
	proposals  *ProposalService
}

func newEngineFixture(t *testing.T, confirmWindow time.Duration, players []player.Player) *engineFixture {
	t.Helper()

	f := &engineFixture{
		players:   memory.NewPlayerRepository(players),
		clubs:     memory.NewClubRepository([]club.Club{{ID: "c1", ZoneID: "z1"}, {ID: "c2", ZoneID: "z1"}}),
		avail:     memory.NewAvailabilityRepository(nil),
		slots:     memory.NewTimeSlotRepository(),
		sessions:  memory.NewSessionRepository(),
		rsvps:     memory.NewRsvpRepository(),
		modes:     NewModeController(),
		publisher: &recordingPublisher{},
	}
	f.windows = NewConfirmationWindows(confirmWindow, f.modes)

	notifier, err := NewNotifier(f.publisher, 2, logging.NewNop())
	if err != nil {
		t.Fatalf("create notifier: %v", err)
	}
	t.Cleanup(notifier.Close)
	f.notifier = notifier

	f.sessionSvc = NewSessionService(
		f.players, f.avail, f.slots, f.sessions, f.rsvps,
		&id.SequenceGenerator{Prefix: "id-"},
		f.windows, f.modes, f.notifier, logging.NewNop(),
		SessionServiceConfig{Location: time.UTC},
	)
	f.rsvpSvc = NewRsvpService(f.slots, f.sessions, f.rsvps, f.modes, logging.NewNop(), time.UTC)
	f.proposals = NewProposalService(f.players, f.clubs, f.avail, f.slots, f.sessions, f.rsvps, time.UTC)
	f.proposals.now = func() time.Time { return testDay }
	return f
}

// seedSession writes a slot, a session and its rows directly to the stores.
func (f *engineFixture) seedSession(t *testing.T, sessionID string, status session.Status, w timerange.Range, seq int, rows map[string]rsvp.Status) {
	t.Helper()
	ctx := context.Background()

	slot, err := f.slots.Create(ctx, timeslot.TimeSlot{ID: "ts-" + sessionID, GroupID: testGroup, Start: w.Start, End: w.End, Seq: seq})
	if err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	creator := ""
	for userID, st := range rows {
		if st == rsvp.StatusAccepted && (creator == "" || userID < creator) {
			creator = userID
		}
	}
	if _, err := f.sessions.Create(ctx, session.Session{ID: sessionID, GroupID: testGroup, TimeSlotID: slot.ID, Status: status, CreatorID: creator}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	for userID, st := range rows {
		if err := f.rsvps.Upsert(ctx, rsvp.Rsvp{SessionID: sessionID, UserID: userID, Status: st}); err != nil {
			t.Fatalf("seed rsvp: %v", err)
		}
	}
}

func (f *engineFixture) rowsOf(t *testing.T, sessionID string) map[string]rsvp.Status {
	t.Helper()
	rows, err := f.rsvps.ListBySessions(context.Background(), []string{sessionID})
	if err != nil {
		t.Fatalf("list rsvps: %v", err)
	}
	out := make(map[string]rsvp.Status, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.Status
	}
	return out
}

func available(userID string, w timerange.Range) availability.Interval {
	return availability.Interval{GroupID: testGroup, UserID: userID, Start: w.Start, End: w.End, Status: availability.StatusAvailable}
}
