package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	"github.com/riskibarqy/matchmaker/internal/domain/matching"
	"github.com/riskibarqy/matchmaker/internal/domain/notification"
	"github.com/riskibarqy/matchmaker/internal/domain/player"
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/platform/id"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultSlotFuzz      = 5 * time.Minute
	defaultCreateTimeout = 30 * time.Second
	maxSlotAttempts      = 3
)

// CreateMode selects the initial session status.
type CreateMode string

const (
	// CreateModeFiltered is used when the slot was picked from proposals.
	CreateModeFiltered CreateMode = "filtered"
	// CreateModeFlash is an ad-hoc session that needs explicit confirmation.
	CreateModeFlash CreateMode = "flash"
)

func (m CreateMode) status() (session.Status, bool) {
	switch m {
	case CreateModeFiltered:
		return session.StatusConfirmed, true
	case CreateModeFlash:
		return session.StatusPending, true
	default:
		return "", false
	}
}

type CreateSessionInput struct {
	GroupID   string
	CreatorID string
	Window    timerange.Range
	PlayerIDs []string
	Mode      CreateMode
	ClubID    string
}

type CreateSessionResult struct {
	Session session.Session
	TimeSlot timeslot.TimeSlot
	// Dropped lists players removed by the preflight conflict check.
	Dropped []string
	// ConfirmBy is when the confirmation window closes on its own.
	ConfirmBy time.Time
}

type ReserveCourtInput struct {
	SessionID string
	PlayerID  string
	ClubID    string
}

type SessionServiceConfig struct {
	Location      *time.Location
	SlotFuzz      time.Duration
	CreateTimeout time.Duration
}

type SessionService struct {
	playerRepo       player.Repository
	availabilityRepo availability.Repository
	slotRepo         timeslot.Repository
	sessionRepo      session.Repository
	rsvpRepo         rsvp.Repository
	bookings         bookingLoader
	ids              id.Generator
	windows          *ConfirmationWindows
	modes            *ModeController
	notifier         *Notifier
	logger           *logging.Logger
	cfg              SessionServiceConfig
	now              func() time.Time
}

func NewSessionService(
	playerRepo player.Repository,
	availabilityRepo availability.Repository,
	slotRepo timeslot.Repository,
	sessionRepo session.Repository,
	rsvpRepo rsvp.Repository,
	ids id.Generator,
	windows *ConfirmationWindows,
	modes *ModeController,
	notifier *Notifier,
	logger *logging.Logger,
	cfg SessionServiceConfig,
) *SessionService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.SlotFuzz <= 0 {
		cfg.SlotFuzz = defaultSlotFuzz
	}
	if cfg.CreateTimeout <= 0 {
		cfg.CreateTimeout = defaultCreateTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	if modes == nil {
		modes = NewModeController()
	}
	if windows == nil {
		windows = NewConfirmationWindows(DefaultConfirmWindow, modes)
	}

	s := &SessionService{
		playerRepo:       playerRepo,
		availabilityRepo: availabilityRepo,
		slotRepo:         slotRepo,
		sessionRepo:      sessionRepo,
		rsvpRepo:         rsvpRepo,
		bookings: bookingLoader{
			slotRepo:    slotRepo,
			sessionRepo: sessionRepo,
			rsvpRepo:    rsvpRepo,
		},
		ids:      ids,
		windows:  windows,
		modes:    modes,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
	windows.OnComplete(s.completeWindow)
	return s
}

// Create runs preflight, slot resolution, session insert, rsvp seeding and opens
// the confirmation window. Only the slot and session writes can fail the call.
func (s *SessionService) Create(ctx context.Context, input CreateSessionInput) (CreateSessionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.Create",
		attrGroupID.String(input.GroupID),
		attrPlayerID.String(input.CreatorID),
		attribute.Int("matchmaker.player_count", len(input.PlayerIDs)),
	)
	defer span.End()

	input.GroupID = strings.TrimSpace(input.GroupID)
	input.CreatorID = strings.TrimSpace(input.CreatorID)
	input.ClubID = strings.TrimSpace(input.ClubID)
	if input.GroupID == "" || input.CreatorID == "" {
		return CreateSessionResult{}, fmt.Errorf("%w: group_id and creator_id are required", ErrInvalidInput)
	}
	if !input.Window.Valid() {
		return CreateSessionResult{}, fmt.Errorf("%w: session window is invalid", ErrInvalidInput)
	}
	status, ok := input.Mode.status()
	if !ok {
		return CreateSessionResult{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, input.Mode)
	}
	playerIDs := normalizeIDs(append([]string{input.CreatorID}, input.PlayerIDs...))
	if len(playerIDs) < matching.ReadySize {
		return CreateSessionResult{}, fmt.Errorf("%w: at least %d players are required", ErrInvalidInput, matching.ReadySize)
	}

	token := s.modes.Enter(Creating(s.now().Add(s.cfg.CreateTimeout)))
	opened := false
	defer func() {
		if !opened {
			s.modes.Release(token)
		}
	}()

	profiles, err := s.playerRepo.ListByGroup(ctx, input.GroupID)
	if err != nil {
		return CreateSessionResult{}, fmt.Errorf("list players: %w", err)
	}
	snapshot := player.NewSnapshot(profiles)
	for _, playerID := range playerIDs {
		if _, ok := snapshot[playerID]; !ok {
			return CreateSessionResult{}, fmt.Errorf("%w: player=%s is not a member of group=%s", ErrInvalidInput, playerID, input.GroupID)
		}
	}

	kept, dropped, err := s.preflight(ctx, input.GroupID, input.CreatorID, input.Window, playerIDs)
	if err != nil {
		return CreateSessionResult{}, err
	}

	if input.ClubID != "" {
		if err := requireClub(snapshot, input.ClubID, kept); err != nil {
			return CreateSessionResult{}, err
		}
	}

	slot, err := s.resolveSlot(ctx, input.GroupID, input.Window)
	if err != nil {
		return CreateSessionResult{}, err
	}

	sessionID, err := s.ids.NewID()
	if err != nil {
		return CreateSessionResult{}, fmt.Errorf("generate session id: %w", err)
	}
	created, err := s.sessionRepo.Create(ctx, session.Session{
		ID:         sessionID,
		GroupID:    input.GroupID,
		TimeSlotID: slot.ID,
		Status:     status,
		CreatorID:  input.CreatorID,
		ClubID:     input.ClubID,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return CreateSessionResult{}, fmt.Errorf("create session: %w", err)
	}

	s.seedRsvps(ctx, created, kept)

	deadline := s.windows.Open(created.ID, token)
	opened = true

	s.logger.InfoContext(ctx, "session created",
		"session_id", created.ID,
		"group_id", created.GroupID,
		"time_slot_id", slot.ID,
		"status", string(created.Status),
		"players", len(kept),
		"dropped", len(dropped),
	)

	return CreateSessionResult{
		Session:   created,
		TimeSlot:  slot,
		Dropped:   dropped,
		ConfirmBy: deadline,
	}, nil
}

// preflight drops players committed elsewhere and fails when fewer than four remain
// or the creator is among the dropped.
func (s *SessionService) preflight(ctx context.Context, groupID, creatorID string, window timerange.Range, playerIDs []string) ([]string, []string, error) {
	_, bookings, err := s.bookings.load(ctx, groupID, around(window))
	if err != nil {
		return nil, nil, err
	}
	resolver := matching.NewConflictResolver(bookings, s.cfg.Location)
	remaining := resolver.Exclude(matching.NewPlayerSet(playerIDs...), window)

	kept := make([]string, 0, len(playerIDs))
	var dropped []string
	for _, playerID := range playerIDs {
		if remaining.Has(playerID) {
			kept = append(kept, playerID)
			continue
		}
		dropped = append(dropped, playerID)
	}
	if len(kept) < matching.ReadySize || !remaining.Has(creatorID) {
		return nil, nil, &ConflictError{Excluded: dropped, Remaining: kept}
	}
	return kept, dropped, nil
}

func requireClub(snapshot player.Snapshot, clubID string, playerIDs []string) error {
	var missing []string
	for _, playerID := range playerIDs {
		if !snapshot[playerID].AcceptsClub(clubID) {
			missing = append(missing, playerID)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ClubMismatchError{ClubID: clubID, PlayerIDs: missing}
	}
	return nil
}

// resolveSlot binds window to a free slot starting within the fuzz, closest first,
// or inserts a new one. On a (group, start) collision it looks again and adds a
// sibling at the next seq when every match is bound.
func (s *SessionService) resolveSlot(ctx context.Context, groupID string, window timerange.Range) (timeslot.TimeSlot, error) {
	found, seq, err := s.findReusable(ctx, groupID, window)
	if err != nil {
		return timeslot.TimeSlot{}, err
	}
	if found != nil {
		return *found, nil
	}

	for attempt := 0; attempt < maxSlotAttempts; attempt++ {
		slotID, err := s.ids.NewID()
		if err != nil {
			return timeslot.TimeSlot{}, fmt.Errorf("generate time slot id: %w", err)
		}
		created, err := s.slotRepo.Create(ctx, timeslot.TimeSlot{
			ID:        slotID,
			GroupID:   groupID,
			Start:     window.Start,
			End:       window.End,
			Seq:       seq,
			CreatedAt: s.now(),
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, timeslot.ErrDuplicateStart) {
			return timeslot.TimeSlot{}, fmt.Errorf("create time slot: %w", err)
		}

		found, seq, err = s.findReusable(ctx, groupID, window)
		if err != nil {
			return timeslot.TimeSlot{}, err
		}
		if found != nil {
			return *found, nil
		}
	}
	return timeslot.TimeSlot{}, fmt.Errorf("%w: group=%s start=%s", ErrUniqueness, groupID, window.Start.Format(time.RFC3339))
}

// findReusable looks for an unbound slot of the same length starting within the
// fuzz, closest first. It also returns the next free seq at the exact start.
func (s *SessionService) findReusable(ctx context.Context, groupID string, window timerange.Range) (*timeslot.TimeSlot, int, error) {
	candidates, err := s.slotRepo.FindByStart(ctx, groupID, window.Start, s.cfg.SlotFuzz)
	if err != nil {
		return nil, 0, fmt.Errorf("find time slot near start: %w", err)
	}

	nextSeq := 0
	for _, slot := range candidates {
		if slot.Start.Equal(window.Start) && slot.Seq >= nextSeq {
			nextSeq = slot.Seq + 1
		}
	}

	for _, slot := range candidates {
		if slot.Range().Duration() != window.Duration() {
			continue
		}
		bound, err := s.sessionRepo.ListByTimeSlots(ctx, []string{slot.ID})
		if err != nil {
			return nil, 0, fmt.Errorf("list sessions for time slot: %w", err)
		}
		if len(bound) == 0 {
			found := slot
			return &found, nextSeq, nil
		}
	}
	return nil, nextSeq, nil
}

// seedRsvps writes the intended rows and purges anything else. Failures are logged.
func (s *SessionService) seedRsvps(ctx context.Context, item session.Session, playerIDs []string) {
	invited := rsvp.StatusMaybe
	if item.Status == session.StatusConfirmed {
		invited = rsvp.StatusAccepted
	}

	intended := make(map[string]struct{}, len(playerIDs))
	now := s.now()
	for _, playerID := range playerIDs {
		intended[playerID] = struct{}{}
		status := invited
		if playerID == item.CreatorID {
			status = rsvp.StatusAccepted
		}
		err := s.rsvpRepo.Upsert(ctx, rsvp.Rsvp{
			SessionID: item.ID,
			UserID:    playerID,
			Status:    status,
			UpdatedAt: now,
		})
		if err != nil {
			s.warnTransient(ctx, "seed rsvp failed", item, err, "user_id", playerID)
		}
	}

	rows, err := s.rsvpRepo.ListBySessions(ctx, []string{item.ID})
	if err != nil {
		s.warnTransient(ctx, "list seeded rsvps failed", item, err)
		return
	}
	for _, row := range rows {
		if _, ok := intended[row.UserID]; ok {
			continue
		}
		if err := s.rsvpRepo.Delete(ctx, item.ID, row.UserID); err != nil {
			s.warnTransient(ctx, "purge rsvp failed", item, err, "user_id", row.UserID)
		}
	}
}

func (s *SessionService) warnTransient(ctx context.Context, msg string, item session.Session, err error, args ...any) {
	fields := append([]any{
		"session_id", item.ID,
		"group_id", item.GroupID,
		"error", fmt.Errorf("%w: %w", ErrTransientStore, err),
	}, args...)
	s.logger.WarnContext(ctx, msg, fields...)
}

// Confirm closes the confirmation window early. Confirming a session whose
// window already closed is a no-op.
func (s *SessionService) Confirm(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.Confirm", attrSessionID.String(sessionID))
	defer span.End()

	if _, err := s.bookings.booking(ctx, sessionID); err != nil {
		return session.Session{}, err
	}
	s.windows.Confirm(sessionID)

	item, _, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	return item, nil
}

// Undo reverts a session while its confirmation window is still open. No
// notification is sent.
func (s *SessionService) Undo(ctx context.Context, sessionID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.Undo", attrSessionID.String(sessionID))
	defer span.End()

	b, err := s.bookings.booking(ctx, sessionID)
	if err != nil {
		return err
	}
	if !s.windows.Cancel(b.Session.ID) {
		return fmt.Errorf("%w: confirmation window for session=%s is closed", ErrInvalidInput, b.Session.ID)
	}
	return s.remove(ctx, b.Session)
}

// Cancel deletes the session and its rsvps.
func (s *SessionService) Cancel(ctx context.Context, sessionID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.Cancel", attrSessionID.String(sessionID))
	defer span.End()

	b, err := s.bookings.booking(ctx, sessionID)
	if err != nil {
		return err
	}
	s.windows.Cancel(b.Session.ID)
	return s.remove(ctx, b.Session)
}

func (s *SessionService) remove(ctx context.Context, item session.Session) error {
	if err := s.sessionRepo.Delete(ctx, item.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := s.rsvpRepo.DeleteBySession(ctx, item.ID); err != nil {
		s.warnTransient(ctx, "delete session rsvps failed", item, err)
	}
	s.logger.InfoContext(ctx, "session removed", "session_id", item.ID, "group_id", item.GroupID)
	return nil
}

// ReplacePlayer swaps outgoingID for incomingID as accepted, leaving every other row untouched.
func (s *SessionService) ReplacePlayer(ctx context.Context, sessionID, outgoingID, incomingID string) (rsvp.Rsvp, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.ReplacePlayer", attrSessionID.String(sessionID), attrPlayerID.String(incomingID))
	defer span.End()

	outgoingID = strings.TrimSpace(outgoingID)
	incomingID = strings.TrimSpace(incomingID)
	if outgoingID == "" || incomingID == "" || outgoingID == incomingID {
		return rsvp.Rsvp{}, fmt.Errorf("%w: distinct outgoing and incoming players are required", ErrInvalidInput)
	}

	b, err := s.bookings.booking(ctx, sessionID)
	if err != nil {
		return rsvp.Rsvp{}, err
	}
	if outgoingID == b.Session.CreatorID {
		return rsvp.Rsvp{}, fmt.Errorf("%w: %w", ErrInvalidInput, rsvp.ErrCreatorPinned)
	}
	if b.StatusOf(outgoingID) == rsvp.StatusUnset {
		return rsvp.Rsvp{}, fmt.Errorf("%w: player=%s has no rsvp on session=%s", ErrNotFound, outgoingID, b.Session.ID)
	}
	if b.StatusOf(incomingID) == rsvp.StatusAccepted {
		return rsvp.Rsvp{}, fmt.Errorf("%w: player=%s already accepted", ErrInvalidInput, incomingID)
	}

	profiles, err := s.playerRepo.ListByGroup(ctx, b.Session.GroupID)
	if err != nil {
		return rsvp.Rsvp{}, fmt.Errorf("list players: %w", err)
	}
	if _, ok := player.NewSnapshot(profiles)[incomingID]; !ok {
		return rsvp.Rsvp{}, fmt.Errorf("%w: player=%s is not a member of group=%s", ErrInvalidInput, incomingID, b.Session.GroupID)
	}

	_, bookings, err := s.bookings.load(ctx, b.Session.GroupID, around(b.Window))
	if err != nil {
		return rsvp.Rsvp{}, err
	}
	resolver := matching.NewConflictResolver(bookings, s.cfg.Location)
	if _, blocked := resolver.Conflicting(incomingID, b.Window, b.Session.ID); blocked {
		return rsvp.Rsvp{}, &ConflictError{
			Excluded:  []string{incomingID},
			Remaining: b.Accepted().Without(outgoingID).Sorted(),
		}
	}

	incoming := rsvp.Rsvp{
		SessionID: b.Session.ID,
		UserID:    incomingID,
		Status:    rsvp.StatusAccepted,
		UpdatedAt: s.now(),
	}
	if err := s.rsvpRepo.Replace(ctx, b.Session.ID, outgoingID, incoming); err != nil {
		return rsvp.Rsvp{}, fmt.Errorf("replace rsvp: %w", err)
	}

	accepted := b.Accepted().Without(outgoingID)
	accepted[incomingID] = struct{}{}
	if _, _, err := s.bookings.promoteWhenFull(ctx, b.Session, accepted.Len()); err != nil {
		s.warnTransient(ctx, "promote session failed", b.Session, err)
	}
	return incoming, nil
}

// ReserveCourt records that playerID booked a court at clubID.
func (s *SessionService) ReserveCourt(ctx context.Context, input ReserveCourtInput) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.ReserveCourt", attrSessionID.String(input.SessionID), attrPlayerID.String(input.PlayerID))
	defer span.End()

	input.PlayerID = strings.TrimSpace(input.PlayerID)
	input.ClubID = strings.TrimSpace(input.ClubID)
	if input.PlayerID == "" || input.ClubID == "" {
		return session.Session{}, fmt.Errorf("%w: player_id and club_id are required", ErrInvalidInput)
	}

	b, err := s.bookings.booking(ctx, input.SessionID)
	if err != nil {
		return session.Session{}, err
	}
	accepted := b.Accepted()
	if !accepted.Has(input.PlayerID) {
		return session.Session{}, fmt.Errorf("%w: player=%s is not an accepted participant", ErrInvalidInput, input.PlayerID)
	}

	profiles, err := s.playerRepo.ListByGroup(ctx, b.Session.GroupID)
	if err != nil {
		return session.Session{}, fmt.Errorf("list players: %w", err)
	}
	if err := requireClub(player.NewSnapshot(profiles), input.ClubID, accepted.Sorted()); err != nil {
		return session.Session{}, err
	}

	now := s.now()
	item := b.Session
	item.ClubID = input.ClubID
	item.CourtReserved = true
	item.CourtReservedBy = input.PlayerID
	item.CourtReservedAt = &now
	if err := s.sessionRepo.Update(ctx, item); err != nil {
		return session.Session{}, fmt.Errorf("update session: %w", err)
	}
	return item, nil
}

// completeWindow promotes a full flash session and fires both notification hooks.
func (s *SessionService) completeWindow(sessionID string) {
	ctx := context.Background()
	b, err := s.bookings.booking(ctx, sessionID)
	if err != nil {
		s.logger.WarnContext(ctx, "load session on window completion failed", "session_id", sessionID, "error", err)
		return
	}

	item, _, err := s.bookings.promoteWhenFull(ctx, b.Session, b.Accepted().Len())
	if err != nil {
		s.warnTransient(ctx, "promote session failed", item, err)
	}

	participants := make([]string, 0, len(b.Rsvps))
	involved := matching.NewPlayerSet(item.CreatorID)
	for _, row := range b.Rsvps {
		involved[row.UserID] = struct{}{}
		if row.UserID == item.CreatorID || !row.Status.Committed() {
			continue
		}
		participants = append(participants, row.UserID)
	}
	sort.Strings(participants)

	payload := map[string]any{
		"start":      b.Window.Start.UTC().Format(time.RFC3339),
		"end":        b.Window.End.UTC().Format(time.RFC3339),
		"status":     string(item.Status),
		"creator_id": item.CreatorID,
		"club_id":    item.ClubID,
	}
	s.notifier.Notify(ctx, notification.Job{
		Kind:         notification.KindSessionParticipants,
		SessionID:    item.ID,
		GroupID:      item.GroupID,
		RecipientIDs: participants,
		Payload:      payload,
	})

	openSeats := matching.ReadySize - b.Accepted().Len()
	if openSeats < 0 {
		openSeats = 0
	}
	intervals, err := s.availabilityRepo.ListEffective(ctx, item.GroupID, "", b.Window)
	if err != nil {
		s.warnTransient(ctx, "list availability for group notification failed", item, err)
		return
	}
	covering := matching.NewAvailabilityIndex(intervals).CoveringAll(b.Window)
	others := make([]string, 0, covering.Len())
	for _, userID := range covering.Sorted() {
		if !involved.Has(userID) {
			others = append(others, userID)
		}
	}

	groupPayload := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		groupPayload[k] = v
	}
	groupPayload["open_seats"] = openSeats
	s.notifier.Notify(ctx, notification.Job{
		Kind:         notification.KindSessionGroup,
		SessionID:    item.ID,
		GroupID:      item.GroupID,
		RecipientIDs: others,
		Payload:      groupPayload,
	})
}
