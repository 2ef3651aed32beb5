package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/matching"
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const defaultRespondFreeze = 2 * time.Second

type RespondResult struct {
	Rsvp rsvp.Rsvp
	// NeedsReplacement is set when an accepted player left a session that had
	// exactly four accepted; the creator should replace them or cancel.
	NeedsReplacement bool
	// Promoted is set when this response filled a pending session and confirmed it.
	Promoted bool
}

type RsvpService struct {
	rsvpRepo rsvp.Repository
	bookings bookingLoader
	modes    *ModeController
	logger   *logging.Logger
	location *time.Location
	freeze   time.Duration
	now      func() time.Time
}

func NewRsvpService(
	slotRepo timeslot.Repository,
	sessionRepo session.Repository,
	rsvpRepo rsvp.Repository,
	modes *ModeController,
	logger *logging.Logger,
	location *time.Location,
) *RsvpService {
	if logger == nil {
		logger = logging.Default()
	}
	if location == nil {
		location = time.UTC
	}
	return &RsvpService{
		rsvpRepo: rsvpRepo,
		bookings: bookingLoader{
			slotRepo:    slotRepo,
			sessionRepo: sessionRepo,
			rsvpRepo:    rsvpRepo,
		},
		modes:    modes,
		logger:   logger,
		location: location,
		freeze:   defaultRespondFreeze,
		now:      time.Now,
	}
}

// Respond applies a participant action to their own row.
func (s *RsvpService) Respond(ctx context.Context, sessionID, playerID string, action rsvp.Action) (RespondResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RsvpService.Respond",
		attrSessionID.String(sessionID),
		attrPlayerID.String(playerID),
		attribute.String("matchmaker.rsvp_action", string(action)),
	)
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return RespondResult{}, fmt.Errorf("%w: player_id is required", ErrInvalidInput)
	}
	if action == rsvp.ActionInvite {
		return RespondResult{}, fmt.Errorf("%w: invite is not a participant response", ErrInvalidInput)
	}

	b, err := s.bookings.booking(ctx, sessionID)
	if err != nil {
		return RespondResult{}, err
	}

	current := b.StatusOf(playerID)
	next, err := rsvp.Transition(current, action, playerID == b.Session.CreatorID)
	if err != nil {
		return RespondResult{}, transitionError(err)
	}
	if next.Committed() && !current.Committed() {
		if err := s.checkConflict(ctx, b, playerID); err != nil {
			return RespondResult{}, err
		}
	}

	item, err := s.write(ctx, b, playerID, next)
	if err != nil {
		return RespondResult{}, err
	}

	return RespondResult{
		Rsvp:             item,
		NeedsReplacement: rsvp.TriggersReplacement(current, next, rsvp.CountAccepted(b.Rsvps)),
		Promoted:         s.promote(ctx, b, playerID, next),
	}, nil
}

// ForceAccept sets playerID to accepted regardless of the previous state.
func (s *RsvpService) ForceAccept(ctx context.Context, sessionID, playerID string) (rsvp.Rsvp, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RsvpService.ForceAccept", attrSessionID.String(sessionID), attrPlayerID.String(playerID))
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return rsvp.Rsvp{}, fmt.Errorf("%w: player_id is required", ErrInvalidInput)
	}
	b, err := s.bookings.booking(ctx, sessionID)
	if err != nil {
		return rsvp.Rsvp{}, err
	}

	item, err := s.write(ctx, b, playerID, rsvp.StatusAccepted)
	if err != nil {
		return rsvp.Rsvp{}, err
	}
	s.promote(ctx, b, playerID, rsvp.StatusAccepted)
	s.logger.InfoContext(ctx, "rsvp force accepted",
		"session_id", b.Session.ID,
		"user_id", playerID,
		"previous", string(b.StatusOf(playerID)),
	)
	return item, nil
}

// Invite lets the creator offer the session to playerID again.
func (s *RsvpService) Invite(ctx context.Context, sessionID, inviterID, playerID string) (rsvp.Rsvp, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RsvpService.Invite", attrSessionID.String(sessionID), attrPlayerID.String(playerID))
	defer span.End()

	inviterID = strings.TrimSpace(inviterID)
	playerID = strings.TrimSpace(playerID)
	if inviterID == "" || playerID == "" {
		return rsvp.Rsvp{}, fmt.Errorf("%w: inviter_id and player_id are required", ErrInvalidInput)
	}

	b, err := s.bookings.booking(ctx, sessionID)
	if err != nil {
		return rsvp.Rsvp{}, err
	}
	if inviterID != b.Session.CreatorID {
		return rsvp.Rsvp{}, fmt.Errorf("%w: only the creator can invite", ErrInvalidInput)
	}

	next, err := rsvp.Transition(b.StatusOf(playerID), rsvp.ActionInvite, playerID == b.Session.CreatorID)
	if err != nil {
		return rsvp.Rsvp{}, transitionError(err)
	}
	if err := s.checkConflict(ctx, b, playerID); err != nil {
		return rsvp.Rsvp{}, err
	}
	return s.write(ctx, b, playerID, next)
}

// promote confirms a pending session the write just filled. The rsvp is already
// stored, so a failed promotion is only logged.
func (s *RsvpService) promote(ctx context.Context, b matching.Booking, playerID string, status rsvp.Status) bool {
	item, promoted, err := s.bookings.promoteWhenFull(ctx, b.Session, acceptedAfter(b, playerID, status).Len())
	if err != nil {
		s.logger.WarnContext(ctx, "promote session failed",
			"session_id", item.ID,
			"group_id", item.GroupID,
			"error", fmt.Errorf("%w: %w", ErrTransientStore, err),
		)
		return false
	}
	if promoted {
		s.logger.InfoContext(ctx, "session confirmed", "session_id", item.ID, "group_id", item.GroupID)
	}
	return promoted
}

func (s *RsvpService) checkConflict(ctx context.Context, b matching.Booking, playerID string) error {
	_, bookings, err := s.bookings.load(ctx, b.Session.GroupID, around(b.Window))
	if err != nil {
		return err
	}
	resolver := matching.NewConflictResolver(bookings, s.location)
	if other, blocked := resolver.Conflicting(playerID, b.Window, b.Session.ID); blocked {
		return fmt.Errorf("%w: player=%s is committed to session=%s", ErrConflict, playerID, other.SessionID)
	}
	return nil
}

func (s *RsvpService) write(ctx context.Context, b matching.Booking, playerID string, status rsvp.Status) (rsvp.Rsvp, error) {
	var token uint64
	if s.modes != nil {
		token = s.modes.Enter(Frozen(s.now().Add(s.freeze)))
		defer s.modes.Release(token)
	}

	item := rsvp.Rsvp{
		SessionID: b.Session.ID,
		UserID:    playerID,
		Status:    status,
		UpdatedAt: s.now(),
	}
	if err := s.rsvpRepo.Upsert(ctx, item); err != nil {
		return rsvp.Rsvp{}, fmt.Errorf("upsert rsvp: %w", err)
	}
	return item, nil
}

func transitionError(err error) error {
	switch {
	case errors.Is(err, rsvp.ErrInvalidTransition):
		return err
	case errors.Is(err, rsvp.ErrCreatorPinned), errors.Is(err, rsvp.ErrUnknownAction):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}
