package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	"github.com/riskibarqy/matchmaker/internal/domain/club"
	"github.com/riskibarqy/matchmaker/internal/domain/matching"
	"github.com/riskibarqy/matchmaker/internal/domain/player"
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

type ProposalQuery struct {
	GroupID     string
	RequesterID string
	Week        timerange.Range
	Filters     matching.Filters
}

// View is the last known-good state shown to the requester.
type View struct {
	Query     ProposalQuery
	Proposals matching.Proposals
	Bookings  []matching.Booking
	FetchedAt time.Time
}

type ProposalService struct {
	playerRepo       player.Repository
	clubRepo         club.Repository
	availabilityRepo availability.Repository
	bookings         bookingLoader
	location         *time.Location
	now              func() time.Time
}

func NewProposalService(
	playerRepo player.Repository,
	clubRepo club.Repository,
	availabilityRepo availability.Repository,
	slotRepo timeslot.Repository,
	sessionRepo session.Repository,
	rsvpRepo rsvp.Repository,
	location *time.Location,
) *ProposalService {
	if location == nil {
		location = time.UTC
	}
	return &ProposalService{
		playerRepo:       playerRepo,
		clubRepo:         clubRepo,
		availabilityRepo: availabilityRepo,
		bookings: bookingLoader{
			slotRepo:    slotRepo,
			sessionRepo: sessionRepo,
			rsvpRepo:    rsvpRepo,
		},
		location: location,
		now:      time.Now,
	}
}

// Compute returns the ready and hot slots of one visible week.
func (s *ProposalService) Compute(ctx context.Context, query ProposalQuery) (matching.Proposals, error) {
	view, err := s.Load(ctx, query)
	if err != nil {
		return matching.Proposals{}, err
	}
	return view.Proposals, nil
}

// Load reads one consistent snapshot and runs the engine over it. Store failures
// are reported as ErrNetwork so the reconciler can retry them.
func (s *ProposalService) Load(ctx context.Context, query ProposalQuery) (View, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProposalService.Load",
		attrGroupID.String(query.GroupID),
		attrPlayerID.String(query.RequesterID),
	)
	defer span.End()

	query.GroupID = strings.TrimSpace(query.GroupID)
	query.RequesterID = strings.TrimSpace(query.RequesterID)
	if query.GroupID == "" || query.RequesterID == "" {
		return View{}, fmt.Errorf("%w: group_id and requester_id are required", ErrInvalidInput)
	}
	if !query.Week.Valid() {
		return View{}, fmt.Errorf("%w: week bounds are invalid", ErrInvalidInput)
	}
	if geo := query.Filters.Geo; geo != nil && geo.RadiusKm <= 0 {
		return View{}, fmt.Errorf("%w: geo radius must be positive", ErrInvalidInput)
	}

	players, err := s.playerRepo.ListByGroup(ctx, query.GroupID)
	if err != nil {
		return View{}, fmt.Errorf("%w: list players: %w", ErrNetwork, err)
	}
	profiles := player.NewSnapshot(players)
	requester, ok := profiles[query.RequesterID]
	if !ok {
		return View{}, fmt.Errorf("%w: requester=%s is not a member of group=%s", ErrNotFound, query.RequesterID, query.GroupID)
	}

	var zoneClubIDs []string
	if requester.ZoneID != "" {
		clubs, err := s.clubRepo.ListByZone(ctx, requester.ZoneID)
		if err != nil {
			return View{}, fmt.Errorf("%w: list clubs: %w", ErrNetwork, err)
		}
		for _, c := range clubs {
			zoneClubIDs = append(zoneClubIDs, c.ID)
		}
	}

	intervals, err := s.availabilityRepo.ListEffective(ctx, query.GroupID, "", query.Week)
	if err != nil {
		return View{}, fmt.Errorf("%w: list availability: %w", ErrNetwork, err)
	}

	slots, bookings, err := s.bookings.load(ctx, query.GroupID, around(query.Week))
	if err != nil {
		return View{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	now := s.now()
	proposals := matching.Propose(matching.ProposeInput{
		Week:        query.Week,
		Now:         now,
		Location:    s.location,
		RequesterID: query.RequesterID,
		Profiles:    profiles,
		ZoneClubIDs: zoneClubIDs,
		Intervals:   intervals,
		Slots:       slots,
		Bookings:    bookings,
		Filters:     query.Filters,
	})

	return View{
		Query:     query,
		Proposals: proposals,
		Bookings:  bookings,
		FetchedAt: now,
	}, nil
}
