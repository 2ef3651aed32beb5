package httpapi

import (
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/matching"
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/usecase"
)

type createSessionRequest struct {
	GroupID   string    `json:"group_id" validate:"required"`
	CreatorID string    `json:"creator_id" validate:"required"`
	StartAt   time.Time `json:"start_at" validate:"required"`
	EndAt     time.Time `json:"end_at" validate:"required,gtfield=StartAt"`
	PlayerIDs []string  `json:"player_ids" validate:"required,dive,required"`
	Mode      string    `json:"mode" validate:"required,oneof=filtered flash"`
	ClubID    string    `json:"club_id" validate:"omitempty,max=64"`
}

type respondRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
	Action   string `json:"action" validate:"required,oneof=accept cancel decline"`
}

type playerRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
}

type inviteRequest struct {
	InviterID string `json:"inviter_id" validate:"required"`
	PlayerID  string `json:"player_id" validate:"required"`
}

type replacePlayerRequest struct {
	OutgoingID string `json:"outgoing_id" validate:"required"`
	IncomingID string `json:"incoming_id" validate:"required,nefield=OutgoingID"`
}

type reserveCourtRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
	ClubID   string `json:"club_id" validate:"required"`
}

type candidateSlotDTO struct {
	Ref       string   `json:"ref"`
	RefKind   string   `json:"ref_kind"`
	SessionID string   `json:"session_id,omitempty"`
	StartAt   string   `json:"start_at"`
	EndAt     string   `json:"end_at"`
	Duration  string   `json:"duration"`
	PlayerIDs []string `json:"player_ids"`
	ClubIDs   []string `json:"club_ids"`
}

type proposalsDTO struct {
	ReadyShort []candidateSlotDTO `json:"ready_short"`
	ReadyLong  []candidateSlotDTO `json:"ready_long"`
	Hot        []candidateSlotDTO `json:"hot"`
}

type liveProposalsDTO struct {
	Proposals   proposalsDTO `json:"proposals"`
	FetchedAt   string       `json:"fetched_at"`
	Stale       bool         `json:"stale"`
	StaleReason string       `json:"stale_reason,omitempty"`
}

type sessionDTO struct {
	ID              string `json:"id"`
	GroupID         string `json:"group_id"`
	TimeSlotID      string `json:"time_slot_id"`
	Status          string `json:"status"`
	CreatorID       string `json:"creator_id"`
	ClubID          string `json:"club_id,omitempty"`
	CourtReserved   bool   `json:"court_reserved"`
	CourtReservedBy string `json:"court_reserved_by,omitempty"`
	CourtReservedAt string `json:"court_reserved_at,omitempty"`
	CreatedAt       string `json:"created_at"`
}

type timeSlotDTO struct {
	ID      string `json:"id"`
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
	Seq     int    `json:"seq"`
}

type createSessionDTO struct {
	Session   sessionDTO  `json:"session"`
	TimeSlot  timeSlotDTO `json:"time_slot"`
	Dropped   []string    `json:"dropped"`
	ConfirmBy string      `json:"confirm_by"`
}

type rsvpDTO struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

type respondDTO struct {
	Rsvp             rsvpDTO `json:"rsvp"`
	NeedsReplacement bool    `json:"needs_replacement"`
	Promoted         bool    `json:"promoted"`
}

func proposalsToDTO(v matching.Proposals) proposalsDTO {
	return proposalsDTO{
		ReadyShort: candidatesToDTO(v.ReadyShort),
		ReadyLong:  candidatesToDTO(v.ReadyLong),
		Hot:        candidatesToDTO(v.Hot),
	}
}

func liveProposalsToDTO(view usecase.View, lastErr error) liveProposalsDTO {
	out := liveProposalsDTO{
		Proposals: proposalsToDTO(view.Proposals),
		FetchedAt: formatTime(view.FetchedAt),
	}
	if lastErr != nil {
		out.Stale = true
		out.StaleReason = "could not refresh, showing last known state"
	}
	return out
}

func candidatesToDTO(items []matching.CandidateSlot) []candidateSlotDTO {
	out := make([]candidateSlotDTO, 0, len(items))
	for _, item := range items {
		clubIDs := item.ClubIDs
		if clubIDs == nil {
			clubIDs = []string{}
		}
		out = append(out, candidateSlotDTO{
			Ref:       item.Ref.ID,
			RefKind:   string(item.Ref.Kind),
			SessionID: item.SessionID,
			StartAt:   formatTime(item.Window.Start),
			EndAt:     formatTime(item.Window.End),
			Duration:  string(item.Class),
			PlayerIDs: item.Eligible.Sorted(),
			ClubIDs:   clubIDs,
		})
	}
	return out
}

func sessionToDTO(v session.Session) sessionDTO {
	return sessionDTO{
		ID:              v.ID,
		GroupID:         v.GroupID,
		TimeSlotID:      v.TimeSlotID,
		Status:          string(v.Status),
		CreatorID:       v.CreatorID,
		ClubID:          v.ClubID,
		CourtReserved:   v.CourtReserved,
		CourtReservedBy: v.CourtReservedBy,
		CourtReservedAt: formatOptionalTime(v.CourtReservedAt),
		CreatedAt:       formatTime(v.CreatedAt),
	}
}

func timeSlotToDTO(v timeslot.TimeSlot) timeSlotDTO {
	return timeSlotDTO{
		ID:      v.ID,
		StartAt: formatTime(v.Start),
		EndAt:   formatTime(v.End),
		Seq:     v.Seq,
	}
}

func createResultToDTO(v usecase.CreateSessionResult) createSessionDTO {
	dropped := v.Dropped
	if dropped == nil {
		dropped = []string{}
	}
	return createSessionDTO{
		Session:   sessionToDTO(v.Session),
		TimeSlot:  timeSlotToDTO(v.TimeSlot),
		Dropped:   dropped,
		ConfirmBy: formatTime(v.ConfirmBy),
	}
}

func rsvpToDTO(v rsvp.Rsvp) rsvpDTO {
	return rsvpDTO{
		SessionID: v.SessionID,
		UserID:    v.UserID,
		Status:    string(v.Status),
		UpdatedAt: formatTime(v.UpdatedAt),
	}
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format(time.RFC3339)
}

func formatOptionalTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return formatTime(*v)
}
