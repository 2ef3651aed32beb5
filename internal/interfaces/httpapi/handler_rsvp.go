package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
)

func (h *Handler) RespondRsvp(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RespondRsvp")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req respondRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.rsvpService.Respond(ctx, sessionID, req.PlayerID, rsvp.Action(req.Action))
	if err != nil {
		h.logger.WarnContext(ctx, "respond rsvp failed",
			"session_id", sessionID,
			"user_id", req.PlayerID,
			"action", req.Action,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, respondDTO{
		Rsvp:             rsvpToDTO(result.Rsvp),
		NeedsReplacement: result.NeedsReplacement,
		Promoted:         result.Promoted,
	})
}

func (h *Handler) ForceAccept(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ForceAccept")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req playerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.rsvpService.ForceAccept(ctx, sessionID, req.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "force accept failed", "session_id", sessionID, "user_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rsvpToDTO(item))
}

func (h *Handler) InvitePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "InvitePlayer")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req inviteRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.rsvpService.Invite(ctx, sessionID, req.InviterID, req.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "invite player failed", "session_id", sessionID, "user_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rsvpToDTO(item))
}
