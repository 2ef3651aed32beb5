package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
	"github.com/riskibarqy/matchmaker/internal/usecase"
)

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "CreateSession")
	defer span.End()

	var req createSessionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.sessionService.Create(ctx, usecase.CreateSessionInput{
		GroupID:   req.GroupID,
		CreatorID: req.CreatorID,
		Window:    timerange.Range{Start: req.StartAt, End: req.EndAt},
		PlayerIDs: req.PlayerIDs,
		Mode:      usecase.CreateMode(req.Mode),
		ClubID:    req.ClubID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create session failed", "group_id", req.GroupID, "creator_id", req.CreatorID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, createResultToDTO(result))
}

func (h *Handler) ConfirmSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ConfirmSession")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	item, err := h.sessionService.Confirm(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "confirm session failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}

func (h *Handler) UndoSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "UndoSession")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	if err := h.sessionService.Undo(ctx, sessionID); err != nil {
		h.logger.WarnContext(ctx, "undo session failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"session_id": sessionID})
}

func (h *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "CancelSession")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	if err := h.sessionService.Cancel(ctx, sessionID); err != nil {
		h.logger.WarnContext(ctx, "cancel session failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"session_id": sessionID})
}

func (h *Handler) ReplacePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ReplacePlayer")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req replacePlayerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.sessionService.ReplacePlayer(ctx, sessionID, req.OutgoingID, req.IncomingID)
	if err != nil {
		h.logger.WarnContext(ctx, "replace player failed",
			"session_id", sessionID,
			"outgoing_id", req.OutgoingID,
			"incoming_id", req.IncomingID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rsvpToDTO(item))
}

func (h *Handler) ReserveCourt(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ReserveCourt")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req reserveCourtRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.sessionService.ReserveCourt(ctx, usecase.ReserveCourtInput{
		SessionID: sessionID,
		PlayerID:  req.PlayerID,
		ClubID:    req.ClubID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "reserve court failed", "session_id", sessionID, "club_id", req.ClubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}
