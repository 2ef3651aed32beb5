package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerProposalRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/groups/{groupID}/proposals", handler.ListProposals)
	mux.HandleFunc("GET /v1/groups/{groupID}/proposals/live", handler.LiveProposals)
}

func registerSessionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/sessions", handler.CreateSession)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/confirm", handler.ConfirmSession)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/undo", handler.UndoSession)
	mux.HandleFunc("DELETE /v1/sessions/{sessionID}", handler.CancelSession)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/replace", handler.ReplacePlayer)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/court", handler.ReserveCourt)
}

func registerRsvpRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("PUT /v1/sessions/{sessionID}/rsvp", handler.RespondRsvp)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/rsvp/force-accept", handler.ForceAccept)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/rsvp/invite", handler.InvitePlayer)
}
