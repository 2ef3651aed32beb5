package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/matching"
	"github.com/riskibarqy/matchmaker/internal/platform/geo"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
	"github.com/riskibarqy/matchmaker/internal/usecase"
)

const weekLength = 7 * 24 * time.Hour

// ListProposals serves GET /v1/groups/{groupID}/proposals.
//
// Query: requester_id (required), week_start (YYYY-MM-DD, defaults to today),
// levels (comma separated), lat, lon and radius_km (all three or none).
func (h *Handler) ListProposals(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListProposals")
	defer span.End()

	groupID := strings.TrimSpace(r.PathValue("groupID"))
	query, err := h.proposalQuery(groupID, r.URL.Query())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	proposals, err := h.proposalService.Compute(ctx, query)
	if err != nil {
		h.logger.WarnContext(ctx, "compute proposals failed", "group_id", groupID, "requester_id", query.RequesterID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, proposalsToDTO(proposals))
}

// LiveProposals serves GET /v1/groups/{groupID}/proposals/live with the same
// query as ListProposals. It answers from the reconciled view and flags it stale
// when the latest refetch failed.
func (h *Handler) LiveProposals(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "LiveProposals")
	defer span.End()

	if h.liveViews == nil {
		writeError(ctx, w, fmt.Errorf("%w: live views are disabled", usecase.ErrDependencyUnavailable))
		return
	}

	groupID := strings.TrimSpace(r.PathValue("groupID"))
	query, err := h.proposalQuery(groupID, r.URL.Query())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	reconciler, err := h.liveViews.Watch(ctx, query)
	if err != nil {
		h.logger.WarnContext(ctx, "watch proposals failed", "group_id", groupID, "requester_id", query.RequesterID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, liveProposalsToDTO(reconciler.View(), reconciler.LastError()))
}

func (h *Handler) proposalQuery(groupID string, values url.Values) (usecase.ProposalQuery, error) {
	weekStart, err := h.parseWeekStart(values.Get("week_start"))
	if err != nil {
		return usecase.ProposalQuery{}, err
	}
	levels, err := parseLevels(values.Get("levels"))
	if err != nil {
		return usecase.ProposalQuery{}, err
	}
	geoFilter, err := parseGeoFilter(values)
	if err != nil {
		return usecase.ProposalQuery{}, err
	}

	return usecase.ProposalQuery{
		GroupID:     groupID,
		RequesterID: strings.TrimSpace(values.Get("requester_id")),
		Week:        timerange.New(weekStart, weekLength),
		Filters: matching.Filters{
			Levels: levels,
			Geo:    geoFilter,
		},
	}, nil
}

func (h *Handler) parseWeekStart(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		now := time.Now().In(h.location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, h.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: week_start must be YYYY-MM-DD", usecase.ErrInvalidInput)
	}
	return day, nil
}

func parseLevels(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		level, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid level %q", usecase.ErrInvalidInput, part)
		}
		out = append(out, level)
	}
	return out, nil
}

func parseGeoFilter(values url.Values) (*matching.GeoFilter, error) {
	lat, lon, radius := values.Get("lat"), values.Get("lon"), values.Get("radius_km")
	if lat == "" && lon == "" && radius == "" {
		return nil, nil
	}
	if lat == "" || lon == "" || radius == "" {
		return nil, fmt.Errorf("%w: lat, lon and radius_km must be set together", usecase.ErrInvalidInput)
	}

	var parsed [3]float64
	for i, raw := range []string{lat, lon, radius} {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid geo parameter %q", usecase.ErrInvalidInput, raw)
		}
		parsed[i] = v
	}

	return &matching.GeoFilter{
		Center:   geo.Coordinate{Lat: parsed[0], Lon: parsed[1]},
		RadiusKm: parsed[2],
	}, nil
}
