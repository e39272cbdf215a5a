package handler

import (
	"net/http"
	"strconv"

	dErrors "paddock/pkg/domain-errors"
	"paddock/pkg/platform/httputil"
)

// HandleListSeasons handles GET /api/season. The answer is always an array,
// even when the filter selects a single year.
func (h *Handler) HandleListSeasons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := yearFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	seasons, err := h.service.ListSeasons(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list seasons", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orEmpty(seasons))
}

// HandleDriverStandings handles GET /api/season/standing?year=.
func (h *Handler) HandleDriverStandings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year, err := queryInt(r, "year")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if year == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "year is required"))
		return
	}
	rows, err := h.service.DriverStandings(ctx, *year)
	if err != nil {
		h.fail(ctx, w, "failed to load driver standings", err, "year", *year)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orEmpty(rows))
}

func (h *Handler) HandleGetSeason(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year, err := pathInt(r, "year")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	season, err := h.service.GetSeason(ctx, year)
	if err != nil {
		h.fail(ctx, w, "failed to load season", err, "year", year)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, season)
}

// HandleDeleteSeason handles DELETE /api/season/{year}: every race of the year
// and their results go in one transaction.
func (h *Handler) HandleDeleteSeason(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year, err := pathInt(r, "year")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	report, err := h.service.DeleteSeason(ctx, year)
	if err != nil {
		h.fail(ctx, w, "failed to delete season", err, "year", year)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CascadeResponse{
		Message:       "season " + strconv.Itoa(year) + " deleted",
		CascadeReport: report,
	})
}

// HandleHealth handles GET /api/health. Any failing dependency answers 503.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	failures := h.service.Health(ctx)

	resp := HealthResponse{Status: healthOK, Checks: make(map[string]string, len(failures))}
	status := http.StatusOK
	for name, err := range failures {
		resp.Checks[name] = err.Error()
		resp.Status = healthDegraded
		status = http.StatusServiceUnavailable
	}
	if status != http.StatusOK {
		h.logger.WarnContext(ctx, "health check failed", "failures", len(failures))
	}
	httputil.WriteJSON(w, status, resp)
}

