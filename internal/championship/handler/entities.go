package handler

import (
	"net/http"
	"strings"

	"paddock/internal/championship/models"
	"paddock/pkg/platform/httputil"
	"paddock/pkg/requestcontext"
)

// HandleListDrivers handles GET /api/driver/all.
func (h *Handler) HandleListDrivers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := models.DriverQuery{
		Nationality: strings.TrimSpace(r.URL.Query().Get("nationality")),
		Sort:        models.SortOrder(r.URL.Query().Get("sortAlpha")),
	}
	drivers, err := h.service.ListDrivers(ctx, q)
	if err != nil {
		h.fail(ctx, w, "failed to list drivers", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DriversResponse{Drivers: orEmpty(drivers)})
}

func (h *Handler) HandleNationalities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nationalities, err := h.service.Nationalities(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list nationalities", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orEmpty(nationalities))
}

func (h *Handler) HandleGetDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	driver, err := h.service.GetDriver(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get driver", err, "driver_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, driver)
}

// HandleDriverHistory handles GET /api/driver/find_results/{id}.
func (h *Handler) HandleDriverHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter, err := yearFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := h.service.DriverHistory(ctx, id, filter)
	if err != nil {
		h.fail(ctx, w, "failed to load driver history", err, "driver_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

// HandleSaveDriver handles POST /api/driver. A body without id creates.
func (h *Handler) HandleSaveDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DriverRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id, err := h.service.SaveDriver(ctx, req.toModel())
	if err != nil {
		h.fail(ctx, w, "failed to save driver", err, "driver_id", req.ID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SavedResponse{Message: "driver saved", ID: id})
}

func (h *Handler) HandleDeleteDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteDriver(ctx, id); err != nil {
		h.fail(ctx, w, "failed to delete driver", err, "driver_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "driver deleted"})
}

func (h *Handler) HandleListConstructors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	constructors, err := h.service.ListConstructors(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list constructors", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ConstructorsResponse{Constructors: orEmpty(constructors)})
}

func (h *Handler) HandleGetConstructor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	constructor, err := h.service.GetConstructor(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get constructor", err, "constructor_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, constructor)
}

// HandleConstructorHistory handles GET /api/constructor/find_results/{id}.
func (h *Handler) HandleConstructorHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter, err := yearFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := h.service.ConstructorHistory(ctx, id, filter)
	if err != nil {
		h.fail(ctx, w, "failed to load constructor history", err, "constructor_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) HandleConstructorsForDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	constructors, err := h.service.ConstructorsForDriver(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to list constructors for driver", err, "driver_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orEmpty(constructors))
}

func (h *Handler) HandleSaveConstructor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ConstructorRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id, err := h.service.SaveConstructor(ctx, req.toModel())
	if err != nil {
		h.fail(ctx, w, "failed to save constructor", err, "constructor_id", req.ID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SavedResponse{Message: "constructor saved", ID: id})
}

func (h *Handler) HandleDeleteConstructor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteConstructor(ctx, id); err != nil {
		h.fail(ctx, w, "failed to delete constructor", err, "constructor_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "constructor deleted"})
}

// HandleListCircuits handles GET /api/circuit/all. Circuits render as a bare
// array.
func (h *Handler) HandleListCircuits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := models.CircuitQuery{
		Country: strings.TrimSpace(r.URL.Query().Get("country")),
		Sort:    models.SortOrder(r.URL.Query().Get("sortAlpha")),
	}
	circuits, err := h.service.ListCircuits(ctx, q)
	if err != nil {
		h.fail(ctx, w, "failed to list circuits", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orEmpty(circuits))
}

func (h *Handler) HandleGetCircuit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	circuit, err := h.service.GetCircuit(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get circuit", err, "circuit_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, circuit)
}

func (h *Handler) HandleCircuitsForDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	circuits, err := h.service.CircuitsForDriver(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to list circuits for driver", err, "driver_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orEmpty(circuits))
}

func (h *Handler) HandleSaveCircuit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CircuitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id, err := h.service.SaveCircuit(ctx, req.toModel())
	if err != nil {
		h.fail(ctx, w, "failed to save circuit", err, "circuit_id", req.ID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SavedResponse{Message: "circuit saved", ID: id})
}

func (h *Handler) HandleDeleteCircuit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteCircuit(ctx, id); err != nil {
		h.fail(ctx, w, "failed to delete circuit", err, "circuit_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "circuit deleted"})
}

// HandleListRaces handles GET /api/race/all. The year filters are optional.
func (h *Handler) HandleListRaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := yearFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	races, err := h.service.ListRaces(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list races", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RacesResponse{Races: orEmpty(races)})
}

func (h *Handler) HandleGetRace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	race, err := h.service.GetRace(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get race", err, "race_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, race)
}

func (h *Handler) HandleSaveRace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RaceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id, err := h.service.SaveRace(ctx, req.toModel())
	if err != nil {
		h.fail(ctx, w, "failed to save race", err, "race_id", req.ID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SavedResponse{Message: "race saved", ID: id})
}

// HandleDeleteRace handles DELETE /api/race/{id}, removing the race's results
// with it.
func (h *Handler) HandleDeleteRace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	report, err := h.service.DeleteRace(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to delete race", err, "race_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CascadeResponse{Message: "race deleted", CascadeReport: report})
}
