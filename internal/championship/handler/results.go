package handler

import (
	"net/http"

	"paddock/pkg/platform/httputil"
	"paddock/pkg/requestcontext"
)

func (h *Handler) HandleListResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	results, err := h.service.ListResults(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list results", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ResultsResponse{Results: orEmpty(results)})
}

func (h *Handler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.GetResult(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get result", err, "result_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleSaveResult handles POST /api/result. Invariant collisions answer 409.
func (h *Handler) HandleSaveResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ResultRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id, err := h.service.SaveResult(ctx, req.toModel())
	if err != nil {
		h.fail(ctx, w, "failed to save result", err,
			"result_id", req.ID,
			"race_id", req.RaceID,
		)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SavedResponse{Message: "result saved", ID: id})
}

// HandleSaveResults handles POST /api/result/batch. The body is a JSON array;
// the batch is all or nothing.
func (h *Handler) HandleSaveResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ResultBatchRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	ids, err := h.service.SaveResults(ctx, req.toModels())
	if err != nil {
		h.fail(ctx, w, "failed to save result batch", err, "batch_size", len(*req))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, BatchSavedResponse{Message: "batch saved", IDs: ids})
}

func (h *Handler) HandleDeleteResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathInt(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteResult(ctx, id); err != nil {
		h.fail(ctx, w, "failed to delete result", err, "result_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "result deleted"})
}

// HandleRaceStandings handles GET /api/result/standings/{raceId}.
func (h *Handler) HandleRaceStandings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raceID, err := pathInt(r, "raceId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rows, err := h.service.RaceStandings(ctx, raceID)
	if err != nil {
		h.fail(ctx, w, "failed to load race standings", err, "race_id", raceID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orEmpty(rows))
}
