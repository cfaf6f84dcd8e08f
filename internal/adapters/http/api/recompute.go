// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/okian/rankengine/internal/domain/model"
)

// RecomputeDependencies defines the interface for scheduling recomputes.
type RecomputeDependencies interface {
	ScheduleRecompute(ctx context.Context, period model.Period) (model.JobReceipt, error)
}

// RecomputeRequest is the optional body of POST /recompute.
type RecomputeRequest struct {
	Period string `json:"period"`
}

// RecomputeHandler handles recompute requests.
type RecomputeHandler struct {
	deps RecomputeDependencies
}

// NewRecomputeHandler creates a new recompute handler.
func NewRecomputeHandler(deps RecomputeDependencies) *RecomputeHandler {
	return &RecomputeHandler{deps: deps}
}

// HandlePostRecompute handles POST /recompute requests. An empty body or
// period schedules every month.
func (h *RecomputeHandler) HandlePostRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req RecomputeRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeFailure(w, "recompute", err)
		return
	}
	period, err := periodParam(req.Period)
	if err != nil {
		writeFailure(w, "recompute", err)
		return
	}
	receipt, err := h.deps.ScheduleRecompute(r.Context(), period)
	if err != nil {
		writeFailure(w, "recompute", err)
		return
	}
	writeJSON(w, http.StatusAccepted, receipt)
}
