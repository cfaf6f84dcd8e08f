// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/rankengine/internal/domain/model"
)

// EvolutionDependencies defines the interface for evolution reads.
type EvolutionDependencies interface {
	Evolution(ctx context.Context, employeeID string) (model.Evolution, error)
}

// EvolutionHandler handles evolution requests.
type EvolutionHandler struct {
	deps EvolutionDependencies
}

// NewEvolutionHandler creates a new evolution handler.
func NewEvolutionHandler(deps EvolutionDependencies) *EvolutionHandler {
	return &EvolutionHandler{deps: deps}
}

// HandleGetEvolution handles GET /evolution/{employee_id} requests.
func (h *EvolutionHandler) HandleGetEvolution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathID(r.URL.Path, "/evolution/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("evolution", ErrBadRequest))
		return
	}
	evo, err := h.deps.Evolution(r.Context(), id)
	if err != nil {
		writeFailure(w, "evolution", err)
		return
	}
	if evo.Months == nil {
		evo.Months = []model.EvolutionPoint{}
	}
	if evo.AbsencesByMonth == nil {
		evo.AbsencesByMonth = []model.MonthCount{}
	}
	if evo.DelaysByMonth == nil {
		evo.DelaysByMonth = []model.MonthCount{}
	}
	writeJSON(w, http.StatusOK, evo)
}
