// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/internal/engine"
)

// RankingDependencies defines the interface for ranking reads.
type RankingDependencies interface {
	Rankings(ctx context.Context, period model.Period, department string, limit int) ([]model.RankingResult, engine.Report, error)
	EmployeeResult(ctx context.Context, employeeID string, period model.Period) (model.RankingResult, error)
	MaxRankingLimit() int
}

// RankingResponse is the body of GET /rankings.
type RankingResponse struct {
	Period     model.Period          `json:"period"`
	Department string                `json:"department,omitempty"`
	Results    []model.RankingResult `json:"results"`
	Report     ReportBody            `json:"report"`
}

// ReportBody exposes the degradations met while computing a ranking.
type ReportBody struct {
	Employees            int      `json:"employees"`
	ElapsedMs            int64    `json:"elapsed_ms"`
	DataGaps             int      `json:"data_gaps"`
	ParseErrors          int      `json:"parse_errors"`
	MissingHistory       bool     `json:"missing_history"`
	WeightSum            float64  `json:"weight_sum"`
	RegistryInconsistent bool     `json:"registry_inconsistent"`
	Warnings             []string `json:"warnings,omitempty"`
}

func newReportBody(rep engine.Report) ReportBody {
	return ReportBody{
		Employees:            rep.Employees,
		ElapsedMs:            rep.Elapsed.Milliseconds(),
		DataGaps:             rep.DataGaps,
		ParseErrors:          rep.ParseErrors,
		MissingHistory:       rep.MissingHistory,
		WeightSum:            rep.WeightSum,
		RegistryInconsistent: rep.RegistryInconsistent(),
		Warnings:             rep.Warnings,
	}
}

// RankingHandler handles ranking requests.
type RankingHandler struct {
	deps RankingDependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleGetRankings handles GET /rankings?period=&department=&limit= requests.
func (h *RankingHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	period, err := periodParam(q.Get("period"))
	if err != nil {
		writeFailure(w, "rankings", err)
		return
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		maxLimit := h.deps.MaxRankingLimit()
		if convErr != nil || n < 1 || (maxLimit > 0 && n > maxLimit) {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind("rankings", ErrBadRequest, errLimit(maxLimit)))
			return
		}
		limit = n
	}
	department := strings.TrimSpace(q.Get("department"))

	results, rep, err := h.deps.Rankings(r.Context(), period, department, limit)
	if err != nil {
		writeFailure(w, "rankings", err)
		return
	}
	if results == nil {
		results = []model.RankingResult{}
	}
	writeJSON(w, http.StatusOK, RankingResponse{
		Period:     period,
		Department: department,
		Results:    results,
		Report:     newReportBody(rep),
	})
}

// HandleGetEmployeeRanking handles GET /rankings/{employee_id}?period= requests.
func (h *RankingHandler) HandleGetEmployeeRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathID(r.URL.Path, "/rankings/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("employee_ranking", ErrBadRequest))
		return
	}
	period, err := periodParam(r.URL.Query().Get("period"))
	if err != nil {
		writeFailure(w, "employee_ranking", err)
		return
	}
	res, err := h.deps.EmployeeResult(r.Context(), id, period)
	if err != nil {
		writeFailure(w, "employee_ranking", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// periodParam parses a period query value. Empty means consolidated.
func periodParam(raw string) (model.Period, error) {
	if strings.TrimSpace(raw) == "" {
		return model.Consolidated, nil
	}
	return model.ParsePeriod(raw)
}

// pathID extracts the single path segment after prefix.
func pathID(path, prefix string) (string, bool) {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || id == path || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

type limitError int

func (e limitError) Error() string {
	if e <= 0 {
		return "limit must be a positive integer"
	}
	return "limit must be between 1 and " + strconv.Itoa(int(e))
}

func errLimit(maxLimit int) error { return limitError(maxLimit) }
