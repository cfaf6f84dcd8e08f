// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/rankengine/internal/domain/model"
)

const maxBodyBytes = 4 << 20

// IngestDependencies defines the interface for registry and data writes.
type IngestDependencies interface {
	Criteria(ctx context.Context) ([]model.Criterion, error)
	UpsertCriterion(ctx context.Context, c model.Criterion) error
	UpsertEmployee(ctx context.Context, e model.Employee) error
	AddMeasurements(ctx context.Context, ms []model.Measurement) error
}

// CriterionRequest is the body of POST /criteria.
type CriterionRequest struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Weight       float64 `json:"weight"`
	Direction    string  `json:"direction"`
	DisplayOrder int     `json:"display_order"`
	Active       *bool   `json:"active"`
}

// MeasurementRequest is one item of POST /measurements.
type MeasurementRequest struct {
	EmployeeID  string `json:"employee_id"`
	CriterionID string `json:"criterion_id"`
	Period      string `json:"period"`
	RawValue    any    `json:"raw_value"`
}

// IngestResponse acknowledges a write.
type IngestResponse struct {
	Status   string `json:"status"`
	Accepted int    `json:"accepted"`
}

// IngestHandler handles registry and measurement writes.
type IngestHandler struct {
	deps IngestDependencies
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(deps IngestDependencies) *IngestHandler {
	return &IngestHandler{deps: deps}
}

// HandleCriteria handles GET and POST /criteria requests.
func (h *IngestHandler) HandleCriteria(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := h.deps.Criteria(r.Context())
		if err != nil {
			writeFailure(w, "criteria", err)
			return
		}
		if list == nil {
			list = []model.Criterion{}
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		h.postCriterion(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *IngestHandler) postCriterion(w http.ResponseWriter, r *http.Request) {
	var req CriterionRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, "criteria", err)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	c, err := model.NewCriterion(model.Criterion{
		ID:           req.ID,
		Name:         req.Name,
		Description:  req.Description,
		Weight:       req.Weight,
		Direction:    model.Direction(req.Direction),
		DisplayOrder: req.DisplayOrder,
		Active:       active,
	})
	if err != nil {
		writeFailure(w, "criteria", err)
		return
	}
	if err := h.deps.UpsertCriterion(r.Context(), c); err != nil {
		writeFailure(w, "criteria", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandlePostEmployee handles POST /employees requests.
func (h *IngestHandler) HandlePostEmployee(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req model.Employee
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, "employees", err)
		return
	}
	e, err := model.NewEmployee(req)
	if err != nil {
		writeFailure(w, "employees", err)
		return
	}
	if err := h.deps.UpsertEmployee(r.Context(), e); err != nil {
		writeFailure(w, "employees", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandlePostMeasurements handles POST /measurements requests. The body is a
// single measurement or an array of them; the batch is rejected as a whole
// when any item is invalid.
func (h *IngestHandler) HandlePostMeasurements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	reqs, err := decodeMeasurements(r)
	if err != nil {
		writeFailure(w, "measurements", err)
		return
	}
	ms := make([]model.Measurement, 0, len(reqs))
	for i, req := range reqs {
		m, err := model.NewMeasurement(req.EmployeeID, req.CriterionID, req.Period, req.RawValue)
		if err != nil {
			writeFailure(w, "measurements", fmt.Errorf("item %d: %w", i, err))
			return
		}
		ms = append(ms, m)
	}
	if err := h.deps.AddMeasurements(r.Context(), ms); err != nil {
		writeFailure(w, "measurements", err)
		return
	}
	writeJSON(w, http.StatusAccepted, IngestResponse{Status: "accepted", Accepted: len(ms)})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func decodeMeasurements(r *http.Request) ([]MeasurementRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrBadRequest)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var reqs []MeasurementRequest
	if body[0] == '[' {
		if err := dec.Decode(&reqs); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
	} else {
		var one MeasurementRequest
		if err := dec.Decode(&one); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		reqs = append(reqs, one)
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: no measurements", ErrBadRequest)
	}
	return reqs, nil
}
