package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/pkg/logger"
	"github.com/okian/rankengine/pkg/metrics"
)

// MemoryStore keeps everything in process memory. It is safe for
// concurrent use; rankings are replaced per period under the write lock.
type MemoryStore struct {
	mu sync.RWMutex

	criteria     map[string]model.Criterion
	employees    map[string]model.Employee
	measurements []model.Measurement
	rankings     map[model.Period][]model.RankingResult

	logger logger.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := newSettings(opts)
	return &MemoryStore{
		criteria:  map[string]model.Criterion{},
		employees: map[string]model.Employee{},
		rankings:  map[model.Period][]model.RankingResult{},
		logger:    s.logger,
	}
}

// Init is a no-op.
func (s *MemoryStore) Init(ctx context.Context) error {
	s.logger.Debug(ctx, "using in-memory store")
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Criteria(context.Context) ([]model.Criterion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Criterion, 0, len(s.criteria))
	for _, c := range s.criteria {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Criterion(_ context.Context, id string) (model.Criterion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.criteria[id]
	if !ok {
		return model.Criterion{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) UpsertCriterion(_ context.Context, c model.Criterion) error {
	s.mu.Lock()
	s.criteria[c.ID] = c
	n := len(s.criteria)
	s.mu.Unlock()
	metrics.UpdateStoreRecords("criteria", n)
	return nil
}

func (s *MemoryStore) Employees(context.Context) ([]model.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpsertEmployee(_ context.Context, e model.Employee) error {
	s.mu.Lock()
	s.employees[e.ID] = e
	n := len(s.employees)
	s.mu.Unlock()
	metrics.UpdateStoreRecords("employees", n)
	return nil
}

func (s *MemoryStore) Measurements(_ context.Context, q model.MeasurementQuery) ([]model.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Measurement, 0, len(s.measurements))
	for _, m := range s.measurements {
		if q.Matches(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryStore) AddMeasurements(_ context.Context, ms []model.Measurement) error {
	s.mu.Lock()
	s.measurements = append(s.measurements, ms...)
	n := len(s.measurements)
	s.mu.Unlock()
	metrics.UpdateStoreRecords("measurements", n)
	return nil
}

func (s *MemoryStore) Periods(context.Context) ([]model.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[model.Period]struct{}{}
	out := []model.Period{}
	for _, m := range s.measurements {
		p := model.Period(m.Period.Month())
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *MemoryStore) Ranking(_ context.Context, period model.Period) ([]model.RankingResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.rankings[period]
	out := make([]model.RankingResult, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *MemoryStore) SaveRanking(_ context.Context, period model.Period, rows []model.RankingResult) error {
	stored := make([]model.RankingResult, len(rows))
	for i, r := range rows {
		stored[i] = r.Clone()
	}
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].RankPosition < stored[j].RankPosition })

	s.mu.Lock()
	s.rankings[period] = stored
	n := 0
	for _, rs := range s.rankings {
		n += len(rs)
	}
	s.mu.Unlock()
	metrics.UpdateStoreRecords("rankings", n)
	return nil
}

func (s *MemoryStore) Count(context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := Counts{
		Criteria:     len(s.criteria),
		Employees:    len(s.employees),
		Measurements: len(s.measurements),
	}
	for _, rs := range s.rankings {
		c.Rankings += len(rs)
	}
	return c, nil
}
