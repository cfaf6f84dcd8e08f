// Package service wires the store, the ranking engine and the recompute
// pipeline together, and implements the dependencies of the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/rankengine/internal/adapters/mq/queue"
	workerpool "github.com/okian/rankengine/internal/adapters/mq/worker"
	"github.com/okian/rankengine/internal/adapters/repository"
	"github.com/okian/rankengine/internal/domain/dedupe"
	"github.com/okian/rankengine/internal/domain/derived"
	"github.com/okian/rankengine/internal/domain/insight"
	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/internal/engine"
	"github.com/okian/rankengine/pkg/logger"
	"github.com/okian/rankengine/pkg/metrics"
)

// Service implements the API dependencies for the ranking engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  repository.Store
	engine *engine.Engine
	jobs   *jobTracker
	queue  *jobqueue.InMemoryQueue
	pool   *workerpool.Pool

	// periodLocks serializes recomputes of the same month.
	periodMu    sync.Mutex
	periodLocks map[model.Period]*sync.Mutex

	// Configuration
	workerCount         int
	queueSize           int
	maxAttempts         int
	storageDriver       string
	storageDSN          string
	recomputeInterval   time.Duration
	maxRankingLimit     int
	seedCriteria        []model.Criterion
	strengthThreshold   float64
	suggestionThreshold float64
	absenceCriterion    string
	lateCriterion       string

	// State
	started   bool
	ownsStore bool
	cancel    context.CancelFunc
	stopCh    chan struct{}
	wg        sync.WaitGroup

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:         runtime.NumCPU(),
		queueSize:           1_024,
		maxAttempts:         3,
		storageDriver:       repository.DriverMemory,
		maxRankingLimit:     500,
		strengthThreshold:   insight.DefaultStrengthThreshold,
		suggestionThreshold: insight.DefaultSuggestionThreshold,
		absenceCriterion:    derived.AttendanceCriterion,
		lateCriterion:       derived.PunctualityCriterion,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store, seeds criteria and starts the recompute workers.
// A full recompute is scheduled so persisted history is rebuilt.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.store == nil {
		store, err := repository.NewStore(s.storageDriver, s.storageDSN)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}
	if err := s.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	if err := s.seed(ctx); err != nil {
		return err
	}

	s.engine = engine.New(s.store, s.store, s.store,
		engine.WithHistory(s.store),
		engine.WithInsightGenerator(insight.NewGenerator(
			insight.WithStrengthThreshold(s.strengthThreshold),
			insight.WithSuggestionThreshold(s.suggestionThreshold),
		)),
		engine.WithDerivedTable(derived.NewTable(s.absenceCriterion, s.lateCriterion)),
	)
	s.queue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)
	// Pending keys are bounded by the number of distinct months plus one.
	queue := s.queue
	s.jobs = newJobTracker(
		dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.queueSize)),
		func(ctx context.Context, job model.RecomputeJob) error { return submitJob(ctx, queue, job) },
		s.logger,
	)

	// Workers outlive the start request.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.stopCh = make(chan struct{})

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, s.store,
		workerpool.WithMaxAttempts(s.maxAttempts),
		workerpool.WithTracker(s.jobs),
	)
	s.pool.Start(runCtx)

	if s.recomputeInterval > 0 {
		s.wg.Add(1)
		go s.refreshLoop(runCtx)
	}

	s.started = true
	if _, err := s.schedule(ctx, s.jobs, model.RecomputeJob{All: true}); err != nil {
		s.logger.Warn(ctx, "initial recompute not scheduled", logger.Error(err))
	}

	s.logger.Info(ctx, "ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("storage", s.storageDriver),
		logger.Duration("recomputeInterval", s.recomputeInterval),
	)

	return nil
}

// seed stores the configured criteria when the store has none.
func (s *Service) seed(ctx context.Context) error {
	if len(s.seedCriteria) == 0 {
		return nil
	}
	existing, err := s.store.Criteria(ctx)
	if err != nil {
		return fmt.Errorf("read criteria: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, c := range s.seedCriteria {
		if err := s.store.UpsertCriterion(ctx, c); err != nil {
			return fmt.Errorf("seed criterion %s: %w", c.ID, err)
		}
	}
	s.logger.Info(ctx, "criteria seeded", logger.Int("count", len(s.seedCriteria)))
	return nil
}

// refreshLoop schedules a full recompute on every tick.
func (s *Service) refreshLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.recomputeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if _, err := s.ScheduleRecompute(ctx, model.Consolidated); err != nil {
				s.logger.Warn(ctx, "periodic recompute not scheduled", logger.Error(err))
			}
		}
	}
}

// Stop gracefully shuts down the service. A store opened by Start is
// closed; a store passed with WithStore is left to the caller.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool, cancel := s.pool, s.cancel
	close(s.stopCh)
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping ranking service...")

	if pool != nil {
		_ = pool.Shutdown(ctx)
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "closing store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}
	s.mu.Unlock()

	s.logger.Info(ctx, "ranking service stopped")
}

// running is what a request needs from a started service. It is read under
// the service lock so Stop cannot swap it out mid-request.
type running struct {
	engine *engine.Engine
	store  repository.Store
	jobs   *jobTracker
}

// ready returns the started components.
func (s *Service) ready() (running, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return running{}, ErrNotStarted
	}
	return running{engine: s.engine, store: s.store, jobs: s.jobs}, nil
}

// lockPeriod returns the held lock of period.
func (s *Service) lockPeriod(period model.Period) *sync.Mutex {
	s.periodMu.Lock()
	if s.periodLocks == nil {
		s.periodLocks = map[model.Period]*sync.Mutex{}
	}
	l, ok := s.periodLocks[period]
	if !ok {
		l = &sync.Mutex{}
		s.periodLocks[period] = l
	}
	s.periodMu.Unlock()
	l.Lock()
	return l
}

// Recompute computes the company-wide ranking of period and persists it.
// It is the unit of work run by the recompute workers. Recomputes of the
// same month never overlap.
func (s *Service) Recompute(ctx context.Context, period model.Period) error {
	rt, err := s.ready()
	if err != nil {
		return err
	}
	defer s.lockPeriod(period).Unlock()

	results, _, err := rt.engine.ComputeRanking(ctx, period, "")
	if err != nil {
		return err
	}
	if err := rt.store.SaveRanking(ctx, period, results); err != nil {
		return fmt.Errorf("save ranking %s: %w", period, err)
	}
	s.logger.Debug(ctx, "ranking persisted",
		logger.String("period", period.String()),
		logger.Int("employees", len(results)),
	)
	return nil
}

// Rankings computes the ranking of period for department and keeps the
// first limit rows. A limit of zero keeps every row.
func (s *Service) Rankings(ctx context.Context, period model.Period, department string, limit int) ([]model.RankingResult, engine.Report, error) {
	rt, err := s.ready()
	if err != nil {
		return nil, engine.Report{}, err
	}
	results, rep, err := rt.engine.ComputeRanking(ctx, period, department)
	if err != nil {
		return nil, rep, err
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, rep, nil
}

// EmployeeResult returns one employee's row for period.
func (s *Service) EmployeeResult(ctx context.Context, employeeID string, period model.Period) (model.RankingResult, error) {
	rt, err := s.ready()
	if err != nil {
		return model.RankingResult{}, err
	}
	return rt.engine.ComputeForEmployee(ctx, employeeID, period)
}

// Evolution returns the monthly series of one employee.
func (s *Service) Evolution(ctx context.Context, employeeID string) (model.Evolution, error) {
	rt, err := s.ready()
	if err != nil {
		return model.Evolution{}, err
	}
	return rt.engine.Evolution(ctx, employeeID)
}

// Criteria lists every stored criterion.
func (s *Service) Criteria(ctx context.Context) ([]model.Criterion, error) {
	rt, err := s.ready()
	if err != nil {
		return nil, err
	}
	return rt.store.Criteria(ctx)
}

// UpsertCriterion stores c and schedules a full recompute.
func (s *Service) UpsertCriterion(ctx context.Context, c model.Criterion) error {
	rt, err := s.ready()
	if err != nil {
		return err
	}
	if err := rt.store.UpsertCriterion(ctx, c); err != nil {
		return err
	}
	metrics.RecordIngested("criteria", 1)
	s.afterWrite(ctx, rt)
	return nil
}

// UpsertEmployee stores e and schedules a full recompute.
func (s *Service) UpsertEmployee(ctx context.Context, e model.Employee) error {
	rt, err := s.ready()
	if err != nil {
		return err
	}
	if err := rt.store.UpsertEmployee(ctx, e); err != nil {
		return err
	}
	metrics.RecordIngested("employees", 1)
	s.afterWrite(ctx, rt)
	return nil
}

// AddMeasurements stores ms after checking their criteria exist, then
// schedules a full recompute: a changed month moves the variation of every
// later month.
func (s *Service) AddMeasurements(ctx context.Context, ms []model.Measurement) error {
	rt, err := s.ready()
	if err != nil {
		return err
	}
	known := map[string]bool{}
	for _, m := range ms {
		if known[m.CriterionID] {
			continue
		}
		if _, err := rt.store.Criterion(ctx, m.CriterionID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				metrics.RecordRejected("measurements", len(ms))
				return fmt.Errorf("%w: %s", ErrUnknownCriterion, m.CriterionID)
			}
			return err
		}
		known[m.CriterionID] = true
	}
	if err := rt.store.AddMeasurements(ctx, ms); err != nil {
		return err
	}
	metrics.RecordIngested("measurements", len(ms))
	s.afterWrite(ctx, rt)
	return nil
}

// afterWrite schedules a full recompute. A full queue is not an error for
// the write: the next write or tick schedules again.
func (s *Service) afterWrite(ctx context.Context, rt running) {
	if _, err := s.schedule(ctx, rt.jobs, model.RecomputeJob{All: true}); err != nil {
		s.logger.Warn(ctx, "recompute after write not scheduled", logger.Error(err))
	}
}

// ScheduleRecompute queues the recompute of period, or of every month for
// the consolidated scope. A scope already queued is not queued twice; a
// scope being recomputed runs once more after the current run.
func (s *Service) ScheduleRecompute(ctx context.Context, period model.Period) (model.JobReceipt, error) {
	rt, err := s.ready()
	if err != nil {
		return model.JobReceipt{}, err
	}
	job := model.RecomputeJob{Period: period}
	if period == "" || period.IsConsolidated() {
		job = model.RecomputeJob{All: true}
	}
	return s.schedule(ctx, rt.jobs, job)
}

func (s *Service) schedule(ctx context.Context, jobs *jobTracker, job model.RecomputeJob) (model.JobReceipt, error) {
	key := job.Key()
	if !jobs.admit(ctx, key) {
		return model.JobReceipt{Scope: key, Pending: true}, nil
	}
	job.ID = uuid.NewString()
	if err := jobs.submit(ctx, job); err != nil {
		jobs.drop(ctx, key)
		if errors.Is(err, jobqueue.ErrFull) {
			return model.JobReceipt{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return model.JobReceipt{}, err
	}
	s.logger.Debug(ctx, "recompute scheduled",
		logger.String("jobID", job.ID),
		logger.String("scope", key),
	)
	return model.JobReceipt{JobID: job.ID, Scope: key}, nil
}

// submitJob stamps job and puts it on q.
func submitJob(ctx context.Context, q *jobqueue.InMemoryQueue, job model.RecomputeJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.EnqueuedAt = time.Now().UTC()
	return q.Submit(ctx, job)
}

// MaxRankingLimit returns the largest accepted ranking limit.
func (s *Service) MaxRankingLimit() int { return s.maxRankingLimit }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"storage":     s.storageDriver,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["pendingJobs"] = s.jobs.Size()
		stats["processedJobs"] = s.pool.Processed()

		if counts, err := s.store.Count(ctx); err == nil {
			stats["records"] = counts
			metrics.UpdateStoreRecords("criteria", counts.Criteria)
			metrics.UpdateStoreRecords("employees", counts.Employees)
			metrics.UpdateStoreRecords("measurements", counts.Measurements)
			metrics.UpdateStoreRecords("rankings", counts.Rankings)
		}

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
