package service

import (
	"time"

	"github.com/okian/rankengine/internal/adapters/repository"
	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending recompute jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxAttempts bounds the attempts per recomputed month.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStorage selects the storage driver and DSN opened on Start.
func WithStorage(driver, dsn string) Option {
	return func(s *Service) {
		s.storageDriver = driver
		s.storageDSN = dsn
	}
}

// WithStore uses an already constructed store instead of opening one.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRecomputeInterval schedules a full recompute periodically. Zero
// disables the timer.
func WithRecomputeInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.recomputeInterval = d
		}
	}
}

// WithSeedCriteria sets the criteria stored on Start when the store has none.
func WithSeedCriteria(criteria []model.Criterion) Option {
	return func(s *Service) {
		s.seedCriteria = criteria
	}
}

// WithInsightThresholds sets the strength and suggestion thresholds.
func WithInsightThresholds(strength, suggestion float64) Option {
	return func(s *Service) {
		s.strengthThreshold = strength
		s.suggestionThreshold = suggestion
	}
}

// WithDerivedCriteria names the criteria feeding absences and late counts.
func WithDerivedCriteria(absence, late string) Option {
	return func(s *Service) {
		s.absenceCriterion = absence
		s.lateCriterion = late
	}
}

// WithMaxRankingLimit caps the limit accepted by ranking reads.
func WithMaxRankingLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRankingLimit = n
		}
	}
}
