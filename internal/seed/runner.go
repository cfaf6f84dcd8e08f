package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/okian/rankengine/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// ErrNoCriteria is returned when the service has no active criteria.
var ErrNoCriteria = errors.New("no active criteria")

// Run seeds the service and prints the resulting consolidated ranking.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("seed")

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("employees", cfg.Employees),
		logger.Int("months", cfg.Months),
		logger.String("endMonth", cfg.EndMonth),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	criteria, err := client.Criteria(ctx)
	if err != nil {
		return fmt.Errorf("criteria fetch failed: %w", err)
	}
	if !anyActive(criteria) {
		return ErrNoCriteria
	}

	ds, err := NewGenerator(cfg).Generate(criteria)
	if err != nil {
		return fmt.Errorf("dataset generation failed: %w", err)
	}
	log.Info(ctx, "generated dataset",
		logger.Int("employees", len(ds.Employees)),
		logger.Int("measurements", len(ds.Measurements)),
	)

	if err := submitEmployees(ctx, client, cfg, ds.Employees, stats); err != nil {
		return fmt.Errorf("employee submission failed: %w", err)
	}
	submitMeasurements(ctx, client, cfg, ds.Measurements, stats)

	if err := client.Recompute(ctx); err != nil {
		log.Warn(ctx, "recompute not scheduled", logger.Error(err))
	}

	rows, err := client.Rankings(ctx, "", cfg.TopN)
	if err != nil {
		return fmt.Errorf("ranking retrieval failed: %w", err)
	}
	stats.RankingRows = len(rows)
	for _, r := range rows {
		log.Info(ctx, "ranking",
			logger.Int("position", r.RankPosition),
			logger.String("employee", r.EmployeeName),
			logger.String("department", r.Department),
			logger.Float64("total", r.TotalScore),
		)
	}

	if err := saveDataset(ctx, cfg, ds); err != nil {
		log.Warn(ctx, "failed to save dataset", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return nil
}

func anyActive(criteria []Criterion) bool {
	for _, c := range criteria {
		if c.Active {
			return true
		}
	}
	return false
}

// submitEmployees posts every employee with at most cfg.Workers requests in
// flight. The first failure aborts the run: measurements need their owner.
func submitEmployees(ctx context.Context, client *Client, cfg *Config, employees []Employee, stats *Stats) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	var sent atomic.Int64
	for _, e := range employees {
		g.Go(func() error {
			if err := client.PostEmployee(gctx, e); err != nil {
				return fmt.Errorf("employee %s: %w", e.ID, err)
			}
			sent.Add(1)
			return nil
		})
	}
	err := g.Wait()
	stats.EmployeesSubmitted = int(sent.Load())
	return err
}

// submitMeasurements posts the batches concurrently. Failed batches are
// counted and logged; the run goes on.
func submitMeasurements(ctx context.Context, client *Client, cfg *Config, ms []Measurement, stats *Stats) {
	log := logger.Get().Named("seed")
	batches := Batches(ms, cfg.BatchSize)

	var g errgroup.Group
	g.SetLimit(max(cfg.Workers, 1))
	var ok, failed, sent atomic.Int64
	for i, batch := range batches {
		g.Go(func() error {
			if err := client.PostMeasurements(ctx, batch); err != nil {
				failed.Add(1)
				log.Warn(ctx, "batch rejected", logger.Int("batch", i), logger.Error(err))
				return nil
			}
			ok.Add(1)
			sent.Add(int64(len(batch)))
			if cfg.Verbose {
				log.Debug(ctx, "batch accepted", logger.Int("batch", i), logger.Int("size", len(batch)))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.BatchesSubmitted = int(ok.Load())
	stats.BatchesFailed = int(failed.Load())
	stats.MeasurementsSent = int(sent.Load())
}

// saveDataset writes the generated dataset as indented JSON.
func saveDataset(ctx context.Context, cfg *Config, ds *Dataset) error {
	filename := cfg.OutputFile
	if filename == "" {
		filename = "seed_dataset_" + time.Now().Format("20060102_150405") + ".json"
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	logger.Get().Info(ctx, "dataset saved to file", logger.String("filename", filename))
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.MeasurementsSent) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("employeesSubmitted", stats.EmployeesSubmitted),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("measurementsSent", stats.MeasurementsSent),
		logger.Int("rankingRows", stats.RankingRows),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("measurementsPerSecond", perSecond),
	)
}
