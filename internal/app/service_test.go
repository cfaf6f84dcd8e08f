package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/rankengine/internal/adapters/repository"
	service "github.com/okian/rankengine/internal/app"
	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/internal/engine"
	"github.com/okian/rankengine/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var seed = []model.Criterion{
	{ID: "prod", Name: "Produtividade", Weight: 70, Direction: model.HigherBetter, DisplayOrder: 1, Active: true},
	{ID: "pont", Name: "Pontualidade", Weight: 30, Direction: model.LowerBetter, DisplayOrder: 2, Active: true},
}

func meas(emp, crit, period string, raw any) model.Measurement {
	m, err := model.NewMeasurement(emp, crit, period, raw)
	if err != nil {
		panic(err)
	}
	return m
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithMaxRankingLimit(10),
		)

		Convey("Then it should be created but not started", func() {
			So(svc, ShouldNotBeNil)
			So(svc.MaxRankingLimit(), ShouldEqual, 10)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("Then reads should fail before Start", func() {
			_, _, err := svc.Rankings(context.Background(), "2024-01", "", 0)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a started service over an in-memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(
			service.WithStore(store),
			service.WithWorkerCount(2),
			service.WithSeedCriteria(seed),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the seed criteria should be stored", func() {
			crits, err := svc.Criteria(ctx)
			So(err, ShouldBeNil)
			So(crits, ShouldHaveLength, 2)
		})

		Convey("When measurements and employees are written", func() {
			So(svc.UpsertEmployee(ctx, model.Employee{ID: "e1", Name: "Ana", Department: "Sales"}), ShouldBeNil)
			So(svc.UpsertEmployee(ctx, model.Employee{ID: "e2", Name: "Bruno", Department: "Ops"}), ShouldBeNil)
			So(svc.AddMeasurements(ctx, []model.Measurement{
				meas("e1", "prod", "2024-01", 60), meas("e1", "pont", "2024-01", 0),
				meas("e2", "prod", "2024-01", 90), meas("e2", "pont", "2024-01", 10),
				meas("e1", "prod", "2024-02", 100), meas("e1", "pont", "2024-02", 0),
				meas("e2", "prod", "2024-02", 80), meas("e2", "pont", "2024-02", 20),
			}), ShouldBeNil)

			Convey("Then rankings should be persisted in the background", func() {
				So(eventually(func() bool {
					rows, _ := store.Ranking(ctx, "2024-02")
					return len(rows) == 2 && rows[0].RankVariation != nil
				}), ShouldBeTrue)
				rows, _ := store.Ranking(ctx, "2024-02")
				So(rows[0].EmployeeID, ShouldEqual, "e1")
				So(*rows[0].RankVariation, ShouldEqual, 1)
			})

			Convey("Then live reads should honor department and limit", func() {
				rows, rep, err := svc.Rankings(ctx, "2024-02", "", 1)
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].EmployeeName, ShouldEqual, "Ana")
				So(rep.Employees, ShouldEqual, 2)

				rows, _, err = svc.Rankings(ctx, "2024-02", "Ops", 0)
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].RankPosition, ShouldEqual, 1)
			})

			Convey("Then employee reads and evolution should be served", func() {
				r, err := svc.EmployeeResult(ctx, "e2", model.Consolidated)
				So(err, ShouldBeNil)
				So(r.Period, ShouldEqual, model.Consolidated)

				evo, err := svc.Evolution(ctx, "e2")
				So(err, ShouldBeNil)
				So(evo.Months, ShouldHaveLength, 2)
				So(evo.DelaysByMonth, ShouldHaveLength, 2)

				_, err = svc.EmployeeResult(ctx, "ghost", "2024-02")
				So(errors.Is(err, engine.ErrEmployeeNotFound), ShouldBeTrue)
			})
		})

		Convey("When a measurement references an unknown criterion", func() {
			err := svc.AddMeasurements(ctx, []model.Measurement{meas("e1", "nope", "2024-01", 1)})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, service.ErrUnknownCriterion), ShouldBeTrue)
			})
		})

		Convey("When recomputes are requested", func() {
			first, err := svc.ScheduleRecompute(ctx, "2024-05")
			So(err, ShouldBeNil)

			Convey("Then a job should be scheduled for the month", func() {
				So(first.Scope, ShouldEqual, "2024-05")
				So(first.Pending || first.JobID != "", ShouldBeTrue)
			})
		})

		Convey("Then stats should describe the running service", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats, ShouldContainKey, "queueLength")
			So(stats, ShouldContainKey, "records")
		})
	})
}

func TestService_StopDuringRequests(t *testing.T) {
	Convey("Given a started service that owns its store", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithSeedCriteria(seed),
		)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When requests race with Stop", func() {
			var wg sync.WaitGroup
			panics := make(chan any, 64)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer func() {
						if r := recover(); r != nil {
							panics <- r
						}
					}()
					for j := 0; j < 50; j++ {
						_, _ = svc.Criteria(ctx)
						_ = svc.UpsertCriterion(ctx, seed[0])
						_ = svc.AddMeasurements(ctx, []model.Measurement{meas("e1", "prod", "2024-01", 5)})
						_ = svc.Recompute(ctx, "2024-01")
					}
				}()
			}
			svc.Stop()
			wg.Wait()
			close(panics)

			Convey("Then no request should panic and later ones report not started", func() {
				So(len(panics), ShouldEqual, 0)
				_, err := svc.Criteria(ctx)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(svc.Recompute(ctx, "2024-01"), service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}
