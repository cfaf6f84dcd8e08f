package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/rankengine/internal/domain/dedupe"
	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingSubmit struct {
	mu   sync.Mutex
	jobs []model.RecomputeJob
	err  error
}

func (r *recordingSubmit) submit(_ context.Context, job model.RecomputeJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, job)
	return nil
}

func TestJobTracker(t *testing.T) {
	Convey("Given a job tracker", t, func() {
		_ = logger.Init()
		ctx := context.Background()
		sub := &recordingSubmit{}
		tr := newJobTracker(dedupe.NewInMemoryDeduper(), sub.submit, logger.Get())
		all := model.RecomputeJob{All: true}

		Convey("A scope is admitted once while queued", func() {
			So(tr.admit(ctx, model.AllPeriodsKey), ShouldBeTrue)
			So(tr.admit(ctx, model.AllPeriodsKey), ShouldBeFalse)

			Convey("And finishing without new requests releases it", func() {
				tr.Started(ctx, model.AllPeriodsKey)
				tr.Finished(ctx, all)
				So(sub.jobs, ShouldBeEmpty)
				So(tr.Size(), ShouldEqual, 0)
				So(tr.admit(ctx, model.AllPeriodsKey), ShouldBeTrue)
			})
		})

		Convey("A request while the scope runs does not start a parallel job", func() {
			So(tr.admit(ctx, model.AllPeriodsKey), ShouldBeTrue)
			tr.Started(ctx, model.AllPeriodsKey)

			So(tr.admit(ctx, model.AllPeriodsKey), ShouldBeFalse)
			So(tr.admit(ctx, model.AllPeriodsKey), ShouldBeFalse)
			So(sub.jobs, ShouldBeEmpty)

			Convey("Then exactly one rerun is queued after the run, keeping the key", func() {
				tr.Finished(ctx, all)
				So(sub.jobs, ShouldHaveLength, 1)
				So(sub.jobs[0].All, ShouldBeTrue)
				So(tr.Size(), ShouldEqual, 1)
				So(tr.admit(ctx, model.AllPeriodsKey), ShouldBeFalse)

				tr.Started(ctx, model.AllPeriodsKey)
				tr.Finished(ctx, all)
				So(sub.jobs, ShouldHaveLength, 1)
				So(tr.Size(), ShouldEqual, 0)
			})
		})

		Convey("A request while the scope is only queued needs no rerun", func() {
			So(tr.admit(ctx, "2024-01"), ShouldBeTrue)
			So(tr.admit(ctx, "2024-01"), ShouldBeFalse)
			tr.Started(ctx, "2024-01")
			tr.Finished(ctx, model.RecomputeJob{Period: "2024-01"})
			So(sub.jobs, ShouldBeEmpty)
		})

		Convey("A rerun that cannot be queued releases the key", func() {
			So(tr.admit(ctx, model.AllPeriodsKey), ShouldBeTrue)
			tr.Started(ctx, model.AllPeriodsKey)
			So(tr.admit(ctx, model.AllPeriodsKey), ShouldBeFalse)

			sub.err = errors.New("queue full")
			tr.Finished(ctx, all)
			So(tr.Size(), ShouldEqual, 0)
			So(tr.admit(ctx, model.AllPeriodsKey), ShouldBeTrue)
		})
	})
}

func TestPeriodLock(t *testing.T) {
	Convey("Given a service", t, func() {
		s := New()

		Convey("Recomputes of one month are serialized", func() {
			l := s.lockPeriod("2024-01")
			acquired := make(chan struct{})
			go func() {
				s.lockPeriod("2024-01").Unlock()
				close(acquired)
			}()

			other := s.lockPeriod("2024-02")
			other.Unlock()

			early := false
			select {
			case <-acquired:
				early = true
			default:
			}
			So(early, ShouldBeFalse)
			l.Unlock()
			<-acquired
		})
	})
}
