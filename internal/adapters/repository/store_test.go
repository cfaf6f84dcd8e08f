package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

func mustMeasurement(emp, crit, period string, raw any) model.Measurement {
	m, err := model.NewMeasurement(emp, crit, period, raw)
	if err != nil {
		panic(err)
	}
	return m
}

// exerciseStore runs the shared contract against a fresh store.
func exerciseStore(newStore func() Store) {
	ctx := context.Background()
	store := newStore()
	So(store.Init(ctx), ShouldBeNil)
	Reset(func() { _ = store.Close() })

	Convey("When criteria are upserted", func() {
		c := model.Criterion{ID: "prod", Name: "Produtividade", Weight: 60, Direction: model.HigherBetter, DisplayOrder: 1, Active: true}
		So(store.UpsertCriterion(ctx, c), ShouldBeNil)
		c.Weight = 70
		c.Active = false
		So(store.UpsertCriterion(ctx, c), ShouldBeNil)

		Convey("Then the latest version should win", func() {
			all, err := store.Criteria(ctx)
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 1)
			So(all[0].Weight, ShouldEqual, 70)
			So(all[0].Active, ShouldBeFalse)

			got, err := store.Criterion(ctx, "prod")
			So(err, ShouldBeNil)
			So(got.Direction, ShouldEqual, model.HigherBetter)
		})

		Convey("Then unknown criteria should be reported as not found", func() {
			_, err := store.Criterion(ctx, "nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("When employees are upserted", func() {
		So(store.UpsertEmployee(ctx, model.Employee{ID: "b", Name: "Bruno", Department: "Sales"}), ShouldBeNil)
		So(store.UpsertEmployee(ctx, model.Employee{ID: "a", Name: "Ana", Department: "Ops", Position: "Lead"}), ShouldBeNil)

		Convey("Then the directory should be ordered by id", func() {
			emps, err := store.Employees(ctx)
			So(err, ShouldBeNil)
			So(emps, ShouldHaveLength, 2)
			So(emps[0].ID, ShouldEqual, "a")
			So(emps[0].Position, ShouldEqual, "Lead")
		})
	})

	Convey("When measurements are added", func() {
		So(store.AddMeasurements(ctx, []model.Measurement{
			mustMeasurement("a", "prod", "2024-02", 80),
			mustMeasurement("a", "prod", "2024-01", "n/a"),
			mustMeasurement("b", "prod", "2024-02", 60.5),
		}), ShouldBeNil)

		Convey("Then they should be selectable by period", func() {
			ms, err := store.Measurements(ctx, model.MeasurementQuery{Period: "2024-02"})
			So(err, ShouldBeNil)
			So(ms, ShouldHaveLength, 2)
			v, ok := ms[1].Raw.Float64()
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 60.5)
		})

		Convey("Then they should be selectable by employee across periods", func() {
			ms, err := store.Measurements(ctx, model.MeasurementQuery{Period: model.Consolidated, EmployeeID: "a"})
			So(err, ShouldBeNil)
			So(ms, ShouldHaveLength, 2)
			So(ms[1].Raw.Valid(), ShouldBeFalse)
		})

		Convey("Then the periods should be listed in order", func() {
			periods, err := store.Periods(ctx)
			So(err, ShouldBeNil)
			So(periods, ShouldResemble, []model.Period{"2024-01", "2024-02"})
		})
	})

	Convey("When a ranking is saved twice for the same period", func() {
		v := 1
		first := []model.RankingResult{
			{EmployeeID: "a", EmployeeName: "Ana", Period: "2024-02", TotalScore: 90, RankPosition: 1},
			{EmployeeID: "b", EmployeeName: "Bruno", Period: "2024-02", TotalScore: 70, RankPosition: 2},
		}
		second := []model.RankingResult{
			{EmployeeID: "b", EmployeeName: "Bruno", Period: "2024-02", TotalScore: 95, RankPosition: 1, RankVariation: &v,
				CriterionScores: []model.CriterionScore{{CriterionID: "prod", NormalizedScore: 95, Weight: 100, WeightedScore: 95}}},
		}
		So(store.SaveRanking(ctx, "2024-02", first), ShouldBeNil)
		So(store.SaveRanking(ctx, "2024-02", second), ShouldBeNil)

		Convey("Then only the latest ranking should remain", func() {
			rows, err := store.Ranking(ctx, "2024-02")
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
			So(rows[0].EmployeeID, ShouldEqual, "b")
			So(*rows[0].RankVariation, ShouldEqual, 1)
			So(rows[0].CriterionScores[0].WeightedScore, ShouldEqual, 95)
		})

		Convey("Then other periods should be empty", func() {
			rows, err := store.Ranking(ctx, "2024-01")
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
		})

		Convey("Then counts should reflect the stored rows", func() {
			c, err := store.Count(ctx)
			So(err, ShouldBeNil)
			So(c.Rankings, ShouldEqual, 1)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		exerciseStore(func() Store { return NewMemoryStore() })
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a SQLite store in a temporary directory", t, func() {
		dir := t.TempDir()
		exerciseStore(func() Store {
			s, err := NewSQLite("file:" + filepath.Join(dir, "rank.db"))
			So(err, ShouldBeNil)
			return s
		})
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("RANKENGINE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RANKENGINE_TEST_POSTGRES_DSN not set")
	}
	Convey("Given a PostgreSQL store", t, func() {
		exerciseStore(func() Store {
			s, err := NewPostgres(dsn)
			So(err, ShouldBeNil)
			ss := s.(*sqlStore)
			for _, table := range []string{"criteria", "employees", "measurements", "rankings"} {
				_, _ = ss.db.Exec("DROP TABLE IF EXISTS " + table)
			}
			return s
		})
	})
}

func TestNewStore(t *testing.T) {
	Convey("Given the store factory", t, func() {
		Convey("When asking for the default driver", func() {
			s, err := NewStore("", "")

			Convey("Then an in-memory store should be returned", func() {
				So(err, ShouldBeNil)
				_, ok := s.(*MemoryStore)
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When asking for an unknown driver", func() {
			_, err := NewStore("mongodb", "")

			Convey("Then ErrUnsupportedDriver should be returned", func() {
				So(errors.Is(err, ErrUnsupportedDriver), ShouldBeTrue)
			})
		})
	})
}

func TestRebind(t *testing.T) {
	Convey("Given a query with question-mark placeholders", t, func() {
		q := `SELECT a FROM t WHERE x = ? AND y = ?`

		Convey("Then numbered drivers should get $n placeholders", func() {
			So((&sqlStore{numbered: true}).rebind(q), ShouldEqual, `SELECT a FROM t WHERE x = $1 AND y = $2`)
			So((&sqlStore{}).rebind(q), ShouldEqual, q)
		})
	})
}
