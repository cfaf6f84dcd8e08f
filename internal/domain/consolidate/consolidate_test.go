package consolidate_test

import (
	"math"
	"testing"

	"github.com/okian/rankengine/internal/domain/consolidate"
	"github.com/okian/rankengine/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func row(period string, total float64, absences, late int, scores ...model.CriterionScore) model.RankingResult {
	return model.RankingResult{
		EmployeeID:      "e1",
		EmployeeName:    "Ana " + period,
		Department:      "TI",
		Period:          model.Period(period),
		TotalScore:      total,
		CriterionScores: scores,
		AbsencesCount:   absences,
		LateCount:       late,
	}
}

func cs(id string, normalized, weight float64) model.CriterionScore {
	return model.CriterionScore{
		CriterionID:     id,
		CriterionName:   id,
		NormalizedScore: normalized,
		Weight:          weight,
		WeightedScore:   math.Round(normalized*weight) / 100,
	}
}

func TestConsolidate(t *testing.T) {
	Convey("Given three monthly rows for one employee", t, func() {
		rows := []model.RankingResult{
			row("2024-03", 70, 1, 0, cs("prod", 70, 60), cs("assid", 70, 40)),
			row("2024-01", 84, 2, 3, cs("prod", 80, 60), cs("assid", 90, 40)),
			row("2024-02", 50, 0, 1, cs("prod", 50, 60), cs("assid", 50, 40)),
		}

		Convey("When consolidating", func() {
			out, ok := consolidate.Consolidate(rows)

			Convey("Then the total should be the sum of monthly totals", func() {
				So(ok, ShouldBeTrue)
				So(out.Period, ShouldEqual, model.Consolidated)
				So(out.TotalScore, ShouldEqual, 204.0)
			})

			Convey("And weighted scores should be summed per criterion", func() {
				So(out.CriterionScores, ShouldHaveLength, 2)
				So(out.CriterionScores[0].CriterionID, ShouldEqual, "prod")
				So(out.CriterionScores[0].WeightedScore, ShouldEqual, 48.0+30.0+42.0)
				So(out.CriterionScores[1].WeightedScore, ShouldEqual, 36.0+20.0+28.0)
			})

			Convey("And normalized scores should be the mean per criterion", func() {
				So(out.CriterionScores[0].NormalizedScore, ShouldEqual, 66.67)
				So(out.CriterionScores[1].NormalizedScore, ShouldEqual, 70.0)
			})

			Convey("And counters should be summed", func() {
				So(out.AbsencesCount, ShouldEqual, 3)
				So(out.LateCount, ShouldEqual, 4)
			})

			Convey("And identity should come from the latest month", func() {
				So(out.EmployeeName, ShouldEqual, "Ana 2024-03")
				So(out.RankVariation, ShouldBeNil)
			})

			Convey("And the input rows should not be reordered", func() {
				So(rows[0].Period, ShouldEqual, model.Period("2024-03"))
			})
		})
	})

	Convey("Given no rows", t, func() {
		_, ok := consolidate.Consolidate(nil)

		Convey("Then nothing should be produced", func() {
			So(ok, ShouldBeFalse)
		})
	})
}
