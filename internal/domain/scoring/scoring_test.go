package scoring_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/okian/rankengine/internal/domain/model"
	scoring "github.com/okian/rankengine/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func measurement(emp, crit, period string, raw any) model.Measurement {
	m, err := model.NewMeasurement(emp, crit, period, raw)
	if err != nil {
		panic(err)
	}
	return m
}

func TestNormalize(t *testing.T) {
	Convey("Given raw values for a higher_better criterion", t, func() {
		Convey("When the value is within range", func() {
			v, err := scoring.Normalize(model.NumericRaw(73.5), model.HigherBetter)

			Convey("Then it should be returned unchanged", func() {
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 73.5)
			})
		})

		Convey("When the value is out of range", func() {
			low, _ := scoring.Normalize(model.NumericRaw(-12), model.HigherBetter)
			high, _ := scoring.Normalize(model.NumericRaw(180), model.HigherBetter)

			Convey("Then it should be clamped to [0,100]", func() {
				So(low, ShouldEqual, 0.0)
				So(high, ShouldEqual, 100.0)
			})
		})

		Convey("When the value is not numeric", func() {
			v, err := scoring.Normalize(model.ParseRawValue("x"), model.HigherBetter)

			Convey("Then it should degrade to zero and report ErrUnparsable", func() {
				So(v, ShouldEqual, 0.0)
				So(errors.Is(err, scoring.ErrUnparsable), ShouldBeTrue)
			})
		})
	})

	Convey("Given raw values for a lower_better criterion", t, func() {
		Convey("Then a smaller raw value should score higher", func() {
			few, _ := scoring.Normalize(model.NumericRaw(3), model.LowerBetter)
			many, _ := scoring.Normalize(model.NumericRaw(40), model.LowerBetter)
			So(few, ShouldEqual, 97.0)
			So(many, ShouldEqual, 60.0)
			So(few, ShouldBeGreaterThan, many)
		})

		Convey("Then out-of-range raw values should stay inside [0,100]", func() {
			v, _ := scoring.Normalize(model.NumericRaw(250), model.LowerBetter)
			So(v, ShouldEqual, 0.0)
			v, _ = scoring.Normalize(model.NumericRaw(-5), model.LowerBetter)
			So(v, ShouldEqual, 100.0)
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given a registry of Produtividade (60) and Assiduidade (40)", t, func() {
		reg := model.NewRegistry([]model.Criterion{
			{ID: "prod", Name: "Produtividade", Weight: 60, Direction: model.HigherBetter, DisplayOrder: 1, Active: true},
			{ID: "assid", Name: "Assiduidade", Weight: 40, Direction: model.HigherBetter, DisplayOrder: 2, Active: true},
		})

		Convey("When the employee scores 80 and 90", func() {
			ps, deg := scoring.Aggregate(reg, "e1", "2024-01", []model.Measurement{
				measurement("e1", "prod", "2024-01", 80),
				measurement("e1", "assid", "2024-01", 90),
			})

			Convey("Then the total should be 84", func() {
				So(ps.Total, ShouldEqual, 84.0)
				So(ps.Scores, ShouldHaveLength, 2)
				So(ps.Scores[0].WeightedScore, ShouldEqual, 48.0)
				So(ps.Scores[1].WeightedScore, ShouldEqual, 36.0)
				So(deg, ShouldResemble, scoring.Degradations{})
			})
		})

		Convey("When a criterion has no measurement", func() {
			ps, deg := scoring.Aggregate(reg, "e1", "2024-01", []model.Measurement{
				measurement("e1", "prod", "2024-01", 70),
			})

			Convey("Then it should be present with explicit zeros", func() {
				So(ps.Scores, ShouldHaveLength, 2)
				So(ps.Scores[1].CriterionID, ShouldEqual, "assid")
				So(ps.Scores[1].NormalizedScore, ShouldEqual, 0.0)
				So(ps.Scores[1].WeightedScore, ShouldEqual, 0.0)
				So(ps.Total, ShouldEqual, 42.0)
				So(deg.DataGaps, ShouldEqual, 1)
			})
		})

		Convey("When a raw value cannot be parsed", func() {
			ps, deg := scoring.Aggregate(reg, "e1", "2024-01", []model.Measurement{
				measurement("e1", "prod", "2024-01", "not a number"),
				measurement("e1", "assid", "2024-01", 50),
			})

			Convey("Then it should contribute zero and be counted", func() {
				So(ps.Scores[0].NormalizedScore, ShouldEqual, 0.0)
				So(ps.Total, ShouldEqual, 20.0)
				So(deg.ParseErrors, ShouldEqual, 1)
			})
		})

		Convey("When a criterion is measured twice in the month", func() {
			ps, _ := scoring.Aggregate(reg, "e1", "2024-01", []model.Measurement{
				measurement("e1", "prod", "2024-01", 70),
				measurement("e1", "prod", "2024-01", 91),
				measurement("e1", "assid", "2024-01", 100),
			})

			Convey("Then the normalized values should be averaged", func() {
				So(ps.Scores[0].NormalizedScore, ShouldEqual, 80.5)
				So(ps.Scores[0].WeightedScore, ShouldEqual, 48.3)
			})
		})

		Convey("When measurements reference unknown criteria", func() {
			ps, deg := scoring.Aggregate(reg, "e1", "2024-01", []model.Measurement{
				measurement("e1", "ghost", "2024-01", 100),
			})

			Convey("Then they should be ignored", func() {
				So(ps.Total, ShouldEqual, 0.0)
				So(deg.DataGaps, ShouldEqual, 2)
			})
		})
	})

	Convey("Given weights with repeating decimals", t, func() {
		reg := model.NewRegistry([]model.Criterion{
			{ID: "a", Name: "A", Weight: 33.33, Active: true, DisplayOrder: 1},
			{ID: "b", Name: "B", Weight: 33.33, Active: true, DisplayOrder: 2},
			{ID: "c", Name: "C", Weight: 33.34, Active: true, DisplayOrder: 3},
		})
		ps, _ := scoring.Aggregate(reg, "e1", "2024-01", []model.Measurement{
			measurement("e1", "a", "2024-01", 77.777),
			measurement("e1", "b", "2024-01", 12.345),
			measurement("e1", "c", "2024-01", 66.6666),
		})

		Convey("Then every weighted score should equal round(normalized*weight/100, 2)", func() {
			var sum float64
			for _, s := range ps.Scores {
				So(s.WeightedScore, ShouldEqual, scoring.Round2(s.NormalizedScore*s.Weight/100))
				sum += s.WeightedScore
			}

			Convey("And the total should match the sum within 0.01", func() {
				So(math.Abs(ps.Total-sum), ShouldBeLessThanOrEqualTo, 0.01)
			})
		})
	})

	Convey("Given five equally weighted criteria with small raw values", t, func() {
		var criteria []model.Criterion
		for i, id := range []string{"a", "b", "c", "d", "e"} {
			criteria = append(criteria, model.Criterion{ID: id, Name: strings.ToUpper(id), Weight: 20, Active: true, DisplayOrder: i})
		}
		reg := model.NewRegistry(criteria)

		Convey("Then the total should equal the sum of the rounded weighted scores", func() {
			ps, _ := scoring.Aggregate(reg, "e1", "2024-01", []model.Measurement{
				measurement("e1", "a", "2024-01", 0.22),
				measurement("e1", "b", "2024-01", 0.22),
				measurement("e1", "c", "2024-01", 0.22),
				measurement("e1", "d", "2024-01", 0.22),
				measurement("e1", "e", "2024-01", 0.22),
			})
			var sum float64
			for _, s := range ps.Scores {
				So(s.WeightedScore, ShouldEqual, 0.04)
				sum += s.WeightedScore
			}
			So(ps.Total, ShouldEqual, 0.2)
			So(math.Abs(ps.Total-sum), ShouldBeLessThanOrEqualTo, 0.01)
		})

		Convey("Then the bound should hold across a sweep of raw values", func() {
			for raw := 0.0; raw <= 100; raw += 0.37 {
				var ms []model.Measurement
				for j, c := range criteria {
					ms = append(ms, measurement("e1", c.ID, "2024-01", raw+float64(j)*0.013))
				}
				ps, _ := scoring.Aggregate(reg, "e1", "2024-01", ms)
				var sum float64
				for _, s := range ps.Scores {
					sum += s.WeightedScore
				}
				So(math.Abs(ps.Total-sum), ShouldBeLessThanOrEqualTo, 0.01)
			}
		})
	})
}
