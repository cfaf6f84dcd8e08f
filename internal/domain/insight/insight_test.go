package insight_test

import (
	"testing"

	"github.com/okian/rankengine/internal/domain/insight"
	"github.com/okian/rankengine/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerator_Generate(t *testing.T) {
	Convey("Given a default generator", t, func() {
		g := insight.NewGenerator()

		Convey("When scores are 85, 55 and 70", func() {
			strengths, suggestions := g.Generate([]model.CriterionScore{
				{CriterionName: "Produtividade", NormalizedScore: 85},
				{CriterionName: "Pontualidade", NormalizedScore: 55},
				{CriterionName: "Qualidade", NormalizedScore: 70},
			})

			Convey("Then 85 should be a strength", func() {
				So(strengths, ShouldResemble, []string{"Produtividade: 85%"})
			})

			Convey("And 55 should be a suggestion", func() {
				So(suggestions, ShouldResemble, []string{"Melhorar Pontualidade (atual: 55%)"})
			})

			Convey("And 70 should appear in neither list", func() {
				for _, s := range append(strengths, suggestions...) {
					So(s, ShouldNotContainSubstring, "Qualidade")
				}
			})
		})

		Convey("When scores sit exactly on the thresholds", func() {
			strengths, suggestions := g.Generate([]model.CriterionScore{
				{CriterionName: "A", NormalizedScore: 80},
				{CriterionName: "B", NormalizedScore: 60},
			})

			Convey("Then 80 is a strength and 60 is not a suggestion", func() {
				So(strengths, ShouldResemble, []string{"A: 80%"})
				So(suggestions, ShouldResemble, []string{insight.NoSuggestionsMessage})
			})
		})

		Convey("When no criterion qualifies for either list", func() {
			strengths, suggestions := g.Generate([]model.CriterionScore{
				{CriterionName: "Qualidade", NormalizedScore: 70},
			})

			Convey("Then each list should hold exactly one fallback message", func() {
				So(strengths, ShouldResemble, []string{insight.NoStrengthsMessage})
				So(suggestions, ShouldResemble, []string{insight.NoSuggestionsMessage})
			})
		})

		Convey("When a score has decimals", func() {
			strengths, _ := g.Generate([]model.CriterionScore{
				{CriterionName: "Assiduidade", NormalizedScore: 92.5},
			})

			Convey("Then the shortest decimal form should be used", func() {
				So(strengths, ShouldResemble, []string{"Assiduidade: 92.5%"})
			})
		})
	})

	Convey("Given custom thresholds", t, func() {
		g := insight.NewGenerator(insight.WithStrengthThreshold(90), insight.WithSuggestionThreshold(75))
		strengths, suggestions := g.Generate([]model.CriterionScore{
			{CriterionName: "A", NormalizedScore: 85},
		})

		Convey("Then they should drive the classification", func() {
			So(strengths, ShouldResemble, []string{insight.NoStrengthsMessage})
			So(suggestions, ShouldResemble, []string{"Melhorar A (atual: 85%)"})
		})
	})
}
