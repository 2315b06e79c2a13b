package engine_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/gridiron/internal/domain/blend"
	"github.com/okian/gridiron/internal/domain/engine"
	"github.com/okian/gridiron/internal/domain/grades"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func scores(epa, eff, yds, to float64) *model.SubScores {
	return &model.SubScores{EPA: epa, Efficiency: eff, Yardage: yds, Turnover: to}
}

func quarterbacks() *grades.Snapshot {
	return grades.NewSnapshot(2024, 10, time.Time{}, nil, []grades.PlayerGrade{
		{Team: "KC", Position: "QB", Name: "Starter", Grade: 90},
		{Team: "KC", Position: "QB", Name: "Backup", Grade: 60},
	})
}

func TestNew(t *testing.T) {
	Convey("Given default options", t, func() {
		e, err := engine.New()
		So(err, ShouldBeNil)
		So(e, ShouldNotBeNil)
	})

	Convey("Given category weights that do not sum to one", t, func() {
		w := scoring.DefaultWeights
		w.EPA = 0.26
		_, err := engine.New(engine.WithWeights(w))
		So(errors.Is(err, engine.ErrInvalidConfig), ShouldBeTrue)
		So(errors.Is(err, scoring.ErrInvalidWeights), ShouldBeTrue)
	})

	Convey("Given a recency row that does not sum to one", t, func() {
		s := blend.Schedule{{Current: 0.5, Prior: 0.2, TwoAgo: 0.2}, {Current: 1}}
		_, err := engine.New(engine.WithSchedule(s))
		So(errors.Is(err, engine.ErrInvalidConfig), ShouldBeTrue)
		So(errors.Is(err, blend.ErrInvalidSchedule), ShouldBeTrue)
	})

	Convey("Given a negative home bonus", t, func() {
		_, err := engine.New(engine.WithHomeFieldBonus(-1))
		So(errors.Is(err, engine.ErrInvalidConfig), ShouldBeTrue)
	})

	Convey("Given a nil projector", t, func() {
		_, err := engine.New(engine.WithProjector(nil))
		So(errors.Is(err, engine.ErrInvalidConfig), ShouldBeTrue)
	})
}

func TestPredictScenarios(t *testing.T) {
	e, err := engine.New()
	if err != nil {
		t.Fatal(err)
	}

	Convey("Given a strong home team against an average visitor", t, func() {
		in := engine.Inputs{
			Season: 2024,
			Week:   10,
			Home:   engine.TeamInput{Team: "KC", Scores: [3]*model.SubScores{scores(70, 60, 55, 65)}},
			Away:   engine.TeamInput{Team: "BUF", Scores: [3]*model.SubScores{scores(50, 50, 50, 50)}},
		}
		res := e.Predict(in)

		Convey("Then the home team should be favored", func() {
			So(res.RecencyWeights, ShouldResemble, [3]float64{1, 0, 0})
			So(res.Home.MatchupPoints, ShouldAlmostEqual, 50, 1e-9)
			So(res.Home.FinalScore, ShouldAlmostEqual, 61, 1e-9)
			So(res.Away.FinalScore, ShouldAlmostEqual, 50, 1e-9)
			So(res.HomeWinProbability, ShouldBeGreaterThan, 0.5)
			So(res.Winner, ShouldEqual, "KC")
			So(res.Confidence, ShouldEqual, res.HomeWinProbability)
		})
	})

	Convey("Given identical teams", t, func() {
		base := engine.Inputs{
			Season: 2024,
			Week:   10,
			Grades: quarterbacks(),
			Home:   engine.TeamInput{Team: "KC", Scores: [3]*model.SubScores{scores(50, 50, 50, 50)}},
			Away:   engine.TeamInput{Team: "BUF", Scores: [3]*model.SubScores{scores(50, 50, 50, 50)}},
		}
		baseline := e.Predict(base)

		Convey("When the home quarterback is out", func() {
			hurt := base
			hurt.Home.Injuries = []model.InjuryRecord{{Team: "KC", Player: "Starter", Position: "QB", Status: model.StatusOut}}
			res := e.Predict(hurt)

			Convey("Then the home score should drop by the doubled quarterback penalty", func() {
				So(res.Home.InjuryImpact, ShouldAlmostEqual, -60, 1e-9)
				So(baseline.Home.FinalScore-res.Home.FinalScore, ShouldAlmostEqual, 60, 1e-9)
				So(res.Home.Injuries, ShouldHaveLength, 1)
				So(res.Home.Injuries[0].Multiplier, ShouldEqual, 2.0)
				So(res.Home.Injuries[0].ReplacementGrade, ShouldEqual, 60)
			})

			Convey("Then the probability should move toward the visitor", func() {
				So(res.HomeWinProbability, ShouldBeLessThan, baseline.HomeWinProbability)
				So(res.Winner, ShouldEqual, "BUF")
			})
		})

		Convey("When only questionable players are listed", func() {
			q := base
			q.Home.Injuries = []model.InjuryRecord{{Team: "KC", Player: "Starter", Position: "QB", Status: model.StatusQuestionable}}
			res := e.Predict(q)
			So(res.Home.InjuryImpact, ShouldEqual, 0)
			So(res.HomeScore, ShouldEqual, baseline.HomeScore)
		})
	})

	Convey("Given a team with no plays in any season", t, func() {
		in := engine.Inputs{
			Season: 2024,
			Week:   3,
			Home:   engine.TeamInput{Team: "NYJ"},
			Away:   engine.TeamInput{Team: "MIA"},
		}
		res := e.Predict(in)

		Convey("Then every sub-score should be neutral", func() {
			So(res.Home.Blended, ShouldResemble, model.NeutralSubScores())
			So(res.Away.Blended, ShouldResemble, model.NeutralSubScores())
			So(res.Home.Seasons, ShouldBeEmpty)
		})

		Convey("Then the defaults should be reported", func() {
			So(res.Defaults, ShouldContain, "history:NYJ:2024")
			So(res.Defaults, ShouldContain, "history:MIA:2022")
			So(res.Defaults, ShouldContain, "team_grades:NYJ")
			So(res.Defaults, ShouldContain, engine.DefaultWeather)
		})
	})
}

func TestPredictHistory(t *testing.T) {
	e, _ := engine.New()

	Convey("Given plays from after the predicted week", t, func() {
		early := model.PlayRecord{Team: "KC", Season: 2024, Week: 1, Down: 1, DistanceToGo: 10, PlayType: model.PlayPass, YardsGained: 12, EfficiencyAdded: 1, IsSuccess: true}
		late := model.PlayRecord{Team: "KC", Season: 2024, Week: 5, Down: 1, DistanceToGo: 10, PlayType: model.PlayPass, YardsGained: -5, EfficiencyAdded: -2, IsTurnover: true}
		in := engine.Inputs{
			Season: 2024,
			Week:   3,
			Home:   engine.TeamInput{Team: "KC", Plays: [3][]model.PlayRecord{{early, late}}},
			Away:   engine.TeamInput{Team: "BUF"},
		}
		res := e.Predict(in)

		Convey("Then only completed weeks should count", func() {
			So(res.Home.Seasons, ShouldResemble, []int{2024})
			So(res.Home.Blended.Turnover, ShouldEqual, 100)
			So(res.Home.Blended.Efficiency, ShouldEqual, 100)
		})
	})

	Convey("Given week one with only prior seasons", t, func() {
		in := engine.Inputs{
			Season: 2024,
			Week:   1,
			Home:   engine.TeamInput{Team: "KC", Scores: [3]*model.SubScores{nil, scores(80, 80, 80, 80), scores(40, 40, 40, 40)}},
			Away:   engine.TeamInput{Team: "BUF"},
		}
		res := e.Predict(in)

		Convey("Then the prior seasons should be blended by the opening row", func() {
			So(res.RecencyWeights, ShouldResemble, blend.DefaultSchedule[0].Array())
			So(res.Home.Blended.EPA, ShouldAlmostEqual, 80*0.7+40*0.3, 1e-9)
		})
	})
}

func TestPredictProperties(t *testing.T) {
	e, _ := engine.New()
	snap := grades.NewSnapshot(2024, 8, time.Time{}, map[string]map[model.Unit]float64{
		"KC":  {model.UnitOffense: 88, model.UnitDefense: 70, model.UnitPassing: 91, model.UnitSpecialTeams: 80},
		"BUF": {model.UnitOffense: 84, model.UnitDefense: 76, model.UnitCoverage: 72, model.UnitPassRush: 81},
	}, []grades.PlayerGrade{
		{Team: "KC", Position: "WR", Name: "Wideout", Grade: 80},
		{Team: "KC", Position: "WR", Name: "Slot", Grade: 70},
	})
	in := engine.Inputs{
		Season:  2024,
		Week:    8,
		Grades:  snap,
		Weather: &model.WeatherConditions{TemperatureF: 20, WindMPH: 25, PrecipProbability: 0.6},
		Home: engine.TeamInput{
			Team:   "KC",
			Scores: [3]*model.SubScores{scores(62, 55, 58, 70), scores(66, 60, 61, 72), nil},
			Injuries: []model.InjuryRecord{
				{Team: "KC", Player: "Slot", Position: "WR", Status: model.StatusDoubtful},
				{Team: "KC", Player: "Wideout", Position: "WR", Status: model.StatusOut},
				{Team: "KC", Player: "Lineman", Position: "G", Status: model.StatusIR},
			},
		},
		Away: engine.TeamInput{Team: "BUF", Scores: [3]*model.SubScores{scores(57, 52, 54, 60), nil, scores(45, 48, 50, 55)}},
	}

	Convey("Given the same inputs twice", t, func() {
		a, err := json.Marshal(e.Predict(in))
		So(err, ShouldBeNil)
		b, err := json.Marshal(e.Predict(in))
		So(err, ShouldBeNil)

		Convey("Then the results should be byte-identical", func() {
			So(string(a), ShouldEqual, string(b))
		})
	})

	Convey("Given reordered injury lists", t, func() {
		rev := in
		rev.Home.Injuries = []model.InjuryRecord{in.Home.Injuries[2], in.Home.Injuries[0], in.Home.Injuries[1]}
		So(e.Predict(rev).Home.InjuryImpact, ShouldEqual, e.Predict(in).Home.InjuryImpact)
	})

	Convey("Given a full prediction", t, func() {
		res := e.Predict(in)

		Convey("Then every value should stay in bounds", func() {
			for _, b := range []model.TeamBreakdown{res.Home, res.Away} {
				for _, v := range []float64{b.Blended.EPA, b.Blended.Efficiency, b.Blended.Yardage, b.Blended.Turnover, b.WeatherScore, b.MatchupPoints} {
					So(v, ShouldBeBetweenOrEqual, 0, 100)
				}
				So(b.InjuryImpact, ShouldBeLessThanOrEqualTo, 0)
			}
			So(res.Home.MatchupPoints+res.Away.MatchupPoints, ShouldAlmostEqual, 100, 1e-9)
			So(res.HomeWinProbability, ShouldBeBetweenOrEqual, 0, 1)
			So(res.Confidence, ShouldBeBetweenOrEqual, 0.5, 1)
		})

		Convey("Then the snapshot gaps should be listed", func() {
			So(res.Defaults, ShouldContain, "team_grade:KC:rushing:default")
			So(res.Defaults, ShouldNotContain, engine.DefaultWeather)
		})
	})
}
