package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/gridiron/internal/adapters/repository"
	"github.com/okian/gridiron/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func openStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	var seq, ids int
	base := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	s, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "gridiron.db"),
		repository.WithClock(func() time.Time {
			seq++
			return base.Add(time.Duration(seq) * time.Second)
		}),
		repository.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("pred-%03d", ids)
		}),
	)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func play(team string, season, week int, yards float64) model.PlayRecord {
	return model.PlayRecord{
		GameID: fmt.Sprintf("%d_%02d_%s", season, week, team), Team: team, Season: season, Week: week,
		Down: 1, DistanceToGo: 10, YardlineFromGoal100: 75, PlayType: model.PlayPass,
		YardsGained: yards, EfficiencyAdded: yards / 10, IsSuccess: yards >= 4,
	}
}

func TestSQLitePlays(t *testing.T) {
	Convey("Given a store with plays across weeks and seasons", t, func() {
		s := openStore(t)
		ctx := context.Background()
		So(s.InsertPlays(ctx, []model.PlayRecord{
			play("KC", 2024, 3, 7),
			play("KC", 2024, 1, 12),
			play("KC", 2024, 2, -1),
			play("KC", 2023, 17, 5),
			play("buf", 2024, 1, 3),
		}), ShouldBeNil)

		Convey("When reading through a week", func() {
			plays, err := s.Plays(ctx, "KC", 2024, 2)
			So(err, ShouldBeNil)

			Convey("Then only earlier weeks should come back in order", func() {
				So(plays, ShouldHaveLength, 2)
				So(plays[0].Week, ShouldEqual, 1)
				So(plays[1].Week, ShouldEqual, 2)
				So(plays[0].PlayType, ShouldEqual, model.PlayPass)
				So(plays[0].IsSuccess, ShouldBeTrue)
				So(plays[1].IsSuccess, ShouldBeFalse)
			})
		})

		Convey("When reading a whole season", func() {
			plays, err := s.Plays(ctx, "KC", 2024, 0)
			So(err, ShouldBeNil)
			So(plays, ShouldHaveLength, 3)
		})

		Convey("When team names differ in case", func() {
			plays, err := s.Plays(ctx, "BUF", 2024, 0)
			So(err, ShouldBeNil)
			So(plays, ShouldHaveLength, 1)
		})

		Convey("When a team has no plays", func() {
			plays, err := s.Plays(ctx, "NYJ", 2024, 0)
			So(err, ShouldBeNil)
			So(plays, ShouldBeEmpty)
		})

		Convey("When a play has no team", func() {
			err := s.InsertPlays(ctx, []model.PlayRecord{{Season: 2024}})
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})
	})
}

func TestSQLitePredictions(t *testing.T) {
	Convey("Given a store", t, func() {
		s := openStore(t)
		ctx := context.Background()
		result := model.PredictionResult{
			HomeTeam: "KC", AwayTeam: "BUF", Season: 2024, Week: 6,
			HomeScore: 58.5, AwayScore: 51, HomeWinProbability: 0.68, Winner: "KC", Confidence: 0.68,
			Defaults: []string{"weather"},
		}

		Convey("When a prediction is saved", func() {
			rec, err := s.SavePrediction(ctx, result)
			So(err, ShouldBeNil)
			So(rec.ID, ShouldEqual, "pred-001")

			Convey("Then it should be listed for its week", func() {
				list, err := s.Predictions(ctx, 2024, 6)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 1)
				So(list[0].ID, ShouldEqual, rec.ID)
				So(list[0].CreatedAt.Equal(rec.CreatedAt), ShouldBeTrue)
				So(list[0].Result, ShouldResemble, result)
			})

			Convey("Then other weeks should be empty", func() {
				list, err := s.Predictions(ctx, 2024, 7)
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When outcomes are recorded", func() {
			_, err := s.SavePrediction(ctx, result)
			So(err, ShouldBeNil)
			later := result
			later.HomeScore = 60
			_, err = s.SavePrediction(ctx, later)
			So(err, ShouldBeNil)

			tie := result
			tie.HomeTeam, tie.AwayTeam = "NYJ", "MIA"
			_, err = s.SavePrediction(ctx, tie)
			So(err, ShouldBeNil)

			So(s.SaveOutcome(ctx, repository.Outcome{Season: 2024, Week: 6, Home: "KC", Away: "BUF", HomePoints: 10, AwayPoints: 24}), ShouldBeNil)
			So(s.SaveOutcome(ctx, repository.Outcome{Season: 2024, Week: 6, Home: "KC", Away: "BUF", HomePoints: 27, AwayPoints: 24}), ShouldBeNil)
			So(s.SaveOutcome(ctx, repository.Outcome{Season: 2024, Week: 6, Home: "NYJ", Away: "MIA", HomePoints: 17, AwayPoints: 17}), ShouldBeNil)

			Convey("Then samples should pair the latest prediction with the corrected result", func() {
				samples, err := s.Samples(ctx)
				So(err, ShouldBeNil)
				So(samples, ShouldHaveLength, 1)
				So(samples[0].ScoreDiff, ShouldAlmostEqual, 9, 1e-9)
				So(samples[0].HomeWon, ShouldBeTrue)
			})
		})

		Convey("When an outcome has negative points", func() {
			err := s.SaveOutcome(ctx, repository.Outcome{Season: 2024, Week: 1, Home: "KC", Away: "BUF", HomePoints: -3})
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})
	})
}

func TestSQLiteMemory(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		s, err := repository.OpenSQLite(repository.MemoryPath)
		So(err, ShouldBeNil)
		defer s.Close()

		So(s.InsertPlays(context.Background(), []model.PlayRecord{play("KC", 2024, 1, 5)}), ShouldBeNil)
		plays, err := s.Plays(context.Background(), "KC", 2024, 0)
		So(err, ShouldBeNil)
		So(plays, ShouldHaveLength, 1)
	})
}
