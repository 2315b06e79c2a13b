package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/weather"
	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given the predict command", t, func() {
		ctx := context.Background()
		var stdout, stderr bytes.Buffer

		convey.Convey("When predicting without any data", func() {
			err := run(ctx, []string{"-home", "kc", "-away", "BUF", "-season", "2024", "-week", "3"}, &stdout, &stderr)

			convey.Convey("Then it should print a neutral prediction", func() {
				convey.So(err, convey.ShouldBeNil)
				var res model.PredictionResult
				convey.So(json.Unmarshal(stdout.Bytes(), &res), convey.ShouldBeNil)
				convey.So(res.HomeTeam, convey.ShouldEqual, "KC")
				convey.So(res.Winner, convey.ShouldEqual, "KC")
				convey.So(res.Defaults, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When plays and weather are supplied", func() {
			dir := t.TempDir()
			plays := filepath.Join(dir, "plays.json")
			doc := `{"plays":[
				{"game_id":"g1","team":"KC","season":2024,"week":1,"play_type":"pass","yards_gained":12,"epa":0.8,"success":true},
				{"game_id":"g1","team":"BUF","season":2024,"week":1,"play_type":"run","yards_gained":-2,"epa":-0.6,"turnover":true}
			]}`
			convey.So(os.WriteFile(plays, []byte(doc), 0o600), convey.ShouldBeNil)

			err := run(ctx, []string{"-home", "KC", "-away", "BUF", "-season", "2024", "-week", "2",
				"-plays", plays, "-wind", "25"}, &stdout, &stderr)

			convey.Convey("Then the prediction should use them", func() {
				convey.So(err, convey.ShouldBeNil)
				var res model.PredictionResult
				convey.So(json.Unmarshal(stdout.Bytes(), &res), convey.ShouldBeNil)
				convey.So(res.Week, convey.ShouldEqual, 2)
				convey.So(res.HomeWinProbability, convey.ShouldBeBetweenOrEqual, 0, 1)
			})
		})

		convey.Convey("When the teams are invalid", func() {
			err := run(ctx, []string{"-home", "KC", "-away", "KC"}, &stdout, &stderr)
			convey.So(errors.Is(err, model.ErrInvalidInput), convey.ShouldBeTrue)
		})

		convey.Convey("When the plays file is missing", func() {
			err := run(ctx, []string{"-home", "KC", "-away", "BUF", "-plays", filepath.Join(t.TempDir(), "none.json")}, &stdout, &stderr)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestForecast(t *testing.T) {
	convey.Convey("Given the weather flags", t, func() {
		fs := flag.NewFlagSet("predict", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		conds := weatherFlags(fs)

		convey.Convey("When none is set", func() {
			convey.So(fs.Parse(nil), convey.ShouldBeNil)
			convey.So(forecast(fs, *conds), convey.ShouldBeNil)
		})

		convey.Convey("When only wind is set", func() {
			convey.So(fs.Parse([]string{"-wind", "25"}), convey.ShouldBeNil)
			w := forecast(fs, *conds)

			convey.Convey("Then the temperature should stay mild and add no cold", func() {
				convey.So(w, convey.ShouldNotBeNil)
				convey.So(w.TemperatureF, convey.ShouldEqual, mildTempF)
				convey.So(weather.Severity(w), convey.ShouldAlmostEqual, 0.5*13.0/18.0, 1e-9)
			})
		})

		convey.Convey("When the temperature is set below freezing", func() {
			convey.So(fs.Parse([]string{"-temp", "0"}), convey.ShouldBeNil)
			w := forecast(fs, *conds)
			convey.So(weather.Severity(w), convey.ShouldAlmostEqual, 0.2, 1e-9)
		})
	})
}
