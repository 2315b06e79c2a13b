package weather_test

import (
	"testing"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/weather"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	Convey("Given no forecast", t, func() {
		So(weather.Score(nil, 0.7), ShouldEqual, 50)
	})

	Convey("Given a dome", t, func() {
		c := &model.WeatherConditions{WindMPH: 40, PrecipProbability: 1, Dome: true}
		So(weather.Score(c, 0.7), ShouldEqual, 50)
	})

	Convey("Given calm mild weather", t, func() {
		c := &model.WeatherConditions{TemperatureF: 65, WindMPH: 5}
		So(weather.Severity(c), ShouldEqual, 0)
		So(weather.Score(c, 0.7), ShouldEqual, 50)
	})

	Convey("Given a windy freezing rainstorm", t, func() {
		c := &model.WeatherConditions{TemperatureF: 10, WindMPH: 30, PrecipProbability: 0.9}

		Convey("Then a pass-heavy team should score below neutral", func() {
			So(weather.Score(c, 0.68), ShouldBeLessThan, 50)
		})

		Convey("Then a run-heavy team should score above neutral", func() {
			So(weather.Score(c, 0.42), ShouldBeGreaterThan, 50)
		})

		Convey("Then a league-average team should stay neutral", func() {
			So(weather.Score(c, 0.55), ShouldAlmostEqual, 50, 1e-9)
		})

		Convey("Then scores should stay bounded", func() {
			So(weather.Score(c, 1), ShouldBeBetweenOrEqual, 0, 100)
			So(weather.Score(c, 0), ShouldBeBetweenOrEqual, 0, 100)
			So(weather.Severity(c), ShouldBeBetweenOrEqual, 0, 1)
		})
	})
}
