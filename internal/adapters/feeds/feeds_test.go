package feeds_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"

	"github.com/okian/gridiron/internal/adapters/feeds"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/snapshot"
	"github.com/okian/gridiron/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const gradesYAML = `season: 2024
week: 6
as_of: "2024-10-08T00:00:00Z"
teams:
  KC:
    offense: 84
    passing: 88.5
    coverage: 71
  BUF:
    defense: 79
players:
  - team: KC
    position: QB
    name: Starter
    grade: 90
  - team: KC
    position: QB
    name: Backup
    grade: 60
`

const injuriesJSON = `{"injuries": [
  {"team": "kc", "player": "Starter", "position": "QB", "status": "Out"},
  {"team": "BUF", "player": "Corner", "position": "CB", "status": "Q"},
  {"team": "BUF", "player": "Mystery", "position": "WR", "status": "day-to-day"}
]}`

func init() {
	_ = logger.Init()
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestFileSource(t *testing.T) {
	Convey("Given grade and injury files", t, func() {
		src := feeds.FileSource{
			GradesPath:   writeFile(t, "grades.yaml", gradesYAML),
			InjuriesPath: writeFile(t, "injuries.json", injuriesJSON),
		}

		Convey("When loaded", func() {
			d, err := src.Load(context.Background())
			So(err, ShouldBeNil)

			Convey("Then grades should be readable", func() {
				So(d.Grades.Season, ShouldEqual, 2024)
				So(d.Grades.Week, ShouldEqual, 6)
				So(d.Grades.AsOf.IsZero(), ShouldBeFalse)
				So(d.Grades.TeamGrade("KC", model.UnitPassing), ShouldEqual, 88.5)
				So(d.Grades.TeamGrade("BUF", model.UnitDefense), ShouldEqual, 79)
				g, ok := d.Grades.PlayerGrade("KC", "QB", "Starter")
				So(ok, ShouldBeTrue)
				So(g, ShouldEqual, 90)
			})

			Convey("Then injury statuses should be normalised", func() {
				kc := d.InjuriesFor("KC")
				So(kc, ShouldHaveLength, 1)
				So(kc[0].Status, ShouldEqual, model.StatusOut)
				So(d.InjuriesFor("BUF"), ShouldHaveLength, 1)
			})

			Convey("Then the version should depend only on content", func() {
				again, err := src.Load(context.Background())
				So(err, ShouldBeNil)
				So(again.Version, ShouldEqual, d.Version)
				So(d.Version, ShouldNotBeEmpty)
			})
		})
	})

	Convey("Given no paths", t, func() {
		_, err := feeds.FileSource{}.Load(context.Background())
		So(errors.Is(err, feeds.ErrNoFeeds), ShouldBeTrue)
	})

	Convey("Given a missing file", t, func() {
		_, err := feeds.FileSource{GradesPath: filepath.Join(t.TempDir(), "nope.yaml")}.Load(context.Background())
		So(err, ShouldNotBeNil)
	})

	Convey("Given a malformed file", t, func() {
		p := writeFile(t, "bad.json", `{"teams": [`)
		_, err := feeds.FileSource{GradesPath: p}.Load(context.Background())
		So(errors.Is(err, feeds.ErrDecode), ShouldBeTrue)
	})
}

func TestHTTPSource(t *testing.T) {
	Convey("Given healthy feed endpoints", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/grades", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write([]byte(gradesYAML))
		})
		mux.HandleFunc("/injuries", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(injuriesJSON))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		src := feeds.NewHTTPSource(srv.URL+"/grades", srv.URL+"/injuries", feeds.WithHTTPClient(srv.Client()))
		d, err := src.Load(context.Background())

		Convey("Then the snapshot should be built from both documents", func() {
			So(err, ShouldBeNil)
			So(d.Grades.HasTeam("KC"), ShouldBeTrue)
			So(d.InjuriesFor("KC"), ShouldHaveLength, 1)
		})
	})

	Convey("Given a grade endpoint that keeps failing", t, func() {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		src := feeds.NewHTTPSource(srv.URL, "", feeds.WithHTTPClient(srv.Client()))
		for i := 0; i < 3; i++ {
			_, err := src.Load(context.Background())
			So(errors.Is(err, feeds.ErrStatus), ShouldBeTrue)
		}

		Convey("Then the breaker should open and stop calling the endpoint", func() {
			So(src.State(feeds.FeedGrades), ShouldEqual, gobreaker.StateOpen)
			_, err := src.Load(context.Background())
			So(errors.Is(err, feeds.ErrBreakerOpen), ShouldBeTrue)
			So(hits.Load(), ShouldEqual, 3)
		})
	})
}

func TestFallback(t *testing.T) {
	failing := snapshot.LoaderFunc(func(context.Context) (*snapshot.Data, error) {
		return nil, errors.New("down")
	})
	working := snapshot.LoaderFunc(func(context.Context) (*snapshot.Data, error) {
		return &snapshot.Data{Version: "file"}, nil
	})

	Convey("Given a failing primary", t, func() {
		d, err := feeds.Fallback{Primary: failing, Secondary: working}.Load(context.Background())
		So(err, ShouldBeNil)
		So(d.Version, ShouldEqual, "file")
	})

	Convey("Given both failing", t, func() {
		_, err := feeds.Fallback{Primary: failing, Secondary: failing}.Load(context.Background())
		So(err, ShouldNotBeNil)
	})

	Convey("Given nothing configured", t, func() {
		_, err := feeds.Fallback{}.Load(context.Background())
		So(errors.Is(err, feeds.ErrNoFeeds), ShouldBeTrue)
	})
}
