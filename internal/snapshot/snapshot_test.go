package snapshot_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/gridiron/internal/domain/grades"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/snapshot"
	"github.com/okian/gridiron/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestHolder(t *testing.T) {
	Convey("Given a new holder", t, func() {
		h := snapshot.NewHolder()

		Convey("Then it should serve empty data", func() {
			cur := h.Current()
			So(cur, ShouldNotBeNil)
			So(cur.Grades, ShouldNotBeNil)
			So(cur.InjuriesFor("KC"), ShouldBeEmpty)
			So(cur.Version, ShouldEqual, "empty")
		})

		Convey("When partial data is stored", func() {
			h.Store(&snapshot.Data{Injuries: map[string][]model.InjuryRecord{
				"kc": {{Team: "KC", Player: "Starter", Position: "QB", Status: model.StatusOut}},
			}})
			cur := h.Current()

			Convey("Then missing fields should be filled", func() {
				So(cur.Grades, ShouldNotBeNil)
				So(cur.Version, ShouldNotBeEmpty)
				So(cur.LoadedAt.IsZero(), ShouldBeFalse)
				So(cur.InjuriesFor("KC"), ShouldHaveLength, 1)
			})
		})

		Convey("When nil is stored", func() {
			before := h.Current()
			h.Store(nil)
			So(h.Current(), ShouldEqual, before)
		})
	})
}

func TestRefresher(t *testing.T) {
	Convey("Given a loader that succeeds", t, func() {
		h := snapshot.NewHolder()
		var calls atomic.Int32
		loader := snapshot.LoaderFunc(func(ctx context.Context) (*snapshot.Data, error) {
			calls.Add(1)
			return &snapshot.Data{
				Grades:  grades.NewSnapshot(2024, 6, time.Now(), map[string]map[model.Unit]float64{"KC": {model.UnitOffense: 80}}, nil),
				Version: "v1",
			}, nil
		})
		r := snapshot.NewRefresher(h, loader)

		Convey("When refreshed", func() {
			So(r.Refresh(context.Background()), ShouldBeNil)

			Convey("Then the holder should serve the new data", func() {
				So(h.Current().Version, ShouldEqual, "v1")
				So(h.Current().Grades.HasTeam("KC"), ShouldBeTrue)
				So(calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When started", func() {
			ctx, cancel := context.WithCancel(context.Background())
			So(r.Start(ctx), ShouldBeNil)
			Reset(func() {
				cancel()
				r.Stop()
			})

			Convey("Then it should load immediately and schedule the next run", func() {
				So(h.Current().Version, ShouldEqual, "v1")
				So(r.Next().After(time.Now()), ShouldBeTrue)
				So(errors.Is(r.Start(ctx), snapshot.ErrAlreadyRunning), ShouldBeTrue)
			})
		})
	})

	Convey("Given a loader that fails after a good load", t, func() {
		h := snapshot.NewHolder()
		var mu sync.Mutex
		fail := false
		loader := snapshot.LoaderFunc(func(ctx context.Context) (*snapshot.Data, error) {
			mu.Lock()
			defer mu.Unlock()
			if fail {
				return nil, errors.New("feed down")
			}
			return &snapshot.Data{Version: "good"}, nil
		})
		r := snapshot.NewRefresher(h, loader, snapshot.WithTimeout(time.Second))
		So(r.Refresh(context.Background()), ShouldBeNil)

		mu.Lock()
		fail = true
		mu.Unlock()

		Convey("Then the stale data should stay in place", func() {
			So(r.Refresh(context.Background()), ShouldNotBeNil)
			So(h.Current().Version, ShouldEqual, "good")
		})
	})

	Convey("Given a bad schedule", t, func() {
		r := snapshot.NewRefresher(snapshot.NewHolder(), snapshot.LoaderFunc(func(context.Context) (*snapshot.Data, error) {
			return &snapshot.Data{}, nil
		}), snapshot.WithSchedule("not a schedule"))
		So(r.Start(context.Background()), ShouldNotBeNil)
	})

	Convey("Given no loader", t, func() {
		r := snapshot.NewRefresher(snapshot.NewHolder(), nil)
		So(errors.Is(r.Refresh(context.Background()), snapshot.ErrNoLoader), ShouldBeTrue)
	})
}
