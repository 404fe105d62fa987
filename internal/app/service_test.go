package service_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/okian/deathboard/internal/adapters/display"
	service "github.com/okian/deathboard/internal/app"
	"github.com/okian/deathboard/internal/domain/notify"
	"github.com/okian/deathboard/internal/domain/ranking"
	"github.com/okian/deathboard/internal/scheduler"
	"github.com/okian/deathboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// recordSource serves fixed records, optionally blocking until release closes.
type recordSource struct {
	records []ranking.Record
	err     error
	entered chan struct{}
	release chan struct{}
}

func (s *recordSource) List(ctx context.Context) ([]ranking.Record, error) {
	if s.entered != nil {
		select {
		case s.entered <- struct{}{}:
		default:
		}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.records, s.err
}

type nameMap map[string]string

func (m nameMap) Resolve(_ context.Context, id string) (string, error) {
	if name, ok := m[id]; ok {
		return name, nil
	}
	return "", ranking.ErrUnknownEntity
}

func deaths(id string, n int) ranking.Record {
	return ranking.Record{
		EntityID: id,
		Raw:      []byte(`{"stats":{"minecraft:custom":{"minecraft:deaths":` + strconv.Itoa(n) + `}}}`),
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(&recordSource{}, nameMap{}, display.NewMemory())

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["topN"], ShouldEqual, 3)
			So(stats["tags"], ShouldResemble, []string{
				"deaths_title", "deaths_position1", "deaths_position2", "deaths_position3",
			})
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(&recordSource{}, nameMap{}, display.NewMemory(),
			service.WithTopN(5),
			service.WithTagPrefix("kills"),
			service.WithUnits("kills"),
			service.WithTitle("Top kills"),
			service.WithInterval(time.Hour),
		)

		Convey("Then the layout follows them", func() {
			stats := svc.GetStats()
			So(stats["topN"], ShouldEqual, 5)
			So(stats["tags"], ShouldHaveLength, 6)
			So(svc.Units(), ShouldEqual, "kills")
		})
	})
}

func TestService_Commands(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service over the four-player scenario", t, func() {
		src := &recordSource{records: []ranking.Record{
			deaths("a", 5), deaths("b", 9), deaths("c", 2), deaths("d", 9),
		}}
		mem := display.NewMemory()
		svc := service.New(src, nameMap{"a": "Alice", "b": "Bob", "c": "Carol", "d": "Dave"}, mem)
		defer svc.Stop()

		Convey("When the start command runs", func() {
			c := &notify.Collector{}
			rep, err := svc.Initialize(ctx, service.Invoker{Yaw: 90}, notify.Feedback(c))

			Convey("Then the stack is created and filled", func() {
				So(err, ShouldBeNil)
				So(rep.Created, ShouldHaveLength, 4)
				label, _ := mem.Label("deaths_position1")
				So(label, ShouldEqual, "Bob (9 deaths)")
				label, _ = mem.Label("deaths_position2")
				So(label, ShouldEqual, "Dave (9 deaths)")
				label, _ = mem.Label("deaths_position3")
				So(label, ShouldEqual, "Alice (5 deaths)")
				title, _ := mem.Label("deaths_title")
				So(title, ShouldEqual, "Top deaths")
			})

			Convey("Then the holograms face the invoker", func() {
				h := mem.Holograms("deaths_title")
				So(h, ShouldHaveLength, 1)
				So(h[0].Style.Rotation.Yaw, ShouldEqual, -90)
				So(c.Messages()[len(c.Messages())-1].Text, ShouldEqual, "Holograms initialized facing east.")
			})

			Convey("Then running it again creates nothing", func() {
				rep, err := svc.Initialize(ctx, service.Invoker{Yaw: 90}, notify.Silent())
				So(err, ShouldBeNil)
				So(rep.Created, ShouldBeEmpty)
				So(mem.Total(), ShouldEqual, 4)
			})

			Convey("Then delete removes everything", func() {
				dc := &notify.Collector{}
				So(svc.Delete(ctx, notify.Feedback(dc)), ShouldBeNil)
				So(mem.Total(), ShouldEqual, 0)
				So(dc.Messages()[0].Text, ShouldEqual, "All holograms were deleted.")
			})
		})

		Convey("When the report command runs", func() {
			c := &notify.Collector{}
			rk, err := svc.Report(ctx, notify.Feedback(c))

			Convey("Then the ranking is returned and sent as text", func() {
				So(err, ShouldBeNil)
				So(rk.Entries, ShouldHaveLength, 3)
				So(rk.Entries[0].DisplayName, ShouldEqual, "Bob")
				texts := make([]string, 0, len(c.Messages()))
				for _, m := range c.Messages() {
					texts = append(texts, m.Text)
				}
				So(texts, ShouldResemble, []string{
					"Top 3 players with most deaths:",
					"1. Bob - 9 deaths",
					"2. Dave - 9 deaths",
					"3. Alice - 5 deaths",
				})
				So(svc.Last().Entries, ShouldResemble, rk.Entries)
			})
		})
	})

	Convey("Given a service whose stats directory is missing", t, func() {
		src := &recordSource{err: ranking.ErrStoreUnavailable}
		mem := display.NewMemory()
		svc := service.New(src, nameMap{}, mem)
		defer svc.Stop()

		Convey("When reporting", func() {
			c := &notify.Collector{}
			_, err := svc.Report(ctx, notify.Feedback(c))

			Convey("Then a short message is sent and slots are untouched", func() {
				So(errors.Is(err, ranking.ErrStoreUnavailable), ShouldBeTrue)
				So(c.Messages(), ShouldResemble, []notify.Message{
					{Level: notify.LevelError, Text: "statistics directory unavailable"},
				})
				So(mem.Total(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a refresh that is still running", t, func() {
		src := &recordSource{
			records: []ranking.Record{deaths("a", 1)},
			entered: make(chan struct{}, 1),
			release: make(chan struct{}),
		}
		svc := service.New(src, nameMap{}, display.NewMemory(),
			service.WithManualWaitTimeout(50*time.Millisecond),
		)
		defer svc.Stop()

		go func() { _, _ = svc.Report(ctx, notify.Silent()) }()
		<-src.entered

		Convey("When another command arrives", func() {
			c := &notify.Collector{}
			err := svc.Delete(ctx, notify.Feedback(c))
			close(src.release)

			Convey("Then it is rejected as busy", func() {
				So(errors.Is(err, scheduler.ErrBusy), ShouldBeTrue)
				So(c.Messages()[0].Text, ShouldEqual, "a refresh is already running")
			})
		})
	})

	Convey("Given a stopped service", t, func() {
		svc := service.New(&recordSource{}, nameMap{}, display.NewMemory())
		svc.Stop()

		Convey("Then commands are refused", func() {
			c := &notify.Collector{}
			So(errors.Is(svc.Delete(ctx, notify.Feedback(c)), scheduler.ErrStopped), ShouldBeTrue)
			So(c.Messages()[0].Text, ShouldEqual, "the service is shutting down")
			So(errors.Is(svc.Start(ctx), scheduler.ErrStopped), ShouldBeTrue)
		})
	})
}
