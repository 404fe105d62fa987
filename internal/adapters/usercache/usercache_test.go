package usercache_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/deathboard/internal/adapters/usercache"
	"github.com/okian/deathboard/internal/domain/ranking"
	"github.com/okian/deathboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const bobID = "5b9e2d7c-8a41-4c0f-b3e6-1d2f4a6c8e90"

func TestResolve(t *testing.T) {
	ctx := context.Background()

	Convey("Given a usercache file", t, func() {
		path := filepath.Join(t.TempDir(), "usercache.json")
		body := `[{"name":"Bob","uuid":"` + bobID + `","expiresOn":"2026-11-01 10:00:00 +0000"},{"name":"","uuid":"x"}]`
		So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)

		c := usercache.New(path)

		Convey("Then known ids resolve regardless of case", func() {
			name, err := c.Resolve(ctx, bobID)
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "Bob")

			name, err = c.Resolve(ctx, "5B9E2D7C-8A41-4C0F-B3E6-1D2F4A6C8E90")
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "Bob")
			So(c.Len(), ShouldEqual, 1)
		})

		Convey("Then unknown ids are reported", func() {
			_, err := c.Resolve(ctx, "00000000-0000-4000-8000-000000000000")
			So(errors.Is(err, ranking.ErrUnknownEntity), ShouldBeTrue)
		})

		Convey("When the file changes", func() {
			_, _ = c.Resolve(ctx, bobID)
			renamed := `[{"name":"Robert","uuid":"` + bobID + `"}]`
			So(os.WriteFile(path, []byte(renamed), 0o600), ShouldBeNil)
			later := time.Now().Add(2 * time.Second)
			So(os.Chtimes(path, later, later), ShouldBeNil)

			Convey("Then the new name is picked up", func() {
				name, err := c.Resolve(ctx, bobID)
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "Robert")
			})
		})

		Convey("When the file becomes invalid", func() {
			_, _ = c.Resolve(ctx, bobID)
			So(os.WriteFile(path, []byte("{not json"), 0o600), ShouldBeNil)
			later := time.Now().Add(2 * time.Second)
			So(os.Chtimes(path, later, later), ShouldBeNil)

			Convey("Then the previous names stay in use", func() {
				name, err := c.Resolve(ctx, bobID)
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "Bob")
			})
		})
	})

	Convey("Given no usercache file", t, func() {
		c := usercache.New(filepath.Join(t.TempDir(), "usercache.json"))

		Convey("Then every id is unknown", func() {
			_, err := c.Resolve(ctx, bobID)
			So(errors.Is(err, ranking.ErrUnknownEntity), ShouldBeTrue)
		})
	})
}
