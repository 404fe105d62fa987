package statsdir_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/deathboard/internal/adapters/statsdir"
	"github.com/okian/deathboard/internal/domain/ranking"
	"github.com/okian/deathboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const (
	aliceID = "0f8a1c52-2b1e-4f4e-9d1a-7c3e5b2a9d10"
	bobID   = "5b9e2d7c-8a41-4c0f-b3e6-1d2f4a6c8e90"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()

	Convey("Given a stats directory", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, bobID+".json", `{"stats":{"minecraft:custom":{"minecraft:deaths":9}}}`)
		writeFile(t, dir, aliceID+".json", `{"stats":{"minecraft:custom":{"minecraft:deaths":5}}}`)
		writeFile(t, dir, "notes.txt", "hello")
		writeFile(t, dir, "not-a-uuid.json", `{}`)
		So(os.Mkdir(filepath.Join(dir, "nested"), 0o700), ShouldBeNil)

		src := statsdir.New(dir, statsdir.WithConcurrency(2))

		Convey("When listing", func() {
			records, err := src.List(ctx)

			Convey("Then only player stat files are returned, ordered by id", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 2)
				So(records[0].EntityID, ShouldEqual, aliceID)
				So(records[1].EntityID, ShouldEqual, bobID)
				So(string(records[1].Raw), ShouldContainSubstring, `"minecraft:deaths":9`)
			})
		})

		Convey("When an upper-case file name is present", func() {
			writeFile(t, dir, "A1B2C3D4-0000-4000-8000-000000000001.json", `{}`)
			records, err := src.List(ctx)

			Convey("Then its id is normalized", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 3)
				So(records[0].EntityID, ShouldEqual, aliceID)
				So(records[2].EntityID, ShouldEqual, "a1b2c3d4-0000-4000-8000-000000000001")
			})
		})
	})

	Convey("Given an empty stats directory", t, func() {
		records, err := statsdir.New(t.TempDir()).List(ctx)

		Convey("Then no records and no error are returned", func() {
			So(err, ShouldBeNil)
			So(records, ShouldBeEmpty)
		})
	})

	Convey("Given a missing stats directory", t, func() {
		_, err := statsdir.New(filepath.Join(t.TempDir(), "world", "stats")).List(ctx)

		Convey("Then the store is unavailable", func() {
			So(errors.Is(err, ranking.ErrStoreUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a path that is a file", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "stats", "")
		_, err := statsdir.New(filepath.Join(dir, "stats")).List(ctx)

		So(errors.Is(err, ranking.ErrStoreUnavailable), ShouldBeTrue)
	})
}
