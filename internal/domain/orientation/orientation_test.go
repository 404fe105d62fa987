package orientation_test

import (
	"testing"

	"github.com/okian/deathboard/internal/domain/orientation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromLook(t *testing.T) {
	Convey("Given an operator's look direction", t, func() {
		Convey("When looking steeply down", func() {
			So(orientation.FromLook(0, 60), ShouldEqual, orientation.Down)
			So(orientation.FromLook(120, 45), ShouldEqual, orientation.Down)
		})

		Convey("When looking steeply up", func() {
			So(orientation.FromLook(0, -60), ShouldEqual, orientation.Up)
			So(orientation.FromLook(-170, -45), ShouldEqual, orientation.Up)
		})

		Convey("When level and yaw is 90", func() {
			So(orientation.FromLook(90, 0), ShouldEqual, orientation.East)
		})

		Convey("When level and yaw is 200, normalized to -160", func() {
			So(orientation.FromLook(200, 0), ShouldEqual, orientation.North)
		})

		Convey("When level and yaw sits on the bin boundaries", func() {
			So(orientation.FromLook(45, 0), ShouldEqual, orientation.South)
			So(orientation.FromLook(135, 0), ShouldEqual, orientation.North)
			So(orientation.FromLook(-135, 0), ShouldEqual, orientation.West)
			So(orientation.FromLook(-45, 0), ShouldEqual, orientation.South)
			So(orientation.FromLook(-45.5, 0), ShouldEqual, orientation.West)
			So(orientation.FromLook(180, 44.9), ShouldEqual, orientation.North)
		})

		Convey("When level and yaw is near zero", func() {
			So(orientation.FromLook(0, 0), ShouldEqual, orientation.South)
			So(orientation.FromLook(720, 0), ShouldEqual, orientation.South)
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given arbitrary angles", t, func() {
		So(orientation.Normalize(200), ShouldEqual, -160)
		So(orientation.Normalize(-200), ShouldEqual, 160)
		So(orientation.Normalize(180), ShouldEqual, 180)
		So(orientation.Normalize(-180), ShouldEqual, 180)
		So(orientation.Normalize(450), ShouldEqual, 90)
	})
}

func TestRotationAndNames(t *testing.T) {
	Convey("Given each orientation", t, func() {
		So(orientation.East.Rotation(), ShouldResemble, orientation.Rotation{Yaw: -90})
		So(orientation.North.Rotation(), ShouldResemble, orientation.Rotation{Yaw: 0})
		So(orientation.West.Rotation(), ShouldResemble, orientation.Rotation{Yaw: 90})
		So(orientation.South.Rotation(), ShouldResemble, orientation.Rotation{Yaw: 180})
		So(orientation.Up.Rotation(), ShouldResemble, orientation.Rotation{Pitch: -90})
		So(orientation.Down.Rotation(), ShouldResemble, orientation.Rotation{Pitch: 90})

		Convey("Then names round-trip through Parse", func() {
			for _, o := range []orientation.Orientation{
				orientation.South, orientation.East, orientation.North,
				orientation.West, orientation.Up, orientation.Down,
			} {
				got, err := orientation.Parse(o.String())
				So(err, ShouldBeNil)
				So(got, ShouldEqual, o)
			}
		})

		Convey("Then each look direction falls back into its own bin", func() {
			for _, o := range []orientation.Orientation{
				orientation.South, orientation.East, orientation.North,
				orientation.West, orientation.Up, orientation.Down,
			} {
				So(orientation.FromLook(o.Look()), ShouldEqual, o)
			}
		})

		Convey("Then unknown names are rejected", func() {
			_, err := orientation.Parse("sideways")
			So(err, ShouldNotBeNil)
			So(orientation.Orientation(42).String(), ShouldEqual, "orientation(42)")
		})
	})
}
