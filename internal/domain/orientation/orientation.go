// Package orientation maps where an operator is looking to one of a few fixed
// hologram orientations.
package orientation

import (
	"fmt"
	"math"
	"strings"
)

// Orientation is a quantized facing used for every hologram created in one call.
type Orientation int

// Supported orientations.
const (
	South Orientation = iota
	East
	North
	West
	Up
	Down
)

// Quantization thresholds in degrees.
const (
	pitchThreshold = 45.0
	yawNear        = 45.0
	yawFar         = 135.0
)

var names = [...]string{
	South: "south",
	East:  "east",
	North: "north",
	West:  "west",
	Up:    "up",
	Down:  "down",
}

// Rotation is the fixed entity rotation applied to a hologram, in degrees.
type Rotation struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

var rotations = [...]Rotation{
	South: {Yaw: 180},
	East:  {Yaw: -90},
	North: {Yaw: 0},
	West:  {Yaw: 90},
	Up:    {Pitch: -90},
	Down:  {Pitch: 90},
}

// looks holds one view direction inside each orientation's bin.
var looks = [...]Rotation{
	South: {Yaw: 0},
	East:  {Yaw: 90},
	North: {Yaw: 180},
	West:  {Yaw: -90},
	Up:    {Pitch: -90},
	Down:  {Pitch: 90},
}

// FromLook quantizes a yaw/pitch pair. Steep pitches win over yaw; otherwise
// yaw is normalized to (-180, 180] and split at ±45° and ±135°.
func FromLook(yaw, pitch float64) Orientation {
	switch {
	case pitch >= pitchThreshold:
		return Down
	case pitch <= -pitchThreshold:
		return Up
	}

	yaw = Normalize(yaw)
	switch {
	case yaw > yawNear && yaw < yawFar:
		return East
	case yaw >= yawFar || yaw < -yawFar:
		return North
	case yaw >= -yawFar && yaw < -yawNear:
		return West
	default:
		return South
	}
}

// Normalize maps any finite angle into (-180, 180].
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	switch {
	case deg > 180:
		deg -= 360
	case deg <= -180:
		deg += 360
	}
	return deg
}

// Rotation returns the hologram rotation for o.
func (o Orientation) Rotation() Rotation {
	if o < South || int(o) >= len(rotations) {
		return Rotation{}
	}
	return rotations[o]
}

// Look returns a yaw/pitch pair that FromLook maps back to o.
func (o Orientation) Look() (yaw, pitch float64) {
	l := looks[o]
	return l.Yaw, l.Pitch
}

func (o Orientation) String() string {
	if o < South || int(o) >= len(names) {
		return fmt.Sprintf("orientation(%d)", int(o))
	}
	return names[o]
}

// Parse returns the orientation named s (case-insensitive).
func Parse(s string) (Orientation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return Orientation(i), nil
		}
	}
	return South, fmt.Errorf("unknown orientation %q", s)
}
