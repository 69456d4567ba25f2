package signals

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Magnitude returns the length of v restricted to the components selected by axis.
// Single-axis selections return the absolute component without a square root.
func Magnitude(v r3.Vec, axis Axis) float64 {
	switch axis {
	case AxisX:
		return math.Abs(v.X)
	case AxisY:
		return math.Abs(v.Y)
	case AxisZ:
		return math.Abs(v.Z)
	default:
		return math.Sqrt(MagnitudeSq(v, axis))
	}
}

// MagnitudeSq panics on an unknown axis; settings are validated before they get here.
func MagnitudeSq(v r3.Vec, axis Axis) float64 {
	switch axis {
	case AxisX:
		return square(math.Abs(v.X))
	case AxisY:
		return square(math.Abs(v.Y))
	case AxisZ:
		return square(math.Abs(v.Z))
	case AxisXY:
		return v.X*v.X + v.Y*v.Y
	case AxisXZ:
		return v.X*v.X + v.Z*v.Z
	case AxisYZ:
		return v.Y*v.Y + v.Z*v.Z
	case AxisXYZ:
		return v.X*v.X + v.Y*v.Y + v.Z*v.Z
	default:
		panic(fmt.Sprintf("signals: unknown axis %s", axis))
	}
}

func square(f float64) float64 {
	return f * f
}
