package signals

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisXY
	AxisXZ
	AxisYZ
	AxisXYZ
)

var axisNames = map[Axis]string{
	AxisX:   "X",
	AxisY:   "Y",
	AxisZ:   "Z",
	AxisXY:  "XY",
	AxisXZ:  "XZ",
	AxisYZ:  "YZ",
	AxisXYZ: "XYZ",
}

func (a Axis) IsValid() bool {
	_, ok := axisNames[a]
	return ok
}

func (a Axis) String() string {
	if name, ok := axisNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis accepts the axis names case-insensitively ("xy", "XYZ", ...).
func ParseAxis(s string) (Axis, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for axis, name := range axisNames {
		if name == want {
			return axis, nil
		}
	}
	return 0, fmt.Errorf("unknown axis %q (want one of X, Y, Z, XY, XZ, YZ, XYZ)", s)
}

// Sampler returns the tracked bone's clip-space translation at time t.
type Sampler func(t float64) r3.Vec

type TrajectorySample struct {
	Time        float64
	Translation r3.Vec
}

type CurveKey struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

type Settings struct {
	BoneName           string
	SampleRate         int
	CurveName          string
	StopSpeedThreshold float64
	Axis               Axis
	StopAtEnd          bool
}

func DefaultSettings() Settings {
	return Settings{
		BoneName:           "root",
		SampleRate:         30,
		CurveName:          "Distance",
		StopSpeedThreshold: 5.0,
		Axis:               AxisXY,
		StopAtEnd:          false,
	}
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.BoneName) == "" {
		return fmt.Errorf("bone name is required")
	}
	if s.SampleRate < 1 {
		return fmt.Errorf("sample rate must be at least 1, got %d", s.SampleRate)
	}
	if strings.TrimSpace(s.CurveName) == "" {
		return fmt.Errorf("curve name is required")
	}
	if !s.Axis.IsValid() {
		return fmt.Errorf("invalid axis %s", s.Axis)
	}
	if !s.StopAtEnd {
		if math.IsNaN(s.StopSpeedThreshold) || math.IsInf(s.StopSpeedThreshold, 0) || s.StopSpeedThreshold < 0 {
			return fmt.Errorf("stop speed threshold must be a finite non-negative number, got %v", s.StopSpeedThreshold)
		}
	}
	return nil
}

// CurveSink receives baked keys. ReplaceCurveKeys is only called between
// BeginEdit and EndEdit, and only after EnsureCurve reported the curve usable.
type CurveSink interface {
	BeginEdit(label string)
	EnsureCurve(name string) (bool, error)
	ReplaceCurveKeys(name string, keys []CurveKey) error
	EndEdit() error
}

type CurveRemover interface {
	RemoveCurve(name string) error
}
