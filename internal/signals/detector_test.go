package signals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

// walkThenStop moves along X at 1 unit/s until t=1 and then stands still.
func walkThenStop(t float64) r3.Vec {
	return r3.Vec{X: math.Min(t, 1)}
}

func constantSpeed(speed float64) Sampler {
	return func(t float64) r3.Vec {
		return r3.Vec{X: speed * t, Y: 3}
	}
}

func TestLocate_StopAtEndSkipsScan(t *testing.T) {
	counter := NewCountingSampler(walkThenStop)

	ref := NewDetector().Locate(counter.Sample, 1.5, AxisXY, 5.0, true)

	assert.Equal(t, 1.5, ref)
	assert.Zero(t, counter.Calls(), "stop-at-end must not sample the trajectory")
}

func TestLocate_FindsStopPoint(t *testing.T) {
	ref := NewDetector().Locate(walkThenStop, 2.0, AxisX, 0.1, false)

	assert.InDelta(t, 1.0, ref, 1.0/40)
	assert.GreaterOrEqual(t, ref, 1.0)
}

func TestLocate_ReferenceIsOnScanGrid(t *testing.T) {
	ref := NewDetector().Locate(walkThenStop, 2.0, AxisX, 0.1, false)

	step := ref * ScanRate
	assert.InDelta(t, math.Round(step), step, 1e-9)
}

func TestLocate_ThresholdNeverCrossed(t *testing.T) {
	// |Δp|²/Δt for 100 units/s on the 1/120 grid is ~83, above 5² everywhere
	ref := NewDetector().Locate(constantSpeed(100), 3.0, AxisX, 5.0, false)
	assert.Equal(t, 0.0, ref)
}

func TestLocate_IgnoresMotionOffAxis(t *testing.T) {
	// fast along X, but the Z projection never moves, so the first step already wins
	ref := NewDetector().Locate(constantSpeed(100), 1.0, AxisZ, 5.0, false)
	assert.InDelta(t, 1.0/ScanRate, ref, 1e-12)
}

func TestLocate_ZeroLengthClip(t *testing.T) {
	counter := NewCountingSampler(walkThenStop)

	ref := NewDetector().Locate(counter.Sample, 0, AxisXY, 5.0, false)

	assert.Equal(t, 0.0, ref)
}

func TestLocate_SamplesOncePerGridStep(t *testing.T) {
	counter := NewCountingSampler(walkThenStop)

	NewDetector().Locate(counter.Sample, 1.0, AxisX, 0.1, false)

	steps := int(math.Floor(1.0 / (1.0 / ScanRate)))
	assert.Equal(t, steps, counter.Calls())
}

func TestLocate_PicksLowestSpeed(t *testing.T) {
	// slows down to a crawl at t=0.5 and speeds up again
	sample := func(t float64) r3.Vec {
		d := t - 0.5
		return r3.Vec{Y: 4 * d * d * d}
	}

	ref := NewDetector().Locate(sample, 1.0, AxisY, 5.0, false)

	assert.InDelta(t, 0.5, ref, 1.0/60)
}
