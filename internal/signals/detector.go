package signals

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ScanRate is the fixed rate of the minimum speed search, independent of the
// output sample rate.
const ScanRate = 120

type Detector struct {
	interval float64
}

func NewDetector() *Detector {
	return &Detector{interval: 1.0 / ScanRate}
}

// Locate returns the clip time at which the bone's speed along axis is lowest
// and below stopThreshold. It returns 0 when the threshold is never crossed,
// and clipLength without sampling when stopAtEnd is set.
//
// Speed is measured as |Δp|²/Δt on the 1/120 s grid; the result is always a
// grid point and is never refined.
func (d *Detector) Locate(sample Sampler, clipLength float64, axis Axis, stopThreshold float64, stopAtEnd bool) float64 {
	if stopAtEnd {
		return clipLength
	}

	timeOfMinSpeed := 0.0
	minSpeedSq := square(stopThreshold)

	steps := int(math.Floor(clipLength / d.interval))
	if steps < 2 {
		return timeOfMinSpeed
	}

	last := sample(0)
	for step := 1; step < steps; step++ {
		t := float64(step) * d.interval
		current := sample(t)

		speedSq := MagnitudeSq(r3.Sub(current, last), axis) / d.interval
		if speedSq < minSpeedSq {
			minSpeedSq = speedSq
			timeOfMinSpeed = t
		}
		last = current
	}

	return timeOfMinSpeed
}
