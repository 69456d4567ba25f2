package signals

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build resamples the trajectory at sampleRate and returns the signed distance
// to the position at referenceTime. Keys before referenceTime are negative
// (distance remaining), keys at or after it are positive (distance traveled).
// The last key always lands exactly on clipLength; a zero-length clip yields no keys.
// The reference is sampled first, then every key time in order.
func (b *Builder) Build(sample Sampler, clipLength float64, sampleRate int, axis Axis, referenceTime float64) []CurveKey {
	rate := float64(sampleRate)
	steps := int(math.Ceil(clipLength * rate))

	reference := sample(referenceTime)

	keys := make([]CurveKey, 0, steps+1)
	t := 0.0
	for step := 0; step <= steps && t < clipLength; step++ {
		// step/rate is rounded once; step*(1/rate) can land just below clipLength.
		t = float64(step) / rate
		if step == steps || t > clipLength {
			t = clipLength
		}

		// Everything before the stop/pivot point is treated as approaching it.
		sign := 1.0
		if t < referenceTime {
			sign = -1.0
		}

		delta := r3.Sub(sample(t), reference)
		keys = append(keys, CurveKey{
			Time:  t,
			Value: sign * Magnitude(delta, axis),
		})
	}

	return keys
}
