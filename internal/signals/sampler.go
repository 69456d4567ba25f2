package signals

import "gonum.org/v1/gonum/spatial/r3"

// CountingSampler wraps a Sampler and records how many times it was evaluated.
// With recording on, it also keeps every sample in call order.
type CountingSampler struct {
	sample  Sampler
	calls   int
	record  bool
	samples []TrajectorySample
}

func NewCountingSampler(sample Sampler) *CountingSampler {
	return &CountingSampler{sample: sample}
}

func (c *CountingSampler) Sample(t float64) r3.Vec {
	c.calls++
	p := c.sample(t)
	if c.record {
		c.samples = append(c.samples, TrajectorySample{Time: t, Translation: p})
	}
	return p
}

func (c *CountingSampler) Calls() int {
	return c.calls
}

// Record turns sample recording on or off.
func (c *CountingSampler) Record(on bool) {
	c.record = on
}

func (c *CountingSampler) Samples() []TrajectorySample {
	return c.samples
}

// Reset clears the call count and recorded samples.
func (c *CountingSampler) Reset() {
	c.calls = 0
	c.samples = nil
}
