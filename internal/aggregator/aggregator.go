package aggregator

import (
	"errors"
	"sort"
	"time"

	"github.com/strrl/distcurve/internal/pipeline"
)

// ReferenceKind classifies where a bake anchored its curve.
type ReferenceKind string

const (
	// ReferenceStop is a detected stop point inside the clip.
	ReferenceStop ReferenceKind = "stop"
	// ReferenceStart means the speed never fell below the threshold.
	ReferenceStart ReferenceKind = "start"
	// ReferenceEnd means the clip end was used as the pivot.
	ReferenceEnd ReferenceKind = "end"
)

// Outcome is the result of baking one clip. Exactly one of Result and Err is set.
type Outcome struct {
	Clip   string
	Result *pipeline.Result
	Err    error
}

type ClipSummary struct {
	Clip          string
	BakeID        string
	Curve         string
	ReferenceTime float64
	Reference     ReferenceKind
	Keys          int
	// Approach is the distance covered before the reference, Travel the
	// distance covered after it.
	Approach float64
	Travel   float64
	Duration time.Duration
}

type Failure struct {
	Clip         string
	Reason       string
	Precondition bool
}

type Summary struct {
	CreatedAt      time.Time
	Clips          []ClipSummary
	Failures       []Failure
	TotalKeys      int
	LocatorSamples int
	BuilderSamples int
	TotalDuration  time.Duration
	References     map[ReferenceKind]int
}

func (s *Summary) Baked() int {
	return len(s.Clips)
}

func (s *Summary) Failed() int {
	return len(s.Failures)
}

type Aggregator struct {
	now time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		now: time.Now(),
	}
}

func (a *Aggregator) Aggregate(outcomes []Outcome) *Summary {
	summary := &Summary{
		CreatedAt:  a.now,
		References: make(map[ReferenceKind]int),
	}

	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			summary.Failures = append(summary.Failures, buildFailure(o))
			continue
		}

		cs := summarize(o.Result)
		summary.Clips = append(summary.Clips, cs)
		summary.References[cs.Reference]++
		summary.TotalKeys += o.Result.Stats.Keys
		summary.LocatorSamples += o.Result.Stats.LocatorSamples
		summary.BuilderSamples += o.Result.Stats.BuilderSamples
		summary.TotalDuration += o.Result.Duration
	}

	a.sortSummary(summary)

	return summary
}

func summarize(r *pipeline.Result) ClipSummary {
	cs := ClipSummary{
		Clip:          r.Clip,
		BakeID:        r.BakeID.String(),
		Curve:         r.Settings.CurveName,
		ReferenceTime: r.ReferenceTime,
		Reference:     classifyReference(r),
		Keys:          len(r.Keys),
		Duration:      r.Duration,
	}

	if len(r.Keys) > 0 {
		if first := r.Keys[0].Value; first < 0 {
			cs.Approach = -first
		}
		if last := r.Keys[len(r.Keys)-1].Value; last > 0 {
			cs.Travel = last
		}
	}

	return cs
}

func classifyReference(r *pipeline.Result) ReferenceKind {
	switch {
	case r.Settings.StopAtEnd:
		return ReferenceEnd
	case r.ReferenceTime == 0:
		return ReferenceStart
	default:
		return ReferenceStop
	}
}

func buildFailure(o Outcome) Failure {
	f := Failure{Clip: o.Clip}

	var pe *pipeline.PreconditionError
	switch {
	case errors.As(o.Err, &pe):
		f.Reason = pe.Error()
		f.Precondition = true
	case o.Err != nil:
		f.Reason = o.Err.Error()
	default:
		f.Reason = "no result"
	}

	return f
}

func (a *Aggregator) sortSummary(summary *Summary) {
	sort.Slice(summary.Clips, func(i, j int) bool {
		return summary.Clips[i].Clip < summary.Clips[j].Clip
	})

	sort.Slice(summary.Failures, func(i, j int) bool {
		return summary.Failures[i].Clip < summary.Failures[j].Clip
	})
}
