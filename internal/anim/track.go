package anim

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strrl/distcurve/internal/skeleton"
)

type Keyframe struct {
	Time        float64
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// Track holds one bone's local transform keys, sorted by time.
type Track struct {
	Keys []Keyframe
}

func NewTrack(keys []Keyframe) *Track {
	sorted := make([]Keyframe, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})
	for i := range sorted {
		if sorted[i].Rotation.Len() == 0 {
			sorted[i].Rotation = mgl64.QuatIdent()
		}
	}
	return &Track{Keys: sorted}
}

// Evaluate interpolates the track at t, holding the first and last keys
// outside of the keyed range.
func (tr *Track) Evaluate(t float64) skeleton.Transform {
	n := len(tr.Keys)
	if n == 0 {
		return skeleton.Identity()
	}

	first, last := tr.Keys[0], tr.Keys[n-1]
	if n == 1 || t <= first.Time {
		return skeleton.Transform{Translation: first.Translation, Rotation: first.Rotation}
	}
	if t >= last.Time {
		return skeleton.Transform{Translation: last.Translation, Rotation: last.Rotation}
	}

	next := sort.Search(n, func(i int) bool { return tr.Keys[i].Time > t })
	a, b := tr.Keys[next-1], tr.Keys[next]

	span := b.Time - a.Time
	if span <= 0 {
		return skeleton.Transform{Translation: b.Translation, Rotation: b.Rotation}
	}
	alpha := (t - a.Time) / span

	return skeleton.Transform{
		Translation: a.Translation.Add(b.Translation.Sub(a.Translation).Mul(alpha)),
		Rotation:    mgl64.QuatSlerp(a.Rotation, b.Rotation, alpha),
	}
}
