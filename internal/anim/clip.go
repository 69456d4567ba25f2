package anim

import (
	"strings"

	"github.com/strrl/distcurve/internal/signals"
	"github.com/strrl/distcurve/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// SamplingMode selects how the root bone contributes to sampled translations.
type SamplingMode int

const (
	// RootMotionUnlocked accumulates root translation across the clip.
	RootMotionUnlocked SamplingMode = iota
	// RootMotionLocked pins the root bone to its bind pose translation.
	RootMotionLocked
)

func (m SamplingMode) String() string {
	if m == RootMotionLocked {
		return "locked"
	}
	return "unlocked"
}

type FloatCurve struct {
	Name string
	Keys []signals.CurveKey
}

// Clip is an animation sequence bound to a skeleton.
type Clip struct {
	Name          string
	Length        float64
	FrameRate     float64
	HasRootMotion bool
	// ForceRootLock is the clip's own playback setting. Sampling ignores it and
	// uses the mode passed by the caller.
	ForceRootLock bool
	Skeleton      *skeleton.Skeleton
	Curves        []FloatCurve
	SourcePath    string

	tracks map[string]*Track
}

func (c *Clip) SetTrack(bone string, track *Track) {
	if c.tracks == nil {
		c.tracks = make(map[string]*Track)
	}
	c.tracks[trackKey(bone)] = track
}

func (c *Clip) Track(bone string) (*Track, bool) {
	tr, ok := c.tracks[trackKey(bone)]
	return tr, ok
}

func (c *Clip) TrackCount() int {
	return len(c.tracks)
}

// EvaluateBone returns the clip-space translation of bone at time t.
func (c *Clip) EvaluateBone(bone int, t float64, mode SamplingMode) r3.Vec {
	world := skeleton.ComposeChain(c.Skeleton.RequiredBones(bone), func(b int) skeleton.Transform {
		return c.localTransform(b, t, mode)
	})
	return r3.Vec{X: world.Translation[0], Y: world.Translation[1], Z: world.Translation[2]}
}

// Trajectory binds EvaluateBone to one bone and mode.
func (c *Clip) Trajectory(bone int, mode SamplingMode) signals.Sampler {
	return func(t float64) r3.Vec {
		return c.EvaluateBone(bone, t, mode)
	}
}

func (c *Clip) localTransform(bone int, t float64, mode SamplingMode) skeleton.Transform {
	bind := c.Skeleton.BindPose(bone)

	local := bind
	if tr, ok := c.Track(c.Skeleton.Bones[bone].Name); ok && len(tr.Keys) > 0 {
		local = tr.Evaluate(t)
	}

	if mode == RootMotionLocked && c.Skeleton.IsRoot(bone) {
		local.Translation = bind.Translation
	}
	return local
}

func (c *Clip) Curve(name string) (*FloatCurve, bool) {
	for i := range c.Curves {
		if strings.EqualFold(c.Curves[i].Name, name) {
			return &c.Curves[i], true
		}
	}
	return nil, false
}

func trackKey(bone string) string {
	return strings.ToLower(strings.TrimSpace(bone))
}
