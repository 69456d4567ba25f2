package parser

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/strrl/distcurve/internal/signals"
)

// Manifest is the on-disk description of a clip (*.clip.json).
type Manifest struct {
	Name          string        `json:"name"`
	Length        float64       `json:"length"`
	FrameRate     float64       `json:"frameRate,omitempty"`
	RootMotion    bool          `json:"rootMotion"`
	ForceRootLock bool          `json:"forceRootLock,omitempty"`
	Skeleton      *SkeletonJSON `json:"skeleton,omitempty"`
	Keyframes     string        `json:"keyframes,omitempty"`
	Tracks        []TrackJSON   `json:"tracks,omitempty"`
	Curves        []CurveJSON   `json:"curves,omitempty"`
}

type SkeletonJSON struct {
	Name  string     `json:"name"`
	Bones []BoneJSON `json:"bones"`
}

// BoneJSON rotation is x, y, z, w; omitted means identity.
type BoneJSON struct {
	Name        string      `json:"name"`
	Parent      int         `json:"parent"`
	Translation [3]float64  `json:"translation"`
	Rotation    *[4]float64 `json:"rotation,omitempty"`
}

// TrackJSON is an inline alternative to a keyframe table.
type TrackJSON struct {
	Bone string         `json:"bone"`
	Keys []KeyframeJSON `json:"keys"`
}

type KeyframeJSON struct {
	Time        float64     `json:"time"`
	Translation [3]float64  `json:"translation"`
	Rotation    *[4]float64 `json:"rotation,omitempty"`
}

type CurveJSON struct {
	Name string             `json:"name"`
	Keys []signals.CurveKey `json:"keys"`
}

// KeyframeRow is one row of a keyframe table.
type KeyframeRow struct {
	Bone string
	Time float64
	TX   float64
	TY   float64
	TZ   float64
	QX   float64
	QY   float64
	QZ   float64
	QW   float64
}

func quatFromXYZW(r *[4]float64) mgl64.Quat {
	if r == nil {
		return mgl64.QuatIdent()
	}
	return mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}
}
