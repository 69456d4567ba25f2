package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/strrl/distcurve/internal/anim"
	"github.com/strrl/distcurve/internal/signals"
)

// EditLabel brackets every curve edit made by a bake.
const EditLabel = "Distance Curve Modifier"

type Pipeline struct {
	logger   zerolog.Logger
	detector *signals.Detector
	builder  *signals.Builder
}

func New(logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger.With().Str("component", "pipeline").Logger(),
		detector: signals.NewDetector(),
		builder:  signals.NewBuilder(),
	}
}

type Stats struct {
	LocatorSamples int
	BuilderSamples int
	Keys           int
}

type Result struct {
	BakeID        uuid.UUID
	Clip          string
	Settings      signals.Settings
	Bone          int
	ReferenceTime float64
	Keys          []signals.CurveKey
	// Path holds the bone translation at every key time.
	Path     []signals.TrajectorySample
	Stats    Stats
	Duration time.Duration
}

// Validate checks that clip can be baked with settings and returns the index
// of the tracked bone.
func Validate(clip *anim.Clip, settings signals.Settings) (int, error) {
	if clip == nil {
		return -1, precondition("", ErrInvalidAnimation, "no animation sequence")
	}
	if err := settings.Validate(); err != nil {
		return -1, precondition(clip.Name, ErrInvalidSettings, "%v", err)
	}
	if !clip.HasRootMotion {
		return -1, precondition(clip.Name, ErrRootMotionDisabled, "enable root motion on the sequence")
	}
	if clip.Skeleton == nil {
		return -1, precondition(clip.Name, ErrInvalidSkeleton, "sequence has no skeleton")
	}
	bone := clip.Skeleton.FindBoneIndex(settings.BoneName)
	if bone < 0 {
		return -1, precondition(clip.Name, ErrBoneNotFound, "bone %q not in skeleton %s", settings.BoneName, clip.Skeleton.Name)
	}
	return bone, nil
}

// Compute validates the clip and bakes the distance curve without touching
// any sink.
func (p *Pipeline) Compute(clip *anim.Clip, settings signals.Settings) (*Result, error) {
	start := time.Now()

	bone, err := Validate(clip, settings)
	if err != nil {
		p.logFailure(err)
		return nil, err
	}

	// The locator always needs the accumulated root motion, whatever the
	// clip's own root lock says.
	sampler := signals.NewCountingSampler(clip.Trajectory(bone, anim.RootMotionUnlocked))

	ref := p.detector.Locate(sampler.Sample, clip.Length, settings.Axis, settings.StopSpeedThreshold, settings.StopAtEnd)
	locatorSamples := sampler.Calls()

	sampler.Reset()
	sampler.Record(true)
	keys := p.builder.Build(sampler.Sample, clip.Length, settings.SampleRate, settings.Axis, ref)
	builderSamples := sampler.Calls()

	// The builder samples the reference first, then each key time.
	var path []signals.TrajectorySample
	if recorded := sampler.Samples(); len(recorded) > 0 {
		path = recorded[1:]
	}

	result := &Result{
		BakeID:        uuid.New(),
		Clip:          clip.Name,
		Settings:      settings,
		Bone:          bone,
		ReferenceTime: ref,
		Keys:          keys,
		Path:          path,
		Stats: Stats{
			LocatorSamples: locatorSamples,
			BuilderSamples: builderSamples,
			Keys:           len(keys),
		},
		Duration: time.Since(start),
	}

	p.logger.Debug().
		Str("asset", clip.Name).
		Str("bake_id", result.BakeID.String()).
		Float64("reference_time", ref).
		Int("keys", len(keys)).
		Dur("duration", result.Duration).
		Msg("Distance curve computed")

	return result, nil
}

// Commit writes result into sink inside one edit bracket. Keys are only
// replaced when there are any and the sink reports the curve usable.
func Commit(result *Result, sink signals.CurveSink) error {
	name := result.Settings.CurveName

	sink.BeginEdit(EditLabel)

	ok, err := sink.EnsureCurve(name)
	if err != nil {
		if endErr := sink.EndEdit(); endErr != nil {
			return fmt.Errorf("failed to ensure curve %s: %w (end edit: %v)", name, err, endErr)
		}
		return fmt.Errorf("failed to ensure curve %s: %w", name, err)
	}

	if ok && len(result.Keys) > 0 {
		if err := sink.ReplaceCurveKeys(name, result.Keys); err != nil {
			if endErr := sink.EndEdit(); endErr != nil {
				return fmt.Errorf("failed to replace keys of %s: %w (end edit: %v)", name, err, endErr)
			}
			return fmt.Errorf("failed to replace keys of %s: %w", name, err)
		}
	}

	if err := sink.EndEdit(); err != nil {
		return fmt.Errorf("failed to end edit: %w", err)
	}
	return nil
}

// Apply bakes clip and commits the curve to the clip itself and to sinks.
func (p *Pipeline) Apply(clip *anim.Clip, settings signals.Settings, sinks ...signals.CurveSink) (*Result, error) {
	result, err := p.Compute(clip, settings)
	if err != nil {
		return nil, err
	}

	targets := append(MultiSink{clip.Controller()}, sinks...)
	if err := Commit(result, targets); err != nil {
		p.logger.Error().Err(err).Str("asset", clip.Name).Msg("Distance curve commit failed")
		return nil, fmt.Errorf("%s: %w", clip.Name, err)
	}

	p.logger.Info().
		Str("asset", clip.Name).
		Str("curve", settings.CurveName).
		Int("keys", len(result.Keys)).
		Msg("Distance curve baked")

	return result, nil
}

// Revert removes curveName from clip and from every remover.
func (p *Pipeline) Revert(clip *anim.Clip, curveName string, removers ...signals.CurveRemover) error {
	if clip == nil {
		err := precondition("", ErrInvalidAnimation, "no animation sequence")
		p.logFailure(err)
		return err
	}

	targets := append([]signals.CurveRemover{clip.Controller()}, removers...)
	for _, r := range targets {
		if err := r.RemoveCurve(curveName); err != nil {
			return fmt.Errorf("failed to remove curve %s from %s: %w", curveName, clip.Name, err)
		}
	}

	p.logger.Info().Str("asset", clip.Name).Str("curve", curveName).Msg("Distance curve removed")
	return nil
}

func (p *Pipeline) logFailure(err error) {
	ev := p.logger.Error()
	var pe *PreconditionError
	if errors.As(err, &pe) {
		ev = ev.Str("asset", pe.Asset).Str("reason", pe.Reason)
	} else {
		ev = ev.Err(err)
	}
	ev.Msg("Distance curve bake failed")
}
