package aggregator

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/distcurve/internal/pipeline"
	"github.com/strrl/distcurve/internal/signals"
)

func result(clip string, ref float64, stopAtEnd bool, values ...float64) *pipeline.Result {
	settings := signals.DefaultSettings()
	settings.StopAtEnd = stopAtEnd

	keys := make([]signals.CurveKey, len(values))
	for i, v := range values {
		keys[i] = signals.CurveKey{Time: float64(i) * 0.5, Value: v}
	}

	return &pipeline.Result{
		BakeID:        uuid.New(),
		Clip:          clip,
		Settings:      settings,
		ReferenceTime: ref,
		Keys:          keys,
		Stats: pipeline.Stats{
			LocatorSamples: 10,
			BuilderSamples: len(keys) + 1,
			Keys:           len(keys),
		},
		Duration: time.Millisecond,
	}
}

func TestAggregate_CountsAndClassifies(t *testing.T) {
	outcomes := []Outcome{
		{Clip: "Walk_Stop", Result: result("Walk_Stop", 1.0, false, -100, -50, 0, 0)},
		{Clip: "Idle", Result: result("Idle", 0, false, 0, 5, 10)},
		{Clip: "Run_Start", Result: result("Run_Start", 1.5, true, -30, -10, 0, 0)},
		{Clip: "Broken", Err: &pipeline.PreconditionError{Asset: "Broken", Reason: "no skeleton", Err: pipeline.ErrInvalidSkeleton}},
		{Clip: "Missing", Err: fmt.Errorf("failed to read clip manifest: %w", errors.New("no such file"))},
	}

	summary := NewAggregator().Aggregate(outcomes)

	assert.Equal(t, 3, summary.Baked())
	assert.Equal(t, 2, summary.Failed())
	assert.Equal(t, 11, summary.TotalKeys)
	assert.Equal(t, 30, summary.LocatorSamples)
	assert.Equal(t, 14, summary.BuilderSamples)
	assert.Equal(t, 3*time.Millisecond, summary.TotalDuration)

	assert.Equal(t, 1, summary.References[ReferenceStop])
	assert.Equal(t, 1, summary.References[ReferenceStart])
	assert.Equal(t, 1, summary.References[ReferenceEnd])

	require.Len(t, summary.Clips, 3)
	assert.Equal(t, "Idle", summary.Clips[0].Clip)
	assert.Equal(t, "Run_Start", summary.Clips[1].Clip)
	assert.Equal(t, "Walk_Stop", summary.Clips[2].Clip)

	walk := summary.Clips[2]
	assert.Equal(t, 100.0, walk.Approach)
	assert.Equal(t, 0.0, walk.Travel)
	assert.Equal(t, "Distance", walk.Curve)

	idle := summary.Clips[0]
	assert.Equal(t, 0.0, idle.Approach)
	assert.Equal(t, 10.0, idle.Travel)

	require.Len(t, summary.Failures, 2)
	assert.Equal(t, "Broken", summary.Failures[0].Clip)
	assert.True(t, summary.Failures[0].Precondition)
	assert.Contains(t, summary.Failures[0].Reason, "no skeleton")
	assert.False(t, summary.Failures[1].Precondition)
}

func TestAggregate_Empty(t *testing.T) {
	summary := NewAggregator().Aggregate(nil)
	assert.Equal(t, 0, summary.Baked())
	assert.Equal(t, 0, summary.Failed())
	assert.Empty(t, summary.References)
	assert.False(t, summary.CreatedAt.IsZero())
}
