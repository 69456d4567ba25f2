package storage

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/distcurve/internal/config"
	"github.com/strrl/distcurve/internal/pipeline"
	"github.com/strrl/distcurve/internal/signals"
	"gonum.org/v1/gonum/spatial/r3"
	"gorm.io/gorm"
)

// Compile-time interface checks
var (
	_ signals.CurveSink    = (*Backend)(nil)
	_ signals.CurveRemover = (*Backend)(nil)
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testMeta() CurveMeta {
	return CurveMeta{
		BakeID:        "6f1c0b7e-8f51-4d0e-9b7e-3f2a4c1d2e3f",
		Clip:          "Walk_Fwd_Stop",
		Bone:          "root",
		Axis:          "XY",
		SampleRate:    30,
		ReferenceTime: 1.0,
		Path: []signals.TrajectorySample{
			{Time: 0, Translation: r3.Vec{X: 0}},
			{Time: 1, Translation: r3.Vec{X: 100}},
		},
	}
}

func TestBackend_CommitAndRemove(t *testing.T) {
	s := newTestStore(t)
	b := s.Backend(testMeta())

	result := &pipeline.Result{
		Settings: signals.DefaultSettings(),
		Keys:     []signals.CurveKey{{Time: 0, Value: -100}, {Time: 1, Value: 0}},
	}
	require.NoError(t, pipeline.Commit(result, b))

	row, err := s.Find("Walk_Fwd_Stop", "Distance")
	require.NoError(t, err)
	assert.Equal(t, pipeline.EditLabel, row.EditLabel)
	assert.Equal(t, 2, row.KeyCount)
	assert.Equal(t, "XY", row.Axis)
	assert.Equal(t, 1.0, row.ReferenceTime)
	assert.Contains(t, row.Path, "LINESTRING ZM")

	keys, err := row.DecodeKeys()
	require.NoError(t, err)
	assert.Equal(t, result.Keys, keys)

	// a second bake replaces the row instead of adding one
	result.Keys = []signals.CurveKey{{Time: 0, Value: -50}}
	require.NoError(t, pipeline.Commit(result, b))

	rows, err := s.List("Walk_Fwd_Stop")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].KeyCount)

	require.NoError(t, b.RemoveCurve("distance"))
	_, err = s.Find("Walk_Fwd_Stop", "Distance")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, b.RemoveCurve("Distance"))
}

func TestBackend_ReplaceOutsideEditFails(t *testing.T) {
	b := newTestStore(t).Backend(testMeta())

	_, err := b.EnsureCurve("Distance")
	require.NoError(t, err)

	err = b.ReplaceCurveKeys("Distance", []signals.CurveKey{{Time: 0, Value: 1}})
	assert.ErrorContains(t, err, "outside of an edit")
	assert.Error(t, b.EndEdit())
}

func TestBackend_EnsureCurveIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	b := s.Backend(testMeta())

	for i := 0; i < 2; i++ {
		ok, err := b.EnsureCurve("Distance")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	rows, err := s.List("")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].KeyCount)

	_, err = b.EnsureCurve("")
	assert.Error(t, err)
}

func TestBackend_CaseInsensitiveRebake(t *testing.T) {
	s := newTestStore(t)
	b := s.Backend(testMeta())

	result := &pipeline.Result{
		Settings: signals.DefaultSettings(),
		Keys:     []signals.CurveKey{{Time: 0, Value: -100}},
	}
	require.NoError(t, pipeline.Commit(result, b))

	result.Settings.CurveName = "distance"
	result.Keys = []signals.CurveKey{{Time: 0, Value: -100}, {Time: 1, Value: 0}}
	require.NoError(t, pipeline.Commit(result, b))

	rows, err := s.List("Walk_Fwd_Stop")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].KeyCount)
	assert.Equal(t, "distance", rows[0].CurveName)

	lower, err := s.Find("Walk_Fwd_Stop", "distance")
	require.NoError(t, err)
	upper, err := s.Find("Walk_Fwd_Stop", "Distance")
	require.NoError(t, err)
	assert.Equal(t, lower.ID, upper.ID)
	assert.Equal(t, 2, upper.KeyCount)
}

func TestPathWKT(t *testing.T) {
	wkt, err := PathWKT(nil)
	require.NoError(t, err)
	assert.Equal(t, "", wkt)

	wkt, err = PathWKT(testMeta().Path[:1])
	require.NoError(t, err)
	assert.Equal(t, "", wkt)

	wkt, err = PathWKT(testMeta().Path)
	require.NoError(t, err)
	assert.Contains(t, wkt, "LINESTRING ZM")
	assert.Contains(t, wkt, "100 0 0 1")
}

func TestPathWKT_StationaryPath(t *testing.T) {
	still := []signals.TrajectorySample{
		{Time: 0, Translation: r3.Vec{X: 5, Y: 5}},
		{Time: 1, Translation: r3.Vec{X: 5, Y: 5}},
	}
	_, err := PathWKT(still)
	assert.Error(t, err)

	meta := testMeta()
	meta.Path = still
	s := newTestStore(t)
	result := &pipeline.Result{
		Settings: signals.DefaultSettings(),
		Keys:     []signals.CurveKey{{Time: 0, Value: 0}, {Time: 1, Value: 0}},
	}
	require.NoError(t, pipeline.Commit(result, s.Backend(meta)))

	row, err := s.Find("Walk_Fwd_Stop", "Distance")
	require.NoError(t, err)
	assert.Equal(t, "", row.Path)
	assert.Equal(t, 2, row.KeyCount)
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(config.StorageConfig{Type: "mongo"}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
