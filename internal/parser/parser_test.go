package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/distcurve/internal/anim"
)

const inlineManifest = `{
	"name": "Walk_Fwd_Stop",
	"length": 2.0,
	"frameRate": 30,
	"rootMotion": true,
	"skeleton": {"name": "Mannequin", "bones": [
		{"name": "root", "parent": -1, "translation": [0, 0, 0]},
		{"name": "pelvis", "parent": 0, "translation": [0, 0, 90], "rotation": [0, 0, 0, 1]}
	]},
	"tracks": [
		{"bone": "root", "keys": [
			{"time": 0, "translation": [0, 0, 0]},
			{"time": 1, "translation": [100, 0, 0]},
			{"time": 2, "translation": [100, 0, 0]}
		]}
	],
	"curves": [{"name": "Speed", "keys": [{"time": 0, "value": 1.5}]}]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadClip_InlineTracks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "walk.clip.json", inlineManifest)

	clip, err := NewParser().LoadClip(path)
	require.NoError(t, err)

	assert.Equal(t, "Walk_Fwd_Stop", clip.Name)
	assert.Equal(t, 2.0, clip.Length)
	assert.True(t, clip.HasRootMotion)
	assert.Equal(t, path, clip.SourcePath)
	require.NotNil(t, clip.Skeleton)
	assert.Equal(t, 1, clip.Skeleton.FindBoneIndex("pelvis"))
	assert.Equal(t, 1, clip.TrackCount())

	curve, ok := clip.Curve("Speed")
	require.True(t, ok)
	assert.Equal(t, 1.5, curve.Keys[0].Value)

	p := clip.EvaluateBone(1, 0.5, anim.RootMotionUnlocked)
	assert.InDelta(t, 50, p.X, 1e-9)
	assert.InDelta(t, 90, p.Z, 1e-9)
}

func TestLoadClip_NameFallsBackToFilename(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Idle_Turn.clip.json", `{"length": 1, "rootMotion": true}`)

	clip, err := NewParser().LoadClip(path)
	require.NoError(t, err)
	assert.Equal(t, "Idle_Turn", clip.Name)
	assert.Nil(t, clip.Skeleton, "missing skeleton is reported by the bake pipeline, not the loader")
}

func TestLoadClip_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewParser().LoadClip(filepath.Join(dir, "missing.clip.json"))
	assert.ErrorContains(t, err, "failed to read clip manifest")

	bad := writeFile(t, dir, "bad.clip.json", `{"length": `)
	_, err = NewParser().LoadClip(bad)
	assert.ErrorContains(t, err, "failed to parse clip manifest")

	negative := writeFile(t, dir, "neg.clip.json", `{"length": -1}`)
	_, err = NewParser().LoadClip(negative)
	assert.ErrorContains(t, err, "negative length")

	orphan := writeFile(t, dir, "orphan.clip.json", `{"length": 1, "skeleton": {"name": "s", "bones": [
		{"name": "root", "parent": -1, "translation": [0,0,0]},
		{"name": "hand", "parent": 5, "translation": [0,0,0]}
	]}}`)
	_, err = NewParser().LoadClip(orphan)
	assert.ErrorContains(t, err, "parents must precede children")

	table := writeFile(t, dir, "table.clip.json", `{"length": 1, "keyframes": "keys.xlsx"}`)
	_, err = NewParser().LoadClip(table)
	assert.ErrorContains(t, err, "unsupported keyframe table format")
}

func TestLoadClip_CSVKeyframes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "walk.keys.csv", `bone,time,tx,ty,tz
root,1.0,100,0,0
root,0.0,0,0,0
root,2.0,100,0,0
pelvis,0.0,0,0,90
`)
	path := writeFile(t, dir, "walk.clip.json", `{
		"name": "Walk",
		"length": 2,
		"rootMotion": true,
		"skeleton": {"name": "Mannequin", "bones": [
			{"name": "root", "parent": -1, "translation": [0, 0, 0]},
			{"name": "pelvis", "parent": 0, "translation": [0, 0, 90]}
		]},
		"keyframes": "walk.keys.csv"
	}`)

	p := NewParser()
	clip, err := p.LoadClip(path)
	require.NoError(t, err)
	assert.Equal(t, 2, clip.TrackCount())

	tr, ok := clip.Track("root")
	require.True(t, ok)
	require.Len(t, tr.Keys, 3)
	assert.Equal(t, 0.0, tr.Keys[0].Time)
	assert.Equal(t, 2.0, tr.Keys[2].Time)

	pos := clip.EvaluateBone(1, 0.25, anim.RootMotionUnlocked)
	assert.InDelta(t, 25, pos.X, 1e-9)

	count, bones, last, err := p.KeyframeStats(filepath.Join(dir, "walk.keys.csv"))
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 2, bones)
	assert.Equal(t, 2.0, last)
}

func TestFetchKeyframes_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "keys.csv", "bone,time,tx,ty\nroot,0,0,0\n")

	_, err := NewParser().FetchKeyframes(path)
	assert.ErrorContains(t, err, `missing column "tz"`)
}

func TestToFloat(t *testing.T) {
	for _, v := range []any{float64(2), float32(2), int64(2), int32(2), "2", " 2.0 "} {
		f, err := toFloat(v)
		require.NoError(t, err, "%T", v)
		assert.Equal(t, 2.0, f)
	}

	_, err := toFloat(true)
	assert.Error(t, err)
}
