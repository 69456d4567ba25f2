package skeleton

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mannequin(t *testing.T) *Skeleton {
	t.Helper()
	s, err := New("Mannequin", []Bone{
		{Name: "root", Parent: NoParent},
		{Name: "pelvis", Parent: 0, Translation: mgl64.Vec3{0, 0, 90}},
		{Name: "spine_01", Parent: 1, Translation: mgl64.Vec3{0, 0, 10}},
		{Name: "thigh_l", Parent: 1, Translation: mgl64.Vec3{10, 0, 0}},
		{Name: "calf_l", Parent: 3, Translation: mgl64.Vec3{0, 0, -45}},
	})
	require.NoError(t, err)
	return s
}

func TestFindBoneIndex(t *testing.T) {
	s := mannequin(t)

	assert.Equal(t, 0, s.FindBoneIndex("root"))
	assert.Equal(t, 4, s.FindBoneIndex("calf_l"))
	assert.Equal(t, 1, s.FindBoneIndex("Pelvis"), "bone names resolve case-insensitively")
	assert.Equal(t, -1, s.FindBoneIndex("hand_r"))
}

func TestRequiredBones_RootFirst(t *testing.T) {
	s := mannequin(t)

	assert.Equal(t, []int{0, 1, 3, 4}, s.RequiredBones(4))
	assert.Equal(t, []int{0}, s.RequiredBones(0))
	assert.True(t, s.IsRoot(0))
	assert.False(t, s.IsRoot(2))
}

func TestNew_DefaultsRotationToIdentity(t *testing.T) {
	s := mannequin(t)
	assert.Equal(t, mgl64.QuatIdent(), s.Bones[2].Rotation)
}

func TestNew_LeavesCallerBonesUntouched(t *testing.T) {
	bones := []Bone{
		{Name: "root", Parent: NoParent},
		{Name: "pelvis", Parent: 0},
	}

	s, err := New("Mannequin", bones)
	require.NoError(t, err)

	assert.Equal(t, mgl64.Quat{}, bones[1].Rotation)
	assert.Equal(t, mgl64.QuatIdent(), s.Bones[1].Rotation)

	bones[1].Name = "renamed"
	assert.Equal(t, "pelvis", s.Bones[1].Name)
}

func TestNew_RejectsBadHierarchies(t *testing.T) {
	_, err := New("empty", nil)
	assert.Error(t, err)

	_, err = New("forward", []Bone{
		{Name: "root", Parent: NoParent},
		{Name: "a", Parent: 2},
		{Name: "b", Parent: 0},
	})
	assert.ErrorContains(t, err, "parents must precede children")

	_, err = New("dup", []Bone{
		{Name: "root", Parent: NoParent},
		{Name: "ROOT", Parent: 0},
	})
	assert.ErrorContains(t, err, "duplicate bone name")

	_, err = New("two roots", []Bone{
		{Name: "root", Parent: NoParent},
		{Name: "ik_root", Parent: NoParent},
	})
	assert.ErrorContains(t, err, "second root")
}

func TestComposeChain(t *testing.T) {
	s := mannequin(t)

	world := ComposeChain(s.RequiredBones(4), s.BindPose)
	assertVec(t, mgl64.Vec3{10, 0, 45}, world.Translation)

	// yaw the pelvis a quarter turn: the thigh offset swings from +X to +Y
	turned := func(bone int) Transform {
		tr := s.BindPose(bone)
		if bone == 1 {
			tr.Rotation = mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 0, 1})
		}
		return tr
	}
	world = ComposeChain(s.RequiredBones(4), turned)
	assertVec(t, mgl64.Vec3{0, 10, 45}, world.Translation)
}

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "component %d of %v", i, got)
	}
}
