package skeleton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// NoParent marks the root of the hierarchy.
const NoParent = -1

type Bone struct {
	Name        string
	Parent      int
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// Skeleton is a reference bone hierarchy. Parents always precede their
// children, so ascending bone index is a valid evaluation order.
type Skeleton struct {
	Name  string
	Bones []Bone
	index map[string]int
}

func New(name string, bones []Bone) (*Skeleton, error) {
	if len(bones) == 0 {
		return nil, fmt.Errorf("skeleton %q has no bones", name)
	}

	bones = append([]Bone(nil), bones...)
	index := make(map[string]int, len(bones))
	for i, b := range bones {
		key := normalizeName(b.Name)
		if key == "" {
			return nil, fmt.Errorf("skeleton %q: bone %d has no name", name, i)
		}
		if _, dup := index[key]; dup {
			return nil, fmt.Errorf("skeleton %q: duplicate bone name %q", name, b.Name)
		}
		if b.Parent != NoParent && (b.Parent < 0 || b.Parent >= i) {
			return nil, fmt.Errorf("skeleton %q: bone %q has parent %d, parents must precede children", name, b.Name, b.Parent)
		}
		if i > 0 && b.Parent == NoParent {
			return nil, fmt.Errorf("skeleton %q: bone %q is a second root", name, b.Name)
		}
		if b.Rotation.Len() == 0 {
			bones[i].Rotation = mgl64.QuatIdent()
		}
		index[key] = i
	}
	return &Skeleton{
		Name:  name,
		Bones: bones,
		index: index,
	}, nil
}

// FindBoneIndex resolves a bone name case-insensitively, returning -1 when absent.
func (s *Skeleton) FindBoneIndex(name string) int {
	if i, ok := s.index[normalizeName(name)]; ok {
		return i
	}
	return -1
}

func (s *Skeleton) IsRoot(bone int) bool {
	return s.Bones[bone].Parent == NoParent
}

// RequiredBones returns bone and all of its ancestors, sorted root first.
func (s *Skeleton) RequiredBones(bone int) []int {
	var chain []int
	for i := bone; i != NoParent; i = s.Bones[i].Parent {
		chain = append(chain, i)
	}
	sort.Ints(chain)
	return chain
}

func (s *Skeleton) BindPose(bone int) Transform {
	b := s.Bones[bone]
	return Transform{Translation: b.Translation, Rotation: b.Rotation}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
