package skeleton

import "github.com/go-gl/mathgl/mgl64"

type Transform struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

func Identity() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

// Compose returns child expressed in the space that t is expressed in.
func (t Transform) Compose(child Transform) Transform {
	return Transform{
		Translation: t.Translation.Add(t.Rotation.Rotate(child.Translation)),
		Rotation:    t.Rotation.Mul(child.Rotation).Normalize(),
	}
}

// ComposeChain accumulates local transforms along a root-first chain of bones.
func ComposeChain(chain []int, local func(bone int) Transform) Transform {
	world := Identity()
	for _, bone := range chain {
		world = world.Compose(local(bone))
	}
	return world
}
