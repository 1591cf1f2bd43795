package geometry

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// degenerateUVArea is the smallest UV-space determinant treated as a real
// parameterisation. Triangles below it contribute no tangent.
const degenerateUVArea = 1e-12

// ComputeTangents returns one tangent per vertex for the indexed triangle
// list. The xyz part is orthogonal to the vertex normal and w holds the
// bitangent handedness (+1 or -1).
//
// Per-triangle tangents and bitangents are accumulated on their corners and
// then Gram-Schmidt orthogonalised against the normal. Vertices that receive
// no usable contribution get an arbitrary tangent perpendicular to the normal.
func ComputeTangents(positions, normals []mgl32.Vec3, uvs []mgl32.Vec2, indices []uint32) ([]mgl32.Vec4, error) {
	if len(normals) != len(positions) || len(uvs) != len(positions) {
		return nil, fmt.Errorf("tangents: %d positions, %d normals, %d uvs", len(positions), len(normals), len(uvs))
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("tangents: index count %d is not a triangle list", len(indices))
	}

	tan := make([]mgl32.Vec3, len(positions))
	bitan := make([]mgl32.Vec3, len(positions))

	for i := 0; i < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(positions) || int(i1) >= len(positions) || int(i2) >= len(positions) {
			return nil, fmt.Errorf("tangents: triangle %d references vertex out of range", i/3)
		}

		dPos01 := positions[i1].Sub(positions[i0])
		dPos02 := positions[i2].Sub(positions[i0])
		dUV01 := uvs[i1].Sub(uvs[i0])
		dUV02 := uvs[i2].Sub(uvs[i0])

		det := dUV01[0]*dUV02[1] - dUV02[0]*dUV01[1]
		if det*det < degenerateUVArea {
			continue
		}
		f := 1 / det

		t := dPos01.Mul(dUV02[1]).Sub(dPos02.Mul(dUV01[1])).Mul(f)
		b := dPos02.Mul(dUV01[0]).Sub(dPos01.Mul(dUV02[0])).Mul(f)

		for _, v := range [3]uint32{i0, i1, i2} {
			tan[v] = tan[v].Add(t)
			bitan[v] = bitan[v].Add(b)
		}
	}

	out := make([]mgl32.Vec4, len(positions))
	for i, n := range normals {
		t := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if t.Len() < 1e-6 {
			t = perpendicular(n)
		}
		t = t.Normalize()

		w := float32(1)
		if n.Cross(t).Dot(bitan[i]) < 0 {
			w = -1
		}
		out[i] = t.Vec4(w)
	}
	return out, nil
}

// perpendicular returns some vector orthogonal to n.
func perpendicular(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if abs32(n[0]) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	p := axis.Cross(n)
	if p.Len() < 1e-6 {
		return mgl32.Vec3{1, 0, 0}
	}
	return p
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
