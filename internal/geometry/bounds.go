// Package geometry provides the mesh utilities applied after decoding:
// bounding volumes, tangent frames and secondary (lightmap) UV unwrapping.
package geometry

import "github.com/go-gl/mathgl/mgl32"

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// ComputeBounds returns the bounding box of positions.
// An empty slice yields the zero box.
func ComputeBounds(positions []mgl32.Vec3) Bounds {
	if len(positions) == 0 {
		return Bounds{}
	}

	b := Bounds{Min: positions[0], Max: positions[0]}
	for _, p := range positions[1:] {
		b.extend(p)
	}
	return b
}

func (b *Bounds) extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the edge lengths of the box.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}
