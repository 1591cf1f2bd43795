package geometry

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnwrapInput is returned when positions and normals disagree in length.
var ErrUnwrapInput = errors.New("unwrap: positions and normals differ in length")

// Unwrapper produces a secondary UV channel (lightmap UVs) for a vertex
// buffer. Implementations must return exactly one UV per vertex.
type Unwrapper interface {
	Unwrap(positions, normals []mgl32.Vec3) ([]mgl32.Vec2, error)
}

// Chart layout of BoxUnwrapper: 3 columns x 2 rows, one chart per
// signed dominant normal axis (+X, -X, +Y, -Y, +Z, -Z).
const (
	boxChartColumns = 3
	boxChartRows    = 2
)

// BoxUnwrapper is a box-projection unwrapper. Each vertex is assigned to the
// chart of its normal's dominant signed axis and projected onto that axis'
// plane, normalised by the mesh bounds. Charts are laid out on a fixed grid
// with an inset so bilinear lightmap samples do not bleed across charts.
type BoxUnwrapper struct {
	// Padding is the inset applied to each chart, in atlas UV units.
	Padding float32
}

// DefaultBoxUnwrapper returns a BoxUnwrapper with a half-texel inset for a
// 1024x1024 lightmap.
func DefaultBoxUnwrapper() BoxUnwrapper {
	return BoxUnwrapper{Padding: 0.5 / 1024}
}

// Unwrap implements Unwrapper.
func (u BoxUnwrapper) Unwrap(positions, normals []mgl32.Vec3) ([]mgl32.Vec2, error) {
	if len(positions) != len(normals) {
		return nil, fmt.Errorf("%w: %d positions, %d normals", ErrUnwrapInput, len(positions), len(normals))
	}

	bounds := ComputeBounds(positions)
	size := bounds.Size()
	for i := range size {
		if size[i] <= 0 {
			size[i] = 1
		}
	}

	chartW := float32(1) / boxChartColumns
	chartH := float32(1) / boxChartRows

	out := make([]mgl32.Vec2, len(positions))
	for i, p := range positions {
		chart, a, b := dominantChart(normals[i])

		// Position inside the chart, 0..1 on both plane axes
		local := mgl32.Vec2{
			(p[a] - bounds.Min[a]) / size[a],
			(p[b] - bounds.Min[b]) / size[b],
		}

		baseU := float32(chart%boxChartColumns) * chartW
		baseV := float32(chart/boxChartColumns) * chartH
		innerW := chartW - 2*u.Padding
		innerH := chartH - 2*u.Padding

		out[i] = mgl32.Vec2{
			baseU + u.Padding + local[0]*innerW,
			baseV + u.Padding + local[1]*innerH,
		}
	}
	return out, nil
}

// dominantChart returns the chart index for normal n and the two position
// axes spanning that chart's projection plane.
func dominantChart(n mgl32.Vec3) (chart, a, b int) {
	axis := 0
	for i := 1; i < 3; i++ {
		if abs32(n[i]) > abs32(n[axis]) {
			axis = i
		}
	}

	chart = axis * 2
	if n[axis] < 0 {
		chart++
	}

	switch axis {
	case 0:
		return chart, 1, 2
	case 1:
		return chart, 0, 2
	default:
		return chart, 0, 1
	}
}
