package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultQuantizationStep is the fixed-point resolution for normal and UV
// components when deciding whether two corners share a cooked vertex.
// Components closer than half a step round to the same integer.
const DefaultQuantizationStep = 1e-4

// nanComponent is the quantized value of a NaN component, so NaN corners
// still compare equal to each other.
const nanComponent = math.MinInt64

// attributeKey is the quantized normal and UV of one face corner.
// Together with the welded position index it identifies a cooked vertex.
type attributeKey struct {
	normal [3]int64
	uv     [2]int64
}

type quantizer struct {
	step float64
}

func newQuantizer(step float64) quantizer {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		step = DefaultQuantizationStep
	}
	return quantizer{step: step}
}

// component maps v to round(v / step), saturating at the int64 range.
func (q quantizer) component(v float32) int64 {
	f := math.Round(float64(v) / q.step)
	switch {
	case math.IsNaN(f):
		return nanComponent
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64+1:
		return math.MinInt64 + 1
	}
	return int64(f)
}

func (q quantizer) key(n mgl32.Vec3, uv mgl32.Vec2) attributeKey {
	return attributeKey{
		normal: [3]int64{q.component(n[0]), q.component(n[1]), q.component(n[2])},
		uv:     [2]int64{q.component(uv[0]), q.component(uv[1])},
	}
}
