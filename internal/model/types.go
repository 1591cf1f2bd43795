// Package model builds render-ready meshes from decoded .udsmesh data.
package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"

	"github.com/Faultbox/udsmesh/internal/geometry"
)

// Vertex is a cooked vertex: one distinct position/normal/UV combination.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
}

// Submesh is the triangle list of one material.
type Submesh struct {
	MaterialID  uint32   // Material id from the source file
	BaseVertex  int      // First vertex of this submesh in Mesh.Vertices
	VertexCount int      // Number of vertices cooked for this submesh
	Indices     []uint32 // Triangle list, absolute into Mesh.Vertices
}

// TriangleCount returns the number of triangles in the submesh.
func (s *Submesh) TriangleCount() int {
	return len(s.Indices) / 3
}

// IndexFormat selects the index buffer element width.
type IndexFormat int

const (
	IndexFormatUInt16 IndexFormat = 16
	IndexFormatUInt32 IndexFormat = 32
)

// String returns a human-readable index format name.
func (f IndexFormat) String() string {
	switch f {
	case IndexFormatUInt16:
		return "UInt16"
	case IndexFormatUInt32:
		return "UInt32"
	default:
		return "Unknown"
	}
}

// Mesh holds the decoded mesh ready for upload.
//
// Submesh slot i corresponds to the i-th distinct material id in order of
// first appearance in the file.
type Mesh struct {
	Vertices        []Vertex
	PositionIndices []uint32 // Welded source position of each vertex
	Submeshes       []Submesh
	IndexFormat     IndexFormat
	Bounds          geometry.Bounds
	Tangents        []mgl32.Vec4 // One per vertex, w = handedness
	LightmapUVs     []mgl32.Vec2 // Secondary UV channel, nil when not generated

	// Warnings combines every non-fatal diagnostic raised while importing.
	Warnings error
}

// IsEmpty reports whether the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0 && len(m.Submeshes) == 0
}

// TriangleCount returns the number of triangles across all submeshes.
func (m *Mesh) TriangleCount() int {
	total := 0
	for i := range m.Submeshes {
		total += m.Submeshes[i].TriangleCount()
	}
	return total
}

// WarningList returns the individual warnings.
func (m *Mesh) WarningList() []error {
	return multierr.Errors(m.Warnings)
}

// Positions returns the vertex positions as a flat slice.
func (m *Mesh) Positions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(m.Vertices))
	for i := range m.Vertices {
		out[i] = m.Vertices[i].Position
	}
	return out
}

// Normals returns the vertex normals as a flat slice.
func (m *Mesh) Normals() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(m.Vertices))
	for i := range m.Vertices {
		out[i] = m.Vertices[i].Normal
	}
	return out
}

// TexCoords returns the primary UV channel as a flat slice.
func (m *Mesh) TexCoords() []mgl32.Vec2 {
	out := make([]mgl32.Vec2, len(m.Vertices))
	for i := range m.Vertices {
		out[i] = m.Vertices[i].TexCoord
	}
	return out
}

// ImportOptions configures Import.
type ImportOptions struct {
	// Name identifies the mesh in log output.
	Name string
	// ForceLightmapUVGeneration allows secondary UV generation on meshes
	// above LightmapTriangleThreshold.
	ForceLightmapUVGeneration bool
	// QuantizationStep is the fixed-point step used to compare normals and
	// UVs when merging corners. Zero selects DefaultQuantizationStep.
	QuantizationStep float64
	// Unwrapper generates lightmap UVs. Nil selects geometry.DefaultBoxUnwrapper.
	Unwrapper geometry.Unwrapper
}

// DefaultImportOptions returns options matching the stock importer settings.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		QuantizationStep: DefaultQuantizationStep,
		Unwrapper:        geometry.DefaultBoxUnwrapper(),
	}
}
