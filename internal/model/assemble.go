package model

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/udsmesh/internal/geometry"
)

const (
	// MaxUInt16Vertices is the largest vertex count addressable with
	// 16-bit indices.
	MaxUInt16Vertices = 65535

	// LightmapTriangleThreshold is the triangle count above which lightmap
	// UVs are only generated on request.
	LightmapTriangleThreshold = 50000
)

// Import warnings. They are collected in Mesh.Warnings and never stop the import.
var (
	ErrIndexWidthOverflow = errors.New("mesh requires 32-bit indices and may not render on all platforms")
	ErrLightmapUVSkipped  = errors.New("lightmap UVs not generated due to complexity limits")
	ErrLightmapUVFailed   = errors.New("lightmap UV generation failed")
)

// SelectIndexFormat returns the narrowest index format able to address
// vertexCount vertices.
func SelectIndexFormat(vertexCount int) IndexFormat {
	if vertexCount > MaxUInt16Vertices {
		return IndexFormatUInt32
	}
	return IndexFormatUInt16
}

// assemble concatenates the cooked submeshes into one vertex buffer and
// attaches bounds, tangents and (when allowed) lightmap UVs.
func assemble(subs []cookedSubmesh, opts ImportOptions, log *zap.Logger) (*Mesh, error) {
	mesh := &Mesh{Submeshes: make([]Submesh, 0, len(subs))}

	var warnings error
	warn := func(err error) {
		log.Warn("udsmesh import warning", zap.Error(err))
		warnings = multierr.Append(warnings, err)
	}

	for _, s := range subs {
		base := len(mesh.Vertices)
		indices := make([]uint32, len(s.indices))
		for i, local := range s.indices {
			indices[i] = uint32(base) + local
		}

		mesh.Submeshes = append(mesh.Submeshes, Submesh{
			MaterialID:  s.materialID,
			BaseVertex:  base,
			VertexCount: len(s.vertices),
			Indices:     indices,
		})
		mesh.Vertices = append(mesh.Vertices, s.vertices...)
		mesh.PositionIndices = append(mesh.PositionIndices, s.positionIndices...)
	}

	mesh.IndexFormat = SelectIndexFormat(len(mesh.Vertices))
	if mesh.IndexFormat == IndexFormatUInt32 {
		warn(fmt.Errorf("%w: %d vertices", ErrIndexWidthOverflow, len(mesh.Vertices)))
	}

	positions := mesh.Positions()
	mesh.Bounds = geometry.ComputeBounds(positions)

	tangents, err := geometry.ComputeTangents(positions, mesh.Normals(), mesh.TexCoords(), mesh.allIndices())
	if err != nil {
		return nil, fmt.Errorf("computing tangents: %w", err)
	}
	mesh.Tangents = tangents

	if tris := mesh.TriangleCount(); tris > LightmapTriangleThreshold {
		if opts.ForceLightmapUVGeneration {
			uvs, err := opts.Unwrapper.Unwrap(positions, mesh.Normals())
			if err != nil {
				warn(fmt.Errorf("%w: %v", ErrLightmapUVFailed, err))
			} else {
				mesh.LightmapUVs = uvs
			}
		} else {
			warn(fmt.Errorf("%w: %d triangles (limit %d), enable force lightmap UV generation to override",
				ErrLightmapUVSkipped, tris, LightmapTriangleThreshold))
		}
	}

	mesh.Warnings = warnings
	return mesh, nil
}

// allIndices returns every submesh index list concatenated.
func (m *Mesh) allIndices() []uint32 {
	out := make([]uint32, 0, m.TriangleCount()*3)
	for i := range m.Submeshes {
		out = append(out, m.Submeshes[i].Indices...)
	}
	return out
}
