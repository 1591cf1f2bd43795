package model

import "github.com/Faultbox/udsmesh/pkg/formats"

// cookedSubmesh is the vertex and index data of one submesh before the
// submeshes are concatenated. Indices are local to vertices.
type cookedSubmesh struct {
	materialID      uint32
	vertices        []Vertex
	positionIndices []uint32
	indices         []uint32
}

// cookSubmesh expands the per face-vertex normals and UVs of one submesh
// into shared vertices.
//
// Triangles are visited in file order with their corners reversed (2, 1, 0)
// to flip the winding. A corner reuses an earlier vertex of this submesh only
// when it has the same welded position and the same quantized normal and
// UV; hard edges and UV seams therefore keep their split vertices.
//
// raw must have passed Validate.
func cookSubmesh(raw *formats.UDSMesh, part Partition, rank int, q quantizer) cookedSubmesh {
	triangles := part.Triangles[rank]
	sub := cookedSubmesh{
		materialID: part.Materials[rank],
		indices:    make([]uint32, 0, len(triangles)*3),
	}

	// Welded position index -> attribute key -> local vertex index
	lookup := make(map[uint32]map[attributeKey]uint32)

	for _, tri := range triangles {
		for corner := 2; corner >= 0; corner-- {
			fv := tri*3 + corner
			pos := raw.Indices[fv]
			normal, uv := raw.Normals[fv], raw.UVs[fv]
			key := q.key(normal, uv)

			slots, ok := lookup[pos]
			if !ok {
				slots = make(map[attributeKey]uint32, 1)
				lookup[pos] = slots
			}

			local, ok := slots[key]
			if !ok {
				local = uint32(len(sub.vertices))
				sub.vertices = append(sub.vertices, Vertex{
					Position: raw.Positions[pos],
					Normal:   normal,
					TexCoord: uv,
				})
				sub.positionIndices = append(sub.positionIndices, pos)
				slots[key] = local
			}
			sub.indices = append(sub.indices, local)
		}
	}

	return sub
}
