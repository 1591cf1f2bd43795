// UDSMesh (Datasmith mesh source model) parser for .udsmesh geometry.

package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
)

// UDSMeshMarker frames the start of the geometry payload.
const UDSMeshMarker = "DatasmithMeshSourceModel"

const (
	// UDSMaxVertexCount is the hard ceiling on the file vertex count.
	UDSMaxVertexCount = 524288

	// UDSPositionScale converts source centimeters to meters.
	UDSPositionScale = 0.01

	udsMarkerPadding         = 2
	udsLeadingReservedWords  = 6
	udsHeaderUnknownWords    = 6 // two length fields + four unidentified words
	udsTrailingReservedWords = 2
)

// UDSMesh format errors.
var (
	ErrMarkerNotFound         = errors.New("udsmesh marker not found")
	ErrSanityLimitExceeded    = errors.New("udsmesh vertex count exceeds sanity limit")
	ErrTruncatedUDSData       = errors.New("truncated udsmesh data")
	ErrInvalidIndexCount      = errors.New("udsmesh index count is not a multiple of 3")
	ErrIndexOutOfRange        = errors.New("udsmesh vertex index out of range")
	ErrAttributeCountMismatch = errors.New("udsmesh attribute count mismatch")
)

// ErrReservedFieldNonzero marks a reserved word that was expected to be zero.
// It is reported as a warning; parsing continues.
var ErrReservedFieldNonzero = errors.New("udsmesh reserved field is nonzero")

// UDSMesh holds the raw arrays of a .udsmesh payload.
//
// Positions are welded: exact duplicates are collapsed and Remap maps every
// file vertex index to the first occurrence of its position. Indices are
// already remapped into the welded position space. Normals and UVs are
// per face-vertex: entry triIdx*3+corner belongs to that triangle corner.
type UDSMesh struct {
	PayloadOffset    int64        // Stream offset just past the marker padding
	MaterialIDs      []uint32     // One material id per triangle
	UnknownWordCount uint32       // Opaque words skipped after the material ids
	FileVertexCount  uint32       // Vertex count as stored in the file
	Positions        []mgl32.Vec3 // Welded positions, in meters
	Remap            []uint32     // File vertex index -> welded position index
	Indices          []uint32     // Triangle list into Positions
	Normals          []mgl32.Vec3 // Per face-vertex normals
	UVs              []mgl32.Vec2 // Per face-vertex texture coordinates
	Warnings         []error      // Non-fatal format drift signals
}

// TriangleCount returns the number of triangles in the index list.
func (m *UDSMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// WeldedCount returns how many file vertices were collapsed into an
// earlier identical position.
func (m *UDSMesh) WeldedCount() int {
	return int(m.FileVertexCount) - len(m.Positions)
}

// Validate checks that every per-triangle and per-face-vertex array matches
// the index list. Cooking indexes these arrays directly, so a mismatch must
// be rejected rather than read out of bounds.
func (m *UDSMesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndexCount, len(m.Indices))
	}
	if tris := m.TriangleCount(); len(m.MaterialIDs) != tris {
		return fmt.Errorf("%w: %d material ids for %d triangles", ErrAttributeCountMismatch, len(m.MaterialIDs), tris)
	}
	if len(m.Normals) != len(m.Indices) {
		return fmt.Errorf("%w: %d normals for %d indices", ErrAttributeCountMismatch, len(m.Normals), len(m.Indices))
	}
	if len(m.UVs) != len(m.Indices) {
		return fmt.Errorf("%w: %d uvs for %d indices", ErrAttributeCountMismatch, len(m.UVs), len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("%w: index %d references position %d of %d", ErrIndexOutOfRange, i, idx, len(m.Positions))
		}
	}
	return nil
}

// ParseUDSMesh parses .udsmesh data from a byte slice.
func ParseUDSMesh(data []byte) (*UDSMesh, error) {
	return ParseUDSMeshReader(bytes.NewReader(data))
}

// ParseUDSMeshFile parses a .udsmesh file from disk.
func ParseUDSMeshFile(path string) (*UDSMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening udsmesh file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading udsmesh file: %w", err)
	}
	return ParseUDSMesh(data)
}

// ParseUDSMeshReader scans r for the payload marker and reads the geometry
// arrays that follow it.
//
// Structural problems (missing marker, truncation, bad counts, out of range
// indices) are fatal. Nonzero reserved words are recorded in Warnings.
// When the vertex count exceeds UDSMaxVertexCount the returned error wraps
// ErrSanityLimitExceeded and no mesh is returned.
func ParseUDSMeshReader(r io.ReadSeeker) (*UDSMesh, error) {
	offset, err := ScanMarker(r, UDSMeshMarker)
	if err != nil {
		return nil, err
	}

	s, err := newStreamReader(r, offset)
	if err != nil {
		return nil, err
	}

	mesh := &UDSMesh{PayloadOffset: offset}

	// Header: reserved zeros, then lengths and unidentified words
	for i := 0; i < udsLeadingReservedWords; i++ {
		if v := s.u32("leading reserved word"); v != 0 {
			mesh.Warnings = append(mesh.Warnings,
				fmt.Errorf("%w: leading word %d is 0x%08x", ErrReservedFieldNonzero, i, v))
		}
	}
	for i := 0; i < udsHeaderUnknownWords; i++ {
		s.u32("header word")
	}
	if s.err != nil {
		return nil, s.err
	}

	materialCount := s.u32("material index count")
	mesh.MaterialIDs = s.u32s(materialCount, "material indices")

	mesh.UnknownWordCount = s.u32("unknown word count")
	s.block(mesh.UnknownWordCount, 4, "unknown words")
	if s.err != nil {
		return nil, s.err
	}

	if err := readPositions(s, mesh); err != nil {
		return nil, err
	}
	if err := readIndices(s, mesh); err != nil {
		return nil, err
	}

	for i := 0; i < udsTrailingReservedWords; i++ {
		if v := s.u32("trailing reserved word"); v != 0 {
			mesh.Warnings = append(mesh.Warnings,
				fmt.Errorf("%w: trailing word %d is 0x%08x", ErrReservedFieldNonzero, i, v))
		}
	}

	normalCount := s.u32("normal count")
	mesh.Normals = s.vec3s(normalCount, "normals")

	uvCount := s.u32("uv count")
	mesh.UVs = s.vec2s(uvCount, "uvs")
	if s.err != nil {
		return nil, s.err
	}

	return mesh, nil
}

// readPositions reads the vertex positions, scales them to meters and welds
// exact duplicates. Only bit-identical (after scaling) positions collapse.
func readPositions(s *streamReader, mesh *UDSMesh) error {
	count := s.u32("vertex count")
	if s.err != nil {
		return s.err
	}
	if count > UDSMaxVertexCount {
		return fmt.Errorf("%w: %d vertices, limit is %d", ErrSanityLimitExceeded, count, UDSMaxVertexCount)
	}
	mesh.FileVertexCount = count

	raw := s.vec3s(count, "vertex positions")
	if s.err != nil {
		return s.err
	}

	welded := make(map[mgl32.Vec3]uint32, len(raw))
	mesh.Positions = make([]mgl32.Vec3, 0, len(raw))
	mesh.Remap = make([]uint32, len(raw))
	for i, p := range raw {
		v := p.Mul(UDSPositionScale)
		idx, ok := welded[v]
		if !ok {
			idx = uint32(len(mesh.Positions))
			mesh.Positions = append(mesh.Positions, v)
			welded[v] = idx
		}
		mesh.Remap[i] = idx
	}
	return nil
}

// readIndices reads the triangle list, remapping every file vertex index
// into the welded position space as it goes.
func readIndices(s *streamReader, mesh *UDSMesh) error {
	count := s.u32("index count")
	if s.err != nil {
		return s.err
	}
	if count%3 != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndexCount, count)
	}

	mesh.Indices = s.u32s(count, "indices")
	if s.err != nil {
		return s.err
	}
	for i, idx := range mesh.Indices {
		if int(idx) >= len(mesh.Remap) {
			return fmt.Errorf("%w: index %d is %d, file has %d vertices", ErrIndexOutOfRange, i, idx, len(mesh.Remap))
		}
		mesh.Indices[i] = mesh.Remap[idx]
	}
	return nil
}
