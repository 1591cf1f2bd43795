package model

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// ErrIndexFormat is returned when 16-bit indices are requested from a mesh
// that needs 32-bit indices.
var ErrIndexFormat = errors.New("index buffer does not fit the requested format")

// Indices16 returns the indices of submesh i narrowed to 16 bits.
func (m *Mesh) Indices16(i int) ([]uint16, error) {
	if m.IndexFormat != IndexFormatUInt16 {
		return nil, fmt.Errorf("%w: mesh uses %s", ErrIndexFormat, m.IndexFormat)
	}
	return convertIndices[uint16](m.Submeshes[i].Indices), nil
}

// Indices32 returns the indices of submesh i as 32-bit values.
func (m *Mesh) Indices32(i int) []uint32 {
	return convertIndices[uint32](m.Submeshes[i].Indices)
}

// IndexBytes returns the little-endian index buffer of submesh i in the
// mesh's index format.
func (m *Mesh) IndexBytes(i int) []byte {
	src := m.Submeshes[i].Indices
	if m.IndexFormat == IndexFormatUInt32 {
		return appendIndices(make([]byte, 0, len(src)*4), convertIndices[uint32](src))
	}
	return appendIndices(make([]byte, 0, len(src)*2), convertIndices[uint16](src))
}

func convertIndices[T constraints.Unsigned](src []uint32) []T {
	out := make([]T, len(src))
	for i, v := range src {
		out[i] = T(v)
	}
	return out
}

func appendIndices[T uint16 | uint32](dst []byte, src []T) []byte {
	for _, v := range src {
		switch x := any(v).(type) {
		case uint16:
			dst = binary.LittleEndian.AppendUint16(dst, x)
		case uint32:
			dst = binary.LittleEndian.AppendUint32(dst, x)
		}
	}
	return dst
}
