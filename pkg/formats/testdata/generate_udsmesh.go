//go:build ignore

// This program generates a test .udsmesh file for unit tests.
// Run with: go run generate_udsmesh.go
package main

import (
	"bytes"
	"encoding/binary"
	"os"
)

func main() {
	// A unit quad split into two triangles, one per material. The shared
	// edge is stored twice in the vertex array so the welder has work to do.
	var buf bytes.Buffer
	w := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	// Datasmith writes a serialized object header before the payload
	buf.Write([]byte{0x01, 0x00, 0x00, 0x00, 0x18, 0x00, 0x00, 0x00})
	buf.WriteString("DatasmithMeshSourceModel")
	buf.Write([]byte{0x00, 0x00})

	w(make([]uint32, 6)) // reserved
	w(uint32(160))       // length field
	w(uint32(160))       // length field
	w(make([]uint32, 4)) // unknown

	// Material ids, one per triangle
	w(uint32(2))
	w([]uint32{4, 9})

	// Unknown block
	w(uint32(2))
	w([]uint32{0, 0})

	// Vertices in centimetres; 3 and 4 duplicate 2 and 1
	w(uint32(6))
	w([]float32{
		0, 0, 0,
		100, 0, 0,
		0, 100, 0,
		0, 100, 0,
		100, 0, 0,
		100, 100, 0,
	})

	// Indices
	w(uint32(6))
	w([]uint32{0, 1, 2, 3, 4, 5})

	w(make([]uint32, 2)) // reserved

	// Normals, one per index
	w(uint32(6))
	for i := 0; i < 6; i++ {
		w([]float32{0, 0, 1})
	}

	// UVs, one per index
	w(uint32(6))
	w([]float32{
		0, 0, 1, 0, 0, 1,
		0, 1, 1, 0, 1, 1,
	})

	if err := os.WriteFile("test.udsmesh", buf.Bytes(), 0644); err != nil {
		panic(err)
	}

	println("Generated test.udsmesh:", buf.Len(), "bytes")
	println("  - 6 file vertices, 4 unique")
	println("  - 2 triangles, materials 4 and 9")
}
