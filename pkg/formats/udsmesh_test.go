package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// udsFixture describes a synthetic .udsmesh file.
type udsFixture struct {
	prefix      []byte
	leading     [6]uint32
	header      [6]uint32
	materials   []uint32
	unknown     []uint32
	vertexCount *uint32 // overrides len(positions) when set
	positions   [][3]float32
	indices     []uint32
	trailing    [2]uint32
	normals     [][3]float32
	uvs         [][2]float32
}

// triangleFixture is the minimal one-triangle file.
func triangleFixture() udsFixture {
	return udsFixture{
		header:    [6]uint32{0x40, 0x40, 0x9c, 0, 1, 0},
		materials: []uint32{0},
		positions: [][3]float32{{0, 0, 0}, {100, 0, 0}, {0, 100, 0}},
		indices:   []uint32{0, 1, 2},
		normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		uvs:       [][2]float32{{0, 0}, {1, 0}, {0, 1}},
	}
}

func (f udsFixture) bytes() []byte {
	buf := new(bytes.Buffer)
	buf.Write(f.prefix)
	buf.WriteString(UDSMeshMarker)
	buf.Write([]byte{0, 0})

	binary.Write(buf, binary.LittleEndian, f.leading)
	binary.Write(buf, binary.LittleEndian, f.header)

	binary.Write(buf, binary.LittleEndian, uint32(len(f.materials)))
	binary.Write(buf, binary.LittleEndian, f.materials)
	binary.Write(buf, binary.LittleEndian, uint32(len(f.unknown)))
	binary.Write(buf, binary.LittleEndian, f.unknown)

	count := uint32(len(f.positions))
	if f.vertexCount != nil {
		count = *f.vertexCount
	}
	binary.Write(buf, binary.LittleEndian, count)
	binary.Write(buf, binary.LittleEndian, f.positions)

	binary.Write(buf, binary.LittleEndian, uint32(len(f.indices)))
	binary.Write(buf, binary.LittleEndian, f.indices)
	binary.Write(buf, binary.LittleEndian, f.trailing)

	binary.Write(buf, binary.LittleEndian, uint32(len(f.normals)))
	binary.Write(buf, binary.LittleEndian, f.normals)
	binary.Write(buf, binary.LittleEndian, uint32(len(f.uvs)))
	binary.Write(buf, binary.LittleEndian, f.uvs)

	return buf.Bytes()
}

func TestScanMarker(t *testing.T) {
	marker := "MARKER"
	tests := []struct {
		name    string
		data    []byte
		want    int64
		wantErr error
	}{
		{"at start", []byte("MARKER\x00\x00rest"), 8, nil},
		{"after junk", []byte("xyzMARKER\x00\x00rest"), 11, nil},
		{"after false start", []byte("MARKMARKER\x00\x00rest"), 12, nil},
		{"absent", []byte("nothing to see here at all"), 0, ErrMarkerNotFound},
		{"empty stream", nil, 0, ErrMarkerNotFound},
		{"ends at eof", []byte("xxMARKER"), 0, ErrMarkerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.data)
			got, err := ScanMarker(r, marker)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ScanMarker failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("offset = %d, want %d", got, tt.want)
			}
			rest := make([]byte, 4)
			if _, err := r.Read(rest); err != nil || string(rest) != "rest" {
				t.Errorf("stream not positioned after padding: %q, %v", rest, err)
			}
		})
	}
}

func TestParseUDSMesh_Triangle(t *testing.T) {
	data := triangleFixture().bytes()

	mesh, err := ParseUDSMesh(data)
	if err != nil {
		t.Fatalf("ParseUDSMesh failed: %v", err)
	}

	if mesh.PayloadOffset != int64(len(UDSMeshMarker)+2) {
		t.Errorf("expected payload offset %d, got %d", len(UDSMeshMarker)+2, mesh.PayloadOffset)
	}
	if len(mesh.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", mesh.Warnings)
	}
	if mesh.FileVertexCount != 3 || len(mesh.Positions) != 3 {
		t.Fatalf("expected 3 positions, got file=%d welded=%d", mesh.FileVertexCount, len(mesh.Positions))
	}
	if !mesh.Positions[1].ApproxEqual(mgl32.Vec3{1, 0, 0}) {
		t.Errorf("expected position scaled to meters, got %v", mesh.Positions[1])
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("expected 1 triangle, got %d", mesh.TriangleCount())
	}
	if len(mesh.Normals) != 3 || len(mesh.UVs) != 3 {
		t.Errorf("expected 3 normals and uvs, got %d and %d", len(mesh.Normals), len(mesh.UVs))
	}
	if err := mesh.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestParseUDSMesh_MarkerAfterPreamble(t *testing.T) {
	f := triangleFixture()
	f.prefix = append([]byte("Datasmith\x00\x01\x02DatasmithMesh"), make([]byte, 37)...)

	mesh, err := ParseUDSMesh(f.bytes())
	if err != nil {
		t.Fatalf("ParseUDSMesh failed: %v", err)
	}
	want := int64(len(f.prefix) + len(UDSMeshMarker) + 2)
	if mesh.PayloadOffset != want {
		t.Errorf("expected payload offset %d, got %d", want, mesh.PayloadOffset)
	}
}

func TestParseUDSMesh_WeldsExactDuplicates(t *testing.T) {
	f := triangleFixture()
	f.materials = []uint32{0, 0}
	f.positions = [][3]float32{{0, 0, 0}, {100, 0, 0}, {0, 0, 0}, {0, 100, 0}, {100, 0, 0.001}}
	f.indices = []uint32{0, 1, 3, 2, 3, 4}
	f.normals = append(f.normals, f.normals...)
	f.uvs = append(f.uvs, f.uvs...)

	mesh, err := ParseUDSMesh(f.bytes())
	if err != nil {
		t.Fatalf("ParseUDSMesh failed: %v", err)
	}

	wantRemap := []uint32{0, 1, 0, 2, 3}
	for i, want := range wantRemap {
		if mesh.Remap[i] != want {
			t.Errorf("remap[%d] = %d, want %d", i, mesh.Remap[i], want)
		}
	}
	if len(mesh.Positions) != 4 {
		t.Errorf("expected 4 welded positions, got %d", len(mesh.Positions))
	}
	if mesh.WeldedCount() != 1 {
		t.Errorf("expected 1 welded vertex, got %d", mesh.WeldedCount())
	}

	wantIndices := []uint32{0, 1, 2, 0, 2, 3}
	for i, want := range wantIndices {
		if mesh.Indices[i] != want {
			t.Errorf("indices[%d] = %d, want %d", i, mesh.Indices[i], want)
		}
	}
}

func TestParseUDSMesh_SanityLimit(t *testing.T) {
	f := triangleFixture()
	count := uint32(600000)
	f.vertexCount = &count

	mesh, err := ParseUDSMesh(f.bytes())
	if !errors.Is(err, ErrSanityLimitExceeded) {
		t.Fatalf("expected ErrSanityLimitExceeded, got %v", err)
	}
	if mesh != nil {
		t.Error("expected no mesh on sanity failure")
	}
}

func TestParseUDSMesh_AtSanityLimitIsReadNormally(t *testing.T) {
	f := triangleFixture()
	count := uint32(UDSMaxVertexCount)
	f.vertexCount = &count

	// The count is legal, but the stream only holds 3 positions.
	_, err := ParseUDSMesh(f.bytes())
	if !errors.Is(err, ErrTruncatedUDSData) {
		t.Fatalf("expected ErrTruncatedUDSData, got %v", err)
	}
}

func TestParseUDSMesh_ReservedWordWarnings(t *testing.T) {
	f := triangleFixture()
	f.leading[2] = 7
	f.trailing[1] = 1

	mesh, err := ParseUDSMesh(f.bytes())
	if err != nil {
		t.Fatalf("ParseUDSMesh failed: %v", err)
	}
	if len(mesh.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(mesh.Warnings), mesh.Warnings)
	}
	for _, w := range mesh.Warnings {
		if !errors.Is(w, ErrReservedFieldNonzero) {
			t.Errorf("unexpected warning %v", w)
		}
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("parsing should continue past warnings, got %d triangles", mesh.TriangleCount())
	}
}

func TestParseUDSMesh_UnknownWordsSkipped(t *testing.T) {
	f := triangleFixture()
	f.unknown = []uint32{0xdeadbeef, 1, 2, 3}

	mesh, err := ParseUDSMesh(f.bytes())
	if err != nil {
		t.Fatalf("ParseUDSMesh failed: %v", err)
	}
	if mesh.UnknownWordCount != 4 {
		t.Errorf("expected 4 unknown words, got %d", mesh.UnknownWordCount)
	}
	if len(mesh.Positions) != 3 {
		t.Errorf("expected 3 positions after unknown block, got %d", len(mesh.Positions))
	}
}

func TestParseUDSMesh_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*udsFixture)
		wantErr error
	}{
		{
			name:    "index count not triangles",
			mutate:  func(f *udsFixture) { f.indices = []uint32{0, 1, 2, 0} },
			wantErr: ErrInvalidIndexCount,
		},
		{
			name:    "index out of range",
			mutate:  func(f *udsFixture) { f.indices = []uint32{0, 1, 3} },
			wantErr: ErrIndexOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := triangleFixture()
			tt.mutate(&f)
			_, err := ParseUDSMesh(f.bytes())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseUDSMesh_NoMarker(t *testing.T) {
	_, err := ParseUDSMesh([]byte("DatasmithMeshSourceMode\x00\x00 plus some trailing bytes"))
	if !errors.Is(err, ErrMarkerNotFound) {
		t.Fatalf("expected ErrMarkerNotFound, got %v", err)
	}
}

func TestParseUDSMesh_Truncated(t *testing.T) {
	data := triangleFixture().bytes()
	markerEnd := len(UDSMeshMarker) + 2

	// Every cut between the end of the marker and the last byte must fail.
	for cut := markerEnd; cut < len(data); cut += 5 {
		_, err := ParseUDSMesh(data[:cut])
		if !errors.Is(err, ErrTruncatedUDSData) {
			t.Errorf("cut at %d: expected ErrTruncatedUDSData, got %v", cut, err)
		}
	}
}

func TestParseUDSMesh_HugeCountFailsFast(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString(UDSMeshMarker)
	buf.Write([]byte{0, 0})
	binary.Write(buf, binary.LittleEndian, [12]uint32{})
	binary.Write(buf, binary.LittleEndian, uint32(0xffffffff)) // material count
	buf.Write(make([]byte, 64))

	_, err := ParseUDSMesh(buf.Bytes())
	if !errors.Is(err, ErrTruncatedUDSData) {
		t.Fatalf("expected ErrTruncatedUDSData, got %v", err)
	}
}

func TestUDSMesh_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*UDSMesh)
		wantErr error
	}{
		{"valid", func(m *UDSMesh) {}, nil},
		{"missing material", func(m *UDSMesh) { m.MaterialIDs = nil }, ErrAttributeCountMismatch},
		{"short normals", func(m *UDSMesh) { m.Normals = m.Normals[:2] }, ErrAttributeCountMismatch},
		{"long uvs", func(m *UDSMesh) { m.UVs = append(m.UVs, mgl32.Vec2{}) }, ErrAttributeCountMismatch},
		{"dangling index", func(m *UDSMesh) { m.Indices[0] = 9 }, ErrIndexOutOfRange},
		{"partial triangle", func(m *UDSMesh) { m.Indices = m.Indices[:2] }, ErrInvalidIndexCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := ParseUDSMesh(triangleFixture().bytes())
			if err != nil {
				t.Fatalf("ParseUDSMesh failed: %v", err)
			}
			tt.mutate(mesh)
			err = mesh.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseUDSMeshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triangle.udsmesh")
	if err := os.WriteFile(path, triangleFixture().bytes(), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	mesh, err := ParseUDSMeshFile(path)
	if err != nil {
		t.Fatalf("ParseUDSMeshFile failed: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("expected 1 triangle, got %d", mesh.TriangleCount())
	}

	if _, err := ParseUDSMeshFile(filepath.Join(t.TempDir(), "missing.udsmesh")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseUDSMesh_GeneratedFile(t *testing.T) {
	testFile := filepath.Join("testdata", "test.udsmesh")
	if _, err := os.Stat(testFile); os.IsNotExist(err) {
		t.Skip("testdata/test.udsmesh not found, run: go run testdata/generate_udsmesh.go")
	}

	mesh, err := ParseUDSMeshFile(testFile)
	if err != nil {
		t.Fatalf("ParseUDSMeshFile failed: %v", err)
	}

	if mesh.PayloadOffset != 34 {
		t.Errorf("expected payload offset 34, got %d", mesh.PayloadOffset)
	}
	if len(mesh.Positions) != 4 {
		t.Errorf("expected 4 welded positions, got %d", len(mesh.Positions))
	}
	if mesh.WeldedCount() != 2 {
		t.Errorf("expected 2 welded vertices, got %d", mesh.WeldedCount())
	}
	if mesh.TriangleCount() != 2 {
		t.Errorf("expected 2 triangles, got %d", mesh.TriangleCount())
	}
	if len(mesh.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", mesh.Warnings)
	}
	if err := mesh.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
