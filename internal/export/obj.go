// Package export writes decoded meshes to interchange formats.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/udsmesh/internal/model"
)

// OBJOptions controls Wavefront OBJ output.
type OBJOptions struct {
	Name         string // Object name written to the "o" record
	MaterialLib  string // Optional mtllib file name
	FlipV        bool   // Write 1-v texture coordinates
	WriteNormals bool   // Emit vn records and v/vt/vn faces
}

// MaterialName returns the OBJ material name used for a source material id.
func MaterialName(id uint32) string {
	return "material_" + strconv.FormatUint(uint64(id), 10)
}

// WriteOBJ writes mesh as a single OBJ object with one group per submesh.
func WriteOBJ(w io.Writer, mesh *model.Mesh, opts OBJOptions) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 96)

	fmt.Fprintf(bw, "# %d vertices, %d triangles, %d submeshes\n",
		len(mesh.Vertices), mesh.TriangleCount(), len(mesh.Submeshes))
	if opts.MaterialLib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", opts.MaterialLib)
	}
	if opts.Name != "" {
		fmt.Fprintf(bw, "o %s\n", opts.Name)
	}

	for _, v := range mesh.Vertices {
		buf = appendRecord(buf[:0], "v", v.Position[0], v.Position[1], v.Position[2])
		bw.Write(buf)
	}
	for _, v := range mesh.Vertices {
		t := v.TexCoord[1]
		if opts.FlipV {
			t = 1 - t
		}
		buf = appendRecord(buf[:0], "vt", v.TexCoord[0], t)
		bw.Write(buf)
	}
	if opts.WriteNormals {
		for _, v := range mesh.Vertices {
			buf = appendRecord(buf[:0], "vn", v.Normal[0], v.Normal[1], v.Normal[2])
			bw.Write(buf)
		}
	}

	for i := range mesh.Submeshes {
		sub := &mesh.Submeshes[i]
		fmt.Fprintf(bw, "g submesh_%d\n", i)
		fmt.Fprintf(bw, "usemtl %s\n", MaterialName(sub.MaterialID))
		for t := 0; t+2 < len(sub.Indices); t += 3 {
			buf = append(buf[:0], 'f')
			for _, idx := range sub.Indices[t : t+3] {
				buf = appendCorner(buf, idx+1, opts.WriteNormals)
			}
			buf = append(buf, '\n')
			bw.Write(buf)
		}
	}

	return bw.Flush()
}

// WriteMTL writes a placeholder material per distinct submesh material so the
// OBJ opens with its groups intact.
func WriteMTL(w io.Writer, mesh *model.Mesh) error {
	bw := bufio.NewWriter(w)
	for i := range mesh.Submeshes {
		fmt.Fprintf(bw, "newmtl %s\nKd 0.800 0.800 0.800\nd 1.0\nillum 1\n\n",
			MaterialName(mesh.Submeshes[i].MaterialID))
	}
	return bw.Flush()
}

// WriteOBJFiles writes <base>.obj and <base>.mtl next to each other.
func WriteOBJFiles(objPath string, mesh *model.Mesh, opts OBJOptions) error {
	mtlPath := strings.TrimSuffix(objPath, filepath.Ext(objPath)) + ".mtl"
	opts.MaterialLib = filepath.Base(mtlPath)

	if err := writeFile(mtlPath, func(w io.Writer) error { return WriteMTL(w, mesh) }); err != nil {
		return err
	}
	return writeFile(objPath, func(w io.Writer) error { return WriteOBJ(w, mesh, opts) })
}

func writeFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func appendRecord(buf []byte, tag string, values ...float32) []byte {
	buf = append(buf, tag...)
	for _, v := range values {
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, float64(v), 'g', -1, 32)
	}
	return append(buf, '\n')
}

func appendCorner(buf []byte, idx uint32, normals bool) []byte {
	buf = append(buf, ' ')
	buf = strconv.AppendUint(buf, uint64(idx), 10)
	buf = append(buf, '/')
	buf = strconv.AppendUint(buf, uint64(idx), 10)
	if normals {
		buf = append(buf, '/')
		buf = strconv.AppendUint(buf, uint64(idx), 10)
	}
	return buf
}
