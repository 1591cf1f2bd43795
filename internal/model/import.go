package model

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/udsmesh/internal/geometry"
	"github.com/Faultbox/udsmesh/pkg/formats"
)

// ImportFile decodes the .udsmesh file at path. The file is closed before
// ImportFile returns, on every path.
func ImportFile(path string, opts ImportOptions, log *zap.Logger) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening udsmesh file: %w", err)
	}
	defer f.Close()

	if opts.Name == "" {
		opts.Name = path
	}
	return Import(f, opts, log)
}

// Import decodes a .udsmesh stream into a Mesh.
//
// Fatal errors wrap the formats sentinels (ErrMarkerNotFound,
// ErrTruncatedUDSData, ...) and return a nil mesh, except for
// ErrSanityLimitExceeded which returns an empty, non-nil mesh alongside the
// error. Warnings are logged and collected in Mesh.Warnings.
func Import(r io.ReadSeeker, opts ImportOptions, log *zap.Logger) (*Mesh, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Name != "" {
		log = log.With(zap.String("mesh", opts.Name))
	}

	raw, err := formats.ParseUDSMeshReader(r)
	if err != nil {
		if errors.Is(err, formats.ErrSanityLimitExceeded) {
			log.Error("sanity check failed, returning empty mesh", zap.Error(err))
			return &Mesh{}, err
		}
		log.Error("udsmesh decode failed", zap.Error(err))
		return nil, err
	}

	return Build(raw, opts, log)
}

// Build turns parsed .udsmesh arrays into a Mesh: partition by material,
// cook each submesh and assemble the output buffers.
func Build(raw *formats.UDSMesh, opts ImportOptions, log *zap.Logger) (*Mesh, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Unwrapper == nil {
		opts.Unwrapper = geometry.DefaultBoxUnwrapper()
	}

	if err := raw.Validate(); err != nil {
		log.Error("udsmesh arrays are inconsistent", zap.Error(err))
		return nil, err
	}

	var warnings error
	for _, w := range raw.Warnings {
		log.Warn("udsmesh format drift", zap.Error(w))
		warnings = multierr.Append(warnings, w)
	}

	if welded := raw.WeldedCount(); welded > 0 {
		log.Debug("welded duplicate positions",
			zap.Int("removed", welded),
			zap.Uint32("file_vertices", raw.FileVertexCount))
	}

	part := PartitionSubmeshes(raw.MaterialIDs)
	q := newQuantizer(opts.QuantizationStep)

	subs := make([]cookedSubmesh, part.SubmeshCount())
	for rank := range subs {
		subs[rank] = cookSubmesh(raw, part, rank, q)
	}

	mesh, err := assemble(subs, opts, log)
	if err != nil {
		return nil, err
	}
	mesh.Warnings = multierr.Append(warnings, mesh.Warnings)

	log.Info("imported udsmesh",
		zap.Int("submeshes", len(mesh.Submeshes)),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Stringer("index_format", mesh.IndexFormat),
		zap.Bool("lightmap_uvs", mesh.LightmapUVs != nil))

	return mesh, nil
}
