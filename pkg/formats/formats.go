// Package formats provides parsers for Datasmith interchange file formats.
package formats

// Note: UDSMesh (Datasmith mesh source model) is implemented in udsmesh.go,
// with the low-level stream helpers in reader.go.
