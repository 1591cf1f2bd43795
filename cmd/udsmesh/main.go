// udsmesh is a CLI utility for inspecting and converting Datasmith .udsmesh files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/udsmesh/internal/config"
	"github.com/Faultbox/udsmesh/internal/export"
	"github.com/Faultbox/udsmesh/internal/logger"
	"github.com/Faultbox/udsmesh/internal/model"
	"github.com/Faultbox/udsmesh/pkg/formats"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cmdErr error
	switch command {
	case "info":
		cmdErr = cmdInfo(cfg, args)
	case "submeshes", "sub":
		cmdErr = cmdSubmeshes(cfg, args)
	case "export", "obj":
		cmdErr = cmdExport(cfg, args)
	case "config":
		cmdErr = cmdConfig(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`udsmesh - Datasmith binary mesh utility

Usage:
  udsmesh [flags] <command> [options]

Commands:
  info <file.udsmesh>                 Show header, counts and import warnings
  submeshes <file.udsmesh>            List submeshes in material order
  export <file.udsmesh> [out.obj]     Convert to Wavefront OBJ + MTL
  config init [path]                  Write the default config file

Flags:
  -config <path>            Config file (default: ./udsmesh.yaml, then user config dir)
  -debug                    Enable debug logging
  -force-lightmap-uv        Generate lightmap UVs on meshes above 50000 triangles
  -quantization-step <f>    Normal/UV merge resolution
  -log-file <path>          Also write logs to a rotated file

Examples:
  udsmesh info chair.udsmesh
  udsmesh -debug submeshes chair.udsmesh
  udsmesh export chair.udsmesh ./out/chair.obj`)
}

func importMesh(cfg *config.Config, path string) (*model.Mesh, error) {
	opts := cfg.ImportOptions()
	opts.Name = filepath.Base(path)
	return model.ImportFile(path, opts, logger.Log)
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: udsmesh info <file.udsmesh>")
	}
	path := args[0]

	raw, err := formats.ParseUDSMeshFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("File:            %s\n", path)
	fmt.Printf("Payload offset:  %d\n", raw.PayloadOffset)
	fmt.Printf("File vertices:   %d\n", raw.FileVertexCount)
	fmt.Printf("Unique vertices: %d (%d welded)\n", len(raw.Positions), raw.WeldedCount())
	fmt.Printf("Triangles:       %d\n", raw.TriangleCount())
	fmt.Printf("Unknown words:   %d\n", raw.UnknownWordCount)

	opts := cfg.ImportOptions()
	opts.Name = filepath.Base(path)
	mesh, err := model.Build(raw, opts, logger.Log)
	if err != nil {
		return err
	}

	b := mesh.Bounds
	fmt.Println()
	fmt.Printf("Cooked vertices: %d\n", len(mesh.Vertices))
	fmt.Printf("Submeshes:       %d\n", len(mesh.Submeshes))
	fmt.Printf("Index format:    %s\n", mesh.IndexFormat)
	fmt.Printf("Bounds min:      %.3f %.3f %.3f\n", b.Min[0], b.Min[1], b.Min[2])
	fmt.Printf("Bounds max:      %.3f %.3f %.3f\n", b.Max[0], b.Max[1], b.Max[2])
	fmt.Printf("Lightmap UVs:    %t\n", mesh.LightmapUVs != nil)

	if warnings := mesh.WarningList(); len(warnings) > 0 {
		fmt.Println()
		fmt.Printf("Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("  - %v\n", w)
		}
	}
	return nil
}

func cmdSubmeshes(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: udsmesh submeshes <file.udsmesh>")
	}

	mesh, err := importMesh(cfg, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%-5s %-10s %-10s %-10s %s\n", "SLOT", "MATERIAL", "BASE", "VERTICES", "TRIANGLES")
	for i, sub := range mesh.Submeshes {
		fmt.Printf("%-5d %-10d %-10d %-10d %d\n", i, sub.MaterialID, sub.BaseVertex, sub.VertexCount, sub.TriangleCount())
	}
	return nil
}

func cmdExport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	flipV := fs.Bool("flip-v", cfg.Export.FlipV, "Write 1-v texture coordinates")
	noNormals := fs.Bool("no-normals", !cfg.Export.WriteNormals, "Skip vn records")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: udsmesh export <file.udsmesh> [out.obj]")
	}

	src := fs.Arg(0)
	dst := strings.TrimSuffix(src, filepath.Ext(src)) + ".obj"
	if fs.NArg() > 1 {
		dst = fs.Arg(1)
	}

	mesh, err := importMesh(cfg, src)
	if err != nil {
		return err
	}
	if mesh.IsEmpty() {
		logger.Warn("mesh has no geometry, writing empty OBJ", zap.String("file", src))
	}

	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	err = export.WriteOBJFiles(dst, mesh, export.OBJOptions{
		Name:         name,
		FlipV:        *flipV,
		WriteNormals: !*noNormals,
	})
	if err != nil {
		return err
	}

	logger.Info("exported mesh",
		zap.String("output", dst),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("triangles", mesh.TriangleCount()))
	fmt.Printf("Wrote %s (%d vertices, %d triangles)\n", dst, len(mesh.Vertices), mesh.TriangleCount())
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) < 1 || args[0] != "init" {
		return errors.New("usage: udsmesh config init [path]")
	}

	def := config.Default()
	if len(args) > 1 {
		if err := def.SaveTo(args[1]); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", args[1])
		return nil
	}

	path, err := def.Save()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
