// Package config handles udsmesh tool configuration loading and management.
package config

import "github.com/Faultbox/udsmesh/internal/model"

// Config holds all tool settings.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig holds mesh decoding settings.
type ImportConfig struct {
	// Generate lightmap UVs even on meshes above the triangle threshold.
	// This can take significant CPU time on large meshes.
	ForceLightmapUVGeneration bool    `yaml:"force_lightmap_uv_generation"`
	QuantizationStep          float64 `yaml:"quantization_step"`
}

// ExportConfig holds Wavefront OBJ export settings.
type ExportConfig struct {
	FlipV        bool `yaml:"flip_v"`        // Write 1-v texture coordinates
	WriteNormals bool `yaml:"write_normals"` // Emit vn records
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			ForceLightmapUVGeneration: false,
			QuantizationStep:          model.DefaultQuantizationStep,
		},
		Export: ExportConfig{
			FlipV:        false,
			WriteNormals: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ImportOptions converts the import section into model options.
func (c *Config) ImportOptions() model.ImportOptions {
	opts := model.DefaultImportOptions()
	opts.ForceLightmapUVGeneration = c.Import.ForceLightmapUVGeneration
	if c.Import.QuantizationStep > 0 {
		opts.QuantizationStep = c.Import.QuantizationStep
	}
	return opts
}
