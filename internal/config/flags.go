package config

import "flag"

var (
	flagConfig           = flag.String("config", "", "Path to config file")
	flagDebug            = flag.Bool("debug", false, "Enable debug logging")
	flagForceLightmapUV  = flag.Bool("force-lightmap-uv", false, "Generate lightmap UVs on large meshes")
	flagQuantizationStep = flag.Float64("quantization-step", 0, "Normal/UV merge resolution (0 = config value)")
	flagLogFile          = flag.String("log-file", "", "Write logs to this file as well")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments left after ParseFlags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagForceLightmapUV {
		cfg.Import.ForceLightmapUVGeneration = true
	}
	if *flagQuantizationStep > 0 {
		cfg.Import.QuantizationStep = *flagQuantizationStep
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
