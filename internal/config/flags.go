package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagBackend = flag.String("backend", "", "Compute backend: cpu or gl")
	flagSteps   = flag.Int("steps", 0, "Number of fixed steps to simulate")
	flagOut     = flag.String("out", "", "Directory for debug images")
	flagWidth   = flag.Int("width", 0, "Displacement texture width")
	flagHeight  = flag.Int("height", 0, "Displacement texture height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
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
	if *flagBackend != "" {
		cfg.Simulation.Backend = *flagBackend
	}
	if *flagSteps > 0 {
		cfg.Simulation.Steps = *flagSteps
	}
	if *flagOut != "" {
		cfg.Simulation.OutputDir = *flagOut
	}
	if *flagWidth > 0 {
		cfg.Surface.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Surface.Height = *flagHeight
	}
}
