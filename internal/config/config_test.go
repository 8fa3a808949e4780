package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Surface defaults
	if cfg.Surface.Width != 256 || cfg.Surface.Height != 256 {
		t.Errorf("expected 256x256 surface, got %dx%d", cfg.Surface.Width, cfg.Surface.Height)
	}
	if cfg.Surface.StandardValue != 0.8 {
		t.Errorf("expected standard value 0.8, got %f", cfg.Surface.StandardValue)
	}
	if cfg.Surface.Fill.Mode != "flat" {
		t.Errorf("expected flat fill, got %s", cfg.Surface.Fill.Mode)
	}

	// Deformation defaults
	if cfg.Deformation.QueueCapacity != 4096 {
		t.Errorf("expected queue capacity 4096, got %d", cfg.Deformation.QueueCapacity)
	}
	if cfg.Deformation.OverflowPolicy != "drop_oldest" {
		t.Errorf("expected drop_oldest policy, got %s", cfg.Deformation.OverflowPolicy)
	}

	// Trail defaults
	if cfg.Trail.Capacity != 20 {
		t.Errorf("expected trail capacity 20, got %d", cfg.Trail.Capacity)
	}
	if cfg.Trail.Window != 2 {
		t.Errorf("expected trail window 2, got %f", cfg.Trail.Window)
	}

	// Simulation defaults
	if cfg.Simulation.Backend != "cpu" {
		t.Errorf("expected cpu backend, got %s", cfg.Simulation.Backend)
	}
	if cfg.Simulation.FixedStep != 20*time.Millisecond {
		t.Errorf("expected 20ms step, got %v", cfg.Simulation.FixedStep)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
surface:
  width: 512
  height: 128
  standard_value: 0.5
  bounds_min: [0, 0, 0]
  bounds_max: [64, 2, 16]
  fill:
    mode: curve
    curve:
      - {at: 0, value: 0.2}
      - {at: 1, value: 0.9}

deformation:
  strength: 0.25
  queue_capacity: 0
  overflow_policy: unbounded

trail:
  capacity: 40
  order_source: time

simulation:
  fixed_step: 10ms
  backend: gl
  random_trail: true

logging:
  level: "debug"
  log_file: "snow.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Surface.Width != 512 || cfg.Surface.Height != 128 {
		t.Errorf("expected 512x128, got %dx%d", cfg.Surface.Width, cfg.Surface.Height)
	}
	if cfg.Surface.BoundsMax != [3]float32{64, 2, 16} {
		t.Errorf("expected bounds max [64 2 16], got %v", cfg.Surface.BoundsMax)
	}
	if cfg.Surface.Fill.Mode != "curve" || len(cfg.Surface.Fill.Curve) != 2 {
		t.Errorf("expected 2-key curve fill, got %+v", cfg.Surface.Fill)
	}
	// Keys not present in the file keep their defaults.
	if cfg.Surface.MaxValue != 1 {
		t.Errorf("expected default max value 1, got %f", cfg.Surface.MaxValue)
	}

	if cfg.Deformation.Strength != 0.25 {
		t.Errorf("expected strength 0.25, got %f", cfg.Deformation.Strength)
	}
	if cfg.Deformation.OverflowPolicy != "unbounded" {
		t.Errorf("expected unbounded policy, got %s", cfg.Deformation.OverflowPolicy)
	}

	if cfg.Trail.Capacity != 40 || cfg.Trail.OrderSource != "time" {
		t.Errorf("unexpected trail config %+v", cfg.Trail)
	}

	if cfg.Simulation.FixedStep != 10*time.Millisecond {
		t.Errorf("expected 10ms step, got %v", cfg.Simulation.FixedStep)
	}
	if cfg.Simulation.Backend != "gl" || !cfg.Simulation.RandomTrail {
		t.Errorf("unexpected simulation config %+v", cfg.Simulation)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "snow.log" {
		t.Errorf("expected log file 'snow.log', got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
surface:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Surface.Width = 0 }, "surface size"},
		{"inverted range", func(c *Config) { c.Surface.MinValue = 2 }, "min_value"},
		{"flat bounds", func(c *Config) { c.Surface.BoundsMax[2] = c.Surface.BoundsMin[2] }, "no XZ extent"},
		{"unknown fill", func(c *Config) { c.Surface.Fill.Mode = "noise" }, "fill mode"},
		{"gradient without keys", func(c *Config) { c.Surface.Fill.Mode = "gradient" }, "at least one key"},
		{"negative rim", func(c *Config) { c.Deformation.RimWidth = -1 }, "rim_width"},
		{"unknown policy", func(c *Config) { c.Deformation.OverflowPolicy = "block" }, "overflow policy"},
		{"empty trail", func(c *Config) { c.Trail.Capacity = 0 }, "trail capacity"},
		{"unknown order", func(c *Config) { c.Trail.OrderSource = "frame" }, "order source"},
		{"zero step", func(c *Config) { c.Simulation.FixedStep = 0 }, "fixed_step"},
		{"unknown backend", func(c *Config) { c.Simulation.Backend = "vulkan" }, "backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("surface:\n  width: 64\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "backend flag",
			setup: func() { *flagBackend = "gl" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Simulation.Backend != "gl" {
					t.Errorf("expected gl backend, got %s", cfg.Simulation.Backend)
				}
			},
			teardown: func() { *flagBackend = "" },
		},
		{
			name: "steps and out flags",
			setup: func() {
				*flagSteps = 42
				*flagOut = "/tmp/snow"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Simulation.Steps != 42 {
					t.Errorf("expected 42 steps, got %d", cfg.Simulation.Steps)
				}
				if cfg.Simulation.OutputDir != "/tmp/snow" {
					t.Errorf("expected output dir /tmp/snow, got %s", cfg.Simulation.OutputDir)
				}
			},
			teardown: func() {
				*flagSteps = 0
				*flagOut = ""
			},
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 1024
				*flagHeight = 512
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Surface.Width != 1024 {
					t.Errorf("expected width 1024, got %d", cfg.Surface.Width)
				}
				if cfg.Surface.Height != 512 {
					t.Errorf("expected height 512, got %d", cfg.Surface.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
surface:
  width: 300
  height: 200
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 640
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width from flag, height from file.
	if cfg.Surface.Width != 640 {
		t.Errorf("expected width 640 from flag, got %d", cfg.Surface.Width)
	}
	if cfg.Surface.Height != 200 {
		t.Errorf("expected height 200 from file, got %d", cfg.Surface.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("simulation:\n  backend: vulkan\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject an unknown backend")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Simulation.Steps = 7
	cfg.Surface.Fill = FillConfig{Mode: "gradient", Gradient: []GradientKey{{At: 0, Color: "#ffffff"}}}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Simulation.Steps != 7 {
		t.Errorf("expected 7 steps after reload, got %d", loaded.Simulation.Steps)
	}
	if len(loaded.Surface.Fill.Gradient) != 1 || loaded.Surface.Fill.Gradient[0].Color != "#ffffff" {
		t.Errorf("gradient keys not preserved: %+v", loaded.Surface.Fill.Gradient)
	}
}
