package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Joints.Count != 14 {
		t.Errorf("expected 14 joints, got %d", cfg.Joints.Count)
	}
	if cfg.StepInterval != 30*time.Millisecond {
		t.Errorf("expected 30ms interval, got %v", cfg.StepInterval)
	}
	if cfg.Slider.Min != -180 || cfg.Slider.Max != 180 {
		t.Errorf("unexpected slider range [%v, %v]", cfg.Slider.Min, cfg.Slider.Max)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jointctl.yaml")
	data := `
endpoint: tcp://sim.local:23000
joints:
  count: 3
  path_template: /arm/joint%d
step_interval: 10ms
poses:
  wave: [10, -20, 30]
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Endpoint != "tcp://sim.local:23000" {
		t.Errorf("unexpected endpoint %s", cfg.Endpoint)
	}
	if cfg.Joints.Count != 3 || cfg.Layout().Path(2) != "/arm/joint2" {
		t.Errorf("unexpected layout %+v", cfg.Joints)
	}
	if cfg.StepInterval != 10*time.Millisecond {
		t.Errorf("expected 10ms, got %v", cfg.StepInterval)
	}
	if cfg.Slider.Width != DefaultSliderWidth {
		t.Errorf("defaults not kept: width %d", cfg.Slider.Width)
	}
	if pose, ok := cfg.Pose("wave"); !ok || pose[2] != 30 {
		t.Errorf("pose wave not loaded: %v", pose)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("joints:\n  count: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for zero joints")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Record = true

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Record || loaded.StepInterval != cfg.StepInterval {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty endpoint", func(c *Config) { c.Endpoint = "" }},
		{"bad template", func(c *Config) { c.Joints.PathTemplate = "/joint" }},
		{"zero interval", func(c *Config) { c.StepInterval = 0 }},
		{"inverted range", func(c *Config) { c.Slider.Min, c.Slider.Max = 10, -10 }},
		{"zero width", func(c *Config) { c.Slider.Width = 0 }},
		{"zero step", func(c *Config) { c.Slider.Step = 0 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"short pose", func(c *Config) { c.Poses = map[string][]float64{"p": {1, 2}} }},
		{"pose out of range", func(c *Config) {
			p := make([]float64, c.Joints.Count)
			p[0] = 200
			c.Poses = map[string][]float64{"p": p}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPoses(t *testing.T) {
	cfg := DefaultConfig()

	home, ok := cfg.Pose("home")
	if !ok || len(home) != cfg.Joints.Count {
		t.Fatalf("expected home pose with %d angles, got %v", cfg.Joints.Count, home)
	}
	for _, a := range home {
		if a != 0 {
			t.Errorf("home pose not zero: %v", home)
			break
		}
	}

	if _, ok := cfg.Pose("nonexistent"); ok {
		t.Error("expected no pose for unknown name")
	}

	cfg.Poses = map[string][]float64{"home": make([]float64, cfg.Joints.Count)}
	cfg.Poses["home"][0] = 5
	home, _ = cfg.Pose("home")
	if home[0] != 5 {
		t.Error("config pose should override preset")
	}

	names := cfg.PoseNames()
	if len(names) != len(Presets) {
		t.Errorf("expected %d names, got %v", len(Presets), names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error", "DEBUG"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("chatty"); err == nil {
		t.Error("expected error")
	}
}

func TestDefaultSliderHasZeroCell(t *testing.T) {
	cfg := DefaultConfig()
	w := cfg.Slider.Width
	if w%2 == 0 {
		t.Fatalf("width %d has no centre cell", w)
	}
	centre := cfg.Slider.Min + float64((w-1)/2)/float64(w-1)*(cfg.Slider.Max-cfg.Slider.Min)
	if centre != 0 {
		t.Errorf("centre cell maps to %v, want 0", centre)
	}
}
