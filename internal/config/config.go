package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/jointctl/internal/driver"
	"github.com/san-kum/jointctl/internal/joint"
	"github.com/san-kum/jointctl/internal/remote"
)

const (
	DefaultSliderMin   = -180.0
	DefaultSliderMax   = 180.0
	DefaultSliderWidth = 41
	DefaultFineStep    = 1.0
	DefaultCoarseStep  = 10.0
	DefaultDataDir     = ".jointctl"
	DefaultLogLevel    = "info"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Endpoint     string               `yaml:"endpoint"`
	Joints       JointsConfig         `yaml:"joints"`
	StepInterval time.Duration        `yaml:"step_interval"`
	Slider       SliderConfig         `yaml:"slider"`
	Poses        map[string][]float64 `yaml:"poses,omitempty"`
	DataDir      string               `yaml:"data_dir"`
	Record       bool                 `yaml:"record"`
	MetricsAddr  string               `yaml:"metrics_addr"`
	LogLevel     string               `yaml:"log_level"`
	LogFile      string               `yaml:"log_file"`
}

type JointsConfig struct {
	Count        int    `yaml:"count"`
	PathTemplate string `yaml:"path_template"`
}

type SliderConfig struct {
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Width      int     `yaml:"width"`
	Step       float64 `yaml:"step"`
	CoarseStep float64 `yaml:"coarse_step"`
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint: remote.DefaultEndpoint,
		Joints: JointsConfig{
			Count:        joint.DefaultCount,
			PathTemplate: joint.DefaultPathTemplate,
		},
		StepInterval: driver.DefaultInterval,
		Slider: SliderConfig{
			Min:        DefaultSliderMin,
			Max:        DefaultSliderMax,
			Width:      DefaultSliderWidth,
			Step:       DefaultFineStep,
			CoarseStep: DefaultCoarseStep,
		},
		DataDir:  DefaultDataDir,
		LogLevel: DefaultLogLevel,
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Layout() joint.Layout {
	return joint.Layout{Count: c.Joints.Count, PathTemplate: c.Joints.PathTemplate}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is empty", ErrInvalid)
	}
	if err := c.Layout().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.StepInterval <= 0 {
		return fmt.Errorf("%w: step_interval must be positive, got %v", ErrInvalid, c.StepInterval)
	}
	if c.Slider.Min >= c.Slider.Max {
		return fmt.Errorf("%w: slider min %.1f must be below max %.1f", ErrInvalid, c.Slider.Min, c.Slider.Max)
	}
	if c.Slider.Width <= 0 {
		return fmt.Errorf("%w: slider width must be positive, got %d", ErrInvalid, c.Slider.Width)
	}
	if c.Slider.Step <= 0 || c.Slider.CoarseStep <= 0 {
		return fmt.Errorf("%w: slider steps must be positive", ErrInvalid)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for name, angles := range c.Poses {
		if err := c.checkPose(name, angles); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) checkPose(name string, angles []float64) error {
	if len(angles) != c.Joints.Count {
		return fmt.Errorf("%w: pose %q has %d angles, want %d", ErrInvalid, name, len(angles), c.Joints.Count)
	}
	for i, a := range angles {
		if a < c.Slider.Min || a > c.Slider.Max {
			return fmt.Errorf("%w: pose %q joint %d angle %.1f outside [%.0f, %.0f]", ErrInvalid, name, i+1, a, c.Slider.Min, c.Slider.Max)
		}
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
