package config

import "sort"

// Presets are poses available for any joint count. A pose of the same name in
// the config file takes precedence.
var Presets = map[string]func(n int) []float64{
	"home": func(n int) []float64 {
		return make([]float64, n)
	},
	"zigzag": func(n int) []float64 {
		angles := make([]float64, n)
		for i := range angles {
			if i%2 == 0 {
				angles[i] = 30
			} else {
				angles[i] = -30
			}
		}
		return angles
	},
	"curl": func(n int) []float64 {
		angles := make([]float64, n)
		for i := range angles {
			angles[i] = 20
		}
		return angles
	},
}

// Pose returns the named pose sized for the configured joint count.
func (c *Config) Pose(name string) ([]float64, bool) {
	if angles, ok := c.Poses[name]; ok {
		return angles, true
	}
	preset, ok := Presets[name]
	if !ok {
		return nil, false
	}
	angles := preset(c.Joints.Count)
	if c.checkPose(name, angles) != nil {
		return nil, false
	}
	return angles, true
}

// PoseNames lists every usable pose, sorted.
func (c *Config) PoseNames() []string {
	names := make([]string, 0, len(Presets)+len(c.Poses))
	for name := range c.Poses {
		names = append(names, name)
	}
	for name := range Presets {
		if _, dup := c.Poses[name]; dup {
			continue
		}
		if _, ok := c.Pose(name); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
