package tracking

import (
	"fmt"
	"sort"
	"time"
)

// Preset names for common tracking configurations
const (
	PresetDefault     = "default"
	PresetStrict      = "strict"
	PresetLenient     = "lenient"
	PresetCalibration = "calibration"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:     DefaultConfig(),
		PresetStrict:      StrictConfig(),
		PresetLenient:     LenientConfig(),
		PresetCalibration: CalibrationConfig(),
	}
}

// PresetNames returns the available preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, 4)
	for name := range Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPreset returns a preset config by name.
func GetPreset(name string) (Config, error) {
	if cfg, ok := Presets()[name]; ok {
		return cfg, nil
	}
	return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
}

// StrictConfig only counts textbook puffs.
// For venues where false positives cost more than misses.
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.Thresholds.Detect = 95
	cfg.Cooldown = 5 * time.Second
	return cfg
}

// LenientConfig accepts weaker puffs.
// For low-light cameras where blendshapes read low.
func LenientConfig() Config {
	cfg := DefaultConfig()
	cfg.Thresholds.Detect = 80
	cfg.Cooldown = 3 * time.Second
	return cfg
}

// CalibrationConfig reports every positive frame.
// Use with puffctl replay to see where a recording crosses the threshold.
func CalibrationConfig() Config {
	cfg := DefaultConfig()
	cfg.Cooldown = 0
	return cfg
}
