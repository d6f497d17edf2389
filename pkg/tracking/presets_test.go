package tracking

import (
	"errors"
	"testing"
)

func TestPresets_Valid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg, err := GetPreset(name)
		if err != nil {
			t.Fatalf("GetPreset(%q): %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q does not validate: %v", name, err)
		}
	}
}

func TestPresets_Names(t *testing.T) {
	names := PresetNames()
	if len(names) != len(Presets()) {
		t.Fatalf("PresetNames() = %v, want %d names", names, len(Presets()))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestGetPreset_Unknown(t *testing.T) {
	if _, err := GetPreset("turbo"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestCalibrationPreset_FiresEveryPositiveFrame(t *testing.T) {
	s := NewSession(CalibrationConfig())
	fired := 0
	s.OnPuff(func(Event) { fired++ })
	s.Start()

	for _, f := range framesFrom(0, 20, puffFace()) {
		if _, err := s.Process(f); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	if fired != 6 {
		t.Errorf("fired %d times, want 6 (frames 15-20)", fired)
	}
}
