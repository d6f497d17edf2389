package tracking

import (
	"fmt"
	"time"
)

// Step awards Points when a windowed metric is strictly greater than Above.
type Step struct {
	Above  float64 `yaml:"above" json:"above"`
	Points int     `yaml:"points" json:"points"`
}

// Thresholds is the full scoring table. Steps in each list are ordered from
// the highest bar to the lowest; the first step cleared wins.
type Thresholds struct {
	// Opening scores the window's max mouth aspect ratio.
	Opening []Step `yaml:"opening" json:"opening"`

	// Pursing scores the window's max lip pursing.
	Pursing []Step `yaml:"pursing" json:"pursing"`

	// Puff scores max(cheekPuff) and max(mouthPucker); either may clear a step.
	Puff []Step `yaml:"puff" json:"puff"`

	// Sequence bonus: rewards "open mouth, then puff" ordering.
	SequenceWindow  int     `yaml:"sequence_window" json:"sequence_window"`     // Frames considered, newest last
	EarlyOpenRatio  float64 `yaml:"early_open_ratio" json:"early_open_ratio"`   // First-third avg aspect vs window max
	EarlyOpenPoints int     `yaml:"early_open_points" json:"early_open_points"` // Points for opening early
	LatePuffAverage float64 `yaml:"late_puff_average" json:"late_puff_average"` // Last-third avg cheekPuff+mouthPucker
	LatePuffPoints  int     `yaml:"late_puff_points" json:"late_puff_points"`   // Points for puffing late

	// Detect is the minimum confidence for a puff.
	Detect int `yaml:"detect" json:"detect"`
}

// Config holds all tunable parameters for puff tracking
type Config struct {
	HistorySize int           `yaml:"history_size" json:"history_size"` // Frames kept (~2s at 30fps)
	ScoreWindow int           `yaml:"score_window" json:"score_window"` // Most recent frames scored
	MinFrames   int           `yaml:"min_frames" json:"min_frames"`     // Frames needed before scoring
	Cooldown    time.Duration `yaml:"cooldown" json:"cooldown"`         // Refractory period between puffs

	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
}

// DefaultThresholds returns the production scoring table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Opening: []Step{
			{Above: 0.30, Points: 25},
			{Above: 0.20, Points: 20},
			{Above: 0.15, Points: 15},
			{Above: 0.10, Points: 10},
		},
		Pursing: []Step{
			{Above: 0.60, Points: 30},
			{Above: 0.40, Points: 25},
			{Above: 0.30, Points: 20},
			{Above: 0.20, Points: 15},
		},
		Puff: []Step{
			{Above: 0.50, Points: 35},
			{Above: 0.30, Points: 25},
			{Above: 0.15, Points: 15},
		},

		SequenceWindow:  20,
		EarlyOpenRatio:  0.8,
		EarlyOpenPoints: 5,
		LatePuffAverage: 0.10,
		LatePuffPoints:  5,

		// Strict on purpose: incidental facial movement rarely clears 90
		Detect: 90,
	}
}

// DefaultConfig returns the recommended configuration for puff tracking
func DefaultConfig() Config {
	return Config{
		HistorySize: 60,
		ScoreWindow: 30,
		MinFrames:   15,
		Cooldown:    4000 * time.Millisecond,
		Thresholds:  DefaultThresholds(),
	}
}

// MaxConfidence returns the highest score the table can award.
func (t Thresholds) MaxConfidence() int {
	return topPoints(t.Opening) + topPoints(t.Pursing) + topPoints(t.Puff) +
		t.EarlyOpenPoints + t.LatePuffPoints
}

// Validate checks that the configuration can be scored consistently.
func (c Config) Validate() error {
	if c.HistorySize <= 0 {
		return fmt.Errorf("%w: history_size must be positive", ErrInvalidConfig)
	}
	if c.ScoreWindow <= 0 || c.ScoreWindow > c.HistorySize {
		return fmt.Errorf("%w: score_window must be in [1, history_size]", ErrInvalidConfig)
	}
	if c.MinFrames <= 0 || c.MinFrames > c.HistorySize {
		return fmt.Errorf("%w: min_frames must be in [1, history_size]", ErrInvalidConfig)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("%w: cooldown must not be negative", ErrInvalidConfig)
	}
	return c.Thresholds.Validate()
}

// Validate checks that every step list is ordered and the total stays within 100.
func (t Thresholds) Validate() error {
	for name, steps := range map[string][]Step{"opening": t.Opening, "pursing": t.Pursing, "puff": t.Puff} {
		for i, s := range steps {
			if s.Points < 0 {
				return fmt.Errorf("%w: %s step %d has negative points", ErrInvalidConfig, name, i)
			}
			if i == 0 {
				continue
			}
			// Higher bars must come first and never award fewer points
			if s.Above >= steps[i-1].Above || s.Points > steps[i-1].Points {
				return fmt.Errorf("%w: %s steps must be ordered from highest bar down", ErrInvalidConfig, name)
			}
		}
	}
	if t.SequenceWindow < 3 {
		return fmt.Errorf("%w: sequence_window must be at least 3", ErrInvalidConfig)
	}
	if t.EarlyOpenPoints < 0 || t.LatePuffPoints < 0 {
		return fmt.Errorf("%w: sequence points must not be negative", ErrInvalidConfig)
	}
	if total := t.MaxConfidence(); total > 100 {
		return fmt.Errorf("%w: table awards up to %d points, limit is 100", ErrInvalidConfig, total)
	}
	if t.Detect <= 0 || t.Detect > 100 {
		return fmt.Errorf("%w: detect must be in [1, 100]", ErrInvalidConfig)
	}
	return nil
}

// award returns the points of the first step whose bar v clears.
func award(steps []Step, v float64) int {
	for _, s := range steps {
		if v > s.Above {
			return s.Points
		}
	}
	return 0
}

func topPoints(steps []Step) int {
	if len(steps) == 0 {
		return 0
	}
	return steps[0].Points
}
