package strategy

import (
	"errors"
	"fmt"
	"strings"
)

// Condition weights. The histogram and dif conditions make up the MACD tally.
const (
	WeightHistogram = 0.3
	WeightDif       = 0.3
	WeightRSI       = 0.2
	WeightVolume    = 0.1
	WeightPriceDrop = 0.1
)

const (
	PresetStandard = "standard"
	PresetRecent   = "recent"
)

// ScoringConfig holds the tunable constants of the lows finder and the scorer.
type ScoringConfig struct {
	Name string `yaml:"preset" json:"preset"`

	// Lookback restricts the lows scan to the last N rows; 0 scans the whole series.
	Lookback       int `yaml:"lookback" json:"lookback"`
	Window         int `yaml:"window" json:"window"`
	MinSpacingDays int `yaml:"min_spacing_days" json:"min_spacing_days"`
	MinRows        int `yaml:"min_rows" json:"min_rows"`

	DropThreshold  float64 `yaml:"drop_threshold" json:"drop_threshold"`
	VolumeRatioMax float64 `yaml:"volume_ratio_max" json:"volume_ratio_max"`
	MinSignals     int     `yaml:"min_signals" json:"min_signals"`

	StrongCap          float64 `yaml:"strong_cap" json:"strong_cap"`
	MinorMultiplier    float64 `yaml:"minor_multiplier" json:"minor_multiplier"`
	MinorCap           float64 `yaml:"minor_cap" json:"minor_cap"`
	OrdinaryMultiplier float64 `yaml:"ordinary_multiplier" json:"ordinary_multiplier"`
	OrdinaryCap        float64 `yaml:"ordinary_cap" json:"ordinary_cap"`
}

// StandardScoring scans the whole series and is the default.
func StandardScoring() ScoringConfig {
	return ScoringConfig{
		Name:               PresetStandard,
		Lookback:           0,
		Window:             8,
		MinSpacingDays:     10,
		MinRows:            20,
		DropThreshold:      0.05,
		VolumeRatioMax:     1.5,
		MinSignals:         2,
		StrongCap:          0.95,
		MinorMultiplier:    0.7,
		MinorCap:           0.7,
		OrdinaryMultiplier: 1.0,
		OrdinaryCap:        0.9,
	}
}

// RecentScoring only looks at the last 150 rows with a wider window and a
// lower drop threshold.
func RecentScoring() ScoringConfig {
	return ScoringConfig{
		Name:               PresetRecent,
		Lookback:           150,
		Window:             10,
		MinSpacingDays:     10,
		MinRows:            20,
		DropThreshold:      0.03,
		VolumeRatioMax:     1.5,
		MinSignals:         2,
		StrongCap:          0.95,
		MinorMultiplier:    0.8,
		MinorCap:           0.8,
		OrdinaryMultiplier: 0.6,
		OrdinaryCap:        0.7,
	}
}

// PresetByName returns the named preset. An empty name selects the standard one.
func PresetByName(name string) (ScoringConfig, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetStandard:
		return StandardScoring(), nil
	case PresetRecent:
		return RecentScoring(), nil
	default:
		return ScoringConfig{}, fmt.Errorf("unknown analysis preset %q", name)
	}
}

// Validate checks that all fields are in range.
func (c ScoringConfig) Validate() error {
	var errs []error
	if c.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive, got %d", c.Window))
	}
	if c.MinSpacingDays < 0 {
		errs = append(errs, fmt.Errorf("min_spacing_days must be non-negative, got %d", c.MinSpacingDays))
	}
	if c.Lookback < 0 {
		errs = append(errs, fmt.Errorf("lookback must be non-negative, got %d", c.Lookback))
	}
	if c.MinRows <= 0 {
		errs = append(errs, fmt.Errorf("min_rows must be positive, got %d", c.MinRows))
	}
	if c.DropThreshold < 0 || c.DropThreshold >= 1 {
		errs = append(errs, fmt.Errorf("drop_threshold must be in [0, 1), got %v", c.DropThreshold))
	}
	if c.VolumeRatioMax <= 0 {
		errs = append(errs, fmt.Errorf("volume_ratio_max must be positive, got %v", c.VolumeRatioMax))
	}
	if c.MinSignals < 1 || c.MinSignals > 5 {
		errs = append(errs, fmt.Errorf("min_signals must be between 1 and 5, got %d", c.MinSignals))
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"strong_cap", c.StrongCap},
		{"minor_multiplier", c.MinorMultiplier},
		{"minor_cap", c.MinorCap},
		{"ordinary_multiplier", c.OrdinaryMultiplier},
		{"ordinary_cap", c.OrdinaryCap},
	} {
		if f.v <= 0 || f.v > 1 {
			errs = append(errs, fmt.Errorf("%s must be in (0, 1], got %v", f.name, f.v))
		}
	}
	return errors.Join(errs...)
}
