package report

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sadopc/mymonth/internal/duration"
	"github.com/sadopc/mymonth/internal/store"
)

// ErrInvalidConfig is returned when the domain configuration cannot be used
// for aggregation, e.g. a weekday without a positive target.
var ErrInvalidConfig = errors.New("invalid report configuration")

// Config holds the domain constants of the scoring engine.
type Config struct {
	// PenaltyThreshold is the metric value above which time is deducted.
	PenaltyThreshold float64
	// PenaltyUnit is deducted per metric unit above the threshold.
	PenaltyUnit time.Duration
	// MetricUnit and MetricDisplay convert a metric value to its display
	// quantity: value / MetricUnit * MetricDisplay.
	MetricUnit    float64
	MetricDisplay float64
	// WeekdayTargets is the productive-time target per day, indexed by weekday.
	WeekdayTargets [7]time.Duration
}

func DefaultConfig() Config {
	cfg := Config{
		PenaltyThreshold: 2.86,
		PenaltyUnit:      20 * time.Minute,
		MetricUnit:       7.8,
		MetricDisplay:    750,
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		cfg.WeekdayTargets[wd] = 2 * time.Hour
	}
	cfg.WeekdayTargets[time.Saturday] = 4 * time.Hour
	cfg.WeekdayTargets[time.Sunday] = 4 * time.Hour
	return cfg
}

// Validate fails when any weekday target is not positive or the metric
// conversion would divide by zero.
func (c Config) Validate() error {
	for wd, d := range c.WeekdayTargets {
		if d <= 0 {
			return fmt.Errorf("%w: target for %s must be positive, got %v", ErrInvalidConfig, time.Weekday(wd), d)
		}
	}
	if c.MetricUnit <= 0 {
		return fmt.Errorf("%w: metric unit must be positive, got %v", ErrInvalidConfig, c.MetricUnit)
	}
	if c.PenaltyUnit < 0 {
		return fmt.Errorf("%w: penalty unit must not be negative, got %v", ErrInvalidConfig, c.PenaltyUnit)
	}
	return nil
}

// TargetFor returns the productive-time target for date's weekday.
func (c Config) TargetFor(date time.Time) time.Duration {
	return c.WeekdayTargets[date.Weekday()]
}

// Penalty converts a metric value into deducted time.
func (c Config) Penalty(metric float64) time.Duration {
	excess := metric - c.PenaltyThreshold
	if excess <= 0 {
		return 0
	}
	return time.Duration(math.Round(excess * float64(c.PenaltyUnit)))
}

// ToDisplay converts a metric value to the display quantity.
func (c Config) ToDisplay(metric float64) float64 {
	return metric / c.MetricUnit * c.MetricDisplay
}

// FromDisplay is the inverse of ToDisplay.
func (c Config) FromDisplay(v float64) float64 {
	return v * c.MetricUnit / c.MetricDisplay
}

// MLEquivalent rounds the display quantity to a whole number, half to even.
func (c Config) MLEquivalent(metric float64) int {
	return int(math.RoundToEven(c.ToDisplay(metric)))
}

// MLEquivalent converts a metric value with the default constants.
func MLEquivalent(metric float64) int {
	return DefaultConfig().MLEquivalent(metric)
}

// ConfigFromSettings builds a Config from stored settings, falling back to
// DefaultConfig for missing keys. Unparseable numbers and non-positive
// weekday targets are errors.
func ConfigFromSettings(settings map[string]string) (Config, error) {
	cfg := DefaultConfig()

	floats := []struct {
		key string
		dst *float64
	}{
		{store.SettingPenaltyThreshold, &cfg.PenaltyThreshold},
		{store.SettingMetricUnit, &cfg.MetricUnit},
		{store.SettingMetricDisplay, &cfg.MetricDisplay},
	}
	for _, f := range floats {
		v, ok := settings[f.key]
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, f.key, v, err)
		}
		*f.dst = n
	}

	if v, ok := settings[store.SettingPenaltyUnit]; ok {
		cfg.PenaltyUnit = duration.Parse(v)
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if v, ok := settings[store.WeekdayTargetKey(wd)]; ok {
			cfg.WeekdayTargets[wd] = duration.Parse(v)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
