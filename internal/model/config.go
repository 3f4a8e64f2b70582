package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete urd configuration
type Config struct {
	GardnerKnopoff GardnerKnopoffConfig `yaml:"gardner_knopoff" mapstructure:"gardner_knopoff"`
	A1b            A1bConfig            `yaml:"a1b" mapstructure:"a1b"`
	Reasenberg     ReasenbergConfig     `yaml:"reasenberg" mapstructure:"reasenberg"`
	Cache          CacheConfig          `yaml:"cache" mapstructure:"cache"`
	Concurrency    ConcurrencyConfig    `yaml:"concurrency" mapstructure:"concurrency"`
	Output         OutputConfig         `yaml:"output" mapstructure:"output"`
	Metrics        MetricsConfig        `yaml:"metrics" mapstructure:"metrics"`
	Log            LogConfig            `yaml:"log" mapstructure:"log"`
}

// GardnerKnopoffConfig holds settings for the parent-attributing window run
type GardnerKnopoffConfig struct {
	WindowScale float64 `yaml:"window_scale" mapstructure:"window_scale"` // Multiplier on both G-K windows (0.75 tighter, 1.25 wider)
}

// A1bConfig holds the fixed space-time window
type A1bConfig struct {
	RadiusKm   float64 `yaml:"radius_km" mapstructure:"radius_km"`
	WindowDays float64 `yaml:"window_days" mapstructure:"window_days"`
}

// ReasenbergConfig holds the Reasenberg (1985) tunables
type ReasenbergConfig struct {
	Rfact  float64 `yaml:"rfact" mapstructure:"rfact"`     // Interaction radius scale factor
	TauMin float64 `yaml:"tau_min" mapstructure:"tau_min"` // Minimum lookback window (days)
	TauMax float64 `yaml:"tau_max" mapstructure:"tau_max"` // Maximum lookback window (days)
	P      float64 `yaml:"p" mapstructure:"p"`             // Omori decay probability threshold
	Xmeff  float64 `yaml:"xmeff" mapstructure:"xmeff"`     // Effective magnitude threshold
}

// CacheConfig controls the result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls the compare worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls result rendering
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Pretty  bool   `yaml:"pretty" mapstructure:"pretty"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// MetricsConfig controls the Prometheus textfile export
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"` // Empty disables the export
}

// LogConfig controls logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the published defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "urd-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".urd", "cache")
	}

	return &Config{
		GardnerKnopoff: GardnerKnopoffConfig{
			WindowScale: 1.0,
		},
		A1b: A1bConfig{
			RadiusKm:   83.2,
			WindowDays: 95.6,
		},
		Reasenberg: ReasenbergConfig{
			Rfact:  10.0,
			TauMin: 1.0,
			TauMax: 10.0,
			P:      0.95,
			Xmeff:  1.5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Output: OutputConfig{
			Dir:    ".",
			Pretty: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the numeric parameters the engines rely on
func (c *Config) Validate() error {
	var problems []error

	if c.GardnerKnopoff.WindowScale <= 0 {
		problems = append(problems, fmt.Errorf("gardner_knopoff.window_scale must be > 0, got %g", c.GardnerKnopoff.WindowScale))
	}
	if c.A1b.RadiusKm <= 0 {
		problems = append(problems, fmt.Errorf("a1b.radius_km must be > 0, got %g", c.A1b.RadiusKm))
	}
	if c.A1b.WindowDays <= 0 {
		problems = append(problems, fmt.Errorf("a1b.window_days must be > 0, got %g", c.A1b.WindowDays))
	}

	r := c.Reasenberg
	if r.Rfact <= 0 {
		problems = append(problems, fmt.Errorf("reasenberg.rfact must be > 0, got %g", r.Rfact))
	}
	if r.TauMin <= 0 || r.TauMax < r.TauMin {
		problems = append(problems, fmt.Errorf("reasenberg tau bounds must satisfy 0 < tau_min <= tau_max, got [%g, %g]", r.TauMin, r.TauMax))
	}
	if r.P <= 0 || r.P >= 1 {
		problems = append(problems, fmt.Errorf("reasenberg.p must be in (0, 1), got %g", r.P))
	}

	if c.Concurrency.Workers < 0 {
		problems = append(problems, fmt.Errorf("concurrency.workers must be >= 0, got %d", c.Concurrency.Workers))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(problems...))
	}
	return nil
}
