// Package config loads the service configuration from an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the service configuration.
type Config struct {
	// DataDir holds the settings file, event database, key and rule packs.
	DataDir string `env:"REELGUARD_DATA_DIR" env-default:"~/.reelguard" yaml:"dataDir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"REELGUARD_LOG_LEVEL" env-default:"info" yaml:"logLevel"`

	// Settings is the user settings file, relative to DataDir unless absolute.
	Settings string `env:"REELGUARD_SETTINGS" env-default:"settings.toml" yaml:"settings"`
	// PacksDir holds YAML rule packs, relative to DataDir unless absolute.
	PacksDir string `env:"REELGUARD_PACKS_DIR" env-default:"packs" yaml:"packsDir"`

	EventLog struct {
		// Driver is "sqlcipher" (encrypted) or "sqlite" (plain).
		Driver string `env:"REELGUARD_EVENTLOG_DRIVER" env-default:"sqlcipher" yaml:"driver"`
		Path   string `env:"REELGUARD_EVENTLOG_PATH" env-default:"events.db" yaml:"path"`
		// KeyPath stores the generated database key for the sqlcipher driver.
		KeyPath string `env:"REELGUARD_EVENTLOG_KEY" env-default:"events.key" yaml:"keyPath"`
		// Buffer is the size of the asynchronous append queue.
		Buffer int `env:"REELGUARD_EVENTLOG_BUFFER" env-default:"64" yaml:"buffer"`
	} `yaml:"eventLog"`

	ADB struct {
		Binary string `env:"REELGUARD_ADB" env-default:"adb" yaml:"binary"`
		// Serial selects a device when several are attached.
		Serial         string        `env:"ANDROID_SERIAL" yaml:"serial"`
		PollInterval   time.Duration `env:"REELGUARD_POLL_INTERVAL" env-default:"750ms" yaml:"pollInterval"`
		CommandTimeout time.Duration `env:"REELGUARD_ADB_TIMEOUT" env-default:"5s" yaml:"commandTimeout"`
		// BlockPage is the activity launched for adult content.
		BlockPage string `env:"REELGUARD_BLOCK_PAGE" env-default:"com.aryanvbw.reelguard/.BlockActivity" yaml:"blockPage"`
	} `yaml:"adb"`

	Metrics struct {
		// Addr enables the metrics endpoint when set, e.g. ":9090".
		Addr string `env:"REELGUARD_METRICS_ADDR" yaml:"addr"`
		Path string `env:"REELGUARD_METRICS_PATH" env-default:"/metrics" yaml:"path"`
	} `yaml:"metrics"`

	Engine struct {
		OwnPackage     string        `env:"REELGUARD_OWN_PACKAGE" env-default:"com.aryanvbw.reelguard" yaml:"ownPackage"`
		Cooldown       time.Duration `env:"REELGUARD_COOLDOWN" env-default:"500ms" yaml:"cooldown"`
		InitRetryDelay time.Duration `env:"REELGUARD_INIT_RETRY_DELAY" env-default:"2s" yaml:"initRetryDelay"`
	} `yaml:"engine"`

	Detection struct {
		SignalConfidence float64 `env:"REELGUARD_SIGNAL_CONFIDENCE" env-default:"0.7" yaml:"signalConfidence"`
		AspectRatio      float64 `env:"REELGUARD_ASPECT_RATIO" env-default:"1.2" yaml:"aspectRatio"`
		EnhancedAbove    float64 `env:"REELGUARD_ENHANCED_ABOVE" env-default:"0.9" yaml:"enhancedAbove"`
		RapidAbove       float64 `env:"REELGUARD_RAPID_ABOVE" env-default:"0.8" yaml:"rapidAbove"`
		CounterAbove     float64 `env:"REELGUARD_COUNTER_ABOVE" env-default:"0.6" yaml:"counterAbove"`
		// FullScreenCoverage is the share of the screen a feed must cover to
		// count as full screen.
		FullScreenCoverage float64 `env:"REELGUARD_FULL_SCREEN_COVERAGE" env-default:"0.8" yaml:"fullScreenCoverage"`
		// ActionColumnTolerance is the horizontal drift, in pixels, allowed
		// between stacked like/comment/share controls.
		ActionColumnTolerance float64 `env:"REELGUARD_ACTION_COLUMN_TOLERANCE" env-default:"80" yaml:"actionColumnTolerance"`
	} `yaml:"detection"`

	Gesture struct {
		Duration       time.Duration `env:"REELGUARD_GESTURE_DURATION" env-default:"300ms" yaml:"duration"`
		BackupDuration time.Duration `env:"REELGUARD_GESTURE_BACKUP_DURATION" env-default:"120ms" yaml:"backupDuration"`
		SwipeFraction  float64       `env:"REELGUARD_GESTURE_SWIPE_FRACTION" env-default:"0.5" yaml:"swipeFraction"`
		BurstCount     int           `env:"REELGUARD_BURST_COUNT" env-default:"3" yaml:"burstCount"`
		BurstInterval  time.Duration `env:"REELGUARD_BURST_INTERVAL" env-default:"60ms" yaml:"burstInterval"`
		BurstDuration  time.Duration `env:"REELGUARD_BURST_DURATION" env-default:"80ms" yaml:"burstDuration"`
		CurvePoints    int           `env:"REELGUARD_CURVE_POINTS" env-default:"12" yaml:"curvePoints"`
		CurveDuration  time.Duration `env:"REELGUARD_CURVE_DURATION" env-default:"250ms" yaml:"curveDuration"`
		CurveBend      float64       `env:"REELGUARD_CURVE_BEND" env-default:"0.2" yaml:"curveBend"`
	} `yaml:"gesture"`

	Overlay struct {
		Duration      time.Duration `env:"REELGUARD_OVERLAY_DURATION" env-default:"1500ms" yaml:"duration"`
		Alpha         float64       `env:"REELGUARD_OVERLAY_ALPHA" env-default:"0.01" yaml:"alpha"`
		PulseAlpha    float64       `env:"REELGUARD_OVERLAY_PULSE_ALPHA" env-default:"0.3" yaml:"pulseAlpha"`
		PulseDuration time.Duration `env:"REELGUARD_OVERLAY_PULSE_DURATION" env-default:"100ms" yaml:"pulseDuration"`
	} `yaml:"overlay"`
}

// Load reads configPath when it exists and applies environment overrides.
// An empty or missing path reads the environment only.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
				return nil, fmt.Errorf("could not read config: %w", err)
			}
			return &cfg, cfg.validate()
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not stat config: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("could not read environment: %w", err)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.EventLog.Driver {
	case "sqlcipher", "sqlite":
	default:
		return fmt.Errorf("unknown event log driver %q", c.EventLog.Driver)
	}
	d := c.Detection
	if !(d.CounterAbove <= d.RapidAbove && d.RapidAbove <= d.EnhancedAbove) {
		return fmt.Errorf("detection thresholds must be ascending: counter %.2f, rapid %.2f, enhanced %.2f",
			d.CounterAbove, d.RapidAbove, d.EnhancedAbove)
	}
	if d.FullScreenCoverage <= 0 || d.FullScreenCoverage > 1 {
		return fmt.Errorf("full screen coverage must be in (0, 1], got %.2f", d.FullScreenCoverage)
	}
	g := c.Gesture
	if g.BurstCount < 1 {
		return fmt.Errorf("burst count must be at least 1, got %d", g.BurstCount)
	}
	if g.CurvePoints < 2 {
		return fmt.Errorf("curve needs at least 2 points, got %d", g.CurvePoints)
	}
	if g.Duration <= 0 || g.BackupDuration <= 0 || g.BurstDuration <= 0 || g.CurveDuration <= 0 {
		return errors.New("gesture durations must be positive")
	}
	o := c.Overlay
	if o.Alpha < 0 || o.Alpha > 1 || o.PulseAlpha < 0 || o.PulseAlpha > 1 {
		return fmt.Errorf("overlay alpha must be in [0, 1], got %.2f and %.2f", o.Alpha, o.PulseAlpha)
	}
	return nil
}

// Resolve expands "~" and makes path absolute under DataDir.
func (c *Config) Resolve(path string) string {
	path = ExpandHome(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(ExpandHome(c.DataDir), path)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// Usage returns the environment variable help text.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
