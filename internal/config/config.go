// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultMediaClass         = "Audio/Sink"
	DefaultDescriptionPattern = "HD Audio Controller Analog Stereo$"
	DefaultMaxVolume          = 100
	DefaultCountdownSeconds   = 5
	DefaultCountdownTick      = "1s"
	DefaultNotifyBackend      = BackendDBus
	DefaultAppName            = "sinkrec"
	DefaultRecordCommand      = "pw-record"
	DefaultExtension          = "wav"
	DefaultStopGrace          = "5s"
	DefaultStartGrace         = "3s"
)

// Notification backends.
const (
	BackendDBus       = "dbus"
	BackendNotifySend = "notify-send"
	BackendNone       = "none"
)

// Config represents the sinkrec configuration.
type Config struct {
	Sink      SinkConfig      `toml:"sink"`
	Volume    VolumeConfig    `toml:"volume"`
	Countdown CountdownConfig `toml:"countdown"`
	Record    RecordConfig    `toml:"record"`
	Journal   JournalConfig   `toml:"journal"`
}

// SinkConfig selects the sink to record from.
type SinkConfig struct {
	MediaClass         string `toml:"media_class"`
	DescriptionPattern string `toml:"description_pattern"` // Regular expression
}

// VolumeConfig holds the volume used while recording.
type VolumeConfig struct {
	Max int `toml:"max"` // Percent, 0-100
}

// CountdownConfig holds the pre-recording countdown settings.
type CountdownConfig struct {
	Seconds int    `toml:"seconds"`
	Tick    string `toml:"tick"`    // Go duration between notifications
	Backend string `toml:"backend"` // dbus, notify-send, none
	AppName string `toml:"app_name"`
}

// RecordConfig holds recorder settings.
type RecordConfig struct {
	Command     string `toml:"command"`
	Extension   string `toml:"extension"`
	StopGrace   string `toml:"stop_grace"` // Wait after SIGINT before kill
	VerifyStart bool   `toml:"verify_start"`
	StartGrace  string `toml:"start_grace"`
	Probe       bool   `toml:"probe"` // Decode finished files to log their length
}

// JournalConfig holds session journal settings.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Empty = default data path
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Sink: SinkConfig{
			MediaClass:         DefaultMediaClass,
			DescriptionPattern: DefaultDescriptionPattern,
		},
		Volume: VolumeConfig{
			Max: DefaultMaxVolume,
		},
		Countdown: CountdownConfig{
			Seconds: DefaultCountdownSeconds,
			Tick:    DefaultCountdownTick,
			Backend: DefaultNotifyBackend,
			AppName: DefaultAppName,
		},
		Record: RecordConfig{
			Command:     DefaultRecordCommand,
			Extension:   DefaultExtension,
			StopGrace:   DefaultStopGrace,
			VerifyStart: true,
			StartGrace:  DefaultStartGrace,
			Probe:       true,
		},
		Journal: JournalConfig{
			Enabled: true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "sinkrec", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "sinkrec")
}

// JournalPath returns the configured journal path or the default one.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(DataPath(), "sessions.jsonl")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validation errors.
var (
	ErrInvalidMaxVolume = errors.New("volume.max must be between 0 and 100")
	ErrInvalidCountdown = errors.New("countdown.seconds cannot be negative")
	ErrInvalidBackend   = errors.New("countdown.backend must be dbus, notify-send or none")
	ErrEmptyRecorder    = errors.New("record.command cannot be empty")
)

// Validate checks value ranges and that all durations parse.
func (c *Config) Validate() error {
	if c.Volume.Max < 0 || c.Volume.Max > 100 {
		return ErrInvalidMaxVolume
	}
	if c.Countdown.Seconds < 0 {
		return ErrInvalidCountdown
	}
	switch c.Countdown.Backend {
	case BackendDBus, BackendNotifySend, BackendNone:
	default:
		return ErrInvalidBackend
	}
	if c.Record.Command == "" {
		return ErrEmptyRecorder
	}
	for _, d := range []string{c.Countdown.Tick, c.Record.StopGrace, c.Record.StartGrace} {
		if _, err := time.ParseDuration(d); err != nil {
			return err
		}
	}
	return nil
}

// CountdownTick returns the parsed countdown tick.
func (c *Config) CountdownTick() time.Duration {
	return parseDurationOr(c.Countdown.Tick, time.Second)
}

// StopGrace returns the parsed recorder stop grace period.
func (c *Config) StopGrace() time.Duration {
	return parseDurationOr(c.Record.StopGrace, 5*time.Second)
}

// StartGrace returns the parsed output file start grace period.
func (c *Config) StartGrace() time.Duration {
	return parseDurationOr(c.Record.StartGrace, 3*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
