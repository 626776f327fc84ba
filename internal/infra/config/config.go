// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/CoderFake/playerd/internal/domain/track"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	Audio     AudioConfig     `yaml:"audio"`
	Prefs     PrefsConfig     `yaml:"prefs"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Tracks    []TrackConfig   `yaml:"tracks" validate:"omitempty,dive"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:":8080"`
}

// SessionConfig represents session-related configuration.
type SessionConfig struct {
	DeviceClass string `yaml:"device_class" default:"other" validate:"oneof=mobile desktop tablet speaker tv other"`
}

// AudioConfig represents audio engine configuration.
type AudioConfig struct {
	TickIntervalMs int    `yaml:"tick_interval_ms" default:"250" validate:"gte=10,lte=5000"`
	AutoplayPolicy string `yaml:"autoplay_policy" default:"allow" validate:"oneof=allow block"`
}

// PrefsConfig represents preference persistence configuration.
type PrefsConfig struct {
	Backend string           `yaml:"backend" default:"file" validate:"oneof=file redis"`
	Path    string           `yaml:"path" default:"playerd-prefs.json"`
	Redis   PrefsRedisConfig `yaml:"redis"`
}

// PrefsRedisConfig represents the Redis backend configuration.
type PrefsRedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" default:"0"`
	Key      string `yaml:"key" default:"playerd:prefs"`
}

// TelemetryConfig represents play-event reporting configuration.
// An empty endpoint disables reporting.
type TelemetryConfig struct {
	Endpoint  string `yaml:"endpoint" validate:"omitempty,url"`
	TimeoutMs int    `yaml:"timeout_ms" default:"5000" validate:"gte=100,lte=60000"`
	Buffer    int    `yaml:"buffer" default:"64" validate:"gte=1,lte=4096"`
}

// TrackConfig represents a single catalog track.
type TrackConfig struct {
	ID          string  `yaml:"id" validate:"required"`
	Title       string  `yaml:"title" validate:"required"`
	Artist      string  `yaml:"artist"`
	ArtworkURL  string  `yaml:"artwork_url"`
	DurationSec float64 `yaml:"duration_sec" validate:"gte=0"`
	Genre       string  `yaml:"genre"`
	AudioURL    string  `yaml:"audio_url"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Prefs.Redis.Password = v
	}
	if v := os.Getenv("TELEMETRY_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	seen := make(map[string]struct{}, len(c.Tracks))
	for _, t := range c.Tracks {
		if _, ok := seen[t.ID]; ok {
			return errors.Newf("duplicate track id in catalog: %s", t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	return nil
}

// CatalogTracks converts the configured track list to domain tracks.
func (c *Config) CatalogTracks() []track.Track {
	tracks := make([]track.Track, len(c.Tracks))
	for i, t := range c.Tracks {
		tracks[i] = track.Track{
			ID:          t.ID,
			Title:       t.Title,
			Artist:      t.Artist,
			ArtworkURL:  t.ArtworkURL,
			DurationSec: t.DurationSec,
			Genre:       t.Genre,
			AudioURL:    t.AudioURL,
		}
	}
	return tracks
}
