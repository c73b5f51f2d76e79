package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/logger"
)

// Config holds the settings shared by the wherering binaries.
type Config struct {
	// ServerAddress is the gRPC address of the engine server.
	ServerAddress string `yaml:"server_addr" env:"SERVER_ADDR"`
	// PlacesDB is the SQLite database holding the place catalog.
	PlacesDB string `yaml:"places_db" env:"PLACES_DB"`
	// PlacesFile is an optional YAML catalog used instead of PlacesDB.
	PlacesFile string `yaml:"places_file,omitempty" env:"PLACES_FILE"`
	// RingerStateFile is where the simulated ringer keeps its mode.
	RingerStateFile string `yaml:"ringer_state_file" env:"RINGER_STATE_FILE"`
	// Timeout bounds RPC calls.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// HysteresisMeters is the membership margin for fixes without accuracy.
	HysteresisMeters float64 `yaml:"hysteresis_meters" env:"HYSTERESIS_METERS"`
	// TimestampTolerance is how far a fix may go back in time.
	TimestampTolerance time.Duration `yaml:"timestamp_tolerance" env:"TIMESTAMP_TOLERANCE"`
	// Metric selects the distance metric: geodesic or planar.
	Metric string `yaml:"metric" env:"METRIC"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "wherering.yaml"

	// DefaultPlacesDB is the default place database.
	DefaultPlacesDB = "wherering-places.db"

	// DefaultRingerStateFilename is the default ringer state file.
	DefaultRingerStateFilename = "wherering-ringer.json"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultHysteresisMeters is the margin used when a fix has no accuracy.
	DefaultHysteresisMeters = 25.0

	// DefaultTimestampTolerance accepts slightly reordered fixes.
	DefaultTimestampTolerance = 2 * time.Second

	// DefaultFilePermissions is the default permission for written files.
	DefaultFilePermissions = 0o600

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "WHERERING_"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errInvalidHysteresis is returned for a negative or non-finite margin.
	errInvalidHysteresis = errors.New("hysteresis must be a finite non-negative number of meters")
	// errInvalidTolerance is returned for a negative tolerance.
	errInvalidTolerance = errors.New("timestamp tolerance must not be negative")
	// errUnknownMetric is returned for an unsupported distance metric.
	errUnknownMetric = errors.New("unknown distance metric")
	// errUnknownLogLevel is returned for an unsupported log level.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns settings with every optional field filled.
func Default() *Config {
	cfg := &Config{ServerAddress: "127.0.0.1:50551"}

	// Only fills defaults: the literal address resolves and every other
	// field starts empty.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from path, applies environment overrides and
// validates the result. A missing file at the default path is not an error:
// defaults and the environment are used instead.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

func load(path string, environment map[string]string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	cfg := new(Config)

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		cfg = &Config{ServerAddress: Default().ServerAddress}
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environment != nil {
		opts.Environment = environment
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if _, ok := place.MetricByName(settings.Metric); !ok {
		return fmt.Errorf("%w: %q", errUnknownMetric, settings.Metric)
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	if math.IsNaN(settings.HysteresisMeters) || math.IsInf(settings.HysteresisMeters, 0) ||
		settings.HysteresisMeters < 0 {
		return errInvalidHysteresis
	}

	if settings.TimestampTolerance < 0 {
		return errInvalidTolerance
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.HysteresisMeters == 0 {
		settings.HysteresisMeters = DefaultHysteresisMeters
	}

	if settings.TimestampTolerance == 0 {
		settings.TimestampTolerance = DefaultTimestampTolerance
	}

	if settings.PlacesDB == "" {
		settings.PlacesDB = DefaultPlacesDB
	}

	if settings.RingerStateFile == "" {
		settings.RingerStateFile = DefaultRingerStateFilename
	}

	if settings.Metric == "" {
		settings.Metric = place.Geodesic{}.Name()
	}

	if settings.LogLevel == "" {
		settings.LogLevel = "info"
	}

	return nil
}
