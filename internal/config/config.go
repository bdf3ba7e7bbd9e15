package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"eventease/internal/fileutil"
)

// NOTE: Load creates the file with defaults on first run; Save always writes
// atomically with 0600 permissions because the file holds the admin hash.

// Environment variables that override file values.
const (
	EnvDataFile  = "EVENTEASE_DATA_FILE"
	EnvTimezone  = "EVENTEASE_TIMEZONE"
	EnvMaxEvents = "EVENTEASE_MAX_EVENTS"
	EnvLogLevel  = "EVENTEASE_LOG_LEVEL"
	EnvLogFile   = "EVENTEASE_LOG_FILE"
)

// DigestConfig controls the scheduled upcoming-events digest.
type DigestConfig struct {
	// Cron is a standard 5-field schedule (e.g. "0 8 * * *").
	Cron string `yaml:"cron" json:"cron" validate:"required"`

	// HorizonHours is how far ahead the digest looks.
	HorizonHours int `yaml:"horizon_hours" json:"horizon_hours" validate:"gte=1,lte=8784"`

	// Output is the file the digest appends to; empty means stdout.
	Output string `yaml:"output" json:"output"`
}

// Config is the top-level application configuration.
type Config struct {
	// DataFile is the events file, relative to the working directory.
	DataFile string `yaml:"data_file" json:"data_file" validate:"required"`

	// Timezone is the IANA zone used to turn event date+time into instants
	// (e.g. "Europe/Berlin"). Empty or "Local" means the system zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// MaxEvents bounds the number of events the store holds.
	MaxEvents int `yaml:"max_events" json:"max_events" validate:"gte=1,lte=100000"`

	// AdminPasswordHash is a bcrypt hash; an empty value is seeded on startup.
	AdminPasswordHash string `yaml:"admin_password_hash" json:"-"`

	// ExportDurationMinutes is the DTEND offset used for ICS export.
	ExportDurationMinutes int `yaml:"export_duration_minutes" json:"export_duration_minutes" validate:"gte=1,lte=10080"`

	Digest DigestConfig `yaml:"digest" json:"digest"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`

	// LogFile receives log output; empty means stderr.
	LogFile string `yaml:"log_file" json:"log_file"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataFile:              "events.txt",
		Timezone:              "Local",
		MaxEvents:             100,
		ExportDurationMinutes: 60,
		Digest: DigestConfig{
			Cron:         "0 8 * * *",
			HorizonHours: 24,
		},
		LogLevel: "info",
		LogFile:  "eventease.log",
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.DataFile == "" {
		c.DataFile = def.DataFile
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.MaxEvents <= 0 {
		c.MaxEvents = def.MaxEvents
	}
	if c.ExportDurationMinutes <= 0 {
		c.ExportDurationMinutes = def.ExportDurationMinutes
	}
	if c.Digest.Cron == "" {
		c.Digest.Cron = def.Digest.Cron
	}
	if c.Digest.HorizonHours <= 0 {
		c.Digest.HorizonHours = def.Digest.HorizonHours
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

var validate = validator.New()

// Validate checks field ranges, the cron schedule and the timezone.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	if _, err := cron.ParseStandard(c.Digest.Cron); err != nil {
		return fmt.Errorf("config: digest.cron %q: %w", c.Digest.Cron, err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ExportDuration is ExportDurationMinutes as a duration.
func (c *Config) ExportDuration() time.Duration {
	return time.Duration(c.ExportDurationMinutes) * time.Minute
}

// DigestHorizon is Digest.HorizonHours as a duration.
func (c *Config) DigestHorizon() time.Duration {
	return time.Duration(c.Digest.HorizonHours) * time.Hour
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - A ".env" file next to path, if present, is loaded into the environment
//     (existing variables win).
//   - If the config file does not exist, a default config is written with
//     0600 perms.
//   - EVENTEASE_* variables override file values.
//   - The result is normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	if err := godotenv.Load(filepath.Join(filepath.Dir(path), ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return nil, err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDataFile); v != "" {
		c.DataFile = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok {
		c.LogFile = v
	}
	if v := os.Getenv(EnvMaxEvents); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvMaxEvents, v, err)
		}
		c.MaxEvents = n
	}
	return nil
}

// Save writes the given configuration to the specified path.
//
// The file is written atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o600)
}

// UpdateAdminHash stores hash in the file at path, leaving other file values
// as written (environment overrides are not persisted).
func UpdateAdminHash(path, hash string) error {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.AdminPasswordHash = hash
	return Save(path, cfg)
}
