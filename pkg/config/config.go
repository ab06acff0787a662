// Package config loads the application configuration.
//
// Configuration is layered: built-in defaults, then an optional file
// (TOML, YAML or JSON by extension), then environment variables. Later
// layers win. The merged result is validated before use.
//
//	cfg, err := config.Load("radialtree.toml")
//	if err != nil {
//	    return err
//	}
//	srv := server.New(cfg, ...)
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/radialtree/pkg/errors"
	"github.com/matzehuels/radialtree/pkg/radial"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultPort is the HTTP port when none is configured.
	DefaultPort = 4000

	// DefaultCacheTTL bounds how long computed layouts are reused.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultSessionTTL is how long an idle session survives.
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// Backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"

	SessionMemory = "memory"
	SessionFile   = "file"
	SessionRedis  = "redis"
	SessionMongo  = "mongo"
)

// =============================================================================
// Config
// =============================================================================

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig      `json:"server" toml:"server" yaml:"server"`
	Log      LogConfig         `json:"log" toml:"log" yaml:"log"`
	Cache    CacheConfig       `json:"cache" toml:"cache" yaml:"cache"`
	Sessions SessionConfig     `json:"sessions" toml:"sessions" yaml:"sessions"`
	Layout   radial.Config     `json:"layout" toml:"layout" yaml:"layout"`
	Datasets map[string]string `json:"datasets" toml:"datasets" yaml:"datasets"` // name -> tree file
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `json:"port" toml:"port" yaml:"port" validate:"gte=1,lte=65535"`

	// APIKey is required in the X-API-Key header. With no key configured
	// every API request is rejected.
	APIKey string `json:"api_key" toml:"api_key" yaml:"api_key"`

	// GlobalPrefix is mounted in front of every route, e.g. "/radial".
	GlobalPrefix string `json:"global_prefix" toml:"global_prefix" yaml:"global_prefix" validate:"omitempty,startswith=/"`

	ReadTimeout     time.Duration `json:"read_timeout" toml:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `json:"write_timeout" toml:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" toml:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`

	// MaxBodyBytes caps request bodies; trees can be large.
	MaxBodyBytes int64 `json:"max_body_bytes" toml:"max_body_bytes" yaml:"max_body_bytes" validate:"gte=0"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `json:"level" toml:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" toml:"format" yaml:"format" validate:"oneof=text json logfmt"`
}

// CacheConfig selects the layout cache backend.
type CacheConfig struct {
	Backend       string        `json:"backend" toml:"backend" yaml:"backend" validate:"oneof=none file redis"`
	Dir           string        `json:"dir" toml:"dir" yaml:"dir"`
	RedisAddr     string        `json:"redis_addr" toml:"redis_addr" yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `json:"redis_password" toml:"redis_password" yaml:"redis_password"`
	RedisDB       int           `json:"redis_db" toml:"redis_db" yaml:"redis_db" validate:"gte=0"`
	TTL           time.Duration `json:"ttl" toml:"ttl" yaml:"ttl" validate:"gte=0"`
}

// SessionConfig selects the session store backend.
type SessionConfig struct {
	Backend       string        `json:"backend" toml:"backend" yaml:"backend" validate:"oneof=memory file redis mongo"`
	Dir           string        `json:"dir" toml:"dir" yaml:"dir"`
	RedisAddr     string        `json:"redis_addr" toml:"redis_addr" yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `json:"redis_password" toml:"redis_password" yaml:"redis_password"`
	MongoURI      string        `json:"mongo_uri" toml:"mongo_uri" yaml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase string        `json:"mongo_database" toml:"mongo_database" yaml:"mongo_database"`
	TTL           time.Duration `json:"ttl" toml:"ttl" yaml:"ttl" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    32 << 20,
		},
		Log:      LogConfig{Level: "info", Format: "text"},
		Cache:    CacheConfig{Backend: CacheFile, TTL: DefaultCacheTTL},
		Sessions: SessionConfig{Backend: SessionMemory, TTL: DefaultSessionTTL},
		Layout:   radial.DefaultConfig(),
		Datasets: map[string]string{},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load merges defaults, the file at path (if path is not empty) and the
// process environment, then validates the result.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q", ext)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return nil
}

var configValidate = validator.New()

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	for name, path := range c.Datasets {
		if err := errors.ValidateDatasetName(name); err != nil {
			return err
		}
		if path == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "dataset %q has no file", name)
		}
	}
	return nil
}

// DatasetNames returns the configured dataset names, sorted.
func (c Config) DatasetNames() []string {
	names := make([]string, 0, len(c.Datasets))
	for name := range c.Datasets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c Config) String() string {
	redacted := c
	if redacted.Server.APIKey != "" {
		redacted.Server.APIKey = "***"
	}
	if redacted.Cache.RedisPassword != "" {
		redacted.Cache.RedisPassword = "***"
	}
	if redacted.Sessions.RedisPassword != "" {
		redacted.Sessions.RedisPassword = "***"
	}
	if redacted.Sessions.MongoURI != "" {
		redacted.Sessions.MongoURI = "***"
	}
	data, _ := json.Marshal(redacted)
	return string(data)
}
