package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/radialtree/pkg/errors"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "RADIALTREE_"

// legacyEnv lists variables also read without the prefix. The prefixed
// form wins when both are set.
var legacyEnv = map[string]bool{
	"PORT":          true,
	"API_KEY":       true,
	"GLOBAL_PREFIX": true,
}

type envBinding struct {
	name string
	set  func(c *Config, v string) error
}

var envBindings = []envBinding{
	{"PORT", func(c *Config, v string) error { return setInt(&c.Server.Port, v) }},
	{"API_KEY", func(c *Config, v string) error { c.Server.APIKey = v; return nil }},
	{"GLOBAL_PREFIX", func(c *Config, v string) error { c.Server.GlobalPrefix = v; return nil }},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = strings.ToLower(v); return nil }},
	{"LOG_FORMAT", func(c *Config, v string) error { c.Log.Format = strings.ToLower(v); return nil }},
	{"CACHE_BACKEND", func(c *Config, v string) error { c.Cache.Backend = v; return nil }},
	{"CACHE_DIR", func(c *Config, v string) error { c.Cache.Dir = v; return nil }},
	{"CACHE_TTL", func(c *Config, v string) error { return setDuration(&c.Cache.TTL, v) }},
	{"REDIS_ADDR", func(c *Config, v string) error {
		c.Cache.RedisAddr = v
		c.Sessions.RedisAddr = v
		return nil
	}},
	{"REDIS_PASSWORD", func(c *Config, v string) error {
		c.Cache.RedisPassword = v
		c.Sessions.RedisPassword = v
		return nil
	}},
	{"SESSION_BACKEND", func(c *Config, v string) error { c.Sessions.Backend = v; return nil }},
	{"SESSION_DIR", func(c *Config, v string) error { c.Sessions.Dir = v; return nil }},
	{"SESSION_TTL", func(c *Config, v string) error { return setDuration(&c.Sessions.TTL, v) }},
	{"MONGO_URI", func(c *Config, v string) error { c.Sessions.MongoURI = v; return nil }},
	{"MONGO_DATABASE", func(c *Config, v string) error { c.Sessions.MongoDatabase = v; return nil }},
	{"DATASETS", setDatasets},
	{"LAYOUT_JITTER", func(c *Config, v string) error { return setBool(&c.Layout.Jitter, v) }},
	{"LAYOUT_SEED", func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		c.Layout.Seed = n
		return nil
	}},
}

// applyEnv overrides cfg from the environment. Malformed values are
// INVALID_CONFIG errors rather than silently ignored.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok {
			if legacyEnv[b.name] {
				v, ok = lookup(b.name)
			}
		}
		if !ok || v == "" {
			continue
		}
		if err := b.set(cfg, v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "environment %s%s", EnvPrefix, b.name)
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// setDatasets parses "name=path,name=path" and merges it into the file
// configuration.
func setDatasets(c *Config, v string) error {
	if c.Datasets == nil {
		c.Datasets = map[string]string{}
	}
	for _, pair := range strings.Split(v, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, path, ok := strings.Cut(pair, "=")
		if !ok || name == "" || path == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "dataset entry %q is not name=path", pair)
		}
		c.Datasets[strings.TrimSpace(name)] = strings.TrimSpace(path)
	}
	return nil
}
