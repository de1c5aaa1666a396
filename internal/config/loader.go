package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jaykayes/lottery-script/internal/domain/lottery"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "HANDOUT_"
	envConfig = "HANDOUT_CONFIG"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var backends = map[string]bool{
	BackendNone: true, BackendMemory: true, BackendFile: true, BackendSQLite: true, BackendMySQL: true, BackendRedis: true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. YAML file from path, or HANDOUT_CONFIG when path is empty
//  3. env (prefix HANDOUT_)
func Load(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// HANDOUT_DEADLINE_HOUR -> deadline_hour, HANDOUT_STORE_BACKEND -> store.backend.
	envProvider := env.Provider(envPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if s == "config" {
		return ""
	}
	if rest, ok := strings.CutPrefix(s, "store_"); ok {
		return "store." + rest
	}
	return s
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	if !logLevels[strings.ToLower(c.LogLevel)] {
		return invalid("unknown log_level %q", c.LogLevel)
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		return invalid("unknown log_format %q", c.LogFormat)
	}
	if _, err := lottery.PolicyByName(c.DependentPolicy); err != nil {
		return invalid("dependent_policy: %v", err)
	}
	if c.DeadlineHour < 0 || c.DeadlineHour > 23 {
		return invalid("deadline_hour %d out of range", c.DeadlineHour)
	}
	if c.ApplicationPeriod <= 0 {
		return invalid("application_period must be positive")
	}
	if len(c.TimestampLayouts) == 0 {
		return invalid("timestamp_layouts must not be empty")
	}
	if err := c.validatePools(); err != nil {
		return err
	}
	if !backends[c.Store.Backend] {
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownBackend, c.Store.Backend)
	}
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.Path == "" {
			return invalid("store.path required for sqlite")
		}
	case BackendMySQL:
		if c.Store.DSN == "" {
			return invalid("store.dsn required for mysql")
		}
	case BackendRedis:
		if c.Store.Addr == "" {
			return invalid("store.addr required for redis")
		}
	}
	return nil
}

func (c *Config) validatePools() error {
	if len(c.Pools) == 0 {
		return invalid("at least one pool is required")
	}
	pools := make(map[string]bool, len(c.Pools))
	for _, p := range c.Pools {
		if p.Name == "" || p.Column == "" {
			return invalid("pool needs name and column: %+v", p)
		}
		if pools[p.Name] {
			return invalid("duplicate pool %q", p.Name)
		}
		pools[p.Name] = true
	}

	tags := make(map[string]bool, len(c.Groups))
	for _, g := range c.Groups {
		if g.Tag == "" {
			return invalid("group without tag")
		}
		if tags[g.Tag] {
			return invalid("duplicate group %q", g.Tag)
		}
		tags[g.Tag] = true
		if !pools[g.Pool] {
			return invalid("group %q refers to unknown pool %q", g.Tag, g.Pool)
		}
		if len(g.Primary) == 0 {
			return invalid("group %q has no primary items", g.Tag)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
