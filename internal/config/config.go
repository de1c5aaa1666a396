// Package config defines the lottery configuration and its loader.
//
// Conventions:
// - New(ctx) builds a Config with defaults; Load layers file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"time"
)

// Store backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Seed makes every draw reproducible when set.
	Seed *uint64 `koanf:"seed"`

	// DependentPolicy names how dependent items of an exclusive group are
	// handled: exclude, group-winners or independent.
	DependentPolicy string `koanf:"dependent_policy"`

	// Pools lists the distribution pools in catalog order. Nil means the
	// defaults; an explicit empty list is rejected.
	Pools []PoolConfig `koanf:"pools"`

	// Groups lists exclusive groups matched by item name. Nil means the
	// defaults; an explicit empty list disables name matching.
	Groups []GroupConfig `koanf:"groups"`

	// TimestampLayouts are tried in order on the application timestamps.
	TimestampLayouts []string `koanf:"timestamp_layouts"`

	// ApplicationPeriod is the default distance between opening and deadline.
	ApplicationPeriod time.Duration `koanf:"application_period"`

	// DeadlineHour is the hour of the day the default deadline falls on.
	DeadlineHour int `koanf:"deadline_hour"`

	// ResultsDir holds rendered sheets and file snapshots.
	ResultsDir string `koanf:"results_dir"`

	// DedupeSize bounds the idempotency keys remembered by the server.
	DedupeSize int `koanf:"dedupe_size"`

	Store StoreConfig `koanf:"store"`
}

// PoolConfig names a pool and the application form column listing its ids.
type PoolConfig struct {
	Name   string `koanf:"name"`
	Column string `koanf:"column"`
}

// GroupConfig defines an exclusive group. Primary names match catalog names
// exactly; dependent names match any catalog name containing them.
type GroupConfig struct {
	Tag       string   `koanf:"tag"`
	Pool      string   `koanf:"pool"`
	Primary   []string `koanf:"primary"`
	Dependent []string `koanf:"dependent"`
}

// StoreConfig selects where draw snapshots are kept.
type StoreConfig struct {
	Backend string `koanf:"backend"`

	// Path is the sqlite database file. The file backend uses ResultsDir.
	Path string `koanf:"path"`

	// DSN is the MySQL data source name.
	DSN string `koanf:"dsn"`

	// Addr is the Redis address; KeyPrefix namespaces its keys.
	Addr      string `koanf:"addr"`
	KeyPrefix string `koanf:"key_prefix"`
}

// New creates a Config with defaults. Pools, Groups and TimestampLayouts stay
// nil here and are filled by applyDefaults after loading.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		DependentPolicy:   "exclude",
		ApplicationPeriod: 14 * 24 * time.Hour,
		DeadlineHour:      16,
		ResultsDir:        "./lotteries",
		DedupeSize:        10_000,
		Store: StoreConfig{
			Backend:   BackendFile,
			Path:      "./lotteries/draws.db",
			Addr:      "localhost:6379",
			KeyPrefix: "handout",
		},
	}
}

// DefaultPools returns the two equipment containers.
func DefaultPools() []PoolConfig {
	return []PoolConfig{
		{Name: "Sjoeskrenten", Column: "Equipment Sjoeskrenten"},
		{Name: "Snowscooter", Column: "Equipment Ski/Snowscooter"},
	}
}

// DefaultGroups returns the ski group: one pair of skis per applicant, boots
// linked to the skis.
func DefaultGroups() []GroupConfig {
	return []GroupConfig{{
		Tag:  "skis",
		Pool: "Snowscooter",
		Primary: []string{
			"Fjell skis /w Telemark 3-pin binding",
			"Fjell skis /w BC binding",
			"Cross country skis",
			"Randonee skis",
			"Freeride skis",
			"Snowboard",
		},
		Dependent: []string{
			"Fjellski shoes Telemark",
			"Fjellski shoes BC",
			"Cross Country shoes",
			"Randonne ski boots",
			"Freeride Boots",
			"Snow board boots",
		},
	}}
}

// DefaultTimestampLayouts covers the form export and RFC 3339.
func DefaultTimestampLayouts() []string {
	return []string{
		"2006/01/02 3:04:05 PM MST",
		"2006/01/02 15:04:05",
		"2006-01-02 15:04:05",
		"1/2/2006 15:04:05",
		time.RFC3339,
	}
}

// PoolNames returns the configured pool names in order.
func (c *Config) PoolNames() []string {
	names := make([]string, len(c.Pools))
	for i, p := range c.Pools {
		names[i] = p.Name
	}
	return names
}

func (c *Config) applyDefaults() {
	if c.Pools == nil {
		c.Pools = DefaultPools()
	}
	if c.Groups == nil {
		c.Groups = DefaultGroups()
	}
	if c.TimestampLayouts == nil {
		c.TimestampLayouts = DefaultTimestampLayouts()
	}
}
