package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jaykayes/lottery-script/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.PoolNames(), convey.ShouldResemble, []string{"Sjoeskrenten", "Snowscooter"})
				convey.So(cfg.Groups, convey.ShouldResemble, config.DefaultGroups())
				convey.So(cfg.TimestampLayouts, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("HANDOUT_ADDR", ":8080")
			_ = os.Setenv("HANDOUT_SEED", "42")
			_ = os.Setenv("HANDOUT_DEPENDENT_POLICY", "group-winners")
			_ = os.Setenv("HANDOUT_DEADLINE_HOUR", "12")
			_ = os.Setenv("HANDOUT_APPLICATION_PERIOD", "168h")
			_ = os.Setenv("HANDOUT_STORE_BACKEND", "redis")
			_ = os.Setenv("HANDOUT_STORE_ADDR", "cache:6379")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Seed, convey.ShouldNotBeNil)
				convey.So(*cfg.Seed, convey.ShouldEqual, uint64(42))
				convey.So(cfg.DependentPolicy, convey.ShouldEqual, "group-winners")
				convey.So(cfg.DeadlineHour, convey.ShouldEqual, 12)
				convey.So(cfg.ApplicationPeriod, convey.ShouldEqual, 7*24*time.Hour)
				convey.So(cfg.Store.Backend, convey.ShouldEqual, "redis")
				convey.So(cfg.Store.Addr, convey.ShouldEqual, "cache:6379")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
log_format: json
pools:
  - name: Hut
    column: Equipment Hut
groups:
  - tag: tents
    pool: Hut
    primary: [Tent 2p, Tent 3p]
    dependent: [Tent pegs]
store:
  backend: sqlite
  path: /tmp/handout.db
`)

			convey.Convey("Then the file replaces the default pools and groups", func() {
				cfg, err := config.Load(ctx, path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.PoolNames(), convey.ShouldResemble, []string{"Hut"})
				convey.So(cfg.Groups, convey.ShouldHaveLength, 1)
				convey.So(cfg.Groups[0].Primary, convey.ShouldResemble, []string{"Tent 2p", "Tent 3p"})
				convey.So(cfg.Store.Path, convey.ShouldEqual, "/tmp/handout.db")
			})

			convey.Convey("Then HANDOUT_CONFIG finds the same file", func() {
				_ = os.Setenv("HANDOUT_CONFIG", path)
				_ = os.Setenv("HANDOUT_ADDR", ":7070")

				cfg, err := config.Load(ctx, "")
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.PoolNames(), convey.ShouldResemble, []string{"Hut"})
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.Load(ctx, "/non/existent/file.yaml")

			convey.Convey("Then it fails to load", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value has the wrong type", func() {
			_ = os.Setenv("HANDOUT_DEADLINE_HOUR", "noon")
			_, err := config.Load(ctx, "")

			convey.Convey("Then it fails to load", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		valid := func() *config.Config {
			cfg := config.New(context.Background())
			cfg.Pools = config.DefaultPools()
			cfg.Groups = config.DefaultGroups()
			cfg.TimestampLayouts = config.DefaultTimestampLayouts()
			return cfg
		}
		convey.So(valid().Validate(), convey.ShouldBeNil)

		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"unknown level", func(c *config.Config) { c.LogLevel = "chatty" }},
			{"unknown format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"unknown policy", func(c *config.Config) { c.DependentPolicy = "coinflip" }},
			{"hour out of range", func(c *config.Config) { c.DeadlineHour = 24 }},
			{"zero period", func(c *config.Config) { c.ApplicationPeriod = 0 }},
			{"no layouts", func(c *config.Config) { c.TimestampLayouts = []string{} }},
			{"no pools", func(c *config.Config) { c.Pools = []config.PoolConfig{} }},
			{"pool without column", func(c *config.Config) { c.Pools = []config.PoolConfig{{Name: "A"}} }},
			{"duplicate pool", func(c *config.Config) { c.Pools = append(c.Pools, c.Pools[0]) }},
			{"group in unknown pool", func(c *config.Config) { c.Groups[0].Pool = "Attic" }},
			{"group without primaries", func(c *config.Config) { c.Groups[0].Primary = nil }},
			{"duplicate group", func(c *config.Config) { c.Groups = append(c.Groups, c.Groups[0]) }},
			{"unknown backend", func(c *config.Config) { c.Store.Backend = "s3" }},
			{"mysql without dsn", func(c *config.Config) { c.Store.Backend = config.BackendMySQL }},
			{"redis without addr", func(c *config.Config) {
				c.Store.Backend = config.BackendRedis
				c.Store.Addr = ""
			}},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := valid()
				tc.mutate(cfg)

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the backend is unknown", func() {
			cfg := valid()
			cfg.Store.Backend = "tape"
			err := cfg.Validate()

			convey.Convey("Then the error names the backend kind", func() {
				convey.So(errors.Is(err, config.ErrUnknownBackend), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, `"tape"`)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"HANDOUT_CONFIG",
		"HANDOUT_ADDR",
		"HANDOUT_SEED",
		"HANDOUT_DEPENDENT_POLICY",
		"HANDOUT_DEADLINE_HOUR",
		"HANDOUT_APPLICATION_PERIOD",
		"HANDOUT_STORE_BACKEND",
		"HANDOUT_STORE_ADDR",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
