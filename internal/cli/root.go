// Package cli implements the handout command line.
package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jaykayes/lottery-script/internal/adapters/render"
	"github.com/jaykayes/lottery-script/internal/adapters/repository"
	service "github.com/jaykayes/lottery-script/internal/app"
	"github.com/jaykayes/lottery-script/internal/config"
	"github.com/jaykayes/lottery-script/internal/domain/lottery"
	"github.com/jaykayes/lottery-script/pkg/logger"
)

// RootOptions holds global flags and what the root command set up from them.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Output     string

	Config *config.Config
	Logger logger.Logger
	Format render.Format
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "handout",
		Short: "Equipment handout lottery",
		Long: `Draws equipment among applicants.

Items are allocated per pool. Oversubscribed items are drawn at random,
nobody wins two items of an exclusive group, and the winners are written
as one handout sheet per pool.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file (default $HANDOUT_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (text|json)")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "table", "output format (table|csv|json|yaml)")

	cmd.AddCommand(NewDrawCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))

	return cmd
}

func (o *RootOptions) setup(cmd *cobra.Command) error {
	format, err := render.ParseFormat(o.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --output", err)
	}
	o.Format = format

	cfg, err := config.Load(cmd.Context(), o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize logging", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	o.Config = cfg
	o.Logger = logger.Get()
	return nil
}

// OpenStore opens the configured snapshot store. The none backend returns
// a nil store.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendFile:
		return repository.Open(ctx, repository.BackendFile, repository.WithDir(cfg.ResultsDir))
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			return nil, err
		}
		return repository.Open(ctx, repository.BackendSQLite, repository.WithPath(cfg.Store.Path))
	default:
		return repository.Open(ctx, cfg.Store.Backend,
			repository.WithPath(cfg.Store.Path),
			repository.WithDSN(cfg.Store.DSN),
			repository.WithRedisAddr(cfg.Store.Addr),
			repository.WithKeyPrefix(cfg.Store.KeyPrefix),
		)
	}
}

// newService builds a service from the config.
func (o *RootOptions) newService(store repository.Store) (*service.Service, error) {
	policy, err := lottery.PolicyByName(o.Config.DependentPolicy)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid dependent policy", err)
	}
	svcOpts := []service.Option{
		service.WithLogger(o.Logger),
		service.WithPolicy(policy),
	}
	if store != nil {
		svcOpts = append(svcOpts, service.WithStore(store))
	}
	if o.Config.Seed != nil {
		svcOpts = append(svcOpts, service.WithSeed(*o.Config.Seed))
	}
	return service.New(svcOpts...), nil
}

// openService opens the store and builds the service; requireStore turns a
// missing store into a command error.
func (o *RootOptions) openService(ctx context.Context, requireStore bool) (*service.Service, error) {
	store, err := OpenStore(ctx, o.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open snapshot store", err)
	}
	if store == nil && requireStore {
		return nil, NewExitError(ExitCommandError, "no snapshot store configured (store.backend is none)")
	}
	svc, err := o.newService(store)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	return svc, nil
}
