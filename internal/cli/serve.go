package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaykayes/lottery-script/internal/adapters/http/api"
	"github.com/jaykayes/lottery-script/internal/adapters/http/site"
	"github.com/jaykayes/lottery-script/internal/adapters/http/swagger"
	service "github.com/jaykayes/lottery-script/internal/app"
	"github.com/jaykayes/lottery-script/internal/config"
	"github.com/jaykayes/lottery-script/internal/domain/dedupe"
	"github.com/jaykayes/lottery-script/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the draw API",
		Long: `Serve the draw API, its OpenAPI reference and the written sheets.

  POST /draws          run a draw (Idempotency-Key header optional)
  GET  /draws          list stored draws (?lottery_id=)
  GET  /draws/{id}     fetch a stored draw (?format=json|yaml|csv|table)
  GET  /sheets/...     handout sheets below results_dir
  GET  /healthz, /metrics, /stats, /api-docs, /openapi.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				rootOpts.Config.Addr = addr
			}
			return runServe(cmd.Context(), rootOpts)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :9080)")

	return cmd
}

// NewHandler registers every route on a fresh mux.
func NewHandler(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)
	site.Register(ctx, mux, cfg.ResultsDir)

	apiServer := api.NewServer(svc, svc,
		api.WithLogger(log),
		api.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))),
		api.WithSheetDir(cfg.ResultsDir),
	)
	apiServer.Register(ctx, mux)
	return mux
}

func runServe(ctx context.Context, rootOpts *RootOptions) error {
	cfg := rootOpts.Config
	log := rootOpts.Logger

	svc, err := rootOpts.openService(ctx, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error(ctx, "store close failed", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "HTTP server failed", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return WrapExitError(ExitFailure, "server shutdown failed", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}
