package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaykayes/lottery-script/internal/adapters/intake"
	"github.com/jaykayes/lottery-script/internal/adapters/render"
	service "github.com/jaykayes/lottery-script/internal/app"
	"github.com/jaykayes/lottery-script/pkg/logger"
)

// DateLayout is the layout of --opening and --deadline.
const DateLayout = "2006-01-02 15:04"

// Files looked up when no path is given.
const (
	DefaultInventory = "inventory.csv"
	DefaultTerms     = "terms.csv"
)

type drawOptions struct {
	inventory    string
	applications string
	terms        string
	lotteryID    string
	opening      string
	deadline     string
	seed         uint64
	policy       string
	noSheets     bool
	dryRun       bool
}

// NewDrawCommand creates the draw command.
func NewDrawCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &drawOptions{}

	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Run a lottery from the form exports",
		Long: `Run a lottery from the inventory, application and terms exports.

Files are looked up in <results_dir>/<lottery-id>/ when not given: the first
file whose name contains "applications", inventory.csv (falling back to
<results_dir>/inventory.csv) and terms.csv if present. Applications outside
the opening and deadline are ignored, later submissions replace earlier ones,
and applicants missing from the terms export take part in nothing.

One handout sheet per pool is written to <results_dir>/<lottery-id>/.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDraw(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.inventory, "inventory", "", "inventory CSV export")
	cmd.Flags().StringVar(&opts.applications, "applications", "", "application form CSV export")
	cmd.Flags().StringVar(&opts.terms, "terms", "", "terms and conditions CSV export (optional)")
	cmd.Flags().StringVar(&opts.lotteryID, "lottery-id", "", "lottery id (default ISO week, e.g. 2020-W07)")
	cmd.Flags().StringVar(&opts.opening, "opening", "", "first accepted submission, "+DateLayout+" (default deadline minus application_period)")
	cmd.Flags().StringVar(&opts.deadline, "deadline", "", "first rejected submission, "+DateLayout+" (default today at deadline_hour)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for a reproducible draw")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "dependent item policy (exclude|group-winners|independent)")
	cmd.Flags().BoolVar(&opts.noSheets, "no-sheets", false, "do not write handout sheets")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "do not save a snapshot")

	return cmd
}

func runDraw(cmd *cobra.Command, rootOpts *RootOptions, opts *drawOptions) error {
	ctx := cmd.Context()
	cfg := rootOpts.Config
	log := rootOpts.Logger.Named("draw")
	now := time.Now()

	lotteryID := opts.lotteryID
	if lotteryID == "" {
		lotteryID = intake.DefaultLotteryID(now)
	}
	lotteryDir := filepath.Join(cfg.ResultsDir, lotteryID)

	window, err := resolveWindow(now, cfg.DeadlineHour, cfg.ApplicationPeriod, opts.opening, opts.deadline)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid window", err)
	}

	src := service.Sources{
		Catalog:      opts.inventory,
		Applications: opts.applications,
		Terms:        opts.terms,
		Window:       window,
	}
	if src.Catalog == "" {
		src.Catalog = filepath.Join(cfg.ResultsDir, DefaultInventory)
		if local := filepath.Join(lotteryDir, DefaultInventory); exists(local) {
			src.Catalog = local
		}
	}
	if src.Terms == "" {
		if local := filepath.Join(lotteryDir, DefaultTerms); exists(local) {
			src.Terms = local
		}
	}
	if src.Applications == "" {
		path, ok := intake.SuggestApplications(lotteryDir)
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("no applications file found in %s; use --applications", lotteryDir))
		}
		src.Applications = path
	}
	log.Info(ctx, "lottery inputs",
		logger.String("lottery", lotteryID),
		logger.String("inventory", src.Catalog),
		logger.String("applications", src.Applications),
		logger.String("terms", src.Terms),
		logger.Time("opening", window.Opening),
		logger.Time("deadline", window.Deadline),
	)

	req, _, err := service.LoadRequest(ctx, cfg, src, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read inputs", err)
	}
	req.LotteryID = lotteryID
	req.Policy = opts.policy
	if cmd.Flags().Changed("seed") {
		seed := opts.seed
		req.Seed = &seed
	}

	var svc *service.Service
	if opts.dryRun {
		svc, err = rootOpts.newService(nil)
	} else {
		svc, err = rootOpts.openService(ctx, false)
	}
	if err != nil {
		return err
	}
	defer svc.Close()

	res, drawErr := svc.Draw(ctx, req)
	if res == nil {
		return WrapExitError(ExitCommandError, "draw rejected", drawErr)
	}

	if !opts.noSheets {
		paths, err := render.WriteSheetFiles(lotteryDir, res.Snapshot)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to write sheets", err)
		}
		for _, p := range paths {
			log.Info(ctx, "sheet written", logger.String("path", p))
		}
	}

	if err := render.Write(cmd.OutOrStdout(), rootOpts.Format, res.Snapshot); err != nil {
		return WrapExitError(ExitFailure, "failed to print results", err)
	}
	if drawErr != nil {
		return WrapExitError(ExitFailure, "snapshot not saved", drawErr)
	}
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// resolveWindow applies the flags on top of the default window. A deadline
// without an opening moves the opening along with it.
func resolveWindow(now time.Time, hour int, period time.Duration, opening, deadline string) (intake.Window, error) {
	w := intake.DefaultWindow(now, hour, period)
	if deadline != "" {
		t, err := time.ParseInLocation(DateLayout, deadline, time.Local)
		if err != nil {
			return w, fmt.Errorf("--deadline: %w", err)
		}
		w.Deadline = t
		w.Opening = t.Add(-period)
	}
	if opening != "" {
		t, err := time.ParseInLocation(DateLayout, opening, time.Local)
		if err != nil {
			return w, fmt.Errorf("--opening: %w", err)
		}
		w.Opening = t
	}
	if !w.Opening.Before(w.Deadline) {
		return w, fmt.Errorf("opening %s is not before deadline %s", w.Opening.Format(DateLayout), w.Deadline.Format(DateLayout))
	}
	return w, nil
}
