package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaykayes/lottery-script/internal/adapters/intake"
	"github.com/jaykayes/lottery-script/internal/sample"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dir        string
		applicants int
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write sample exports to try a draw",
		Long: `Write a sample inventory, application and terms export built from the
configured pools and groups. Without --dir the files go where draw looks
for them: <results_dir>/<lottery-id>/.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := rootOpts.Config
			gen := sample.FromConfig(cfg, applicants, seed)
			gen.Logger = rootOpts.Logger
			gen.Now = time.Now()

			if dir == "" {
				dir = filepath.Join(cfg.ResultsDir, intake.DefaultLotteryID(gen.Now))
			}
			files, err := sample.Write(cmd.Context(), dir, gen)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to write sample", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, files.Inventory)
			fmt.Fprintln(out, files.Applications)
			fmt.Fprintln(out, files.Terms)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "output directory")
	cmd.Flags().IntVarP(&applicants, "applicants", "n", 40, "number of applicants")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "generator seed")

	return cmd
}
