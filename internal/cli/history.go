package cli

import (
	"github.com/spf13/cobra"

	"github.com/jaykayes/lottery-script/internal/adapters/render"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history [lottery-id]",
		Short:         "List stored draws, newest first",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rootOpts.openService(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer svc.Close()

			lotteryID := ""
			if len(args) == 1 {
				lotteryID = args[0]
			}
			sums, err := svc.List(cmd.Context(), lotteryID)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list draws", err)
			}

			out := cmd.OutOrStdout()
			switch rootOpts.Format {
			case render.FormatJSON:
				err = render.WriteJSON(out, sums)
			case render.FormatYAML:
				err = render.WriteYAML(out, sums)
			default:
				err = render.WriteSummaries(out, sums)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "failed to print draws", err)
			}
			return nil
		},
	}
}
