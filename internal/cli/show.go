package cli

import (
	"github.com/spf13/cobra"

	"github.com/jaykayes/lottery-script/internal/adapters/render"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Print a stored draw",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rootOpts.openService(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer svc.Close()

			snap, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load draw "+args[0], err)
			}
			if err := render.Write(cmd.OutOrStdout(), rootOpts.Format, snap); err != nil {
				return WrapExitError(ExitFailure, "failed to print draw", err)
			}
			return nil
		},
	}
}
