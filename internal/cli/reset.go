package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase the day, catalog, customers and history",
		Long: `Erase every record of the register and restore the default settings.
This cannot be undone. Pass --yes to confirm.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}

			rt, err := a.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.service.ClearEverything(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Register reset")
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm the reset")
	return cmd
}
