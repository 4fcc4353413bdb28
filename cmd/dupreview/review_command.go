package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dupreview/ui"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	var rescan bool

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Open the review window over the duplicate groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if rescan {
				if _, err := app.Scan(cmd.Context(), progressLogger()); err != nil {
					return fmt.Errorf("scan: %w", err)
				}
			}
			groups, err := app.DuplicateGroups(cmd.Context())
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No duplicate groups to review")
				return nil
			}
			return ui.Run(cmd.Context(), app, groups)
		},
	}

	cmd.Flags().BoolVar(&rescan, "scan", false, "Scan before opening the window")
	return cmd
}
