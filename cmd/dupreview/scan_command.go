package main

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dupreview/internal/application"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the configured directories and group duplicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			var visited, accepted int
			progress := progressLogger()
			progress.OnFileFound = func(v, a int) {
				visited, accepted = v, a
			}

			groups, err := app.Scan(cmd.Context(), progress)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Visited %s files, %s accepted\n", humanize.Comma(int64(visited)), humanize.Comma(int64(accepted)))
			fmt.Fprintf(out, "Found %d duplicate groups\n", len(groups))
			if list {
				writeGroups(out, groups, false)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List the groups after scanning")
	return cmd
}

func progressLogger() application.Progress {
	return application.Progress{
		OnHashed: func(done, total int) {
			if done%100 == 0 || done == total {
				slog.Info("Fingerprinting", slog.Int("done", done), slog.Int("total", total))
			}
		},
	}
}
