package main

import (
	"github.com/spf13/cobra"

	"dupreview/internal/vm/viewmodel"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the duplicate groups as JSON or YAML",
		Long:  "Write the duplicate groups as JSON or YAML. The format follows the file extension; without a file the document goes to stdout in --format.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			groups, err := app.DuplicateGroups(cmd.Context())
			if err != nil {
				return err
			}

			v := viewmodel.NewViewModel(nil, nil)
			v.SetDuplicates(groups)
			if len(args) == 1 {
				return v.ExportToFile(args[0])
			}
			return v.Export(cmd.OutOrStdout(), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", viewmodel.FormatJSON, "Output format when writing to stdout (json or yaml)")
	return cmd
}
