package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dupreview/internal/models"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the duplicate groups found by the last scan",
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
			writeGroups(cmd.OutOrStdout(), groups, verbose)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every file in each group")
	return cmd
}

func writeGroups(out io.Writer, groups [][]models.Asset, verbose bool) {
	if len(groups) == 0 {
		fmt.Fprintln(out, "No duplicate groups")
		return
	}

	if verbose {
		rows := make([][]string, 0)
		for gi, group := range groups {
			for _, a := range group {
				rows = append(rows, []string{
					strconv.Itoa(gi + 1),
					a.Path,
					humanize.IBytes(uint64(a.Size)),
					resolution(a),
				})
			}
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Group", "Path", "Size", "Resolution"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
		))
		return
	}

	rows := make([][]string, len(groups))
	var totalSavings uint64
	for gi, group := range groups {
		size, savings := groupSizes(group)
		totalSavings += savings
		rows[gi] = []string{
			strconv.Itoa(gi + 1),
			group[0].FileName,
			strconv.Itoa(len(group)),
			humanize.IBytes(size),
			humanize.IBytes(savings),
		}
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Group", "Name", "Files", "Size", "Savings"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
	))
	fmt.Fprintf(out, "%d groups, %s reclaimable\n", len(groups), humanize.IBytes(totalSavings))
}

// groupSizes returns the bytes held by a group and the bytes freed by keeping
// only its largest file. Hard links to one file count once.
func groupSizes(group []models.Asset) (size, savings uint64) {
	seen := make(map[[2]uint64]struct{}, len(group))
	var largest uint64
	for _, a := range group {
		if a.Inode != 0 {
			if _, dup := seen[a.DeviceInode()]; dup {
				continue
			}
			seen[a.DeviceInode()] = struct{}{}
		}
		s := uint64(a.Size)
		size += s
		if s > largest {
			largest = s
		}
	}
	return size, size - largest
}

func resolution(a models.Asset) string {
	if a.Width == 0 || a.Height == 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d", a.Width, a.Height)
}
