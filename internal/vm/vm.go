package vm

import (
	"context"
	"io"

	"fyne.io/fyne/v2/data/binding"

	"dupreview/internal/models"
	"dupreview/internal/review"
)

// Deleter receives every asset the operator asked to remove. It must not
// block; the physical delete happens elsewhere.
type Deleter interface {
	RequestDeletion(asset models.Asset)
}

// Exempter records folders whose files should be left out of later scans.
type Exempter interface {
	AddExemptPath(ctx context.Context, path string) error
}

type ViewModel interface {
	// Data
	SetDuplicates(groups [][]models.Asset)
	Groups() []*review.Group
	CurrentEntry() (*review.Entry, bool)
	Cursor() (group, entry int)

	// Navigation
	SelectGroup(i int) error
	SelectEntry(j int) error
	NextEntry() bool
	PrevEntry() bool
	NextGroup() bool
	PrevGroup() bool

	// Removal
	Remove(entries ...*review.Entry)
	RemoveCurrent() bool
	ExemptFolder(ctx context.Context, folder string) error

	// Export
	Export(w io.Writer, format string) error
	ExportToFile(path string) error

	// Fyne binding
	GroupCursorBind() binding.Int
	EntryCursorBind() binding.Int
	CurrentGroupBind() binding.String
	CurrentEntryBind() binding.String
	CompletionBind() binding.String
	TotalGroupSizeBind() binding.String
	PotentialSpaceSavingsBind() binding.String
	RemovedCountBind() binding.Int
	AddDuplicateGroupsListener(listener binding.DataListener)
	OnCompleted(fn func(review.Completion))
}
