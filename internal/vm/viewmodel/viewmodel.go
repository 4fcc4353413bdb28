package viewmodel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2/data/binding"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"dupreview/internal/models"
	"dupreview/internal/review"
	"dupreview/internal/vm"
)

// viewModel serialises access to the review model and mirrors its
// notifications into fyne bindings for the UI.
type viewModel struct {
	mutex   sync.Mutex
	model   *review.Model
	session uuid.UUID

	DuplicateGroups       binding.UntypedList
	GroupCursor           binding.Int
	EntryCursor           binding.Int
	CurrentGroup          binding.String
	CurrentEntryText      binding.String
	Completion            binding.String
	TotalGroupSize        binding.String
	PotentialSpaceSavings binding.String
	RemovedCount          binding.Int

	deleter     vm.Deleter
	exempter    vm.Exempter
	onCompleted func(review.Completion)
}

// NewViewModel builds a view model. deleter and exempter may be nil, in which
// case removals only affect the review and exempt requests are ignored.
func NewViewModel(deleter vm.Deleter, exempter vm.Exempter) vm.ViewModel {
	v := &viewModel{
		model:                 review.NewModel(),
		DuplicateGroups:       binding.NewUntypedList(),
		GroupCursor:           binding.NewInt(),
		EntryCursor:           binding.NewInt(),
		CurrentGroup:          binding.NewString(),
		CurrentEntryText:      binding.NewString(),
		Completion:            binding.NewString(),
		TotalGroupSize:        binding.NewString(),
		PotentialSpaceSavings: binding.NewString(),
		RemovedCount:          binding.NewInt(),
		deleter:               deleter,
		exempter:              exempter,
	}
	v.model.Observe(review.ObserverFuncs{OnChange: v.changed, OnComplete: v.completed})
	return v
}

// Data
// ____

func (v *viewModel) SetDuplicates(groups [][]models.Asset) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.session = uuid.New()
	slog.Info("Starting review session",
		slog.String("session", v.session.String()),
		slog.Int("groups", len(groups)))

	v.setString(v.Completion, "", "Completion")
	v.model.SetDuplicates(groups)
	v.updateStatistics()
}

func (v *viewModel) Groups() []*review.Group {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.model.Groups()
}

func (v *viewModel) CurrentEntry() (*review.Entry, bool) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.model.CurrentEntry()
}

func (v *viewModel) Cursor() (int, int) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.model.Cursor()
}

// Removal
// _______

// Remove forwards every entry's asset to the deleter, then collapses the
// entries in the review. The deleter is told even when the entry is not, or no
// longer, under review.
func (v *viewModel) Remove(entries ...*review.Entry) {
	requested := 0
	for _, e := range entries {
		if e == nil {
			continue
		}
		requested++
		if v.deleter != nil {
			v.deleter.RequestDeletion(e.Asset())
		}
	}

	v.mutex.Lock()
	res := v.model.Collapse(entries...)
	v.updateStatistics()
	cb := v.onCompleted
	session := v.session
	v.mutex.Unlock()

	slog.Info("Removed entries from review",
		slog.String("session", session.String()),
		slog.Int("requested", requested),
		slog.Int("collapsed", res.Collapsed))

	if n, err := v.RemovedCount.Get(); err == nil {
		if err := v.RemovedCount.Set(n + requested); err != nil {
			slog.Error("Failed to update RemovedCount", slog.Any("error", err))
		}
	}

	if res.Completion != nil && cb != nil {
		cb(*res.Completion)
	}
}

// RemoveCurrent removes the entry under the cursor. It reports false when
// there is nothing visible under the cursor.
func (v *viewModel) RemoveCurrent() bool {
	v.mutex.Lock()
	e, ok := v.model.CurrentEntry()
	v.mutex.Unlock()
	if !ok || !e.Visible() {
		return false
	}
	v.Remove(e)
	return true
}

func (v *viewModel) ExemptFolder(ctx context.Context, folder string) error {
	if v.exempter == nil {
		slog.Warn("No exempter configured, ignoring folder", slog.String("folder", folder))
		return nil
	}
	if err := v.exempter.AddExemptPath(ctx, folder); err != nil {
		return fmt.Errorf("exempt folder %q: %w", folder, err)
	}
	slog.Info("Exempted folder from future scans", slog.String("folder", folder))
	return nil
}

func (v *viewModel) OnCompleted(fn func(review.Completion)) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.onCompleted = fn
}

// Review notifications -> bindings
// ________________________________

// changed runs synchronously inside model calls, with v.mutex held.
func (v *viewModel) changed(c review.Change) {
	switch c.Property {
	case review.PropGroups:
		groups := v.model.Groups()
		items := make([]any, len(groups))
		for i, g := range groups {
			items[i] = g
		}
		if err := v.DuplicateGroups.Set(items); err != nil {
			slog.Error("Setting DuplicateGroups", slog.Any("error", err))
		}
	case review.PropGroupCursor:
		v.setInt(v.GroupCursor, c.GroupCursor, "GroupCursor")
	case review.PropCurrentGroup:
		v.setString(v.CurrentGroup, v.currentGroupText(), "CurrentGroup")
	case review.PropEntryCursor:
		v.setInt(v.EntryCursor, c.EntryCursor, "EntryCursor")
	case review.PropCurrentEntry:
		text := ""
		if e, ok := v.model.CurrentEntry(); ok {
			text = e.Asset().Path
		}
		v.setString(v.CurrentEntryText, text, "CurrentEntry")
	}
}

func (v *viewModel) completed(c review.Completion) {
	v.setString(v.Completion, c.Message, "Completion")
}

func (v *viewModel) currentGroupText() string {
	g, ok := v.model.CurrentGroup()
	if !ok {
		return ""
	}
	return fmt.Sprintf("Group %d of %d: %s (%d of %d left)",
		v.model.GroupCursor()+1, v.model.Len(), g.DisplayName(), g.VisibleCount(), g.MemberCount())
}

// updateStatistics recomputes sizes over the entries still under review.
// Hard links to the same inode are only counted once per group.
func (v *viewModel) updateStatistics() {
	var totalGroupSize, potentialSavings int64

	for _, g := range v.model.Groups() {
		seen := make(map[[2]uint64]struct{})
		var groupSize, largest int64
		for _, e := range g.Entries() {
			if !e.Visible() {
				continue
			}
			a := e.Asset()
			if _, dup := seen[a.DeviceInode()]; !dup || a.Inode == 0 {
				seen[a.DeviceInode()] = struct{}{}
				groupSize += a.Size
			}
			if a.Size > largest {
				largest = a.Size
			}
		}
		totalGroupSize += groupSize
		potentialSavings += groupSize - largest
	}

	v.setString(v.TotalGroupSize, humanize.IBytes(uint64(totalGroupSize)), "TotalGroupSize")
	v.setString(v.PotentialSpaceSavings, humanize.IBytes(uint64(potentialSavings)), "PotentialSpaceSavings")
}

func (v *viewModel) setInt(b binding.Int, val int, name string) {
	if err := b.Set(val); err != nil {
		slog.Error("Failed to update binding", slog.String("binding", name), slog.Any("error", err))
	}
}

func (v *viewModel) setString(b binding.String, val string, name string) {
	if err := b.Set(val); err != nil {
		slog.Error("Failed to update binding", slog.String("binding", name), slog.Any("error", err))
	}
}

// Getters for bindings
// ____________________

func (v *viewModel) GroupCursorBind() binding.Int { return v.GroupCursor }

func (v *viewModel) EntryCursorBind() binding.Int { return v.EntryCursor }

func (v *viewModel) CurrentGroupBind() binding.String { return v.CurrentGroup }

func (v *viewModel) CurrentEntryBind() binding.String { return v.CurrentEntryText }

func (v *viewModel) CompletionBind() binding.String { return v.Completion }

func (v *viewModel) TotalGroupSizeBind() binding.String { return v.TotalGroupSize }

func (v *viewModel) PotentialSpaceSavingsBind() binding.String { return v.PotentialSpaceSavings }

func (v *viewModel) RemovedCountBind() binding.Int { return v.RemovedCount }

func (v *viewModel) AddDuplicateGroupsListener(listener binding.DataListener) {
	v.DuplicateGroups.AddListener(listener)
}
