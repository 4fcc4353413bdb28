package ui

import (
	"context"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"dupreview/internal/review"
	"dupreview/internal/vm"
)

func buildReviewTab(ctx context.Context, v vm.ViewModel, window fyne.Window, usesTrash bool) fyne.CanvasObject {
	groups := NewGroupListView(v)
	entries := NewEntryListView(v)

	currentGroup := widget.NewLabelWithData(v.CurrentGroupBind())
	currentGroup.TextStyle = fyne.TextStyle{Bold: true}
	currentEntry := widget.NewLabelWithData(v.CurrentEntryBind())
	currentEntry.Truncation = fyne.TextTruncateEllipsis

	stats := container.NewHBox(
		widget.NewLabel("Size under review:"),
		widget.NewLabelWithData(v.TotalGroupSizeBind()),
		widget.NewLabel("Reclaimable:"),
		widget.NewLabelWithData(v.PotentialSpaceSavingsBind()),
		widget.NewLabelWithData(binding.IntToStringWithFormat(v.RemovedCountBind(), "Removed: %d")),
	)
	completion := widget.NewLabelWithData(v.CompletionBind())

	remove := widget.NewButton("Remove", func() {
		confirmRemoveCurrent(v, window, usesTrash)
	})

	exempt := widget.NewButton("Exempt folder", func() {
		e, ok := v.CurrentEntry()
		if !ok {
			return
		}
		folder := e.Asset().Folder
		dialog.ShowConfirm("Exempt folder",
			fmt.Sprintf("Leave %s out of future scans?", folder),
			func(confirmed bool) {
				if !confirmed {
					return
				}
				if err := v.ExemptFolder(ctx, folder); err != nil {
					slog.Error("Exempt folder failed", slog.Any("error", err))
					dialog.ShowError(err, window)
				}
			}, window)
	})

	nav := container.NewHBox(
		widget.NewButton("Previous group", func() { v.PrevGroup() }),
		widget.NewButton("Previous", func() { v.PrevEntry() }),
		widget.NewButton("Next", func() { v.NextEntry() }),
		widget.NewButton("Next group", func() { v.NextGroup() }),
		remove,
		exempt,
	)

	top := container.NewVBox(currentGroup, currentEntry, stats, nav, completion)
	split := container.NewHSplit(groups, entries)
	split.SetOffset(0.3)
	return container.NewBorder(top, nil, nil, nil, split)
}

// confirmRemoveCurrent removes the current entry. Without a trash dir the
// file is deleted for good, so the operator has to confirm first.
func confirmRemoveCurrent(v vm.ViewModel, window fyne.Window, usesTrash bool) {
	e, ok := v.CurrentEntry()
	if !ok || !e.Visible() {
		return
	}
	if usesTrash {
		v.RemoveCurrent()
		return
	}
	dialog.ShowConfirm("Delete file",
		fmt.Sprintf("Permanently delete %s?", e.Asset().Path),
		func(confirmed bool) {
			if confirmed {
				v.Remove(e)
			}
		}, window)
}

// GroupListView lists every group with how many of its entries are left.
type GroupListView struct {
	widget.BaseWidget

	vm   vm.ViewModel
	list *widget.List
}

func NewGroupListView(v vm.ViewModel) *GroupListView {
	gl := &GroupListView{vm: v}
	gl.ExtendBaseWidget(gl)

	gl.list = widget.NewList(
		func() int { return len(gl.vm.Groups()) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, co fyne.CanvasObject) {
			groups := gl.vm.Groups()
			if id < 0 || id >= len(groups) {
				slog.Warn("Group ID out of bounds", "id", id)
				return
			}
			co.(*widget.Label).SetText(groupLabel(id, groups[id]))
		},
	)
	gl.list.OnSelected = func(id widget.ListItemID) {
		if g, _ := gl.vm.Cursor(); g == id {
			return
		}
		if err := gl.vm.SelectGroup(id); err != nil {
			slog.Warn("Select group", slog.Any("error", err))
		}
	}

	v.AddDuplicateGroupsListener(binding.NewDataListener(gl.Refresh))
	v.CurrentGroupBind().AddListener(binding.NewDataListener(func() {
		if g, _ := gl.vm.Cursor(); g >= 0 && g < len(gl.vm.Groups()) {
			gl.list.Select(g)
		}
		gl.Refresh()
	}))
	return gl
}

func groupLabel(i int, g *review.Group) string {
	label := fmt.Sprintf("%d. %s (%d/%d)", i+1, g.DisplayName(), g.VisibleCount(), g.MemberCount())
	if !g.Eligible() {
		label += " done"
	}
	return label
}

func (gl *GroupListView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(gl.list)
}

func (gl *GroupListView) Refresh() {
	gl.list.Refresh()
	gl.BaseWidget.Refresh()
}

// EntryListView shows the entries of the current group.
type EntryListView struct {
	widget.BaseWidget

	vm   vm.ViewModel
	list *widget.List
}

func NewEntryListView(v vm.ViewModel) *EntryListView {
	el := &EntryListView{vm: v}
	el.ExtendBaseWidget(el)

	el.list = widget.NewList(
		func() int { return len(el.entries()) },
		func() fyne.CanvasObject {
			return NewEntryRow(func(index int) {
				if err := el.vm.SelectEntry(index); err != nil {
					slog.Warn("Select entry", slog.Any("error", err))
				}
			})
		},
		func(id widget.ListItemID, co fyne.CanvasObject) {
			entries := el.entries()
			if id < 0 || id >= len(entries) {
				slog.Warn("Entry ID out of bounds", "id", id)
				return
			}
			row, ok := co.(*EntryRow)
			if !ok {
				slog.Warn("Type assertion failed for entry row", "id", id)
				return
			}
			_, current := el.vm.Cursor()
			row.Update(id, entries[id], id == current)
			el.list.SetItemHeight(id, row.MinSize().Height)
		},
	)

	v.EntryCursorBind().AddListener(binding.NewDataListener(el.Refresh))
	v.CurrentGroupBind().AddListener(binding.NewDataListener(el.Refresh))
	return el
}

func (el *EntryListView) entries() []*review.Entry {
	g, _ := el.vm.Cursor()
	groups := el.vm.Groups()
	if g < 0 || g >= len(groups) {
		return nil
	}
	return groups[g].Entries()
}

func (el *EntryListView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(el.list)
}

func (el *EntryListView) Refresh() {
	el.list.Refresh()
	el.BaseWidget.Refresh()
}
