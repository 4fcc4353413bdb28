package viewmodel

import (
	"errors"
	"fmt"

	"dupreview/internal/review"
)

// ErrEntryCollapsed is returned when selecting an entry that was already
// removed from the review.
var ErrEntryCollapsed = errors.New("entry already removed")

// SelectGroup moves to group i and onto its first visible entry.
func (v *viewModel) SelectGroup(i int) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if _, err := v.model.SetGroupCursor(i); err != nil {
		return fmt.Errorf("select group: %w", err)
	}
	g, _ := v.model.CurrentGroup()
	if first := firstVisible(g); first > 0 {
		if _, err := v.model.SetEntryCursor(first); err != nil {
			return fmt.Errorf("select group: %w", err)
		}
	}
	return nil
}

// SelectEntry moves to entry j of the current group. Collapsed entries
// cannot be selected.
func (v *viewModel) SelectEntry(j int) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if g, ok := v.model.CurrentGroup(); ok {
		if e, ok := g.Entry(j); ok && !e.Visible() {
			return fmt.Errorf("select entry %d: %w", j, ErrEntryCollapsed)
		}
	}
	if _, err := v.model.SetEntryCursor(j); err != nil {
		return fmt.Errorf("select entry: %w", err)
	}
	return nil
}

// NextEntry moves to the next visible entry of the current group.
func (v *viewModel) NextEntry() bool {
	return v.stepEntry(1)
}

// PrevEntry moves to the previous visible entry of the current group.
func (v *viewModel) PrevEntry() bool {
	return v.stepEntry(-1)
}

// NextGroup moves to the next group that still has something to review.
func (v *viewModel) NextGroup() bool {
	return v.stepGroup(1)
}

// PrevGroup moves to the previous group that still has something to review.
func (v *viewModel) PrevGroup() bool {
	return v.stepGroup(-1)
}

func (v *viewModel) stepEntry(dir int) bool {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	g, ok := v.model.CurrentGroup()
	if !ok {
		return false
	}
	for j := v.model.EntryCursor() + dir; j >= 0 && j < g.MemberCount(); j += dir {
		e, _ := g.Entry(j)
		if !e.Visible() {
			continue
		}
		_, err := v.model.SetEntryCursor(j)
		return err == nil
	}
	return false
}

func (v *viewModel) stepGroup(dir int) bool {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	groups := v.model.Groups()
	for i := v.model.GroupCursor() + dir; i >= 0 && i < len(groups); i += dir {
		if !groups[i].Eligible() {
			continue
		}
		if _, err := v.model.SetGroupCursor(i); err != nil {
			return false
		}
		// Entry 0 may already be collapsed; land on something visible.
		if first := firstVisible(groups[i]); first > 0 {
			if _, err := v.model.SetEntryCursor(first); err != nil {
				return false
			}
		}
		return true
	}
	return false
}

func firstVisible(g *review.Group) int {
	for j, e := range g.Entries() {
		if e.Visible() {
			return j
		}
	}
	return -1
}
