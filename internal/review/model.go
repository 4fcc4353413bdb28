// Package review holds the duplicate review engine: the groups under review,
// the two-level cursor over them, and the ordered change notifications an
// observing UI relies on.
//
// A Model is not safe for concurrent use. Callers that touch it from more
// than one goroutine must serialise every call.
package review

import (
	"errors"
	"fmt"
	"log/slog"

	"dupreview/internal/models"
)

var ErrCursorOutOfRange = errors.New("cursor out of range")

type Model struct {
	groups      []*Group
	groupCursor int
	entryCursor int

	history   []Change
	observers []*observerSlot
}

func NewModel() *Model {
	return &Model{}
}

// SetDuplicates replaces the whole review state with groups. Every entry
// starts visible and the cursor is placed on the first entry of the first
// group. Empty inner sequences are dropped.
func (m *Model) SetDuplicates(groups [][]models.Asset) []Change {
	wasEmpty := len(m.groups) == 0

	built := make([]*Group, 0, len(groups))
	for _, assets := range groups {
		if len(assets) == 0 {
			slog.Warn("Dropping empty duplicate group")
			continue
		}
		built = append(built, newGroup(len(built), assets))
	}

	m.groups = built
	m.groupCursor = 0
	m.entryCursor = 0

	if wasEmpty && len(built) == 0 {
		return nil
	}
	slog.Debug("Review groups set", slog.Int("groups", len(built)))
	return m.emit(nil, fullReset...)
}

// Groups returns the groups in their fixed order.
func (m *Model) Groups() []*Group {
	out := make([]*Group, len(m.groups))
	copy(out, m.groups)
	return out
}

func (m *Model) Len() int { return len(m.groups) }

// Cursor returns the group and entry indices. Both are 0 for an empty model.
func (m *Model) Cursor() (group, entry int) {
	return m.groupCursor, m.entryCursor
}

func (m *Model) GroupCursor() int { return m.groupCursor }

func (m *Model) EntryCursor() int { return m.entryCursor }

// CurrentGroup is the group under the cursor; ok is false when there are no groups.
func (m *Model) CurrentGroup() (*Group, bool) {
	if m.groupCursor < 0 || m.groupCursor >= len(m.groups) {
		return nil, false
	}
	return m.groups[m.groupCursor], true
}

// CurrentEntry is the entry under the cursor; ok is false when there are no groups.
func (m *Model) CurrentEntry() (*Entry, bool) {
	g, ok := m.CurrentGroup()
	if !ok {
		return nil, false
	}
	return g.Entry(m.entryCursor)
}

// SetGroupCursor moves to group i and resets the entry cursor to 0.
func (m *Model) SetGroupCursor(i int) ([]Change, error) {
	if i == m.groupCursor {
		return nil, nil
	}
	if i < 0 || i >= len(m.groups) {
		return nil, fmt.Errorf("group cursor %d of %d groups: %w", i, len(m.groups), ErrCursorOutOfRange)
	}
	m.groupCursor = i
	m.entryCursor = 0
	return m.emit(nil, groupSwitch...), nil
}

// SetEntryCursor moves to entry j of the current group.
func (m *Model) SetEntryCursor(j int) ([]Change, error) {
	if j == m.entryCursor {
		return nil, nil
	}
	g, ok := m.CurrentGroup()
	if !ok {
		return nil, fmt.Errorf("entry cursor %d with no groups: %w", j, ErrCursorOutOfRange)
	}
	if j < 0 || j >= g.MemberCount() {
		return nil, fmt.Errorf("entry cursor %d of %d entries: %w", j, g.MemberCount(), ErrCursorOutOfRange)
	}
	m.entryCursor = j
	return m.emit(nil, entrySwitch...), nil
}

// Exhausted reports whether no group is eligible for review.
func (m *Model) Exhausted() bool {
	_, ok := m.firstEligible()
	return !ok
}

func (m *Model) firstEligible() (int, bool) {
	for i, g := range m.groups {
		if g.Eligible() {
			return i, true
		}
	}
	return 0, false
}
