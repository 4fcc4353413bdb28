package review

import (
	"log/slog"

	"dupreview/internal/models"
)

// Result describes what a Collapse call did.
type Result struct {
	Changes []Change
	// Collapsed counts the supplied entries that matched a visible entry.
	Collapsed int
	// Completion is set when no group was left eligible after the call.
	Completion *Completion
}

// Collapse removes entries from review. Each supplied entry is matched by the
// value of its asset against the visible entries of every group, so detached
// entries built with NewEntry work as well as the model's own. Unmatched
// entries are ignored.
//
// When the collapsed entry is the one under the cursor, the cursor moves to
// the first visible entry of its group if that group is still eligible,
// otherwise to the first eligible group. With no eligible group left the
// cursor stays where it is.
func (m *Model) Collapse(entries ...*Entry) Result {
	var res Result
	for _, e := range entries {
		if e == nil {
			continue
		}
		res.Changes = m.collapseOne(e.asset, res.Changes, &res.Collapsed)
	}
	return m.finish(res)
}

// CollapseAssets is Collapse for callers holding bare asset values.
func (m *Model) CollapseAssets(assets ...models.Asset) Result {
	var res Result
	for _, a := range assets {
		res.Changes = m.collapseOne(a, res.Changes, &res.Collapsed)
	}
	return m.finish(res)
}

func (m *Model) finish(res Result) Result {
	if m.Exhausted() {
		slog.Info("No duplicate groups left to review", slog.Int("groups", len(m.groups)))
		res.Completion = m.complete()
	}
	return res
}

func (m *Model) collapseOne(asset models.Asset, out []Change, collapsed *int) []Change {
	gi, ei, ok := m.locate(asset)
	if !ok {
		slog.Debug("Collapse target not under review", slog.String("path", asset.Path))
		return out
	}
	m.groups[gi].entries[ei].collapsed = true
	*collapsed++

	if gi != m.groupCursor || ei != m.entryCursor {
		return out
	}
	return m.advance(gi, out)
}

func (m *Model) locate(asset models.Asset) (int, int, bool) {
	want := asset.Identity()
	for gi, g := range m.groups {
		for ei, e := range g.entries {
			if !e.collapsed && e.asset.Identity() == want {
				return gi, ei, true
			}
		}
	}
	return 0, 0, false
}

// advance repositions the cursor after the entry under it in group gi was
// collapsed.
func (m *Model) advance(gi int, out []Change) []Change {
	if g := m.groups[gi]; g.Eligible() {
		next := g.firstVisible()
		if next == m.entryCursor {
			return out
		}
		m.entryCursor = next
		slog.Debug("Cursor advanced within group", slog.Int("group", gi), slog.Int("entry", next))
		return m.emit(out, entrySwitch...)
	}

	ng, ok := m.firstEligible()
	if !ok {
		return out
	}
	m.groupCursor = ng
	m.entryCursor = m.groups[ng].firstVisible()
	slog.Debug("Cursor moved to next eligible group", slog.Int("group", ng), slog.Int("entry", m.entryCursor))
	return m.emit(out, groupSwitch...)
}
