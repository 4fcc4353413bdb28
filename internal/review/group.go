package review

import "dupreview/internal/models"

// Entry is one asset's membership in a duplicate group.
type Entry struct {
	asset     models.Asset
	collapsed bool
	group     int
}

// NewEntry wraps an asset in a detached entry. It belongs to no group and is
// only useful as an argument to Model.Collapse, which matches it by value.
func NewEntry(asset models.Asset) *Entry {
	return &Entry{asset: asset, group: -1}
}

func (e *Entry) Asset() models.Asset { return e.asset }

func (e *Entry) Visible() bool { return !e.collapsed }

// GroupIndex is the index of the owning group, or -1 for a detached entry.
func (e *Entry) GroupIndex() int { return e.group }

// Group is an ordered, non-empty set of entries sharing a fingerprint.
// Entries are never removed; only their visibility changes.
type Group struct {
	entries []*Entry
}

func newGroup(index int, assets []models.Asset) *Group {
	g := &Group{entries: make([]*Entry, len(assets))}
	for i, a := range assets {
		g.entries[i] = &Entry{asset: a, group: index}
	}
	return g
}

// Entries returns the group's entries in order, collapsed ones included.
func (g *Group) Entries() []*Entry {
	out := make([]*Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

func (g *Group) Entry(i int) (*Entry, bool) {
	if i < 0 || i >= len(g.entries) {
		return nil, false
	}
	return g.entries[i], true
}

// DisplayName is the file name of the first entry.
func (g *Group) DisplayName() string {
	if len(g.entries) == 0 {
		return ""
	}
	return g.entries[0].asset.FileName
}

func (g *Group) Fingerprint() string {
	if len(g.entries) == 0 {
		return ""
	}
	return g.entries[0].asset.Fingerprint
}

// MemberCount counts every entry regardless of visibility.
func (g *Group) MemberCount() int { return len(g.entries) }

func (g *Group) VisibleCount() int {
	n := 0
	for _, e := range g.entries {
		if !e.collapsed {
			n++
		}
	}
	return n
}

// IsDisplayable reports whether at least one entry is still visible.
func (g *Group) IsDisplayable() bool {
	return g.firstVisible() >= 0
}

// Eligible reports whether the group still has something to compare:
// two or more visible entries.
func (g *Group) Eligible() bool {
	n := 0
	for _, e := range g.entries {
		if !e.collapsed {
			n++
			if n >= 2 {
				return true
			}
		}
	}
	return false
}

func (g *Group) firstVisible() int {
	for i, e := range g.entries {
		if !e.collapsed {
			return i
		}
	}
	return -1
}
