package review

import (
	"fmt"
	"slices"
)

// Property names one observable value of the Model.
type Property int

const (
	PropGroups Property = iota
	PropGroupCursor
	PropCurrentGroup
	PropEntryCursor
	PropCurrentEntry
)

func (p Property) String() string {
	switch p {
	case PropGroups:
		return "Groups"
	case PropGroupCursor:
		return "GroupCursor"
	case PropCurrentGroup:
		return "CurrentGroup"
	case PropEntryCursor:
		return "EntryCursor"
	case PropCurrentEntry:
		return "CurrentEntry"
	default:
		return fmt.Sprintf("Property(%d)", int(p))
	}
}

// Change is one notification. The cursor fields hold the cursor as it was
// when the notification was emitted.
type Change struct {
	Property    Property
	GroupCursor int
	EntryCursor int
}

func (c Change) String() string {
	return fmt.Sprintf("%s(%d,%d)", c.Property, c.GroupCursor, c.EntryCursor)
}

const (
	CompletionMessage = "There are no more duplicates to review."
	CompletionCaption = "Review complete"
)

// Completion is raised whenever a Collapse call leaves no eligible group.
type Completion struct {
	Message string
	Caption string
}

func newCompletion() *Completion {
	return &Completion{Message: CompletionMessage, Caption: CompletionCaption}
}

// Observer receives notifications synchronously, after the mutation they
// describe has been applied.
type Observer interface {
	Changed(Change)
	Completed(Completion)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnChange   func(Change)
	OnComplete func(Completion)
}

func (o ObserverFuncs) Changed(c Change) {
	if o.OnChange != nil {
		o.OnChange(c)
	}
}

func (o ObserverFuncs) Completed(c Completion) {
	if o.OnComplete != nil {
		o.OnComplete(c)
	}
}

// Properties extracts the property sequence from a list of changes.
func Properties(changes []Change) []Property {
	props := make([]Property, len(changes))
	for i, c := range changes {
		props[i] = c.Property
	}
	return props
}

var (
	groupSwitch = []Property{PropGroupCursor, PropCurrentGroup, PropEntryCursor, PropCurrentEntry}
	entrySwitch = []Property{PropEntryCursor, PropCurrentEntry}
	fullReset   = []Property{PropGroups, PropGroupCursor, PropCurrentGroup, PropEntryCursor, PropCurrentEntry}
)

func (m *Model) emit(out []Change, props ...Property) []Change {
	for _, p := range props {
		c := Change{Property: p, GroupCursor: m.groupCursor, EntryCursor: m.entryCursor}
		out = append(out, c)
		m.history = append(m.history, c)
		for _, o := range m.observers {
			o.obs.Changed(c)
		}
	}
	return out
}

func (m *Model) complete() *Completion {
	c := newCompletion()
	for _, o := range m.observers {
		o.obs.Completed(*c)
	}
	return c
}

type observerSlot struct {
	obs Observer
}

// Observe registers o and returns a function that unregisters it. Cancelling
// from inside a notification takes effect from the next emission.
func (m *Model) Observe(o Observer) (cancel func()) {
	slot := &observerSlot{obs: o}
	m.observers = append(m.observers, slot)
	return func() {
		// copy, so a range over the old slice in emit is not disturbed
		m.observers = slices.DeleteFunc(slices.Clone(m.observers), func(s *observerSlot) bool {
			return s == slot
		})
	}
}

// History returns every change emitted since the model was created or since
// the last ResetHistory.
func (m *Model) History() []Change {
	out := make([]Change, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Model) ResetHistory() {
	m.history = nil
}
