// Package shotlog holds the append-only shot journal and the board
// reconstructor. The journal is the single source of truth: the current
// board is always a pure function of the active events, so mutating the log
// and recomputing can never leave board and history out of sync.
package shotlog

import (
	"sort"

	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/rack"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
)

// Log is an in-memory shot journal for one match. Entries are never removed;
// Undone flips and snapshot rewrites are the only permitted mutations.
type Log struct {
	size   rack.Size
	events []shot.Event
}

// New creates an empty journal for a rack size.
func New(size rack.Size) *Log {
	return &Log{size: size}
}

// Size returns the rack size the journal reconstructs against.
func (l *Log) Size() rack.Size {
	return l.size
}

// Len returns the total number of events, undone included.
func (l *Log) Len() int {
	return len(l.events)
}

// Append adds events to the journal, assigning each the next 1-based Seq.
func (l *Log) Append(events ...shot.Event) []shot.Event {
	appended := make([]shot.Event, 0, len(events))
	for _, evt := range events {
		evt.Seq = len(l.events) + 1
		l.events = append(l.events, evt)
		appended = append(appended, evt)
	}
	return appended
}

// Events returns a copy of the full journal in append order.
func (l *Log) Events() []shot.Event {
	events := make([]shot.Event, len(l.events))
	copy(events, l.events)
	return events
}

// Load replaces the journal contents with stored events, preserving their
// sequence numbers. Used when rehydrating a match from storage.
func (l *Log) Load(events []shot.Event) {
	l.events = make([]shot.Event, len(events))
	copy(l.events, events)
	sort.SliceStable(l.events, func(i, j int) bool {
		return l.events[i].Seq < l.events[j].Seq
	})
}

// Reconstruct folds the journal into the current board: the snapshot carried
// by the most recent active event, ordered by (At, Seq), or the initial
// all-unsunk board when no active events exist.
func (l *Log) Reconstruct() board.Snapshot {
	last, ok := l.lastActive()
	if !ok {
		return board.Initial(l.size)
	}
	return last.Snapshot.Clone()
}

// LastActiveGroup returns the most recent active event expanded to every
// active event sharing its group id, or false when the journal has no active
// events. Group events keep append order.
func (l *Log) LastActiveGroup() (shot.Group, bool) {
	last, ok := l.lastActive()
	if !ok {
		return shot.Group{}, false
	}
	group := shot.Group{
		GroupID: last.GroupID,
		Kind:    last.Kind,
		Side:    last.Side,
		At:      last.At,
	}
	if last.GroupID == "" {
		group.Events = []shot.Event{last}
		return group, true
	}
	for _, evt := range l.events {
		if evt.GroupID == last.GroupID && !evt.Undone {
			group.Events = append(group.Events, evt)
		}
	}
	return group, true
}

// MarkUndone flips the soft-delete flag on the given events. Unknown ids are
// ignored. It returns the events that were flipped.
func (l *Log) MarkUndone(eventIDs []string) []shot.Event {
	flipped := make([]shot.Event, 0, len(eventIDs))
	for _, id := range eventIDs {
		for i := range l.events {
			if l.events[i].ID == id && !l.events[i].Undone {
				l.events[i].Undone = true
				flipped = append(flipped, l.events[i])
			}
		}
	}
	return flipped
}

// ReplaceSnapshot rewrites the snapshot and remaining counts carried by the
// given still-active events without touching their Undone flags. This is the
// redemption-restore and rerack primitive: history stays intact while the
// board the journal reconstructs to changes.
func (l *Log) ReplaceSnapshot(eventIDs []string, snapshot board.Snapshot, remainingA, remainingB int) []shot.Event {
	replaced := make([]shot.Event, 0, len(eventIDs))
	for _, id := range eventIDs {
		for i := range l.events {
			if l.events[i].ID != id || l.events[i].Undone {
				continue
			}
			l.events[i].Snapshot = snapshot.Clone()
			l.events[i].RemainingA = remainingA
			l.events[i].RemainingB = remainingB
			replaced = append(replaced, l.events[i])
		}
	}
	return replaced
}

func (l *Log) lastActive() (shot.Event, bool) {
	var last shot.Event
	found := false
	for _, evt := range l.events {
		if evt.Undone {
			continue
		}
		if !found || evt.At.After(last.At) || (evt.At.Equal(last.At) && evt.Seq > last.Seq) {
			last = evt
			found = true
		}
	}
	return last, found
}
