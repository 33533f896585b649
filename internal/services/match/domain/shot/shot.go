// Package shot defines the shot event, the single record type in the match
// journal. Events are immutable business facts: once appended, only the
// Undone soft-delete flag may flip, and redemption or rerack may rewrite the
// snapshot they carry. Nothing is ever physically removed.
package shot

import (
	"time"

	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
)

// Event records one cup sunk by one player action. A composite action
// (bounce, grenade) emits several events sharing a GroupID and timestamp.
type Event struct {
	// ID is the opaque event identifier.
	ID string
	// Seq is the 1-based append order inside one match, the stable ordering
	// tiebreak for events sharing a timestamp.
	Seq int
	// At is the action instant, millisecond precision. Every event of a
	// group carries the same At.
	At time.Time
	// Side is the rack the sunk cup belongs to.
	Side board.Side
	// CupID is the sunk cup's id at the moment of the shot. A rerack may
	// later reuse the id for a different physical cup, so analytics key on
	// (ID, At) rather than CupID.
	CupID int
	// PlayerHandle is the shooter's display handle.
	PlayerHandle string
	// PlayerID optionally links the shooter to an external identity.
	PlayerID string
	// Kind tags the action; GroupID is empty exactly when Kind is regular.
	Kind    board.Kind
	GroupID string
	// Undone is the sole soft-delete mechanism.
	Undone bool
	// RemainingA and RemainingB are the post-shot unsunk counts, identical
	// across every event of a group.
	RemainingA int
	RemainingB int
	// Snapshot is the full post-shot board, identical across the group.
	Snapshot board.Snapshot
}

// IsBounce reports whether the event belongs to a bounce group.
func (e Event) IsBounce() bool {
	return e.Kind == board.KindBounce
}

// IsGrenade reports whether the event belongs to a grenade group.
func (e Event) IsGrenade() bool {
	return e.Kind == board.KindGrenade
}

// Grouped reports whether the event is part of a multi-event group.
func (e Event) Grouped() bool {
	return e.GroupID != ""
}

// Group is one atomic player action: a single regular event, the two events
// of a bounce, or the 1+K events of a grenade. Events keep append order, so
// the first entry is always the directly-targeted cup.
type Group struct {
	GroupID string
	Kind    board.Kind
	Side    board.Side
	At      time.Time
	Events  []Event
}

// CupIDs returns the cup ids sunk by the group in append order.
func (g Group) CupIDs() []int {
	ids := make([]int, len(g.Events))
	for i, evt := range g.Events {
		ids[i] = evt.CupID
	}
	return ids
}

// EventIDs returns the group's event ids in append order.
func (g Group) EventIDs() []string {
	ids := make([]string, len(g.Events))
	for i, evt := range g.Events {
		ids[i] = evt.ID
	}
	return ids
}

// TargetCupID returns the directly-targeted cup: the triggering cup of a
// bounce or the center of a grenade. Redemption restores exactly this cup.
func (g Group) TargetCupID() int {
	if len(g.Events) == 0 {
		return -1
	}
	return g.Events[0].CupID
}
