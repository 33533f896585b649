// Package board models the two-sided cup board. A board is never stored on
// its own: it is always the snapshot carried by the most recent active shot
// event, or the all-unsunk initial layout when no active events exist. Every
// mutation here returns a fresh value so snapshots attached to historical
// events stay untouched.
package board

import (
	"time"

	"github.com/louisbranch/sinkline/internal/services/match/domain/rack"
)

// Side identifies one of the two racks.
type Side string

const (
	// SideA is the first roster's rack.
	SideA Side = "A"
	// SideB is the second roster's rack.
	SideB Side = "B"
)

// Valid reports whether s names one of the two racks.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Opponent returns the other rack.
func (s Side) Opponent() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Kind records how a cup was sunk.
type Kind string

const (
	// KindRegular is a single-cup shot.
	KindRegular Kind = "regular"
	// KindBounce is a two-cup shot on one side, recorded as one group.
	KindBounce Kind = "bounce"
	// KindGrenade sinks a target cup plus every unsunk cup touching it.
	KindGrenade Kind = "grenade"
)

// Valid reports whether k is a known shot kind.
func (k Kind) Valid() bool {
	return k == KindRegular || k == KindBounce || k == KindGrenade
}

// Cup is one slot in a rack. ID doubles as the slot index into the pyramid
// layout until a rerack reassigns it.
type Cup struct {
	ID       int           `json:"id"`
	Sunk     bool          `json:"sunk"`
	SunkAt   time.Time     `json:"sunk_at,omitzero"`
	SunkBy   string        `json:"sunk_by,omitempty"`
	ShotKind Kind          `json:"shot_kind,omitempty"`
	Position rack.Position `json:"position"`
}

// Board is one side's rack.
type Board []Cup

// Snapshot is the full two-sided board state carried by every shot event.
type Snapshot struct {
	SideA Board `json:"side_a"`
	SideB Board `json:"side_b"`
}

// Initial returns the all-unsunk starting snapshot for a rack size. Cup ids
// are the layout slot ids 0..size-1 on both sides.
func Initial(size rack.Size) Snapshot {
	return Snapshot{
		SideA: initialBoard(size),
		SideB: initialBoard(size),
	}
}

func initialBoard(size rack.Size) Board {
	layout := rack.Layout(size)
	cups := make(Board, len(layout))
	for id, pos := range layout {
		cups[id] = Cup{ID: id, Position: pos}
	}
	return cups
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		SideA: s.SideA.clone(),
		SideB: s.SideB.clone(),
	}
}

func (b Board) clone() Board {
	cups := make(Board, len(b))
	copy(cups, b)
	return cups
}

// Side returns the board for one rack. An invalid side returns nil.
func (s Snapshot) Side(side Side) Board {
	switch side {
	case SideA:
		return s.SideA
	case SideB:
		return s.SideB
	default:
		return nil
	}
}

// WithSide returns a copy of the snapshot with one side replaced.
func (s Snapshot) WithSide(side Side, board Board) Snapshot {
	next := s.Clone()
	switch side {
	case SideA:
		next.SideA = board.clone()
	case SideB:
		next.SideB = board.clone()
	}
	return next
}

// Remaining counts the unsunk cups on one side.
func (s Snapshot) Remaining(side Side) int {
	remaining := 0
	for _, cup := range s.Side(side) {
		if !cup.Sunk {
			remaining++
		}
	}
	return remaining
}

// Cup looks up a cup by id on one side.
func (b Board) Cup(cupID int) (Cup, bool) {
	for _, cup := range b {
		if cup.ID == cupID {
			return cup, true
		}
	}
	return Cup{}, false
}

// Sink returns a copy of the snapshot with the given cup marked sunk. The
// second return is false when the cup is absent or already sunk, in which
// case the original snapshot is returned unchanged.
func (s Snapshot) Sink(side Side, cupID int, sunkBy string, kind Kind, at time.Time) (Snapshot, bool) {
	cups := s.Side(side)
	index := -1
	for i, cup := range cups {
		if cup.ID == cupID {
			index = i
			break
		}
	}
	if index < 0 || cups[index].Sunk {
		return s, false
	}
	next := s.Clone()
	cup := &next.Side(side)[index]
	cup.Sunk = true
	cup.SunkAt = at
	cup.SunkBy = sunkBy
	cup.ShotKind = kind
	return next, true
}

// Restore returns a copy of the snapshot with the given cups on one side
// flipped back to unsunk. Unknown ids are ignored. This is the redemption
// restore primitive: it edits board state without touching event history.
func (s Snapshot) Restore(side Side, cupIDs []int) Snapshot {
	next := s.Clone()
	cups := next.Side(side)
	for _, cupID := range cupIDs {
		for i := range cups {
			if cups[i].ID == cupID {
				cups[i].Sunk = false
				cups[i].SunkAt = time.Time{}
				cups[i].SunkBy = ""
				cups[i].ShotKind = ""
			}
		}
	}
	return next
}
