package match

import (
	"context"
	"fmt"
	"log"
	"sort"

	apperrors "github.com/louisbranch/sinkline/internal/platform/errors"
	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/rack"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
)

// UndoResult is the outcome of rolling back the last action.
type UndoResult struct {
	Group      shot.Group
	Snapshot   board.Snapshot
	RemainingA int
	RemainingB int
	// RedemptionClosed is true when undoing reopened the emptied rack and
	// play resumed.
	RedemptionClosed bool
}

// Undo flips the soft-delete flag on every event of the most recent active
// group. The reconstructor then excludes the group entirely: a full rollback,
// in contrast with the partial redemption restore.
func (e *Engine) Undo(ctx context.Context) (UndoResult, error) {
	if e.phase == PhaseComplete {
		return UndoResult{}, apperrors.New(apperrors.CodeMatchComplete, "match is complete")
	}
	group, ok := e.journal.LastActiveGroup()
	if !ok {
		return UndoResult{}, apperrors.New(apperrors.CodeNothingToUndo, "journal has no active events")
	}
	e.journal.MarkUndone(group.EventIDs())
	if e.recorder != nil {
		for _, eventID := range group.EventIDs() {
			if err := e.recorder.MarkEventUndone(ctx, eventID); err != nil {
				log.Printf("match: mark event %s undone: %v", eventID, err)
			}
		}
	}

	snapshot := e.journal.Reconstruct()
	result := UndoResult{
		Group:      group,
		Snapshot:   snapshot,
		RemainingA: snapshot.Remaining(board.SideA),
		RemainingB: snapshot.Remaining(board.SideB),
	}
	if e.phase == PhaseRedemption && snapshot.Remaining(e.loser) > 0 {
		e.phase = PhasePlaying
		e.loser = ""
		result.RedemptionClosed = true
	}
	return result, nil
}

// RestoreResult is the outcome of a board edit that bypasses the undo flag:
// redemption play-on or a rerack. The named events now carry Snapshot.
type RestoreResult struct {
	EventIDs   []string
	CupIDs     []int
	Snapshot   board.Snapshot
	RemainingA int
	RemainingB int
}

// RedemptionPlayOn resolves a successful redemption attempt. Only the
// directly-targeted cup of the group that emptied the rack reopens: a bounce
// companion and grenade collateral stay sunk. The events' Undone flags stay
// false, so history records that the shots counted even though the rack
// continues. This asymmetry with Undo is a game rule, not a rollback.
func (e *Engine) RedemptionPlayOn() (RestoreResult, error) {
	if e.phase != PhaseRedemption {
		return RestoreResult{}, apperrors.New(apperrors.CodeNotRedemption, "match is not in redemption")
	}
	group, ok := e.journal.LastActiveGroup()
	if !ok {
		return RestoreResult{}, apperrors.New(apperrors.CodeNothingToUndo, "journal has no active events")
	}

	cupIDs := []int{group.TargetCupID()}
	restored := e.journal.Reconstruct().Restore(e.loser, cupIDs)
	remainingA := restored.Remaining(board.SideA)
	remainingB := restored.Remaining(board.SideB)
	e.journal.ReplaceSnapshot(group.EventIDs(), restored, remainingA, remainingB)
	e.phase = PhasePlaying
	e.loser = ""

	return RestoreResult{
		EventIDs:   group.EventIDs(),
		CupIDs:     cupIDs,
		Snapshot:   restored,
		RemainingA: remainingA,
		RemainingB: remainingB,
	}, nil
}

// Completion is a finalized match outcome.
type Completion struct {
	Winner board.Side
	ScoreA int
	ScoreB int
}

// RedemptionWin finalizes the match for the side holding the opponent at
// zero. A side's score is the number of opposing cups it sank.
func (e *Engine) RedemptionWin(ctx context.Context) (Completion, error) {
	if e.phase != PhaseRedemption {
		return Completion{}, apperrors.New(apperrors.CodeNotRedemption, "match is not in redemption")
	}
	snapshot := e.journal.Reconstruct()
	return e.complete(ctx, e.loser.Opponent(),
		int(e.size)-snapshot.Remaining(board.SideB),
		int(e.size)-snapshot.Remaining(board.SideA)), nil
}

// Surrender ends the match immediately, bypassing redemption. The winner is
// credited with the surrendering side's whole rack; the surrendering side
// keeps the score it actually earned. Historical events are not edited.
func (e *Engine) Surrender(ctx context.Context, side board.Side) (Completion, error) {
	if e.phase == PhaseComplete {
		return Completion{}, apperrors.New(apperrors.CodeMatchComplete, "match is complete")
	}
	if !side.Valid() {
		return Completion{}, apperrors.New(apperrors.CodeInvalidSide, "side must be A or B")
	}
	snapshot := e.journal.Reconstruct()
	winner := side.Opponent()
	earned := int(e.size) - snapshot.Remaining(winner)
	scoreA, scoreB := int(e.size), earned
	if winner == board.SideB {
		scoreA, scoreB = earned, int(e.size)
	}
	return e.complete(ctx, winner, scoreA, scoreB), nil
}

func (e *Engine) complete(ctx context.Context, winner board.Side, scoreA, scoreB int) Completion {
	e.phase = PhaseComplete
	e.winner = winner
	e.loser = winner.Opponent()
	e.scoreA = scoreA
	e.scoreB = scoreB
	if e.recorder != nil && e.matchID != "" {
		if err := e.recorder.CompleteMatch(ctx, e.matchID, winner, scoreA, scoreB); err != nil {
			log.Printf("match: complete match %s: %v", e.matchID, err)
		}
	}
	return Completion{Winner: winner, ScoreA: scoreA, ScoreB: scoreB}
}

// Rerack reassigns one side's standing cups onto fresh pyramid slots without
// rewriting any prior event. Freed slots go to the already-sunk cups so every
// layout slot stays occupied exactly once; a historical event's cup id may
// therefore refer to a different physical cup afterwards, which is accepted.
func (e *Engine) Rerack(side board.Side, targetSlots []int) (RestoreResult, error) {
	if e.phase == PhaseComplete {
		return RestoreResult{}, apperrors.New(apperrors.CodeMatchComplete, "match is complete")
	}
	if !side.Valid() {
		return RestoreResult{}, apperrors.New(apperrors.CodeInvalidSide, "side must be A or B")
	}

	snapshot := e.journal.Reconstruct()
	standing := snapshot.Remaining(side)
	if standing == 0 || standing == int(e.size) {
		return RestoreResult{}, apperrors.New(apperrors.CodeRerackNotNeeded,
			fmt.Sprintf("side %s has %d standing cups, nothing to rerack", side, standing))
	}

	slots, err := e.rerackSlots(standing, targetSlots)
	if err != nil {
		return RestoreResult{}, err
	}

	var unsunk, sunk []board.Cup
	for _, cup := range snapshot.Side(side) {
		if cup.Sunk {
			sunk = append(sunk, cup)
		} else {
			unsunk = append(unsunk, cup)
		}
	}

	taken := make(map[int]bool, len(slots))
	for _, slot := range slots {
		taken[slot] = true
	}
	var freed []int
	for slot := 0; slot < int(e.size); slot++ {
		if !taken[slot] {
			freed = append(freed, slot)
		}
	}

	layout := rack.Layout(e.size)
	next := make(board.Board, 0, int(e.size))
	for i, cup := range unsunk {
		cup.ID = slots[i]
		cup.Position = layout[slots[i]]
		next = append(next, cup)
	}
	for i, cup := range sunk {
		cup.ID = freed[i]
		cup.Position = layout[freed[i]]
		next = append(next, cup)
	}
	sort.Slice(next, func(i, j int) bool { return next[i].ID < next[j].ID })

	reracked := snapshot.WithSide(side, next)
	remainingA := reracked.Remaining(board.SideA)
	remainingB := reracked.Remaining(board.SideB)

	// Standing < size guarantees at least one active event to carry the
	// rewritten snapshot.
	group, ok := e.journal.LastActiveGroup()
	if !ok {
		return RestoreResult{}, apperrors.New(apperrors.CodeRerackNotNeeded, "journal has no active events")
	}
	e.journal.ReplaceSnapshot(group.EventIDs(), reracked, remainingA, remainingB)

	return RestoreResult{
		EventIDs:   group.EventIDs(),
		Snapshot:   reracked,
		RemainingA: remainingA,
		RemainingB: remainingB,
	}, nil
}

// rerackSlots validates caller-chosen slots or falls back to front-packing
// the first standing slots in layout order.
func (e *Engine) rerackSlots(standing int, targetSlots []int) ([]int, error) {
	if len(targetSlots) == 0 {
		slots := make([]int, standing)
		for i := range slots {
			slots[i] = i
		}
		return slots, nil
	}
	if len(targetSlots) != standing {
		return nil, apperrors.WithMetadata(apperrors.CodeRerackSlotMismatch,
			fmt.Sprintf("rerack needs %d slots, got %d", standing, len(targetSlots)),
			map[string]string{
				"want": fmt.Sprintf("%d", standing),
				"got":  fmt.Sprintf("%d", len(targetSlots)),
			})
	}
	seen := make(map[int]bool, len(targetSlots))
	for _, slot := range targetSlots {
		if slot < 0 || slot >= int(e.size) {
			return nil, apperrors.New(apperrors.CodeRerackSlotMismatch,
				fmt.Sprintf("slot %d is outside the %d-cup layout", slot, e.size))
		}
		if seen[slot] {
			return nil, apperrors.New(apperrors.CodeRerackSlotMismatch,
				fmt.Sprintf("slot %d appears twice", slot))
		}
		seen[slot] = true
	}
	return append([]int(nil), targetSlots...), nil
}
