package match

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/sinkline/internal/platform/errors"
	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/rack"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
)

// ShotRequest is a pending selection to record.
type ShotRequest struct {
	// Side is the rack holding the target cup; its owner is the side losing
	// cups on this shot.
	Side         board.Side
	CupID        int
	PlayerHandle string
	PlayerID     string
	Kind         board.Kind
	// SecondCupID names the bounce companion cup, required iff Kind is
	// bounce. It sits on the same side as CupID.
	SecondCupID *int
}

// GroupResult is the outcome of one recorded action.
type GroupResult struct {
	Group      shot.Group
	Snapshot   board.Snapshot
	RemainingA int
	RemainingB int
	// RedemptionOpened is true when this shot emptied a rack; Loser names
	// the side that reached zero.
	RedemptionOpened bool
	Loser            board.Side
}

// RecordShot validates a selection, expands it into one or more linked
// events, appends them to the journal, forwards them to the recorder, and
// evaluates victory. Emptying a rack opens redemption for its owner, never
// an immediate terminal win.
func (e *Engine) RecordShot(ctx context.Context, req ShotRequest) (GroupResult, error) {
	switch e.phase {
	case PhaseComplete:
		return GroupResult{}, apperrors.New(apperrors.CodeMatchComplete, "match is complete")
	case PhaseRedemption:
		return GroupResult{}, apperrors.New(apperrors.CodeRedemptionPending,
			"redemption must be resolved before recording shots")
	}
	if !req.Side.Valid() {
		return GroupResult{}, apperrors.New(apperrors.CodeInvalidSide, "side must be A or B")
	}
	if !req.Kind.Valid() {
		return GroupResult{}, apperrors.New(apperrors.CodeIncompleteShot,
			fmt.Sprintf("shot kind %q is not supported", req.Kind))
	}

	current := e.journal.Reconstruct()
	target, found := current.Side(req.Side).Cup(req.CupID)
	if !found || target.Sunk {
		return GroupResult{}, apperrors.WithMetadata(apperrors.CodeInvalidSelection,
			fmt.Sprintf("cup %d is not standing on side %s", req.CupID, req.Side),
			map[string]string{"cup_id": fmt.Sprintf("%d", req.CupID)})
	}

	cupIDs, err := e.expandSelection(current, req)
	if err != nil {
		return GroupResult{}, err
	}

	at := e.now().UTC().Truncate(time.Millisecond)
	groupID := ""
	if req.Kind != board.KindRegular {
		groupID, err = e.newID()
		if err != nil {
			return GroupResult{}, fmt.Errorf("generate group id: %w", err)
		}
	}

	// Sink the whole selection into one post-shot snapshot; every event of
	// the group carries that same instant.
	next := current
	for _, cupID := range cupIDs {
		sunk, ok := next.Sink(req.Side, cupID, req.PlayerHandle, req.Kind, at)
		if !ok {
			return GroupResult{}, apperrors.New(apperrors.CodeInvalidSelection,
				fmt.Sprintf("cup %d is not standing on side %s", cupID, req.Side))
		}
		next = sunk
	}
	remainingA := next.Remaining(board.SideA)
	remainingB := next.Remaining(board.SideB)

	events := make([]shot.Event, 0, len(cupIDs))
	for _, cupID := range cupIDs {
		eventID, idErr := e.newID()
		if idErr != nil {
			return GroupResult{}, fmt.Errorf("generate event id: %w", idErr)
		}
		events = append(events, shot.Event{
			ID:           eventID,
			At:           at,
			Side:         req.Side,
			CupID:        cupID,
			PlayerHandle: req.PlayerHandle,
			PlayerID:     req.PlayerID,
			Kind:         req.Kind,
			GroupID:      groupID,
			RemainingA:   remainingA,
			RemainingB:   remainingB,
			Snapshot:     next.Clone(),
		})
	}
	appended := e.journal.Append(events...)
	for _, evt := range appended {
		e.forward(ctx, evt)
	}

	result := GroupResult{
		Group: shot.Group{
			GroupID: groupID,
			Kind:    req.Kind,
			Side:    req.Side,
			At:      at,
			Events:  appended,
		},
		Snapshot:   next,
		RemainingA: remainingA,
		RemainingB: remainingB,
	}
	if next.Remaining(req.Side) == 0 {
		e.phase = PhaseRedemption
		e.loser = req.Side
		result.RedemptionOpened = true
		result.Loser = req.Side
		if e.onVictory != nil {
			e.onVictory(req.Side)
		}
	}
	return result, nil
}

// expandSelection resolves the full cup list an action sinks: the target
// alone for regular, target plus companion for bounce, target plus every
// standing neighbor for grenade.
func (e *Engine) expandSelection(current board.Snapshot, req ShotRequest) ([]int, error) {
	switch req.Kind {
	case board.KindRegular:
		return []int{req.CupID}, nil
	case board.KindBounce:
		if req.SecondCupID == nil {
			return nil, apperrors.New(apperrors.CodeIncompleteShot, "bounce needs a second cup")
		}
		second := *req.SecondCupID
		if second == req.CupID {
			return nil, apperrors.New(apperrors.CodeInvalidSelection, "bounce cups must differ")
		}
		companion, found := current.Side(req.Side).Cup(second)
		if !found || companion.Sunk {
			return nil, apperrors.WithMetadata(apperrors.CodeInvalidSelection,
				fmt.Sprintf("cup %d is not standing on side %s", second, req.Side),
				map[string]string{"cup_id": fmt.Sprintf("%d", second)})
		}
		return []int{req.CupID, second}, nil
	case board.KindGrenade:
		cupIDs := []int{req.CupID}
		for _, neighbor := range rack.Touching(req.CupID, e.size) {
			cup, found := current.Side(req.Side).Cup(neighbor)
			if found && !cup.Sunk {
				cupIDs = append(cupIDs, neighbor)
			}
		}
		return cupIDs, nil
	default:
		return nil, apperrors.New(apperrors.CodeIncompleteShot,
			fmt.Sprintf("shot kind %q is not supported", req.Kind))
	}
}
