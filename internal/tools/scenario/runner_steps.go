package scenario

import (
	"context"
	"fmt"

	"github.com/louisbranch/sinkline/internal/services/match/app"
	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/match"
)

// scenarioState carries identifiers across steps of one run.
type scenarioState struct {
	matchID string
}

func (r *Runner) runStep(ctx context.Context, state *scenarioState, step Step) error {
	switch step.Kind {
	case "match":
		return r.runMatchStep(ctx, state, step)
	case "shot":
		return r.runShotStep(ctx, state, step, board.KindRegular)
	case "bounce":
		return r.runShotStep(ctx, state, step, board.KindBounce)
	case "grenade":
		return r.runShotStep(ctx, state, step, board.KindGrenade)
	case "undo":
		return r.runUndoStep(ctx, state)
	case "play_on":
		return r.runPlayOnStep(ctx, state)
	case "redemption_win":
		return r.runRedemptionWinStep(ctx, state)
	case "surrender":
		return r.runSurrenderStep(ctx, state, step)
	case "rerack":
		return r.runRerackStep(ctx, state, step)
	case "expect_remaining":
		return r.runExpectRemainingStep(ctx, state, step)
	case "expect_phase":
		return r.runExpectPhaseStep(ctx, state, step)
	case "expect_undo":
		return r.runExpectUndoStep(ctx, state, step)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runMatchStep(ctx context.Context, state *scenarioState, step Step) error {
	info, err := r.service.CreateMatch(ctx, app.CreateMatchRequest{
		GameType:     optionalString(step.Args, "game_type", "standard"),
		CupCount:     optionalInt(step.Args, "cups", 6),
		SideAPlayers: stringSlice(step.Args, "side_a"),
		SideBPlayers: stringSlice(step.Args, "side_b"),
	})
	if err != nil {
		return err
	}
	state.matchID = info.MatchID
	return nil
}

func (r *Runner) runShotStep(ctx context.Context, state *scenarioState, step Step, kind board.Kind) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	side, err := parseSide(requiredString(step.Args, "side"))
	if err != nil {
		return err
	}
	req := match.ShotRequest{
		Side:         side,
		CupID:        optionalInt(step.Args, "cup", 0),
		PlayerHandle: optionalString(step.Args, "player", ""),
		Kind:         kind,
	}
	if kind == board.KindBounce {
		second := optionalInt(step.Args, "second", 0)
		req.SecondCupID = &second
	}
	_, err = r.service.RecordShot(ctx, state.matchID, req)
	return err
}

func (r *Runner) runUndoStep(ctx context.Context, state *scenarioState) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	_, err := r.service.Undo(ctx, state.matchID)
	return err
}

func (r *Runner) runPlayOnStep(ctx context.Context, state *scenarioState) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	_, err := r.service.RedemptionPlayOn(ctx, state.matchID)
	return err
}

func (r *Runner) runRedemptionWinStep(ctx context.Context, state *scenarioState) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	_, err := r.service.RedemptionWin(ctx, state.matchID)
	return err
}

func (r *Runner) runSurrenderStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	side, err := parseSide(requiredString(step.Args, "side"))
	if err != nil {
		return err
	}
	_, err = r.service.Surrender(ctx, state.matchID, side)
	return err
}

func (r *Runner) runRerackStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	side, err := parseSide(requiredString(step.Args, "side"))
	if err != nil {
		return err
	}
	_, err = r.service.Rerack(ctx, state.matchID, side, intSlice(step.Args, "slots"))
	return err
}

func (r *Runner) runExpectRemainingStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	snapshot, err := r.service.Board(ctx, state.matchID)
	if err != nil {
		return err
	}
	if want, ok := readInt(step.Args, "a"); ok {
		if got := snapshot.Remaining(board.SideA); got != want {
			if err := r.assertf("remaining A = %d, want %d", got, want); err != nil {
				return err
			}
		}
	}
	if want, ok := readInt(step.Args, "b"); ok {
		if got := snapshot.Remaining(board.SideB); got != want {
			if err := r.assertf("remaining B = %d, want %d", got, want); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) runExpectPhaseStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	info, err := r.service.GetMatch(ctx, state.matchID)
	if err != nil {
		return err
	}
	want := requiredString(step.Args, "phase")
	if info.Phase != want {
		return r.assertf("phase = %q, want %q", info.Phase, want)
	}
	return nil
}

func (r *Runner) runExpectUndoStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureMatch(state); err != nil {
		return err
	}
	_, available, err := r.service.LastActiveGroup(ctx, state.matchID)
	if err != nil {
		return err
	}
	want := optionalBool(step.Args, "available", true)
	if available != want {
		return r.assertf("undo available = %v, want %v", available, want)
	}
	return nil
}

func (r *Runner) ensureMatch(state *scenarioState) error {
	if state.matchID == "" {
		return fmt.Errorf("no match started; add a match step first")
	}
	return nil
}
