package match

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/louisbranch/sinkline/internal/platform/errors"
	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/rack"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
)

type fakeRecorder struct {
	saved     []shot.Event
	savedTo   []string
	undone    []string
	completed []Completion
	saveErr   error
}

func (r *fakeRecorder) CreateMatch(ctx context.Context, gameType string, cupCount rack.Size, sideAPlayers, sideBPlayers []string) (string, error) {
	return "match-1", nil
}

func (r *fakeRecorder) SaveShotEvent(ctx context.Context, matchID string, evt shot.Event) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, evt)
	r.savedTo = append(r.savedTo, matchID)
	return nil
}

func (r *fakeRecorder) MarkEventUndone(ctx context.Context, eventID string) error {
	r.undone = append(r.undone, eventID)
	return nil
}

func (r *fakeRecorder) CompleteMatch(ctx context.Context, matchID string, winner board.Side, scoreA, scoreB int) error {
	r.completed = append(r.completed, Completion{Winner: winner, ScoreA: scoreA, ScoreB: scoreB})
	return nil
}

func testEngine(t *testing.T, size rack.Size, opts ...Option) *Engine {
	t.Helper()
	stamp := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	tick := 0
	idSeq := 0
	base := []Option{
		WithClock(func() time.Time {
			tick++
			return stamp.Add(time.Duration(tick) * time.Second)
		}),
		WithIDFunc(func() (string, error) {
			idSeq++
			return fmt.Sprintf("id-%d", idSeq), nil
		}),
		WithMatchID("match-1"),
	}
	engine, err := New("standard", size, []string{"Ana"}, []string{"Jo"}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func regular(t *testing.T, e *Engine, side board.Side, cupID int) GroupResult {
	t.Helper()
	result, err := e.RecordShot(context.Background(), ShotRequest{
		Side: side, CupID: cupID, PlayerHandle: "Jo", Kind: board.KindRegular,
	})
	if err != nil {
		t.Fatalf("record regular shot on cup %d: %v", cupID, err)
	}
	return result
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("standard", rack.Size(7), []string{"Ana"}, []string{"Jo"}); !apperrors.IsCode(err, apperrors.CodeMatchInvalidCupCount) {
		t.Fatalf("err = %v, want MATCH_INVALID_CUP_COUNT", err)
	}
	if _, err := New("standard", rack.SizeSix, nil, []string{"Jo"}); !apperrors.IsCode(err, apperrors.CodeMatchEmptyRoster) {
		t.Fatalf("err = %v, want MATCH_EMPTY_ROSTER", err)
	}
}

func TestRegularShotSinksCup(t *testing.T) {
	recorder := &fakeRecorder{}
	engine := testEngine(t, rack.SizeSix, WithRecorder(recorder))

	result := regular(t, engine, board.SideB, 5)
	if len(result.Group.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(result.Group.Events))
	}
	evt := result.Group.Events[0]
	if evt.GroupID != "" || evt.Kind != board.KindRegular {
		t.Fatalf("event = %+v, want ungrouped regular", evt)
	}
	if result.RemainingB != 5 || result.RemainingA != 6 {
		t.Fatalf("remaining = %d/%d, want 6/5", result.RemainingA, result.RemainingB)
	}
	if got := engine.Board(); got.Remaining(board.SideB) != 5 {
		t.Fatal("reconstructed board diverges from the recorded result")
	}
	if len(recorder.saved) != 1 || recorder.savedTo[0] != "match-1" {
		t.Fatalf("recorder saw %d events", len(recorder.saved))
	}
}

func TestShotRejectsSunkCupAndBadSide(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	regular(t, engine, board.SideB, 0)

	if _, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideB, CupID: 0, PlayerHandle: "Jo", Kind: board.KindRegular,
	}); !apperrors.IsCode(err, apperrors.CodeInvalidSelection) {
		t.Fatalf("err = %v, want INVALID_SELECTION", err)
	}
	if _, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.Side("C"), CupID: 1, PlayerHandle: "Jo", Kind: board.KindRegular,
	}); !apperrors.IsCode(err, apperrors.CodeInvalidSide) {
		t.Fatalf("err = %v, want INVALID_SIDE", err)
	}
	if engine.Remaining(board.SideB) != 5 {
		t.Fatal("rejected shots changed state")
	}
}

func TestBounceRecordsTwoLinkedEvents(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	second := 3
	result, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideB, CupID: 1, PlayerHandle: "Jo", Kind: board.KindBounce, SecondCupID: &second,
	})
	if err != nil {
		t.Fatalf("record bounce: %v", err)
	}
	events := result.Group.Events
	if len(events) != 2 {
		t.Fatalf("bounce events = %d, want 2", len(events))
	}
	if events[0].GroupID == "" || events[0].GroupID != events[1].GroupID {
		t.Fatalf("group ids = %q/%q, want one shared id", events[0].GroupID, events[1].GroupID)
	}
	if !events[0].At.Equal(events[1].At) {
		t.Fatal("bounce events carry different timestamps")
	}
	if !events[0].IsBounce() || !events[1].IsBounce() {
		t.Fatal("bounce events not flagged")
	}
	if events[0].RemainingB != 4 || events[1].RemainingB != 4 {
		t.Fatal("group events carry different remaining counts")
	}
	if events[0].CupID != 1 {
		t.Fatalf("first event cup = %d, want the triggering cup 1", events[0].CupID)
	}
}

func TestBounceRequiresStandingCompanion(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	regular(t, engine, board.SideB, 3)

	if _, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideB, CupID: 1, PlayerHandle: "Jo", Kind: board.KindBounce,
	}); !apperrors.IsCode(err, apperrors.CodeIncompleteShot) {
		t.Fatalf("err = %v, want INCOMPLETE_SHOT", err)
	}
	sunk := 3
	if _, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideB, CupID: 1, PlayerHandle: "Jo", Kind: board.KindBounce, SecondCupID: &sunk,
	}); !apperrors.IsCode(err, apperrors.CodeInvalidSelection) {
		t.Fatalf("err = %v, want INVALID_SELECTION for a sunk companion", err)
	}
	if engine.Remaining(board.SideB) != 5 {
		t.Fatal("rejected bounce changed state")
	}
}

func TestGrenadeSinksStandingNeighbors(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	// Cup 1's neighbors in a six-cup rack are 0, 2, 3, 4. Sink 0 first so
	// only three are standing when the grenade lands.
	regular(t, engine, board.SideB, 0)

	result, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideB, CupID: 1, PlayerHandle: "Jo", Kind: board.KindGrenade,
	})
	if err != nil {
		t.Fatalf("record grenade: %v", err)
	}
	events := result.Group.Events
	if len(events) != 4 {
		t.Fatalf("grenade events = %d, want 1 target + 3 neighbors", len(events))
	}
	if events[0].CupID != 1 {
		t.Fatalf("first event cup = %d, want the target", events[0].CupID)
	}
	for _, evt := range events {
		if !evt.IsGrenade() || evt.GroupID != events[0].GroupID {
			t.Fatalf("event %+v not linked into the grenade group", evt)
		}
	}
	if result.RemainingB != 1 {
		t.Fatalf("remaining = %d, want 1 (only cup 5 left)", result.RemainingB)
	}
}

func TestGrenadeWithAllNeighborsSunkEmitsOneEvent(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	for _, cup := range []int{3, 4} {
		regular(t, engine, board.SideB, cup)
	}
	// Cup 5 (apex) touches only 3 and 4, both sunk now.
	result, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideB, CupID: 5, PlayerHandle: "Jo", Kind: board.KindGrenade,
	})
	if err != nil {
		t.Fatalf("record grenade: %v", err)
	}
	if len(result.Group.Events) != 1 {
		t.Fatalf("grenade events = %d, want exactly 1 with no phantom companions", len(result.Group.Events))
	}
}

func TestWorkedExampleSixCupRack(t *testing.T) {
	var loser board.Side
	engine := testEngine(t, rack.SizeSix, WithVictoryHandler(func(side board.Side) { loser = side }))

	for _, cup := range []int{5, 4, 3, 1, 2} {
		regular(t, engine, board.SideB, cup)
	}
	if remaining := engine.Remaining(board.SideB); remaining != 1 {
		t.Fatalf("remaining = %d, want 1", remaining)
	}

	// A bounce naming an already-sunk companion must fail.
	sunk := 5
	if _, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideB, CupID: 0, PlayerHandle: "Jo", Kind: board.KindBounce, SecondCupID: &sunk,
	}); !apperrors.IsCode(err, apperrors.CodeInvalidSelection) {
		t.Fatalf("err = %v, want INVALID_SELECTION", err)
	}

	result := regular(t, engine, board.SideB, 0)
	if !result.RedemptionOpened || result.Loser != board.SideB {
		t.Fatalf("result = %+v, want redemption opened with side B losing", result)
	}
	if loser != board.SideB {
		t.Fatalf("victory callback saw %q, want side B as loser", loser)
	}
	if engine.Phase() != PhaseRedemption {
		t.Fatalf("phase = %s, want redemption", engine.Phase())
	}
}

func TestShotsRejectedDuringRedemptionAndAfterComplete(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	for _, cup := range []int{0, 1, 2, 3, 4, 5} {
		regular(t, engine, board.SideB, cup)
	}
	if _, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideA, CupID: 0, PlayerHandle: "Ana", Kind: board.KindRegular,
	}); !apperrors.IsCode(err, apperrors.CodeRedemptionPending) {
		t.Fatalf("err = %v, want REDEMPTION_PENDING", err)
	}

	if _, err := engine.RedemptionWin(context.Background()); err != nil {
		t.Fatalf("redemption win: %v", err)
	}
	if _, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideA, CupID: 0, PlayerHandle: "Ana", Kind: board.KindRegular,
	}); !apperrors.IsCode(err, apperrors.CodeMatchComplete) {
		t.Fatalf("err = %v, want MATCH_COMPLETE", err)
	}
}

func TestUndoBounceRestoresBothCups(t *testing.T) {
	recorder := &fakeRecorder{}
	engine := testEngine(t, rack.SizeSix, WithRecorder(recorder))
	second := 4
	if _, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideB, CupID: 1, PlayerHandle: "Jo", Kind: board.KindBounce, SecondCupID: &second,
	}); err != nil {
		t.Fatalf("record bounce: %v", err)
	}

	result, err := engine.Undo(context.Background())
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(result.Group.Events) != 2 {
		t.Fatalf("undone group events = %d, want 2", len(result.Group.Events))
	}
	if result.RemainingB != 6 {
		t.Fatalf("remaining = %d, want 6", result.RemainingB)
	}
	for _, evt := range engine.Events() {
		if !evt.Undone {
			t.Fatalf("event %s not flagged undone", evt.ID)
		}
	}
	if len(recorder.undone) != 2 {
		t.Fatalf("recorder saw %d undo notices, want 2", len(recorder.undone))
	}
}

func TestUndoGrenadeRestoresWholeGroup(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	if _, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideB, CupID: 1, PlayerHandle: "Jo", Kind: board.KindGrenade,
	}); err != nil {
		t.Fatalf("record grenade: %v", err)
	}
	if engine.Remaining(board.SideB) != 1 {
		t.Fatalf("remaining = %d, want 1", engine.Remaining(board.SideB))
	}
	if _, err := engine.Undo(context.Background()); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if engine.Remaining(board.SideB) != 6 {
		t.Fatalf("remaining after undo = %d, want 6", engine.Remaining(board.SideB))
	}
}

func TestUndoWithEmptyJournal(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	if _, err := engine.Undo(context.Background()); !apperrors.IsCode(err, apperrors.CodeNothingToUndo) {
		t.Fatalf("err = %v, want NOTHING_TO_UNDO", err)
	}
}

func TestUndoReopensPlayDuringRedemption(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	for _, cup := range []int{0, 1, 2, 3, 4, 5} {
		regular(t, engine, board.SideB, cup)
	}
	if engine.Phase() != PhaseRedemption {
		t.Fatalf("phase = %s, want redemption", engine.Phase())
	}
	result, err := engine.Undo(context.Background())
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !result.RedemptionClosed {
		t.Fatal("undo did not close redemption")
	}
	if engine.Phase() != PhasePlaying || engine.Loser() != "" {
		t.Fatalf("phase = %s loser = %q, want playing with no loser", engine.Phase(), engine.Loser())
	}
}

func TestRedemptionPlayOnRestoresOnlyTriggerCup(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	for _, cup := range []int{5, 4, 3, 2} {
		regular(t, engine, board.SideB, cup)
	}
	// The closing bounce: cup 0 triggers, cup 1 is the companion.
	second := 1
	result, err := engine.RecordShot(context.Background(), ShotRequest{
		Side: board.SideB, CupID: 0, PlayerHandle: "Jo", Kind: board.KindBounce, SecondCupID: &second,
	})
	if err != nil {
		t.Fatalf("record bounce: %v", err)
	}
	if !result.RedemptionOpened {
		t.Fatal("bounce did not open redemption")
	}

	restore, err := engine.RedemptionPlayOn()
	if err != nil {
		t.Fatalf("redemption play on: %v", err)
	}
	if len(restore.CupIDs) != 1 || restore.CupIDs[0] != 0 {
		t.Fatalf("restored cups = %v, want just the trigger cup 0", restore.CupIDs)
	}
	snapshot := engine.Board()
	if cup, _ := snapshot.SideB.Cup(0); cup.Sunk {
		t.Fatal("trigger cup still sunk after play on")
	}
	if cup, _ := snapshot.SideB.Cup(1); !cup.Sunk {
		t.Fatal("companion cup reopened, want it kept sunk")
	}
	if engine.Phase() != PhasePlaying {
		t.Fatalf("phase = %s, want playing", engine.Phase())
	}
	// History preserved: no event was soft-deleted.
	for _, evt := range engine.Events() {
		if evt.Undone {
			t.Fatalf("event %s was soft-deleted by play on", evt.ID)
		}
	}
}

func TestRedemptionPlayOnOutsideRedemption(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	if _, err := engine.RedemptionPlayOn(); !apperrors.IsCode(err, apperrors.CodeNotRedemption) {
		t.Fatalf("err = %v, want NOT_REDEMPTION", err)
	}
}

func TestRedemptionWinScores(t *testing.T) {
	recorder := &fakeRecorder{}
	engine := testEngine(t, rack.SizeSix, WithRecorder(recorder))
	regular(t, engine, board.SideA, 0)
	for _, cup := range []int{0, 1, 2, 3, 4, 5} {
		regular(t, engine, board.SideB, cup)
	}

	completion, err := engine.RedemptionWin(context.Background())
	if err != nil {
		t.Fatalf("redemption win: %v", err)
	}
	if completion.Winner != board.SideA {
		t.Fatalf("winner = %s, want A", completion.Winner)
	}
	if completion.ScoreA != 6 || completion.ScoreB != 1 {
		t.Fatalf("scores = %d/%d, want 6/1", completion.ScoreA, completion.ScoreB)
	}
	if engine.Phase() != PhaseComplete || engine.Winner() != board.SideA {
		t.Fatal("engine did not finalize")
	}
	if len(recorder.completed) != 1 || recorder.completed[0].Winner != board.SideA {
		t.Fatalf("recorder completions = %+v", recorder.completed)
	}
}

func TestSurrenderScores(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	// Side B sank two cups on side A's rack before side A gives up.
	regular(t, engine, board.SideA, 0)
	regular(t, engine, board.SideA, 1)

	completion, err := engine.Surrender(context.Background(), board.SideA)
	if err != nil {
		t.Fatalf("surrender: %v", err)
	}
	if completion.Winner != board.SideB {
		t.Fatalf("winner = %s, want B", completion.Winner)
	}
	// The winner is credited with the surrendering side's whole rack; the
	// surrendering side keeps what it earned (nothing here).
	if completion.ScoreA != 0 || completion.ScoreB != 6 {
		t.Fatalf("scores = %d/%d, want 0/6", completion.ScoreA, completion.ScoreB)
	}
	if _, err := engine.Surrender(context.Background(), board.SideB); !apperrors.IsCode(err, apperrors.CodeMatchComplete) {
		t.Fatalf("err = %v, want MATCH_COMPLETE", err)
	}
}

func TestRerackFrontPacksByDefault(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	for _, cup := range []int{0, 2, 4} {
		regular(t, engine, board.SideB, cup)
	}

	result, err := engine.Rerack(board.SideB, nil)
	if err != nil {
		t.Fatalf("rerack: %v", err)
	}
	cups := result.Snapshot.SideB
	if len(cups) != 6 {
		t.Fatalf("board has %d cups, want 6", len(cups))
	}
	seen := make(map[int]bool)
	for _, cup := range cups {
		if seen[cup.ID] {
			t.Fatalf("cup id %d appears twice after rerack", cup.ID)
		}
		seen[cup.ID] = true
	}
	for slot := 0; slot < 3; slot++ {
		cup, found := cups.Cup(slot)
		if !found || cup.Sunk {
			t.Fatalf("front slot %d not holding a standing cup: %+v", slot, cup)
		}
	}
	if result.RemainingB != 3 {
		t.Fatalf("remaining changed to %d during rerack", result.RemainingB)
	}
	if engine.Board().Remaining(board.SideB) != 3 {
		t.Fatal("reconstructed board diverges after rerack")
	}
	// History untouched: the original events still reference their cups.
	events := engine.Events()
	if events[0].CupID != 0 {
		t.Fatal("rerack rewrote a historical event")
	}
}

func TestRerackWithChosenSlots(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	for _, cup := range []int{0, 1, 2, 3} {
		regular(t, engine, board.SideB, cup)
	}

	result, err := engine.Rerack(board.SideB, []int{3, 4})
	if err != nil {
		t.Fatalf("rerack: %v", err)
	}
	for _, slot := range []int{3, 4} {
		cup, found := result.Snapshot.SideB.Cup(slot)
		if !found || cup.Sunk {
			t.Fatalf("slot %d not holding a standing cup", slot)
		}
	}
}

func TestRerackValidation(t *testing.T) {
	engine := testEngine(t, rack.SizeSix)
	if _, err := engine.Rerack(board.SideB, nil); !apperrors.IsCode(err, apperrors.CodeRerackNotNeeded) {
		t.Fatalf("err = %v, want RERACK_NOT_NEEDED on a full rack", err)
	}
	regular(t, engine, board.SideB, 0)

	if _, err := engine.Rerack(board.SideB, []int{0}); !apperrors.IsCode(err, apperrors.CodeRerackSlotMismatch) {
		t.Fatalf("err = %v, want RERACK_SLOT_MISMATCH on count", err)
	}
	if _, err := engine.Rerack(board.SideB, []int{0, 0, 1, 2, 3}); !apperrors.IsCode(err, apperrors.CodeRerackSlotMismatch) {
		t.Fatalf("err = %v, want RERACK_SLOT_MISMATCH on duplicates", err)
	}
	if _, err := engine.Rerack(board.SideB, []int{0, 1, 2, 3, 9}); !apperrors.IsCode(err, apperrors.CodeRerackSlotMismatch) {
		t.Fatalf("err = %v, want RERACK_SLOT_MISMATCH on range", err)
	}
	if engine.Remaining(board.SideB) != 5 {
		t.Fatal("rejected rerack changed state")
	}
}

func TestLateMatchIDCatchUp(t *testing.T) {
	recorder := &fakeRecorder{}
	stamp := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	tick := 0
	idSeq := 0
	engine, err := New("standard", rack.SizeSix, []string{"Ana"}, []string{"Jo"},
		WithRecorder(recorder),
		WithClock(func() time.Time { tick++; return stamp.Add(time.Duration(tick) * time.Second) }),
		WithIDFunc(func() (string, error) { idSeq++; return fmt.Sprintf("id-%d", idSeq), nil }),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	regular(t, engine, board.SideB, 0)
	regular(t, engine, board.SideB, 1)
	if len(recorder.saved) != 0 {
		t.Fatalf("recorder saw %d events before a match id existed", len(recorder.saved))
	}

	engine.SetMatchID(context.Background(), "match-late")
	if len(recorder.saved) != 2 {
		t.Fatalf("catch-up forwarded %d events, want 2", len(recorder.saved))
	}
	for _, matchID := range recorder.savedTo {
		if matchID != "match-late" {
			t.Fatalf("event forwarded to %q", matchID)
		}
	}

	regular(t, engine, board.SideB, 2)
	if len(recorder.saved) != 3 {
		t.Fatalf("recorder saw %d events, want 3", len(recorder.saved))
	}
}

func TestRecorderFailureDoesNotRollBack(t *testing.T) {
	recorder := &fakeRecorder{saveErr: errors.New("sink offline")}
	engine := testEngine(t, rack.SizeSix, WithRecorder(recorder))

	result := regular(t, engine, board.SideB, 0)
	if len(result.Group.Events) != 1 {
		t.Fatal("shot was rolled back on a persistence failure")
	}
	if engine.Remaining(board.SideB) != 5 {
		t.Fatal("board lost the shot on a persistence failure")
	}
}

func TestRehydrationFromStoredEvents(t *testing.T) {
	source := testEngine(t, rack.SizeSix)
	for _, cup := range []int{0, 1, 2} {
		regular(t, source, board.SideB, cup)
	}
	if _, err := source.Undo(context.Background()); err != nil {
		t.Fatalf("undo: %v", err)
	}

	restored, err := New("standard", rack.SizeSix, []string{"Ana"}, []string{"Jo"})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	restored.LoadEvents(source.Events())
	if restored.Remaining(board.SideB) != source.Remaining(board.SideB) {
		t.Fatalf("rehydrated remaining = %d, want %d",
			restored.Remaining(board.SideB), source.Remaining(board.SideB))
	}
	if restored.Phase() != PhasePlaying {
		t.Fatalf("rehydrated phase = %s, want playing", restored.Phase())
	}
}

func TestRehydrationDetectsOpenRedemption(t *testing.T) {
	source := testEngine(t, rack.SizeSix)
	for _, cup := range []int{0, 1, 2, 3, 4, 5} {
		regular(t, source, board.SideB, cup)
	}

	restored, err := New("standard", rack.SizeSix, []string{"Ana"}, []string{"Jo"})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	restored.LoadEvents(source.Events())
	if restored.Phase() != PhaseRedemption || restored.Loser() != board.SideB {
		t.Fatalf("rehydrated phase = %s loser = %s, want open redemption for B",
			restored.Phase(), restored.Loser())
	}
}
