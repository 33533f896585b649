package match

import (
	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
)

// LoadEvents replaces the journal with stored events and rederives the
// phase, proving the log is the single source of truth when a match is
// rehydrated from storage. Completed matches also need RestoreCompletion.
func (e *Engine) LoadEvents(events []shot.Event) {
	e.journal.Load(events)
	if e.phase != PhasePlaying {
		return
	}
	snapshot := e.journal.Reconstruct()
	for _, side := range []board.Side{board.SideA, board.SideB} {
		if snapshot.Remaining(side) == 0 {
			e.phase = PhaseRedemption
			e.loser = side
			return
		}
	}
}

// RestoreCompletion reinstates a stored terminal outcome without forwarding
// anything to the recorder.
func (e *Engine) RestoreCompletion(winner board.Side, scoreA, scoreB int) {
	if !winner.Valid() {
		return
	}
	e.phase = PhaseComplete
	e.winner = winner
	e.loser = winner.Opponent()
	e.scoreA = scoreA
	e.scoreB = scoreB
}
