// Package match implements the rack engine: shot recording, undo, the
// redemption branch, surrender, and rerack, all on top of the append-only
// shot journal. The engine is single-threaded by design; callers that need
// to serialize concurrent access do so at the service boundary.
package match

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	apperrors "github.com/louisbranch/sinkline/internal/platform/errors"
	"github.com/louisbranch/sinkline/internal/platform/id"
	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/rack"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shotlog"
)

// Phase is the match lifecycle state.
type Phase string

const (
	// PhasePlaying accepts shots, undo, and rerack.
	PhasePlaying Phase = "playing"
	// PhaseRedemption is entered when a rack empties: the losing side gets
	// one final attempt before the win is finalized.
	PhaseRedemption Phase = "redemption"
	// PhaseComplete accepts no further mutations.
	PhaseComplete Phase = "complete"
)

// Recorder is the persistence collaborator. Every call is fire-and-forget
// from the engine's perspective: failures are logged, never retried here,
// and never roll back the in-memory journal. The match stays playable
// offline; retry is the sync forwarder's concern.
type Recorder interface {
	CreateMatch(ctx context.Context, gameType string, cupCount rack.Size, sideAPlayers, sideBPlayers []string) (string, error)
	SaveShotEvent(ctx context.Context, matchID string, evt shot.Event) error
	MarkEventUndone(ctx context.Context, eventID string) error
	CompleteMatch(ctx context.Context, matchID string, winner board.Side, scoreA, scoreB int) error
}

// VictoryHandler is invoked when a shot brings a rack to zero cups. The side
// passed is the one that emptied, i.e. the provisional LOSER; the match
// enters redemption, never a terminal win.
type VictoryHandler func(loser board.Side)

// Engine tracks one match.
type Engine struct {
	gameType string
	size     rack.Size
	playersA []string
	playersB []string

	journal *shotlog.Log
	phase   Phase
	loser   board.Side
	winner  board.Side
	scoreA  int
	scoreB  int

	matchID   string
	recorder  Recorder
	onVictory VictoryHandler
	unsent    []shot.Event

	now   func() time.Time
	newID func() (string, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sets the persistence collaborator.
func WithRecorder(recorder Recorder) Option {
	return func(e *Engine) { e.recorder = recorder }
}

// WithVictoryHandler sets the redemption-open callback.
func WithVictoryHandler(handler VictoryHandler) Option {
	return func(e *Engine) { e.onVictory = handler }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDFunc overrides the event/group id generator.
func WithIDFunc(newID func() (string, error)) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithMatchID seeds an already-known persistence match id.
func WithMatchID(matchID string) Option {
	return func(e *Engine) { e.matchID = strings.TrimSpace(matchID) }
}

// New creates a match with an empty journal.
func New(gameType string, size rack.Size, sideAPlayers, sideBPlayers []string, opts ...Option) (*Engine, error) {
	if !size.Valid() {
		return nil, apperrors.WithMetadata(apperrors.CodeMatchInvalidCupCount,
			fmt.Sprintf("cup count %d is not supported", size),
			map[string]string{"cup_count": fmt.Sprintf("%d", size)})
	}
	if len(sideAPlayers) == 0 || len(sideBPlayers) == 0 {
		return nil, apperrors.New(apperrors.CodeMatchEmptyRoster, "both sides need at least one player")
	}
	engine := &Engine{
		gameType: strings.TrimSpace(gameType),
		size:     size,
		playersA: append([]string(nil), sideAPlayers...),
		playersB: append([]string(nil), sideBPlayers...),
		journal:  shotlog.New(size),
		phase:    PhasePlaying,
		now:      time.Now,
		newID:    id.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(engine)
		}
	}
	return engine, nil
}

// GameType returns the configured game variant label.
func (e *Engine) GameType() string { return e.gameType }

// Size returns the per-side cup count.
func (e *Engine) Size() rack.Size { return e.size }

// Players returns one side's roster.
func (e *Engine) Players(side board.Side) []string {
	switch side {
	case board.SideA:
		return append([]string(nil), e.playersA...)
	case board.SideB:
		return append([]string(nil), e.playersB...)
	default:
		return nil
	}
}

// Phase returns the lifecycle state.
func (e *Engine) Phase() Phase { return e.phase }

// Loser returns the side whose rack emptied while redemption is open, or the
// final loser once complete. Empty during regular play.
func (e *Engine) Loser() board.Side { return e.loser }

// Winner returns the final winner once the match is complete.
func (e *Engine) Winner() board.Side { return e.winner }

// Scores returns the final per-side scores once the match is complete.
func (e *Engine) Scores() (scoreA, scoreB int) { return e.scoreA, e.scoreB }

// MatchID returns the persistence match id, empty while offline.
func (e *Engine) MatchID() string { return e.matchID }

// Board reconstructs the current two-sided board from the journal.
func (e *Engine) Board() board.Snapshot {
	return e.journal.Reconstruct()
}

// Remaining returns one side's unsunk cup count.
func (e *Engine) Remaining(side board.Side) int {
	return e.journal.Reconstruct().Remaining(side)
}

// Events returns the full journal, undone events included.
func (e *Engine) Events() []shot.Event {
	return e.journal.Events()
}

// LastActiveGroup returns the most recent active event group. It powers the
// "undo available" UI state and the redemption restore.
func (e *Engine) LastActiveGroup() (shot.Group, bool) {
	return e.journal.LastActiveGroup()
}

// SetMatchID records a late-arriving persistence match id and runs a
// catch-up pass forwarding every event recorded while offline.
func (e *Engine) SetMatchID(ctx context.Context, matchID string) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" || e.matchID != "" {
		return
	}
	e.matchID = matchID
	backlog := e.unsent
	e.unsent = nil
	for _, evt := range backlog {
		e.forward(ctx, evt)
	}
}

// forward hands one event to the recorder. Without a match id the event is
// queued for the catch-up pass; a recorder failure is logged and dropped.
func (e *Engine) forward(ctx context.Context, evt shot.Event) {
	if e.recorder == nil {
		return
	}
	if e.matchID == "" {
		e.unsent = append(e.unsent, evt)
		return
	}
	if err := e.recorder.SaveShotEvent(ctx, e.matchID, evt); err != nil {
		log.Printf("match: save shot event %s: %v", evt.ID, err)
	}
}
