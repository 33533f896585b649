// Package app wires the match engine to storage, the sync outbox, and the
// live board feed. The engine is single-threaded; the service owns the
// per-match mutex that serializes API callers onto it.
package app

import (
	"context"
	"log"
	"sync"
	"time"

	apperrors "github.com/louisbranch/sinkline/internal/platform/errors"
	"github.com/louisbranch/sinkline/internal/platform/id"
	"github.com/louisbranch/sinkline/internal/services/match/core/filter"
	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/match"
	"github.com/louisbranch/sinkline/internal/services/match/domain/rack"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
	matchi18n "github.com/louisbranch/sinkline/internal/services/match/i18n"
	"github.com/louisbranch/sinkline/internal/services/match/storage"
)

// Service exposes match operations to API surfaces. Matches live in an
// in-memory registry of engines; a match not in memory is rehydrated by
// replaying its stored events.
type Service struct {
	store     storage.Store
	recorder  *storeRecorder
	announcer *matchi18n.Announcer
	hub       *Hub
	now       func() time.Time

	mu      sync.Mutex
	matches map[string]*liveMatch
}

// liveMatch pairs one engine with the mutex serializing callers onto it.
type liveMatch struct {
	mu     sync.Mutex
	engine *match.Engine
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLocale sets the announcement locale (default en-US).
func WithLocale(locale string) ServiceOption {
	return func(s *Service) { s.announcer = matchi18n.NewAnnouncer(locale) }
}

// WithHub attaches the live board feed.
func WithHub(hub *Hub) ServiceOption {
	return func(s *Service) { s.hub = hub }
}

// WithServiceClock overrides the timestamp source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a match service on the given store.
func NewService(store storage.Store, opts ...ServiceOption) *Service {
	service := &Service{
		store:     store,
		announcer: matchi18n.NewAnnouncer(""),
		now:       time.Now,
		matches:   make(map[string]*liveMatch),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(service)
		}
	}
	service.recorder = newStoreRecorder(store, service.now)
	return service
}

// Locale returns the locale announcements and error messages render in.
func (s *Service) Locale() string {
	return s.announcer.Locale()
}

// CreateMatchRequest carries the inputs for a new match.
type CreateMatchRequest struct {
	GameType     string
	CupCount     int
	SideAPlayers []string
	SideBPlayers []string
}

// MatchInfo is the read model for one match.
type MatchInfo struct {
	MatchID    string         `json:"match_id"`
	GameType   string         `json:"game_type"`
	CupCount   int            `json:"cup_count"`
	SideA      []string       `json:"side_a_players"`
	SideB      []string       `json:"side_b_players"`
	Phase      string         `json:"phase"`
	Loser      string         `json:"loser,omitempty"`
	Winner     string         `json:"winner,omitempty"`
	ScoreA     int            `json:"score_a"`
	ScoreB     int            `json:"score_b"`
	RemainingA int            `json:"remaining_a"`
	RemainingB int            `json:"remaining_b"`
	Board      board.Snapshot `json:"board"`
}

// CreateMatch starts a new match. A storage failure is logged, not fatal:
// the match stays playable in memory and events queue for a later catch-up.
func (s *Service) CreateMatch(ctx context.Context, req CreateMatchRequest) (MatchInfo, error) {
	engine, err := match.New(req.GameType, rack.Size(req.CupCount), req.SideAPlayers, req.SideBPlayers,
		match.WithRecorder(s.recorder),
		match.WithClock(s.now),
	)
	if err != nil {
		return MatchInfo{}, err
	}

	matchID, err := s.recorder.CreateMatch(ctx, engine.GameType(), engine.Size(), req.SideAPlayers, req.SideBPlayers)
	if err != nil {
		log.Printf("[match] create match record: %v", err)
		matchID, err = id.NewID()
		if err != nil {
			return MatchInfo{}, apperrors.Wrap(apperrors.CodeStorageFailure, "allocate match id", err)
		}
	} else {
		engine.SetMatchID(ctx, matchID)
	}

	live := &liveMatch{engine: engine}
	s.mu.Lock()
	s.matches[matchID] = live
	s.mu.Unlock()

	info := s.matchInfo(matchID, engine)
	s.broadcast(matchID, engine, s.announcer.MatchCreated(req.CupCount))
	return info, nil
}

// GetMatch returns the current read model for a match.
func (s *Service) GetMatch(ctx context.Context, matchID string) (MatchInfo, error) {
	live, err := s.liveMatch(ctx, matchID)
	if err != nil {
		return MatchInfo{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return s.matchInfo(matchID, live.engine), nil
}

// Board returns the reconstructed two-sided board.
func (s *Service) Board(ctx context.Context, matchID string) (board.Snapshot, error) {
	live, err := s.liveMatch(ctx, matchID)
	if err != nil {
		return board.Snapshot{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return live.engine.Board(), nil
}

// LastActiveGroup returns the most recent active group, powering the "undo
// available" state.
func (s *Service) LastActiveGroup(ctx context.Context, matchID string) (shot.Group, bool, error) {
	live, err := s.liveMatch(ctx, matchID)
	if err != nil {
		return shot.Group{}, false, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	group, ok := live.engine.LastActiveGroup()
	return group, ok, nil
}

// RecordShot records one action on a match.
func (s *Service) RecordShot(ctx context.Context, matchID string, req match.ShotRequest) (match.GroupResult, error) {
	live, err := s.liveMatch(ctx, matchID)
	if err != nil {
		return match.GroupResult{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	result, err := live.engine.RecordShot(ctx, req)
	if err != nil {
		return match.GroupResult{}, err
	}
	s.syncPhase(ctx, matchID, live.engine)

	line := s.announcer.ShotGroup(result.Group)
	if result.RedemptionOpened {
		line = s.announcer.RedemptionOpened(result.Loser)
	}
	s.broadcast(matchID, live.engine, line)
	return result, nil
}

// Undo rolls back the most recent active group.
func (s *Service) Undo(ctx context.Context, matchID string) (match.UndoResult, error) {
	live, err := s.liveMatch(ctx, matchID)
	if err != nil {
		return match.UndoResult{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	result, err := live.engine.Undo(ctx)
	if err != nil {
		return match.UndoResult{}, err
	}
	s.syncPhase(ctx, matchID, live.engine)
	s.broadcast(matchID, live.engine, s.announcer.Undo())
	return result, nil
}

// RedemptionPlayOn resolves a successful redemption attempt and persists the
// restored snapshot.
func (s *Service) RedemptionPlayOn(ctx context.Context, matchID string) (match.RestoreResult, error) {
	live, err := s.liveMatch(ctx, matchID)
	if err != nil {
		return match.RestoreResult{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	result, err := live.engine.RedemptionPlayOn()
	if err != nil {
		return match.RestoreResult{}, err
	}
	if err := s.recorder.replaceSnapshots(ctx, matchID, result.EventIDs, result.Snapshot, result.RemainingA, result.RemainingB); err != nil {
		log.Printf("[match] persist redemption restore %s: %v", matchID, err)
	}
	s.syncPhase(ctx, matchID, live.engine)
	s.broadcast(matchID, live.engine, s.announcer.RedemptionPlayOn())
	return result, nil
}

// RedemptionWin finalizes the match for the side holding the opponent at zero.
func (s *Service) RedemptionWin(ctx context.Context, matchID string) (match.Completion, error) {
	live, err := s.liveMatch(ctx, matchID)
	if err != nil {
		return match.Completion{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	completion, err := live.engine.RedemptionWin(ctx)
	if err != nil {
		return match.Completion{}, err
	}
	s.broadcast(matchID, live.engine, s.announcer.MatchComplete(completion.Winner, completion.ScoreA, completion.ScoreB))
	return completion, nil
}

// Surrender ends the match immediately.
func (s *Service) Surrender(ctx context.Context, matchID string, side board.Side) (match.Completion, error) {
	live, err := s.liveMatch(ctx, matchID)
	if err != nil {
		return match.Completion{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	completion, err := live.engine.Surrender(ctx, side)
	if err != nil {
		return match.Completion{}, err
	}
	s.broadcast(matchID, live.engine, s.announcer.Surrender(side))
	return completion, nil
}

// Rerack reassigns one side's standing cups and persists the rewritten
// snapshot.
func (s *Service) Rerack(ctx context.Context, matchID string, side board.Side, targetSlots []int) (match.RestoreResult, error) {
	live, err := s.liveMatch(ctx, matchID)
	if err != nil {
		return match.RestoreResult{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	result, err := live.engine.Rerack(side, targetSlots)
	if err != nil {
		return match.RestoreResult{}, err
	}
	if err := s.recorder.replaceSnapshots(ctx, matchID, result.EventIDs, result.Snapshot, result.RemainingA, result.RemainingB); err != nil {
		log.Printf("[match] persist rerack %s: %v", matchID, err)
	}
	count := result.Snapshot.Remaining(side)
	s.broadcast(matchID, live.engine, s.announcer.Rerack(side, count))
	return result, nil
}

// ListShotsRequest carries shot history query inputs.
type ListShotsRequest struct {
	MatchID       string
	Filter        string
	IncludeUndone bool
	PageSize      int
	AfterSeq      int64
}

// ListShots returns journal rows matching an optional AIP-160 filter.
func (s *Service) ListShots(ctx context.Context, req ListShotsRequest) (storage.ListShotEventsResult, error) {
	condition, err := filter.ParseShotFilter(req.Filter)
	if err != nil {
		return storage.ListShotEventsResult{}, err
	}
	result, err := s.store.ListShotEventsPage(ctx, storage.ListShotEventsRequest{
		MatchID:       req.MatchID,
		IncludeUndone: req.IncludeUndone,
		FilterClause:  condition.Clause,
		FilterParams:  condition.Params,
		PageSize:      req.PageSize,
		AfterSeq:      req.AfterSeq,
	})
	if err != nil {
		return storage.ListShotEventsResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "list shot events", err)
	}
	return result, nil
}

// Watch subscribes to the live board feed for one match.
func (s *Service) Watch(matchID string) (*Subscription, error) {
	if s.hub == nil {
		return nil, apperrors.New(apperrors.CodeStorageFailure, "feed is not configured")
	}
	return s.hub.Subscribe(matchID), nil
}

// liveMatch returns the in-memory engine for a match, rehydrating from
// storage when absent.
func (s *Service) liveMatch(ctx context.Context, matchID string) (*liveMatch, error) {
	s.mu.Lock()
	live, ok := s.matches[matchID]
	s.mu.Unlock()
	if ok {
		return live, nil
	}

	engine, err := s.rehydrate(ctx, matchID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.matches[matchID]; ok {
		return existing, nil
	}
	live = &liveMatch{engine: engine}
	s.matches[matchID] = live
	return live, nil
}

// rehydrate rebuilds an engine by replaying the stored journal, proving the
// log is the single source of truth.
func (s *Service) rehydrate(ctx context.Context, matchID string) (*match.Engine, error) {
	record, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.WithMetadata(apperrors.CodeMatchNotFound,
				"match "+matchID+" not found",
				map[string]string{"match_id": matchID})
		}
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "load match", err)
	}

	engine, err := match.New(record.GameType, record.CupCount, record.SideAPlayers, record.SideBPlayers,
		match.WithRecorder(s.recorder),
		match.WithClock(s.now),
		match.WithMatchID(matchID),
	)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListShotEvents(ctx, matchID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "load shot events", err)
	}
	events, err := recordsToEvents(records)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "decode shot events", err)
	}
	engine.LoadEvents(events)
	if record.Phase == string(match.PhaseComplete) {
		engine.RestoreCompletion(record.Winner, record.ScoreA, record.ScoreB)
	}
	return engine, nil
}

// syncPhase mirrors non-terminal phase flips (redemption open/close) onto the
// match record. Terminal outcomes go through the recorder's CompleteMatch.
func (s *Service) syncPhase(ctx context.Context, matchID string, engine *match.Engine) {
	if engine.Phase() == match.PhaseComplete {
		return
	}
	record, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		log.Printf("[match] load match %s for phase sync: %v", matchID, err)
		return
	}
	if record.Phase == string(engine.Phase()) {
		return
	}
	record.Phase = string(engine.Phase())
	record.UpdatedAt = s.now().UTC()
	if err := s.store.PutMatch(ctx, record); err != nil {
		log.Printf("[match] sync match %s phase: %v", matchID, err)
	}
}

func (s *Service) matchInfo(matchID string, engine *match.Engine) MatchInfo {
	snapshot := engine.Board()
	scoreA, scoreB := engine.Scores()
	return MatchInfo{
		MatchID:    matchID,
		GameType:   engine.GameType(),
		CupCount:   int(engine.Size()),
		SideA:      engine.Players(board.SideA),
		SideB:      engine.Players(board.SideB),
		Phase:      string(engine.Phase()),
		Loser:      string(engine.Loser()),
		Winner:     string(engine.Winner()),
		ScoreA:     scoreA,
		ScoreB:     scoreB,
		RemainingA: snapshot.Remaining(board.SideA),
		RemainingB: snapshot.Remaining(board.SideB),
		Board:      snapshot,
	}
}

// broadcast pushes a feed frame after a state change.
func (s *Service) broadcast(matchID string, engine *match.Engine, announcement string) {
	if s.hub == nil {
		return
	}
	snapshot := engine.Board()
	frame := Frame{
		MatchID:      matchID,
		Phase:        string(engine.Phase()),
		Board:        snapshot,
		RemainingA:   snapshot.Remaining(board.SideA),
		RemainingB:   snapshot.Remaining(board.SideB),
		Announcement: announcement,
		At:           s.now().UTC().Format(time.RFC3339),
	}
	if group, ok := engine.LastActiveGroup(); ok {
		frame.LastGroup = &group
	}
	s.hub.Broadcast(matchID, frame)
}
