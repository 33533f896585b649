package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/sinkline/internal/platform/id"
	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/match"
	"github.com/louisbranch/sinkline/internal/services/match/domain/rack"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
	"github.com/louisbranch/sinkline/internal/services/match/storage"
)

// storeRecorder implements the engine's Recorder against the SQLite store.
// Every successful write also enqueues a sync outbox row so downstream sinks
// eventually learn about it; the forwarder owns delivery and retry.
type storeRecorder struct {
	store storage.Store
	now   func() time.Time
}

var _ match.Recorder = (*storeRecorder)(nil)

func newStoreRecorder(store storage.Store, now func() time.Time) *storeRecorder {
	if now == nil {
		now = time.Now
	}
	return &storeRecorder{store: store, now: now}
}

// CreateMatch allocates a match id and persists the initial record.
func (r *storeRecorder) CreateMatch(ctx context.Context, gameType string, cupCount rack.Size, sideAPlayers, sideBPlayers []string) (string, error) {
	matchID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate match id: %w", err)
	}
	now := r.now().UTC()
	record := storage.MatchRecord{
		ID:           matchID,
		GameType:     gameType,
		CupCount:     cupCount,
		SideAPlayers: sideAPlayers,
		SideBPlayers: sideBPlayers,
		Phase:        string(match.PhasePlaying),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.store.PutMatch(ctx, record); err != nil {
		return "", err
	}
	r.enqueue(ctx, matchID, "", storage.SyncKindMatchCreated, record)
	return matchID, nil
}

// SaveShotEvent persists one journal row.
func (r *storeRecorder) SaveShotEvent(ctx context.Context, matchID string, evt shot.Event) error {
	rec, err := eventToRecord(matchID, evt)
	if err != nil {
		return err
	}
	if err := r.store.AppendShotEvent(ctx, rec); err != nil {
		return err
	}
	r.enqueue(ctx, matchID, evt.ID, storage.SyncKindShotRecorded, rec)
	return nil
}

// MarkEventUndone flips the soft-delete flag on one stored row.
func (r *storeRecorder) MarkEventUndone(ctx context.Context, eventID string) error {
	if err := r.store.MarkShotEventUndone(ctx, eventID, r.now().UTC()); err != nil {
		return err
	}
	r.enqueue(ctx, "", eventID, storage.SyncKindEventUndone, map[string]string{"event_id": eventID})
	return nil
}

// CompleteMatch finalizes the stored outcome.
func (r *storeRecorder) CompleteMatch(ctx context.Context, matchID string, winner board.Side, scoreA, scoreB int) error {
	if err := r.store.CompleteMatch(ctx, matchID, winner, scoreA, scoreB, r.now().UTC()); err != nil {
		return err
	}
	r.enqueue(ctx, matchID, "", storage.SyncKindMatchCompleted, map[string]any{
		"match_id": matchID,
		"winner":   string(winner),
		"score_a":  scoreA,
		"score_b":  scoreB,
	})
	return nil
}

// replaceSnapshots persists a board rewrite (redemption play-on or rerack).
// Not part of the engine's Recorder contract; the service calls it with the
// engine's RestoreResult.
func (r *storeRecorder) replaceSnapshots(ctx context.Context, matchID string, eventIDs []string, snapshot board.Snapshot, remainingA, remainingB int) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.store.ReplaceShotSnapshots(ctx, eventIDs, snapshotJSON, remainingA, remainingB); err != nil {
		return err
	}
	r.enqueue(ctx, matchID, "", storage.SyncKindSnapshotReplaced, map[string]any{
		"match_id":  matchID,
		"event_ids": eventIDs,
	})
	return nil
}

// enqueue adds a sync outbox row. An outbox failure is logged, never
// propagated: local persistence already succeeded and delivery is best-effort
// until the forwarder catches up.
func (r *storeRecorder) enqueue(ctx context.Context, matchID, eventID, kind string, payload any) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[match] encode sync payload %s: %v", kind, err)
		return
	}
	if err := r.store.EnqueueSyncItem(ctx, matchID, eventID, kind, payloadJSON, r.now().UTC()); err != nil {
		log.Printf("[match] enqueue sync item %s: %v", kind, err)
	}
}
