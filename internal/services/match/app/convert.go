package app

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/shot"
	"github.com/louisbranch/sinkline/internal/services/match/storage"
)

// eventToRecord flattens a domain event into a storage row, snapshot encoded
// as JSON.
func eventToRecord(matchID string, evt shot.Event) (storage.ShotEventRecord, error) {
	snapshotJSON, err := json.Marshal(evt.Snapshot)
	if err != nil {
		return storage.ShotEventRecord{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return storage.ShotEventRecord{
		EventID:      evt.ID,
		MatchID:      matchID,
		Seq:          int64(evt.Seq),
		At:           evt.At,
		Side:         evt.Side,
		CupID:        evt.CupID,
		PlayerHandle: evt.PlayerHandle,
		PlayerID:     evt.PlayerID,
		Kind:         evt.Kind,
		GroupID:      evt.GroupID,
		Undone:       evt.Undone,
		RemainingA:   evt.RemainingA,
		RemainingB:   evt.RemainingB,
		SnapshotJSON: snapshotJSON,
	}, nil
}

// recordToEvent rebuilds a domain event from a storage row.
func recordToEvent(rec storage.ShotEventRecord) (shot.Event, error) {
	var snapshot board.Snapshot
	if err := json.Unmarshal(rec.SnapshotJSON, &snapshot); err != nil {
		return shot.Event{}, fmt.Errorf("decode snapshot for event %s: %w", rec.EventID, err)
	}
	return shot.Event{
		ID:           rec.EventID,
		Seq:          int(rec.Seq),
		At:           rec.At,
		Side:         rec.Side,
		CupID:        rec.CupID,
		PlayerHandle: rec.PlayerHandle,
		PlayerID:     rec.PlayerID,
		Kind:         rec.Kind,
		GroupID:      rec.GroupID,
		Undone:       rec.Undone,
		RemainingA:   rec.RemainingA,
		RemainingB:   rec.RemainingB,
		Snapshot:     snapshot,
	}, nil
}

func recordsToEvents(records []storage.ShotEventRecord) ([]shot.Event, error) {
	events := make([]shot.Event, 0, len(records))
	for _, rec := range records {
		evt, err := recordToEvent(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}
