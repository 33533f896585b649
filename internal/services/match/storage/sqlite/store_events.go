package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/storage"
)

// ShotEventStore methods (append-only journal)

const shotEventColumns = `
	event_id, match_id, seq, at, side, cup_id, player_handle, player_id,
	kind, group_id, undone, remaining_a, remaining_b, snapshot_json
`

// AppendShotEvent appends one journal row. A duplicate event id is ignored so
// recorder retries stay idempotent.
func (s *Store) AppendShotEvent(ctx context.Context, rec storage.ShotEventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	rec.EventID = strings.TrimSpace(rec.EventID)
	rec.MatchID = strings.TrimSpace(rec.MatchID)
	if rec.EventID == "" {
		return fmt.Errorf("event id is required")
	}
	if rec.MatchID == "" {
		return fmt.Errorf("match id is required")
	}
	if rec.Seq <= 0 {
		return fmt.Errorf("event seq must be greater than zero")
	}
	if len(rec.SnapshotJSON) == 0 {
		return fmt.Errorf("snapshot is required")
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO shot_events (`+shotEventColumns+`, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(event_id) DO NOTHING
`,
		rec.EventID,
		rec.MatchID,
		rec.Seq,
		toMillis(rec.At),
		string(rec.Side),
		rec.CupID,
		rec.PlayerHandle,
		rec.PlayerID,
		string(rec.Kind),
		rec.GroupID,
		boolToInt(rec.Undone),
		rec.RemainingA,
		rec.RemainingB,
		rec.SnapshotJSON,
		toMillis(rec.At),
	)
	if err != nil {
		return fmt.Errorf("append shot event: %w", err)
	}
	return nil
}

// MarkShotEventUndone flips the soft-delete flag on one journal row.
func (s *Store) MarkShotEventUndone(ctx context.Context, eventID string, undoneAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if undoneAt.IsZero() {
		undoneAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE shot_events
SET undone = 1, updated_at = ?
WHERE event_id = ?
`, toMillis(undoneAt), strings.TrimSpace(eventID))
	if err != nil {
		return fmt.Errorf("mark shot event undone: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark shot event undone rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ReplaceShotSnapshots rewrites the stored snapshot and remaining counts on
// the named events. Undone flags are left alone: redemption restores and
// reracks edit the board, not history.
func (s *Store) ReplaceShotSnapshots(ctx context.Context, eventIDs []string, snapshotJSON []byte, remainingA, remainingB int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(eventIDs) == 0 {
		return nil
	}
	if len(snapshotJSON) == 0 {
		return fmt.Errorf("snapshot is required")
	}

	placeholders := strings.Repeat("?, ", len(eventIDs))
	placeholders = placeholders[:len(placeholders)-2]
	args := []any{snapshotJSON, remainingA, remainingB, toMillis(time.Now().UTC())}
	for _, eventID := range eventIDs {
		args = append(args, strings.TrimSpace(eventID))
	}

	_, err := s.sqlDB.ExecContext(ctx, `
UPDATE shot_events
SET snapshot_json = ?, remaining_a = ?, remaining_b = ?, updated_at = ?
WHERE event_id IN (`+placeholders+`)
`, args...)
	if err != nil {
		return fmt.Errorf("replace shot snapshots: %w", err)
	}
	return nil
}

// ListShotEvents returns every journal row for a match in seq order, undone
// rows included. This is the rehydration read.
func (s *Store) ListShotEvents(ctx context.Context, matchID string) ([]storage.ShotEventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+shotEventColumns+`
FROM shot_events
WHERE match_id = ?
ORDER BY seq ASC
`, strings.TrimSpace(matchID))
	if err != nil {
		return nil, fmt.Errorf("list shot events: %w", err)
	}
	defer rows.Close()

	records := []storage.ShotEventRecord{}
	for rows.Next() {
		record, err := scanShotEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shot event: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shot events: %w", err)
	}
	return records, nil
}

const (
	defaultShotEventPageSize = 50
	maxShotEventPageSize     = 200
)

// ListShotEventsPage returns a filtered page of journal rows in seq order.
// The filter clause comes pre-compiled from the filter package with
// positional parameters.
func (s *Store) ListShotEventsPage(ctx context.Context, req storage.ListShotEventsRequest) (storage.ListShotEventsResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.ListShotEventsResult{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ListShotEventsResult{}, fmt.Errorf("storage is not configured")
	}
	req.MatchID = strings.TrimSpace(req.MatchID)
	if req.MatchID == "" {
		return storage.ListShotEventsResult{}, fmt.Errorf("match id is required")
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultShotEventPageSize
	}
	if pageSize > maxShotEventPageSize {
		pageSize = maxShotEventPageSize
	}

	where := "match_id = ?"
	args := []any{req.MatchID}
	if !req.IncludeUndone {
		where += " AND undone = 0"
	}
	if req.AfterSeq > 0 {
		where += " AND seq > ?"
		args = append(args, req.AfterSeq)
	}
	if clause := strings.TrimSpace(req.FilterClause); clause != "" {
		where += " AND (" + clause + ")"
		args = append(args, req.FilterParams...)
	}

	var total int
	if err := s.sqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM shot_events WHERE "+where, args...,
	).Scan(&total); err != nil {
		return storage.ListShotEventsResult{}, fmt.Errorf("count shot events: %w", err)
	}

	query := `
SELECT ` + shotEventColumns + `
FROM shot_events
WHERE ` + where + `
ORDER BY seq ASC
LIMIT ?`
	rows, err := s.sqlDB.QueryContext(ctx, query, append(args, pageSize+1)...)
	if err != nil {
		return storage.ListShotEventsResult{}, fmt.Errorf("list shot events page: %w", err)
	}
	defer rows.Close()

	result := storage.ListShotEventsResult{
		Events:     make([]storage.ShotEventRecord, 0, pageSize),
		TotalCount: total,
	}
	for rows.Next() {
		record, err := scanShotEvent(rows)
		if err != nil {
			return storage.ListShotEventsResult{}, fmt.Errorf("scan shot event: %w", err)
		}
		result.Events = append(result.Events, record)
	}
	if err := rows.Err(); err != nil {
		return storage.ListShotEventsResult{}, fmt.Errorf("iterate shot events page: %w", err)
	}

	if len(result.Events) > pageSize {
		result.Events = result.Events[:pageSize]
		result.HasNextPage = true
	}
	return result, nil
}

func scanShotEvent(row rowScanner) (storage.ShotEventRecord, error) {
	var (
		record storage.ShotEventRecord
		at     int64
		side   string
		kind   string
		undone int
	)
	if err := row.Scan(
		&record.EventID,
		&record.MatchID,
		&record.Seq,
		&at,
		&side,
		&record.CupID,
		&record.PlayerHandle,
		&record.PlayerID,
		&kind,
		&record.GroupID,
		&undone,
		&record.RemainingA,
		&record.RemainingB,
		&record.SnapshotJSON,
	); err != nil {
		return storage.ShotEventRecord{}, err
	}
	record.At = fromMillis(at)
	record.Side = board.Side(side)
	record.Kind = board.Kind(kind)
	record.Undone = undone != 0
	return record, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
