package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/sinkline/internal/services/match/storage"
)

// SyncStore methods (delivery outbox)

const (
	syncDeadLetterThreshold = 8
	syncProcessingLease     = 2 * time.Minute
)

// EnqueueSyncItem adds one pending outbox row.
func (s *Store) EnqueueSyncItem(ctx context.Context, matchID, eventID, kind string, payloadJSON []byte, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	// An undo notice carries only its event id, so match id may be empty.
	matchID = strings.TrimSpace(matchID)
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return fmt.Errorf("sync kind is required")
	}
	if len(payloadJSON) == 0 {
		return fmt.Errorf("payload is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO sync_outbox (
	match_id, event_id, kind, payload_json, status,
	attempt_count, next_attempt_at, last_error, updated_at
) VALUES (?, ?, ?, ?, 'pending', 0, ?, '', ?)
`,
		matchID,
		strings.TrimSpace(eventID),
		kind,
		payloadJSON,
		toMillis(now),
		toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("enqueue sync item: %w", err)
	}
	return nil
}

// ClaimDueSyncItems claims up to limit due rows inside one transaction,
// marking each processing. Processing rows whose lease expired are reclaimed.
func (s *Store) ClaimDueSyncItems(ctx context.Context, now time.Time, limit int) ([]storage.SyncItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sync claim tx: %w", err)
	}
	defer tx.Rollback()

	staleBefore := now.Add(-syncProcessingLease)
	rows, err := tx.QueryContext(ctx, `
SELECT id, match_id, event_id, kind, payload_json, status,
	attempt_count, next_attempt_at, last_error, updated_at
FROM sync_outbox
WHERE (
	status IN ('pending', 'failed') AND next_attempt_at <= ?
) OR (
	status = 'processing' AND updated_at <= ?
)
ORDER BY next_attempt_at ASC, id ASC
LIMIT ?
`,
		toMillis(now),
		toMillis(staleBefore),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due sync items: %w", err)
	}
	defer rows.Close()

	candidates := make([]storage.SyncItem, 0, limit)
	for rows.Next() {
		item, err := scanSyncItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due sync item: %w", err)
		}
		candidates = append(candidates, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due sync items: %w", err)
	}

	claimed := make([]storage.SyncItem, 0, len(candidates))
	for _, candidate := range candidates {
		result, err := tx.ExecContext(ctx, `
UPDATE sync_outbox
SET status = 'processing', updated_at = ?
WHERE id = ?
	AND (
		(status IN ('pending', 'failed') AND next_attempt_at <= ?)
		OR (status = 'processing' AND updated_at <= ?)
	)
`,
			toMillis(now),
			candidate.ID,
			toMillis(now),
			toMillis(staleBefore),
		)
		if err != nil {
			return nil, fmt.Errorf("claim sync item %d: %w", candidate.ID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("claim sync item rows affected %d: %w", candidate.ID, err)
		}
		if affected == 1 {
			candidate.Status = "processing"
			candidate.UpdatedAt = now
			claimed = append(claimed, candidate)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sync claim tx: %w", err)
	}
	return claimed, nil
}

// MarkSyncItemRetry requeues a claimed row for a later attempt, dead-lettering
// once the attempt budget is exhausted.
func (s *Store) MarkSyncItemRetry(ctx context.Context, id int64, attempt int, nextAttemptAt time.Time, lastError string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	status := "failed"
	if attempt >= syncDeadLetterThreshold {
		status = "dead"
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE sync_outbox
SET status = ?,
	attempt_count = ?,
	next_attempt_at = ?,
	last_error = ?,
	updated_at = ?
WHERE id = ? AND status = 'processing'
`,
		status,
		attempt,
		toMillis(nextAttemptAt),
		lastError,
		toMillis(now),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark sync item %d retry: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark sync item retry rows affected %d: %w", id, err)
	}
	if affected != 1 {
		return fmt.Errorf("mark sync item %d retry: expected 1 row updated, got %d", id, affected)
	}
	return nil
}

// CompleteSyncItem removes a delivered row.
func (s *Store) CompleteSyncItem(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM sync_outbox
WHERE id = ? AND status = 'processing'
`, id)
	if err != nil {
		return fmt.Errorf("complete sync item %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete sync item rows affected %d: %w", id, err)
	}
	if affected != 1 {
		return fmt.Errorf("complete sync item %d: expected 1 row deleted, got %d", id, affected)
	}
	return nil
}

// RequeueDeadSyncItems transitions up to limit dead rows back to pending in
// deterministic retry order.
func (s *Store) RequeueDeadSyncItems(ctx context.Context, limit int, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return 0, fmt.Errorf("requeue limit must be greater than zero")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE sync_outbox
SET status = 'pending',
	attempt_count = 0,
	next_attempt_at = ?,
	last_error = '',
	updated_at = ?
WHERE status = 'dead'
	AND id IN (
		SELECT id FROM sync_outbox
		WHERE status = 'dead'
		ORDER BY next_attempt_at ASC, id ASC
		LIMIT ?
	)
`,
		toMillis(now),
		toMillis(now),
		limit,
	)
	if err != nil {
		return 0, fmt.Errorf("requeue dead sync items: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("requeue dead sync items rows affected: %w", err)
	}
	return int(affected), nil
}

// GetSyncSummary returns queue depth by status and the oldest retry-eligible
// row metadata.
func (s *Store) GetSyncSummary(ctx context.Context) (storage.SyncSummary, error) {
	if err := ctx.Err(); err != nil {
		return storage.SyncSummary{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SyncSummary{}, fmt.Errorf("storage is not configured")
	}

	summary := storage.SyncSummary{}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT status, COUNT(*)
FROM sync_outbox
GROUP BY status
`)
	if err != nil {
		return storage.SyncSummary{}, fmt.Errorf("query sync summary counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return storage.SyncSummary{}, fmt.Errorf("scan sync summary count: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(status)) {
		case "pending":
			summary.PendingCount = count
		case "processing":
			summary.ProcessingCount = count
		case "failed":
			summary.FailedCount = count
		case "dead":
			summary.DeadCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return storage.SyncSummary{}, fmt.Errorf("iterate sync summary counts: %w", err)
	}

	var (
		oldestID int64
		nextAt   int64
	)
	err = s.sqlDB.QueryRowContext(ctx, `
SELECT id, next_attempt_at
FROM sync_outbox
WHERE status IN ('pending', 'failed')
ORDER BY next_attempt_at ASC, id ASC
LIMIT 1
`).Scan(&oldestID, &nextAt)
	if err == nil {
		summary.OldestPendingID = oldestID
		summary.OldestPendingAt = fromMillis(nextAt)
		return summary, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return summary, nil
	}
	return storage.SyncSummary{}, fmt.Errorf("query oldest pending sync item: %w", err)
}

func scanSyncItem(row rowScanner) (storage.SyncItem, error) {
	var (
		item      storage.SyncItem
		nextAt    int64
		updatedAt int64
	)
	if err := row.Scan(
		&item.ID,
		&item.MatchID,
		&item.EventID,
		&item.Kind,
		&item.PayloadJSON,
		&item.Status,
		&item.AttemptCount,
		&nextAt,
		&item.LastError,
		&updatedAt,
	); err != nil {
		return storage.SyncItem{}, err
	}
	item.NextAttemptAt = fromMillis(nextAt)
	item.UpdatedAt = fromMillis(updatedAt)
	return item, nil
}

// SyncRetryBackoff computes exponential retry delay for a failed delivery,
// capped at five minutes.
func SyncRetryBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	backoff := time.Second << (attempt - 1)
	if backoff > 5*time.Minute {
		return 5 * time.Minute
	}
	return backoff
}
