package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/rack"
	"github.com/louisbranch/sinkline/internal/services/match/storage"
)

// MatchStore methods

// PutMatch inserts or replaces a match record. Rosters are stored as JSON
// arrays in text columns.
func (s *Store) PutMatch(ctx context.Context, m storage.MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	playersA, err := json.Marshal(m.SideAPlayers)
	if err != nil {
		return fmt.Errorf("encode side a players: %w", err)
	}
	playersB, err := json.Marshal(m.SideBPlayers)
	if err != nil {
		return fmt.Errorf("encode side b players: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO matches (
	id, game_type, cup_count, side_a_players, side_b_players,
	phase, winner, score_a, score_b, created_at, updated_at, completed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	phase = excluded.phase,
	winner = excluded.winner,
	score_a = excluded.score_a,
	score_b = excluded.score_b,
	updated_at = excluded.updated_at,
	completed_at = excluded.completed_at
`,
		m.ID,
		m.GameType,
		int(m.CupCount),
		string(playersA),
		string(playersB),
		m.Phase,
		string(m.Winner),
		m.ScoreA,
		m.ScoreB,
		toMillis(m.CreatedAt),
		toMillis(m.UpdatedAt),
		toNullMillis(m.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("put match: %w", err)
	}
	return nil
}

// GetMatch retrieves one match record by id.
func (s *Store) GetMatch(ctx context.Context, id string) (storage.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MatchRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MatchRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, game_type, cup_count, side_a_players, side_b_players,
	phase, winner, score_a, score_b, created_at, updated_at, completed_at
FROM matches
WHERE id = ?
`, strings.TrimSpace(id))

	record, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.MatchRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.MatchRecord{}, fmt.Errorf("get match: %w", err)
	}
	return record, nil
}

// CompleteMatch finalizes a match outcome.
func (s *Store) CompleteMatch(ctx context.Context, id string, winner board.Side, scoreA, scoreB int, completedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE matches
SET phase = 'complete',
	winner = ?,
	score_a = ?,
	score_b = ?,
	updated_at = ?,
	completed_at = ?
WHERE id = ?
`,
		string(winner),
		scoreA,
		scoreB,
		toMillis(completedAt),
		toMillis(completedAt),
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("complete match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete match rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListMatches returns a newest-first page of match records. The page token is
// the last returned match id.
func (s *Store) ListMatches(ctx context.Context, pageSize int, pageToken string) (storage.MatchPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.MatchPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MatchPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.MatchPage{}, fmt.Errorf("page size must be greater than zero")
	}

	query := `
SELECT id, game_type, cup_count, side_a_players, side_b_players,
	phase, winner, score_a, score_b, created_at, updated_at, completed_at
FROM matches
`
	args := []any{}
	pageToken = strings.TrimSpace(pageToken)
	if pageToken != "" {
		query += `WHERE (created_at, id) < (SELECT created_at, id FROM matches WHERE id = ?)
`
		args = append(args, pageToken)
	}
	query += `ORDER BY created_at DESC, id DESC
LIMIT ?`
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.MatchPage{}, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	page := storage.MatchPage{Matches: make([]storage.MatchRecord, 0, pageSize)}
	for rows.Next() {
		record, err := scanMatch(rows)
		if err != nil {
			return storage.MatchPage{}, fmt.Errorf("scan match: %w", err)
		}
		page.Matches = append(page.Matches, record)
	}
	if err := rows.Err(); err != nil {
		return storage.MatchPage{}, fmt.Errorf("iterate matches: %w", err)
	}

	if len(page.Matches) > pageSize {
		page.Matches = page.Matches[:pageSize]
		page.NextPageToken = page.Matches[pageSize-1].ID
	}
	return page, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (storage.MatchRecord, error) {
	var (
		record      storage.MatchRecord
		cupCount    int
		playersA    string
		playersB    string
		winner      string
		createdAt   int64
		updatedAt   int64
		completedAt sql.NullInt64
	)
	if err := row.Scan(
		&record.ID,
		&record.GameType,
		&cupCount,
		&playersA,
		&playersB,
		&record.Phase,
		&winner,
		&record.ScoreA,
		&record.ScoreB,
		&createdAt,
		&updatedAt,
		&completedAt,
	); err != nil {
		return storage.MatchRecord{}, err
	}
	record.CupCount = rack.Size(cupCount)
	record.Winner = board.Side(winner)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	record.CompletedAt = fromNullMillis(completedAt)
	if err := json.Unmarshal([]byte(playersA), &record.SideAPlayers); err != nil {
		return storage.MatchRecord{}, fmt.Errorf("decode side a players: %w", err)
	}
	if err := json.Unmarshal([]byte(playersB), &record.SideBPlayers); err != nil {
		return storage.MatchRecord{}, fmt.Errorf("decode side b players: %w", err)
	}
	return record, nil
}
