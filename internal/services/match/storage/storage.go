// Package storage defines the persistence boundary for the match service:
// match metadata, the append-only shot event journal, and the sync outbox
// that ships recorded events to downstream consumers.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/sinkline/internal/platform/errors"
	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/rack"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// MatchRecord captures match metadata that APIs read: rosters, lifecycle
// phase, and the final outcome once complete.
type MatchRecord struct {
	ID           string
	GameType     string
	CupCount     rack.Size
	SideAPlayers []string
	SideBPlayers []string
	Phase        string
	Winner       board.Side
	ScoreA       int
	ScoreB       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// ShotEventRecord is one journal row. The post-shot board snapshot is stored
// as a JSON blob alongside the queryable columns; undone events stay in place
// with the flag set so history survives every rollback.
type ShotEventRecord struct {
	EventID      string
	MatchID      string
	Seq          int64
	At           time.Time
	Side         board.Side
	CupID        int
	PlayerHandle string
	PlayerID     string
	Kind         board.Kind
	GroupID      string
	Undone       bool
	RemainingA   int
	RemainingB   int
	SnapshotJSON []byte
}

// MatchPage describes a page of match records.
type MatchPage struct {
	Matches       []MatchRecord
	NextPageToken string
}

// MatchStore owns match metadata used by list/detail reads and lifecycle
// transitions.
type MatchStore interface {
	PutMatch(ctx context.Context, m MatchRecord) error
	GetMatch(ctx context.Context, id string) (MatchRecord, error)
	// CompleteMatch finalizes a match outcome. Returns ErrNotFound when the
	// match does not exist.
	CompleteMatch(ctx context.Context, id string, winner board.Side, scoreA, scoreB int, completedAt time.Time) error
	// ListMatches returns a page of match records starting after the page token.
	ListMatches(ctx context.Context, pageSize int, pageToken string) (MatchPage, error)
}

// ListShotEventsRequest describes filters for journal history reads.
type ListShotEventsRequest struct {
	// MatchID scopes the query to one match (required).
	MatchID string
	// IncludeUndone returns soft-deleted events too when true.
	IncludeUndone bool
	// FilterClause is an optional SQL WHERE clause fragment produced by the
	// filter compiler.
	FilterClause string
	// FilterParams are the positional parameters for the filter clause.
	FilterParams []any
	// PageSize is the maximum number of events to return (default 50, max 200).
	PageSize int
	// AfterSeq returns only events with seq greater than this value.
	AfterSeq int64
}

// ListShotEventsResult is a page of journal rows in seq order.
type ListShotEventsResult struct {
	Events      []ShotEventRecord
	HasNextPage bool
	TotalCount  int
}

// ShotEventStore owns the append-only journal that drives board
// reconstruction; this is the source of truth for match state.
type ShotEventStore interface {
	// AppendShotEvent appends one journal row. Re-appending an event id is a
	// no-op so recorder retries stay idempotent.
	AppendShotEvent(ctx context.Context, rec ShotEventRecord) error
	// MarkShotEventUndone flips the soft-delete flag. Returns ErrNotFound
	// when the event does not exist.
	MarkShotEventUndone(ctx context.Context, eventID string, undoneAt time.Time) error
	// ReplaceShotSnapshots rewrites the stored snapshot and remaining counts
	// on the named events without touching their undone flags. Used for
	// redemption restores and reracks.
	ReplaceShotSnapshots(ctx context.Context, eventIDs []string, snapshotJSON []byte, remainingA, remainingB int) error
	// ListShotEvents returns every journal row for a match in seq order,
	// undone rows included.
	ListShotEvents(ctx context.Context, matchID string) ([]ShotEventRecord, error)
	// ListShotEventsPage returns a filtered page of journal rows.
	ListShotEventsPage(ctx context.Context, req ListShotEventsRequest) (ListShotEventsResult, error)
}

// Sync item kinds. Each recorded action enqueues one outbox row describing
// what downstream consumers must learn about.
const (
	SyncKindMatchCreated     = "match_created"
	SyncKindShotRecorded     = "shot_recorded"
	SyncKindEventUndone      = "event_undone"
	SyncKindSnapshotReplaced = "snapshot_replaced"
	SyncKindMatchCompleted   = "match_completed"
)

// SyncItem is one outbox row awaiting delivery to a downstream sink.
type SyncItem struct {
	ID            int64
	MatchID       string
	EventID       string
	Kind          string
	PayloadJSON   []byte
	Status        string
	AttemptCount  int
	NextAttemptAt time.Time
	LastError     string
	UpdatedAt     time.Time
}

// SyncSummary reports outbox depth by status and the oldest retry-eligible row.
type SyncSummary struct {
	PendingCount    int
	ProcessingCount int
	FailedCount     int
	DeadCount       int
	OldestPendingID int64
	OldestPendingAt time.Time
}

// SyncStore owns the sync outbox. Rows are claimed with a processing lease so
// a crashed forwarder never strands work; exhausted rows dead-letter instead
// of retrying forever.
type SyncStore interface {
	// EnqueueSyncItem adds one pending outbox row.
	EnqueueSyncItem(ctx context.Context, matchID, eventID, kind string, payloadJSON []byte, now time.Time) error
	// ClaimDueSyncItems claims up to limit due rows, marking them processing.
	// Stale processing rows whose lease expired are reclaimed too.
	ClaimDueSyncItems(ctx context.Context, now time.Time, limit int) ([]SyncItem, error)
	// MarkSyncItemRetry requeues a claimed row for a later attempt, or
	// dead-letters it once the attempt budget is exhausted.
	MarkSyncItemRetry(ctx context.Context, id int64, attempt int, nextAttemptAt time.Time, lastError string, now time.Time) error
	// CompleteSyncItem removes a delivered row.
	CompleteSyncItem(ctx context.Context, id int64) error
	// RequeueDeadSyncItems transitions up to limit dead rows back to pending.
	RequeueDeadSyncItems(ctx context.Context, limit int, now time.Time) (int, error)
	// GetSyncSummary returns queue depth by status.
	GetSyncSummary(ctx context.Context) (SyncSummary, error)
}

// Store is the composite interface for all match persistence concerns.
type Store interface {
	MatchStore
	ShotEventStore
	SyncStore
	Close() error
}
