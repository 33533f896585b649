// Package mcp exposes match operations as MCP tools over stdio. Handlers
// call the in-process match service; rejections surface as tool errors
// prefixed with the structured error code.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MatchCreateInput represents the MCP tool input for starting a match.
type MatchCreateInput struct {
	GameType     string   `json:"game_type,omitempty" jsonschema:"game variant label (defaults to standard)"`
	CupCount     int      `json:"cup_count" jsonschema:"cups per side (6 or 10)"`
	SideAPlayers []string `json:"side_a_players" jsonschema:"side A roster"`
	SideBPlayers []string `json:"side_b_players" jsonschema:"side B roster"`
}

// MatchResult represents the MCP tool output describing one match.
type MatchResult struct {
	MatchID    string   `json:"match_id" jsonschema:"match identifier"`
	GameType   string   `json:"game_type" jsonschema:"game variant label"`
	CupCount   int      `json:"cup_count" jsonschema:"cups per side"`
	SideA      []string `json:"side_a_players" jsonschema:"side A roster"`
	SideB      []string `json:"side_b_players" jsonschema:"side B roster"`
	Phase      string   `json:"phase" jsonschema:"lifecycle phase (playing, redemption, complete)"`
	Loser      string   `json:"loser,omitempty" jsonschema:"side whose rack emptied, while redemption is open"`
	Winner     string   `json:"winner,omitempty" jsonschema:"final winner once complete"`
	ScoreA     int      `json:"score_a" jsonschema:"side A final score"`
	ScoreB     int      `json:"score_b" jsonschema:"side B final score"`
	RemainingA int      `json:"remaining_a" jsonschema:"side A standing cups"`
	RemainingB int      `json:"remaining_b" jsonschema:"side B standing cups"`
}

// MatchGetInput represents the MCP tool input for reading a match.
type MatchGetInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
}

// ShotRecordInput represents the MCP tool input for recording one action.
type ShotRecordInput struct {
	MatchID     string `json:"match_id" jsonschema:"match identifier"`
	Side        string `json:"side" jsonschema:"rack holding the target cup (A or B)"`
	CupID       int    `json:"cup_id" jsonschema:"target cup id"`
	Kind        string `json:"kind,omitempty" jsonschema:"shot kind (regular, bounce, grenade; defaults to regular)"`
	SecondCupID *int   `json:"second_cup_id,omitempty" jsonschema:"bounce companion cup id, required for bounce"`
	Player      string `json:"player,omitempty" jsonschema:"shooter display handle"`
	PlayerID    string `json:"player_id,omitempty" jsonschema:"shooter identifier"`
}

// ShotRecordResult represents the MCP tool output for a recorded action.
type ShotRecordResult struct {
	GroupID          string `json:"group_id" jsonschema:"composite group identifier"`
	Kind             string `json:"kind" jsonschema:"shot kind"`
	CupIDs           []int  `json:"cup_ids" jsonschema:"cups sunk by this action"`
	RemainingA       int    `json:"remaining_a" jsonschema:"side A standing cups"`
	RemainingB       int    `json:"remaining_b" jsonschema:"side B standing cups"`
	RedemptionOpened bool   `json:"redemption_opened" jsonschema:"true when this action emptied a rack"`
	Loser            string `json:"loser,omitempty" jsonschema:"side whose rack emptied"`
}

// ShotUndoInput represents the MCP tool input for undoing the last action.
type ShotUndoInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
}

// ShotUndoResult represents the MCP tool output for an undo.
type ShotUndoResult struct {
	Kind             string `json:"kind" jsonschema:"kind of the rolled-back group"`
	CupIDs           []int  `json:"cup_ids" jsonschema:"cups restored by the rollback"`
	RemainingA       int    `json:"remaining_a" jsonschema:"side A standing cups"`
	RemainingB       int    `json:"remaining_b" jsonschema:"side B standing cups"`
	RedemptionClosed bool   `json:"redemption_closed" jsonschema:"true when the rollback reopened the emptied rack"`
}

// UndoPeekInput represents the MCP tool input for inspecting undo state.
type UndoPeekInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
}

// UndoPeekResult represents the MCP tool output describing the last active group.
type UndoPeekResult struct {
	Available bool   `json:"available" jsonschema:"true when an undo target exists"`
	Kind      string `json:"kind,omitempty" jsonschema:"kind of the last active group"`
	CupIDs    []int  `json:"cup_ids,omitempty" jsonschema:"cups the group sank"`
	Player    string `json:"player,omitempty" jsonschema:"shooter handle"`
}

// RedemptionPlayOnInput represents the MCP tool input for a successful redemption.
type RedemptionPlayOnInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
}

// RedemptionPlayOnResult represents the MCP tool output for play-on.
type RedemptionPlayOnResult struct {
	RestoredCupIDs []int `json:"restored_cup_ids" jsonschema:"cups returned to the rack"`
	RemainingA     int   `json:"remaining_a" jsonschema:"side A standing cups"`
	RemainingB     int   `json:"remaining_b" jsonschema:"side B standing cups"`
}

// RedemptionWinInput represents the MCP tool input for finalizing a redemption win.
type RedemptionWinInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
}

// CompletionResult represents the MCP tool output for a finished match.
type CompletionResult struct {
	Winner string `json:"winner" jsonschema:"winning side"`
	ScoreA int    `json:"score_a" jsonschema:"side A final score"`
	ScoreB int    `json:"score_b" jsonschema:"side B final score"`
}

// SurrenderInput represents the MCP tool input for conceding a match.
type SurrenderInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
	Side    string `json:"side" jsonschema:"surrendering side (A or B)"`
}

// RerackInput represents the MCP tool input for reorganizing standing cups.
type RerackInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
	Side    string `json:"side" jsonschema:"side to rerack (A or B)"`
	Slots   []int  `json:"slots,omitempty" jsonschema:"target layout slots, front-packed when omitted"`
}

// RerackResult represents the MCP tool output for a rerack.
type RerackResult struct {
	StandingSlots []int `json:"standing_slots" jsonschema:"layout slots now holding standing cups"`
	RemainingA    int   `json:"remaining_a" jsonschema:"side A standing cups"`
	RemainingB    int   `json:"remaining_b" jsonschema:"side B standing cups"`
}

// BoardGetInput represents the MCP tool input for reading the board.
type BoardGetInput struct {
	MatchID string `json:"match_id" jsonschema:"match identifier"`
}

// CupState represents one cup in a board result.
type CupState struct {
	CupID  int    `json:"cup_id" jsonschema:"cup id"`
	Sunk   bool   `json:"sunk" jsonschema:"true when the cup is off the table"`
	SunkBy string `json:"sunk_by,omitempty" jsonschema:"handle of the shooter who sank it"`
	Kind   string `json:"kind,omitempty" jsonschema:"shot kind that sank it"`
}

// BoardResult represents the MCP tool output for the reconstructed board.
type BoardResult struct {
	Phase      string     `json:"phase" jsonschema:"lifecycle phase"`
	RemainingA int        `json:"remaining_a" jsonschema:"side A standing cups"`
	RemainingB int        `json:"remaining_b" jsonschema:"side B standing cups"`
	SideA      []CupState `json:"side_a" jsonschema:"side A rack"`
	SideB      []CupState `json:"side_b" jsonschema:"side B rack"`
}

// ShotListInput represents the MCP tool input for querying the shot journal.
type ShotListInput struct {
	MatchID       string `json:"match_id" jsonschema:"match identifier"`
	Filter        string `json:"filter,omitempty" jsonschema:"AIP-160 filter over side, kind, cup_id, player, group_id, undone, at"`
	IncludeUndone bool   `json:"include_undone,omitempty" jsonschema:"include rolled-back events"`
	PageSize      int    `json:"page_size,omitempty" jsonschema:"rows per page"`
	AfterSeq      int64  `json:"after_seq,omitempty" jsonschema:"resume after this journal sequence"`
}

// ShotEventResult represents one journal row in a list result.
type ShotEventResult struct {
	EventID    string `json:"event_id" jsonschema:"event identifier"`
	Seq        int64  `json:"seq" jsonschema:"journal sequence"`
	At         string `json:"at" jsonschema:"event timestamp (RFC 3339)"`
	Side       string `json:"side" jsonschema:"rack the cup belonged to"`
	CupID      int    `json:"cup_id" jsonschema:"sunk cup id"`
	Player     string `json:"player,omitempty" jsonschema:"shooter handle"`
	Kind       string `json:"kind" jsonschema:"shot kind"`
	GroupID    string `json:"group_id" jsonschema:"composite group identifier"`
	Undone     bool   `json:"undone" jsonschema:"true when rolled back"`
	RemainingA int    `json:"remaining_a" jsonschema:"side A standing cups after the event"`
	RemainingB int    `json:"remaining_b" jsonschema:"side B standing cups after the event"`
}

// ShotListResult represents the MCP tool output for a journal query.
type ShotListResult struct {
	Events      []ShotEventResult `json:"events" jsonschema:"matching journal rows"`
	HasNextPage bool              `json:"has_next_page" jsonschema:"true when more rows follow"`
	TotalCount  int               `json:"total_count" jsonschema:"total matching rows"`
}

// MatchCreateTool defines the MCP tool schema for starting a match.
func MatchCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_create",
		Description: "Starts a new two-sided cup match",
	}
}

// MatchGetTool defines the MCP tool schema for reading a match.
func MatchGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_get",
		Description: "Reads a match's phase, rosters, and board counts",
	}
}

// ShotRecordTool defines the MCP tool schema for recording an action.
func ShotRecordTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "shot_record",
		Description: "Records a regular, bounce, or grenade shot",
	}
}

// ShotUndoTool defines the MCP tool schema for undoing the last action.
func ShotUndoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "shot_undo",
		Description: "Rolls back the most recent action",
	}
}

// UndoPeekTool defines the MCP tool schema for inspecting undo state.
func UndoPeekTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "undo_peek",
		Description: "Describes the action an undo would roll back",
	}
}

// RedemptionPlayOnTool defines the MCP tool schema for a successful redemption.
func RedemptionPlayOnTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "redemption_play_on",
		Description: "Resolves a made redemption shot and resumes play",
	}
}

// RedemptionWinTool defines the MCP tool schema for finalizing a win.
func RedemptionWinTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "redemption_win",
		Description: "Finalizes the match after a missed redemption",
	}
}

// MatchSurrenderTool defines the MCP tool schema for conceding.
func MatchSurrenderTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "match_surrender",
		Description: "Ends the match immediately in the opponent's favor",
	}
}

// RackRerackTool defines the MCP tool schema for reorganizing cups.
func RackRerackTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "rack_rerack",
		Description: "Reassigns one side's standing cups onto fresh layout slots",
	}
}

// BoardGetTool defines the MCP tool schema for reading the board.
func BoardGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "board_get",
		Description: "Reconstructs the current two-sided board from the journal",
	}
}

// ShotListTool defines the MCP tool schema for querying the journal.
func ShotListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "shot_list",
		Description: "Lists journal rows, optionally narrowed by an AIP-160 filter",
	}
}
