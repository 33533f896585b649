package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/sinkline/internal/platform/errors"
	errcatalog "github.com/louisbranch/sinkline/internal/platform/errors/i18n"
	"github.com/louisbranch/sinkline/internal/services/match/app"
	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
	"github.com/louisbranch/sinkline/internal/services/match/domain/match"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// toolError flattens a service rejection into a tool error carrying the
// structured code and the message rendered for the service locale, e.g.
// "REDEMPTION_PENDING: Resolve redemption before the next shot". Codes the
// catalog does not know keep the internal message.
func toolError(locale string, err error) error {
	e := apperrors.AsError(err)
	message := errcatalog.GetCatalog(locale).Format(string(e.Code), e.Metadata)
	if message == string(e.Code) {
		message = e.Message
	}
	return fmt.Errorf("%s: %s", e.Code, message)
}

func parseSide(locale, raw string) (board.Side, error) {
	side := board.Side(strings.ToUpper(strings.TrimSpace(raw)))
	if !side.Valid() {
		return "", toolError(locale, apperrors.New(apperrors.CodeInvalidSide,
			fmt.Sprintf("side %q must be A or B", raw)))
	}
	return side, nil
}

func matchResult(info app.MatchInfo) MatchResult {
	return MatchResult{
		MatchID:    info.MatchID,
		GameType:   info.GameType,
		CupCount:   info.CupCount,
		SideA:      info.SideA,
		SideB:      info.SideB,
		Phase:      info.Phase,
		Loser:      info.Loser,
		Winner:     info.Winner,
		ScoreA:     info.ScoreA,
		ScoreB:     info.ScoreB,
		RemainingA: info.RemainingA,
		RemainingB: info.RemainingB,
	}
}

// MatchCreateHandler starts a new match.
func MatchCreateHandler(service *app.Service) mcp.ToolHandlerFor[MatchCreateInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchCreateInput) (*mcp.CallToolResult, MatchResult, error) {
		gameType := strings.TrimSpace(input.GameType)
		if gameType == "" {
			gameType = "standard"
		}
		info, err := service.CreateMatch(ctx, app.CreateMatchRequest{
			GameType:     gameType,
			CupCount:     input.CupCount,
			SideAPlayers: input.SideAPlayers,
			SideBPlayers: input.SideBPlayers,
		})
		if err != nil {
			return nil, MatchResult{}, toolError(service.Locale(), err)
		}
		return nil, matchResult(info), nil
	}
}

// MatchGetHandler reads a match.
func MatchGetHandler(service *app.Service) mcp.ToolHandlerFor[MatchGetInput, MatchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MatchGetInput) (*mcp.CallToolResult, MatchResult, error) {
		info, err := service.GetMatch(ctx, input.MatchID)
		if err != nil {
			return nil, MatchResult{}, toolError(service.Locale(), err)
		}
		return nil, matchResult(info), nil
	}
}

// ShotRecordHandler records one action.
func ShotRecordHandler(service *app.Service) mcp.ToolHandlerFor[ShotRecordInput, ShotRecordResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ShotRecordInput) (*mcp.CallToolResult, ShotRecordResult, error) {
		side, err := parseSide(service.Locale(), input.Side)
		if err != nil {
			return nil, ShotRecordResult{}, err
		}
		kind := board.Kind(strings.ToLower(strings.TrimSpace(input.Kind)))
		if kind == "" {
			kind = board.KindRegular
		}
		result, err := service.RecordShot(ctx, input.MatchID, match.ShotRequest{
			Side:         side,
			CupID:        input.CupID,
			PlayerHandle: input.Player,
			PlayerID:     input.PlayerID,
			Kind:         kind,
			SecondCupID:  input.SecondCupID,
		})
		if err != nil {
			return nil, ShotRecordResult{}, toolError(service.Locale(), err)
		}
		return nil, ShotRecordResult{
			GroupID:          result.Group.GroupID,
			Kind:             string(result.Group.Kind),
			CupIDs:           result.Group.CupIDs(),
			RemainingA:       result.RemainingA,
			RemainingB:       result.RemainingB,
			RedemptionOpened: result.RedemptionOpened,
			Loser:            string(result.Loser),
		}, nil
	}
}

// ShotUndoHandler rolls back the last action.
func ShotUndoHandler(service *app.Service) mcp.ToolHandlerFor[ShotUndoInput, ShotUndoResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ShotUndoInput) (*mcp.CallToolResult, ShotUndoResult, error) {
		result, err := service.Undo(ctx, input.MatchID)
		if err != nil {
			return nil, ShotUndoResult{}, toolError(service.Locale(), err)
		}
		return nil, ShotUndoResult{
			Kind:             string(result.Group.Kind),
			CupIDs:           result.Group.CupIDs(),
			RemainingA:       result.RemainingA,
			RemainingB:       result.RemainingB,
			RedemptionClosed: result.RedemptionClosed,
		}, nil
	}
}

// UndoPeekHandler describes the action an undo would roll back.
func UndoPeekHandler(service *app.Service) mcp.ToolHandlerFor[UndoPeekInput, UndoPeekResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input UndoPeekInput) (*mcp.CallToolResult, UndoPeekResult, error) {
		group, ok, err := service.LastActiveGroup(ctx, input.MatchID)
		if err != nil {
			return nil, UndoPeekResult{}, toolError(service.Locale(), err)
		}
		if !ok {
			return nil, UndoPeekResult{}, nil
		}
		result := UndoPeekResult{
			Available: true,
			Kind:      string(group.Kind),
			CupIDs:    group.CupIDs(),
		}
		if len(group.Events) > 0 {
			result.Player = group.Events[0].PlayerHandle
		}
		return nil, result, nil
	}
}

// RedemptionPlayOnHandler resolves a made redemption shot.
func RedemptionPlayOnHandler(service *app.Service) mcp.ToolHandlerFor[RedemptionPlayOnInput, RedemptionPlayOnResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RedemptionPlayOnInput) (*mcp.CallToolResult, RedemptionPlayOnResult, error) {
		result, err := service.RedemptionPlayOn(ctx, input.MatchID)
		if err != nil {
			return nil, RedemptionPlayOnResult{}, toolError(service.Locale(), err)
		}
		return nil, RedemptionPlayOnResult{
			RestoredCupIDs: result.CupIDs,
			RemainingA:     result.RemainingA,
			RemainingB:     result.RemainingB,
		}, nil
	}
}

// RedemptionWinHandler finalizes the match after a missed redemption.
func RedemptionWinHandler(service *app.Service) mcp.ToolHandlerFor[RedemptionWinInput, CompletionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RedemptionWinInput) (*mcp.CallToolResult, CompletionResult, error) {
		completion, err := service.RedemptionWin(ctx, input.MatchID)
		if err != nil {
			return nil, CompletionResult{}, toolError(service.Locale(), err)
		}
		return nil, CompletionResult{
			Winner: string(completion.Winner),
			ScoreA: completion.ScoreA,
			ScoreB: completion.ScoreB,
		}, nil
	}
}

// MatchSurrenderHandler ends the match in the opponent's favor.
func MatchSurrenderHandler(service *app.Service) mcp.ToolHandlerFor[SurrenderInput, CompletionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SurrenderInput) (*mcp.CallToolResult, CompletionResult, error) {
		side, err := parseSide(service.Locale(), input.Side)
		if err != nil {
			return nil, CompletionResult{}, err
		}
		completion, err := service.Surrender(ctx, input.MatchID, side)
		if err != nil {
			return nil, CompletionResult{}, toolError(service.Locale(), err)
		}
		return nil, CompletionResult{
			Winner: string(completion.Winner),
			ScoreA: completion.ScoreA,
			ScoreB: completion.ScoreB,
		}, nil
	}
}

// RackRerackHandler reassigns one side's standing cups.
func RackRerackHandler(service *app.Service) mcp.ToolHandlerFor[RerackInput, RerackResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RerackInput) (*mcp.CallToolResult, RerackResult, error) {
		side, err := parseSide(service.Locale(), input.Side)
		if err != nil {
			return nil, RerackResult{}, err
		}
		result, err := service.Rerack(ctx, input.MatchID, side, input.Slots)
		if err != nil {
			return nil, RerackResult{}, toolError(service.Locale(), err)
		}
		standing := make([]int, 0, result.Snapshot.Remaining(side))
		for _, cup := range result.Snapshot.Side(side) {
			if !cup.Sunk {
				standing = append(standing, cup.ID)
			}
		}
		return nil, RerackResult{
			StandingSlots: standing,
			RemainingA:    result.RemainingA,
			RemainingB:    result.RemainingB,
		}, nil
	}
}

func cupStates(cups board.Board) []CupState {
	states := make([]CupState, 0, len(cups))
	for _, cup := range cups {
		states = append(states, CupState{
			CupID:  cup.ID,
			Sunk:   cup.Sunk,
			SunkBy: cup.SunkBy,
			Kind:   string(cup.ShotKind),
		})
	}
	return states
}

// BoardGetHandler reconstructs the current board.
func BoardGetHandler(service *app.Service) mcp.ToolHandlerFor[BoardGetInput, BoardResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BoardGetInput) (*mcp.CallToolResult, BoardResult, error) {
		info, err := service.GetMatch(ctx, input.MatchID)
		if err != nil {
			return nil, BoardResult{}, toolError(service.Locale(), err)
		}
		return nil, BoardResult{
			Phase:      info.Phase,
			RemainingA: info.RemainingA,
			RemainingB: info.RemainingB,
			SideA:      cupStates(info.Board.SideA),
			SideB:      cupStates(info.Board.SideB),
		}, nil
	}
}

// ShotListHandler queries the shot journal.
func ShotListHandler(service *app.Service) mcp.ToolHandlerFor[ShotListInput, ShotListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ShotListInput) (*mcp.CallToolResult, ShotListResult, error) {
		page, err := service.ListShots(ctx, app.ListShotsRequest{
			MatchID:       input.MatchID,
			Filter:        input.Filter,
			IncludeUndone: input.IncludeUndone,
			PageSize:      input.PageSize,
			AfterSeq:      input.AfterSeq,
		})
		if err != nil {
			return nil, ShotListResult{}, toolError(service.Locale(), err)
		}
		events := make([]ShotEventResult, 0, len(page.Events))
		for _, evt := range page.Events {
			events = append(events, ShotEventResult{
				EventID:    evt.EventID,
				Seq:        evt.Seq,
				At:         evt.At.UTC().Format(time.RFC3339),
				Side:       string(evt.Side),
				CupID:      evt.CupID,
				Player:     evt.PlayerHandle,
				Kind:       string(evt.Kind),
				GroupID:    evt.GroupID,
				Undone:     evt.Undone,
				RemainingA: evt.RemainingA,
				RemainingB: evt.RemainingB,
			})
		}
		return nil, ShotListResult{
			Events:      events,
			HasNextPage: page.HasNextPage,
			TotalCount:  page.TotalCount,
		}, nil
	}
}
