package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/sinkline/internal/services/match/app"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "sinkline-match"
	serverVersion = "0.1.0"
)

// Server hosts the match MCP tools.
type Server struct {
	mcpServer *mcp.Server
	service   *app.Service
}

// NewServer binds every match tool to the given service.
func NewServer(service *app.Service) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(mcpServer, MatchCreateTool(), MatchCreateHandler(service))
	mcp.AddTool(mcpServer, MatchGetTool(), MatchGetHandler(service))
	mcp.AddTool(mcpServer, ShotRecordTool(), ShotRecordHandler(service))
	mcp.AddTool(mcpServer, ShotUndoTool(), ShotUndoHandler(service))
	mcp.AddTool(mcpServer, UndoPeekTool(), UndoPeekHandler(service))
	mcp.AddTool(mcpServer, RedemptionPlayOnTool(), RedemptionPlayOnHandler(service))
	mcp.AddTool(mcpServer, RedemptionWinTool(), RedemptionWinHandler(service))
	mcp.AddTool(mcpServer, MatchSurrenderTool(), MatchSurrenderHandler(service))
	mcp.AddTool(mcpServer, RackRerackTool(), RackRerackHandler(service))
	mcp.AddTool(mcpServer, BoardGetTool(), BoardGetHandler(service))
	mcp.AddTool(mcpServer, ShotListTool(), ShotListHandler(service))

	return &Server{mcpServer: mcpServer, service: service}
}

// Serve runs the MCP server on stdio and blocks until it stops or the
// context ends. A context cancellation is a clean stop, not an error.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
