// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the tracking operations for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mkoster/daymark/internal/models"
	"github.com/mkoster/daymark/internal/storage"
	"github.com/mkoster/daymark/internal/trackservice"
)

// Server wraps the MCP server with Daymark tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *trackservice.Service
	store storage.Provider
}

// New creates a new MCP server with all tracking tools registered.
func New(svc *trackservice.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"Daymark",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_daily_snapshot",
		mcp.WithDescription("Fetch the daily tracker payload for a date. "+
			"Trackers without an entry are seeded with their default value."),
		mcp.WithString("date", mcp.Description("ISO date YYYY-MM-DD (empty for today, US Eastern)")),
	), s.getDailySnapshot)

	s.mcp.AddTool(mcp.NewTool("get_global_snapshot",
		mcp.WithDescription("Fetch the rolling-history payload: per-day status, "+
			"recent wins, and completion rate for every tracker."),
		mcp.WithNumber("days", mcp.Description("Lookback window in days (empty for the configured default)")),
	), s.getGlobalSnapshot)

	s.mcp.AddTool(mcp.NewTool("log_entry",
		mcp.WithDescription("Record a value for one tracker on a date. "+
			"Values are coerced to the tracker's type: use true/false for "+
			"checkboxes, numbers for counters and scales, free text otherwise. "+
			"See the daymark://tracker-types resource for the type rules."),
		mcp.WithString("thing_id", mcp.Required(), mcp.Description("Tracker id")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value to record")),
		mcp.WithString("date", mcp.Description("ISO date YYYY-MM-DD (empty for today)")),
	), s.logEntry)

	s.mcp.AddTool(mcp.NewTool("list_things",
		mcp.WithDescription("List the tracker catalog: ids, labels, types, and targets."),
	), s.listThings)

	// Resource: tracker type rules.
	s.mcp.AddResource(
		mcp.NewResource("daymark://tracker-types", "Tracker Type Rules",
			mcp.WithResourceDescription("How each tracker type interprets values and computes status."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTrackerTypesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getDailySnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "")
	snap, err := s.svc.FetchDailySnapshot(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(snap, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getGlobalSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetFloat("days", 0)
	snap, err := s.svc.FetchGlobalSnapshot(ctx, int(days))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(snap, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) logEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	thingID, err := req.RequireString("thing_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date := req.GetString("date", "")

	snap, err := s.svc.PersistDailyEntries(ctx, date, []models.EntryUpdate{
		{ThingID: thingID, Value: value},
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for _, view := range snap.Trackers {
		if view.ID == thingID {
			out, _ := json.MarshalIndent(view, "", "  ")
			return mcp.NewToolResultText(string(out)), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("recorded %s for %s", value, thingID)), nil
}

func (s *Server) listThings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	things, err := s.store.ListThings(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	type item struct {
		ID     string      `json:"id"`
		Label  string      `json:"label"`
		Kind   models.Kind `json:"type"`
		Target *float64    `json:"target,omitempty"`
		Unit   string      `json:"unit,omitempty"`
	}
	items := make([]item, 0, len(things))
	for _, t := range things {
		items = append(items, item{ID: t.ID, Label: t.Label, Kind: t.Kind, Target: t.Target, Unit: t.Unit})
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readTrackerTypesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "daymark://tracker-types",
			MIMEType: "text/markdown",
			Text:     TrackerTypesGuide,
		},
	}, nil
}
