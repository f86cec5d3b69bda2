package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"smartreminder/internal/core"
	"smartreminder/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "smartreminder"
	serverVersion = "1.0.0"
)

// Reminders is the reminder service the tools operate on.
type Reminders interface {
	List(ctx context.Context) ([]core.Task, error)
	AddPhrase(ctx context.Context, text, phrase string) (core.Task, int, error)
	Delete(ctx context.Context, id string) (core.Task, error)
	DeleteAt(ctx context.Context, index int) (core.Task, error)
	Preview(phrase string) (core.ClockTime, error)
}

// HistoryReader lists fired reminders, newest first.
type HistoryReader interface {
	ListFirings(ctx context.Context, limit, offset int) ([]*core.Firing, error)
}

// MCPServer exposes the reminder service as MCP tools.
type MCPServer struct {
	reminders Reminders
	history   HistoryReader
	logger    *slog.Logger
	location  *time.Location
	server    *server.MCPServer
	http      *server.StreamableHTTPServer
}

// NewMCPServer creates a new MCP server instance. history may be nil.
func NewMCPServer(reminders Reminders, history HistoryReader, logger *slog.Logger, location *time.Location) *MCPServer {
	if location == nil {
		location = time.Local
	}
	s := &MCPServer{
		reminders: reminders,
		history:   history,
		logger:    logger,
		location:  location,
	}
	s.server = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)
	s.registerTools(s.server)
	s.http = server.NewStreamableHTTPServer(s.server)
	return s
}

// Run serves the tools over stdio until the input closes.
func (s *MCPServer) Run() error {
	s.logger.Info("MCP server starting on stdio")
	return server.ServeStdio(s.server)
}

// ServeHTTP serves the streamable HTTP transport.
func (s *MCPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.http.ServeHTTP(w, r)
}

// registerTools registers all available MCP tools.
func (s *MCPServer) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("reminder_add",
		mcp.WithDescription("Schedule a reminder for a time of day. It fires once, at the next matching minute, with a desktop notification and speech."),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("What to be reminded about"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Time of day, e.g. '18:30', '6:30pm', '6 pm' or 'six thirty pm'"),
		),
	), s.handleAdd)

	mcpServer.AddTool(mcp.NewTool("reminder_list",
		mcp.WithDescription("List scheduled reminders in order, with their index and ID"),
	), s.handleList)

	mcpServer.AddTool(mcp.NewTool("reminder_delete",
		mcp.WithDescription("Delete a scheduled reminder by ID, or by zero-based index when no ID is given"),
		mcp.WithString("task_id",
			mcp.Description("Reminder ID"),
		),
		mcp.WithNumber("index",
			mcp.Description("Zero-based position as shown by reminder_list"),
			mcp.Min(0),
		),
	), s.handleDelete)

	mcpServer.AddTool(mcp.NewTool("reminder_parse_time",
		mcp.WithDescription("Show how a time phrase would be understood, without scheduling anything"),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Time phrase to parse"),
		),
	), s.handleParseTime)

	mcpServer.AddTool(mcp.NewTool("reminder_history",
		mcp.WithDescription("Show recently fired reminders and whether they were delivered"),
		mcp.WithNumber("limit",
			mcp.Description("Number of entries to return, default 20"),
			mcp.Min(1),
			mcp.Max(100),
		),
	), s.handleHistory)

	s.logger.Debug("MCP tools registered", "count", 5)
}

func (s *MCPServer) handleAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := mcp.ParseString(request, "task", "")
	phrase := mcp.ParseString(request, "time", "")

	task, index, err := s.reminders.AddPhrase(ctx, text, phrase)
	switch {
	case errors.Is(err, core.ErrEmptyText):
		return mcp.NewToolResultError("task text is required"), nil
	case errors.Is(err, core.ErrUnparseableTime):
		return mcp.NewToolResultError(fmt.Sprintf("could not understand the time %q", phrase)), nil
	case err != nil:
		s.logger.Error("add reminder", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reminder added\nID: %s\nIndex: %d\nTime: %s\nTask: %s",
		task.ID, index, task.Time, task.Text)), nil
}

func (s *MCPServer) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.reminders.List(ctx)
	if err != nil {
		s.logger.Error("list reminders", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reminders: %v", err)), nil
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultText("No reminders scheduled."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d reminder(s) scheduled (%s):\n\n", len(tasks), s.location)
	for i, t := range tasks {
		fmt.Fprintf(&b, "[%d] %s  %s\n    id: %s\n", i, t.Time, t.Text, t.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *MCPServer) handleDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := strings.TrimSpace(mcp.ParseString(request, "task_id", ""))
	index := int(mcp.ParseFloat64(request, "index", -1))

	var (
		task core.Task
		err  error
	)
	switch {
	case taskID != "":
		task, err = s.reminders.Delete(ctx, taskID)
	case index >= 0:
		task, err = s.reminders.DeleteAt(ctx, index)
	default:
		return mcp.NewToolResultError("either task_id or index is required"), nil
	}
	switch {
	case errors.Is(err, store.ErrTaskNotFound), errors.Is(err, store.ErrIndexOutOfRange):
		return mcp.NewToolResultError("reminder not found"), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reminder deleted: %s at %s (id %s)", task.Text, task.Time, task.ID)), nil
}

func (s *MCPServer) handleParseTime(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phrase := mcp.ParseString(request, "time", "")

	clock, err := s.reminders.Preview(phrase)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("could not understand the time %q", phrase)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%q -> %s", phrase, clock)), nil
}

func (s *MCPServer) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.history == nil {
		return mcp.NewToolResultError("reminder history is not enabled"), nil
	}
	limit := int(mcp.ParseFloat64(request, "limit", 20))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	firings, err := s.history.ListFirings(ctx, limit, 0)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read history: %v", err)), nil
	}
	if len(firings) == 0 {
		return mcp.NewToolResultText("No reminders have fired yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d fired reminder(s):\n\n", len(firings))
	for _, f := range firings {
		fmt.Fprintf(&b, "[%s] %s  %s\n    fired: %s\n",
			statusToIcon(f.Status), f.Time, f.Text, formatTime(f.FiredAt.In(s.location)))
		if f.NotifyError != nil {
			fmt.Fprintf(&b, "    notify error: %s\n", *f.NotifyError)
		}
		if f.SpeakError != nil {
			fmt.Fprintf(&b, "    speech error: %s\n", *f.SpeakError)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Helper functions

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func statusToIcon(status core.FiringStatus) string {
	switch status {
	case core.FiringStatusDelivered:
		return "✅"
	case core.FiringStatusPartial:
		return "⚠️"
	case core.FiringStatusFailed:
		return "❌"
	default:
		return "❓"
	}
}
