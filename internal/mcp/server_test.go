package mcp

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartreminder/internal/core"
	"smartreminder/internal/logging"
	"smartreminder/internal/notify"
	"smartreminder/internal/speech"
	"smartreminder/internal/store"
)

type fixture struct {
	server  *MCPServer
	service *core.Service
	history *store.History
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	tasks, err := store.OpenTaskFile(filepath.Join(dir, "tasks.json"))
	require.NoError(t, err)
	history, err := store.OpenHistory(context.Background(), dir, 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = history.Close() })

	logger := logging.Discard()
	alerter := core.NewAlerter(&notify.NoOpNotifier{}, speech.NoOpSpeaker{}, history, logger)
	svc := core.NewService(tasks, alerter, logger, time.UTC)
	return &fixture{
		server:  NewMCPServer(svc, history, logger, time.UTC),
		service: svc,
		history: history,
	}
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestAddListDelete(t *testing.T) {
	f := newFixture(t)

	out, isErr := call(t, f.server.handleAdd, map[string]any{"task": "call mom", "time": "6:30pm"})
	require.False(t, isErr, out)
	assert.Contains(t, out, "Time: 18:30")

	out, isErr = call(t, f.server.handleAdd, map[string]any{"task": "stretch", "time": "seven am"})
	require.False(t, isErr, out)

	out, _ = call(t, f.server.handleList, nil)
	assert.Contains(t, out, "[0] 18:30  call mom")
	assert.Contains(t, out, "[1] 07:00  stretch")

	tasks, err := f.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	out, isErr = call(t, f.server.handleDelete, map[string]any{"task_id": tasks[1].ID})
	require.False(t, isErr, out)
	assert.Contains(t, out, "stretch")

	out, isErr = call(t, f.server.handleDelete, map[string]any{"index": float64(0)})
	require.False(t, isErr, out)
	assert.Contains(t, out, "call mom")

	out, _ = call(t, f.server.handleList, nil)
	assert.Equal(t, "No reminders scheduled.", out)
}

func TestAddRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	out, isErr := call(t, f.server.handleAdd, map[string]any{"task": "x", "time": "whenever"})
	assert.True(t, isErr)
	assert.Contains(t, out, "could not understand the time")

	out, isErr = call(t, f.server.handleAdd, map[string]any{"task": "  ", "time": "18:00"})
	assert.True(t, isErr)
	assert.Contains(t, out, "task text is required")
}

func TestDeleteErrors(t *testing.T) {
	f := newFixture(t)

	out, isErr := call(t, f.server.handleDelete, map[string]any{})
	assert.True(t, isErr)
	assert.Contains(t, out, "either task_id or index")

	out, isErr = call(t, f.server.handleDelete, map[string]any{"task_id": "missing"})
	assert.True(t, isErr)
	assert.Equal(t, "reminder not found", out)

	out, isErr = call(t, f.server.handleDelete, map[string]any{"index": float64(3)})
	assert.True(t, isErr)
	assert.Equal(t, "reminder not found", out)
}

func TestParseTime(t *testing.T) {
	f := newFixture(t)

	out, isErr := call(t, f.server.handleParseTime, map[string]any{"time": "12am"})
	require.False(t, isErr)
	assert.Equal(t, `"12am" -> 00:00`, out)

	_, isErr = call(t, f.server.handleParseTime, map[string]any{"time": "soon"})
	assert.True(t, isErr)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)

	out, isErr := call(t, f.server.handleHistory, nil)
	require.False(t, isErr)
	assert.Equal(t, "No reminders have fired yet.", out)

	msg := "no display"
	require.NoError(t, f.history.InsertFiring(context.Background(), &core.Firing{
		ID:          core.NewID(),
		TaskID:      core.NewID(),
		Text:        "drink water",
		Time:        "10:15",
		Status:      core.FiringStatusPartial,
		FiredAt:     time.Date(2026, 3, 1, 10, 15, 3, 0, time.UTC),
		NotifyError: &msg,
	}))

	out, isErr = call(t, f.server.handleHistory, map[string]any{"limit": float64(5)})
	require.False(t, isErr)
	assert.Contains(t, out, "10:15  drink water")
	assert.Contains(t, out, "fired: 2026-03-01 10:15:03")
	assert.Contains(t, out, "notify error: no display")
}

func TestHistoryDisabled(t *testing.T) {
	f := newFixture(t)
	s := NewMCPServer(f.service, nil, logging.Discard(), time.UTC)

	_, isErr := call(t, s.handleHistory, nil)
	assert.True(t, isErr)
}

func TestNilLocationFallsBackToLocal(t *testing.T) {
	f := newFixture(t)
	s := NewMCPServer(f.service, f.history, logging.Discard(), nil)
	assert.Equal(t, time.Local, s.location)

	_, isErr := call(t, s.handleAdd, map[string]any{"task": "stretch", "time": "7am"})
	require.False(t, isErr)
	out, isErr := call(t, s.handleList, nil)
	require.False(t, isErr)
	assert.Contains(t, out, "stretch")
}
