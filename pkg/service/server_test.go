package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartograph/cartograph/pkg/chat"
	"github.com/cartograph/cartograph/pkg/orchestrator"
	"github.com/cartograph/cartograph/pkg/provider"
	"github.com/cartograph/cartograph/pkg/session"
	"github.com/cartograph/cartograph/pkg/tools"
)

type scriptedCompleter struct {
	steps []*provider.Response
	calls int
}

func (sc *scriptedCompleter) next() *provider.Response {
	if sc.calls >= len(sc.steps) {
		return &provider.Response{
			Message: chat.Message{Role: chat.RoleAssistant, Blocks: []chat.Block{chat.TextBlock("out of script")}},
			Stop:    provider.StopEndTurn,
		}
	}
	resp := sc.steps[sc.calls]
	sc.calls++
	return resp
}

func (sc *scriptedCompleter) Complete(context.Context, provider.Params) (*provider.Response, error) {
	return sc.next(), nil
}

func (sc *scriptedCompleter) Stream(_ context.Context, _ provider.Params, onText func(string)) (*provider.Response, error) {
	resp := sc.next()
	if text := resp.Message.Text(); text != "" && onText != nil {
		onText(text)
	}
	return resp, nil
}

func textTurn(text string) *provider.Response {
	return &provider.Response{
		Message: chat.Message{Role: chat.RoleAssistant, Blocks: []chat.Block{chat.TextBlock(text)}},
		Stop:    provider.StopEndTurn,
	}
}

func toolTurn(calls ...chat.ToolCall) *provider.Response {
	blocks := make([]chat.Block, len(calls))
	for i, call := range calls {
		blocks[i] = chat.ToolCallBlock(call)
	}
	return &provider.Response{
		Message: chat.Message{Role: chat.RoleAssistant, Blocks: blocks},
		Stop:    provider.StopToolUse,
	}
}

func testServer(t *testing.T, store session.Store, steps ...*provider.Response) *Server {
	t.Helper()

	registry, err := tools.Default(tools.Config{})
	require.NoError(t, err)

	engine := orchestrator.NewEngine(&scriptedCompleter{steps: steps}, registry)
	return NewServer(engine, WithStore(store))
}

func postJSON(t *testing.T, srv *Server, path string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) *ChatResponse {
	t.Helper()

	var out ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return &out
}

func TestChatNaturalCompletion(t *testing.T) {
	srv := testServer(t, session.NewMemoryStore(), textTurn("three nodes, two links"))

	resp := postJSON(t, srv, "/chat", ChatRequest{Message: "describe the diagram"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeResponse(t, resp)
	assert.Equal(t, "final", out.Type)
	assert.Equal(t, "three nodes, two links", out.Text)
	assert.Equal(t, 1, out.Iterations)
	assert.NotEmpty(t, out.SessionID, "a session id is minted when none is sent")
}

func TestChatSuspendAndResumeThroughSession(t *testing.T) {
	store := session.NewMemoryStore()
	srv := testServer(t, store,
		toolTurn(chat.ToolCall{ID: "t1", Name: "create_node", Input: json.RawMessage(`{"label":"ams"}`)}),
		textTurn("created the node"),
	)

	suspended := decodeResponse(t, postJSON(t, srv, "/chat", ChatRequest{
		Message:   "add an amsterdam node",
		SessionID: "sess-1",
	}))
	require.Equal(t, "needs_tool", suspended.Type)
	require.NotNil(t, suspended.ToolCall)
	assert.Equal(t, "create_node", suspended.ToolCall.Name)
	assert.Equal(t, "sess-1", suspended.SessionID)

	// The transcript was cached, so the resume can rely on the session alone.
	cached, ok, err := store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, cached.History)

	resumed := decodeResponse(t, postJSON(t, srv, "/chat", map[string]any{
		"session_id":  "sess-1",
		"tool_result": map[string]any{"tool_use_id": "t1", "content": map[string]string{"status": "created"}},
	}))
	assert.Equal(t, "final", resumed.Type)
	assert.Equal(t, "created the node", resumed.Text)
}

func TestResumeAnsweringEveryCallLeavesNoneCancelled(t *testing.T) {
	store := session.NewMemoryStore()
	srv := testServer(t, store,
		toolTurn(
			chat.ToolCall{ID: "c1", Name: "create_node", Input: json.RawMessage(`{"label":"ams"}`)},
			chat.ToolCall{ID: "c2", Name: "create_node", Input: json.RawMessage(`{"label":"nyc"}`)},
		),
		textTurn("both nodes created"),
	)

	suspended := decodeResponse(t, postJSON(t, srv, "/chat", ChatRequest{
		Message:   "add amsterdam and new york",
		SessionID: "sess-1",
	}))
	require.Equal(t, "needs_tool", suspended.Type)
	require.NotNil(t, suspended.ToolCall)
	require.Len(t, suspended.Queued, 1)

	// Answer the primary call and the queued one together, the way a
	// client is expected to drain a multi-call suspension.
	resumed := decodeResponse(t, postJSON(t, srv, "/chat", map[string]any{
		"session_id": "sess-1",
		"tool_result": []map[string]any{
			{"tool_use_id": suspended.ToolCall.ID, "content": map[string]string{"status": "created"}},
			{"tool_use_id": suspended.Queued[0].ID, "content": map[string]string{"status": "created"}},
		},
	}))
	require.Equal(t, "final", resumed.Type)

	cached, ok, err := store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	raw, err := json.Marshal(cached.History)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "cancelled")
}

func TestChatResumeCarriesSessionVersionForward(t *testing.T) {
	store, err := session.NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer store.Close()

	srv := testServer(t, store,
		toolTurn(chat.ToolCall{ID: "t1", Name: "create_node", Input: json.RawMessage(`{"label":"ams"}`)}),
		textTurn("created the node"),
	)

	suspended := decodeResponse(t, postJSON(t, srv, "/chat", ChatRequest{
		Message:   "add an amsterdam node",
		SessionID: "sess-1",
	}))
	require.Equal(t, "needs_tool", suspended.Type)

	// The resume re-reads the cached row and writes back against the
	// version it observed, so sequential turns never trip the conflict
	// check.
	resumed := decodeResponse(t, postJSON(t, srv, "/chat", map[string]any{
		"session_id":  "sess-1",
		"tool_result": map[string]any{"tool_use_id": "t1", "content": map[string]string{"status": "created"}},
	}))
	require.Equal(t, "final", resumed.Type)

	cached, ok, err := store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), cached.Version)
	assert.Equal(t, "created the node", cached.History[len(cached.History)-1].Text())
}

func TestChatStreamEmitsEventSequence(t *testing.T) {
	srv := testServer(t, session.NewMemoryStore(), textTurn("streamed answer"))

	resp := postJSON(t, srv, "/chat/stream", ChatRequest{Message: "hi", SessionID: "sess-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	events := parseEvents(t, string(body))
	assert.Equal(t, []string{"start", "iteration", "text", "end"}, eventNames(events))
	assert.Equal(t, "streamed answer", events[2].data["delta"])
	assert.Equal(t, "final", events[3].data["type"])
}

func TestChatRejectsEmptyRequest(t *testing.T) {
	srv := testServer(t, session.NewMemoryStore())

	resp := postJSON(t, srv, "/chat", ChatRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
