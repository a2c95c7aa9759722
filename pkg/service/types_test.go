package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartograph/cartograph/pkg/chat"
	"github.com/cartograph/cartograph/pkg/orchestrator"
)

func TestToolResultAcceptsObjectOrArray(t *testing.T) {
	var single ChatRequest
	require.NoError(t, json.Unmarshal([]byte(
		`{"tool_result": {"tool_use_id": "t1", "content": {"status": "created"}}}`,
	), &single))
	require.Len(t, single.ToolResult, 1)
	assert.Equal(t, "t1", single.ToolResult[0].ToolUseID)

	var batch ChatRequest
	require.NoError(t, json.Unmarshal([]byte(
		`{"tool_result": [{"tool_use_id": "t1", "content": {}}, {"tool_use_id": "t2", "content": {}}]}`,
	), &batch))
	require.Len(t, batch.ToolResult, 2)
	assert.Equal(t, "t2", batch.ToolResult[1].ToolUseID)

	var bad ChatRequest
	assert.Error(t, json.Unmarshal([]byte(`{"tool_result": 42}`), &bad))
}

func TestWireMessagesRoundTrip(t *testing.T) {
	transcript := []chat.Message{
		chat.NewUserText("hello"),
		{Role: chat.RoleAssistant, Blocks: []chat.Block{
			chat.TextBlock("adding it"),
			chat.ToolCallBlock(chat.ToolCall{ID: "t1", Name: "create_node", Input: json.RawMessage(`{"label":"ams"}`)}),
		}},
	}

	wire := fromMessages(transcript)
	require.Len(t, wire, 2)

	// Pure text collapses to {role, content}; mixed turns keep their blocks.
	assert.Equal(t, "hello", wire[0].Content)
	assert.Empty(t, wire[0].Blocks)
	assert.Empty(t, wire[1].Content)
	assert.Len(t, wire[1].Blocks, 2)

	assert.Equal(t, transcript, toMessages(wire))
}

func TestFromOutcomeSuspension(t *testing.T) {
	call := chat.ToolCall{ID: "t1", Name: "create_node", Input: json.RawMessage(`{}`)}
	queued := chat.ToolCall{ID: "t2", Name: "set_view", Input: json.RawMessage(`{}`)}

	resp := fromOutcome(&orchestrator.Outcome{
		Type:        orchestrator.OutcomeNeedsTool,
		ToolCall:    &call,
		Queued:      []chat.ToolCall{queued},
		PartialText: "working on it",
		Iterations:  2,
		Continuation: &orchestrator.Continuation{
			Messages: []chat.Message{chat.NewUserText("add two nodes")},
		},
	}, "sess-1")

	assert.Equal(t, "needs_tool", resp.Type)
	require.NotNil(t, resp.ToolCall)
	assert.Equal(t, "create_node", resp.ToolCall.Name)
	require.Len(t, resp.Queued, 1)
	assert.Equal(t, "set_view", resp.Queued[0].Name)
	assert.Equal(t, "working on it", resp.PartialText)
	assert.Len(t, resp.PartialMessages, 1)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.NotNil(t, resp.Actions)
}
