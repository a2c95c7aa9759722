package memory

import (
	"encoding/json"
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartograph/cartograph/pkg/chat"
)

func userMsg(i int) chat.Message {
	return chat.NewUserText(fmt.Sprintf("question %d", i))
}

func assistantMsg(i int) chat.Message {
	return chat.Message{
		Role:   chat.RoleAssistant,
		Blocks: []chat.Block{chat.TextBlock(fmt.Sprintf("answer %d", i))},
	}
}

func conversation(turns int) []chat.Message {
	var history []chat.Message
	for i := 0; i < turns; i++ {
		history = append(history, userMsg(i), assistantMsg(i))
	}
	return history
}

func TestCompactBelowThresholdUnchanged(t *testing.T) {
	c := NewCompactor()
	history := conversation(5) // 10 messages, threshold 20

	out, summary := c.Compact(history)
	assert.Nil(t, summary)
	assert.Equal(t, history, out)
}

func TestCompactAboveThreshold(t *testing.T) {
	c := NewCompactor()
	history := conversation(15) // 30 messages

	out, summary := c.Compact(history)
	require.NotNil(t, summary)
	assert.NotEmpty(t, summary.Text)

	// Exactly the most recent Verbatim messages survive, preceded by one
	// summary message.
	require.Len(t, out, c.Verbatim+1)
	assert.Equal(t, history[len(history)-c.Verbatim:], out[1:])
	assert.Contains(t, out[0].Text(), "question 0")
}

func TestCompactNeverSplitsToolPair(t *testing.T) {
	c := &Compactor{Threshold: 6, Verbatim: 2}

	input, _ := json.Marshal(map[string]string{"label": "core"})
	call := chat.ToolCall{ID: "call_9", Name: "create_node", Input: input}

	history := conversation(3) // 6 messages
	history = append(history,
		chat.Message{Role: chat.RoleAssistant, Blocks: []chat.Block{chat.ToolCallBlock(call)}},
		chat.Message{Role: chat.RoleUser, Blocks: []chat.Block{
			chat.ToolResultBlock(chat.ToolResult{ToolUseID: "call_9", Content: json.RawMessage(`{"status":"created"}`)}),
		}},
		assistantMsg(99),
	)
	// Naive boundary (len-2 = 7) would keep the tool result verbatim while
	// summarizing away its invocation.

	out, summary := c.Compact(history)
	require.NotNil(t, summary)

	var sawCall, sawResult bool
	for _, msg := range out {
		for _, block := range msg.Blocks {
			if block.Type == chat.BlockTypeToolCall {
				sawCall = true
			}
			if block.Type == chat.BlockTypeToolResult {
				sawResult = true
			}
		}
	}
	assert.Equal(t, sawCall, sawResult, "invocation and result must land on the same side of the boundary")
	assert.Empty(t, chat.PendingToolCalls(out))
}

func TestSummaryRecordsToolInvocations(t *testing.T) {
	c := &Compactor{Threshold: 4, Verbatim: 2}

	call := chat.ToolCall{ID: "call_1", Name: "run_pathfinder", Input: json.RawMessage(`{"source":"a","target":"b"}`)}
	history := []chat.Message{
		chat.NewUserText("find me a path"),
		{Role: chat.RoleAssistant, Blocks: []chat.Block{chat.ToolCallBlock(call)}},
		{Role: chat.RoleUser, Blocks: []chat.Block{
			chat.ToolResultBlock(chat.ToolResult{ToolUseID: "call_1", Content: json.RawMessage(`{"status":"ok"}`)}),
		}},
		assistantMsg(1),
		userMsg(2), assistantMsg(2), userMsg(3), assistantMsg(3),
	}

	_, summary := c.Compact(history)
	require.NotNil(t, summary)
	require.NotEmpty(t, summary.KeyFacts)
	assert.Contains(t, summary.KeyFacts[0], "run_pathfinder")
	assert.Contains(t, summary.Text, "find me a path")
}

func TestSummaryTruncatesLongSnippets(t *testing.T) {
	c := &Compactor{Threshold: 2, Verbatim: 1, SnippetLen: 10}

	long := "this user intent is much longer than ten characters"
	history := []chat.Message{
		chat.NewUserText(long),
		assistantMsg(0),
		userMsg(1), assistantMsg(1),
	}

	_, summary := c.Compact(history)
	require.NotNil(t, summary)
	assert.NotContains(t, summary.Text, long)
	assert.Contains(t, summary.Text, long[:10])
}

func TestSummarySnippetsStayValidUTF8(t *testing.T) {
	c := &Compactor{Threshold: 2, Verbatim: 1, SnippetLen: 10}

	// "routes a" is eight bytes, so a byte-index cut at ten lands inside
	// the three-byte arrow that follows.
	history := []chat.Message{
		chat.NewUserText("routes a→b→c→d please"),
		assistantMsg(0),
		userMsg(1), assistantMsg(1),
	}

	_, summary := c.Compact(history)
	require.NotNil(t, summary)
	assert.True(t, utf8.ValidString(summary.Text))
}
