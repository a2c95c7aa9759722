package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartograph/cartograph/pkg/chat"
	"github.com/cartograph/cartograph/pkg/orchestrator"
)

func TestStreamSinkWritesNamedEventsInOrder(t *testing.T) {
	var buf bytes.Buffer
	flushes := 0
	sink := newStreamSink(&buf, func() { flushes++ }, "sess-1")

	sink.Start("sess-1")
	sink.Iteration(1)
	sink.Text("hello")
	sink.Retry(1, 500*time.Millisecond)
	sink.End(&orchestrator.Outcome{Type: orchestrator.OutcomeFinal, Text: "done", Iterations: 1})

	events := parseEvents(t, buf.String())
	require.Len(t, events, 5)
	assert.Equal(t, []string{"start", "iteration", "text", "retry", "end"}, eventNames(events))
	assert.Equal(t, 5, flushes)

	assert.Equal(t, "hello", events[2].data["delta"])
	assert.Equal(t, float64(500), events[3].data["wait_ms"])
	assert.Equal(t, "final", events[4].data["type"])
	assert.Equal(t, "sess-1", events[4].data["session_id"])
}

func TestStreamSinkAbandonsAfterWriteFailure(t *testing.T) {
	out := &failingWriter{failAfter: 1}
	sink := newStreamSink(out, nil, "sess-1")

	sink.Start("sess-1")
	sink.Text("lost")
	sink.End(&orchestrator.Outcome{Type: orchestrator.OutcomeFinal})

	// Only the first write went through; the rest were abandoned silently.
	assert.Equal(t, 1, out.writes)
}

func TestStreamSinkNeedsToolPayload(t *testing.T) {
	var buf bytes.Buffer
	sink := newStreamSink(&buf, nil, "sess-1")

	sink.NeedsTool(
		chat.ToolCall{ID: "t1", Name: "create_node", Input: json.RawMessage(`{"label":"ams"}`)},
		[]chat.ToolCall{{ID: "t2", Name: "set_view", Input: json.RawMessage(`{}`)}},
	)

	events := parseEvents(t, buf.String())
	require.Len(t, events, 1)
	assert.Equal(t, "needs_tool", events[0].name)

	call := events[0].data["tool_call"].(map[string]any)
	assert.Equal(t, "create_node", call["name"])
	queued := events[0].data["queued_tool_calls"].([]any)
	require.Len(t, queued, 1)
}

type sseEvent struct {
	name string
	data map[string]any
}

func parseEvents(t *testing.T, raw string) []sseEvent {
	t.Helper()

	var events []sseEvent
	for _, frame := range strings.Split(strings.TrimSpace(raw), "\n\n") {
		if frame == "" {
			continue
		}
		lines := strings.SplitN(frame, "\n", 2)
		require.Len(t, lines, 2)
		require.True(t, strings.HasPrefix(lines[0], "event: "))
		require.True(t, strings.HasPrefix(lines[1], "data: "))

		var data map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &data))
		events = append(events, sseEvent{
			name: strings.TrimPrefix(lines[0], "event: "),
			data: data,
		})
	}
	return events
}

func eventNames(events []sseEvent) []string {
	names := make([]string, len(events))
	for i, evt := range events {
		names[i] = evt.name
	}
	return names
}

type failingWriter struct {
	failAfter int
	writes    int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.writes >= w.failAfter {
		return 0, fmt.Errorf("consumer gone")
	}
	w.writes++
	return len(p), nil
}
