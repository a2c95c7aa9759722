package service

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cartograph/cartograph/pkg/chat"
	"github.com/cartograph/cartograph/pkg/orchestrator"
)

/*
streamSink adapts the loop's event sink onto a single SSE consumer. Each
event is written as

	event: {name}
	data: {json}

in transition order, from the loop goroutine only. The first failed write
marks the consumer gone and every later event is abandoned; that is safe
because server-tool side effects are purely computational, there is nothing
external to roll back.
*/
type streamSink struct {
	mu      sync.Mutex
	out     io.Writer
	flush   func()
	session string
	failed  bool
}

func newStreamSink(out io.Writer, flush func(), sessionID string) *streamSink {
	if flush == nil {
		flush = func() {}
	}
	return &streamSink{out: out, flush: flush, session: sessionID}
}

func (sink *streamSink) emit(name string, payload any) {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if sink.failed {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal stream event", "event", name, "error", err)
		return
	}

	if _, err := io.WriteString(sink.out, "event: "+name+"\ndata: "+string(data)+"\n\n"); err != nil {
		log.Warn("stream consumer gone, abandoning writes", "event", name, "error", err)
		sink.failed = true
		return
	}
	sink.flush()
}

func (sink *streamSink) Start(sessionID string) {
	sink.emit("start", map[string]string{"session_id": sessionID})
}

func (sink *streamSink) Iteration(n int) {
	sink.emit("iteration", map[string]int{"iteration": n})
}

func (sink *streamSink) Text(delta string) {
	sink.emit("text", map[string]string{"delta": delta})
}

func (sink *streamSink) ToolStart(call chat.ToolCall) {
	sink.emit("tool_start", map[string]any{"tool_call": fromToolCall(call)})
}

func (sink *streamSink) ToolResult(result chat.ToolResult) {
	sink.emit("tool_result", map[string]any{
		"tool_use_id": result.ToolUseID,
		"content":     result.Content,
	})
}

func (sink *streamSink) NeedsTool(call chat.ToolCall, queued []chat.ToolCall) {
	sink.emit("needs_tool", map[string]any{
		"tool_call":         fromToolCall(call),
		"queued_tool_calls": fromToolCalls(queued),
	})
}

func (sink *streamSink) Retry(attempt int, wait time.Duration) {
	sink.emit("retry", map[string]any{
		"attempt": attempt,
		"wait_ms": wait.Milliseconds(),
	})
}

func (sink *streamSink) Error(message string) {
	sink.emit("error", map[string]string{"message": message})
}

// End carries the full non-streaming response shape so a streaming
// consumer never needs a second request to learn how the run finished.
func (sink *streamSink) End(outcome *orchestrator.Outcome) {
	sink.emit("end", fromOutcome(outcome, sink.session))
}
