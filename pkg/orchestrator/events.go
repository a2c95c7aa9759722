package orchestrator

import (
	"time"

	"github.com/cartograph/cartograph/pkg/chat"
)

/*
EventSink mirrors every internal transition of the loop as a named, ordered
event. The streaming transport implements it over a persistent output
channel; the non-streaming path uses NopSink. Sinks are invoked from the
loop goroutine only, in transition order, and End is always the last call.
*/
type EventSink interface {
	Start(sessionID string)
	Iteration(n int)
	Text(delta string)
	ToolStart(call chat.ToolCall)
	ToolResult(result chat.ToolResult)
	NeedsTool(call chat.ToolCall, queued []chat.ToolCall)
	Retry(attempt int, wait time.Duration)
	Error(message string)
	End(outcome *Outcome)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Start(string)                             {}
func (NopSink) Iteration(int)                            {}
func (NopSink) Text(string)                              {}
func (NopSink) ToolStart(chat.ToolCall)                  {}
func (NopSink) ToolResult(chat.ToolResult)               {}
func (NopSink) NeedsTool(chat.ToolCall, []chat.ToolCall) {}
func (NopSink) Retry(int, time.Duration)                 {}
func (NopSink) Error(string)                             {}
func (NopSink) End(*Outcome)                             {}
