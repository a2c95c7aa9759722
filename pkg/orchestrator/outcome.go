package orchestrator

import "github.com/cartograph/cartograph/pkg/chat"

// OutcomeType discriminates how a run ended: a natural (or capped, or
// failed) completion, or a suspension waiting on a client-side tool.
type OutcomeType string

const (
	OutcomeFinal     OutcomeType = "final"
	OutcomeNeedsTool OutcomeType = "needs_tool"
)

/*
Outcome is the single well-formed result shape every run produces. The loop
never propagates a raw failure past its own boundary: fatal upstream errors
and protocol violations still come back as a final-flavored outcome with
Failed set and a truncated diagnostic.
*/
type Outcome struct {
	Type OutcomeType `json:"type"`

	// Final fields.
	Text       string `json:"text,omitempty"`
	CapReached bool   `json:"max_iterations_reached,omitempty"`
	Failed     bool   `json:"failed,omitempty"`
	Diagnostic string `json:"diagnostic,omitempty"`

	// Suspension fields.
	ToolCall     *chat.ToolCall  `json:"tool_call,omitempty"`
	Queued       []chat.ToolCall `json:"queued_tool_calls,omitempty"`
	PartialText  string          `json:"partial_text,omitempty"`
	Continuation *Continuation   `json:"continuation,omitempty"`

	// Common fields.
	Actions    []string `json:"actions"`
	Iterations int      `json:"iterations_used"`

	// Transcript is the full message list at termination, used by the
	// transport to persist sessions. Not part of the wire shape.
	Transcript []chat.Message `json:"-"`
}

/*
Continuation is the serializable token that lets the loop resume after an
external round trip. It is pure data (message transcript, queued client
calls, accumulated action log) returned to the caller on suspension and
resubmitted with the tool result. Nothing stays open in-process; resuming a
continuation is indistinguishable from a run that never paused.
*/
type Continuation struct {
	Messages []chat.Message  `json:"messages"`
	Queued   []chat.ToolCall `json:"queued_tool_calls"`
	Actions  []string        `json:"actions"`
}
