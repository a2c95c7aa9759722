package service

import (
	"encoding/json"
	"fmt"

	"github.com/cartograph/cartograph/pkg/chat"
	"github.com/cartograph/cartograph/pkg/orchestrator"
)

/*
ChatRequest is the wire shape of one call into the loop. Exactly one of
Message or ToolResult drives it: a message starts a new user turn, a tool
result resumes the suspended conversation carried in ConversationHistory
(or in the cached session when SessionID is set and no history is sent).
*/
type ChatRequest struct {
	Message      string          `json:"message,omitempty"`
	History      []WireMessage   `json:"conversation_history,omitempty"`
	DiagramState json.RawMessage `json:"diagram_state,omitempty"`
	ToolResult   ToolResults     `json:"tool_result,omitempty"`
	SessionID    string          `json:"session_id,omitempty"`
	Stream       bool            `json:"stream,omitempty"`
}

/*
WireMessage is one transcript entry on the wire. Plain text turns travel as
{role, content}; turns carrying tool invocations or results travel with
their full block list, which callers echo back verbatim when resuming.
*/
type WireMessage struct {
	Role    string       `json:"role"`
	Content string       `json:"content,omitempty"`
	Blocks  []chat.Block `json:"blocks,omitempty"`
}

// WireToolCall is a client tool invocation as the canvas receives it.
type WireToolCall struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params"`
}

// WireToolResult is the canvas's answer to one tool call. Content is
// opaque JSON forwarded to the model without interpretation.
type WireToolResult struct {
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
}

/*
ToolResults accepts the tool_result field as either a single object or an
array, since the canvas sends one result for a lone call but a batch when
it drained the queue in one go.
*/
type ToolResults []WireToolResult

func (results *ToolResults) UnmarshalJSON(data []byte) error {
	trimmed := firstNonSpace(data)

	switch trimmed {
	case '[':
		var list []WireToolResult
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*results = list
		return nil
	case '{':
		var single WireToolResult
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*results = ToolResults{single}
		return nil
	case 'n':
		*results = nil
		return nil
	default:
		return fmt.Errorf("tool_result must be an object or an array")
	}
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

/*
ChatResponse is the wire shape of every non-streaming reply: a final
completion or a suspension asking the canvas to perform a client tool.
All paths produce it, including failures and the iteration cap.
*/
type ChatResponse struct {
	Type string `json:"type"`

	// Final fields.
	Text       string `json:"text,omitempty"`
	CapReached bool   `json:"max_iterations_reached,omitempty"`
	Failed     bool   `json:"failed,omitempty"`
	Diagnostic string `json:"diagnostic,omitempty"`

	// Suspension fields.
	ToolCall        *WireToolCall  `json:"tool_call,omitempty"`
	Queued          []WireToolCall `json:"queued_tool_calls,omitempty"`
	PartialText     string         `json:"partial_text,omitempty"`
	PartialMessages []WireMessage  `json:"partial_messages,omitempty"`

	Actions    []string `json:"actions"`
	Iterations int      `json:"iterations_used"`
	SessionID  string   `json:"session_id,omitempty"`
}

// toMessages converts wire history into the loop's transcript form.
func toMessages(wire []WireMessage) []chat.Message {
	if len(wire) == 0 {
		return nil
	}

	messages := make([]chat.Message, 0, len(wire))
	for _, msg := range wire {
		role := chat.Role(msg.Role)

		if len(msg.Blocks) > 0 {
			messages = append(messages, chat.Message{Role: role, Blocks: msg.Blocks})
			continue
		}
		messages = append(messages, chat.Message{
			Role:   role,
			Blocks: []chat.Block{chat.TextBlock(msg.Content)},
		})
	}
	return messages
}

// fromMessages renders a transcript for the wire, collapsing pure-text
// turns to {role, content} so callers without block awareness stay simple.
func fromMessages(messages []chat.Message) []WireMessage {
	if len(messages) == 0 {
		return nil
	}

	wire := make([]WireMessage, 0, len(messages))
	for _, msg := range messages {
		if isPlainText(msg) {
			wire = append(wire, WireMessage{Role: string(msg.Role), Content: msg.Text()})
			continue
		}
		wire = append(wire, WireMessage{Role: string(msg.Role), Blocks: msg.Blocks})
	}
	return wire
}

func isPlainText(msg chat.Message) bool {
	for _, block := range msg.Blocks {
		if block.Type != chat.BlockTypeText {
			return false
		}
	}
	return true
}

func toToolResults(wire ToolResults) []chat.ToolResult {
	if len(wire) == 0 {
		return nil
	}

	results := make([]chat.ToolResult, 0, len(wire))
	for _, result := range wire {
		results = append(results, chat.ToolResult{
			ToolUseID: result.ToolUseID,
			Content:   result.Content,
		})
	}
	return results
}

func fromToolCall(call chat.ToolCall) WireToolCall {
	return WireToolCall{ID: call.ID, Name: call.Name, Params: call.Input}
}

func fromToolCalls(calls []chat.ToolCall) []WireToolCall {
	if len(calls) == 0 {
		return nil
	}

	wire := make([]WireToolCall, 0, len(calls))
	for _, call := range calls {
		wire = append(wire, fromToolCall(call))
	}
	return wire
}

// fromOutcome converts the loop's outcome into the wire response.
func fromOutcome(outcome *orchestrator.Outcome, sessionID string) *ChatResponse {
	resp := &ChatResponse{
		Type:       string(outcome.Type),
		Text:       outcome.Text,
		CapReached: outcome.CapReached,
		Failed:     outcome.Failed,
		Diagnostic: outcome.Diagnostic,
		Actions:    outcome.Actions,
		Iterations: outcome.Iterations,
		SessionID:  sessionID,
	}

	if outcome.Actions == nil {
		resp.Actions = []string{}
	}

	if outcome.Type == orchestrator.OutcomeNeedsTool {
		if outcome.ToolCall != nil {
			call := fromToolCall(*outcome.ToolCall)
			resp.ToolCall = &call
		}
		resp.Queued = fromToolCalls(outcome.Queued)
		resp.PartialText = outcome.PartialText
		if outcome.Continuation != nil {
			resp.PartialMessages = fromMessages(outcome.Continuation.Messages)
		}
	}

	return resp
}
