package chat

import "strings"

/*
Message represents one turn of the conversation between the user, the model
and the canvas. Content is an ordered sequence of blocks; a block is text, a
tool invocation or a tool result. Every tool invocation must be answered by
exactly one tool result, correlated by call identifier, before the
conversation can progress past it.
*/
type Message struct {
	Role   Role    `json:"role"`
	Blocks []Block `json:"blocks"`
}

// Role discriminates who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

/*
Block is a discriminated union over text, tool-call and tool-result content.
Exactly one of Text, ToolCall or ToolResult should be populated according to
Type; keeping all fields on one struct avoids custom JSON marshalling while
the continuation round-trips through the caller.
*/
type Block struct {
	Type BlockType `json:"type"`

	Text       string      `json:"text,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// BlockType is the discriminator for a Block union.
type BlockType string

const (
	BlockTypeText       BlockType = "text"
	BlockTypeToolCall   BlockType = "tool_call"
	BlockTypeToolResult BlockType = "tool_result"
)

func NewUserText(text string) Message {
	return Message{Role: RoleUser, Blocks: []Block{TextBlock(text)}}
}

func TextBlock(text string) Block {
	return Block{Type: BlockTypeText, Text: text}
}

func ToolCallBlock(call ToolCall) Block {
	return Block{Type: BlockTypeToolCall, ToolCall: &call}
}

func ToolResultBlock(result ToolResult) Block {
	return Block{Type: BlockTypeToolResult, ToolResult: &result}
}

// Text concatenates all text blocks of the message.
func (msg Message) Text() string {
	var sb strings.Builder

	for _, block := range msg.Blocks {
		if block.Type == BlockTypeText {
			sb.WriteString(block.Text)
		}
	}

	return sb.String()
}

// ToolCalls returns the tool invocations of the message in request order.
func (msg Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, block := range msg.Blocks {
		if block.Type == BlockTypeToolCall && block.ToolCall != nil {
			calls = append(calls, *block.ToolCall)
		}
	}
	return calls
}

/*
PendingToolCalls scans a message list for tool invocations that have no
corresponding tool result yet, in original request order. This is how a
suspended conversation re-derives its queued client calls on resumption: the
continuation is pure data, so the pending set is whatever the transcript
says is unanswered.
*/
func PendingToolCalls(messages []Message) []ToolCall {
	answered := make(map[string]bool)
	for _, msg := range messages {
		for _, block := range msg.Blocks {
			if block.Type == BlockTypeToolResult && block.ToolResult != nil {
				answered[block.ToolResult.ToolUseID] = true
			}
		}
	}

	var pending []ToolCall
	for _, msg := range messages {
		for _, block := range msg.Blocks {
			if block.Type == BlockTypeToolCall && block.ToolCall != nil && !answered[block.ToolCall.ID] {
				pending = append(pending, *block.ToolCall)
			}
		}
	}
	return pending
}
