package chat

import "encoding/json"

/*
ToolCall is a tool invocation requested by the model. Name determines which
side resolves it (server or canvas client); Input is the validated argument
payload exactly as the model produced it.
*/
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

/*
ToolResult is the single outcome fed back for a tool call. Content is
caller-opaque JSON: for client tools it includes an outcome discriminator
(created / already-existed / updated / removed) which the loop forwards
verbatim without interpreting.
*/
type ToolResult struct {
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
}

// ErrorResult wraps a failure message in the structured error shape server
// tools feed back to the model instead of aborting the loop.
func ErrorResult(toolUseID, message string) ToolResult {
	content, _ := json.Marshal(map[string]string{
		"status":  "error",
		"message": message,
	})
	return ToolResult{ToolUseID: toolUseID, Content: content}
}
