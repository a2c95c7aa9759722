package provider

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"

	"github.com/cartograph/cartograph/pkg/chat"
	"github.com/cartograph/cartograph/pkg/tools"
)

/*
AnthropicProvider is a Completer backed by the Anthropic Messages API.
*/
type AnthropicProvider struct {
	client *anthropic.Client
}

type AnthropicProviderOption func(*AnthropicProvider)

func NewAnthropicProvider(options ...AnthropicProviderOption) *AnthropicProvider {
	prvdr := &AnthropicProvider{}

	for _, option := range options {
		option(prvdr)
	}

	if prvdr.client == nil {
		WithAnthropicClient()(prvdr)
	}

	return prvdr
}

func WithAnthropicClient() AnthropicProviderOption {
	return func(prvdr *AnthropicProvider) {
		client := anthropic.NewClient(
			option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
		)

		prvdr.client = &client
	}
}

func (prvdr *AnthropicProvider) Complete(
	ctx context.Context, params Params,
) (*Response, error) {
	message, err := prvdr.client.Messages.New(ctx, prvdr.convertParams(params))
	if err != nil {
		return nil, err
	}

	return convertResponse(message), nil
}

func (prvdr *AnthropicProvider) Stream(
	ctx context.Context, params Params, onText func(string),
) (*Response, error) {
	stream := prvdr.client.Messages.NewStreaming(ctx, prvdr.convertParams(params))
	message := anthropic.Message{} // used by the accumulator

	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			log.Error("failed to accumulate message event", "error", err)
			continue
		}

		switch event := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if event.Delta.Text != "" && onText != nil {
				onText(event.Delta.Text)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, err
	}

	return convertResponse(&message), nil
}

func (prvdr *AnthropicProvider) convertParams(params Params) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(params.Model),
		MaxTokens: params.MaxTokens,
		System: []anthropic.TextBlockParam{{
			Text: params.System,
		}},
		Messages: convertMessages(params.Messages),
		Tools:    convertTools(params.Tools),
	}
}

func convertMessages(messages []chat.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Blocks))

		for _, block := range msg.Blocks {
			switch block.Type {
			case chat.BlockTypeText:
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))
			case chat.BlockTypeToolCall:
				blocks = append(blocks, anthropic.NewToolUseBlock(
					block.ToolCall.ID,
					block.ToolCall.Input,
					block.ToolCall.Name,
				))
			case chat.BlockTypeToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(
					block.ToolResult.ToolUseID,
					string(block.ToolResult.Content),
					isErrorResult(block.ToolResult.Content),
				))
			}
		}

		if len(blocks) == 0 {
			continue
		}

		if msg.Role == chat.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}

	return out
}

func convertTools(defs []tools.Definition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))

	for _, def := range defs {
		toolParam := anthropic.ToolParam{
			Name:        def.Tool.Name,
			Description: anthropic.String(def.Tool.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: def.Tool.InputSchema.Properties,
			},
		}

		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}

	return out
}

func convertResponse(message *anthropic.Message) *Response {
	resp := &Response{
		Message: chat.Message{Role: chat.RoleAssistant},
		Stop:    StopKind(message.StopReason),
	}

	for _, block := range message.Content {
		switch contentBlock := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Message.Blocks = append(resp.Message.Blocks,
				chat.TextBlock(contentBlock.Text))
		case anthropic.ToolUseBlock:
			resp.Message.Blocks = append(resp.Message.Blocks,
				chat.ToolCallBlock(chat.ToolCall{
					ID:    contentBlock.ID,
					Name:  contentBlock.Name,
					Input: []byte(contentBlock.Input),
				}))
		}
	}

	return resp
}

// isErrorResult sniffs the structured error shape server tools produce so
// the API sees is_error on failed tool results.
func isErrorResult(content []byte) bool {
	var probe struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(content, &probe); err != nil {
		return false
	}
	return probe.Status == "error"
}

/*
IsRetryable reports whether an upstream failure is a transient overload
worth a bounded backoff retry: rate limiting, overloaded, timeouts and
server-side errors qualify, everything else is fatal for this request.
*/
func IsRetryable(err error) bool {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 408, apierr.StatusCode == 429:
			return true
		case apierr.StatusCode >= 500:
			return true
		}
		return false
	}
	return false
}
