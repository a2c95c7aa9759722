/*
Package provider wraps the LLM completion service behind a narrow contract:
a message list plus tool schemas in, an assistant turn plus a completion
signal out. The orchestration loop depends only on the Completer interface,
which keeps the loop testable against scripted fakes.
*/
package provider

import (
	"context"

	"github.com/cartograph/cartograph/pkg/chat"
	"github.com/cartograph/cartograph/pkg/tools"
)

// Params carries one model invocation: system context, full message list
// and the tool schemas the model may request.
type Params struct {
	Model     string
	MaxTokens int64
	System    string
	Messages  []chat.Message
	Tools     []tools.Definition
}

// StopKind is the completion signal of a model turn.
type StopKind string

const (
	StopEndTurn   StopKind = "end_turn"
	StopToolUse   StopKind = "tool_use"
	StopMaxTokens StopKind = "max_tokens"
	// Anything else is an unrecognized signal the loop salvages from.
)

// Response is one assistant turn: the converted message and its completion
// signal.
type Response struct {
	Message chat.Message
	Stop    StopKind
}

/*
Completer is the outbound contract to the completion service. Stream behaves
like Complete but invokes onText for each partial text delta before
returning the accumulated turn.
*/
type Completer interface {
	Complete(ctx context.Context, params Params) (*Response, error)
	Stream(ctx context.Context, params Params, onText func(string)) (*Response, error)
}
