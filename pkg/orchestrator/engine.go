/*
Package orchestrator drives the conversation between the user, the
completion service and the external canvas to completion. It classifies
each requested tool batch, resolves server-computable tools in place,
suspends across the stateless request boundary when a client-side action is
required, and resumes from a serialized continuation once the external
result arrives.
*/
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cartograph/cartograph/pkg/canvas"
	"github.com/cartograph/cartograph/pkg/chat"
	"github.com/cartograph/cartograph/pkg/errors"
	"github.com/cartograph/cartograph/pkg/memory"
	"github.com/cartograph/cartograph/pkg/observability"
	"github.com/cartograph/cartograph/pkg/provider"
	"github.com/cartograph/cartograph/pkg/tools"
)

const (
	// DefaultMaxIterations bounds total work: it is the only limit on a
	// model that perpetually requests new tool calls.
	DefaultMaxIterations = 10

	DefaultMaxTokens = 4096

	diagnosticLimit = 300

	capMessage      = "I reached the step limit for this request. The work done so far has been applied; ask me to continue if anything is missing."
	fallbackMessage = "I wasn't able to produce a response for this request."
)

// Config tunes one engine instance.
type Config struct {
	Model         string
	MaxTokens     int64
	MaxIterations int
	Retry         *errors.RetryConfig
}

/*
Engine is the orchestration state machine. It is stateless across requests:
everything a run needs arrives in the Request, and suspensions leave
nothing behind but the continuation handed to the caller.
*/
type Engine struct {
	completer   provider.Completer
	registry    *tools.Registry
	compactor   *memory.Compactor
	instruments *observability.Instruments
	cfg         Config
}

type EngineOption func(*Engine)

func NewEngine(completer provider.Completer, registry *tools.Registry, options ...EngineOption) *Engine {
	eng := &Engine{
		completer: completer,
		registry:  registry,
		compactor: memory.NewCompactor(),
		cfg: Config{
			MaxTokens:     DefaultMaxTokens,
			MaxIterations: DefaultMaxIterations,
		},
	}

	for _, option := range options {
		option(eng)
	}

	if eng.cfg.Retry == nil {
		eng.cfg.Retry = errors.DefaultRetryConfig()
	}

	return eng
}

func WithConfig(cfg Config) EngineOption {
	return func(eng *Engine) {
		if cfg.Model != "" {
			eng.cfg.Model = cfg.Model
		}
		if cfg.MaxTokens > 0 {
			eng.cfg.MaxTokens = cfg.MaxTokens
		}
		if cfg.MaxIterations > 0 {
			eng.cfg.MaxIterations = cfg.MaxIterations
		}
		if cfg.Retry != nil {
			eng.cfg.Retry = cfg.Retry
		}
	}
}

func WithCompactor(compactor *memory.Compactor) EngineOption {
	return func(eng *Engine) { eng.compactor = compactor }
}

func WithInstruments(ins *observability.Instruments) EngineOption {
	return func(eng *Engine) { eng.instruments = ins }
}

/*
Request is one call into the loop. Exactly one of Message or ToolResults
drives it: a new user turn starts an iteration from compacted history, a
tool result resumes the suspended continuation carried in History.
*/
type Request struct {
	SessionID   string
	System      string
	Message     string
	History     []chat.Message
	Snapshot    *canvas.Snapshot
	ToolResults []chat.ToolResult
	Stream      bool
}

/*
Run drives the loop until a natural completion, a suspension on a client
tool, the iteration cap, or a fatal upstream failure. Every path returns a
well-formed Outcome; the error return covers only invalid requests.
*/
func (eng *Engine) Run(ctx context.Context, req Request, sink EventSink) (*Outcome, error) {
	if sink == nil {
		sink = NopSink{}
	}
	if req.Snapshot == nil {
		req.Snapshot = &canvas.Snapshot{}
	}

	messages, err := eng.buildMessages(req)
	if err != nil {
		return nil, err
	}

	ctx, span := eng.instruments.StartRun(ctx, req.SessionID)
	defer span.End()

	sink.Start(req.SessionID)

	var (
		actions     []string
		partialText string
	)

	for iteration := 1; iteration <= eng.cfg.MaxIterations; iteration++ {
		sink.Iteration(iteration)
		eng.instruments.CountIteration(ctx)

		resp, err := eng.invoke(ctx, req, messages, sink)
		if err != nil {
			diagnostic := errors.Truncate(err.Error(), diagnosticLimit)
			log.Error("upstream failure", "iteration", iteration, "error", diagnostic)
			sink.Error(diagnostic)

			outcome := &Outcome{
				Type:       OutcomeFinal,
				Text:       "The request could not be completed due to an upstream failure.",
				Failed:     true,
				Diagnostic: diagnostic,
				Actions:    actions,
				Iterations: iteration,
				Transcript: messages,
			}
			sink.End(outcome)
			return outcome, nil
		}

		messages = append(messages, resp.Message)
		if text := resp.Message.Text(); text != "" {
			partialText += text
			if !req.Stream {
				sink.Text(text)
			}
		}

		switch resp.Stop {
		case provider.StopToolUse:
			calls := resp.Message.ToolCalls()
			if len(calls) == 0 {
				// Tool-use stop with no tool call is a protocol violation;
				// salvage whatever text is present.
				outcome := eng.salvage(resp, actions, iteration, messages)
				sink.End(outcome)
				return outcome, nil
			}

			serverCalls, clientCalls := eng.partition(ctx, calls)

			if len(serverCalls) > 0 {
				results := eng.resolveBatch(ctx, serverCalls, req.Snapshot, sink)
				blocks := make([]chat.Block, len(results))
				for i, result := range results {
					blocks[i] = chat.ToolResultBlock(result)
					actions = append(actions, describeCall(serverCalls[i]))
				}
				messages = append(messages, chat.Message{Role: chat.RoleUser, Blocks: blocks})
			}

			if len(clientCalls) > 0 {
				for _, call := range clientCalls {
					actions = append(actions, describeCall(call))
				}

				outcome := &Outcome{
					Type:        OutcomeNeedsTool,
					ToolCall:    &clientCalls[0],
					Queued:      clientCalls[1:],
					PartialText: partialText,
					Actions:     actions,
					Iterations:  iteration,
					Transcript:  messages,
					Continuation: &Continuation{
						Messages: messages,
						Queued:   clientCalls,
						Actions:  actions,
					},
				}
				sink.NeedsTool(clientCalls[0], clientCalls[1:])
				sink.End(outcome)
				return outcome, nil
			}

			// Whole batch resolved in place; back to the model.
			continue

		case provider.StopEndTurn:
			outcome := &Outcome{
				Type:       OutcomeFinal,
				Text:       resp.Message.Text(),
				Actions:    actions,
				Iterations: iteration,
				Transcript: messages,
			}
			sink.End(outcome)
			return outcome, nil

		default:
			outcome := eng.salvage(resp, actions, iteration, messages)
			sink.End(outcome)
			return outcome, nil
		}
	}

	outcome := &Outcome{
		Type:       OutcomeFinal,
		Text:       capMessage,
		CapReached: true,
		Actions:    actions,
		Iterations: eng.cfg.MaxIterations,
		Transcript: messages,
	}
	sink.End(outcome)
	return outcome, nil
}

/*
buildMessages assembles the transcript the first model call sees. A new
user turn compacts prior history and appends the message; a resumption
appends the supplied tool results to the continuation transcript, pairing
each pending call by identifier. Pending calls the caller did not answer
get an explicit cancelled result so the transcript stays replayable.
*/
func (eng *Engine) buildMessages(req Request) ([]chat.Message, error) {
	if len(req.ToolResults) > 0 {
		pending := chat.PendingToolCalls(req.History)
		if len(pending) == 0 {
			return nil, fmt.Errorf("tool result supplied but no tool call is pending")
		}

		supplied := make(map[string]chat.ToolResult, len(req.ToolResults))
		for _, result := range req.ToolResults {
			supplied[result.ToolUseID] = result
		}

		blocks := make([]chat.Block, 0, len(pending))
		for _, call := range pending {
			result, ok := supplied[call.ID]
			if !ok {
				log.Warn("pending tool call was not answered, recording as cancelled", "tool", call.Name, "id", call.ID)
				result = chat.ToolResult{
					ToolUseID: call.ID,
					Content:   json.RawMessage(`{"status":"cancelled"}`),
				}
			}
			blocks = append(blocks, chat.ToolResultBlock(result))
		}

		return append(append([]chat.Message{}, req.History...),
			chat.Message{Role: chat.RoleUser, Blocks: blocks}), nil
	}

	if req.Message == "" {
		return nil, fmt.Errorf("request carries neither a message nor a tool result")
	}

	history, _ := eng.compactor.Compact(req.History)
	return append(append([]chat.Message{}, history...), chat.NewUserText(req.Message)), nil
}

// invoke performs one model call with bounded exponential backoff on
// transient overload. Retries are announced through the sink rather than
// being a silent delay.
func (eng *Engine) invoke(ctx context.Context, req Request, messages []chat.Message, sink EventSink) (*provider.Response, error) {
	params := provider.Params{
		Model:     eng.cfg.Model,
		MaxTokens: eng.cfg.MaxTokens,
		System:    req.System,
		Messages:  messages,
		Tools:     eng.registry.Definitions(),
	}

	retry := *eng.cfg.Retry
	if retry.Retryable == nil {
		retry.Retryable = provider.IsRetryable
	}
	retry.OnRetry = func(attempt int, wait time.Duration, err error) {
		log.Warn("upstream overloaded, retrying", "attempt", attempt, "wait", wait, "error", err)
		eng.instruments.CountRetry(ctx)
		sink.Retry(attempt, wait)
	}

	var resp *provider.Response
	err := errors.RetryWithBackoff(ctx, &retry, func() error {
		var callErr error
		if req.Stream {
			resp, callErr = eng.completer.Stream(ctx, params, sink.Text)
		} else {
			resp, callErr = eng.completer.Complete(ctx, params)
		}
		return callErr
	})

	return resp, err
}

// partition splits a batch by registry classification, preserving the
// original request order within each side.
func (eng *Engine) partition(ctx context.Context, calls []chat.ToolCall) (server, client []chat.ToolCall) {
	for _, call := range calls {
		side := eng.registry.Side(call.Name)
		eng.instruments.CountToolCall(ctx, call.Name, string(side))

		if side == tools.ServerSide {
			server = append(server, call)
		} else {
			client = append(client, call)
		}
	}
	return server, client
}

/*
resolveBatch executes every server tool of one model turn. The handlers are
pure and independent, so they run concurrently; each result lands in the
slot of its originating call so correlation follows the call identifier and
request order, never completion order.
*/
func (eng *Engine) resolveBatch(ctx context.Context, calls []chat.ToolCall, snap *canvas.Snapshot, sink EventSink) []chat.ToolResult {
	results := make([]chat.ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		sink.ToolStart(call)

		wg.Add(1)
		go func(i int, call chat.ToolCall) {
			defer wg.Done()
			results[i] = eng.registry.Resolve(ctx, call, snap)
		}(i, call)
	}
	wg.Wait()

	for _, result := range results {
		sink.ToolResult(result)
	}
	return results
}

// salvage handles unrecognized completion signals: keep any text present,
// fall back to a minimal message otherwise.
func (eng *Engine) salvage(resp *provider.Response, actions []string, iteration int, messages []chat.Message) *Outcome {
	text := resp.Message.Text()
	if text == "" {
		text = fallbackMessage
	}
	log.Warn("unrecognized completion signal, salvaging", "stop", resp.Stop)

	return &Outcome{
		Type:       OutcomeFinal,
		Text:       text,
		Actions:    actions,
		Iterations: iteration,
		Transcript: messages,
	}
}

func describeCall(call chat.ToolCall) string {
	return fmt.Sprintf("%s %s", call.Name, errors.Truncate(string(call.Input), 120))
}
