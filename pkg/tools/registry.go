/*
Package tools declares the closed set of tools the model may request and
classifies each one by resolution side: server tools are pure computations
answered in place from the snapshot, client tools are side-effecting canvas
actions that are only ever forwarded, never executed here.
*/
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cartograph/cartograph/pkg/canvas"
	"github.com/cartograph/cartograph/pkg/chat"
	"github.com/cartograph/cartograph/pkg/errors"
)

// Side classifies where a tool resolves.
type Side string

const (
	ServerSide Side = "server"
	ClientSide Side = "client"
)

/*
Handler is the fixed signature every server tool implements: pure
computation over the input and the immutable snapshot, no external
mutation. Returned errors are converted to structured error results, never
propagated past the registry boundary.
*/
type Handler func(ctx context.Context, input json.RawMessage, snap *canvas.Snapshot) (json.RawMessage, error)

/*
Definition binds a tool's LLM-facing declaration (name, description, input
schema) to its classification and, for server tools, its handler. Client
definitions carry a nil handler.
*/
type Definition struct {
	Tool   mcp.Tool
	Side   Side
	Handle Handler
}

/*
Registry is an immutable classification of tool name to definition. It is
constructed explicitly and injected into the orchestration loop; there is no
package-level mutable state.
*/
type Registry struct {
	defs   []Definition
	byName map[string]int
}

// NewRegistry builds a registry from explicit definitions. Later duplicates
// of a name are rejected so the mapping stays closed and unambiguous. Every
// invalid definition is reported, not just the first one hit.
func NewRegistry(defs ...Definition) (*Registry, error) {
	reg := &Registry{
		defs:   defs,
		byName: make(map[string]int, len(defs)),
	}

	var faults []any
	for i, def := range defs {
		name := def.Tool.Name
		if name == "" {
			faults = append(faults, fmt.Sprintf("tool at index %d has no name", i))
			continue
		}
		if _, dup := reg.byName[name]; dup {
			faults = append(faults, fmt.Sprintf("duplicate tool %q", name))
			continue
		}
		if def.Side == ServerSide && def.Handle == nil {
			faults = append(faults, fmt.Sprintf("server tool %q has no handler", name))
		}
		if def.Side == ClientSide && def.Handle != nil {
			faults = append(faults, fmt.Sprintf("client tool %q must not have a handler", name))
		}
		reg.byName[name] = i
	}

	if len(faults) > 0 {
		return nil, errors.New(faults...)
	}
	return reg, nil
}

// Lookup resolves a tool name to its definition.
func (reg *Registry) Lookup(name string) (Definition, bool) {
	i, ok := reg.byName[name]
	if !ok {
		return Definition{}, false
	}
	return reg.defs[i], true
}

// Definitions returns all tool definitions in declaration order.
func (reg *Registry) Definitions() []Definition {
	out := make([]Definition, len(reg.defs))
	copy(out, reg.defs)
	return out
}

// Side reports the resolution side for a tool name. Unknown names classify
// as client so the caller sees them instead of the loop guessing.
func (reg *Registry) Side(name string) Side {
	if def, ok := reg.Lookup(name); ok {
		return def.Side
	}
	return ClientSide
}

/*
Resolve executes a server tool and always produces a well-formed result:
handler errors and panics are caught at this boundary and converted into a
structured {"status":"error"} payload the model can see and react to, rather
than aborting the loop.
*/
func (reg *Registry) Resolve(ctx context.Context, call chat.ToolCall, snap *canvas.Snapshot) (result chat.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("tool handler panic", "tool", call.Name, "panic", r)
			result = chat.ErrorResult(call.ID, fmt.Sprintf("internal failure in %s", call.Name))
		}
	}()

	def, ok := reg.Lookup(call.Name)
	if !ok {
		return chat.ErrorResult(call.ID, fmt.Sprintf("unknown tool %q", call.Name))
	}
	if def.Side != ServerSide {
		return chat.ErrorResult(call.ID, fmt.Sprintf("tool %q is not server-resolvable", call.Name))
	}

	content, err := def.Handle(ctx, call.Input, snap)
	if err != nil {
		log.Warn("tool execution failed", "tool", call.Name, "error", err)
		return chat.ErrorResult(call.ID, err.Error())
	}

	return chat.ToolResult{ToolUseID: call.ID, Content: content}
}
