/*
Package memory bounds unbounded conversation history. Long histories are
compacted into a verbatim tail plus a deterministic textual summary of the
discarded head; the compacted form is derived and always recomputable from
the full history, never authoritative.
*/
package memory

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cartograph/cartograph/pkg/chat"
	"github.com/cartograph/cartograph/pkg/errors"
)

// Defaults chosen so a typical tool-heavy session compacts a couple of
// times per hour rather than per request.
const (
	DefaultThreshold  = 20
	DefaultVerbatim   = 12
	DefaultSnippetLen = 160
)

/*
Compactor retains the most recent Verbatim messages unchanged and replaces
everything older with a summary once the history exceeds Threshold
messages. User-intent snippets and tool invocations in the summary are
truncated to SnippetLen.
*/
type Compactor struct {
	Threshold  int
	Verbatim   int
	SnippetLen int
}

func NewCompactor() *Compactor {
	return &Compactor{
		Threshold:  DefaultThreshold,
		Verbatim:   DefaultVerbatim,
		SnippetLen: DefaultSnippetLen,
	}
}

/*
Summary describes the compacted head of the history: the rendered summary
text plus the ordered key facts (tool invocations performed) it was built
from.
*/
type Summary struct {
	Text     string   `json:"text"`
	KeyFacts []string `json:"key_facts"`
}

/*
Compact returns the history to feed the model. Below the threshold the
input comes back unchanged with a nil summary. Above it, the most recent
Verbatim messages are kept as-is and the remainder is replaced with a
single user message carrying the summary.

The boundary between summarized and verbatim history never falls between a
tool invocation and its tool result: splitting that pair would produce an
unreplayable conversation, so the boundary moves backward (keeping more
messages verbatim) until every pair in the tail is whole.
*/
func (c *Compactor) Compact(history []chat.Message) ([]chat.Message, *Summary) {
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	verbatim := c.Verbatim
	if verbatim <= 0 {
		verbatim = DefaultVerbatim
	}

	if len(history) <= threshold || len(history) <= verbatim {
		return history, nil
	}

	boundary := len(history) - verbatim
	for boundary > 0 && splitsToolPair(history, boundary) {
		boundary--
	}
	if boundary == 0 {
		return history, nil
	}

	summary := c.summarize(history[:boundary])
	log.Debug("compacted conversation history",
		"total", len(history), "verbatim", len(history)-boundary)

	compacted := make([]chat.Message, 0, len(history)-boundary+1)
	compacted = append(compacted, chat.NewUserText(summary.Text))
	compacted = append(compacted, history[boundary:]...)
	return compacted, summary
}

// splitsToolPair reports whether any tool result at or after the boundary
// answers a tool call before it.
func splitsToolPair(history []chat.Message, boundary int) bool {
	headCalls := make(map[string]bool)
	for _, msg := range history[:boundary] {
		for _, block := range msg.Blocks {
			if block.Type == chat.BlockTypeToolCall && block.ToolCall != nil {
				headCalls[block.ToolCall.ID] = true
			}
		}
	}
	if len(headCalls) == 0 {
		return false
	}

	for _, msg := range history[boundary:] {
		for _, block := range msg.Blocks {
			if block.Type == chat.BlockTypeToolResult && block.ToolResult != nil && headCalls[block.ToolResult.ToolUseID] {
				return true
			}
		}
	}
	return false
}

func (c *Compactor) summarize(head []chat.Message) *Summary {
	snippetLen := c.SnippetLen
	if snippetLen <= 0 {
		snippetLen = DefaultSnippetLen
	}

	var intents []string
	var facts []string

	for _, msg := range head {
		switch msg.Role {
		case chat.RoleUser:
			if text := strings.TrimSpace(msg.Text()); text != "" {
				intents = append(intents, errors.Truncate(text, snippetLen))
			}
		case chat.RoleAssistant:
			for _, call := range msg.ToolCalls() {
				facts = append(facts, errors.Truncate(
					fmt.Sprintf("%s(%s)", call.Name, compactJSON(call.Input)), snippetLen))
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("[Earlier conversation, summarized]\n")

	if len(intents) > 0 {
		sb.WriteString("The user asked:\n")
		for _, intent := range intents {
			sb.WriteString("- ")
			sb.WriteString(intent)
			sb.WriteString("\n")
		}
	}
	if len(facts) > 0 {
		sb.WriteString("Actions performed:\n")
		for _, fact := range facts {
			sb.WriteString("- ")
			sb.WriteString(fact)
			sb.WriteString("\n")
		}
	}

	return &Summary{Text: strings.TrimRight(sb.String(), "\n"), KeyFacts: facts}
}


func compactJSON(raw []byte) string {
	return strings.Join(strings.Fields(string(raw)), " ")
}
