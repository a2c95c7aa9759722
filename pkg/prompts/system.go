/*
Package prompts assembles the system context sent with every model
invocation.
*/
package prompts

import (
	"fmt"
	"strings"

	"github.com/cartograph/cartograph/pkg/canvas"
)

const preamble = `You are Cartograph, a copilot embedded in an interactive network-canvas
application. The user designs network topologies on the canvas; you help by
analyzing the current diagram and by performing canvas actions on their
behalf.

Tool usage:
- Analysis tools (analyze_topology, find_disjoint_paths,
  rank_cost_efficiency, estimate_latency) are answered immediately from the
  current diagram snapshot.
- Canvas tools (create/update/delete node, link and group, run_pathfinder,
  set_view) are executed by the canvas application. Their results report an
  outcome such as created, already-existed, updated or removed; trust that
  outcome rather than assuming success.
- You may request several independent tools in a single turn.

Keep answers grounded in the snapshot. When the user asks about resilience,
be explicit that the redundancy classification and the disjoint-path count
are heuristics, not guarantees.`

/*
System renders the system prompt for one request: the fixed role preamble
plus a digest of the current snapshot so the model knows what it is looking
at before requesting any tool.
*/
func System(snap *canvas.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n\nCurrent canvas: ")

	if snap == nil || (len(snap.Nodes) == 0 && len(snap.Links) == 0) {
		sb.WriteString("empty.")
		return sb.String()
	}

	fmt.Fprintf(&sb, "%d nodes, %d links", len(snap.Nodes), len(snap.Links))
	if len(snap.Groups) > 0 {
		fmt.Fprintf(&sb, ", %d groups", len(snap.Groups))
	}
	sb.WriteString(".")

	if len(snap.Selection) > 0 {
		fmt.Fprintf(&sb, " Selected: %s.", strings.Join(snap.Selection, ", "))
	}

	return sb.String()
}
