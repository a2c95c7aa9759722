package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cartograph/cartograph/pkg/canvas"
	"github.com/cartograph/cartograph/pkg/graph"
)

/*
Config tunes the server-resolved analysis tools. Zero values fall back to
the library defaults.
*/
type Config struct {
	TerrestrialFactor float64
	SubmarineFactor   float64
	MaxPathAttempts   int
}

func (cfg Config) withDefaults() Config {
	if cfg.TerrestrialFactor <= 0 {
		cfg.TerrestrialFactor = graph.DefaultTerrestrialFactor
	}
	if cfg.SubmarineFactor <= 0 {
		cfg.SubmarineFactor = graph.DefaultSubmarineFactor
	}
	if cfg.MaxPathAttempts <= 0 {
		cfg.MaxPathAttempts = 8
	}
	return cfg
}

// ServerDefinitions returns the server-resolved analysis tools backed by
// the graph library.
func ServerDefinitions(cfg Config) []Definition {
	cfg = cfg.withDefaults()

	return []Definition{
		{
			Tool: mcp.NewTool("analyze_topology",
				mcp.WithDescription(
					"Analyze the current network topology: connected components, "+
						"degree statistics, redundancy classification, articulation "+
						"points and bridge links.",
				),
			),
			Side:   ServerSide,
			Handle: analyzeTopology,
		},
		{
			Tool: mcp.NewTool("find_disjoint_paths",
				mcp.WithDescription(
					"Count link-disjoint paths between two nodes by repeated "+
						"shortest-path search. The count is an approximation, not an "+
						"exact max-flow value.",
				),
				mcp.WithString("source",
					mcp.Required(),
					mcp.Description("ID of the start node"),
				),
				mcp.WithString("target",
					mcp.Required(),
					mcp.Description("ID of the end node"),
				),
			),
			Side:   ServerSide,
			Handle: findDisjointPaths(cfg.MaxPathAttempts),
		},
		{
			Tool: mcp.NewTool("rank_cost_efficiency",
				mcp.WithDescription(
					"Rank links by monthly cost per Gbps of capacity, cheapest "+
						"first. Links without capacity data are listed last as unranked.",
				),
			),
			Side:   ServerSide,
			Handle: rankCostEfficiency,
		},
		{
			Tool: mcp.NewTool("estimate_latency",
				mcp.WithDescription(
					"Estimate one-way and round-trip latency between two nodes "+
						"from their coordinates, using great-circle distance times a "+
						"route-circuity factor.",
				),
				mcp.WithString("source",
					mcp.Required(),
					mcp.Description("ID of the first node (must have coordinates)"),
				),
				mcp.WithString("target",
					mcp.Required(),
					mcp.Description("ID of the second node (must have coordinates)"),
				),
				mcp.WithString("route",
					mcp.Description("Routing assumption: terrestrial (default) or submarine"),
					mcp.Enum("terrestrial", "submarine"),
				),
			),
			Side:   ServerSide,
			Handle: estimateLatency(cfg),
		},
	}
}

func analyzeTopology(_ context.Context, _ json.RawMessage, snap *canvas.Snapshot) (json.RawMessage, error) {
	g := graph.New(snap)
	components := g.Components()

	return json.Marshal(map[string]any{
		"node_count":      g.Order(),
		"link_count":      g.Size(),
		"component_count": len(components),
		"components":      components,
		"degrees":         g.Degrees(),
		"cut":             g.Cut(),
	})
}

func findDisjointPaths(maxAttempts int) Handler {
	return func(_ context.Context, input json.RawMessage, snap *canvas.Snapshot) (json.RawMessage, error) {
		var args struct {
			Source string `json:"source"`
			Target string `json:"target"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
		if args.Source == "" || args.Target == "" {
			return nil, fmt.Errorf("source and target are required")
		}

		report, ok := graph.New(snap).DisjointPaths(args.Source, args.Target, maxAttempts)
		if !ok {
			return nil, fmt.Errorf("unknown node in %q → %q", args.Source, args.Target)
		}

		return json.Marshal(map[string]any{
			"source":      args.Source,
			"target":      args.Target,
			"approximate": true,
			"paths":       report,
		})
	}
}

func rankCostEfficiency(_ context.Context, _ json.RawMessage, snap *canvas.Snapshot) (json.RawMessage, error) {
	return json.Marshal(map[string]any{
		"ranking": graph.RankCostEfficiency(snap.Links),
	})
}

func estimateLatency(cfg Config) Handler {
	return func(_ context.Context, input json.RawMessage, snap *canvas.Snapshot) (json.RawMessage, error) {
		var args struct {
			Source string `json:"source"`
			Target string `json:"target"`
			Route  string `json:"route"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}

		src, err := nodeWithCoordinates(snap, args.Source)
		if err != nil {
			return nil, err
		}
		dst, err := nodeWithCoordinates(snap, args.Target)
		if err != nil {
			return nil, err
		}

		factor := cfg.TerrestrialFactor
		if args.Route == string(canvas.LinkKindSubmarine) {
			factor = cfg.SubmarineFactor
		}

		estimate := graph.EstimateLatency(*src.Lat, *src.Lon, *dst.Lat, *dst.Lon, factor)

		return json.Marshal(map[string]any{
			"source":       args.Source,
			"target":       args.Target,
			"route_factor": factor,
			"estimate":     estimate,
		})
	}
}

func nodeWithCoordinates(snap *canvas.Snapshot, id string) (canvas.Node, error) {
	if id == "" {
		return canvas.Node{}, fmt.Errorf("source and target are required")
	}
	for _, node := range snap.Nodes {
		if node.ID == id {
			if !node.HasCoordinates() {
				return canvas.Node{}, fmt.Errorf("node %q has no coordinates", id)
			}
			return node, nil
		}
	}
	return canvas.Node{}, fmt.Errorf("unknown node %q", id)
}
