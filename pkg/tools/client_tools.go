package tools

import "github.com/mark3labs/mcp-go/mcp"

/*
ClientDefinitions declares the side-effecting canvas tools. They are never
executed here: the loop validates the name, forwards the call to the caller,
and suspends until the canvas reports the outcome. Result content is opaque
JSON carrying an outcome discriminator (created / already-existed / updated
/ removed) which is forwarded to the model verbatim.
*/
func ClientDefinitions() []Definition {
	defs := []Definition{
		{Tool: mcp.NewTool("create_node",
			mcp.WithDescription("Create a node on the canvas."),
			mcp.WithString("label", mcp.Required(), mcp.Description("Display label for the node")),
			mcp.WithString("kind", mcp.Description("Node kind, e.g. router, datacenter, pop")),
			mcp.WithNumber("lat", mcp.Description("Latitude in decimal degrees")),
			mcp.WithNumber("lon", mcp.Description("Longitude in decimal degrees")),
		)},
		{Tool: mcp.NewTool("update_node",
			mcp.WithDescription("Update properties of an existing node."),
			mcp.WithString("id", mcp.Required(), mcp.Description("ID of the node to update")),
			mcp.WithString("label", mcp.Description("New display label")),
			mcp.WithNumber("lat", mcp.Description("New latitude")),
			mcp.WithNumber("lon", mcp.Description("New longitude")),
		)},
		{Tool: mcp.NewTool("delete_node",
			mcp.WithDescription("Remove a node and its incident links from the canvas."),
			mcp.WithString("id", mcp.Required(), mcp.Description("ID of the node to remove")),
		)},
		{Tool: mcp.NewTool("create_link",
			mcp.WithDescription("Create a link between two nodes."),
			mcp.WithString("source", mcp.Required(), mcp.Description("ID of the first endpoint")),
			mcp.WithString("target", mcp.Required(), mcp.Description("ID of the second endpoint")),
			mcp.WithString("kind", mcp.Description("terrestrial or submarine"), mcp.Enum("terrestrial", "submarine")),
			mcp.WithNumber("capacity_gbps", mcp.Description("Link capacity in Gbps")),
			mcp.WithNumber("monthly_cost", mcp.Description("Monthly cost of the link")),
		)},
		{Tool: mcp.NewTool("update_link",
			mcp.WithDescription("Update properties of an existing link."),
			mcp.WithString("id", mcp.Required(), mcp.Description("ID of the link to update")),
			mcp.WithNumber("capacity_gbps", mcp.Description("New capacity in Gbps")),
			mcp.WithNumber("monthly_cost", mcp.Description("New monthly cost")),
		)},
		{Tool: mcp.NewTool("delete_link",
			mcp.WithDescription("Remove a link from the canvas."),
			mcp.WithString("id", mcp.Required(), mcp.Description("ID of the link to remove")),
		)},
		{Tool: mcp.NewTool("create_group",
			mcp.WithDescription("Group a set of nodes under a shared label."),
			mcp.WithString("label", mcp.Required(), mcp.Description("Display label for the group")),
			mcp.WithString("node_ids", mcp.Required(), mcp.Description("JSON array of node IDs to include")),
		)},
		{Tool: mcp.NewTool("run_pathfinder",
			mcp.WithDescription("Run the canvas pathfinder between two nodes and highlight the result."),
			mcp.WithString("source", mcp.Required(), mcp.Description("ID of the start node")),
			mcp.WithString("target", mcp.Required(), mcp.Description("ID of the end node")),
		)},
		{Tool: mcp.NewTool("set_view",
			mcp.WithDescription("Change the canvas viewport: pan, zoom or focus a selection."),
			mcp.WithString("focus", mcp.Description("Node or group ID to center on")),
			mcp.WithNumber("zoom", mcp.Description("Zoom level, 1.0 is default")),
		)},
	}

	for i := range defs {
		defs[i].Side = ClientSide
	}
	return defs
}

// Default assembles the full registry: every server analysis tool plus
// every client canvas tool.
func Default(cfg Config) (*Registry, error) {
	return NewRegistry(append(ServerDefinitions(cfg), ClientDefinitions()...)...)
}
