package canvas

import "encoding/json"

/*
Snapshot is the read-only, per-request view of the diagram owned by the
external canvas application. The server never mutates it: every mutation is
a client-resolved tool executed by the canvas, and the caller supplies a
fresh snapshot on the next request.
*/
type Snapshot struct {
	Nodes     []Node   `json:"nodes"`
	Links     []Link   `json:"links"`
	Groups    []Group  `json:"groups,omitempty"`
	Selection []string `json:"selection,omitempty"`
}

/*
Node is a single site or device on the canvas. Coordinates are optional;
analysis functions treat missing numerics as absent rather than zero so
aggregates stay finite.
*/
type Node struct {
	ID    string   `json:"id"`
	Label string   `json:"label,omitempty"`
	Kind  string   `json:"kind,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
}

// LinkKind discriminates the physical routing of a link for latency
// estimation purposes.
type LinkKind string

const (
	LinkKindTerrestrial LinkKind = "terrestrial"
	LinkKindSubmarine   LinkKind = "submarine"
)

/*
Link is an undirected edge between two nodes. Parallel links between the
same pair are permitted and count separately in degree and path analysis.
*/
type Link struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	Kind         LinkKind `json:"kind,omitempty"`
	CapacityGbps *float64 `json:"capacity_gbps,omitempty"`
	MonthlyCost  *float64 `json:"monthly_cost,omitempty"`
}

// Group is a visual clustering of nodes. Groups carry no topology semantics.
type Group struct {
	ID      string   `json:"id"`
	Label   string   `json:"label,omitempty"`
	NodeIDs []string `json:"node_ids,omitempty"`
}

// Decode parses a raw diagram_state payload into a Snapshot.
func Decode(raw json.RawMessage) (*Snapshot, error) {
	if len(raw) == 0 {
		return &Snapshot{}, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}

	return &snap, nil
}

// Capacity returns the link capacity, treating a missing value as zero.
func (l Link) Capacity() float64 {
	if l.CapacityGbps == nil {
		return 0
	}
	return *l.CapacityGbps
}

// Cost returns the monthly cost, treating a missing value as zero.
func (l Link) Cost() float64 {
	if l.MonthlyCost == nil {
		return 0
	}
	return *l.MonthlyCost
}

// HasCoordinates reports whether both latitude and longitude are present.
func (n Node) HasCoordinates() bool {
	return n.Lat != nil && n.Lon != nil
}
