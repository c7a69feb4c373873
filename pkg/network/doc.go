// Package network provides the data types of a creator network and their
// serialization.
//
// Two layers live here:
//
//   - [Payload], [Creator], [CreatorEdge]: the analytics backend's wire format,
//     as served by GET /api/creators/network and stored in the
//     creator_networks collection.
//   - [Graph], [Node], [Edge]: the minimal input contract of the layout engine.
//
// [Payload.Graph] converts the first into the second, picking the node
// magnitude from a [Metric]:
//
//	p, _ := network.ReadFile("network.json")
//	g := p.Graph(network.MetricFollowers)
//
// # Serialization
//
// Payloads are read from and written to JSON or YAML; the format is chosen by
// file extension. Decoding JSON accepts the legacy "edges" key that the
// backend uses for its empty-network reply:
//
//	{"creators": [], "edges": []}
//
// # Positions
//
// [Position] values are normalized percentages in [0,100]. A zero position is
// treated as absent, since the backend emits {"x":0,"y":0} for creators that
// were never laid out.
package network
