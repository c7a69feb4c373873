package network_test

import (
	"fmt"

	"github.com/matzehuels/creatornet/pkg/network"
)

func ExamplePayload_Graph() {
	p, err := network.Unmarshal([]byte(`{
	  "creators": [
	    {"id": "1", "name": "Trail Notes", "followers": 52000},
	    {"id": "2", "name": "City Bites", "followers": 8100, "position": {"x": 30, "y": 60}}
	  ],
	  "creatorEdges": [{"source": "1", "target": "2", "weight": 0.72}]
	}`))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	g := p.Graph(network.MetricFollowers)
	for _, n := range g.Nodes {
		fmt.Printf("%s %s magnitude=%.0f seeded=%v\n", n.ID, n.Name, n.Magnitude, n.Position != nil)
	}
	fmt.Printf("%s-%s %.2f\n", g.Edges[0].Source, g.Edges[0].Target, g.Edges[0].Weight)
	// Output:
	// 1 Trail Notes magnitude=52000 seeded=false
	// 2 City Bites magnitude=8100 seeded=true
	// 1-2 0.72
}
