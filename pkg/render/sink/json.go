package sink

import (
	"encoding/json"

	"github.com/matzehuels/creatornet/pkg/scene"
)

// JSON exports s as a pretty-printed document. Empty scenes encode their
// node and edge lists as [] rather than null.
func JSON(s scene.Scene) ([]byte, error) {
	if s.Nodes == nil {
		s.Nodes = []scene.Node{}
	}
	if s.Edges == nil {
		s.Edges = []scene.Edge{}
	}
	return json.MarshalIndent(s, "", "  ")
}
