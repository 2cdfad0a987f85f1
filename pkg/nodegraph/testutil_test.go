package nodegraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/value"
)

// Test templates and helpers used across tests.

// countingTemplate returns an integer pass-through template whose transform
// increments *calls every time it runs.
func countingTemplate(name string, calls *int) *Template {
	return &Template{
		Name:   name,
		Output: value.Integer,
		Inputs: []SlotSpec{
			{Label: "in", Default: value.Zero(value.Integer)},
		},
		Transform: func(in []value.Value) value.Value {
			*calls++
			return value.Int(in[0].AsInteger())
		},
	}
}

// sumTemplate adds its two integer inputs.
func sumTemplate() *Template {
	return &Template{
		Name:   "Sum",
		Output: value.Integer,
		Inputs: []SlotSpec{
			{Label: "a", Default: value.Zero(value.Integer)},
			{Label: "b", Default: value.Zero(value.Integer)},
		},
		Transform: func(in []value.Value) value.Value {
			return value.Int(in[0].AsInteger() + in[1].AsInteger())
		},
	}
}

// insert adds a node from t to g and returns its id.
func insert(g *Graph, t *Template) NodeID {
	return g.Insert(t.NewNode())
}

// requireEdgesConsistent checks that every slot producer and every consumer
// entry is mirrored on the other side.
func requireEdgesConsistent(t *testing.T, g *Graph) {
	t.Helper()
	for id, n := range g.nodes {
		for i, s := range n.Inputs {
			if !s.Connected() {
				continue
			}
			p, ok := g.nodes[s.Producer]
			require.True(t, ok, "node %d slot %d: producer %d missing", id, i, s.Producer)
			require.True(t, p.Output.HasConsumer(id), "node %d slot %d: producer %d does not list consumer", id, i, s.Producer)
		}
		for cid := range n.Output.consumers {
			c, ok := g.nodes[cid]
			require.True(t, ok, "node %d: consumer %d missing", id, cid)
			require.True(t, c.feedsFrom(id), "node %d: consumer %d has no slot fed by it", id, cid)
		}
	}
}
