package nodegraph

import (
	"github.com/randalmurphal/nodegraph/pkg/nodegraph/value"
)

// Evaluate computes the output of node id.
//
// Evaluation walks backward from id: an unconnected slot contributes its
// literal, a connected slot contributes its producer's output. Outputs are
// memoized for the duration of the call, so every node is transformed at
// most once however many consumers it has. The memo is discarded at the
// start of the next call; nothing carries over between calls.
//
// The only error is ErrUnknownNodeID. Connect guarantees the graph is
// acyclic and well typed, so the walk always terminates.
func (g *Graph) Evaluate(id NodeID) (value.Value, error) {
	n, ok := g.nodes[id]
	if !ok {
		return value.Value{}, unknownNode(id)
	}

	g.memo = make(map[NodeID]value.Value)
	g.transforms = 0

	return g.evaluateNode(n), nil
}

// LastTransformCount returns how many transforms ran during the most recent
// Evaluate call.
func (g *Graph) LastTransformCount() int {
	return g.transforms
}

// evaluateNode resolves n's inputs, applies its transform and memoizes the
// result.
func (g *Graph) evaluateNode(n *Node) value.Value {
	inputs := make([]value.Value, len(n.Inputs))
	for i, s := range n.Inputs {
		inputs[i] = value.Coerce(g.evaluateInput(s), s.Kind)
	}

	g.transforms++
	out := value.Coerce(n.Template.Transform(inputs), n.Output.Kind)
	g.memo[n.ID] = out
	return out
}

// evaluateInput returns the value feeding slot s.
func (g *Graph) evaluateInput(s InputSlot) value.Value {
	if !s.Connected() {
		return s.Value
	}
	if v, ok := g.memo[s.Producer]; ok {
		return v
	}
	p, ok := g.nodes[s.Producer]
	if !ok {
		// Unreachable while the edge invariants hold.
		return s.Value
	}
	return g.evaluateNode(p)
}
