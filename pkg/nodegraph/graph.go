package nodegraph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/value"
)

// Graph owns a set of nodes and the edges between them.
//
// Every edge is recorded twice: in the consumer slot's Producer field and in
// the producer output's consumer set. Only Graph methods write either side,
// so the two always agree. Connect refuses edges that would form a cycle,
// which keeps Evaluate terminating.
//
// Graph is NOT safe for concurrent use. Editor serializes access when a
// graph is shared.
//
// Example:
//
//	g := nodegraph.NewGraph()
//	n := g.Insert(nodegraph.NewNumberTemplate().NewNode())
//	r := g.Insert(nodegraph.RepeatStringTemplate().NewNode())
//	if err := g.Connect(n, r, 1); err != nil {
//	    // *ConnectError, *SlotError or ErrUnknownNodeID
//	}
//	v, err := g.Evaluate(r)
type Graph struct {
	nodes  map[NodeID]*Node
	lastID NodeID

	// memo holds outputs computed during the current Evaluate call only.
	memo       map[NodeID]value.Value
	transforms int
}

// NewGraph creates an empty graph. The first inserted node gets id 1.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[NodeID]*Node),
		memo:  make(map[NodeID]value.Value),
	}
}

// Insert assigns the next id to n and stores it. Any edge bookkeeping on the
// incoming node is cleared; edges are only created through Connect.
//
// Panics if n is nil or has no template.
func (g *Graph) Insert(n *Node) NodeID {
	if n == nil {
		panic("nodegraph: node cannot be nil")
	}
	if n.Template == nil {
		panic("nodegraph: node template cannot be nil")
	}

	g.lastID++
	n.ID = g.lastID
	for i := range n.Inputs {
		n.Inputs[i].Producer = NoNode
	}
	n.Output.consumers = make(map[NodeID]struct{})

	g.nodes[n.ID] = n
	return n.ID
}

// Remove severs every edge touching id and deletes the node.
func (g *Graph) Remove(id NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return unknownNode(id)
	}

	// Incoming edges.
	for i := range n.Inputs {
		if n.Inputs[i].Connected() {
			g.unlink(n, i)
		}
	}

	// Outgoing edges: clear every slot of every consumer that reads id.
	for cid := range n.Output.consumers {
		c, ok := g.nodes[cid]
		if !ok {
			continue
		}
		for i := range c.Inputs {
			if c.Inputs[i].Producer == id {
				c.Inputs[i].Producer = NoNode
			}
		}
	}

	delete(g.nodes, id)
	delete(g.memo, id)
	return nil
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Nodes returns copies of all nodes, ordered by id.
func (g *Graph) Nodes() []Node {
	ids := g.ids()
	nodes := make([]Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, g.nodes[id].clone())
	}
	return nodes
}

// Has reports whether a node with the given id exists.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// LastID returns the most recently assigned id, or NoNode for a graph that
// never had a node. Removal does not lower it.
func (g *Graph) LastID() NodeID {
	return g.lastID
}

// SetPosition moves a node.
func (g *Graph) SetPosition(id NodeID, x, y int) error {
	n, ok := g.nodes[id]
	if !ok {
		return unknownNode(id)
	}
	n.Position.X = x
	n.Position.Y = y
	return nil
}

// SetWidth records the width a presentation layer rendered the node at.
func (g *Graph) SetWidth(id NodeID, w int) error {
	n, ok := g.nodes[id]
	if !ok {
		return unknownNode(id)
	}
	n.Position.W = w
	return nil
}

// SetInputValue replaces the literal of an input slot. v must have the
// slot's kind.
func (g *Graph) SetInputValue(id NodeID, slot int, v value.Value) error {
	n, ok := g.nodes[id]
	if !ok {
		return unknownNode(id)
	}
	s, err := n.slot(slot)
	if err != nil {
		return err
	}
	if v.Kind() != s.Kind {
		return fmt.Errorf("node %d slot %d: %w: slot expects %s, got %s", id, slot, ErrTypeMismatch, s.Kind, v.Kind())
	}
	s.Value = v
	return nil
}

// SetInputLiteral parses text as the slot's kind and stores the result as the
// slot literal. fallback is true when the text did not parse and the kind's
// zero value was stored instead; that is not an error.
func (g *Graph) SetInputLiteral(id NodeID, slot int, text string) (fallback bool, err error) {
	n, ok := g.nodes[id]
	if !ok {
		return false, unknownNode(id)
	}
	s, err := n.slot(slot)
	if err != nil {
		return false, err
	}
	v, perr := s.Value.Parse(text)
	s.Value = v
	return errors.Is(perr, value.ErrParseFallback), nil
}

// ids returns node ids in ascending order.
func (g *Graph) ids() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
