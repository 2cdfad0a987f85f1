package nodegraph

import (
	"slices"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/value"
)

// NodeID identifies a node within a graph. Ids start at 1 and are never
// reused.
type NodeID uint64

// NoNode is the sentinel id meaning "no producer connected".
const NoNode NodeID = 0

// InputSlot is a typed input position on a node. It is either fed by a
// producer's output or, when Producer is NoNode, by its literal Value.
type InputSlot struct {
	Label    string
	Kind     value.Kind
	Producer NodeID
	// Value is the literal used while the slot is unconnected. It is kept
	// across connect/disconnect.
	Value value.Value
}

// Connected reports whether a producer feeds the slot.
func (s InputSlot) Connected() bool {
	return s.Producer != NoNode
}

// OutputPort is a node's single typed output. The consumer set mirrors the
// Producer fields of the consumers' slots and is maintained by Graph.
type OutputPort struct {
	Kind      value.Kind
	consumers map[NodeID]struct{}
}

// Consumers returns the ids of nodes reading this output, in ascending order.
func (o OutputPort) Consumers() []NodeID {
	ids := make([]NodeID, 0, len(o.consumers))
	for id := range o.consumers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// HasConsumer reports whether id reads this output.
func (o OutputPort) HasConsumer(id NodeID) bool {
	_, ok := o.consumers[id]
	return ok
}

// Position is presentation metadata: top-left corner and rendered width.
type Position struct {
	X int
	Y int
	W int
}

// Node is a graph vertex.
//
// Nodes returned by Graph accessors are copies; mutate a graph only through
// its methods.
type Node struct {
	ID       NodeID
	Title    string
	Template *Template
	Inputs   []InputSlot
	Output   OutputPort
	Position Position
}

// clone returns a deep copy of n. The template is shared; templates are
// immutable once registered.
func (n *Node) clone() Node {
	c := *n
	c.Inputs = slices.Clone(n.Inputs)
	c.Output.consumers = make(map[NodeID]struct{}, len(n.Output.consumers))
	for id := range n.Output.consumers {
		c.Output.consumers[id] = struct{}{}
	}
	return c
}

// slot returns a pointer to input i, or a SlotError.
func (n *Node) slot(i int) (*InputSlot, error) {
	if i < 0 || i >= len(n.Inputs) {
		return nil, &SlotError{NodeID: n.ID, Index: i, Count: len(n.Inputs)}
	}
	return &n.Inputs[i], nil
}

// feedsFrom reports whether any input slot of n is fed by producer.
func (n *Node) feedsFrom(producer NodeID) bool {
	for _, s := range n.Inputs {
		if s.Producer == producer {
			return true
		}
	}
	return false
}
