package nodegraph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/snapshot"
	"github.com/randalmurphal/nodegraph/pkg/nodegraph/value"
)

// errInconsistent marks a decoded document that does not describe a valid
// graph.
var errInconsistent = errors.New("inconsistent graph")

// Document converts the graph into its persisted form.
func (g *Graph) Document(sessionID string) *snapshot.Document {
	records := make([]snapshot.NodeRecord, 0, len(g.nodes))
	for _, id := range g.ids() {
		n := g.nodes[id]
		rec := snapshot.NodeRecord{
			ID:        uint64(n.ID),
			Title:     n.Title,
			Template:  n.Template.Name,
			X:         n.Position.X,
			Y:         n.Position.Y,
			W:         n.Position.W,
			Inputs:    make([]snapshot.InputRecord, len(n.Inputs)),
			Consumers: make([]uint64, 0, len(n.Output.consumers)),
		}
		for i, s := range n.Inputs {
			rec.Inputs[i] = snapshot.InputRecord{
				Label:    s.Label,
				Producer: uint64(s.Producer),
				Value:    valueRecord(s.Value),
			}
		}
		for _, cid := range n.Output.Consumers() {
			rec.Consumers = append(rec.Consumers, uint64(cid))
		}
		records = append(records, rec)
	}
	return snapshot.New(sessionID, uint64(g.lastID), records)
}

// GraphFromDocument rebuilds a graph from a decoded document, resolving
// template names through catalog.
//
// The document must describe exactly the graph that Document would have
// written: known templates, unique ids in 1..LastID, slots matching the
// template, producers that exist, consumer lists that mirror the slots, and
// no cycles. Any violation returns an error wrapping errInconsistent and no
// graph.
func GraphFromDocument(doc *snapshot.Document, catalog *Catalog) (*Graph, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", errInconsistent)
	}

	g := NewGraph()
	g.lastID = NodeID(doc.LastID)

	for _, rec := range doc.Nodes {
		n, err := nodeFromRecord(rec, catalog, g.lastID)
		if err != nil {
			return nil, err
		}
		if _, dup := g.nodes[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %d", errInconsistent, n.ID)
		}
		g.nodes[n.ID] = n
	}

	// Rebuild consumer sets from the slots, then compare with the records.
	for _, n := range g.nodes {
		for i, s := range n.Inputs {
			if !s.Connected() {
				continue
			}
			p, ok := g.nodes[s.Producer]
			if !ok {
				return nil, fmt.Errorf("%w: node %d slot %d: dangling producer %d", errInconsistent, n.ID, i, s.Producer)
			}
			if p.Output.Kind != s.Kind {
				return nil, fmt.Errorf("%w: node %d slot %d: %s output feeds %s slot", errInconsistent, n.ID, i, p.Output.Kind, s.Kind)
			}
			p.Output.consumers[n.ID] = struct{}{}
		}
	}
	for _, rec := range doc.Nodes {
		want := make([]NodeID, 0, len(rec.Consumers))
		for _, cid := range rec.Consumers {
			want = append(want, NodeID(cid))
		}
		slices.Sort(want)
		if got := g.nodes[NodeID(rec.ID)].Output.Consumers(); !slices.Equal(got, want) {
			return nil, fmt.Errorf("%w: node %d: consumer list %v does not match slots %v", errInconsistent, rec.ID, want, got)
		}
	}

	if id, ok := g.findCycle(); ok {
		return nil, fmt.Errorf("%w: cycle through node %d", errInconsistent, id)
	}
	return g, nil
}

func nodeFromRecord(rec snapshot.NodeRecord, catalog *Catalog, lastID NodeID) (*Node, error) {
	id := NodeID(rec.ID)
	if id == NoNode || id > lastID {
		return nil, fmt.Errorf("%w: node id %d outside 1..%d", errInconsistent, id, lastID)
	}
	t, ok := catalog.Lookup(rec.Template)
	if !ok {
		return nil, fmt.Errorf("%w: node %d: %w: %s", errInconsistent, id, ErrUnknownTemplate, rec.Template)
	}
	if len(rec.Inputs) != len(t.Inputs) {
		return nil, fmt.Errorf("%w: node %d: %d inputs, template %s has %d", errInconsistent, id, len(rec.Inputs), t.Name, len(t.Inputs))
	}

	n := t.NewNode()
	n.ID = id
	if rec.Title != "" {
		n.Title = rec.Title
	}
	n.Position = Position{X: rec.X, Y: rec.Y, W: rec.W}

	for i, in := range rec.Inputs {
		v, err := valueFromRecord(in.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d slot %d: %w", errInconsistent, id, i, err)
		}
		if v.Kind() != n.Inputs[i].Kind {
			return nil, fmt.Errorf("%w: node %d slot %d: literal is %s, slot expects %s", errInconsistent, id, i, v.Kind(), n.Inputs[i].Kind)
		}
		n.Inputs[i].Value = v
		n.Inputs[i].Producer = NodeID(in.Producer)
	}
	return n, nil
}

// findCycle reports a node on a cycle, if any. Uses a three-color DFS over
// input-slot producers.
func (g *Graph) findCycle() (NodeID, bool) {
	const (
		white = iota
		grey
		black
	)
	color := make(map[NodeID]int, len(g.nodes))

	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		color[id] = grey
		for _, s := range g.nodes[id].Inputs {
			if !s.Connected() {
				continue
			}
			switch color[s.Producer] {
			case grey:
				return true
			case white:
				if visit(s.Producer) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, id := range g.ids() {
		if color[id] == white && visit(id) {
			return id, true
		}
	}
	return NoNode, false
}

func valueRecord(v value.Value) snapshot.ValueRecord {
	rec := snapshot.ValueRecord{Kind: v.Kind().String()}
	switch v.Kind() {
	case value.Integer:
		rec.Integer = v.AsInteger()
	case value.Text:
		rec.Text = v.AsText()
	}
	return rec
}

func valueFromRecord(rec snapshot.ValueRecord) (value.Value, error) {
	kind, err := value.ParseKind(rec.Kind)
	if err != nil {
		return value.Value{}, err
	}
	if kind == value.Integer {
		return value.Int(rec.Integer), nil
	}
	return value.Str(rec.Text), nil
}
