package nodegraph

// Connect feeds consumer's input slot from producer's output.
//
// Validation (in order):
//  1. Both ids must exist (ErrUnknownNodeID)
//  2. slot must be in range (*SlotError)
//  3. The edge must not close a cycle (*ConnectError wrapping ErrCycleRejected)
//  4. Output and slot kinds must match (*ConnectError wrapping ErrTypeMismatch)
//
// If the slot is already fed by another producer, that edge is replaced only
// after all checks pass. On any error the graph is unchanged.
func (g *Graph) Connect(producer, consumer NodeID, slot int) error {
	p, ok := g.nodes[producer]
	if !ok {
		return unknownNode(producer)
	}
	c, ok := g.nodes[consumer]
	if !ok {
		return unknownNode(consumer)
	}
	s, err := c.slot(slot)
	if err != nil {
		return err
	}

	if g.reaches(producer, consumer) {
		return &ConnectError{
			Producer:   producer,
			Consumer:   consumer,
			Slot:       slot,
			OutputKind: p.Output.Kind,
			SlotKind:   s.Kind,
			Err:        ErrCycleRejected,
		}
	}

	if p.Output.Kind != s.Kind {
		return &ConnectError{
			Producer:   producer,
			Consumer:   consumer,
			Slot:       slot,
			OutputKind: p.Output.Kind,
			SlotKind:   s.Kind,
			Err:        ErrTypeMismatch,
		}
	}

	if s.Producer == producer {
		return nil
	}
	if s.Connected() {
		g.unlink(c, slot)
	}

	s.Producer = producer
	p.Output.consumers[consumer] = struct{}{}
	return nil
}

// Disconnect clears an input slot back to its literal. Disconnecting an
// unconnected slot is a no-op.
func (g *Graph) Disconnect(consumer NodeID, slot int) error {
	c, ok := g.nodes[consumer]
	if !ok {
		return unknownNode(consumer)
	}
	s, err := c.slot(slot)
	if err != nil {
		return err
	}
	if s.Connected() {
		g.unlink(c, slot)
	}
	return nil
}

// unlink clears slot i of c and drops c from the former producer's consumer
// set unless another slot of c still reads from it.
func (g *Graph) unlink(c *Node, i int) {
	pid := c.Inputs[i].Producer
	c.Inputs[i].Producer = NoNode

	if c.feedsFrom(pid) {
		return
	}
	if p, ok := g.nodes[pid]; ok {
		delete(p.Output.consumers, c.ID)
	}
}

// reaches reports whether adding the edge producer -> consumer would close a
// cycle, i.e. whether consumer already lies upstream of producer (or is
// producer itself).
//
// The walk follows input-slot producers from producer with an explicit
// stack and visited set, so shared ancestors in diamond-shaped graphs are
// expanded once and never mistaken for a cycle.
func (g *Graph) reaches(producer, consumer NodeID) bool {
	if producer == consumer {
		return true
	}

	visited := map[NodeID]bool{producer: true}
	stack := []NodeID{producer}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n, ok := g.nodes[current]
		if !ok {
			continue
		}
		for _, s := range n.Inputs {
			up := s.Producer
			if up == NoNode || visited[up] {
				continue
			}
			if up == consumer {
				return true
			}
			visited[up] = true
			stack = append(stack, up)
		}
	}

	return false
}
