package nodegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/value"
)

func TestNewGraph(t *testing.T) {
	g := NewGraph()
	assert.NotNil(t, g.nodes)
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, NoNode, g.LastID())
	assert.Empty(t, g.Nodes())
}

func TestGraph_Insert_AssignsIncreasingIDs(t *testing.T) {
	g := NewGraph()

	a := insert(g, NewNumberTemplate())
	b := insert(g, NewNumberTemplate())
	require.NoError(t, g.Remove(b))
	c := insert(g, NewNumberTemplate())

	assert.Equal(t, NodeID(1), a)
	assert.Equal(t, NodeID(2), b)
	assert.Equal(t, NodeID(3), c, "ids are never reused")
	assert.Equal(t, NodeID(3), g.LastID())
	assert.Equal(t, 2, g.Len())
}

func TestGraph_Insert_ClearsEdges(t *testing.T) {
	g := NewGraph()
	n := RepeatStringTemplate().NewNode()
	n.Inputs[1].Producer = 42
	n.Output.consumers[7] = struct{}{}

	id := g.Insert(n)

	got, ok := g.Node(id)
	require.True(t, ok)
	assert.False(t, got.Inputs[1].Connected())
	assert.Empty(t, got.Output.Consumers())
}

func TestGraph_Insert_Panics(t *testing.T) {
	g := NewGraph()
	assert.PanicsWithValue(t, "nodegraph: node cannot be nil", func() {
		g.Insert(nil)
	})
	assert.PanicsWithValue(t, "nodegraph: node template cannot be nil", func() {
		g.Insert(&Node{})
	})
}

func TestGraph_Node_ReturnsCopy(t *testing.T) {
	g := NewGraph()
	id := insert(g, RepeatStringTemplate())

	n, ok := g.Node(id)
	require.True(t, ok)
	n.Inputs[0].Value = value.Str("mutated")
	n.Inputs[1].Producer = 99

	again, _ := g.Node(id)
	assert.Equal(t, value.Str(""), again.Inputs[0].Value)
	assert.False(t, again.Inputs[1].Connected())

	_, ok = g.Node(99)
	assert.False(t, ok)
}

func TestGraph_Nodes_Ordered(t *testing.T) {
	g := NewGraph()
	for range 5 {
		insert(g, NewNumberTemplate())
	}
	require.NoError(t, g.Remove(2))

	var ids []NodeID
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []NodeID{1, 3, 4, 5}, ids)
}

func TestGraph_SetPositionAndWidth(t *testing.T) {
	g := NewGraph()
	id := insert(g, NewNumberTemplate())

	require.NoError(t, g.SetPosition(id, 10, 4))
	require.NoError(t, g.SetWidth(id, 17))

	n, _ := g.Node(id)
	assert.Equal(t, Position{X: 10, Y: 4, W: 17}, n.Position)

	assert.ErrorIs(t, g.SetPosition(9, 0, 0), ErrUnknownNodeID)
	assert.ErrorIs(t, g.SetWidth(9, 0), ErrUnknownNodeID)
}

func TestGraph_SetInputValue(t *testing.T) {
	g := NewGraph()
	id := insert(g, RepeatStringTemplate())

	require.NoError(t, g.SetInputValue(id, 0, value.Str("ab")))
	n, _ := g.Node(id)
	assert.Equal(t, value.Str("ab"), n.Inputs[0].Value)

	err := g.SetInputValue(id, 0, value.Int(3))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	var se *SlotError
	err = g.SetInputValue(id, 2, value.Int(3))
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Index)
	assert.Equal(t, 2, se.Count)
	assert.ErrorIs(t, err, ErrInvalidSlotIndex)

	assert.ErrorIs(t, g.SetInputValue(9, 0, value.Int(1)), ErrUnknownNodeID)
}

func TestGraph_SetInputLiteral(t *testing.T) {
	g := NewGraph()
	id := insert(g, RepeatStringTemplate())

	testCases := []struct {
		name         string
		slot         int
		text         string
		want         value.Value
		wantFallback bool
	}{
		{"text verbatim", 0, "ab", value.Str("ab"), false},
		{"text escapes", 0, `a\nb`, value.Str("a\nb"), false},
		{"integer", 1, "3", value.Int(3), false},
		{"integer spaces", 1, "  -7 ", value.Int(-7), false},
		{"integer garbage", 1, "three", value.Int(0), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fallback, err := g.SetInputLiteral(id, tc.slot, tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.wantFallback, fallback)

			n, _ := g.Node(id)
			assert.Equal(t, tc.want, n.Inputs[tc.slot].Value)
		})
	}

	_, err := g.SetInputLiteral(id, -1, "x")
	assert.ErrorIs(t, err, ErrInvalidSlotIndex)
	_, err = g.SetInputLiteral(5, 0, "x")
	assert.ErrorIs(t, err, ErrUnknownNodeID)
}

func TestGraph_Remove_SeversAllEdges(t *testing.T) {
	g := NewGraph()
	catalog := NewCatalog(sumTemplate())
	sum, _ := catalog.Lookup("Sum")

	a := insert(g, NewNumberTemplate())
	mid := insert(g, sum)
	c1 := insert(g, sum)
	c2 := insert(g, NewNumberTemplate())

	require.NoError(t, g.Connect(a, mid, 0))
	require.NoError(t, g.Connect(mid, c1, 0))
	require.NoError(t, g.Connect(mid, c1, 1))
	require.NoError(t, g.Connect(mid, c2, 0))

	require.NoError(t, g.Remove(mid))

	assert.False(t, g.Has(mid))
	an, _ := g.Node(a)
	assert.Empty(t, an.Output.Consumers())
	n1, _ := g.Node(c1)
	assert.False(t, n1.Inputs[0].Connected())
	assert.False(t, n1.Inputs[1].Connected())
	n2, _ := g.Node(c2)
	assert.False(t, n2.Inputs[0].Connected())
	requireEdgesConsistent(t, g)

	for _, n := range g.Nodes() {
		for _, s := range n.Inputs {
			assert.NotEqual(t, mid, s.Producer)
		}
		assert.False(t, n.Output.HasConsumer(mid))
	}

	assert.ErrorIs(t, g.Remove(mid), ErrUnknownNodeID)
}
