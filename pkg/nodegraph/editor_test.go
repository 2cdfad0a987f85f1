package nodegraph

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/snapshot"
	"github.com/randalmurphal/nodegraph/pkg/nodegraph/value"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEditor returns an editor on a memory store with logging discarded.
func newTestEditor(t *testing.T, opts ...Option) (*Editor, *snapshot.MemoryStore) {
	t.Helper()
	store := snapshot.NewMemoryStore()
	opts = append([]Option{WithStore(store), WithLogger(discardLogger())}, opts...)
	ed := NewEditor(opts...)
	t.Cleanup(func() { _ = ed.Close() })
	return ed, store
}

// failingStore accepts nothing.
type failingStore struct{}

var errDiskFull = errors.New("disk full")

func (failingStore) Save(string, []byte) error      { return errDiskFull }
func (failingStore) Load(string) ([]byte, error)    { return nil, errDiskFull }
func (failingStore) List() ([]snapshot.Info, error) { return nil, errDiskFull }
func (failingStore) Delete(string) error            { return errDiskFull }
func (failingStore) Close() error                   { return nil }

// shapes drops template pointers so nodes from editors with separate
// catalogs compare equal.
func shapes(nodes []Node) []Node {
	for i := range nodes {
		nodes[i].Template = nil
	}
	return nodes
}

func TestNewEditor_Defaults(t *testing.T) {
	ed, _ := newTestEditor(t)

	assert.NotEmpty(t, ed.SessionID())
	assert.False(t, ed.AutoPersist())
	assert.Equal(t, DefaultAutoPersistName, ed.AutoPersistName())
	assert.Equal(t, DefaultCatalog().Names(), ed.Templates())
	assert.Empty(t, ed.Nodes())
}

func TestNewEditor_Options(t *testing.T) {
	ed, _ := newTestEditor(t,
		WithSessionID("fixed"),
		WithAutoPersist(true),
		WithAutoPersistName("mine.ane"),
		WithCatalog(NewCatalog(sumTemplate())),
	)

	assert.Equal(t, "fixed", ed.SessionID())
	assert.True(t, ed.AutoPersist())
	assert.Equal(t, "mine.ane", ed.AutoPersistName())
	assert.Equal(t, []string{"Sum"}, ed.Templates())

	ed2, _ := newTestEditor(t, WithAutoPersistName(""))
	assert.Equal(t, DefaultAutoPersistName, ed2.AutoPersistName())
}

func TestEditor_Create(t *testing.T) {
	ed, _ := newTestEditor(t)

	id, err := ed.Create(TemplateRepeatString)
	require.NoError(t, err)
	assert.Equal(t, NodeID(1), id)

	n, ok := ed.Node(id)
	require.True(t, ok)
	assert.Equal(t, TemplateRepeatString, n.Title)
	assert.Equal(t, DefaultPosition, n.Position)

	_, err = ed.Create("Nope")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.Equal(t, NodeID(1), ed.LastID())
}

func TestEditor_ConnectToggle(t *testing.T) {
	ed, _ := newTestEditor(t)
	n1, _ := ed.Create(TemplateNewNumber)
	n2, _ := ed.Create(TemplateNewNumber)
	r, _ := ed.Create(TemplateRepeatString)

	action, err := ed.Connect(n1, r, 1)
	require.NoError(t, err)
	assert.Equal(t, Connected, action)

	action, err = ed.Connect(n2, r, 1)
	require.NoError(t, err)
	assert.Equal(t, Reconnected, action)
	rn, _ := ed.Node(r)
	assert.Equal(t, n2, rn.Inputs[1].Producer)
	old, _ := ed.Node(n1)
	assert.Empty(t, old.Output.Consumers())

	action, err = ed.Connect(n2, r, 1)
	require.NoError(t, err)
	assert.Equal(t, Disconnected, action)
	rn, _ = ed.Node(r)
	assert.False(t, rn.Inputs[1].Connected())
}

func TestEditor_ConnectRejected(t *testing.T) {
	ed, _ := newTestEditor(t)
	n, _ := ed.Create(TemplateNewNumber)
	r, _ := ed.Create(TemplateRepeatString)

	action, err := ed.Connect(n, r, 0)
	assert.Equal(t, NoChange, action)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	action, err = ed.Connect(r, r, 1)
	assert.Equal(t, NoChange, action)
	assert.ErrorIs(t, err, ErrCycleRejected)

	_, err = ed.Connect(n, 99, 0)
	assert.ErrorIs(t, err, ErrUnknownNodeID)
	_, err = ed.Connect(n, r, 3)
	assert.ErrorIs(t, err, ErrInvalidSlotIndex)
}

func TestConnectAction_String(t *testing.T) {
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "reconnected", Reconnected.String())
	assert.Equal(t, "no_change", NoChange.String())
}

func TestEditor_SetInputValue(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ed, _ := newTestEditor(t, WithLogger(logger))
	r, _ := ed.Create(TemplateRepeatString)

	require.NoError(t, ed.SetInputValue(r, 0, `a\tb`))
	require.NoError(t, ed.SetInputValue(r, 1, "2"))
	out, err := ed.Evaluate(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "a\tba\tb", out)

	require.NoError(t, ed.SetInputValue(r, 1, "lots"), "parse fallback is not an error")
	n, _ := ed.Node(r)
	assert.Equal(t, value.Int(0), n.Inputs[1].Value)
	assert.Contains(t, buf.String(), "literal did not parse")

	assert.ErrorIs(t, ed.SetInputValue(r, 2, "x"), ErrInvalidSlotIndex)
	assert.ErrorIs(t, ed.SetInputValue(9, 0, "x"), ErrUnknownNodeID)
}

func TestEditor_Evaluate(t *testing.T) {
	ed, _ := newTestEditor(t)
	n, _ := ed.Create(TemplateNewNumber)
	require.NoError(t, ed.SetInputValue(n, 0, "-12"))

	v, err := ed.EvaluateValue(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, value.Int(-12), v)

	_, err = ed.Evaluate(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnknownNodeID)
}

func TestEditor_RemoveAndDisconnect(t *testing.T) {
	ed, _ := newTestEditor(t)
	n, _ := ed.Create(TemplateNewNumber)
	r, _ := ed.Create(TemplateRepeatString)
	_, err := ed.Connect(n, r, 1)
	require.NoError(t, err)

	require.NoError(t, ed.Disconnect(r, 1))
	require.NoError(t, ed.Disconnect(r, 1))
	rn, _ := ed.Node(r)
	assert.False(t, rn.Inputs[1].Connected())

	_, err = ed.Connect(n, r, 1)
	require.NoError(t, err)
	require.NoError(t, ed.Remove(n))
	rn, _ = ed.Node(r)
	assert.False(t, rn.Inputs[1].Connected())
	assert.ErrorIs(t, ed.Remove(n), ErrUnknownNodeID)
}

func TestEditor_PositionAndWidth(t *testing.T) {
	ed, _ := newTestEditor(t)
	n, _ := ed.Create(TemplateNewNumber)

	require.NoError(t, ed.SetPosition(n, 30, 12))
	require.NoError(t, ed.SetWidth(n, 14))
	got, _ := ed.Node(n)
	assert.Equal(t, Position{X: 30, Y: 12, W: 14}, got.Position)
	assert.ErrorIs(t, ed.SetPosition(7, 0, 0), ErrUnknownNodeID)
}

func TestEditor_PersistRestore(t *testing.T) {
	ctx := context.Background()
	ed, store := newTestEditor(t)
	n, _ := ed.Create(TemplateNewNumber)
	r, _ := ed.Create(TemplateRepeatString)
	require.NoError(t, ed.SetInputValue(n, 0, "3"))
	require.NoError(t, ed.SetInputValue(r, 0, "ab"))
	_, err := ed.Connect(n, r, 1)
	require.NoError(t, err)
	require.NoError(t, ed.SetPosition(r, 40, 3))
	before := ed.Nodes()

	require.NoError(t, ed.Persist(ctx, "graph.ane"))
	assert.Equal(t, 1, store.Len())

	// A second editor on the same store sees the same graph.
	other := NewEditor(WithStore(store), WithLogger(discardLogger()))
	require.NoError(t, other.Restore(ctx, "graph.ane"))
	assert.Equal(t, ed.LastID(), other.LastID())
	assert.Equal(t, shapes(before), shapes(other.Nodes()))

	out, err := other.Evaluate(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, "ababab", out)
}

func TestEditor_RestoreMissing(t *testing.T) {
	ed, _ := newTestEditor(t)
	_, _ = ed.Create(TemplateNewNumber)

	err := ed.Restore(context.Background(), "missing.ane")

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "load", pe.Op)
	assert.Equal(t, "missing.ane", pe.Name)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
	assert.Empty(t, ed.Nodes(), "falls back to an empty graph")
	assert.Equal(t, NoNode, ed.LastID())
}

func TestEditor_RestoreCorrupt(t *testing.T) {
	testCases := []struct {
		name   string
		data   []byte
		wantOp string
	}{
		{"not json", []byte("\x00\x01garbage"), "decode"},
		{"wrong shape", []byte(`{"version": 1, "nodes": "x"}`), "decode"},
		{"future version", []byte(`{"version": 99, "last_id": 0, "nodes": []}`), "decode"},
		{"inconsistent", []byte(`{"version": 1, "last_id": 1, "nodes": [
			{"id": 1, "template": "New number", "inputs": [
				{"producer": 5, "value": {"kind": "integer"}}
			]}
		]}`), "validate"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ed, store := newTestEditor(t)
			_, _ = ed.Create(TemplateNewNumber)
			require.NoError(t, store.Save("bad.ane", tc.data))

			err := ed.Restore(context.Background(), "bad.ane")

			var pe *PersistenceError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.wantOp, pe.Op)
			assert.ErrorIs(t, err, ErrPersistenceCorrupt)
			assert.Empty(t, ed.Nodes())
		})
	}
}

func TestEditor_PersistFailure(t *testing.T) {
	ed := NewEditor(WithStore(failingStore{}), WithLogger(discardLogger()))
	err := ed.Persist(context.Background(), "x.ane")

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "save", pe.Op)
	assert.Nil(t, pe.Kind)
	assert.ErrorIs(t, err, errDiskFull)
}

func TestEditor_AutoPersist(t *testing.T) {
	ctx := context.Background()
	ed, store := newTestEditor(t, WithAutoPersist(true))

	n, _ := ed.Create(TemplateNewNumber)
	r, _ := ed.Create(TemplateRepeatString)
	require.NoError(t, ed.SetPosition(n, 5, 5))
	assert.Equal(t, 0, store.Len(), "create and move do not persist")

	require.NoError(t, ed.SetInputValue(n, 0, "2"))
	require.Equal(t, 1, store.Len())

	mirror := func() []Node {
		m := NewEditor(WithStore(store), WithLogger(discardLogger()))
		require.NoError(t, m.Restore(ctx, DefaultAutoPersistName))
		return shapes(m.Nodes())
	}

	_, err := ed.Connect(n, r, 1)
	require.NoError(t, err)
	assert.Equal(t, shapes(ed.Nodes()), mirror())

	require.NoError(t, ed.Disconnect(r, 1))
	assert.Equal(t, shapes(ed.Nodes()), mirror())

	require.NoError(t, ed.Remove(n))
	assert.Equal(t, shapes(ed.Nodes()), mirror())

	ed.SetAutoPersist(false)
	assert.False(t, ed.AutoPersist())
	_, _ = ed.Create(TemplateNewNumber)
	require.NoError(t, ed.SetInputValue(r, 0, "zz"))
	assert.Len(t, mirror(), 1, "no writes while off")
}

func TestEditor_AutoPersistFailureIsLogged(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	ed := NewEditor(WithStore(failingStore{}), WithLogger(logger), WithAutoPersist(true))

	n, _ := ed.Create(TemplateNewNumber)
	assert.NoError(t, ed.SetInputValue(n, 0, "1"))
	assert.Contains(t, buf.String(), "snapshot save failed")
	assert.Contains(t, buf.String(), "disk full")
}

func TestEditor_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})

	ctx := context.Background()
	ed, _ := newTestEditor(t, WithTracing(true))
	n, _ := ed.Create(TemplateNewNumber)
	_, err := ed.Evaluate(ctx, n)
	require.NoError(t, err)
	require.NoError(t, ed.Persist(ctx, "t.ane"))
	_ = ed.Restore(ctx, "absent.ane")

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"nodegraph.evaluate", "nodegraph.snapshot.save", "nodegraph.snapshot.load"}, names)
}

func TestEditor_ConcurrentUse(t *testing.T) {
	ed, _ := newTestEditor(t)
	r, _ := ed.Create(TemplateRepeatString)
	require.NoError(t, ed.SetInputValue(r, 0, "a"))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := ed.Create(TemplateNewNumber)
			if !assert.NoError(t, err) {
				return
			}
			_ = ed.SetInputValue(n, 0, "2")
			_, _ = ed.Connect(n, r, 1)
			_, _ = ed.Evaluate(context.Background(), r)
		}()
	}
	wg.Wait()

	assert.Equal(t, NodeID(9), ed.LastID())
	rn, _ := ed.Node(r)
	assert.True(t, rn.Inputs[1].Connected())
}
