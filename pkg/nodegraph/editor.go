package nodegraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/observability"
	"github.com/randalmurphal/nodegraph/pkg/nodegraph/snapshot"
	"github.com/randalmurphal/nodegraph/pkg/nodegraph/value"
)

// DefaultPosition is where Create places new nodes.
var DefaultPosition = Position{X: 2, Y: 2}

// ConnectAction reports what Editor.Connect did to the slot.
type ConnectAction int

const (
	// NoChange means the call was rejected and the slot is as it was.
	NoChange ConnectAction = iota
	// Connected means an unconnected slot now reads from the producer.
	Connected
	// Disconnected means the slot already read from the producer and was
	// cleared.
	Disconnected
	// Reconnected means the slot moved from another producer to this one.
	Reconnected
)

// String returns the action name.
func (a ConnectAction) String() string {
	switch a {
	case Connected:
		return observability.OutcomeConnected
	case Disconnected:
		return observability.OutcomeDisconnected
	case Reconnected:
		return observability.OutcomeReconnected
	default:
		return "no_change"
	}
}

// Editor is the session-level API over a Graph: nodes are created by
// template name, Connect toggles edges, literals are set from text, and the
// whole graph can be persisted to and restored from a snapshot store.
//
// Editor is safe for concurrent use. Every call holds a single lock for its
// full duration, auto-persist included.
type Editor struct {
	mu sync.Mutex

	graph   *Graph
	catalog *Catalog
	store   snapshot.Store

	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	sessionID string

	autoPersist     bool
	autoPersistName string
}

// NewEditor creates an editor over an empty graph.
//
// Example:
//
//	ed := nodegraph.NewEditor(nodegraph.WithStore(snapshot.NewMemoryStore()))
//	defer ed.Close()
//	n, _ := ed.Create(nodegraph.TemplateNewNumber)
//	r, _ := ed.Create(nodegraph.TemplateRepeatString)
//	_ = ed.SetInputValue(n, 0, "3")
//	_ = ed.SetInputValue(r, 0, "ab")
//	_, _ = ed.Connect(n, r, 1)
//	out, _ := ed.Evaluate(ctx, r) // "ababab"
func NewEditor(opts ...Option) *Editor {
	cfg := defaultEditorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.catalog == nil {
		cfg.catalog = DefaultCatalog()
	}
	if cfg.sessionID == "" {
		cfg.sessionID = uuid.New().String()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	logger := observability.EnrichLogger(cfg.logger, cfg.sessionID)

	if cfg.store == nil {
		fs, err := snapshot.NewFileStore(".")
		if err != nil {
			logger.Warn("working directory unusable for snapshots, keeping them in memory",
				slog.String("error", err.Error()))
			cfg.store = snapshot.NewMemoryStore()
		} else {
			cfg.store = fs
		}
	}

	var metrics observability.MetricsRecorder = observability.NoopMetrics{}
	if cfg.metrics {
		metrics = observability.NewMetricsRecorder()
	}
	var spans observability.SpanManager = observability.NoopSpanManager{}
	if cfg.tracing {
		spans = observability.NewSpanManager()
	}

	return &Editor{
		graph:           NewGraph(),
		catalog:         cfg.catalog,
		store:           cfg.store,
		logger:          logger,
		metrics:         metrics,
		spans:           spans,
		sessionID:       cfg.sessionID,
		autoPersist:     cfg.autoPersist,
		autoPersistName: cfg.autoPersistName,
	}
}

// Create adds a node built from the named template at DefaultPosition.
// Creation never triggers auto-persist.
func (e *Editor) Create(template string) (NodeID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.catalog.Lookup(template)
	if !ok {
		return NoNode, fmt.Errorf("%w: %q", ErrUnknownTemplate, template)
	}

	n := t.NewNode()
	n.Position = DefaultPosition
	id := e.graph.Insert(n)

	observability.LogNodeCreated(e.logger, uint64(id), t.Name)
	return id, nil
}

// Remove deletes a node and every edge touching it.
func (e *Editor) Remove(id NodeID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.graph.Remove(id); err != nil {
		return err
	}
	observability.LogNodeRemoved(e.logger, uint64(id))
	e.autoPersistLocked()
	return nil
}

// SetPosition moves a node. Moving never triggers auto-persist.
func (e *Editor) SetPosition(id NodeID, x, y int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.SetPosition(id, x, y)
}

// SetWidth records the width a presentation layer drew the node at.
func (e *Editor) SetWidth(id NodeID, w int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.SetWidth(id, w)
}

// Connect toggles the edge from's output -> to's input slot:
//   - slot unconnected: connect it (Connected)
//   - slot already fed by from: disconnect it (Disconnected)
//   - slot fed by another node: move it to from (Reconnected)
//
// Connecting and re-pointing are subject to the cycle and type checks of
// Graph.Connect. A rejected re-point keeps the existing edge. On error the
// action is NoChange.
func (e *Editor) Connect(from, to NodeID, slot int) (ConnectAction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx := context.Background()
	action, err := e.toggleLocked(from, to, slot)
	if err != nil {
		var ce *ConnectError
		if errors.As(err, &ce) {
			observability.LogConnectRejected(e.logger, uint64(from), uint64(to), slot, err)
			e.metrics.RecordConnect(ctx, observability.OutcomeRejected)
		}
		return NoChange, err
	}

	if action == Disconnected {
		observability.LogDisconnected(e.logger, uint64(to), slot)
	} else {
		observability.LogConnected(e.logger, uint64(from), uint64(to), slot)
	}
	e.metrics.RecordConnect(ctx, action.String())
	e.autoPersistLocked()
	return action, nil
}

func (e *Editor) toggleLocked(from, to NodeID, slot int) (ConnectAction, error) {
	c, ok := e.graph.nodes[to]
	if !ok {
		return NoChange, unknownNode(to)
	}
	s, err := c.slot(slot)
	if err != nil {
		return NoChange, err
	}

	if s.Connected() && s.Producer == from {
		if err := e.graph.Disconnect(to, slot); err != nil {
			return NoChange, err
		}
		return Disconnected, nil
	}

	action := Connected
	if s.Connected() {
		action = Reconnected
	}
	if err := e.graph.Connect(from, to, slot); err != nil {
		return NoChange, err
	}
	return action, nil
}

// Disconnect clears an input slot back to its literal. Clearing an
// unconnected slot succeeds and changes nothing.
func (e *Editor) Disconnect(to NodeID, slot int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.graph.Disconnect(to, slot); err != nil {
		return err
	}
	observability.LogDisconnected(e.logger, uint64(to), slot)
	e.autoPersistLocked()
	return nil
}

// SetInputValue parses text as the slot's kind and stores it as the slot
// literal. Integer text that does not parse stores 0; that is logged and
// counted but not returned as an error.
func (e *Editor) SetInputValue(id NodeID, slot int, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fallback, err := e.graph.SetInputLiteral(id, slot, text)
	if err != nil {
		return err
	}
	if fallback {
		kind := e.graph.nodes[id].Inputs[slot].Kind
		observability.LogParseFallback(e.logger, uint64(id), slot, text)
		e.metrics.RecordParseFallback(context.Background(), kind.String())
	}
	e.autoPersistLocked()
	return nil
}

// Evaluate computes node id and returns its display text.
func (e *Editor) Evaluate(ctx context.Context, id NodeID) (string, error) {
	v, err := e.EvaluateValue(ctx, id)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// EvaluateValue computes node id and returns the typed value.
func (e *Editor) EvaluateValue(ctx context.Context, id NodeID) (value.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, span := e.spans.StartEvaluateSpan(ctx, e.sessionID, uint64(id))
	start := time.Now()

	v, err := e.graph.Evaluate(id)
	if err != nil {
		e.spans.EndSpanWithError(span, err)
		return value.Value{}, err
	}

	duration := time.Since(start)
	transforms := e.graph.LastTransformCount()
	e.metrics.RecordEvaluation(ctx, duration, transforms)
	observability.LogEvaluated(e.logger, uint64(id), float64(duration.Microseconds())/1000, transforms)
	e.spans.EndSpanWithError(span, nil)
	return v, nil
}

// Persist writes the graph to the store under name.
func (e *Editor) Persist(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persistLocked(ctx, name)
}

func (e *Editor) persistLocked(ctx context.Context, name string) (err error) {
	ctx, span := e.spans.StartPersistSpan(ctx, "save", name)
	var size int
	defer func() {
		e.metrics.RecordPersist(ctx, "save", int64(size), err)
		e.spans.EndSpanWithError(span, err)
	}()

	data, err := e.graph.Document(e.sessionID).Marshal()
	if err != nil {
		return &PersistenceError{Name: name, Op: "encode", Err: err}
	}
	if err := e.store.Save(name, data); err != nil {
		return &PersistenceError{Name: name, Op: "save", Err: err}
	}
	size = len(data)
	observability.LogPersisted(e.logger, name, size)
	return nil
}

// Restore replaces the graph with the snapshot stored under name.
//
// If the snapshot is missing, unreadable, undecodable or does not describe
// a consistent graph, the editor is left with an empty graph and a
// *PersistenceError is returned. Its Kind is ErrPersistenceUnavailable or
// ErrPersistenceCorrupt. Callers should treat it as a warning.
func (e *Editor) Restore(ctx context.Context, name string) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, span := e.spans.StartPersistSpan(ctx, "load", name)
	var size int
	defer func() {
		e.metrics.RecordPersist(ctx, "load", int64(size), err)
		e.spans.EndSpanWithError(span, err)
	}()

	g, size, err := e.load(name)
	if err != nil {
		e.graph = NewGraph()
		observability.LogRestoreFallback(e.logger, name, err)
		return err
	}

	e.graph = g
	observability.LogRestored(e.logger, name, g.Len())
	return nil
}

// load reads and decodes a snapshot into a new graph.
func (e *Editor) load(name string) (*Graph, int, error) {
	data, err := e.store.Load(name)
	if err != nil {
		return nil, 0, &PersistenceError{Name: name, Op: "load", Kind: ErrPersistenceUnavailable, Err: err}
	}
	doc, err := snapshot.Unmarshal(data)
	if err != nil {
		return nil, len(data), &PersistenceError{Name: name, Op: "decode", Kind: ErrPersistenceCorrupt, Err: err}
	}
	g, err := GraphFromDocument(doc, e.catalog)
	if err != nil {
		return nil, len(data), &PersistenceError{Name: name, Op: "validate", Kind: ErrPersistenceCorrupt, Err: err}
	}
	return g, len(data), nil
}

// SetAutoPersist turns auto-persist on or off. While on, every successful
// Connect, Disconnect, Remove and SetInputValue persists the graph under
// the auto-persist name. Failures are logged, never returned.
func (e *Editor) SetAutoPersist(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoPersist = enabled
}

// AutoPersist reports whether auto-persist is on.
func (e *Editor) AutoPersist() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoPersist
}

// AutoPersistName returns the snapshot name auto-persist writes to.
func (e *Editor) AutoPersistName() string {
	return e.autoPersistName
}

func (e *Editor) autoPersistLocked() {
	if !e.autoPersist {
		return
	}
	if err := e.persistLocked(context.Background(), e.autoPersistName); err != nil {
		observability.LogPersistError(e.logger, e.autoPersistName, "autosave", err)
	}
}

// Node returns a copy of the node with the given id.
func (e *Editor) Node(id NodeID) (Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Node(id)
}

// Nodes returns copies of all nodes, ordered by id.
func (e *Editor) Nodes() []Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Nodes()
}

// LastID returns the most recently assigned node id.
func (e *Editor) LastID() NodeID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.LastID()
}

// Templates returns the names Create accepts, sorted.
func (e *Editor) Templates() []string {
	return e.catalog.Names()
}

// SessionID returns the identifier stamped on logs and snapshots.
func (e *Editor) SessionID() string {
	return e.sessionID
}

// Close releases the snapshot store.
func (e *Editor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Close()
}
