/*
Package nodegraph provides a typed node graph with memoized evaluation.

# Overview

A graph holds nodes built from templates. Each node has typed input slots
and one typed output. A slot is either fed by another node's output or
holds a literal value. Evaluating a node walks backward through its
producers and applies each node's transform once.

Connections are checked before they are written:
  - the producer's output kind must equal the slot kind
  - the new edge must not close a cycle

Because Connect refuses cycles, Evaluate always terminates.

# Basic Usage

Use Editor for the session-level API (templates by name, toggle connect,
literal text, persistence):

	ed := nodegraph.NewEditor()
	defer ed.Close()

	n, _ := ed.Create(nodegraph.TemplateNewNumber)
	r, _ := ed.Create(nodegraph.TemplateRepeatString)

	_ = ed.SetInputValue(n, 0, "3")
	_ = ed.SetInputValue(r, 0, "ab")
	if _, err := ed.Connect(n, r, 1); err != nil {
	    log.Fatal(err)
	}

	out, _ := ed.Evaluate(ctx, r)
	fmt.Println(out) // "ababab"

Graph is the lower-level, unsynchronized structure Editor wraps. Use it
directly when you manage concurrency yourself.

# Templates

Register custom templates in a Catalog and pass it to the editor:

	upper := &nodegraph.Template{
	    Name:   "Upper",
	    Output: value.Text,
	    Inputs: []nodegraph.SlotSpec{{Label: "text", Default: value.Zero(value.Text)}},
	    Transform: func(in []value.Value) value.Value {
	        return value.Str(strings.ToUpper(in[0].AsText()))
	    },
	}
	catalog := nodegraph.DefaultCatalog()
	catalog.Register(upper)
	ed := nodegraph.NewEditor(nodegraph.WithCatalog(catalog))

Transforms must be pure. They receive one value per slot, already of the
slot's kind.

# Persistence

Persist writes the whole graph (nodes, edges, literals and the id counter)
as a JSON document to a snapshot.Store. Restore reads it back:

	store, _ := snapshot.NewSQLiteStore("graphs.db")
	ed := nodegraph.NewEditor(nodegraph.WithStore(store))
	_ = ed.Persist(ctx, "work.ane")

	if err := ed.Restore(ctx, "work.ane"); err != nil {
	    // *PersistenceError: the editor now holds an empty graph
	    log.Printf("warning: %v", err)
	}

With auto-persist on, every successful Connect, Disconnect, Remove and
SetInputValue saves under DefaultAutoPersistName:

	ed := nodegraph.NewEditor(nodegraph.WithAutoPersist(true))

# Error Handling

Graph operations return sentinel errors usable with errors.Is:

	_, err := ed.Connect(a, b, 0)
	switch {
	case errors.Is(err, nodegraph.ErrCycleRejected):
	case errors.Is(err, nodegraph.ErrTypeMismatch):
	case errors.Is(err, nodegraph.ErrInvalidSlotIndex):
	case errors.Is(err, nodegraph.ErrUnknownNodeID):
	}

Rejected connections carry a *ConnectError naming both kinds.

# Observability

Logging uses slog; pass a logger with WithLogger. WithMetrics and
WithTracing enable OpenTelemetry on the global providers:

	ed := nodegraph.NewEditor(
	    nodegraph.WithLogger(logger),
	    nodegraph.WithMetrics(true),
	    nodegraph.WithTracing(true),
	)

# Thread Safety

Editor methods are safe for concurrent use; they serialize on one lock.
Graph is not safe for concurrent use. Catalog is safe for concurrent use.
*/
package nodegraph
