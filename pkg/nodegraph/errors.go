package nodegraph

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/value"
)

// Sentinel errors for graph operations.
var (
	// ErrUnknownNodeID indicates an operation referenced a node id not in the graph.
	ErrUnknownNodeID = errors.New("unknown node id")

	// ErrInvalidSlotIndex indicates a slot index out of range for the node.
	ErrInvalidSlotIndex = errors.New("invalid slot index")

	// ErrUnknownTemplate indicates Create was given an unregistered template name.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrTypeMismatch indicates a connection between incompatible kinds.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrCycleRejected indicates a connection would create a cycle.
	ErrCycleRejected = errors.New("connection would create a cycle")
)

// Sentinel errors for persistence. Both are warnings: the editor has already
// fallen back to an empty graph when they are returned.
var (
	// ErrPersistenceUnavailable indicates the snapshot is missing or unreadable.
	ErrPersistenceUnavailable = errors.New("snapshot unavailable")

	// ErrPersistenceCorrupt indicates the snapshot could not be decoded into a
	// consistent graph.
	ErrPersistenceCorrupt = errors.New("snapshot corrupt")
)

// ConnectError reports a rejected connection.
type ConnectError struct {
	// Producer is the node whose output was being connected.
	Producer NodeID
	// Consumer is the node whose input slot was the target.
	Consumer NodeID
	// Slot is the consumer's input slot index.
	Slot int
	// OutputKind is the producer's output kind.
	OutputKind value.Kind
	// SlotKind is the kind the consumer's slot expects.
	SlotKind value.Kind
	// Err is ErrTypeMismatch or ErrCycleRejected.
	Err error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	if errors.Is(e.Err, ErrTypeMismatch) {
		return fmt.Sprintf("connect %d -> %d[%d]: %v: output is %s, slot expects %s",
			e.Producer, e.Consumer, e.Slot, e.Err, e.OutputKind, e.SlotKind)
	}
	return fmt.Sprintf("connect %d -> %d[%d]: %v", e.Producer, e.Consumer, e.Slot, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// SlotError reports a slot index outside a node's input range.
type SlotError struct {
	NodeID NodeID
	Index  int
	// Count is the number of input slots the node has.
	Count int
}

// Error implements the error interface.
func (e *SlotError) Error() string {
	return fmt.Sprintf("node %d: %v: %d (node has %d inputs)", e.NodeID, ErrInvalidSlotIndex, e.Index, e.Count)
}

// Unwrap returns ErrInvalidSlotIndex for errors.Is support.
func (e *SlotError) Unwrap() error {
	return ErrInvalidSlotIndex
}

// PersistenceError wraps a persist or restore failure.
type PersistenceError struct {
	// Name is the snapshot name or path.
	Name string
	// Op is the failing step ("save", "load", "decode", "validate").
	Op string
	// Kind is ErrPersistenceUnavailable or ErrPersistenceCorrupt.
	// Nil for persist failures.
	Kind error
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	if e.Kind != nil {
		return fmt.Sprintf("snapshot %s: %s: %v: %v", e.Name, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("snapshot %s: %s: %v", e.Name, e.Op, e.Err)
}

// Unwrap returns both the classification and the cause.
func (e *PersistenceError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

func unknownNode(id NodeID) error {
	return fmt.Errorf("%w: %d", ErrUnknownNodeID, id)
}
