package nodegraph

import (
	"strings"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/value"
)

// Built-in template names.
const (
	TemplateNewNumber    = "New number"
	TemplateRepeatString = "Repeat string"
	TemplateNewText      = "New text"
)

// MaxRepeatBytes caps the length of a "Repeat string" result. Larger counts
// are clamped so a stray literal cannot exhaust memory.
const MaxRepeatBytes = 1 << 24

// TransformFunc computes a node's output from its resolved inputs.
// inputs has one entry per input slot, in slot order, each already of the
// slot's kind.
//
// Transforms must be pure: evaluation may call them at most once per node
// per top-level Evaluate, and never when a memoized value exists.
type TransformFunc func(inputs []value.Value) value.Value

// SlotSpec declares one input slot of a template.
type SlotSpec struct {
	Label string
	// Default is the slot's initial literal; its kind is the slot kind.
	Default value.Value
}

// Template describes a node shape and its transform.
type Template struct {
	Name      string
	Output    value.Kind
	Inputs    []SlotSpec
	Transform TransformFunc
}

// NewNode builds an unattached node skeleton (id NoNode) from the template.
func (t *Template) NewNode() *Node {
	n := &Node{
		Title:    t.Name,
		Template: t,
		Inputs:   make([]InputSlot, len(t.Inputs)),
		Output: OutputPort{
			Kind:      t.Output,
			consumers: make(map[NodeID]struct{}),
		},
	}
	for i, spec := range t.Inputs {
		n.Inputs[i] = InputSlot{
			Label: spec.Label,
			Kind:  spec.Default.Kind(),
			Value: spec.Default,
		}
	}
	return n
}

// NewNumberTemplate passes its single integer input through.
func NewNumberTemplate() *Template {
	return &Template{
		Name:   TemplateNewNumber,
		Output: value.Integer,
		Inputs: []SlotSpec{
			{Label: "number", Default: value.Zero(value.Integer)},
		},
		Transform: func(in []value.Value) value.Value {
			return value.Int(in[0].AsInteger())
		},
	}
}

// RepeatStringTemplate repeats its text input count times. A count of zero
// or less yields "".
func RepeatStringTemplate() *Template {
	return &Template{
		Name:   TemplateRepeatString,
		Output: value.Text,
		Inputs: []SlotSpec{
			{Label: "string", Default: value.Zero(value.Text)},
			{Label: "number", Default: value.Zero(value.Integer)},
		},
		Transform: func(in []value.Value) value.Value {
			return value.Str(repeat(in[0].AsText(), in[1].AsInteger()))
		},
	}
}

// NewTextTemplate passes its single text input through.
func NewTextTemplate() *Template {
	return &Template{
		Name:   TemplateNewText,
		Output: value.Text,
		Inputs: []SlotSpec{
			{Label: "text", Default: value.Zero(value.Text)},
		},
		Transform: func(in []value.Value) value.Value {
			return value.Str(in[0].AsText())
		},
	}
}

func repeat(s string, count int64) string {
	if count <= 0 || s == "" {
		return ""
	}
	if limit := int64(MaxRepeatBytes / len(s)); count > limit {
		count = limit
	}
	return strings.Repeat(s, int(count))
}
