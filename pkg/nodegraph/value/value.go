// Package value provides the tagged values that flow between graph nodes.
//
// A Value always carries exactly one payload matching its Kind. Conversions
// never fail: reading the wrong payload yields the kind's zero value, and
// parsing bad literal text falls back to zero while reporting ErrParseFallback.
package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the type of a value. Connections are type-checked by Kind
// alone.
type Kind int

const (
	// Integer is a signed 64-bit integer.
	Integer Kind = iota

	// Text is a UTF-8 string.
	Text
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// Color returns the RGB color a presentation layer uses for sockets and
// connections of this kind. It plays no part in equality.
func (k Kind) Color() [3]uint8 {
	switch k {
	case Integer:
		return [3]uint8{68, 139, 211}
	case Text:
		return [3]uint8{38, 209, 111}
	default:
		return [3]uint8{255, 255, 255}
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k == Integer || k == Text
}

// ErrUnknownKind indicates a kind name that ParseKind does not recognize.
var ErrUnknownKind = errors.New("unknown value kind")

// ParseKind returns the Kind whose String form is name.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "integer":
		return Integer, nil
	case "text":
		return Text, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// ErrParseFallback indicates literal text could not be parsed as the target
// kind and the kind's zero value was substituted.
var ErrParseFallback = errors.New("literal parse fell back to zero value")

// Value is a tagged union over the supported kinds. The zero Value is
// Integer 0. Values are comparable with ==.
type Value struct {
	kind    Kind
	integer int64
	text    string
}

// Int returns an Integer value.
func Int(n int64) Value {
	return Value{kind: Integer, integer: n}
}

// Str returns a Text value.
func Str(s string) Value {
	return Value{kind: Text, text: s}
}

// Zero returns the zero value of kind: 0 for Integer, "" for Text.
func Zero(kind Kind) Value {
	return Value{kind: kind}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind {
	return v.kind
}

// AsInteger returns the integer payload, or 0 if v is not an Integer.
func (v Value) AsInteger() int64 {
	if v.kind != Integer {
		return 0
	}
	return v.integer
}

// AsText returns the text payload, or "" if v is not Text.
func (v Value) AsText() string {
	if v.kind != Text {
		return ""
	}
	return v.text
}

// String returns the display text of the payload.
func (v Value) String() string {
	switch v.kind {
	case Integer:
		return strconv.FormatInt(v.integer, 10)
	case Text:
		return v.text
	default:
		return ""
	}
}

// Parse produces a new value of v's kind from literal text.
//
// Integer literals are parsed as base-10 signed integers exactly as
// written, so surrounding whitespace fails the parse. On failure Parse
// returns Int(0) and an error wrapping ErrParseFallback; the returned value
// is always usable.
//
// Text literals are taken verbatim after escape normalization (see
// Unescape) and never fail.
func (v Value) Parse(text string) (Value, error) {
	switch v.kind {
	case Integer:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Int(0), fmt.Errorf("%w: %q is not an integer", ErrParseFallback, text)
		}
		return Int(n), nil
	case Text:
		return Str(Unescape(text)), nil
	default:
		return Zero(v.kind), fmt.Errorf("%w: cannot parse %s", ErrParseFallback, v.kind)
	}
}

// Coerce returns v when it already has the requested kind, otherwise the
// zero value of kind.
func Coerce(v Value, kind Kind) Value {
	if v.kind == kind {
		return v
	}
	return Zero(kind)
}

// escapes maps the backslash sequences accepted in text literals.
var escapes = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\t`, "\t",
	`\r`, "\r",
	`\"`, `"`,
	`\'`, `'`,
)

// Unescape replaces the escape sequences \n, \t, \r, \\, \" and \' with the
// characters they name. Unknown sequences are left as written.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return escapes.Replace(s)
}
