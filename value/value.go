// Package value provides the dynamic value type shared by every codec and by
// script bindings.
//
// A Value is one of a closed set of types: Null, Bool, Number, String,
// Sequence, or Mapping. Consumers type assert against the concrete types:
//
//	switch v := v.(type) {
//	case *value.String:
//		// do something with v.Value()
//	case *value.Mapping:
//		// iterate v.Keys() in insertion order
//	}
//
// Values are trees: no cycles. Numbers use a single float64 representation to
// match the scripting engine's numeric model. Mapping keys are unique and
// iterate in insertion order, which codecs preserve across decode and encode.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Type of a value as a string.
type Type string

// Type constants
const (
	NULL     Type = "null"
	BOOL     Type = "bool"
	NUMBER   Type = "number"
	STRING   Type = "string"
	SEQUENCE Type = "sequence"
	MAPPING  Type = "mapping"
)

var (
	Null  = &NullType{}
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

// Value is the interface implemented by all value types.
type Value interface {
	// Type of the value.
	Type() Type

	// Display returns the canonical display text of the value. Strings pass
	// through unchanged, booleans render as true/false, null renders as empty
	// text, numbers render using the shortest text that round-trips, and
	// compound values render as compact JSON.
	Display() string

	// Equals returns true if the given value is equal to this value.
	Equals(other Value) bool
}

// NullType is the null value. Use the Null singleton.
type NullType struct{}

func (n *NullType) Type() Type {
	return NULL
}

func (n *NullType) Display() string {
	return ""
}

func (n *NullType) Equals(other Value) bool {
	_, ok := other.(*NullType)
	return ok
}

// Bool wraps bool. Use the True and False singletons via NewBool.
type Bool struct {
	value bool
}

// NewBool returns the Bool singleton for the given bool.
func NewBool(b bool) *Bool {
	if b {
		return True
	}
	return False
}

func (b *Bool) Type() Type {
	return BOOL
}

func (b *Bool) Value() bool {
	return b.value
}

func (b *Bool) Display() string {
	return strconv.FormatBool(b.value)
}

func (b *Bool) Equals(other Value) bool {
	o, ok := other.(*Bool)
	return ok && b.value == o.value
}

// Number wraps float64.
type Number struct {
	value float64
}

// NewNumber returns a Number wrapping the given float64.
func NewNumber(f float64) *Number {
	return &Number{value: f}
}

func (n *Number) Type() Type {
	return NUMBER
}

func (n *Number) Value() float64 {
	return n.value
}

func (n *Number) Display() string {
	return FormatNumber(n.value)
}

func (n *Number) Equals(other Value) bool {
	o, ok := other.(*Number)
	return ok && n.value == o.value
}

// String wraps string.
type String struct {
	value string
}

// NewString returns a String wrapping the given string.
func NewString(s string) *String {
	return &String{value: s}
}

func (s *String) Type() Type {
	return STRING
}

func (s *String) Value() string {
	return s.value
}

func (s *String) Display() string {
	return s.value
}

func (s *String) Equals(other Value) bool {
	o, ok := other.(*String)
	return ok && s.value == o.value
}

// Sequence is an ordered list of values.
type Sequence struct {
	items []Value
}

// NewSequence returns a Sequence holding the given items.
func NewSequence(items []Value) *Sequence {
	return &Sequence{items: items}
}

func (s *Sequence) Type() Type {
	return SEQUENCE
}

// Items returns the underlying item slice. Callers must not modify it.
func (s *Sequence) Items() []Value {
	return s.items
}

// Len returns the number of items.
func (s *Sequence) Len() int {
	return len(s.items)
}

// Append adds items to the end of the sequence.
func (s *Sequence) Append(items ...Value) {
	s.items = append(s.items, items...)
}

func (s *Sequence) Display() string {
	var b strings.Builder
	s.writeCompact(&b)
	return b.String()
}

func (s *Sequence) Equals(other Value) bool {
	o, ok := other.(*Sequence)
	if !ok || len(s.items) != len(o.items) {
		return false
	}
	for i, item := range s.items {
		if !item.Equals(o.items[i]) {
			return false
		}
	}
	return true
}

// Mapping is an ordered association of string keys to values. Keys are unique
// and iterate in insertion order.
type Mapping struct {
	keys    []string
	entries map[string]Value
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{entries: map[string]Value{}}
}

func (m *Mapping) Type() Type {
	return MAPPING
}

// Keys returns the mapping's keys in insertion order. Callers must not modify
// the returned slice.
func (m *Mapping) Keys() []string {
	return m.keys
}

// Get returns the value for the given key.
func (m *Mapping) Get(key string) (Value, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Set associates key with v. A new key is appended to the iteration order; an
// existing key keeps its position.
func (m *Mapping) Set(key string, v Value) {
	if _, exists := m.entries[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = v
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	return len(m.keys)
}

func (m *Mapping) Display() string {
	var b strings.Builder
	m.writeCompact(&b)
	return b.String()
}

func (m *Mapping) Equals(other Value) bool {
	o, ok := other.(*Mapping)
	if !ok || len(m.keys) != len(o.keys) {
		return false
	}
	for i, key := range m.keys {
		if o.keys[i] != key {
			return false
		}
		if !m.entries[key].Equals(o.entries[key]) {
			return false
		}
	}
	return true
}

// FormatNumber renders f using the shortest text that parses back to the same
// float64. Very large and very small magnitudes use exponent notation, the
// same thresholds JavaScript applies when stringifying numbers.
func FormatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if format == 'e' {
		// Trim the leading zero from a two-digit exponent: 1e+05 -> 1e+5.
		if i := strings.IndexByte(s, 'e'); i >= 0 && i+3 < len(s) && s[i+2] == '0' {
			s = s[:i+2] + s[i+3:]
		}
	}
	return s
}

// writeCompact renders the value as single-line JSON, used only for display.
func writeCompact(b *strings.Builder, v Value) {
	switch v := v.(type) {
	case *NullType:
		b.WriteString("null")
	case *Bool:
		b.WriteString(v.Display())
	case *Number:
		b.WriteString(v.Display())
	case *String:
		b.WriteString(strconv.Quote(v.value))
	case *Sequence:
		v.writeCompact(b)
	case *Mapping:
		v.writeCompact(b)
	}
}

func (s *Sequence) writeCompact(b *strings.Builder) {
	b.WriteByte('[')
	for i, item := range s.items {
		if i > 0 {
			b.WriteByte(',')
		}
		writeCompact(b, item)
	}
	b.WriteByte(']')
}

func (m *Mapping) writeCompact(b *strings.Builder) {
	b.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(key))
		b.WriteByte(':')
		writeCompact(b, m.entries[key])
	}
	b.WriteByte('}')
}
