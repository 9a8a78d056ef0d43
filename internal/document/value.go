package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Sequence
	Mapping
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one node of the recursive document model: null, bool, number,
// string, an ordered sequence of values, or a mapping of string to value.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	seq  []Value
	m    map[string]Value
}

// NullValue returns the null value.
func NullValue() Value {
	return Value{kind: Null}
}

// BoolValue returns a boolean value.
func BoolValue(b bool) Value {
	return Value{kind: Bool, b: b}
}

// NumberValue returns a numeric value.
func NumberValue(n float64) Value {
	return Value{kind: Number, num: n}
}

// StringValue returns a string value.
func StringValue(s string) Value {
	return Value{kind: String, str: s}
}

// SequenceValue returns an ordered sequence of the given elements.
// The elements are copied.
func SequenceValue(elems ...Value) Value {
	seq := make([]Value, len(elems))
	copy(seq, elems)
	return Value{kind: Sequence, seq: seq}
}

// MappingValue returns a mapping value. The map is copied.
func MappingValue(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: Mapping, m: cp}
}

// Kind reports which variant the value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == Null
}

// AsBool returns the boolean payload, and whether the value is a bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == Bool
}

// AsNumber returns the numeric payload, and whether the value is a number.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == Number
}

// AsString returns the string payload, and whether the value is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == String
}

// AsSequence returns the sequence elements, and whether the value is a
// sequence. The returned slice is shared; use Clone for an independent copy.
func (v Value) AsSequence() ([]Value, bool) {
	return v.seq, v.kind == Sequence
}

// AsMapping returns the mapping entries, and whether the value is a mapping.
// The returned map is shared; use Clone for an independent copy.
func (v Value) AsMapping() (map[string]Value, bool) {
	return v.m, v.kind == Mapping
}

// Len returns the number of elements for sequences and mappings, zero
// otherwise.
func (v Value) Len() int {
	switch v.kind {
	case Sequence:
		return len(v.seq)
	case Mapping:
		return len(v.m)
	default:
		return 0
	}
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	switch v.kind {
	case Sequence:
		seq := make([]Value, len(v.seq))
		for i, e := range v.seq {
			seq[i] = e.Clone()
		}
		return Value{kind: Sequence, seq: seq}
	case Mapping:
		m := make(map[string]Value, len(v.m))
		for k, e := range v.m {
			m[k] = e.Clone()
		}
		return Value{kind: Mapping, m: m}
	default:
		return v
	}
}

// Equal reports whether two values are structurally identical.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Bool:
		return v.b == o.b
	case Number:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case String:
		return v.str == o.str
	case Sequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case Mapping:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, e := range v.m {
			oe, ok := o.m[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON serializes the value canonically: mapping keys are emitted in
// sorted order so identical documents always produce identical bytes.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(v.b)
	case Number:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("cannot serialize non-finite number")
		}
		return json.Marshal(v.num)
	case String:
		return json.Marshal(v.str)
	case Sequence:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Mapping:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := v.m[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown kind %d", int(v.kind))
}

// UnmarshalJSON parses any JSON value into the document model.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return fmt.Errorf("empty JSON value")
	}
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON value")
	}

	switch trimmed[0] {
	case 'n':
		*v = NullValue()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case '[':
		var elems []Value
		if err := json.Unmarshal(data, &elems); err != nil {
			return err
		}
		if elems == nil {
			elems = []Value{}
		}
		*v = Value{kind: Sequence, seq: elems}
		return nil
	case '{':
		var m map[string]Value
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		if m == nil {
			m = map[string]Value{}
		}
		*v = Value{kind: Mapping, m: m}
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = NumberValue(n)
		return nil
	}
}
