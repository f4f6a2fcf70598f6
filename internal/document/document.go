// Package document models the opaque structured documents exchanged with the
// host: command descriptors and the result documents a replay returns.
//
// A Value is a tagged union over null, bool, number, string, array and object.
// Objects keep their keys in insertion order so that a document decoded from
// JSON encodes back to the same text.
package document

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is one node of a document. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  *orderedmap.OrderedMap[string, Value]
}

// Member is a key/value pair used to build objects.
type Member struct {
	Key   string
	Value Value
}

func M(key string, v Value) Member {
	return Member{Key: key, Value: v}
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// Array copies items into a new array value.
func Array(items ...Value) Value {
	arr := make([]Value, len(items))
	copy(arr, items)
	return Value{kind: KindArray, arr: arr}
}

// Object builds an object whose keys appear in the order given. A repeated
// key keeps its first position and takes the last value.
func Object(members ...Member) Value {
	om := orderedmap.New[string, Value]()
	for _, m := range members {
		om.Set(m.Key, m.Value)
	}
	return Value{kind: KindObject, obj: om}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Len returns the number of array items or object members.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	default:
		return 0
	}
}

// Items returns a copy of the array items, or nil for non-arrays.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	return out
}

// Keys returns object keys in document order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, v.obj.Len())
	for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Members returns the object members in document order.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	out := make([]Member, 0, v.obj.Len())
	for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Member{Key: pair.Key, Value: pair.Value})
	}
	return out
}

func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	return v.obj.Get(key)
}

// With returns a copy of the object with key set to val. Non-objects are
// treated as empty objects.
func (v Value) With(key string, val Value) Value {
	out := Object(v.Members()...)
	out.obj.Set(key, val)
	return out
}

// Clone returns a deep copy, so later edits through With on either side
// never alias.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, item := range v.arr {
			arr[i] = item.Clone()
		}
		return Value{kind: KindArray, arr: arr}
	case KindObject:
		om := orderedmap.New[string, Value]()
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			om.Set(pair.Key, pair.Value.Clone())
		}
		return Value{kind: KindObject, obj: om}
	default:
		return v
	}
}

// Equal reports deep equality. Object member order is significant.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.obj.Len() != other.obj.Len() {
			return false
		}
		a, b := v.obj.Oldest(), other.obj.Oldest()
		for a != nil && b != nil {
			if a.Key != b.Key || !a.Value.Equal(b.Value) {
				return false
			}
			a, b = a.Next(), b.Next()
		}
		return true
	}
	return false
}

// EqualAll compares two document sequences element-wise.
func EqualAll(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// String renders the value as compact JSON. Unencodable numbers render as null.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return "null"
	}
	return string(data)
}
