// Package value implements Value (spec.md §3), the tagged union shared by
// both VMs, and its version-sensitive coercions (spec.md §4.B). A Value
// is a small, copy-cheap struct — never an interface — so that pushing
// and popping operand stacks in vm1/vm2 never allocates, mirroring how
// the teacher keeps object.Object as small concrete structs behind a
// single interface rather than boxing every primitive on the heap.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/avmcore/avm/gc"
)

// Kind discriminates the tagged union.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInteger
	KindNumber
	KindString
	KindObject
	KindNamespace
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInteger, KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindNamespace:
		return "namespace"
	default:
		return "unknown"
	}
}

// Value is the tagged sum from spec.md §3: Undefined, Null, Bool, Integer
// (i32), Number (f64), String (interned handle), Object (handle), and
// Namespace (VM2 only).
type Value struct {
	kind   Kind
	b      bool
	i      int32
	n      float64
	str    StringHandle
	obj    gc.Handle
	nsHash uint64 // VM2 namespace identity, opaque to this package
}

// StringHandle is an interned string token (see Interner). Two handles
// compare equal iff the underlying strings are equal, which is what lets
// VM1/VM2 do property-name comparisons as integer comparisons.
type StringHandle struct {
	id int
}

var (
	Undefined = Value{kind: KindUndefined}
	Null      = Value{kind: KindNull}
	True      = Value{kind: KindBool, b: true}
	False     = Value{kind: KindBool, b: false}
)

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func Integer(i int32) Value { return Value{kind: KindInteger, i: i} }

func Uint32(u uint32) Value { return Value{kind: KindInteger, i: int32(u)} }

func Number(f float64) Value { return Value{kind: KindNumber, n: f} }

func StringOf(h StringHandle) Value { return Value{kind: KindString, str: h} }

func Object(h gc.Handle) Value { return Value{kind: KindObject, obj: h} }

func Namespace(hash uint64) Value { return Value{kind: KindNamespace, nsHash: hash} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsNullish() bool   { return v.kind == KindUndefined || v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsInteger() (int32, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindInteger:
		return float64(v.i), true
	default:
		return 0, false
	}
}

func (v Value) AsString() (StringHandle, bool) {
	if v.kind != KindString {
		return StringHandle{}, false
	}
	return v.str, true
}

func (v Value) AsObject() (gc.Handle, bool) {
	if v.kind != KindObject {
		return gc.Handle{}, false
	}
	return v.obj, true
}

// Equals implements `==` for primitive kinds. Object equality (handle
// identity vs. overridden valueOf) is resolved by the caller, which has
// access to the heap.
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		// Numbers compare across Integer/Number representations.
		vn, vok := v.AsNumber()
		on, ook := other.AsNumber()
		if vok && ook {
			return vn == on
		}
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInteger:
		return v.i == other.i
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.str == other.str
	case KindObject:
		return v.obj == other.obj
	case KindNamespace:
		return v.nsHash == other.nsHash
	}
	return false
}

// StrictEquals implements VM2 `===`: NaN != NaN, +0 === -0 (spec.md §4.B).
func (v Value) StrictEquals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	if v.kind == KindNumber {
		if math.IsNaN(v.n) || math.IsNaN(other.n) {
			return false
		}
		return v.n == other.n // +0 == -0 under Go's float comparison
	}
	return v.Equals(other)
}

func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInteger:
		return strconv.Itoa(int(v.i))
	case KindNumber:
		return formatNumber(v.n)
	case KindString:
		return fmt.Sprintf("string#%d", v.str.id)
	case KindObject:
		return fmt.Sprintf("object#%d", v.obj)
	default:
		return "<value>"
	}
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseNumericPrefix trims and parses a string the way to_number requires:
// leading/trailing whitespace ignored, hex "0x"/"0X" prefix recognized,
// empty string parses to 0, anything unparsable yields NaN.
func ParseNumericPrefix(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if n, err := strconv.ParseInt(s[2:], 16, 64); err == nil {
			return float64(n)
		}
		return math.NaN()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return math.NaN()
}
