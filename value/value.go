// Package value hosts the variant-independent helpers over vellum's
// runtime value representation, shared by the tree evaluator and the
// bytecode VM so both execution paths agree on truthiness, equality,
// and display formatting.
//
// A value is a plain Go `any` holding one of: untyped nil, bool,
// float64, String, ConstString, or *interpreter.Function (the
// interpreter package depends on value, not the other way around, so
// functions are handled here only through a narrow Stringer-style
// interface rather than a direct type reference).
package value

import (
	"math"
	"strconv"
)

// String is an owned, heap-allocated string value (the result of
// concatenation or any runtime-constructed text).
type String string

// ConstString is a string value borrowed from the source text, e.g. a
// string literal's contents. It compares equal to a String with the
// same characters.
type ConstString string

// Callable is implemented by runtime-callable values (currently only
// *interpreter.Function). It lets this package format and type-name
// callables without importing the interpreter package.
type Callable interface {
	CallableName() string
}

// IsTruthy reports the boolean projection of v used by "!", "and",
// "or", and conditions: nil and Bool(false) are falsy, everything
// else (including 0 and "") is truthy.
func IsTruthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

func stringOf(v any) (string, bool) {
	switch s := v.(type) {
	case String:
		return string(s), true
	case ConstString:
		return string(s), true
	case string:
		return s, true
	}
	return "", false
}

// Equal reports whether a and b are the same value under spec
// equality: different variants are unequal, Number==Number uses
// bitwise float equality (so NaN != NaN), String and ConstString
// compare by character content, and callables are never equal to
// anything (including themselves).
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if _, ok := a.(Callable); ok {
		return false
	}
	if _, ok := b.(Callable); ok {
		return false
	}
	af, aIsNum := a.(float64)
	bf, bIsNum := b.(float64)
	if aIsNum && bIsNum {
		return af == bf
	}
	as, aIsStr := stringOf(a)
	bs, bIsStr := stringOf(b)
	if aIsStr && bIsStr {
		return as == bs
	}
	ab, aIsBool := a.(bool)
	bb, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return ab == bb
	}
	return false
}

// TypeName returns the spec's variant name for v, used in diagnostics.
func TypeName(v any) string {
	switch vv := v.(type) {
	case nil:
		return "Nil"
	case bool:
		return "Bool"
	case float64:
		return "Number"
	case String:
		return "String"
	case ConstString:
		return "ConstString"
	case Callable:
		_ = vv
		return "Function"
	default:
		return "Unknown"
	}
}

// Stringify renders v the way "print" and REPL echoing display it.
func Stringify(v any) string {
	switch vv := v.(type) {
	case nil:
		return "nil"
	case bool:
		if vv {
			return "true"
		}
		return "false"
	case float64:
		return stringifyFloat(vv)
	case String:
		return string(vv)
	case ConstString:
		return string(vv)
	case Callable:
		return "<fn " + vv.CallableName() + ">"
	default:
		return "<unknown>"
	}
}

// stringifyFloat formats a Number for display. Infinities and NaN are
// rendered lowercase and unsigned-on-the-word ("inf", "-inf", "nan"),
// matching original_source/bytecode/src/value.rs's Display impl for
// f64::INFINITY/NAN rather than Go's default "+Inf"/"NaN" spelling.
func stringifyFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
