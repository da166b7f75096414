// Package evaluator implements the Lox tree-walking interpreter.
package evaluator

import (
	"math"
	"strconv"
)

// LoxValue is the interface for all Lox runtime values.
// Use the sealed marker method to restrict implementations to this package.
type LoxValue interface {
	loxValue() // sealed marker
}

// LoxNil represents nil.
type LoxNil struct{}

func (LoxNil) loxValue() {}

// LoxBool represents a boolean value.
type LoxBool struct {
	Value bool
}

func (LoxBool) loxValue() {}

// LoxNumber represents a double-precision number.
type LoxNumber struct {
	Value float64
}

func (LoxNumber) loxValue() {}

// LoxString represents an immutable string.
type LoxString struct {
	Value string
}

func (LoxString) loxValue() {}

// NewNil creates a nil value.
func NewNil() LoxValue {
	return LoxNil{}
}

// NewBool creates a boolean value.
func NewBool(b bool) LoxValue {
	return LoxBool{Value: b}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) LoxValue {
	return LoxNumber{Value: n}
}

// NewString creates a string value.
func NewString(s string) LoxValue {
	return LoxString{Value: s}
}

// Truthiness returns the boolean interpretation of a Lox value.
// nil, false, 0 and "" are falsey; everything else is truthy.
func Truthiness(v LoxValue) bool {
	switch val := v.(type) {
	case nil, LoxNil:
		return false
	case LoxBool:
		return val.Value
	case LoxNumber:
		return val.Value != 0
	case LoxString:
		return val.Value != ""
	default:
		return true
	}
}

// Equal reports whether two values are equal. Values of different kinds
// are never equal; callables and instances compare by identity.
func Equal(a, b LoxValue) bool {
	if a == nil {
		a = LoxNil{}
	}
	if b == nil {
		b = LoxNil{}
	}

	switch av := a.(type) {
	case LoxNil:
		_, ok := b.(LoxNil)
		return ok
	case LoxBool:
		bv, ok := b.(LoxBool)
		return ok && av.Value == bv.Value
	case LoxNumber:
		bv, ok := b.(LoxNumber)
		return ok && av.Value == bv.Value
	case LoxString:
		bv, ok := b.(LoxString)
		return ok && av.Value == bv.Value
	}

	// Remaining variants are pointers.
	return a == b
}

// FormatNumber renders n the way print does: integral values drop the
// fractional part.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == math.Trunc(n) && math.Abs(n) < 1e21:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Stringify returns the printed form of a value.
func Stringify(v LoxValue) string {
	switch val := v.(type) {
	case nil, LoxNil:
		return "nil"
	case LoxBool:
		if val.Value {
			return "true"
		}
		return "false"
	case LoxNumber:
		return FormatNumber(val.Value)
	case LoxString:
		return val.Value
	case *LoxFunction:
		return val.String()
	case *LoxNative:
		return "<native fn>"
	case *LoxClass:
		return val.Name
	case *LoxBoundMethod:
		return val.Method.String()
	case *LoxInstance:
		return val.Class.Name + " instance"
	}
	return "<unknown>"
}

// TypeName returns the Lox type name for error messages and typeof.
func TypeName(v LoxValue) string {
	switch v.(type) {
	case nil, LoxNil:
		return "nil"
	case LoxBool:
		return "boolean"
	case LoxNumber:
		return "number"
	case LoxString:
		return "string"
	case *LoxFunction, *LoxNative, *LoxBoundMethod:
		return "function"
	case *LoxClass:
		return "class"
	case *LoxInstance:
		return "instance"
	}
	return "unknown"
}
